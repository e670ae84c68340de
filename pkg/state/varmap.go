package state

import (
	"strconv"

	"github.com/archsymex/symex/pkg/smt"
)

// VarMap associates SSA-style names with their current expression.
// Lookup(name) always returns the latest binding. Scoped to a single
// path's current frame.
type VarMap struct {
	bindings    map[string]smt.Expression
	generations *Generations
}

func NewVarMap() *VarMap {
	return &VarMap{bindings: map[string]smt.Expression{}, generations: NewGenerations()}
}

// Bind assigns value as the latest binding for name. spec.md §4.3
// requires a rebind to disambiguate rather than clobber: if name already
// holds a value, that prior value is archived under a fresh generation
// label (via Generations.Next) before name is advanced, so a reference
// captured against an earlier generation - e.g. a call result var reused
// across a loop's iterations - stays resolvable by that label after a
// later straight-line rebind of the same name.
func (v *VarMap) Bind(name string, value smt.Expression) {
	if prior, exists := v.bindings[name]; exists {
		label := v.generations.Next(name)
		if label == name {
			label = v.generations.Next(name)
		}
		v.bindings[label] = prior
	}
	v.bindings[name] = value
}

func (v *VarMap) Lookup(name string) (smt.Expression, bool) {
	e, ok := v.bindings[name]
	return e, ok
}

// Clone returns a copy-on-write snapshot: rebinding a name on the clone
// never affects the original map.
func (v *VarMap) Clone() *VarMap {
	out := make(map[string]smt.Expression, len(v.bindings))
	for k, val := range v.bindings {
		out[k] = val
	}
	return &VarMap{bindings: out, generations: v.generations.Clone()}
}

// Generations disambiguates repeated fresh-symbol creation against the
// same logical name (spec.md §9: "symbolic(p) may be called repeatedly
// against the same pointer, shadowing the prior symbol"). Each call to
// Next returns a label suffixed with a monotonically increasing
// generation counter private to that name.
type Generations struct {
	counters map[string]int
}

func NewGenerations() *Generations {
	return &Generations{counters: map[string]int{}}
}

// Next returns a fresh label for name: "name" the first time, then
// "name.1", "name.2", and so on.
func (g *Generations) Next(name string) string {
	n := g.counters[name]
	g.counters[name] = n + 1
	if n == 0 {
		return name
	}
	return name + "." + strconv.Itoa(n)
}

func (g *Generations) Clone() *Generations {
	out := make(map[string]int, len(g.counters))
	for k, v := range g.counters {
		out[k] = v
	}
	return &Generations{counters: out}
}
