package state

import "github.com/archsymex/symex/pkg/smt"

// Globals maps a global variable or function name to the pointer-width
// expression naming its address. Populated once at state construction
// and shared read-only by every path forked from that state, since
// addresses never change once allocated.
type Globals struct {
	addresses map[string]smt.Expression
}

func NewGlobals() *Globals {
	return &Globals{addresses: map[string]smt.Expression{}}
}

func (g *Globals) set(name string, addr smt.Expression) {
	g.addresses[name] = addr
}

func (g *Globals) Lookup(name string) (smt.Expression, bool) {
	addr, ok := g.addresses[name]
	return addr, ok
}

// Clone is shallow: the address table never mutates after construction,
// so every path can safely share the same Globals value. Exposed for
// callers that want the copy-on-write contract to be explicit.
func (g *Globals) Clone() *Globals { return g }
