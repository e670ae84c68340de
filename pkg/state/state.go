// Package state implements the per-path bundle spec.md §3/§4.3 describes:
// variable bindings, call stack, current location, memory, globals, and
// the constraint context that travels with one path through the executor.
package state

import (
	"github.com/archsymex/symex/pkg/memory"
	"github.com/archsymex/symex/pkg/project"
	"github.com/archsymex/symex/pkg/smt"
)

// State is a per-path bundle: everything the executor needs to resume
// stepping a path from wherever it last stopped.
type State struct {
	Project     *project.Project
	Ctx         smt.Context
	Solver      smt.Solver
	Memory      *memory.Memory
	Globals     *Globals
	Vars        *VarMap
	Generations *Generations
	CallStack   *CallStack
	Location    Location

	CycleCount   uint64
	cyclecounting bool
}

// New constructs a fresh state for proj using solver/ctx as the path's
// bound backend session, and performs global allocation: every global
// with an initializer is allocated from memory and its initializer
// written; every function gets a pointer-sized address slot; bare
// declarations are skipped. Without this step programs that read
// initialized globals would silently observe unconstrained values.
func New(proj *project.Project, ctx smt.Context, solver smt.Solver, entryLocation Location) *State {
	mem := memory.New(ctx, solver, memory.Config{
		PointerWidth:     proj.PointerWidth,
		Base:             0x1000,
		Limit:            1 << 32,
		DefaultAlignment: proj.DefaultAlignment,
	})

	s := &State{
		Project:     proj,
		Ctx:         ctx,
		Solver:      solver,
		Memory:      mem,
		Globals:     NewGlobals(),
		Vars:        NewVarMap(),
		Generations: NewGenerations(),
		CallStack:   NewCallStack(),
		Location:    entryLocation,
	}
	s.allocateGlobals()
	return s
}

func (s *State) allocateGlobals() {
	for _, mod := range s.Project.Modules {
		for _, g := range mod.Globals {
			if g.Initializer == nil {
				continue
			}
			sizeBits := g.SizeBits
			if sizeBits == 0 {
				sizeBits = 8
			}
			addr, err := s.Memory.Allocate(sizeBits, 0)
			if err != nil {
				panic("state: global allocation failed: " + err.Error())
			}
			s.Globals.set(g.Name, addr)

			value := bytesToExpr(s.Ctx, g.Initializer, uint32(sizeBits))
			if err := s.Memory.Write(addr, value); err != nil {
				panic("state: global initializer write failed: " + err.Error())
			}
		}
		for _, fn := range mod.Functions {
			addr, err := s.Memory.Allocate(uint64(s.Project.PointerWidth), 0)
			if err != nil {
				panic("state: function slot allocation failed: " + err.Error())
			}
			s.Globals.set(fn.Name, addr)
		}
	}
}

func bytesToExpr(ctx smt.Context, data []byte, widthBits uint32) smt.Expression {
	var v uint64
	for i := 0; i < len(data) && i < 8; i++ {
		v |= uint64(data[i]) << (8 * uint(i))
	}
	return ctx.FromU64(v, widthBits)
}

// StackAlloc reserves size bits of stack-local storage from the state's
// memory allocator (the same object table global allocation used; spec.md
// describes "a bump allocator for stack slots" as part of State, and this
// engine models it as the one Memory region every allocation shares).
// align == 0 defers to the project's default alignment.
func (s *State) StackAlloc(sizeBits uint64, align uint32) (smt.Expression, error) {
	return s.Memory.Allocate(sizeBits, align)
}

// StartCycleCounting resets CycleCount to zero and begins incrementing it
// as cycle-contributing instructions execute, until StopCycleCounting.
func (s *State) StartCycleCounting() {
	s.CycleCount = 0
	s.cyclecounting = true
}

func (s *State) StopCycleCounting() { s.cyclecounting = false }

func (s *State) TickCycle(n uint64) {
	if s.cyclecounting {
		s.CycleCount += n
	}
}

// Clone returns a copy-on-write snapshot suitable for forking a new path:
// memory, the variable map, the call stack, and the generation registry
// are all duplicated so that mutating the clone never affects the
// original. Globals, the project reference, and the solver are shared -
// spec.md §4.5 requires exactly one Solver per run, with push/pop scope
// nesting (not per-path instances) swapping which path's constraints
// are live; see pkg/pathsel.
func (s *State) Clone() *State {
	clone := &State{
		Project:       s.Project,
		Ctx:           s.Ctx,
		Solver:        s.Solver,
		Memory:        s.Memory.Clone(),
		Globals:       s.Globals.Clone(),
		Vars:          s.Vars.Clone(),
		Generations:   s.Generations.Clone(),
		CallStack:     s.CallStack.Clone(),
		Location:      s.Location,
		CycleCount:    s.CycleCount,
		cyclecounting: s.cyclecounting,
	}
	return clone
}
