package state

import "github.com/archsymex/symex/pkg/smt"

// Path pairs a State with an optional pre-constraint. The pre-constraint
// is asserted exactly once, when the path is dequeued for execution -
// not when it is constructed - so that the solver is never carrying
// constraints for paths nobody has resumed yet.
type Path struct {
	State          *State
	PreConstraint  smt.Expression // nil if this path has no extra constraint to assert
	constraintUsed bool
}

func NewPath(s *State) *Path {
	return &Path{State: s}
}

func NewPathWithConstraint(s *State, constraint smt.Expression) *Path {
	return &Path{State: s, PreConstraint: constraint}
}

// AssertPreConstraint asserts PreConstraint on the path's solver exactly
// once. Calling it more than once is a no-op.
func (p *Path) AssertPreConstraint() {
	if p.constraintUsed || p.PreConstraint == nil {
		return
	}
	p.State.Solver.Assert(p.PreConstraint)
	p.constraintUsed = true
}
