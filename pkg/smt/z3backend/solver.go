package z3backend

import (
	z3 "github.com/mjibson/go-z3"

	"github.com/archsymex/symex/pkg/logging"
	"github.com/archsymex/symex/pkg/smt"
)

// Solver mirrors the Push/Pop/Assert/Check surface of Z3's Go binding
// (grounded on the retrieved z3-solver.go reference, whose Solver exposes
// exactly these operations) and layers spec.md §4.1's get_values algorithm
// and derived queries on top.
type Solver struct {
	ctx    *Context
	z3s    *z3.Solver
	logger *logging.ContextLogger // inherited from the owning Context; nil disables logging
}

func (s *Solver) Push(n uint32) {
	s.ctx.mu.Lock()
	defer s.ctx.mu.Unlock()
	for i := uint32(0); i < n; i++ {
		s.z3s.Push()
	}
}

func (s *Solver) Pop(n uint32) {
	s.ctx.mu.Lock()
	defer s.ctx.mu.Unlock()
	for i := uint32(0); i < n; i++ {
		s.z3s.Pop()
	}
}

func (s *Solver) Assert(e smt.Expression) {
	ex := e.(*Expr)
	s.ctx.mu.Lock()
	defer s.ctx.mu.Unlock()
	s.z3s.Assert(ex.bv.Eq(s.ctx.ctx.BVVal(1, 1)))
}

func (s *Solver) IsSat() (bool, error) {
	s.ctx.mu.Lock()
	defer s.ctx.mu.Unlock()
	sat, err := s.checkLocked()
	if s.logger != nil {
		s.logger.WithField("sat", sat).Debug("is_sat query")
	}
	return sat, err
}

// checkLocked assumes s.ctx.mu is already held.
func (s *Solver) checkLocked() (bool, error) {
	sat, err := s.z3s.Check()
	if err != nil {
		return false, smt.ErrUnknown
	}
	return sat, nil
}

func (s *Solver) IsSatWithAssumption(e smt.Expression) (bool, error) {
	ex := e.(*Expr)

	s.ctx.mu.Lock()
	s.z3s.Push()
	s.z3s.Assert(ex.bv.Eq(s.ctx.ctx.BVVal(1, 1)))
	sat, err := s.checkLocked()
	s.z3s.Pop()
	s.ctx.mu.Unlock()

	if s.logger != nil {
		s.logger.WithField("sat", sat).Debug("is_sat_with_assumption query")
	}
	return sat, err
}

func (s *Solver) MustBeEqual(a, b smt.Expression) (bool, error) { return smt.MustBeEqual(s, a, b) }
func (s *Solver) CanEqual(a, b smt.Expression) (bool, error)    { return smt.CanEqual(s, a, b) }

// GetValues implements spec.md §4.1's enumeration algorithm: push a scope,
// repeatedly extract a concrete model value and exclude it, until either k
// solutions are found or the formula becomes unsatisfiable; a final check
// distinguishes Exact true from Exact false. The pushed scope is popped on
// every exit path; model generation stays on throughout, as New configures it.
func (s *Solver) GetValues(e smt.Expression, k int) (smt.Solutions, error) {
	ex := e.(*Expr)

	s.ctx.mu.Lock()
	s.z3s.Push()
	defer func() {
		s.z3s.Pop()
		s.ctx.mu.Unlock()
	}()

	sat, err := s.checkLocked()
	if err != nil {
		return smt.Solutions{}, err
	}
	if !sat {
		return smt.Solutions{Values: nil, Exact: true}, nil
	}

	var values []uint64
	for len(values) < k {
		sat, err := s.checkLocked()
		if err != nil {
			return smt.Solutions{}, err
		}
		if !sat {
			break
		}

		model := s.z3s.Model()
		v, ok := model.Eval(ex.bv).AsInt64()
		model.Close()
		if !ok {
			return smt.Solutions{}, smt.ErrUnknown
		}
		values = append(values, uint64(v))

		s.z3s.Assert(ex.bv.Eq(s.ctx.ctx.BVVal(v, int(ex.width))).Not())
	}

	if len(values) == 0 {
		return smt.Solutions{Values: nil, Exact: true}, nil
	}

	moreExist, err := s.checkLocked()
	if err != nil {
		return smt.Solutions{}, err
	}
	if s.logger != nil {
		s.logger.WithField("count", len(values)).WithField("exact", !moreExist).Debug("get_values query")
	}
	return smt.Solutions{Values: values, Exact: !moreExist}, nil
}

func (s *Solver) Close() {
	s.ctx.mu.Lock()
	defer s.ctx.mu.Unlock()
	if s.z3s != nil {
		s.z3s.Close()
		s.z3s = nil
	}
}
