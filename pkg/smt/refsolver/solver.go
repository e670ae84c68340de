package refsolver

import (
	"math/rand"

	"github.com/archsymex/symex/pkg/smt"
)

// Solver is the reference implementation of smt.Solver. It keeps the
// asserted constraints as a flat slice plus a stack of scope marks, exactly
// matching the push(n)/pop(n) contract in spec.md §3: after push(n) then
// pop(n) the asserted set is restored bit-for-bit.
type Solver struct {
	ctx        *Context
	assertions []*expr
	marks      []int
	rng        *rand.Rand
	model      map[string]uint64
}

func (s *Solver) Push(n uint32) {
	for i := uint32(0); i < n; i++ {
		s.marks = append(s.marks, len(s.assertions))
	}
}

func (s *Solver) Pop(n uint32) {
	for i := uint32(0); i < n; i++ {
		if len(s.marks) == 0 {
			panic("smt: Pop without matching Push")
		}
		mark := s.marks[len(s.marks)-1]
		s.marks = s.marks[:len(s.marks)-1]
		s.assertions = s.assertions[:mark]
	}
}

func (s *Solver) Assert(e smt.Expression) {
	s.assertions = append(s.assertions, asExpr(e))
}

func (s *Solver) IsSat() (bool, error) {
	sat, model, err := solve(s.assertions, s.model, s.rng)
	if err != nil {
		return false, err
	}
	if sat {
		s.model = model
	}
	return sat, nil
}

func (s *Solver) IsSatWithAssumption(e smt.Expression) (bool, error) {
	all := append(append([]*expr{}, s.assertions...), asExpr(e))
	sat, _, err := solve(all, s.model, s.rng)
	return sat, err
}

func (s *Solver) MustBeEqual(a, b smt.Expression) (bool, error) { return smt.MustBeEqual(s, a, b) }
func (s *Solver) CanEqual(a, b smt.Expression) (bool, error)    { return smt.CanEqual(s, a, b) }

func (s *Solver) GetValues(e smt.Expression, k int) (smt.Solutions, error) {
	target := asExpr(e)
	working := append([]*expr{}, s.assertions...)

	sat, model, err := solve(working, s.model, s.rng)
	if err != nil {
		return smt.Solutions{}, err
	}
	if !sat {
		return smt.Solutions{Values: nil, Exact: true}, nil
	}

	var values []uint64
	seen := map[uint64]bool{}
	for len(values) < k {
		sat, model, err = solve(working, model, s.rng)
		if err != nil {
			return smt.Solutions{}, err
		}
		if !sat {
			break
		}
		v := target.eval(model)
		if !seen[v] {
			seen[v] = true
			values = append(values, v)
		}
		excl := target.ctx.FromU64(v, target.width)
		working = append(working, asExpr(target.Ne(excl)))
	}

	if len(values) == 0 {
		return smt.Solutions{Values: nil, Exact: true}, nil
	}

	moreExist, _, err := solve(working, model, s.rng)
	if err != nil {
		return smt.Solutions{}, err
	}
	return smt.Solutions{Values: values, Exact: !moreExist}, nil
}

func (s *Solver) Close() {}
