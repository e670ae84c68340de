package refsolver

import "math/rand"

const maxLocalSearchIters = 40000

// solve finds an assignment satisfying every assertion in the conjunction,
// reusing warmStart where possible. It is exhaustive (sound and complete)
// when the combined symbol domain is small; otherwise it falls back to a
// seeded local search, which can fail to find a satisfying assignment that
// exists (a false "unsat") - acceptable for a reference/test backend, never
// for the production z3backend.
func solve(assertions []*expr, warmStart map[string]uint64, rng *rand.Rand) (bool, map[string]uint64, error) {
	symbols := map[string]uint32{}
	for _, a := range assertions {
		collectSymbols(a, symbols)
	}
	if len(symbols) == 0 {
		for _, a := range assertions {
			if a.eval(nil) != 1 {
				return false, nil, nil
			}
		}
		return true, map[string]uint64{}, nil
	}

	totalBits := uint64(0)
	for _, w := range symbols {
		totalBits += uint64(w)
	}

	if totalBits <= refWidthBruteForceLimit {
		model, ok := exhaustiveSearch(assertions, symbols)
		return ok, model, nil
	}

	model, ok := localSearch(assertions, symbols, warmStart, rng)
	return ok, model, nil
}

func collectSymbols(e *expr, out map[string]uint32) {
	switch e.kind {
	case kindSymbol:
		out[e.name] = e.width
	case kindUnary, kindZeroExt, kindSignExt, kindSlice:
		collectSymbols(e.a, out)
	case kindBinary, kindConcat:
		collectSymbols(e.a, out)
		collectSymbols(e.b, out)
	case kindIte:
		collectSymbols(e.cond, out)
		collectSymbols(e.then, out)
		collectSymbols(e.els, out)
	}
}

func satisfiesAll(assertions []*expr, model map[string]uint64) bool {
	for _, a := range assertions {
		if a.eval(model) != 1 {
			return false
		}
	}
	return true
}

func exhaustiveSearch(assertions []*expr, symbols map[string]uint32) (map[string]uint64, bool) {
	names := make([]string, 0, len(symbols))
	widths := make([]uint32, 0, len(symbols))
	for n, w := range symbols {
		names = append(names, n)
		widths = append(widths, w)
	}

	model := make(map[string]uint64, len(names))
	var rec func(i int) bool
	rec = func(i int) bool {
		if i == len(names) {
			return satisfiesAll(assertions, model)
		}
		domain := uint64(1) << widths[i]
		for v := uint64(0); v < domain; v++ {
			model[names[i]] = v
			if rec(i + 1) {
				return true
			}
		}
		return false
	}

	if rec(0) {
		return model, true
	}
	return nil, false
}

// localSearch is a WalkSAT-style heuristic: candidate values are biased
// towards constants that appear literally in the formula (so equality and
// narrow-range constraints like x == 42 or x < 10 are found quickly)
// alongside 0, 1, and the domain extremes.
func localSearch(assertions []*expr, symbols map[string]uint32, warmStart map[string]uint64, rng *rand.Rand) (map[string]uint64, bool) {
	candidates := map[string][]uint64{}
	constants := collectConstants(assertions)
	for name, width := range symbols {
		cs := []uint64{0, 1, mask(^uint64(0), width)}
		for _, c := range constants {
			cs = append(cs, mask(c, width), mask(c+1, width), mask(c-1, width))
		}
		candidates[name] = cs
	}

	model := map[string]uint64{}
	for name, width := range symbols {
		if v, ok := warmStart[name]; ok {
			model[name] = mask(v, width)
		} else {
			model[name] = 0
		}
	}

	names := make([]string, 0, len(symbols))
	for n := range symbols {
		names = append(names, n)
	}

	bestUnsat := countUnsatisfied(assertions, model)
	if bestUnsat == 0 {
		return model, true
	}

	for iter := 0; iter < maxLocalSearchIters; iter++ {
		name := names[rng.Intn(len(names))]
		cs := candidates[name]
		candidate := cs[rng.Intn(len(cs))]
		if rng.Intn(4) == 0 {
			candidate = mask(rng.Uint64(), symbols[name])
		}

		prev := model[name]
		model[name] = candidate
		unsat := countUnsatisfied(assertions, model)

		if unsat == 0 {
			return model, true
		}
		if unsat <= bestUnsat || rng.Intn(20) == 0 {
			bestUnsat = unsat
		} else {
			model[name] = prev
		}
	}

	return nil, false
}

func countUnsatisfied(assertions []*expr, model map[string]uint64) int {
	n := 0
	for _, a := range assertions {
		if a.eval(model) != 1 {
			n++
		}
	}
	return n
}

func collectConstants(assertions []*expr) []uint64 {
	set := map[uint64]bool{}
	var walk func(e *expr)
	walk = func(e *expr) {
		switch e.kind {
		case kindConst:
			set[e.value] = true
		case kindUnary, kindZeroExt, kindSignExt, kindSlice:
			walk(e.a)
		case kindBinary, kindConcat:
			walk(e.a)
			walk(e.b)
		case kindIte:
			walk(e.cond)
			walk(e.then)
			walk(e.els)
		}
	}
	for _, a := range assertions {
		walk(a)
	}
	out := make([]uint64, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	return out
}
