// Package result implements concretization and formatting of terminated
// paths into human-readable reports, per spec.md §4's "Result reporting"
// layer and the emitted-result shape in spec.md §6.
package result

import (
	"fmt"
	"sort"

	"github.com/archsymex/symex/pkg/smt"
	"github.com/archsymex/symex/pkg/state"
)

type Status int

const (
	StatusSuccess Status = iota
	StatusFailure
	StatusSuppressed
	StatusAssumptionUnsat
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "Ok"
	case StatusFailure:
		return "Failed"
	case StatusSuppressed:
		return "Suppressed"
	case StatusAssumptionUnsat:
		return "AssumptionUnsat"
	default:
		return "Unknown"
	}
}

// FailureReason carries the detail the emitted-result shape requires for
// a Failed status: the hook/panic message, the location it occurred at,
// and the call stack leading there.
type FailureReason struct {
	Message    string
	Location   state.Location
	StackTrace []state.Location
}

// PathResult is the executor's terminal verdict for one path, before
// concretization.
type PathResult struct {
	Status  Status
	Value   smt.Expression // optional, set only for a Success with a return value
	Failure *FailureReason
}

func Success(v smt.Expression) PathResult { return PathResult{Status: StatusSuccess, Value: v} }
func Suppressed() PathResult              { return PathResult{Status: StatusSuppressed} }
func AssumptionUnsatResult() PathResult   { return PathResult{Status: StatusAssumptionUnsat} }
func Failure(msg string, loc state.Location, stack []state.Location) PathResult {
	return PathResult{Status: StatusFailure, Failure: &FailureReason{Message: msg, Location: loc, StackTrace: stack}}
}

// SolveFor selects which path statuses get concretized, mirroring
// run_config.solve_for from spec.md §6.
type SolveFor int

const (
	SolveAll SolveFor = iota
	SolveErrors
	SolveSuccesses
)

// Options mirrors the solve_inputs/solve_symbolics/solve_output flags of
// run_config.
type Options struct {
	SolveFor       SolveFor
	SolveInputs    bool
	SolveSymbolics bool
	SolveOutput    bool
}

// Report is the emitted, concretized form of a surviving path.
type Report struct {
	PathIndex            int // 1-based
	Status               Status
	ConcretizedInputs    map[string]uint64
	ConcretizedSymbolics map[string]uint64
	ConcretizedOutput    *uint64
	Failure              *FailureReason
}

// Concretize turns pr into a Report for the given (1-based) path index.
// inputNames and symbolNames name the variables to query when the
// relevant Options flag and SolveFor selection are both satisfied.
func Concretize(pathIndex int, s *state.State, pr PathResult, opts Options, inputNames, symbolNames []string) (*Report, error) {
	if !shouldSolve(pr.Status, opts.SolveFor) {
		return &Report{PathIndex: pathIndex, Status: pr.Status, Failure: pr.Failure}, nil
	}

	r := &Report{PathIndex: pathIndex, Status: pr.Status, Failure: pr.Failure}

	if opts.SolveInputs {
		vals, err := concretizeNames(s, inputNames)
		if err != nil {
			return nil, err
		}
		r.ConcretizedInputs = vals
	}
	if opts.SolveSymbolics {
		vals, err := concretizeNames(s, symbolNames)
		if err != nil {
			return nil, err
		}
		r.ConcretizedSymbolics = vals
	}
	if opts.SolveOutput && pr.Value != nil {
		sols, err := s.Solver.GetValues(pr.Value, 1)
		if err != nil {
			return nil, err
		}
		if len(sols.Values) > 0 {
			v := sols.Values[0]
			r.ConcretizedOutput = &v
		}
	}

	return r, nil
}

func shouldSolve(status Status, sf SolveFor) bool {
	switch sf {
	case SolveErrors:
		return status == StatusFailure
	case SolveSuccesses:
		return status == StatusSuccess
	default:
		return true
	}
}

func concretizeNames(s *state.State, names []string) (map[string]uint64, error) {
	out := make(map[string]uint64, len(names))
	for _, name := range names {
		e, ok := s.Vars.Lookup(name)
		if !ok {
			continue
		}
		sols, err := s.Solver.GetValues(e, 1)
		if err != nil {
			return nil, err
		}
		if len(sols.Values) > 0 {
			out[name] = sols.Values[0]
		}
	}
	return out, nil
}

// FormatText renders r the way a text report (e.g. the CLI collaborator)
// would print one line per path.
func FormatText(r *Report) string {
	switch r.Status {
	case StatusFailure:
		return fmt.Sprintf("path %d: Failed: %s at %s", r.PathIndex, r.Failure.Message, formatLocation(r.Failure.Location))
	case StatusSuppressed:
		return fmt.Sprintf("path %d: Suppressed", r.PathIndex)
	case StatusAssumptionUnsat:
		return fmt.Sprintf("path %d: AssumptionUnsat", r.PathIndex)
	default:
		out := fmt.Sprintf("path %d: Ok", r.PathIndex)
		if r.ConcretizedOutput != nil {
			out += fmt.Sprintf(" (output=0x%x)", *r.ConcretizedOutput)
		}
		if len(r.ConcretizedInputs) > 0 {
			out += " inputs=" + formatValues(r.ConcretizedInputs)
		}
		if len(r.ConcretizedSymbolics) > 0 {
			out += " symbolics=" + formatValues(r.ConcretizedSymbolics)
		}
		return out
	}
}

func formatLocation(l state.Location) string {
	return fmt.Sprintf("%s::%s:%s#%d", l.Module, l.Function, l.Block, l.Instruction)
}

func formatValues(m map[string]uint64) string {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	out := "{"
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%s=0x%x", n, m[n])
	}
	return out + "}"
}
