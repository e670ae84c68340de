// Package executor implements the forking run loop from spec.md §4.4:
// it steps instructions, dispatches hooks, forks paths on branches and
// switches, and turns terminal conditions into path results.
package executor

import (
	"github.com/archsymex/symex/pkg/engerrors"
	"github.com/archsymex/symex/pkg/hooks"
	"github.com/archsymex/symex/pkg/logging"
	"github.com/archsymex/symex/pkg/pathsel"
	"github.com/archsymex/symex/pkg/result"
	"github.com/archsymex/symex/pkg/smt"
	"github.com/archsymex/symex/pkg/state"
)

// Emitted pairs a terminated path with its result, as the executor
// produces a stream of (PathResult, State) per spec.md §4.4.
type Emitted struct {
	Path   *state.Path
	Result result.PathResult
}

// Executor owns the program being explored, the hook tables, and the
// work-list discipline. It holds no state of its own between Run calls.
type Executor struct {
	Program  Program
	Hooks    *hooks.Table
	PCHooks  *hooks.PCTable // nil if the front-end has no PC concept
	Work     pathsel.WorkList
	MaxSteps int // 0 = unbounded; a safety backstop against runaway loops

	// Observer, if non-nil, is notified of fork and termination events as
	// they happen rather than after the fact, so metrics/tracing/event
	// broadcast stay accurate even for a run with many forks. It never
	// affects control flow - a nil Observer is the default and every call
	// site below is nil-checked.
	Observer Observer

	// Logger, if non-nil, is the base logger every line below is reported
	// through, tagged "executor" plus RunID and, once a path is dequeued,
	// a freshly minted PathID (spec.md's logging requirement).
	Logger *logging.Logger
	RunID  string

	pathLog *logging.ContextLogger // current path's logger, set by Run on each dequeue
}

// Observer receives run-progress notifications from Run/runPath.
// pkg/metrics.EngineMetrics implements it directly; pkg/eventstream is
// adapted to it by the CLI driver. Both are reporting collaborators
// only - neither can influence exploration.
type Observer interface {
	Forked()
	PathTerminated(status string, steps int)
}

// New constructs an Executor with the default DFS work-list discipline.
func New(program Program, hookTable *hooks.Table, pcTable *hooks.PCTable) *Executor {
	return &Executor{Program: program, Hooks: hookTable, PCHooks: pcTable, Work: pathsel.NewDFS()}
}

// Run explores every path reachable from initial, returning one Emitted
// per path that did not Suppress (spec.md engine scenario 5: a
// suppressed path is omitted from results entirely). A non-nil error is
// always an engine-level (fatal) failure - path-local failures are
// carried as StatusFailure results, not errors.
func (e *Executor) Run(initial *state.Path) ([]Emitted, error) {
	var out []Emitted
	e.Work.Save(initial)

	for {
		p, ok := e.Work.Next()
		if !ok {
			return out, nil
		}

		if e.Logger != nil {
			e.pathLog = e.Logger.NamedForRun("executor", e.RunID).ForPath(logging.NewPathID())
			e.pathLog.Debug("path dequeued")
		}

		if p.PreConstraint != nil {
			p.AssertPreConstraint()
			sat, err := p.State.Solver.IsSat()
			if err != nil {
				return out, &engerrors.UnknownError{Cause: err}
			}
			if !sat {
				if e.Observer != nil {
					e.Observer.PathTerminated(result.AssumptionUnsatResult().Status.String(), 0)
				}
				if e.pathLog != nil {
					e.pathLog.Info("path terminated: assumption unsat")
				}
				out = append(out, Emitted{Path: p, Result: result.AssumptionUnsatResult()})
				continue
			}
		}

		res, steps, err := e.runPath(p)
		if err != nil {
			return out, err
		}
		if e.Observer != nil {
			e.Observer.PathTerminated(res.Status.String(), steps)
		}
		if e.pathLog != nil {
			e.pathLog.WithField("status", res.Status.String()).WithField("steps", steps).Info("path terminated")
		}
		if res.Status == result.StatusSuppressed {
			continue
		}
		out = append(out, Emitted{Path: p, Result: res})
	}
}

// runPath steps p until it hits a terminal condition, forking child
// paths onto e.Work as needed, and returns the path's own final result
// along with the number of instructions it executed.
func (e *Executor) runPath(p *state.Path) (result.PathResult, int, error) {
	s := p.State
	steps := 0

	for {
		steps++
		if e.MaxSteps > 0 && steps > e.MaxSteps {
			return result.PathResult{}, steps, &engerrors.MalformedProgramError{Reason: "step limit exceeded"}
		}

		instr, err := e.Program.Fetch(s.Location)
		if err != nil {
			if r, ok := pathErrorResult(err, s); ok {
				return r, steps, nil
			}
			return result.PathResult{}, steps, err
		}

		if e.PCHooks != nil {
			if pc, ok := instr.PC(); ok {
				if hr, matched := e.PCHooks.Lookup(pc); matched {
					if r, done := e.applyHookResult(s, hr); done {
						return r, steps, nil
					}
					continue
				}
			}
		}

		switch instr.Terminator() {
		case TermNone:
			if err := instr.Execute(s); err != nil {
				if r, ok := pathErrorResult(err, s); ok {
					return r, steps, nil
				}
				return result.PathResult{}, steps, err
			}
			s.Location = s.Location.WithInstruction(s.Location.Instruction + 1)

		case TermEndSuccess:
			v, hasValue, err := instr.EndValue(s)
			if err != nil {
				if r, ok := pathErrorResult(err, s); ok {
					return r, steps, nil
				}
				return result.PathResult{}, steps, err
			}
			if !hasValue {
				v = nil
			}
			return result.Success(v), steps, nil

		case TermEndFailure:
			return result.Failure(instr.FailureMessage(s), s.Location, callTrace(s)), steps, nil

		case TermBranch:
			r, done, err := e.stepBranch(s, instr)
			if err != nil {
				if pr, ok := pathErrorResult(err, s); ok {
					return pr, steps, nil
				}
				return result.PathResult{}, steps, err
			}
			if done {
				return r, steps, nil
			}

		case TermSwitch:
			r, done, err := e.stepSwitch(s, instr)
			if err != nil {
				if pr, ok := pathErrorResult(err, s); ok {
					return pr, steps, nil
				}
				return result.PathResult{}, steps, err
			}
			if done {
				return r, steps, nil
			}

		case TermCall:
			r, done, err := e.stepCall(s, instr)
			if err != nil {
				if pr, ok := pathErrorResult(err, s); ok {
					return pr, steps, nil
				}
				return result.PathResult{}, steps, err
			}
			if done {
				return r, steps, nil
			}

		case TermReturn:
			r, done, err := e.stepReturn(s, instr)
			if err != nil {
				if pr, ok := pathErrorResult(err, s); ok {
					return pr, steps, nil
				}
				return result.PathResult{}, steps, err
			}
			if done {
				return r, steps, nil
			}

		default:
			return result.PathResult{}, steps, &engerrors.MalformedProgramError{Reason: "unknown terminator kind"}
		}
	}
}

// applyHookResult interprets a hooks.Result that intercepted control
// flow outside of a TermCall (i.e. a PC hook). done is true when the
// path terminated.
func (e *Executor) applyHookResult(s *state.State, r hooks.Result) (result.PathResult, bool) {
	switch r.Action {
	case hooks.ActionEndSuccess:
		return result.Success(r.Value), true
	case hooks.ActionEndFailure:
		return result.Failure(r.Message, s.Location, callTrace(s)), true
	case hooks.ActionSuppress:
		return result.Suppressed(), true
	case hooks.ActionIntrinsic:
		if r.Resume != nil {
			s.Location = *r.Resume
		}
		return result.PathResult{}, false
	default:
		return result.PathResult{}, false
	}
}

func callTrace(s *state.State) []state.Location {
	return s.CallStack.Locations()
}

// pathErrorResult converts err into a path-local failure result when its
// Kind() is engerrors.KindPath, per spec.md §7's propagation policy: only
// a KindFatal error aborts the whole run, everything else fails just the
// one path and lets exploration continue with the next queued path. ok
// is false when err is not path-local and must still propagate as fatal.
func pathErrorResult(err error, s *state.State) (result.PathResult, bool) {
	if te, isTyped := err.(engerrors.Error); isTyped && te.Kind() == engerrors.KindPath {
		return result.Failure(te.Error(), s.Location, callTrace(s)), true
	}
	return result.PathResult{}, false
}

func (e *Executor) stepBranch(s *state.State, instr Instruction) (result.PathResult, bool, error) {
	guard, trueTarget, falseTarget, err := instr.Branch(s)
	if err != nil {
		return result.PathResult{}, false, err
	}

	mustTrue, err := smt.MustBeEqual(s.Solver, guard, s.Ctx.One(1))
	if err != nil {
		return result.PathResult{}, false, &engerrors.UnknownError{Cause: err}
	}
	if mustTrue {
		s.Location = trueTarget
		return result.PathResult{}, false, nil
	}

	mustFalse, err := smt.MustBeEqual(s.Solver, guard, s.Ctx.Zero(1))
	if err != nil {
		return result.PathResult{}, false, &engerrors.UnknownError{Cause: err}
	}
	if mustFalse {
		s.Location = falseTarget
		return result.PathResult{}, false, nil
	}

	trueFeasible, err := s.Solver.IsSatWithAssumption(guard.Eq(s.Ctx.One(1)))
	if err != nil {
		return result.PathResult{}, false, &engerrors.UnknownError{Cause: err}
	}
	falseFeasible, err := s.Solver.IsSatWithAssumption(guard.Eq(s.Ctx.Zero(1)))
	if err != nil {
		return result.PathResult{}, false, &engerrors.UnknownError{Cause: err}
	}

	if trueFeasible && falseFeasible {
		forked := s.Clone()
		forked.Location = falseTarget
		s.Solver.Assert(guard.Eq(s.Ctx.One(1)))
		s.Location = trueTarget
		e.Work.Save(state.NewPathWithConstraint(forked, guard.Eq(s.Ctx.Zero(1))))
		if e.Observer != nil {
			e.Observer.Forked()
		}
		if e.pathLog != nil {
			e.pathLog.Debug("path forked on branch")
		}
		return result.PathResult{}, false, nil
	}
	if trueFeasible {
		s.Location = trueTarget
		return result.PathResult{}, false, nil
	}
	if falseFeasible {
		s.Location = falseTarget
		return result.PathResult{}, false, nil
	}

	return result.AssumptionUnsatResult(), true, nil
}

func (e *Executor) stepSwitch(s *state.State, instr Instruction) (result.PathResult, bool, error) {
	value, cases, defaultTarget, err := instr.Switch(s)
	if err != nil {
		return result.PathResult{}, false, err
	}

	type arm struct {
		guard  smt.Expression
		target state.Location
	}
	arms := make([]arm, 0, len(cases)+1)
	negations := s.Ctx.FromBool(true)
	for _, c := range cases {
		guard := value.Eq(c.Value)
		arms = append(arms, arm{guard: guard, target: c.Target})
		negations = negations.And(value.Ne(c.Value))
	}
	arms = append(arms, arm{guard: negations, target: defaultTarget})

	type feasibleArm struct {
		arm
	}
	var feasible []feasibleArm
	for _, a := range arms {
		ok, err := s.Solver.IsSatWithAssumption(a.guard)
		if err != nil {
			return result.PathResult{}, false, &engerrors.UnknownError{Cause: err}
		}
		if ok {
			feasible = append(feasible, feasibleArm{a})
		}
	}

	if len(feasible) == 0 {
		return result.AssumptionUnsatResult(), true, nil
	}

	chosen := feasible[0]
	for _, fa := range feasible[1:] {
		forked := s.Clone()
		forked.Location = fa.target
		e.Work.Save(state.NewPathWithConstraint(forked, fa.guard))
		if e.Observer != nil {
			e.Observer.Forked()
		}
		if e.pathLog != nil {
			e.pathLog.Debug("path forked on switch")
		}
	}
	s.Solver.Assert(chosen.guard)
	s.Location = chosen.target
	return result.PathResult{}, false, nil
}

func (e *Executor) stepCall(s *state.State, instr Instruction) (result.PathResult, bool, error) {
	call, calleeEntry, returnLocation, err := instr.Call(s)
	if err != nil {
		return result.PathResult{}, false, err
	}

	if hookResult, matched, err := e.Hooks.Dispatch(s, call); matched {
		if err != nil {
			return result.PathResult{}, false, err
		}
		switch hookResult.Action {
		case hooks.ActionEndSuccess, hooks.ActionEndFailure, hooks.ActionSuppress:
			r, done := e.applyHookResult(s, hookResult)
			return r, done, nil
		default:
			if hookResult.Resume != nil {
				s.Location = *hookResult.Resume
			} else if hookResult.Value != nil && call.ResultVar != "" {
				s.Vars.Bind(call.ResultVar, hookResult.Value)
				s.Location = returnLocation
			} else {
				s.Location = returnLocation
			}
			return result.PathResult{}, false, nil
		}
	}

	s.CallStack.Push(state.CallSite{ReturnLocation: returnLocation, ResultVar: call.ResultVar})
	s.Location = calleeEntry
	return result.PathResult{}, false, nil
}

func (e *Executor) stepReturn(s *state.State, instr Instruction) (result.PathResult, bool, error) {
	value, hasValue, err := instr.Return(s)
	if err != nil {
		return result.PathResult{}, false, err
	}

	site, ok := s.CallStack.Pop()
	if !ok {
		if hasValue {
			return result.Success(value), true, nil
		}
		return result.Success(nil), true, nil
	}

	if hasValue && site.ResultVar != "" {
		s.Vars.Bind(site.ResultVar, value)
	}
	s.Location = site.ReturnLocation
	return result.PathResult{}, false, nil
}
