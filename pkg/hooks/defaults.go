package hooks

import (
	"fmt"

	"github.com/archsymex/symex/pkg/state"
)

// panicFamily are the exact runtime symbols spec.md §4.6 requires the
// engine to recognize regardless of front-end (LLVM IR or assembly).
var panicFamily = []string{
	"panic",
	"panic_bounds_check",
	"panic_cold_explicit",
	"unwrap_failed",
	"unreachable_unchecked",
}

// RegisterRequired installs every hook spec.md §4.6 mandates onto t.
// Callers add project-specific hooks (register_read_hooks, memory hooks,
// user pc_hooks) on top of this baseline.
func RegisterRequired(t *Table) {
	for _, name := range panicFamily {
		n := name
		t.RegisterNamed(n, func(s *state.State, call CallInfo) (Result, error) {
			msg := n
			if len(call.Args) > 0 {
				if v, ok := call.Args[0].Value.GetConstant(); ok {
					msg = fmt.Sprintf("%s (arg0=0x%x)", n, v)
				}
			}
			return EndFailure(msg), nil
		})
	}

	t.RegisterNamed("suppress_path", func(s *state.State, call CallInfo) (Result, error) {
		return Suppress(), nil
	})

	t.RegisterNamed("assume", func(s *state.State, call CallInfo) (Result, error) {
		if len(call.Args) == 0 {
			return Result{}, fmt.Errorf("hooks: assume called with no argument")
		}
		s.Solver.Assert(call.Args[0].Value)
		return Continue(), nil
	})

	t.RegisterNamed("symbolic", func(s *state.State, call CallInfo) (Result, error) {
		if len(call.Args) == 0 {
			return Result{}, fmt.Errorf("hooks: symbolic called with no argument")
		}
		ptr := call.Args[0]
		width := ptr.PointeeBits
		if width == 0 {
			width = s.Project.PointerWidth
		}

		label := ptr.Name
		if label == "" {
			label = "sym"
		}
		label = s.Generations.Next(label)

		fresh := s.Ctx.Unconstrained(width, label)
		if err := s.Memory.Write(ptr.Value, fresh); err != nil {
			return Result{}, err
		}
		s.Vars.Bind(label, fresh)
		return Continue(), nil
	})

	cycleHook := func(starting bool) Hook {
		return func(s *state.State, call CallInfo) (Result, error) {
			if starting {
				s.StartCycleCounting()
			} else {
				s.StopCycleCounting()
			}
			site, ok := s.CallStack.Pop()
			if !ok {
				return EndSuccess(nil), nil
			}
			loc := site.ReturnLocation
			return Result{Action: ActionIntrinsic, Resume: &loc}, nil
		}
	}
	t.RegisterNamed("start_cyclecount", cycleHook(true))
	t.RegisterNamed("end_cyclecount", cycleHook(false))
}
