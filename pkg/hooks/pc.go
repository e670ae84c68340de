package hooks

import "regexp"

// EndPC is the synthetic return-address sentinel for the top stack
// frame. The engine must never dispatch real instructions at this
// address; it is always registered as an EndSuccess PC hook.
const EndPC uint64 = 0xFFFFFFFE

// PCHookSpec pairs a symbol-name pattern with the action to take when
// control reaches any matching symbol's address.
type PCHookSpec struct {
	Pattern *regexp.Regexp
	Action  Action
	Message string
}

// PCTable maps concrete addresses to actions, resolved once at project
// build time by matching each PCHookSpec's pattern against the symbol
// table.
type PCTable struct {
	hooks map[uint64]Result
}

// BuildPCTable matches specs against symbols (name -> address), in spec
// order; the first spec matching a given symbol wins for that address.
// EndPC is always registered as EndSuccess regardless of specs.
func BuildPCTable(symbols map[string]uint64, specs []PCHookSpec) *PCTable {
	t := &PCTable{hooks: map[uint64]Result{EndPC: {Action: ActionEndSuccess}}}
	for name, addr := range symbols {
		if addr == EndPC {
			continue
		}
		for _, spec := range specs {
			if spec.Pattern.MatchString(name) {
				t.hooks[addr] = Result{Action: spec.Action, Message: spec.Message}
				break
			}
		}
	}
	return t
}

func (t *PCTable) Lookup(pc uint64) (Result, bool) {
	r, ok := t.hooks[pc]
	return r, ok
}
