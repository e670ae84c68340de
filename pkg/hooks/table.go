package hooks

import (
	"strings"

	"github.com/archsymex/symex/pkg/logging"
	"github.com/archsymex/symex/pkg/state"
)

// Hook runs in response to a call matched in either table.
type Hook func(s *state.State, call CallInfo) (Result, error)

type intrinsicEntry struct {
	prefix string
	hook   Hook
}

// Table is the two-surface lookup spec.md §4.6 requires: intrinsic
// prefixes are tried first (in registration order, first match wins),
// then the exact-name table.
type Table struct {
	intrinsics []intrinsicEntry
	named      map[string]Hook
	Logger     *logging.ContextLogger // e.g. logger.Named("hooks"); nil disables logging
}

func NewTable() *Table {
	return &Table{named: map[string]Hook{}}
}

// RegisterIntrinsicPrefix registers hook for every callee whose name has
// the given prefix. Later registrations are tried after earlier ones.
func (t *Table) RegisterIntrinsicPrefix(prefix string, hook Hook) {
	t.intrinsics = append(t.intrinsics, intrinsicEntry{prefix: prefix, hook: hook})
}

// RegisterNamed registers hook for the exact callee name.
func (t *Table) RegisterNamed(name string, hook Hook) {
	t.named[name] = hook
}

// Lookup returns the hook for call.Callee, consulting the intrinsic
// table before the named table, and ok=false if neither matches.
func (t *Table) Lookup(callee string) (Hook, bool) {
	for _, e := range t.intrinsics {
		if strings.HasPrefix(callee, e.prefix) {
			return e.hook, true
		}
	}
	if h, ok := t.named[callee]; ok {
		return h, true
	}
	return nil, false
}

// Dispatch looks up and invokes the hook for call.Callee. ok is false
// when no hook matched - the executor should fall back to an ordinary
// call (push the callee's entry location on the call stack).
func (t *Table) Dispatch(s *state.State, call CallInfo) (result Result, ok bool, err error) {
	hook, found := t.Lookup(call.Callee)
	if !found {
		return Result{}, false, nil
	}
	if t.Logger != nil {
		t.Logger.WithField("callee", call.Callee).Debug("hook dispatched")
	}
	result, err = hook(s, call)
	return result, true, err
}
