// Package hooks implements interception of named functions and program
// counters, per spec.md §4.6. Two lookup surfaces are consulted, in
// order: an intrinsic table keyed by name prefix (for compiler
// intrinsics like llvm.memcpy.*), then a named-function table keyed by
// exact symbol name. A separate PC table, built once from regex
// patterns matched against the project's symbol table, intercepts
// binary execution by address.
package hooks

import (
	"github.com/archsymex/symex/pkg/smt"
	"github.com/archsymex/symex/pkg/state"
)

type Action int

const (
	ActionContinue Action = iota
	ActionEndSuccess
	ActionEndFailure
	ActionSuppress
	// ActionIntrinsic means the hook fully handled control-flow transfer
	// itself (e.g. start_cyclecount sets PC := LR); the caller should
	// simply resume stepping wherever the hook left state.Location.
	ActionIntrinsic
)

// Result is what a hook returns to the executor. Resume is nil for an
// ordinary void-returning intrinsic (the executor falls through to the
// instruction after the call, exactly as an unhooked call returning
// would); it is set explicitly by intrinsics that must restore control
// flow themselves, such as start_cyclecount/end_cyclecount simulating a
// function return via the caller's own call site.
type Result struct {
	Action  Action
	Value   smt.Expression // optional, for ActionEndSuccess
	Message string         // for ActionEndFailure
	Resume  *state.Location
}

func Continue() Result                  { return Result{Action: ActionIntrinsic} }
func EndSuccess(v smt.Expression) Result { return Result{Action: ActionEndSuccess, Value: v} }
func EndFailure(msg string) Result       { return Result{Action: ActionEndFailure, Message: msg} }
func Suppress() Result                  { return Result{Action: ActionSuppress} }

// Argument is one captured call argument, mirroring the original
// source's FnInfo-style capture of arguments plus attributes.
type Argument struct {
	Value     smt.Expression
	Name      string // source name if known, else ""
	Attrs     []string
	PointeeBits uint32 // nonzero when Value is a pointer and the callee's signature names a pointee width
}

// CallInfo is a captured call: callee name, its arguments (each with its
// source name and attributes, when known), the call's own attribute
// block, and where to resume once a hook (or ordinary return) produces a
// value.
type CallInfo struct {
	Callee       string
	Args         []Argument
	FnAttrs      []string
	ResultVar    string
}
