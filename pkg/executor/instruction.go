package executor

import (
	"github.com/archsymex/symex/pkg/hooks"
	"github.com/archsymex/symex/pkg/smt"
	"github.com/archsymex/symex/pkg/state"
)

// TermKind classifies one instruction for the run loop. spec.md §9
// notes the source ships two nearly-identical executors (LLVM IR and
// general assembly) sharing one engine parameterized by an Instruction
// collaborator exposing decode, operand resolution, and terminator
// classification - this interface is that collaborator.
type TermKind int

const (
	TermNone TermKind = iota
	TermBranch
	TermSwitch
	TermCall
	TermReturn
	TermEndSuccess
	TermEndFailure
)

// SwitchCase is one non-default arm of a switch terminator.
type SwitchCase struct {
	Value  smt.Expression
	Target state.Location
}

// Instruction is implemented by the (out-of-scope) front-end decoder for
// one instruction at a given location. Only the method matching
// Terminator() is ever called for a given instruction.
type Instruction interface {
	Terminator() TermKind

	// PC returns this instruction's program-counter address and true,
	// or ok=false when the front-end has no PC concept (pure LLVM IR).
	// The executor consults the PC hook table only when ok is true.
	PC() (pc uint64, ok bool)

	// Execute runs a TermNone instruction's semantics: resolve operands
	// from s, compute the result, bind it to the destination name.
	// The executor advances s.Location itself afterward.
	Execute(s *state.State) error

	// Branch returns the width-1 guard and both edge targets for a
	// TermBranch instruction.
	Branch(s *state.State) (guard smt.Expression, trueTarget, falseTarget state.Location, err error)

	// Switch returns the scrutinee, its non-default cases, and the
	// default target for a TermSwitch instruction.
	Switch(s *state.State) (value smt.Expression, cases []SwitchCase, defaultTarget state.Location, err error)

	// Call returns the captured call and the callee's entry location,
	// for a TermCall instruction whose callee did not match any hook.
	// returnLocation is where control resumes after an ordinary return.
	Call(s *state.State) (call hooks.CallInfo, calleeEntry state.Location, returnLocation state.Location, err error)

	// Return returns the optional return value for a TermReturn
	// instruction.
	Return(s *state.State) (value smt.Expression, hasValue bool, err error)

	// FailureMessage renders a human message for a TermEndFailure
	// instruction.
	FailureMessage(s *state.State) string

	// EndValue returns the optional value carried by a TermEndSuccess
	// instruction (e.g. an explicit top-level `ret` in LLVM IR).
	EndValue(s *state.State) (value smt.Expression, hasValue bool, err error)
}

// Program fetches instructions by location. Parsing the actual ELF
// binary or LLVM bitcode into a Program is an external collaborator
// outside this package's scope.
type Program interface {
	Fetch(loc state.Location) (Instruction, error)
}
