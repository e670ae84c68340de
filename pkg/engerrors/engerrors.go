// Package engerrors defines the engine's error taxonomy. Every error is
// either path-local (the program under test failed in a way that belongs
// in a result, exploration continues) or fatal (the engine itself cannot
// continue the run). Kind() distinguishes the two so callers at the
// executor/run boundary never have to string-match error messages.
package engerrors

import (
	"fmt"

	"github.com/fatih/color"
)

type Kind int

const (
	KindPath Kind = iota
	KindFatal
)

var (
	pathColor  = color.New(color.FgYellow)
	fatalColor = color.New(color.FgRed, color.Bold)
)

// Error is satisfied by every taxonomy member below.
type Error interface {
	error
	Kind() Kind
	Code() string
}

// --- Solver errors ---

type UnsatError struct{}

func (e *UnsatError) Error() string { return "solver: unsat" }
func (e *UnsatError) Kind() Kind    { return KindPath }
func (e *UnsatError) Code() string  { return "Unsat" }

type UnknownError struct{ Cause error }

func (e *UnknownError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("solver: unknown (%v)", e.Cause)
	}
	return "solver: unknown"
}
func (e *UnknownError) Kind() Kind   { return KindFatal }
func (e *UnknownError) Code() string { return "Unknown" }
func (e *UnknownError) Unwrap() error { return e.Cause }

// --- Memory errors ---

type OutOfMemoryError struct{ Requested, Available uint64 }

func (e *OutOfMemoryError) Error() string {
	return fmt.Sprintf("memory: out of memory (requested %d bits, %d available)", e.Requested, e.Available)
}
func (e *OutOfMemoryError) Kind() Kind   { return KindFatal }
func (e *OutOfMemoryError) Code() string { return "OutOfMemory" }

type OutOfBoundsError struct{ Address, Width uint64 }

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("memory: access at 0x%x width %d out of bounds", e.Address, e.Width)
}
func (e *OutOfBoundsError) Kind() Kind   { return KindPath }
func (e *OutOfBoundsError) Code() string { return "OutOfBounds" }

type UnresolvedError struct{ Reason string }

func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("memory: address unresolved: %s", e.Reason)
}
func (e *UnresolvedError) Kind() Kind   { return KindPath }
func (e *UnresolvedError) Code() string { return "Unresolved" }

// --- Executor errors ---

type AbortError struct{ Code int }

func (e *AbortError) Error() string { return fmt.Sprintf("executor: abort(%d)", e.Code) }
func (e *AbortError) Kind() Kind    { return KindPath }
func (e *AbortError) Code() string  { return "Abort" }

type UnsupportedInstructionError struct{ Mnemonic string }

func (e *UnsupportedInstructionError) Error() string {
	return fmt.Sprintf("executor: unsupported instruction %q", e.Mnemonic)
}
func (e *UnsupportedInstructionError) Kind() Kind   { return KindFatal }
func (e *UnsupportedInstructionError) Code() string { return "UnsupportedInstruction" }

type UnsupportedArchitectureError struct{ Arch string }

func (e *UnsupportedArchitectureError) Error() string {
	return fmt.Sprintf("executor: unsupported architecture %q", e.Arch)
}
func (e *UnsupportedArchitectureError) Kind() Kind   { return KindFatal }
func (e *UnsupportedArchitectureError) Code() string { return "UnsupportedArchitecture" }

type MalformedProgramError struct{ Reason string }

func (e *MalformedProgramError) Error() string {
	return fmt.Sprintf("executor: malformed program: %s", e.Reason)
}
func (e *MalformedProgramError) Kind() Kind   { return KindFatal }
func (e *MalformedProgramError) Code() string { return "MalformedProgram" }

// --- Project errors ---

type UnableToParseElfError struct{ Cause error }

func (e *UnableToParseElfError) Error() string {
	return fmt.Sprintf("project: unable to parse ELF: %v", e.Cause)
}
func (e *UnableToParseElfError) Kind() Kind    { return KindFatal }
func (e *UnableToParseElfError) Code() string  { return "UnableToParseElf" }
func (e *UnableToParseElfError) Unwrap() error { return e.Cause }

type MissingFunctionError struct{ Name string }

func (e *MissingFunctionError) Error() string {
	return fmt.Sprintf("project: missing function %q", e.Name)
}
func (e *MissingFunctionError) Kind() Kind   { return KindFatal }
func (e *MissingFunctionError) Code() string { return "MissingFunction" }

// AssumptionUnsat is a signal, not a failure: a fork whose pre-constraint
// turned out unsatisfiable on resume. The executor does not return this
// type: it reports such a path as a result.StatusAssumptionUnsat result
// and continues with the next path.
type AssumptionUnsat struct{ PathID string }

func (e *AssumptionUnsat) Error() string {
	return fmt.Sprintf("path %s: assumption unsat on resume", e.PathID)
}

// Format renders err the way the run loop reports it to the user: fatal
// errors in bold red, path-local failures in yellow, anything else plain.
func Format(err error) string {
	if err == nil {
		return ""
	}
	if te, ok := err.(Error); ok {
		switch te.Kind() {
		case KindFatal:
			return fatalColor.Sprintf("[%s] %s", te.Code(), te.Error())
		default:
			return pathColor.Sprintf("[%s] %s", te.Code(), te.Error())
		}
	}
	return err.Error()
}

// WithSuggestion appends a remediation hint to err's formatted message
// without changing its type, so callers can still type-switch on it.
func WithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}
	return &suggested{err: err, suggestion: suggestion}
}

type suggested struct {
	err        error
	suggestion string
}

func (s *suggested) Error() string {
	return fmt.Sprintf("%s (suggestion: %s)", s.err.Error(), s.suggestion)
}
func (s *suggested) Unwrap() error { return s.err }
func (s *suggested) Kind() Kind {
	if te, ok := s.err.(Error); ok {
		return te.Kind()
	}
	return KindFatal
}
func (s *suggested) Code() string {
	if te, ok := s.err.(Error); ok {
		return te.Code()
	}
	return "Error"
}
