// Package smt defines the bitvector expression algebra and the incremental
// satisfiability oracle the rest of the engine is built on top of. The
// package itself is backend-agnostic: concrete expressions and solvers are
// supplied by a Context implementation (see pkg/smt/z3backend for the
// production backend and pkg/smt/refsolver for the deterministic backend
// used in tests).
package smt

import "errors"

// SolverError is the taxonomy from spec.md §7 "Solver errors".
var (
	// ErrUnsat is not actually returned by any API here - callers read it off
	// IsSat's bool return. It exists so higher layers can wrap it uniformly.
	ErrUnsat = errors.New("smt: unsat")

	// ErrUnknown is returned when the backend cannot determine satisfiability
	// within its resource bounds. It is an engine-level failure: callers
	// must not keep exploring the path that triggered it.
	ErrUnknown = errors.New("smt: unknown")
)

// Expression is an immutable symbolic bitvector value of fixed width. Every
// Expression is bound to the Context that produced it; mixing Expressions
// from different Contexts is undefined and implementations are free to
// panic if they detect it.
type Expression interface {
	// Width returns the bit width of the expression.
	Width() uint32

	ZeroExt(width uint32) Expression
	SignExt(width uint32) Expression

	// ResizeUnsigned resizes to width, zero-extending when width is larger.
	// Per spec.md §9 Open Questions, truncation to a smaller width is
	// treated as an error rather than a silent bit-drop.
	ResizeUnsigned(width uint32) (Expression, error)

	Eq(other Expression) Expression
	Ne(other Expression) Expression

	Ult(other Expression) Expression
	Ule(other Expression) Expression
	Ugt(other Expression) Expression
	Uge(other Expression) Expression
	Slt(other Expression) Expression
	Sle(other Expression) Expression
	Sgt(other Expression) Expression
	Sge(other Expression) Expression

	Add(other Expression) Expression
	Sub(other Expression) Expression
	Mul(other Expression) Expression
	Udiv(other Expression) Expression
	Sdiv(other Expression) Expression
	Urem(other Expression) Expression
	Srem(other Expression) Expression

	Not() Expression
	And(other Expression) Expression
	Or(other Expression) Expression
	Xor(other Expression) Expression
	Shl(other Expression) Expression
	Lshr(other Expression) Expression
	Ashr(other Expression) Expression

	// Ite requires cond.Width() == 1.
	Ite(then, els Expression) Expression

	Concat(other Expression) Expression

	// Slice returns bits [lo, hi] inclusive; requires 0 <= lo <= hi < Width().
	Slice(lo, hi uint32) Expression

	UAddO(other Expression) Expression
	SAddO(other Expression) Expression
	USubO(other Expression) Expression
	SSubO(other Expression) Expression
	UMulO(other Expression) Expression
	SMulO(other Expression) Expression

	// UAdds and SAdds are the saturating add variants from spec.md §4.1.
	// ReplacePart writes replacement into self at bit offset start,
	// preserving the unaffected bits either side.
	UAdds(other Expression) Expression
	SAdds(other Expression) Expression
	ReplacePart(start uint32, replacement Expression) Expression

	Simplify() Expression

	GetConstant() (value uint64, ok bool)
	GetConstantBool() (value bool, ok bool)
	ToBinaryString() string

	Context() Context
}

// Context is the factory that mints Expressions, pinned to a single backend
// session. Its lifetime bounds the lifetime of every Expression it produces.
type Context interface {
	Unconstrained(bits uint32, name string) Expression
	Zero(bits uint32) Expression
	One(bits uint32) Expression
	FromBool(value bool) Expression
	FromU64(value uint64, bits uint32) Expression
	FromBinary(bits string) Expression

	UnsignedMax(bits uint32) Expression
	SignedMax(bits uint32) Expression
	SignedMin(bits uint32) Expression

	// NewSolver opens a fresh incremental solver session bound to this
	// context. Contexts may share the underlying backend session across
	// solvers, or not - that is an implementation's choice.
	NewSolver() Solver
}

// Solutions is the result of Solver.GetValues: either the exhaustive set of
// satisfying assignments (Exact true) or a lower bound (Exact false)
// discovered before the bound k was reached.
type Solutions struct {
	Values  []uint64
	Exact   bool
}

// Solver is a mutable satisfiability engine holding an accumulating list of
// asserted constraints and a stack of scopes. See spec.md §4.1 for the
// algorithm governing GetValues and the push/pop symmetry contract.
type Solver interface {
	Push(n uint32)
	Pop(n uint32)

	IsSat() (bool, error)
	IsSatWithAssumption(e Expression) (bool, error)

	Assert(e Expression)

	MustBeEqual(a, b Expression) (bool, error)
	CanEqual(a, b Expression) (bool, error)

	GetValues(e Expression, k int) (Solutions, error)

	// Close releases backend resources. Safe to call more than once.
	Close()
}
