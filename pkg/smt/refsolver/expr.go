package refsolver

import (
	"strconv"

	"github.com/archsymex/symex/pkg/smt"
)

type kind int

const (
	kindConst kind = iota
	kindSymbol
	kindUnary
	kindBinary
	kindIte
	kindConcat
	kindSlice
	kindZeroExt
	kindSignExt
)

type op int

const (
	opNot op = iota
	opAdd
	opSub
	opMul
	opUdiv
	opSdiv
	opUrem
	opSrem
	opAnd
	opOr
	opXor
	opShl
	opLshr
	opAshr
	opEq
	opNe
	opUlt
	opUle
	opUgt
	opUge
	opSlt
	opSle
	opSgt
	opSge
	opUAddO
	opSAddO
	opUSubO
	opSSubO
	opUMulO
	opSMulO
)

// expr is an immutable AST node. Symbols are evaluated against an
// assignment supplied by the Solver performing search.
type expr struct {
	ctx   *Context
	kind  kind
	width uint32

	// kindConst
	value uint64
	// kindSymbol
	name string
	// kindUnary / kindBinary
	op       op
	a, b     *expr
	// kindIte
	cond, then, els *expr
	// kindConcat (hi=a, lo=b)
	// kindSlice / kindZeroExt / kindSignExt
	lo, hi uint32
}

func (e *expr) Width() uint32        { return e.width }
func (e *expr) Context() smt.Context { return e.ctx }

func asExpr(x smt.Expression) *expr { return x.(*expr) }

func (e *expr) binary(o op, other smt.Expression, resultWidth uint32) *expr {
	b := asExpr(other)
	if e.width != b.width {
		panic("smt: operand width mismatch")
	}
	return &expr{ctx: e.ctx, kind: kindBinary, width: resultWidth, op: o, a: e, b: b}
}

func (e *expr) cmp(o op, other smt.Expression) smt.Expression { return e.binary(o, other, 1) }

func (e *expr) ZeroExt(width uint32) smt.Expression {
	if width < e.width {
		panic("smt: ZeroExt to smaller width")
	}
	return &expr{ctx: e.ctx, kind: kindZeroExt, width: width, a: e}
}

func (e *expr) SignExt(width uint32) smt.Expression {
	if width < e.width {
		panic("smt: SignExt to smaller width")
	}
	return &expr{ctx: e.ctx, kind: kindSignExt, width: width, a: e}
}

func (e *expr) ResizeUnsigned(width uint32) (smt.Expression, error) {
	if width < e.width {
		return nil, errTruncate(e.width, width)
	}
	return e.ZeroExt(width), nil
}

func errTruncate(from, to uint32) error {
	return &truncateError{from: from, to: to}
}

type truncateError struct{ from, to uint32 }

func (t *truncateError) Error() string {
	return "smt: ResizeUnsigned(" + strconv.Itoa(int(t.to)) + ") would truncate a " +
		strconv.Itoa(int(t.from)) + "-bit value"
}

func (e *expr) Eq(other smt.Expression) smt.Expression  { return e.cmp(opEq, other) }
func (e *expr) Ne(other smt.Expression) smt.Expression  { return e.cmp(opNe, other) }
func (e *expr) Ult(other smt.Expression) smt.Expression { return e.cmp(opUlt, other) }
func (e *expr) Ule(other smt.Expression) smt.Expression { return e.cmp(opUle, other) }
func (e *expr) Ugt(other smt.Expression) smt.Expression { return e.cmp(opUgt, other) }
func (e *expr) Uge(other smt.Expression) smt.Expression { return e.cmp(opUge, other) }
func (e *expr) Slt(other smt.Expression) smt.Expression { return e.cmp(opSlt, other) }
func (e *expr) Sle(other smt.Expression) smt.Expression { return e.cmp(opSle, other) }
func (e *expr) Sgt(other smt.Expression) smt.Expression { return e.cmp(opSgt, other) }
func (e *expr) Sge(other smt.Expression) smt.Expression { return e.cmp(opSge, other) }

func (e *expr) Add(other smt.Expression) smt.Expression  { return e.binary(opAdd, other, e.width) }
func (e *expr) Sub(other smt.Expression) smt.Expression  { return e.binary(opSub, other, e.width) }
func (e *expr) Mul(other smt.Expression) smt.Expression  { return e.binary(opMul, other, e.width) }
func (e *expr) Udiv(other smt.Expression) smt.Expression { return e.binary(opUdiv, other, e.width) }
func (e *expr) Sdiv(other smt.Expression) smt.Expression { return e.binary(opSdiv, other, e.width) }
func (e *expr) Urem(other smt.Expression) smt.Expression { return e.binary(opUrem, other, e.width) }
func (e *expr) Srem(other smt.Expression) smt.Expression { return e.binary(opSrem, other, e.width) }

func (e *expr) Not() smt.Expression {
	return &expr{ctx: e.ctx, kind: kindUnary, width: e.width, op: opNot, a: e}
}
func (e *expr) And(other smt.Expression) smt.Expression  { return e.binary(opAnd, other, e.width) }
func (e *expr) Or(other smt.Expression) smt.Expression   { return e.binary(opOr, other, e.width) }
func (e *expr) Xor(other smt.Expression) smt.Expression  { return e.binary(opXor, other, e.width) }
func (e *expr) Shl(other smt.Expression) smt.Expression  { return e.binary(opShl, other, e.width) }
func (e *expr) Lshr(other smt.Expression) smt.Expression { return e.binary(opLshr, other, e.width) }
func (e *expr) Ashr(other smt.Expression) smt.Expression { return e.binary(opAshr, other, e.width) }

func (e *expr) Ite(then, els smt.Expression) smt.Expression {
	if e.width != 1 {
		panic("smt: Ite condition must be width 1")
	}
	t, f := asExpr(then), asExpr(els)
	if t.width != f.width {
		panic("smt: Ite branches must have equal width")
	}
	return &expr{ctx: e.ctx, kind: kindIte, width: t.width, cond: e, then: t, els: f}
}

func (e *expr) Concat(other smt.Expression) smt.Expression {
	o := asExpr(other)
	return &expr{ctx: e.ctx, kind: kindConcat, width: e.width + o.width, a: e, b: o}
}

func (e *expr) Slice(lo, hi uint32) smt.Expression {
	if lo > hi || hi >= e.width {
		panic("smt: Slice out of range")
	}
	return &expr{ctx: e.ctx, kind: kindSlice, width: hi - lo + 1, a: e, lo: lo, hi: hi}
}

func (e *expr) UAddO(other smt.Expression) smt.Expression { return e.cmp(opUAddO, other) }
func (e *expr) SAddO(other smt.Expression) smt.Expression { return e.cmp(opSAddO, other) }
func (e *expr) USubO(other smt.Expression) smt.Expression { return e.cmp(opUSubO, other) }
func (e *expr) SSubO(other smt.Expression) smt.Expression { return e.cmp(opSSubO, other) }
func (e *expr) UMulO(other smt.Expression) smt.Expression { return e.cmp(opUMulO, other) }
func (e *expr) SMulO(other smt.Expression) smt.Expression { return e.cmp(opSMulO, other) }

func (e *expr) UAdds(other smt.Expression) smt.Expression { return smt.GenericUAdds(e, other) }
func (e *expr) SAdds(other smt.Expression) smt.Expression { return smt.GenericSAdds(e, other) }
func (e *expr) ReplacePart(start uint32, replacement smt.Expression) smt.Expression {
	return smt.GenericReplacePart(e, start, replacement)
}

// Simplify folds constant subexpressions. The reference backend has no
// other simplification rules.
func (e *expr) Simplify() smt.Expression {
	if e.kind != kindSymbol {
		if v, ok := e.evalConst(); ok {
			return &expr{ctx: e.ctx, kind: kindConst, width: e.width, value: v}
		}
	}
	return e
}

func (e *expr) evalConst() (uint64, bool) {
	if e.isConstantExpr() {
		return e.eval(nil), true
	}
	return 0, false
}

func (e *expr) isConstantExpr() bool {
	switch e.kind {
	case kindConst:
		return true
	case kindSymbol:
		return false
	case kindUnary, kindZeroExt, kindSignExt, kindSlice:
		return e.a.isConstantExpr()
	case kindBinary, kindConcat:
		return e.a.isConstantExpr() && e.b.isConstantExpr()
	case kindIte:
		return e.cond.isConstantExpr() && e.then.isConstantExpr() && e.els.isConstantExpr()
	}
	return false
}

func (e *expr) GetConstant() (uint64, bool) {
	if e.kind == kindConst {
		return e.value, true
	}
	return e.evalConst()
}

func (e *expr) GetConstantBool() (bool, bool) {
	if e.width != 1 {
		return false, false
	}
	v, ok := e.GetConstant()
	return v == 1, ok
}

func (e *expr) ToBinaryString() string {
	v, ok := e.GetConstant()
	if !ok {
		return "<symbolic>"
	}
	s := make([]byte, e.width)
	for i := uint32(0); i < e.width; i++ {
		bit := (v >> (e.width - 1 - i)) & 1
		s[i] = byte('0' + bit)
	}
	return string(s)
}

// eval evaluates e under assignment (nil assignment means "no symbols
// expected"; evaluating an unassigned symbol panics).
func (e *expr) eval(assignment map[string]uint64) uint64 {
	switch e.kind {
	case kindConst:
		return e.value
	case kindSymbol:
		v, ok := assignment[e.name]
		if !ok {
			panic("smt: unassigned symbol " + e.name)
		}
		return v
	case kindZeroExt:
		return e.a.eval(assignment)
	case kindSignExt:
		v := e.a.eval(assignment)
		if signExtNeeded(v, e.a.width) {
			return mask(v|^uint64(0)<<e.a.width, e.width)
		}
		return v
	case kindSlice:
		v := e.a.eval(assignment)
		return mask(v>>e.lo, e.width)
	case kindConcat:
		hi := e.a.eval(assignment)
		lo := e.b.eval(assignment)
		return mask((hi<<e.b.width)|lo, e.width)
	case kindIte:
		if e.cond.eval(assignment) == 1 {
			return e.then.eval(assignment)
		}
		return e.els.eval(assignment)
	case kindUnary:
		v := e.a.eval(assignment)
		switch e.op {
		case opNot:
			return mask(^v, e.width)
		}
	case kindBinary:
		return evalBinary(e, assignment)
	}
	panic("smt: unreachable eval kind")
}

func signExtNeeded(v uint64, width uint32) bool {
	return (v>>(width-1))&1 == 1
}
