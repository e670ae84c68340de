// Package z3backend implements pkg/smt's Context/Expression/Solver trio on
// top of Z3 via the CGO bindings in github.com/mjibson/go-z3. It is the
// production solver backend; pkg/smt/refsolver is the deterministic,
// pure-Go stand-in used by unit tests (the same split the teacher repo
// draws between its real Redis/Mongo clients and their mock.go doubles).
//
// Every comparison operator returns a width-1 bitvector rather than z3's
// native Bool sort, per spec.md §4.1 ("comparison returning width-1"); the
// conversion is done once, in cmp, rather than at every call site.
package z3backend

import (
	"fmt"
	"sync"

	z3 "github.com/mjibson/go-z3"

	"github.com/archsymex/symex/pkg/logging"
	"github.com/archsymex/symex/pkg/smt"
)

// Context wraps a single Z3 context. All Expressions produced by it, and
// all Solvers opened from it, share that context - mixing Expressions from
// two different Contexts is undefined, as spec.md §3 requires.
type Context struct {
	mu     sync.Mutex
	ctx    *z3.Context
	logger *logging.ContextLogger // e.g. logger.Named("solver"); nil disables logging; inherited by every Solver NewSolver opens
}

// SetLogger attaches l as the logger every Solver opened from c reports
// queries through from this point forward. nil disables logging.
func (c *Context) SetLogger(l *logging.ContextLogger) { c.logger = l }

// New opens a fresh Z3 context configured for incremental, model-producing
// solving (the original Rust implementation's boolector session enabled the
// equivalent options unconditionally - see SPEC_FULL.md "Boolector-specific
// solver options").
func New() *Context {
	cfg := z3.NewConfig()
	cfg.SetParamValue("model", "true")
	ctx := z3.NewContext(cfg)
	cfg.Close()
	return &Context{ctx: ctx}
}

func (c *Context) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ctx != nil {
		c.ctx.Close()
		c.ctx = nil
	}
}

func (c *Context) Unconstrained(bits uint32, name string) smt.Expression {
	c.mu.Lock()
	defer c.mu.Unlock()
	sort := c.ctx.BVSort(int(bits))
	return &Expr{ctx: c, bv: c.ctx.Const(c.ctx.Symbol(name), sort), width: bits}
}

func (c *Context) Zero(bits uint32) smt.Expression {
	return c.FromU64(0, bits)
}

func (c *Context) One(bits uint32) smt.Expression {
	return c.FromU64(1, bits)
}

func (c *Context) FromBool(value bool) smt.Expression {
	if value {
		return c.One(1)
	}
	return c.Zero(1)
}

func (c *Context) FromU64(value uint64, bits uint32) smt.Expression {
	c.mu.Lock()
	defer c.mu.Unlock()
	bv := c.ctx.BVVal(int64(value), int(bits))
	return &Expr{ctx: c, bv: bv, width: bits}
}

func (c *Context) FromBinary(bits string) smt.Expression {
	var v uint64
	for _, r := range bits {
		v <<= 1
		if r == '1' {
			v |= 1
		}
	}
	return c.FromU64(v, uint32(len(bits)))
}

func (c *Context) UnsignedMax(bits uint32) smt.Expression {
	if bits >= 64 {
		return c.FromBinary(repeat('1', int(bits)))
	}
	return c.FromU64((uint64(1)<<bits)-1, bits)
}

func (c *Context) SignedMax(bits uint32) smt.Expression {
	if bits <= 1 {
		panic("smt: SignedMax requires width > 1")
	}
	return c.FromBinary("0" + repeat('1', int(bits)-1))
}

func (c *Context) SignedMin(bits uint32) smt.Expression {
	if bits <= 1 {
		panic("smt: SignedMin requires width > 1")
	}
	return c.FromBinary("1" + repeat('0', int(bits)-1))
}

func (c *Context) NewSolver() smt.Solver {
	c.mu.Lock()
	defer c.mu.Unlock()
	return &Solver{ctx: c, z3s: z3.NewSolver(c.ctx), logger: c.logger}
}

func repeat(r rune, n int) string {
	b := make([]rune, n)
	for i := range b {
		b[i] = r
	}
	return string(b)
}

// Expr is a Z3-backed Expression. Boolean-valued results (comparisons,
// overflow predicates) are represented as width-1 bitvectors so callers
// never need to distinguish a "Bool" sort from a "BV" sort, matching
// spec.md's uniform treatment of E.
type Expr struct {
	ctx   *Context
	bv    z3.BV
	width uint32
}

func (e *Expr) Width() uint32      { return e.width }
func (e *Expr) Context() smt.Context { return e.ctx }

func (e *Expr) bin(other smt.Expression, f func(a, b z3.BV) z3.BV) *Expr {
	o := other.(*Expr)
	if e.width != o.width {
		panic("smt: operand width mismatch")
	}
	e.ctx.mu.Lock()
	defer e.ctx.mu.Unlock()
	return &Expr{ctx: e.ctx, bv: f(e.bv, o.bv), width: e.width}
}

func (e *Expr) cmp(other smt.Expression, f func(a, b z3.BV) z3.Bool) *Expr {
	o := other.(*Expr)
	if e.width != o.width {
		panic("smt: operand width mismatch")
	}
	e.ctx.mu.Lock()
	defer e.ctx.mu.Unlock()
	b := f(e.bv, o.bv)
	return &Expr{ctx: e.ctx, bv: e.ctx.ctx.ITE(b, e.ctx.ctx.BVVal(1, 1), e.ctx.ctx.BVVal(0, 1)), width: 1}
}

func (e *Expr) ZeroExt(width uint32) smt.Expression {
	if width < e.width {
		panic("smt: ZeroExt to smaller width")
	}
	e.ctx.mu.Lock()
	defer e.ctx.mu.Unlock()
	return &Expr{ctx: e.ctx, bv: e.bv.ZeroExt(int(width - e.width)), width: width}
}

func (e *Expr) SignExt(width uint32) smt.Expression {
	if width < e.width {
		panic("smt: SignExt to smaller width")
	}
	e.ctx.mu.Lock()
	defer e.ctx.mu.Unlock()
	return &Expr{ctx: e.ctx, bv: e.bv.SignExt(int(width - e.width)), width: width}
}

func (e *Expr) ResizeUnsigned(width uint32) (smt.Expression, error) {
	if width < e.width {
		return nil, fmt.Errorf("smt: ResizeUnsigned(%d) would truncate a %d-bit value", width, e.width)
	}
	return e.ZeroExt(width), nil
}

func (e *Expr) Eq(other smt.Expression) smt.Expression { return e.cmp(other, z3.BV.Eq) }
func (e *Expr) Ne(other smt.Expression) smt.Expression {
	return e.cmp(other, func(a, b z3.BV) z3.Bool { return a.Eq(b).Not() })
}

func (e *Expr) Ult(other smt.Expression) smt.Expression { return e.cmp(other, z3.BV.ULT) }
func (e *Expr) Ule(other smt.Expression) smt.Expression { return e.cmp(other, z3.BV.ULE) }
func (e *Expr) Ugt(other smt.Expression) smt.Expression { return e.cmp(other, z3.BV.UGT) }
func (e *Expr) Uge(other smt.Expression) smt.Expression { return e.cmp(other, z3.BV.UGE) }
func (e *Expr) Slt(other smt.Expression) smt.Expression { return e.cmp(other, z3.BV.SLT) }
func (e *Expr) Sle(other smt.Expression) smt.Expression { return e.cmp(other, z3.BV.SLE) }
func (e *Expr) Sgt(other smt.Expression) smt.Expression { return e.cmp(other, z3.BV.SGT) }
func (e *Expr) Sge(other smt.Expression) smt.Expression { return e.cmp(other, z3.BV.SGE) }

func (e *Expr) Add(other smt.Expression) smt.Expression  { return e.bin(other, z3.BV.Add) }
func (e *Expr) Sub(other smt.Expression) smt.Expression  { return e.bin(other, z3.BV.Sub) }
func (e *Expr) Mul(other smt.Expression) smt.Expression  { return e.bin(other, z3.BV.Mul) }
func (e *Expr) Udiv(other smt.Expression) smt.Expression { return e.bin(other, z3.BV.UDiv) }
func (e *Expr) Sdiv(other smt.Expression) smt.Expression { return e.bin(other, z3.BV.SDiv) }
func (e *Expr) Urem(other smt.Expression) smt.Expression { return e.bin(other, z3.BV.URem) }
func (e *Expr) Srem(other smt.Expression) smt.Expression { return e.bin(other, z3.BV.SRem) }

func (e *Expr) Not() smt.Expression {
	e.ctx.mu.Lock()
	defer e.ctx.mu.Unlock()
	return &Expr{ctx: e.ctx, bv: e.bv.Not(), width: e.width}
}
func (e *Expr) And(other smt.Expression) smt.Expression  { return e.bin(other, z3.BV.And) }
func (e *Expr) Or(other smt.Expression) smt.Expression   { return e.bin(other, z3.BV.Or) }
func (e *Expr) Xor(other smt.Expression) smt.Expression  { return e.bin(other, z3.BV.Xor) }
func (e *Expr) Shl(other smt.Expression) smt.Expression  { return e.bin(other, z3.BV.Lsh) }
func (e *Expr) Lshr(other smt.Expression) smt.Expression { return e.bin(other, z3.BV.URsh) }
func (e *Expr) Ashr(other smt.Expression) smt.Expression { return e.bin(other, z3.BV.SRsh) }

func (e *Expr) Ite(then, els smt.Expression) smt.Expression {
	if e.width != 1 {
		panic("smt: Ite condition must be width 1")
	}
	t, f := then.(*Expr), els.(*Expr)
	if t.width != f.width {
		panic("smt: Ite branches must have equal width")
	}
	e.ctx.mu.Lock()
	defer e.ctx.mu.Unlock()
	cond := e.bv.Eq(e.ctx.ctx.BVVal(1, 1))
	return &Expr{ctx: e.ctx, bv: e.ctx.ctx.ITE(cond, t.bv, f.bv), width: t.width}
}

func (e *Expr) Concat(other smt.Expression) smt.Expression {
	o := other.(*Expr)
	e.ctx.mu.Lock()
	defer e.ctx.mu.Unlock()
	return &Expr{ctx: e.ctx, bv: e.bv.Concat(o.bv), width: e.width + o.width}
}

func (e *Expr) Slice(lo, hi uint32) smt.Expression {
	if lo > hi || hi >= e.width {
		panic("smt: Slice out of range")
	}
	e.ctx.mu.Lock()
	defer e.ctx.mu.Unlock()
	return &Expr{ctx: e.ctx, bv: e.bv.Extract(int(hi), int(lo)), width: hi - lo + 1}
}

func (e *Expr) UAddO(other smt.Expression) smt.Expression {
	return e.cmp(other, func(a, b z3.BV) z3.Bool { return a.AddNoOverflow(b).Not() })
}
func (e *Expr) SAddO(other smt.Expression) smt.Expression {
	return e.cmp(other, func(a, b z3.BV) z3.Bool { return a.SignedAddNoOverflow(b).Not() })
}
func (e *Expr) USubO(other smt.Expression) smt.Expression {
	return e.cmp(other, func(a, b z3.BV) z3.Bool { return a.UnsignedSubNoOverflow(b).Not() })
}
func (e *Expr) SSubO(other smt.Expression) smt.Expression {
	return e.cmp(other, func(a, b z3.BV) z3.Bool { return a.SubNoOverflow(b).Not() })
}
func (e *Expr) UMulO(other smt.Expression) smt.Expression {
	return e.cmp(other, func(a, b z3.BV) z3.Bool { return a.MulNoOverflow(b, false).Not() })
}
func (e *Expr) SMulO(other smt.Expression) smt.Expression {
	return e.cmp(other, func(a, b z3.BV) z3.Bool { return a.MulNoOverflow(b, true).Not() })
}

func (e *Expr) UAdds(other smt.Expression) smt.Expression { return smt.GenericUAdds(e, other) }
func (e *Expr) SAdds(other smt.Expression) smt.Expression { return smt.GenericSAdds(e, other) }
func (e *Expr) ReplacePart(start uint32, replacement smt.Expression) smt.Expression {
	return smt.GenericReplacePart(e, start, replacement)
}

func (e *Expr) Simplify() smt.Expression {
	e.ctx.mu.Lock()
	defer e.ctx.mu.Unlock()
	return &Expr{ctx: e.ctx, bv: e.bv.Simplify(), width: e.width}
}

func (e *Expr) GetConstant() (uint64, bool) {
	e.ctx.mu.Lock()
	defer e.ctx.mu.Unlock()
	if v, ok := e.bv.AsInt64(); ok {
		return uint64(v), true
	}
	return 0, false
}

func (e *Expr) GetConstantBool() (bool, bool) {
	if e.width != 1 {
		return false, false
	}
	v, ok := e.GetConstant()
	return v == 1, ok
}

func (e *Expr) ToBinaryString() string {
	e.ctx.mu.Lock()
	defer e.ctx.mu.Unlock()
	return e.bv.String()
}
