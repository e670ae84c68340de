// Package refsolver is a deterministic, pure-Go implementation of
// pkg/smt's Context/Expression/Solver trio. It exists for the same reason
// the teacher repo ships pkg/redis/mock.go and pkg/mongodb/mock.go: so
// package-level tests (and anyone reading this repo without a Z3 install)
// can exercise the engine without a live backend. It is not a production
// solver - for small symbol domains (<= refWidthBruteForceLimit bits) it
// is exhaustive and therefore sound and complete; for larger domains it
// falls back to a seeded local search and can report unsat for a
// satisfiable formula where Z3 would not. pkg/smt/z3backend is the real backend.
package refsolver

import (
	"math/rand"

	"github.com/archsymex/symex/pkg/smt"
)

// refWidthBruteForceLimit bounds the symbol domain size the solver will
// enumerate exhaustively before falling back to local search.
const refWidthBruteForceLimit = 20

type Context struct {
	nextID int
}

func New() *Context { return &Context{} }

func (c *Context) Unconstrained(bits uint32, name string) smt.Expression {
	if name == "" {
		c.nextID++
		name = symbolName(c.nextID)
	}
	return &expr{ctx: c, kind: kindSymbol, width: bits, name: name}
}

func symbolName(id int) string {
	return "sym" + itoa(id)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

func (c *Context) Zero(bits uint32) smt.Expression { return c.FromU64(0, bits) }
func (c *Context) One(bits uint32) smt.Expression  { return c.FromU64(1, bits) }

func (c *Context) FromBool(value bool) smt.Expression {
	if value {
		return c.One(1)
	}
	return c.Zero(1)
}

func (c *Context) FromU64(value uint64, bits uint32) smt.Expression {
	return &expr{ctx: c, kind: kindConst, width: bits, value: mask(value, bits)}
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
	return c.FromU64(mask(^uint64(0), bits), bits)
}

func (c *Context) SignedMax(bits uint32) smt.Expression {
	if bits <= 1 {
		panic("smt: SignedMax requires width > 1")
	}
	return c.FromU64(mask(^uint64(0)>>1, bits), bits)
}

func (c *Context) SignedMin(bits uint32) smt.Expression {
	if bits <= 1 {
		panic("smt: SignedMin requires width > 1")
	}
	return c.FromU64(signBit(bits), bits)
}

func (c *Context) NewSolver() smt.Solver {
	return &Solver{ctx: c, rng: rand.New(rand.NewSource(1469598103)), model: map[string]uint64{}}
}

func mask(v uint64, bits uint32) uint64 {
	if bits >= 64 {
		return v
	}
	return v & ((uint64(1) << bits) - 1)
}

func signBit(bits uint32) uint64 {
	if bits >= 64 {
		return uint64(1) << 63
	}
	return uint64(1) << (bits - 1)
}
