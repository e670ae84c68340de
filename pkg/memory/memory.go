// Package memory implements the symbolic memory model: a bump allocator
// feeding a key-ordered table of bitvector-valued objects, with
// solver-backed address resolution and explicit bounds checking.
package memory

import (
	"sort"

	"github.com/archsymex/symex/pkg/engerrors"
	"github.com/archsymex/symex/pkg/logging"
	"github.com/archsymex/symex/pkg/smt"
)

// Memory owns the allocator, the object table, and a reference to the
// solver it resolves symbolic addresses against. It is not safe for
// concurrent use - each path owns its own Memory (or a copy-on-write
// view of one), matching the single-threaded-per-run model in spec.md §5.
type Memory struct {
	ctx          smt.Context
	solver       smt.Solver
	pointerWidth uint32
	alloc        *allocator
	objects      []*Object // sorted by Base, ascending
	allocCount   int
	logger       *logging.ContextLogger // e.g. logger.Named("memory"); nil disables logging
}

// SetLogger attaches l as the logger Memory reports allocations and
// bounds failures through. nil disables logging.
func (m *Memory) SetLogger(l *logging.ContextLogger) { m.logger = l }

// Config bounds and biases a Memory's allocator.
type Config struct {
	PointerWidth     uint32
	Base             uint64
	Limit            uint64
	DefaultAlignment uint32
}

// SetSolver rebinds the solver Memory resolves addresses against. Used
// after Clone, since each path carries its own Solver handle even though
// Memory objects may be shared copy-on-write.
func (m *Memory) SetSolver(solver smt.Solver) { m.solver = solver }

func New(ctx smt.Context, solver smt.Solver, cfg Config) *Memory {
	return &Memory{
		ctx:          ctx,
		solver:       solver,
		pointerWidth: cfg.PointerWidth,
		alloc:        newAllocator(cfg.Base, cfg.Limit, cfg.DefaultAlignment),
	}
}

// Clone returns a copy-on-write snapshot: the allocator state and object
// table are copied so that writes on either copy never affect the other,
// while unwritten objects still share their (immutable) Value expressions.
func (m *Memory) Clone() *Memory {
	allocCopy := *m.alloc
	objectsCopy := make([]*Object, len(m.objects))
	for i, o := range m.objects {
		dup := *o
		objectsCopy[i] = &dup
	}
	return &Memory{
		ctx:          m.ctx,
		solver:       m.solver,
		pointerWidth: m.pointerWidth,
		alloc:        &allocCopy,
		objects:      objectsCopy,
		allocCount:   m.allocCount,
		logger:       m.logger,
	}
}

// Allocate installs a new object of width bits with a fresh unconstrained
// value, named alloc<N>, and returns a pointer-width expression for its
// base address.
func (m *Memory) Allocate(bits uint64, align uint32) (smt.Expression, error) {
	base, err := m.alloc.alloc(bits, align)
	if err != nil {
		return nil, err
	}
	if bits == 0 {
		bits = 8
	}

	m.allocCount++
	name := "alloc" + itoa(m.allocCount)
	obj := &Object{Base: base, SizeBits: bits, Value: m.ctx.Unconstrained(uint32(bits), name)}
	m.objects = append(m.objects, obj)

	if m.logger != nil {
		m.logger.WithField("name", name).WithField("base", base).Debug("object allocated")
	}

	return m.ctx.FromU64(base, m.pointerWidth), nil
}

// resolve concretizes addr to a single concrete value (concretize-one
// policy per spec.md §9) and returns the object covering it.
func (m *Memory) resolve(addr smt.Expression) (*Object, uint64, error) {
	if addr.Width() != m.pointerWidth {
		panic("memory: address width does not match pointer width")
	}

	v, ok := addr.GetConstant()
	if !ok {
		sols, err := m.solver.GetValues(addr, 1)
		if err != nil {
			return nil, 0, err
		}
		if len(sols.Values) == 0 {
			if m.logger != nil {
				m.logger.Warn("address unresolved: unsatisfiable")
			}
			return nil, 0, &engerrors.UnresolvedError{Reason: "address is unsatisfiable"}
		}
		v = sols.Values[0]
	}

	idx := sort.Search(len(m.objects), func(i int) bool { return m.objects[i].Base > v }) - 1
	if idx < 0 {
		if m.logger != nil {
			m.logger.WithField("address", v).Warn("access out of bounds")
		}
		return nil, 0, &engerrors.OutOfBoundsError{Address: v, Width: addr.Width()}
	}
	obj := m.objects[idx]
	return obj, v, nil
}

// checkBounds verifies v + ceil(widthBits/8) <= obj.end().
func checkBounds(obj *Object, v uint64, widthBits uint64) error {
	sizeBytes := (widthBits + 7) / 8
	if v < obj.Base || v+sizeBytes > obj.end() {
		return &engerrors.OutOfBoundsError{Address: v, Width: widthBits}
	}
	return nil
}

// Read resolves addr and returns the widthBits-wide slice of the covering
// object's value starting at the byte offset of addr within that object.
func (m *Memory) Read(addr smt.Expression, widthBits uint32) (smt.Expression, error) {
	obj, v, err := m.resolve(addr)
	if err != nil {
		return nil, err
	}
	if err := checkBounds(obj, v, uint64(widthBits)); err != nil {
		return nil, err
	}

	byteOffset := v - obj.Base
	bitOffset := byteOffset * 8
	return obj.Value.Slice(uint32(bitOffset), uint32(bitOffset)+widthBits-1), nil
}

// Write resolves addr and either replaces the covering object's value
// wholesale (when value spans the whole object) or splices it in via
// ReplacePart.
func (m *Memory) Write(addr smt.Expression, value smt.Expression) error {
	obj, v, err := m.resolve(addr)
	if err != nil {
		return err
	}
	if err := checkBounds(obj, v, uint64(value.Width())); err != nil {
		return err
	}

	byteOffset := v - obj.Base
	bitOffset := uint32(byteOffset * 8)

	if uint64(value.Width()) == obj.SizeBits {
		obj.Value = value
		return nil
	}
	obj.Value = obj.Value.ReplacePart(bitOffset, value)
	return nil
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
