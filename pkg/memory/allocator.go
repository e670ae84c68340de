package memory

import "github.com/archsymex/symex/pkg/engerrors"

// allocator is a linear (bump) allocator: addresses only ever increase.
// It never reclaims space - paths that die are simply dropped, along with
// whatever they allocated, per spec.md's clone-on-write path model.
type allocator struct {
	next         uint64
	limit        uint64
	defaultAlign uint32
}

func newAllocator(base, limit uint64, defaultAlign uint32) *allocator {
	return &allocator{next: base, limit: limit, defaultAlign: defaultAlign}
}

// alloc reserves sizeBits bits aligned to align bytes, returning the base
// address. align == 0 is substituted with the allocator's configured
// default alignment.
func (a *allocator) alloc(sizeBits uint64, align uint32) (uint64, error) {
	if align == 0 {
		align = a.defaultAlign
	}
	if sizeBits == 0 {
		sizeBits = 8
	}

	base := alignUp(a.next, uint64(align))
	sizeBytes := (sizeBits + 7) / 8
	end := base + sizeBytes

	if end > a.limit || end < base {
		return 0, &engerrors.OutOfMemoryError{Requested: sizeBits, Available: a.available(base)}
	}

	a.next = end
	return base, nil
}

func (a *allocator) available(from uint64) uint64 {
	if from >= a.limit {
		return 0
	}
	return (a.limit - from) * 8
}

func alignUp(v, align uint64) uint64 {
	if align <= 1 {
		return v
	}
	rem := v % align
	if rem == 0 {
		return v
	}
	return v + (align - rem)
}
