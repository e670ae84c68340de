package memory

import "github.com/archsymex/symex/pkg/smt"

// Object is a memory object: a fixed-size symbolic value anchored at a
// concrete base address. Objects never overlap within one Memory.
type Object struct {
	Base     uint64
	SizeBits uint64
	Value    smt.Expression
}

func (o *Object) end() uint64 { return o.Base + (o.SizeBits+7)/8 }
