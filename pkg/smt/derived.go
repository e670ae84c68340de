package smt

// This file implements the derived operations from spec.md §4.1 in terms of
// the primitive Expression methods only, so every backend gets identical
// semantics for free - a backend's UAdds/SAdds/ReplacePart methods should
// simply call these.

// GenericReplacePart implements replace_part: result = suffix ++ replacement
// ++ prefix, where prefix = self[0:start) and suffix = self[start+w:width).
func GenericReplacePart(self Expression, start uint32, replacement Expression) Expression {
	width := self.Width()
	end := start + replacement.Width()
	if end > width {
		panic("smt: ReplacePart out of range")
	}

	value := replacement
	if start != 0 {
		prefix := self.Slice(0, start-1)
		value = value.Concat(prefix)
	}
	if end != width {
		suffix := self.Slice(end, width-1)
		value = suffix.Concat(value)
	}
	if value.Width() != width {
		panic("smt: ReplacePart produced wrong width")
	}
	return value
}

// GenericUAdds implements the saturating unsigned add.
func GenericUAdds(self, other Expression) Expression {
	if self.Width() != other.Width() {
		panic("smt: UAdds width mismatch")
	}
	result := self.Add(other)
	overflow := self.UAddO(other)
	saturated := self.Context().UnsignedMax(self.Width())
	return overflow.Ite(saturated, result)
}

// GenericSAdds implements the saturating signed add.
func GenericSAdds(self, other Expression) Expression {
	if self.Width() != other.Width() {
		panic("smt: SAdds width mismatch")
	}
	width := self.Width()
	result := self.Add(other)
	overflow := self.SAddO(other)

	min := self.Context().SignedMin(width)
	max := self.Context().SignedMax(width)

	isNegative := self.Slice(width-1, width-1)

	return overflow.Ite(isNegative.Ite(min, max), result)
}

// MustBeEqual and CanEqual are the derived solver queries from spec.md §4.1,
// expressed generically so every Solver implementation shares one
// definition. Backends may still provide a faster native implementation.
func MustBeEqual(s Solver, a, b Expression) (bool, error) {
	sat, err := s.IsSatWithAssumption(a.Ne(b))
	if err != nil {
		return false, err
	}
	return !sat, nil
}

func CanEqual(s Solver, a, b Expression) (bool, error) {
	return s.IsSatWithAssumption(a.Eq(b))
}
