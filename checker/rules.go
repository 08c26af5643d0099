package checker

import "github.com/bismut-lang/bismut/types"

// resolveEnumTy resolves an enum type down to i64 for arithmetic/comparison
// purposes: enums are representationally i64 but kept distinct at the type
// level everywhere else.
func resolveEnumTy(t types.Type) types.Type {
	if t.Kind() == types.EnumKind {
		return types.I64
	}
	return t
}

func isNumeric(t types.Type) bool {
	r := resolveEnumTy(t)
	return types.IsIntegerPrimitive(r) || types.IsFloatPrimitive(r)
}

func isIntLike(t types.Type) bool {
	return types.IsIntegerPrimitive(resolveEnumTy(t))
}

// isRefValue reports whether t is one of the reference-kind value types
// that participates in None-comparisons and truthiness -- unlike
// types.IsRefKind this excludes types.None itself: a bare None value is
// not itself "ref-typed", it is the bottom value every ref-kind lvalue
// accepts.
func isRefValue(t types.Type) bool {
	switch t.Kind() {
	case types.StrKind, types.ListKind, types.DictKind, types.ClassKind, types.InterfaceKind:
		return true
	default:
		return false
	}
}

// isTruthy reports whether t may appear in a boolean context (if/while/not/
// and/or): bool, any integer (incl. enum), or any reference-kind value.
// f32/f64/struct/tuple/FnPtr/void are not truthy.
func isTruthy(t types.Type) bool {
	if p, ok := t.(types.Primitive); ok && p.Name == "bool" {
		return true
	}
	if isIntLike(t) {
		return true
	}
	return isRefValue(t)
}

// assignable reports whether a value of type src may be assigned/passed
// where dst is expected: exact match, enum<->i64 interchange, None to any
// ref-kind lvalue, and a class assignable to any interface it implements.
func (c *Checker) assignable(src, dst types.Type) bool {
	if isUnknown(src) || isUnknown(dst) {
		return true // already reported; don't cascade
	}
	if types.Equal(src, dst) {
		return true
	}
	if types.Equal(resolveEnumTy(src), resolveEnumTy(dst)) {
		return true
	}
	if _, isNone := src.(types.None); isNone && types.IsRefKind(dst) {
		return true
	}
	if iface, ok := dst.(types.Interface); ok {
		if cls, ok := src.(types.Class); ok {
			if ci, ok := c.classes[cls.Name]; ok {
				return ci.Implements[iface.Name]
			}
		}
	}
	return false
}
