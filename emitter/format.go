package emitter

import "github.com/bismut-lang/bismut/types"

// FormatSpec names which FmtArg union tag and runtime accessor a value's
// Bismut type maps to for both the print() builtin and the variadic
// FmtArg array format() builds. Signed/unsigned-aware integer formatting
// and %.17g floats live in the runtime's rt_format.h/rt_print.h; this only
// selects the right tag/call name.
type FormatSpec struct {
	FmtArgTag   string // __LANG_RT_FMT_* equivalent
	FmtArgField string // FmtArg union field written
	PrintFunc   string // bismut_rt_print_<kind> suffix
}

// selectFormatSpec resolves t (with enums treated as their representation
// i64) to its FormatSpec, or false if t cannot be printed/formatted (the
// checker already rejects this case via isPrintable, so this only
// re-derives the dispatch, not the legality check).
func selectFormatSpec(t types.Type) (FormatSpec, bool) {
	if e, ok := t.(types.Enum); ok {
		_ = e
		return FormatSpec{FmtArgTag: "BISMUT_FMT_I64", FmtArgField: "i", PrintFunc: "i64"}, true
	}
	switch {
	case types.IsIntegerPrimitive(t) && !types.IsUnsigned(t):
		return FormatSpec{FmtArgTag: "BISMUT_FMT_I64", FmtArgField: "i", PrintFunc: t.String()}, true
	case types.IsIntegerPrimitive(t) && types.IsUnsigned(t):
		return FormatSpec{FmtArgTag: "BISMUT_FMT_U64", FmtArgField: "u", PrintFunc: t.String()}, true
	case types.IsFloatPrimitive(t):
		return FormatSpec{FmtArgTag: "BISMUT_FMT_F64", FmtArgField: "f", PrintFunc: t.String()}, true
	}
	if p, ok := t.(types.Primitive); ok && p.Name == "bool" {
		return FormatSpec{FmtArgTag: "BISMUT_FMT_BOOL", FmtArgField: "b", PrintFunc: "bool"}, true
	}
	if _, ok := t.(types.Str); ok {
		return FormatSpec{FmtArgTag: "BISMUT_FMT_STR", FmtArgField: "s", PrintFunc: "str"}, true
	}
	return FormatSpec{}, false
}
