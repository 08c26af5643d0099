package types

// reservedTypeNames are the built-in primitive and container type names a
// user class/struct/enum/interface declaration may not reuse.
var reservedTypeNames = []string{
	"i8", "i16", "i32", "i64",
	"u8", "u16", "u32", "u64",
	"f32", "f64",
	"bool", "void",
	"str",
	"List", "Dict", "Tuple",
	"None",
}

var reservedTypeSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(reservedTypeNames))
	for _, t := range reservedTypeNames {
		m[t] = struct{}{}
	}
	return m
}()

// ReservedTypeNames returns a copy of source-level reserved type names.
func ReservedTypeNames() []string {
	return append([]string(nil), reservedTypeNames...)
}

// IsReservedTypeName reports whether name is reserved for built-in/compiler types.
func IsReservedTypeName(name string) bool {
	_, ok := reservedTypeSet[name]
	return ok
}
