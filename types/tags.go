package types

import "strings"

// Tag derives the deterministic fingerprint the emitter uses to name a
// type's C instantiation: container template expansions, tuple structs
// and function-pointer typedefs are all named from their element types'
// tags so that two distinct Bismut types never collide on one C name and
// one Bismut type always resolves to the same C name.
func Tag(t Type) string {
	switch v := t.(type) {
	case Primitive:
		return strings.ToUpper(v.Name)
	case Str:
		return "Str"
	case List:
		return "List_" + Tag(v.Elem)
	case Dict:
		return "Dict_" + Tag(v.Key) + "_" + Tag(v.Val)
	case Tuple:
		parts := make([]string, len(v.Elems))
		for i, e := range v.Elems {
			parts[i] = Tag(e)
		}
		return "Tuple_" + strings.Join(parts, "_")
	case FnPtr:
		parts := make([]string, len(v.Params))
		for i, p := range v.Params {
			parts[i] = Tag(p)
		}
		retTag := "VOID"
		if v.Ret.Kind() != PrimitiveKind || v.Ret.String() != "void" {
			retTag = Tag(v.Ret)
		}
		return "Fn_" + strings.Join(parts, "_") + "__" + retTag
	case Class:
		return v.Name
	case Interface:
		return v.Name
	case Struct:
		return v.Name
	case Enum:
		return v.Name
	case ExternOpaque:
		return v.Lib + "_" + v.Name
	case None:
		return "None"
	default:
		return "Unknown"
	}
}

// CType returns the C99 spelling of t as the emitter should write it in a
// variable/field/parameter declaration. Reference-kind user types are
// pointers to their generated struct; value-kind user types are the bare
// struct/enum typedef.
func CType(t Type) string {
	switch v := t.(type) {
	case Primitive:
		switch v.Name {
		case "i8":
			return "int8_t"
		case "i16":
			return "int16_t"
		case "i32":
			return "int32_t"
		case "i64":
			return "int64_t"
		case "u8":
			return "uint8_t"
		case "u16":
			return "uint16_t"
		case "u32":
			return "uint32_t"
		case "u64":
			return "uint64_t"
		case "f32":
			return "float"
		case "f64":
			return "double"
		case "bool":
			return "bool"
		case "void":
			return "void"
		}
	case Str:
		return "Str*"
	case List:
		return "List_" + Tag(v.Elem) + "*"
	case Dict:
		return "Dict_" + Tag(v.Key) + "_" + Tag(v.Val) + "*"
	case Tuple:
		return "Tuple_" + tagJoin(v.Elems)
	case FnPtr:
		return "__bismut_" + Tag(v)
	case Class:
		return "Class_" + v.Name + "*"
	case Interface:
		return "Iface_" + v.Name
	case Struct:
		return "Struct_" + v.Name
	case Enum:
		return "int64_t"
	case ExternOpaque:
		return "Extern_" + v.Lib + "_" + v.Name + "*"
	case None:
		return "void*"
	}
	return "void*"
}

func tagJoin(elems []Type) string {
	parts := make([]string, len(elems))
	for i, e := range elems {
		parts[i] = Tag(e)
	}
	return strings.Join(parts, "_")
}
