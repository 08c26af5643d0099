package checker

import (
	"strings"

	"github.com/bismut-lang/bismut/types"
)

// resolveTypeName parses the surface spelling the parser folds a TypeRef
// into -- "i64", "List[i64]", "Dict[str,i64]", "(i64,str)" (tuple),
// "Fn(i64,str)->bool" -- into a types.Type, consulting the registered user
// type names for anything that isn't a builtin, producing a real
// types.Type instead of re-parsing the string at every use site.
func (c *Checker) resolveTypeName(name string) (types.Type, bool) {
	switch name {
	case "i8":
		return types.I8, true
	case "i16":
		return types.I16, true
	case "i32":
		return types.I32, true
	case "i64":
		return types.I64, true
	case "u8":
		return types.U8, true
	case "u16":
		return types.U16, true
	case "u32":
		return types.U32, true
	case "u64":
		return types.U64, true
	case "f32":
		return types.F32, true
	case "f64":
		return types.F64, true
	case "bool":
		return types.Bool, true
	case "void":
		return types.Void, true
	case "str":
		return types.Str{}, true
	case "None":
		return types.None{}, true
	}

	if strings.HasPrefix(name, "(") && strings.HasSuffix(name, ")") && !strings.HasPrefix(name, "Fn(") {
		parts := splitTopLevel(name[1:len(name)-1], ',')
		elems := make([]types.Type, 0, len(parts))
		for _, p := range parts {
			et, ok := c.resolveTypeName(p)
			if !ok {
				return nil, false
			}
			elems = append(elems, et)
		}
		return types.Tuple{Elems: elems}, true
	}

	if strings.HasPrefix(name, "List[") && strings.HasSuffix(name, "]") {
		elem, ok := c.resolveTypeName(name[len("List[") : len(name)-1])
		if !ok {
			return nil, false
		}
		return types.List{Elem: elem}, true
	}

	if strings.HasPrefix(name, "Dict[") && strings.HasSuffix(name, "]") {
		inner := name[len("Dict[") : len(name)-1]
		parts := splitTopLevel(inner, ',')
		if len(parts) != 2 {
			return nil, false
		}
		k, ok := c.resolveTypeName(parts[0])
		if !ok {
			return nil, false
		}
		v, ok := c.resolveTypeName(parts[1])
		if !ok {
			return nil, false
		}
		return types.Dict{Key: k, Val: v}, true
	}

	if strings.HasPrefix(name, "Fn(") {
		arrow := strings.Index(name, ")->")
		if arrow < 0 {
			return nil, false
		}
		inner := name[len("Fn(") : arrow]
		ret := name[arrow+len(")->"):]
		var params []types.Type
		if inner != "" {
			for _, p := range splitTopLevel(inner, ',') {
				pt, ok := c.resolveTypeName(p)
				if !ok {
					return nil, false
				}
				params = append(params, pt)
			}
		}
		rt, ok := c.resolveTypeName(ret)
		if !ok {
			return nil, false
		}
		return types.FnPtr{Params: params, Ret: rt}, true
	}

	if c.classNames[name] {
		return types.Class{Name: name}, true
	}
	if c.structNames[name] {
		return types.Struct{Name: name}, true
	}
	if c.ifaceNames[name] {
		return types.Interface{Name: name}, true
	}
	if c.enumNames[name] {
		return types.Enum{Name: name}, true
	}
	return nil, false
}

// splitTopLevel splits s on sep, ignoring separators nested inside
// brackets/parens -- needed for "Dict[str,i64]" inside a tuple element list
// and similar nesting.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[', '(':
			depth++
		case ']', ')':
			depth--
		default:
			if s[i] == sep && depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}

