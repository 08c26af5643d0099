package emitter

import (
	"strings"

	"github.com/bismut-lang/bismut/ast"
	"github.com/bismut-lang/bismut/types"
)

// registry rebuilds the structural metadata the checker already derived
// for itself, independent of the checker package: the emitter is a
// distinct pipeline stage consuming only the fully-resolved *ast.Program,
// not the checker's internal state.
type registry struct {
	classes    map[string]*ast.ClassDecl
	structs    map[string]*ast.StructDecl
	interfaces map[string]*ast.InterfaceDecl
	enums      map[string]*ast.EnumDecl

	// classImplements maps a class name to the interface names it declares.
	classImplements map[string][]string

	externTypes     map[string]ast.ExternTypeBinding
	externConstants map[string]ast.ExternConstBinding

	funcs map[string]*ast.FuncDecl
}

func buildRegistry(prog *ast.Program) *registry {
	r := &registry{
		classes:         map[string]*ast.ClassDecl{},
		structs:         map[string]*ast.StructDecl{},
		interfaces:      map[string]*ast.InterfaceDecl{},
		enums:           map[string]*ast.EnumDecl{},
		classImplements: map[string][]string{},
		externTypes:     prog.ExternTypeInfo,
		externConstants: prog.ExternConstants,
		funcs:           map[string]*ast.FuncDecl{},
	}
	for _, fd := range prog.Funcs {
		r.funcs[fd.Name] = fd
	}
	for _, cd := range prog.Classes {
		r.classes[cd.Name] = cd
		r.classImplements[cd.Name] = cd.Implements
	}
	for _, sd := range prog.Structs {
		r.structs[sd.Name] = sd
	}
	for _, id := range prog.Interfaces {
		r.interfaces[id.Name] = id
	}
	for _, ed := range prog.Enums {
		r.enums[ed.Name] = ed
	}
	return r
}

func (r *registry) isExternType(name string) (ast.ExternTypeBinding, bool) {
	b, ok := r.externTypes[name]
	return b, ok
}

// externConstant looks up a name bound by an `extern const` declaration.
// Its value is always substituted textually at every read site from
// ExternConstBinding.CExpr rather than stored in a global -- the
// synthesized VarDecl the resolver prepends to the program only exists so
// ordinary declaration/scope bookkeeping sees the name; the emitter skips
// declaring and initializing it as a real C global.
func (r *registry) externConstant(name string) (ast.ExternConstBinding, bool) {
	b, ok := r.externConstants[name]
	return b, ok
}

// resolveTypeName parses the parser's flat surface spelling of a TypeRef
// into a types.Type, exactly mirroring checker.resolveTypeName. The
// emitter needs its own copy since it runs as an independent later stage.
func (r *registry) resolveTypeName(name string) (types.Type, bool) {
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
			et, ok := r.resolveTypeName(p)
			if !ok {
				return nil, false
			}
			elems = append(elems, et)
		}
		return types.Tuple{Elems: elems}, true
	}

	if strings.HasPrefix(name, "List[") && strings.HasSuffix(name, "]") {
		elem, ok := r.resolveTypeName(name[len("List[") : len(name)-1])
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
		k, ok := r.resolveTypeName(parts[0])
		if !ok {
			return nil, false
		}
		v, ok := r.resolveTypeName(parts[1])
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
				pt, ok := r.resolveTypeName(p)
				if !ok {
					return nil, false
				}
				params = append(params, pt)
			}
		}
		rt, ok := r.resolveTypeName(ret)
		if !ok {
			return nil, false
		}
		return types.FnPtr{Params: params, Ret: rt}, true
	}

	if _, ok := r.classes[name]; ok {
		return types.Class{Name: name}, true
	}
	if _, ok := r.structs[name]; ok {
		return types.Struct{Name: name}, true
	}
	if _, ok := r.interfaces[name]; ok {
		return types.Interface{Name: name}, true
	}
	if _, ok := r.enums[name]; ok {
		return types.Enum{Name: name}, true
	}
	return nil, false
}

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

// mustResolve resolves tr, panicking only on a type name the checker
// should already have rejected -- every TypeRef reaching the emitter comes
// from a program that passed type checking.
func (r *registry) mustResolve(tr ast.TypeRef) types.Type {
	t, ok := r.resolveTypeName(tr.Name)
	if !ok {
		return types.Void
	}
	return t
}

// ---- naming helpers ----

// ciName appends a trailing underscore to every user-chosen identifier
// emitted as a raw C name (struct field, parameter, local), so that a
// Bismut program using a C keyword as a name (e.g. "struct", "register")
// never collides with one.
func ciName(name string) string { return name + "_" }

func ctype(t types.Type) string { return types.CType(t) }

func tag(t types.Type) string { return types.Tag(t) }

func isRefType(t types.Type) bool { return types.IsRefKind(t) }

func isVoidType(t types.Type) bool {
	p, ok := t.(types.Primitive)
	return ok && p.Name == "void"
}

// zeroValue returns the C literal for t's default/zero value, used both for
// zero-initializing class fields in a constructor and for a function's
// implicit default return.
func zeroValue(t types.Type) string {
	switch v := t.(type) {
	case types.Primitive:
		switch v.Name {
		case "bool":
			return "false"
		case "f32", "f64":
			return "0.0"
		case "void":
			return ""
		default:
			return "0"
		}
	case types.Enum:
		return "0"
	case types.Interface:
		return "(" + ctype(t) + "){.obj = NULL, .vtbl = NULL}"
	case types.Tuple:
		return "(" + ctype(t) + "){0}"
	case types.Struct:
		return "(" + ctype(t) + "){0}"
	case types.FnPtr:
		return "NULL"
	default:
		// str / List / Dict / class / extern-opaque / None -- all NULL pointers.
		return "(" + ctype(t) + ")NULL"
	}
}
