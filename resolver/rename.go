package resolver

import (
	"strings"

	"github.com/bismut-lang/bismut/ast"
)

// splitDepthAware splits s on sep, ignoring any sep found inside a
// '['...']' or '('...')' nesting.
func splitDepthAware(s string, sep byte) []string {
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

// renameTypeString rewrites a surface type-ref string through rmap,
// recursing into List[T]/Dict[K,V]-style bracket nesting and depth-aware
// comma-separated type lists. A bare "Fn(..)->R" spelling (no top-level
// '[') is only rewritten if it matches an rmap key whole.
func renameTypeString(name string, rmap map[string]string) string {
	if strings.Contains(name, ",") {
		parts := splitDepthAware(name, ',')
		if len(parts) > 1 {
			for i, p := range parts {
				parts[i] = renameTypeString(p, rmap)
			}
			return strings.Join(parts, ",")
		}
	}
	if !strings.Contains(name, "[") {
		if v, ok := rmap[name]; ok {
			return v
		}
		return name
	}
	br := strings.Index(name, "[")
	outer := name[:br]
	inner := name[br+1 : len(name)-1]
	return outer + "[" + renameTypeString(inner, rmap) + "]"
}

func renameTypeRef(tr ast.TypeRef, rmap map[string]string) ast.TypeRef {
	tr.Name = renameTypeString(tr.Name, rmap)
	return tr
}

// renameExpr rewrites every Ident.Name found in e through rmap, recursing
// into every expression shape. The type-name field of Is/As nodes and the
// elem/key/val TypeRef of collection literals are left untouched here --
// those dotted names are only resolved by the separate alias-prefix pass
// in resolve.go.
func renameExpr(e ast.Expr, rmap map[string]string) ast.Expr {
	switch v := e.(type) {
	case *ast.Ident:
		if nv, ok := rmap[v.Name]; ok {
			v.Name = nv
		}
		return v
	case *ast.Call:
		v.Callee = renameExpr(v.Callee, rmap)
		for i := range v.Args {
			v.Args[i] = renameExpr(v.Args[i], rmap)
		}
		for i := range v.TypeArgs {
			v.TypeArgs[i] = renameTypeRef(v.TypeArgs[i], rmap)
		}
		return v
	case *ast.MemberAccess:
		v.Obj = renameExpr(v.Obj, rmap)
		return v
	case *ast.Index:
		v.Obj = renameExpr(v.Obj, rmap)
		v.Idx = renameExpr(v.Idx, rmap)
		return v
	case *ast.Binary:
		v.Lhs = renameExpr(v.Lhs, rmap)
		v.Rhs = renameExpr(v.Rhs, rmap)
		return v
	case *ast.Unary:
		v.Rhs = renameExpr(v.Rhs, rmap)
		return v
	case *ast.Is:
		v.Lhs = renameExpr(v.Lhs, rmap)
		return v
	case *ast.As:
		v.Lhs = renameExpr(v.Lhs, rmap)
		return v
	case *ast.ListLit:
		for i := range v.Elems {
			v.Elems[i] = renameExpr(v.Elems[i], rmap)
		}
		return v
	case *ast.DictLit:
		for i := range v.Keys {
			v.Keys[i] = renameExpr(v.Keys[i], rmap)
		}
		for i := range v.Vals {
			v.Vals[i] = renameExpr(v.Vals[i], rmap)
		}
		return v
	case *ast.TupleExpr:
		for i := range v.Elems {
			v.Elems[i] = renameExpr(v.Elems[i], rmap)
		}
		return v
	default:
		return e
	}
}
