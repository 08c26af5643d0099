package resolver

import (
	"strings"

	"github.com/bismut-lang/bismut/ast"
)

// resolveDottedName rewrites "alias.Name" into "alias__Name" when alias is
// a known module alias, leaving anything else untouched.
func resolveDottedName(name string, aliases map[string]bool) string {
	if idx := strings.Index(name, "."); idx >= 0 {
		alias := name[:idx]
		if aliases[alias] {
			return alias + "__" + name[idx+1:]
		}
	}
	return name
}

// resolveTypeRef rewrites a single level of "alias.Type" inside a type-ref
// string: only the bracketed inner segment (for List[alias.Type]-shaped
// refs) or the whole bare name gets one non-recursive dotted-name
// substitution. Nested multi-arg generics (Dict[alias.K,alias.V]) are not
// handled.
func resolveTypeRef(tr ast.TypeRef, aliases map[string]bool) ast.TypeRef {
	name := tr.Name
	if br := strings.Index(name, "["); br >= 0 && strings.HasSuffix(name, "]") {
		outer := name[:br]
		inner := name[br+1 : len(name)-1]
		tr.Name = outer + "[" + resolveDottedName(inner, aliases) + "]"
		return tr
	}
	tr.Name = resolveDottedName(name, aliases)
	return tr
}

// resolveExpr rewrites `alias.member` member-access chains into the
// mangled `alias__member` identifier form, mirroring `_resolve_expr`.
func resolveExpr(e ast.Expr, aliases map[string]bool) ast.Expr {
	switch v := e.(type) {
	case *ast.MemberAccess:
		v.Obj = resolveExpr(v.Obj, aliases)
		if id, ok := v.Obj.(*ast.Ident); ok && aliases[id.Name] {
			return ast.NewIdent(v.Position(), id.Name+"__"+v.Member)
		}
		return v
	case *ast.Call:
		v.Callee = resolveExpr(v.Callee, aliases)
		for i := range v.Args {
			v.Args[i] = resolveExpr(v.Args[i], aliases)
		}
		return v
	case *ast.Index:
		v.Obj = resolveExpr(v.Obj, aliases)
		v.Idx = resolveExpr(v.Idx, aliases)
		return v
	case *ast.Binary:
		v.Lhs = resolveExpr(v.Lhs, aliases)
		v.Rhs = resolveExpr(v.Rhs, aliases)
		return v
	case *ast.Unary:
		v.Rhs = resolveExpr(v.Rhs, aliases)
		return v
	case *ast.Is:
		v.Lhs = resolveExpr(v.Lhs, aliases)
		return v
	case *ast.As:
		v.Lhs = resolveExpr(v.Lhs, aliases)
		return v
	case *ast.ListLit:
		for i := range v.Elems {
			v.Elems[i] = resolveExpr(v.Elems[i], aliases)
		}
		return v
	case *ast.DictLit:
		for i := range v.Keys {
			v.Keys[i] = resolveExpr(v.Keys[i], aliases)
		}
		for i := range v.Vals {
			v.Vals[i] = resolveExpr(v.Vals[i], aliases)
		}
		return v
	case *ast.TupleExpr:
		for i := range v.Elems {
			v.Elems[i] = resolveExpr(v.Elems[i], aliases)
		}
		return v
	default:
		return e
	}
}

// resolveDecls applies the alias-prefix resolution pass over every
// declaration, shadow-aware the same way walkDecls is for renaming: a
// local name shadowing a module alias excludes that alias from resolution
// within that body.
func resolveDecls(funcs []*ast.FuncDecl, classes []*ast.ClassDecl, structs []*ast.StructDecl,
	ifaces []*ast.InterfaceDecl, aliases map[string]bool) {

	onTr := func(tr ast.TypeRef) ast.TypeRef { return resolveTypeRef(tr, aliases) }

	scopedAliases := func(params []ast.Param, stmts []ast.Stmt) map[string]bool {
		local := collectLocalNames(params, stmts)
		shadowed := false
		for a := range aliases {
			if local[a] {
				shadowed = true
				break
			}
		}
		if !shadowed {
			return aliases
		}
		scoped := map[string]bool{}
		for a := range aliases {
			if !local[a] {
				scoped[a] = true
			}
		}
		return scoped
	}

	for _, f := range funcs {
		for i := range f.Params {
			f.Params[i].Ty = resolveTypeRef(f.Params[i].Ty, aliases)
		}
		f.Ret = resolveTypeRef(f.Ret, aliases)
		if f.Body != nil {
			effective := scopedAliases(f.Params, f.Body.Stmts)
			walkStmts(f.Body.Stmts, onTr, func(e ast.Expr) ast.Expr { return resolveExpr(e, effective) })
		}
	}
	for _, c := range classes {
		for i := range c.Fields {
			c.Fields[i].Ty = resolveTypeRef(c.Fields[i].Ty, aliases)
		}
		for _, m := range c.Methods {
			for i := range m.Params {
				m.Params[i].Ty = resolveTypeRef(m.Params[i].Ty, aliases)
			}
			m.Ret = resolveTypeRef(m.Ret, aliases)
			if m.Body != nil {
				effective := scopedAliases(m.Params, m.Body.Stmts)
				walkStmts(m.Body.Stmts, onTr, func(e ast.Expr) ast.Expr { return resolveExpr(e, effective) })
			}
		}
	}
	for _, s := range structs {
		for i := range s.Fields {
			s.Fields[i].Ty = resolveTypeRef(s.Fields[i].Ty, aliases)
		}
		for _, m := range s.Methods {
			for i := range m.Params {
				m.Params[i].Ty = resolveTypeRef(m.Params[i].Ty, aliases)
			}
			m.Ret = resolveTypeRef(m.Ret, aliases)
			if m.Body != nil {
				effective := scopedAliases(m.Params, m.Body.Stmts)
				walkStmts(m.Body.Stmts, onTr, func(e ast.Expr) ast.Expr { return resolveExpr(e, effective) })
			}
		}
	}
	for _, iface := range ifaces {
		for i := range iface.MethodSigs {
			ms := &iface.MethodSigs[i]
			for j := range ms.Params {
				ms.Params[j].Ty = resolveTypeRef(ms.Params[j].Ty, aliases)
			}
			ms.Ret = resolveTypeRef(ms.Ret, aliases)
		}
	}
}
