// Package resolver implements the import/extern resolution pass:
// locating imported modules and extern manifests, flattening them into the
// entry program, and rewriting every name so the checker and emitter never
// need to know modules existed (mangled `alias__Name` identifiers).
package resolver

import "github.com/bismut-lang/bismut/ast"

// typeRefFn rewrites one TypeRef; exprFn rewrites one Expr (always returning
// the node to store back, since some rewrites replace the node outright).
type typeRefFn func(ast.TypeRef) ast.TypeRef
type exprFn func(ast.Expr) ast.Expr

// walkStmts threads onTr/onEx through every statement kind, mirroring the
// reference resolver's _walk_stmts.
func walkStmts(stmts []ast.Stmt, onTr typeRefFn, onEx exprFn) {
	for _, st := range stmts {
		switch v := st.(type) {
		case *ast.VarDecl:
			if v.Ty != nil {
				ty := onTr(*v.Ty)
				v.Ty = &ty
			}
			if v.Value != nil {
				v.Value = onEx(v.Value)
			}
		case *ast.Assign:
			v.Name = renameIdentName(v.Name, onEx)
			v.Value = onEx(v.Value)
		case *ast.MemberAssign:
			v.Obj = onEx(v.Obj)
			v.Value = onEx(v.Value)
		case *ast.IndexAssign:
			v.Obj = onEx(v.Obj)
			v.Idx = onEx(v.Idx)
			v.Value = onEx(v.Value)
		case *ast.ExprStmt:
			v.Expr = onEx(v.Expr)
		case *ast.Return:
			if v.Value != nil {
				v.Value = onEx(v.Value)
			}
		case *ast.If:
			for i := range v.Arms {
				if v.Arms[i].Cond != nil {
					v.Arms[i].Cond = onEx(v.Arms[i].Cond)
				}
				walkStmts(v.Arms[i].Block.Stmts, onTr, onEx)
			}
		case *ast.While:
			v.Cond = onEx(v.Cond)
			walkStmts(v.Body.Stmts, onTr, onEx)
		case *ast.TupleDestructure:
			v.Value = onEx(v.Value)
		case *ast.For:
			v.VarTy = onTr(v.VarTy)
			v.Iterable = onEx(v.Iterable)
			walkStmts(v.Body.Stmts, onTr, onEx)
		}
	}
}

// renameIdentName threads a bare statement-level identifier (an Assign
// target) through the same rewrite function expressions use, by wrapping it
// as an Ident and unwrapping the result.
func renameIdentName(name string, onEx exprFn) string {
	id := ast.NewIdent(ast.TypeRef{}.Pos, name)
	rewritten := onEx(id)
	if ri, ok := rewritten.(*ast.Ident); ok {
		return ri.Name
	}
	return name
}

// declScope bundles a function/method's params and body for the
// shadow-aware rename pass (a local variable or parameter that collides
// with a top-level rename-map key must not be rewritten within that body).
type declScope struct {
	params []ast.Param
	stmts  []ast.Stmt
}

// walkDecls threads onTr/onEx through every top-level declaration kind,
// mirroring _walk_decls. When rmap is non-nil, expression rewriting inside
// each function/method body is scoped: local names shadowing an rmap key
// are excluded from rewriting within that body.
func walkDecls(funcs []*ast.FuncDecl, classes []*ast.ClassDecl, structs []*ast.StructDecl,
	ifaces []*ast.InterfaceDecl, onTr typeRefFn, onEx exprFn, rmap map[string]string) {

	scopedEx := func(scope declScope) exprFn {
		if rmap == nil {
			return onEx
		}
		local := collectLocalNames(scope.params, scope.stmts)
		shadowed := false
		for k := range rmap {
			if local[k] {
				shadowed = true
				break
			}
		}
		if !shadowed {
			return onEx
		}
		scoped := map[string]string{}
		for k, v := range rmap {
			if !local[k] {
				scoped[k] = v
			}
		}
		return func(e ast.Expr) ast.Expr { return renameExpr(e, scoped) }
	}

	for _, f := range funcs {
		for i := range f.Params {
			f.Params[i].Ty = onTr(f.Params[i].Ty)
		}
		f.Ret = onTr(f.Ret)
		if f.Body != nil {
			walkStmts(f.Body.Stmts, onTr, scopedEx(declScope{f.Params, f.Body.Stmts}))
		}
	}
	for _, c := range classes {
		for i := range c.Fields {
			c.Fields[i].Ty = onTr(c.Fields[i].Ty)
		}
		for _, m := range c.Methods {
			for i := range m.Params {
				m.Params[i].Ty = onTr(m.Params[i].Ty)
			}
			m.Ret = onTr(m.Ret)
			if m.Body != nil {
				walkStmts(m.Body.Stmts, onTr, scopedEx(declScope{m.Params, m.Body.Stmts}))
			}
		}
	}
	for _, s := range structs {
		for i := range s.Fields {
			s.Fields[i].Ty = onTr(s.Fields[i].Ty)
		}
		for _, m := range s.Methods {
			for i := range m.Params {
				m.Params[i].Ty = onTr(m.Params[i].Ty)
			}
			m.Ret = onTr(m.Ret)
			if m.Body != nil {
				walkStmts(m.Body.Stmts, onTr, scopedEx(declScope{m.Params, m.Body.Stmts}))
			}
		}
	}
	for _, iface := range ifaces {
		for i := range iface.MethodSigs {
			ms := &iface.MethodSigs[i]
			for j := range ms.Params {
				ms.Params[j].Ty = onTr(ms.Params[j].Ty)
			}
			ms.Ret = onTr(ms.Ret)
		}
	}
}

func collectLocalNames(params []ast.Param, stmts []ast.Stmt) map[string]bool {
	names := map[string]bool{}
	for _, p := range params {
		names[p.Name] = true
	}
	collectStmtNames(stmts, names)
	return names
}

func collectStmtNames(stmts []ast.Stmt, names map[string]bool) {
	for _, st := range stmts {
		switch v := st.(type) {
		case *ast.VarDecl:
			names[v.Name] = true
		case *ast.For:
			names[v.VarName] = true
			collectStmtNames(v.Body.Stmts, names)
		case *ast.TupleDestructure:
			for _, n := range v.Names {
				names[n] = true
			}
		case *ast.If:
			for _, arm := range v.Arms {
				collectStmtNames(arm.Block.Stmts, names)
			}
		case *ast.While:
			collectStmtNames(v.Body.Stmts, names)
		}
	}
}
