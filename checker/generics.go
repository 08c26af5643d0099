package checker

import (
	"strings"
	"unicode"

	"github.com/bismut-lang/bismut/ast"
	"github.com/bismut-lang/bismut/types"
)

// substType resolves name after substituting every occurrence of a type
// parameter token in sub with its concrete type's surface spelling, via a
// token-aware string substitution since TypeRef is a flat already-folded
// string here.
func (c *Checker) substType(name string, sub map[string]types.Type) (types.Type, bool) {
	for param, concrete := range sub {
		name = substTypeTokens(name, param, surfaceSpelling(concrete))
	}
	return c.resolveTypeName(name)
}

func substTypeTokens(s, param, concrete string) string {
	var out, tok strings.Builder
	flush := func() {
		if tok.Len() == 0 {
			return
		}
		t := tok.String()
		if t == param {
			out.WriteString(concrete)
		} else {
			out.WriteString(t)
		}
		tok.Reset()
	}
	for _, r := range s {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			tok.WriteRune(r)
		} else {
			flush()
			out.WriteRune(r)
		}
	}
	flush()
	return out.String()
}

// surfaceSpelling is the parser's surface spelling for t, used to re-fold
// a substituted type back into a string resolveTypeName can parse. Tuple
// is the one case where types.Type.String() ("Tuple[a,b]") disagrees with
// the surface grammar ("(a,b)").
func surfaceSpelling(t types.Type) string {
	switch v := t.(type) {
	case types.Tuple:
		parts := make([]string, len(v.Elems))
		for i, e := range v.Elems {
			parts[i] = surfaceSpelling(e)
		}
		return "(" + strings.Join(parts, ",") + ")"
	case types.List:
		return "List[" + surfaceSpelling(v.Elem) + "]"
	case types.Dict:
		return "Dict[" + surfaceSpelling(v.Key) + "," + surfaceSpelling(v.Val) + "]"
	case types.FnPtr:
		parts := make([]string, len(v.Params))
		for i, p := range v.Params {
			parts[i] = surfaceSpelling(p)
		}
		return "Fn(" + strings.Join(parts, ",") + ")->" + surfaceSpelling(v.Ret)
	default:
		return v.String()
	}
}

func substTypeRef(tr ast.TypeRef, sub map[string]types.Type) ast.TypeRef {
	name := tr.Name
	for param, concrete := range sub {
		name = substTypeTokens(name, param, surfaceSpelling(concrete))
	}
	return ast.TypeRef{Pos: tr.Pos, Name: name}
}

// instantiateFunc deep-copies a generic function template, substituting
// every type-parameter occurrence in its signature and body with the
// concrete type from sub, and renames it to mangled: each distinct
// instantiation is recorded for monomorphized emission.
func instantiateFunc(gf *ast.FuncDecl, sub map[string]types.Type, mangled string) *ast.FuncDecl {
	params := make([]ast.Param, len(gf.Params))
	for i, p := range gf.Params {
		params[i] = ast.Param{Pos: p.Pos, Name: p.Name, Ty: substTypeRef(p.Ty, sub)}
	}
	return &ast.FuncDecl{
		Pos:    gf.Pos,
		Name:   mangled,
		Params: params,
		Ret:    substTypeRef(gf.Ret, sub),
		Body:   substBlock(gf.Body, sub),
		Doc:    gf.Doc,
	}
}

func substBlock(b *ast.Block, sub map[string]types.Type) *ast.Block {
	if b == nil {
		return nil
	}
	out := &ast.Block{}
	out.Pos = b.Pos
	for _, st := range b.Stmts {
		out.Stmts = append(out.Stmts, substStmt(st, sub))
	}
	return out
}

func substStmt(s ast.Stmt, sub map[string]types.Type) ast.Stmt {
	switch v := s.(type) {
	case *ast.VarDecl:
		nv := *v
		if v.Ty != nil {
			t := substTypeRef(*v.Ty, sub)
			nv.Ty = &t
		}
		nv.Value = substExpr(v.Value, sub)
		return &nv
	case *ast.TupleDestructure:
		nv := *v
		nv.Value = substExpr(v.Value, sub)
		return &nv
	case *ast.Assign:
		nv := *v
		nv.Value = substExpr(v.Value, sub)
		return &nv
	case *ast.MemberAssign:
		nv := *v
		nv.Obj = substExpr(v.Obj, sub)
		nv.Value = substExpr(v.Value, sub)
		return &nv
	case *ast.IndexAssign:
		nv := *v
		nv.Obj = substExpr(v.Obj, sub)
		nv.Idx = substExpr(v.Idx, sub)
		nv.Value = substExpr(v.Value, sub)
		return &nv
	case *ast.ExprStmt:
		nv := *v
		nv.Expr = substExpr(v.Expr, sub)
		return &nv
	case *ast.Return:
		nv := *v
		if v.Value != nil {
			nv.Value = substExpr(v.Value, sub)
		}
		return &nv
	case *ast.If:
		nv := *v
		nv.Arms = make([]ast.IfArm, len(v.Arms))
		for i, arm := range v.Arms {
			na := arm
			if arm.Cond != nil {
				na.Cond = substExpr(arm.Cond, sub)
			}
			na.Block = substBlock(arm.Block, sub)
			nv.Arms[i] = na
		}
		return &nv
	case *ast.While:
		nv := *v
		nv.Cond = substExpr(v.Cond, sub)
		nv.Body = substBlock(v.Body, sub)
		return &nv
	case *ast.For:
		nv := *v
		nv.VarTy = substTypeRef(v.VarTy, sub)
		nv.Iterable = substExpr(v.Iterable, sub)
		nv.Body = substBlock(v.Body, sub)
		return &nv
	case *ast.Block:
		return substBlock(v, sub)
	default:
		return s
	}
}

func substExpr(e ast.Expr, sub map[string]types.Type) ast.Expr {
	if e == nil {
		return nil
	}
	switch v := e.(type) {
	case *ast.Unary:
		nv := *v
		nv.Rhs = substExpr(v.Rhs, sub)
		return &nv
	case *ast.Binary:
		nv := *v
		nv.Lhs = substExpr(v.Lhs, sub)
		nv.Rhs = substExpr(v.Rhs, sub)
		return &nv
	case *ast.Call:
		nv := *v
		nv.Callee = substExpr(v.Callee, sub)
		nv.Args = make([]ast.Expr, len(v.Args))
		for i, a := range v.Args {
			nv.Args[i] = substExpr(a, sub)
		}
		if v.TypeArgs != nil {
			nv.TypeArgs = make([]ast.TypeRef, len(v.TypeArgs))
			for i, t := range v.TypeArgs {
				nv.TypeArgs[i] = substTypeRef(t, sub)
			}
		}
		return &nv
	case *ast.MemberAccess:
		nv := *v
		nv.Obj = substExpr(v.Obj, sub)
		return &nv
	case *ast.Is:
		nv := *v
		nv.Lhs = substExpr(v.Lhs, sub)
		for param, concrete := range sub {
			nv.TypeName = substTypeTokens(v.TypeName, param, surfaceSpelling(concrete))
		}
		return &nv
	case *ast.As:
		nv := *v
		nv.Lhs = substExpr(v.Lhs, sub)
		for param, concrete := range sub {
			nv.TypeName = substTypeTokens(v.TypeName, param, surfaceSpelling(concrete))
		}
		return &nv
	case *ast.Index:
		nv := *v
		nv.Obj = substExpr(v.Obj, sub)
		nv.Idx = substExpr(v.Idx, sub)
		return &nv
	case *ast.TupleExpr:
		nv := *v
		nv.Elems = make([]ast.Expr, len(v.Elems))
		for i, el := range v.Elems {
			nv.Elems[i] = substExpr(el, sub)
		}
		return &nv
	case *ast.ListLit:
		nv := *v
		nv.ElemType = substTypeRef(v.ElemType, sub)
		nv.Elems = make([]ast.Expr, len(v.Elems))
		for i, el := range v.Elems {
			nv.Elems[i] = substExpr(el, sub)
		}
		return &nv
	case *ast.DictLit:
		nv := *v
		nv.KeyType = substTypeRef(v.KeyType, sub)
		nv.ValType = substTypeRef(v.ValType, sub)
		nv.Keys = make([]ast.Expr, len(v.Keys))
		for i, k := range v.Keys {
			nv.Keys[i] = substExpr(k, sub)
		}
		nv.Vals = make([]ast.Expr, len(v.Vals))
		for i, val := range v.Vals {
			nv.Vals[i] = substExpr(val, sub)
		}
		return &nv
	default:
		return e
	}
}

// inferGenericParam infers a single-type-parameter generic function's
// concrete type argument from the checked argument types, matching the
// parameter whose declared type is the bare type parameter or a container
// of it.
func (c *Checker) inferGenericParam(gf *ast.FuncDecl, argTypes []types.Type) (types.Type, bool) {
	if len(gf.TypeParams) == 0 {
		return nil, false
	}
	tp := gf.TypeParams[0]
	for i, p := range gf.Params {
		if i >= len(argTypes) {
			break
		}
		if p.Ty.Name == tp {
			return argTypes[i], true
		}
		if lt, ok := argTypes[i].(types.List); ok && isListOfParam(p.Ty.Name, tp) {
			return lt.Elem, true
		}
		if dt, ok := argTypes[i].(types.Dict); ok && isDictValOfParam(p.Ty.Name, tp) {
			return dt.Val, true
		}
	}
	return nil, false
}

func isListOfParam(declared, tp string) bool {
	return strings.HasPrefix(declared, "List[") && strings.HasSuffix(declared, "]") && declared[len("List["):len(declared)-1] == tp
}

func isDictValOfParam(declared, tp string) bool {
	if !strings.HasPrefix(declared, "Dict[") || !strings.HasSuffix(declared, "]") {
		return false
	}
	parts := splitTopLevel(declared[len("Dict["):len(declared)-1], ',')
	return len(parts) == 2 && parts[1] == tp
}
