package emitter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bismut-lang/bismut/ast"
	"github.com/bismut-lang/bismut/token"
	"github.com/bismut-lang/bismut/types"
)

var binaryOpC = map[token.Type]string{
	token.EQ: "==", token.NEQ: "!=", token.LT: "<", token.LE: "<=", token.GT: ">", token.GE: ">=",
	token.PLUS: "+", token.MINUS: "-", token.STAR: "*", token.SLASH: "/", token.PERCENT: "%",
	token.AMP: "&", token.PIPE: "|", token.CARET: "^", token.SHL: "<<", token.SHR: ">>",
}

// emitExpr returns the C expression text and Bismut type for e. Every node
// already carries its resolved type via ast.Typed; this only decides how to
// render it and which runtime entry point a builtin resolves to.
func (g *Generator) emitExpr(e ast.Expr) (string, types.Type, error) {
	switch v := e.(type) {
	case *ast.IntLit:
		t := v.Type()
		return fmt.Sprintf("((%s)%d)", ctype(t), v.Value), t, nil

	case *ast.FloatLit:
		t := v.Type()
		return fmt.Sprintf("((%s)%s)", ctype(t), strconv.FormatFloat(v.Value, 'g', -1, 64)), t, nil

	case *ast.BoolLit:
		if v.Value {
			return "true", types.Bool, nil
		}
		return "false", types.Bool, nil

	case *ast.CharLit:
		t := v.Type()
		return fmt.Sprintf("((%s)%d)", ctype(t), v.Value), t, nil

	case *ast.StringLit:
		sym := g.internString(v.Raw)
		return sym, types.Str{}, nil

	case *ast.NoneLit:
		return "NULL", types.None{}, nil

	case *ast.Ident:
		if b, ok := g.reg.externConstant(v.Name); ok {
			ty, ok2 := g.reg.resolveTypeName(b.Ty)
			if !ok2 {
				ty = v.Type()
			}
			return "(" + b.CExpr + ")", ty, nil
		}
		if fd, ok := g.reg.funcs[v.Name]; ok {
			if _, isFnTy := v.Type().(types.FnPtr); isFnTy {
				return "Fn_" + fd.Name, v.Type(), nil
			}
		}
		if vi, ok := g.lookupVar(v.Name); ok {
			return vi.cName, vi.ty, nil
		}
		return "", nil, fmt.Errorf("emitter: unresolved identifier %q at %s", v.Name, src(v.Position()))

	case *ast.Unary:
		rc, rty, err := g.emitExpr(v.Rhs)
		if err != nil {
			return "", nil, err
		}
		switch v.Op {
		case token.MINUS:
			return "(-(" + rc + "))", rty, nil
		case token.NOT:
			return "(!(" + rc + "))", types.Bool, nil
		case token.TILDE:
			return "(~(" + rc + "))", rty, nil
		}
		return "", nil, fmt.Errorf("emitter: unknown unary operator %v", v.Op)

	case *ast.Is:
		return g.emitIs(v)

	case *ast.As:
		return g.emitAs(v)

	case *ast.Binary:
		return g.emitBinary(v)

	case *ast.Call:
		return g.emitCall(v)

	case *ast.MemberAccess:
		return g.emitMemberAccess(v)

	case *ast.Index:
		return g.emitIndex(v)

	case *ast.ListLit:
		return g.emitListLit(v)

	case *ast.DictLit:
		return g.emitDictLit(v)

	case *ast.TupleExpr:
		return g.emitTupleExpr(v)
	}
	return "", nil, fmt.Errorf("emitter: unhandled expression %T", e)
}

func (g *Generator) emitIs(v *ast.Is) (string, types.Type, error) {
	lc, lty, err := g.emitExpr(v.Lhs)
	if err != nil {
		return "", nil, err
	}
	if v.TypeName == "None" {
		if _, ok := lty.(types.Interface); ok {
			return "(" + lc + ".obj == NULL)", types.Bool, nil
		}
		return "(" + lc + " == NULL)", types.Bool, nil
	}
	if iface, ok := lty.(types.Interface); ok {
		if impls, ok2 := g.reg.classImplements[v.TypeName]; ok2 && containsStr(impls, iface.Name) {
			return fmt.Sprintf("(%s.vtbl == &Vtbl_%s_as_%s)", lc, v.TypeName, iface.Name), types.Bool, nil
		}
		return "0", types.Bool, nil
	}
	if lty.String() == v.TypeName {
		return "1", types.Bool, nil
	}
	return "0", types.Bool, nil
}

func (g *Generator) emitAs(v *ast.As) (string, types.Type, error) {
	lc, lty, err := g.emitExpr(v.Lhs)
	if err != nil {
		return "", nil, err
	}
	iface, ok := lty.(types.Interface)
	if !ok {
		return "", nil, fmt.Errorf("emitter: 'as' downcast requires an interface-typed operand, got %s", lty)
	}
	srcStr := src(v.Position())
	tmp := g.newTmp()
	g.w(fmt.Sprintf("Iface_%s %s = %s;", iface.Name, tmp, lc))
	targetT, ok := g.reg.resolveTypeName(v.TypeName)
	if !ok {
		targetT = types.Class{Name: v.TypeName}
	}
	expr := fmt.Sprintf("((Class_%s*)%sdowncast(%s, %s.obj, %s.vtbl, &Vtbl_%s_as_%s, %s))",
		v.TypeName, RTPrefix, srcStr, tmp, tmp, v.TypeName, iface.Name, cEscapeBytes([]byte(v.TypeName)))
	return expr, targetT, nil
}

func (g *Generator) emitBinary(v *ast.Binary) (string, types.Type, error) {
	srcStr := src(v.Position())

	if v.Op == token.AND || v.Op == token.OR {
		ac, _, err := g.emitExpr(v.Lhs)
		if err != nil {
			return "", nil, err
		}
		tmp := g.newTmp()
		g.w(fmt.Sprintf("bool %s = %s;", tmp, ac))
		g.flushPendingReleases(srcStr)
		guard := tmp
		if v.Op == token.OR {
			guard = "!" + tmp
		}
		g.w(fmt.Sprintf("if (%s) {", guard))
		g.ind++
		bc, _, err := g.emitExpr(v.Rhs)
		if err != nil {
			return "", nil, err
		}
		g.w(fmt.Sprintf("%s = %s;", tmp, bc))
		g.flushPendingReleases(srcStr)
		g.ind--
		g.w("}")
		return tmp, types.Bool, nil
	}

	ac, aty, err := g.emitArgSafe(v.Lhs)
	if err != nil {
		return "", nil, err
	}
	bc, bty, err := g.emitArgSafe(v.Rhs)
	if err != nil {
		return "", nil, err
	}

	switch v.Op {
	case token.EQ, token.NEQ:
		if _, aIsStr := aty.(types.Str); aIsStr {
			if _, bIsStr := bty.(types.Str); bIsStr {
				expr := fmt.Sprintf("%sstr_eq(%s, %s)", RTPrefix, ac, bc)
				if v.Op == token.NEQ {
					expr = "(!(" + expr + "))"
				}
				return expr, types.Bool, nil
			}
		}
		_, aIsNone := aty.(types.None)
		_, bIsNone := bty.(types.None)
		if aIsNone || bIsNone {
			op := binaryOpC[v.Op]
			if iface, ok := aty.(types.Interface); ok {
				_ = iface
				return fmt.Sprintf("(%s.obj %s NULL)", ac, op), types.Bool, nil
			}
			if iface, ok := bty.(types.Interface); ok {
				_ = iface
				return fmt.Sprintf("(%s.obj %s NULL)", bc, op), types.Bool, nil
			}
			return fmt.Sprintf("(%s %s %s)", ac, op, bc), types.Bool, nil
		}
		return fmt.Sprintf("(%s %s %s)", ac, binaryOpC[v.Op], bc), types.Bool, nil

	case token.LT, token.LE, token.GT, token.GE:
		return fmt.Sprintf("(%s %s %s)", ac, binaryOpC[v.Op], bc), types.Bool, nil

	case token.PLUS:
		if _, aIsStr := aty.(types.Str); aIsStr {
			return fmt.Sprintf("%sstr_concat(%s, %s, %s)", RTPrefix, srcStr, ac, bc), types.Str{}, nil
		}
		return fmt.Sprintf("(%s + %s)", ac, bc), v.Type(), nil

	case token.MINUS, token.STAR, token.SLASH, token.PERCENT:
		return fmt.Sprintf("(%s %s %s)", ac, binaryOpC[v.Op], bc), v.Type(), nil

	case token.AMP, token.PIPE, token.CARET, token.SHL, token.SHR:
		return fmt.Sprintf("(%s %s %s)", ac, binaryOpC[v.Op], bc), v.Type(), nil
	}
	return "", nil, fmt.Errorf("emitter: unknown binary operator %v", v.Op)
}

func (g *Generator) emitMemberAccess(v *ast.MemberAccess) (string, types.Type, error) {
	if id, ok := v.Obj.(*ast.Ident); ok {
		if ed, isEnum := g.reg.enums[id.Name]; isEnum {
			if val, ok2 := enumVariantValue(ed, v.Member); ok2 {
				return strconv.FormatInt(val, 10), types.Enum{Name: id.Name}, nil
			}
		}
	}
	objC, objTy, err := g.emitArgSafe(v.Obj)
	if err != nil {
		return "", nil, err
	}
	srcStr := src(v.Position())
	if st, ok := objTy.(types.Struct); ok {
		if sd, ok2 := g.reg.structs[st.Name]; ok2 {
			for _, fd := range sd.Fields {
				if fd.Name == v.Member {
					return objC + "." + ciName(fd.Name), g.reg.mustResolve(fd.Ty), nil
				}
			}
		}
	}
	if cl, ok := objTy.(types.Class); ok {
		g.w(fmt.Sprintf("%snull_check(%s, %s);", RTPrefix, objC, srcStr))
		if cd, ok2 := g.reg.classes[cl.Name]; ok2 {
			for _, fd := range cd.Fields {
				if fd.Name == v.Member {
					return objC + "->" + ciName(fd.Name), g.reg.mustResolve(fd.Ty), nil
				}
			}
		}
	}
	return "", nil, fmt.Errorf("emitter: unknown member %q on type %s at %s", v.Member, objTy, srcStr)
}

func (g *Generator) emitIndex(v *ast.Index) (string, types.Type, error) {
	srcStr := src(v.Position())
	objC, objTy, err := g.emitExpr(v.Obj)
	if err != nil {
		return "", nil, err
	}
	idxC, _, err := g.emitArgSafe(v.Idx)
	if err != nil {
		return "", nil, err
	}
	switch ot := objTy.(type) {
	case types.List:
		return fmt.Sprintf("List_%s_get(%s, %s, %s)", tag(ot.Elem), srcStr, objC, idxC), ot.Elem, nil
	case types.Dict:
		return fmt.Sprintf("Dict_%s_%s_get(%s, %s, %s)", tag(ot.Key), tag(ot.Val), srcStr, objC, idxC), ot.Val, nil
	case types.Str:
		return fmt.Sprintf("%sstr_get(%s, %s, %s)", RTPrefix, srcStr, objC, idxC), types.I64, nil
	}
	return "", nil, fmt.Errorf("emitter: subscript not supported on type %s at %s", objTy, srcStr)
}

func (g *Generator) emitListLit(v *ast.ListLit) (string, types.Type, error) {
	elemT := g.reg.mustResolve(v.ElemType)
	elemTag := tag(elemT)
	srcStr := src(v.Position())
	listT := types.List{Elem: elemT}
	tmp := g.newTmp()
	g.w(fmt.Sprintf("%s %s = List_%s_new(%s);", ctype(listT), tmp, elemTag, srcStr))
	for _, el := range v.Elems {
		ec, ety, err := g.emitArgSafe(el)
		if err != nil {
			return "", nil, err
		}
		ec = g.maybeWrapIface(ec, ety, elemT)
		g.w(fmt.Sprintf("List_%s_push(%s, %s, %s);", elemTag, srcStr, tmp, ec))
	}
	return tmp, listT, nil
}

func (g *Generator) emitDictLit(v *ast.DictLit) (string, types.Type, error) {
	keyT := g.reg.mustResolve(v.KeyType)
	valT := g.reg.mustResolve(v.ValType)
	srcStr := src(v.Position())
	dictT := types.Dict{Key: keyT, Val: valT}
	tmp := g.newTmp()
	g.w(fmt.Sprintf("%s %s = Dict_%s_%s_new(%s);", ctype(dictT), tmp, tag(keyT), tag(valT), srcStr))
	for i := range v.Keys {
		kc, _, err := g.emitArgSafe(v.Keys[i])
		if err != nil {
			return "", nil, err
		}
		vc, vty, err := g.emitArgSafe(v.Vals[i])
		if err != nil {
			return "", nil, err
		}
		vc = g.maybeWrapIface(vc, vty, valT)
		g.w(fmt.Sprintf("Dict_%s_%s_set(%s, %s, %s, %s);", tag(keyT), tag(valT), srcStr, tmp, kc, vc))
	}
	return tmp, dictT, nil
}

func (g *Generator) emitTupleExpr(v *ast.TupleExpr) (string, types.Type, error) {
	tupT, ok := v.Type().(types.Tuple)
	if !ok {
		return "", nil, fmt.Errorf("emitter: tuple expression without a resolved tuple type")
	}
	srcStr := src(v.Position())
	type elemInfo struct {
		c    string
		sub  ast.Expr
		want types.Type
	}
	elems := make([]elemInfo, len(v.Elems))
	for i, el := range v.Elems {
		ec, ety, err := g.emitExpr(el)
		if err != nil {
			return "", nil, err
		}
		want := tupT.Elems[i]
		ec = g.maybeWrapIface(ec, ety, want)
		elems[i] = elemInfo{c: ec, sub: el, want: want}
	}
	tmp := g.newTmp()
	fields := make([]string, len(elems))
	for i, el := range elems {
		fields[i] = fmt.Sprintf(".f%d = %s", i, el.c)
	}
	g.w(fmt.Sprintf("%s %s = {%s};", ctype(tupT), tmp, strings.Join(fields, ", ")))
	for i, el := range elems {
		if isRefType(el.want) && exprIsBorrowed(el.sub) {
			g.emitRetainValue(el.want, fmtField(tmp, i), srcStr)
		}
	}
	return tmp, tupT, nil
}

func containsStr(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}

// enumVariantValue computes the integer value of member in ed, honoring
// explicit Value overrides and auto-increment from the running counter
// otherwise.
func enumVariantValue(ed *ast.EnumDecl, member string) (int64, bool) {
	var counter int64
	for _, variant := range ed.Variants {
		val := counter
		if variant.Value != nil {
			val = *variant.Value
		}
		if variant.Name == member {
			return val, true
		}
		counter = val + 1
	}
	return 0, false
}
