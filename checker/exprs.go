package checker

import (
	"github.com/bismut-lang/bismut/ast"
	"github.com/bismut-lang/bismut/token"
	"github.com/bismut-lang/bismut/types"
)

// checkExpr resolves e's type, reporting any violation to the bag and
// annotating e via ast.Typed.SetType so the emitter sees every resolved
// expression's final type. target is an optional type hint ("" contexts
// pass nil) that lets integer/float literals adapt their width instead of
// always defaulting to i64/f64.
func (c *Checker) checkExpr(e ast.Expr, target types.Type) types.Type {
	switch v := e.(type) {
	case *ast.IntLit:
		if target != nil && types.IsIntegerPrimitive(target) {
			return setType(e, target)
		}
		return setType(e, types.I64)

	case *ast.CharLit:
		if target != nil && types.IsIntegerPrimitive(target) {
			return setType(e, target)
		}
		return setType(e, types.I64)

	case *ast.FloatLit:
		if target != nil && types.IsFloatPrimitive(target) {
			return setType(e, target)
		}
		return setType(e, types.F64)

	case *ast.BoolLit:
		return setType(e, types.Bool)

	case *ast.StringLit:
		return setType(e, types.Str{})

	case *ast.NoneLit:
		return setType(e, types.None{})

	case *ast.Ident:
		if target != nil {
			if fn, ok := target.(types.FnPtr); ok {
				if sig, ok := c.funcs[v.Name]; ok {
					actual := types.FnPtr{Params: sig.Params, Ret: sig.Ret}
					if !types.Equal(actual, fn) {
						c.bag.Error(v.Pos, "function '%s' has type %s, expected %s", v.Name, actual.String(), fn.String())
					}
					return setType(e, actual)
				}
			}
		}
		if ec, ok := c.externConsts[v.Name]; ok {
			return setType(e, ec)
		}
		vi, _ := c.lookup(v.Pos, v.Name)
		return setType(e, vi.Ty)

	case *ast.Unary:
		return c.checkUnary(v)

	case *ast.Binary:
		return c.checkBinary(v)

	case *ast.Is:
		return c.checkIs(v)

	case *ast.As:
		return c.checkAs(v)

	case *ast.Call:
		return c.checkCall(v)

	case *ast.MemberAccess:
		return c.checkMemberAccess(v)

	case *ast.Index:
		return c.checkIndex(v)

	case *ast.TupleExpr:
		return c.checkTupleExpr(v, target)

	case *ast.ListLit:
		return c.checkListLit(v)

	case *ast.DictLit:
		return c.checkDictLit(v)
	}

	c.bag.Error(e.Position(), "unhandled expression")
	return setType(e, unknown)
}

func (c *Checker) checkUnary(v *ast.Unary) types.Type {
	rhs := c.checkExpr(v.Rhs, nil)
	switch v.Op {
	case token.MINUS:
		if !isNumeric(resolveEnumTy(rhs)) {
			c.bag.Error(v.Pos, "unary '-' requires numeric, got %s", rhs.String())
		}
		return setType(v, rhs)
	case token.NOT:
		if !isTruthy(rhs) {
			c.bag.Error(v.Pos, "'not' requires bool, integer, or reference type, got %s", rhs.String())
		}
		return setType(v, types.Bool)
	case token.TILDE:
		if !isIntLike(rhs) {
			c.bag.Error(v.Pos, "unary '~' requires integer, got %s", rhs.String())
		}
		return setType(v, rhs)
	}
	c.bag.Error(v.Pos, "unknown unary operator")
	return setType(v, unknown)
}

func (c *Checker) checkIs(v *ast.Is) types.Type {
	c.checkExpr(v.Lhs, nil)
	if v.TypeName == "None" {
		return setType(v, types.Bool)
	}
	if _, ok := c.resolveTypeName(v.TypeName); !ok {
		c.bag.Error(v.Pos, "'is' right-hand side must be a type name, got '%s'", v.TypeName)
	}
	return setType(v, types.Bool)
}

func (c *Checker) checkAs(v *ast.As) types.Type {
	lhs := c.checkExpr(v.Lhs, nil)
	target, ok := c.resolveTypeName(v.TypeName)
	if !ok {
		c.bag.Error(v.Pos, "'as' target must be a type name, got '%s'", v.TypeName)
		return setType(v, unknown)
	}
	iface, isIface := lhs.(types.Interface)
	if !isIface {
		c.bag.Error(v.Pos, "'as' requires an interface type on the left, got '%s'", lhs.String())
		return setType(v, target)
	}
	cls, isClass := target.(types.Class)
	if !isClass {
		c.bag.Error(v.Pos, "'as' target must be a class type, got '%s'", v.TypeName)
		return setType(v, target)
	}
	ci, ok := c.classes[cls.Name]
	if !ok || !ci.Implements[iface.Name] {
		c.bag.Error(v.Pos, "class '%s' does not implement interface '%s'", cls.Name, iface.Name)
	}
	return setType(v, target)
}

func (c *Checker) checkBinary(v *ast.Binary) types.Type {
	a := c.checkExpr(v.Lhs, nil)
	var b types.Type
	if isIntLike(a) && isIntLikeLiteral(v.Rhs) {
		b = c.checkExpr(v.Rhs, a)
	} else if types.IsFloatPrimitive(a) && isFloatLiteral(v.Rhs) {
		b = c.checkExpr(v.Rhs, a)
	} else {
		b = c.checkExpr(v.Rhs, nil)
	}
	if isIntLike(b) && types.Equal(a, types.I64) && isIntLikeLiteral(v.Lhs) && !types.Equal(b, types.I64) {
		a = c.checkExpr(v.Lhs, b)
	} else if types.IsFloatPrimitive(b) && types.Equal(a, types.F64) && isFloatLiteral(v.Lhs) && !types.Equal(b, types.F64) {
		a = c.checkExpr(v.Lhs, b)
	}

	ra, rb := resolveEnumTy(a), resolveEnumTy(b)

	switch v.Op {
	case token.PLUS, token.MINUS, token.STAR, token.SLASH, token.PERCENT:
		if v.Op == token.PLUS {
			if _, aStr := a.(types.Str); aStr {
				if _, bStr := b.(types.Str); bStr {
					return setType(v, types.Str{})
				}
			}
		}
		if !isNumeric(ra) || !isNumeric(rb) {
			c.bag.Error(v.Pos, "operator requires numeric operands, got %s and %s", a.String(), b.String())
			return setType(v, unknown)
		}
		if !types.Equal(ra, rb) {
			c.bag.Error(v.Pos, "operator requires same numeric type, got %s and %s", a.String(), b.String())
		}
		return setType(v, a)

	case token.AMP, token.PIPE, token.CARET, token.SHL, token.SHR:
		if !isIntLike(ra) || !isIntLike(rb) {
			c.bag.Error(v.Pos, "operator requires integer operands, got %s and %s", a.String(), b.String())
			return setType(v, unknown)
		}
		if !types.Equal(ra, rb) {
			c.bag.Error(v.Pos, "operator requires same integer type, got %s and %s", a.String(), b.String())
		}
		return setType(v, a)

	case token.LT, token.LE, token.GT, token.GE:
		if !isNumeric(ra) || !isNumeric(rb) {
			c.bag.Error(v.Pos, "comparison requires numeric operands, got %s and %s", a.String(), b.String())
		} else if !types.Equal(ra, rb) {
			c.bag.Error(v.Pos, "comparison requires same numeric type, got %s and %s", a.String(), b.String())
		}
		return setType(v, types.Bool)

	case token.EQ, token.NEQ:
		_, aNone := a.(types.None)
		_, bNone := b.(types.None)
		if aNone && isRefValue(b) {
			return setType(v, types.Bool)
		}
		if bNone && isRefValue(a) {
			return setType(v, types.Bool)
		}
		if !types.Equal(ra, rb) {
			c.bag.Error(v.Pos, "equality requires same types, got %s and %s", a.String(), b.String())
		}
		return setType(v, types.Bool)

	case token.AND, token.OR:
		if !isTruthy(a) || !isTruthy(b) {
			c.bag.Error(v.Pos, "'and'/'or' requires bool, integer, or reference operands, got %s and %s", a.String(), b.String())
		}
		return setType(v, types.Bool)
	}

	c.bag.Error(v.Pos, "unknown binary operator")
	return setType(v, unknown)
}

func isIntLikeLiteral(e ast.Expr) bool {
	switch e.(type) {
	case *ast.IntLit, *ast.CharLit:
		return true
	default:
		return false
	}
}

func isFloatLiteral(e ast.Expr) bool {
	_, ok := e.(*ast.FloatLit)
	return ok
}

func (c *Checker) checkMemberAccess(v *ast.MemberAccess) types.Type {
	if id, ok := v.Obj.(*ast.Ident); ok {
		if ei, ok := c.enums[id.Name]; ok {
			if _, ok := ei.Variants[v.Member]; !ok {
				c.bag.Error(v.Pos, "enum '%s' has no variant '%s'", id.Name, v.Member)
			}
			return setType(v, types.Enum{Name: id.Name})
		}
	}
	objTy := c.checkExpr(v.Obj, nil)
	switch t := objTy.(type) {
	case types.Interface:
		c.bag.Error(v.Pos, "cannot access fields on interface type '%s'", t.Name)
		return setType(v, unknown)
	case types.Struct:
		si, ok := c.structs[t.Name]
		if !ok {
			return setType(v, unknown)
		}
		ft, ok := si.Fields[v.Member]
		if !ok {
			c.bag.Error(v.Pos, "struct '%s' has no field '%s'", t.Name, v.Member)
			return setType(v, unknown)
		}
		return setType(v, ft)
	case types.Class:
		ci, ok := c.classes[t.Name]
		if !ok {
			return setType(v, unknown)
		}
		ft, ok := ci.Fields[v.Member]
		if !ok {
			c.bag.Error(v.Pos, "class '%s' has no field '%s'", t.Name, v.Member)
			return setType(v, unknown)
		}
		return setType(v, ft)
	default:
		if isUnknown(objTy) {
			return setType(v, unknown)
		}
		c.bag.Error(v.Pos, "member access on non-class type '%s'", objTy.String())
		return setType(v, unknown)
	}
}

func (c *Checker) checkIndex(v *ast.Index) types.Type {
	objTy := c.checkExpr(v.Obj, nil)
	idxTy := c.checkExpr(v.Idx, nil)
	switch t := objTy.(type) {
	case types.List:
		if !types.Equal(idxTy, types.I64) {
			c.bag.Error(v.Pos, "list index must be i64, got %s", idxTy.String())
		}
		return setType(v, t.Elem)
	case types.Dict:
		if !types.Equal(idxTy, t.Key) {
			c.bag.Error(v.Pos, "dict key must be %s, got %s", t.Key.String(), idxTy.String())
		}
		return setType(v, t.Val)
	case types.Str:
		if !types.Equal(idxTy, types.I64) {
			c.bag.Error(v.Pos, "string index must be i64, got %s", idxTy.String())
		}
		return setType(v, types.I64)
	default:
		if isUnknown(objTy) {
			return setType(v, unknown)
		}
		c.bag.Error(v.Pos, "type '%s' does not support subscript []", objTy.String())
		return setType(v, unknown)
	}
}

func (c *Checker) checkTupleExpr(v *ast.TupleExpr, target types.Type) types.Type {
	targetTuple, hasTarget := target.(types.Tuple)
	if hasTarget && len(targetTuple.Elems) != len(v.Elems) {
		c.bag.Error(v.Pos, "tuple has %d elements, target type expects %d", len(v.Elems), len(targetTuple.Elems))
		hasTarget = false
	}
	elems := make([]types.Type, len(v.Elems))
	for i, el := range v.Elems {
		var hint types.Type
		if hasTarget {
			hint = targetTuple.Elems[i]
		}
		et := c.checkExpr(el, hint)
		if hasTarget && !c.assignable(et, targetTuple.Elems[i]) {
			c.bag.Error(el.Position(), "tuple element %d has type %s, expected %s", i+1, et.String(), targetTuple.Elems[i].String())
		}
		elems[i] = et
	}
	if hasTarget {
		return setType(v, targetTuple)
	}
	return setType(v, types.Tuple{Elems: elems})
}

func (c *Checker) checkListLit(v *ast.ListLit) types.Type {
	elemTy, ok := c.resolveTypeName(v.ElemType.Name)
	if !ok {
		c.bag.Error(v.Pos, "unknown type parameter '%s' in List[%s]", v.ElemType.Name, v.ElemType.Name)
		elemTy = unknown
	}
	for i, el := range v.Elems {
		et := c.checkExpr(el, elemTy)
		if !c.assignable(et, elemTy) {
			c.bag.Error(el.Position(), "list literal element %d has type %s, expected %s", i+1, et.String(), elemTy.String())
		}
	}
	return setType(v, types.List{Elem: elemTy})
}

func (c *Checker) checkDictLit(v *ast.DictLit) types.Type {
	keyTy, kok := c.resolveTypeName(v.KeyType.Name)
	if !kok {
		c.bag.Error(v.Pos, "unknown key type '%s' in Dict[%s,%s]", v.KeyType.Name, v.KeyType.Name, v.ValType.Name)
		keyTy = unknown
	} else if !types.ValidDictKey(keyTy) {
		c.bag.Error(v.Pos, "type '%s' cannot be used as dict key (allowed: integers, str, bool, enums)", keyTy.String())
	}
	valTy, vok := c.resolveTypeName(v.ValType.Name)
	if !vok {
		c.bag.Error(v.Pos, "unknown value type '%s' in Dict[%s,%s]", v.ValType.Name, v.KeyType.Name, v.ValType.Name)
		valTy = unknown
	}
	for i, k := range v.Keys {
		kt := c.checkExpr(k, keyTy)
		if !types.Equal(kt, keyTy) {
			c.bag.Error(k.Position(), "dict literal key %d must be %s, got %s", i+1, keyTy.String(), kt.String())
		}
	}
	for i, val := range v.Vals {
		vt := c.checkExpr(val, valTy)
		if !c.assignable(vt, valTy) {
			c.bag.Error(val.Position(), "dict literal value %d has type %s, expected %s", i+1, vt.String(), valTy.String())
		}
	}
	return setType(v, types.Dict{Key: keyTy, Val: valTy})
}
