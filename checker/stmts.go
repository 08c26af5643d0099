package checker

import (
	"github.com/bismut-lang/bismut/ast"
	"github.com/bismut-lang/bismut/compiler"
	"github.com/bismut-lang/bismut/token"
	"github.com/bismut-lang/bismut/types"
)

func (c *Checker) checkStmt(s ast.Stmt) {
	switch v := s.(type) {
	case *ast.VarDecl:
		c.checkVarDecl(v)
	case *ast.Assign:
		c.checkAssign(v)
	case *ast.MemberAssign:
		c.checkMemberAssign(v)
	case *ast.IndexAssign:
		c.checkIndexAssign(v)
	case *ast.ExprStmt:
		c.checkExpr(v.Expr, nil)
	case *ast.Return:
		c.checkReturn(v)
	case *ast.Break:
		if c.loopDepth <= 0 {
			c.bag.Error(v.Pos, "break not inside loop")
		}
	case *ast.Continue:
		if c.loopDepth <= 0 {
			c.bag.Error(v.Pos, "continue not inside loop")
		}
	case *ast.While:
		c.checkWhile(v)
	case *ast.For:
		c.checkFor(v)
	case *ast.If:
		c.checkIf(v)
	case *ast.Block:
		c.pushScope(compiler.BlockScope)
		for _, st := range v.Stmts {
			c.checkStmt(st)
		}
		c.popScope()
	case *ast.TupleDestructure:
		c.checkTupleDestructure(v)
	default:
		c.bag.Error(s.Position(), "unhandled statement")
	}
}

func (c *Checker) checkVarDecl(v *ast.VarDecl) {
	var hint types.Type
	if v.Ty != nil {
		if t, ok := c.resolveTypeName(v.Ty.Name); ok {
			hint = t
		} else {
			c.bag.Error(v.Pos, "unknown type '%s'", v.Ty.Name)
		}
	}
	valTy := c.checkExpr(v.Value, hint)

	var declTy types.Type
	if v.Ty == nil {
		if _, isNone := valTy.(types.None); isNone {
			c.bag.Error(v.Pos, "cannot infer type from 'None' in := declaration")
			declTy = unknown
		} else if types.Equal(valTy, types.Void) {
			c.bag.Error(v.Pos, "cannot infer type from void expression in := declaration")
			declTy = unknown
		} else {
			declTy = valTy
		}
	} else {
		declTy, _ = c.resolveTypeName(v.Ty.Name)
		if declTy == nil {
			declTy = unknown
		}
		if !c.assignable(valTy, declTy) {
			c.bag.Error(v.Pos, "cannot assign value of type %s to variable '%s' of type %s", valTy.String(), v.Name, declTy.String())
		}
	}
	if v.IsStatic && c.curRet == nil {
		c.bag.Error(v.Pos, "'static' variables are only allowed inside functions")
	}
	c.declare(v.Pos, v.Name, declTy, v.IsConst)
}

func (c *Checker) checkAssign(v *ast.Assign) {
	vi, ok := c.lookup(v.Pos, v.Name)
	if !ok {
		c.checkExpr(v.Value, nil)
		return
	}
	if vi.Const {
		c.bag.Error(v.Pos, "cannot assign to constant '%s'", v.Name)
	}
	rhs := c.checkExpr(v.Value, vi.Ty)
	checkCompoundOp(c, v.Pos, v.Op, vi.Ty, rhs, v.Name)
}

// checkCompoundOp validates an assignment operator against the lvalue's
// type and the checked rhs type, shared by plain, member, and index
// assignment.
func checkCompoundOp(c *Checker, pos token.Position, op token.Type, lvTy, rhs types.Type, what string) {
	switch op {
	case token.ASSIGN:
		if !c.assignable(rhs, lvTy) {
			c.bag.Error(pos, "cannot assign %s to '%s' of type %s", rhs.String(), what, lvTy.String())
		}
	case token.PLUS_EQ:
		if _, isStr := lvTy.(types.Str); isStr {
			if _, rhsStr := rhs.(types.Str); !rhsStr {
				c.bag.Error(pos, "cannot apply '+=' with str and %s", rhs.String())
			}
			return
		}
		fallthrough
	case token.MINUS_EQ, token.STAR_EQ, token.SLASH_EQ, token.PERCENT_EQ:
		if !isNumeric(lvTy) {
			c.bag.Error(pos, "compound assignment only allowed on numeric types, got %s", lvTy.String())
		} else if !types.Equal(rhs, lvTy) {
			c.bag.Error(pos, "cannot apply compound assignment with %s and %s", lvTy.String(), rhs.String())
		}
	case token.AMP_EQ, token.PIPE_EQ, token.CARET_EQ, token.SHL_EQ, token.SHR_EQ:
		if !isIntLike(lvTy) {
			c.bag.Error(pos, "compound assignment only allowed on integer types, got %s", lvTy.String())
		} else if !types.Equal(rhs, lvTy) {
			c.bag.Error(pos, "cannot apply compound assignment with %s and %s", lvTy.String(), rhs.String())
		}
	default:
		c.bag.Error(pos, "unknown assignment operator")
	}
}

func (c *Checker) checkMemberAssign(v *ast.MemberAssign) {
	objTy := c.checkExpr(v.Obj, nil)
	switch t := objTy.(type) {
	case types.Interface:
		c.bag.Error(v.Pos, "cannot assign fields on interface type '%s'", t.Name)
		c.checkExpr(v.Value, nil)
	case types.Struct:
		si, ok := c.structs[t.Name]
		if !ok {
			c.checkExpr(v.Value, nil)
			return
		}
		ft, ok := si.Fields[v.Member]
		if !ok {
			c.bag.Error(v.Pos, "struct '%s' has no field '%s'", t.Name, v.Member)
			c.checkExpr(v.Value, nil)
			return
		}
		rhs := c.checkExpr(v.Value, ft)
		checkCompoundOp(c, v.Pos, v.Op, ft, rhs, "field '"+v.Member+"'")
	case types.Class:
		ci, ok := c.classes[t.Name]
		if !ok {
			c.checkExpr(v.Value, nil)
			return
		}
		ft, ok := ci.Fields[v.Member]
		if !ok {
			c.bag.Error(v.Pos, "class '%s' has no field '%s'", t.Name, v.Member)
			c.checkExpr(v.Value, nil)
			return
		}
		rhs := c.checkExpr(v.Value, ft)
		checkCompoundOp(c, v.Pos, v.Op, ft, rhs, "field '"+v.Member+"'")
	default:
		if !isUnknown(objTy) {
			c.bag.Error(v.Pos, "member assignment on non-class type '%s'", objTy.String())
		}
		c.checkExpr(v.Value, nil)
	}
}

func (c *Checker) checkIndexAssign(v *ast.IndexAssign) {
	objTy := c.checkExpr(v.Obj, nil)
	idxTy := c.checkExpr(v.Idx, nil)
	switch t := objTy.(type) {
	case types.List:
		if !types.Equal(idxTy, types.I64) {
			c.bag.Error(v.Pos, "list index must be i64, got %s", idxTy.String())
		}
		rhs := c.checkExpr(v.Value, t.Elem)
		if v.Op != token.ASSIGN {
			c.bag.Error(v.Pos, "only '=' assignment supported for list subscript")
			return
		}
		if !c.assignable(rhs, t.Elem) {
			c.bag.Error(v.Pos, "cannot assign %s to list element of type %s", rhs.String(), t.Elem.String())
		}
	case types.Dict:
		if !types.Equal(idxTy, t.Key) {
			c.bag.Error(v.Pos, "dict key must be %s, got %s", t.Key.String(), idxTy.String())
		}
		rhs := c.checkExpr(v.Value, t.Val)
		if v.Op != token.ASSIGN {
			c.bag.Error(v.Pos, "only '=' assignment supported for dict subscript")
			return
		}
		if !c.assignable(rhs, t.Val) {
			c.bag.Error(v.Pos, "cannot assign %s to dict value of type %s", rhs.String(), t.Val.String())
		}
	default:
		c.checkExpr(v.Value, nil)
		if !isUnknown(objTy) {
			c.bag.Error(v.Pos, "type '%s' does not support subscript assignment []", objTy.String())
		}
	}
}

func (c *Checker) checkReturn(v *ast.Return) {
	if c.curRet == nil {
		c.bag.Error(v.Pos, "return not allowed at top level")
		return
	}
	if v.Value == nil {
		if !types.Equal(c.curRet, types.Void) {
			c.bag.Error(v.Pos, "return requires a value of type %s", c.curRet.String())
		}
		return
	}
	if types.Equal(c.curRet, types.Void) {
		c.bag.Error(v.Pos, "void function must not return a value")
		return
	}
	vty := c.checkExpr(v.Value, c.curRet)
	if !c.assignable(vty, c.curRet) {
		c.bag.Error(v.Pos, "return type mismatch: expected %s, got %s", c.curRet.String(), vty.String())
	}
}

func (c *Checker) checkWhile(v *ast.While) {
	cty := c.checkExpr(v.Cond, nil)
	if !isTruthy(cty) {
		c.bag.Error(v.Pos, "while condition must be bool, integer, or reference type, got %s", cty.String())
	}
	c.loopDepth++
	c.pushScope(compiler.BlockScope)
	for _, st := range v.Body.Stmts {
		c.checkStmt(st)
	}
	c.popScope()
	c.loopDepth--
}

func (c *Checker) checkFor(v *ast.For) {
	varTy, ok := c.resolveTypeName(v.VarTy.Name)
	if !ok {
		c.bag.Error(v.Pos, "unknown type '%s'", v.VarTy.Name)
		varTy = unknown
	}
	iterTy := c.checkExpr(v.Iterable, nil)
	lt, isList := iterTy.(types.List)
	if !isList {
		if !isUnknown(iterTy) {
			c.bag.Error(v.Pos, "for-in requires a list type, got %s", iterTy.String())
		}
	} else if !types.Equal(varTy, lt.Elem) {
		c.bag.Error(v.Pos, "loop variable type '%s' does not match list element type '%s'", varTy.String(), lt.Elem.String())
	}
	c.loopDepth++
	c.pushScope(compiler.BlockScope)
	c.declare(v.Pos, v.VarName, varTy, false)
	for _, st := range v.Body.Stmts {
		c.checkStmt(st)
	}
	c.popScope()
	c.loopDepth--
}

func (c *Checker) checkIf(v *ast.If) {
	for _, arm := range v.Arms {
		if arm.Cond != nil {
			cty := c.checkExpr(arm.Cond, nil)
			if !isTruthy(cty) {
				c.bag.Error(arm.Pos, "if/elif condition must be bool, integer, or reference type, got %s", cty.String())
			}
		}
		c.pushScope(compiler.BlockScope)
		for _, st := range arm.Block.Stmts {
			c.checkStmt(st)
		}
		c.popScope()
	}
}

func (c *Checker) checkTupleDestructure(v *ast.TupleDestructure) {
	valTy := c.checkExpr(v.Value, nil)
	tup, ok := valTy.(types.Tuple)
	if !ok {
		if !isUnknown(valTy) {
			c.bag.Error(v.Pos, "cannot destructure non-tuple type '%s'", valTy.String())
		}
		for _, name := range v.Names {
			c.declare(v.Pos, name, unknown, false)
		}
		return
	}
	if len(tup.Elems) != len(v.Names) {
		c.bag.Error(v.Pos, "tuple has %d elements, but %d names given", len(tup.Elems), len(v.Names))
	}
	for i, name := range v.Names {
		var ety types.Type = unknown
		if i < len(tup.Elems) {
			ety = tup.Elems[i]
		}
		c.declare(v.Pos, name, ety, false)
	}
}
