package emitter

import (
	"fmt"

	"github.com/bismut-lang/bismut/ast"
	"github.com/bismut-lang/bismut/token"
	"github.com/bismut-lang/bismut/types"
)

var compoundOps = map[token.Type]string{
	token.PLUS_EQ:   "+=",
	token.MINUS_EQ:  "-=",
	token.STAR_EQ:   "*=",
	token.SLASH_EQ:  "/=",
	token.PERCENT_EQ: "%=",
	token.AMP_EQ:    "&=",
	token.PIPE_EQ:   "|=",
	token.CARET_EQ:  "^=",
	token.SHL_EQ:    "<<=",
	token.SHR_EQ:    ">>=",
}

// maybeWrapIface wraps a class-typed expression into an interface's fat
// pointer {obj,vtbl} when assigned/returned/passed where dst expects that
// interface, and turns a None literal's NULL into the empty fat pointer
// too.
func (g *Generator) maybeWrapIface(cExpr string, srcTy, dstTy types.Type) string {
	iface, dstIsIface := dstTy.(types.Interface)
	if !dstIsIface {
		return cExpr
	}
	if cls, ok := srcTy.(types.Class); ok {
		return fmt.Sprintf("(Iface_%s){.obj = %s, .vtbl = &Vtbl_%s_as_%s}", iface.Name, cExpr, cls.Name, iface.Name)
	}
	if _, ok := srcTy.(types.None); ok {
		return fmt.Sprintf("(Iface_%s){.obj = NULL, .vtbl = NULL}", iface.Name)
	}
	return cExpr
}

func (g *Generator) classFieldType(className, fieldName string) (types.Type, bool) {
	cd, ok := g.reg.classes[className]
	if !ok {
		return nil, false
	}
	for _, fd := range cd.Fields {
		if fd.Name == fieldName {
			return g.reg.mustResolve(fd.Ty), true
		}
	}
	return nil, false
}

// emitStmt emits one statement, mirroring `_emit_stmt`'s dispatch.
func (g *Generator) emitStmt(s ast.Stmt) error {
	switch st := s.(type) {
	case *ast.VarDecl:
		return g.emitVarDecl(st)
	case *ast.TupleDestructure:
		return g.emitTupleDestructure(st)
	case *ast.Assign:
		return g.emitAssign(st)
	case *ast.MemberAssign:
		return g.emitMemberAssign(st)
	case *ast.IndexAssign:
		return g.emitIndexAssign(st)
	case *ast.ExprStmt:
		return g.emitExprStmt(st)
	case *ast.Return:
		return g.emitReturn(st)
	case *ast.Break:
		srcStr := src(st.Position())
		g.releaseScopesDownTo(g.currentLoopFloor(), srcStr)
		g.w("break;")
		return nil
	case *ast.Continue:
		srcStr := src(st.Position())
		g.releaseScopesDownTo(g.currentLoopFloor(), srcStr)
		g.w("continue;")
		return nil
	case *ast.While:
		return g.emitWhile(st)
	case *ast.For:
		return g.emitFor(st)
	case *ast.If:
		return g.emitIf(st)
	case *ast.Block:
		return g.emitBlockStmt(st)
	}
	return fmt.Errorf("emitter: unhandled statement %T", s)
}

func (g *Generator) emitVarDecl(st *ast.VarDecl) error {
	var ty types.Type
	if st.Ty != nil {
		ty = g.reg.mustResolve(*st.Ty)
	}
	srcStr := src(st.Position())
	exprC, exprTy, err := g.emitExpr(st.Value)
	if err != nil {
		return err
	}
	if ty == nil {
		ty = exprTy
	}
	exprC = g.maybeWrapIface(exprC, exprTy, ty)
	vi := g.declareVar(st.Name, ty, st.IsStatic)

	if st.IsStatic {
		guard := "_init_" + vi.cName
		g.w(fmt.Sprintf("static int %s = 0;", guard))
		g.w(fmt.Sprintf("static %s %s;", ctype(ty), vi.cName))
		g.w(fmt.Sprintf("if (!%s) {", guard))
		g.ind++
		g.w(guard + " = 1;")
		g.w(fmt.Sprintf("%s = %s;", vi.cName, exprC))
		if isRefType(ty) && exprIsBorrowed(st.Value) {
			g.emitRetainValue(ty, vi.cName, srcStr)
		}
		g.ind--
		g.w("}")
	} else {
		g.w(fmt.Sprintf("%s %s = %s;", ctype(ty), vi.cName, exprC))
		if isRefType(ty) && exprIsBorrowed(st.Value) {
			g.emitRetainValue(ty, vi.cName, srcStr)
		}
	}
	g.flushPendingReleases(srcStr)
	return nil
}

func (g *Generator) emitTupleDestructure(st *ast.TupleDestructure) error {
	srcStr := src(st.Position())
	exprC, exprTy, err := g.emitExpr(st.Value)
	if err != nil {
		return err
	}
	tup, ok := exprTy.(types.Tuple)
	if !ok {
		return fmt.Errorf("emitter: tuple destructure of non-tuple type %s", exprTy)
	}
	tmp := g.newTmp()
	g.w(fmt.Sprintf("%s %s = %s;", ctype(tup), tmp, exprC))
	borrowed := exprIsBorrowed(st.Value)
	for i, name := range st.Names {
		et := tup.Elems[i]
		vi := g.declareVar(name, et, false)
		g.w(fmt.Sprintf("%s %s = %s.f%d;", ctype(et), vi.cName, tmp, i))
		if isRefType(et) && borrowed {
			g.emitRetainValue(et, vi.cName, srcStr)
		}
	}
	g.flushPendingReleases(srcStr)
	return nil
}

func (g *Generator) emitAssign(st *ast.Assign) error {
	vi, ok := g.lookupVar(st.Name)
	if !ok {
		return fmt.Errorf("emitter: undefined variable %q", st.Name)
	}
	srcStr := src(st.Position())
	exprC, exprTy, err := g.emitExpr(st.Value)
	if err != nil {
		return err
	}

	if st.Op == token.ASSIGN {
		if isRefType(vi.ty) {
			exprC = g.maybeWrapIface(exprC, exprTy, vi.ty)
			tmp := g.newTmp()
			g.w(fmt.Sprintf("%s %s = %s;", ctype(vi.ty), tmp, exprC))
			if exprIsBorrowed(st.Value) {
				g.emitRetainValue(vi.ty, tmp, srcStr)
			}
			g.emitRelease(vi, srcStr)
			g.w(fmt.Sprintf("%s = %s;", vi.cName, tmp))
			g.flushPendingReleases(srcStr)
			return nil
		}
		g.w(fmt.Sprintf("%s = %s;", vi.cName, exprC))
		g.flushPendingReleases(srcStr)
		return nil
	}

	op, ok := compoundOps[st.Op]
	if !ok {
		return fmt.Errorf("emitter: unsupported assignment operator %v", st.Op)
	}
	if op == "+=" {
		if _, isStr := vi.ty.(types.Str); isStr {
			tmp := g.newTmp()
			g.w(fmt.Sprintf("%s* %s = %sstr_concat(%s, %s, %s);", ctype(vi.ty)[:len(ctype(vi.ty))-1], tmp, RTPrefix, srcStr, vi.cName, exprC))
			g.w(fmt.Sprintf("%sstr_release(%s);", RTPrefix, vi.cName))
			if !exprIsBorrowed(st.Value) {
				g.w(fmt.Sprintf("%sstr_release(%s);", RTPrefix, exprC))
			}
			g.w(fmt.Sprintf("%s = %s;", vi.cName, tmp))
			return nil
		}
	}
	g.w(fmt.Sprintf("%s %s %s;", vi.cName, op, exprC))
	return nil
}

func (g *Generator) emitMemberAssign(st *ast.MemberAssign) error {
	srcStr := src(st.Position())
	objC, objTy, err := g.emitExpr(st.Obj)
	if err != nil {
		return err
	}
	exprC, exprTy, err := g.emitExpr(st.Value)
	if err != nil {
		return err
	}

	if _, ok := objTy.(types.Struct); ok {
		fieldC := fmt.Sprintf("%s.%s", objC, ciName(st.Member))
		if st.Op == token.ASSIGN {
			g.w(fmt.Sprintf("%s = %s;", fieldC, exprC))
		} else if op, ok := compoundOps[st.Op]; ok {
			g.w(fmt.Sprintf("%s %s %s;", fieldC, op, exprC))
		}
		g.flushPendingReleases(srcStr)
		return nil
	}

	cls, isClass := objTy.(types.Class)
	if isClass {
		g.w(fmt.Sprintf("%snull_check(%s, %s);", RTPrefix, objC, srcStr))
	}
	fieldC := fmt.Sprintf("%s->%s", objC, ciName(st.Member))

	var fieldTy types.Type
	if isClass {
		fieldTy, _ = g.classFieldType(cls.Name, st.Member)
	}
	if fieldTy == nil {
		fieldTy = exprTy
	}

	if st.Op == token.ASSIGN {
		exprC = g.maybeWrapIface(exprC, exprTy, fieldTy)
		if isRefType(fieldTy) {
			tmp := g.newTmp()
			g.w(fmt.Sprintf("%s %s = %s;", ctype(fieldTy), tmp, exprC))
			if exprIsBorrowed(st.Value) {
				g.emitRetainValue(fieldTy, tmp, srcStr)
			}
			g.emitReleaseExpr(fieldTy, fieldC, srcStr)
			g.w(fmt.Sprintf("%s = %s;", fieldC, tmp))
		} else {
			g.w(fmt.Sprintf("%s = %s;", fieldC, exprC))
		}
	} else if op, ok := compoundOps[st.Op]; ok {
		g.w(fmt.Sprintf("%s %s %s;", fieldC, op, exprC))
	}
	g.flushPendingReleases(srcStr)
	return nil
}

func (g *Generator) emitIndexAssign(st *ast.IndexAssign) error {
	srcStr := src(st.Position())
	objC, objTy, err := g.emitExpr(st.Obj)
	if err != nil {
		return err
	}
	idxC, _, err := g.emitArgSafe(st.Idx)
	if err != nil {
		return err
	}
	valC, valTy, err := g.emitArgSafe(st.Value)
	if err != nil {
		return err
	}

	switch ot := objTy.(type) {
	case types.List:
		valC = g.maybeWrapIface(valC, valTy, ot.Elem)
		g.w(fmt.Sprintf("List_%s_set(%s, %s, %s, %s);", tag(ot.Elem), srcStr, objC, idxC, valC))
	case types.Dict:
		valC = g.maybeWrapIface(valC, valTy, ot.Val)
		g.w(fmt.Sprintf("Dict_%s_%s_set(%s, %s, %s, %s);", tag(ot.Key), tag(ot.Val), srcStr, objC, idxC, valC))
	default:
		return fmt.Errorf("emitter: subscript assignment not supported on type %s", objTy)
	}
	g.flushPendingReleases(srcStr)
	return nil
}

func (g *Generator) emitExprStmt(st *ast.ExprStmt) error {
	srcStr := src(st.Position())
	exprC, exprTy, err := g.emitExpr(st.Expr)
	if err != nil {
		return err
	}
	if isVoidType(exprTy) {
		g.w(exprC + ";")
	} else if isRefType(exprTy) && !exprIsBorrowed(st.Expr) {
		tmp := g.newTmp()
		g.w(fmt.Sprintf("%s %s = %s;", ctype(exprTy), tmp, exprC))
		g.emitRelease(varInfo{cName: tmp, ty: exprTy}, srcStr)
	} else {
		g.w(fmt.Sprintf("(void)(%s);", exprC))
	}
	g.flushPendingReleases(srcStr)
	return nil
}

func (g *Generator) emitReturn(st *ast.Return) error {
	srcStr := src(st.Position())
	if st.Value == nil {
		g.flushPendingReleases(srcStr)
		g.releaseScopesDownTo(g.globalScopeDepth+1, srcStr)
		g.w(defaultReturnStmt(g.curFnRet))
		return nil
	}
	exprC, exprTy, err := g.emitExpr(st.Value)
	if err != nil {
		return err
	}
	retTy := g.curFnRet
	wrappedC := g.maybeWrapIface(exprC, exprTy, retTy)
	actualTy := exprTy
	if _, isIface := retTy.(types.Interface); isIface {
		if _, isClass := exprTy.(types.Class); isClass {
			actualTy = retTy
		}
	}
	if _, isNone := actualTy.(types.None); isNone {
		actualTy = retTy
	}
	retTmp := g.newTmp()
	g.w(fmt.Sprintf("%s %s = %s;", ctype(actualTy), retTmp, wrappedC))
	if isRefType(actualTy) && exprIsBorrowed(st.Value) {
		g.emitRetainValue(actualTy, retTmp, srcStr)
	}
	g.flushPendingReleases(srcStr)
	g.releaseScopesDownTo(g.globalScopeDepth+1, srcStr)
	g.w("return " + retTmp + ";")
	return nil
}

func (g *Generator) emitWhile(st *ast.While) error {
	srcStr := src(st.Position())
	g.w("while (1) {")
	g.ind++
	condC, _, err := g.emitExpr(st.Cond)
	if err != nil {
		return err
	}
	if len(g.pendingReleases) > 0 {
		tmp := g.newTmp()
		g.w(fmt.Sprintf("bool %s = %s;", tmp, condC))
		condC = tmp
	}
	g.flushPendingReleases(srcStr)
	g.w(fmt.Sprintf("if (!(%s)) break;", condC))

	g.pushLoopScope()
	g.pushScope()
	for _, s2 := range st.Body.Stmts {
		if err := g.emitStmt(s2); err != nil {
			return err
		}
	}
	g.releaseScope(g.scopes[len(g.scopes)-1], srcStr)
	g.popScope()
	g.popLoopScope()
	g.ind--
	g.w("}")
	return nil
}

func (g *Generator) emitFor(st *ast.For) error {
	srcStr := src(st.Position())
	iterC, iterTy, err := g.emitExpr(st.Iterable)
	if err != nil {
		return err
	}
	lt, ok := iterTy.(types.List)
	if !ok {
		return fmt.Errorf("emitter: for-in requires a list, got %s", iterTy)
	}
	elemTy := lt.Elem
	elemTag := tag(elemTy)

	iterTmp := g.newTmp()
	idxTmp := g.newTmp()
	g.w(fmt.Sprintf("List_%s* %s = %s;", elemTag, iterTmp, iterC))

	g.pushLoopScope()
	g.pushScope()
	vi := g.declareVar(st.VarName, elemTy, false)
	g.w(fmt.Sprintf("for (int64_t %s = 0; %s < (int64_t)%s->len; %s++) {", idxTmp, idxTmp, iterTmp, idxTmp))
	g.ind++
	g.w(fmt.Sprintf("%s %s = %s->data[(uint32_t)%s];", ctype(elemTy), vi.cName, iterTmp, idxTmp))
	if isRefType(elemTy) {
		g.emitRetainValue(elemTy, vi.cName, srcStr)
	}
	g.pushScope()
	for _, s2 := range st.Body.Stmts {
		if err := g.emitStmt(s2); err != nil {
			return err
		}
	}
	g.releaseScope(g.scopes[len(g.scopes)-1], srcStr)
	g.popScope()
	if isRefType(elemTy) {
		g.emitRelease(vi, srcStr)
	}
	g.ind--
	g.w("}")
	if !exprIsBorrowed(st.Iterable) {
		g.emitRelease(varInfo{cName: iterTmp, ty: iterTy}, srcStr)
	}
	g.flushPendingReleases(srcStr)
	g.popLoopScope()
	g.popScope()
	return nil
}

func (g *Generator) emitIf(st *ast.If) error {
	srcStr := src(st.Position())
	first := true
	elifDepth := 0
	for _, arm := range st.Arms {
		if arm.Cond == nil {
			g.w("else {")
		} else {
			condC, _, err := g.emitExpr(arm.Cond)
			if err != nil {
				return err
			}
			if !first {
				g.w("else {")
				g.ind++
				elifDepth++
			}
			if len(g.pendingReleases) > 0 {
				tmp := g.newTmp()
				g.w(fmt.Sprintf("bool %s = %s;", tmp, condC))
				condC = tmp
			}
			g.flushPendingReleases(srcStr)
			g.w(fmt.Sprintf("if (%s) {", condC))
			first = false
		}
		g.ind++
		g.pushScope()
		for _, s2 := range arm.Block.Stmts {
			if err := g.emitStmt(s2); err != nil {
				return err
			}
		}
		g.releaseScope(g.scopes[len(g.scopes)-1], srcStr)
		g.popScope()
		g.ind--
		g.w("}")
	}
	for i := 0; i < elifDepth; i++ {
		g.ind--
		g.w("}")
	}
	return nil
}

func (g *Generator) emitBlockStmt(st *ast.Block) error {
	srcStr := src(st.Position())
	g.w("{")
	g.ind++
	g.pushScope()
	for _, s2 := range st.Stmts {
		if err := g.emitStmt(s2); err != nil {
			return err
		}
	}
	g.releaseScope(g.scopes[len(g.scopes)-1], srcStr)
	g.popScope()
	g.ind--
	g.w("}")
	return nil
}
