package emitter

import (
	"fmt"
	"strings"

	"github.com/bismut-lang/bismut/ast"
)

// fnProto renders a plain function's C prototype (no trailing semicolon).
func (g *Generator) fnProto(fd *ast.FuncDecl) string {
	retT := g.reg.mustResolve(fd.Ret)
	return fmt.Sprintf("static %s Fn_%s(%s)", ctype(retT), fd.Name, g.cParamListOrVoid(fd.Params))
}

// emitFuncPrototypes forward-declares every non-generic function ahead of
// the bodies. Extern-bound functions get the identical
// prototype (their body is a thin wrapper, emitted later at the same point
// as user bodies).
func (g *Generator) emitFuncPrototypes() {
	for _, fd := range g.prog.Funcs {
		if fd.IsGeneric() {
			continue
		}
		g.w(g.fnProto(fd) + ";")
	}
	g.w("")
}

// emitFunction emits one function's body (or its extern wrapper, if
// ExternCName is set).
func (g *Generator) emitFunction(fd *ast.FuncDecl) error {
	if fd.ExternCName != "" {
		return g.emitExternWrapper(fd)
	}

	retT := g.reg.mustResolve(fd.Ret)
	g.w(g.fnProto(fd) + " {")
	g.ind++
	g.pushScope()
	g.curFnRet = retT
	for _, p := range fd.Params {
		g.bindParam(p.Name, g.reg.mustResolve(p.Ty), ciName(p.Name))
	}
	for _, st := range fd.Body.Stmts {
		if err := g.emitStmt(st); err != nil {
			return err
		}
	}
	g.emitDefaultReturn(retT, src(fd.Position()))
	g.curFnRet = nil
	g.popScope()
	g.ind--
	g.w("}")
	return nil
}

// emitExternWrapper emits a thin wrapper calling the bound C function,
// unwrapping any extern-opaque-typed parameter via its ->ptr field and
// wrapping an extern-opaque-typed return via that type's _wrap
// constructor.
func (g *Generator) emitExternWrapper(fd *ast.FuncDecl) error {
	g.w(g.fnProto(fd) + " {")
	g.ind++

	args := make([]string, len(fd.Params))
	for i, p := range fd.Params {
		if _, ok := g.reg.isExternType(p.Ty.Name); ok {
			args[i] = ciName(p.Name) + "->ptr"
		} else {
			args[i] = ciName(p.Name)
		}
	}
	argsStr := strings.Join(args, ", ")

	retT := g.reg.mustResolve(fd.Ret)
	if isVoidType(retT) {
		g.w(fmt.Sprintf("%s(%s);", fd.ExternCName, argsStr))
	} else if binding, ok := g.reg.isExternType(fd.Ret.Name); ok {
		_ = binding
		g.w(fmt.Sprintf("return Class_%s_wrap(%s(%s));", fd.Ret.Name, fd.ExternCName, argsStr))
	} else {
		g.w(fmt.Sprintf("return %s(%s);", fd.ExternCName, argsStr))
	}

	g.ind--
	g.w("}")
	return nil
}
