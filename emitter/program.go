package emitter

import (
	"fmt"

	"github.com/bismut-lang/bismut/ast"
	"github.com/bismut-lang/bismut/token"
	"github.com/bismut-lang/bismut/types"
)

// globalVarType resolves a top-level VarDecl's type without emitting its
// initializer expression: either its explicit annotation or the type the
// checker already stamped on its Value node.
func (g *Generator) globalVarType(st *ast.VarDecl) types.Type {
	if st.Ty != nil {
		return g.reg.mustResolve(*st.Ty)
	}
	if t, ok := st.Value.(ast.Typed); ok {
		return t.Type()
	}
	return types.Void
}

func (g *Generator) isExternConstDecl(st *ast.VarDecl) bool {
	_, ok := g.reg.externConstant(st.Name)
	return ok
}

// declareGlobalVars emits the file-scope zero-initialized declaration for
// every top-level variable, skipping names bound by an `extern const`
// (its value is substituted textually at every use, never stored).
// Pushes the persistent global scope that the rest of generation runs
// against.
func (g *Generator) declareGlobalVars() error {
	g.pushScope()
	g.globalScopeDepth = 0
	for _, s := range g.prog.Stmts {
		vd, ok := s.(*ast.VarDecl)
		if !ok {
			continue
		}
		if g.isExternConstDecl(vd) {
			continue
		}
		ty := g.globalVarType(vd)
		vi := g.declareVar(vd.Name, ty, false)
		g.w(fmt.Sprintf("static %s %s;", ctype(ty), vi.cName))
	}
	g.w("")
	return nil
}

// emitInitGlobals emits `init_globals()`: it assigns every interned string
// literal's immortal Str, then every top-level variable's initializer, in
// source order.
func (g *Generator) emitInitGlobals() error {
	g.w("static void init_globals(void) {")
	g.ind++

	for _, raw := range g.internOrder {
		sym := g.internedStrings[raw]
		bytes, err := unescapeBismutString(raw)
		if err != nil {
			return err
		}
		g.w(fmt.Sprintf("%s = %sstr_new_lit(%s, %d);", sym, RTPrefix, cEscapeBytes(bytes), len(bytes)))
	}

	for _, s := range g.prog.Stmts {
		vd, ok := s.(*ast.VarDecl)
		if !ok {
			continue
		}
		if g.isExternConstDecl(vd) {
			continue
		}
		srcStr := src(vd.Position())
		vi, ok := g.lookupVar(vd.Name)
		if !ok {
			return fmt.Errorf("emitter: internal error: undeclared global %q", vd.Name)
		}
		exprC, exprTy, err := g.emitExpr(vd.Value)
		if err != nil {
			return err
		}
		exprC = g.maybeWrapIface(exprC, exprTy, vi.ty)
		g.w(fmt.Sprintf("%s = %s;", vi.cName, exprC))
		if isRefType(vi.ty) && exprIsBorrowed(vd.Value) {
			g.emitRetainValue(vi.ty, vi.cName, srcStr)
		}
		g.flushPendingReleases(srcStr)
	}

	g.ind--
	g.w("}")
	g.w("")
	return nil
}

// emitProgramBody emits the user's top-level statement chain as a single
// function, run after init_globals and before exit_globals. Top-level
// variable declarations are skipped here; they were already lifted into
// init_globals.
func (g *Generator) emitProgramBody() error {
	g.w("static void program_body(void) {")
	g.ind++
	g.curFnRet = types.Void
	for _, s := range g.prog.Stmts {
		if _, ok := s.(*ast.VarDecl); ok {
			continue
		}
		if err := g.emitStmt(s); err != nil {
			return err
		}
	}
	g.curFnRet = nil
	g.ind--
	g.w("}")
	g.w("")
	return nil
}

// emitExitGlobals emits `exit_globals()`: it releases every reference-kind
// top-level variable in reverse declaration order, then -- in debug builds
// -- the runtime's leak report.
func (g *Generator) emitExitGlobals() {
	g.w("static void exit_globals(void) {")
	g.ind++
	srcStr := src(token.Position{File: "<exit_globals>"})
	globals := g.scopes[g.globalScopeDepth]
	for i := len(globals.order) - 1; i >= 0; i-- {
		v := globals.order[i]
		if !isRefType(v.ty) {
			continue
		}
		g.emitRelease(v, srcStr)
	}
	if g.debugLeaks {
		g.w(RTPrefix + "debug_report_leaks();")
	}
	g.ind--
	g.w("}")
	g.w("")
}

// emitMain emits the translation unit's entry point: it records argc/argv
// for the `os` extern, then runs init_globals, the program body, and
// exit_globals in order.
func (g *Generator) emitMain() {
	g.w("int main(int argc, char** argv) {")
	g.ind++
	g.w(RTPrefix + "argc = argc;")
	g.w(RTPrefix + "argv = argv;")
	g.w("init_globals();")
	g.w("program_body();")
	g.w("exit_globals();")
	g.w("return 0;")
	g.ind--
	g.w("}")
}
