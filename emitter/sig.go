package emitter

import (
	"fmt"
	"strings"

	"github.com/bismut-lang/bismut/ast"
	"github.com/bismut-lang/bismut/types"
)

// findInitMethod returns the constructor method, if cd declares one.
func findInitMethod(methods []*ast.FuncDecl) *ast.FuncDecl {
	for _, m := range methods {
		if m.Name == "init" {
			return m
		}
	}
	return nil
}

// cParamList renders params (already excluding any receiver) as a comma
// joined "ctype name" C parameter list, or "" if there are none.
func (g *Generator) cParamList(params []ast.Param) string {
	if len(params) == 0 {
		return ""
	}
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = fmt.Sprintf("%s %s", ctype(g.reg.mustResolve(p.Ty)), ciName(p.Name))
	}
	return strings.Join(parts, ", ")
}

// cParamListOrVoid is cParamList but renders "void" for an empty parameter
// list, as a plain (non-method, non-constructor) C function needs.
func (g *Generator) cParamListOrVoid(params []ast.Param) string {
	s := g.cParamList(params)
	if s == "" {
		return "void"
	}
	return s
}

// emitDefaultReturn flushes pending releases, releases every local still in
// scope, and emits the return statement C falls into when a Bismut function
// body runs off its end (the checker already proved every code path that
// needs a value returns one; this is purely the fallthrough case).
func (g *Generator) emitDefaultReturn(ret types.Type, srcStr string) {
	g.flushPendingReleases(srcStr)
	g.releaseScopesDownTo(g.globalScopeDepth+1, srcStr)
	g.w(defaultReturnStmt(ret))
}

func defaultReturnStmt(ret types.Type) string {
	if _, ok := ret.(types.Primitive); ok && ret.(types.Primitive).Name == "void" {
		return "return;"
	}
	return "return " + zeroValue(ret) + ";"
}
