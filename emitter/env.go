package emitter

import (
	"strconv"

	"github.com/bismut-lang/bismut/types"
)

// varInfo records one local (or global) variable's C name, Bismut type and
// static-ness.
type varInfo struct {
	cName    string
	ty       types.Type
	isStatic bool
}

// scope is one lexical block's locals in declaration order, needed
// because scope-exit release walks reference-kind locals in reverse
// declaration order.
type scope struct {
	vars  map[string]varInfo
	order []varInfo
}

func newScope() *scope {
	return &scope{vars: map[string]varInfo{}}
}

func (g *Generator) pushScope() {
	g.scopes = append(g.scopes, newScope())
}

func (g *Generator) popScope() {
	g.scopes = g.scopes[:len(g.scopes)-1]
}

// declareVar registers name in the innermost scope with a fresh, unique C
// name (so that Bismut's block-scoped shadowing never collides with a C
// variable in an outer block), and returns it.
func (g *Generator) declareVar(name string, ty types.Type, isStatic bool) varInfo {
	g.tmp++
	vi := varInfo{cName: ciName(name) + strconv.Itoa(g.tmp), ty: ty, isStatic: isStatic}
	cur := g.scopes[len(g.scopes)-1]
	cur.vars[name] = vi
	cur.order = append(cur.order, vi)
	return vi
}

// bindParam registers name in the innermost scope under the given fixed C
// name without adding it to the scope's release order: parameters (and
// "self") are borrowed from the caller, so the callee never releases them
// at scope exit.
func (g *Generator) bindParam(name string, ty types.Type, cName string) varInfo {
	vi := varInfo{cName: cName, ty: ty}
	g.scopes[len(g.scopes)-1].vars[name] = vi
	return vi
}

// lookupVar searches from the innermost scope outward, matching Bismut's
// lexical block scoping (no function-boundary stop is needed here since
// the emitter only ever walks one function body at a time and globals
// live in scopes[0]).
func (g *Generator) lookupVar(name string) (varInfo, bool) {
	for i := len(g.scopes) - 1; i >= 0; i-- {
		if vi, ok := g.scopes[i].vars[name]; ok {
			return vi, true
		}
	}
	return varInfo{}, false
}

// releaseScope emits release calls for every reference-kind, non-static
// local declared in scope, in reverse declaration order.
func (g *Generator) releaseScope(s *scope, src string) {
	for i := len(s.order) - 1; i >= 0; i-- {
		v := s.order[i]
		if v.isStatic || !isRefType(v.ty) {
			continue
		}
		g.emitRelease(v, src)
	}
}

// pushLoopScope/popLoopScope track the scope-stack depth at each active
// loop's entry, so break/continue inside a nested loop releases down to the
// innermost loop boundary, not the outermost.
func (g *Generator) pushLoopScope() {
	g.loopScopeDepths = append(g.loopScopeDepths, len(g.scopes))
}

func (g *Generator) popLoopScope() {
	g.loopScopeDepths = g.loopScopeDepths[:len(g.loopScopeDepths)-1]
}

func (g *Generator) currentLoopFloor() int {
	return g.loopScopeDepths[len(g.loopScopeDepths)-1]
}

// releaseScopesDownTo releases every scope from the innermost down to (but
// not including) floor, in reverse order -- used for function returns
// (floor = globalScopeDepth+1, since scopes[0] holds globals) and for
// break/continue (floor = loopScopeDepth).
func (g *Generator) releaseScopesDownTo(floor int, src string) {
	for i := len(g.scopes) - 1; i >= floor; i-- {
		g.releaseScope(g.scopes[i], src)
	}
}
