package emitter

import (
	"github.com/bismut-lang/bismut/ast"
	"github.com/bismut-lang/bismut/types"
)

// exprIsBorrowed reports whether evaluating e yields a borrowed reference
// (one that does not own a fresh retain and therefore must be retained
// before being stored somewhere longer-lived) rather than an owned,
// freshly-produced reference (one that already holds its own retain and
// must eventually be released by whoever consumes it).
func exprIsBorrowed(e ast.Expr) bool {
	switch v := e.(type) {
	case *ast.NoneLit:
		return true
	case *ast.StringLit:
		return true
	case *ast.MemberAccess:
		return true
	case *ast.Index:
		return true
	case *ast.As:
		return true
	case *ast.TupleExpr:
		return false
	case *ast.Call:
		if id, ok := v.Callee.(*ast.Ident); ok && (id.Name == "get" || id.Name == "lookup") {
			return true
		}
		return false
	case *ast.Ident:
		return true
	default:
		return false
	}
}

// emitRelease emits a release call for one reference-kind local or global,
// dispatching by Bismut type kind.
func (g *Generator) emitRelease(v varInfo, src string) {
	g.emitReleaseExpr(v.ty, v.cName, src)
}

func (g *Generator) emitReleaseExpr(t types.Type, cExpr, src string) {
	switch v := t.(type) {
	case types.Str:
		g.w("if (" + cExpr + ") " + RTPrefix + "str_release(" + cExpr + ");")
	case types.List:
		g.w("if (" + cExpr + ") " + "List_" + tag(v.Elem) + "_release(" + cExpr + ");")
	case types.Dict:
		g.w("if (" + cExpr + ") " + "Dict_" + tag(v.Key) + "_" + tag(v.Val) + "_release(" + cExpr + ");")
	case types.Class:
		g.w("if (" + cExpr + ") Class_" + v.Name + "_release(" + cExpr + ");")
	case types.ExternOpaque:
		g.w("if (" + cExpr + ") Class_" + v.Lib + "_" + v.Name + "_release(" + cExpr + ");")
	case types.Interface:
		g.w("if (" + cExpr + ".obj) " + cExpr + ".vtbl->release(" + cExpr + ".obj);")
	case types.Tuple:
		for i, et := range v.Elems {
			if isRefType(et) {
				g.emitReleaseExpr(et, fmtField(cExpr, i), src)
			}
		}
	default:
		// value-kind, or None -- nothing to release.
	}
}

func fmtField(base string, i int) string {
	return base + ".f" + itoaSmall(i)
}

func itoaSmall(i int) string {
	if i < 10 {
		return string(rune('0' + i))
	}
	// tuples beyond 10 elements are not realistic for this language, but
	// fall back correctly anyway.
	digits := []byte{}
	for i > 0 {
		digits = append([]byte{byte('0' + i%10)}, digits...)
		i /= 10
	}
	return string(digits)
}

// emitRetainValue emits a retain call for a reference-kind value already
// stored at cExpr.
func (g *Generator) emitRetainValue(t types.Type, cExpr, src string) {
	switch v := t.(type) {
	case types.Str:
		g.w(RTPrefix + "str_retain(" + cExpr + ");")
	case types.List:
		g.w("List_" + tag(v.Elem) + "_retain(" + cExpr + ");")
	case types.Dict:
		g.w("Dict_" + tag(v.Key) + "_" + tag(v.Val) + "_retain(" + cExpr + ");")
	case types.Class:
		g.w("Class_" + v.Name + "_retain(" + cExpr + ");")
	case types.ExternOpaque:
		g.w("Class_" + v.Lib + "_" + v.Name + "_retain(" + cExpr + ");")
	case types.Interface:
		g.w("if (" + cExpr + ".obj) " + cExpr + ".vtbl->retain(" + cExpr + ".obj);")
	case types.Tuple:
		for i, et := range v.Elems {
			if isRefType(et) {
				g.emitRetainValue(et, fmtField(cExpr, i), src)
			}
		}
	default:
	}
}

// flushPendingReleases emits a release for every temporary queued by
// emitArgSafe since the last flush, then clears the queue. Called at the
// end of every statement so owned intermediates never outlive their use.
func (g *Generator) flushPendingReleases(src string) {
	for _, v := range g.pendingReleases {
		g.emitRelease(v, src)
	}
	g.pendingReleases = nil
}

// emitArgSafe emits e's code, and if e produces an owned (non-borrowed)
// reference-kind value, materializes it into a tracked temporary so it is
// released once the enclosing statement completes, even if nothing else
// references it (e.g. a discarded constructor call used only to read one
// field).
func (g *Generator) emitArgSafe(e ast.Expr) (string, types.Type, error) {
	c, ty, err := g.emitExpr(e)
	if err != nil {
		return "", nil, err
	}
	if isRefType(ty) && !exprIsBorrowed(e) {
		tmp := g.newTmp()
		g.w(ctype(ty) + " " + tmp + " = " + c + ";")
		g.pendingReleases = append(g.pendingReleases, varInfo{cName: tmp, ty: ty})
		return tmp, ty, nil
	}
	return c, ty, nil
}
