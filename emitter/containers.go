package emitter

import (
	"fmt"
	"strings"

	"github.com/bismut-lang/bismut/ast"
	"github.com/bismut-lang/bismut/types"
)

// ---- type-use collection ----

// collectTypeUses walks every type-bearing site in the program -- function
// signatures, class/struct fields, interface method signatures, every
// checked expression's resolved type, and every declared-type annotation --
// registering each List/Dict/Tuple/FnPtr type it finds so the corresponding
// C container is instantiated exactly once, ahead of anything that uses it.
// Every node here already carries a resolved types.Type (via ast.Typed)
// rather than a surface type-name string that would need re-parsing.
func (g *Generator) collectTypeUses() {
	for _, fd := range g.prog.Funcs {
		if fd.IsGeneric() {
			continue
		}
		g.registerType(g.reg.mustResolve(fd.Ret))
		for _, p := range fd.Params {
			g.registerType(g.reg.mustResolve(p.Ty))
		}
		g.walkBlock(fd.Body)
	}
	for _, cd := range g.prog.Classes {
		for _, f := range cd.Fields {
			g.registerType(g.reg.mustResolve(f.Ty))
		}
		g.collectMethodUses(cd.Methods)
	}
	for _, sd := range g.prog.Structs {
		for _, f := range sd.Fields {
			g.registerType(g.reg.mustResolve(f.Ty))
		}
		g.collectMethodUses(sd.Methods)
	}
	for _, id := range g.prog.Interfaces {
		for _, ms := range id.MethodSigs {
			g.registerType(g.reg.mustResolve(ms.Ret))
			for i, p := range ms.Params {
				if i == 0 {
					continue // self
				}
				g.registerType(g.reg.mustResolve(p.Ty))
			}
		}
	}
	for _, st := range g.prog.Stmts {
		g.walkStmt(st)
	}
}

func (g *Generator) collectMethodUses(methods []*ast.FuncDecl) {
	for _, m := range methods {
		g.registerType(g.reg.mustResolve(m.Ret))
		for i, p := range m.Params {
			if i == 0 {
				continue // self
			}
			g.registerType(g.reg.mustResolve(p.Ty))
		}
		g.walkBlock(m.Body)
	}
}

// registerType records t (and, for containers, every type nested inside it)
// in the corresponding used*Tags table, keyed by its types.Tag fingerprint
// so that re-registering the same instantiation is a no-op.
func (g *Generator) registerType(t types.Type) {
	if t == nil {
		return
	}
	switch v := t.(type) {
	case types.List:
		tg := tag(t)
		if _, ok := g.usedListTags[tg]; ok {
			return
		}
		g.usedListTags[tg] = t
		g.registerType(v.Elem)
	case types.Dict:
		tg := tag(t)
		if _, ok := g.usedDictTags[tg]; ok {
			return
		}
		g.usedDictTags[tg] = t
		g.registerType(v.Key)
		g.registerType(v.Val)
	case types.Tuple:
		tg := tag(t)
		if _, ok := g.usedTupleTags[tg]; ok {
			return
		}
		g.usedTupleTags[tg] = v
		for _, et := range v.Elems {
			g.registerType(et)
		}
	case types.FnPtr:
		tg := tag(t)
		if _, ok := g.usedFnTags[tg]; ok {
			return
		}
		g.usedFnTags[tg] = v
		for _, p := range v.Params {
			g.registerType(p)
		}
		g.registerType(v.Ret)
	}
}

func (g *Generator) walkBlock(b *ast.Block) {
	if b == nil {
		return
	}
	for _, s := range b.Stmts {
		g.walkStmt(s)
	}
}

func (g *Generator) walkStmt(s ast.Stmt) {
	switch st := s.(type) {
	case *ast.VarDecl:
		if st.Ty != nil {
			g.registerType(g.reg.mustResolve(*st.Ty))
		}
		g.walkExpr(st.Value)
	case *ast.TupleDestructure:
		g.walkExpr(st.Value)
	case *ast.Assign:
		g.walkExpr(st.Value)
	case *ast.MemberAssign:
		g.walkExpr(st.Obj)
		g.walkExpr(st.Value)
	case *ast.IndexAssign:
		g.walkExpr(st.Obj)
		g.walkExpr(st.Idx)
		g.walkExpr(st.Value)
	case *ast.ExprStmt:
		g.walkExpr(st.Expr)
	case *ast.Return:
		g.walkExpr(st.Value)
	case *ast.Block:
		g.walkBlock(st)
	case *ast.If:
		for _, arm := range st.Arms {
			g.walkExpr(arm.Cond)
			g.walkBlock(arm.Block)
		}
	case *ast.While:
		g.walkExpr(st.Cond)
		g.walkBlock(st.Body)
	case *ast.For:
		g.registerType(g.reg.mustResolve(st.VarTy))
		g.walkExpr(st.Iterable)
		g.walkBlock(st.Body)
	case *ast.Break, *ast.Continue:
	}
}

func (g *Generator) walkExpr(e ast.Expr) {
	if e == nil {
		return
	}
	if typed, ok := e.(ast.Typed); ok {
		g.registerType(typed.Type())
	}
	switch ex := e.(type) {
	case *ast.Unary:
		g.walkExpr(ex.Rhs)
	case *ast.Binary:
		g.walkExpr(ex.Lhs)
		g.walkExpr(ex.Rhs)
	case *ast.Call:
		g.walkExpr(ex.Callee)
		for _, a := range ex.Args {
			g.walkExpr(a)
		}
	case *ast.MemberAccess:
		g.walkExpr(ex.Obj)
	case *ast.Is:
		g.walkExpr(ex.Lhs)
	case *ast.As:
		g.walkExpr(ex.Lhs)
	case *ast.Index:
		g.walkExpr(ex.Obj)
		g.walkExpr(ex.Idx)
	case *ast.TupleExpr:
		for _, el := range ex.Elems {
			g.walkExpr(el)
		}
	case *ast.ListLit:
		g.registerType(g.reg.mustResolve(ex.ElemType))
		for _, el := range ex.Elems {
			g.walkExpr(el)
		}
	case *ast.DictLit:
		g.registerType(g.reg.mustResolve(ex.KeyType))
		g.registerType(g.reg.mustResolve(ex.ValType))
		for _, k := range ex.Keys {
			g.walkExpr(k)
		}
		for _, v := range ex.Vals {
			g.walkExpr(v)
		}
	}
}

// ---- fn pointer, tuple and container emission ----

// emitFnTypedefs emits one C function-pointer typedef per distinct FnPtr
// type used anywhere in the program.
func (g *Generator) emitFnTypedefs() error {
	if len(g.usedFnTags) == 0 {
		return nil
	}
	g.w("// ---- function pointer typedefs ----")
	for _, tg := range sortedKeys(g.usedFnTags) {
		fp := g.usedFnTags[tg]
		paramsC := "void"
		if len(fp.Params) > 0 {
			parts := make([]string, len(fp.Params))
			for i, p := range fp.Params {
				parts[i] = ctype(p)
			}
			paramsC = strings.Join(parts, ", ")
		}
		g.w(fmt.Sprintf("typedef %s (*%s)(%s);", ctype(fp.Ret), ctype(fp), paramsC))
	}
	g.w("")
	return nil
}

// emitTupleTypedefs emits each used tuple type as a plain C struct with
// fields f0, f1, ... in declaration order, inner tuples before any tuple
// that nests them.
func (g *Generator) emitTupleTypedefs() {
	if len(g.usedTupleTags) == 0 {
		return
	}
	emitted := map[string]bool{}
	var emitOne func(tg string)
	emitOne = func(tg string) {
		if emitted[tg] {
			return
		}
		emitted[tg] = true
		tp := g.usedTupleTags[tg]
		for _, et := range tp.Elems {
			if inner, ok := et.(types.Tuple); ok {
				emitOne(tag(inner))
			}
		}
		fields := make([]string, len(tp.Elems))
		for i, et := range tp.Elems {
			fields[i] = fmt.Sprintf("%s f%d", ctype(et), i)
		}
		g.w(fmt.Sprintf("typedef struct { %s; } %s;", strings.Join(fields, "; "), ctype(tp)))
	}
	for _, tg := range sortedKeys(g.usedTupleTags) {
		emitOne(tg)
	}
	g.w("")
}

// elemCTypeDropClone returns the C element type plus a DROP/CLONE macro
// pair (named after macroName, which is the owning container's tag so
// distinct containers never collide) for storing t as a list element or
// dict value.
func elemCTypeDropClone(t types.Type, macroName string) (ct, drop, clone string) {
	ct = ctype(t)
	switch v := t.(type) {
	case types.Str:
		drop = fmt.Sprintf("#define BISMUT_DROP_%s(x) do { if ((x)) %sstr_release((x)); } while(0)", macroName, RTPrefix)
		clone = fmt.Sprintf("#define BISMUT_CLONE_%s(dst, src) do { (dst) = (src); if ((src)) %sstr_retain((src)); } while(0)", macroName, RTPrefix)
	case types.List:
		inner := tag(v.Elem)
		drop = fmt.Sprintf("#define BISMUT_DROP_%s(x) do { if ((x)) List_%s_release((x)); } while(0)", macroName, inner)
		clone = fmt.Sprintf("#define BISMUT_CLONE_%s(dst, src) do { (dst) = (src); if ((src)) List_%s_retain((src)); } while(0)", macroName, inner)
	case types.Dict:
		inner := tag(v.Key) + "_" + tag(v.Val)
		drop = fmt.Sprintf("#define BISMUT_DROP_%s(x) do { if ((x)) Dict_%s_release((x)); } while(0)", macroName, inner)
		clone = fmt.Sprintf("#define BISMUT_CLONE_%s(dst, src) do { (dst) = (src); if ((src)) Dict_%s_retain((src)); } while(0)", macroName, inner)
	case types.Class:
		drop = fmt.Sprintf("#define BISMUT_DROP_%s(x) do { if ((x)) Class_%s_release((x)); } while(0)", macroName, v.Name)
		clone = fmt.Sprintf("#define BISMUT_CLONE_%s(dst, src) do { (dst) = (src); if ((src)) Class_%s_retain((src)); } while(0)", macroName, v.Name)
	case types.ExternOpaque:
		nm := v.Lib + "_" + v.Name
		drop = fmt.Sprintf("#define BISMUT_DROP_%s(x) do { if ((x)) Class_%s_release((x)); } while(0)", macroName, nm)
		clone = fmt.Sprintf("#define BISMUT_CLONE_%s(dst, src) do { (dst) = (src); if ((src)) Class_%s_retain((src)); } while(0)", macroName, nm)
	case types.Interface:
		drop = fmt.Sprintf("#define BISMUT_DROP_%s(x) do { if ((x).obj) (x).vtbl->release((x).obj); } while(0)", macroName)
		clone = fmt.Sprintf("#define BISMUT_CLONE_%s(dst, src) do { (dst) = (src); if ((src).obj) (src).vtbl->retain((src).obj); } while(0)", macroName)
	default:
		// primitive, enum, struct, fn-ptr, tuple -- plain value copy, nothing to drop.
		drop = fmt.Sprintf("#define BISMUT_DROP_%s(x) ((void)(x))", macroName)
		clone = fmt.Sprintf("#define BISMUT_CLONE_%s(dst, src) do { (dst) = (src); } while(0)", macroName)
	}
	return
}

// emitContainerInstantiations emits, in dependency order (inner containers
// before any container that nests them), one BISMUT_RT_LIST_DEFINE or
// BISMUT_RT_DICT_DEFINE macro invocation per used List/Dict type, preceded
// by its element DROP/CLONE macros and any forward declarations a
// contained class type needs.
func (g *Generator) emitContainerInstantiations() error {
	classTags := map[string]bool{}
	markClassElem := func(t types.Type) {
		switch c := t.(type) {
		case types.Class:
			classTags[c.Name] = true
		case types.ExternOpaque:
			classTags[c.Lib+"_"+c.Name] = true
		}
	}
	for _, t := range g.usedListTags {
		markClassElem(t.(types.List).Elem)
	}
	for _, t := range g.usedDictTags {
		markClassElem(t.(types.Dict).Val)
	}
	if len(classTags) > 0 {
		g.w("// ---- forward declarations for class types in containers ----")
		for _, nm := range sortedKeys(classTags) {
			g.w(fmt.Sprintf("typedef struct Class_%s Class_%s;", nm, nm))
			g.w(fmt.Sprintf("static void Class_%s_retain(Class_%s* o);", nm, nm))
			g.w(fmt.Sprintf("static void Class_%s_release(Class_%s* o);", nm, nm))
		}
		g.w("")
	}

	// every Dict[K,V] needs a List[K] instantiated too, to back keys().
	for _, t := range g.usedDictTags {
		dt := t.(types.Dict)
		g.registerType(types.List{Elem: dt.Key})
	}

	type entry struct{ kind, tg string }
	var ordered []entry
	visited := map[string]bool{}
	var visit func(kind, tg string)
	visit = func(kind, tg string) {
		key := kind + ":" + tg
		if visited[key] {
			return
		}
		visited[key] = true
		if kind == "list" {
			lt := g.usedListTags[tg].(types.List)
			switch inner := lt.Elem.(type) {
			case types.List:
				visit("list", tag(inner))
			case types.Dict:
				visit("dict", tag(inner))
			}
		} else {
			dt := g.usedDictTags[tg].(types.Dict)
			switch inner := dt.Val.(type) {
			case types.List:
				visit("list", tag(inner))
			case types.Dict:
				visit("dict", tag(inner))
			}
		}
		ordered = append(ordered, entry{kind, tg})
	}
	for _, tg := range sortedKeys(g.usedListTags) {
		visit("list", tg)
	}
	for _, tg := range sortedKeys(g.usedDictTags) {
		visit("dict", tg)
	}

	if len(ordered) > 0 {
		g.w("// ---- container instantiations ----")
	}
	for _, e := range ordered {
		if e.kind == "list" {
			lt := g.usedListTags[e.tg].(types.List)
			ct, drop, clone := elemCTypeDropClone(lt.Elem, e.tg)
			g.w(drop)
			g.w(clone)
			g.w(fmt.Sprintf("BISMUT_RT_LIST_DEFINE(%s, %s, BISMUT_DROP_%s, BISMUT_CLONE_%s)", e.tg, ct, e.tg, e.tg))
			g.w("")
			continue
		}
		dt := g.usedDictTags[e.tg].(types.Dict)
		vct, vdrop, vclone := elemCTypeDropClone(dt.Val, e.tg)
		g.w(vdrop)
		g.w(vclone)
		kct := ctype(dt.Key)
		khash, keq, kclone, kdrop, knull := "BISMUT_KHASH_INT", "BISMUT_KEQ_INT", "BISMUT_KCLONE_INT", "BISMUT_KDROP_INT", "BISMUT_KNULL_INT"
		if _, ok := dt.Key.(types.Str); ok {
			khash, keq, kclone, kdrop, knull = "BISMUT_KHASH_STR", "BISMUT_KEQ_STR", "BISMUT_KCLONE_STR", "BISMUT_KDROP_STR", "BISMUT_KNULL_STR"
		}
		g.w(fmt.Sprintf("BISMUT_RT_DICT_DEFINE(%s, %s, %s, %s, %s, %s, %s, %s, BISMUT_CLONE_%s, BISMUT_DROP_%s)",
			e.tg, kct, vct, khash, keq, kclone, kdrop, knull, e.tg, e.tg))
		g.w("")
	}

	if _, ok := g.usedListTags[tag(types.I64)]; ok {
		g.w(`#include "rt_range.h"`)
		g.w("")
	}

	if len(g.usedDictTags) > 0 {
		for _, tg := range sortedKeys(g.usedDictTags) {
			dt := g.usedDictTags[tg].(types.Dict)
			g.w(fmt.Sprintf("BISMUT_RT_DICT_KEYS_DEFINE(%s, %s)", tg, tag(dt.Key)))
		}
		g.w("")
	}
	return nil
}
