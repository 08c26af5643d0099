package emitter

import (
	"fmt"

	"github.com/bismut-lang/bismut/ast"
)

// emitInterfaceTypes emits, for every declared interface, its vtable struct
// (retain/release plus one function pointer per method signature) and the
// fat-pointer {obj,vtbl} struct used to pass an interface value by value.
// Emitted before containers since a List[SomeInterface] needs both types
// already defined.
func (g *Generator) emitInterfaceTypes() {
	for _, id := range g.prog.Interfaces {
		g.w(fmt.Sprintf("typedef struct Vtbl_%s {", id.Name))
		g.ind++
		g.w("void (*retain)(void*);")
		g.w("void (*release)(void*);")
		for _, ms := range id.MethodSigs {
			retT := g.reg.mustResolve(ms.Ret)
			params := "void*"
			for _, p := range ms.Params[1:] {
				params += ", " + ctype(g.reg.mustResolve(p.Ty))
			}
			g.w(fmt.Sprintf("%s (*%s)(%s);", ctype(retT), ciName(ms.Name), params))
		}
		g.ind--
		g.w(fmt.Sprintf("} Vtbl_%s;", id.Name))
		g.w("")

		g.w(fmt.Sprintf("typedef struct Iface_%s {", id.Name))
		g.ind++
		g.w("void* obj;")
		g.w(fmt.Sprintf("Vtbl_%s* vtbl;", id.Name))
		g.ind--
		g.w(fmt.Sprintf("} Iface_%s;", id.Name))
		g.w("")
	}
}

// emitVtableInstances emits one static vtable instance per (class,
// interface) pair the class declares in its implements list, pointing each
// slot at that class's own method.
func (g *Generator) emitVtableInstances() {
	for _, cd := range g.prog.Classes {
		for _, iname := range cd.Implements {
			id, ok := g.reg.interfaces[iname]
			if !ok {
				continue
			}
			g.emitVtableInstance(cd, id)
		}
	}
}

func (g *Generator) emitVtableInstance(cd *ast.ClassDecl, id *ast.InterfaceDecl) {
	g.w(fmt.Sprintf("static Vtbl_%s Vtbl_%s_as_%s = {", id.Name, cd.Name, id.Name))
	g.ind++
	g.w(fmt.Sprintf(".retain = (void(*)(void*))Class_%s_retain,", cd.Name))
	g.w(fmt.Sprintf(".release = (void(*)(void*))Class_%s_release,", cd.Name))
	for _, ms := range id.MethodSigs {
		retT := g.reg.mustResolve(ms.Ret)
		params := "void*"
		for _, p := range ms.Params[1:] {
			params += ", " + ctype(g.reg.mustResolve(p.Ty))
		}
		g.w(fmt.Sprintf(".%s = (%s(*)(%s))Class_%s_%s,", ciName(ms.Name), ctype(retT), params, cd.Name, ms.Name))
	}
	g.ind--
	g.w("};")
	g.w("")
}
