package emitter

import (
	"fmt"

	"github.com/bismut-lang/bismut/ast"
)

// emitStructTypedefs emits a plain C struct typedef (no refcount header,
// no heap) for every value-type struct.
func (g *Generator) emitStructTypedefs() {
	for _, sd := range g.prog.Structs {
		g.w(fmt.Sprintf("typedef struct Struct_%s_s {", sd.Name))
		g.ind++
		for _, fd := range sd.Fields {
			g.w(fmt.Sprintf("%s %s;", ctype(g.reg.mustResolve(fd.Ty)), ciName(fd.Name)))
		}
		g.ind--
		g.w(fmt.Sprintf("} Struct_%s;", sd.Name))
	}
	if len(g.prog.Structs) > 0 {
		g.w("")
	}
}

// emitStructMethodProtos forward-declares every struct's methods, called
// before the function prototypes so struct methods can be mutually
// referenced.
func (g *Generator) emitStructMethodProtos(sd *ast.StructDecl) {
	for _, m := range sd.Methods {
		retT := g.reg.mustResolve(m.Ret)
		params := fmt.Sprintf("Struct_%s self", sd.Name)
		if rest := g.cParamList(m.Params[1:]); rest != "" {
			params += ", " + rest
		}
		g.w(fmt.Sprintf("static %s Struct_%s_%s(%s);", ctype(retT), sd.Name, m.Name, params))
	}
}

// emitStructMethods emits every method on a value-type struct; self is
// passed by value and is never released (structs carry no ARC fields).
func (g *Generator) emitStructMethods(sd *ast.StructDecl) error {
	for _, m := range sd.Methods {
		if err := g.emitStructMethod(sd, m); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) emitStructMethod(sd *ast.StructDecl, m *ast.FuncDecl) error {
	retT := g.reg.mustResolve(m.Ret)
	params := fmt.Sprintf("Struct_%s self", sd.Name)
	if rest := g.cParamList(m.Params[1:]); rest != "" {
		params += ", " + rest
	}
	g.w(fmt.Sprintf("static %s Struct_%s_%s(%s) {", ctype(retT), sd.Name, m.Name, params))
	g.ind++
	g.pushScope()
	g.curFnRet = retT
	g.bindParam("self", g.reg.mustResolve(ast.TypeRef{Name: sd.Name}), "self")
	for _, p := range m.Params[1:] {
		g.bindParam(p.Name, g.reg.mustResolve(p.Ty), ciName(p.Name))
	}
	for _, st := range m.Body.Stmts {
		if err := g.emitStmt(st); err != nil {
			return err
		}
	}
	g.emitDefaultReturn(retT, src(m.Position()))
	g.curFnRet = nil
	g.popScope()
	g.ind--
	g.w("}")
	g.w("")
	return nil
}
