package emitter

import (
	"fmt"

	"github.com/bismut-lang/bismut/ast"
	"github.com/bismut-lang/bismut/types"
)

// emitClassForwardTypedefs predeclares every class's struct tag so that
// self-referential and cross-class fields resolve regardless of the
// classes' declaration order.
func (g *Generator) emitClassForwardTypedefs() {
	for _, cd := range g.prog.Classes {
		g.w(fmt.Sprintf("typedef struct Class_%s Class_%s;", cd.Name, cd.Name))
	}
	g.w("")
}

// emitClassStruct emits a class's struct definition (refcount header plus
// fields, or the extern-wrapper shape for an extern opaque type) followed
// by forward declarations for its dtor/retain/release/constructor/methods.
func (g *Generator) emitClassStruct(cd *ast.ClassDecl) {
	if binding, ok := g.reg.isExternType(cd.Name); ok {
		g.emitExternTypeStruct(cd, binding)
		return
	}
	g.w(fmt.Sprintf("struct Class_%s {", cd.Name))
	g.ind++
	g.w(RTPrefix + "Rc rc;")
	for _, fd := range cd.Fields {
		g.w(fmt.Sprintf("%s %s;", ctype(g.reg.mustResolve(fd.Ty)), ciName(fd.Name)))
	}
	g.ind--
	g.w("};")
	g.w("")
	g.w(fmt.Sprintf("static void Class_%s_dtor(void* obj);", cd.Name))
	g.w(fmt.Sprintf("static void Class_%s_retain(Class_%s* o);", cd.Name, cd.Name))
	g.w(fmt.Sprintf("static void Class_%s_release(Class_%s* o);", cd.Name, cd.Name))

	init := findInitMethod(cd.Methods)
	var initParams string
	if init != nil {
		initParams = g.cParamList(init.Params[1:])
	}
	g.w(fmt.Sprintf("static Class_%s* Class_%s_new(%s __src%s);", cd.Name, cd.Name, RTSrcType, withLeadingComma(initParams)))

	for _, m := range cd.Methods {
		if m.Name == "init" {
			continue
		}
		retT := g.reg.mustResolve(m.Ret)
		params := fmt.Sprintf("Class_%s* self", cd.Name)
		if rest := g.cParamList(m.Params[1:]); rest != "" {
			params += ", " + rest
		}
		g.w(fmt.Sprintf("static %s Class_%s_%s(%s);", ctype(retT), cd.Name, m.Name, params))
	}
	g.w("")
}

func withLeadingComma(s string) string {
	if s == "" {
		return ""
	}
	return ", " + s
}

func (g *Generator) emitExternTypeStruct(cd *ast.ClassDecl, binding ast.ExternTypeBinding) {
	g.w(fmt.Sprintf("struct Class_%s {", cd.Name))
	g.ind++
	g.w(RTPrefix + "Rc rc;")
	g.w(fmt.Sprintf("%s* ptr;", binding.CType))
	g.ind--
	g.w("};")
	g.w("")
	g.w(fmt.Sprintf("static void Class_%s_dtor(void* obj);", cd.Name))
	g.w(fmt.Sprintf("static void Class_%s_retain(Class_%s* o);", cd.Name, cd.Name))
	g.w(fmt.Sprintf("static void Class_%s_release(Class_%s* o);", cd.Name, cd.Name))
	g.w(fmt.Sprintf("static Class_%s* Class_%s_wrap(%s* ptr);", cd.Name, cd.Name, binding.CType))
	g.w("")
}

// emitClassMethods emits a class's destructor, retain/release, constructor
// and user-declared methods, or the extern-wrapper equivalents for an
// extern opaque type.
func (g *Generator) emitClassMethods(cd *ast.ClassDecl) error {
	if binding, ok := g.reg.isExternType(cd.Name); ok {
		g.emitExternTypeMethods(cd, binding)
		return nil
	}

	g.w(fmt.Sprintf("static void Class_%s_dtor(void* obj) {", cd.Name))
	g.ind++
	g.w(fmt.Sprintf("Class_%s* self = (Class_%s*)obj;", cd.Name, cd.Name))
	for _, fd := range cd.Fields {
		t := g.reg.mustResolve(fd.Ty)
		if isRefType(t) {
			g.emitReleaseExpr(t, "self->"+ciName(fd.Name), "")
		}
	}
	g.w(RTPrefix + "leak_untrack(self);")
	g.w("free(self);")
	g.ind--
	g.w("}")
	g.w("")

	g.w(fmt.Sprintf("static void Class_%s_retain(Class_%s* o) { %sretain(o); }", cd.Name, cd.Name, RTPrefix))
	g.w(fmt.Sprintf("static void Class_%s_release(Class_%s* o) { %srelease(o, Class_%s_dtor); }", cd.Name, cd.Name, RTPrefix, cd.Name))
	g.w("")

	init := findInitMethod(cd.Methods)
	var initParams string
	if init != nil {
		initParams = g.cParamList(init.Params[1:])
	}
	g.w(fmt.Sprintf("static Class_%s* Class_%s_new(%s __src%s) {", cd.Name, cd.Name, RTSrcType, withLeadingComma(initParams)))
	g.ind++
	g.w(fmt.Sprintf("Class_%s* self = (Class_%s*)%smalloc(__src, sizeof(Class_%s));", cd.Name, cd.Name, RTPrefix, cd.Name))
	g.w(RTPrefix + "rc_init(&self->rc);")
	g.w(fmt.Sprintf("%sleak_track(self, %s, __src.file, __src.line, __src.col);", RTPrefix, cEscapeBytes([]byte(cd.Name))))
	for _, fd := range cd.Fields {
		t := g.reg.mustResolve(fd.Ty)
		g.w(fmt.Sprintf("self->%s = %s;", ciName(fd.Name), zeroValue(t)))
	}

	if init != nil {
		g.pushScope()
		g.bindParam("self", types.Class{Name: cd.Name}, "self")
		for _, p := range init.Params[1:] {
			g.bindParam(p.Name, g.reg.mustResolve(p.Ty), ciName(p.Name))
		}
		for _, st := range init.Body.Stmts {
			if err := g.emitStmt(st); err != nil {
				return err
			}
		}
		g.popScope()
	}

	g.w("return self;")
	g.ind--
	g.w("}")
	g.w("")

	for _, m := range cd.Methods {
		if m.Name == "init" {
			continue
		}
		if err := g.emitClassMethod(cd, m); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) emitExternTypeMethods(cd *ast.ClassDecl, binding ast.ExternTypeBinding) {
	g.w(fmt.Sprintf("static void Class_%s_dtor(void* obj) {", cd.Name))
	g.ind++
	g.w(fmt.Sprintf("Class_%s* self = (Class_%s*)obj;", cd.Name, cd.Name))
	if binding.CDtor != "" {
		g.w(fmt.Sprintf("if (self->ptr) %s(self->ptr);", binding.CDtor))
	}
	g.w(RTPrefix + "leak_untrack(self);")
	g.w("free(self);")
	g.ind--
	g.w("}")
	g.w("")

	g.w(fmt.Sprintf("static void Class_%s_retain(Class_%s* o) { %sretain(o); }", cd.Name, cd.Name, RTPrefix))
	g.w(fmt.Sprintf("static void Class_%s_release(Class_%s* o) { %srelease(o, Class_%s_dtor); }", cd.Name, cd.Name, RTPrefix, cd.Name))
	g.w("")

	g.w(fmt.Sprintf("static Class_%s* Class_%s_wrap(%s* ptr) {", cd.Name, cd.Name, binding.CType))
	g.ind++
	g.w(fmt.Sprintf("Class_%s* obj = (Class_%s*)malloc(sizeof(Class_%s));", cd.Name, cd.Name, cd.Name))
	g.w(RTPrefix + "rc_init(&obj->rc);")
	g.w(fmt.Sprintf("%sleak_track(obj, %s, NULL, 0, 0);", RTPrefix, cEscapeBytes([]byte(cd.Name))))
	g.w("obj->ptr = ptr;")
	g.w("return obj;")
	g.ind--
	g.w("}")
	g.w("")
}

func (g *Generator) emitClassMethod(cd *ast.ClassDecl, m *ast.FuncDecl) error {
	retT := g.reg.mustResolve(m.Ret)
	params := fmt.Sprintf("Class_%s* self", cd.Name)
	if rest := g.cParamList(m.Params[1:]); rest != "" {
		params += ", " + rest
	}
	g.w(fmt.Sprintf("static %s Class_%s_%s(%s) {", ctype(retT), cd.Name, m.Name, params))
	g.ind++
	g.pushScope()
	g.curFnRet = retT
	g.bindParam("self", types.Class{Name: cd.Name}, "self")
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
