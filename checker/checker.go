// Package checker implements a two-pass type checker: pass one registers
// every top-level declaration's name and signature so forward references
// are legal, pass two walks each body with a lexical scope stack,
// annotating every resolved expression with its final type (ast.Typed)
// for the emitter.
package checker

import (
	"github.com/bismut-lang/bismut/ast"
	"github.com/bismut-lang/bismut/compiler"
	"github.com/bismut-lang/bismut/diagnostics"
	"github.com/bismut-lang/bismut/token"
	"github.com/bismut-lang/bismut/types"
)

// VarInfo is what the scope stack holds for one declared variable.
type VarInfo struct {
	Ty    types.Type
	Const bool
}

// FuncSig is a registered function/method signature (params excl. self).
type FuncSig struct {
	Params []types.Type
	Ret    types.Type
}

type classInfo struct {
	Name       string
	Fields     map[string]types.Type
	FieldOrder []string
	Methods    map[string]FuncSig
	InitParams []types.Type
	Implements map[string]bool
}

type structInfo struct {
	Name       string
	Fields     map[string]types.Type
	FieldOrder []string
	Methods    map[string]FuncSig
}

type ifaceInfo struct {
	Name    string
	Methods map[string]FuncSig
}

type enumInfo struct {
	Name     string
	Variants map[string]int64
}

// unknownType stands in for an expression whose type could not be
// resolved after an error was already reported, so downstream checks
// don't cascade into nil dereferences.
type unknownType struct{}

func (unknownType) Kind() types.Kind { return types.UnknownKind }
func (unknownType) String() string   { return "<unknown>" }

var unknown types.Type = unknownType{}

func isUnknown(t types.Type) bool { _, ok := t.(unknownType); return ok }

// Checker holds all state accumulated across both passes for one program.
type Checker struct {
	bag  *diagnostics.Bag
	prog *ast.Program

	classNames map[string]bool
	structNames map[string]bool
	ifaceNames map[string]bool
	enumNames  map[string]bool

	classes    map[string]*classInfo
	structs    map[string]*structInfo
	interfaces map[string]*ifaceInfo
	enums      map[string]*enumInfo

	funcs        map[string]FuncSig
	genericFuncs map[string]*ast.FuncDecl

	externConsts map[string]types.Type

	scopes []compiler.Scope[VarInfo]

	curRet      types.Type
	curClass    string
	curStruct   string
	loopDepth   int
}

// New creates a Checker that reports into bag.
func New(prog *ast.Program, bag *diagnostics.Bag) *Checker {
	return &Checker{
		bag:          bag,
		prog:         prog,
		classNames:   map[string]bool{},
		structNames:  map[string]bool{},
		ifaceNames:   map[string]bool{},
		enumNames:    map[string]bool{},
		classes:      map[string]*classInfo{},
		structs:      map[string]*structInfo{},
		interfaces:   map[string]*ifaceInfo{},
		enums:        map[string]*enumInfo{},
		funcs:        map[string]FuncSig{},
		genericFuncs: map[string]*ast.FuncDecl{},
		externConsts: map[string]types.Type{},
	}
}

// Check runs both passes over c.prog, reporting every violation to the
// bag instead of stopping at the first one.
func (c *Checker) Check() {
	c.registerInterfaces()
	c.registerEnums()
	c.registerClassNames()
	c.registerStructNames()
	c.buildInterfaces()
	c.buildClasses()
	c.checkClassCycles()
	c.buildStructs()
	c.buildFuncs()
	c.resolveExternConstants()

	c.pushScope(compiler.FuncScope)
	for _, st := range c.prog.Stmts {
		c.checkStmt(st)
	}
	// global scope stays open: functions below see top-level vars/consts.
	for _, f := range c.prog.Funcs {
		if f.IsGeneric() {
			continue // only checked when instantiated
		}
		c.checkFunc(f)
	}
	for _, cls := range c.prog.Classes {
		for _, m := range cls.Methods {
			c.checkMethod(cls.Name, m)
		}
	}
	for _, st := range c.prog.Structs {
		for _, m := range st.Methods {
			c.checkStructMethod(st.Name, m)
		}
	}
}

func (c *Checker) pushScope(k compiler.ScopeKind) { compiler.PushScope(&c.scopes, k) }
func (c *Checker) popScope()                      { compiler.PopScope(&c.scopes) }

func (c *Checker) declare(pos token.Position, name string, ty types.Type, isConst bool) {
	if _, ok := c.scopes[len(c.scopes)-1].Elems[name]; ok {
		c.bag.Error(pos, "'%s' already declared in this scope", name)
		return
	}
	compiler.Put(c.scopes, name, VarInfo{Ty: ty, Const: isConst})
}

func (c *Checker) lookup(pos token.Position, name string) (VarInfo, bool) {
	vi, ok := compiler.Get(c.scopes, name)
	if !ok && len(c.scopes) > 0 {
		// Get stops at the function boundary; the global scope sits below it.
		vi, ok = c.scopes[0].Elems[name]
	}
	if !ok {
		c.bag.Error(pos, "undefined variable '%s'", name)
		return VarInfo{Ty: unknown}, false
	}
	return vi, true
}

func (c *Checker) resolveExternConstants() {
	for name, binding := range c.prog.ExternConstants {
		ty, ok := c.resolveTypeName(binding.Ty)
		if !ok {
			c.bag.Error(c.prog.Pos, "extern constant '%s' has unknown type '%s'", name, binding.Ty)
			ty = unknown
		}
		c.externConsts[name] = ty
	}
}

// ---- pass 0 / 0b / 1 / 1b: name registration ----

func (c *Checker) registerInterfaces() {
	for _, iface := range c.prog.Interfaces {
		if types.IsReservedTypeName(iface.Name) {
			c.bag.Error(iface.Pos, "interface '%s' conflicts with built-in type", iface.Name)
			continue
		}
		c.ifaceNames[iface.Name] = true
	}
}

func (c *Checker) registerEnums() {
	for _, enum := range c.prog.Enums {
		if types.IsReservedTypeName(enum.Name) || c.ifaceNames[enum.Name] {
			c.bag.Error(enum.Pos, "enum '%s' conflicts with existing type", enum.Name)
			continue
		}
		c.enumNames[enum.Name] = true

		variants := map[string]int64{}
		var next int64
		for _, v := range enum.Variants {
			if v.Value != nil {
				next = *v.Value
			}
			if _, dup := variants[v.Name]; dup {
				c.bag.Error(v.Pos, "duplicate enum variant '%s'", v.Name)
				continue
			}
			variants[v.Name] = next
			next++
		}
		c.enums[enum.Name] = &enumInfo{Name: enum.Name, Variants: variants}
	}
}

func (c *Checker) registerClassNames() {
	for _, cls := range c.prog.Classes {
		if types.IsReservedTypeName(cls.Name) {
			c.bag.Error(cls.Pos, "class '%s' conflicts with built-in type", cls.Name)
			continue
		}
		if c.ifaceNames[cls.Name] {
			c.bag.Error(cls.Pos, "class '%s' conflicts with interface name", cls.Name)
			continue
		}
		c.classNames[cls.Name] = true
	}
}

func (c *Checker) registerStructNames() {
	for _, st := range c.prog.Structs {
		if types.IsReservedTypeName(st.Name) || c.classNames[st.Name] || c.ifaceNames[st.Name] || c.enumNames[st.Name] {
			c.bag.Error(st.Pos, "struct '%s' conflicts with existing type", st.Name)
			continue
		}
		c.structNames[st.Name] = true
	}
}

func (c *Checker) buildInterfaces() {
	for _, iface := range c.prog.Interfaces {
		methods := map[string]FuncSig{}
		for _, ms := range iface.MethodSigs {
			if len(ms.Params) == 0 || ms.Params[0].Name != "self" {
				c.bag.Error(ms.Pos, "interface method '%s' must have 'self' as first parameter", ms.Name)
				continue
			}
			var params []types.Type
			ok := true
			for _, p := range ms.Params[1:] {
				pt, good := c.resolveTypeName(p.Ty.Name)
				if !good {
					c.bag.Error(p.Pos, "unknown type '%s'", p.Ty.Name)
					ok = false
				}
				params = append(params, pt)
			}
			ret, good := c.resolveTypeName(ms.Ret.Name)
			if !good {
				c.bag.Error(ms.Pos, "unknown type '%s'", ms.Ret.Name)
				ok = false
			}
			if ok {
				methods[ms.Name] = FuncSig{Params: params, Ret: ret}
			}
		}
		c.interfaces[iface.Name] = &ifaceInfo{Name: iface.Name, Methods: methods}
	}
}

func (c *Checker) buildClasses() {
	for _, cls := range c.prog.Classes {
		fields := map[string]types.Type{}
		var order []string
		for _, fd := range cls.Fields {
			ft, ok := c.resolveTypeName(fd.Ty.Name)
			if !ok {
				c.bag.Error(fd.Pos, "unknown type '%s'", fd.Ty.Name)
				ft = unknown
			}
			fields[fd.Name] = ft
			order = append(order, fd.Name)
		}

		methods := map[string]FuncSig{}
		var initParams []types.Type
		for _, m := range cls.Methods {
			if len(m.Params) == 0 || m.Params[0].Name != "self" {
				c.bag.Error(m.Pos, "class method '%s' must have 'self' as first parameter", m.Name)
				continue
			}
			var params []types.Type
			for _, p := range m.Params[1:] {
				pt, ok := c.resolveTypeName(p.Ty.Name)
				if !ok {
					c.bag.Error(p.Pos, "unknown type '%s'", p.Ty.Name)
					pt = unknown
				}
				params = append(params, pt)
			}
			ret, ok := c.resolveTypeName(m.Ret.Name)
			if !ok {
				c.bag.Error(m.Pos, "unknown type '%s'", m.Ret.Name)
				ret = unknown
			}
			methods[m.Name] = FuncSig{Params: params, Ret: ret}
			if m.Name == "init" {
				initParams = params
			}
		}

		ci := &classInfo{
			Name: cls.Name, Fields: fields, FieldOrder: order,
			Methods: methods, InitParams: initParams, Implements: map[string]bool{},
		}
		c.classes[cls.Name] = ci

		for _, iname := range cls.Implements {
			ii, ok := c.interfaces[iname]
			if !ok {
				c.bag.Error(cls.Pos, "class '%s' implements unknown interface '%s'", cls.Name, iname)
				continue
			}
			ok = true
			for mname, isig := range ii.Methods {
				csig, has := methods[mname]
				if !has {
					c.bag.Error(cls.Pos, "class '%s' is missing method '%s' required by interface '%s'", cls.Name, mname, iname)
					ok = false
					continue
				}
				if !sigEqual(csig, isig) {
					c.bag.Error(cls.Pos, "method '%s' in class '%s' does not match the signature required by interface '%s'", mname, cls.Name, iname)
					ok = false
				}
			}
			if ok {
				ci.Implements[iname] = true
			}
		}
	}
}

func sigEqual(a, b FuncSig) bool {
	if len(a.Params) != len(b.Params) {
		return false
	}
	for i := range a.Params {
		if !types.Equal(a.Params[i], b.Params[i]) {
			return false
		}
	}
	return types.Equal(a.Ret, b.Ret)
}

func (c *Checker) buildStructs() {
	for _, st := range c.prog.Structs {
		fields := map[string]types.Type{}
		var order []string
		for _, fd := range st.Fields {
			ft, ok := c.resolveTypeName(fd.Ty.Name)
			if !ok {
				c.bag.Error(fd.Pos, "unknown type '%s'", fd.Ty.Name)
				ft = unknown
			} else if types.IsRefKind(ft) {
				c.bag.Error(fd.Pos, "struct field '%s' cannot have reference type '%s' -- only value types allowed", fd.Name, ft.String())
			}
			fields[fd.Name] = ft
			order = append(order, fd.Name)
		}

		if c.structSelfContains(st.Name, fields, map[string]bool{}) {
			c.bag.Error(st.Pos, "struct '%s' cannot contain itself, directly or indirectly", st.Name)
		}

		methods := map[string]FuncSig{}
		for _, m := range st.Methods {
			if m.Name == "init" {
				c.bag.Error(m.Pos, "structs cannot have 'init' methods -- construction is positional by field order")
				continue
			}
			if len(m.Params) == 0 || m.Params[0].Name != "self" {
				c.bag.Error(m.Pos, "struct method '%s' must have 'self' as first parameter", m.Name)
				continue
			}
			var params []types.Type
			for _, p := range m.Params[1:] {
				pt, ok := c.resolveTypeName(p.Ty.Name)
				if !ok {
					c.bag.Error(p.Pos, "unknown type '%s'", p.Ty.Name)
					pt = unknown
				}
				params = append(params, pt)
			}
			ret, ok := c.resolveTypeName(m.Ret.Name)
			if !ok {
				c.bag.Error(m.Pos, "unknown type '%s'", m.Ret.Name)
				ret = unknown
			}
			methods[m.Name] = FuncSig{Params: params, Ret: ret}
		}

		c.structs[st.Name] = &structInfo{Name: st.Name, Fields: fields, FieldOrder: order, Methods: methods}
	}
}

// structSelfContains is a hard error, unlike the class-cycle warning below:
// a struct is a value type, so a struct literally containing itself (even
// transitively through another struct) can never have a finite size.
func (c *Checker) structSelfContains(root string, fields map[string]types.Type, seen map[string]bool) bool {
	for _, ft := range fields {
		s, ok := ft.(types.Struct)
		if !ok {
			continue
		}
		if s.Name == root {
			return true
		}
		if seen[s.Name] {
			continue
		}
		seen[s.Name] = true
		other, ok := c.structs[s.Name]
		if ok && c.structSelfContains(root, other.Fields, seen) {
			return true
		}
	}
	return false
}

func (c *Checker) buildFuncs() {
	seen := map[string]bool{}
	for _, f := range c.prog.Funcs {
		if seen[f.Name] {
			c.bag.Error(f.Pos, "duplicate function '%s'", f.Name)
			continue
		}
		seen[f.Name] = true
		if f.IsGeneric() {
			c.genericFuncs[f.Name] = f
			continue
		}
		var params []types.Type
		for _, p := range f.Params {
			pt, ok := c.resolveTypeName(p.Ty.Name)
			if !ok {
				c.bag.Error(p.Pos, "unknown type '%s'", p.Ty.Name)
				pt = unknown
			}
			params = append(params, pt)
		}
		ret, ok := c.resolveTypeName(f.Ret.Name)
		if !ok {
			c.bag.Error(f.Pos, "unknown type '%s'", f.Ret.Name)
			ret = unknown
		}
		c.funcs[f.Name] = FuncSig{Params: params, Ret: ret}
	}
}

// ---- function/method/struct-method body entry points ----

func (c *Checker) checkFunc(f *ast.FuncDecl) {
	c.pushScope(compiler.FuncScope)
	ret, _ := c.resolveTypeName(f.Ret.Name)
	c.curRet = ret
	c.loopDepth = 0
	for _, p := range f.Params {
		pt, _ := c.resolveTypeName(p.Ty.Name)
		c.declare(p.Pos, p.Name, pt, false)
	}
	for _, st := range f.Body.Stmts {
		c.checkStmt(st)
	}
	c.popScope()
}

func (c *Checker) checkMethod(className string, m *ast.FuncDecl) {
	c.pushScope(compiler.FuncScope)
	ret, _ := c.resolveTypeName(m.Ret.Name)
	c.curRet = ret
	c.curClass = className
	c.loopDepth = 0
	c.declare(m.Pos, "self", types.Class{Name: className}, false)
	for _, p := range m.Params[1:] {
		pt, _ := c.resolveTypeName(p.Ty.Name)
		c.declare(p.Pos, p.Name, pt, false)
	}
	for _, st := range m.Body.Stmts {
		c.checkStmt(st)
	}
	c.curClass = ""
	c.popScope()
}

func (c *Checker) checkStructMethod(structName string, m *ast.FuncDecl) {
	c.pushScope(compiler.FuncScope)
	ret, _ := c.resolveTypeName(m.Ret.Name)
	c.curRet = ret
	c.curStruct = structName
	c.loopDepth = 0
	c.declare(m.Pos, "self", types.Struct{Name: structName}, false)
	for _, p := range m.Params[1:] {
		pt, _ := c.resolveTypeName(p.Ty.Name)
		c.declare(p.Pos, p.Name, pt, false)
	}
	for _, st := range m.Body.Stmts {
		c.checkStmt(st)
	}
	c.curStruct = ""
	c.popScope()
}

func setType(e ast.Expr, t types.Type) types.Type {
	if tt, ok := e.(ast.Typed); ok {
		tt.SetType(t)
	}
	return t
}
