package checker

import (
	"github.com/bismut-lang/bismut/ast"
	"github.com/bismut-lang/bismut/compiler"
	"github.com/bismut-lang/bismut/types"
)

var castTypes = map[string]bool{
	"i8": true, "i16": true, "i32": true, "i64": true,
	"u8": true, "u16": true, "u32": true, "u64": true,
	"f32": true, "f64": true,
}

// listGenericOps/dictGenericOps name the generic container operations that
// take their type parameter either explicitly (name[T](...)) or inferred
// from their first argument.
var listGenericOps = map[string]bool{"append": true, "get": true, "set": true, "pop": true, "remove": true}
var dictGenericOps = map[string]bool{"put": true, "lookup": true, "has": true}

// checkCall resolves a call expression's type, dispatching across method
// calls, function-pointer calls, cast/print/format/range/keys/len
// builtins, generic container operations, constructors, struct
// construction, user-defined generics, and plain user functions.
func (c *Checker) checkCall(e *ast.Call) types.Type {
	if ma, ok := e.Callee.(*ast.MemberAccess); ok {
		return c.checkMethodCall(e, ma)
	}

	if id, ok := e.Callee.(*ast.Ident); ok {
		name := id.Name

		if sig, ok := c.funcs[name]; ok && !c.classNames[name] && !c.ifaceNames[name] {
			return c.checkArgsAgainst(e, sig.Params, sig.Ret, "function '"+name+"'")
		}

		if castTypes[name] {
			return c.checkCastCall(e, name)
		}
		switch name {
		case "print":
			return c.checkPrintCall(e)
		case "format":
			return c.checkFormatCall(e)
		case "range":
			return c.checkRangeCall(e)
		case "keys":
			return c.checkKeysCall(e)
		case "len":
			return c.checkLenCall(e)
		}

		if name == "List" || listGenericOps[name] {
			if r, ok := c.checkListOp(e, name); ok {
				return r
			}
		}
		if name == "Dict" || dictGenericOps[name] {
			if r, ok := c.checkDictOp(e, name); ok {
				return r
			}
		}

		if c.ifaceNames[name] {
			c.bag.Error(e.Pos, "cannot construct interface '%s' -- only classes can be instantiated", name)
			for _, a := range e.Args {
				c.checkExpr(a, nil)
			}
			return setType(e, unknown)
		}

		if ci, ok := c.classes[name]; ok {
			return c.checkArgsAgainst(e, ci.InitParams, types.Class{Name: name}, "constructor '"+name+"'")
		}

		if si, ok := c.structs[name]; ok {
			var fieldTys []types.Type
			for _, fname := range si.FieldOrder {
				fieldTys = append(fieldTys, si.Fields[fname])
			}
			return c.checkArgsAgainst(e, fieldTys, types.Struct{Name: name}, "struct '"+name+"'")
		}

		if gf, ok := c.genericFuncs[name]; ok {
			return c.checkGenericCall(e, gf)
		}

		// variable holding a function pointer
		if vi, ok := compiler.Get(c.scopes, name); ok {
			if fn, ok := vi.Ty.(types.FnPtr); ok {
				return c.checkArgsAgainst(e, fn.Params, fn.Ret, "function pointer '"+name+"'")
			}
		}

		c.bag.Error(e.Pos, "unknown function '%s'", name)
		for _, a := range e.Args {
			c.checkExpr(a, nil)
		}
		return setType(e, unknown)
	}

	// expression-based function-pointer call: e.g. ops[0](3,4)
	calleeTy := c.checkExpr(e.Callee, nil)
	if fn, ok := calleeTy.(types.FnPtr); ok {
		return c.checkArgsAgainst(e, fn.Params, fn.Ret, "function pointer")
	}
	if !isUnknown(calleeTy) {
		c.bag.Error(e.Pos, "callee must be an identifier or a function-pointer-typed expression")
	}
	for _, a := range e.Args {
		c.checkExpr(a, nil)
	}
	return setType(e, unknown)
}

func (c *Checker) checkMethodCall(e *ast.Call, ma *ast.MemberAccess) types.Type {
	objTy := c.checkExpr(ma.Obj, nil)
	var sig FuncSig
	var ok bool
	var recv string
	switch t := objTy.(type) {
	case types.Interface:
		if ii, found := c.interfaces[t.Name]; found {
			sig, ok = ii.Methods[ma.Member]
		}
		recv = "interface '" + t.Name + "'"
	case types.Struct:
		if si, found := c.structs[t.Name]; found {
			sig, ok = si.Methods[ma.Member]
		}
		recv = "struct '" + t.Name + "'"
	case types.Class:
		if ci, found := c.classes[t.Name]; found {
			sig, ok = ci.Methods[ma.Member]
		}
		recv = "class '" + t.Name + "'"
	default:
		if !isUnknown(objTy) {
			c.bag.Error(e.Pos, "method call on non-class type '%s'", objTy.String())
		}
		for _, a := range e.Args {
			c.checkExpr(a, nil)
		}
		return setType(e, unknown)
	}
	if !ok {
		c.bag.Error(e.Pos, "%s has no method '%s'", recv, ma.Member)
		for _, a := range e.Args {
			c.checkExpr(a, nil)
		}
		return setType(e, unknown)
	}
	return c.checkArgsAgainst(e, sig.Params, sig.Ret, "method '"+ma.Member+"'")
}

// checkArgsAgainst checks e.Args' arity and assignability against params,
// annotates e with ret, and returns ret. Shared across every call-kind
// handled above.
func (c *Checker) checkArgsAgainst(e *ast.Call, params []types.Type, ret types.Type, what string) types.Type {
	if len(params) != len(e.Args) {
		c.bag.Error(e.Pos, "%s expects %d args, got %d", what, len(params), len(e.Args))
	}
	for i, arg := range e.Args {
		var hint types.Type
		if i < len(params) {
			hint = params[i]
		}
		at := c.checkExpr(arg, hint)
		if i < len(params) && !c.assignable(at, params[i]) {
			c.bag.Error(arg.Position(), "argument %d of %s expected %s, got %s", i+1, what, params[i].String(), at.String())
		}
	}
	return setType(e, ret)
}

func (c *Checker) checkCastCall(e *ast.Call, name string) types.Type {
	if len(e.Args) != 1 {
		c.bag.Error(e.Pos, "%s() expects 1 argument", name)
		for _, a := range e.Args {
			c.checkExpr(a, nil)
		}
		return setType(e, unknown)
	}
	at := c.checkExpr(e.Args[0], nil)
	if !isNumeric(at) {
		c.bag.Error(e.Pos, "%s() requires a numeric argument, got %s", name, at.String())
	}
	target, _ := c.resolveTypeName(name)
	return setType(e, target)
}

func (c *Checker) checkPrintCall(e *ast.Call) types.Type {
	if len(e.Args) != 1 {
		c.bag.Error(e.Pos, "print(x) expects 1 argument")
		for _, a := range e.Args {
			c.checkExpr(a, nil)
		}
		return setType(e, types.Void)
	}
	at := c.checkExpr(e.Args[0], nil)
	if !isPrintable(at) {
		c.bag.Error(e.Pos, "print() does not support type %s", at.String())
	}
	return setType(e, types.Void)
}

func (c *Checker) checkFormatCall(e *ast.Call) types.Type {
	if len(e.Args) < 1 {
		c.bag.Error(e.Pos, "format() expects at least 1 argument (the format string)")
		return setType(e, types.Str{})
	}
	fty := c.checkExpr(e.Args[0], nil)
	if _, ok := fty.(types.Str); !ok {
		c.bag.Error(e.Args[0].Position(), "format() first argument must be str, got %s", fty.String())
	}
	for i, arg := range e.Args[1:] {
		at := c.checkExpr(arg, nil)
		if !isPrintable(at) {
			c.bag.Error(arg.Position(), "format() argument %d has unsupported type %s", i+2, at.String())
		}
	}
	return setType(e, types.Str{})
}

func isPrintable(t types.Type) bool {
	r := resolveEnumTy(t)
	if isNumeric(r) {
		return true
	}
	if p, ok := r.(types.Primitive); ok && p.Name == "bool" {
		return true
	}
	_, isStr := r.(types.Str)
	return isStr
}

func (c *Checker) checkRangeCall(e *ast.Call) types.Type {
	if len(e.Args) < 1 || len(e.Args) > 3 {
		c.bag.Error(e.Pos, "range() expects 1-3 arguments, got %d", len(e.Args))
	}
	for i, arg := range e.Args {
		at := c.checkExpr(arg, types.I64)
		if !types.Equal(at, types.I64) {
			c.bag.Error(arg.Position(), "argument %d of 'range' must be i64, got %s", i+1, at.String())
		}
	}
	return setType(e, types.List{Elem: types.I64})
}

func (c *Checker) checkKeysCall(e *ast.Call) types.Type {
	if len(e.Args) != 1 {
		c.bag.Error(e.Pos, "keys() expects 1 argument")
		return setType(e, unknown)
	}
	at := c.checkExpr(e.Args[0], nil)
	d, ok := at.(types.Dict)
	if !ok {
		if !isUnknown(at) {
			c.bag.Error(e.Pos, "keys() requires a dict type, got %s", at.String())
		}
		return setType(e, unknown)
	}
	return setType(e, types.List{Elem: d.Key})
}

func (c *Checker) checkLenCall(e *ast.Call) types.Type {
	if len(e.Args) != 1 {
		c.bag.Error(e.Pos, "len() expects 1 argument")
		return setType(e, types.I64)
	}
	at := c.checkExpr(e.Args[0], nil)
	switch at.(type) {
	case types.List, types.Dict, types.Str:
		return setType(e, types.I64)
	}
	if !isUnknown(at) {
		c.bag.Error(e.Pos, "len() does not support type %s", at.String())
	}
	return setType(e, types.I64)
}

// checkListOp handles List[T](), append[T](l,v), get[T](l,i), set[T](l,i,v),
// pop[T](l), remove[T](l,i), with T explicit via e.TypeArgs or inferred
// from the first argument's list element type. Returns ok=false when this
// call isn't actually shaped like a list op (falls through to plain
// function lookup).
func (c *Checker) checkListOp(e *ast.Call, name string) (types.Type, bool) {
	var elem types.Type
	if len(e.TypeArgs) == 1 {
		t, ok := c.resolveTypeName(e.TypeArgs[0].Name)
		if !ok {
			c.bag.Error(e.Pos, "unknown type parameter '%s' in '%s[%s]'", e.TypeArgs[0].Name, name, e.TypeArgs[0].Name)
			t = unknown
		}
		elem = t
	} else if name != "List" && len(e.Args) > 0 {
		first := c.checkExpr(e.Args[0], nil)
		if lt, ok := first.(types.List); ok {
			elem = lt.Elem
		}
	}
	if elem == nil {
		return nil, false
	}

	var params []types.Type
	var ret types.Type
	listTy := types.List{Elem: elem}
	switch name {
	case "List":
		params, ret = nil, listTy
	case "append":
		params, ret = []types.Type{listTy, elem}, types.Void
	case "get":
		params, ret = []types.Type{listTy, types.I64}, elem
	case "set":
		params, ret = []types.Type{listTy, types.I64, elem}, types.Void
	case "pop":
		params, ret = []types.Type{listTy}, elem
	case "remove":
		params, ret = []types.Type{listTy, types.I64}, types.Void
	default:
		return nil, false
	}
	return c.checkArgsAgainst(e, params, ret, "'"+name+"'"), true
}

// checkDictOp handles Dict[K,V](), put[K,V](d,k,v), lookup[K,V](d,k),
// has[K,V](d,k), with K,V explicit via e.TypeArgs or inferred from the
// first argument's dict key/value types.
func (c *Checker) checkDictOp(e *ast.Call, name string) (types.Type, bool) {
	var key, val types.Type
	if len(e.TypeArgs) == 2 {
		k, kok := c.resolveTypeName(e.TypeArgs[0].Name)
		if !kok {
			c.bag.Error(e.Pos, "unknown key type '%s' in '%s[%s,%s]'", e.TypeArgs[0].Name, name, e.TypeArgs[0].Name, e.TypeArgs[1].Name)
			k = unknown
		} else if !types.ValidDictKey(k) {
			c.bag.Error(e.Pos, "type '%s' cannot be used as dict key", k.String())
		}
		v, vok := c.resolveTypeName(e.TypeArgs[1].Name)
		if !vok {
			c.bag.Error(e.Pos, "unknown value type '%s' in '%s[%s,%s]'", e.TypeArgs[1].Name, name, e.TypeArgs[0].Name, e.TypeArgs[1].Name)
			v = unknown
		}
		key, val = k, v
	} else if name != "Dict" && len(e.Args) > 0 {
		first := c.checkExpr(e.Args[0], nil)
		if dt, ok := first.(types.Dict); ok {
			key, val = dt.Key, dt.Val
		}
	}
	if key == nil || val == nil {
		return nil, false
	}

	var params []types.Type
	var ret types.Type
	dictTy := types.Dict{Key: key, Val: val}
	switch name {
	case "Dict":
		params, ret = nil, dictTy
	case "put":
		params, ret = []types.Type{dictTy, key, val}, types.Void
	case "lookup":
		params, ret = []types.Type{dictTy, key}, val
	case "has":
		params, ret = []types.Type{dictTy, key}, types.Bool
	default:
		return nil, false
	}
	return c.checkArgsAgainst(e, params, ret, "'"+name+"'"), true
}

// checkGenericCall handles a call to a user-defined generic function,
// inferring or validating its single type parameter, instantiating a
// concrete, mangled copy on first use, and recursively checking that
// instantiation's body.
func (c *Checker) checkGenericCall(e *ast.Call, gf *ast.FuncDecl) types.Type {
	argTypes := make([]types.Type, len(e.Args))
	for i, a := range e.Args {
		argTypes[i] = c.checkExpr(a, nil)
	}

	var concrete types.Type
	if len(e.TypeArgs) == 1 {
		t, ok := c.resolveTypeName(e.TypeArgs[0].Name)
		if !ok {
			c.bag.Error(e.Pos, "unknown type parameter '%s' in '%s[%s]'", e.TypeArgs[0].Name, gf.Name, e.TypeArgs[0].Name)
			return setType(e, unknown)
		}
		concrete = t
	} else {
		t, ok := c.inferGenericParam(gf, argTypes)
		if !ok {
			c.bag.Error(e.Pos, "cannot infer type parameter '%s' for generic function '%s'", gf.TypeParams[0], gf.Name)
			return setType(e, unknown)
		}
		concrete = t
		e.TypeArgs = []ast.TypeRef{{Pos: e.Pos, Name: surfaceSpelling(t)}}
	}

	sub := map[string]types.Type{gf.TypeParams[0]: concrete}

	params := make([]types.Type, len(gf.Params))
	for i, p := range gf.Params {
		pt, ok := c.substType(p.Ty.Name, sub)
		if !ok {
			pt = unknown
		}
		params[i] = pt
	}
	ret, ok := c.substType(gf.Ret.Name, sub)
	if !ok {
		ret = unknown
	}

	if len(params) != len(e.Args) {
		c.bag.Error(e.Pos, "'%s' expects %d args, got %d", gf.Name, len(params), len(e.Args))
	}
	for i, at := range argTypes {
		if i < len(params) && !c.assignable(at, params[i]) {
			c.bag.Error(e.Args[i].Position(), "argument %d of '%s' expected %s, got %s", i+1, gf.Name, params[i].String(), at.String())
		}
	}

	mangled := gf.Name + "_" + types.Tag(concrete)
	if _, already := c.funcs[mangled]; !already {
		concreteFunc := instantiateFunc(gf, sub, mangled)
		c.funcs[mangled] = FuncSig{Params: params, Ret: ret}
		c.prog.Funcs = append(c.prog.Funcs, concreteFunc)
		c.checkFunc(concreteFunc)
	}

	return setType(e, ret)
}
