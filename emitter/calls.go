package emitter

import (
	"fmt"
	"strings"

	"github.com/bismut-lang/bismut/ast"
	"github.com/bismut-lang/bismut/types"
)

var castTypeNames = map[string]bool{
	"i8": true, "i16": true, "i32": true, "i64": true,
	"u8": true, "u16": true, "u32": true, "u64": true,
	"f32": true, "f64": true,
}

// emitCall dispatches one call expression: method calls, function-pointer
// calls (by variable or by arbitrary expression), builtins (casts, print,
// format, range, keys, len), generic container operations and user-defined
// generic function calls, class constructors, struct construction, and
// plain function calls.
func (g *Generator) emitCall(e *ast.Call) (string, types.Type, error) {
	srcStr := src(e.Position())

	if ma, ok := e.Callee.(*ast.MemberAccess); ok {
		return g.emitMethodCall(e, ma)
	}

	id, isIdent := e.Callee.(*ast.Ident)
	if !isIdent {
		calleeC, calleeTy, err := g.emitExpr(e.Callee)
		if err != nil {
			return "", nil, err
		}
		fp, ok := calleeTy.(types.FnPtr)
		if !ok {
			return "", nil, fmt.Errorf("emitter: callee must be a function pointer at %s", srcStr)
		}
		argsC, err := g.emitArgsSafe(e.Args)
		if err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("%s(%s)", calleeC, strings.Join(argsC, ", ")), fp.Ret, nil
	}

	name := id.Name
	ba := func(i int) (string, types.Type, error) { return g.emitArgSafe(e.Args[i]) }

	// ---- variable holding a function pointer ----
	_, isKnownFunc := g.reg.funcs[name]
	_, isKnownClass := g.reg.classes[name]
	if !isKnownFunc && !castTypeNames[name] && !isKnownClass {
		if vi, ok := g.lookupVar(name); ok {
			if fp, isFn := vi.ty.(types.FnPtr); isFn {
				argsC, err := g.emitArgsSafe(e.Args)
				if err != nil {
					return "", nil, err
				}
				return fmt.Sprintf("%s(%s)", vi.cName, strings.Join(argsC, ", ")), fp.Ret, nil
			}
		}
	}

	// ---- cast builtins: i8(x), ..., f64(x) ----
	if castTypeNames[name] {
		ac, _, err := ba(0)
		if err != nil {
			return "", nil, err
		}
		targetT, _ := g.reg.resolveTypeName(name)
		return fmt.Sprintf("((%s)(%s))", ctype(targetT), ac), targetT, nil
	}

	// ---- print (overloaded, returns void) ----
	if name == "print" {
		ac, aty, err := ba(0)
		if err != nil {
			return "", nil, err
		}
		if spec, ok := selectFormatSpec(aty); ok {
			return fmt.Sprintf("%sprint_%s(%s)", RTPrefix, spec.PrintFunc, ac), types.Void, nil
		}
		return fmt.Sprintf("printf(\"%%p\\n\", (void*)(%s))", ac), types.Void, nil
	}

	// ---- format (variadic string formatting, returns str) ----
	if name == "format" {
		fmtC, _, err := ba(0)
		if err != nil {
			return "", nil, err
		}
		nargs := len(e.Args) - 1
		if nargs == 0 {
			resultTmp := g.newTmp()
			g.w(fmt.Sprintf("Str* %s = %sformat(%s, %s, NULL, 0);", resultTmp, RTPrefix, srcStr, fmtC))
			return resultTmp, types.Str{}, nil
		}
		arrTmp := g.newTmp()
		g.w(fmt.Sprintf("%sFmtArg %s[%d];", RTPrefix, arrTmp, nargs))
		for i, arg := range e.Args[1:] {
			ac, aty, err := g.emitArgSafe(arg)
			if err != nil {
				return "", nil, err
			}
			spec, ok := selectFormatSpec(aty)
			if !ok {
				return "", nil, fmt.Errorf("emitter: format() does not support type %s at %s", aty, srcStr)
			}
			var castC string
			switch spec.FmtArgField {
			case "i":
				castC = "(int64_t)(" + ac + ")"
			case "u":
				castC = "(uint64_t)(" + ac + ")"
			case "f":
				castC = "(double)(" + ac + ")"
			default:
				castC = "(" + ac + ")"
			}
			g.w(fmt.Sprintf("%s[%d].tag = %s; %s[%d].val.%s = %s;", arrTmp, i, spec.FmtArgTag, arrTmp, i, spec.FmtArgField, castC))
		}
		resultTmp := g.newTmp()
		g.w(fmt.Sprintf("Str* %s = %sformat(%s, %s, %s, %d);", resultTmp, RTPrefix, srcStr, fmtC, arrTmp, nargs))
		return resultTmp, types.Str{}, nil
	}

	// ---- range (1-3 i64 args, returns List[i64]) ----
	if name == "range" {
		listT := types.List{Elem: types.I64}
		switch len(e.Args) {
		case 1:
			a0, _, err := ba(0)
			if err != nil {
				return "", nil, err
			}
			return fmt.Sprintf("%srange(%s, 0, %s, 1)", RTPrefix, srcStr, a0), listT, nil
		case 2:
			a0, _, err := ba(0)
			if err != nil {
				return "", nil, err
			}
			a1, _, err := ba(1)
			if err != nil {
				return "", nil, err
			}
			return fmt.Sprintf("%srange(%s, %s, %s, 1)", RTPrefix, srcStr, a0, a1), listT, nil
		default:
			a0, _, err := ba(0)
			if err != nil {
				return "", nil, err
			}
			a1, _, err := ba(1)
			if err != nil {
				return "", nil, err
			}
			a2, _, err := ba(2)
			if err != nil {
				return "", nil, err
			}
			return fmt.Sprintf("%srange(%s, %s, %s, %s)", RTPrefix, srcStr, a0, a1, a2), listT, nil
		}
	}

	// ---- keys (1 dict arg, returns List[K]) ----
	if name == "keys" {
		ac, aty, err := ba(0)
		if err != nil {
			return "", nil, err
		}
		dt, ok := aty.(types.Dict)
		if !ok {
			return "", nil, fmt.Errorf("emitter: keys() requires a dict type at %s", srcStr)
		}
		return fmt.Sprintf("Dict_%s_%s_keys(%s, %s)", tag(dt.Key), tag(dt.Val), srcStr, ac), types.List{Elem: dt.Key}, nil
	}

	// ---- len() ----
	if name == "len" {
		ac, aty, err := ba(0)
		if err != nil {
			return "", nil, err
		}
		switch at := aty.(type) {
		case types.List:
			return fmt.Sprintf("List_%s_len(%s)", tag(at.Elem), ac), types.I64, nil
		case types.Dict:
			return fmt.Sprintf("Dict_%s_%s_len(%s)", tag(at.Key), tag(at.Val), ac), types.I64, nil
		case types.Str:
			return fmt.Sprintf("((int64_t)(%s)->len)", ac), types.I64, nil
		}
		return "", nil, fmt.Errorf("emitter: len() does not support type %s at %s", aty, srcStr)
	}

	// ---- generic List/Dict container ops (type param explicit via
	// TypeArgs, or inferred from the first argument's resolved type --
	// the checker validates this but, unlike a generic user function call,
	// never writes an inferred type parameter back into e.TypeArgs) ----
	switch name {
	case "List", "append", "get", "set", "pop", "remove":
		return g.emitListOp(e, name, srcStr)
	case "Dict", "put", "lookup", "has":
		return g.emitDictOp(e, name, srcStr)
	}

	// ---- user-defined generic function call ----
	if len(e.TypeArgs) > 0 {
		return g.emitGenericCall(e, name, srcStr)
	}

	// ---- constructor call: ClassName(args) ----
	if cd, ok := g.reg.classes[name]; ok {
		var initParamTys []types.Type
		if init := findInitMethod(cd.Methods); init != nil {
			for _, p := range init.Params[1:] {
				initParamTys = append(initParamTys, g.reg.mustResolve(p.Ty))
			}
		}
		argsC := []string{srcStr}
		for i, arg := range e.Args {
			ac, aty, err := g.emitArgSafe(arg)
			if err != nil {
				return "", nil, err
			}
			if i < len(initParamTys) {
				ac = g.maybeWrapIface(ac, aty, initParamTys[i])
			}
			argsC = append(argsC, ac)
		}
		return fmt.Sprintf("Class_%s_new(%s)", name, strings.Join(argsC, ", ")), types.Class{Name: name}, nil
	}

	// ---- struct construction: StructName(field1, field2, ...) ----
	if sd, ok := g.reg.structs[name]; ok {
		fieldInits := make([]string, 0, len(sd.Fields))
		for i, fd := range sd.Fields {
			if i >= len(e.Args) {
				break
			}
			ac, _, err := g.emitArgSafe(e.Args[i])
			if err != nil {
				return "", nil, err
			}
			fieldInits = append(fieldInits, fmt.Sprintf(".%s = %s", ciName(fd.Name), ac))
		}
		structT := types.Struct{Name: name}
		return fmt.Sprintf("(%s){%s}", ctype(structT), strings.Join(fieldInits, ", ")), structT, nil
	}

	// ---- plain user function ----
	fd, ok := g.reg.funcs[name]
	if !ok {
		return "", nil, fmt.Errorf("emitter: unknown function %q at %s", name, srcStr)
	}
	var paramTys []types.Type
	for _, p := range fd.Params {
		paramTys = append(paramTys, g.reg.mustResolve(p.Ty))
	}
	argsC := make([]string, len(e.Args))
	for i, arg := range e.Args {
		ac, aty, err := g.emitArgSafe(arg)
		if err != nil {
			return "", nil, err
		}
		if i < len(paramTys) {
			ac = g.maybeWrapIface(ac, aty, paramTys[i])
		}
		argsC[i] = ac
	}
	return fmt.Sprintf("Fn_%s(%s)", name, strings.Join(argsC, ", ")), g.reg.mustResolve(fd.Ret), nil
}

func (g *Generator) emitArgsSafe(args []ast.Expr) ([]string, error) {
	out := make([]string, len(args))
	for i, a := range args {
		ac, _, err := g.emitArgSafe(a)
		if err != nil {
			return nil, err
		}
		out[i] = ac
	}
	return out, nil
}

func (g *Generator) emitMethodCall(e *ast.Call, ma *ast.MemberAccess) (string, types.Type, error) {
	srcStr := src(e.Position())
	objC, objTy, err := g.emitArgSafe(ma.Obj)
	if err != nil {
		return "", nil, err
	}
	mname := ma.Member

	if iface, ok := objTy.(types.Interface); ok {
		g.w(fmt.Sprintf("%snull_check(%s.obj, %s);", RTPrefix, objC, srcStr))
		id, ok := g.reg.interfaces[iface.Name]
		if !ok {
			return "", nil, fmt.Errorf("emitter: unknown interface %q at %s", iface.Name, srcStr)
		}
		argsC := []string{objC + ".obj"}
		rest, err := g.emitArgsSafe(e.Args)
		if err != nil {
			return "", nil, err
		}
		argsC = append(argsC, rest...)
		for _, ms := range id.MethodSigs {
			if ms.Name == mname {
				return fmt.Sprintf("%s.vtbl->%s(%s)", objC, ciName(mname), strings.Join(argsC, ", ")), g.reg.mustResolve(ms.Ret), nil
			}
		}
		return "", nil, fmt.Errorf("emitter: unknown interface method %q on %q at %s", mname, iface.Name, srcStr)
	}

	argsC := []string{objC}
	rest, err := g.emitArgsSafe(e.Args)
	if err != nil {
		return "", nil, err
	}
	argsC = append(argsC, rest...)

	if st, ok := objTy.(types.Struct); ok {
		if sd, ok2 := g.reg.structs[st.Name]; ok2 {
			for _, m := range sd.Methods {
				if m.Name == mname {
					return fmt.Sprintf("Struct_%s_%s(%s)", st.Name, mname, strings.Join(argsC, ", ")), g.reg.mustResolve(m.Ret), nil
				}
			}
		}
	}
	if cl, ok := objTy.(types.Class); ok {
		g.w(fmt.Sprintf("%snull_check(%s, %s);", RTPrefix, objC, srcStr))
		if cd, ok2 := g.reg.classes[cl.Name]; ok2 {
			for _, m := range cd.Methods {
				if m.Name == mname {
					return fmt.Sprintf("Class_%s_%s(%s)", cl.Name, mname, strings.Join(argsC, ", ")), g.reg.mustResolve(m.Ret), nil
				}
			}
		}
	}
	return "", nil, fmt.Errorf("emitter: unknown method %q on type %s at %s", mname, objTy, srcStr)
}

// exprStaticType reads e's already-resolved type off the checked AST without
// emitting anything -- used to infer a List/Dict op's element type from its
// first argument when the call carries no explicit type argument. The
// checker validates this inference but, unlike a generic user function
// call, never writes the inferred parameter back into e.TypeArgs.
func exprStaticType(e ast.Expr) (types.Type, bool) {
	t, ok := e.(ast.Typed)
	if !ok {
		return nil, false
	}
	return t.Type(), true
}

func (g *Generator) emitListOp(e *ast.Call, name, srcStr string) (string, types.Type, error) {
	var elem types.Type
	if len(e.TypeArgs) == 1 {
		elem = g.reg.mustResolve(e.TypeArgs[0])
	} else if name != "List" && len(e.Args) > 0 {
		if t, ok := exprStaticType(e.Args[0]); ok {
			if lt, ok2 := t.(types.List); ok2 {
				elem = lt.Elem
			}
		}
	}
	if elem == nil {
		return "", nil, fmt.Errorf("emitter: cannot determine element type for %q at %s", name, srcStr)
	}
	tg := tag(elem)

	switch name {
	case "List":
		return fmt.Sprintf("List_%s_new(%s)", tg, srcStr), types.List{Elem: elem}, nil

	case "append":
		listC, _, err := g.emitArgSafe(e.Args[0])
		if err != nil {
			return "", nil, err
		}
		valC, valTy, err := g.emitArgSafe(e.Args[1])
		if err != nil {
			return "", nil, err
		}
		valC = g.maybeWrapIface(valC, valTy, elem)
		return fmt.Sprintf("List_%s_push(%s, %s, %s)", tg, srcStr, listC, valC), types.Void, nil

	case "get":
		listC, _, err := g.emitArgSafe(e.Args[0])
		if err != nil {
			return "", nil, err
		}
		idxC, _, err := g.emitArgSafe(e.Args[1])
		if err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("List_%s_get(%s, %s, %s)", tg, srcStr, listC, idxC), elem, nil

	case "set":
		listC, _, err := g.emitArgSafe(e.Args[0])
		if err != nil {
			return "", nil, err
		}
		idxC, _, err := g.emitArgSafe(e.Args[1])
		if err != nil {
			return "", nil, err
		}
		valC, valTy, err := g.emitArgSafe(e.Args[2])
		if err != nil {
			return "", nil, err
		}
		valC = g.maybeWrapIface(valC, valTy, elem)
		return fmt.Sprintf("List_%s_set(%s, %s, %s, %s)", tg, srcStr, listC, idxC, valC), types.Void, nil

	case "pop":
		listC, _, err := g.emitArgSafe(e.Args[0])
		if err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("List_%s_pop(%s, %s)", tg, srcStr, listC), elem, nil

	case "remove":
		listC, _, err := g.emitArgSafe(e.Args[0])
		if err != nil {
			return "", nil, err
		}
		idxC, _, err := g.emitArgSafe(e.Args[1])
		if err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("List_%s_remove(%s, %s, %s)", tg, srcStr, listC, idxC), types.Void, nil
	}
	return "", nil, fmt.Errorf("emitter: unknown list operation %q at %s", name, srcStr)
}

func (g *Generator) emitDictOp(e *ast.Call, name, srcStr string) (string, types.Type, error) {
	var key, val types.Type
	if len(e.TypeArgs) == 2 {
		key = g.reg.mustResolve(e.TypeArgs[0])
		val = g.reg.mustResolve(e.TypeArgs[1])
	} else if name != "Dict" && len(e.Args) > 0 {
		if t, ok := exprStaticType(e.Args[0]); ok {
			if dt, ok2 := t.(types.Dict); ok2 {
				key, val = dt.Key, dt.Val
			}
		}
	}
	if key == nil || val == nil {
		return "", nil, fmt.Errorf("emitter: cannot determine key/value type for %q at %s", name, srcStr)
	}
	kt, vt := tag(key), tag(val)

	switch name {
	case "Dict":
		return fmt.Sprintf("Dict_%s_%s_new(%s)", kt, vt, srcStr), types.Dict{Key: key, Val: val}, nil

	case "put":
		dictC, _, err := g.emitArgSafe(e.Args[0])
		if err != nil {
			return "", nil, err
		}
		keyC, _, err := g.emitArgSafe(e.Args[1])
		if err != nil {
			return "", nil, err
		}
		valC, valTy, err := g.emitArgSafe(e.Args[2])
		if err != nil {
			return "", nil, err
		}
		valC = g.maybeWrapIface(valC, valTy, val)
		return fmt.Sprintf("Dict_%s_%s_set(%s, %s, %s, %s)", kt, vt, srcStr, dictC, keyC, valC), types.Void, nil

	case "lookup":
		dictC, _, err := g.emitArgSafe(e.Args[0])
		if err != nil {
			return "", nil, err
		}
		keyC, _, err := g.emitArgSafe(e.Args[1])
		if err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("Dict_%s_%s_get(%s, %s, %s)", kt, vt, srcStr, dictC, keyC), val, nil

	case "has":
		dictC, _, err := g.emitArgSafe(e.Args[0])
		if err != nil {
			return "", nil, err
		}
		keyC, _, err := g.emitArgSafe(e.Args[1])
		if err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("Dict_%s_%s_has(%s, %s, %s)", kt, vt, srcStr, dictC, keyC), types.Bool, nil
	}
	return "", nil, fmt.Errorf("emitter: unknown dict operation %q at %s", name, srcStr)
}

// emitGenericCall dispatches a call to a user-defined generic function,
// whose single type parameter the checker always resolves and writes back
// into e.TypeArgs -- unlike the List/Dict builtin ops above, which the
// checker validates without recording the inference.
func (g *Generator) emitGenericCall(e *ast.Call, name, srcStr string) (string, types.Type, error) {
	tp := g.reg.mustResolve(e.TypeArgs[0])
	mangled := name + "_" + tag(tp)
	fd, ok := g.reg.funcs[mangled]
	if !ok {
		return "", nil, fmt.Errorf("emitter: unknown generic function %q[%s] at %s", name, tp, srcStr)
	}
	argsC, err := g.emitArgsSafe(e.Args)
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("Fn_%s(%s)", mangled, strings.Join(argsC, ", ")), g.reg.mustResolve(fd.Ret), nil
}
