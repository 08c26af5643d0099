package resolver

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bismut-lang/bismut/ast"
	"github.com/bismut-lang/bismut/lexer"
	"github.com/bismut-lang/bismut/mutlib"
	"github.com/bismut-lang/bismut/parser"
	"github.com/bismut-lang/bismut/preprocess"
	"github.com/bismut-lang/bismut/token"
)

// Loader owns the state shared across one compilation: where the compiler's
// own modules/ and libs/ directories live, and which preprocessor defines
// are active.
type Loader struct {
	CompilerDir    string
	ExtraDefines   map[string]bool
	TargetPlatform string // "" uses the host platform
}

// ParseFile preprocesses, lexes and parses one source file into a Program
// with imports and externs still unresolved.
func (l *Loader) ParseFile(path string) (*ast.Program, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	processed, err := preprocess.Process(string(raw), path, l.ExtraDefines)
	if err != nil {
		return nil, err
	}
	lx := lexer.New(processed, path)
	toks, err := lx.Tokenize()
	if err != nil {
		return nil, err
	}
	p := parser.New(toks, lx.Comments)
	return p.ParseProgram()
}

// Resolve fully resolves prog (read from entryFile), recursively resolving
// every imported module's own imports and externs, merging everything into
// one flattened Program the checker can operate on without ever knowing
// modules existed.
func (l *Loader) Resolve(prog *ast.Program, entryFile string) (*ast.Program, error) {
	loading := map[string]bool{}
	if abs, err := filepath.Abs(entryFile); err == nil {
		loading[abs] = true
	}
	prog, err := l.resolveImports(prog, filepath.Dir(entryFile), loading)
	if err != nil {
		return nil, err
	}
	if err := l.resolveExterns(prog, entryFile); err != nil {
		return nil, err
	}
	return prog, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ---- extern resolution (grounded on import_resolver.py's resolve_externs) ----

func (l *Loader) resolveExterns(prog *ast.Program, srcFile string) error {
	if prog.ExternTypeInfo == nil {
		prog.ExternTypeInfo = map[string]ast.ExternTypeBinding{}
	}
	if prog.ExternConstants == nil {
		prog.ExternConstants = map[string]ast.ExternConstBinding{}
	}

	existingFuncs := map[string]bool{}
	for _, f := range prog.Funcs {
		existingFuncs[f.Name] = true
	}
	existingClasses := map[string]bool{}
	for _, c := range prog.Classes {
		existingClasses[c.Name] = true
	}
	existingConsts := map[string]bool{}
	for _, st := range prog.Stmts {
		if vd, ok := st.(*ast.VarDecl); ok {
			existingConsts[vd.Name] = true
		}
	}

	seenLibs := map[string]bool{}
	moduleAliases := map[string]bool{}

	for _, ext := range prog.Externs {
		libDir, ok := mutlib.FindLib(ext.Name, srcFile, l.CompilerDir)
		if !ok {
			return &Error{srcFile, "extern library not found: " + ext.Name}
		}
		manifest, err := mutlib.Parse(filepath.Join(libDir, ext.Name+".mutlib"), ext.Name, libDir, l.TargetPlatform)
		if err != nil {
			return err
		}
		alias := ext.Alias

		libTypeNames := map[string]bool{}
		for _, t := range manifest.Types {
			libTypeNames[t.BismutName] = true
		}

		for _, et := range manifest.Types {
			mangled := alias + "__" + et.BismutName
			if !existingClasses[mangled] {
				prog.Classes = append([]*ast.ClassDecl{{Pos: ext.Pos, Name: mangled, Doc: et.Doc}}, prog.Classes...)
				existingClasses[mangled] = true
			}
			prog.ExternTypeInfo[mangled] = ast.ExternTypeBinding{CType: et.CType, CDtor: et.CDtor}
		}

		for _, ef := range manifest.Funcs {
			params := make([]ast.Param, len(ef.Params))
			for i, p := range ef.Params {
				ty := p.Type
				if libTypeNames[ty] {
					ty = alias + "__" + ty
				}
				params[i] = ast.Param{Name: p.Name, Ty: ast.TypeRef{Pos: ext.Pos, Name: ty}}
			}
			retTy := ef.RetType
			if libTypeNames[retTy] {
				retTy = alias + "__" + retTy
			}
			mangled := alias + "__" + ef.BismutName
			if !existingFuncs[mangled] {
				fd := &ast.FuncDecl{
					Pos: ext.Pos, Name: mangled, Params: params,
					Ret: ast.TypeRef{Pos: ext.Pos, Name: retTy},
					Body: ast.NewBlock(ext.Pos), ExternCName: ef.CName, Doc: ef.Doc,
				}
				prog.Funcs = append([]*ast.FuncDecl{fd}, prog.Funcs...)
				existingFuncs[mangled] = true
			}
		}

		for _, ec := range manifest.Consts {
			mangled := alias + "__" + ec.BismutName
			if !existingConsts[mangled] {
				kind, text := mutlib.DefaultLiteralFor(ec.Ty)
				var value ast.Expr
				switch kind {
				case "float":
					value = ast.NewFloatLit(ext.Pos, 0)
				case "bool":
					value = ast.NewBoolLit(ext.Pos, false)
				case "str":
					value = ast.NewStringLit(ext.Pos, text, token.RegularString)
				default:
					value = ast.NewIntLit(ext.Pos, 0, token.Decimal)
				}
				decl := ast.NewVarDecl(ext.Pos, mangled, &ast.TypeRef{Pos: ext.Pos, Name: ec.Ty}, value, true, false)
				prog.Stmts = append([]ast.Stmt{decl}, prog.Stmts...)
				existingConsts[mangled] = true
			}
			prog.ExternConstants[mangled] = ast.ExternConstBinding{CExpr: ec.CExpr, Ty: ec.Ty}
		}

		if !seenLibs[ext.Name] {
			if manifest.CSource != "" && !contains(prog.ExternIncludes, manifest.CSource) {
				prog.ExternIncludes = append(prog.ExternIncludes, manifest.CSource)
			}
			prog.ExternCflags = append(prog.ExternCflags, manifest.Cflags...)
			prog.ExternLdflags = append(prog.ExternLdflags, manifest.Ldflags...)
			seenLibs[ext.Name] = true
		}

		moduleAliases[alias] = true
	}

	if len(moduleAliases) > 0 {
		resolveDecls(prog.Funcs, prog.Classes, prog.Structs, prog.Interfaces, moduleAliases)
		onTr := func(tr ast.TypeRef) ast.TypeRef { return resolveTypeRef(tr, moduleAliases) }
		onEx := func(e ast.Expr) ast.Expr { return resolveExpr(e, moduleAliases) }
		walkStmts(prog.Stmts, onTr, onEx)
	}
	return nil
}

func contains(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

// ---- import resolution (grounded on import_resolver.py's resolve_imports) ----

func (l *Loader) resolveImports(prog *ast.Program, baseDir string, loading map[string]bool) (*ast.Program, error) {
	moduleAliases := map[string]bool{}

	for _, imp := range prog.Imports {
		rel := strings.ReplaceAll(imp.Module, ".", string(filepath.Separator)) + ".mut"
		modPath := filepath.Join(baseDir, rel)
		if !fileExists(modPath) {
			modPath = filepath.Join(l.CompilerDir, "modules", rel)
		}
		if !fileExists(modPath) {
			modPath = filepath.Join(l.CompilerDir, "src", rel)
		}
		if !fileExists(modPath) {
			return nil, &Error{baseDir, "cannot find module: " + imp.Module}
		}

		absModPath, err := filepath.Abs(modPath)
		if err != nil {
			return nil, err
		}
		if loading[absModPath] {
			return nil, &Error{absModPath, "import cycle detected: " + imp.Module}
		}
		loading[absModPath] = true

		mod, err := l.ParseFile(absModPath)
		if err != nil {
			return nil, err
		}
		mod, err = l.resolveImports(mod, filepath.Dir(absModPath), loading)
		if err != nil {
			return nil, err
		}
		if err := l.resolveExterns(mod, absModPath); err != nil {
			return nil, err
		}
		delete(loading, absModPath)

		alias := imp.Alias
		renameAndMerge(prog, mod, alias)
		moduleAliases[alias] = true
	}

	if len(moduleAliases) > 0 {
		resolveDecls(prog.Funcs, prog.Classes, prog.Structs, prog.Interfaces, moduleAliases)
		onTr := func(tr ast.TypeRef) ast.TypeRef { return resolveTypeRef(tr, moduleAliases) }
		onEx := func(e ast.Expr) ast.Expr { return resolveExpr(e, moduleAliases) }
		walkStmts(prog.Stmts, onTr, onEx)
	}
	return prog, nil
}

// renameAndMerge prefixes every local (non-extern, non-already-mangled)
// top-level name in mod with "alias__" and folds its declarations into
// prog, mirroring resolve_imports' per-module rename-then-merge step.
func renameAndMerge(prog, mod *ast.Program, alias string) {
	externFuncNames := map[string]bool{}
	for _, f := range mod.Funcs {
		if f.ExternCName != "" {
			externFuncNames[f.Name] = true
		}
	}
	externClassNames := map[string]bool{}
	for name := range mod.ExternTypeInfo {
		externClassNames[name] = true
	}
	externConstNames := map[string]bool{}
	for name := range mod.ExternConstants {
		externConstNames[name] = true
	}

	rmap := map[string]string{}
	addLocal := func(name string, alreadyExtern bool) {
		if alreadyExtern || strings.Contains(name, "__") {
			return
		}
		rmap[name] = alias + "__" + name
	}
	for _, f := range mod.Funcs {
		addLocal(f.Name, externFuncNames[f.Name])
	}
	for _, c := range mod.Classes {
		addLocal(c.Name, externClassNames[c.Name])
	}
	for _, s := range mod.Structs {
		addLocal(s.Name, false)
	}
	for _, i := range mod.Interfaces {
		addLocal(i.Name, false)
	}
	for _, e := range mod.Enums {
		addLocal(e.Name, false)
	}
	for _, st := range mod.Stmts {
		if vd, ok := st.(*ast.VarDecl); ok {
			addLocal(vd.Name, externConstNames[vd.Name])
		}
	}

	renameDeclNames(mod, rmap)

	onTr := func(tr ast.TypeRef) ast.TypeRef { return renameTypeRef(tr, rmap) }
	onEx := func(e ast.Expr) ast.Expr { return renameExpr(e, rmap) }
	walkDecls(mod.Funcs, mod.Classes, mod.Structs, mod.Interfaces, onTr, onEx, rmap)
	walkStmts(mod.Stmts, onTr, func(e ast.Expr) ast.Expr { return renameExpr(e, rmap) })

	mergeProgram(prog, mod)
}

// renameDeclNames rewrites the declared names (and implements clauses)
// themselves, as opposed to references to them inside bodies.
func renameDeclNames(mod *ast.Program, rmap map[string]string) {
	for _, f := range mod.Funcs {
		if nv, ok := rmap[f.Name]; ok {
			f.Name = nv
		}
	}
	for _, c := range mod.Classes {
		if nv, ok := rmap[c.Name]; ok {
			c.Name = nv
		}
		for i, impl := range c.Implements {
			if nv, ok := rmap[impl]; ok {
				c.Implements[i] = nv
			}
		}
	}
	for _, s := range mod.Structs {
		if nv, ok := rmap[s.Name]; ok {
			s.Name = nv
		}
	}
	for _, i := range mod.Interfaces {
		if nv, ok := rmap[i.Name]; ok {
			i.Name = nv
		}
	}
	for _, e := range mod.Enums {
		if nv, ok := rmap[e.Name]; ok {
			e.Name = nv
		}
	}
	for _, st := range mod.Stmts {
		if vd, ok := st.(*ast.VarDecl); ok {
			if nv, ok := rmap[vd.Name]; ok {
				vd.Name = nv
			}
		}
	}
}

// mergeProgram folds a resolved, renamed module into the importing
// program, deduplicating by name and merging extern build metadata.
func mergeProgram(prog, mod *ast.Program) {
	existingFuncs := map[string]bool{}
	for _, f := range prog.Funcs {
		existingFuncs[f.Name] = true
	}
	for _, f := range mod.Funcs {
		if !existingFuncs[f.Name] {
			prog.Funcs = append([]*ast.FuncDecl{f}, prog.Funcs...)
			existingFuncs[f.Name] = true
		}
	}

	existingClasses := map[string]bool{}
	for _, c := range prog.Classes {
		existingClasses[c.Name] = true
	}
	for _, c := range mod.Classes {
		if !existingClasses[c.Name] {
			prog.Classes = append([]*ast.ClassDecl{c}, prog.Classes...)
			existingClasses[c.Name] = true
		}
	}

	existingStructs := map[string]bool{}
	for _, s := range prog.Structs {
		existingStructs[s.Name] = true
	}
	for _, s := range mod.Structs {
		if !existingStructs[s.Name] {
			prog.Structs = append([]*ast.StructDecl{s}, prog.Structs...)
			existingStructs[s.Name] = true
		}
	}

	existingIfaces := map[string]bool{}
	for _, i := range prog.Interfaces {
		existingIfaces[i.Name] = true
	}
	for _, i := range mod.Interfaces {
		if !existingIfaces[i.Name] {
			prog.Interfaces = append([]*ast.InterfaceDecl{i}, prog.Interfaces...)
			existingIfaces[i.Name] = true
		}
	}

	existingEnums := map[string]bool{}
	for _, e := range prog.Enums {
		existingEnums[e.Name] = true
	}
	for _, e := range mod.Enums {
		if !existingEnums[e.Name] {
			prog.Enums = append([]*ast.EnumDecl{e}, prog.Enums...)
			existingEnums[e.Name] = true
		}
	}

	existingConsts := map[string]bool{}
	for _, st := range prog.Stmts {
		if vd, ok := st.(*ast.VarDecl); ok {
			existingConsts[vd.Name] = true
		}
	}
	for _, st := range mod.Stmts {
		vd, ok := st.(*ast.VarDecl)
		if !ok || existingConsts[vd.Name] {
			continue
		}
		// non-declaration top-level statements in an imported module have
		// no observable effect once merged; only its const declarations do.
		prog.Stmts = append([]ast.Stmt{vd}, prog.Stmts...)
		existingConsts[vd.Name] = true
	}

	if prog.ExternTypeInfo == nil {
		prog.ExternTypeInfo = map[string]ast.ExternTypeBinding{}
	}
	for k, v := range mod.ExternTypeInfo {
		prog.ExternTypeInfo[k] = v
	}
	if prog.ExternConstants == nil {
		prog.ExternConstants = map[string]ast.ExternConstBinding{}
	}
	for k, v := range mod.ExternConstants {
		prog.ExternConstants[k] = v
	}
	for _, inc := range mod.ExternIncludes {
		if !contains(prog.ExternIncludes, inc) {
			prog.ExternIncludes = append(prog.ExternIncludes, inc)
		}
	}
	for _, fl := range mod.ExternCflags {
		if !contains(prog.ExternCflags, fl) {
			prog.ExternCflags = append(prog.ExternCflags, fl)
		}
	}
	for _, fl := range mod.ExternLdflags {
		if !contains(prog.ExternLdflags, fl) {
			prog.ExternLdflags = append(prog.ExternLdflags, fl)
		}
	}
}
