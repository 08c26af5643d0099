// Package mutlib parses the `.mutlib` extern-library manifest format: an
// INI-style file with `[types]`, `[functions]`, `[constants]`, and
// `[flags]` sections describing the native C surface an `extern` import
// binds to.
package mutlib

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

type ExternFunc struct {
	BismutName string
	Params     []Param
	RetType    string
	CName      string
	IsDtor     bool
	Doc        string
	Line       int
}

type Param struct {
	Name string
	Type string
}

type ExternConst struct {
	BismutName string
	Ty         string
	CExpr      string
	Doc        string
	Line       int
}

type ExternType struct {
	BismutName string
	CType      string
	CDtor      string
	Doc        string
	Line       int
}

type Manifest struct {
	Name     string
	LibDir   string
	Types    []ExternType
	Funcs    []ExternFunc
	Consts   []ExternConst
	CSource  string // "" if the lib has no accompanying .c file
	Cflags   []string
	Ldflags  []string
}

// Error is a manifest parse failure, always anchored to a (file, line).
type Error struct {
	File string
	Line int
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
}

// CurrentPlatform maps runtime.GOOS onto the manifest's flag-key platform
// suffix (linux|macos|win).
func CurrentPlatform() string {
	switch runtime.GOOS {
	case "darwin":
		return "macos"
	case "windows":
		return "win"
	default:
		return "linux"
	}
}

// Parse reads a .mutlib manifest from path, resolving platform-specific
// [flags] entries and {LIB_DIR} substitution, and linking [dtor]-tagged
// functions back to their declared [types] entry.
func Parse(path, libName, libDir, targetPlatform string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var types []ExternType
	var funcs []ExternFunc
	var consts []ExternConst
	flagEntries := map[string]string{}
	section := ""
	var docLines []string

	flushDoc := func() string {
		if len(docLines) == 0 {
			return ""
		}
		doc := strings.Join(docLines, "\n")
		docLines = nil
		return doc
	}

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			docLines = nil
			continue
		}
		if strings.HasPrefix(raw, "#") {
			docLines = append(docLines, stripComment(raw))
			continue
		}
		if strings.HasPrefix(raw, "[") && strings.HasSuffix(raw, "]") {
			section = strings.ToLower(strings.TrimSpace(raw[1 : len(raw)-1]))
			docLines = nil
			continue
		}

		doc := flushDoc()

		switch section {
		case "types":
			t, err := parseTypeLine(raw, path, lineNo)
			if err != nil {
				return nil, err
			}
			t.Doc, t.Line = doc, lineNo
			types = append(types, t)
		case "functions":
			fn, err := parseFuncLine(raw, path, lineNo)
			if err != nil {
				return nil, err
			}
			fn.Doc, fn.Line = doc, lineNo
			funcs = append(funcs, fn)
		case "constants":
			c, err := parseConstLine(raw, path, lineNo)
			if err != nil {
				return nil, err
			}
			c.Doc, c.Line = doc, lineNo
			consts = append(consts, c)
		case "flags":
			if k, v, ok := strings.Cut(raw, "="); ok {
				flagEntries[strings.TrimSpace(k)] = strings.TrimSpace(v)
			}
		default:
			return nil, &Error{path, lineNo, fmt.Sprintf("unknown section or orphan line: %q", raw)}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	cSource := filepath.Join(libDir, libName+".c")
	if _, err := os.Stat(cSource); err != nil {
		cSource = ""
	}

	cflags, ldflags := resolveFlags(flagEntries, targetPlatform)
	for i, f := range cflags {
		cflags[i] = strings.ReplaceAll(f, "{LIB_DIR}", libDir)
	}
	for i, f := range ldflags {
		ldflags[i] = strings.ReplaceAll(f, "{LIB_DIR}", libDir)
	}

	typeByName := map[string]*ExternType{}
	for i := range types {
		typeByName[types[i].BismutName] = &types[i]
	}
	for i, fn := range funcs {
		if !fn.IsDtor {
			continue
		}
		if len(fn.Params) == 0 {
			return nil, &Error{path, fn.Line, fmt.Sprintf("[dtor] function %q must have at least one parameter", fn.BismutName)}
		}
		firstTy := fn.Params[0].Type
		t, ok := typeByName[firstTy]
		if !ok {
			return nil, &Error{path, fn.Line, fmt.Sprintf("[dtor] function %q first parameter type %q is not a declared [types] entry", fn.BismutName, firstTy)}
		}
		t.CDtor = fn.CName
		funcs[i] = fn
	}

	return &Manifest{
		Name: libName, LibDir: libDir, Types: types, Funcs: funcs, Consts: consts,
		CSource: cSource, Cflags: cflags, Ldflags: ldflags,
	}, nil
}

func stripComment(line string) string {
	if len(line) > 1 && line[1] == ' ' {
		return line[2:]
	}
	return line[1:]
}

func parseTypeLine(line, path string, lineNo int) (ExternType, error) {
	name, cType, ok := strings.Cut(line, "=")
	if !ok {
		return ExternType{}, &Error{path, lineNo, fmt.Sprintf("type line must have '= c_type': %q", line)}
	}
	return ExternType{BismutName: strings.TrimSpace(name), CType: strings.TrimSpace(cType)}, nil
}

func parseFuncLine(line, path string, lineNo int) (ExternFunc, error) {
	sigPart, cName, ok := cutLast(line, "=")
	if !ok {
		return ExternFunc{}, &Error{path, lineNo, fmt.Sprintf("function line must have '= c_name': %q", line)}
	}
	sigPart = strings.TrimSpace(sigPart)
	cName = strings.TrimSpace(cName)

	open := strings.Index(sigPart, "(")
	if open < 0 {
		return ExternFunc{}, &Error{path, lineNo, fmt.Sprintf("missing '(' in function line: %q", line)}
	}
	bismutName := strings.TrimSpace(sigPart[:open])
	rest := sigPart[open+1:]

	closeIdx := strings.Index(rest, ")")
	if closeIdx < 0 {
		return ExternFunc{}, &Error{path, lineNo, fmt.Sprintf("missing ')' in function line: %q", line)}
	}
	paramsStr := strings.TrimSpace(rest[:closeIdx])
	afterParen := strings.TrimSpace(rest[closeIdx+1:])

	var params []Param
	if paramsStr != "" {
		for _, p := range strings.Split(paramsStr, ",") {
			p = strings.TrimSpace(p)
			name, ty, ok := strings.Cut(p, ":")
			if !ok {
				return ExternFunc{}, &Error{path, lineNo, fmt.Sprintf("param must have 'name: type': %q", p)}
			}
			params = append(params, Param{Name: strings.TrimSpace(name), Type: strings.TrimSpace(ty)})
		}
	}

	isDtor := false
	if strings.Contains(afterParen, "[dtor]") {
		isDtor = true
		afterParen = strings.TrimSpace(strings.ReplaceAll(afterParen, "[dtor]", ""))
	}

	retType := "void"
	if strings.HasPrefix(afterParen, "->") {
		retType = strings.TrimSpace(afterParen[2:])
	}

	return ExternFunc{BismutName: bismutName, Params: params, RetType: retType, CName: cName, IsDtor: isDtor}, nil
}

func parseConstLine(line, path string, lineNo int) (ExternConst, error) {
	declPart, cExpr, ok := strings.Cut(line, "=")
	if !ok {
		return ExternConst{}, &Error{path, lineNo, fmt.Sprintf("constant line must have '= value': %q", line)}
	}
	declPart = strings.TrimSpace(declPart)
	cExpr = strings.TrimSpace(cExpr)

	name, ty, ok := strings.Cut(declPart, ":")
	if !ok {
		return ExternConst{}, &Error{path, lineNo, fmt.Sprintf("constant must have 'NAME: type': %q", declPart)}
	}
	return ExternConst{BismutName: strings.TrimSpace(name), Ty: strings.TrimSpace(ty), CExpr: cExpr}, nil
}

func resolveFlags(entries map[string]string, targetPlatform string) ([]string, []string) {
	plat := targetPlatform
	if plat == "" {
		plat = CurrentPlatform()
	}
	var cflags, ldflags []string
	if v := entries["cflags"]; v != "" {
		cflags = append(cflags, strings.Fields(v)...)
	}
	if v := entries["ldflags"]; v != "" {
		ldflags = append(ldflags, strings.Fields(v)...)
	}
	if v := entries["cflags_"+plat]; v != "" {
		cflags = append(cflags, strings.Fields(v)...)
	}
	if v := entries["ldflags_"+plat]; v != "" {
		ldflags = append(ldflags, strings.Fields(v)...)
	}
	return cflags, ldflags
}

// cutLast is strings.Cut from the last occurrence of sep, needed because a
// C function name itself may legitimately contain '=' in neither position
// we care about, but the manifest format places the bismut-side signature
// before the final '='.
func cutLast(s, sep string) (before, after string, found bool) {
	i := strings.LastIndex(s, sep)
	if i < 0 {
		return s, "", false
	}
	return s[:i], s[i+len(sep):], true
}

// FindLib locates a library directory by Bismut's two-stage search order:
// libs/ next to the importing source file, then libs/ next to the compiler
// binary.
func FindLib(libName, srcFile, compilerDir string) (string, bool) {
	srcDir := filepath.Dir(absPath(srcFile))
	candidates := []string{
		filepath.Join(srcDir, "libs", libName),
		filepath.Join(compilerDir, "libs", libName),
	}
	for _, d := range candidates {
		manifest := filepath.Join(d, libName+".mutlib")
		if _, err := os.Stat(manifest); err == nil {
			abs, err := filepath.Abs(d)
			if err == nil {
				return abs, true
			}
		}
	}
	return "", false
}

func absPath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	return abs
}

// DefaultLiteralFor returns the zero-value C expression kind for a Bismut
// extern constant's declared type, used to synthesize a placeholder
// initializer expression the type checker can assign a type to: extern
// constants get a typed but value-less declaration.
func DefaultLiteralFor(ty string) (kind string, text string) {
	switch ty {
	case "i8", "i16", "i32", "i64", "u8", "u16", "u32", "u64":
		return "int", "0"
	case "f32", "f64":
		return "float", "0.0"
	case "bool":
		return "bool", "False"
	case "str":
		return "str", `""`
	default:
		return "int", "0"
	}
}
