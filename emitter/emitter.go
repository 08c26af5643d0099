// Package emitter is the Bismut C99 code generator: it walks a checked
// *ast.Program -- every expression already annotated with its resolved
// types.Type via the ast.Typed interface -- and produces a single
// translation unit implementing containers, classes, interfaces, structs,
// ARC insertion, format strings, globals and main.
package emitter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bismut-lang/bismut/ast"
	"github.com/bismut-lang/bismut/types"
)

// RTPrefix names every call into the runtime support library assumed to be
// provided alongside the emitted C file -- out of scope to implement here,
// only its call shape is targeted.
const RTPrefix = "bismut_rt_"

// RTHeader is the single header the emitted translation unit includes for
// the runtime ABI (refcounting, Str, List/Dict templates, print/format,
// panics).
const RTHeader = "bismut_runtime.h"

// RTSrcType names the runtime's (file,line,col) value type, passed to every
// fallible runtime call so panics report a source location.
const RTSrcType = RTPrefix + "Src"

// Generator holds all state accumulated while emitting one program: the
// registries built from the checked AST, the C-text output buffer, and the
// scope/ARC bookkeeping used while walking function bodies.
type Generator struct {
	prog *ast.Program

	out strings.Builder
	ind int

	tmp int

	reg *registry

	scopes           []*scope
	globalScopeDepth int
	loopScopeDepths  []int
	pendingReleases  []varInfo

	usedListTags  map[string]types.Type
	usedDictTags  map[string]types.Type
	usedTupleTags map[string]types.Tuple
	usedFnTags    map[string]types.FnPtr

	internedStrings map[string]string // raw literal text -> C symbol name
	internOrder     []string

	curFnRet types.Type

	debugLeaks bool
}

// New creates a Generator for prog. debugLeaks enables the runtime leak
// report emitted at program exit, matching the driver's --no-debug-leaks
// flag.
func New(prog *ast.Program, debugLeaks bool) *Generator {
	return &Generator{
		prog:            prog,
		reg:             buildRegistry(prog),
		usedListTags:    map[string]types.Type{},
		usedDictTags:    map[string]types.Type{},
		usedTupleTags:   map[string]types.Tuple{},
		usedFnTags:      map[string]types.FnPtr{},
		internedStrings: map[string]string{},
		debugLeaks:      debugLeaks,
	}
}

// Generate runs the full emission pipeline and returns the complete C99
// source text for prog.
func Generate(prog *ast.Program, debugLeaks bool) (string, error) {
	g := New(prog, debugLeaks)
	return g.Generate()
}

func (g *Generator) Generate() (string, error) {
	g.collectTypeUses()

	g.w("/* generated by the Bismut compiler -- do not edit */")
	g.w("#include <" + RTHeader + ">")
	for _, inc := range g.prog.ExternIncludes {
		g.w(fmt.Sprintf("/* extern source: %s (compiled separately by the driver) */", inc))
	}
	g.w("")

	if err := g.emitFnTypedefs(); err != nil {
		return "", err
	}
	g.emitClassForwardTypedefs()
	g.emitInterfaceTypes()
	g.emitStructTypedefs()
	if err := g.emitContainerInstantiations(); err != nil {
		return "", err
	}
	g.emitTupleTypedefs()

	for _, cd := range g.prog.Classes {
		g.emitClassStruct(cd)
	}
	for _, sd := range g.prog.Structs {
		g.emitStructMethodProtos(sd)
	}
	g.emitFuncPrototypes()

	if err := g.declareGlobalVars(); err != nil {
		return "", err
	}

	for _, cd := range g.prog.Classes {
		if err := g.emitClassMethods(cd); err != nil {
			return "", err
		}
	}
	for _, sd := range g.prog.Structs {
		if err := g.emitStructMethods(sd); err != nil {
			return "", err
		}
	}
	g.emitVtableInstances()

	for _, fd := range g.prog.Funcs {
		if fd.IsGeneric() {
			continue
		}
		if err := g.emitFunction(fd); err != nil {
			return "", err
		}
	}

	if err := g.emitInitGlobals(); err != nil {
		return "", err
	}
	if err := g.emitProgramBody(); err != nil {
		return "", err
	}
	g.emitExitGlobals()
	g.emitMain()

	return g.spliceInternedStrings(), nil
}

// ---- output helpers ----

func (g *Generator) w(line string) {
	if line == "" {
		g.out.WriteString("\n")
		return
	}
	g.out.WriteString(strings.Repeat("    ", g.ind))
	g.out.WriteString(line)
	g.out.WriteString("\n")
}

func (g *Generator) newTmp() string {
	g.tmp++
	return fmt.Sprintf("__t%d", g.tmp)
}

// spliceInternedStrings inserts the file-scope Str* declarations for every
// interned string literal right after the runtime include; their values
// are assigned later, inside init_globals. The full body is emitted first
// and the string table spliced in afterward, since Go's strings.Builder
// gives no way to reserve a position to backfill.
func (g *Generator) spliceInternedStrings() string {
	if len(g.internOrder) == 0 {
		return g.out.String()
	}
	var sb strings.Builder
	sb.WriteString("/* interned string literals, assigned in init_globals */\n")
	for _, raw := range g.internOrder {
		sym := g.internedStrings[raw]
		sb.WriteString(fmt.Sprintf("static Str* %s = NULL;\n", sym))
	}
	sb.WriteString("\n")
	body := g.out.String()
	marker := "#include <" + RTHeader + ">\n"
	idx := strings.Index(body, marker)
	if idx < 0 {
		return sb.String() + body
	}
	insertAt := idx + len(marker)
	return body[:insertAt] + "\n" + sb.String() + body[insertAt:]
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
