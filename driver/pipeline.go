package driver

import (
	"os"

	"github.com/alecthomas/repr"
	"github.com/ztrue/tracerr"

	"github.com/bismut-lang/bismut/ast"
	"github.com/bismut-lang/bismut/checker"
	"github.com/bismut-lang/bismut/diagnostics"
	"github.com/bismut-lang/bismut/resolver"
)

// Options carries the flags common to all three subcommands.
type Options struct {
	CompilerDir string
	Defines     map[string]bool
	Platform    string
	DumpAST     bool
	Quiet       bool
}

// frontend runs preprocess through typecheck and returns the fully
// resolved, checked program alongside its diagnostics bag. The caller
// decides whether errors are fatal.
func frontend(file string, opts Options) (*ast.Program, *diagnostics.Bag, error) {
	if _, err := os.Stat(file); err != nil {
		return nil, nil, tracerr.Wrap(err)
	}

	loader := &resolver.Loader{
		CompilerDir:    opts.CompilerDir,
		ExtraDefines:   opts.Defines,
		TargetPlatform: opts.Platform,
	}

	prog, err := loader.ParseFile(file)
	if err != nil {
		return nil, nil, tracerr.Wrap(err)
	}

	prog, err = loader.Resolve(prog, file)
	if err != nil {
		return nil, nil, tracerr.Wrap(err)
	}

	bag := diagnostics.NewBag()
	checker.New(prog, bag).Check()

	if opts.DumpAST {
		os.Stderr.WriteString(repr.String(prog, repr.Indent("  ")) + "\n")
	}

	return prog, bag, nil
}

// printDiagnostics prints every diagnostic in the user-visible
// `file:line:col: severity: message` format, in deterministic order.
func printDiagnostics(bag *diagnostics.Bag, quiet bool) {
	bag.Sort()
	for _, d := range bag.Diagnostics() {
		if quiet && d.Severity == diagnostics.Warning {
			continue
		}
		os.Stderr.WriteString(d.String() + "\n")
	}
}
