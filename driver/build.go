package driver

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ztrue/tracerr"

	"github.com/bismut-lang/bismut/emitter"
)

// Build runs the full pipeline: frontend, emission, and a C compiler
// invocation, producing a native binary. Returns the process exit code.
func Build(file string, opts BuildOptions) int {
	prog, bag, err := frontend(file, opts.Options)
	if err != nil {
		tracerr.PrintSourceColor(tracerr.Wrap(err))
		return 1
	}

	printDiagnostics(bag, opts.Quiet)
	if bag.HasErrors() {
		return 1
	}

	cSrc, err := emitter.Generate(prog, !opts.NoDebugLeaks)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bismut: emit: %v\n", err)
		return 1
	}

	cacheDir := opts.CacheDir
	if cacheDir == "" {
		cacheDir = defaultCacheDir()
	}
	scratchDir, err := os.MkdirTemp(cacheDir, "build-*")
	if err != nil {
		fmt.Fprintf(os.Stderr, "bismut: scratch dir: %v\n", err)
		return 1
	}
	defer os.RemoveAll(scratchDir)

	outC := filepath.Join(scratchDir, "out.c")
	if err := os.WriteFile(outC, []byte(cSrc), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "bismut: write out.c: %v\n", err)
		return 1
	}

	runtimeDir, err := prepareRuntime(cacheDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bismut: runtime: %v\n", err)
		return 1
	}

	binary := opts.Output
	if binary == "" {
		binary = defaultBinaryName(file)
	}

	if err := invokeCC(opts, outC, binary, runtimeDir, prog); err != nil {
		tracerr.PrintSourceColor(tracerr.Wrap(err))
		return 1
	}
	return 0
}

func defaultBinaryName(sourceFile string) string {
	base := filepath.Base(sourceFile)
	name := base[:len(base)-len(filepath.Ext(base))]
	if name == "" {
		name = "a.out"
	}
	return name
}
