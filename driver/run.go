package driver

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/ztrue/tracerr"

	"github.com/bismut-lang/bismut/emitter"
)

// RunSource builds the program into a driver-owned scratch directory and
// immediately executes it, relaying the child's exit code. Tempfiles are
// unlinked on every return path.
func RunSource(file string, opts BuildOptions, args []string) int {
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
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "bismut: cache dir: %v\n", err)
		return 1
	}

	lock := flock.New(filepath.Join(cacheDir, ".run.lock"))
	if err := lock.Lock(); err != nil {
		fmt.Fprintf(os.Stderr, "bismut: lock scratch dir: %v\n", err)
		return 1
	}
	defer lock.Unlock()

	scratchDir, err := os.MkdirTemp(cacheDir, "run-*")
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

	binary := filepath.Join(scratchDir, "a.out")
	if err := invokeCC(opts, outC, binary, runtimeDir, prog); err != nil {
		tracerr.PrintSourceColor(tracerr.Wrap(err))
		return 1
	}

	cmd := exec.Command(binary, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return exitErr.ExitCode()
		}
		fmt.Fprintf(os.Stderr, "bismut: exec: %v\n", err)
		return 1
	}
	return 0
}
