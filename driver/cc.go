package driver

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/ztrue/tracerr"

	"github.com/bismut-lang/bismut/ast"
)

// BuildOptions carries the `build`/`run` subcommand's own flags, layered
// on top of the shared frontend Options.
type BuildOptions struct {
	Options
	Output         string
	Release        bool
	NoDebugLeaks   bool
	CC             string
	UseTCC         bool
	CacheDir       string
}

func (o BuildOptions) compiler() string {
	if o.UseTCC {
		return "tcc"
	}
	if o.CC != "" {
		return o.CC
	}
	return "cc"
}

func (o BuildOptions) optFlags() []string {
	if o.Release {
		return []string{"-O2"}
	}
	return []string{"-O0", "-g"}
}

// invokeCC compiles outC (plus every extern library's C source) into the
// named binary, linking against the runtime's `-I` include path and any
// extern cflags/ldflags the resolver collected from .mutlib manifests.
func invokeCC(opts BuildOptions, outC, binary, runtimeDir string, prog *ast.Program) error {
	args := []string{"-std=c99"}
	args = append(args, opts.optFlags()...)
	args = append(args, "-I", runtimeDir)
	args = append(args, outC)
	args = append(args, prog.ExternIncludes...)
	args = append(args, prog.ExternCflags...)
	args = append(args, "-o", binary)
	args = append(args, prog.ExternLdflags...)

	cmd := exec.Command(opts.compiler(), args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return tracerr.Wrap(fmt.Errorf("%s %v: %w", opts.compiler(), args, err))
	}
	return nil
}
