package driver

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/bismut-lang/bismut/mutlib"
)

// Build-time variables injected via linker flags.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

func printVersion() {
	fmt.Printf("bismut %s (%s)\n", Version, mutlib.CurrentPlatform())
	if Commit != "unknown" {
		fmt.Printf("  commit: %s\n", Commit)
	}
	if BuildDate != "unknown" {
		fmt.Printf("  built:  %s\n", BuildDate)
	}
}

func sharedFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "compiler-dir", Usage: "compiler installation directory (modules, src)"},
		&cli.StringSliceFlag{Name: "define", Aliases: []string{"D"}, Usage: "define preprocessor symbol"},
		&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "suppress warnings"},
	}
}

func buildFlags() []cli.Flag {
	return append(sharedFlags(),
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "output binary name"},
		&cli.BoolFlag{Name: "release", Aliases: []string{"r"}, Usage: "optimized build, no debug info"},
		&cli.BoolFlag{Name: "no-debug-leaks", Usage: "omit the ARC leak tracker from the emitted program"},
		&cli.StringFlag{Name: "cc", Usage: "C compiler to invoke"},
		&cli.BoolFlag{Name: "tcc", Usage: "use tcc instead of cc"},
	)
}

func optionsFromContext(c *cli.Context) Options {
	defines := map[string]bool{}
	for _, d := range c.StringSlice("define") {
		defines[d] = true
	}
	return Options{
		CompilerDir: c.String("compiler-dir"),
		Defines:     defines,
		Platform:    mutlib.CurrentPlatform(),
		Quiet:       c.Bool("quiet"),
	}
}

func buildOptionsFromContext(c *cli.Context) BuildOptions {
	return BuildOptions{
		Options:      optionsFromContext(c),
		Output:       c.String("output"),
		Release:      c.Bool("release"),
		NoDebugLeaks: c.Bool("no-debug-leaks"),
		CC:           c.String("cc"),
		UseTCC:       c.Bool("tcc"),
		CacheDir:     defaultCacheDir(),
	}
}

func requireFile(c *cli.Context) (string, error) {
	file := c.Args().First()
	if file == "" {
		return "", fmt.Errorf("no source file given")
	}
	return file, nil
}

// App builds the urfave/cli application exposing the three subcommands
// (build, run, analyze).
func App() *cli.App {
	return &cli.App{
		Name:        "bismut",
		Usage:       "bismut compiler",
		Version:     Version,
		HideVersion: true,
		Commands: []*cli.Command{
			{
				Name:  "build",
				Usage: "compile a source file to a native binary",
				Flags: buildFlags(),
				Action: func(c *cli.Context) error {
					file, err := requireFile(c)
					if err != nil {
						return err
					}
					os.Exit(Build(file, buildOptionsFromContext(c)))
					return nil
				},
			},
			{
				Name:  "run",
				Usage: "compile and immediately execute a source file",
				Flags: buildFlags(),
				Action: func(c *cli.Context) error {
					file, err := requireFile(c)
					if err != nil {
						return err
					}
					os.Exit(RunSource(file, buildOptionsFromContext(c), c.Args().Tail()))
					return nil
				},
			},
			{
				Name:  "analyze",
				Usage: "run the frontend only and report diagnostics as JSON",
				Flags: append(sharedFlags(),
					&cli.BoolFlag{Name: "dump-ast", Usage: "pretty-print the resolved AST to stderr"},
				),
				Action: func(c *cli.Context) error {
					file, err := requireFile(c)
					if err != nil {
						return err
					}
					opts := optionsFromContext(c)
					opts.DumpAST = c.Bool("dump-ast")
					os.Exit(Analyze(file, opts))
					return nil
				},
			},
		},
		Action: func(c *cli.Context) error {
			if c.Bool("version") {
				printVersion()
				return nil
			}
			return cli.ShowAppHelp(c)
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "version", Aliases: []string{"V"}, Usage: "print version information"},
		},
	}
}

// Run is the entry point called from the root main.go.
func Run(args []string) int {
	if err := App().Run(args); err != nil {
		fmt.Fprintf(os.Stderr, "bismut: %v\n", err)
		return 1
	}
	return 0
}
