package driver

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ztrue/tracerr"
)

// Analyze runs the frontend only and prints a JSON diagnostics report to
// stdout, exiting 0 when the file compiles clean and 1 otherwise.
func Analyze(file string, opts Options) int {
	_, bag, err := frontend(file, opts)
	if err != nil {
		tracerr.PrintSourceColor(tracerr.Wrap(err))
		return 1
	}

	report := bag.BuildReport(file)
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		fmt.Fprintf(os.Stderr, "bismut: encode report: %v\n", err)
		return 1
	}

	if !report.Success {
		return 1
	}
	return 0
}
