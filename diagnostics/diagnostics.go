// Package diagnostics is the shared error/warning sink every pipeline stage
// writes into: a bag that collects diagnostics across a compilation and
// renders them either as plain text or as the JSON shape the `analyze`
// subcommand emits.
package diagnostics

import (
	"fmt"
	"sort"

	"github.com/bismut-lang/bismut/token"
)

type Severity int

const (
	Error Severity = iota
	Warning
	Note
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Note:
		return "note"
	default:
		return "unknown"
	}
}

// Diagnostic is one compiler-reported error, warning or note, always
// anchored to a source position with a byte span for IDE consumers.
type Diagnostic struct {
	Severity Severity
	Pos      token.Position
	Span     int
	Message  string
}

// String renders the diagnostic in the user-visible format:
// "file:line:col: severity: message".
func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", d.Pos.String(), d.Severity.String(), d.Message)
}

// Bag accumulates diagnostics across a compilation and answers whether
// emission may proceed. Each stage collects and continues rather than
// stopping at the first violation; the driver consults HasErrors before
// advancing past type checking.
type Bag struct {
	diags []Diagnostic
}

func NewBag() *Bag { return &Bag{} }

func (b *Bag) Error(pos token.Position, format string, args ...any) {
	b.add(Error, pos, 1, format, args...)
}

func (b *Bag) ErrorSpan(pos token.Position, span int, format string, args ...any) {
	b.add(Error, pos, span, format, args...)
}

func (b *Bag) Warning(pos token.Position, format string, args ...any) {
	b.add(Warning, pos, 1, format, args...)
}

func (b *Bag) Note(pos token.Position, format string, args ...any) {
	b.add(Note, pos, 1, format, args...)
}

func (b *Bag) add(sev Severity, pos token.Position, span int, format string, args ...any) {
	b.diags = append(b.diags, Diagnostic{
		Severity: sev,
		Pos:      pos,
		Span:     span,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (b *Bag) Diagnostics() []Diagnostic { return b.diags }

func (b *Bag) HasErrors() bool {
	for _, d := range b.diags {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

func (b *Bag) ErrorCount() int   { return b.countSeverity(Error) }
func (b *Bag) WarningCount() int { return b.countSeverity(Warning) }

func (b *Bag) countSeverity(s Severity) int {
	n := 0
	for _, d := range b.diags {
		if d.Severity == s {
			n++
		}
	}
	return n
}

// Sort orders diagnostics by (file, line, col) so repeated runs over the
// same input emit diagnostics in the same order, for stable CI output.
func (b *Bag) Sort() {
	sort.SliceStable(b.diags, func(i, j int) bool {
		a, c := b.diags[i].Pos, b.diags[j].Pos
		if a.File != c.File {
			return a.File < c.File
		}
		if a.Line != c.Line {
			return a.Line < c.Line
		}
		return a.Col < c.Col
	})
}

// jsonDiagnostic is the wire shape for one entry of the analyze JSON
// array; field names and casing are part of the external interface.
type jsonDiagnostic struct {
	Severity string `json:"severity"`
	File     string `json:"file"`
	Line     int    `json:"line"`
	Col      int    `json:"col"`
	Span     int    `json:"span"`
	Message  string `json:"message"`
}

// Report is the top-level analyze JSON object.
type Report struct {
	Success      bool             `json:"success"`
	File         string           `json:"file"`
	ErrorCount   int              `json:"error_count"`
	WarningCount int              `json:"warning_count"`
	Diagnostics  []jsonDiagnostic `json:"diagnostics"`
}

// BuildReport converts the bag's diagnostics into the analyze JSON shape
// for the given entry file.
func (b *Bag) BuildReport(file string) Report {
	b.Sort()
	out := make([]jsonDiagnostic, 0, len(b.diags))
	for _, d := range b.diags {
		out = append(out, jsonDiagnostic{
			Severity: d.Severity.String(),
			File:     d.Pos.File,
			Line:     d.Pos.Line,
			Col:      d.Pos.Col,
			Span:     d.Span,
			Message:  d.Message,
		})
	}
	return Report{
		Success:      !b.HasErrors(),
		File:         file,
		ErrorCount:   b.ErrorCount(),
		WarningCount: b.WarningCount(),
		Diagnostics:  out,
	}
}
