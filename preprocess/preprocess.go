// Package preprocess implements the text-level directive filter that
// runs before the lexer ever sees a source file.
package preprocess

import (
	"fmt"
	"runtime"
	"strings"
)

// PlatformDefine returns the exactly-one predefined host-platform symbol
// (__LINUX__ | __MACOS__ | __WIN__), based on GOOS. Process skips it when
// the caller's extra defines already name a platform symbol.
func PlatformDefine() string {
	switch runtime.GOOS {
	case "darwin":
		return "__MACOS__"
	case "windows":
		return "__WIN__"
	default:
		return "__LINUX__"
	}
}

var platformNames = map[string]bool{"__LINUX__": true, "__MACOS__": true, "__WIN__": true}

// Error is a hard preprocessor failure: an unmatched @end or an unterminated
// conditional block.
type Error struct {
	File string
	Line int
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s:%d: preprocessor error: %s", e.File, e.Line, e.Msg)
}

type condFrame struct {
	parentEmitting bool
	taken          bool
}

// Process filters source text: directives in column-leading position
// nest; dead lines are replaced by blank lines so downstream
// (file,line,col) positions never shift; a file with no '@' directives
// passes through byte-for-byte.
func Process(source, file string, extraDefines map[string]bool) (string, error) {
	if !strings.Contains(source, "@") {
		return source, nil
	}

	defines := map[string]bool{}
	hasPlatformOverride := false
	for d := range extraDefines {
		if platformNames[d] {
			hasPlatformOverride = true
		}
	}
	if !hasPlatformOverride {
		defines[PlatformDefine()] = true
	}
	for d := range extraDefines {
		defines[d] = true
	}

	lines := strings.Split(source, "\n")
	out := make([]string, len(lines))
	var stack []condFrame
	emitting := true

	for i, line := range lines {
		lineNo := i + 1
		trimmed := strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(trimmed, "@define "):
			if emitting {
				name := strings.TrimSpace(trimmed[len("@define "):])
				if name == "" {
					return "", &Error{file, lineNo, "@define requires a name"}
				}
				defines[name] = true
			}
			continue

		case strings.HasPrefix(trimmed, "@if "):
			name := strings.TrimSpace(trimmed[len("@if "):])
			if name == "" {
				return "", &Error{file, lineNo, "@if requires a name"}
			}
			parentEmitting := emitting
			cond := defines[name]
			emitting = parentEmitting && cond
			stack = append(stack, condFrame{parentEmitting, cond})
			continue

		case strings.HasPrefix(trimmed, "@elif "):
			if len(stack) == 0 {
				return "", &Error{file, lineNo, "@elif without matching @if"}
			}
			name := strings.TrimSpace(trimmed[len("@elif "):])
			if name == "" {
				return "", &Error{file, lineNo, "@elif requires a name"}
			}
			top := &stack[len(stack)-1]
			if top.taken {
				emitting = false
			} else {
				cond := defines[name]
				emitting = top.parentEmitting && cond
				if emitting {
					top.taken = true
				}
			}
			continue

		case trimmed == "@else":
			if len(stack) == 0 {
				return "", &Error{file, lineNo, "@else without matching @if"}
			}
			top := &stack[len(stack)-1]
			if top.taken {
				emitting = false
			} else {
				emitting = top.parentEmitting
				top.taken = true
			}
			continue

		case trimmed == "@end":
			if len(stack) == 0 {
				return "", &Error{file, lineNo, "@end without matching @if"}
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			emitting = top.parentEmitting
			continue
		}

		if emitting {
			out[i] = line
		} else {
			out[i] = ""
		}
	}

	if len(stack) > 0 {
		return "", &Error{file, len(lines), "unterminated @if block (missing @end)"}
	}

	return strings.Join(out, "\n"), nil
}
