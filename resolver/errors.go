package resolver

import "fmt"

// Error is a resolution-time failure: a missing module, a missing extern
// library, or an import cycle.
type Error struct {
	File string
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.File, e.Msg)
}
