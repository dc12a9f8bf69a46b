package schema

import (
	"fmt"
	"strings"
)

// FieldError describes one field that failed validation.
type FieldError struct {
	// Path is the dotted settings path, e.g. "search.engines".
	Path   string
	Reason string
}

func (e FieldError) String() string {
	if e.Path == "" {
		return e.Reason
	}
	return e.Path + ": " + e.Reason
}

// SchemaValidationError is returned by Validate and lists every failing
// field, not just the first.
type SchemaValidationError struct {
	Fields []FieldError
}

func (e *SchemaValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.String())
	}
	return fmt.Sprintf("settings validation failed (%d field(s)): %s", len(e.Fields), strings.Join(parts, "; "))
}

// Has reports whether path is among the failing fields.
func (e *SchemaValidationError) Has(path string) bool {
	for _, f := range e.Fields {
		if f.Path == path {
			return true
		}
	}
	return false
}

// Paths lists the failing field paths in report order.
func (e *SchemaValidationError) Paths() []string {
	paths := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		paths = append(paths, f.Path)
	}
	return paths
}
