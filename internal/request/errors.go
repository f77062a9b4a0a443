package request

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedContentType indicates the request body was neither JSON nor
// multipart form data.
var ErrUnsupportedContentType = errors.New("unsupported content type")

// FieldError is one rejected field with a human-readable reason.
type FieldError struct {
	Field  string
	Reason string
}

// ValidationError aggregates every rejected field of a request so the client
// sees all problems at once instead of fixing them one at a time.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s %s", f.Field, f.Reason))
	}
	return "invalid request: " + strings.Join(parts, "; ")
}

// Has reports whether the error names the given field.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}
