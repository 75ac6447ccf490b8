package bind

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrUnknownField is the cause of field errors for input that matches no
// struct field.
var ErrUnknownField = errors.New("unknown field")

// FieldError reports a single field that could not be bound or rendered.
type FieldError struct {
	Field string
	Value string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field '%s': %s", e.Field, e.Err)
}

// Cause lets errors.Cause reach the underlying error.
func (e *FieldError) Cause() error { return e.Err }

// Errors collects every field error of a Bind or Render call, in struct
// field order.
type Errors []*FieldError

func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Error()
	}

	return strings.Join(msgs, "; ")
}

// Field returns the error recorded for a field path.
func (e Errors) Field(path string) (*FieldError, bool) {
	for _, fe := range e {
		if fe.Field == path {
			return fe, true
		}
	}

	return nil, false
}
