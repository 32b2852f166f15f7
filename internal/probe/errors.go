package probe

import (
	"errors"
	"fmt"
)

// ErrUnavailable marks a transient probe failure: the external tool, database,
// or host could not be reached. Analyzers degrade and continue on it.
var ErrUnavailable = errors.New("probe unavailable")

// Unavailable wraps err as an ErrUnavailable failure for the named source.
func Unavailable(source string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, source, err)
}

// MalformedOutputError marks probe output that could not be parsed. The
// failure is permanent for that metric; analyzers skip it and continue.
type MalformedOutputError struct {
	Source string
	Detail string
}

func (e *MalformedOutputError) Error() string {
	return fmt.Sprintf("malformed probe output from %s: %s", e.Source, e.Detail)
}

// IsMalformed reports whether err is a MalformedOutputError.
func IsMalformed(err error) bool {
	var m *MalformedOutputError
	return errors.As(err, &m)
}
