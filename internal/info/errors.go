package info

import (
	"errors"
	"fmt"
)

// ErrInvalidURL rejects input that matches none of the accepted URL shapes.
// Returned before any process is spawned.
var ErrInvalidURL = errors.New("not a recognized video URL")

// ExecError reports a non-zero extractor exit during a metadata fetch.
type ExecError struct {
	ExitCode int
	Stderr   string
}

func (e *ExecError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("extractor exited with code %d: %s", e.ExitCode, e.Stderr)
	}
	return fmt.Sprintf("extractor exited with code %d", e.ExitCode)
}

// ParseError reports malformed structured output. Raw retains the offending
// payload for diagnostics.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string { return fmt.Sprintf("malformed metadata output: %v", e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }
