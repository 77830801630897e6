package download

import (
	"fmt"
	"strings"
)

// ToolError reports a non-zero extractor exit. Tail holds the last captured
// output lines for diagnostics.
type ToolError struct {
	ExitCode int
	Tail     []string
}

func (e *ToolError) Error() string {
	if len(e.Tail) == 0 {
		return fmt.Sprintf("extractor exited with code %d", e.ExitCode)
	}
	return fmt.Sprintf("extractor exited with code %d: %s", e.ExitCode, strings.Join(e.Tail, " | "))
}

// OutputNotFoundError means the extractor reported success but never named a
// produced file.
type OutputNotFoundError struct {
	Tail []string
}

func (e *OutputNotFoundError) Error() string {
	return "extractor succeeded but reported no output file"
}
