package engine

import (
	"tubegrab/internal/download"
	"tubegrab/internal/info"
)

// Phase names where the engine currently is in an operation's lifecycle.
type Phase string

const (
	PhaseIdle         Phase = "idle"
	PhaseCheckingTool Phase = "checking-tool"
	PhaseFetchingInfo Phase = "fetching-info"
	PhaseDownloading  Phase = "downloading"
	PhaseCompleted    Phase = "completed"
)

// State is an immutable snapshot of the engine. Readers receive a value; the
// worker goroutine is the only writer and swaps whole snapshots atomically.
type State struct {
	Phase Phase

	// OpID identifies the operation the rest of the fields belong to.
	// Empty while idle.
	OpID string
	URL  string

	// Progress is the latest download progress event. Meaningful while
	// downloading and in the completed snapshot of a download.
	Progress download.ProgressEvent

	// Metadata is set in the completed snapshot of a metadata fetch.
	Metadata *info.VideoMetadata

	// Result is set in the completed snapshot of a download.
	Result *download.Result

	// Err is the operation's failure, if any.
	Err error

	// Notices carries provisioning warnings (failed update check, missing
	// ffmpeg) that did not stop the operation.
	Notices []string

	// Console is a copy of the recent raw tool output.
	Console []string
}

// consoleRing keeps the most recent tool output lines. Not safe for
// concurrent use; the engine serialises access behind its mutex.
type consoleRing struct {
	lines []string
	max   int
}

func newConsoleRing(max int) *consoleRing {
	if max <= 0 {
		max = defaultConsoleLines
	}
	return &consoleRing{max: max}
}

func (r *consoleRing) push(line string) {
	r.lines = append(r.lines, line)
	if len(r.lines) > r.max {
		r.lines = r.lines[len(r.lines)-r.max:]
	}
}

func (r *consoleRing) snapshot() []string {
	out := make([]string, len(r.lines))
	copy(out, r.lines)
	return out
}

func (r *consoleRing) reset() {
	r.lines = r.lines[:0]
}
