package download

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"tubegrab/internal/proc"
)

// Mode selects the produced artifact.
type Mode string

const (
	ModeVideo Mode = "video"
	ModeAudio Mode = "audio"
)

// Request describes one user-initiated download. Immutable for the request's
// lifetime.
type Request struct {
	URL       string
	OutputDir string
	Mode      Mode

	// FormatID optionally pins an explicit format from the metadata's
	// format table instead of the best-quality selector.
	FormatID string

	// AudioFormat is the target codec for ModeAudio. Defaults to mp3.
	AudioFormat string
}

// Outcome classifies how a download ended.
type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeFailed    Outcome = "failed"
	OutcomeCancelled Outcome = "cancelled"
)

// Result is the terminal state of a download. On cancellation any partially
// written file is left in place for inspection or resuming.
type Result struct {
	Outcome    Outcome
	OutputPath string
	Err        error
}

const defaultTailLines = 15

// Orchestrator drives the extractor's download mode and turns its free-form
// progress text into structured events.
type Orchestrator struct {
	Runner  proc.Runner
	BinPath string

	// Console receives every raw output line for echo/log display.
	// Optional; must not block.
	Console func(line string)

	// TailLines bounds the diagnostic tail kept for failures. Zero means
	// the default.
	TailLines int
}

// Run executes the download and blocks until it reaches a terminal state.
// Progress events are delivered to sink as they are parsed; delivery is
// fire-and-forget, so sink must not block. Cancellation happens through ctx.
func (o *Orchestrator) Run(ctx context.Context, req Request, sink func(ProgressEvent)) Result {
	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return Result{Outcome: OutcomeFailed, Err: fmt.Errorf("prepare output dir: %w", err)}
	}

	pathFile, err := os.CreateTemp("", "tubegrab-path-*.txt")
	if err != nil {
		return Result{Outcome: OutcomeFailed, Err: fmt.Errorf("create path temp: %w", err)}
	}
	pathFilePath := pathFile.Name()
	pathFile.Close()
	defer os.Remove(pathFilePath)

	args := buildArgs(req, pathFilePath)

	handle, err := o.Runner.Start(ctx, o.BinPath, args)
	if err != nil {
		return Result{Outcome: OutcomeFailed, Err: err}
	}

	tailSize := o.TailLines
	if tailSize <= 0 {
		tailSize = defaultTailLines
	}

	var (
		tail        []string
		lastPercent = -1.0
		destination string
	)

	for line := range handle.Lines() {
		o.echo(line.Text)
		tail = appendTail(tail, line.Text, tailSize)

		if line.Stderr {
			continue
		}

		if ev, ok := parseProgressLine(line.Text); ok {
			// A percentage below the high-water mark is a parse
			// anomaly (the tool restarts counters for fragments);
			// keep the line for the console but do not apply it.
			if ev.Percent >= lastPercent {
				lastPercent = ev.Percent
				if sink != nil {
					sink(ev)
				}
			}
			continue
		}

		if dest, ok := parseDestinationLine(line.Text); ok {
			destination = dest
		}
	}

	res, err := handle.Wait()
	if err != nil {
		return Result{Outcome: OutcomeFailed, Err: err}
	}
	if res.Cancelled {
		return Result{Outcome: OutcomeCancelled}
	}
	if res.ExitCode != 0 {
		return Result{Outcome: OutcomeFailed, Err: &ToolError{ExitCode: res.ExitCode, Tail: tail}}
	}

	output := o.resolveOutput(pathFilePath, destination, req.OutputDir)
	if output == "" {
		return Result{Outcome: OutcomeFailed, Err: &OutputNotFoundError{Tail: tail}}
	}
	return Result{Outcome: OutcomeSuccess, OutputPath: output}
}

// buildArgs translates the request into the extractor's CLI contract. The
// exact flags are the external interface to the wrapped tool and change only
// with its versions.
func buildArgs(req Request, pathFilePath string) []string {
	template := filepath.Join(req.OutputDir, "%(title)s.%(ext)s")

	args := []string{
		"--newline",
		"--no-warnings",
		"--no-colors",
		"--no-playlist",
		"--output", template,
		"--print-to-file", "after_move:filepath", pathFilePath,
	}

	switch req.Mode {
	case ModeAudio:
		audioFormat := req.AudioFormat
		if audioFormat == "" {
			audioFormat = "mp3"
		}
		args = append(args, "-x", "--audio-format", audioFormat)
	default:
		if req.FormatID != "" {
			args = append(args, "-f", req.FormatID)
		} else {
			args = append(args, "-f", "bestvideo*+bestaudio/best", "--merge-output-format", "mp4")
		}
	}

	return append(args, req.URL)
}

const destinationPrefix = "[download] Destination: "

// parseDestinationLine extracts the target path the tool announces before it
// starts writing. Fallback for output resolution when the path file is not
// produced.
func parseDestinationLine(line string) (string, bool) {
	if !strings.HasPrefix(line, destinationPrefix) {
		return "", false
	}
	dest := strings.TrimSpace(strings.TrimPrefix(line, destinationPrefix))
	return dest, dest != ""
}

// resolveOutput prefers the path the tool printed after moving the file into
// place, then the announced destination. Either way the file must exist.
func (o *Orchestrator) resolveOutput(pathFilePath, destination, outputDir string) string {
	candidates := make([]string, 0, 2)

	if data, err := os.ReadFile(pathFilePath); err == nil {
		if printed := strings.TrimSpace(string(data)); printed != "" {
			candidates = append(candidates, printed)
		}
	}
	if destination != "" {
		candidates = append(candidates, destination)
	}

	for _, candidate := range candidates {
		if !filepath.IsAbs(candidate) {
			candidate = filepath.Join(outputDir, candidate)
		}
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			return candidate
		}
	}
	return ""
}

func appendTail(tail []string, line string, size int) []string {
	tail = append(tail, line)
	if len(tail) > size {
		tail = tail[len(tail)-size:]
	}
	return tail
}

func (o *Orchestrator) echo(line string) {
	if o.Console != nil {
		o.Console(line)
	}
}
