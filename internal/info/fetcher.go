package info

import (
	"context"
	"strings"

	"tubegrab/internal/proc"
)

// Fetcher retrieves and parses video metadata through the extractor's
// structured output mode.
type Fetcher struct {
	Runner  proc.Runner
	BinPath string

	// Console receives raw output lines for echo/log display. Optional;
	// must not block.
	Console func(line string)
}

// Fetch validates the URL, invokes the extractor in structured output mode
// and parses the result. Invalid URLs are rejected without spawning a
// process.
func (f *Fetcher) Fetch(ctx context.Context, url string) (VideoMetadata, error) {
	if err := ValidateURL(url); err != nil {
		return VideoMetadata{}, err
	}

	args := []string{"-J", "--no-playlist", url}
	handle, err := f.Runner.Start(ctx, f.BinPath, args)
	if err != nil {
		return VideoMetadata{}, err
	}

	// The structured payload arrives on stdout, possibly split across
	// lines; stderr carries diagnostics.
	var payload strings.Builder
	var stderrLines []string
	for line := range handle.Lines() {
		if line.Stderr {
			stderrLines = append(stderrLines, line.Text)
			f.echo(line.Text)
			continue
		}
		payload.WriteString(line.Text)
		payload.WriteByte('\n')
	}

	res, err := handle.Wait()
	if err != nil {
		return VideoMetadata{}, err
	}
	if res.Cancelled {
		if err := ctx.Err(); err != nil {
			return VideoMetadata{}, err
		}
		return VideoMetadata{}, context.Canceled
	}
	if res.ExitCode != 0 {
		return VideoMetadata{}, &ExecError{
			ExitCode: res.ExitCode,
			Stderr:   strings.TrimSpace(strings.Join(stderrLines, "\n")),
		}
	}

	return parseMetadata(strings.TrimSpace(payload.String()))
}

func (f *Fetcher) echo(line string) {
	if f.Console != nil {
		f.Console(line)
	}
}
