package download

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tubegrab/internal/proc"
)

type fakeHandle struct {
	lines  chan proc.Line
	result proc.Result
}

func (h *fakeHandle) Lines() <-chan proc.Line    { return h.lines }
func (h *fakeHandle) Wait() (proc.Result, error) { return h.result, nil }
func (h *fakeHandle) Cancel()                    {}

// fakeRunner replays canned output. When the argument list carries a
// --print-to-file destination it writes printedPath there, mimicking the
// extractor's after-move report.
type fakeRunner struct {
	lines       []proc.Line
	result      proc.Result
	printedPath string

	lastArgs []string
}

func (r *fakeRunner) Start(_ context.Context, _ string, args []string) (proc.Handle, error) {
	r.lastArgs = args

	if r.printedPath != "" {
		for i, arg := range args {
			if arg == "--print-to-file" && i+2 < len(args) {
				if err := os.WriteFile(args[i+2], []byte(r.printedPath+"\n"), 0o644); err != nil {
					return nil, err
				}
			}
		}
	}

	ch := make(chan proc.Line, len(r.lines))
	for _, l := range r.lines {
		ch <- l
	}
	close(ch)
	return &fakeHandle{lines: ch, result: r.result}, nil
}

func writeOutputFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("media"), 0o644); err != nil {
		t.Fatalf("write output file: %v", err)
	}
	return path
}

func TestRunEmitsOrderedProgressAndSucceeds(t *testing.T) {
	outDir := t.TempDir()
	outFile := writeOutputFile(t, outDir, "Never Gonna Give You Up.mp4")

	runner := &fakeRunner{
		lines: []proc.Line{
			{Text: "[youtube] dQw4w9WgXcQ: Downloading webpage"},
			{Text: "[download] Destination: " + outFile},
			{Text: "[download]   0.0% of 123.45MiB at Unknown B/s ETA Unknown"},
			{Text: "[download]  47.3% of 123.45MiB at 1.2MiB/s ETA 00:32"},
			{Text: "[download] 100% of 123.45MiB in 00:42"},
		},
		result:      proc.Result{ExitCode: 0},
		printedPath: outFile,
	}
	o := &Orchestrator{Runner: runner, BinPath: "/opt/yt-dlp"}

	var percents []float64
	res := o.Run(context.Background(), Request{
		URL:       "https://youtu.be/dQw4w9WgXcQ",
		OutputDir: outDir,
		Mode:      ModeVideo,
	}, func(ev ProgressEvent) {
		percents = append(percents, ev.Percent)
	})

	if res.Outcome != OutcomeSuccess {
		t.Fatalf("expected success, got %+v", res)
	}
	if res.OutputPath != outFile {
		t.Fatalf("expected output %q, got %q", outFile, res.OutputPath)
	}

	want := []float64{0.0, 47.3, 100.0}
	if len(percents) != len(want) {
		t.Fatalf("expected events %v, got %v", want, percents)
	}
	for i := range want {
		if percents[i] != want[i] {
			t.Fatalf("event %d: expected %v, got %v", i, want[i], percents[i])
		}
	}
}

func TestRunIgnoresRegressivePercentages(t *testing.T) {
	outDir := t.TempDir()
	outFile := writeOutputFile(t, outDir, "clip.mp4")

	runner := &fakeRunner{
		lines: []proc.Line{
			{Text: "[download]  60.0% of 10.00MiB at 1.2MiB/s ETA 00:04"},
			{Text: "[download]  12.0% of 10.00MiB at 1.2MiB/s ETA 00:08"},
			{Text: "[download] 100% of 10.00MiB in 00:09"},
		},
		result:      proc.Result{ExitCode: 0},
		printedPath: outFile,
	}
	o := &Orchestrator{Runner: runner, BinPath: "/opt/yt-dlp"}

	var percents []float64
	res := o.Run(context.Background(), Request{URL: "u", OutputDir: outDir, Mode: ModeVideo}, func(ev ProgressEvent) {
		percents = append(percents, ev.Percent)
	})
	if res.Outcome != OutcomeSuccess {
		t.Fatalf("expected success, got %+v", res)
	}

	for i := 1; i < len(percents); i++ {
		if percents[i] < percents[i-1] {
			t.Fatalf("regressive event applied: %v", percents)
		}
	}
	if percents[len(percents)-1] != 100.0 {
		t.Fatalf("expected terminal percent 100, got %v", percents)
	}
}

func TestRunFailureCarriesDiagnosticTail(t *testing.T) {
	runner := &fakeRunner{
		lines: []proc.Line{
			{Text: "[youtube] dQw4w9WgXcQ: Downloading webpage"},
			{Text: "ERROR: Video unavailable", Stderr: true},
		},
		result: proc.Result{ExitCode: 1},
	}
	o := &Orchestrator{Runner: runner, BinPath: "/opt/yt-dlp"}

	res := o.Run(context.Background(), Request{URL: "u", OutputDir: t.TempDir(), Mode: ModeVideo}, nil)
	if res.Outcome != OutcomeFailed {
		t.Fatalf("expected failure, got %+v", res)
	}

	var toolErr *ToolError
	if !errors.As(res.Err, &toolErr) {
		t.Fatalf("expected ToolError, got %v", res.Err)
	}
	if toolErr.ExitCode != 1 {
		t.Fatalf("unexpected exit code %d", toolErr.ExitCode)
	}
	found := false
	for _, line := range toolErr.Tail {
		if strings.Contains(line, "ERROR: Video unavailable") {
			found = true
		}
	}
	if !found {
		t.Fatalf("diagnostic tail missing stderr text: %v", toolErr.Tail)
	}
}

func TestRunCancelledLeavesPartialFile(t *testing.T) {
	outDir := t.TempDir()
	partial := writeOutputFile(t, outDir, "clip.mp4.part")

	runner := &fakeRunner{
		lines: []proc.Line{
			{Text: "[download]  33.0% of 10.00MiB at 1.2MiB/s ETA 00:06"},
		},
		result: proc.Result{ExitCode: -1, Cancelled: true},
	}
	o := &Orchestrator{Runner: runner, BinPath: "/opt/yt-dlp"}

	res := o.Run(context.Background(), Request{URL: "u", OutputDir: outDir, Mode: ModeVideo}, nil)
	if res.Outcome != OutcomeCancelled {
		t.Fatalf("expected cancelled, got %+v", res)
	}

	if _, err := os.Stat(partial); err != nil {
		t.Fatalf("partial file was removed: %v", err)
	}
}

func TestRunSuccessWithoutResolvableOutputFails(t *testing.T) {
	runner := &fakeRunner{
		lines:  []proc.Line{{Text: "[download] 100% of 10.00MiB in 00:09"}},
		result: proc.Result{ExitCode: 0},
	}
	o := &Orchestrator{Runner: runner, BinPath: "/opt/yt-dlp"}

	res := o.Run(context.Background(), Request{URL: "u", OutputDir: t.TempDir(), Mode: ModeVideo}, nil)
	if res.Outcome != OutcomeFailed {
		t.Fatalf("expected failure, got %+v", res)
	}
	var notFound *OutputNotFoundError
	if !errors.As(res.Err, &notFound) {
		t.Fatalf("expected OutputNotFoundError, got %v", res.Err)
	}
}

func TestRunResolvesOutputFromDestinationFallback(t *testing.T) {
	outDir := t.TempDir()
	outFile := writeOutputFile(t, outDir, "fallback.mp4")

	runner := &fakeRunner{
		lines: []proc.Line{
			{Text: "[download] Destination: " + outFile},
			{Text: "[download] 100% of 10.00MiB in 00:09"},
		},
		result: proc.Result{ExitCode: 0},
		// No printed path file; the announced destination must win.
	}
	o := &Orchestrator{Runner: runner, BinPath: "/opt/yt-dlp"}

	res := o.Run(context.Background(), Request{URL: "u", OutputDir: outDir, Mode: ModeVideo}, nil)
	if res.Outcome != OutcomeSuccess || res.OutputPath != outFile {
		t.Fatalf("expected fallback success, got %+v", res)
	}
}

func TestBuildArgsVideoAndAudio(t *testing.T) {
	video := buildArgs(Request{URL: "u", OutputDir: "/d", Mode: ModeVideo}, "/tmp/p.txt")
	joined := strings.Join(video, " ")
	for _, want := range []string{
		"--newline",
		"--no-playlist",
		"--output /d/%(title)s.%(ext)s",
		"--print-to-file after_move:filepath /tmp/p.txt",
		"-f bestvideo*+bestaudio/best --merge-output-format mp4",
	} {
		if !strings.Contains(joined, want) {
			t.Fatalf("video args missing %q: %v", want, video)
		}
	}
	if video[len(video)-1] != "u" {
		t.Fatalf("url must be the last argument: %v", video)
	}

	audio := buildArgs(Request{URL: "u", OutputDir: "/d", Mode: ModeAudio}, "/tmp/p.txt")
	joined = strings.Join(audio, " ")
	if !strings.Contains(joined, "-x --audio-format mp3") {
		t.Fatalf("audio args missing extraction directive: %v", audio)
	}

	pinned := buildArgs(Request{URL: "u", OutputDir: "/d", Mode: ModeVideo, FormatID: "137"}, "/tmp/p.txt")
	joined = strings.Join(pinned, " ")
	if !strings.Contains(joined, "-f 137") {
		t.Fatalf("explicit format not honoured: %v", pinned)
	}
	if strings.Contains(joined, "bestvideo") {
		t.Fatalf("explicit format should replace the selector: %v", pinned)
	}
}
