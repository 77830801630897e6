package proc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// Line is a single unit of subprocess output, emitted as soon as it is read.
type Line struct {
	Text   string
	Stderr bool
}

// Result is the terminal status of a process. It is only valid once the line
// channel has been closed.
type Result struct {
	ExitCode  int
	Cancelled bool
}

// Runner spawns the extractor binary and streams its output incrementally.
// Implementations must guarantee that no child process outlives the returned
// handle under success, failure, or cancellation.
type Runner interface {
	Start(ctx context.Context, bin string, args []string) (Handle, error)
}

// Handle is a running process. Lines yields combined stdout/stderr output
// line by line and is closed when the process exits; Wait blocks until exit
// and reports the terminal status; Cancel terminates the process, escalating
// from SIGTERM to SIGKILL after a grace period.
type Handle interface {
	Lines() <-chan Line
	Wait() (Result, error)
	Cancel()
}

const defaultKillGrace = 5 * time.Second

// ExecRunner runs real subprocesses.
type ExecRunner struct {
	// KillGrace is how long Cancel waits between the polite termination
	// signal and the forceful kill. Zero means the default.
	KillGrace time.Duration
}

var _ Runner = ExecRunner{}

// maxLineSize bounds a single output line. yt-dlp's -J mode emits the whole
// metadata document as one line, which can run to several megabytes.
const maxLineSize = 16 * 1024 * 1024

type process struct {
	cmd   *exec.Cmd
	lines chan Line
	grace time.Duration

	cancelOnce sync.Once
	cancelled  atomic.Bool

	readersDone chan struct{}
	exited      chan struct{}

	waitOnce sync.Once
	result   Result
	waitErr  error
}

// Start launches bin with args in its own process group and begins streaming
// its output. The context cancels the process the same way Cancel does.
func (r ExecRunner) Start(ctx context.Context, bin string, args []string) (Handle, error) {
	cmd := exec.Command(bin, args...)
	setProcessGroup(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", bin, err)
	}

	grace := r.KillGrace
	if grace <= 0 {
		grace = defaultKillGrace
	}

	p := &process{
		cmd:         cmd,
		lines:       make(chan Line, 64),
		grace:       grace,
		readersDone: make(chan struct{}),
		exited:      make(chan struct{}),
	}

	var g errgroup.Group
	g.Go(func() error { return p.readInto(stdout, false) })
	g.Go(func() error { return p.readInto(stderr, true) })
	go func() {
		_ = g.Wait()
		close(p.readersDone)
		close(p.lines)
	}()

	go func() {
		select {
		case <-ctx.Done():
			p.Cancel()
		case <-p.exited:
		}
	}()

	return p, nil
}

func (p *process) readInto(r io.Reader, isStderr bool) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for scanner.Scan() {
		p.lines <- Line{Text: scanner.Text(), Stderr: isStderr}
	}
	return scanner.Err()
}

func (p *process) Lines() <-chan Line { return p.lines }

// Wait blocks until the process has exited and all output has been emitted.
func (p *process) Wait() (Result, error) {
	p.waitOnce.Do(func() {
		// The pipes must be fully drained before cmd.Wait closes them.
		<-p.readersDone

		err := p.cmd.Wait()
		close(p.exited)

		if p.cancelled.Load() {
			p.result = Result{ExitCode: -1, Cancelled: true}
			return
		}
		if err == nil {
			p.result = Result{ExitCode: 0}
			return
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			p.result = Result{ExitCode: exitErr.ExitCode()}
			return
		}
		p.waitErr = err
	})
	return p.result, p.waitErr
}

// Cancel terminates the process group. The first signal is polite; if the
// process has not exited after the grace period it is killed outright.
// Calling Cancel after exit is a no-op.
func (p *process) Cancel() {
	p.cancelOnce.Do(func() {
		select {
		case <-p.exited:
			return
		default:
		}

		p.cancelled.Store(true)
		terminateGroup(p.cmd)

		go func() {
			timer := time.NewTimer(p.grace)
			defer timer.Stop()
			select {
			case <-p.exited:
			case <-timer.C:
				killGroup(p.cmd)
			}
		}()
	})
}
