package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/google/uuid"

	"tubegrab/internal/download"
	"tubegrab/internal/info"
	"tubegrab/internal/proc"
	"tubegrab/internal/tool"
)

// ErrOperationInProgress is returned when a command arrives while another
// operation is still running. The running operation is unaffected.
var ErrOperationInProgress = errors.New("an operation is already in progress")

const defaultConsoleLines = 50

// Event bus topics. Console lines stream as they arrive; a state event fires
// on every phase change.
const (
	TopicConsole = "engine:console"
	TopicState   = "engine:state"
)

// Config wires the engine to its collaborators.
type Config struct {
	Provisioner *tool.Provisioner
	Runner      proc.Runner

	// ConsoleLines bounds the retained console ring. Zero means the
	// default of 50.
	ConsoleLines int

	// Logf receives engine-level progress lines. Optional.
	Logf func(format string, v ...any)
}

// Engine serialises tool provisioning, metadata fetches and downloads behind
// a single-operation facade. Commands return immediately; the work happens on
// a worker goroutine that publishes state snapshots.
type Engine struct {
	bus EventBus.Bus

	mu      sync.Mutex
	busy    bool
	cancel  context.CancelFunc
	console *consoleRing

	snapshot atomic.Pointer[State]
	logf     func(format string, v ...any)

	// Seams for tests.
	provision func(ctx context.Context) (tool.Installation, error)
	fetchInfo func(ctx context.Context, binPath, url string, console func(string)) (info.VideoMetadata, error)
	runDL     func(ctx context.Context, binPath string, req download.Request, console func(string), sink func(download.ProgressEvent)) download.Result
}

// New builds an engine around a provisioner and a process runner.
func New(cfg Config) *Engine {
	e := &Engine{
		bus:     EventBus.New(),
		console: newConsoleRing(cfg.ConsoleLines),
		logf:    cfg.Logf,
	}
	e.provision = func(ctx context.Context) (tool.Installation, error) {
		return cfg.Provisioner.EnsureReady(ctx)
	}
	e.fetchInfo = func(ctx context.Context, binPath, url string, console func(string)) (info.VideoMetadata, error) {
		f := &info.Fetcher{Runner: cfg.Runner, BinPath: binPath, Console: console}
		return f.Fetch(ctx, url)
	}
	e.runDL = func(ctx context.Context, binPath string, req download.Request, console func(string), sink func(download.ProgressEvent)) download.Result {
		o := &download.Orchestrator{Runner: cfg.Runner, BinPath: binPath, Console: console}
		return o.Run(ctx, req, sink)
	}
	e.swap(State{Phase: PhaseIdle})
	return e
}

// Bus exposes the engine's event bus for console and state subscriptions.
func (e *Engine) Bus() EventBus.Bus { return e.bus }

// CurrentState returns the latest snapshot. Always safe to call.
func (e *Engine) CurrentState() State { return *e.snapshot.Load() }

// FetchInfo starts a metadata fetch for url and returns the operation id.
func (e *Engine) FetchInfo(url string) (string, error) {
	return e.begin(url, func(ctx context.Context, opID, binPath string, notices []string) {
		e.swap(State{
			Phase:   PhaseFetchingInfo,
			OpID:    opID,
			URL:     url,
			Notices: notices,
			Console: e.consoleLines(),
		})

		meta, err := e.fetchInfo(ctx, binPath, url, e.consoleSink())
		done := State{
			Phase:   PhaseCompleted,
			OpID:    opID,
			URL:     url,
			Notices: notices,
			Err:     err,
			Console: e.consoleLines(),
		}
		if err == nil {
			done.Metadata = &meta
		}
		e.finish(done)
	})
}

// Download starts a download and returns the operation id. Progress is
// visible through successive snapshots.
func (e *Engine) Download(req download.Request) (string, error) {
	return e.begin(req.URL, func(ctx context.Context, opID, binPath string, notices []string) {
		base := State{
			Phase:   PhaseDownloading,
			OpID:    opID,
			URL:     req.URL,
			Notices: notices,
		}
		base.Console = e.consoleLines()
		e.swap(base)

		sink := func(ev download.ProgressEvent) {
			next := base
			next.Progress = ev
			next.Console = e.consoleLines()
			e.swap(next)
		}

		res := e.runDL(ctx, binPath, req, e.consoleSink(), sink)
		last := e.CurrentState()
		e.finish(State{
			Phase:    PhaseCompleted,
			OpID:     opID,
			URL:      req.URL,
			Notices:  notices,
			Progress: last.Progress,
			Result:   &res,
			Err:      res.Err,
			Console:  e.consoleLines(),
		})
	})
}

// Cancel aborts the running operation, if any. The operation reaches its
// terminal snapshot on its own once the process is gone.
func (e *Engine) Cancel() {
	e.mu.Lock()
	cancel := e.cancel
	e.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Reset returns a completed engine to idle. No-op while an operation runs.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.busy {
		return
	}
	e.console.reset()
	e.swap(State{Phase: PhaseIdle})
}

// begin claims the single operation slot, provisions the tool and hands off
// to run on a fresh goroutine.
func (e *Engine) begin(url string, run func(ctx context.Context, opID, binPath string, notices []string)) (string, error) {
	e.mu.Lock()
	if e.busy {
		e.mu.Unlock()
		return "", ErrOperationInProgress
	}
	opID := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())
	e.busy = true
	e.cancel = cancel
	e.console.reset()
	e.mu.Unlock()

	e.swap(State{Phase: PhaseCheckingTool, OpID: opID, URL: url})

	go func() {
		defer cancel()

		inst, err := e.provision(ctx)
		if err != nil {
			e.finish(State{
				Phase:   PhaseCompleted,
				OpID:    opID,
				URL:     url,
				Err:     err,
				Console: e.consoleLines(),
			})
			return
		}
		run(ctx, opID, inst.BinPath, inst.Notices)
	}()

	return opID, nil
}

// finish publishes the terminal snapshot and releases the operation slot.
func (e *Engine) finish(s State) {
	e.mu.Lock()
	e.busy = false
	e.cancel = nil
	e.mu.Unlock()
	e.swap(s)
	if s.Err != nil {
		e.log("operation %s failed: %v", s.OpID, s.Err)
	} else {
		e.log("operation %s completed", s.OpID)
	}
}

// swap publishes the state event first so that by the time a reader observes
// the new snapshot, synchronous subscribers have already run.
func (e *Engine) swap(s State) {
	e.bus.Publish(TopicState, s)
	e.snapshot.Store(&s)
}

// consoleSink records a raw tool output line and streams it on the bus.
func (e *Engine) consoleSink() func(string) {
	return func(line string) {
		e.mu.Lock()
		e.console.push(line)
		e.mu.Unlock()
		e.bus.Publish(TopicConsole, line)
	}
}

func (e *Engine) consoleLines() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.console.snapshot()
}

func (e *Engine) log(format string, v ...any) {
	if e.logf != nil {
		e.logf(format, v...)
	}
}

// WaitIdle blocks until the engine has no running operation or the timeout
// elapses. Intended for orderly shutdown of front ends.
func (e *Engine) WaitIdle(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		e.mu.Lock()
		busy := e.busy
		e.mu.Unlock()
		if !busy {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(10 * time.Millisecond)
	}
}
