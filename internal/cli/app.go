package cli

import (
	"io"
	"log"
	"time"

	"tubegrab/internal/config"
	"tubegrab/internal/engine"
	"tubegrab/internal/logx"
	"tubegrab/internal/paths"
	"tubegrab/internal/proc"
	"tubegrab/internal/tool"
)

// app bundles the wiring every command needs: resolved paths, settings, a
// file logger and a ready engine.
type app struct {
	paths    paths.AppPaths
	settings config.Settings
	logger   *log.Logger
	logClose io.Closer
	eng      *engine.Engine
}

// newApp resolves the state directory, loads settings and constructs the
// engine. logName names the per-invocation log file.
func newApp(logName string) (*app, error) {
	p, err := paths.Resolve()
	if err != nil {
		return nil, err
	}
	if err := p.EnsureDirs(); err != nil {
		return nil, err
	}

	settings, err := config.Load(p.SettingsFile)
	if err != nil {
		return nil, err
	}

	logger, closer, err := logx.New(p, logName)
	if err != nil {
		return nil, err
	}

	interval, err := settings.UpdateInterval()
	if err != nil {
		closer.Close()
		return nil, err
	}

	prov := tool.New(p.BinDir, interval)
	prov.Logf = logger.Printf

	eng := engine.New(engine.Config{
		Provisioner:  prov,
		Runner:       &proc.ExecRunner{},
		ConsoleLines: settings.ConsoleLines,
		Logf:         logger.Printf,
	})

	return &app{
		paths:    p,
		settings: settings,
		logger:   logger,
		logClose: closer,
		eng:      eng,
	}, nil
}

func (a *app) close() {
	if a.logClose != nil {
		a.logClose.Close()
	}
}

// outputDir resolves the effective download directory: the --dir flag, then
// settings, then the platform default.
func (a *app) outputDir() string {
	if outputDir != "" {
		return outputDir
	}
	if a.settings.OutputDir != "" {
		return a.settings.OutputDir
	}
	return paths.DefaultDownloadDir()
}

// waitCompleted polls the engine until the running operation reaches its
// terminal snapshot.
func waitCompleted(eng *engine.Engine) engine.State {
	for {
		s := eng.CurrentState()
		if s.Phase == engine.PhaseCompleted {
			return s
		}
		time.Sleep(25 * time.Millisecond)
	}
}

func printNotices(out func(format string, v ...any), notices []string) {
	for _, notice := range notices {
		out("warning: %s\n", notice)
	}
}
