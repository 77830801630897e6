package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"tubegrab/internal/download"
	"tubegrab/internal/engine"
)

const (
	tickInterval = 150 * time.Millisecond
	barWidth     = 30
	consoleTail  = 8
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// tickMsg drives polling and the spinner.
type tickMsg time.Time

// Model renders the engine's current operation. It owns no state of its own
// beyond animation; every frame re-reads an immutable engine snapshot.
type Model struct {
	eng   *engine.Engine
	title string

	state     engine.State
	tick      int
	done      bool
	cancelled bool
}

// NewModel creates a model bound to eng. title heads the display.
func NewModel(eng *engine.Engine, title string) Model {
	return Model{eng: eng, title: title, state: eng.CurrentState()}
}

func scheduleTick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init satisfies the tea.Model interface.
func (m Model) Init() tea.Cmd {
	return scheduleTick()
}

// Update satisfies the tea.Model interface.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.tick++
		m.state = m.eng.CurrentState()
		if m.state.Phase == engine.PhaseCompleted || m.state.Phase == engine.PhaseIdle {
			m.done = true
			return m, tea.Quit
		}
		return m, scheduleTick()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.cancelled {
				// Second press gives up on a graceful stop.
				m.done = true
				return m, tea.Quit
			}
			m.cancelled = true
			m.eng.Cancel()
			return m, nil
		}
	}
	return m, nil
}

// View satisfies the tea.Model interface.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(m.title))
	b.WriteByte('\n')

	s := m.state
	label := phaseLabel(s.Phase)
	if m.cancelled && !m.done {
		label = "cancelling"
	}
	if m.done {
		b.WriteString(phaseStyle(s.Phase).Render(label))
	} else {
		spinner := spinnerFrames[m.tick%len(spinnerFrames)]
		fmt.Fprintf(&b, "%s %s", spinner, phaseStyle(s.Phase).Render(label))
	}
	b.WriteByte('\n')

	if s.Phase == engine.PhaseDownloading || (s.Result != nil && s.Result.Outcome == download.OutcomeSuccess) {
		b.WriteString(renderProgress(s.Progress))
		b.WriteByte('\n')
	}

	for _, notice := range s.Notices {
		b.WriteString(noticeStyle.Render("! " + notice))
		b.WriteByte('\n')
	}

	if tail := lastLines(s.Console, consoleTail); len(tail) > 0 {
		b.WriteByte('\n')
		for _, line := range tail {
			b.WriteString(consoleStyle.Render(truncate(line, 100)))
			b.WriteByte('\n')
		}
	}

	if m.done {
		b.WriteString(m.renderOutcome())
	}

	return b.String()
}

func (m Model) renderOutcome() string {
	s := m.state
	switch {
	case s.Err != nil:
		return errorStyle.Render(fmt.Sprintf("Error: %v", s.Err)) + "\n"
	case s.Result != nil && s.Result.Outcome == download.OutcomeCancelled:
		return noticeStyle.Render("Cancelled; partial file left in place.") + "\n"
	case s.Result != nil && s.Result.OutputPath != "":
		return fmt.Sprintf("Saved to %s\n", s.Result.OutputPath)
	default:
		return ""
	}
}

// Err reports the operation's failure for the caller's exit code, if any.
func (m Model) Err() error {
	return m.state.Err
}

// renderProgress draws the bar plus speed and ETA, e.g.
//
//	[##############----------------]  47.3%  1.2MiB/s  ETA 00:32
func renderProgress(ev download.ProgressEvent) string {
	filled := int(ev.Percent / 100 * barWidth)
	if filled > barWidth {
		filled = barWidth
	}
	bar := strings.Repeat("#", filled) + strings.Repeat("-", barWidth-filled)

	out := fmt.Sprintf("[%s] %5.1f%%", bar, ev.Percent)
	if ev.BytesPerSecond > 0 {
		out += "  " + formatRate(ev.BytesPerSecond)
	}
	if ev.ETA != "" {
		out += "  ETA " + ev.ETA
	}
	return out
}

// formatRate renders bytes per second in the binary units the tool itself
// reports.
func formatRate(bps float64) string {
	switch {
	case bps >= 1<<30:
		return fmt.Sprintf("%.1fGiB/s", bps/(1<<30))
	case bps >= 1<<20:
		return fmt.Sprintf("%.1fMiB/s", bps/(1<<20))
	case bps >= 1<<10:
		return fmt.Sprintf("%.1fKiB/s", bps/(1<<10))
	default:
		return fmt.Sprintf("%.0fB/s", bps)
	}
}

func lastLines(lines []string, n int) []string {
	if len(lines) <= n {
		return lines
	}
	return lines[len(lines)-n:]
}

func truncate(value string, max int) string {
	if max <= 0 {
		return ""
	}
	value = strings.TrimSpace(value)
	if len(value) <= max {
		return value
	}
	if max <= 3 {
		return value[:max]
	}
	return value[:max-3] + "..."
}
