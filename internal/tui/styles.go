package tui

import (
	"github.com/charmbracelet/lipgloss"

	"tubegrab/internal/engine"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	noticeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	consoleStyle = lipgloss.NewStyle().Faint(true)

	phaseStyles = map[engine.Phase]lipgloss.Style{
		engine.PhaseCheckingTool: lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		engine.PhaseFetchingInfo: lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		engine.PhaseDownloading:  lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		engine.PhaseCompleted:    lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		engine.PhaseIdle:         lipgloss.NewStyle().Faint(true),
	}
)

func phaseStyle(p engine.Phase) lipgloss.Style {
	if s, ok := phaseStyles[p]; ok {
		return s
	}
	return lipgloss.NewStyle()
}

func phaseLabel(p engine.Phase) string {
	switch p {
	case engine.PhaseCheckingTool:
		return "checking tool"
	case engine.PhaseFetchingInfo:
		return "fetching info"
	case engine.PhaseDownloading:
		return "downloading"
	case engine.PhaseCompleted:
		return "done"
	default:
		return "idle"
	}
}
