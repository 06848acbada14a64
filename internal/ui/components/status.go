// Package components provides shared, reusable interface elements for the
// filter panel. This file implements the connection status indicator shown
// in the panel's status bar.
package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/filter-panel/panel/internal/session"
)

// phaseStyles maps session phases to their corresponding visual style.
var phaseStyles = map[session.Phase]lipgloss.Style{
	session.PhaseIdle:          lipgloss.NewStyle().Foreground(lipgloss.Color("#89B4FA")),
	session.PhaseConnecting:    lipgloss.NewStyle().Foreground(lipgloss.Color("#F9E2AF")),
	session.PhaseConnected:     lipgloss.NewStyle().Foreground(lipgloss.Color("#A6E3A1")),
	session.PhaseAwaitingRetry: lipgloss.NewStyle().Foreground(lipgloss.Color("#FAB387")),
	session.PhaseGaveUp:        lipgloss.NewStyle().Foreground(lipgloss.Color("#F38BA8")),
}

// phaseIcons maps session phases to their corresponding icon.
var phaseIcons = map[session.Phase]string{
	session.PhaseIdle:          "◌",
	session.PhaseConnecting:    "◍",
	session.PhaseConnected:     "●",
	session.PhaseAwaitingRetry: "◍",
	session.PhaseGaveUp:        "○",
}

// RenderConnectionStatus formats the session phase for the status bar. It
// returns a styled string ready for display.
func RenderConnectionStatus(state session.State) string {
	style, exists := phaseStyles[state.Phase]
	if !exists {
		style = lipgloss.NewStyle()
	}

	icon, exists := phaseIcons[state.Phase]
	if !exists {
		icon = "◌"
	}

	label := describePhase(state)
	return style.Render(fmt.Sprintf("%s %s", icon, label))
}

// describePhase produces the human-readable status-bar label
func describePhase(state session.State) string {
	switch state.Phase {
	case session.PhaseConnected:
		return "Connected"
	case session.PhaseConnecting:
		return "Connecting..."
	case session.PhaseAwaitingRetry:
		return fmt.Sprintf("Reconnecting (attempt %d)...", state.RetryAttempt)
	case session.PhaseGaveUp:
		return "Disconnected (press ctrl+r to reconnect)"
	default:
		return "Idle"
	}
}

// RenderBadge formats a small labeled verdict, used for test results and
// access-log rows
func RenderBadge(blocked bool) string {
	if blocked {
		return lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F38BA8")).
			Bold(true).
			Render("BLOCKED")
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("#A6E3A1")).
		Bold(true).
		Render("ALLOWED")
}
