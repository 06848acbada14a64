// Package components provides shared, reusable interface elements. This
// file implements the visual presentation for session notices: local test
// failures, rejected rule submissions, and other transient errors.
package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Styling for notice components.
var (
	noticePaneStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, true, true, true).
			BorderForeground(lipgloss.Color("#F38BA8")).
			MarginTop(1).
			Padding(0, 1)

	noticeHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#F38BA8"))
)

// RenderNoticePane renders a transient session notice. An empty notice
// renders nothing.
func RenderNoticePane(notice string, width int) string {
	if notice == "" {
		return ""
	}

	header := noticeHeaderStyle.Render(fmt.Sprintf("✗ %s", notice))

	pane := noticePaneStyle
	if width > 0 {
		pane = pane.Width(width)
	}
	return pane.Render(header)
}
