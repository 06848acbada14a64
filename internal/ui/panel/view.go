// Package panel rendering. View draws the current session snapshot: status
// bar, rule lists, test form, rule form, access log, and the optional
// payload inspector.
package panel

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/filter-panel/panel/internal/interfaces"
	"github.com/filter-panel/panel/internal/ui/components"
)

const maxVisibleLogRows = 12

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#89B4FA"))

	sectionTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#CDD6F4")).
				MarginTop(1)

	listItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#BAC2DE")).
			PaddingLeft(2)

	emptyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C7086")).
			Italic(true).
			PaddingLeft(2)

	timestampStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C7086"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C7086")).
			MarginTop(1)

	columnStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#45475A")).
			Padding(0, 1).
			MarginRight(1)

	kindSelectedStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#A6E3A1"))

	kindUnselectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#6C7086"))
)

// View implements tea.Model
func (m PanelModel) View() string {
	if m.quitting {
		return "Closing session...\n"
	}

	var b strings.Builder

	header := lipgloss.JoinHorizontal(lipgloss.Center,
		titleStyle.Render(fmt.Sprintf("Filter Panel — %s  ", m.profile.Name)),
		components.RenderConnectionStatus(m.state),
	)
	b.WriteString(header)
	b.WriteString("\n")

	b.WriteString(m.renderRules())
	b.WriteString(m.renderTestSection())
	b.WriteString(m.renderRuleSection())
	b.WriteString(components.RenderNoticePane(m.state.Notice, m.terminalWidth-2))
	b.WriteString(m.renderAccessLog())

	if m.inspectorVisible {
		b.WriteString(m.renderInspector())
	}

	b.WriteString(helpStyle.Render(
		"tab: switch field · enter: submit · ctrl+k: rule kind · ctrl+t: payload inspector · ctrl+r: reconnect · esc: quit"))
	b.WriteString("\n")

	return b.String()
}

// renderRules draws the two rule columns from the authoritative snapshot
func (m PanelModel) renderRules() string {
	if !m.state.RulesLoaded {
		return sectionTitleStyle.Render("Block Rules") + "\n" +
			emptyStyle.Render(m.spin.View()+" waiting for rule snapshot...") + "\n"
	}

	domains := renderRuleColumn("Blocked Domains", m.state.Rules.Domains)
	keywords := renderRuleColumn("Blocked Keywords", m.state.Rules.Keywords)

	return sectionTitleStyle.Render("Block Rules") + "\n" +
		lipgloss.JoinHorizontal(lipgloss.Top, domains, keywords) + "\n"
}

func renderRuleColumn(title string, values []string) string {
	var rows []string
	rows = append(rows, lipgloss.NewStyle().Bold(true).Render(title))
	if len(values) == 0 {
		rows = append(rows, emptyStyle.Render("none"))
	}
	for _, v := range values {
		rows = append(rows, listItemStyle.Render("• "+v))
	}
	return columnStyle.Render(strings.Join(rows, "\n"))
}

// renderTestSection draws the URL test form and the most recent verdict
func (m PanelModel) renderTestSection() string {
	var b strings.Builder
	b.WriteString(sectionTitleStyle.Render("Test a URL"))
	b.WriteString("\n")
	b.WriteString(m.testInput.View())
	b.WriteString("\n")

	if m.state.Testing {
		b.WriteString(listItemStyle.Render(m.spin.View() + " testing..."))
		b.WriteString("\n")
	} else if result := m.state.LastResult; result != nil {
		b.WriteString(listItemStyle.Render(fmt.Sprintf("%s  %s — %s",
			components.RenderBadge(result.Blocked), result.URL, result.Reason)))
		b.WriteString("\n")
	}

	return b.String()
}

// renderRuleSection draws the add-rule form with its kind selector
func (m PanelModel) renderRuleSection() string {
	var b strings.Builder
	b.WriteString(sectionTitleStyle.Render("Add a Block Rule"))
	b.WriteString("\n")

	domainLabel := kindUnselectedStyle.Render("domain")
	keywordLabel := kindUnselectedStyle.Render("keyword")
	if m.ruleKind == interfaces.RuleDomain {
		domainLabel = kindSelectedStyle.Render("[domain]")
	} else {
		keywordLabel = kindSelectedStyle.Render("[keyword]")
	}
	b.WriteString(listItemStyle.Render(domainLabel + " " + keywordLabel))
	b.WriteString("\n")
	b.WriteString(m.ruleInput.View())
	b.WriteString("\n")

	if m.state.AddingRule {
		b.WriteString(listItemStyle.Render(m.spin.View() + " submitting rule..."))
		b.WriteString("\n")
	}

	return b.String()
}

// renderAccessLog draws the newest-first test history
func (m PanelModel) renderAccessLog() string {
	var b strings.Builder
	b.WriteString(sectionTitleStyle.Render("Access Log"))
	b.WriteString("\n")

	if len(m.state.Log) == 0 {
		b.WriteString(emptyStyle.Render("no tests yet"))
		b.WriteString("\n")
		return b.String()
	}

	rows := m.state.Log
	if len(rows) > maxVisibleLogRows {
		rows = rows[:maxVisibleLogRows]
	}
	for _, entry := range rows {
		b.WriteString(listItemStyle.Render(fmt.Sprintf("%s  %s  %s — %s",
			timestampStyle.Render(entry.Timestamp.Format("15:04:05")),
			components.RenderBadge(entry.Blocked),
			entry.URL,
			entry.Reason)))
		b.WriteString("\n")
	}
	if hidden := len(m.state.Log) - len(rows); hidden > 0 {
		b.WriteString(emptyStyle.Render(fmt.Sprintf("... %d older entries", hidden)))
		b.WriteString("\n")
	}

	return b.String()
}

// renderInspector draws the highlighted raw payload of the latest envelope
func (m PanelModel) renderInspector() string {
	var b strings.Builder
	b.WriteString(sectionTitleStyle.Render("Payload Inspector"))
	b.WriteString("\n")

	if len(m.state.LastPayload) == 0 {
		b.WriteString(emptyStyle.Render("no payload received yet"))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(m.highlighter.FormatPayload(m.state.LastPayload))
	b.WriteString("\n")

	return b.String()
}
