// Package panel message handling. Update routes keyboard intents to the
// session manager and the rules side channel, and folds session snapshots
// back into the model.
package panel

import (
	"context"
	goerrors "errors"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/filter-panel/panel/internal/errors"
	"github.com/filter-panel/panel/internal/interfaces"
	"github.com/filter-panel/panel/internal/session"
)

const ruleSubmitTimeout = 15 * time.Second

// Update implements tea.Model
func (m PanelModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.terminalWidth = msg.Width
		m.terminalHeight = msg.Height
		return m, nil

	case sessionUpdateMsg:
		if !msg.ok {
			m.sessionEnded = true
			return m, nil
		}
		m.state = msg.state
		return m, waitForSessionUpdate(m.session)

	case ruleSubmitResultMsg:
		if msg.err != nil {
			m.session.FinishRuleSubmission(userMessage(msg.err))
		} else {
			m.session.FinishRuleSubmission("")
			m.ruleInput.SetValue("")
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

// handleKey processes keyboard input according to the current focus
func (m PanelModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit

	case "tab":
		if m.focus == FocusTestInput {
			m.focus = FocusRuleInput
			m.testInput.Blur()
			m.ruleInput.Focus()
		} else {
			m.focus = FocusTestInput
			m.ruleInput.Blur()
			m.testInput.Focus()
		}
		m.logger.LogUIStateChange("focus", focusName(m.focus), "tab")
		return m, nil

	case "ctrl+t":
		m.inspectorVisible = !m.inspectorVisible
		return m, nil

	case "ctrl+k":
		m.ruleKind = toggleRuleKind(m.ruleKind)
		return m, nil

	case "ctrl+r":
		if m.state.Phase == session.PhaseGaveUp {
			m.session.Reconnect()
		}
		return m, nil

	case "enter":
		return m.handleSubmit()
	}

	return m.updateFocusedInput(msg)
}

// handleSubmit dispatches the focused form
func (m PanelModel) handleSubmit() (tea.Model, tea.Cmd) {
	switch m.focus {
	case FocusTestInput:
		url := m.testInput.Value()
		if url == "" {
			return m, nil
		}
		m.session.SubmitURLTest(url)
		m.testInput.SetValue("")
		return m, nil

	case FocusRuleInput:
		value := m.ruleInput.Value()
		if value == "" || m.state.AddingRule {
			return m, nil
		}
		m.session.BeginRuleSubmission()
		return m, m.submitRule(m.ruleKind, value)
	}
	return m, nil
}

// submitRule fires the side-channel request off the UI goroutine
func (m PanelModel) submitRule(kind interfaces.RuleKind, value string) tea.Cmd {
	client := m.rulesClient
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), ruleSubmitTimeout)
		defer cancel()
		return ruleSubmitResultMsg{err: client.AddRule(ctx, kind, value)}
	}
}

// toggleRuleKind flips between the two rule categories
func toggleRuleKind(kind interfaces.RuleKind) interfaces.RuleKind {
	if kind == interfaces.RuleDomain {
		return interfaces.RuleKeyword
	}
	return interfaces.RuleDomain
}

// userMessage prefers the contextual error's user-facing text
func userMessage(err error) string {
	var ce *errors.ContextualError
	if goerrors.As(err, &ce) {
		return ce.GetUserMessage()
	}
	return err.Error()
}

// updateFocusedInput forwards remaining keys to the focused text field
func (m PanelModel) updateFocusedInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.focus {
	case FocusTestInput:
		m.testInput, cmd = m.testInput.Update(msg)
	case FocusRuleInput:
		m.ruleInput, cmd = m.ruleInput.Update(msg)
	}
	return m, cmd
}

func focusName(focus FocusState) string {
	if focus == FocusRuleInput {
		return "rule-input"
	}
	return "test-input"
}
