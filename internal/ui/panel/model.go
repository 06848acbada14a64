// Package panel implements the control-panel interface for the filter
// proxy. This file defines the PanelModel structure containing the latest
// session snapshot, the test and rule input fields, focus management, and
// the payload inspector state. All network and ordering concerns live in the
// session manager; the model only renders snapshots and forwards intents.
package panel

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/filter-panel/panel/internal/content"
	"github.com/filter-panel/panel/internal/interfaces"
	"github.com/filter-panel/panel/internal/logging"
	"github.com/filter-panel/panel/internal/session"
)

// FocusState represents the current focus location within the panel
type FocusState int

const (
	FocusTestInput FocusState = iota
	FocusRuleInput
)

// PanelModel represents the complete state and dependencies for the panel
type PanelModel struct {
	// Injected dependencies
	profile     *interfaces.Profile
	session     *session.Manager
	rulesClient interfaces.RulesClient
	highlighter *content.SyntaxHighlighter
	theme       *interfaces.Theme
	logger      *logging.Logger

	// Latest session snapshot; replaced wholesale on every update
	state        session.State
	sessionEnded bool

	// Interactive elements
	testInput textinput.Model
	ruleInput textinput.Model
	ruleKind  interfaces.RuleKind
	focus     FocusState
	spin      spinner.Model

	// Payload inspector
	inspectorVisible bool

	// Terminal dimensions for responsive layout
	terminalWidth  int
	terminalHeight int

	quitting bool
}

// sessionUpdateMsg carries one state snapshot from the session manager
type sessionUpdateMsg struct {
	state session.State
	ok    bool
}

// ruleSubmitResultMsg carries the outcome of an asynchronous rule submission
type ruleSubmitResultMsg struct {
	err error
}

// NewPanelModel assembles the panel around a started session manager
func NewPanelModel(
	profile *interfaces.Profile,
	sess *session.Manager,
	rulesClient interfaces.RulesClient,
	theme *interfaces.Theme,
) PanelModel {
	testInput := textinput.New()
	testInput.Placeholder = "URL to test, e.g. example.com"
	testInput.CharLimit = 512
	testInput.Focus()

	ruleInput := textinput.New()
	ruleInput.Placeholder = "domain or keyword to block"
	ruleInput.CharLimit = 256

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	return PanelModel{
		profile:     profile,
		session:     sess,
		rulesClient: rulesClient,
		highlighter: content.NewSyntaxHighlighter(profile.Theme),
		theme:       theme,
		logger:      logging.GetUILogger(),
		state:       session.NewState(profile.LogRetention),
		testInput:   testInput,
		ruleInput:   ruleInput,
		ruleKind:    interfaces.RuleDomain,
		focus:       FocusTestInput,
		spin:        spin,
	}
}

// Init subscribes to session updates and starts the spinner tick
func (m PanelModel) Init() tea.Cmd {
	return tea.Batch(
		waitForSessionUpdate(m.session),
		m.spin.Tick,
	)
}

// waitForSessionUpdate blocks on the next snapshot from the session manager.
// Re-issued after every received update so the subscription stays live.
func waitForSessionUpdate(sess *session.Manager) tea.Cmd {
	return func() tea.Msg {
		state, ok := <-sess.Updates()
		return sessionUpdateMsg{state: state, ok: ok}
	}
}
