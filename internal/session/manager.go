package session

import (
	"context"
	"strings"
	"time"

	"github.com/filter-panel/panel/internal/interfaces"
	"github.com/filter-panel/panel/internal/logging"
	"github.com/filter-panel/panel/internal/protocol"
)

// TransportFactory constructs a fresh transport for each connection attempt.
// Transports are single-use, so every reconnect needs a new instance.
type TransportFactory func() interfaces.Transport

// Config configures a Manager
type Config struct {
	Factory      TransportFactory
	Retry        interfaces.RetryConfig
	LogRetention int
}

type commandKind int

const (
	cmdTestURL commandKind = iota
	cmdReconnect
	cmdBeginRuleSubmission
	cmdFinishRuleSubmission
)

type command struct {
	kind commandKind
	url  string
	err  string
}

// Manager is the realtime session manager. One goroutine owns the single
// live transport, the single pending retry timer, the reconnection policy,
// and the state store; every transport event, timer fire, and command is
// serialized through it, so state transitions are linearizable with respect
// to the transport's message stream.
type Manager struct {
	cfg    Config
	policy *Policy
	logger *logging.Logger

	commands chan command
	updates  chan State

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	state State
}

// NewManager creates a manager. Call Start to connect and begin processing.
func NewManager(cfg Config) *Manager {
	logger := logging.GetSessionLogger()
	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		cfg: cfg,
		policy: NewPolicy(PolicySettings{
			Retry: cfg.Retry,
			OnPhaseChange: func(from, to Phase) {
				logger.Debug("Session phase change",
					"from", from.String(), "to", to.String())
			},
		}),
		logger:   logger,
		commands: make(chan command, 16),
		updates:  make(chan State, 1),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
		state:    NewState(cfg.LogRetention),
	}
}

// Updates returns the channel of state snapshots. The buffer holds only the
// latest snapshot; a slow consumer sees the freshest state, never a backlog.
// The channel is closed on shutdown.
func (m *Manager) Updates() <-chan State {
	return m.updates
}

// Start launches the event loop and the first connection attempt
func (m *Manager) Start() {
	go m.run()
}

// SubmitURLTest dispatches a URL classification request. Resolution is
// asynchronous: the verdict arrives later as a state update carrying the
// test result. Duplicate submissions while a test is in flight and empty
// URLs are ignored.
func (m *Manager) SubmitURLTest(url string) {
	m.enqueue(command{kind: cmdTestURL, url: url})
}

// Reconnect manually restarts the session after the policy has given up.
// Any scheduled retry is cancelled first.
func (m *Manager) Reconnect() {
	m.enqueue(command{kind: cmdReconnect})
}

// BeginRuleSubmission marks a rule submission in flight so the UI can gate
// duplicates. The submission itself travels over the HTTP side channel.
func (m *Manager) BeginRuleSubmission() {
	m.enqueue(command{kind: cmdBeginRuleSubmission})
}

// FinishRuleSubmission clears the in-flight flag; errMessage is surfaced as
// a notice when non-empty
func (m *Manager) FinishRuleSubmission(errMessage string) {
	m.enqueue(command{kind: cmdFinishRuleSubmission, err: errMessage})
}

// Close tears the session down: the retry timer is stopped, the transport is
// closed, and the updates channel is closed once the loop exits
func (m *Manager) Close() {
	m.cancel()
	<-m.done
}

func (m *Manager) enqueue(cmd command) {
	select {
	case m.commands <- cmd:
	case <-m.ctx.Done():
	}
}

func (m *Manager) run() {
	defer close(m.done)
	defer close(m.updates)

	var (
		current interfaces.Transport
		events  <-chan interfaces.TransportEvent
		retry   *time.Timer
		retryCh <-chan time.Time
	)

	stopRetry := func() {
		if retry != nil {
			retry.Stop()
			retry = nil
			retryCh = nil
		}
	}

	connect := func() {
		m.policy.ConnectStarted()
		m.state.Phase = m.policy.Phase()
		m.state.Status = interfaces.StatusConnecting
		m.publish()

		t := m.cfg.Factory()
		m.logger.LogConnectionAttempt("control channel", m.policy.Attempt())
		if err := t.Open(m.ctx); err != nil {
			m.logger.Error("Connection attempt failed", "error", err.Error())
			m.handleClosure(&retry, &retryCh)
			return
		}
		current = t
		events = t.Events()
	}

	teardown := func() {
		stopRetry()
		if current != nil {
			current.Close()
			for range events {
				// Drain so the read pump can emit its terminal event and exit
			}
			current = nil
			events = nil
		}
	}

	connect()

	for {
		select {
		case <-m.ctx.Done():
			teardown()
			return

		case <-retryCh:
			stopRetry()
			connect()

		case event, ok := <-events:
			if !ok {
				events = nil
				current = nil
				continue
			}
			switch event.Kind {
			case interfaces.TransportOpened:
				m.policy.Opened()
				m.apply(TransportOpenedEvent{})

			case interfaces.TransportReceived:
				m.handleMessage(event.Message)

			case interfaces.TransportError:
				// Non-fatal; the terminal Closed event follows
				m.logger.Warn("Transport fault", "error", event.Err.Error())

			case interfaces.TransportClosed:
				current = nil
				events = nil
				m.apply(TransportClosedEvent{Code: event.Code, Reason: event.Reason})
				m.handleClosure(&retry, &retryCh)
			}

		case cmd := <-m.commands:
			switch cmd.kind {
			case cmdTestURL:
				m.dispatchTest(current, cmd.url)

			case cmdReconnect:
				if m.policy.Phase() == PhaseConnected || m.policy.Phase() == PhaseConnecting {
					continue
				}
				stopRetry()
				m.policy.Reset()
				connect()

			case cmdBeginRuleSubmission:
				m.apply(RuleSubmittedEvent{})

			case cmdFinishRuleSubmission:
				m.apply(RuleSubmissionDoneEvent{Err: cmd.err})
			}
		}
	}
}

// handleClosure consults the policy after a closure or failed attempt,
// scheduling at most one retry timer
func (m *Manager) handleClosure(retry **time.Timer, retryCh *<-chan time.Time) {
	delay, shouldRetry := m.policy.Closed()
	m.state.Phase = m.policy.Phase()
	m.state.RetryAttempt = m.policy.Attempt()

	if shouldRetry {
		m.logger.LogReconnectScheduled(m.policy.Attempt(), delay)
		timer := time.NewTimer(delay)
		*retry = timer
		*retryCh = timer.C
	} else {
		m.logger.Error("Reconnection attempts exhausted",
			"max_attempts", m.cfg.Retry.MaxAttempts)
	}
	m.publish()
}

// handleMessage decodes one inbound envelope and applies it to the store.
// Undecodable envelopes are logged and dropped; the store never sees them.
func (m *Manager) handleMessage(raw []byte) {
	event, err := protocol.DecodeEvent(raw)
	if err != nil {
		m.logger.LogDecodeFailure(err, len(raw))
		return
	}

	switch event.Kind {
	case protocol.EventRules:
		m.apply(RulesReceivedEvent{Rules: event.Rules, Raw: raw})
	case protocol.EventTestResult:
		m.apply(TestResultReceivedEvent{Result: event.Result, Raw: raw, At: time.Now()})
	}
}

// dispatchTest implements the command dispatcher for URL tests
func (m *Manager) dispatchTest(current interfaces.Transport, url string) {
	url = strings.TrimSpace(url)
	if url == "" || m.state.Testing {
		m.logger.Debug("Ignoring test submission",
			"empty", url == "", "in_flight", m.state.Testing)
		return
	}

	normalized := NormalizeURL(url)

	if m.policy.Phase() != PhaseConnected || current == nil {
		m.apply(TestFailedLocallyEvent{URL: normalized, Reason: "not connected to proxy"})
		return
	}

	raw, err := protocol.EncodeTestCommand(normalized)
	if err != nil {
		m.logger.LogSendFailure(protocol.TypeTestURL, err)
		return
	}

	if err := current.Send(raw); err != nil {
		m.logger.LogSendFailure(protocol.TypeTestURL, err)
		m.apply(TestFailedLocallyEvent{URL: normalized, Reason: "send failed"})
		return
	}

	m.apply(TestSubmittedEvent{URL: normalized})
}

// apply reduces one event into the store and publishes a snapshot
func (m *Manager) apply(event Event) {
	m.state = Reduce(m.state, event)
	m.state.Phase = m.policy.Phase()
	m.state.RetryAttempt = m.policy.Attempt()
	m.publish()
}

// publish delivers the latest snapshot, replacing a stale undelivered one
func (m *Manager) publish() {
	select {
	case m.updates <- m.state:
		return
	default:
	}
	select {
	case <-m.updates:
	default:
	}
	select {
	case m.updates <- m.state:
	default:
	}
}

// NormalizeURL prefixes http:// when the URL carries no scheme
func NormalizeURL(url string) string {
	if strings.Contains(url, "://") {
		return url
	}
	return "http://" + url
}
