package session

import (
	"time"

	"github.com/filter-panel/panel/internal/interfaces"
)

// State is the single source of truth for everything the UI renders about
// the session. It is mutated only by Reduce, never directly.
type State struct {
	Status interfaces.ConnectionStatus

	// Phase mirrors the reconnection policy so the UI can distinguish
	// "reconnecting" from "gave up"; the store itself only tracks Status.
	Phase        Phase
	RetryAttempt int

	Rules        interfaces.RuleSet
	RulesLoaded  bool
	LastResult   *interfaces.TestResult
	Log          []interfaces.LogEntry
	LogRetention int

	Testing    bool
	AddingRule bool

	// Notice is a transient user-facing message, such as the local failure
	// reported when a test is submitted while disconnected
	Notice string

	// LastPayload is the most recent raw inbound envelope, kept for the
	// payload inspector
	LastPayload []byte
}

// NewState returns the initial disconnected state. retention bounds the
// access log; zero keeps it unbounded.
func NewState(retention int) State {
	return State{
		Status:       interfaces.StatusConnecting,
		Phase:        PhaseIdle,
		LogRetention: retention,
	}
}

// Event is a state-store event. Exactly the transport lifecycle and decoded
// protocol messages mutate the store, plus the dispatcher's local
// submission/failure markers.
type Event interface{ isEvent() }

// TransportOpenedEvent records a completed opening handshake
type TransportOpenedEvent struct{}

// TransportClosedEvent records transport termination of any kind
type TransportClosedEvent struct {
	Code   int
	Reason string
}

// RulesReceivedEvent carries the server's authoritative rule snapshot. Raw
// is the wire envelope it was decoded from, kept for the payload inspector.
type RulesReceivedEvent struct {
	Rules interfaces.RuleSet
	Raw   []byte
}

// TestResultReceivedEvent carries a classification verdict. At is the
// client-local capture time used for the access-log entry.
type TestResultReceivedEvent struct {
	Result interfaces.TestResult
	Raw    []byte
	At     time.Time
}

// TestSubmittedEvent records a dispatched URL test
type TestSubmittedEvent struct {
	URL string
}

// TestFailedLocallyEvent records a test that never reached the wire
type TestFailedLocallyEvent struct {
	URL    string
	Reason string
}

// RuleSubmittedEvent records a rule submission in flight on the side channel
type RuleSubmittedEvent struct{}

// RuleSubmissionDoneEvent records the side channel's response; Err is empty
// on success
type RuleSubmissionDoneEvent struct {
	Err string
}

func (TransportOpenedEvent) isEvent()    {}
func (TransportClosedEvent) isEvent()    {}
func (RulesReceivedEvent) isEvent()      {}
func (TestResultReceivedEvent) isEvent() {}
func (TestSubmittedEvent) isEvent()      {}
func (TestFailedLocallyEvent) isEvent()  {}
func (RuleSubmittedEvent) isEvent()      {}
func (RuleSubmissionDoneEvent) isEvent() {}

// Reduce maps (state, event) to the next state. It is pure: no I/O, no
// clock, no mutation of the input. Unrecognized events leave the state
// untouched.
//
// Correctness contract: RuleSet is only ever replaced wholesale, and
// Testing never stays true after a matching result or a transport loss.
func Reduce(state State, event Event) State {
	switch e := event.(type) {
	case TransportOpenedEvent:
		state.Status = interfaces.StatusConnected
		state.Notice = ""

	case TransportClosedEvent:
		state.Status = interfaces.StatusDisconnected
		// A result for an in-flight test can never arrive on a dead
		// transport; clear the flag so a reconnect does not leave the UI
		// stuck showing an in-progress test
		state.Testing = false

	case RulesReceivedEvent:
		state.Rules = e.Rules
		state.RulesLoaded = true
		if e.Raw != nil {
			state.LastPayload = e.Raw
		}

	case TestResultReceivedEvent:
		result := e.Result
		state.LastResult = &result
		state.Testing = false
		if e.Raw != nil {
			state.LastPayload = e.Raw
		}
		state.Log = prependLog(state.Log, interfaces.LogEntry{
			Timestamp: e.At,
			URL:       result.URL,
			Blocked:   result.Blocked,
			Reason:    result.Reason,
		}, state.LogRetention)

	case TestSubmittedEvent:
		state.Testing = true
		state.Notice = ""

	case TestFailedLocallyEvent:
		state.Testing = false
		state.Notice = e.Reason

	case RuleSubmittedEvent:
		state.AddingRule = true
		state.Notice = ""

	case RuleSubmissionDoneEvent:
		state.AddingRule = false
		state.Notice = e.Err
	}

	return state
}

// prependLog adds an entry newest-first, evicting the oldest entries beyond
// the retention cap. A zero cap keeps the log unbounded.
func prependLog(log []interfaces.LogEntry, entry interfaces.LogEntry, retention int) []interfaces.LogEntry {
	next := make([]interfaces.LogEntry, 0, len(log)+1)
	next = append(next, entry)
	next = append(next, log...)
	if retention > 0 && len(next) > retention {
		next = next[:retention]
	}
	return next
}
