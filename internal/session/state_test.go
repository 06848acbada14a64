package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filter-panel/panel/internal/interfaces"
)

func TestReduceTransportOpened(t *testing.T) {
	state := NewState(0)
	state.Notice = "stale notice"

	next := Reduce(state, TransportOpenedEvent{})

	assert.Equal(t, interfaces.StatusConnected, next.Status)
	assert.Empty(t, next.Notice)
}

func TestReduceTransportClosed(t *testing.T) {
	state := NewState(0)
	state.Status = interfaces.StatusConnected

	next := Reduce(state, TransportClosedEvent{Code: 1006, Reason: "abnormal closure"})

	assert.Equal(t, interfaces.StatusDisconnected, next.Status)
}

func TestReduceRulesReplacedWholesale(t *testing.T) {
	state := NewState(0)
	state.Rules = interfaces.RuleSet{
		Domains:  []string{"old.com", "stale.com"},
		Keywords: []string{"legacy"},
	}

	next := Reduce(state, RulesReceivedEvent{Rules: interfaces.RuleSet{
		Domains:  []string{"a.com"},
		Keywords: []string{"spam"},
	}})

	assert.Equal(t, []string{"a.com"}, next.Rules.Domains)
	assert.Equal(t, []string{"spam"}, next.Rules.Keywords)
	assert.True(t, next.RulesLoaded)
}

func TestReduceTestResultClearsFlagAndPrependsLog(t *testing.T) {
	state := NewState(0)
	state.Testing = true
	at := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)

	next := Reduce(state, TestResultReceivedEvent{
		Result: interfaces.TestResult{
			URL:     "http://a.com",
			Blocked: true,
			Reason:  "Domain a.com is blocked",
		},
		At: at,
	})

	assert.False(t, next.Testing)
	require.NotNil(t, next.LastResult)
	assert.Equal(t, "http://a.com", next.LastResult.URL)
	assert.True(t, next.LastResult.Blocked)

	require.Len(t, next.Log, 1)
	assert.Equal(t, at, next.Log[0].Timestamp)
	assert.True(t, next.Log[0].Blocked)
	assert.Equal(t, "Domain a.com is blocked", next.Log[0].Reason)
}

func TestReduceLogIsNewestFirst(t *testing.T) {
	state := NewState(0)
	base := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)

	for i, url := range []string{"http://first.com", "http://second.com", "http://third.com"} {
		state = Reduce(state, TestResultReceivedEvent{
			Result: interfaces.TestResult{URL: url, Reason: "URL is allowed"},
			At:     base.Add(time.Duration(i) * time.Minute),
		})
	}

	require.Len(t, state.Log, 3)
	assert.Equal(t, "http://third.com", state.Log[0].URL)
	assert.Equal(t, "http://second.com", state.Log[1].URL)
	assert.Equal(t, "http://first.com", state.Log[2].URL)
}

func TestReduceLogRetentionEvictsOldest(t *testing.T) {
	state := NewState(2)

	for _, url := range []string{"http://one.com", "http://two.com", "http://three.com"} {
		state = Reduce(state, TestResultReceivedEvent{
			Result: interfaces.TestResult{URL: url},
			At:     time.Now(),
		})
	}

	require.Len(t, state.Log, 2)
	assert.Equal(t, "http://three.com", state.Log[0].URL)
	assert.Equal(t, "http://two.com", state.Log[1].URL)
}

func TestReduceZeroRetentionIsUnbounded(t *testing.T) {
	state := NewState(0)

	for i := 0; i < 50; i++ {
		state = Reduce(state, TestResultReceivedEvent{
			Result: interfaces.TestResult{URL: "http://example.com"},
			At:     time.Now(),
		})
	}

	assert.Len(t, state.Log, 50)
}

func TestReduceTransportClosedClearsStuckTestingFlag(t *testing.T) {
	state := NewState(0)
	state.Status = interfaces.StatusConnected
	state = Reduce(state, TestSubmittedEvent{URL: "http://a.com"})
	require.True(t, state.Testing)

	state = Reduce(state, TransportClosedEvent{Code: 1006})
	assert.False(t, state.Testing)

	// A later reconnect must not resurrect the flag
	state = Reduce(state, TransportOpenedEvent{})
	assert.False(t, state.Testing)
}

func TestReduceTestFailedLocally(t *testing.T) {
	state := NewState(0)
	state.Testing = true

	next := Reduce(state, TestFailedLocallyEvent{
		URL:    "http://a.com",
		Reason: "not connected to proxy",
	})

	assert.False(t, next.Testing)
	assert.Equal(t, "not connected to proxy", next.Notice)
	assert.Empty(t, next.Log, "a test that never reached the wire leaves no log entry")
}

func TestReduceRuleSubmissionLifecycle(t *testing.T) {
	state := NewState(0)

	state = Reduce(state, RuleSubmittedEvent{})
	assert.True(t, state.AddingRule)

	state = Reduce(state, RuleSubmissionDoneEvent{})
	assert.False(t, state.AddingRule)
	assert.Empty(t, state.Notice)

	state = Reduce(state, RuleSubmittedEvent{})
	state = Reduce(state, RuleSubmissionDoneEvent{Err: "Invalid rule type"})
	assert.False(t, state.AddingRule)
	assert.Equal(t, "Invalid rule type", state.Notice)
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	state := NewState(0)
	state.Rules = interfaces.RuleSet{Domains: []string{"a.com"}}
	state.Testing = true

	_ = Reduce(state, TestResultReceivedEvent{
		Result: interfaces.TestResult{URL: "http://b.com"},
		At:     time.Now(),
	})

	assert.True(t, state.Testing, "input state must be left untouched")
	assert.Empty(t, state.Log)
}
