// Package session implements the realtime session manager: the reconnection
// policy, the state store, the command dispatcher, and the event loop that
// owns the single live transport.
package session

import (
	"time"

	"github.com/filter-panel/panel/internal/interfaces"
)

// Phase is the reconnection policy's state
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseConnecting
	PhaseConnected
	PhaseAwaitingRetry
	PhaseGaveUp
)

// String returns the lowercase phase name used in logs
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseConnecting:
		return "connecting"
	case PhaseConnected:
		return "connected"
	case PhaseAwaitingRetry:
		return "awaiting-retry"
	case PhaseGaveUp:
		return "gave-up"
	default:
		return "unknown"
	}
}

// PolicySettings configures a Policy
type PolicySettings struct {
	Retry interfaces.RetryConfig

	// OnPhaseChange is called for every transition, before the new phase is
	// observable through Phase(). May be nil.
	OnPhaseChange func(from, to Phase)
}

// Policy decides whether and when to re-establish the transport after a
// closure. It is a pure state machine: it owns no timers and no goroutines;
// the caller owns the clock and reports transitions.
//
// Phases: Idle -> Connecting on the first connect; Connecting -> Connected
// on a completed handshake; on a closure the policy either schedules a retry
// (AwaitingRetry, with a bounded exponential delay) or gives up once the
// attempt ceiling is reached. GaveUp is terminal until Reset.
type Policy struct {
	settings PolicySettings
	phase    Phase
	attempt  int
}

// NewPolicy creates a policy in the Idle phase
func NewPolicy(settings PolicySettings) *Policy {
	return &Policy{settings: settings, phase: PhaseIdle}
}

// Phase returns the current phase
func (p *Policy) Phase() Phase {
	return p.phase
}

// Attempt returns the current retry attempt counter. Zero while connected or
// before the first retry.
func (p *Policy) Attempt() int {
	return p.attempt
}

// ConnectStarted records that a transport open has been issued
func (p *Policy) ConnectStarted() {
	p.transition(PhaseConnecting)
}

// Opened records a completed handshake. The attempt counter resets so a
// later unrelated disconnect restarts backoff from the beginning.
func (p *Policy) Opened() {
	p.attempt = 0
	p.transition(PhaseConnected)
}

// Closed records a transport closure and decides the next move. When a retry
// is warranted it returns the backoff delay and true; once the attempt
// ceiling is reached it returns false and the policy is terminal until
// Reset.
func (p *Policy) Closed() (time.Duration, bool) {
	if p.attempt >= p.settings.Retry.MaxAttempts {
		p.transition(PhaseGaveUp)
		return 0, false
	}

	delay := p.NextDelay()
	p.attempt++
	p.transition(PhaseAwaitingRetry)
	return delay, true
}

// NextDelay computes the backoff delay the next retry would use:
// min(BaseDelay * 2^attempt, DelayCeiling)
func (p *Policy) NextDelay() time.Duration {
	delay := p.settings.Retry.BaseDelay << uint(p.attempt)
	if delay <= 0 || delay > p.settings.Retry.DelayCeiling {
		delay = p.settings.Retry.DelayCeiling
	}
	return delay
}

// Reset returns a terminal or waiting policy to Idle for a manual reconnect
func (p *Policy) Reset() {
	p.attempt = 0
	p.transition(PhaseIdle)
}

func (p *Policy) transition(to Phase) {
	if p.phase == to {
		return
	}
	from := p.phase
	p.phase = to
	if p.settings.OnPhaseChange != nil {
		p.settings.OnPhaseChange(from, to)
	}
}
