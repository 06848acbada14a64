// Package protocol implements the envelope codec for the realtime control
// channel. Every message on the channel is a JSON envelope discriminated by
// a "type" field; this package owns serialization of outgoing commands and
// parsing/validation of incoming events into typed messages.
package protocol

import "github.com/filter-panel/panel/internal/interfaces"

// Envelope type discriminators
const (
	TypeTestURL    = "test_url"
	TypeRules      = "rules"
	TypeTestResult = "test_result"
)

// TestCommand is the outbound envelope requesting classification of one URL
type TestCommand struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// rulesEnvelope is the inbound rules-snapshot wire shape
type rulesEnvelope struct {
	Type            string   `json:"type"`
	BlockedDomains  []string `json:"blockedDomains"`
	BlockedKeywords []string `json:"blockedKeywords"`
}

// testResultEnvelope is the inbound classification-verdict wire shape
type testResultEnvelope struct {
	Type    string `json:"type"`
	URL     string `json:"url"`
	Blocked bool   `json:"blocked"`
	Reason  string `json:"reason"`
}

// EventKind discriminates decoded inbound events
type EventKind int

const (
	EventRules EventKind = iota
	EventTestResult
)

// Event is a decoded, validated inbound envelope. Exactly one of Rules or
// Result is meaningful, selected by Kind.
type Event struct {
	Kind   EventKind
	Rules  interfaces.RuleSet
	Result interfaces.TestResult
}
