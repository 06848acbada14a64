// Package interfaces defines the shared data model and the core interfaces
// required for dependency injection and testability throughout the filter
// panel.
package interfaces

import (
	"context"
	"time"
)

// Profile represents a complete configuration profile for connecting to a
// filtering proxy
type Profile struct {
	Name         string        `yaml:"name"`
	ChannelURL   string        `yaml:"channelUrl"`
	RulesURL     string        `yaml:"rulesUrl"`
	Theme        string        `yaml:"theme"`
	Retry        RetryConfig   `yaml:"retry"`
	LogRetention int           `yaml:"logRetention"`
	Logging      LoggingConfig `yaml:"logging,omitempty"`
}

// RetryConfig holds the reconnection backoff parameters. Delay for the n-th
// retry (1-based) is min(BaseDelay * 2^(n-1), DelayCeiling); after
// MaxAttempts consecutive failures no further automatic retries are made.
type RetryConfig struct {
	BaseDelay    time.Duration `yaml:"baseDelay"`
	DelayCeiling time.Duration `yaml:"delayCeiling"`
	MaxAttempts  int           `yaml:"maxAttempts"`
}

// LoggingConfig controls the structured logging layer
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format,omitempty"` // "text", "json"
	File   string `yaml:"file,omitempty"`   // empty writes to stderr
}

// Theme represents visual styling configuration
type Theme struct {
	Name    string `yaml:"name"`
	Success string `yaml:"success"`
	Error   string `yaml:"error"`
	Warning string `yaml:"warning"`
	Info    string `yaml:"info"`
}

// ConnectionStatus describes the channel to the proxy as seen by the UI.
// Exactly one value is live at a time.
type ConnectionStatus int

const (
	StatusConnecting ConnectionStatus = iota
	StatusConnected
	StatusDisconnected
)

// String returns the lowercase name used in logs and the status bar
func (s ConnectionStatus) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// RuleSet is the proxy's authoritative block-rule snapshot. It is replaced
// wholesale on every rules event, never merged; uniqueness and ordering are
// server-determined.
type RuleSet struct {
	Domains  []string
	Keywords []string
}

// TestResult is the proxy's classification verdict for a single URL. At most
// one current result is held; each new test supersedes it.
type TestResult struct {
	URL     string
	Blocked bool
	Reason  string
}

// LogEntry is one line of the access log. Timestamp is the client-local
// capture time, not a server field.
type LogEntry struct {
	Timestamp time.Time
	URL       string
	Blocked   bool
	Reason    string
}

// RuleKind discriminates the two rule categories accepted by the proxy's
// rule-submission endpoint
type RuleKind string

const (
	RuleDomain  RuleKind = "domain"
	RuleKeyword RuleKind = "keyword"
)

// TransportEventKind discriminates transport lifecycle events
type TransportEventKind int

const (
	TransportOpened TransportEventKind = iota
	TransportReceived
	TransportClosed
	TransportError
)

// TransportEvent is a single lifecycle event raised by a Transport. Message
// is set for Received; Code and Reason for Closed; Err for Error. An Error
// event is non-fatal and is always followed by a Closed event.
type TransportEvent struct {
	Kind    TransportEventKind
	Message []byte
	Code    int
	Reason  string
	Err     error
}

// Transport owns one realtime duplex connection to the proxy's control
// channel. Implementations are single-use: after a Closed event the instance
// is spent and a reconnect constructs a fresh one.
type Transport interface {
	// Open initiates the connection attempt. It returns once the opening
	// handshake has succeeded or failed; on success an Opened event is
	// emitted and a read pump starts delivering further events.
	Open(ctx context.Context) error

	// Send writes one raw message. It returns ErrNotConnected when the
	// connection is not currently open.
	Send(raw []byte) error

	// Events returns the channel on which lifecycle events are delivered in
	// arrival order. It is closed after the terminal Closed event.
	Events() <-chan TransportEvent

	// Close tears the connection down, attempting a clean close handshake
	Close() error
}

// ConfigManager handles profile and theme management
type ConfigManager interface {
	// LoadProfile retrieves a profile by name from the configuration file
	LoadProfile(name string) (*Profile, error)

	// SaveProfile persists a profile to the configuration file
	SaveProfile(profile *Profile) error

	// ListProfiles returns all available profile names
	ListProfiles() ([]string, error)

	// LoadTheme retrieves theme configuration by name
	LoadTheme(name string) (*Theme, error)

	// ValidateProfile ensures profile has all required fields
	ValidateProfile(profile *Profile) error

	// GetConfigPath returns the path to the configuration file
	GetConfigPath() string
}

// RulesClient is the request/response side channel for submitting new block
// rules. Rule submission does not travel over the realtime channel; the
// proxy pushes a fresh rules snapshot over the channel after a successful
// add.
type RulesClient interface {
	// AddRule submits one rule. Kind must be RuleDomain or RuleKeyword and
	// value must be non-empty after trimming; the server's error message is
	// surfaced on rejection.
	AddRule(ctx context.Context, kind RuleKind, value string) error
}
