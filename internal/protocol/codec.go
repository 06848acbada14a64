package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/filter-panel/panel/internal/errors"
	"github.com/filter-panel/panel/internal/interfaces"
)

// EncodeTestCommand serializes a test_url envelope for the given URL. The
// URL must already be normalized by the caller.
func EncodeTestCommand(url string) ([]byte, error) {
	if url == "" {
		return nil, errors.NewValidationError("protocol").
			WithOperation("encode_test_command").
			WithMessage("url cannot be empty").
			WithoutStackTrace().
			Build()
	}

	raw, err := json.Marshal(TestCommand{Type: TypeTestURL, URL: url})
	if err != nil {
		return nil, errors.NewProtocolError("protocol").
			WithOperation("encode_test_command").
			WithMessage("failed to marshal test command").
			WithCause(err).
			Build()
	}
	return raw, nil
}

// DecodeEvent parses one inbound envelope. The type discriminator is
// validated before the body is interpreted; an unrecognized type or a
// malformed body is a decode failure the caller logs and drops, never a
// session fault.
func DecodeEvent(raw []byte) (Event, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return Event{}, decodeError("parse_envelope", "malformed envelope", err)
	}

	switch probe.Type {
	case TypeRules:
		var env rulesEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return Event{}, decodeError("parse_rules", "malformed rules envelope", err)
		}
		return Event{
			Kind: EventRules,
			Rules: interfaces.RuleSet{
				Domains:  env.BlockedDomains,
				Keywords: env.BlockedKeywords,
			},
		}, nil

	case TypeTestResult:
		var env testResultEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return Event{}, decodeError("parse_test_result", "malformed test_result envelope", err)
		}
		return Event{
			Kind: EventTestResult,
			Result: interfaces.TestResult{
				URL:     env.URL,
				Blocked: env.Blocked,
				Reason:  env.Reason,
			},
		}, nil

	default:
		return Event{}, decodeError("dispatch_envelope",
			fmt.Sprintf("unrecognized envelope type %q", probe.Type), nil)
	}
}

func decodeError(operation, message string, cause error) error {
	eb := errors.NewProtocolError("protocol").
		WithOperation(operation).
		WithMessage(message).
		WithSeverity(errors.SeverityLow).
		WithRecoverable(false).
		WithoutStackTrace()
	if cause != nil {
		eb = eb.WithCause(cause)
	}
	return eb.Build()
}
