// Package rules implements the request/response side channel for submitting
// new block rules to the proxy. Rule submission does not travel over the
// realtime channel; after a successful add the proxy pushes a fresh rules
// snapshot to every connected panel.
package rules

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/filter-panel/panel/internal/errors"
	"github.com/filter-panel/panel/internal/interfaces"
	"github.com/filter-panel/panel/internal/logging"
)

const defaultRequestTimeout = 10 * time.Second

// addRuleRequest is the wire shape accepted by the proxy's /add-rule endpoint
type addRuleRequest struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Client submits rules over HTTP. It implements interfaces.RulesClient.
type Client struct {
	http   *resty.Client
	logger *logging.Logger
}

// NewClient creates a rules client for the given proxy base URL
func NewClient(baseURL string) *Client {
	http := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(defaultRequestTimeout).
		SetHeader("Content-Type", "application/json")

	return &Client{
		http:   http,
		logger: logging.GetRulesLogger(),
	}
}

// AddRule submits one rule. Kind must be domain or keyword; the value is
// trimmed and lowercased before sending, mirroring the proxy's own
// normalization so validation failures surface before the request is made.
func (c *Client) AddRule(ctx context.Context, kind interfaces.RuleKind, value string) error {
	normalized, err := normalizeRule(kind, value)
	if err != nil {
		return err
	}

	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(addRuleRequest{Type: string(kind), Value: normalized}).
		Post("/add-rule")
	if err != nil {
		return errors.NewNetworkError("rules").
			WithOperation("add_rule").
			WithMessage("rule submission request failed").
			WithCause(err).
			WithContext("kind", string(kind)).
			Build()
	}

	c.logger.LogHTTPRequest("POST", c.http.BaseURL+"/add-rule", resp.StatusCode(), time.Since(start))

	if resp.IsError() {
		message := strings.TrimSpace(string(resp.Body()))
		if message == "" {
			message = fmt.Sprintf("server returned status %d", resp.StatusCode())
		}
		return errors.NewValidationError("rules").
			WithOperation("add_rule").
			WithMessage(message).
			WithUserMessage(message).
			WithRecoverable(false).
			WithoutStackTrace().
			Build()
	}

	return nil
}

// normalizeRule validates the kind and trims/lowercases the value
func normalizeRule(kind interfaces.RuleKind, value string) (string, error) {
	switch kind {
	case interfaces.RuleDomain, interfaces.RuleKeyword:
	default:
		return "", errors.NewValidationError("rules").
			WithOperation("add_rule").
			WithMessage(fmt.Sprintf("rule kind must be domain or keyword, got %q", kind)).
			WithRecoverable(false).
			WithoutStackTrace().
			Build()
	}

	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return "", errors.NewValidationError("rules").
			WithOperation("add_rule").
			WithMessage("rule value cannot be empty").
			WithRecoverable(false).
			WithoutStackTrace().
			Build()
	}

	return normalized, nil
}
