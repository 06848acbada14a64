package rules

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filter-panel/panel/internal/interfaces"
)

func TestAddRuleSendsNormalizedPayload(t *testing.T) {
	var received addRuleRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/add-rule", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Write([]byte("OK"))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	err := client.AddRule(context.Background(), interfaces.RuleDomain, "  Example.COM ")
	require.NoError(t, err)

	assert.Equal(t, "domain", received.Type)
	assert.Equal(t, "example.com", received.Value)
}

func TestAddRuleKeyword(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req addRuleRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "keyword", req.Type)
		assert.Equal(t, "gambling", req.Value)
		w.Write([]byte("OK"))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	require.NoError(t, client.AddRule(context.Background(), interfaces.RuleKeyword, "gambling"))
}

func TestAddRuleRejectsEmptyValueLocally(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer server.Close()

	client := NewClient(server.URL)
	err := client.AddRule(context.Background(), interfaces.RuleDomain, "   ")
	require.Error(t, err)
	assert.Zero(t, requests, "invalid value should not reach the server")
}

func TestAddRuleRejectsUnknownKindLocally(t *testing.T) {
	client := NewClient("http://localhost:1")
	err := client.AddRule(context.Background(), interfaces.RuleKind("regex"), "foo")
	require.Error(t, err)
}

func TestAddRuleSurfacesServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Invalid rule type", http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	err := client.AddRule(context.Background(), interfaces.RuleDomain, "example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid rule type")
}

func TestAddRuleReportsNetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient(server.URL)
	err := client.AddRule(context.Background(), interfaces.RuleDomain, "example.com")
	require.Error(t, err)
}
