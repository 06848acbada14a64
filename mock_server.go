// mock_server.go
//
// A standalone mock of the content-filtering proxy's control endpoints, for
// developing the panel without a real proxy. It implements the realtime
// channel at /ws (rules snapshots pushed on connect and after every rule
// change, test_url answered with test_result) and the rule-submission
// endpoint at POST /add-rule.
//
// Run with: go run mock_server.go
package main

import (
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ruleStore holds the authoritative rule sets and the connected panels
type ruleStore struct {
	mu       sync.Mutex
	domains  []string
	keywords []string
	clients  map[*websocket.Conn]*sync.Mutex
}

func newRuleStore() *ruleStore {
	return &ruleStore{
		domains:  []string{"example-blocked.com"},
		keywords: []string{"gambling"},
		clients:  make(map[*websocket.Conn]*sync.Mutex),
	}
}

type rulesMessage struct {
	Type            string   `json:"type"`
	BlockedDomains  []string `json:"blockedDomains"`
	BlockedKeywords []string `json:"blockedKeywords"`
}

type testResultMessage struct {
	Type    string `json:"type"`
	URL     string `json:"url"`
	Blocked bool   `json:"blocked"`
	Reason  string `json:"reason"`
}

func (s *ruleStore) snapshot() rulesMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return rulesMessage{
		Type:            "rules",
		BlockedDomains:  append([]string(nil), s.domains...),
		BlockedKeywords: append([]string(nil), s.keywords...),
	}
}

// addRule appends a rule unless it is already present
func (s *ruleStore) addRule(kind, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if kind == "domain" {
		for _, d := range s.domains {
			if d == value {
				return
			}
		}
		s.domains = append(s.domains, value)
		return
	}
	for _, k := range s.keywords {
		if k == value {
			return
		}
	}
	s.keywords = append(s.keywords, value)
}

// check classifies a URL against the current rules, mirroring the proxy's
// verdict strings
func (s *ruleStore) check(raw string) testResultMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	host := raw
	if parsed, err := url.Parse(raw); err == nil && parsed.Host != "" {
		host = parsed.Host
	}
	host = strings.ToLower(host)
	lowered := strings.ToLower(raw)

	for _, domain := range s.domains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return testResultMessage{
				Type: "test_result", URL: raw, Blocked: true,
				Reason: "Domain " + domain + " is blocked",
			}
		}
	}
	for _, keyword := range s.keywords {
		if strings.Contains(lowered, keyword) {
			return testResultMessage{
				Type: "test_result", URL: raw, Blocked: true,
				Reason: "Contains blocked keyword: " + keyword,
			}
		}
	}
	return testResultMessage{Type: "test_result", URL: raw, Blocked: false, Reason: "URL is allowed"}
}

// broadcastRules pushes the current snapshot to every connected panel
func (s *ruleStore) broadcastRules() {
	snapshot := s.snapshot()

	s.mu.Lock()
	clients := make(map[*websocket.Conn]*sync.Mutex, len(s.clients))
	for conn, mu := range s.clients {
		clients[conn] = mu
	}
	s.mu.Unlock()

	for conn, mu := range clients {
		mu.Lock()
		if err := conn.WriteJSON(snapshot); err != nil {
			log.Printf("broadcast failed, dropping client: %v", err)
		}
		mu.Unlock()
	}
}

func (s *ruleStore) wsHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("upgrade failed: %v", err)
		return
	}
	log.Printf("panel connected: %s", r.RemoteAddr)

	writeMu := &sync.Mutex{}
	s.mu.Lock()
	s.clients[conn] = writeMu
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.clients, conn)
		s.mu.Unlock()
		conn.Close()
		log.Printf("panel disconnected: %s", r.RemoteAddr)
	}()

	// Immediate snapshot so the panel renders without polling
	writeMu.Lock()
	err = conn.WriteJSON(s.snapshot())
	writeMu.Unlock()
	if err != nil {
		return
	}

	for {
		var envelope struct {
			Type string `json:"type"`
			URL  string `json:"url"`
		}
		if err := conn.ReadJSON(&envelope); err != nil {
			return
		}

		if envelope.Type != "test_url" {
			log.Printf("ignoring envelope type %q", envelope.Type)
			continue
		}

		result := s.check(envelope.URL)
		log.Printf("test %s -> blocked=%v (%s)", envelope.URL, result.Blocked, result.Reason)

		writeMu.Lock()
		err := conn.WriteJSON(result)
		writeMu.Unlock()
		if err != nil {
			return
		}
	}
}

func (s *ruleStore) addRuleHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if req.Type != "domain" && req.Type != "keyword" {
		http.Error(w, "Invalid rule type", http.StatusBadRequest)
		return
	}

	value := strings.ToLower(strings.TrimSpace(req.Value))
	if value == "" {
		http.Error(w, "Rule value cannot be empty", http.StatusBadRequest)
		return
	}

	s.addRule(req.Type, value)
	log.Printf("added %s rule: %s", req.Type, value)

	// Every connected panel sees the new rule immediately
	s.broadcastRules()

	w.Write([]byte("OK"))
}

func main() {
	store := newRuleStore()

	http.HandleFunc("/ws", store.wsHandler)
	http.HandleFunc("/add-rule", store.addRuleHandler)

	addr := ":8888"
	log.Printf("mock filtering proxy listening on %s", addr)
	log.Fatal(http.ListenAndServe(addr, nil))
}
