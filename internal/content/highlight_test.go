package content

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatPayloadPrettyPrintsJSON(t *testing.T) {
	sh := NewSyntaxHighlighter("github")

	out := sh.FormatPayload([]byte(`{"type":"rules","blockedDomains":["a.com"]}`))

	assert.Contains(t, out, "blockedDomains")
	assert.True(t, strings.Count(out, "\n") >= 2, "payload should be indented across lines")
}

func TestFormatPayloadPassesThroughInvalidJSON(t *testing.T) {
	sh := NewSyntaxHighlighter("github")

	out := sh.FormatPayload([]byte("not json"))
	assert.Equal(t, "not json", out)
}

func TestFormatPayloadEmpty(t *testing.T) {
	sh := NewSyntaxHighlighter("github")
	assert.Empty(t, sh.FormatPayload(nil))
}

func TestUnknownThemeFallsBack(t *testing.T) {
	sh := NewSyntaxHighlighter("no-such-theme")
	out := sh.FormatPayload([]byte(`{"a":1}`))
	assert.Contains(t, out, "a")
}
