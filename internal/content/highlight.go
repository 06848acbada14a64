// Package content prepares raw protocol payloads for display. The payload
// inspector shows the most recent inbound envelope pretty-printed and
// syntax-highlighted for the terminal.
package content

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/alecthomas/chroma"
	"github.com/alecthomas/chroma/formatters"
	"github.com/alecthomas/chroma/lexers"
	"github.com/alecthomas/chroma/styles"
)

// SyntaxHighlighter applies terminal syntax highlighting to payload text
type SyntaxHighlighter struct {
	formatter chroma.Formatter
	style     *chroma.Style
	theme     string
}

// NewSyntaxHighlighter creates a highlighter for the given chroma theme.
// Unknown themes fall back to GitHub; the formatter targets 256-color
// terminals.
func NewSyntaxHighlighter(themeName string) *SyntaxHighlighter {
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	style := styles.Get(themeName)
	if style == nil {
		style = styles.GitHub
	}

	return &SyntaxHighlighter{
		formatter: formatter,
		style:     style,
		theme:     themeName,
	}
}

// Highlight applies syntax highlighting to code in the given language. On
// any failure the input is returned unhighlighted rather than lost.
func (sh *SyntaxHighlighter) Highlight(code, language string) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}

	var highlighted strings.Builder
	if err := sh.formatter.Format(&highlighted, sh.style, iterator); err != nil {
		return code
	}

	return highlighted.String()
}

// FormatPayload pretty-prints a raw JSON envelope and highlights it. Input
// that is not valid JSON is returned as-is.
func (sh *SyntaxHighlighter) FormatPayload(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw, "", "  "); err != nil {
		return string(raw)
	}

	return sh.Highlight(pretty.String(), "json")
}
