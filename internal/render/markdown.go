// Package render converts guide Markdown into sanitized HTML.
package render

import (
	"bytes"
	"fmt"
	"regexp"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

// chroma emits class names such as "chroma", "line", "kn", "s2".
var chromaClass = regexp.MustCompile(`^[a-zA-Z0-9 _-]+$`)

// Markdown renders GitHub-flavoured Markdown with syntax-highlighted code
// blocks and strips anything the UGC policy does not allow.
type Markdown struct {
	md        goldmark.Markdown
	sanitizer *bluemonday.Policy
}

// NewMarkdown creates a Markdown renderer.
func NewMarkdown() *Markdown {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Footnote,
			highlighting.NewHighlighting(
				highlighting.WithStyle("monokai"),
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true),
				),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
	)

	// UGCPolicy allows basic formatting like links, lists, tables and images
	// while stripping scripts and event handlers.
	sanitizer := bluemonday.UGCPolicy()
	sanitizer.AllowAttrs("class").Matching(chromaClass).OnElements("pre", "code", "span")
	sanitizer.AllowAttrs("id").Matching(bluemonday.SpaceSeparatedTokens).OnElements("h1", "h2", "h3", "h4", "h5", "h6")

	return &Markdown{md: md, sanitizer: sanitizer}
}

// Render converts markdown to sanitized HTML. Output is deterministic for a
// given input.
func (m *Markdown) Render(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := m.md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return m.sanitizer.Sanitize(buf.String()), nil
}
