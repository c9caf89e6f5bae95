// Package render converts markdown bodies to HTML.
package render

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// Renderer turns markdown into HTML.
type Renderer interface {
	Render(markdown []byte) (string, error)
}

// Goldmark implements Renderer with GitHub-flavoured markdown, hard line
// breaks, heading anchors and raw HTML passthrough. It is safe for
// concurrent use.
type Goldmark struct {
	md goldmark.Markdown
}

// NewGoldmark constructs the default renderer.
func NewGoldmark() *Goldmark {
	return &Goldmark{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM, extension.Footnote),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
			goldmark.WithRendererOptions(html.WithHardWraps(), html.WithUnsafe()),
		),
	}
}

// Render converts markdown to an HTML fragment.
func (g *Goldmark) Render(markdown []byte) (string, error) {
	var buf bytes.Buffer
	if err := g.md.Convert(markdown, &buf); err != nil {
		return "", fmt.Errorf("render: convert: %w", err)
	}
	return buf.String(), nil
}
