// Package parser splits markdown files into typed front-matter and body.
package parser

import (
	"bytes"
	"path"
	"strings"

	"github.com/adrg/frontmatter"

	"github.com/starford/rtfm/internal/models"
)

// Result holds the output of parsing a markdown file.
type Result struct {
	FrontMatter models.FrontMatter
	Body        string
}

// Parse extracts the front-matter block (YAML, TOML or JSON) and the body.
// Content without a block, or with a block that fails to decode, is returned
// whole as the body with empty front-matter.
func Parse(data []byte) *Result {
	var raw map[string]any
	body, err := frontmatter.Parse(bytes.NewReader(data), &raw)
	if err != nil {
		return &Result{FrontMatter: models.FrontMatter{}, Body: normalize(string(data))}
	}
	return &Result{
		FrontMatter: models.NewFrontMatter(raw),
		Body:        strings.TrimLeft(normalize(string(body)), "\n"),
	}
}

// Title returns the front-matter title when it is a non-empty string,
// otherwise the display form of the document's base name.
func Title(fm models.FrontMatter, logicalPath string) string {
	if t, ok := fm.Text("title"); ok && strings.TrimSpace(t) != "" {
		return t
	}
	return models.DisplayTitle(path.Base(logicalPath))
}

func normalize(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}
