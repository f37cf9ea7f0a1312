package parser

import (
	"bytes"
	"fmt"
	"io"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// MarkdownParser handles records stored as Markdown using goldmark.
// Raw HTML embedded in the Markdown is dropped by goldmark's default
// renderer, which keeps imported notes from smuggling markup in.
type MarkdownParser struct{}

func (p *MarkdownParser) RichHTML(r io.Reader) (string, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read markdown: %w", err)
	}

	md := goldmark.New(goldmark.WithExtensions(extension.Strikethrough))
	var buf bytes.Buffer
	if err := md.Convert(src, &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return buf.String(), nil
}
