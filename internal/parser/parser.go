package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/recexport/internal/doctree"
)

// Parser converts stored record content into a RichHTML fragment.
type Parser interface {
	RichHTML(r io.Reader) (string, error)
}

// SupportedFormats lists the content formats records may be stored in.
var SupportedFormats = map[doctree.ContentFormat]bool{
	doctree.FormatHTML:     true,
	doctree.FormatMarkdown: true,
	doctree.FormatText:     true,
}

// ForFormat returns the appropriate parser for a content format.
// An empty format means HTML, the editor's native output.
func ForFormat(format doctree.ContentFormat) (Parser, error) {
	switch doctree.ContentFormat(strings.ToLower(string(format))) {
	case "", doctree.FormatHTML:
		return &HTMLParser{}, nil
	case doctree.FormatMarkdown, "md":
		return &MarkdownParser{}, nil
	case doctree.FormatText, "txt":
		return &TextParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported content format: %s", format)
	}
}

// IsSupportedFormat checks if a content format is supported.
func IsSupportedFormat(format doctree.ContentFormat) bool {
	if format == "" {
		return true
	}
	_, err := ForFormat(format)
	return err == nil
}

// RecordHTML returns the record's content as RichHTML regardless of how it
// is stored. The record itself is not modified.
func RecordHTML(rec doctree.ClinicalRecord) (string, error) {
	p, err := ForFormat(rec.Format)
	if err != nil {
		return "", err
	}
	return p.RichHTML(strings.NewReader(rec.Content))
}

// HTMLParser passes editor HTML through unchanged.
type HTMLParser struct{}

func (p *HTMLParser) RichHTML(r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read html: %w", err)
	}
	return string(b), nil
}
