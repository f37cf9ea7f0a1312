package parser

import (
	"bufio"
	"html"
	"io"
	"strings"
)

// TextParser handles records stored as plain text. Every non-blank line
// becomes a paragraph and each gap of blank lines between paragraphs
// becomes a single <br>.
type TextParser struct{}

func (p *TextParser) RichHTML(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var out strings.Builder
	pendingGap := false

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			if out.Len() > 0 {
				pendingGap = true
			}
			continue
		}
		if pendingGap {
			out.WriteString("<br>")
			pendingGap = false
		}
		out.WriteString("<p>")
		out.WriteString(html.EscapeString(line))
		out.WriteString("</p>")
	}

	if err := scanner.Err(); err != nil {
		return "", err
	}
	return out.String(), nil
}
