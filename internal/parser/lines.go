package parser

import (
	"strings"

	"github.com/dgallion1/recexport/internal/doctree"
)

// ExtractLines parses a RichHTML fragment and returns its logical lines in
// reading order. Parsing never fails on malformed markup, so an error here
// means the fragment could not be read at all.
func ExtractLines(fragment string) ([]doctree.Line, error) {
	doc, err := ParseHTML(fragment)
	if err != nil {
		return nil, err
	}
	return Lines(doc), nil
}

// Lines derives the line sequence from the canonical tree.
//
// A paragraph block contributes its aggregate text split on newlines (trimmed,
// empty segments dropped) followed by one blank line per nested <br>; a
// paragraph without text contributes one blank line per nested <br>, or a
// single blank line when it has none. Loose text nodes are split one by one
// and a bare <br> is one blank line. The result is never empty.
//
// Text around a nested <br> is aggregated, so <p>A<br>B</p> yields "AB" and
// one blank line: the row count matches the editor's, the row text does not.
func Lines(doc *doctree.Document) []doctree.Line {
	var lines []doctree.Line
	for _, blk := range doc.Blocks {
		switch blk.Kind {
		case doctree.BlockBreak:
			lines = append(lines, doctree.BlankLine())

		case doctree.BlockInline:
			for _, r := range blk.Runs {
				if r.Break {
					lines = append(lines, doctree.BlankLine())
					continue
				}
				lines = append(lines, splitLines(r.Text)...)
			}

		case doctree.BlockParagraph:
			var text strings.Builder
			breaks := 0
			for _, r := range blk.Runs {
				if r.Break {
					breaks++
					continue
				}
				text.WriteString(r.Text)
			}
			textLines := splitLines(text.String())
			if len(textLines) == 0 {
				breaks = max(breaks, 1)
			}
			lines = append(lines, textLines...)
			for range breaks {
				lines = append(lines, doctree.BlankLine())
			}
		}
	}

	if len(lines) == 0 {
		return []doctree.Line{doctree.BlankLine()}
	}
	return lines
}

func splitLines(s string) []doctree.Line {
	var out []doctree.Line
	for _, seg := range strings.Split(s, "\n") {
		seg = strings.TrimSpace(seg)
		if seg != "" {
			out = append(out, doctree.Line{Text: seg})
		}
	}
	return out
}
