package parser

import (
	"strings"
	"unicode"

	"github.com/dgallion1/recexport/internal/doctree"
)

// ExtractStyleRuns parses a RichHTML fragment and returns its styled text
// runs in document order.
func ExtractStyleRuns(fragment string) ([]doctree.StyleRun, error) {
	doc, err := ParseHTML(fragment)
	if err != nil {
		return nil, err
	}
	return StyleRuns(doc), nil
}

// StyleRuns emits one run per text node with the node's trimmed text,
// skipping nodes that are empty after trimming. It never returns an empty
// slice: a document without text yields a single empty run.
func StyleRuns(doc *doctree.Document) []doctree.StyleRun {
	var runs []doctree.StyleRun
	for _, blk := range doc.Blocks {
		for _, r := range blk.Runs {
			if r.Break {
				continue
			}
			text := strings.TrimSpace(r.Text)
			if text == "" {
				continue
			}
			runs = append(runs, styleRun(text, r.Style))
		}
	}
	if len(runs) == 0 {
		return []doctree.StyleRun{{Text: ""}}
	}
	return runs
}

// ParagraphRuns splits a block at its explicit breaks and returns, for each
// resulting line, the runs to write into a word-processor paragraph.
// Whitespace inside runs is collapsed and a single space is kept where the
// source had whitespace between two runs, so "Hello <b>world</b>" keeps
// its space.
func ParagraphRuns(blk *doctree.Block) [][]doctree.StyleRun {
	var (
		out       [][]doctree.StyleRun
		current   []doctree.StyleRun
		needSpace bool
	)
	for _, r := range blk.Runs {
		if r.Break {
			out = append(out, current)
			current = nil
			needSpace = false
			continue
		}
		lead, trail := edgeSpaces(r.Text)
		text := strings.Join(strings.Fields(r.Text), " ")
		if text == "" {
			if lead || trail {
				needSpace = true
			}
			continue
		}
		if (needSpace || lead) && len(current) > 0 {
			text = " " + text
		}
		current = append(current, styleRun(text, r.Style))
		needSpace = trail
	}
	return append(out, current)
}

func edgeSpaces(s string) (lead, trail bool) {
	if s == "" {
		return false, false
	}
	rs := []rune(s)
	return unicode.IsSpace(rs[0]), unicode.IsSpace(rs[len(rs)-1])
}

func styleRun(text string, st doctree.Style) doctree.StyleRun {
	return doctree.StyleRun{
		Text:      text,
		Bold:      st.Bold,
		Italic:    st.Italic,
		Underline: st.Underline,
		ColorHex:  st.ColorHex,
	}
}
