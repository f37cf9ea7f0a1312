package chunker

import (
	"html"
	"strings"

	"github.com/dgallion1/recexport/internal/doctree"
)

const (
	// FirstPageCapacity is how many 12pt/1.6 lines fit under the letterhead,
	// title and patient block on page one.
	FirstPageCapacity = 28
	// OtherPageCapacity is how many lines fit on a page with only the letterhead.
	OtherPageCapacity = 33
)

// Config controls pagination.
type Config struct {
	FirstPageCapacity int // Lines on the page carrying the header block.
	OtherPageCapacity int // Lines on every following page.
}

// DefaultConfig returns the capacities matching the render surface's fixed
// font metrics.
func DefaultConfig() Config {
	return Config{
		FirstPageCapacity: FirstPageCapacity,
		OtherPageCapacity: OtherPageCapacity,
	}
}

func (c Config) withDefaults() Config {
	if c.FirstPageCapacity <= 0 {
		c.FirstPageCapacity = FirstPageCapacity
	}
	if c.OtherPageCapacity <= 0 {
		c.OtherPageCapacity = OtherPageCapacity
	}
	return c
}

// Paginate partitions lines into page chunks. Chunk 0 takes up to
// FirstPageCapacity lines and is the only one carrying the header block;
// each later chunk takes up to OtherPageCapacity lines. Every chunk but the
// last is full, and concatenating the chunks reproduces lines exactly.
func Paginate(lines []doctree.Line, cfg Config) []doctree.PageChunk {
	cfg = cfg.withDefaults()

	if len(lines) <= cfg.FirstPageCapacity {
		return []doctree.PageChunk{{
			Index:          0,
			Lines:          lines,
			HasHeaderBlock: true,
		}}
	}

	chunks := []doctree.PageChunk{{
		Index:          0,
		Lines:          lines[:cfg.FirstPageCapacity],
		HasHeaderBlock: true,
	}}
	for start := cfg.FirstPageCapacity; start < len(lines); start += cfg.OtherPageCapacity {
		end := min(start+cfg.OtherPageCapacity, len(lines))
		chunks = append(chunks, doctree.PageChunk{
			Index: len(chunks),
			Lines: lines[start:end],
		})
	}
	return chunks
}

// PageCount returns how many pages Paginate produces for n lines without
// building the chunks.
func PageCount(n int, cfg Config) int {
	cfg = cfg.withDefaults()
	if n <= cfg.FirstPageCapacity {
		return 1
	}
	rest := n - cfg.FirstPageCapacity
	return 1 + (rest+cfg.OtherPageCapacity-1)/cfg.OtherPageCapacity
}

// ChunkHTML serialises a chunk for the compositor: each text line becomes a
// paragraph and each blank line a bare break, in order.
func ChunkHTML(chunk doctree.PageChunk) string {
	var sb strings.Builder
	for _, l := range chunk.Lines {
		if l.IsBlank {
			sb.WriteString("<br>")
			continue
		}
		sb.WriteString("<p>")
		sb.WriteString(html.EscapeString(l.Text))
		sb.WriteString("</p>")
	}
	return sb.String()
}
