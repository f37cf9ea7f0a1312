// Package docbuilder writes a clinical record as a paragraph-oriented DOCX
// document. The host word processor paginates it; nothing here measures.
package docbuilder

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/dgallion1/recexport/internal/doctree"
	"github.com/dgallion1/recexport/internal/parser"
	"github.com/fumiama/go-docx"
)

// Run sizes in half-points.
const (
	bodySize  = "24"
	brandSize = "36"
	titleSize = "32"
)

var headingSizes = map[string]string{
	"h1": "36",
	"h2": "32",
	"h3": "28",
	"h4": "26",
	"h5": "24",
	"h6": "24",
}

const brandColor = "3b82f6"

// Options controls the fixed parts of the document.
type Options struct {
	BrandHeading string
}

// Build lays out the document: branded heading, clinic lines, centred
// title, patient lines, then one paragraph per content block.
func Build(rec doctree.ClinicalRecord, content *doctree.Document, header doctree.ClinicHeader, opts Options) *docx.Docx {
	w := docx.New().WithDefaultTheme()

	if opts.BrandHeading != "" {
		w.AddParagraph().AddText(opts.BrandHeading).Bold().Size(brandSize).Color(brandColor)
	}

	if header.Name != "" {
		w.AddParagraph().AddText(header.Name).Bold().Size(bodySize)
	}
	if header.Phone != "" {
		w.AddParagraph().AddText(header.Phone).Size(bodySize)
	}
	if header.Email != "" {
		w.AddParagraph().AddText(header.Email).Size(bodySize)
	}

	w.AddParagraph().Justification("center").AddText(strings.TrimSpace(rec.Title)).Bold().Size(titleSize)

	if p := rec.Patient; p != nil && p.Name != "" {
		para := w.AddParagraph()
		para.AddText("Patient: ").Bold().Size(bodySize)
		para.AddText(p.Name).Size(bodySize)
		if p.Phone != "" {
			para = w.AddParagraph()
			para.AddText("Phone: ").Bold().Size(bodySize)
			para.AddText(p.Phone).Size(bodySize)
		}
	}

	for _, blk := range content.Blocks {
		addBlock(w, blk)
	}
	return w
}

// Bytes serialises a built document.
func Bytes(w *docx.Docx) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write docx: %w", err)
	}
	return buf.Bytes(), nil
}

func addBlock(w *docx.Docx, blk *doctree.Block) {
	switch blk.Kind {
	case doctree.BlockBreak:
		w.AddParagraph()

	case doctree.BlockInline:
		for _, runs := range parser.ParagraphRuns(blk) {
			if len(runs) == 0 {
				continue
			}
			addRuns(w.AddParagraph(), runs, bodySize)
		}

	case doctree.BlockParagraph:
		parts := parser.ParagraphRuns(blk)
		if !hasText(parts) {
			// An empty block keeps one paragraph per line it occupies.
			for range max(len(parts)-1, 1) {
				w.AddParagraph()
			}
			return
		}

		size := bodySize
		if s, ok := headingSizes[blk.Tag]; ok {
			size = s
		}
		for i, runs := range parts {
			para := w.AddParagraph()
			if blk.Tag == "li" && i == 0 {
				para.AddText("• ").Size(size)
			}
			addRuns(para, runs, size)
		}
	}
}

func addRuns(para *docx.Paragraph, runs []doctree.StyleRun, size string) {
	for _, r := range runs {
		run := para.AddText(r.Text).Size(size)
		if r.Bold {
			run.Bold()
		}
		if r.Italic {
			run.Italic()
		}
		if r.Underline {
			run.Underline("single")
		}
		if r.ColorHex != "" {
			run.Color(strings.TrimPrefix(r.ColorHex, "#"))
		}
	}
}

func hasText(parts [][]doctree.StyleRun) bool {
	for _, p := range parts {
		if len(p) > 0 {
			return true
		}
	}
	return false
}
