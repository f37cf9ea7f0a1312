package inspect

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/fumiama/go-docx"
)

// DOCXRun is one formatted text run read back from a DOCX paragraph.
type DOCXRun struct {
	Text      string
	Bold      bool
	Italic    bool
	Underline bool
	Color     string // Six hex digits as stored in the file, or "".
	Size      string // Half-points as stored in the file, or "".
}

// DOCXParagraph is one body paragraph.
type DOCXParagraph struct {
	Justification string
	Runs          []DOCXRun
}

// Text joins the paragraph's run texts.
func (p DOCXParagraph) Text() string {
	var sb strings.Builder
	for _, r := range p.Runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

// DOCX returns the body paragraphs of a DOCX file in document order.
func DOCX(data []byte) ([]DOCXParagraph, error) {
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	var paras []DOCXParagraph
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		paras = append(paras, readParagraph(para))
	}
	return paras, nil
}

func readParagraph(para *docx.Paragraph) DOCXParagraph {
	var out DOCXParagraph
	if para.Properties != nil && para.Properties.Justification != nil {
		out.Justification = para.Properties.Justification.Val
	}
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		var text strings.Builder
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				text.WriteString(t.Text)
			}
		}
		r := DOCXRun{Text: text.String()}
		if p := run.RunProperties; p != nil {
			r.Bold = p.Bold != nil
			r.Italic = p.Italic != nil
			r.Underline = p.Underline != nil && p.Underline.Val != "none"
			if p.Color != nil {
				r.Color = strings.ToLower(p.Color.Val)
			}
			if p.Size != nil {
				r.Size = p.Size.Val
			}
		}
		out.Runs = append(out.Runs, r)
	}
	return out
}
