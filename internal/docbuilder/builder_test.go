package docbuilder

import (
	"strings"
	"testing"

	"github.com/dgallion1/recexport/internal/doctree"
	"github.com/dgallion1/recexport/internal/inspect"
	"github.com/dgallion1/recexport/internal/parser"
)

func buildAndRead(t *testing.T, rec doctree.ClinicalRecord, header doctree.ClinicHeader, opts Options) []inspect.DOCXParagraph {
	t.Helper()
	content, err := parser.ParseHTML(rec.Content)
	if err != nil {
		t.Fatalf("parse content: %v", err)
	}
	data, err := Bytes(Build(rec, content, header, opts))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	paras, err := inspect.DOCX(data)
	if err != nil {
		t.Fatalf("read back docx: %v", err)
	}
	return paras
}

func normalized(p inspect.DOCXParagraph) string {
	return strings.Join(strings.Fields(p.Text()), " ")
}

func TestBuild_ParagraphOrder(t *testing.T) {
	rec := doctree.ClinicalRecord{
		Title:   "Consulta",
		Content: `<h2>Exam</h2><p>Hello <b>world</b></p><br><ul><li>rest</li></ul><div><br></div>`,
		Patient: &doctree.PatientRef{Name: "Ana Souza", Phone: "555-0101"},
	}
	header := doctree.ClinicHeader{Name: "Clinic", Phone: "123", Email: "desk@clinic.test"}

	paras := buildAndRead(t, rec, header, Options{BrandHeading: "Clinical Record"})

	want := []string{
		"Clinical Record",
		"Clinic", "123", "desk@clinic.test",
		"Consulta",
		"Patient: Ana Souza", "Phone: 555-0101",
		"Exam",
		"Hello world",
		"",
		"• rest",
		"",
	}
	if len(paras) != len(want) {
		var got []string
		for _, p := range paras {
			got = append(got, normalized(p))
		}
		t.Fatalf("expected %d paragraphs, got %d: %q", len(want), len(paras), got)
	}
	for i, w := range want {
		if got := normalized(paras[i]); got != w {
			t.Errorf("paragraph %d: expected %q, got %q", i, w, got)
		}
	}
	if paras[4].Justification != "center" {
		t.Errorf("expected centred title, got %q", paras[4].Justification)
	}
}

func TestBuild_RunStyles(t *testing.T) {
	rec := doctree.ClinicalRecord{
		Title:   "Styles",
		Content: `<p><strong>Bold</strong> <em>it</em> <u>under</u> <span style="color: rgb(255, 0, 0)">red</span></p><h1>Big</h1>`,
	}
	paras := buildAndRead(t, rec, doctree.ClinicHeader{}, Options{})

	// Title, styled paragraph, heading.
	if len(paras) != 3 {
		t.Fatalf("expected 3 paragraphs, got %d", len(paras))
	}

	runs := map[string]inspect.DOCXRun{}
	for _, r := range paras[1].Runs {
		runs[strings.TrimSpace(r.Text)] = r
	}
	if !runs["Bold"].Bold {
		t.Error("expected Bold run to be bold")
	}
	if !runs["it"].Italic {
		t.Error("expected it run to be italic")
	}
	if !runs["under"].Underline {
		t.Error("expected under run to be underlined")
	}
	if runs["red"].Color != "ff0000" {
		t.Errorf("expected red run colour ff0000, got %q", runs["red"].Color)
	}
	if runs["red"].Bold {
		t.Error("expected red run not bold")
	}

	heading := paras[2].Runs
	if len(heading) != 1 || heading[0].Size != "36" || !heading[0].Bold {
		t.Errorf("expected one bold 18pt heading run, got %+v", heading)
	}
}

func TestBuild_BreakInsideBlockSplitsParagraph(t *testing.T) {
	rec := doctree.ClinicalRecord{Title: "T", Content: "<p>first<br>second</p>"}
	paras := buildAndRead(t, rec, doctree.ClinicHeader{}, Options{})

	want := []string{"T", "first", "second"}
	if len(paras) != len(want) {
		t.Fatalf("expected %d paragraphs, got %d", len(want), len(paras))
	}
	for i, w := range want {
		if got := normalized(paras[i]); got != w {
			t.Errorf("paragraph %d: expected %q, got %q", i, w, got)
		}
	}
}

func TestBuild_PlainFragmentIsOneBlock(t *testing.T) {
	rec := doctree.ClinicalRecord{Title: "T", Content: "just some text"}
	paras := buildAndRead(t, rec, doctree.ClinicHeader{}, Options{})

	if len(paras) != 2 {
		t.Fatalf("expected 2 paragraphs, got %d", len(paras))
	}
	if got := normalized(paras[1]); got != "just some text" {
		t.Errorf("expected %q, got %q", "just some text", got)
	}
}

func TestBuild_ParagraphsMatchLines(t *testing.T) {
	baseline := len(buildAndRead(t, doctree.ClinicalRecord{Title: "T", Content: "<p>x</p>"}, doctree.ClinicHeader{}, Options{})) - 1

	tests := []string{
		`<p>Line A</p><p>Line B</p>`,
		`<h1>Title</h1><div>body</div><br><p></p>`,
		`<ul><li>one</li><li>two</li><li>three</li></ul>`,
		`<div><br></div><p>after gap</p>`,
		`<p>ends with break<br></p>`,
		`plain text`,
	}
	for _, content := range tests {
		doc, err := parser.ParseHTML(content)
		if err != nil {
			t.Fatalf("parse %q: %v", content, err)
		}
		lines := parser.Lines(doc)
		paras := buildAndRead(t, doctree.ClinicalRecord{Title: "T", Content: content}, doctree.ClinicHeader{}, Options{})
		if got := len(paras) - baseline; got != len(lines) {
			t.Errorf("%q: expected %d paragraphs to match lines, got %d", content, len(lines), got)
		}
	}
}
