package parser

import (
	"strings"
	"testing"

	"github.com/dgallion1/recexport/internal/doctree"
)

func TestExtractStyleRuns_BoldThenNormal(t *testing.T) {
	runs, err := ExtractStyleRuns("<strong>Bold</strong> normal")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []doctree.StyleRun{
		{Text: "Bold", Bold: true},
		{Text: "normal"},
	}
	if len(runs) != len(want) {
		t.Fatalf("expected %d runs, got %d: %+v", len(want), len(runs), runs)
	}
	for i := range want {
		if runs[i] != want[i] {
			t.Errorf("run %d: expected %+v, got %+v", i, want[i], runs[i])
		}
	}
}

func TestExtractStyleRuns_EmptyYieldsSingleRun(t *testing.T) {
	for _, input := range []string{"", "<p></p>", "<div><br></div>"} {
		runs, err := ExtractStyleRuns(input)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(runs) != 1 || runs[0] != (doctree.StyleRun{}) {
			t.Errorf("%q: expected a single empty run, got %+v", input, runs)
		}
	}
}

func TestExtractStyleRuns_InheritedContext(t *testing.T) {
	input := `<p><em>a <u>b <span style="color: rgb(255, 0, 0)">c</span></u></em> d</p>`
	runs, err := ExtractStyleRuns(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []doctree.StyleRun{
		{Text: "a", Italic: true},
		{Text: "b", Italic: true, Underline: true},
		{Text: "c", Italic: true, Underline: true, ColorHex: "#ff0000"},
		{Text: "d"},
	}
	if len(runs) != len(want) {
		t.Fatalf("expected %d runs, got %d: %+v", len(want), len(runs), runs)
	}
	for i := range want {
		if runs[i] != want[i] {
			t.Errorf("run %d: expected %+v, got %+v", i, want[i], runs[i])
		}
	}
}

func TestExtractStyleRuns_InlineDeclarations(t *testing.T) {
	tests := []struct {
		name string
		html string
		want doctree.StyleRun
	}{
		{"numeric weight", `<span style="font-weight: 700">x</span>`, doctree.StyleRun{Text: "x", Bold: true}},
		{"light weight", `<span style="font-weight:500">x</span>`, doctree.StyleRun{Text: "x"}},
		{"normal weight inside strong", `<strong><span style="font-weight: normal">x</span></strong>`, doctree.StyleRun{Text: "x"}},
		{"oblique", `<span style="font-style: oblique">x</span>`, doctree.StyleRun{Text: "x", Italic: true}},
		{"decoration line", `<span style="text-decoration-line: underline overline">x</span>`, doctree.StyleRun{Text: "x", Underline: true}},
		{"short hex", `<span style="color:#0F0">x</span>`, doctree.StyleRun{Text: "x", ColorHex: "#00ff00"}},
		{"black is default", `<span style="color:#ff0000"><span style="color: rgb(0,0,0)">x</span></span>`, doctree.StyleRun{Text: "x"}},
		{"font colour attribute", `<font color="blue">x</font>`, doctree.StyleRun{Text: "x", ColorHex: "#0000ff"}},
		{"heading is bold", `<h2>x</h2>`, doctree.StyleRun{Text: "x", Bold: true}},
		{"unknown colour ignored", `<span style="color: currentcolor">x</span>`, doctree.StyleRun{Text: "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs, err := ExtractStyleRuns(tt.html)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(runs) != 1 {
				t.Fatalf("expected 1 run, got %d: %+v", len(runs), runs)
			}
			if runs[0] != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, runs[0])
			}
		})
	}
}

func TestExtractStyleRuns_TextConservation(t *testing.T) {
	input := `<div>Exam  <b>normal</b>,<i> no</i> findings</div><p>Follow-up in <u>2 weeks</u></p>`
	runs, err := ExtractStyleRuns(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	doc, err := ParseHTML(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var words []string
	for _, r := range runs {
		words = append(words, strings.Fields(r.Text)...)
	}
	if got, want := strings.Join(words, " "), VisibleText(doc); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestParagraphRuns_KeepsWordSpacing(t *testing.T) {
	doc, err := ParseHTML(`<p>Hello <b>world</b>  again<br>next <i>line</i></p>`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	parts := ParagraphRuns(doc.Blocks[0])
	if len(parts) != 2 {
		t.Fatalf("expected 2 paragraph parts, got %d", len(parts))
	}

	join := func(runs []doctree.StyleRun) string {
		var sb strings.Builder
		for _, r := range runs {
			sb.WriteString(r.Text)
		}
		return sb.String()
	}
	if got := join(parts[0]); got != "Hello world again" {
		t.Errorf("expected %q, got %q", "Hello world again", got)
	}
	if got := join(parts[1]); got != "next line" {
		t.Errorf("expected %q, got %q", "next line", got)
	}
	if !parts[0][1].Bold {
		t.Error("expected second run of first part to be bold")
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"#FFAA00", "#ffaa00", true},
		{"rgb(18, 52, 86)", "#123456", true},
		{"rgba(255, 0, 0, 0.5)", "#ff0000", true},
		{"rgba(255, 0, 0, 0)", "", false},
		{"rgb(100%, 0%, 0%)", "#ff0000", true},
		{"Navy", "#000080", true},
		{"inherit", "", false},
		{"#zzz", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseColor(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseColor(%q): expected (%q, %v), got (%q, %v)", tt.in, tt.want, tt.ok, got, ok)
		}
	}
}
