package sanitize

import (
	"strings"
	"testing"
)

func TestSanitize_RemovesClassAndDeniedStyles(t *testing.T) {
	input := `<p class="ql-align" style="color: red; font-weight: bold; margin-left: 4px; background-color: #fff; padding: 2px">Text</p>`
	got := Sanitize(input)

	if strings.Contains(got, "class") {
		t.Errorf("expected class attribute removed, got %q", got)
	}
	for _, denied := range []string{"color", "margin", "background", "padding"} {
		if strings.Contains(got, denied) {
			t.Errorf("expected %s declaration removed, got %q", denied, got)
		}
	}
	if !strings.Contains(got, "font-weight: bold") {
		t.Errorf("expected font-weight preserved, got %q", got)
	}
	if !strings.Contains(got, "Text") {
		t.Errorf("expected text preserved, got %q", got)
	}
}

func TestSanitize_PreservesTypography(t *testing.T) {
	input := `<span style="font-style: italic; text-decoration: underline; font-size: 14pt">x</span>`
	got := Sanitize(input)
	for _, want := range []string{"font-style: italic", "text-decoration: underline", "font-size: 14pt"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in output, got %q", want, got)
		}
	}
}

func TestSanitize_QuotedFontFamily(t *testing.T) {
	got := Sanitize(`<span style="font-family: 'Times New Roman', serif; color: blue">t</span>`)
	want := `<span style="font-family: Times New Roman, serif">t</span>`
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestSanitize_KeepsBoxAndTextProperties(t *testing.T) {
	got := Sanitize(`<div style="border: 1px solid; display: block; text-shadow: 1px 1px; margin: 4px">x</div>`)
	for _, want := range []string{"border: 1px solid", "display: block", "text-shadow: 1px 1px"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in output, got %q", want, got)
		}
	}
	if strings.Contains(got, "margin") {
		t.Errorf("expected margin removed, got %q", got)
	}
}

func TestSanitize_DropsScript(t *testing.T) {
	input := `<p onclick="steal()">ok</p><script>alert(1)</script><img src=x onerror="alert(2)">`
	got := Sanitize(input)
	for _, bad := range []string{"script", "alert", "onclick", "onerror", "<img"} {
		if strings.Contains(got, bad) {
			t.Errorf("expected %q removed, got %q", bad, got)
		}
	}
}

func TestSanitize_BlockBreaks(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"paragraphs", "<p>a</p><p>b</p>", "<p>a<br></p><p>b<br></p>"},
		{"divs with trailing br collapse", "<div>a<br></div><div><br></div>", "<div>a<br></div><div><br></div>"},
		{"consecutive brs collapse", "a<br><br/><br >b", "a<br>b"},
		{"lone br kept", "a<br>b", "a<br>b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.input); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestSanitize_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"plain text",
		"<p>Line A</p><p>Line B</p>",
		`<div class="x" style="color:red;font-weight:700">Bold <em>and</em> red</div><div><br></div>`,
		`<ul><li>one</li><li style="margin:0">two</li></ul><br><br>`,
		`<p>a &amp; b &lt; c</p>`,
		`<p>first<br>second</p>tail<script>x()</script>`,
		`<span style="font-family: 'Times New Roman'; color: blue">t</span>`,
		`<p style="font-family: 'Open Sans', Arial, sans-serif; font-size: 12pt">body</p>`,
		`<div style="border: 1px solid; display: block; text-shadow: 1px 1px">cell</div>`,
	}
	for _, in := range inputs {
		once := Sanitize(in)
		twice := Sanitize(once)
		if once != twice {
			t.Errorf("not idempotent for %q:\n once:  %q\n twice: %q", in, once, twice)
		}
	}
}
