// Package printdoc builds the standalone print document: letterhead, title,
// patient block and the record's content as stored, paginated by the
// browser's own print engine.
package printdoc

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/dgallion1/recexport/internal/doctree"
	"github.com/dgallion1/recexport/internal/sanitize"
)

// Options controls the print document's presentation.
type Options struct {
	FontFamily string
	FontCSSURL string
	// AutoPrint adds an onload call to window.print() for interactive
	// browsers. Leave it off when the document goes to a headless printer.
	AutoPrint bool
}

type printData struct {
	Title      string
	Header     doctree.ClinicHeader
	Patient    *doctree.PatientRef
	Content    template.HTML
	FontFamily template.CSS
	FontCSSURL template.URL
	Logo       template.URL
	AutoPrint  bool
}

var printTmpl = template.Must(template.New("print").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
{{- if .FontCSSURL}}
<link rel="stylesheet" href="{{.FontCSSURL}}">
{{- end}}
<style>
@page { size: A4; margin: 20mm; }
* { box-sizing: border-box; }
body { margin: 0; font-family: {{.FontFamily}}; font-size: 12pt; line-height: 1.6; color: #000; }
.letterhead { display: flex; justify-content: space-between; align-items: flex-start; border-bottom: 1px solid #ccc; padding-bottom: 8pt; margin-bottom: 16pt; }
.letterhead .clinic-name { font-weight: bold; font-size: 14pt; }
.letterhead img { max-height: 60px; max-width: 160px; }
h1.title { text-align: center; font-size: 16pt; margin: 0 0 12pt; }
.patient { margin-bottom: 16pt; }
.content { text-align: justify; }
</style>
</head>
<body{{if .AutoPrint}} onload="window.print()"{{end}}>
<div class="letterhead">
<div>
{{- with .Header.Name}}<div class="clinic-name">{{.}}</div>{{end}}
{{- with .Header.Phone}}<div>{{.}}</div>{{end}}
{{- with .Header.Email}}<div>{{.}}</div>{{end}}
</div>
{{- with .Logo}}<img src="{{.}}" alt="">{{end}}
</div>
<h1 class="title">{{.Title}}</h1>
{{- with .Patient}}
<div class="patient">
<div><strong>Patient:</strong> {{.Name}}</div>
{{- with .Phone}}<div><strong>Phone:</strong> {{.}}</div>{{end}}
</div>
{{- end}}
<div class="content">{{.Content}}</div>
</body>
</html>
`))

// Compose renders the print document. content is the record's RichHTML and
// is embedded without sanitising or line splitting.
func Compose(rec doctree.ClinicalRecord, content string, header doctree.ClinicHeader, opts Options) (string, error) {
	data := printData{
		Title:      strings.TrimSpace(rec.Title),
		Header:     header,
		Content:    template.HTML(content),
		FontFamily: template.CSS(opts.FontFamily),
		FontCSSURL: sanitize.StylesheetURL(opts.FontCSSURL),
		Logo:       sanitize.ImageURL(header.LogoURL),
		AutoPrint:  opts.AutoPrint,
	}
	if rec.Patient != nil && rec.Patient.Name != "" {
		data.Patient = rec.Patient
	}
	if data.FontFamily == "" {
		data.FontFamily = "Arial, sans-serif"
	}

	var buf bytes.Buffer
	if err := printTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute print template: %w", err)
	}
	return buf.String(), nil
}
