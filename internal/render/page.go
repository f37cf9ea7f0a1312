package render

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/dgallion1/recexport/internal/doctree"
	"github.com/dgallion1/recexport/internal/sanitize"
)

// SurfaceWidthPx is the render surface width: the A4 content box (170mm)
// at 96 DPI scaled to the full page width of 794px.
const SurfaceWidthPx = 794

// SurfaceHeightPx is the usable height at the same scale as the width,
// matching the assembler's 257mm content height.
const SurfaceHeightPx = SurfaceWidthPx * 257 / 170

// DeviceScale is the capture pixel density.
const DeviceScale = 2

// PageInput is one page to composite.
type PageInput struct {
	Index          int
	ContentHTML    string // Serialised chunk or sanitised flow fragment.
	HasHeaderBlock bool
	Title          string
	Patient        *doctree.PatientRef
	Header         doctree.ClinicHeader
}

// Appearance is the fixed typography of every page.
type Appearance struct {
	FontFamily string
	FontCSSURL string
}

type pageData struct {
	PageInput
	Content    template.HTML
	FontFamily template.CSS
	FontCSSURL template.URL
	Logo       template.URL
	WidthPx    int
}

var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
{{- if .FontCSSURL}}
<link rel="stylesheet" href="{{.FontCSSURL}}">
{{- end}}
<style>
html, body { margin: 0; padding: 0; background: #fff; }
* { box-sizing: border-box; }
#page { width: {{.WidthPx}}px; background: #fff; color: #000; font-family: {{.FontFamily}}; }
#letterhead { display: flex; justify-content: space-between; align-items: flex-start; padding-bottom: 8px; margin-bottom: 16px; border-bottom: 1px solid #ccc; font-size: 11pt; line-height: 1.4; }
#letterhead .clinic-name { font-weight: bold; font-size: 14pt; }
#letterhead img { max-height: 60px; max-width: 160px; }
#title { text-align: center; font-size: 16pt; font-weight: bold; margin: 0 0 12px; }
#patient { margin-bottom: 16px; font-size: 12pt; line-height: 1.6; }
#content { font-size: 12pt; line-height: 1.6; text-align: justify; white-space: pre-wrap; }
#content p, #content div, #content h1, #content h2, #content h3, #content h4, #content h5, #content h6, #content li { margin: 0; }
</style>
</head>
<body>
<div id="page">
<div id="header">
<div id="letterhead">
<div>
{{- with .Header.Name}}<div class="clinic-name">{{.}}</div>{{end}}
{{- with .Header.Phone}}<div>{{.}}</div>{{end}}
{{- with .Header.Email}}<div>{{.}}</div>{{end}}
</div>
{{- with .Logo}}<img src="{{.}}" alt="">{{end}}
</div>
{{- if .HasHeaderBlock}}
<div id="title">{{.Title}}</div>
{{- with .Patient}}
<div id="patient"><div><strong>Patient:</strong> {{.Name}}</div>{{with .Phone}}<div><strong>Phone:</strong> {{.}}</div>{{end}}</div>
{{- end}}
{{- end}}
</div>
<div id="content">{{.Content}}</div>
</div>
</body>
</html>
`))

// PageHTML builds the isolated document for one page.
func PageHTML(in PageInput, look Appearance) (string, error) {
	data := pageData{
		PageInput:  in,
		Content:    template.HTML(in.ContentHTML),
		FontFamily: template.CSS(look.FontFamily),
		FontCSSURL: sanitize.StylesheetURL(look.FontCSSURL),
		Logo:       sanitize.ImageURL(in.Header.LogoURL),
		WidthPx:    SurfaceWidthPx,
	}
	if data.FontFamily == "" {
		data.FontFamily = "Arial, sans-serif"
	}
	if in.Patient != nil && in.Patient.Name == "" {
		data.Patient = nil
	}

	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute page template: %w", err)
	}
	return buf.String(), nil
}
