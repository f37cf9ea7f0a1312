package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/dgallion1/recexport/internal/chunker"
	"github.com/dgallion1/recexport/internal/doctree"
	"github.com/dgallion1/recexport/internal/inspect"
	"github.com/dgallion1/recexport/internal/render"
)

type fakeRenderer struct {
	pages   []render.PageInput
	metrics chunker.Metrics
	err     error
	warn    string
}

func (f *fakeRenderer) RenderPages(ctx context.Context, pages []render.PageInput) ([]doctree.Raster, error) {
	f.pages = pages
	if f.err != nil {
		return nil, f.err
	}
	img := image.NewGray(image.Rect(0, 0, 40, 60))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	var out []doctree.Raster
	for _, p := range pages {
		r := doctree.Raster{Index: p.Index, PNG: buf.Bytes(), WidthPx: 40, HeightPx: 60}
		if f.warn != "" {
			r.Warnings = []string{f.warn}
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeRenderer) MeasureMetrics(ctx context.Context, in render.PageInput) (chunker.Metrics, error) {
	return f.metrics, nil
}

type fakePrinter struct{}

func (fakePrinter) PrintPDF(ctx context.Context, doc string) ([]byte, []string, error) {
	return nil, nil, errors.New("printer offline")
}

func testService(r PageRenderer, cfg Config) *Service {
	return NewService(r, nil, cfg, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func paragraphs(n int) string {
	var sb strings.Builder
	for i := range n {
		fmt.Fprintf(&sb, "<p>Line %d</p>", i+1)
	}
	return sb.String()
}

func TestExportPDF_SinglePage(t *testing.T) {
	r := &fakeRenderer{}
	svc := testService(r, Config{})

	res, err := svc.ExportPDF(context.Background(), Request{
		Record: doctree.ClinicalRecord{Title: "Consulta", Content: `<p class="x">Line A</p><p>Line B</p>`},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Filename != "consulta.pdf" {
		t.Errorf("expected consulta.pdf, got %q", res.Filename)
	}
	if res.Pages != 1 || len(r.pages) != 1 {
		t.Fatalf("expected 1 page, got %d (rendered %d)", res.Pages, len(r.pages))
	}
	page := r.pages[0]
	if !page.HasHeaderBlock || page.Title != "Consulta" {
		t.Errorf("expected header block with title, got %+v", page)
	}
	if page.ContentHTML != "<p>Line A<br></p><p>Line B<br></p>" {
		t.Errorf("expected sanitised flow content, got %q", page.ContentHTML)
	}

	n, err := inspect.PDFPageCount(res.Data)
	if err != nil {
		t.Fatalf("read back pdf: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 PDF page, got %d", n)
	}
}

func TestExportPDF_PageSplits(t *testing.T) {
	tests := []struct {
		lines int
		sizes []int
	}{
		{40, []int{28, 12}},
		{61, []int{28, 33}},
		{62, []int{28, 33, 1}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d lines", tt.lines), func(t *testing.T) {
			r := &fakeRenderer{}
			svc := testService(r, Config{})
			res, err := svc.ExportPDF(context.Background(), Request{
				Record: doctree.ClinicalRecord{Title: "Long", Content: paragraphs(tt.lines)},
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Pages != len(tt.sizes) {
				t.Fatalf("expected %d pages, got %d", len(tt.sizes), res.Pages)
			}
			for i, p := range r.pages {
				if got := strings.Count(p.ContentHTML, "<p>"); got != tt.sizes[i] {
					t.Errorf("page %d: expected %d lines, got %d", i, tt.sizes[i], got)
				}
				if p.HasHeaderBlock != (i == 0) {
					t.Errorf("page %d: expected HasHeaderBlock=%v", i, i == 0)
				}
			}
		})
	}
}

func TestExport_EmptyContentIsPrecondition(t *testing.T) {
	r := &fakeRenderer{}
	svc := testService(r, Config{})
	req := Request{Record: doctree.ClinicalRecord{Title: "Consulta", Content: "<p> </p><br>"}}

	for _, f := range []Format{FormatPDF, FormatDOCX, FormatPrint} {
		res, err := svc.Export(context.Background(), f, req)
		if res != nil {
			t.Errorf("%s: expected no result", f)
		}
		if !errors.Is(err, ErrEmptyContent) || !IsPrecondition(err) {
			t.Errorf("%s: expected empty-content precondition error, got %v", f, err)
		}
	}
	if r.pages != nil {
		t.Error("expected renderer not to be called")
	}
}

func TestExport_MissingTitle(t *testing.T) {
	svc := testService(&fakeRenderer{}, Config{})
	_, err := svc.ExportDOCX(context.Background(), Request{Record: doctree.ClinicalRecord{Title: "   ", Content: "x"}})
	if !errors.Is(err, ErrMissingTitle) {
		t.Errorf("expected ErrMissingTitle, got %v", err)
	}
}

func TestExport_UnsupportedFormat(t *testing.T) {
	svc := testService(&fakeRenderer{}, Config{})
	_, err := svc.ExportDOCX(context.Background(), Request{Record: doctree.ClinicalRecord{Title: "T", Content: "x", Format: "rtf"}})
	if !errors.Is(err, ErrUnsupportedFormat) || !IsPrecondition(err) {
		t.Errorf("expected unsupported-format precondition, got %v", err)
	}
}

func TestExportPDF_RenderFailure(t *testing.T) {
	svc := testService(&fakeRenderer{err: errors.New("tab crashed")}, Config{})
	res, err := svc.ExportPDF(context.Background(), Request{Record: doctree.ClinicalRecord{Title: "T", Content: "x"}})
	if res != nil {
		t.Error("expected no partial result")
	}
	var e *Error
	if !errors.As(err, &e) || e.Kind != KindRender || e.Format != FormatPDF {
		t.Fatalf("expected pdf render error, got %v", err)
	}

	snap := svc.Stats().Snapshot()[FormatPDF]
	if snap.Failures != 1 || snap.Count != 0 {
		t.Errorf("expected 1 failure and no successes, got %+v", snap)
	}
}

func TestExportPDF_NoRenderer(t *testing.T) {
	svc := testService(nil, Config{})
	_, err := svc.ExportPDF(context.Background(), Request{Record: doctree.ClinicalRecord{Title: "T", Content: "x"}})
	if !errors.Is(err, ErrRendererUnavailable) {
		t.Errorf("expected ErrRendererUnavailable, got %v", err)
	}
}

func TestExportPDF_WarningsSurface(t *testing.T) {
	svc := testService(&fakeRenderer{warn: "image failed to load: logo.png"}, Config{})
	res, err := svc.ExportPDF(context.Background(), Request{Record: doctree.ClinicalRecord{Title: "T", Content: "x"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Warnings) != 1 || !strings.HasPrefix(res.Warnings[0], "page 1: ") {
		t.Errorf("expected one page warning, got %q", res.Warnings)
	}
}

func TestExportPDF_StageOrder(t *testing.T) {
	svc := testService(&fakeRenderer{}, Config{})
	var stages []Stage
	_, err := svc.ExportPDF(context.Background(), Request{
		Record:  doctree.ClinicalRecord{Title: "T", Content: "x"},
		OnStage: func(s Stage) { stages = append(stages, s) },
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []Stage{StageParsing, StagePaginating, StageRendering, StageAssembling}
	if fmt.Sprint(stages) != fmt.Sprint(want) {
		t.Errorf("expected stages %v, got %v", want, stages)
	}
}

func TestPlan_MeasuredCapacityIsBounded(t *testing.T) {
	r := &fakeRenderer{metrics: chunker.Metrics{
		SurfaceHeightPx:     1200,
		FirstHeaderHeightPx: 700,
		OtherHeaderHeightPx: 100,
		LineHeightPx:        25,
	}}
	svc := testService(r, Config{MeasureCapacity: true, Pagination: chunker.DefaultConfig()})

	plan, err := svc.Plan(context.Background(), Request{Record: doctree.ClinicalRecord{Title: "T", Content: paragraphs(50)}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Config.FirstPageCapacity != 20 || plan.Config.OtherPageCapacity != 33 {
		t.Errorf("expected capacities 20/33, got %+v", plan.Config)
	}
	if plan.Pages != 2 || plan.Lines != 50 {
		t.Errorf("expected 2 pages of 50 lines, got %d pages of %d lines", plan.Pages, plan.Lines)
	}
}

func TestExportDOCX(t *testing.T) {
	svc := testService(nil, Config{BrandHeading: "Clinical Record", DefaultClinic: doctree.ClinicHeader{Name: "Default Clinic"}})
	res, err := svc.ExportDOCX(context.Background(), Request{
		Record: doctree.ClinicalRecord{Title: "Exame #1 (Raio-X)", Content: "<strong>Bold</strong> normal"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Filename != "exame__1__raio_x_.docx" {
		t.Errorf("expected exame__1__raio_x_.docx, got %q", res.Filename)
	}

	paras, err := inspect.DOCX(res.Data)
	if err != nil {
		t.Fatalf("read back docx: %v", err)
	}
	var texts []string
	for _, p := range paras {
		texts = append(texts, strings.Join(strings.Fields(p.Text()), " "))
	}
	want := []string{"Clinical Record", "Default Clinic", "Exame #1 (Raio-X)", "Bold normal"}
	if strings.Join(texts, "|") != strings.Join(want, "|") {
		t.Errorf("expected paragraphs %q, got %q", want, texts)
	}
}

func TestExportPrint(t *testing.T) {
	svc := testService(nil, Config{})
	content := `<p style="color:red">Line A</p>`
	res, err := svc.ExportPrint(context.Background(), Request{
		Record: doctree.ClinicalRecord{Title: "Consulta", Content: content},
		Clinic: doctree.ClinicHeader{Name: "Clinic"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Filename != "consulta.html" || !strings.HasPrefix(res.MimeType, "text/html") {
		t.Errorf("unexpected artifact %q (%s)", res.Filename, res.MimeType)
	}
	if !bytes.Contains(res.Data, []byte(content)) {
		t.Error("expected raw content embedded unmodified")
	}
	if !bytes.Contains(res.Data, []byte("window.print()")) {
		t.Error("expected print trigger")
	}
}

func TestExportPrint_LogoSchemes(t *testing.T) {
	svc := testService(nil, Config{})
	record := doctree.ClinicalRecord{Title: "Consulta", Content: "<p>x</p>"}

	logo := "data:image/png;base64,iVBORw0KGgo="
	res, err := svc.ExportPrint(context.Background(), Request{Record: record, Clinic: doctree.ClinicHeader{LogoURL: logo}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Contains(res.Data, []byte(`src="`+logo+`"`)) {
		t.Error("expected data logo embedded")
	}
	if len(res.Warnings) != 0 {
		t.Errorf("expected no warnings, got %q", res.Warnings)
	}

	res, err = svc.ExportPrint(context.Background(), Request{Record: record, Clinic: doctree.ClinicHeader{LogoURL: "javascript:alert(1)"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bytes.Contains(res.Data, []byte("<img")) {
		t.Error("expected refused logo omitted")
	}
	if len(res.Warnings) != 1 {
		t.Errorf("expected one logo warning, got %q", res.Warnings)
	}
}

func TestExportPrintPDF_PrinterFailure(t *testing.T) {
	svc := NewService(nil, fakePrinter{}, Config{}, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	_, err := svc.ExportPrintPDF(context.Background(), Request{Record: doctree.ClinicalRecord{Title: "T", Content: "x"}})
	var e *Error
	if !errors.As(err, &e) || e.Kind != KindRender {
		t.Errorf("expected render error, got %v", err)
	}
}
