// Package export runs the three independent export paths for a clinical
// record: the paginated raster PDF, the DOCX document and the print
// document. Each call is stateless; a failure in one path never affects
// another.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgallion1/recexport/internal/chunker"
	"github.com/dgallion1/recexport/internal/docbuilder"
	"github.com/dgallion1/recexport/internal/doctree"
	"github.com/dgallion1/recexport/internal/inspect"
	"github.com/dgallion1/recexport/internal/parser"
	"github.com/dgallion1/recexport/internal/pdfdoc"
	"github.com/dgallion1/recexport/internal/printdoc"
	"github.com/dgallion1/recexport/internal/render"
	"github.com/dgallion1/recexport/internal/sanitize"
)

// Format names an export path.
type Format string

const (
	FormatPDF      Format = "pdf"
	FormatDOCX     Format = "docx"
	FormatPrint    Format = "print"
	FormatPrintPDF Format = "print-pdf"
)

// Extension returns the file extension for the format's artifact.
func (f Format) Extension() string {
	switch f {
	case FormatDOCX:
		return "docx"
	case FormatPrint:
		return "html"
	}
	return "pdf"
}

// MimeType returns the artifact's content type.
func (f Format) MimeType() string {
	switch f {
	case FormatDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case FormatPrint:
		return "text/html; charset=utf-8"
	}
	return "application/pdf"
}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatPDF, FormatDOCX, FormatPrint, FormatPrintPDF:
		return f, nil
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

// Stage is a step of an export, reported to Request.OnStage.
type Stage string

const (
	StageParsing    Stage = "parsing"
	StagePaginating Stage = "paginating"
	StageRendering  Stage = "rendering"
	StageAssembling Stage = "assembling"
)

// Request is one export invocation.
type Request struct {
	Record doctree.ClinicalRecord `json:"record"`
	Clinic doctree.ClinicHeader   `json:"clinic"`
	// OnStage, if set, is called as the export moves between stages.
	OnStage func(Stage) `json:"-"`
}

func (r Request) stage(s Stage) {
	if r.OnStage != nil {
		r.OnStage(s)
	}
}

// Result is a finished artifact.
type Result struct {
	Filename string
	MimeType string
	Data     []byte
	Pages    int      // Physical pages for PDF output; 0 when the host paginates.
	Warnings []string // Resource fallbacks hit while rendering.
}

// PageRenderer composites page rasters.
type PageRenderer interface {
	RenderPages(ctx context.Context, pages []render.PageInput) ([]doctree.Raster, error)
	MeasureMetrics(ctx context.Context, in render.PageInput) (chunker.Metrics, error)
}

// DocumentPrinter paginates a standalone document with a print engine.
type DocumentPrinter interface {
	PrintPDF(ctx context.Context, doc string) ([]byte, []string, error)
}

// Config holds the fixed presentation and pagination settings.
type Config struct {
	Pagination      chunker.Config
	MeasureCapacity bool // Derive capacities from rendered metrics, bounded by Pagination.
	BrandHeading    string
	Appearance      render.Appearance
	DefaultClinic   doctree.ClinicHeader // Fills fields a request leaves empty.
}

// Service runs exports. Renderer and printer may be nil, in which case the
// browser-backed paths fail with ErrRendererUnavailable.
type Service struct {
	renderer PageRenderer
	printer  DocumentPrinter
	cfg      Config
	log      *slog.Logger
	stats    *Stats
}

func NewService(renderer PageRenderer, printer DocumentPrinter, cfg Config, stats *Stats, log *slog.Logger) *Service {
	if stats == nil {
		stats = NewStats(time.Hour)
	}
	return &Service{
		renderer: renderer,
		printer:  printer,
		cfg:      cfg,
		log:      log,
		stats:    stats,
	}
}

// Stats returns the service's latency tracker.
func (s *Service) Stats() *Stats { return s.stats }

// Export dispatches to the path for f.
func (s *Service) Export(ctx context.Context, f Format, req Request) (*Result, error) {
	switch f {
	case FormatPDF:
		return s.ExportPDF(ctx, req)
	case FormatDOCX:
		return s.ExportDOCX(ctx, req)
	case FormatPrint:
		return s.ExportPrint(ctx, req)
	case FormatPrintPDF:
		return s.ExportPrintPDF(ctx, req)
	}
	return nil, preconditionError(f, fmt.Errorf("unknown export format %q", f))
}

// prepared is a request that passed its preconditions.
type prepared struct {
	record  doctree.ClinicalRecord
	clinic  doctree.ClinicHeader
	title   string
	rich    string // RichHTML as stored, or converted from markdown/text.
	content *doctree.Document
}

func (s *Service) prepare(f Format, req Request) (*prepared, error) {
	title := strings.TrimSpace(req.Record.Title)
	if title == "" {
		return nil, preconditionError(f, ErrMissingTitle)
	}
	if !parser.IsSupportedFormat(req.Record.Format) {
		return nil, preconditionError(f, fmt.Errorf("%w: %q", ErrUnsupportedFormat, req.Record.Format))
	}

	req.stage(StageParsing)
	rich, err := parser.RecordHTML(req.Record)
	if err != nil {
		return nil, renderError(f, err)
	}
	content, err := parser.ParseHTML(rich)
	if err != nil {
		return nil, renderError(f, err)
	}
	if !parser.HasVisibleText(content) {
		return nil, preconditionError(f, ErrEmptyContent)
	}

	return &prepared{
		record:  req.Record,
		clinic:  s.clinic(req.Clinic),
		title:   title,
		rich:    rich,
		content: content,
	}, nil
}

func (s *Service) clinic(h doctree.ClinicHeader) doctree.ClinicHeader {
	def := s.cfg.DefaultClinic
	if h.Name == "" {
		h.Name = def.Name
	}
	if h.Email == "" {
		h.Email = def.Email
	}
	if h.Phone == "" {
		h.Phone = def.Phone
	}
	if h.LogoURL == "" {
		h.LogoURL = def.LogoURL
	}
	return h
}

// Plan is the pagination of a record without rendering.
type Plan struct {
	Pages  int                 `json:"pages"`
	Lines  int                 `json:"lines"`
	Config chunker.Config      `json:"capacity"`
	Chunks []doctree.PageChunk `json:"chunks"`
}

// Plan runs the PDF path's preconditions and pagination only.
func (s *Service) Plan(ctx context.Context, req Request) (*Plan, error) {
	p, err := s.prepare(FormatPDF, req)
	if err != nil {
		return nil, err
	}
	return s.plan(ctx, p), nil
}

func (s *Service) plan(ctx context.Context, p *prepared) *Plan {
	cfg := s.capacity(ctx, p)
	lines := parser.Lines(p.content)
	chunks := chunker.Paginate(lines, cfg)
	return &Plan{
		Pages:  len(chunks),
		Lines:  len(lines),
		Config: cfg,
		Chunks: chunks,
	}
}

// capacity returns the configured capacities, tightened by measurement
// when enabled. A failed measurement keeps the configured values.
func (s *Service) capacity(ctx context.Context, p *prepared) chunker.Config {
	cfg := s.cfg.Pagination
	if cfg.FirstPageCapacity <= 0 || cfg.OtherPageCapacity <= 0 {
		cfg = chunker.DefaultConfig()
	}
	if !s.cfg.MeasureCapacity || s.renderer == nil {
		return cfg
	}

	m, err := s.renderer.MeasureMetrics(ctx, render.PageInput{
		HasHeaderBlock: true,
		Title:          p.title,
		Patient:        p.record.Patient,
		Header:         p.clinic,
	})
	if err != nil {
		s.log.Warn("capacity measurement failed, using configured capacity", "error", err)
		return cfg
	}
	measured := chunker.CapacityFromMetrics(m)
	return chunker.Config{
		FirstPageCapacity: min(measured.FirstPageCapacity, cfg.FirstPageCapacity),
		OtherPageCapacity: min(measured.OtherPageCapacity, cfg.OtherPageCapacity),
	}
}

// ExportPDF paginates the record, composites each page in order and
// assembles the rasters into an A4 PDF.
func (s *Service) ExportPDF(ctx context.Context, req Request) (res *Result, err error) {
	start := time.Now()
	defer func() { s.finish(FormatPDF, start, res, err) }()

	p, err := s.prepare(FormatPDF, req)
	if err != nil {
		return nil, err
	}
	if s.renderer == nil {
		return nil, renderError(FormatPDF, ErrRendererUnavailable)
	}

	req.stage(StagePaginating)
	plan := s.plan(ctx, p)

	// A single page keeps the author's inline styling; longer documents
	// are laid out line by line so page breaks match the plan.
	pages := make([]render.PageInput, len(plan.Chunks))
	for i, chunk := range plan.Chunks {
		html := chunker.ChunkHTML(chunk)
		if len(plan.Chunks) == 1 {
			html = sanitize.Sanitize(p.rich)
		}
		pages[i] = render.PageInput{
			Index:          chunk.Index,
			ContentHTML:    html,
			HasHeaderBlock: chunk.HasHeaderBlock,
			Title:          p.title,
			Patient:        p.record.Patient,
			Header:         p.clinic,
		}
	}

	req.stage(StageRendering)
	rasters, err := s.renderer.RenderPages(ctx, pages)
	if err != nil {
		return nil, renderError(FormatPDF, err)
	}

	req.stage(StageAssembling)
	data, err := pdfdoc.Assemble(rasters, pdfdoc.Meta{Title: p.title, Author: p.clinic.Name})
	if err != nil {
		return nil, renderError(FormatPDF, err)
	}

	var warnings []string
	for _, r := range rasters {
		for _, w := range r.Warnings {
			warnings = append(warnings, fmt.Sprintf("page %d: %s", r.Index+1, w))
		}
	}
	return &Result{
		Filename: Filename(p.title, FormatPDF),
		MimeType: FormatPDF.MimeType(),
		Data:     data,
		Pages:    len(rasters),
		Warnings: warnings,
	}, nil
}

// ExportDOCX builds the paragraph-oriented document. No browser is needed.
func (s *Service) ExportDOCX(ctx context.Context, req Request) (res *Result, err error) {
	start := time.Now()
	defer func() { s.finish(FormatDOCX, start, res, err) }()

	p, err := s.prepare(FormatDOCX, req)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, renderError(FormatDOCX, err)
	}

	req.stage(StageAssembling)
	doc := docbuilder.Build(p.record, p.content, p.clinic, docbuilder.Options{BrandHeading: s.cfg.BrandHeading})
	data, err := docbuilder.Bytes(doc)
	if err != nil {
		return nil, renderError(FormatDOCX, err)
	}
	return &Result{
		Filename: Filename(p.title, FormatDOCX),
		MimeType: FormatDOCX.MimeType(),
		Data:     data,
	}, nil
}

// ExportPrint composes the standalone print document for a browser, which
// opens its print dialog on load.
func (s *Service) ExportPrint(ctx context.Context, req Request) (res *Result, err error) {
	start := time.Now()
	defer func() { s.finish(FormatPrint, start, res, err) }()

	p, err := s.prepare(FormatPrint, req)
	if err != nil {
		return nil, err
	}

	req.stage(StageAssembling)
	doc, err := s.compose(p, true)
	if err != nil {
		return nil, renderError(FormatPrint, err)
	}
	res = &Result{
		Filename: Filename(p.title, FormatPrint),
		MimeType: FormatPrint.MimeType(),
		Data:     []byte(doc),
	}
	if w := sanitize.LogoWarning(p.clinic.LogoURL); w != "" {
		res.Warnings = append(res.Warnings, w)
	}
	return res, nil
}

// ExportPrintPDF runs the print document through the browser's own print
// pagination for callers without a print dialog. Page boundaries need not
// match ExportPDF's.
func (s *Service) ExportPrintPDF(ctx context.Context, req Request) (res *Result, err error) {
	start := time.Now()
	defer func() { s.finish(FormatPrintPDF, start, res, err) }()

	p, err := s.prepare(FormatPrintPDF, req)
	if err != nil {
		return nil, err
	}
	if s.printer == nil {
		return nil, renderError(FormatPrintPDF, ErrRendererUnavailable)
	}

	doc, err := s.compose(p, false)
	if err != nil {
		return nil, renderError(FormatPrintPDF, err)
	}

	req.stage(StageRendering)
	data, warnings, err := s.printer.PrintPDF(ctx, doc)
	if err != nil {
		return nil, renderError(FormatPrintPDF, err)
	}
	if w := sanitize.LogoWarning(p.clinic.LogoURL); w != "" {
		warnings = append(warnings, w)
	}
	pages, err := inspect.PDFPageCount(data)
	if err != nil {
		return nil, renderError(FormatPrintPDF, err)
	}
	return &Result{
		Filename: Filename(p.title, FormatPrintPDF),
		MimeType: FormatPrintPDF.MimeType(),
		Data:     data,
		Pages:    pages,
		Warnings: warnings,
	}, nil
}

func (s *Service) compose(p *prepared, autoPrint bool) (string, error) {
	return printdoc.Compose(p.record, p.rich, p.clinic, printdoc.Options{
		FontFamily: s.cfg.Appearance.FontFamily,
		FontCSSURL: s.cfg.Appearance.FontCSSURL,
		AutoPrint:  autoPrint,
	})
}

func (s *Service) finish(f Format, start time.Time, res *Result, err error) {
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		if IsPrecondition(err) {
			s.log.Info("export refused", "format", f, "error", err)
			return
		}
		s.stats.Record(f, elapsed, true)
		if errors.Is(err, context.Canceled) {
			s.log.Warn("export canceled", "format", f, "duration_ms", elapsed)
			return
		}
		s.log.Error("export failed", "format", f, "duration_ms", elapsed, "error", err)
		return
	}

	s.stats.Record(f, elapsed, false)
	s.log.Info("export completed",
		"format", f,
		"file", res.Filename,
		"pages", res.Pages,
		"bytes", len(res.Data),
		"warnings", len(res.Warnings),
		"duration_ms", elapsed,
	)
}
