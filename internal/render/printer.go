package render

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// A4 paper in inches, as the print protocol expects.
const (
	a4WidthIn  = 8.27
	a4HeightIn = 11.69
)

// Printer runs a standalone document through Chrome's print pagination.
type Printer struct {
	browser *Browser
	opts    Options
	log     *slog.Logger
}

// NewPrinter creates a printer on b.
func NewPrinter(b *Browser, opts Options, log *slog.Logger) *Printer {
	def := DefaultOptions()
	if opts.RenderTimeout <= 0 {
		opts.RenderTimeout = def.RenderTimeout
	}
	if opts.ResourceTimeout <= 0 {
		opts.ResourceTimeout = def.ResourceTimeout
	}
	return &Printer{browser: b, opts: opts, log: log}
}

// PrintPDF prints doc to PDF. The document's own @page rule sets the paper
// size and margins. Resource problems are returned as warnings.
func (p *Printer) PrintPDF(ctx context.Context, doc string) ([]byte, []string, error) {
	docURL, cleanup, err := writeTemp(doc)
	if err != nil {
		return nil, nil, err
	}
	defer cleanup()

	tabCtx, cancel, err := p.browser.newTab(ctx, p.opts.RenderTimeout+p.opts.ResourceTimeout)
	if err != nil {
		return nil, nil, err
	}
	defer cancel()

	wait, warnings := waitResources(p.opts.ResourceTimeout)
	var buf []byte
	if err := chromedp.Run(tabCtx,
		chromedp.Navigate(docURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		wait,
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			buf, _, err = page.PrintToPDF().
				WithPaperWidth(a4WidthIn).
				WithPaperHeight(a4HeightIn).
				WithMarginTop(0).
				WithMarginRight(0).
				WithMarginBottom(0).
				WithMarginLeft(0).
				WithPrintBackground(true).
				WithPreferCSSPageSize(true).
				Do(ctx)
			return err
		}),
	); err != nil {
		return nil, nil, fmt.Errorf("print document: %w", err)
	}

	for _, w := range *warnings {
		p.log.Warn("print resource fallback", "warning", w)
	}
	return buf, *warnings, nil
}
