package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/png"
	"log/slog"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/dgallion1/recexport/internal/chunker"
	"github.com/dgallion1/recexport/internal/doctree"
	"github.com/dgallion1/recexport/internal/sanitize"
)

// Options controls page composition.
type Options struct {
	Appearance
	RenderTimeout   time.Duration // Bounds one whole page.
	ResourceTimeout time.Duration // Bounds the font and image wait.
}

// DefaultOptions returns the timeouts used when none are configured.
func DefaultOptions() Options {
	return Options{
		Appearance:      Appearance{FontFamily: "Inter, Arial, sans-serif"},
		RenderTimeout:   30 * time.Second,
		ResourceTimeout: 5 * time.Second,
	}
}

// Compositor rasterises pages in isolated tabs of a shared browser.
type Compositor struct {
	browser *Browser
	opts    Options
	log     *slog.Logger
}

// NewCompositor creates a compositor on b.
func NewCompositor(b *Browser, opts Options, log *slog.Logger) *Compositor {
	def := DefaultOptions()
	if opts.RenderTimeout <= 0 {
		opts.RenderTimeout = def.RenderTimeout
	}
	if opts.ResourceTimeout <= 0 {
		opts.ResourceTimeout = def.ResourceTimeout
	}
	if opts.FontFamily == "" {
		opts.FontFamily = def.FontFamily
	}
	return &Compositor{browser: b, opts: opts, log: log}
}

// resourceState is what the in-page wait script reports.
type resourceState struct {
	TimedOut bool     `json:"timedOut"`
	Broken   []string `json:"broken"`
}

// waitResourcesJS resolves once web fonts and images have settled or the
// timeout elapses, whichever comes first. It never rejects.
const waitResourcesJS = `(async (timeoutMs) => {
  const imgs = Array.from(document.images);
  const settled = Promise.all([
    document.fonts.ready,
    ...imgs.map(img => img.complete ? null : new Promise(r => { img.onload = r; img.onerror = r; })),
  ]).then(() => false);
  const timer = new Promise(r => setTimeout(() => r(true), timeoutMs));
  const timedOut = await Promise.race([settled, timer]);
  const broken = imgs.filter(img => img.complete && img.naturalWidth === 0).map(img => img.src);
  return { timedOut, broken };
})(%d)`

// waitResources runs the wait script and turns its report into warnings.
func waitResources(timeout time.Duration) (chromedp.Action, *[]string) {
	var warnings []string
	action := chromedp.ActionFunc(func(ctx context.Context) error {
		var state resourceState
		js := fmt.Sprintf(waitResourcesJS, timeout.Milliseconds())
		err := chromedp.Evaluate(js, &state, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithAwaitPromise(true)
		}).Do(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("wait for resources: %w", err)
			}
			warnings = append(warnings, fmt.Sprintf("resource wait failed: %v", err))
			return nil
		}
		if state.TimedOut {
			warnings = append(warnings, fmt.Sprintf("resources did not settle within %s", timeout))
		}
		for _, src := range state.Broken {
			warnings = append(warnings, fmt.Sprintf("image failed to load: %s", src))
		}
		return nil
	})
	return action, &warnings
}

// RenderPage composites one page and captures it at DeviceScale.
// Resource problems are reported in the raster's warnings, not as errors.
func (c *Compositor) RenderPage(ctx context.Context, in PageInput) (doctree.Raster, error) {
	doc, err := PageHTML(in, c.opts.Appearance)
	if err != nil {
		return doctree.Raster{}, err
	}
	pageURL, cleanup, err := writeTemp(doc)
	if err != nil {
		return doctree.Raster{}, err
	}
	defer cleanup()

	tabCtx, cancel, err := c.browser.newTab(ctx, c.opts.RenderTimeout)
	if err != nil {
		return doctree.Raster{}, err
	}
	defer cancel()

	wait, warnings := waitResources(c.opts.ResourceTimeout)
	var png []byte
	if err := chromedp.Run(tabCtx,
		chromedp.EmulateViewport(SurfaceWidthPx, SurfaceHeightPx),
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("#page", chromedp.ByQuery),
		wait,
		chromedp.ScreenshotScale("#page", DeviceScale, &png, chromedp.ByQuery),
	); err != nil {
		return doctree.Raster{}, fmt.Errorf("render page %d: %w", in.Index+1, err)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(png))
	if err != nil {
		return doctree.Raster{}, fmt.Errorf("decode page %d capture: %w", in.Index+1, err)
	}

	if w := sanitize.LogoWarning(in.Header.LogoURL); w != "" {
		*warnings = append(*warnings, w)
	}
	for _, w := range *warnings {
		c.log.Warn("page resource fallback", "page", in.Index+1, "warning", w)
	}
	return doctree.Raster{
		Index:    in.Index,
		PNG:      png,
		WidthPx:  cfg.Width,
		HeightPx: cfg.Height,
		Warnings: *warnings,
	}, nil
}

// RenderPages composites pages strictly in order. Page i+1's tab is opened
// only after page i has been captured and its tab closed, so at most one
// surface is alive and the output order matches the input order.
func (c *Compositor) RenderPages(ctx context.Context, pages []PageInput) ([]doctree.Raster, error) {
	rasters := make([]doctree.Raster, 0, len(pages))
	for _, p := range pages {
		r, err := c.RenderPage(ctx, p)
		if err != nil {
			return nil, err
		}
		rasters = append(rasters, r)
	}
	return rasters, nil
}

// measureJS reports, in CSS pixels, where content starts on a first page
// and on a following page, and the body line height. The probe paragraph
// sits in #content so it gets the real typography.
const measureJS = `(() => {
  const top = document.getElementById('page').getBoundingClientRect().top;
  const letterhead = document.getElementById('letterhead');
  const content = document.getElementById('content');
  const probe = content.querySelector('p');
  return {
    first: content.getBoundingClientRect().top - top,
    other: letterhead.getBoundingClientRect().bottom - top + parseFloat(getComputedStyle(letterhead).marginBottom),
    line: probe ? probe.getBoundingClientRect().height : 0,
  };
})()`

type measured struct {
	First float64 `json:"first"`
	Other float64 `json:"other"`
	Line  float64 `json:"line"`
}

// MeasureMetrics composites an empty first page carrying the real header
// block and reports the pixel measurements pagination needs.
func (c *Compositor) MeasureMetrics(ctx context.Context, in PageInput) (chunker.Metrics, error) {
	in.HasHeaderBlock = true
	in.ContentHTML = "<p>Mg</p>"

	doc, err := PageHTML(in, c.opts.Appearance)
	if err != nil {
		return chunker.Metrics{}, err
	}
	pageURL, cleanup, err := writeTemp(doc)
	if err != nil {
		return chunker.Metrics{}, err
	}
	defer cleanup()

	tabCtx, cancel, err := c.browser.newTab(ctx, c.opts.RenderTimeout)
	if err != nil {
		return chunker.Metrics{}, err
	}
	defer cancel()

	wait, warnings := waitResources(c.opts.ResourceTimeout)
	var m measured
	if err := chromedp.Run(tabCtx,
		chromedp.EmulateViewport(SurfaceWidthPx, SurfaceHeightPx),
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("#page", chromedp.ByQuery),
		wait,
		chromedp.Evaluate(measureJS, &m),
	); err != nil {
		return chunker.Metrics{}, fmt.Errorf("measure page: %w", err)
	}
	for _, w := range *warnings {
		c.log.Warn("measure resource fallback", "warning", w)
	}

	return chunker.Metrics{
		SurfaceHeightPx:     SurfaceHeightPx,
		FirstHeaderHeightPx: m.First,
		OtherHeaderHeightPx: m.Other,
		LineHeightPx:        m.Line,
	}, nil
}
