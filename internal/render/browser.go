// Package render drives a shared headless Chrome: the off-screen page
// compositor that rasterises each page, and the printer that hands the
// print document to Chrome's own pagination.
package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/go-rod/rod/lib/launcher"
)

// ErrClosed is returned when a closed Browser is used.
var ErrClosed = errors.New("render: browser is closed")

// BrowserOptions configures the headless browser process.
type BrowserOptions struct {
	ChromePath   string // Executable to run; empty searches standard locations.
	AutoDownload bool   // Download a Chromium build when ChromePath is empty.
	NoSandbox    bool   // Required when running as root, e.g. in containers.
}

// Browser is one headless Chrome process shared by every export. Each page
// or print job runs in its own tab. It is safe for concurrent use.
type Browser struct {
	log           *slog.Logger
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc

	mu     sync.Mutex
	closed bool
}

// NewBrowser starts the browser eagerly so a missing or broken executable
// surfaces at startup rather than on the first export.
func NewBrowser(opts BrowserOptions, log *slog.Logger) (*Browser, error) {
	execPath := opts.ChromePath
	if execPath == "" && opts.AutoDownload {
		path, err := resolveBrowser()
		if err != nil {
			return nil, err
		}
		log.Info("using downloaded browser", "path", path)
		execPath = path
	}

	allocOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-translate", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("font-render-hinting", "none"),
	)
	if execPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(execPath))
	}
	if opts.NoSandbox {
		allocOpts = append(allocOpts, chromedp.NoSandbox)
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	return &Browser{
		log:           log,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
	}, nil
}

// Close stops the browser process. It is idempotent.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	b.browserCancel()
	b.allocCancel()
	return nil
}

// newTab opens an isolated tab. The returned context is also bounded by
// ctx and timeout; cancel closes the tab.
func (b *Browser) newTab(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc, error) {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return nil, nil, ErrClosed
	}

	tabCtx, tabCancel := chromedp.NewContext(b.browserCtx)

	// Tie the tab to the caller's context so request cancellation or
	// shutdown closes it.
	stop := context.AfterFunc(ctx, tabCancel)

	cancel := tabCancel
	if timeout > 0 {
		var timeoutCancel context.CancelFunc
		tabCtx, timeoutCancel = context.WithTimeout(tabCtx, timeout)
		cancel = func() {
			timeoutCancel()
			tabCancel()
		}
	}
	return tabCtx, func() {
		stop()
		cancel()
	}, nil
}

// resolveBrowser downloads a compatible Chromium build if one is not
// already cached and returns the executable path.
func resolveBrowser() (string, error) {
	path, err := launcher.NewBrowser().Get()
	if err != nil {
		return "", fmt.Errorf("download browser: %w", err)
	}
	return path, nil
}

// writeTemp writes a document to a temp file and returns its file:// URL.
// Navigating to a file keeps large documents out of the DevTools protocol.
func writeTemp(doc string) (string, func(), error) {
	f, err := os.CreateTemp("", "recexport-*.html")
	if err != nil {
		return "", nil, fmt.Errorf("create temp file: %w", err)
	}
	name := f.Name()
	cleanup := func() { os.Remove(name) }

	if _, err := f.WriteString(doc); err != nil {
		f.Close()
		cleanup()
		return "", nil, fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("close temp file: %w", err)
	}

	abs, err := filepath.Abs(name)
	if err != nil {
		cleanup()
		return "", nil, fmt.Errorf("resolve temp path: %w", err)
	}
	return "file://" + abs, cleanup, nil
}
