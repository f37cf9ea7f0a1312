// Command recexport exports clinical records from record files without
// running the HTTP server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/dgallion1/recexport/internal/config"
	"github.com/dgallion1/recexport/internal/export"
	"github.com/dgallion1/recexport/internal/inspect"
	"github.com/dgallion1/recexport/internal/render"
	"github.com/spf13/cobra"
)

// cliOptions holds the global flags.
type cliOptions struct {
	outDir         string
	chromePath     string
	chromeDownload bool
	noSandbox      bool
	firstCapacity  int
	otherCapacity  int
	measure        bool
	verbose        bool
	printPDF       bool
	pdftotext      bool
}

var opts = &cliOptions{}

var rootCmd = &cobra.Command{
	Use:   "recexport",
	Short: "Export clinical records to PDF, DOCX and print documents",
	Long: `recexport reads record files (YAML or JSON with title, content, format,
patient and clinic) and writes one artifact per record into the output
directory. Environment variables are read as for the server; flags win.`,
	SilenceUsage: true,
}

var pdfCmd = &cobra.Command{
	Use:   "pdf RECORD...",
	Short: "Render records as paginated A4 PDFs",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExports(opts, string(export.FormatPDF), args)
	},
}

var docxCmd = &cobra.Command{
	Use:   "docx RECORD...",
	Short: "Build editable DOCX documents",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExports(opts, string(export.FormatDOCX), args)
	},
}

var printCmd = &cobra.Command{
	Use:   "print RECORD...",
	Short: "Compose standalone print documents",
	Long: `Compose the print HTML document for each record. With --pdf the document
is paginated by the browser's print engine and saved as PDF instead.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format := export.FormatPrint
		if opts.printPDF {
			format = export.FormatPrintPDF
		}
		return runExports(opts, string(format), args)
	},
}

var pagesCmd = &cobra.Command{
	Use:   "pages RECORD",
	Short: "Show how a record would be paginated",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPages(opts, args[0])
	},
}

var inspectCmd = &cobra.Command{
	Use:   "inspect FILE",
	Short: "Print the page or paragraph text of an exported PDF or DOCX",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInspect(opts, args[0])
	},
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.outDir, "out", "o", ".", "output directory")
	flags.StringVar(&opts.chromePath, "chrome-path", "", "Chrome/Chromium executable (overrides CHROME_PATH)")
	flags.BoolVar(&opts.chromeDownload, "chrome-download", false, "download Chromium when none is installed")
	flags.BoolVar(&opts.noSandbox, "no-sandbox", false, "run the browser without its sandbox")
	flags.IntVar(&opts.firstCapacity, "first-capacity", 0, "lines on the first page (overrides FIRST_PAGE_CAPACITY)")
	flags.IntVar(&opts.otherCapacity, "other-capacity", 0, "lines on later pages (overrides OTHER_PAGE_CAPACITY)")
	flags.BoolVar(&opts.measure, "measure", false, "tighten capacities from rendered line metrics")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log progress to stderr")

	printCmd.Flags().BoolVar(&opts.printPDF, "pdf", false, "save the browser-paginated PDF instead of HTML")
	inspectCmd.Flags().BoolVar(&opts.pdftotext, "pdftotext", false, "fall back to pdftotext when text extraction fails")

	rootCmd.AddCommand(pdfCmd, docxCmd, printCmd, pagesCmd, inspectCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func (o *cliOptions) logger() *slog.Logger {
	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// config reads the environment and applies flag overrides.
func (o *cliOptions) config() config.Config {
	cfg := config.Load()
	if o.chromePath != "" {
		cfg.ChromePath = o.chromePath
	}
	if o.chromeDownload {
		cfg.ChromeAutoDownload = true
	}
	if o.noSandbox {
		cfg.ChromeNoSandbox = true
	}
	if o.firstCapacity > 0 {
		cfg.FirstPageCapacity = o.firstCapacity
	}
	if o.otherCapacity > 0 {
		cfg.OtherPageCapacity = o.otherCapacity
	}
	if o.measure {
		cfg.MeasureCapacity = true
	}
	if o.pdftotext {
		cfg.PDFFallbackPdftotext = true
	}
	return cfg
}

// newService builds an export service, starting a browser only when
// withBrowser is set. The returned func releases the browser.
func newService(cfg config.Config, withBrowser bool, log *slog.Logger) (*export.Service, func(), error) {
	var (
		renderer export.PageRenderer
		printer  export.DocumentPrinter
		closer   = func() {}
	)
	if withBrowser {
		browserOpts, renderOpts := export.RenderOptions(cfg)
		browser, err := render.NewBrowser(browserOpts, log)
		if err != nil {
			return nil, nil, fmt.Errorf("start browser: %w", err)
		}
		renderer = render.NewCompositor(browser, renderOpts, log)
		printer = render.NewPrinter(browser, renderOpts, log)
		closer = func() { browser.Close() }
	}
	return export.NewService(renderer, printer, export.ConfigFrom(cfg), nil, log), closer, nil
}

func needsBrowser(f export.Format) bool {
	return f == export.FormatPDF || f == export.FormatPrintPDF
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// runExports exports every record file, stopping at the first failure.
func runExports(o *cliOptions, formatName string, paths []string) error {
	format, err := export.ParseFormat(formatName)
	if err != nil {
		return err
	}
	log := o.logger()
	svc, closeBrowser, err := newService(o.config(), needsBrowser(format), log)
	if err != nil {
		return err
	}
	defer closeBrowser()

	if err := os.MkdirAll(o.outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	for _, path := range paths {
		req, err := loadRecord(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		res, err := svc.Export(ctx, format, req)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		dst := filepath.Join(o.outDir, res.Filename)
		if err := os.WriteFile(dst, res.Data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", dst, err)
		}
		for _, w := range res.Warnings {
			fmt.Fprintf(os.Stderr, "%s: warning: %s\n", path, w)
		}
		if res.Pages > 0 {
			fmt.Printf("%s -> %s (%d pages)\n", path, dst, res.Pages)
		} else {
			fmt.Printf("%s -> %s\n", path, dst)
		}
	}
	return nil
}

func runPages(o *cliOptions, path string) error {
	req, err := loadRecord(path)
	if err != nil {
		return err
	}
	cfg := o.config()
	log := o.logger()
	svc, closeBrowser, err := newService(cfg, cfg.MeasureCapacity, log)
	if err != nil {
		return err
	}
	defer closeBrowser()

	ctx, cancel := signalContext()
	defer cancel()

	plan, err := svc.Plan(ctx, req)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(plan)
}

func runInspect(o *cliOptions, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		info, err := inspect.PDF(data, o.config().PDFFallbackPdftotext)
		if err != nil {
			return err
		}
		fmt.Printf("%d pages\n", info.Pages)
		for i, text := range info.Text {
			fmt.Printf("--- page %d ---\n%s\n", i+1, strings.TrimSpace(text))
		}
	case ".docx":
		paras, err := inspect.DOCX(data)
		if err != nil {
			return err
		}
		for _, p := range paras {
			prefix := ""
			if p.Justification != "" {
				prefix = "[" + p.Justification + "] "
			}
			fmt.Println(prefix + p.Text())
		}
	default:
		return fmt.Errorf("unsupported file type %q", filepath.Ext(path))
	}
	return nil
}
