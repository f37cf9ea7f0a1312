package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/recexport/internal/api"
	"github.com/dgallion1/recexport/internal/config"
	"github.com/dgallion1/recexport/internal/export"
	"github.com/dgallion1/recexport/internal/pipeline"
	"github.com/dgallion1/recexport/internal/render"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize the shared browser. DOCX and print documents still work
	// without one.
	var (
		renderer export.PageRenderer
		printer  export.DocumentPrinter
	)
	browserOpts, renderOpts := export.RenderOptions(cfg)
	browser, err := render.NewBrowser(browserOpts, log)
	if err != nil {
		log.Warn("browser unavailable, pdf exports disabled", "error", err)
	} else {
		renderer = render.NewCompositor(browser, renderOpts, log)
		printer = render.NewPrinter(browser, renderOpts, log)
	}

	// Initialize pipeline.
	svc := export.NewService(renderer, printer, export.ConfigFrom(cfg), export.NewStats(cfg.StatsWindow), log)
	orch := pipeline.NewOrchestrator(cfg, svc, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(svc, orch, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		orch.Stop()
		if browser != nil {
			browser.Close()
		}
	}()

	log.Info("starting recexport", "port", cfg.Port, "browser", browser != nil)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	<-done
}
