package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Auth
	ExportAPIKey string

	// Browser
	ChromePath         string
	ChromeAutoDownload bool
	ChromeNoSandbox    bool
	RenderTimeout      time.Duration
	ResourceTimeout    time.Duration

	// Pagination
	FirstPageCapacity int
	OtherPageCapacity int
	MeasureCapacity   bool

	// Appearance
	FontFamily   string
	FontCSSURL   string
	LogoURL      string
	BrandHeading string

	// Default letterhead when a request carries none
	ClinicName  string
	ClinicEmail string
	ClinicPhone string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Request limits
	MaxContentBytes int64

	// Job state
	JobTTL time.Duration

	// Latency stats window
	StatsWindow time.Duration

	// Inspect
	PDFFallbackPdftotext bool
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8091"),

		ExportAPIKey: os.Getenv("EXPORT_API_KEY"),

		ChromePath:         os.Getenv("CHROME_PATH"),
		ChromeAutoDownload: envBool("CHROME_AUTO_DOWNLOAD", false),
		ChromeNoSandbox:    envBool("CHROME_NO_SANDBOX", false),
		RenderTimeout:      envDuration("RENDER_TIMEOUT", 30*time.Second),
		ResourceTimeout:    envDuration("RESOURCE_TIMEOUT", 5*time.Second),

		FirstPageCapacity: envInt("FIRST_PAGE_CAPACITY", 28),
		OtherPageCapacity: envInt("OTHER_PAGE_CAPACITY", 33),
		MeasureCapacity:   envBool("MEASURE_CAPACITY", false),

		FontFamily:   envOr("FONT_FAMILY", "Inter, Arial, sans-serif"),
		FontCSSURL:   os.Getenv("FONT_CSS_URL"),
		LogoURL:      os.Getenv("LOGO_URL"),
		BrandHeading: envOr("BRAND_HEADING", "Clinical Record"),

		ClinicName:  os.Getenv("CLINIC_NAME"),
		ClinicEmail: os.Getenv("CLINIC_EMAIL"),
		ClinicPhone: os.Getenv("CLINIC_PHONE"),

		WorkerCount:  envInt("WORKER_COUNT", 2),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 50),

		MaxContentBytes: envInt64("MAX_CONTENT_BYTES", 5242880), // 5MB

		JobTTL:      envDuration("JOB_TTL", 1*time.Hour),
		StatsWindow: envDuration("STATS_WINDOW", 1*time.Hour),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", false),
	}

	if cfg.RenderTimeout <= 0 {
		cfg.RenderTimeout = 30 * time.Second
	}
	if cfg.ResourceTimeout <= 0 {
		cfg.ResourceTimeout = 5 * time.Second
	}
	if cfg.FirstPageCapacity <= 0 {
		cfg.FirstPageCapacity = 28
	}
	if cfg.OtherPageCapacity <= 0 {
		cfg.OtherPageCapacity = 33
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 50
	}
	if cfg.MaxContentBytes <= 0 {
		cfg.MaxContentBytes = 5242880
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.StatsWindow <= 0 {
		cfg.StatsWindow = 1 * time.Hour
	}

	return cfg
}

// Validate checks what the HTTP server needs. The CLI does not call it.
func (c Config) Validate() error {
	if c.ExportAPIKey == "" {
		return fmt.Errorf("EXPORT_API_KEY is required")
	}
	if c.ResourceTimeout >= c.RenderTimeout {
		return fmt.Errorf("RESOURCE_TIMEOUT (%s) must be shorter than RENDER_TIMEOUT (%s)", c.ResourceTimeout, c.RenderTimeout)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
