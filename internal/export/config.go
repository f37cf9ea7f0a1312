package export

import (
	"github.com/dgallion1/recexport/internal/chunker"
	"github.com/dgallion1/recexport/internal/config"
	"github.com/dgallion1/recexport/internal/doctree"
	"github.com/dgallion1/recexport/internal/render"
)

// ConfigFrom maps process configuration onto the service settings.
func ConfigFrom(cfg config.Config) Config {
	return Config{
		Pagination: chunker.Config{
			FirstPageCapacity: cfg.FirstPageCapacity,
			OtherPageCapacity: cfg.OtherPageCapacity,
		},
		MeasureCapacity: cfg.MeasureCapacity,
		BrandHeading:    cfg.BrandHeading,
		Appearance: render.Appearance{
			FontFamily: cfg.FontFamily,
			FontCSSURL: cfg.FontCSSURL,
		},
		DefaultClinic: doctree.ClinicHeader{
			Name:    cfg.ClinicName,
			Email:   cfg.ClinicEmail,
			Phone:   cfg.ClinicPhone,
			LogoURL: cfg.LogoURL,
		},
	}
}

// RenderOptions maps process configuration onto the browser settings.
func RenderOptions(cfg config.Config) (render.BrowserOptions, render.Options) {
	opts := render.DefaultOptions()
	if cfg.FontFamily != "" {
		opts.FontFamily = cfg.FontFamily
	}
	opts.FontCSSURL = cfg.FontCSSURL
	if cfg.RenderTimeout > 0 {
		opts.RenderTimeout = cfg.RenderTimeout
	}
	if cfg.ResourceTimeout > 0 {
		opts.ResourceTimeout = cfg.ResourceTimeout
	}
	return render.BrowserOptions{
		ChromePath:   cfg.ChromePath,
		AutoDownload: cfg.ChromeAutoDownload,
		NoSandbox:    cfg.ChromeNoSandbox,
	}, opts
}
