// Package pdfdoc places page rasters onto A4 pages with a gradient border
// band and serialises the result as a PDF.
package pdfdoc

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/png"

	"github.com/dgallion1/recexport/internal/doctree"
	"github.com/dgallion1/recexport/internal/inspect"
	"github.com/go-pdf/fpdf"
	"github.com/lucasb-eyer/go-colorful"
)

// Physical page geometry in millimetres.
const (
	PageWidthMm     = 210.0
	PageHeightMm    = 297.0
	MarginMm        = 20.0
	BorderWidthMm   = 1.6
	ContentWidthMm  = PageWidthMm - 2*MarginMm
	ContentHeightMm = PageHeightMm - 2*MarginMm

	// BorderSegments is how many flat bands approximate the border gradient.
	BorderSegments = 50
)

// Gradient stops, top to bottom.
var (
	gradientBlue   = rgb255(59, 130, 246)
	gradientPurple = rgb255(139, 92, 246)
	gradientPink   = rgb255(236, 72, 153)
)

// ErrNoPages is returned when there is nothing to assemble.
var ErrNoPages = errors.New("no page rasters")

// Meta is document metadata written into the PDF info dictionary.
type Meta struct {
	Title  string
	Author string
}

// Assemble builds a PDF with one A4 page per raster, in slice order.
func Assemble(rasters []doctree.Raster, meta Meta) ([]byte, error) {
	if len(rasters) == 0 {
		return nil, ErrNoPages
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(MarginMm, MarginMm, MarginMm)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(meta.Title, true)
	pdf.SetAuthor(meta.Author, true)
	pdf.SetCreator("recexport", true)

	for i, r := range rasters {
		width, height, err := rasterSize(r)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i+1, err)
		}

		name := fmt.Sprintf("page-%d", i)
		opts := fpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(r.PNG))

		pdf.AddPage()
		pdf.ImageOptions(name, MarginMm, MarginMm, ContentWidthMm, PlacedHeightMm(width, height), false, opts, 0, "")
		drawBorder(pdf)

		if pdf.Err() {
			return nil, fmt.Errorf("page %d: %w", i+1, pdf.Error())
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}

	pages, err := inspect.PDFPageCount(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("verify pdf: %w", err)
	}
	if pages != len(rasters) {
		return nil, fmt.Errorf("verify pdf: expected %d pages, got %d", len(rasters), pages)
	}
	return buf.Bytes(), nil
}

// PlacedHeightMm converts a raster's pixel height to millimetres at the
// content width's scale, clamped to the content height.
func PlacedHeightMm(widthPx, heightPx int) float64 {
	if widthPx <= 0 || heightPx <= 0 {
		return 0
	}
	h := float64(heightPx) * ContentWidthMm / float64(widthPx)
	return min(h, ContentHeightMm)
}

// GradientColor returns the border colour of segment i of n: blue at the
// top, purple in the middle, pink at the bottom.
func GradientColor(i, n int) (r, g, b uint8) {
	t := 0.0
	if n > 1 {
		t = float64(i) / float64(n-1)
	}
	var c colorful.Color
	if t < 0.5 {
		c = gradientBlue.BlendRgb(gradientPurple, t*2)
	} else {
		c = gradientPurple.BlendRgb(gradientPink, (t-0.5)*2)
	}
	return c.Clamped().RGB255()
}

func drawBorder(pdf *fpdf.Fpdf) {
	x := PageWidthMm - BorderWidthMm
	segment := PageHeightMm / BorderSegments
	for i := range BorderSegments {
		r, g, b := GradientColor(i, BorderSegments)
		pdf.SetFillColor(int(r), int(g), int(b))
		pdf.Rect(x, float64(i)*segment, BorderWidthMm, segment, "F")
	}
}

// rasterSize returns the raster's pixel size, reading the PNG header when
// the compositor did not record it.
func rasterSize(r doctree.Raster) (int, int, error) {
	if r.WidthPx > 0 && r.HeightPx > 0 {
		return r.WidthPx, r.HeightPx, nil
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(r.PNG))
	if err != nil {
		return 0, 0, fmt.Errorf("decode raster: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

func rgb255(r, g, b uint8) colorful.Color {
	return colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
}
