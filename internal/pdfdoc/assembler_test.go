package pdfdoc

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/dgallion1/recexport/internal/doctree"
	"github.com/dgallion1/recexport/internal/inspect"
)

func testRaster(t *testing.T, w, h int, record bool) doctree.Raster {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 255, G: 255, B: 255, A: 255})
		}
	}
	img.Set(w/2, h/2, color.RGBA{A: 255})

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	r := doctree.Raster{PNG: buf.Bytes()}
	if record {
		r.WidthPx, r.HeightPx = w, h
	}
	return r
}

func TestAssemble_OnePagePerRaster(t *testing.T) {
	rasters := []doctree.Raster{
		testRaster(t, 160, 200, true),
		testRaster(t, 160, 90, false),
		testRaster(t, 160, 400, true),
	}
	data, err := Assemble(rasters, Meta{Title: "Consulta", Author: "Clinic"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Fatalf("expected PDF header, got %q", data[:min(8, len(data))])
	}

	pages, err := inspect.PDFPageCount(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pages != 3 {
		t.Errorf("expected 3 pages, got %d", pages)
	}
}

func TestAssemble_NoRasters(t *testing.T) {
	_, err := Assemble(nil, Meta{})
	if !errors.Is(err, ErrNoPages) {
		t.Errorf("expected ErrNoPages, got %v", err)
	}
}

func TestAssemble_BadRaster(t *testing.T) {
	_, err := Assemble([]doctree.Raster{{PNG: []byte("not a png")}}, Meta{})
	if err == nil {
		t.Fatal("expected error for undecodable raster")
	}
}

func TestPlacedHeightMm(t *testing.T) {
	tests := []struct {
		name string
		w, h int
		want float64
	}{
		{"half width", 1588, 794, 85},
		{"square", 1588, 1588, 170},
		{"clamped", 1588, 3000, ContentHeightMm},
		{"zero width", 0, 100, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PlacedHeightMm(tt.w, tt.h); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
	if ContentHeightMm != 257 {
		t.Errorf("expected content height 257mm, got %v", ContentHeightMm)
	}
}

func TestGradientColor_Stops(t *testing.T) {
	tests := []struct {
		i       int
		r, g, b uint8
	}{
		{0, 59, 130, 246},
		{BorderSegments - 1, 236, 72, 153},
	}
	for _, tt := range tests {
		r, g, b := GradientColor(tt.i, BorderSegments)
		if r != tt.r || g != tt.g || b != tt.b {
			t.Errorf("segment %d: expected (%d,%d,%d), got (%d,%d,%d)", tt.i, tt.r, tt.g, tt.b, r, g, b)
		}
	}

	// Red rises towards pink across the ramp.
	prev, _, _ := GradientColor(0, BorderSegments)
	for i := 1; i < BorderSegments; i++ {
		r, _, _ := GradientColor(i, BorderSegments)
		if r < prev {
			t.Fatalf("segment %d: red channel decreased from %d to %d", i, prev, r)
		}
		prev = r
	}
}
