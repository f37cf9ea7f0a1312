// Package inspect reads exported documents back. The CLI uses it to report
// on files it wrote, and the assemblers use it to verify their output.
package inspect

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

// PDFInfo summarises a PDF.
type PDFInfo struct {
	Pages int
	Text  []string // Plain text per page; empty for raster-only pages.
}

// PDFPageCount returns the number of pages in a PDF.
func PDFPageCount(data []byte) (int, error) {
	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("open pdf: %w", err)
	}
	return reader.NumPage(), nil
}

// PDF reads page count and per-page text. When the library cannot decode
// the text layer and fallbackPdftotext is set, pdftotext is tried instead.
func PDF(data []byte, fallbackPdftotext bool) (*PDFInfo, error) {
	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	info := &PDFInfo{Pages: reader.NumPage()}
	textOK := true
	for i := 1; i <= info.Pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			info.Text = append(info.Text, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			textOK = false
			break
		}
		info.Text = append(info.Text, strings.TrimSpace(text))
	}

	if !textOK && fallbackPdftotext {
		pages, err := pdftotextPages(data)
		if err != nil {
			return nil, err
		}
		info.Text = pages
	}
	return info, nil
}

func pdftotextPages(data []byte) ([]string, error) {
	// pdftotext reads from a path, not stdin.
	tmp, err := os.CreateTemp("", "recexport-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	out, err := exec.Command("pdftotext", "-layout", tmpPath, "-").Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}

	var pages []string
	for _, p := range strings.Split(string(out), "\f") {
		pages = append(pages, strings.TrimSpace(p))
	}
	// pdftotext ends the last page with a form feed too.
	if n := len(pages); n > 0 && pages[n-1] == "" {
		pages = pages[:n-1]
	}
	return pages, nil
}
