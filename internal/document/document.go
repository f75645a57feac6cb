// Package document wraps a PDF file behind a small handle used by the scan
// pipeline: page rendering for QR detection and page text for extraction.
// The handle is exclusively owned by one scan and must be closed on every
// exit path.
package document

import (
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
)

// DefaultZoom renders at twice the 72-DPI base, i.e. roughly 144 DPI. This is
// dense enough for reliable QR detection without blowing up memory on large
// pages.
const DefaultZoom = 2.0

const baseDPI = 72

// Document is an open PDF. Page numbers are 1-based everywhere in the
// pipeline.
type Document struct {
	doc  *fitz.Document
	path string
}

// Open parses the PDF at path. Failure here is the only fatal condition of a
// scan; the caller must abort and surface the error untouched.
func Open(path string) (*Document, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	return &Document{doc: doc, path: path}, nil
}

// Path returns the file path the document was opened from.
func (d *Document) Path() string { return d.path }

// PageCount returns the number of pages.
func (d *Document) PageCount() int {
	return d.doc.NumPage()
}

// RenderPage rasterizes page n (1-based) at the given zoom factor over the
// 72-DPI base. A zoom <= 0 falls back to DefaultZoom. The returned image is
// dense RGBA; detection code drops alpha when it converts to grayscale, which
// keeps the 3-channel semantics of the pipeline.
func (d *Document) RenderPage(n int, zoom float64) (image.Image, error) {
	if zoom <= 0 {
		zoom = DefaultZoom
	}
	img, err := d.doc.ImageDPI(n-1, baseDPI*zoom)
	if err != nil {
		return nil, fmt.Errorf("render page %d: %w", n, err)
	}
	return img, nil
}

// PageText returns the plain text of page n (1-based).
func (d *Document) PageText(n int) (string, error) {
	text, err := d.doc.Text(n - 1)
	if err != nil {
		return "", fmt.Errorf("extract text from page %d: %w", n, err)
	}
	return text, nil
}

// PageHTML returns the HTML rendering of page n (1-based), which carries the
// font and size information used by structured text extraction.
func (d *Document) PageHTML(n int) (string, error) {
	html, err := d.doc.HTML(n-1, false)
	if err != nil {
		return "", fmt.Errorf("extract html from page %d: %w", n, err)
	}
	return html, nil
}

// Close releases the underlying MuPDF handle. Safe to call once per document.
func (d *Document) Close() error {
	return d.doc.Close()
}
