// Package layout provides document layout analysis for scanned and photographed menus.
//
// An Analyzer turns raw document bytes into pages of positioned text lines.
// Three providers are available:
//   - documentai: Google Document AI OCR/layout processor (default)
//   - vision: Google Cloud Vision document text detection
//   - tesseract: local Tesseract engine (requires building with -tags tesseract)
//
// Required Environment Variables (cloud providers):
//   - GOOGLE_APPLICATION_CREDENTIALS: Path to service account JSON file, OR
//   - GOOGLE_CREDENTIALS: Inline JSON credentials string
//   - GOOGLE_CLOUD_PROJECT: Google Cloud project ID (documentai)
//   - DOCUMENT_AI_PROCESSOR_ID: Document AI OCR processor ID (documentai)
//
// Coordinates are kept in the provider's own units (pixels or points). The
// menu projector normalizes them by page width and height.
package layout

import (
	"context"
	"io"
)

const (
	// MaxDocumentSizeBytes is the maximum document size for synchronous processing (20MB)
	MaxDocumentSizeBytes = 20 * 1024 * 1024
)

// Analyzer defines the interface for layout analysis providers.
type Analyzer interface {
	// Analyze runs layout analysis on a document.
	// mimeType may be empty, in which case it is detected from the content.
	Analyze(ctx context.Context, document io.Reader, mimeType string) (*Document, error)

	// Name returns the provider name used in logs and output metadata.
	Name() string
}

// Document is the result of a layout analysis.
type Document struct {
	Pages []Page `json:"pages"`
}

// Page is one analyzed page. Width and Height share the unit of the line polygons.
type Page struct {
	Number int        `json:"number"`
	Width  float64    `json:"width"`
	Height float64    `json:"height"`
	Lines  []TextLine `json:"lines"`
}

// TextLine is a single OCR line with its bounding polygon.
type TextLine struct {
	Text    string  `json:"text"`
	Polygon []Point `json:"polygon"`
}

// Point is a polygon vertex in page units.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// LineCount returns the total number of lines across all pages.
func (d *Document) LineCount() int {
	if d == nil {
		return 0
	}
	n := 0
	for _, p := range d.Pages {
		n += len(p.Lines)
	}
	return n
}

// rectPolygon returns the four corners of an axis-aligned box, clockwise from top-left.
func rectPolygon(x0, y0, x1, y1 float64) []Point {
	return []Point{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}}
}
