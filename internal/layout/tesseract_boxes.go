package layout

import (
	"bytes"
	"fmt"
	"image"
	"strings"

	// decoders for image.DecodeConfig
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// textBox is one recognized text line in pixel coordinates.
type textBox struct {
	Rect image.Rectangle
	Text string
}

// imageSize returns the pixel dimensions of an encoded image.
func imageSize(data []byte) (int, int, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("decode image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return 0, 0, fmt.Errorf("%s image has no size", format)
	}
	return cfg.Width, cfg.Height, nil
}

// documentFromBoxes builds a single-page document from line boxes.
func documentFromBoxes(boxes []textBox, width, height int) *Document {
	page := Page{Number: 1, Width: float64(width), Height: float64(height)}
	for _, b := range boxes {
		text := strings.TrimSpace(b.Text)
		if text == "" || b.Rect.Empty() {
			continue
		}
		r := b.Rect.Canon()
		page.Lines = append(page.Lines, TextLine{
			Text:    text,
			Polygon: rectPolygon(float64(r.Min.X), float64(r.Min.Y), float64(r.Max.X), float64(r.Max.Y)),
		})
	}
	return &Document{Pages: []Page{page}}
}
