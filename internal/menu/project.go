package menu

import (
	"strings"

	"github.com/rs/zerolog"

	"menuscan/internal/layout"
)

// minPolygonVertices is the smallest polygon accepted from the layout service.
const minPolygonVertices = 4

// Projector converts a layout analysis into classified lines with
// page-normalized centroids.
type Projector struct {
	rules *Rules
	log   zerolog.Logger
}

// NewProjector creates a projector. A nil rules value uses DefaultRules.
func NewProjector(rules *Rules, log zerolog.Logger) *Projector {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Projector{rules: rules, log: log}
}

// Project flattens every page of doc into lines. Lines from all pages are
// concatenated in page order; ordering across pages is left to the parser.
// Malformed lines are dropped individually.
func (p *Projector) Project(doc *layout.Document) []Line {
	if doc == nil {
		return nil
	}
	var out []Line
	for _, page := range doc.Pages {
		if page.Width <= 0 || page.Height <= 0 {
			p.log.Warn().Int("page", page.Number).
				Float64("width", page.Width).Float64("height", page.Height).
				Msg("Skipping page with invalid dimensions")
			continue
		}
		dropped := 0
		for _, tl := range page.Lines {
			text := strings.TrimSpace(tl.Text)
			if text == "" || len(tl.Polygon) < minPolygonVertices {
				dropped++
				continue
			}
			x, y := centroid(tl.Polygon, page.Width, page.Height)
			if y < p.rules.set.Thresholds.TitleBand && p.rules.IsTitle(text) && !p.rules.IsHeader(text) {
				dropped++
				continue
			}
			out = append(out, Line{
				Text: text,
				X:    x,
				Y:    y,
				Type: p.rules.Classify(text),
				Page: page.Number,
			})
		}
		if dropped > 0 {
			p.log.Debug().Int("page", page.Number).Int("dropped", dropped).Msg("Dropped lines")
		}
	}
	return out
}

// centroid returns the mean vertex of poly normalized by the page size.
func centroid(poly []layout.Point, width, height float64) (float64, float64) {
	var sx, sy float64
	for _, pt := range poly {
		sx += pt.X / width
		sy += pt.Y / height
	}
	n := float64(len(poly))
	return sx / n, sy / n
}
