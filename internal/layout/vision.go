package layout

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/rs/zerolog"

	"menuscan/internal/logger"
)

// MaxPagesSync is the maximum number of PDF pages Vision annotates synchronously.
const MaxPagesSync = 5

// VisionAnalyzer implements Analyzer using Google Cloud Vision document text detection.
type VisionAnalyzer struct {
	client *vision.ImageAnnotatorClient
	config Config
	log    zerolog.Logger
}

// NewVisionAnalyzer creates an analyzer with credentials from environment.
// It expects either GOOGLE_APPLICATION_CREDENTIALS path or GOOGLE_CREDENTIALS JSON in env.
func NewVisionAnalyzer(ctx context.Context, cfg Config) (*VisionAnalyzer, error) {
	const op = "NewVisionAnalyzer"

	creds := credentialOptions()
	client, err := vision.NewImageAnnotatorClient(ctx, creds...)
	if err != nil {
		if len(creds) == 0 {
			return nil, NewError(ProviderVision, op, ErrMissingCredentials, "no credentials found in environment")
		}
		return nil, WrapError(ProviderVision, op, err, "failed to create Vision client")
	}

	return NewVisionAnalyzerWithClient(cfg, client), nil
}

// NewVisionAnalyzerWithClient creates an analyzer with an explicit client (for testing).
func NewVisionAnalyzerWithClient(cfg Config, client *vision.ImageAnnotatorClient) *VisionAnalyzer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	return &VisionAnalyzer{
		client: client,
		config: cfg,
		log:    logger.WithComponent("vision"),
	}
}

// Name implements Analyzer.
func (a *VisionAnalyzer) Name() string {
	return ProviderVision
}

// Analyze implements Analyzer. Images go through BatchAnnotateImages, PDFs
// and TIFFs through BatchAnnotateFiles.
func (a *VisionAnalyzer) Analyze(ctx context.Context, document io.Reader, mimeType string) (*Document, error) {
	const op = "Analyze"

	data, mimeType, err := readDocument(ProviderVision, op, document, mimeType)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()

	features := []*visionpb.Feature{{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION}}

	var responses []*visionpb.AnnotateImageResponse
	switch mimeType {
	case "application/pdf", "image/tiff", "image/gif":
		resp, err := a.client.BatchAnnotateFiles(callCtx, &visionpb.BatchAnnotateFilesRequest{
			Requests: []*visionpb.AnnotateFileRequest{{
				InputConfig: &visionpb.InputConfig{Content: data, MimeType: mimeType},
				Features:    features,
			}},
		})
		if err != nil {
			return nil, NewError(ProviderVision, op, ErrServiceUnavailable, fmt.Sprintf("Vision API call failed: %v", err))
		}
		if len(resp.GetResponses()) == 0 {
			return nil, NewError(ProviderVision, op, ErrServiceUnavailable, "no response from Vision API")
		}
		fileResp := resp.GetResponses()[0]
		if fileResp.GetError() != nil {
			return nil, NewError(ProviderVision, op, ErrServiceUnavailable, fmt.Sprintf("Vision API error: %s", fileResp.GetError().GetMessage()))
		}
		if fileResp.GetTotalPages() > MaxPagesSync {
			a.log.Warn().Int32("total_pages", fileResp.GetTotalPages()).Int("max_pages", MaxPagesSync).
				Msg("Only the first pages were annotated")
		}
		responses = fileResp.GetResponses()
	default:
		resp, err := a.client.BatchAnnotateImages(callCtx, &visionpb.BatchAnnotateImagesRequest{
			Requests: []*visionpb.AnnotateImageRequest{{
				Image:    &visionpb.Image{Content: data},
				Features: features,
			}},
		})
		if err != nil {
			return nil, NewError(ProviderVision, op, ErrServiceUnavailable, fmt.Sprintf("Vision API call failed: %v", err))
		}
		responses = resp.GetResponses()
	}

	for i, r := range responses {
		if r.GetError() != nil {
			return nil, NewError(ProviderVision, op, ErrServiceUnavailable, fmt.Sprintf("page %d: %s", i+1, r.GetError().GetMessage()))
		}
	}

	doc := documentFromVision(responses)
	a.log.Debug().
		Int("pages", len(doc.Pages)).
		Int("lines", doc.LineCount()).
		Str("mime_type", mimeType).
		Msg("Vision layout analysis complete")

	return doc, nil
}

// Close closes the underlying Vision client.
func (a *VisionAnalyzer) Close() error {
	if a.client != nil {
		return a.client.Close()
	}
	return nil
}

// documentFromVision rebuilds text lines from Vision's block/paragraph/word
// hierarchy. Words are joined until a symbol carries a line-ending break
// (EOL_SURE_SPACE, LINE_BREAK or HYPHEN) or the paragraph ends. A line's
// polygon is the bounding rectangle of its words.
func documentFromVision(responses []*visionpb.AnnotateImageResponse) *Document {
	out := &Document{}
	for _, resp := range responses {
		ann := resp.GetFullTextAnnotation()
		if ann == nil {
			continue
		}
		for _, p := range ann.GetPages() {
			page := Page{
				Number: len(out.Pages) + 1,
				Width:  float64(p.GetWidth()),
				Height: float64(p.GetHeight()),
			}
			if ic := resp.GetContext(); ic.GetPageNumber() > 0 {
				page.Number = int(ic.GetPageNumber())
			}
			for _, block := range p.GetBlocks() {
				for _, para := range block.GetParagraphs() {
					page.Lines = append(page.Lines, paragraphLines(para, page.Width, page.Height)...)
				}
			}
			out.Pages = append(out.Pages, page)
		}
	}
	return out
}

type lineBuilder struct {
	text                   strings.Builder
	minX, minY, maxX, maxY float64
	words                  int
}

func newLineBuilder() *lineBuilder {
	return &lineBuilder{
		minX: math.Inf(1), minY: math.Inf(1),
		maxX: math.Inf(-1), maxY: math.Inf(-1),
	}
}

func (b *lineBuilder) addBox(pts []Point) {
	for _, p := range pts {
		b.minX = math.Min(b.minX, p.X)
		b.minY = math.Min(b.minY, p.Y)
		b.maxX = math.Max(b.maxX, p.X)
		b.maxY = math.Max(b.maxY, p.Y)
	}
}

func (b *lineBuilder) line() (TextLine, bool) {
	text := strings.TrimSpace(b.text.String())
	if text == "" || b.words == 0 || math.IsInf(b.minX, 0) {
		return TextLine{}, false
	}
	return TextLine{Text: text, Polygon: rectPolygon(b.minX, b.minY, b.maxX, b.maxY)}, true
}

func paragraphLines(para *visionpb.Paragraph, width, height float64) []TextLine {
	var lines []TextLine
	cur := newLineBuilder()
	flush := func() {
		if l, ok := cur.line(); ok {
			lines = append(lines, l)
		}
		cur = newLineBuilder()
	}

	for _, word := range para.GetWords() {
		cur.words++
		cur.addBox(visionPolygon(word.GetBoundingBox(), width, height))
		endLine := false
		for _, sym := range word.GetSymbols() {
			cur.text.WriteString(sym.GetText())
			switch sym.GetProperty().GetDetectedBreak().GetType() {
			case visionpb.TextAnnotation_DetectedBreak_SPACE, visionpb.TextAnnotation_DetectedBreak_SURE_SPACE:
				cur.text.WriteByte(' ')
			case visionpb.TextAnnotation_DetectedBreak_EOL_SURE_SPACE, visionpb.TextAnnotation_DetectedBreak_LINE_BREAK:
				endLine = true
			case visionpb.TextAnnotation_DetectedBreak_HYPHEN:
				cur.text.WriteByte('-')
				endLine = true
			}
		}
		if endLine {
			flush()
		}
	}
	flush()
	return lines
}

func visionPolygon(poly *visionpb.BoundingPoly, width, height float64) []Point {
	if poly == nil {
		return nil
	}
	if vs := poly.GetVertices(); len(vs) > 0 {
		pts := make([]Point, 0, len(vs))
		for _, v := range vs {
			pts = append(pts, Point{X: float64(v.GetX()), Y: float64(v.GetY())})
		}
		return pts
	}
	nvs := poly.GetNormalizedVertices()
	pts := make([]Point, 0, len(nvs))
	for _, v := range nvs {
		pts = append(pts, Point{X: float64(v.GetX()) * width, Y: float64(v.GetY()) * height})
	}
	return pts
}
