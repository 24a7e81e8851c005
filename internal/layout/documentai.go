package layout

import (
	"context"
	"fmt"
	"io"
	"strings"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"menuscan/internal/logger"
)

// DocumentAIAnalyzer implements Analyzer using a Google Document AI OCR processor.
type DocumentAIAnalyzer struct {
	client *documentai.DocumentProcessorClient
	config Config
	log    zerolog.Logger
}

// NewDocumentAIAnalyzer creates an analyzer with credentials from environment.
// Expects: GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS
// Requires: cfg.ProjectID and cfg.ProcessorID
func NewDocumentAIAnalyzer(ctx context.Context, cfg Config) (*DocumentAIAnalyzer, error) {
	const op = "NewDocumentAIAnalyzer"

	if cfg.ProjectID == "" {
		return nil, NewError(ProviderDocumentAI, op, ErrInvalidConfiguration, "GOOGLE_CLOUD_PROJECT is required")
	}
	if cfg.ProcessorID == "" {
		return nil, NewError(ProviderDocumentAI, op, ErrInvalidConfiguration, "DOCUMENT_AI_PROCESSOR_ID is required")
	}
	if cfg.Location == "" {
		cfg.Location = "us"
	}

	// Regional endpoint for anything but the default multi-region
	var clientOptions []option.ClientOption
	if cfg.Location != "us" {
		endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", cfg.Location)
		clientOptions = append(clientOptions, option.WithEndpoint(endpoint))
	}
	creds := credentialOptions()
	clientOptions = append(clientOptions, creds...)

	client, err := documentai.NewDocumentProcessorClient(ctx, clientOptions...)
	if err != nil {
		if len(creds) == 0 {
			return nil, NewError(ProviderDocumentAI, op, ErrMissingCredentials, "no credentials found in environment")
		}
		return nil, WrapError(ProviderDocumentAI, op, err, fmt.Sprintf("failed to create Document AI client for location: %s", cfg.Location))
	}

	return NewDocumentAIAnalyzerWithClient(cfg, client), nil
}

// NewDocumentAIAnalyzerWithClient creates an analyzer with an explicit client (for testing).
func NewDocumentAIAnalyzerWithClient(cfg Config, client *documentai.DocumentProcessorClient) *DocumentAIAnalyzer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	return &DocumentAIAnalyzer{
		client: client,
		config: cfg,
		log:    logger.WithComponent("document-ai"),
	}
}

// Name implements Analyzer.
func (a *DocumentAIAnalyzer) Name() string {
	return ProviderDocumentAI
}

// Analyze implements Analyzer.
func (a *DocumentAIAnalyzer) Analyze(ctx context.Context, document io.Reader, mimeType string) (*Document, error) {
	const op = "Analyze"

	data, mimeType, err := readDocument(ProviderDocumentAI, op, document, mimeType)
	if err != nil {
		return nil, err
	}

	processCtx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()

	req := &documentaipb.ProcessRequest{
		Name: a.processorName(),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  data,
				MimeType: mimeType,
			},
		},
	}

	resp, err := a.client.ProcessDocument(processCtx, req)
	if err != nil {
		return nil, a.handleProcessingError(op, err)
	}
	if resp.GetDocument() == nil {
		return nil, NewError(ProviderDocumentAI, op, ErrServiceUnavailable, "no document in response")
	}

	doc := documentFromDocumentAI(resp.GetDocument())
	a.log.Debug().
		Int("pages", len(doc.Pages)).
		Int("lines", doc.LineCount()).
		Str("mime_type", mimeType).
		Msg("Document AI layout analysis complete")

	return doc, nil
}

// processorName constructs the full processor name for the Document AI API.
func (a *DocumentAIAnalyzer) processorName() string {
	if a.config.ProcessorVersion != "" {
		return fmt.Sprintf("projects/%s/locations/%s/processors/%s/processorVersions/%s",
			a.config.ProjectID, a.config.Location, a.config.ProcessorID, a.config.ProcessorVersion)
	}
	return fmt.Sprintf("projects/%s/locations/%s/processors/%s",
		a.config.ProjectID, a.config.Location, a.config.ProcessorID)
}

// handleProcessingError converts Document AI errors to layout errors.
func (a *DocumentAIAnalyzer) handleProcessingError(op string, err error) error {
	errStr := err.Error()

	switch {
	case strings.Contains(errStr, "PERMISSION_DENIED") || strings.Contains(errStr, "PermissionDenied"):
		return NewError(ProviderDocumentAI, op, ErrInvalidCredentials, "insufficient permissions for Document AI")
	case strings.Contains(errStr, "QUOTA_EXCEEDED") || strings.Contains(errStr, "ResourceExhausted"):
		return NewError(ProviderDocumentAI, op, ErrQuotaExceeded, "Document AI API quota exceeded")
	case strings.Contains(errStr, "NOT_FOUND") || strings.Contains(errStr, "NotFound"):
		return NewError(ProviderDocumentAI, op, ErrProcessorNotFound, fmt.Sprintf("processor not found: %s", a.config.ProcessorID))
	case strings.Contains(errStr, "INVALID_ARGUMENT") || strings.Contains(errStr, "InvalidArgument"):
		return NewError(ProviderDocumentAI, op, ErrUnsupportedFormat, "document format not supported or corrupted")
	case strings.Contains(errStr, "DeadlineExceeded") || strings.Contains(errStr, "context deadline exceeded"):
		return NewError(ProviderDocumentAI, op, context.DeadlineExceeded, "processing timeout")
	case strings.Contains(errStr, "Canceled") || strings.Contains(errStr, "context canceled"):
		return NewError(ProviderDocumentAI, op, context.Canceled, "processing was canceled")
	default:
		return NewError(ProviderDocumentAI, op, ErrServiceUnavailable, fmt.Sprintf("Document AI error: %v", err))
	}
}

// Close closes the underlying Document AI client.
func (a *DocumentAIAnalyzer) Close() error {
	if a.client != nil {
		return a.client.Close()
	}
	return nil
}

// documentFromDocumentAI converts a processed Document AI document into
// pages of lines. Line text comes from the layout's text anchor into
// doc.Text; polygons use absolute vertices when present and normalized
// vertices scaled by the page dimension otherwise.
func documentFromDocumentAI(doc *documentaipb.Document) *Document {
	text := []rune(doc.GetText())
	out := &Document{Pages: make([]Page, 0, len(doc.GetPages()))}

	for i, p := range doc.GetPages() {
		page := Page{Number: int(p.GetPageNumber())}
		if page.Number == 0 {
			page.Number = i + 1
		}
		if dim := p.GetDimension(); dim != nil {
			page.Width = float64(dim.GetWidth())
			page.Height = float64(dim.GetHeight())
		}

		for _, line := range p.GetLines() {
			l := line.GetLayout()
			if l == nil {
				continue
			}
			page.Lines = append(page.Lines, TextLine{
				Text:    anchorText(text, l.GetTextAnchor()),
				Polygon: documentAIPolygon(l.GetBoundingPoly(), page.Width, page.Height),
			})
		}
		out.Pages = append(out.Pages, page)
	}
	return out
}

// anchorText joins the text segments of an anchor, clamping out-of-range
// indices.
func anchorText(text []rune, anchor *documentaipb.Document_TextAnchor) string {
	if anchor == nil {
		return ""
	}
	var b strings.Builder
	n := int64(len(text))
	for _, seg := range anchor.GetTextSegments() {
		start, end := seg.GetStartIndex(), seg.GetEndIndex()
		if start < 0 {
			start = 0
		}
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}
		b.WriteString(string(text[start:end]))
	}
	return strings.TrimSpace(b.String())
}

func documentAIPolygon(poly *documentaipb.BoundingPoly, width, height float64) []Point {
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
