package layout

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"google.golang.org/api/option"
)

// Provider names accepted by NewAnalyzer.
const (
	ProviderDocumentAI = "documentai"
	ProviderVision     = "vision"
	ProviderTesseract  = "tesseract"
)

// Config holds configuration for the layout providers.
type Config struct {
	// Provider selects the implementation (documentai, vision, tesseract).
	Provider string

	// ProjectID is the Google Cloud project ID where Document AI is enabled.
	ProjectID string

	// Location is the processing location (e.g., "us", "eu").
	// Should match where your Document AI processor is created.
	Location string

	// ProcessorID is the Document AI OCR processor ID.
	ProcessorID string

	// ProcessorVersion specifies a particular processor version.
	// If empty, uses the default version.
	ProcessorVersion string

	// Timeout is the maximum time to wait for one analysis.
	// Default: 60 seconds.
	Timeout time.Duration

	// TesseractLanguages are the traineddata names passed to Tesseract.
	TesseractLanguages []string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider:           ProviderDocumentAI,
		Location:           "us",
		Timeout:            60 * time.Second,
		TesseractLanguages: []string{"eng"},
	}
}

// NewAnalyzer creates the analyzer selected by cfg.Provider.
func NewAnalyzer(ctx context.Context, cfg Config) (Analyzer, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	var (
		analyzer Analyzer
		err      error
	)
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderDocumentAI:
		analyzer, err = NewDocumentAIAnalyzer(ctx, cfg)
	case ProviderVision:
		analyzer, err = NewVisionAnalyzer(ctx, cfg)
	case ProviderTesseract:
		analyzer, err = NewTesseractAnalyzer(cfg)
	default:
		return nil, NewError(cfg.Provider, "NewAnalyzer", ErrInvalidConfiguration, fmt.Sprintf("unknown provider %q", cfg.Provider))
	}
	if err != nil {
		return nil, err
	}
	return analyzer, nil
}

// Close releases the analyzer's client connection if it holds one.
func Close(a Analyzer) error {
	if c, ok := a.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// credentialOptions returns client options for the credentials found in the
// environment: GOOGLE_CREDENTIALS (inline JSON) wins over
// GOOGLE_APPLICATION_CREDENTIALS (file path).
func credentialOptions() []option.ClientOption {
	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(credJSON))}
	}
	if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		return []option.ClientOption{option.WithCredentialsFile(credFile)}
	}
	return nil
}

// readDocument reads and size-checks a document and resolves its MIME type.
func readDocument(provider, op string, document io.Reader, mimeType string) ([]byte, string, error) {
	data, err := io.ReadAll(io.LimitReader(document, MaxDocumentSizeBytes+1))
	if err != nil {
		return nil, "", WrapError(provider, op, err, "failed to read document")
	}
	if len(data) == 0 {
		return nil, "", NewError(provider, op, ErrEmptyDocument, "")
	}
	if len(data) > MaxDocumentSizeBytes {
		return nil, "", NewError(provider, op, ErrDocumentTooLarge, fmt.Sprintf("more than %d bytes", MaxDocumentSizeBytes))
	}
	if mimeType == "" {
		mimeType = DetectMIMEType(data, "")
	}
	if !SupportedMIMEType(mimeType) {
		return nil, "", NewError(provider, op, ErrUnsupportedFormat, mimeType)
	}
	return data, mimeType, nil
}

var supportedMIMETypes = map[string]bool{
	"application/pdf": true,
	"image/png":       true,
	"image/jpeg":      true,
	"image/gif":       true,
	"image/tiff":      true,
	"image/bmp":       true,
	"image/webp":      true,
}

// SupportedMIMEType reports whether the providers accept mimeType.
func SupportedMIMEType(mimeType string) bool {
	return supportedMIMETypes[mimeType]
}

var extensionMIMETypes = map[string]string{
	".pdf":  "application/pdf",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".bmp":  "image/bmp",
	".webp": "image/webp",
}

// SupportedExtension reports whether name has a document extension the
// providers accept.
func SupportedExtension(name string) bool {
	_, ok := extensionMIMETypes[strings.ToLower(filepath.Ext(name))]
	return ok
}

// DetectMIMEType sniffs the document type from its content, falling back
// to the file extension of name for types the sniffer does not know.
func DetectMIMEType(data []byte, name string) string {
	if bytes.HasPrefix(data, []byte("%PDF")) {
		return "application/pdf"
	}
	if bytes.HasPrefix(data, []byte("II*\x00")) || bytes.HasPrefix(data, []byte("MM\x00*")) {
		return "image/tiff"
	}
	detected := http.DetectContentType(data)
	if i := strings.IndexByte(detected, ';'); i >= 0 {
		detected = detected[:i]
	}
	if supportedMIMETypes[detected] {
		return detected
	}
	if byExt, ok := extensionMIMETypes[strings.ToLower(filepath.Ext(name))]; ok {
		return byExt
	}
	return detected
}
