//go:build !tesseract

package layout

import (
	"context"
	"io"
)

// TesseractAnalyzer is unavailable in builds without the tesseract tag.
type TesseractAnalyzer struct{}

// NewTesseractAnalyzer reports that Tesseract support was not compiled in.
func NewTesseractAnalyzer(Config) (*TesseractAnalyzer, error) {
	return nil, NewError(ProviderTesseract, "NewTesseractAnalyzer", ErrInvalidConfiguration,
		"built without Tesseract support; rebuild with -tags tesseract")
}

// Name implements Analyzer.
func (a *TesseractAnalyzer) Name() string {
	return ProviderTesseract
}

// Analyze implements Analyzer.
func (a *TesseractAnalyzer) Analyze(context.Context, io.Reader, string) (*Document, error) {
	return nil, NewError(ProviderTesseract, "Analyze", ErrInvalidConfiguration, "built without Tesseract support")
}
