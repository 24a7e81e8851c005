//go:build tesseract

package layout

import (
	"context"
	"fmt"
	"io"

	"github.com/otiai10/gosseract/v2"
	"github.com/rs/zerolog"

	"menuscan/internal/logger"
)

// TesseractAnalyzer implements Analyzer with a local Tesseract engine.
// It handles single images only; PDFs need a cloud provider.
type TesseractAnalyzer struct {
	config Config
	log    zerolog.Logger
}

// NewTesseractAnalyzer creates a Tesseract analyzer.
func NewTesseractAnalyzer(cfg Config) (*TesseractAnalyzer, error) {
	if len(cfg.TesseractLanguages) == 0 {
		cfg.TesseractLanguages = DefaultConfig().TesseractLanguages
	}
	return &TesseractAnalyzer{
		config: cfg,
		log:    logger.WithComponent("tesseract"),
	}, nil
}

// Name implements Analyzer.
func (a *TesseractAnalyzer) Name() string {
	return ProviderTesseract
}

type tesseractResult struct {
	boxes []textBox
	err   error
}

// Analyze implements Analyzer. A Tesseract client is not safe for
// concurrent use, so each call gets its own.
func (a *TesseractAnalyzer) Analyze(ctx context.Context, document io.Reader, mimeType string) (*Document, error) {
	const op = "Analyze"

	data, mimeType, err := readDocument(ProviderTesseract, op, document, mimeType)
	if err != nil {
		return nil, err
	}
	if mimeType == "application/pdf" {
		return nil, NewError(ProviderTesseract, op, ErrUnsupportedFormat, "tesseract accepts images only")
	}

	width, height, err := imageSize(data)
	if err != nil {
		return nil, NewError(ProviderTesseract, op, ErrUnsupportedFormat, err.Error())
	}

	done := make(chan tesseractResult, 1)
	go func() {
		boxes, err := a.recognize(data)
		done <- tesseractResult{boxes: boxes, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, WrapError(ProviderTesseract, op, ctx.Err(), "recognition interrupted")
	case res := <-done:
		if res.err != nil {
			return nil, NewError(ProviderTesseract, op, ErrServiceUnavailable, res.err.Error())
		}
		doc := documentFromBoxes(res.boxes, width, height)
		a.log.Debug().
			Int("lines", doc.LineCount()).
			Int("width", width).
			Int("height", height).
			Msg("Tesseract layout analysis complete")
		return doc, nil
	}
}

func (a *TesseractAnalyzer) recognize(data []byte) ([]textBox, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(a.config.TesseractLanguages...); err != nil {
		return nil, fmt.Errorf("set language: %w", err)
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}
	found, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("bounding boxes: %w", err)
	}

	boxes := make([]textBox, 0, len(found))
	for _, b := range found {
		boxes = append(boxes, textBox{Rect: b.Box, Text: b.Word})
	}
	return boxes, nil
}
