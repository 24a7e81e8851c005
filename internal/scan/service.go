// Package scan wires layout analysis, line projection, parsing and optional
// price completion into one menu scanning pipeline.
package scan

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"menuscan/internal/completion"
	"menuscan/internal/layout"
	"menuscan/internal/logger"
	"menuscan/internal/menu"
	"menuscan/pkg/models"
	"menuscan/pkg/services"
)

// Completer fills missing prices in place.
type Completer interface {
	Complete(ctx context.Context, items []models.ParsedItem, lines []menu.Line) ([]completion.Filled, error)
}

// Service implements services.MenuService.
type Service struct {
	analyzer  layout.Analyzer
	projector *menu.Projector
	parser    *menu.Parser
	completer Completer
	log       zerolog.Logger
}

var _ services.MenuService = (*Service)(nil)

// Option configures a Service.
type Option func(*Service)

// WithCompleter enables price completion for items left unpriced.
func WithCompleter(c Completer) Option {
	return func(s *Service) { s.completer = c }
}

// NewService creates a scanning service. A nil parser uses the default rules.
func NewService(analyzer layout.Analyzer, parser *menu.Parser, opts ...Option) *Service {
	if parser == nil {
		parser = menu.NewParser(nil)
	}
	log := logger.WithComponent("scan")
	s := &Service{
		analyzer:  analyzer,
		projector: menu.NewProjector(parser.Rules(), log),
		parser:    parser,
		log:       log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Lines runs layout analysis and returns the classified lines without
// parsing them.
func (s *Service) Lines(ctx context.Context, document io.Reader, fileName string) ([]menu.Line, error) {
	doc, err := s.analyze(ctx, document, fileName)
	if err != nil {
		return nil, err
	}
	return s.projector.Project(doc), nil
}

// ScanMenu implements services.MenuService.
func (s *Service) ScanMenu(ctx context.Context, document io.Reader, fileName string) (*services.ScanResult, error) {
	start := time.Now()
	log := s.log.With().Str("file", fileName).Logger()

	doc, err := s.analyze(ctx, document, fileName)
	if err != nil {
		return nil, err
	}

	lines := s.projector.Project(doc)
	items, stats := s.parser.Parse(lines)

	result := &services.ScanResult{
		FileName: fileName,
		Provider: s.analyzer.Name(),
		Pages:    len(doc.Pages),
		Items:    items,
		Stats:    stats,
	}

	if s.completer != nil && result.Unpriced() > 0 {
		filled, err := s.completer.Complete(ctx, items, lines)
		if err != nil {
			// Completion is best effort; the parsed items stand on their own.
			log.Warn().Err(err).Msg("Price completion failed")
		}
		for _, f := range filled {
			result.Completed = append(result.Completed, f.Name)
		}
	}

	result.ProcessedAt = time.Now()
	result.Duration = time.Since(start)

	log.Info().
		Str("provider", result.Provider).
		Int("pages", result.Pages).
		Int("lines", stats.Lines).
		Int("items", len(items)).
		Int("unpriced", result.Unpriced()).
		Int("completed", len(result.Completed)).
		Dur("duration", result.Duration).
		Msg("Menu scanned")

	return result, nil
}

func (s *Service) analyze(ctx context.Context, document io.Reader, fileName string) (*layout.Document, error) {
	const op = "analyze"

	data, err := io.ReadAll(io.LimitReader(document, layout.MaxDocumentSizeBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read %s: %w", op, fileName, err)
	}
	mimeType := layout.DetectMIMEType(data, fileName)

	s.log.Debug().
		Str("file", fileName).
		Str("mime_type", mimeType).
		Int("size", len(data)).
		Str("provider", s.analyzer.Name()).
		Msg("Running layout analysis")

	doc, err := s.analyzer.Analyze(ctx, bytes.NewReader(data), mimeType)
	if err != nil {
		return nil, err
	}
	return doc, nil
}
