package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"menuscan/internal/completion"
	"menuscan/internal/config"
	"menuscan/internal/layout"
	"menuscan/internal/logger"
	"menuscan/internal/menu"
	"menuscan/internal/scan"
)

// Output formats
const (
	formatAuto  = "auto"
	formatJSON  = "json"
	formatTable = "table"
)

// resolveFormat picks JSON or table output. Auto means a table on a
// terminal and JSON everywhere else.
func resolveFormat(format string, out io.Writer) (string, error) {
	switch strings.ToLower(format) {
	case "", formatAuto:
		if isTerminal(out) {
			return formatTable, nil
		}
		return formatJSON, nil
	case formatJSON:
		return formatJSON, nil
	case formatTable:
		return formatTable, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want auto, json or table)", format)
	}
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// writeJSON writes v as indented JSON followed by a newline.
func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to create JSON output: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// outputWriter returns the file named by path, or fallback when path is empty.
func outputWriter(path string, fallback io.Writer) (io.Writer, func() error, error) {
	if path == "" {
		return fallback, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}

// loadMenuRules loads the rules named by --rules or MENU_RULES_FILE.
func loadMenuRules(cmd *cobra.Command) (*menu.Rules, error) {
	path, _ := cmd.Flags().GetString("rules")
	if path == "" {
		path = os.Getenv("MENU_RULES_FILE")
	}
	if path == "" {
		return menu.DefaultRules(), nil
	}
	rules, err := menu.LoadRules(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load menu rules: %w", err)
	}
	return rules, nil
}

// createScanContext creates a context with timeout and signal handling
func createScanContext(timeout time.Duration, log zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling menu processing")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// validateMenuFile checks that path is a readable, non-empty document of
// acceptable size.
func validateMenuFile(path string, log zerolog.Logger) (os.FileInfo, error) {
	fileInfo, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Error().Str("file", path).Msg("Menu file not found")
			return nil, fmt.Errorf("menu file not found: %s", path)
		}
		if os.IsPermission(err) {
			log.Error().Str("file", path).Msg("Permission denied accessing menu file")
			return nil, fmt.Errorf("permission denied accessing menu file: %s", path)
		}
		return nil, fmt.Errorf("error accessing menu file: %w", err)
	}

	if !fileInfo.Mode().IsRegular() {
		return nil, fmt.Errorf("path is not a regular file: %s", path)
	}
	if fileInfo.Size() == 0 {
		return nil, fmt.Errorf("menu file is empty: %s", path)
	}
	if fileInfo.Size() > layout.MaxDocumentSizeBytes {
		log.Error().
			Str("file", path).
			Int64("size", fileInfo.Size()).
			Int64("max_size", layout.MaxDocumentSizeBytes).
			Msg("Menu file exceeds maximum size limit")
		return nil, fmt.Errorf("menu file too large (%d bytes). Maximum size is %d bytes (20MB)",
			fileInfo.Size(), layout.MaxDocumentSizeBytes)
	}
	return fileInfo, nil
}

// scanSetup holds what a scanning command needs.
type scanSetup struct {
	config   *config.Config
	rules    *menu.Rules
	analyzer layout.Analyzer
	service  *scan.Service
}

func (s *scanSetup) Close() {
	if err := layout.Close(s.analyzer); err != nil {
		log := logger.WithComponent("cmd")
		log.Warn().Err(err).Msg("Failed to close layout client")
	}
}

// newScanSetup loads configuration and rules and builds the scanning
// service. Completion is attached when withCompletion is set.
func newScanSetup(ctx context.Context, cmd *cobra.Command, withCompletion bool, log zerolog.Logger) (*scanSetup, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	rules, err := loadMenuRules(cmd)
	if err != nil {
		return nil, err
	}

	strategyName := cfg.PriceStrategy
	if cmd.Flags().Lookup("strategy") != nil && cmd.Flags().Changed("strategy") {
		strategyName, _ = cmd.Flags().GetString("strategy")
	}
	strategy, err := menu.ParseStrategy(strategyName)
	if err != nil {
		return nil, err
	}

	analyzer, err := createAnalyzer(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	parser := menu.NewParser(rules,
		menu.WithStrategy(strategy),
		menu.WithLogger(logger.WithComponent("parser")),
	)

	var opts []scan.Option
	if withCompletion {
		completer, err := completion.NewChatGPTCompleter(completion.Config{
			APIKey:      cfg.OpenAIAPIKey,
			Model:       cfg.OpenAIModel,
			Temperature: completion.DefaultConfig().Temperature,
			MaxRetries:  completion.DefaultConfig().MaxRetries,
		}, rules)
		if err != nil {
			_ = layout.Close(analyzer)
			return nil, fmt.Errorf("price completion unavailable: %w", err)
		}
		opts = append(opts, scan.WithCompleter(completer))
	}

	return &scanSetup{
		config:   cfg,
		rules:    rules,
		analyzer: analyzer,
		service:  scan.NewService(analyzer, parser, opts...),
	}, nil
}

// createAnalyzer creates the configured layout analyzer
func createAnalyzer(ctx context.Context, cfg *config.Config, log zerolog.Logger) (layout.Analyzer, error) {
	analyzer, err := layout.NewAnalyzer(ctx, cfg.GetLayoutConfig())
	if err != nil {
		if errors.Is(err, layout.ErrMissingCredentials) {
			log.Error().Err(err).Msg("Google Cloud credentials not configured")
			return nil, fmt.Errorf("missing Google Cloud credentials. Please set one of:\n"+
				"  GOOGLE_APPLICATION_CREDENTIALS=/path/to/service-account-key.json\n"+
				"  GOOGLE_CREDENTIALS='<json-credentials>'\n"+
				"Original error: %w", err)
		}
		if errors.Is(err, layout.ErrInvalidConfiguration) {
			log.Error().Err(err).Msg("Layout provider configuration invalid")
			return nil, fmt.Errorf("invalid layout provider configuration. Please check your .env file:\n"+
				"  LAYOUT_PROVIDER - documentai, vision or tesseract\n"+
				"  GOOGLE_CLOUD_PROJECT - your Google Cloud project ID\n"+
				"  GOOGLE_CLOUD_LOCATION - processing location (us, eu, etc.)\n"+
				"  DOCUMENT_AI_PROCESSOR_ID - your Document AI OCR processor ID\n"+
				"Original error: %w", err)
		}
		log.Error().Err(err).Msg("Failed to create layout analyzer")
		return nil, fmt.Errorf("failed to create layout analyzer: %w", err)
	}

	log.Debug().Str("provider", analyzer.Name()).Msg("Layout analyzer created")
	return analyzer, nil
}

// handleScanError provides user-friendly error messages for scan failures
func handleScanError(err error, log zerolog.Logger) error {
	log.Error().Err(err).Msg("Menu processing failed")

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("menu processing timed out. Try increasing --timeout or LAYOUT_TIMEOUT_SECONDS")
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("menu processing was canceled")
	case errors.Is(err, layout.ErrEmptyDocument):
		return fmt.Errorf("menu file is empty")
	case errors.Is(err, layout.ErrDocumentTooLarge):
		return fmt.Errorf("menu file is too large (maximum 20MB). Try compressing or splitting the file")
	case errors.Is(err, layout.ErrUnsupportedFormat):
		return fmt.Errorf("unsupported menu format. Use PDF, TIFF, GIF, PNG, JPEG, BMP or WEBP: %w", err)
	case errors.Is(err, layout.ErrProcessorNotFound):
		return fmt.Errorf("Document AI processor not found. Please check DOCUMENT_AI_PROCESSOR_ID")
	case errors.Is(err, layout.ErrInvalidCredentials):
		return fmt.Errorf("Google Cloud authentication failed. Please check your credentials and that the service account may call the layout API: %w", err)
	case errors.Is(err, layout.ErrQuotaExceeded):
		return fmt.Errorf("layout service quota exceeded. Check your project quotas in Google Cloud Console")
	case errors.Is(err, layout.ErrServiceUnavailable):
		return fmt.Errorf("layout analysis failed. This may be due to network issues or service unavailability: %w", err)
	default:
		return fmt.Errorf("menu processing failed: %w", err)
	}
}
