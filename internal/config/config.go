package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"menuscan/internal/layout"
	"menuscan/internal/logger"
)

type Config struct {
	// Layout Analysis Configuration
	LayoutProvider             string
	LayoutTimeoutSeconds       int
	GoogleCloudProject         string
	GoogleCloudLocation        string
	DocumentAIProcessorID      string
	DocumentAIProcessorVersion string
	TesseractLanguages         string

	// Parser Configuration
	MenuRulesFile string
	PriceStrategy string
	BatchWorkers  int

	// Google Sheets Configuration
	GoogleSheetURL       string
	GoogleSheetWorksheet string

	// OpenAI Configuration (optional price completion)
	OpenAIAPIKey string
	OpenAIModel  string

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	logConfig := LoggerConfigFromEnv()
	config := &Config{
		LayoutProvider:             strings.ToLower(getEnv("LAYOUT_PROVIDER", layout.ProviderDocumentAI)),
		LayoutTimeoutSeconds:       getEnvInt("LAYOUT_TIMEOUT_SECONDS", 60),
		GoogleCloudProject:         getEnv("GOOGLE_CLOUD_PROJECT", ""),
		GoogleCloudLocation:        getEnv("GOOGLE_CLOUD_LOCATION", "us"),
		DocumentAIProcessorID:      getEnv("DOCUMENT_AI_PROCESSOR_ID", ""),
		DocumentAIProcessorVersion: getEnv("DOCUMENT_AI_PROCESSOR_VERSION", ""),
		TesseractLanguages:         getEnv("TESSERACT_LANGUAGES", "eng"),
		MenuRulesFile:              getEnv("MENU_RULES_FILE", ""),
		PriceStrategy:              getEnv("PRICE_STRATEGY", "greedy"),
		BatchWorkers:               getEnvInt("BATCH_WORKERS", 4),
		GoogleSheetURL:             getEnv("GOOGLE_SHEET_URL", ""),
		GoogleSheetWorksheet:       getEnv("GOOGLE_SHEET_WORKSHEET", "Menu"),
		OpenAIAPIKey:               getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:                getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		LogLevel:                   logConfig.Level,
		LogFormat:                  logConfig.Format,
		LogTimeFormat:              logConfig.TimeFormat,
		LogOutput:                  logConfig.Output,
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	switch c.LayoutProvider {
	case layout.ProviderDocumentAI:
		if c.GoogleCloudProject == "" {
			return fmt.Errorf("GOOGLE_CLOUD_PROJECT is required for the documentai provider")
		}
		if c.DocumentAIProcessorID == "" {
			return fmt.Errorf("DOCUMENT_AI_PROCESSOR_ID is required for the documentai provider")
		}
	case layout.ProviderVision, layout.ProviderTesseract:
	default:
		return fmt.Errorf("LAYOUT_PROVIDER must be one of documentai, vision, tesseract (got %q)", c.LayoutProvider)
	}
	if c.LayoutTimeoutSeconds <= 0 {
		return fmt.Errorf("LAYOUT_TIMEOUT_SECONDS must be positive")
	}
	if c.BatchWorkers <= 0 {
		return fmt.Errorf("BATCH_WORKERS must be positive")
	}
	switch strings.ToLower(c.PriceStrategy) {
	case "greedy", "optimal":
	default:
		return fmt.Errorf("PRICE_STRATEGY must be greedy or optimal (got %q)", c.PriceStrategy)
	}
	return nil
}

// SheetsEnabled reports whether a Google Sheet is configured for export.
func (c *Config) SheetsEnabled() bool {
	return c.GoogleSheetURL != ""
}

// CompletionEnabled reports whether ChatGPT price completion can be used.
func (c *Config) CompletionEnabled() bool {
	return c.OpenAIAPIKey != ""
}

// LoggerConfigFromEnv reads the logging settings alone, so logging can be
// set up even when the rest of the configuration is invalid.
func LoggerConfigFromEnv() logger.LogConfig {
	return logger.LogConfig{
		Level:      getEnv("LOG_LEVEL", "info"),
		Format:     getEnv("LOG_FORMAT", "console"),
		TimeFormat: getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		Output:     getEnv("LOG_OUTPUT", "stderr"),
	}
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

// GetLayoutConfig returns the layout analyzer configuration
func (c *Config) GetLayoutConfig() layout.Config {
	return layout.Config{
		Provider:           c.LayoutProvider,
		ProjectID:          c.GoogleCloudProject,
		Location:           c.GoogleCloudLocation,
		ProcessorID:        c.DocumentAIProcessorID,
		ProcessorVersion:   c.DocumentAIProcessorVersion,
		Timeout:            time.Duration(c.LayoutTimeoutSeconds) * time.Second,
		TesseractLanguages: splitList(c.TesseractLanguages),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		return -1
	}
	return defaultValue
}

func splitList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '+' || r == ' ' })
}
