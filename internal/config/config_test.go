package config

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func setEnv(t *testing.T, env map[string]string) {
	t.Helper()
	for _, key := range []string{
		"LAYOUT_PROVIDER", "LAYOUT_TIMEOUT_SECONDS", "GOOGLE_CLOUD_PROJECT", "GOOGLE_CLOUD_LOCATION",
		"DOCUMENT_AI_PROCESSOR_ID", "DOCUMENT_AI_PROCESSOR_VERSION", "TESSERACT_LANGUAGES",
		"MENU_RULES_FILE", "PRICE_STRATEGY", "BATCH_WORKERS", "GOOGLE_SHEET_URL",
		"GOOGLE_SHEET_WORKSHEET", "OPENAI_API_KEY", "OPENAI_MODEL",
	} {
		t.Setenv(key, "")
	}
	for k, v := range env {
		t.Setenv(k, v)
	}
}

func TestLoadDocumentAI(t *testing.T) {
	setEnv(t, map[string]string{
		"GOOGLE_CLOUD_PROJECT":     "menus-prod",
		"DOCUMENT_AI_PROCESSOR_ID": "abc123",
		"GOOGLE_CLOUD_LOCATION":    "eu",
		"LAYOUT_TIMEOUT_SECONDS":   "30",
	})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LayoutProvider != "documentai" || cfg.BatchWorkers != 4 || cfg.GoogleSheetWorksheet != "Menu" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if cfg.SheetsEnabled() || cfg.CompletionEnabled() {
		t.Error("optional integrations should be disabled")
	}

	lc := cfg.GetLayoutConfig()
	if lc.ProjectID != "menus-prod" || lc.Location != "eu" || lc.ProcessorID != "abc123" || lc.Timeout != 30*time.Second {
		t.Errorf("layout config = %+v", lc)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"documentai needs project", map[string]string{"DOCUMENT_AI_PROCESSOR_ID": "x"}, "GOOGLE_CLOUD_PROJECT"},
		{"documentai needs processor", map[string]string{"GOOGLE_CLOUD_PROJECT": "p"}, "DOCUMENT_AI_PROCESSOR_ID"},
		{"unknown provider", map[string]string{"LAYOUT_PROVIDER": "azure"}, "LAYOUT_PROVIDER"},
		{"bad workers", map[string]string{"LAYOUT_PROVIDER": "vision", "BATCH_WORKERS": "many"}, "BATCH_WORKERS"},
		{"bad strategy", map[string]string{"LAYOUT_PROVIDER": "vision", "PRICE_STRATEGY": "best"}, "PRICE_STRATEGY"},
		{"bad timeout", map[string]string{"LAYOUT_PROVIDER": "vision", "LAYOUT_TIMEOUT_SECONDS": "0"}, "LAYOUT_TIMEOUT_SECONDS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setEnv(t, tt.env)
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load error = %v, want mention of %s", err, tt.want)
			}
		})
	}
}

func TestLoadTesseract(t *testing.T) {
	setEnv(t, map[string]string{
		"LAYOUT_PROVIDER":     "Tesseract",
		"TESSERACT_LANGUAGES": "eng+ita, fra",
		"PRICE_STRATEGY":      "optimal",
	})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cfg.GetLayoutConfig().TesseractLanguages; !reflect.DeepEqual(got, []string{"eng", "ita", "fra"}) {
		t.Errorf("languages = %v", got)
	}
}

func TestLoggerConfigFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_OUTPUT", "")

	lc := LoggerConfigFromEnv()
	if lc.Level != "debug" || lc.Format != "json" || lc.Output != "stderr" {
		t.Errorf("LoggerConfigFromEnv = %+v", lc)
	}
}
