package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestSetupJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "menuscan.log")
	if err := Setup(LogConfig{Level: "debug", Format: "json", Output: path}); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	log := WithFile("parser", "menu.pdf")
	log.Debug().Int("items", 3).Msg("Menu parsed")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(data))), &entry); err != nil {
		t.Fatalf("log line is not JSON: %q", data)
	}
	if entry["component"] != "parser" || entry["file"] != "menu.pdf" || entry["message"] != "Menu parsed" {
		t.Errorf("entry = %v", entry)
	}
}

func TestSetupInvalidLevel(t *testing.T) {
	if err := Setup(LogConfig{Level: "loud"}); err == nil {
		t.Error("expected error for unknown level")
	}
}
