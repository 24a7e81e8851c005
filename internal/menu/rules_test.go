package menu

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeRules(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadRulesOverlay(t *testing.T) {
	path := writeRules(t, `
tags = ["V", "VE", "GF", "KETO"]
titles = ["CHEZ\\s+NOUS"]

[thresholds]
price_y_threshold = 0.05
`)

	r, err := LoadRules(path)
	if err != nil {
		t.Fatalf("LoadRules: %v", err)
	}
	if !r.IsTag("keto") || r.IsTag("DF") {
		t.Errorf("tags = %v", r.RuleSet().Tags)
	}
	if !r.IsTitle("Chez Nous") || r.IsTitle("ROSSONERO") {
		t.Error("titles not replaced")
	}
	th := r.Thresholds()
	if th.PriceYThreshold != 0.05 {
		t.Errorf("PriceYThreshold = %v, want 0.05", th.PriceYThreshold)
	}
	if th.FooterNumberMax != 5 || th.TitleBand != 0.12 {
		t.Errorf("untouched thresholds changed: %+v", th)
	}
	if !r.IsHeader("STARTERS") {
		t.Error("default headers lost")
	}
}

func TestLoadRulesErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown key", "colour = \"red\"\n"},
		{"bad pattern", "headers = [\"MAINS(\"]\n"},
		{"no headers", "headers = []\n"},
		{"bad threshold", "[thresholds]\nprice_y_threshold = 0\n"},
		{"not toml", "headers = [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadRules(writeRules(t, tt.content))
			if !errors.Is(err, ErrInvalidRules) {
				t.Errorf("LoadRules error = %v, want ErrInvalidRules", err)
			}
		})
	}

	if _, err := LoadRules(filepath.Join(t.TempDir(), "missing.toml")); err == nil || errors.Is(err, ErrInvalidRules) {
		t.Errorf("missing file error = %v", err)
	}
}

func TestEncodeTOMLLoadsBack(t *testing.T) {
	data, err := DefaultRuleSet().EncodeTOML()
	if err != nil {
		t.Fatalf("EncodeTOML: %v", err)
	}
	if !strings.Contains(string(data), "[thresholds]") || !strings.Contains(string(data), "[[garnishes]]") {
		t.Errorf("unexpected TOML:\n%s", data)
	}

	r, err := LoadRules(writeRules(t, string(data)))
	if err != nil {
		t.Fatalf("LoadRules: %v", err)
	}
	if got, want := len(r.RuleSet().Headers), len(DefaultRuleSet().Headers); got != want {
		t.Errorf("headers = %d, want %d", got, want)
	}
	if got := r.Normalize("Tiramisu ☕"); got != "Tiramisu" {
		t.Errorf("Normalize = %q", got)
	}
}

func TestRuleSetCopy(t *testing.T) {
	r := DefaultRules()
	set := r.RuleSet()
	set.Tags[0] = "CHANGED"
	if r.IsTag("CHANGED") || r.RuleSet().Tags[0] == "CHANGED" {
		t.Error("RuleSet shares storage with the compiled rules")
	}
}
