package config

import (
	"os"
	"path/filepath"
	"testing"

	"stocksim-api/pkg/quote"
	_ "stocksim-api/pkg/quote/sources/chart"
	_ "stocksim-api/pkg/quote/sources/sim"
)

// Test_moduleConfig_envExpansion verifies that module configs expand
// environment variables correctly when loaded directly via their LoadConfig
// functions.
func Test_moduleConfig_envExpansion(t *testing.T) {
	dir := t.TempDir()

	quoteYAML := []byte(`
default: chart
sources:
  chart:
    type: chart
    base_url: ${CHART_BASE_URL}
    timeout: ${CHART_TIMEOUT}
    batch_size: 10
`)
	quotePath := filepath.Join(dir, "quote.yaml")
	if err := os.WriteFile(quotePath, quoteYAML, 0o600); err != nil {
		t.Fatalf("write quote.yaml: %v", err)
	}

	t.Setenv("CHART_BASE_URL", "https://charts.example.com/v1")
	t.Setenv("CHART_TIMEOUT", "7s")

	quoteCfg, err := quote.LoadConfig(quotePath)
	if err != nil {
		t.Fatalf("quote.LoadConfig: %v", err)
	}
	src := quoteCfg.Sources["chart"]
	if src == nil {
		t.Fatalf("quote source 'chart' missing")
	}
	if got := src.BaseURL; got != "https://charts.example.com/v1" {
		t.Fatalf("chart base_url not expanded, got %q", got)
	}
	if src.Timeout.String() != "7s" {
		t.Fatalf("chart timeout not parsed, got %s", src.Timeout)
	}
}

func TestLoad_hydratesSections(t *testing.T) {
	dir := t.TempDir()

	quoteYAML := []byte(`
default: sim
sources:
  sim:
    type: sim
`)
	if err := os.WriteFile(filepath.Join(dir, "quote.yaml"), quoteYAML, 0o600); err != nil {
		t.Fatalf("write quote.yaml: %v", err)
	}

	calendarYAML := []byte(`
timezone: Asia/Kolkata
open: "09:15"
close: "15:30"
`)
	if err := os.WriteFile(filepath.Join(dir, "calendar.yaml"), calendarYAML, 0o600); err != nil {
		t.Fatalf("write calendar.yaml: %v", err)
	}

	refresherYAML := []byte(`
open_interval_seconds: 20
major_symbols: [TCS.NS]
`)
	if err := os.WriteFile(filepath.Join(dir, "refresher.yaml"), refresherYAML, 0o600); err != nil {
		t.Fatalf("write refresher.yaml: %v", err)
	}

	mainYAML := []byte(`
Name: stocksim-test
Host: 127.0.0.1
Port: 0
TTL:
  Short: 30
  Medium: 60
  Long: 300
Quote:
  File: quote.yaml
Calendar:
  File: calendar.yaml
Refresher:
  File: refresher.yaml
`)
	mainPath := filepath.Join(dir, "stocksim.yaml")
	if err := os.WriteFile(mainPath, mainYAML, 0o600); err != nil {
		t.Fatalf("write main config: %v", err)
	}

	cfg, err := Load(mainPath)
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}

	if !cfg.IsTestEnv() {
		t.Fatalf("env should default to test")
	}
	if cfg.Quote.Value == nil || cfg.Quote.Value.Default != "sim" {
		t.Fatalf("quote section not hydrated: %+v", cfg.Quote.Value)
	}
	if cfg.Calendar.Value == nil || cfg.Calendar.Value.Timezone != "Asia/Kolkata" {
		t.Fatalf("calendar section not hydrated: %+v", cfg.Calendar.Value)
	}
	if cfg.Refresher.Value == nil || cfg.Refresher.Value.OpenIntervalSeconds != 20 {
		t.Fatalf("refresher section not hydrated: %+v", cfg.Refresher.Value)
	}
}

func TestValidate_TTLBounds(t *testing.T) {
	cfg := &Config{}
	cfg.TTL.Short = 0
	cfg.TTL.Medium = 60
	cfg.TTL.Long = 300
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected ttl.short validation error")
	}
}

func TestValidate_Env(t *testing.T) {
	cfg := &Config{}
	cfg.Env = "staging"
	cfg.TTL = CacheTTL{Short: 30, Medium: 60, Long: 300}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected env validation error")
	}
}
