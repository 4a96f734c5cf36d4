// internal/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	kolerrors "github.com/valpere/KOLMetrics/internal/errors"
	"github.com/valpere/KOLMetrics/internal/fetch"
)

func TestLoadFromBytesAppliesDefaults(t *testing.T) {
	cfg, err := LoadFromBytes([]byte("input:\n  file: links.csv\n"))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Fetch.Timeout.Std() != 15*time.Second {
		t.Errorf("default fetch timeout = %v", cfg.Fetch.Timeout.Std())
	}
	if cfg.YouTube.Endpoint != fetch.DefaultYouTubeEndpoint {
		t.Errorf("default youtube endpoint = %q", cfg.YouTube.Endpoint)
	}
	if cfg.YouTube.BatchSize != fetch.MaxBatchSize {
		t.Errorf("default batch size = %d", cfg.YouTube.BatchSize)
	}
	if cfg.Storage.Backend != "sqlite" || cfg.Storage.Table != "results" {
		t.Errorf("default storage = %+v", cfg.Storage)
	}
	if cfg.Output.Format != "csv" {
		t.Errorf("default output format = %q", cfg.Output.Format)
	}
	if cfg.Server.Listen != ":8080" {
		t.Errorf("default listen = %q", cfg.Server.Listen)
	}
	if !cfg.BrowserHeadless() {
		t.Error("browser should default to headless")
	}
}

func TestLoadFromBytesParsesDurations(t *testing.T) {
	yaml := `
fetch:
  timeout: 45s
browser:
  timeout: 1m
  wait_delay: 500ms
`
	cfg, err := LoadFromBytes([]byte(yaml))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Fetch.Timeout.Std() != 45*time.Second {
		t.Errorf("fetch timeout = %v", cfg.Fetch.Timeout.Std())
	}
	if cfg.Browser.Timeout.Std() != time.Minute {
		t.Errorf("browser timeout = %v", cfg.Browser.Timeout.Std())
	}
	if cfg.Browser.WaitDelay.Std() != 500*time.Millisecond {
		t.Errorf("wait delay = %v", cfg.Browser.WaitDelay.Std())
	}
}

func TestLoadFromBytesExpandsEnvironment(t *testing.T) {
	os.Setenv("KOLMETRICS_TEST_KEY", "api-key-from-env")
	defer os.Unsetenv("KOLMETRICS_TEST_KEY")

	cfg, err := LoadFromBytes([]byte("youtube:\n  api_key: \"${KOLMETRICS_TEST_KEY}\"\n"))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.YouTube.APIKey != "api-key-from-env" {
		t.Errorf("api key = %q", cfg.YouTube.APIKey)
	}
}

func TestLoadFromBytesRejectsMalformedCredential(t *testing.T) {
	_, err := LoadFromBytes([]byte("youtube:\n  api_key: \"key with spaces\"\n"))
	if err == nil {
		t.Fatal("expected an error for malformed credential")
	}
	if !kolerrors.IsConfiguration(err) {
		t.Errorf("expected a configuration error, got %v", err)
	}
}

func TestLoadFromBytesRejectsUnknownBackend(t *testing.T) {
	_, err := LoadFromBytes([]byte("storage:\n  backend: cassandra\n"))
	if err == nil {
		t.Fatal("expected an error for unknown backend")
	}
	if !kolerrors.IsConfiguration(err) {
		t.Errorf("expected a configuration error, got %v", err)
	}
}

func TestLoadFromBytesRejectsUnknownOutputFormat(t *testing.T) {
	_, err := LoadFromBytes([]byte("output:\n  format: parquet\n"))
	if err == nil {
		t.Fatal("expected an error for unknown output format")
	}
}

func TestLoadFromBytesRejectsEmptyAndInvalid(t *testing.T) {
	if _, err := LoadFromBytes(nil); err == nil {
		t.Error("expected an error for empty data")
	}
	if _, err := LoadFromBytes([]byte("{unbalanced")); err == nil {
		t.Error("expected an error for invalid yaml")
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "storage:\n  backend: memory\noutput:\n  format: json\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Storage.Backend != "memory" || cfg.Output.Format != "json" {
		t.Errorf("loaded config mismatch: %+v", cfg)
	}

	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestGenerateTemplateIsLoadable(t *testing.T) {
	os.Setenv("YOUTUBE_API_KEY", "template-test-key")
	defer os.Unsetenv("YOUTUBE_API_KEY")

	cfg, err := LoadFromBytes([]byte(GenerateTemplate()))
	if err != nil {
		t.Fatalf("template must load cleanly: %v", err)
	}
	if cfg.Input.File != "kol_links.xlsx" {
		t.Errorf("template input file = %q", cfg.Input.File)
	}
	if cfg.YouTube.APIKey != "template-test-key" {
		t.Errorf("template api key not expanded: %q", cfg.YouTube.APIKey)
	}
}
