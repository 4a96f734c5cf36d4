// internal/config/types.go

// Package config loads and validates the pipeline configuration from
// YAML, with ${ENV} expansion so credentials stay out of the file.
package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/valpere/KOLMetrics/internal/store"
)

// Duration accepts both "15s" strings and integer nanoseconds in YAML.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}

	var n int64
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("invalid duration value %q", value.Value)
	}
	*d = Duration(n)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std converts to the standard library type.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the root configuration document.
type Config struct {
	Input   InputConfig   `yaml:"input"`
	YouTube YouTubeConfig `yaml:"youtube"`
	Fetch   FetchConfig   `yaml:"fetch"`
	Browser BrowserConfig `yaml:"browser"`
	Storage store.Config  `yaml:"storage"`
	Output  OutputConfig  `yaml:"output"`
	Server  ServerConfig  `yaml:"server"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// InputConfig locates the weekly link sheet.
type InputConfig struct {
	File string `yaml:"file"`
	// Charset names the CSV encoding, default UTF-8.
	Charset string `yaml:"charset"`
}

// YouTubeConfig carries the optional Data API credential. An empty
// APIKey disables the batch path; rows fall back to page scraping.
type YouTubeConfig struct {
	APIKey    string `yaml:"api_key"`
	Endpoint  string `yaml:"endpoint"`
	BatchSize int    `yaml:"batch_size"`
}

// FetchConfig tunes the shared HTTP client.
type FetchConfig struct {
	Timeout    Duration          `yaml:"timeout"`
	MaxRetries int               `yaml:"max_retries"`
	RateLimit  float64           `yaml:"rate_limit"`
	RateBurst  int               `yaml:"rate_burst"`
	UserAgents []string          `yaml:"user_agents"`
	Headers    map[string]string `yaml:"headers"`
}

// BrowserConfig enables rendered-page fetching for JS-heavy platforms.
type BrowserConfig struct {
	Enabled   bool     `yaml:"enabled"`
	Headless  *bool    `yaml:"headless"`
	Timeout   Duration `yaml:"timeout"`
	WaitFor   string   `yaml:"wait_for"`
	WaitDelay Duration `yaml:"wait_delay"`
	UserAgent string   `yaml:"user_agent"`
}

// OutputConfig sets the default export target for CLI runs.
type OutputConfig struct {
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// ServerConfig is the results API listen address.
type ServerConfig struct {
	Listen string `yaml:"listen"`
}

// MetricsConfig controls the Prometheus exposure.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
}
