// internal/config/config.go
package config

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	kolerrors "github.com/valpere/KOLMetrics/internal/errors"
	"github.com/valpere/KOLMetrics/internal/fetch"
	"github.com/valpere/KOLMetrics/internal/output"
	"github.com/valpere/KOLMetrics/internal/store"
)

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(filename string) (*Config, error) {
	if filename == "" {
		return nil, kolerrors.NewConfiguration("configuration filename cannot be empty", nil)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, kolerrors.NewConfiguration(
			fmt.Sprintf("read configuration file %s", filename), err)
	}

	return LoadFromBytes(data)
}

// LoadFromBytes loads configuration from YAML bytes. Environment
// variable references (${VAR} or $VAR) are substituted before parsing.
func LoadFromBytes(data []byte) (*Config, error) {
	if len(data) == 0 {
		return nil, kolerrors.NewConfiguration("configuration data cannot be empty", nil)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, kolerrors.NewConfiguration("parse YAML configuration", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadFromReader loads configuration from an io.Reader.
func LoadFromReader(reader io.Reader) (*Config, error) {
	if reader == nil {
		return nil, kolerrors.NewConfiguration("reader cannot be nil", nil)
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, kolerrors.NewConfiguration("read configuration", err)
	}

	return LoadFromBytes(data)
}

// applyDefaults fills in the values the file may leave out.
func applyDefaults(cfg *Config) {
	if cfg.YouTube.Endpoint == "" {
		cfg.YouTube.Endpoint = fetch.DefaultYouTubeEndpoint
	}
	if cfg.YouTube.BatchSize == 0 {
		cfg.YouTube.BatchSize = fetch.MaxBatchSize
	}

	if cfg.Fetch.Timeout == 0 {
		cfg.Fetch.Timeout = Duration(15 * time.Second)
	}
	if cfg.Fetch.MaxRetries == 0 {
		cfg.Fetch.MaxRetries = 2
	}
	if cfg.Fetch.RateLimit == 0 {
		cfg.Fetch.RateLimit = 1.0
	}
	if cfg.Fetch.RateBurst == 0 {
		cfg.Fetch.RateBurst = 5
	}

	if cfg.Browser.Timeout == 0 {
		cfg.Browser.Timeout = Duration(30 * time.Second)
	}
	if cfg.Browser.WaitDelay == 0 {
		cfg.Browser.WaitDelay = Duration(2 * time.Second)
	}

	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = store.BackendSQLite
	}
	if cfg.Storage.Table == "" {
		cfg.Storage.Table = "results"
	}

	if cfg.Output.Format == "" {
		cfg.Output.Format = string(output.FormatCSV)
	}

	if cfg.Server.Listen == "" {
		cfg.Server.Listen = ":8080"
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = "kolmetrics"
	}
}

// knownBackends matches the store.Open dispatch.
var knownBackends = []string{
	store.BackendSQLite, store.BackendPostgres, "postgresql",
	store.BackendMySQL, store.BackendMongoDB, "mongo", store.BackendMemory,
}

// Validate rejects configurations the pipeline cannot run with. All
// failures are ConfigurationError: fatal before any rows are processed.
func (cfg *Config) Validate() error {
	if cfg.YouTube.APIKey != "" {
		if err := fetch.ValidateCredential(cfg.YouTube.APIKey); err != nil {
			return err
		}
	}
	if cfg.YouTube.BatchSize < 0 {
		return kolerrors.NewConfiguration("youtube.batch_size cannot be negative", nil)
	}

	if cfg.Fetch.Timeout < 0 {
		return kolerrors.NewConfiguration("fetch.timeout cannot be negative", nil)
	}
	if cfg.Fetch.MaxRetries < 0 {
		return kolerrors.NewConfiguration("fetch.max_retries cannot be negative", nil)
	}
	if cfg.Fetch.RateLimit < 0 {
		return kolerrors.NewConfiguration("fetch.rate_limit cannot be negative", nil)
	}

	backend := strings.ToLower(cfg.Storage.Backend)
	known := false
	for _, b := range knownBackends {
		if backend == b {
			known = true
			break
		}
	}
	if !known {
		return kolerrors.NewConfiguration(
			fmt.Sprintf("unknown storage backend %q", cfg.Storage.Backend), nil)
	}

	if _, err := output.ParseFormat(cfg.Output.Format); err != nil {
		return kolerrors.NewConfiguration("output.format", err)
	}

	return nil
}

// BrowserHeadless resolves the headless flag, defaulting to true.
func (cfg *Config) BrowserHeadless() bool {
	if cfg.Browser.Headless == nil {
		return true
	}
	return *cfg.Browser.Headless
}
