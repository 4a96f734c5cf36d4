// internal/store/store.go

// Package store persists canonical results keyed by URL. Every backend
// honors the same upsert contract: numeric fields and fetched_at are
// refreshed unconditionally, creator/campaign_id/posted_at only when the
// incoming value is non-empty, and each upsert is atomic with respect to
// its own read-then-write so concurrent runs cannot duplicate a URL.
package store

import (
	"context"
	"fmt"
	"strings"

	kolerrors "github.com/valpere/KOLMetrics/internal/errors"
	"github.com/valpere/KOLMetrics/pkg/types"
)

// Store is the persistence contract of the pipeline.
type Store interface {
	// Upsert inserts or updates the record for result.URL and returns
	// the resulting stored state including its identity.
	Upsert(ctx context.Context, result types.CanonicalResult) (types.StoredResult, error)

	// List returns stored results matching the filter, ordered by id.
	List(ctx context.Context, filter types.ResultFilter) ([]types.StoredResult, error)

	// Ping verifies the backend is usable.
	Ping(ctx context.Context) error

	Close() error
}

// Backend names accepted by Open.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMySQL    = "mysql"
	BackendMongoDB  = "mongodb"
	BackendMemory   = "memory"
)

// Config selects and configures a storage backend.
type Config struct {
	Backend string `yaml:"backend" json:"backend"`
	// DSN is the backend connection string: a file path for sqlite, a
	// connection URL for postgres/mysql/mongodb. Ignored by memory.
	DSN string `yaml:"dsn" json:"dsn"`
	// Table is the table (or collection) name, default "results".
	Table string `yaml:"table" json:"table"`
	// Database is the mongodb database name, default "kolmetrics".
	Database string `yaml:"database" json:"database"`
}

// Open creates the configured store. An unknown backend or unusable
// connection is a ConfigurationError: fatal, detected before any rows
// are processed.
func Open(ctx context.Context, cfg Config) (Store, error) {
	if cfg.Table == "" {
		cfg.Table = "results"
	}
	if cfg.Database == "" {
		cfg.Database = "kolmetrics"
	}

	switch strings.ToLower(cfg.Backend) {
	case BackendSQLite, "":
		return openSQLite(ctx, cfg)
	case BackendPostgres, "postgresql":
		return openPostgres(ctx, cfg)
	case BackendMySQL:
		return openMySQL(ctx, cfg)
	case BackendMongoDB, "mongo":
		return openMongo(ctx, cfg)
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, kolerrors.NewConfiguration(
			fmt.Sprintf("unknown storage backend %q", cfg.Backend), nil)
	}
}

// orderClause renders the id ordering for SQL backends.
func orderClause(order types.SortOrder) string {
	if order == types.OrderDescending {
		return "ORDER BY id DESC"
	}
	return "ORDER BY id ASC"
}
