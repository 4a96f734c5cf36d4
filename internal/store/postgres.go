// internal/store/postgres.go
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	kolerrors "github.com/valpere/KOLMetrics/internal/errors"
	"github.com/valpere/KOLMetrics/pkg/types"
)

// PostgresStore backs the results table with PostgreSQL, using a native
// ON CONFLICT upsert with RETURNING so the read-back rides the same
// statement.
type PostgresStore struct {
	db    *sql.DB
	table string
}

func openPostgres(ctx context.Context, cfg Config) (Store, error) {
	if cfg.DSN == "" {
		return nil, kolerrors.NewConfiguration("postgres backend requires a dsn", nil)
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, kolerrors.NewConfiguration("open postgres connection", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, kolerrors.NewConfiguration("ping postgres", err)
	}

	s := &PostgresStore{db: db, table: cfg.Table}
	if err := s.createSchema(ctx); err != nil {
		db.Close()
		return nil, kolerrors.NewConfiguration("create postgres schema", err)
	}
	return s, nil
}

func (s *PostgresStore) createSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %q (
			id BIGSERIAL PRIMARY KEY,
			platform TEXT NOT NULL,
			url TEXT NOT NULL UNIQUE,
			creator TEXT,
			campaign_id TEXT,
			posted_at TIMESTAMPTZ,
			views BIGINT NOT NULL DEFAULT 0,
			likes BIGINT NOT NULL DEFAULT 0,
			comments BIGINT NOT NULL DEFAULT 0,
			engagement_rate DOUBLE PRECISION NOT NULL DEFAULT 0.0,
			fetched_at TIMESTAMPTZ NOT NULL
		)`, s.table)
	_, err := s.db.ExecContext(ctx, query)
	return err
}

// Upsert implements Store.
func (s *PostgresStore) Upsert(ctx context.Context, result types.CanonicalResult) (types.StoredResult, error) {
	query := fmt.Sprintf(`
		INSERT INTO %q (platform, url, creator, campaign_id, posted_at,
		                views, likes, comments, engagement_rate, fetched_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (url) DO UPDATE SET
			platform = EXCLUDED.platform,
			views = EXCLUDED.views,
			likes = EXCLUDED.likes,
			comments = EXCLUDED.comments,
			engagement_rate = EXCLUDED.engagement_rate,
			fetched_at = EXCLUDED.fetched_at,
			creator = COALESCE(EXCLUDED.creator, %q.creator),
			campaign_id = COALESCE(EXCLUDED.campaign_id, %q.campaign_id),
			posted_at = COALESCE(EXCLUDED.posted_at, %q.posted_at)
		RETURNING id, platform, url, creator, campaign_id, posted_at,
		          views, likes, comments, engagement_rate, fetched_at`,
		s.table, s.table, s.table, s.table)

	row := s.db.QueryRowContext(ctx, query,
		result.Platform.String(), result.URL,
		nullString(result.Creator), nullString(result.CampaignID), nullTime(result.PostedAt),
		result.Views, result.Likes, result.Comments, result.EngagementRate, time.Now().UTC())

	stored, err := scanStoredResult(row)
	if err != nil {
		return stored, fmt.Errorf("upsert result for %s: %w", result.URL, err)
	}
	return stored, nil
}

// List implements Store.
func (s *PostgresStore) List(ctx context.Context, filter types.ResultFilter) ([]types.StoredResult, error) {
	query, args := buildListQuery(fmt.Sprintf("%q", s.table), filter, dollarPlaceholders)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	return collectStoredResults(rows)
}

// Ping implements Store.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close implements Store.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
