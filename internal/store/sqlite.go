// internal/store/sqlite.go
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	kolerrors "github.com/valpere/KOLMetrics/internal/errors"
	"github.com/valpere/KOLMetrics/pkg/types"
)

// SQLiteStore is the default backend: a single local file, matching the
// deployment scale of weekly batch runs.
type SQLiteStore struct {
	db    *sql.DB
	table string
}

func openSQLite(ctx context.Context, cfg Config) (Store, error) {
	path := cfg.DSN
	if path == "" {
		path = "kol_results.sqlite3"
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, kolerrors.NewConfiguration("create database directory", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, kolerrors.NewConfiguration("open sqlite database", err)
	}

	// SQLite works best with a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, kolerrors.NewConfiguration("ping sqlite database", err)
	}

	s := &SQLiteStore{db: db, table: cfg.Table}
	if err := s.createSchema(ctx); err != nil {
		db.Close()
		return nil, kolerrors.NewConfiguration("create sqlite schema", err)
	}
	return s, nil
}

func (s *SQLiteStore) createSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS [%s] (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			platform TEXT NOT NULL,
			url TEXT NOT NULL UNIQUE,
			creator TEXT,
			campaign_id TEXT,
			posted_at DATETIME,
			views INTEGER NOT NULL DEFAULT 0,
			likes INTEGER NOT NULL DEFAULT 0,
			comments INTEGER NOT NULL DEFAULT 0,
			engagement_rate REAL NOT NULL DEFAULT 0.0,
			fetched_at DATETIME NOT NULL
		)`, s.table)
	_, err := s.db.ExecContext(ctx, query)
	return err
}

// Upsert implements Store. The conflict clause makes the read-then-write
// a single atomic statement; empty metadata coalesces to NULL on the way
// in so the existing value survives transient empty responses.
func (s *SQLiteStore) Upsert(ctx context.Context, result types.CanonicalResult) (types.StoredResult, error) {
	var stored types.StoredResult

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return stored, fmt.Errorf("begin upsert transaction: %w", err)
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`
		INSERT INTO [%s] (platform, url, creator, campaign_id, posted_at,
		                  views, likes, comments, engagement_rate, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			platform = excluded.platform,
			views = excluded.views,
			likes = excluded.likes,
			comments = excluded.comments,
			engagement_rate = excluded.engagement_rate,
			fetched_at = excluded.fetched_at,
			creator = COALESCE(excluded.creator, creator),
			campaign_id = COALESCE(excluded.campaign_id, campaign_id),
			posted_at = COALESCE(excluded.posted_at, posted_at)`, s.table)

	fetchedAt := time.Now().UTC()
	_, err = tx.ExecContext(ctx, query,
		result.Platform.String(), result.URL,
		nullString(result.Creator), nullString(result.CampaignID), nullTime(result.PostedAt),
		result.Views, result.Likes, result.Comments, result.EngagementRate, fetchedAt)
	if err != nil {
		return stored, fmt.Errorf("upsert result for %s: %w", result.URL, err)
	}

	row := tx.QueryRowContext(ctx, fmt.Sprintf(
		`SELECT id, platform, url, creator, campaign_id, posted_at,
		        views, likes, comments, engagement_rate, fetched_at
		 FROM [%s] WHERE url = ?`, s.table), result.URL)
	stored, err = scanStoredResult(row)
	if err != nil {
		return stored, fmt.Errorf("read back upserted row for %s: %w", result.URL, err)
	}

	if err := tx.Commit(); err != nil {
		return stored, fmt.Errorf("commit upsert: %w", err)
	}
	return stored, nil
}

// List implements Store.
func (s *SQLiteStore) List(ctx context.Context, filter types.ResultFilter) ([]types.StoredResult, error) {
	query, args := buildListQuery(fmt.Sprintf("[%s]", s.table), filter, questionPlaceholders)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	return collectStoredResults(rows)
}

// Ping implements Store.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
