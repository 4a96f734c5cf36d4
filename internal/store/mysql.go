// internal/store/mysql.go
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver

	kolerrors "github.com/valpere/KOLMetrics/internal/errors"
	"github.com/valpere/KOLMetrics/pkg/types"
)

// MySQLStore backs the results table with MySQL. The upsert uses ON
// DUPLICATE KEY UPDATE; MySQL has no RETURNING, so the read-back runs in
// the same transaction.
type MySQLStore struct {
	db    *sql.DB
	table string
}

func openMySQL(ctx context.Context, cfg Config) (Store, error) {
	if cfg.DSN == "" {
		return nil, kolerrors.NewConfiguration("mysql backend requires a dsn", nil)
	}

	// DATETIME columns must scan into time.Time.
	dsn := cfg.DSN
	if !strings.Contains(dsn, "parseTime") {
		if strings.Contains(dsn, "?") {
			dsn += "&parseTime=true"
		} else {
			dsn += "?parseTime=true"
		}
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, kolerrors.NewConfiguration("open mysql connection", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, kolerrors.NewConfiguration("ping mysql", err)
	}

	s := &MySQLStore{db: db, table: cfg.Table}
	if err := s.createSchema(ctx); err != nil {
		db.Close()
		return nil, kolerrors.NewConfiguration("create mysql schema", err)
	}
	return s, nil
}

func (s *MySQLStore) createSchema(ctx context.Context) error {
	query := fmt.Sprintf("CREATE TABLE IF NOT EXISTS `%s` ("+`
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			platform VARCHAR(32) NOT NULL,
			url VARCHAR(2048) NOT NULL,
			creator VARCHAR(255),
			campaign_id VARCHAR(255),
			posted_at DATETIME,
			views BIGINT NOT NULL DEFAULT 0,
			likes BIGINT NOT NULL DEFAULT 0,
			comments BIGINT NOT NULL DEFAULT 0,
			engagement_rate DOUBLE NOT NULL DEFAULT 0.0,
			fetched_at DATETIME NOT NULL,
			UNIQUE KEY uniq_url (url(768))
		)`, s.table)
	_, err := s.db.ExecContext(ctx, query)
	return err
}

// Upsert implements Store.
func (s *MySQLStore) Upsert(ctx context.Context, result types.CanonicalResult) (types.StoredResult, error) {
	var stored types.StoredResult

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return stored, fmt.Errorf("begin upsert transaction: %w", err)
	}
	defer tx.Rollback()

	query := fmt.Sprintf("INSERT INTO `%s`"+`
			(platform, url, creator, campaign_id, posted_at,
			 views, likes, comments, engagement_rate, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			platform = VALUES(platform),
			views = VALUES(views),
			likes = VALUES(likes),
			comments = VALUES(comments),
			engagement_rate = VALUES(engagement_rate),
			fetched_at = VALUES(fetched_at),
			creator = COALESCE(VALUES(creator), creator),
			campaign_id = COALESCE(VALUES(campaign_id), campaign_id),
			posted_at = COALESCE(VALUES(posted_at), posted_at)`, s.table)

	_, err = tx.ExecContext(ctx, query,
		result.Platform.String(), result.URL,
		nullString(result.Creator), nullString(result.CampaignID), nullTime(result.PostedAt),
		result.Views, result.Likes, result.Comments, result.EngagementRate, time.Now().UTC())
	if err != nil {
		return stored, fmt.Errorf("upsert result for %s: %w", result.URL, err)
	}

	row := tx.QueryRowContext(ctx, fmt.Sprintf(
		`SELECT id, platform, url, creator, campaign_id, posted_at,
		        views, likes, comments, engagement_rate, fetched_at
		 FROM `+"`%s`"+` WHERE url = ?`, s.table), result.URL)
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
func (s *MySQLStore) List(ctx context.Context, filter types.ResultFilter) ([]types.StoredResult, error) {
	query, args := buildListQuery(fmt.Sprintf("`%s`", s.table), filter, questionPlaceholders)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	return collectStoredResults(rows)
}

// Ping implements Store.
func (s *MySQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close implements Store.
func (s *MySQLStore) Close() error {
	return s.db.Close()
}
