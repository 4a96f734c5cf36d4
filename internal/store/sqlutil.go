// internal/store/sqlutil.go
package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/valpere/KOLMetrics/pkg/types"
)

// nullString maps "" to NULL so the COALESCE-based selective overwrite
// can tell "no value" apart from a real value.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// nullTime maps a nil timestamp to NULL.
func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanStoredResult reads one row in canonical column order: id, platform,
// url, creator, campaign_id, posted_at, views, likes, comments,
// engagement_rate, fetched_at.
func scanStoredResult(row rowScanner) (types.StoredResult, error) {
	var (
		stored     types.StoredResult
		platform   string
		creator    sql.NullString
		campaignID sql.NullString
		postedAt   sql.NullTime
	)

	err := row.Scan(&stored.ID, &platform, &stored.URL, &creator, &campaignID, &postedAt,
		&stored.Views, &stored.Likes, &stored.Comments, &stored.EngagementRate, &stored.FetchedAt)
	if err != nil {
		return stored, err
	}

	stored.Platform = types.Platform(platform)
	stored.Creator = creator.String
	stored.CampaignID = campaignID.String
	if postedAt.Valid {
		t := postedAt.Time
		stored.PostedAt = &t
	}
	return stored, nil
}

// collectStoredResults drains a result set.
func collectStoredResults(rows *sql.Rows) ([]types.StoredResult, error) {
	var results []types.StoredResult
	for rows.Next() {
		stored, err := scanStoredResult(rows)
		if err != nil {
			return nil, fmt.Errorf("scan result row: %w", err)
		}
		results = append(results, stored)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate result rows: %w", err)
	}
	return results, nil
}

// placeholderStyle renders the i-th (1-based) bind placeholder.
type placeholderStyle func(i int) string

func questionPlaceholders(int) string { return "?" }
func dollarPlaceholders(i int) string { return fmt.Sprintf("$%d", i) }

// buildListQuery assembles the filtered SELECT shared by the SQL
// backends. table must already be quoted for the dialect.
func buildListQuery(table string, filter types.ResultFilter, placeholder placeholderStyle) (string, []interface{}) {
	var (
		conditions []string
		args       []interface{}
	)

	addCondition := func(column, value string) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf("%s = %s", column, placeholder(len(args))))
	}

	if filter.Platform != types.PlatformUnknown {
		addCondition("platform", filter.Platform.String())
	}
	if filter.Creator != "" {
		addCondition("creator", filter.Creator)
	}
	if filter.CampaignID != "" {
		addCondition("campaign_id", filter.CampaignID)
	}

	query := fmt.Sprintf(
		`SELECT id, platform, url, creator, campaign_id, posted_at,
		        views, likes, comments, engagement_rate, fetched_at
		 FROM %s`, table)
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " " + orderClause(filter.Order)

	return query, args
}
