// internal/output/csv.go
package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/valpere/KOLMetrics/pkg/types"
)

// CSVWriter exports results as comma-separated values with a header row.
type CSVWriter struct {
	w io.Writer
}

// NewCSVWriter creates a CSV export writer.
func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{w: w}
}

// Write implements Writer.
func (cw *CSVWriter) Write(results []types.StoredResult) error {
	writer := csv.NewWriter(cw.w)

	if err := writer.Write(exportColumns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range results {
		if err := writer.Write(csvRecord(r)); err != nil {
			return fmt.Errorf("write csv row for %s: %w", r.URL, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func csvRecord(r types.StoredResult) []string {
	return []string{
		strconv.FormatInt(r.ID, 10),
		r.Platform.String(),
		r.URL,
		r.Creator,
		r.CampaignID,
		formatTimePtr(r.PostedAt),
		strconv.FormatInt(r.Views, 10),
		strconv.FormatInt(r.Likes, 10),
		strconv.FormatInt(r.Comments, 10),
		strconv.FormatFloat(r.EngagementRate, 'f', 2, 64),
		r.FetchedAt.UTC().Format(time.RFC3339),
	}
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}
