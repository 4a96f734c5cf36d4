// internal/output/types.go

// Package output exports stored results to delimited and spreadsheet
// formats for the dashboard handoff.
package output

import (
	"fmt"
	"strings"

	"github.com/valpere/KOLMetrics/pkg/types"
)

// Format represents supported export formats
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
)

// ValidFormats returns all valid export format values
func ValidFormats() []Format {
	return []Format{FormatCSV, FormatJSON, FormatXLSX}
}

// ParseFormat normalizes a format name. "excel" is accepted as an alias
// for xlsx since that is what campaign teams call it.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unsupported export format %q, expected one of %v", s, ValidFormats())
	}
}

// ContentType returns the MIME type used when serving the format over
// HTTP.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/csv"
	}
}

// Writer exports a result set to one destination.
type Writer interface {
	Write(results []types.StoredResult) error
}

// exportColumns is the column order shared by the tabular formats.
var exportColumns = []string{
	"id", "platform", "url", "creator", "campaign_id", "posted_at",
	"views", "likes", "comments", "engagement_rate", "fetched_at",
}
