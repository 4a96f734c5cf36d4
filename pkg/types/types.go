// pkg/types/types.go
package types

import (
	"strings"
	"time"
)

// Platform identifies a content platform a link belongs to.
type Platform string

const (
	PlatformYouTube   Platform = "youtube"
	PlatformInstagram Platform = "instagram"
	PlatformTikTok    Platform = "tiktok"
	PlatformUnknown   Platform = ""
)

// KnownPlatforms returns the platform values with dedicated handling.
func KnownPlatforms() []Platform {
	return []Platform{PlatformYouTube, PlatformInstagram, PlatformTikTok}
}

// ParsePlatform normalizes a free-form platform tag. Unrecognized values
// are preserved lower-cased rather than rejected, since URL-based
// extraction can still succeed for tags we have never seen.
func ParsePlatform(s string) Platform {
	return Platform(strings.ToLower(strings.TrimSpace(s)))
}

// IsKnown reports whether the platform has a dedicated retrieval policy.
func (p Platform) IsKnown() bool {
	for _, known := range KnownPlatforms() {
		if p == known {
			return true
		}
	}
	return false
}

func (p Platform) String() string {
	return string(p)
}

// InputRow is one line of the uploaded link sheet. Only URL is strictly
// required; Platform can be inferred from the URL host downstream.
type InputRow struct {
	Platform   string `json:"platform"`
	URL        string `json:"url"`
	Creator    string `json:"creator,omitempty"`
	CampaignID string `json:"campaign_id,omitempty"`
	PostedAt   string `json:"posted_at,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

// RawMetrics is a provider response before normalization. Field names and
// value types vary by source (view_count vs views vs viewCount, numbers
// encoded as strings), so it stays a loose mapping until the normalizer
// applies the one centralized coercion rule.
type RawMetrics map[string]interface{}

// Lookup returns the first value present under any of the given aliases.
func (m RawMetrics) Lookup(aliases ...string) (interface{}, bool) {
	for _, alias := range aliases {
		if v, ok := m[alias]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// CanonicalResult is the normalized outcome of one fetch, ready for the
// store. EngagementRate is derived, never set independently.
type CanonicalResult struct {
	Platform       Platform   `json:"platform"`
	URL            string     `json:"url"`
	Creator        string     `json:"creator,omitempty"`
	CampaignID     string     `json:"campaign_id,omitempty"`
	PostedAt       *time.Time `json:"posted_at,omitempty"`
	Views          int64      `json:"views"`
	Likes          int64      `json:"likes"`
	Comments       int64      `json:"comments"`
	EngagementRate float64    `json:"engagement_rate"`
}

// StoredResult is a CanonicalResult with store-assigned identity and the
// write timestamp. ID is immutable once assigned.
type StoredResult struct {
	ID        int64     `json:"id"`
	FetchedAt time.Time `json:"fetched_at"`
	CanonicalResult
}

// SortOrder controls listing order by store id.
type SortOrder string

const (
	OrderAscending  SortOrder = "asc"
	OrderDescending SortOrder = "desc"
)

// ResultFilter narrows a store listing. Zero values mean "no filter".
type ResultFilter struct {
	Platform   Platform  `json:"platform,omitempty"`
	Creator    string    `json:"creator,omitempty"`
	CampaignID string    `json:"campaign_id,omitempty"`
	Order      SortOrder `json:"order,omitempty"`
}

// RowError records one failed input row inside an otherwise successful run.
type RowError struct {
	RowIndex int    `json:"row_index"`
	URL      string `json:"url,omitempty"`
	Message  string `json:"message"`
}

// Report summarizes one batch run. A run always completes; per-row
// failures land here instead of aborting the batch.
type Report struct {
	Written  int           `json:"written"`
	Skipped  int           `json:"skipped"`
	Errors   []RowError    `json:"errors,omitempty"`
	Duration time.Duration `json:"duration"`
}

// AddError appends a row failure to the report.
func (r *Report) AddError(rowIndex int, url, message string) {
	r.Skipped++
	r.Errors = append(r.Errors, RowError{RowIndex: rowIndex, URL: url, Message: message})
}
