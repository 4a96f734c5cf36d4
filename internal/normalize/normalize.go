// internal/normalize/normalize.go

// Package normalize converts loosely-typed provider responses into the
// canonical result schema. All field-name aliasing and numeric coercion
// lives here, behind one rule, instead of scattered casts at call sites.
package normalize

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/valpere/KOLMetrics/pkg/types"
)

// Alias sets for the count fields across providers. The YouTube Data API
// uses camelCase, page metadata tends to snake_case, and TikTok-style
// pages expose digg/play counts.
var (
	viewAliases    = []string{"views", "view_count", "viewCount", "play_count", "playCount"}
	likeAliases    = []string{"likes", "like_count", "likeCount", "digg_count", "diggCount"}
	commentAliases = []string{"comments", "comment_count", "commentCount"}
)

// Normalize converts a raw provider response into a CanonicalResult.
// Absent or unparsable counts coerce to 0; the engagement rate is
// (likes+comments)/views*100 rounded to two decimals, defined as 0.0 for
// zero views. The fetch timestamp is assigned by the store at write time,
// not here, so this stays a pure function.
func Normalize(platform types.Platform, url string, raw types.RawMetrics, creator, campaignID string, postedAt *time.Time) types.CanonicalResult {
	views := coerceCount(raw, viewAliases)
	likes := coerceCount(raw, likeAliases)
	comments := coerceCount(raw, commentAliases)

	return types.CanonicalResult{
		Platform:       types.ParsePlatform(platform.String()),
		URL:            url,
		Creator:        creator,
		CampaignID:     campaignID,
		PostedAt:       postedAt,
		Views:          views,
		Likes:          likes,
		Comments:       comments,
		EngagementRate: EngagementRate(views, likes, comments),
	}
}

// EngagementRate computes (likes+comments)/views*100 rounded to two
// decimal places, 0.0 when views is zero.
func EngagementRate(views, likes, comments int64) float64 {
	if views <= 0 {
		return 0.0
	}
	rate := float64(likes+comments) / float64(views) * 100.0
	return math.Round(rate*100) / 100
}

// coerceCount resolves the first present alias and coerces it to a
// non-negative int64. Strings may carry thousands separators.
func coerceCount(raw types.RawMetrics, aliases []string) int64 {
	v, ok := raw.Lookup(aliases...)
	if !ok {
		return 0
	}

	var n int64
	switch value := v.(type) {
	case int:
		n = int64(value)
	case int32:
		n = int64(value)
	case int64:
		n = value
	case float32:
		n = int64(value)
	case float64:
		n = int64(value)
	case string:
		cleaned := strings.TrimSpace(strings.ReplaceAll(value, ",", ""))
		parsed, err := strconv.ParseInt(cleaned, 10, 64)
		if err != nil {
			f, ferr := strconv.ParseFloat(cleaned, 64)
			if ferr != nil {
				return 0
			}
			parsed = int64(f)
		}
		n = parsed
	default:
		return 0
	}

	if n < 0 {
		return 0
	}
	return n
}
