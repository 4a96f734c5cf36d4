// internal/normalize/normalize_test.go
package normalize

import (
	"testing"
	"time"

	"github.com/valpere/KOLMetrics/pkg/types"
)

func TestEngagementRateRounding(t *testing.T) {
	tests := []struct {
		name     string
		views    int64
		likes    int64
		comments int64
		want     float64
	}{
		{"documented example", 1000, 40, 10, 5.0},
		{"zero views is deterministic zero", 0, 5, 2, 0.0},
		{"rounds to two decimals", 3, 1, 0, 33.33},
		{"rounds half up", 1000, 0, 55, 5.5},
		{"all zero", 0, 0, 0, 0.0},
		{"large counts", 1_000_000, 123_456, 7_890, 13.13},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EngagementRate(tt.views, tt.likes, tt.comments)
			if got != tt.want {
				t.Errorf("EngagementRate(%d, %d, %d) = %v, want %v",
					tt.views, tt.likes, tt.comments, got, tt.want)
			}
		})
	}
}

func TestNormalizeFieldAliases(t *testing.T) {
	tests := []struct {
		name string
		raw  types.RawMetrics
		want [3]int64 // views, likes, comments
	}{
		{
			name: "youtube api camelCase",
			raw:  types.RawMetrics{"viewCount": "1000", "likeCount": "40", "commentCount": "10"},
			want: [3]int64{1000, 40, 10},
		},
		{
			name: "page snake_case",
			raw:  types.RawMetrics{"view_count": 1000, "like_count": 40, "comment_count": 10},
			want: [3]int64{1000, 40, 10},
		},
		{
			name: "plain names",
			raw:  types.RawMetrics{"views": int64(1000), "likes": int64(40), "comments": int64(10)},
			want: [3]int64{1000, 40, 10},
		},
		{
			name: "tiktok digg and play counts",
			raw:  types.RawMetrics{"play_count": 500, "digg_count": 25, "comment_count": 5},
			want: [3]int64{500, 25, 5},
		},
		{
			name: "missing fields coerce to zero",
			raw:  types.RawMetrics{"viewCount": "1000"},
			want: [3]int64{1000, 0, 0},
		},
		{
			name: "empty response",
			raw:  types.RawMetrics{},
			want: [3]int64{0, 0, 0},
		},
		{
			name: "non-numeric strings coerce to zero",
			raw:  types.RawMetrics{"views": "unavailable", "likes": "n/a"},
			want: [3]int64{0, 0, 0},
		},
		{
			name: "thousands separators",
			raw:  types.RawMetrics{"views": "1,234,567", "likes": "1,000"},
			want: [3]int64{1234567, 1000, 0},
		},
		{
			name: "float values truncate",
			raw:  types.RawMetrics{"views": 1000.9, "likes": float32(40)},
			want: [3]int64{1000, 40, 0},
		},
		{
			name: "negative counts clamp to zero",
			raw:  types.RawMetrics{"views": -5, "likes": "-1"},
			want: [3]int64{0, 0, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(types.PlatformYouTube, "https://example.com/v", tt.raw, "", "", nil)
			if got.Views != tt.want[0] || got.Likes != tt.want[1] || got.Comments != tt.want[2] {
				t.Errorf("Normalize counts = (%d, %d, %d), want (%d, %d, %d)",
					got.Views, got.Likes, got.Comments, tt.want[0], tt.want[1], tt.want[2])
			}
		})
	}
}

func TestNormalizeComputesRate(t *testing.T) {
	raw := types.RawMetrics{"viewCount": "1000", "likeCount": "40", "commentCount": "10"}
	got := Normalize(types.PlatformYouTube, "https://youtu.be/x", raw, "", "", nil)
	if got.EngagementRate != 5.0 {
		t.Errorf("EngagementRate = %v, want 5.0", got.EngagementRate)
	}
}

func TestNormalizeZeroViewsNoDivisionError(t *testing.T) {
	raw := types.RawMetrics{"views": 0, "likes": 5, "comments": 2}
	got := Normalize(types.PlatformInstagram, "https://instagram.com/p/x", raw, "", "", nil)
	if got.EngagementRate != 0.0 {
		t.Errorf("EngagementRate with zero views = %v, want 0.0", got.EngagementRate)
	}
	if got.Likes != 5 || got.Comments != 2 {
		t.Errorf("counts should still pass through: likes=%d comments=%d", got.Likes, got.Comments)
	}
}

func TestNormalizeMetadataPassthrough(t *testing.T) {
	posted := time.Date(2025, 9, 10, 0, 0, 0, 0, time.UTC)
	got := Normalize(types.Platform("YouTube"), "https://youtu.be/x", types.RawMetrics{},
		"Rick", "W37-Launch", &posted)

	if got.Platform != types.PlatformYouTube {
		t.Errorf("platform should be lower-cased, got %q", got.Platform)
	}
	if got.Creator != "Rick" || got.CampaignID != "W37-Launch" {
		t.Errorf("metadata not passed through: %+v", got)
	}
	if got.PostedAt == nil || !got.PostedAt.Equal(posted) {
		t.Errorf("posted_at not passed through: %v", got.PostedAt)
	}
}
