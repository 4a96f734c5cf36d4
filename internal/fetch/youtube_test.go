// internal/fetch/youtube_test.go
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	kolerrors "github.com/valpere/KOLMetrics/internal/errors"
)

// fakeVideosAPI serves a Data API v3 shaped videos endpoint that echoes
// statistics for every requested ID, recording the chunk sizes it saw.
func fakeVideosAPI(t *testing.T, chunkSizes *[]int, omit map[string]bool) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("part"); got != "statistics" {
			t.Errorf("expected part=statistics, got %q", got)
		}
		if r.URL.Query().Get("key") == "" {
			t.Error("expected key parameter")
		}

		ids := strings.Split(r.URL.Query().Get("id"), ",")
		*chunkSizes = append(*chunkSizes, len(ids))

		items := []map[string]interface{}{}
		for _, id := range ids {
			if omit[id] {
				continue
			}
			items = append(items, map[string]interface{}{
				"id": id,
				"statistics": map[string]string{
					"viewCount":    "1000",
					"likeCount":    "40",
					"commentCount": "10",
				},
			})
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"items": items})
	}))
}

func TestFetchBatchStatsChunking(t *testing.T) {
	var chunkSizes []int
	server := fakeVideosAPI(t, &chunkSizes, nil)
	defer server.Close()

	yt, err := NewYouTubeClient(YouTubeConfig{APIKey: "test-key", Endpoint: server.URL})
	if err != nil {
		t.Fatalf("NewYouTubeClient: %v", err)
	}

	ids := make([]string, 120)
	for i := range ids {
		ids[i] = fmt.Sprintf("video%03d", i)
	}

	stats, chunkErrs := yt.FetchBatchStats(context.Background(), ids)
	if len(chunkErrs) != 0 {
		t.Fatalf("unexpected chunk errors: %v", chunkErrs)
	}

	wantChunks := []int{50, 50, 20}
	if len(chunkSizes) != len(wantChunks) {
		t.Fatalf("expected %d chunks, got %d (%v)", len(wantChunks), len(chunkSizes), chunkSizes)
	}
	for i, want := range wantChunks {
		if chunkSizes[i] != want {
			t.Errorf("chunk %d size = %d, want %d", i, chunkSizes[i], want)
		}
	}

	// Every requested ID appears exactly once in the merged mapping.
	if len(stats) != len(ids) {
		t.Errorf("merged mapping has %d entries, want %d", len(stats), len(ids))
	}
	for _, id := range ids {
		if _, ok := stats[id]; !ok {
			t.Errorf("id %s missing from merged mapping", id)
		}
	}
}

func TestFetchBatchStatsOmittedIDsAbsent(t *testing.T) {
	var chunkSizes []int
	server := fakeVideosAPI(t, &chunkSizes, map[string]bool{"gone123": true})
	defer server.Close()

	yt, err := NewYouTubeClient(YouTubeConfig{APIKey: "test-key", Endpoint: server.URL})
	if err != nil {
		t.Fatalf("NewYouTubeClient: %v", err)
	}

	stats, chunkErrs := yt.FetchBatchStats(context.Background(), []string{"alive01", "gone123"})
	if len(chunkErrs) != 0 {
		t.Fatalf("an omitted id must not fail the chunk: %v", chunkErrs)
	}
	if _, ok := stats["alive01"]; !ok {
		t.Error("alive01 should be present")
	}
	if _, ok := stats["gone123"]; ok {
		t.Error("gone123 should be absent from the mapping, not zero-filled here")
	}
}

func TestFetchBatchStatsChunkFailureIsolation(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "quota exceeded", http.StatusForbidden)
			return
		}
		ids := strings.Split(r.URL.Query().Get("id"), ",")
		items := []map[string]interface{}{}
		for _, id := range ids {
			items = append(items, map[string]interface{}{
				"id":         id,
				"statistics": map[string]string{"viewCount": "7"},
			})
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"items": items})
	}))
	defer server.Close()

	yt, err := NewYouTubeClient(YouTubeConfig{APIKey: "test-key", Endpoint: server.URL, BatchSize: 2})
	if err != nil {
		t.Fatalf("NewYouTubeClient: %v", err)
	}

	stats, chunkErrs := yt.FetchBatchStats(context.Background(), []string{"aaaaaa", "bbbbbb", "cccccc"})
	if len(chunkErrs) != 1 {
		t.Fatalf("expected exactly one chunk error, got %d", len(chunkErrs))
	}
	if len(chunkErrs[0].IDs) != 2 {
		t.Errorf("failed chunk should cover 2 ids, got %v", chunkErrs[0].IDs)
	}
	// The second chunk still succeeded.
	if _, ok := stats["cccccc"]; !ok {
		t.Error("surviving chunk result missing; chunk failure leaked across chunks")
	}
}

func TestVideoStatsNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"items": []interface{}{}})
	}))
	defer server.Close()

	yt, err := NewYouTubeClient(YouTubeConfig{APIKey: "test-key", Endpoint: server.URL})
	if err != nil {
		t.Fatalf("NewYouTubeClient: %v", err)
	}

	_, err = yt.VideoStats(context.Background(), "missing1")
	if !kolerrors.IsRetrieval(err) {
		t.Errorf("expected RetrievalError for an id the API did not return, got %v", err)
	}
}

func TestVideoStatsMissingLikeAndCommentCounts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Creator disabled likes and comments: fields absent entirely.
		fmt.Fprint(w, `{"items":[{"id":"abc123","statistics":{"viewCount":"1000"}}]}`)
	}))
	defer server.Close()

	yt, err := NewYouTubeClient(YouTubeConfig{APIKey: "test-key", Endpoint: server.URL})
	if err != nil {
		t.Fatalf("NewYouTubeClient: %v", err)
	}

	m, err := yt.VideoStats(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("VideoStats: %v", err)
	}
	if _, ok := m["likeCount"]; ok {
		t.Error("absent likeCount should stay absent in raw metrics")
	}
	if v, _ := m.Lookup("viewCount"); v != "1000" {
		t.Errorf("viewCount = %v, want 1000", v)
	}
}

func TestNewYouTubeClientCredentialValidation(t *testing.T) {
	tests := []struct {
		name   string
		apiKey string
		wantOK bool
	}{
		{"plain key", "AIzaSyExample123", true},
		{"empty", "", false},
		{"whitespace only", "   ", false},
		{"embedded space", "AIza Sy", false},
		{"newline", "AIzaSy\n", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewYouTubeClient(YouTubeConfig{APIKey: tt.apiKey})
			if tt.wantOK && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.wantOK && !kolerrors.IsConfiguration(err) {
				t.Errorf("expected ConfigurationError, got %v", err)
			}
		})
	}
}

func TestBatchSizeClampedToProviderCap(t *testing.T) {
	var chunkSizes []int
	server := fakeVideosAPI(t, &chunkSizes, nil)
	defer server.Close()

	yt, err := NewYouTubeClient(YouTubeConfig{APIKey: "test-key", Endpoint: server.URL, BatchSize: 500})
	if err != nil {
		t.Fatalf("NewYouTubeClient: %v", err)
	}

	ids := make([]string, 60)
	for i := range ids {
		ids[i] = fmt.Sprintf("video%03d", i)
	}
	yt.FetchBatchStats(context.Background(), ids)

	for _, size := range chunkSizes {
		if size > MaxBatchSize {
			t.Errorf("chunk size %d exceeds provider cap %d", size, MaxBatchSize)
		}
	}
}
