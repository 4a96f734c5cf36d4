// internal/fetch/youtube.go
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	kolerrors "github.com/valpere/KOLMetrics/internal/errors"
	"github.com/valpere/KOLMetrics/pkg/types"
)

// DefaultYouTubeEndpoint is the Data API v3 videos endpoint.
const DefaultYouTubeEndpoint = "https://www.googleapis.com/youtube/v3/videos"

// MaxBatchSize is the provider's ceiling on IDs per request. Enforced
// locally regardless of what the server might accept, so oversized
// requests are never sent.
const MaxBatchSize = 50

// YouTubeClient is the authenticated batch metrics fetcher backed by the
// Data API v3 videos endpoint.
type YouTubeClient struct {
	apiKey     string
	endpoint   string
	batchSize  int
	httpClient *http.Client
}

// YouTubeConfig configures the authenticated client. Endpoint and
// BatchSize are overridable for tests; BatchSize is clamped to
// MaxBatchSize.
type YouTubeConfig struct {
	APIKey    string
	Endpoint  string
	BatchSize int
	Timeout   time.Duration
}

// NewYouTubeClient creates a YouTube statistics client. A missing or
// malformed key (whitespace, control characters) is a configuration
// error, detected up front rather than per request.
func NewYouTubeClient(config YouTubeConfig) (*YouTubeClient, error) {
	if err := ValidateCredential(config.APIKey); err != nil {
		return nil, err
	}
	if config.Endpoint == "" {
		config.Endpoint = DefaultYouTubeEndpoint
	}
	if config.BatchSize <= 0 || config.BatchSize > MaxBatchSize {
		config.BatchSize = MaxBatchSize
	}
	if config.Timeout == 0 {
		config.Timeout = 15 * time.Second
	}

	return &YouTubeClient{
		apiKey:     config.APIKey,
		endpoint:   config.Endpoint,
		batchSize:  config.BatchSize,
		httpClient: &http.Client{Timeout: config.Timeout},
	}, nil
}

// ValidateCredential checks the API key shape without calling the
// provider. Keys are opaque tokens; anything with spaces or control
// characters would produce a malformed query.
func ValidateCredential(apiKey string) error {
	if strings.TrimSpace(apiKey) == "" {
		return kolerrors.NewConfiguration("API key is empty", nil)
	}
	for _, r := range apiKey {
		if r <= ' ' || r == 0x7f {
			return kolerrors.NewConfiguration("API key contains whitespace or control characters", nil)
		}
	}
	return nil
}

// ChunkError records one failed batch chunk: the ID range it covered and
// why it failed. A chunk failure never aborts the other chunks.
type ChunkError struct {
	IDs []string
	Err error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("batch chunk of %d ids failed: %v", len(e.IDs), e.Err)
}

func (e *ChunkError) Unwrap() error { return e.Err }

// videosResponse mirrors the Data API v3 videos list payload.
type videosResponse struct {
	Items []struct {
		ID         string `json:"id"`
		Statistics struct {
			ViewCount    string `json:"viewCount"`
			LikeCount    string `json:"likeCount"`
			CommentCount string `json:"commentCount"`
		} `json:"statistics"`
	} `json:"items"`
}

// FetchBatchStats retrieves statistics for the given video IDs, chunking
// into requests of at most the configured batch size and merging the
// responses. IDs the provider omits (removed or private videos) are
// simply absent from the mapping; the caller treats them as unknown, not
// as errors. Failed chunks are returned alongside the successes.
func (yt *YouTubeClient) FetchBatchStats(ctx context.Context, ids []string) (map[string]types.RawMetrics, []ChunkError) {
	stats := make(map[string]types.RawMetrics, len(ids))
	var chunkErrs []ChunkError

	for start := 0; start < len(ids); start += yt.batchSize {
		end := start + yt.batchSize
		if end > len(ids) {
			end = len(ids)
		}
		chunk := ids[start:end]

		if err := yt.fetchChunk(ctx, chunk, stats); err != nil {
			chunkErrs = append(chunkErrs, ChunkError{IDs: chunk, Err: err})
		}
	}

	return stats, chunkErrs
}

// VideoStats performs a single-ID lookup, used by the dispatcher for
// per-row youtube retrieval. An ID the provider does not return is a
// retrieval failure here (the caller falls back to page scraping).
func (yt *YouTubeClient) VideoStats(ctx context.Context, id string) (types.RawMetrics, error) {
	stats := make(map[string]types.RawMetrics, 1)
	if err := yt.fetchChunk(ctx, []string{id}, stats); err != nil {
		return nil, err
	}
	m, ok := stats[id]
	if !ok {
		return nil, kolerrors.NewRetrieval(id, fmt.Errorf("video not found in API response"))
	}
	return m, nil
}

// fetchChunk issues one videos request and merges the returned items into
// stats. Missing likeCount/commentCount (disabled by the creator) become
// zero rather than errors.
func (yt *YouTubeClient) fetchChunk(ctx context.Context, ids []string, stats map[string]types.RawMetrics) error {
	query := url.Values{}
	query.Set("part", "statistics")
	query.Set("id", strings.Join(ids, ","))
	query.Set("key", yt.apiKey)
	requestURL := yt.endpoint + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return kolerrors.NewRetrieval(yt.endpoint, fmt.Errorf("build request: %w", err))
	}

	resp, err := yt.httpClient.Do(req)
	if err != nil {
		return kolerrors.NewRetrieval(yt.endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return kolerrors.NewRetrievalStatus(yt.endpoint, resp.StatusCode, fmt.Errorf("%s", resp.Status))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return kolerrors.NewRetrieval(yt.endpoint, fmt.Errorf("read body: %w", err))
	}

	var payload videosResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return kolerrors.NewRetrieval(yt.endpoint, fmt.Errorf("decode response: %w", err))
	}

	for _, item := range payload.Items {
		m := types.RawMetrics{"viewCount": item.Statistics.ViewCount}
		if item.Statistics.LikeCount != "" {
			m["likeCount"] = item.Statistics.LikeCount
		}
		if item.Statistics.CommentCount != "" {
			m["commentCount"] = item.Statistics.CommentCount
		}
		stats[item.ID] = m
	}

	return nil
}
