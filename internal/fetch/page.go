// internal/fetch/page.go
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	kolerrors "github.com/valpere/KOLMetrics/internal/errors"
	"github.com/valpere/KOLMetrics/pkg/types"
)

// HTMLSource retrieves the HTML document behind a content URL. The plain
// HTTP client covers most pages; a browser-backed source can be swapped
// in for platforms that only render counts client-side.
type HTMLSource interface {
	FetchHTML(ctx context.Context, url string) (string, error)
}

// PageFetcher extracts engagement counts from the public page behind a
// URL: a metadata-only retrieval, no media download. Works for any
// platform without a bulk statistics endpoint and doubles as the fallback
// for platforms that have one.
type PageFetcher struct {
	source HTMLSource
}

// NewPageFetcher creates a page fetcher over the given HTML source.
func NewPageFetcher(source HTMLSource) *PageFetcher {
	return &PageFetcher{source: source}
}

// FetchHTML implements HTMLSource over the shared HTTP client.
func (c *Client) FetchHTML(ctx context.Context, url string) (string, error) {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return "", kolerrors.NewRetrieval(url, fmt.Errorf("read body: %w", err))
	}
	return string(body), nil
}

// Markers that public pages show for private or removed content. Matched
// case-insensitively against the document text.
var unavailableMarkers = []string{
	"this video is private",
	"video unavailable",
	"this video has been removed",
	"sorry, this page isn't available",
	"content isn't available",
}

// Inline count tokens as they appear in embedded player JSON, e.g.
// "viewCount":"12345" or "digg_count":678.
var inlineCountPattern = regexp.MustCompile(`"(viewCount|likeCount|commentCount|view_count|like_count|comment_count|play_count|digg_count)"\s*:\s*"?(\d+)"?`)

// FetchPageMetrics retrieves whatever count fields the page exposes,
// under their native names. Absent fields stay absent; the normalizer
// owns coercion. Unreachable pages and private/removed content surface as
// RetrievalError for the caller to record per row.
func (pf *PageFetcher) FetchPageMetrics(ctx context.Context, url string) (types.RawMetrics, error) {
	html, err := pf.source.FetchHTML(ctx, url)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, kolerrors.NewRetrieval(url, fmt.Errorf("parse page: %w", err))
	}

	if marker := unavailableMarker(doc); marker != "" {
		return nil, kolerrors.NewRetrieval(url, fmt.Errorf("content unavailable: %q", marker))
	}

	metrics := types.RawMetrics{}
	extractMetaCounts(doc, metrics)
	extractJSONLDCounts(doc, metrics)
	extractInlineCounts(html, metrics)

	return metrics, nil
}

// unavailableMarker returns the first private/removed marker found in the
// page body, or "".
func unavailableMarker(doc *goquery.Document) string {
	text := strings.ToLower(doc.Find("body").Text())
	for _, marker := range unavailableMarkers {
		if strings.Contains(text, marker) {
			return marker
		}
	}
	return ""
}

// extractMetaCounts reads schema.org meta tags; YouTube watch pages carry
// the view count in itemprop=interactionCount.
func extractMetaCounts(doc *goquery.Document, metrics types.RawMetrics) {
	doc.Find("meta[itemprop=interactionCount]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if content, ok := s.Attr("content"); ok && content != "" {
			metrics["view_count"] = content
			return false
		}
		return true
	})
}

// jsonLDDocument is the subset of a JSON-LD block we care about.
type jsonLDDocument struct {
	InteractionStatistic []interactionCounter `json:"interactionStatistic"`
}

type interactionCounter struct {
	InteractionType      json.RawMessage `json:"interactionType"`
	UserInteractionCount json.Number     `json:"userInteractionCount"`
}

// extractJSONLDCounts parses schema.org interactionStatistic entries,
// mapping WatchAction/LikeAction/CommentAction to the matching counts.
func extractJSONLDCounts(doc *goquery.Document, metrics types.RawMetrics) {
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		var ld jsonLDDocument
		if err := json.Unmarshal([]byte(s.Text()), &ld); err != nil {
			return
		}
		for _, counter := range ld.InteractionStatistic {
			count := counter.UserInteractionCount.String()
			if count == "" {
				continue
			}
			// interactionType may be a bare IRI string or a nested
			// {"@type": "..."} object; match on the substring either way.
			typeText := strings.ToLower(string(counter.InteractionType))
			switch {
			case strings.Contains(typeText, "watchaction"):
				setIfAbsent(metrics, "view_count", count)
			case strings.Contains(typeText, "likeaction"):
				setIfAbsent(metrics, "like_count", count)
			case strings.Contains(typeText, "commentaction"):
				setIfAbsent(metrics, "comment_count", count)
			}
		}
	})
}

// extractInlineCounts scans embedded player JSON for count tokens. Runs
// last so structured sources win.
func extractInlineCounts(html string, metrics types.RawMetrics) {
	for _, m := range inlineCountPattern.FindAllStringSubmatch(html, -1) {
		setIfAbsent(metrics, m[1], m[2])
	}
}

func setIfAbsent(metrics types.RawMetrics, key string, value interface{}) {
	if _, exists := metrics[key]; !exists {
		metrics[key] = value
	}
}
