// internal/fetch/dispatcher.go
package fetch

import (
	"context"
	"fmt"

	kolerrors "github.com/valpere/KOLMetrics/internal/errors"
	"github.com/valpere/KOLMetrics/internal/platform"
	"github.com/valpere/KOLMetrics/pkg/types"
)

// PageMetricsFetcher is the generic single-item strategy: any platform
// without a bulk endpoint, and the universal fallback.
type PageMetricsFetcher interface {
	FetchPageMetrics(ctx context.Context, url string) (types.RawMetrics, error)
}

// AuthenticatedFetcher is the per-ID authenticated lookup strategy.
type AuthenticatedFetcher interface {
	VideoStats(ctx context.Context, id string) (types.RawMetrics, error)
}

// Dispatcher routes a (platform, URL) pair to the right retrieval
// strategy and applies the fallback chain. The policy is fallback on
// failure only, never on success: a transient authenticated-API error
// degrades to page scraping instead of dropping the row.
type Dispatcher struct {
	page PageMetricsFetcher
	auth AuthenticatedFetcher // nil when no credential is configured
}

// NewDispatcher creates a dispatcher. auth may be nil; youtube rows then
// go straight to the page strategy.
func NewDispatcher(page PageMetricsFetcher, auth AuthenticatedFetcher) *Dispatcher {
	return &Dispatcher{page: page, auth: auth}
}

// Dispatch retrieves raw metrics for one URL.
//
// Policy, keyed on platform:
//   - youtube with a credential: authenticated single lookup; any failure
//     (network, malformed ID, not found) falls back to the page strategy
//     against the same URL.
//   - youtube without a credential: page strategy directly.
//   - instagram, tiktok: page strategy.
//   - unrecognized platform tags: page strategy, since URL-based
//     extraction can still succeed for tags we do not recognize.
func (d *Dispatcher) Dispatch(ctx context.Context, p types.Platform, url string) (types.RawMetrics, error) {
	if p == types.PlatformYouTube && d.auth != nil {
		metrics, authErr := d.dispatchYouTubeAPI(ctx, url)
		if authErr == nil {
			return metrics, nil
		}

		metrics, pageErr := d.page.FetchPageMetrics(ctx, url)
		if pageErr != nil {
			return nil, &kolerrors.FallbackExhaustedError{
				URL:         url,
				PrimaryErr:  authErr,
				FallbackErr: pageErr,
			}
		}
		return metrics, nil
	}

	return d.page.FetchPageMetrics(ctx, url)
}

// dispatchYouTubeAPI extracts the video ID and asks the authenticated
// endpoint. A URL with no extractable ID counts as a primary failure so
// the page fallback still gets its chance.
func (d *Dispatcher) dispatchYouTubeAPI(ctx context.Context, url string) (types.RawMetrics, error) {
	id, ok := platform.ExtractYouTubeID(url)
	if !ok {
		return nil, kolerrors.NewRetrieval(url, fmt.Errorf("no video id recognized in URL"))
	}
	return d.auth.VideoStats(ctx, id)
}
