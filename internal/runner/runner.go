// internal/runner/runner.go

// Package runner orchestrates one batch run: validate the input rows,
// group them by platform, fetch metrics through the batch API or the
// per-row dispatcher, normalize, and upsert into the store. Per-row and
// per-chunk failures are collected into the run report; only broken
// configuration aborts a run.
package runner

import (
	"context"
	"log"
	"sort"
	"time"

	kolerrors "github.com/valpere/KOLMetrics/internal/errors"
	"github.com/valpere/KOLMetrics/internal/fetch"
	"github.com/valpere/KOLMetrics/internal/monitoring"
	"github.com/valpere/KOLMetrics/internal/normalize"
	"github.com/valpere/KOLMetrics/internal/platform"
	"github.com/valpere/KOLMetrics/internal/store"
	"github.com/valpere/KOLMetrics/pkg/types"
)

// Logger interface for structured logging integration.
// Applications can provide their own logger implementation.
type Logger interface {
	Warnf(format string, args ...interface{})
	Infof(format string, args ...interface{})
}

// DefaultLogger implements Logger using standard log package.
type DefaultLogger struct{}

func (l *DefaultLogger) Warnf(format string, args ...interface{}) {
	log.Printf("[WARN] "+format, args...)
}

func (l *DefaultLogger) Infof(format string, args ...interface{}) {
	log.Printf("[INFO] "+format, args...)
}

// MetricsFetcher fetches metrics for one URL, choosing the strategy
// for its platform.
type MetricsFetcher interface {
	Dispatch(ctx context.Context, p types.Platform, url string) (types.RawMetrics, error)
}

// BatchStatsFetcher looks up stats for many video IDs at once.
type BatchStatsFetcher interface {
	FetchBatchStats(ctx context.Context, ids []string) (map[string]types.RawMetrics, []fetch.ChunkError)
}

// Options wires a Runner. Dispatcher and Store are required; Batch is
// nil when no API credential is configured, which routes every row
// through the per-row dispatcher.
type Options struct {
	Dispatcher MetricsFetcher
	Batch      BatchStatsFetcher
	Store      store.Store

	// Backend labels store metrics; informational only.
	Backend string

	Metrics  *monitoring.MetricsManager
	Logger   Logger
	Progress func(done, total int)
}

// Runner executes batch runs.
type Runner struct {
	dispatcher MetricsFetcher
	batch      BatchStatsFetcher
	store      store.Store
	backend    string
	metrics    *monitoring.MetricsManager
	logger     Logger
	progress   func(done, total int)
}

// New validates the wiring and builds a Runner.
func New(opts Options) (*Runner, error) {
	if opts.Dispatcher == nil {
		return nil, kolerrors.NewConfiguration("runner requires a dispatcher", nil)
	}
	if opts.Store == nil {
		return nil, kolerrors.NewConfiguration("runner requires a store", nil)
	}
	if opts.Logger == nil {
		opts.Logger = &DefaultLogger{}
	}
	if opts.Backend == "" {
		opts.Backend = "unknown"
	}
	return &Runner{
		dispatcher: opts.Dispatcher,
		batch:      opts.Batch,
		store:      opts.Store,
		backend:    opts.Backend,
		metrics:    opts.Metrics,
		logger:     opts.Logger,
		progress:   opts.Progress,
	}, nil
}

// workItem is one validated input row.
type workItem struct {
	index    int
	platform types.Platform
	row      types.InputRow
	postedAt *time.Time
}

// Run processes one batch of input rows. The returned report always
// covers the full batch; the error is non-nil only when the run was
// cancelled through ctx.
func (r *Runner) Run(ctx context.Context, rows []types.InputRow) (types.Report, error) {
	start := time.Now()
	report := types.Report{}

	items := r.validateRows(rows, &report)

	// The batch path only applies to youtube rows when a credential is
	// configured; everything else goes through the dispatcher.
	var batched, direct []workItem
	for _, item := range items {
		if r.batch != nil && item.platform == types.PlatformYouTube {
			batched = append(batched, item)
		} else {
			direct = append(direct, item)
		}
	}

	done := len(report.Errors)
	total := len(rows)
	advance := func() {
		done++
		if r.progress != nil {
			r.progress(done, total)
		}
	}

	if err := r.runBatched(ctx, batched, &report, advance); err != nil {
		return r.finish(report, start, "cancelled"), err
	}

	for _, item := range direct {
		if err := ctx.Err(); err != nil {
			return r.finish(report, start, "cancelled"), err
		}
		r.processDirect(ctx, item, &report)
		advance()
	}

	// Grouping reorders processing; reports stay in input order.
	sort.Slice(report.Errors, func(i, j int) bool {
		return report.Errors[i].RowIndex < report.Errors[j].RowIndex
	})

	return r.finish(report, start, "completed"), nil
}

func (r *Runner) finish(report types.Report, start time.Time, result string) types.Report {
	report.Duration = time.Since(start)
	r.metrics.RecordRun(result, report.Duration)
	r.logger.Infof("run %s: %d written, %d errors in %s",
		result, report.Written, len(report.Errors), report.Duration)
	return report
}

// validateRows resolves the platform of each row and drops rows that
// cannot be processed at all. Unrecognized platform tags are tolerated;
// the page strategy may still succeed on them.
func (r *Runner) validateRows(rows []types.InputRow, report *types.Report) []workItem {
	items := make([]workItem, 0, len(rows))
	for i, row := range rows {
		if row.URL == "" {
			report.AddError(i, "", "url is required")
			r.metrics.RecordRow("", "invalid")
			continue
		}

		p := platform.Resolve(row.Platform, row.URL)
		if p == types.PlatformUnknown {
			report.AddError(i, row.URL, "platform missing and not inferable from url")
			r.metrics.RecordRow("", "invalid")
			continue
		}

		items = append(items, workItem{
			index:    i,
			platform: p,
			row:      row,
			postedAt: parsePostedAt(row.PostedAt, r.logger),
		})
	}
	return items
}

// runBatched resolves youtube rows through the batched stats lookup.
// Rows without an extractable video ID and rows in failed chunks are
// recorded as errors; IDs the provider simply omitted normalize to
// zero metrics.
func (r *Runner) runBatched(ctx context.Context, items []workItem, report *types.Report, advance func()) error {
	if len(items) == 0 {
		return nil
	}

	withID := make([]workItem, 0, len(items))
	ids := make([]string, 0, len(items))
	seen := make(map[string]bool)
	videoIDs := make(map[int]string)

	for _, item := range items {
		id, ok := platform.ExtractYouTubeID(item.row.URL)
		if !ok {
			report.AddError(item.index, item.row.URL, "no video id in url")
			r.metrics.RecordRow(item.platform.String(), "invalid")
			advance()
			continue
		}
		videoIDs[item.index] = id
		withID = append(withID, item)
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	if len(withID) == 0 {
		return nil
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	fetchStart := time.Now()
	stats, chunkErrors := r.batch.FetchBatchStats(ctx, ids)
	r.metrics.RecordFetch("batch", fetchResult(len(chunkErrors)), time.Since(fetchStart))

	failed := make(map[string]error)
	for i := range chunkErrors {
		r.metrics.RecordChunk("error")
		for _, id := range chunkErrors[i].IDs {
			failed[id] = &chunkErrors[i]
		}
	}
	totalChunks := (len(ids) + fetch.MaxBatchSize - 1) / fetch.MaxBatchSize
	for i := len(chunkErrors); i < totalChunks; i++ {
		r.metrics.RecordChunk("success")
	}

	for _, item := range withID {
		if err := ctx.Err(); err != nil {
			return err
		}

		id := videoIDs[item.index]
		if chunkErr, ok := failed[id]; ok {
			report.AddError(item.index, item.row.URL, chunkErr.Error())
			r.metrics.RecordRow(item.platform.String(), "error")
			advance()
			continue
		}

		// Absent entries mean unknown stats, not failure.
		raw := stats[id]
		if raw == nil {
			raw = types.RawMetrics{}
		}
		r.persist(ctx, item, raw, report)
		advance()
	}
	return nil
}

func (r *Runner) processDirect(ctx context.Context, item workItem, report *types.Report) {
	fetchStart := time.Now()
	raw, err := r.dispatcher.Dispatch(ctx, item.platform, item.row.URL)
	if err != nil {
		r.metrics.RecordFetch("dispatch", "error", time.Since(fetchStart))
		report.AddError(item.index, item.row.URL, err.Error())
		r.metrics.RecordRow(item.platform.String(), "error")
		return
	}
	r.metrics.RecordFetch("dispatch", "success", time.Since(fetchStart))

	r.persist(ctx, item, raw, report)
}

func (r *Runner) persist(ctx context.Context, item workItem, raw types.RawMetrics, report *types.Report) {
	result := normalize.Normalize(item.platform, item.row.URL, raw,
		item.row.Creator, item.row.CampaignID, item.postedAt)

	if _, err := r.store.Upsert(ctx, result); err != nil {
		r.metrics.RecordUpsert(r.backend, "error")
		report.AddError(item.index, item.row.URL, err.Error())
		r.metrics.RecordRow(item.platform.String(), "error")
		return
	}
	r.metrics.RecordUpsert(r.backend, "success")
	r.metrics.RecordRow(item.platform.String(), "written")
	report.Written++
}

func fetchResult(errorCount int) string {
	if errorCount > 0 {
		return "error"
	}
	return "success"
}

// postedAtLayouts covers the date shapes seen in weekly link sheets.
var postedAtLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006/01/02",
}

func parsePostedAt(value string, logger Logger) *time.Time {
	if value == "" {
		return nil
	}
	for _, layout := range postedAtLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			t = t.UTC()
			return &t
		}
	}
	logger.Warnf("unparseable posted_at %q, leaving empty", value)
	return nil
}
