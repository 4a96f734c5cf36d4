// internal/monitoring/monitoring_test.go
package monitoring

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"
)

func TestMetricsManagerRecordsCounters(t *testing.T) {
	mm := NewMetricsManager(MetricsConfig{Namespace: "test"})

	mm.RecordRow("youtube", "written")
	mm.RecordRow("youtube", "written")
	mm.RecordRow("tiktok", "error")
	mm.RecordFetch("api", "success", 120*time.Millisecond)
	mm.RecordChunk("success")
	mm.RecordUpsert("sqlite", "success")
	mm.RecordRun("completed", time.Second)

	families, err := mm.Registry().Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}

	found := map[string]bool{}
	for _, f := range families {
		found[f.GetName()] = true
	}
	for _, name := range []string{
		"test_rows_processed_total",
		"test_fetch_requests_total",
		"test_fetch_duration_seconds",
		"test_batch_chunks_total",
		"test_store_upserts_total",
		"test_runs_total",
		"test_run_duration_seconds",
	} {
		if !found[name] {
			t.Errorf("metric %s not registered", name)
		}
	}
}

func TestMetricsManagerNilSafe(t *testing.T) {
	var mm *MetricsManager
	mm.RecordRow("youtube", "written")
	mm.RecordFetch("page", "error", time.Second)
	mm.RecordChunk("error")
	mm.RecordUpsert("memory", "error")
	mm.RecordRun("completed", time.Second)
}

func TestMetricsHandlerServesTextFormat(t *testing.T) {
	mm := NewMetricsManager(MetricsConfig{})
	mm.RecordRow("youtube", "written")

	rec := httptest.NewRecorder()
	mm.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.Len() == 0 {
		t.Error("expected a non-empty metrics body")
	}
}

func TestHealthManagerAllHealthy(t *testing.T) {
	hm := NewHealthManager()
	hm.RegisterCheck("store", func(ctx context.Context) error { return nil })

	health := hm.Check(context.Background())
	if health.Status != HealthStatusHealthy {
		t.Errorf("expected healthy, got %s", health.Status)
	}
	if len(health.Checks) != 1 || health.Checks[0].Name != "store" {
		t.Errorf("unexpected checks: %+v", health.Checks)
	}
}

func TestHealthManagerFailingCheck(t *testing.T) {
	hm := NewHealthManager()
	hm.RegisterCheck("store", func(ctx context.Context) error { return nil })
	hm.RegisterCheck("broken", func(ctx context.Context) error { return errors.New("connection refused") })

	health := hm.Check(context.Background())
	if health.Status != HealthStatusUnhealthy {
		t.Errorf("expected unhealthy, got %s", health.Status)
	}

	rec := httptest.NewRecorder()
	hm.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
	if rec.Code != 503 {
		t.Errorf("expected 503 for unhealthy system, got %d", rec.Code)
	}
}
