package infra

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveStage("detect", time.Now(), nil)
	m.IncJob("done")
	m.RecordPass("ok")
	if m.Registry() != nil {
		t.Fatal("expected nil registry")
	}
}

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics()
	m.RecordPass("ok")
	m.RecordPass("ok")
	m.RecordPass("skipped")
	m.IncJob("failed")
	m.ObserveStage("segment", time.Now(), errors.New("boom"))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	for _, want := range []string{
		`artistry_inpaint_passes_total{outcome="ok"} 2`,
		`artistry_inpaint_passes_total{outcome="skipped"} 1`,
		`artistry_jobs_total{status="failed"} 1`,
		`artistry_stage_duration_seconds_count{outcome="error",stage="segment"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics output missing %q", want)
		}
	}
}
