package httpapi

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/healthcheck/internal/domain"
	"github.com/hamed0406/healthcheck/internal/report"
)

// ---- test helpers ----

type fakeApps struct {
	rep     *report.AppReport
	history map[string][]domain.CheckResult
	err     error
}

func (f *fakeApps) Latest() (report.AppReport, bool) {
	if f.rep == nil {
		return report.AppReport{}, false
	}
	return *f.rep, true
}

func (f *fakeApps) History(_ context.Context, name string) ([]domain.CheckResult, bool, error) {
	if f.err != nil {
		return nil, true, f.err
	}
	h, ok := f.history[name]
	return h, ok, nil
}

type fakeSystem struct{ rep *report.SystemReport }

func (f *fakeSystem) Latest() (report.SystemReport, bool) {
	if f.rep == nil {
		return report.SystemReport{}, false
	}
	return *f.rep, true
}

var checkedAt = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newFakeApps() *fakeApps {
	return &fakeApps{
		rep: &report.AppReport{
			GeneratedAt: checkedAt,
			Summary:     report.AppSummary{Total: 1, Down: 1},
			Applications: []report.AppEntry{{
				Name: "API", URL: "https://api.example.com", CurrentStatus: domain.VerdictUnavailable,
				Message: "Request timeout after 5 seconds", Error: "TIMEOUT", UptimeWindowHours: 24,
			}},
		},
		history: map[string][]domain.CheckResult{
			"API": {{CheckedAt: checkedAt, TargetID: "api", Name: "API", Verdict: domain.VerdictUnavailable, Failure: domain.FailureTimeout}},
			"New": nil,
		},
	}
}

func do(t *testing.T, h http.Handler, path string, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = "192.0.2.1:4000"
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// ---- tests ----

func TestHealthz(t *testing.T) {
	h := NewServer(zap.NewNop(), nil, nil, nil).Router(Options{Keys: []string{"k"}})
	rec := do(t, h, "/healthz", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthz: %d %q", rec.Code, rec.Body.String())
	}
}

func TestReport(t *testing.T) {
	h := NewServer(zap.NewNop(), newFakeApps(), nil, nil).Router(Options{})
	rec := do(t, h, "/api/report", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type %q", ct)
	}

	var got map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	apps := got["applications"].([]any)
	first := apps[0].(map[string]any)
	if first["current_status"] != "DOWN" || first["error"] != "TIMEOUT" || first["status_code"] != nil {
		t.Fatalf("unexpected entry: %v", first)
	}
}

func TestReport_NoRunYet(t *testing.T) {
	h := NewServer(zap.NewNop(), &fakeApps{}, nil, nil).Router(Options{})
	if rec := do(t, h, "/api/report", nil); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("want 503 got %d", rec.Code)
	}
}

func TestHistory(t *testing.T) {
	h := NewServer(zap.NewNop(), newFakeApps(), nil, nil).Router(Options{})

	rec := do(t, h, "/api/results/API/history", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200 got %d", rec.Code)
	}
	var got []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0]["verdict"] != "DOWN" || got[0]["error"] != "TIMEOUT" {
		t.Fatalf("unexpected history: %v", got)
	}

	rec = do(t, h, "/api/results/New/history", nil)
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("empty history should be [], got %q", rec.Body.String())
	}

	if rec := do(t, h, "/api/results/Missing/history", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("want 404 got %d", rec.Code)
	}
}

func TestHistory_StoreError(t *testing.T) {
	apps := newFakeApps()
	apps.err = errors.New("boom")
	h := NewServer(zap.NewNop(), apps, nil, nil).Router(Options{})
	if rec := do(t, h, "/api/results/API/history", nil); rec.Code != http.StatusInternalServerError {
		t.Fatalf("want 500 got %d", rec.Code)
	}
}

func TestSystem(t *testing.T) {
	sys := &fakeSystem{rep: &report.SystemReport{
		GeneratedAt: checkedAt,
		Summary:     report.SystemSummary{Critical: 1},
		Metrics:     []domain.MetricResult{{Metric: "CPU", Value: 91.2, Threshold: 80, Unit: "%", Status: domain.StatusCritical}},
	}}
	h := NewServer(zap.NewNop(), nil, sys, nil).Router(Options{})

	rec := do(t, h, "/api/system", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"status":"CRITICAL"`) {
		t.Fatalf("system: %d %s", rec.Code, rec.Body.String())
	}
	if rec := do(t, h, "/api/report", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("apps routes should 404 without an app pipeline, got %d", rec.Code)
	}
}

func TestAPIKeyRequired(t *testing.T) {
	h := NewServer(zap.NewNop(), newFakeApps(), nil, nil).Router(Options{Keys: []string{"secret"}})

	if rec := do(t, h, "/api/report", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("want 401 got %d", rec.Code)
	}
	if rec := do(t, h, "/api/report", map[string]string{"Authorization": "Bearer secret"}); rec.Code != http.StatusOK {
		t.Fatalf("want 200 got %d", rec.Code)
	}
}

func TestRateLimited(t *testing.T) {
	h := NewServer(zap.NewNop(), newFakeApps(), nil, nil).Router(Options{ReqPerMin: 60, Burst: 1})

	if rec := do(t, h, "/api/report", nil); rec.Code != http.StatusOK {
		t.Fatalf("want 200 got %d", rec.Code)
	}
	if rec := do(t, h, "/api/report", nil); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("want 429 got %d", rec.Code)
	}
	// probes are never limited
	if rec := do(t, h, "/healthz", nil); rec.Code != http.StatusOK {
		t.Fatalf("healthz limited: %d", rec.Code)
	}
}

func TestMetricsAndGzip(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, strings.Repeat("healthcheck_last_exit_code 0\n", 200))
	})
	h := NewServer(zap.NewNop(), nil, nil, metrics).Router(Options{Keys: []string{"k"}})

	rec := do(t, h, "/metrics", map[string]string{"Accept-Encoding": "gzip"})
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200 got %d", rec.Code)
	}
	if rec.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("response not compressed: %v", rec.Header())
	}
	zr, err := gzip.NewReader(rec.Body)
	if err != nil {
		t.Fatalf("gzip: %v", err)
	}
	body, _ := io.ReadAll(zr)
	if !strings.HasPrefix(string(body), "healthcheck_last_exit_code 0") {
		t.Fatalf("unexpected body %q", body[:40])
	}
}

func TestListenAndServe_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- ListenAndServe(ctx, zap.NewNop(), "127.0.0.1:0", http.NotFoundHandler())
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("ListenAndServe: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}
