package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kypria/zeus/dbopen"
	"github.com/kypria/zeus/metrics"
	"github.com/kypria/zeus/store"
	_ "modernc.org/sqlite"
)

func testServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()
	st := store.NewStore(dbopen.OpenMemory(t, dbopen.WithSchema(store.Schema)))
	return NewServer(st, WithMetrics(metrics.New())), st
}

func get(t *testing.T, s *Server, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	var body map[string]any
	if strings.Contains(rec.Header().Get("Content-Type"), "json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
	}
	return rec, body
}

func TestHealthz(t *testing.T) {
	s, _ := testServer(t)
	rec, body := get(t, s, "/healthz")
	if rec.Code != http.StatusOK || body["status"] != "ok" {
		t.Errorf("healthz: %d %v", rec.Code, body)
	}
}

func TestStatus_WithRun(t *testing.T) {
	// WHAT: /api/status includes ledger stats and the newest run.
	s, st := testServer(t)
	ctx := context.Background()
	now := time.Now().UnixMilli()

	id, err := st.InsertRun(ctx, now)
	if err != nil {
		t.Fatalf("insert run: %v", err)
	}
	if err := st.CompleteRun(ctx, id, now+100, 3, 1, 0); err != nil {
		t.Fatalf("complete run: %v", err)
	}

	rec, body := get(t, s, "/api/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	run, ok := body["last_run"].(map[string]any)
	if !ok || run["status"] != store.RunStatusCompleted {
		t.Errorf("last_run = %v", body["last_run"])
	}
}

func TestHistory_EmptyAndPopulated(t *testing.T) {
	// WHAT: Unknown protocols yield an empty array, not null or 404.
	s, st := testServer(t)
	ctx := context.Background()

	rec, body := get(t, s, "/api/history/999")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if checks, ok := body["checks"].([]any); !ok || len(checks) != 0 {
		t.Errorf("checks = %v", body["checks"])
	}

	for i := 0; i < 3; i++ {
		if _, err := st.InsertCheck(ctx, &store.ProtocolCheck{
			ProtocolNumber: "214142", ContentHash: "h",
			CheckedAt: time.Now().UnixMilli() + int64(i),
		}); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	_, body = get(t, s, "/api/history/214142?limit=2")
	if checks := body["checks"].([]any); len(checks) != 2 {
		t.Errorf("limit ignored: %d rows", len(checks))
	}
}

func TestAlerts_FilterByProtocol(t *testing.T) {
	s, st := testServer(t)
	ctx := context.Background()
	for _, p := range []string{"a", "b"} {
		if _, err := st.InsertAlert(ctx, &store.Alert{
			ProtocolNumber: p, AlertType: store.AlertStatusChange,
			Severity: "INFO", Message: "m", CreatedAt: time.Now().UnixMilli(),
		}); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	_, body := get(t, s, "/api/alerts?protocol=a")
	alerts := body["alerts"].([]any)
	if len(alerts) != 1 {
		t.Fatalf("alerts = %v", alerts)
	}
	if alerts[0].(map[string]any)["protocol_number"] != "a" {
		t.Errorf("wrong protocol: %v", alerts[0])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Errorf("metrics endpoint: %d", rec.Code)
	}
}
