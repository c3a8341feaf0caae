package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/flixpense/expense-ledger-go/internal/handler"
	"github.com/flixpense/expense-ledger-go/internal/infra/kvstore"
	"github.com/flixpense/expense-ledger-go/internal/infra/observability"

	"go.uber.org/zap"
)

// downStore fails everything, simulating an unreachable backend.
type downStore struct{}

func (downStore) Get(ctx context.Context, key string) (string, bool, error) {
	return "", false, errors.New("store down")
}
func (downStore) Set(ctx context.Context, key, value string) error { return errors.New("store down") }
func (downStore) Remove(ctx context.Context, key string) error     { return errors.New("store down") }

func newOpsServer(t *testing.T, healthy bool) *httptest.Server {
	t.Helper()
	metrics := observability.NewMetrics()

	var router http.Handler
	if healthy {
		router = handler.NewOpsRouter(kvstore.NewMemory(), metrics, zap.NewNop())
	} else {
		router = handler.NewOpsRouter(downStore{}, metrics, zap.NewNop())
	}

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func TestHealthzHealthy(t *testing.T) {
	srv := newOpsServer(t, true)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("expected healthy, got %v", body["status"])
	}
}

func TestHealthzDegradedStore(t *testing.T) {
	srv := newOpsServer(t, false)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", resp.StatusCode)
	}
}

func TestReadyz(t *testing.T) {
	srv := newOpsServer(t, true)

	resp, err := http.Get(srv.URL + "/readyz")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newOpsServer(t, true)

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestLedgerStats(t *testing.T) {
	metrics := observability.NewMetrics()
	metrics.IncrRecordAppended()
	metrics.IncrRecordAppended()
	metrics.IncrSnapshotSave("ok")

	srv := httptest.NewServer(handler.NewOpsRouter(kvstore.NewMemory(), metrics, zap.NewNop()))
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/v1/stats/ledger")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		RecordsAppended int64 `json:"records_appended"`
		SnapshotSaves   int64 `json:"snapshot_saves"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body.RecordsAppended != 2 || body.SnapshotSaves != 1 {
		t.Errorf("stats wrong: %+v", body)
	}
}
