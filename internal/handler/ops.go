// Package handler exposes the operational HTTP surface: health, readiness,
// Prometheus metrics and a ledger stats snapshot. The ledger operations
// themselves are in-process APIs and have no routes here.
package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/flixpense/expense-ledger-go/internal/infra/observability"
	"github.com/flixpense/expense-ledger-go/internal/port"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// probeKey is written and removed by the health check to verify the
// store accepts round trips.
const probeKey = "ledgerd-health-probe"

// NewOpsRouter creates the operational router.
func NewOpsRouter(store port.KVStore, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(store, logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/stats/ledger", ledgerStatsHandler(metrics))
	})

	return r
}

// healthzHandler round-trips a probe key through the store so the
// check reflects the backend, not just the process.
func healthzHandler(store port.KVStore, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		start := time.Now()

		status := "healthy"
		if err := store.Set(ctx, probeKey, time.Now().Format(time.RFC3339)); err != nil {
			status = "degraded"
			logger.Warn("health probe write failed", zap.Error(err))
		} else if _, ok, err := store.Get(ctx, probeKey); err != nil || !ok {
			status = "degraded"
			logger.Warn("health probe read failed", zap.Bool("found", ok), zap.Error(err))
		}
		_ = store.Remove(ctx, probeKey)

		code := http.StatusOK
		if status != "healthy" {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, map[string]any{
			"status":     status,
			"store":      status,
			"latency_ms": time.Since(start).Milliseconds(),
			"checked_at": time.Now().Format(time.RFC3339),
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func ledgerStatsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetLedgerStats())
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
