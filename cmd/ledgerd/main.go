package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/flixpense/expense-ledger-go/internal/config"
	"github.com/flixpense/expense-ledger-go/internal/domain"
	"github.com/flixpense/expense-ledger-go/internal/handler"
	"github.com/flixpense/expense-ledger-go/internal/identity"
	"github.com/flixpense/expense-ledger-go/internal/infra/cache"
	"github.com/flixpense/expense-ledger-go/internal/infra/kvstore"
	"github.com/flixpense/expense-ledger-go/internal/infra/observability"
	"github.com/flixpense/expense-ledger-go/internal/infra/resilience"
	"github.com/flixpense/expense-ledger-go/internal/ledger"
	"github.com/flixpense/expense-ledger-go/internal/port"
	"github.com/flixpense/expense-ledger-go/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("store_backend", cfg.StoreBackend),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Float64("max_amount", cfg.MaxAmount),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "expense-ledgerd")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Store backend ---
	store, err := buildStore(cfg, logger)
	if err != nil {
		logger.Fatal("failed to init store", zap.Error(err))
	}

	// --- Ledger core ---
	repo := ledger.NewRepository(store, cfg.Keys, cfg.MaxAmount, metrics, logger)

	identityCache := cache.New[*domain.OwnerIdentity](cfg.CacheTTL)
	identityReader := identity.NewReader(store, cfg.Keys, identityCache, metrics, logger)

	svc := service.NewLedgerService(repo, identityReader, metrics, logger)

	// Warm the ledger and report its shape; a failure here is not
	// fatal, it usually just means nobody has signed in yet.
	startupCtx, cancelWarm := context.WithTimeout(context.Background(), 5*time.Second)
	if summary, err := svc.Summary(startupCtx); err != nil {
		logger.Warn("ledger summary unavailable at startup", zap.Error(err))
	} else {
		logger.Info("ledger loaded",
			zap.Int("categories", len(summary.Categories)),
			zap.Float64("total", summary.GrandTotal),
		)
	}
	cancelWarm()

	// --- Ops router ---
	router := handler.NewOpsRouter(store, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("ops server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}

// buildStore selects the key-value backend from configuration.
func buildStore(cfg *config.Config, logger *zap.Logger) (port.KVStore, error) {
	switch cfg.StoreBackend {
	case "memory":
		logger.Info("using in-memory store")
		return kvstore.NewMemory(), nil

	case "file":
		var sealKey []byte
		if cfg.FileStoreKey != "" {
			key, err := hex.DecodeString(cfg.FileStoreKey)
			if err != nil {
				return nil, fmt.Errorf("FILE_STORE_KEY is not valid hex: %w", err)
			}
			sealKey = key
		}
		logger.Info("using file store",
			zap.String("dir", cfg.FileStoreDir),
			zap.Bool("sealed", sealKey != nil),
		)
		return kvstore.NewFile(cfg.FileStoreDir, sealKey)

	case "remote":
		if cfg.RemoteStoreURL == "" {
			return nil, fmt.Errorf("STORE_BACKEND=remote requires REMOTE_STORE_URL")
		}
		logger.Info("using remote store", zap.String("url", cfg.RemoteStoreURL))
		resilienceCfg := resilience.Config{
			MaxRetries:     cfg.MaxRetries,
			InitialBackoff: cfg.InitialBackoff,
			MaxConcurrency: cfg.MaxConcurrency,
		}
		return kvstore.NewRemote(
			&http.Client{Timeout: cfg.HTTPTimeout},
			cfg.RemoteStoreURL,
			cfg.RemoteStoreAPIKey,
			resilience.NewCircuitBreaker("remote-store"),
			resilienceCfg,
			resilience.NewBulkhead(cfg.MaxConcurrency),
			logger,
		), nil

	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}
}
