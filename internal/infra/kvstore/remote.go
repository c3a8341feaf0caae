package kvstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/flixpense/expense-ledger-go/internal/domain"
	"github.com/flixpense/expense-ledger-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("kvstore")

// Remote talks to an HTTP key-value service. Values travel as opaque
// request/response bodies under /kv/v1/{key}.
type Remote struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
	bulkhead   *resilience.Bulkhead
	logger     *zap.Logger
}

// NewRemote creates a remote key-value store client.
func NewRemote(httpClient *http.Client, baseURL, apiKey string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, bulkhead *resilience.Bulkhead, logger *zap.Logger) *Remote {
	return &Remote{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
		cb:         cb,
		cfg:        cfg,
		bulkhead:   bulkhead,
		logger:     logger,
	}
}

// doRequest executes an authenticated request against the store.
// A nil body with no error means the key does not exist.
func (r *Remote) doRequest(ctx context.Context, method, key string, payload []byte) ([]byte, error) {
	u := fmt.Sprintf("%s/kv/v1/%s", r.baseURL, url.PathEscape(key))

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		r.logger.Error("kvstore: failed to create request",
			zap.String("method", method),
			zap.String("key", key),
			zap.Error(err),
		)
		return nil, err
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", r.apiKey))
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		r.logger.Error("kvstore: request failed",
			zap.String("method", method),
			zap.String("key", key),
			zap.Error(err),
		)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		r.logger.Error("kvstore: failed to read response body",
			zap.String("method", method),
			zap.String("key", key),
			zap.Error(err),
		)
		return nil, err
	}

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusNoContent {
		return nil, nil // key absent
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		r.logger.Warn("kvstore: non-2xx response",
			zap.String("method", method),
			zap.String("key", key),
			zap.Int("status", resp.StatusCode),
		)
		return nil, fmt.Errorf("remote store returned status %d: %s", resp.StatusCode, string(body))
	}

	r.logger.Debug("kvstore: request OK",
		zap.String("method", method),
		zap.String("key", key),
		zap.Int("status", resp.StatusCode),
	)

	return body, nil
}

// execute runs fn behind the bulkhead, circuit breaker and retry policy.
func (r *Remote) execute(ctx context.Context, fn func() error) error {
	if err := r.bulkhead.Acquire(ctx); err != nil {
		return err
	}
	defer r.bulkhead.Release()

	_, err := r.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, r.cfg, fn)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &domain.ErrCircuitOpen{Service: "remote-store"}
	}
	return err
}

// Get fetches the value stored under key. ok is false when the key is absent.
func (r *Remote) Get(ctx context.Context, key string) (string, bool, error) {
	ctx, span := tracer.Start(ctx, "Remote.Get")
	defer span.End()
	span.SetAttributes(attribute.String("kv.key", key))

	var (
		value string
		found bool
	)

	err := r.execute(ctx, func() error {
		body, err := r.doRequest(ctx, http.MethodGet, key, nil)
		if err != nil {
			return err
		}
		if body == nil {
			found = false
			return nil
		}
		value = string(body)
		found = true
		return nil
	})
	if err != nil {
		return "", false, &domain.ErrStorageRead{Key: key, Err: err}
	}

	return value, found, nil
}

// Set writes value under key, creating or replacing it.
func (r *Remote) Set(ctx context.Context, key, value string) error {
	ctx, span := tracer.Start(ctx, "Remote.Set")
	defer span.End()
	span.SetAttributes(attribute.String("kv.key", key))

	err := r.execute(ctx, func() error {
		_, err := r.doRequest(ctx, http.MethodPut, key, []byte(value))
		return err
	})
	if err != nil {
		return &domain.ErrStorageWrite{Key: key, Err: err}
	}
	return nil
}

// Remove deletes key. Removing an absent key is not an error.
func (r *Remote) Remove(ctx context.Context, key string) error {
	ctx, span := tracer.Start(ctx, "Remote.Remove")
	defer span.End()
	span.SetAttributes(attribute.String("kv.key", key))

	err := r.execute(ctx, func() error {
		_, err := r.doRequest(ctx, http.MethodDelete, key, nil)
		return err
	})
	if err != nil {
		return &domain.ErrStorageWrite{Key: key, Err: err}
	}
	return nil
}
