package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/flixpense/expense-ledger-go/internal/domain"
	"github.com/flixpense/expense-ledger-go/internal/infra/observability"
	"github.com/flixpense/expense-ledger-go/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var tracer = otel.Tracer("ledger")

// Repository owns the ledger document in the key-value store. All
// mutation goes through a single mutex: the store has no transactions,
// so concurrent read-modify-write cycles would drop records.
type Repository struct {
	store     port.KVStore
	keys      domain.StorageKeys
	maxAmount float64
	metrics   *observability.Metrics
	logger    *zap.Logger

	mu    sync.Mutex
	group singleflight.Group
}

// NewRepository creates a ledger repository. maxAmount <= 0 falls back
// to the default cap.
func NewRepository(store port.KVStore, keys domain.StorageKeys, maxAmount float64, metrics *observability.Metrics, logger *zap.Logger) *Repository {
	if maxAmount <= 0 {
		maxAmount = domain.DefaultMaxAmount
	}
	return &Repository{
		store:     store,
		keys:      keys,
		maxAmount: maxAmount,
		metrics:   metrics,
		logger:    logger,
	}
}

// NewRecord builds a record for the given input, stamping the owner
// identity and the current instant. The ID couples a millisecond
// timestamp with a random tail so records created in the same
// millisecond stay distinct.
func NewRecord(category, note string, amount float64, owner domain.OwnerIdentity) domain.ExpenseRecord {
	now := time.Now()
	return domain.ExpenseRecord{
		ID:         fmt.Sprintf("%d-%s", now.UnixMilli(), uuid.NewString()[:8]),
		Category:   category,
		Note:       note,
		Amount:     amount,
		Date:       now.Format(time.RFC3339),
		Owner:      owner.Stamp(),
		OwnerPhoto: owner.Photo,
	}
}

// LoadAll returns every record in the ledger, newest first. An absent
// key yields an empty slice. A store failure or an undecodable payload
// also yields an empty slice: the ledger behaves as empty rather than
// blocking every downstream screen, and the condition is logged and
// counted instead.
func (r *Repository) LoadAll(ctx context.Context) []domain.ExpenseRecord {
	ctx, span := tracer.Start(ctx, "Repository.LoadAll")
	defer span.End()

	start := time.Now()
	defer func() { r.metrics.RecordOpDuration("load_all", time.Since(start)) }()

	// Concurrent loads collapse into one fetch; everyone gets the
	// same decoded slice. The fetch is detached from the first
	// caller's cancellation so coalesced callers do not inherit it.
	fetchCtx := context.WithoutCancel(ctx)
	v, _, _ := r.group.Do(r.keys.Ledger, func() (any, error) {
		records, migrated := r.load(fetchCtx)
		if migrated {
			r.rewriteLegacy(fetchCtx)
		}
		return records, nil
	})
	records := v.([]domain.ExpenseRecord)

	span.SetAttributes(attribute.Int("ledger.records", len(records)))
	r.metrics.ObserveLoadSize(len(records))
	return records
}

// load reads and decodes the ledger payload. migrated reports a legacy
// payload that should be rewritten in the current shape. LoadAll
// callers share the result via the singleflight group; Append calls it
// directly under the write mutex.
func (r *Repository) load(ctx context.Context) (records []domain.ExpenseRecord, migrated bool) {
	payload, ok, err := r.store.Get(ctx, r.keys.Ledger)
	if err != nil {
		r.metrics.IncrStorageError("read")
		r.logger.Warn("ledger read failed, treating as empty",
			zap.String("key", r.keys.Ledger),
			zap.Error(err),
		)
		return []domain.ExpenseRecord{}, false
	}
	if !ok {
		return []domain.ExpenseRecord{}, false
	}

	records, migrated, err = Decode(payload)
	if err != nil {
		r.metrics.IncrStorageError("read")
		r.logger.Warn("ledger payload undecodable, treating as empty",
			zap.String("key", r.keys.Ledger),
			zap.Error(err),
		)
		return []domain.ExpenseRecord{}, false
	}

	return records, migrated
}

// rewriteLegacy persists a legacy payload in the current envelope
// shape. It re-reads under the write mutex, so an append that slipped
// in between the load and the rewrite is never overwritten. Best
// effort: the migrated slice already served the caller, and the next
// append rewrites the document anyway.
func (r *Repository) rewriteLegacy(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, migrated := r.load(ctx)
	if !migrated {
		return
	}

	encoded, err := Encode(records)
	if err != nil {
		return
	}
	if err := r.store.Set(ctx, r.keys.Ledger, encoded); err != nil {
		r.metrics.IncrStorageError("write")
		r.logger.Warn("legacy ledger rewrite failed",
			zap.String("key", r.keys.Ledger),
			zap.Error(err),
		)
		return
	}

	r.logger.Info("migrated legacy ledger payload",
		zap.Int("records", len(records)),
	)
}

// Append validates rec and writes it at the head of the ledger, so a
// plain load already returns newest-first. Validation failures leave
// the stored document untouched.
func (r *Repository) Append(ctx context.Context, rec domain.ExpenseRecord) error {
	ctx, span := tracer.Start(ctx, "Repository.Append")
	defer span.End()
	span.SetAttributes(
		attribute.String("record.id", rec.ID),
		attribute.String("record.category", rec.Category),
	)

	start := time.Now()
	defer func() { r.metrics.RecordOpDuration("append", time.Since(start)) }()

	if err := r.validate(rec); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	records, _ := r.load(ctx)
	updated := make([]domain.ExpenseRecord, 0, len(records)+1)
	updated = append(updated, rec)
	updated = append(updated, records...)

	encoded, err := Encode(updated)
	if err != nil {
		return &domain.ErrStorageWrite{Key: r.keys.Ledger, Err: err}
	}
	if err := r.store.Set(ctx, r.keys.Ledger, encoded); err != nil {
		r.metrics.IncrStorageError("write")
		r.logger.Error("ledger append failed",
			zap.String("key", r.keys.Ledger),
			zap.String("record_id", rec.ID),
			zap.Error(err),
		)
		return &domain.ErrStorageWrite{Key: r.keys.Ledger, Err: err}
	}

	r.metrics.IncrRecordAppended()
	r.logger.Info("record appended",
		zap.String("record_id", rec.ID),
		zap.String("category", rec.Category),
		zap.Int("ledger_size", len(updated)),
	)
	return nil
}

// ClearAll removes the ledger document entirely.
func (r *Repository) ClearAll(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Repository.ClearAll")
	defer span.End()

	start := time.Now()
	defer func() { r.metrics.RecordOpDuration("clear_all", time.Since(start)) }()

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.store.Remove(ctx, r.keys.Ledger); err != nil {
		r.metrics.IncrStorageError("write")
		r.logger.Error("ledger clear failed",
			zap.String("key", r.keys.Ledger),
			zap.Error(err),
		)
		return &domain.ErrStorageWrite{Key: r.keys.Ledger, Err: err}
	}

	r.logger.Info("ledger cleared", zap.String("key", r.keys.Ledger))
	return nil
}

func (r *Repository) validate(rec domain.ExpenseRecord) error {
	fail := func(field, msg string) error {
		r.metrics.IncrValidationFailure(field)
		return &domain.ErrValidation{Field: field, Message: msg}
	}

	if rec.Amount <= 0 {
		return fail("amount", "must be greater than zero")
	}
	if rec.Amount > r.maxAmount {
		return fail("amount", fmt.Sprintf("exceeds maximum of %.0f", r.maxAmount))
	}
	if !domain.IsKnownCategory(rec.Category) {
		return fail("category", fmt.Sprintf("unknown category %q", rec.Category))
	}
	if rec.Owner == "" {
		return fail("owner", "record has no owner stamp")
	}
	if _, err := rec.Time(); err != nil {
		return fail("date", "not a recognized timestamp")
	}
	return nil
}
