package ledger_test

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/flixpense/expense-ledger-go/internal/domain"
	"github.com/flixpense/expense-ledger-go/internal/infra/kvstore"
	"github.com/flixpense/expense-ledger-go/internal/infra/observability"
	"github.com/flixpense/expense-ledger-go/internal/ledger"

	"go.uber.org/zap"
)

// faultyStore wraps a real store and fails selected operations.
type faultyStore struct {
	inner    *kvstore.Memory
	failGet  bool
	failSet  bool
	failDrop bool
}

func (f *faultyStore) Get(ctx context.Context, key string) (string, bool, error) {
	if f.failGet {
		return "", false, errors.New("store unavailable")
	}
	return f.inner.Get(ctx, key)
}

func (f *faultyStore) Set(ctx context.Context, key, value string) error {
	if f.failSet {
		return errors.New("store unavailable")
	}
	return f.inner.Set(ctx, key, value)
}

func (f *faultyStore) Remove(ctx context.Context, key string) error {
	if f.failDrop {
		return errors.New("store unavailable")
	}
	return f.inner.Remove(ctx, key)
}

func newRepo(t *testing.T) (*ledger.Repository, *kvstore.Memory) {
	t.Helper()
	store := kvstore.NewMemory()
	repo := ledger.NewRepository(store, domain.DefaultStorageKeys(), 0, observability.NewMetrics(), zap.NewNop())
	return repo, store
}

func record(id, category string, amount float64) domain.ExpenseRecord {
	return domain.ExpenseRecord{
		ID:       id,
		Category: category,
		Amount:   amount,
		Date:     time.Now().Format(time.RFC3339),
		Owner:    "a@b.com",
	}
}

func TestAppendAndLoadNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo, _ := newRepo(t)

	if err := repo.Append(ctx, record("1", "Food", 12.5)); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if err := repo.Append(ctx, record("2", "Fuel", 40)); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	records := repo.LoadAll(ctx)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].ID != "2" || records[1].ID != "1" {
		t.Errorf("expected newest first, got %s then %s", records[0].ID, records[1].ID)
	}
}

func TestLoadAllEmptyLedger(t *testing.T) {
	repo, _ := newRepo(t)
	records := repo.LoadAll(context.Background())
	if records == nil || len(records) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", records)
	}
}

func TestAppendValidation(t *testing.T) {
	ctx := context.Background()
	repo, _ := newRepo(t)

	cases := []struct {
		name  string
		rec   domain.ExpenseRecord
		field string
	}{
		{"zero amount", record("1", "Food", 0), "amount"},
		{"negative amount", record("1", "Food", -5), "amount"},
		{"over cap", record("1", "Food", 100000), "amount"},
		{"unknown category", record("1", "Lottery", 10), "category"},
		{"no owner", domain.ExpenseRecord{ID: "1", Category: "Food", Amount: 10, Date: time.Now().Format(time.RFC3339)}, "owner"},
		{"bad date", domain.ExpenseRecord{ID: "1", Category: "Food", Amount: 10, Date: "yesterday", Owner: "a@b.com"}, "date"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := repo.Append(ctx, tc.rec)
			var vErr *domain.ErrValidation
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			if vErr.Field != tc.field {
				t.Errorf("expected field %q, got %q", tc.field, vErr.Field)
			}
		})
	}

	// Rejected appends must leave the ledger untouched.
	if records := repo.LoadAll(ctx); len(records) != 0 {
		t.Errorf("validation failures wrote to the ledger: %d records", len(records))
	}
}

func TestAppendCapBoundary(t *testing.T) {
	ctx := context.Background()
	repo, _ := newRepo(t)

	if err := repo.Append(ctx, record("1", "Food", domain.DefaultMaxAmount)); err != nil {
		t.Errorf("amount equal to the cap must be accepted: %v", err)
	}
}

func TestAppendSurfacesWriteFailure(t *testing.T) {
	store := &faultyStore{inner: kvstore.NewMemory(), failSet: true}
	repo := ledger.NewRepository(store, domain.DefaultStorageKeys(), 0, observability.NewMetrics(), zap.NewNop())

	err := repo.Append(context.Background(), record("1", "Food", 10))
	var wErr *domain.ErrStorageWrite
	if !errors.As(err, &wErr) {
		t.Fatalf("expected ErrStorageWrite, got %v", err)
	}
}

func TestLoadAllSwallowsReadFailure(t *testing.T) {
	store := &faultyStore{inner: kvstore.NewMemory(), failGet: true}
	repo := ledger.NewRepository(store, domain.DefaultStorageKeys(), 0, observability.NewMetrics(), zap.NewNop())

	records := repo.LoadAll(context.Background())
	if len(records) != 0 {
		t.Errorf("expected empty ledger on read failure, got %d records", len(records))
	}
}

func TestLoadAllSwallowsCorruptPayload(t *testing.T) {
	ctx := context.Background()
	repo, store := newRepo(t)

	_ = store.Set(ctx, domain.DefaultStorageKeys().Ledger, "{{{ not json")
	if records := repo.LoadAll(ctx); len(records) != 0 {
		t.Errorf("expected empty ledger on corrupt payload, got %d records", len(records))
	}
}

func TestLoadAllMigratesLegacyPayload(t *testing.T) {
	ctx := context.Background()
	repo, store := newRepo(t)
	keys := domain.DefaultStorageKeys()

	legacy := `[{"id":"1","title":"Food","subtitle":"pizza","amount":18.75,
		"date":"2024-03-01T10:00:00Z","type":"Food","user":"a@b.com","userPhoto":""}]`
	_ = store.Set(ctx, keys.Ledger, legacy)

	records := repo.LoadAll(ctx)
	if len(records) != 1 || records[0].Category != "Food" || records[0].Note != "pizza" {
		t.Fatalf("legacy payload not migrated: %+v", records)
	}

	// The stored document must now carry the envelope.
	stored, ok, err := store.Get(ctx, keys.Ledger)
	if err != nil || !ok {
		t.Fatalf("ledger key missing after migration: ok=%v err=%v", ok, err)
	}
	decoded, migrated, err := ledger.Decode(stored)
	if err != nil || migrated {
		t.Fatalf("rewritten payload should be an envelope: migrated=%v err=%v", migrated, err)
	}
	if len(decoded) != 1 {
		t.Errorf("rewritten payload lost records: %d", len(decoded))
	}
}

// gatedStore blocks the first Set call until gate is closed and
// signals entered once a writer is parked there.
type gatedStore struct {
	*kvstore.Memory
	mu      sync.Mutex
	first   bool
	entered chan struct{}
	gate    chan struct{}
}

func (g *gatedStore) Set(ctx context.Context, key, value string) error {
	g.mu.Lock()
	block := !g.first
	g.first = true
	g.mu.Unlock()

	if block {
		close(g.entered)
		<-g.gate
	}
	return g.Memory.Set(ctx, key, value)
}

func TestLegacyRewriteKeepsConcurrentAppend(t *testing.T) {
	ctx := context.Background()
	store := &gatedStore{
		Memory:  kvstore.NewMemory(),
		entered: make(chan struct{}),
		gate:    make(chan struct{}),
	}
	keys := domain.DefaultStorageKeys()

	legacy := `[{"id":"old-1","title":"Food","subtitle":"pizza","amount":18.75,
		"date":"2024-03-01T10:00:00Z","type":"Food","user":"a@b.com","userPhoto":""}]`
	_ = store.Memory.Set(ctx, keys.Ledger, legacy)

	repo := ledger.NewRepository(store, keys, 0, observability.NewMetrics(), zap.NewNop())

	// LoadAll sees the legacy payload and starts the rewrite, which
	// parks on the gated write.
	loaded := make(chan []domain.ExpenseRecord, 1)
	go func() { loaded <- repo.LoadAll(ctx) }()
	<-store.entered

	// An append racing the rewrite must survive it.
	appended := make(chan error, 1)
	go func() { appended <- repo.Append(ctx, record("new-1", "Fuel", 40)) }()

	time.Sleep(20 * time.Millisecond)
	close(store.gate)

	if err := <-appended; err != nil {
		t.Fatalf("append failed: %v", err)
	}
	<-loaded

	records := repo.LoadAll(ctx)
	byID := map[string]bool{}
	for _, r := range records {
		byID[r.ID] = true
	}
	if !byID["new-1"] {
		t.Fatalf("append lost to migration rewrite; ledger=%d records", len(records))
	}
	if !byID["old-1"] {
		t.Fatalf("migrated record lost; ledger=%d records", len(records))
	}
}

func TestLoadAllIdempotent(t *testing.T) {
	ctx := context.Background()
	repo, _ := newRepo(t)

	_ = repo.Append(ctx, record("1", "Food", 12.5))
	_ = repo.Append(ctx, record("2", "Fuel", 40))

	first := repo.LoadAll(ctx)
	second := repo.LoadAll(ctx)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("consecutive loads differ:\n%+v\n%+v", first, second)
	}
}

func TestLoadAllDetachedFromCallerCancellation(t *testing.T) {
	repo, store := newRepo(t)
	_ = store.Set(context.Background(), domain.DefaultStorageKeys().Ledger, `{"schema":1,"records":[{"id":"1","category":"Food","amount":10,"date":"2024-03-01T10:00:00Z","owner":"a@b.com"}]}`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// A cancelled caller context must not turn the shared fetch into
	// an empty result for coalesced callers.
	if records := repo.LoadAll(ctx); len(records) != 1 {
		t.Errorf("expected 1 record despite cancelled caller, got %d", len(records))
	}
}

func TestClearAll(t *testing.T) {
	ctx := context.Background()
	repo, store := newRepo(t)

	_ = repo.Append(ctx, record("1", "Food", 10))
	if err := repo.ClearAll(ctx); err != nil {
		t.Fatalf("clear failed: %v", err)
	}

	if _, ok, _ := store.Get(ctx, domain.DefaultStorageKeys().Ledger); ok {
		t.Error("ledger key still present after clear")
	}
	if records := repo.LoadAll(ctx); len(records) != 0 {
		t.Errorf("expected empty ledger after clear, got %d records", len(records))
	}
}

func TestNewRecordStampsOwner(t *testing.T) {
	owner := domain.OwnerIdentity{Name: "Ada", Email: "ada@b.com", Photo: "https://p/ada.png"}
	rec := ledger.NewRecord("Food", "lunch", 12.5, owner)

	if rec.Owner != "ada@b.com" {
		t.Errorf("expected email stamp, got %q", rec.Owner)
	}
	if rec.OwnerPhoto != "https://p/ada.png" {
		t.Errorf("photo not carried: %q", rec.OwnerPhoto)
	}
	if rec.ID == "" || rec.Date == "" {
		t.Errorf("record missing id or date: %+v", rec)
	}
	if _, err := rec.Time(); err != nil {
		t.Errorf("generated date not parseable: %v", err)
	}
}

func TestNewRecordIDsDistinct(t *testing.T) {
	owner := domain.OwnerIdentity{Email: "a@b.com"}
	a := ledger.NewRecord("Food", "", 1, owner)
	b := ledger.NewRecord("Food", "", 1, owner)
	if a.ID == b.ID {
		t.Errorf("two records share ID %s", a.ID)
	}
}

func TestAppendConcurrentWritersLoseNothing(t *testing.T) {
	ctx := context.Background()
	repo, _ := newRepo(t)

	const writers = 8
	done := make(chan error, writers)
	for i := 0; i < writers; i++ {
		go func(i int) {
			done <- repo.Append(ctx, record(string(rune('a'+i)), "Food", 10))
		}(i)
	}
	for i := 0; i < writers; i++ {
		if err := <-done; err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}

	if records := repo.LoadAll(ctx); len(records) != writers {
		t.Errorf("expected %d records, got %d", writers, len(records))
	}
}
