// Package service wires the ledger core together behind screen-shaped
// operations: one method per thing the app's screens do.
package service

import (
	"context"
	"time"

	"github.com/flixpense/expense-ledger-go/internal/aggregate"
	"github.com/flixpense/expense-ledger-go/internal/domain"
	"github.com/flixpense/expense-ledger-go/internal/infra/observability"
	"github.com/flixpense/expense-ledger-go/internal/ledger"
	"github.com/flixpense/expense-ledger-go/internal/port"
	"github.com/flixpense/expense-ledger-go/internal/query"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("ledger-service")

// HistoryView is the expense history screen's data: the filtered
// records plus their day sections, newest first.
type HistoryView struct {
	Owner    domain.OwnerIdentity
	Records  []domain.ExpenseRecord
	Sections []query.Section
}

// CategoryView is one category's detail screen: its records and total.
type CategoryView struct {
	Category string
	Records  []domain.ExpenseRecord
	Total    float64
}

// SummaryView feeds the summary tiles: per-category totals and the
// facet lists the filter screen offers.
type SummaryView struct {
	Totals     map[string]float64
	GrandTotal float64
	Categories []string
	Months     []string
}

// LedgerService orchestrates repository, query engine and aggregator
// for the screens. All reads are scoped to the signed-in owner.
type LedgerService struct {
	repo     *ledger.Repository
	identity port.IdentityReader
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewLedgerService creates the screen-facing service.
func NewLedgerService(repo *ledger.Repository, identity port.IdentityReader, metrics *observability.Metrics, logger *zap.Logger) *LedgerService {
	return &LedgerService{
		repo:     repo,
		identity: identity,
		metrics:  metrics,
		logger:   logger,
	}
}

// History returns the owner's records narrowed by spec, grouped by day.
func (s *LedgerService) History(ctx context.Context, spec domain.FilterSpec) (*HistoryView, error) {
	ctx, span := tracer.Start(ctx, "LedgerService.History")
	defer span.End()

	start := time.Now()
	defer func() { s.metrics.RecordOpDuration("history", time.Since(start)) }()

	owner, err := s.identity.Owner(ctx)
	if err != nil {
		return nil, err
	}

	records := query.Filter(s.repo.LoadAll(ctx), owner.Stamp(), spec)
	span.SetAttributes(attribute.Int("history.records", len(records)))

	return &HistoryView{
		Owner:    *owner,
		Records:  records,
		Sections: query.GroupByDate(records),
	}, nil
}

// CategoryDetail returns the owner's records in one category, with the
// remaining filter restrictions applied on top.
func (s *LedgerService) CategoryDetail(ctx context.Context, category string, spec domain.FilterSpec) (*CategoryView, error) {
	ctx, span := tracer.Start(ctx, "LedgerService.CategoryDetail")
	defer span.End()
	span.SetAttributes(attribute.String("category", category))

	start := time.Now()
	defer func() { s.metrics.RecordOpDuration("category_detail", time.Since(start)) }()

	owner, err := s.identity.Owner(ctx)
	if err != nil {
		return nil, err
	}

	spec.Categories = []string{category}
	records := query.Filter(s.repo.LoadAll(ctx), owner.Stamp(), spec)

	return &CategoryView{
		Category: category,
		Records:  records,
		Total:    aggregate.GrandTotal(records),
	}, nil
}

// Summary computes the owner's per-category totals and the facet lists.
func (s *LedgerService) Summary(ctx context.Context) (*SummaryView, error) {
	ctx, span := tracer.Start(ctx, "LedgerService.Summary")
	defer span.End()

	start := time.Now()
	defer func() { s.metrics.RecordOpDuration("summary", time.Since(start)) }()

	owner, err := s.identity.Owner(ctx)
	if err != nil {
		return nil, err
	}

	records := query.Filter(s.repo.LoadAll(ctx), owner.Stamp(), domain.FilterSpec{})

	return &SummaryView{
		Totals:     aggregate.TotalsByCategory(records),
		GrandTotal: aggregate.GrandTotal(records),
		Categories: aggregate.DistinctCategoriesPresent(records),
		Months:     query.DistinctMonths(records),
	}, nil
}

// SaveExpense builds a record stamped with the owner identity and
// appends it. Validation failures come back as *domain.ErrValidation,
// store failures as *domain.ErrStorageWrite.
func (s *LedgerService) SaveExpense(ctx context.Context, category, note string, amount float64) (*domain.ExpenseRecord, error) {
	ctx, span := tracer.Start(ctx, "LedgerService.SaveExpense")
	defer span.End()
	span.SetAttributes(
		attribute.String("category", category),
		attribute.Float64("amount", amount),
	)

	start := time.Now()
	defer func() { s.metrics.RecordOpDuration("save_expense", time.Since(start)) }()

	owner, err := s.identity.Owner(ctx)
	if err != nil {
		return nil, err
	}

	rec := ledger.NewRecord(category, note, amount, *owner)
	if err := s.repo.Append(ctx, rec); err != nil {
		return nil, err
	}

	s.logger.Info("expense saved",
		zap.String("record_id", rec.ID),
		zap.String("category", rec.Category),
	)
	return &rec, nil
}

// ClearHistory wipes the whole ledger. The confirmation dialog lives in
// the UI; this method does not second-guess the caller.
func (s *LedgerService) ClearHistory(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "LedgerService.ClearHistory")
	defer span.End()

	start := time.Now()
	defer func() { s.metrics.RecordOpDuration("clear_history", time.Since(start)) }()

	if err := s.repo.ClearAll(ctx); err != nil {
		return err
	}
	s.logger.Info("expense history cleared")
	return nil
}
