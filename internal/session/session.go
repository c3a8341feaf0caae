// Package session models one visit to the filter screen: a short-lived
// edit buffer over a FilterSpec that ends in a single Apply.
package session

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/flixpense/expense-ledger-go/internal/domain"
	"github.com/flixpense/expense-ledger-go/internal/infra/observability"
	"github.com/flixpense/expense-ledger-go/internal/port"

	"go.uber.org/zap"
)

// State is the session's lifecycle phase.
type State int

const (
	// Editing accepts facet toggles and search/sort changes.
	Editing State = iota
	// Applied is terminal; the selection has been handed off.
	Applied
)

// Session accumulates filter edits and commits them atomically on
// Apply. A session is for one screen visit; build a new one per visit.
type Session struct {
	store   port.KVStore
	keys    domain.StorageKeys
	page    string
	onApply func(domain.FilterSpec)
	metrics *observability.Metrics
	logger  *zap.Logger

	mu    sync.Mutex
	state State
	spec  domain.FilterSpec
}

// New opens an editing session. A non-nil seed wins; otherwise the
// persisted snapshot from a previous visit to the same page is
// restored. Snapshot read or decode failures just start the session
// empty, matching a first visit.
func New(ctx context.Context, store port.KVStore, keys domain.StorageKeys, page string, seed *domain.FilterSpec, onApply func(domain.FilterSpec), metrics *observability.Metrics, logger *zap.Logger) *Session {
	s := &Session{
		store:   store,
		keys:    keys,
		page:    page,
		onApply: onApply,
		metrics: metrics,
		logger:  logger,
		state:   Editing,
	}

	if seed != nil {
		s.spec = *seed
		return s
	}

	payload, ok, err := store.Get(ctx, keys.FilterSnapshot)
	if err != nil {
		metrics.IncrStorageError("read")
		logger.Warn("filter snapshot read failed, starting empty",
			zap.String("key", keys.FilterSnapshot),
			zap.Error(err),
		)
		return s
	}
	if !ok {
		return s
	}

	var snap domain.FilterSnapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		logger.Warn("filter snapshot undecodable, starting empty",
			zap.String("key", keys.FilterSnapshot),
			zap.Error(err),
		)
		return s
	}

	s.spec.Months = snap.SelectedMonths
	s.spec.Categories = snap.SelectedCategories
	return s
}

// State returns the session's current phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Spec returns a copy of the selection as currently edited.
func (s *Session) Spec() domain.FilterSpec {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.spec
}

// ToggleMonth adds label to the month facet, or removes it when
// already selected. No-op after Apply.
func (s *Session) ToggleMonth(label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Editing {
		return
	}
	s.spec.Months = toggle(s.spec.Months, label)
}

// ToggleCategory adds label to the category facet, or removes it when
// already selected. No-op after Apply.
func (s *Session) ToggleCategory(label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Editing {
		return
	}
	s.spec.Categories = toggle(s.spec.Categories, label)
}

// SetSearch replaces the free-text term. No-op after Apply.
func (s *Session) SetSearch(term string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Editing {
		return
	}
	s.spec.Search = term
}

// SetSort replaces the sort direction. No-op after Apply.
func (s *Session) SetSort(dir domain.SortDirection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Editing {
		return
	}
	s.spec.Sort = dir
}

// Clear empties both facets and keeps the session in Editing, so the
// user can keep selecting or apply the unrestricted view.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Editing {
		return
	}
	s.spec.Months = nil
	s.spec.Categories = nil
}

// Cleared reports whether both facets are empty. An applied cleared
// session means the unrestricted history.
func (s *Session) Cleared() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.spec.Months) == 0 && len(s.spec.Categories) == 0
}

// Apply hands the final selection to the registered callback, persists
// it as the page's snapshot, and closes the session. Snapshot persist
// failures are logged and counted but never block the apply; losing a
// saved filter is acceptable, losing the screen transition is not.
func (s *Session) Apply(ctx context.Context) domain.FilterSpec {
	s.mu.Lock()
	if s.state != Editing {
		spec := s.spec
		s.mu.Unlock()
		return spec
	}
	s.state = Applied
	spec := s.spec
	s.mu.Unlock()

	if s.onApply != nil {
		s.onApply(spec)
	}

	snap := domain.FilterSnapshot{
		SelectedMonths:     spec.Months,
		SelectedCategories: spec.Categories,
		Page:               s.page,
	}
	payload, err := json.Marshal(snap)
	if err == nil {
		err = s.store.Set(ctx, s.keys.FilterSnapshot, string(payload))
	}
	if err != nil {
		s.metrics.IncrSnapshotSave("error")
		s.logger.Warn("filter snapshot persist failed",
			zap.String("key", s.keys.FilterSnapshot),
			zap.String("page", s.page),
			zap.Error(err),
		)
	} else {
		s.metrics.IncrSnapshotSave("ok")
	}

	return spec
}

func toggle(list []string, label string) []string {
	for i, v := range list {
		if v == label {
			return append(list[:i:i], list[i+1:]...)
		}
	}
	return append(list, label)
}
