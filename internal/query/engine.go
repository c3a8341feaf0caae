package query

import (
	"sort"
	"strconv"
	"strings"

	"github.com/flixpense/expense-ledger-go/internal/domain"
)

// Filter narrows records to the given owner and FilterSpec. The input
// slice is never mutated; the result is a fresh slice in input order
// unless the spec requests an amount sort.
//
// Steps, in order: owner scoping, category facet, month facet,
// free-text search, sort.
func Filter(records []domain.ExpenseRecord, owner string, spec domain.FilterSpec) []domain.ExpenseRecord {
	out := make([]domain.ExpenseRecord, 0, len(records))
	for _, r := range records {
		if owner != "" && r.Owner != owner {
			continue
		}
		if !matchesCategories(r, spec.Categories) {
			continue
		}
		if !matchesMonths(r, spec.Months) {
			continue
		}
		if !matchesSearch(r, spec.Search) {
			continue
		}
		out = append(out, r)
	}

	sortByAmount(out, spec.Sort)
	return out
}

func matchesCategories(r domain.ExpenseRecord, categories []string) bool {
	if len(categories) == 0 {
		return true
	}
	for _, c := range categories {
		if r.Category == c {
			return true
		}
	}
	return false
}

func matchesMonths(r domain.ExpenseRecord, months []string) bool {
	if len(months) == 0 {
		return true
	}
	t, err := r.Time()
	if err != nil {
		return false
	}
	for _, m := range months {
		if monthMatches(m, t) {
			return true
		}
	}
	return false
}

// matchesSearch checks the free-text term against the category, the
// note, and the plain decimal rendering of the amount, so typing "12.5"
// finds a 12.50 expense.
func matchesSearch(r domain.ExpenseRecord, term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	if strings.Contains(strings.ToLower(r.Category), term) {
		return true
	}
	if strings.Contains(strings.ToLower(r.Note), term) {
		return true
	}
	amount := strconv.FormatFloat(r.Amount, 'f', -1, 64)
	return strings.Contains(amount, term)
}

// sortByAmount orders records by amount. The sort is stable so records
// with equal amounts keep their newest-first ledger order.
func sortByAmount(records []domain.ExpenseRecord, dir domain.SortDirection) {
	switch dir {
	case domain.SortAscending:
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].Amount < records[j].Amount
		})
	case domain.SortDescending:
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].Amount > records[j].Amount
		})
	}
}
