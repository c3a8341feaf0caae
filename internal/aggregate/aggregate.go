// Package aggregate computes summary figures over ledger snapshots.
package aggregate

import "github.com/flixpense/expense-ledger-go/internal/domain"

// TotalsByCategory sums amounts per category. Categories with no
// records are absent from the map, not zero.
func TotalsByCategory(records []domain.ExpenseRecord) map[string]float64 {
	totals := make(map[string]float64)
	for _, r := range records {
		totals[r.Category] += r.Amount
	}
	return totals
}

// DistinctCategoriesPresent lists the categories that have at least one
// record, in the fixed category-set order so the summary tiles render
// stably.
func DistinctCategoriesPresent(records []domain.ExpenseRecord) []string {
	present := make(map[string]bool)
	for _, r := range records {
		present[r.Category] = true
	}

	out := make([]string, 0, len(present))
	for _, c := range domain.Categories {
		if present[c] {
			out = append(out, c)
		}
	}
	return out
}

// GrandTotal sums every record's amount.
func GrandTotal(records []domain.ExpenseRecord) float64 {
	var total float64
	for _, r := range records {
		total += r.Amount
	}
	return total
}
