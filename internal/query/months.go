// Package query filters, sorts and groups ledger snapshots. Everything
// here is a pure function over a record slice; the repository owns IO.
package query

import (
	"sort"
	"strings"
	"time"

	"github.com/flixpense/expense-ledger-go/internal/domain"
)

// MonthLabel renders the month facet label for an instant, e.g.
// "Mar 2024" or "Sep 2024".
func MonthLabel(t time.Time) string {
	return t.Format("Jan 2006")
}

// monthMatches reports whether a record instant falls in the month the
// label names. "Sept 2024" and "Sep 2024" name the same month: older
// filter snapshots carry the four-letter spelling, so both must keep
// matching.
func monthMatches(label string, t time.Time) bool {
	return normalizeMonthLabel(label) == MonthLabel(t)
}

func normalizeMonthLabel(label string) string {
	if strings.HasPrefix(label, "Sept ") {
		return "Sep " + label[len("Sept "):]
	}
	return label
}

// DistinctMonths returns the month labels present in records, latest
// month first. Records with unparseable dates are skipped.
func DistinctMonths(records []domain.ExpenseRecord) []string {
	type yearMonth struct {
		year  int
		month time.Month
	}

	seen := make(map[yearMonth]bool)
	months := make([]yearMonth, 0)
	for _, r := range records {
		t, err := r.Time()
		if err != nil {
			continue
		}
		ym := yearMonth{t.Year(), t.Month()}
		if !seen[ym] {
			seen[ym] = true
			months = append(months, ym)
		}
	}

	sort.Slice(months, func(i, j int) bool {
		if months[i].year != months[j].year {
			return months[i].year > months[j].year
		}
		return months[i].month > months[j].month
	})

	labels := make([]string, 0, len(months))
	for _, ym := range months {
		labels = append(labels, MonthLabel(time.Date(ym.year, ym.month, 1, 0, 0, 0, 0, time.UTC)))
	}
	return labels
}

// DistinctCategories returns the category labels present in records, in
// first-seen order.
func DistinctCategories(records []domain.ExpenseRecord) []string {
	seen := make(map[string]bool)
	categories := make([]string, 0)
	for _, r := range records {
		if r.Category == "" || seen[r.Category] {
			continue
		}
		seen[r.Category] = true
		categories = append(categories, r.Category)
	}
	return categories
}
