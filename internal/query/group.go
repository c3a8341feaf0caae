package query

import (
	"fmt"
	"sort"
	"time"

	"github.com/flixpense/expense-ledger-go/internal/domain"
)

// Section is one calendar day of records in a grouped history view.
type Section struct {
	DateKey string // YYYY-MM-DD
	Records []domain.ExpenseRecord
}

// GroupByDate buckets records by calendar day, newest day first. Order
// within a day follows the input. Records with unparseable dates are
// skipped.
func GroupByDate(records []domain.ExpenseRecord) []Section {
	buckets := make(map[string][]domain.ExpenseRecord)
	keys := make([]string, 0)
	for _, r := range records {
		t, err := r.Time()
		if err != nil {
			continue
		}
		key := t.Format("2006-01-02")
		if _, ok := buckets[key]; !ok {
			keys = append(keys, key)
		}
		buckets[key] = append(buckets[key], r)
	}

	sort.Sort(sort.Reverse(sort.StringSlice(keys)))

	sections := make([]Section, 0, len(keys))
	for _, key := range keys {
		sections = append(sections, Section{DateKey: key, Records: buckets[key]})
	}
	return sections
}

// SectionLabel renders a day key as a relative heading against now.
// Same-day and future keys read Today; from one year out the heading is
// the absolute date.
func SectionLabel(dateKey string, now time.Time) string {
	day, err := time.Parse("2006-01-02", dateKey)
	if err != nil {
		return dateKey
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	days := int(today.Sub(time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, now.Location())).Hours() / 24)

	switch {
	case days <= 0:
		return "Today"
	case days == 1:
		return "Yesterday"
	case days < 7:
		return fmt.Sprintf("%d days ago", days)
	case days < 30:
		return plural(days/7, "week")
	case days < 365:
		return plural(days/30, "month")
	default:
		return day.Format("02 Jan 2006")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
