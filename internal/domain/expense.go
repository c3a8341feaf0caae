// Package domain holds the core types of the expense ledger:
// records, filter specifications, storage key layout and error types.
package domain

import "time"

// DefaultMaxAmount is the upper bound for a single expense entry.
// Matches the cap the mobile keypad enforces.
const DefaultMaxAmount = 99999

// Categories is the closed set of category labels a record may carry.
// The order matches the chip row on the add-expense screen.
var Categories = []string{
	"Groceries",
	"Food",
	"Fuel",
	"Water",
	"Rent",
	"Electricity",
	"Medical",
	"Internet",
	"Amazon",
	"Personal Care",
	"Vehicle Maintenance",
	"Clothing",
	"Loan EMI",
	"Entertainment",
	"Travel",
	"Home",
}

// IsKnownCategory reports whether label is a member of the category set.
func IsKnownCategory(label string) bool {
	for _, c := range Categories {
		if c == label {
			return true
		}
	}
	return false
}

// ExpenseRecord is one user-entered spend event. Records are immutable
// after creation; the only deletion is clearing the whole ledger.
type ExpenseRecord struct {
	ID         string  `json:"id"`
	Category   string  `json:"category"`
	Note       string  `json:"note,omitempty"`
	Amount     float64 `json:"amount"`
	Date       string  `json:"date"` // ISO-8601 creation instant
	Owner      string  `json:"owner"`
	OwnerPhoto string  `json:"ownerPhoto,omitempty"`
}

// Time parses the record's creation instant. Accepts RFC3339 and the
// bare date form found in older payloads.
func (r ExpenseRecord) Time() (time.Time, error) {
	t, err := time.Parse(time.RFC3339, r.Date)
	if err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", r.Date)
}
