package domain

// SortDirection orders query results by amount.
type SortDirection int

const (
	// SortNone keeps the ledger's natural newest-first order.
	SortNone SortDirection = iota
	SortAscending
	SortDescending
)

// FilterSpec captures the user's facet restrictions plus search text and
// sort direction. Empty facet slices mean "no restriction".
type FilterSpec struct {
	Months     []string
	Categories []string
	Search     string
	Sort       SortDirection
}

// IsZero reports whether the spec restricts nothing.
func (f FilterSpec) IsZero() bool {
	return len(f.Months) == 0 && len(f.Categories) == 0 && f.Search == "" && f.Sort == SortNone
}

// FilterSnapshot is the persisted form of a confirmed filter selection,
// stored under the snapshot key so a later session can restore it.
type FilterSnapshot struct {
	SelectedMonths     []string `json:"selectedMonths"`
	SelectedCategories []string `json:"selectedCategories"`
	Page               string   `json:"page"`
}
