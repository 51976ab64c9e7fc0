package domain

import "time"

// FilterState is the full set of predicates a table view has active.
// An empty selection for a dimension means "no constraint", not "match
// nothing". Both date bounds unset disables the date predicate.
type FilterState struct {
	SearchTerm string `json:"search_term"`

	Platforms          []string `json:"platforms"`
	EnrollmentStatuses []string `json:"enrollment_statuses"`
	ComplianceStatuses []string `json:"compliance_statuses"`
	RiskLevels         []string `json:"risk_levels"`
	Severities         []string `json:"severities"`
	Statuses           []string `json:"statuses"`

	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
}

// Empty reports whether the state constrains anything at all.
func (f FilterState) Empty() bool {
	return f.SearchTerm == "" &&
		len(f.Platforms) == 0 &&
		len(f.EnrollmentStatuses) == 0 &&
		len(f.ComplianceStatuses) == 0 &&
		len(f.RiskLevels) == 0 &&
		len(f.Severities) == 0 &&
		len(f.Statuses) == 0 &&
		f.StartDate == nil && f.EndDate == nil
}

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// SortState holds the single active sort column and its direction.
type SortState struct {
	Field     string        `json:"field"`
	Direction SortDirection `json:"direction"`
}

// PageSizes is the enumerated set of allowed page sizes.
var PageSizes = []int{10, 25, 50, 100}

// PageState is 1-indexed. Callers clamp CurrentPage into
// [1, totalPages] before paginating; changing ItemsPerPage resets
// CurrentPage to 1.
type PageState struct {
	CurrentPage  int `json:"current_page"`
	ItemsPerPage int `json:"items_per_page"`
}

// ValidPageSize reports whether n is one of the allowed sizes.
func ValidPageSize(n int) bool {
	for _, s := range PageSizes {
		if s == n {
			return true
		}
	}
	return false
}
