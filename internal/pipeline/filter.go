package pipeline

import (
	"strings"

	"github.com/dmko-sec/secdash/internal/domain"
)

// Record is what the generic pipeline stages need from a normalized
// record: named string access to its fields.
type Record interface {
	Field(name string) (string, bool)
}

// Dimension binds one categorical filter dimension to a record field
// and to its selection set inside FilterState.
type Dimension struct {
	Field  string
	Select func(domain.FilterState) []string
}

// Schema describes one record domain to the generic stages: which
// fields free-text search covers, which carry dates, which dimensions
// can be filtered categorically, and the CSV export column order.
type Schema struct {
	SearchFields []string
	DateFields   []string
	Dimensions   []Dimension
	ExportHeader []string
}

// IsDateField reports whether the sorter should compare f as a date.
func (s Schema) IsDateField(f string) bool {
	for _, d := range s.DateFields {
		if d == f {
			return true
		}
	}
	return false
}

// DeviceSchema drives the MDM device table.
var DeviceSchema = Schema{
	SearchFields: []string{"username", "email", "serial_number", "platform", "os_version"},
	DateFields:   []string{"last_seen"},
	Dimensions: []Dimension{
		{Field: "platform", Select: func(f domain.FilterState) []string { return f.Platforms }},
		{Field: "enrollment", Select: func(f domain.FilterState) []string { return f.EnrollmentStatuses }},
		{Field: "compliance", Select: func(f domain.FilterState) []string { return f.ComplianceStatuses }},
		{Field: "risk_level", Select: func(f domain.FilterState) []string { return f.RiskLevels }},
	},
	ExportHeader: []string{"username", "email", "platform", "os_version", "serial_number", "enrollment", "compliance", "last_seen", "risk_level"},
}

var ViolationSchema = Schema{
	SearchFields: []string{"username", "device", "serial_number", "category"},
	DateFields:   []string{"detected_at"},
	Dimensions: []Dimension{
		{Field: "severity", Select: func(f domain.FilterState) []string { return f.Severities }},
	},
	ExportHeader: []string{"username", "device", "serial_number", "category", "severity", "detected_at"},
}

var IncidentSchema = Schema{
	SearchFields: []string{"id", "title", "source", "assigned_to"},
	DateFields:   []string{"occurred_at"},
	Dimensions: []Dimension{
		{Field: "severity", Select: func(f domain.FilterState) []string { return f.Severities }},
		{Field: "status", Select: func(f domain.FilterState) []string { return f.Statuses }},
	},
	ExportHeader: []string{"id", "source", "title", "severity", "status", "occurred_at", "assigned_to"},
}

var WipeSchema = Schema{
	SearchFields: []string{"device", "serial_number", "requested_by"},
	DateFields:   []string{"completed_at"},
	Dimensions: []Dimension{
		{Field: "status", Select: func(f domain.FilterState) []string { return f.Statuses }},
	},
	ExportHeader: []string{"device", "serial_number", "status", "requested_by", "week", "completed_at"},
}

// Filter applies the conjunction of all active predicates, preserving
// input order among matches. Pure; the input slice is never mutated.
func Filter[T Record](records []T, st domain.FilterState, sc Schema) []T {
	if st.Empty() {
		out := make([]T, len(records))
		copy(out, records)
		return out
	}

	out := make([]T, 0, len(records))
	for _, r := range records {
		if !matchesSearch(r, st.SearchTerm, sc.SearchFields) {
			continue
		}
		if !matchesDimensions(r, st, sc.Dimensions) {
			continue
		}
		if !matchesDateRange(r, st, sc.DateFields) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func matchesSearch[T Record](r T, term string, fields []string) bool {
	if term == "" {
		return true
	}
	needle := strings.ToLower(term)
	for _, f := range fields {
		if v, ok := r.Field(f); ok && strings.Contains(strings.ToLower(v), needle) {
			return true
		}
	}
	return false
}

func matchesDimensions[T Record](r T, st domain.FilterState, dims []Dimension) bool {
	for _, d := range dims {
		selected := d.Select(st)
		if len(selected) == 0 {
			continue // empty selection: dimension unconstrained
		}
		v, _ := r.Field(d.Field)
		if !containsFold(selected, v) {
			return false
		}
	}
	return true
}

// matchesDateRange retains any record without usable date information;
// only a recognized date outside the range excludes a record.
func matchesDateRange[T Record](r T, st domain.FilterState, dateFields []string) bool {
	if st.StartDate == nil && st.EndDate == nil {
		return true
	}

	parsedAny := false
	for _, f := range dateFields {
		v, ok := r.Field(f)
		if !ok || v == "" {
			continue
		}
		t, ok := ParseFlexibleDate(v)
		if !ok {
			continue
		}
		parsedAny = true
		if InRange(t, st.StartDate, st.EndDate) {
			return true
		}
	}
	// No date field present, or nothing parseable: date-unconstrained.
	return !parsedAny
}

func containsFold(set []string, v string) bool {
	for _, s := range set {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}
