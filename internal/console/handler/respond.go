package handler

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dmko-sec/secdash/internal/console/service"
	"github.com/dmko-sec/secdash/internal/domain"
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// queryToRequest maps table query parameters onto a pipeline query.
// Multi-value filters are comma separated ("platform=macOS,Windows");
// date bounds are YYYY-MM-DD.
func queryToRequest(q url.Values) service.Query {
	out := service.Query{
		Filter: domain.FilterState{
			SearchTerm:         q.Get("search"),
			Platforms:          splitList(q.Get("platform")),
			EnrollmentStatuses: splitList(q.Get("enrollment_status")),
			ComplianceStatuses: splitList(q.Get("compliance_status")),
			RiskLevels:         splitList(q.Get("risk_level")),
			Severities:         splitList(q.Get("severity")),
			Statuses:           splitList(q.Get("status")),
		},
		Sort: domain.SortState{
			Field:     q.Get("sort"),
			Direction: domain.SortAsc,
		},
		Page: domain.PageState{
			CurrentPage:  intOr(q.Get("page"), 1),
			ItemsPerPage: intOr(q.Get("page_size"), domain.PageSizes[0]),
		},
	}

	if q.Get("dir") == string(domain.SortDesc) {
		out.Sort.Direction = domain.SortDesc
	}
	if t, ok := parseDateParam(q.Get("start_date")); ok {
		out.Filter.StartDate = &t
	}
	if t, ok := parseDateParam(q.Get("end_date")); ok {
		out.Filter.EndDate = &t
	}
	return out
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func intOr(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

func parseDateParam(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
