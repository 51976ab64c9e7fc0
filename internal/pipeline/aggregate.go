package pipeline

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dmko-sec/secdash/internal/domain"
)

// CountWhere counts records matching pred.
func CountWhere[T any](records []T, pred func(T) bool) int {
	n := 0
	for _, r := range records {
		if pred(r) {
			n++
		}
	}
	return n
}

// Rate returns numerator/denominator as a percentage. A zero
// denominator yields exactly 0, never NaN or Inf.
func Rate(numerator, denominator int) float64 {
	if denominator == 0 {
		return 0
	}
	return float64(numerator) / float64(denominator) * 100
}

// BucketFor classifies a percentage of affected records into a
// severity bucket using the fixed thresholds.
func BucketFor(pct float64) domain.Severity {
	switch {
	case pct > 15:
		return domain.SeverityHigh
	case pct > 5:
		return domain.SeverityMedium
	}
	return domain.SeverityLow
}

// ViolationBucket applies the category override: any nonzero share of
// compromised devices is critical regardless of the percentage.
func ViolationBucket(category string, pct float64) domain.Severity {
	if strings.EqualFold(category, CategoryCompromised) && pct > 0 {
		return domain.SeverityCritical
	}
	return BucketFor(pct)
}

// DeviceSummary recomputes the fleet KPI block from scratch. Called on
// every input change; collections are bounded to one upload, so the
// full pass is cheap.
func DeviceSummary(devices []domain.DeviceRecord) domain.DeviceStats {
	total := len(devices)
	enrolled := CountWhere(devices, func(d domain.DeviceRecord) bool {
		return strings.EqualFold(d.Enrollment, "Enrolled")
	})
	compliant := CountWhere(devices, func(d domain.DeviceRecord) bool {
		return strings.EqualFold(d.Compliance, "Compliant")
	})
	encrypted := CountWhere(devices, func(d domain.DeviceRecord) bool { return d.Encrypted })

	return domain.DeviceStats{
		Total:          total,
		Enrolled:       enrolled,
		Compliant:      compliant,
		Encrypted:      encrypted,
		ComplianceRate: Rate(compliant, total),
		EnrollmentRate: Rate(enrolled, total),
	}
}

// ViolationSummary aggregates violations against the fleet size. The
// bucket reflects the worst per-category share.
func ViolationSummary(violations []domain.ViolationRecord, fleetSize int) domain.ViolationStats {
	byCategory := make(map[string]int)
	unresolved := 0
	for _, v := range violations {
		byCategory[v.Category]++
		if !v.Resolved {
			unresolved++
		}
	}

	worst := domain.SeverityLow
	critShare := 0.0
	for cat, n := range byCategory {
		share := Rate(n, fleetSize)
		if strings.EqualFold(cat, CategoryCompromised) {
			critShare = share
		}
		if b := ViolationBucket(cat, share); severityRank(b) > severityRank(worst) {
			worst = b
		}
	}

	return domain.ViolationStats{
		Total:         len(violations),
		Unresolved:    unresolved,
		ByCategory:    byCategory,
		CriticalShare: critShare,
		Bucket:        worst,
	}
}

func severityRank(s domain.Severity) int {
	switch s {
	case domain.SeverityCritical:
		return 3
	case domain.SeverityHigh:
		return 2
	case domain.SeverityMedium:
		return 1
	}
	return 0
}

func IncidentSummary(incidents []domain.IncidentRecord) domain.IncidentStats {
	bySource := make(map[string]int)
	open, resolved := 0, 0
	for _, i := range incidents {
		bySource[i.Source]++
		switch i.Status {
		case "resolved", "closed":
			resolved++
		default:
			open++
		}
	}
	return domain.IncidentStats{
		Total:    len(incidents),
		Open:     open,
		Resolved: resolved,
		BySource: bySource,
	}
}

// WipeSummary builds the weekly wipe series. Rows are grouped by their
// Week label when present, else by the ISO week of a parseable
// completion date. When no row carries either, the series falls back
// to an illustrative distribution and is flagged Synthetic so the
// display layer can label it as placeholder data.
func WipeSummary(wipes []domain.WipeEvent) domain.WipeStats {
	completed := CountWhere(wipes, func(w domain.WipeEvent) bool { return w.Status == "completed" })

	weekly, synthetic := weeklySeries(wipes)
	return domain.WipeStats{
		Total:     len(wipes),
		Completed: completed,
		Pending:   len(wipes) - completed,
		Weekly:    weekly,
		Synthetic: synthetic,
	}
}

func weeklySeries(wipes []domain.WipeEvent) ([]domain.WeekPoint, bool) {
	counts := make(map[string]int)
	for _, w := range wipes {
		label := w.Week
		if label == "" {
			if t, ok := ParseFlexibleDate(w.CompletedAt); ok {
				y, wk := t.ISOWeek()
				label = fmt.Sprintf("%d-W%02d", y, wk)
			}
		}
		if label != "" {
			counts[label]++
		}
	}

	if len(counts) > 0 {
		labels := make([]string, 0, len(counts))
		for l := range counts {
			labels = append(labels, l)
		}
		sort.Strings(labels)
		out := make([]domain.WeekPoint, len(labels))
		for i, l := range labels {
			out[i] = domain.WeekPoint{Week: l, Count: counts[l]}
		}
		return out, false
	}

	if len(wipes) == 0 {
		return []domain.WeekPoint{}, false
	}
	return syntheticWeekly(len(wipes)), true
}

// syntheticWeekly spreads the total over four labeled weeks so the
// chart has a shape to show when the upload had no date column. Only
// the distribution is invented; the total is real.
func syntheticWeekly(total int) []domain.WeekPoint {
	weights := []int{1, 2, 3, 2}
	sum := 8
	out := make([]domain.WeekPoint, len(weights))
	assigned := 0
	for i, w := range weights {
		n := total * w / sum
		out[i] = domain.WeekPoint{Week: fmt.Sprintf("Week %d", i+1), Count: n}
		assigned += n
	}
	out[len(out)-1].Count += total - assigned
	return out
}

// BuildDashboard assembles the composite KPI payload from the current
// normalized snapshots.
func BuildDashboard(
	devices []domain.DeviceRecord,
	violations []domain.ViolationRecord,
	incidents []domain.IncidentRecord,
	wipes []domain.WipeEvent,
	now time.Time,
) domain.SecurityDashboard {
	return domain.SecurityDashboard{
		Devices:     DeviceSummary(devices),
		Violations:  ViolationSummary(violations, len(devices)),
		Incidents:   IncidentSummary(incidents),
		Wipes:       WipeSummary(wipes),
		GeneratedAt: now,
	}
}

// FleetAggregate is the generic metric view over an arbitrary device
// subset, used when KPIs must reflect a date-filtered selection.
func FleetAggregate(devices []domain.DeviceRecord) domain.AggregateSummary {
	s := domain.NewAggregateSummary()
	stats := DeviceSummary(devices)

	s.Counts["total"] = stats.Total
	s.Counts["enrolled"] = stats.Enrolled
	s.Counts["compliant"] = stats.Compliant
	s.Counts["encrypted"] = stats.Encrypted
	s.Rates["compliance_rate"] = stats.ComplianceRate
	s.Rates["enrollment_rate"] = stats.EnrollmentRate
	s.Rates["encryption_rate"] = Rate(stats.Encrypted, stats.Total)

	for _, cat := range []string{CategoryCompromised, CategoryNoPassword, CategoryNotEncrypted} {
		n := CountWhere(devices, func(d domain.DeviceRecord) bool {
			return strings.EqualFold(d.Violation, cat)
		})
		s.Counts[cat] = n
		share := Rate(n, stats.Total)
		s.Rates[cat+"_share"] = share
		s.Buckets[cat] = ViolationBucket(cat, share)
	}
	return s
}
