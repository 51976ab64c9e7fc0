package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmko-sec/secdash/internal/domain"
)

func TestRateGuardsZeroDenominator(t *testing.T) {
	assert.Equal(t, 0.0, Rate(5, 0))
	assert.Equal(t, 0.0, Rate(0, 0))
	assert.InDelta(t, 50.0, Rate(1, 2), 0.001)
}

func TestBucketThresholds(t *testing.T) {
	assert.Equal(t, domain.SeverityLow, BucketFor(0))
	assert.Equal(t, domain.SeverityLow, BucketFor(5))
	assert.Equal(t, domain.SeverityMedium, BucketFor(5.1))
	assert.Equal(t, domain.SeverityMedium, BucketFor(15))
	assert.Equal(t, domain.SeverityHigh, BucketFor(15.1))
}

func TestViolationBucketCompromisedOverride(t *testing.T) {
	// Any nonzero compromised share is critical, even a tiny one.
	assert.Equal(t, domain.SeverityCritical, ViolationBucket(CategoryCompromised, 0.5))
	assert.Equal(t, domain.SeverityLow, ViolationBucket(CategoryCompromised, 0))
	assert.Equal(t, domain.SeverityMedium, ViolationBucket(CategoryNoPassword, 10))
}

func TestDeviceSummary(t *testing.T) {
	devices := []domain.DeviceRecord{
		{Enrollment: "Enrolled", Compliance: "Compliant", Encrypted: true},
		{Enrollment: "Enrolled", Compliance: "Non-Compliant"},
		{Enrollment: "Pending", Compliance: "Compliant", Encrypted: true},
		{Enrollment: "Enrolled", Compliance: "Compliant"},
	}
	s := DeviceSummary(devices)
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 3, s.Enrolled)
	assert.Equal(t, 3, s.Compliant)
	assert.Equal(t, 2, s.Encrypted)
	assert.InDelta(t, 75.0, s.ComplianceRate, 0.001)
	assert.InDelta(t, 75.0, s.EnrollmentRate, 0.001)
}

func TestDeviceSummaryEmptyFleet(t *testing.T) {
	s := DeviceSummary(nil)
	assert.Equal(t, 0, s.Total)
	assert.Equal(t, 0.0, s.ComplianceRate)
	assert.Equal(t, 0.0, s.EnrollmentRate)
}

func TestViolationSummary(t *testing.T) {
	violations := []domain.ViolationRecord{
		{Category: "compromised", Resolved: false},
		{Category: "no_password", Resolved: true},
		{Category: "no_password", Resolved: false},
	}
	s := ViolationSummary(violations, 100)
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 2, s.Unresolved)
	assert.Equal(t, 1, s.ByCategory["compromised"])
	assert.Equal(t, 2, s.ByCategory["no_password"])
	// One compromised device out of 100 still buckets critical.
	assert.Equal(t, domain.SeverityCritical, s.Bucket)
	assert.InDelta(t, 1.0, s.CriticalShare, 0.001)
}

func TestWipeSummaryRealWeeks(t *testing.T) {
	wipes := []domain.WipeEvent{
		{Status: "completed", Week: "2024-W03"},
		{Status: "completed", Week: "2024-W03"},
		{Status: "pending", Week: "2024-W04"},
	}
	s := WipeSummary(wipes)
	require.False(t, s.Synthetic)
	require.Len(t, s.Weekly, 2)
	assert.Equal(t, domain.WeekPoint{Week: "2024-W03", Count: 2}, s.Weekly[0])
	assert.Equal(t, 2, s.Completed)
	assert.Equal(t, 1, s.Pending)
}

func TestWipeSummaryDerivesWeekFromDate(t *testing.T) {
	wipes := []domain.WipeEvent{
		{Status: "completed", CompletedAt: "2024-01-15"},
		{Status: "completed", CompletedAt: "2024-01-16"},
	}
	s := WipeSummary(wipes)
	require.False(t, s.Synthetic)
	require.Len(t, s.Weekly, 1)
	assert.Equal(t, 2, s.Weekly[0].Count)
}

// An upload with neither a Week column nor parseable dates gets the
// labeled placeholder series; the flag keeps it distinguishable from
// real aggregates.
func TestWipeSummarySyntheticFallback(t *testing.T) {
	wipes := []domain.WipeEvent{
		{Status: "completed"},
		{Status: "pending"},
		{Status: "completed"},
		{Status: "completed"},
	}
	s := WipeSummary(wipes)
	require.True(t, s.Synthetic)
	require.Len(t, s.Weekly, 4)

	sum := 0
	for _, p := range s.Weekly {
		sum += p.Count
	}
	assert.Equal(t, len(wipes), sum, "synthetic series conserves total")
}

func TestWipeSummaryEmpty(t *testing.T) {
	s := WipeSummary(nil)
	assert.False(t, s.Synthetic)
	assert.Empty(t, s.Weekly)
	assert.Equal(t, 0, s.Total)
}

func TestBuildDashboard(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	devices := []domain.DeviceRecord{{Enrollment: "Enrolled", Compliance: "Compliant"}}
	d := BuildDashboard(devices, nil, nil, nil, now)
	assert.Equal(t, now, d.GeneratedAt)
	assert.Equal(t, 1, d.Devices.Total)
	assert.Equal(t, 0, d.Violations.Total)
}

func TestFleetAggregate(t *testing.T) {
	devices := []domain.DeviceRecord{
		{Compliance: "Compliant", Enrollment: "Enrolled", Encrypted: true, Violation: "compromised"},
		{Compliance: "Compliant", Enrollment: "Enrolled"},
	}
	s := FleetAggregate(devices)
	assert.Equal(t, 2, s.Counts["total"])
	assert.Equal(t, 1, s.Counts["compromised"])
	assert.InDelta(t, 50.0, s.Rates["compromised_share"], 0.001)
	assert.Equal(t, domain.SeverityCritical, s.Buckets["compromised"])
	assert.InDelta(t, 50.0, s.Rates["encryption_rate"], 0.001)
	assert.False(t, s.Synthetic)
}

func TestFleetAggregateEmpty(t *testing.T) {
	s := FleetAggregate(nil)
	for name, r := range s.Rates {
		assert.Equal(t, 0.0, r, "rate %s must be 0 on empty input", name)
	}
}
