package domain

import "time"

// SecurityDashboard is the composite KPI payload for the main view.
type SecurityDashboard struct {
	Devices     DeviceStats    `json:"devices"`    // MDM fleet health
	Violations  ViolationStats `json:"violations"` // Policy violations
	Incidents   IncidentStats  `json:"incidents"`  // SIEM/EDR timeline
	Wipes       WipeStats      `json:"wipes"`      // Remote wipe activity
	GeneratedAt time.Time      `json:"generated_at"`
}

type DeviceStats struct {
	Total          int     `json:"total"`
	Enrolled       int     `json:"enrolled"`
	Compliant      int     `json:"compliant"`
	Encrypted      int     `json:"encrypted"`
	ComplianceRate float64 `json:"compliance_rate"` // percent, 0 when fleet is empty
	EnrollmentRate float64 `json:"enrollment_rate"`
}

type ViolationStats struct {
	Total         int            `json:"total"`
	Unresolved    int            `json:"unresolved"`
	ByCategory    map[string]int `json:"by_category"`
	CriticalShare float64        `json:"critical_share"` // percent of fleet affected
	Bucket        Severity       `json:"bucket"`
}

type IncidentStats struct {
	Total    int            `json:"total"`
	Open     int            `json:"open"`
	Resolved int            `json:"resolved"`
	BySource map[string]int `json:"by_source"`
}

type WipeStats struct {
	Total     int         `json:"total"`
	Completed int         `json:"completed"`
	Pending   int         `json:"pending"`
	Weekly    []WeekPoint `json:"weekly"`
	// Synthetic marks the Weekly series as an illustrative placeholder
	// produced when no uploaded row carried week/date information.
	Synthetic bool `json:"synthetic"`
}

type WeekPoint struct {
	Week  string `json:"week"`
	Count int    `json:"count"`
}
