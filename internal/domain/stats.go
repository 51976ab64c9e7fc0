package domain

// Severity is a qualitative bucket derived from a percentage.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// AggregateSummary maps metric names to values recomputed from
// whatever record subset is currently in scope. Counts, rates and
// buckets are kept apart so consumers never have to guess the type.
type AggregateSummary struct {
	Counts  map[string]int      `json:"counts"`
	Rates   map[string]float64  `json:"rates"` // percentages, denominator 0 yields 0
	Buckets map[string]Severity `json:"buckets"`
	// Synthetic is set when any series in this summary was generated
	// as placeholder display data rather than derived from records.
	Synthetic bool `json:"synthetic"`
}

// NewAggregateSummary returns a summary with all maps allocated.
func NewAggregateSummary() AggregateSummary {
	return AggregateSummary{
		Counts:  make(map[string]int),
		Rates:   make(map[string]float64),
		Buckets: make(map[string]Severity),
	}
}
