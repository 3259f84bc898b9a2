package analytics

import "time"

// InsightKind tags how an InsightSummary was produced so callers can weigh it
type InsightKind string

const (
	// InsightStructured came back from the reasoning service in the expected JSON shape
	InsightStructured InsightKind = "structured"
	// InsightFallback was salvaged from free text by line-pattern extraction
	InsightFallback InsightKind = "fallback"
	// InsightGeneric was synthesized locally because the reasoning service was unusable
	InsightGeneric InsightKind = "generic"
)

// InsightSummary is short advisory text derived from a metrics payload
type InsightSummary struct {
	Kind        InsightKind `json:"kind"`
	Insights    []string    `json:"insights"`
	Actions     []string    `json:"actions"`
	Impact      string      `json:"impact"`
	GeneratedAt time.Time   `json:"generated_at"`
}

// IsDegraded reports whether the summary did not come from structured output
func (s *InsightSummary) IsDegraded() bool {
	return s.Kind != InsightStructured
}
