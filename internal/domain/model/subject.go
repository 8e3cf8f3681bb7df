// Package model contains domain models passed between layers.
package model

// IndexSource records where a subject's independence index came from.
type IndexSource string

// Index provenance values.
const (
	IndexSourceModel     IndexSource = "model"
	IndexSourceQCDerived IndexSource = "qcDerived"
	IndexSourceUnknown   IndexSource = "unknown"
)

// RiskLevel is the ordinal risk tier derived from the independence index.
// The empty value means the tier could not be computed.
type RiskLevel string

// Risk tiers, ordered Low < Medium < High.
const (
	RiskUnknown RiskLevel = ""
	RiskLow     RiskLevel = "Low"
	RiskMedium  RiskLevel = "Medium"
	RiskHigh    RiskLevel = "High"
)

// Order maps a tier to its ordinal position. Unknown maps to -1 so any
// known tier compares greater.
func (r RiskLevel) Order() int {
	switch r {
	case RiskLow:
		return 0
	case RiskMedium:
		return 1
	case RiskHigh:
		return 2
	default:
		return -1
	}
}

// Record is a single raw row belonging to a subject. The core fields the
// engine depends on are typed; every other column travels in Extra so
// downstream consumers never reach into dynamic shapes.
type Record struct {
	SubjectID         string            `json:"subject_id"`
	IndependenceIndex *float64          `json:"independence_index,omitempty"`
	StepsSum          *float64          `json:"steps_sum,omitempty"`
	ActiveMinutes     *float64          `json:"active_minutes,omitempty"`
	Extra             map[string]string `json:"extra,omitempty"`
}

// QCSummary is the per-subject quality-control aggregate, derived once per
// load and immutable afterwards. Dates are ISO-8601 strings as exported by
// the analysis pipeline.
type QCSummary struct {
	SubjectID           string   `json:"subject_id"`
	RecordCount         int      `json:"record_count"`
	UniqueDays          int      `json:"unique_days"`
	FirstDate           string   `json:"first_date,omitempty"`
	LastDate            string   `json:"last_date,omitempty"`
	AvgStepsPerDay      *float64 `json:"avg_steps_per_day,omitempty"`
	AvgActiveMinutesDay *float64 `json:"avg_active_minutes_per_day,omitempty"`
}

// Subject is the canonical per-subject view owned by the engine.
// Exactly one Subject exists per canonical ID.
type Subject struct {
	ID                string      `json:"subject_id"`
	IndependenceIndex *float64    `json:"independence_index,omitempty"`
	IndexSource       IndexSource `json:"index_source"`
	RiskLevel         RiskLevel   `json:"risk_level,omitempty"`
	StepsSum          *float64    `json:"steps_sum,omitempty"`
	ActiveMinutes     *float64    `json:"active_minutes,omitempty"`
	QC                *QCSummary  `json:"qc_summary,omitempty"`
	Records           []Record    `json:"records,omitempty"`
}

// LatestRecord returns the most recently ingested raw record for the
// subject, or nil when none were loaded.
func (s *Subject) LatestRecord() *Record {
	if len(s.Records) == 0 {
		return nil
	}
	return &s.Records[len(s.Records)-1]
}

// ThresholdMethod names the policy that produced a Threshold.
type ThresholdMethod string

// Threshold computation methods.
const (
	MethodQuantile         ThresholdMethod = "quantile"
	MethodQuantileCombined ThresholdMethod = "quantileCombined"
	MethodFixed            ThresholdMethod = "fixed"
)

// Threshold holds the two cut points that split the index population into
// risk tiers. It is recomputed on demand and never persisted.
type Threshold struct {
	Method ThresholdMethod `json:"method"`
	Low    float64         `json:"low_threshold"`
	High   float64         `json:"high_threshold"`
}
