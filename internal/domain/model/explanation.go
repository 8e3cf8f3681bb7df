package model

// ContributionDirection indicates which side of the cohort average a
// feature falls on.
type ContributionDirection string

// Contribution directions.
const (
	DirectionHigh ContributionDirection = "high"
	DirectionLow  ContributionDirection = "low"
)

// FeatureContribution is one ranked feature in an explanation. Value is
// the pre-weighted z-score exported by the analysis pipeline. Ephemeral:
// computed per request, never stored.
type FeatureContribution struct {
	Key       string                `json:"key"`
	Label     string                `json:"label"`
	Value     float64               `json:"value"`
	Direction ContributionDirection `json:"direction"`
}

// Explanation is the human-readable rationale for a subject's risk tier.
type Explanation struct {
	SubjectID         string                `json:"subject_id"`
	RiskLevel         RiskLevel             `json:"risk_level,omitempty"`
	IndependenceIndex *float64              `json:"independence_index,omitempty"`
	Threshold         Threshold             `json:"thresholds"`
	Summary           string                `json:"summary_text"`
	Reasons           []string              `json:"reasons"`
	Contributions     []FeatureContribution `json:"contributions"`
}
