package model

import "time"

// AlertStatus is the lifecycle state of an alert.
type AlertStatus string

// Alert lifecycle states. Acknowledged and declined are terminal but may
// overwrite each other; alerts are never deleted.
const (
	AlertOpen         AlertStatus = "open"
	AlertAcknowledged AlertStatus = "acknowledged"
	AlertDeclined     AlertStatus = "declined"
)

// Known alert types raised by the load-time heuristics.
const (
	AlertTypeRiskHigh    = "risk_high"
	AlertTypeLowActivity = "low_activity"
)

// Alert severities.
const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"
	SeverityLow    = "low"
)

// Alert is a heuristic or manually created notification about a subject.
type Alert struct {
	ID        int64             `json:"id"`
	SubjectID string            `json:"subject_id"`
	Type      string            `json:"type"`
	Severity  string            `json:"severity"`
	Status    AlertStatus       `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}
