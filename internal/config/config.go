// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) initializer to build a Config with defaults.
// - Layer defaults, optional YAML file, then environment variables.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8000".
	Addr string `koanf:"addr"`

	// DataDir is the directory holding the offline pipeline exports.
	DataDir string `koanf:"data_dir"`

	// ScoredFile is the per-subject feature/score table file name.
	ScoredFile string `koanf:"scored_file"`

	// QCFile is the per-device/subject quality-control table file name.
	QCFile string `koanf:"qc_file"`

	// RawAttributeFiles are optional headerless sources used only to
	// enrich the roster; the subject ID occupies the first field.
	RawAttributeFiles []string `koanf:"raw_attribute_files"`

	// LowActivityMinutes is the operational alert cut for low activity.
	// Independent of the risk-tier thresholds; never unified with them.
	LowActivityMinutes float64 `koanf:"low_activity_minutes"`

	// DerivedStepsWeight and DerivedActiveWeight weight the z-score terms
	// of the synthesized independence index.
	DerivedStepsWeight  float64 `koanf:"derived_steps_weight"`
	DerivedActiveWeight float64 `koanf:"derived_active_weight"`

	// FixedLowThreshold and FixedHighThreshold are the fallback cut points
	// used when the index population is too small for a quantile split.
	FixedLowThreshold  float64 `koanf:"fixed_low_threshold"`
	FixedHighThreshold float64 `koanf:"fixed_high_threshold"`

	// MaxReportRows caps the rows included in a CSV report response.
	MaxReportRows int `koanf:"max_report_rows"`

	// FeatureLabels maps weighted feature column keys to display labels
	// for the explanation engine.
	FeatureLabels map[string]string `koanf:"feature_labels"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention; it is reserved for future use.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":8000",
		DataDir:             "outputs",
		ScoredFile:          "merged_scored.csv",
		QCFile:              "qc_sensor_counts.csv",
		RawAttributeFiles:   nil,
		LowActivityMinutes:  60,
		DerivedStepsWeight:  0.7,
		DerivedActiveWeight: 0.3,
		FixedLowThreshold:   -0.5,
		FixedHighThreshold:  0.5,
		MaxReportRows:       50,
		FeatureLabels: map[string]string{
			"w_steps_sum":        "Daily steps",
			"w_active_minutes":   "Active minutes",
			"w_sleep_efficiency": "Sleep efficiency",
			"w_gait_speed":       "Gait speed",
			"w_hr_rest":          "Resting heart rate",
			"w_night_events":     "Night-time events",
		},
	}
}
