// Package demodata generates synthetic pipeline exports for local
// development and load testing. The emitted files match the shapes the
// engine loads at startup.
package demodata

// Default generation constants.
const (
	defaultSubjects          = 50
	defaultMissingIndexRatio = 0.2
	defaultRosterOnlyCount   = 3
)

// Config controls fixture generation.
type Config struct {
	// OutputDir receives the generated CSV files.
	OutputDir string

	// Subjects is how many scored subjects to generate.
	Subjects int

	// MissingIndexRatio is the fraction of subjects emitted without a
	// model index, forcing the engine down the QC-derived path.
	MissingIndexRatio float64

	// RosterOnlyCount is how many extra IDs appear only in the raw
	// attribute dump.
	RosterOnlyCount int
}

// NewConfig returns a Config with defaults.
func NewConfig() *Config {
	return &Config{
		OutputDir:         "outputs",
		Subjects:          defaultSubjects,
		MissingIndexRatio: defaultMissingIndexRatio,
		RosterOnlyCount:   defaultRosterOnlyCount,
	}
}

// Stats summarizes a generation run.
type Stats struct {
	SubjectsWritten int
	MissingIndex    int
	RosterOnly      int
	QCRows          int
}
