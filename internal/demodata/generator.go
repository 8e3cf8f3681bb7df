package demodata

import (
	"context"
	"crypto/rand"
	"encoding/csv"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/okian/carelens/pkg/logger"
)

// Constants for random number generation.
const (
	randomFloatDivisor = 1000000
	profileCount       = 3
)

// Subject profile cases.
const (
	caseIndependent = 0
	caseDeclining   = 1
	caseFrail       = 2
)

// Per-profile generation ranges.
const (
	independentIndexMin   = 0.4
	independentIndexSpan  = 1.2
	independentStepsMin   = 6000.0
	independentStepsSpan  = 6000.0
	independentActiveMin  = 90.0
	independentActiveSpan = 120.0

	decliningIndexMin   = -0.5
	decliningIndexSpan  = 1.0
	decliningStepsMin   = 2500.0
	decliningStepsSpan  = 4000.0
	decliningActiveMin  = 45.0
	decliningActiveSpan = 75.0

	frailIndexMin   = -1.8
	frailIndexSpan  = 1.2
	frailStepsMin   = 300.0
	frailStepsSpan  = 2500.0
	frailActiveMin  = 5.0
	frailActiveSpan = 50.0

	weightedFeatureSpan = 4.0
	qcDaysMin           = 3
	qcDaysSpan          = 25
	qcRecordsPerDayMin  = 20
	qcRecordsPerDaySpan = 70
)

var scoredColumns = []string{
	"subject_id", "independence_index", "steps_sum", "active_minutes",
	"w_steps_sum", "w_active_minutes", "w_sleep_efficiency",
	"w_gait_speed", "w_hr_rest", "w_night_events",
}

var qcColumns = []string{
	"subject_id", "n_records", "n_days", "first_date", "last_date",
	"avg_steps", "avg_active_minutes",
}

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// getRandomInt returns a random int in [0, n).
func getRandomInt(n int) int {
	v, _ := rand.Int(rand.Reader, big.NewInt(int64(n)))
	return int(v.Int64())
}

// Generate writes the score table, QC table, and raw attribute dump into
// the configured output directory.
func Generate(ctx context.Context, cfg *Config) (*Stats, error) {
	log := logger.Get().Named("demodata")
	log.Info(ctx, "generating demo exports",
		logger.String("dir", cfg.OutputDir),
		logger.Int("subjects", cfg.Subjects),
	)

	if err := os.MkdirAll(cfg.OutputDir, 0o750); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	stats := &Stats{}
	ids := make([]string, cfg.Subjects)
	for i := range ids {
		ids[i] = uuid.New().String()
	}

	if err := writeScored(cfg, ids, stats); err != nil {
		return nil, err
	}
	if err := writeQC(cfg, ids, stats); err != nil {
		return nil, err
	}
	if err := writeRaw(cfg, ids, stats); err != nil {
		return nil, err
	}

	log.Info(ctx, "demo exports written",
		logger.Int("subjects", stats.SubjectsWritten),
		logger.Int("missingIndex", stats.MissingIndex),
		logger.Int("qcRows", stats.QCRows),
	)
	return stats, nil
}

// profileMetrics draws index, steps, and active minutes for one subject.
func profileMetrics() (index, steps, active float64) {
	switch getRandomInt(profileCount) {
	case caseIndependent:
		index = independentIndexMin + getRandomFloat()*independentIndexSpan
		steps = independentStepsMin + getRandomFloat()*independentStepsSpan
		active = independentActiveMin + getRandomFloat()*independentActiveSpan
	case caseDeclining:
		index = decliningIndexMin + getRandomFloat()*decliningIndexSpan
		steps = decliningStepsMin + getRandomFloat()*decliningStepsSpan
		active = decliningActiveMin + getRandomFloat()*decliningActiveSpan
	default:
		index = frailIndexMin + getRandomFloat()*frailIndexSpan
		steps = frailStepsMin + getRandomFloat()*frailStepsSpan
		active = frailActiveMin + getRandomFloat()*frailActiveSpan
	}
	return index, steps, active
}

// weightedFeature draws a pre-weighted z-score in [-span/2, span/2).
func weightedFeature() string {
	v := (getRandomFloat() - 0.5) * weightedFeatureSpan
	return strconv.FormatFloat(v, 'f', 3, 64)
}

func writeScored(cfg *Config, ids []string, stats *Stats) error {
	f, err := os.Create(filepath.Join(cfg.OutputDir, "merged_scored.csv"))
	if err != nil {
		return fmt.Errorf("create score table: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(scoredColumns); err != nil {
		return fmt.Errorf("write score header: %w", err)
	}

	missingBudget := int(float64(len(ids)) * cfg.MissingIndexRatio)
	for i, id := range ids {
		index, steps, active := profileMetrics()

		indexField := strconv.FormatFloat(index, 'f', 4, 64)
		if i < missingBudget {
			// These subjects exercise the QC-derived substitute path.
			indexField = ""
			stats.MissingIndex++
		}

		row := []string{
			id,
			indexField,
			strconv.FormatFloat(steps, 'f', 0, 64),
			strconv.FormatFloat(active, 'f', 1, 64),
			weightedFeature(), weightedFeature(), weightedFeature(),
			weightedFeature(), weightedFeature(), weightedFeature(),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write score row: %w", err)
		}
		stats.SubjectsWritten++
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush score table: %w", err)
	}
	return nil
}

func writeQC(cfg *Config, ids []string, stats *Stats) error {
	f, err := os.Create(filepath.Join(cfg.OutputDir, "qc_sensor_counts.csv"))
	if err != nil {
		return fmt.Errorf("create qc table: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(qcColumns); err != nil {
		return fmt.Errorf("write qc header: %w", err)
	}

	now := time.Now().UTC()
	for _, id := range ids {
		days := qcDaysMin + getRandomInt(qcDaysSpan)
		records := days * (qcRecordsPerDayMin + getRandomInt(qcRecordsPerDaySpan))
		first := now.AddDate(0, 0, -days)
		_, steps, active := profileMetrics()

		row := []string{
			id,
			strconv.Itoa(records),
			strconv.Itoa(days),
			first.Format(time.DateOnly),
			now.Format(time.DateOnly),
			strconv.FormatFloat(steps, 'f', 1, 64),
			strconv.FormatFloat(active, 'f', 1, 64),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write qc row: %w", err)
		}
		stats.QCRows++
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush qc table: %w", err)
	}
	return nil
}

func writeRaw(cfg *Config, ids []string, stats *Stats) error {
	f, err := os.Create(filepath.Join(cfg.OutputDir, "raw_attributes.csv"))
	if err != nil {
		return fmt.Errorf("create raw dump: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	for _, id := range ids {
		if err := w.Write([]string{id}); err != nil {
			return fmt.Errorf("write raw row: %w", err)
		}
	}
	for i := 0; i < cfg.RosterOnlyCount; i++ {
		if err := w.Write([]string{uuid.New().String()}); err != nil {
			return fmt.Errorf("write raw row: %w", err)
		}
		stats.RosterOnly++
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush raw dump: %w", err)
	}
	return nil
}
