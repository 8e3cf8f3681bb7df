// Package scoring synthesizes substitute wellbeing indices, computes
// population-relative risk thresholds, and classifies subjects into
// ordinal risk tiers.
package scoring

import (
	"math"
	"sort"

	"github.com/okian/carelens/internal/domain/model"
	"github.com/okian/carelens/internal/domain/stats"
	"github.com/okian/carelens/pkg/metrics"
)

// Default scoring configuration constants.
const (
	defaultStepsWeight  = 0.7
	defaultActiveWeight = 0.3
	defaultFixedLow     = -0.5
	defaultFixedHigh    = 0.5

	// Minimum population size for the quantile split.
	minQuantilePopulation = 3
	lowQuantile           = 0.33
	highQuantile          = 0.66
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithDerivedWeights sets the steps/active-minutes weights used when
// synthesizing a substitute index. Weights are never renormalized when one
// term is absent.
func WithDerivedWeights(steps, active float64) Option {
	return func(e *Engine) {
		if steps > 0 {
			e.stepsWeight = steps
		}
		if active > 0 {
			e.activeWeight = active
		}
	}
}

// WithFixedCutpoints sets the fallback thresholds used for small
// populations.
func WithFixedCutpoints(low, high float64) Option {
	return func(e *Engine) {
		if low < high {
			e.fixedLow = low
			e.fixedHigh = high
		}
	}
}

// Engine holds the scoring configuration. All methods are pure functions
// over their inputs; nothing is cached between calls.
type Engine struct {
	stepsWeight  float64
	activeWeight float64
	fixedLow     float64
	fixedHigh    float64
}

// NewEngine creates a scoring engine with configuration options.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		stepsWeight:  defaultStepsWeight,
		activeWeight: defaultActiveWeight,
		fixedLow:     defaultFixedLow,
		fixedHigh:    defaultFixedHigh,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// DeriveIndex synthesizes a substitute independence index from normalized
// quality-control averages. Each z-score term is included only when its
// underlying value is present and finite; an absent term contributes zero
// without affecting the other's weight. Returns nil when neither average
// is usable, leaving the subject without an index.
func (e *Engine) DeriveIndex(avgSteps, avgActive *float64, stepsStats, activeStats stats.Summary) *float64 {
	if !usable(avgSteps) && !usable(avgActive) {
		return nil
	}
	var v float64
	if usable(avgSteps) {
		v += e.stepsWeight * stats.ZScore(avgSteps, stepsStats)
	}
	if usable(avgActive) {
		v += e.activeWeight * stats.ZScore(avgActive, activeStats)
	}
	return &v
}

// Thresholds computes the two cut points over a population of valid index
// values. Populations of at least three values are split at the 33rd and
// 66th percentile positions; smaller ones fall back to fixed cut points.
// The mixed flag marks populations that blend model and derived indices.
// Recomputed fresh on every call.
func (e *Engine) Thresholds(population []float64, mixed bool) model.Threshold {
	var t model.Threshold
	if len(population) >= minQuantilePopulation {
		sorted := make([]float64, len(population))
		copy(sorted, population)
		sort.Float64s(sorted)

		n := float64(len(sorted))
		t.Low = sorted[int(math.Floor(lowQuantile*n))]
		t.High = sorted[int(math.Floor(highQuantile*n))]
		t.Method = model.MethodQuantile
		if mixed {
			t.Method = model.MethodQuantileCombined
		}
	} else {
		t.Low = e.fixedLow
		t.High = e.fixedHigh
		t.Method = model.MethodFixed
	}
	metrics.RecordThresholdComputation(string(t.Method))
	return t
}

// Classify maps an index value to its risk tier. Boundaries are inclusive
// on the lower side of each band: a score exactly at low is Low, exactly
// at high is Medium.
func (e *Engine) Classify(score float64, t model.Threshold) model.RiskLevel {
	switch {
	case score <= t.Low:
		return model.RiskLow
	case score <= t.High:
		return model.RiskMedium
	default:
		return model.RiskHigh
	}
}

// usable reports whether a pointer holds a finite value.
func usable(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}
