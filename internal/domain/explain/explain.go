// Package explain ranks feature contributions and renders a natural
// language rationale for a subject's risk tier.
package explain

import (
	"fmt"
	"sort"
	"strings"

	"github.com/okian/carelens/internal/datasource"
	"github.com/okian/carelens/internal/domain/model"
	"github.com/okian/carelens/pkg/metrics"
)

// Default explanation limits.
const (
	defaultContributionLimit = 5
	defaultReasonLimit       = 3
)

// Feature maps a weighted feature column to its display label. The set of
// features is configuration passed in explicitly; the engine never
// special-cases column names inline.
type Feature struct {
	Key   string
	Label string
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithFeatures sets the configured weighted feature columns, in display
// priority order (used to break ties between equal contributions).
func WithFeatures(features []Feature) Option {
	return func(e *Engine) {
		e.features = features
	}
}

// WithContributionLimit caps how many ranked contributions are retained.
func WithContributionLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.contributionLimit = n
		}
	}
}

// WithReasonLimit caps how many reason phrases enter the summary.
func WithReasonLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.reasonLimit = n
		}
	}
}

// Engine renders explanations from a subject's latest raw record and the
// current threshold. Stateless; every call computes fresh.
type Engine struct {
	features          []Feature
	contributionLimit int
	reasonLimit       int
}

// NewEngine creates an explanation engine with configuration options.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		contributionLimit: defaultContributionLimit,
		reasonLimit:       defaultReasonLimit,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Explain builds the ranked, human-readable rationale for the subject's
// tier under the given threshold.
func (e *Engine) Explain(subject model.Subject, th model.Threshold) model.Explanation {
	out := model.Explanation{
		SubjectID:         subject.ID,
		RiskLevel:         subject.RiskLevel,
		IndependenceIndex: subject.IndependenceIndex,
		Threshold:         th,
		Reasons:           []string{},
		Contributions:     e.contributions(subject.LatestRecord()),
	}

	for i, c := range out.Contributions {
		if i >= e.reasonLimit {
			break
		}
		out.Reasons = append(out.Reasons, reasonPhrase(c))
	}

	var parts []string
	if subject.IndependenceIndex == nil {
		parts = append(parts, fmt.Sprintf(
			"Risk level unavailable: subject %s has no independence index.", subject.ID))
	} else {
		parts = append(parts, fmt.Sprintf("Risk level is %s.", subject.RiskLevel))
		parts = append(parts, fmt.Sprintf(
			"Independence index %.2f against thresholds low %.2f / high %.2f (%s).",
			*subject.IndependenceIndex, th.Low, th.High, th.Method))
		parts = append(parts, out.Reasons...)
	}
	out.Summary = strings.Join(parts, " ")

	metrics.RecordExplanation()
	return out
}

// contributions extracts every configured feature present and numeric in
// the record, ranked by descending absolute value, capped at the limit.
func (e *Engine) contributions(rec *model.Record) []model.FeatureContribution {
	out := []model.FeatureContribution{}
	if rec == nil {
		return out
	}
	for _, f := range e.features {
		v := datasource.FloatField(datasource.Row(rec.Extra), f.Key)
		if v == nil {
			continue
		}
		direction := model.DirectionHigh
		if *v < 0 {
			direction = model.DirectionLow
		}
		out = append(out, model.FeatureContribution{
			Key:       f.Key,
			Label:     f.Label,
			Value:     *v,
			Direction: direction,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return abs(out[i].Value) > abs(out[j].Value)
	})
	if len(out) > e.contributionLimit {
		out = out[:e.contributionLimit]
	}
	return out
}

func reasonPhrase(c model.FeatureContribution) string {
	relation := "higher"
	if c.Direction == model.DirectionLow {
		relation = "lower"
	}
	return fmt.Sprintf("%s is %s than the cohort average (%.2f).", c.Label, relation, c.Value)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
