// Package service provides the core risk engine service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/okian/carelens/internal/adapters/repository"
	"github.com/okian/carelens/internal/datasource"
	"github.com/okian/carelens/internal/domain/explain"
	"github.com/okian/carelens/internal/domain/model"
	"github.com/okian/carelens/internal/domain/roster"
	"github.com/okian/carelens/internal/domain/scoring"
	"github.com/okian/carelens/internal/domain/stats"
	"github.com/okian/carelens/pkg/logger"
	"github.com/okian/carelens/pkg/metrics"
)

// Core column names of the per-subject score table.
const (
	colSubjectID     = "subject_id"
	colIndex         = "independence_index"
	colStepsSum      = "steps_sum"
	colActiveMinutes = "active_minutes"
)

// Column names of the quality-control table.
const (
	qcColRecords   = "n_records"
	qcColDays      = "n_days"
	qcColFirstDate = "first_date"
	qcColLastDate  = "last_date"
	qcColAvgSteps  = "avg_steps"
	qcColAvgActive = "avg_active_minutes"
)

// Service owns the subject roster, QC summaries, and alert store for the
// process lifetime. Data loading is a one-time, run-to-completion phase;
// everything except the alert store is immutable afterwards.
type Service struct {
	mu sync.RWMutex

	// Configuration
	dataDir            string
	scoredFile         string
	qcFile             string
	rawFiles           []string
	lowActivityMinutes float64
	maxReportRows      int
	featureLabels      map[string]string
	derivedWeights     [2]float64
	fixedCutpoints     [2]float64

	// Components
	scorer    *scoring.Engine
	explainer *explain.Engine
	alerts    repository.Store

	// Loaded state, immutable after Load
	loaded      bool
	rosterIDs   []string
	subjects    map[string]*model.Subject
	inScored    map[string]bool
	inQC        map[string]bool
	scoredTable datasource.Table

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}

// WithDataDir sets the directory holding the offline pipeline exports.
func WithDataDir(dir string) Option {
	return func(s *Service) {
		if dir != "" {
			s.dataDir = dir
		}
	}
}

// WithSourceFiles sets the score and quality-control table file names.
func WithSourceFiles(scored, qc string) Option {
	return func(s *Service) {
		if scored != "" {
			s.scoredFile = scored
		}
		if qc != "" {
			s.qcFile = qc
		}
	}
}

// WithRawAttributeFiles sets optional headerless sources used only to
// enrich the roster.
func WithRawAttributeFiles(files ...string) Option {
	return func(s *Service) {
		s.rawFiles = files
	}
}

// WithLowActivityThreshold sets the operational low-activity alert cut in
// minutes per day.
func WithLowActivityThreshold(minutes float64) Option {
	return func(s *Service) {
		if minutes > 0 {
			s.lowActivityMinutes = minutes
		}
	}
}

// WithDerivedWeights sets the steps/active-minutes weights for the
// synthesized index.
func WithDerivedWeights(steps, active float64) Option {
	return func(s *Service) {
		if steps > 0 && active > 0 {
			s.derivedWeights = [2]float64{steps, active}
		}
	}
}

// WithFixedCutpoints sets the fallback thresholds for small populations.
func WithFixedCutpoints(low, high float64) Option {
	return func(s *Service) {
		if low < high {
			s.fixedCutpoints = [2]float64{low, high}
		}
	}
}

// WithFeatureLabels sets the weighted feature column -> display label
// table used by the explanation engine.
func WithFeatureLabels(labels map[string]string) Option {
	return func(s *Service) {
		if len(labels) > 0 {
			s.featureLabels = labels
		}
	}
}

// WithAlertStore injects a custom alert store.
func WithAlertStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.alerts = store
		}
	}
}

// WithMaxReportRows caps the rows included in CSV report output.
func WithMaxReportRows(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxReportRows = n
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		dataDir:            "outputs",
		scoredFile:         "merged_scored.csv",
		qcFile:             "qc_sensor_counts.csv",
		lowActivityMinutes: 60,
		maxReportRows:      50,
		derivedWeights:     [2]float64{0.7, 0.3},
		fixedCutpoints:     [2]float64{-0.5, 0.5},
		featureLabels:      map[string]string{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.alerts == nil {
		s.alerts = repository.NewMemoryStore()
	}
	s.scorer = scoring.NewEngine(
		scoring.WithDerivedWeights(s.derivedWeights[0], s.derivedWeights[1]),
		scoring.WithFixedCutpoints(s.fixedCutpoints[0], s.fixedCutpoints[1]),
	)
	s.explainer = explain.NewEngine(explain.WithFeatures(orderedFeatures(s.featureLabels)))
	return s
}

// Load runs the one-time ingest phase: read sources, build the roster,
// derive QC summaries and substitute indices, and raise heuristic alerts.
// Missing sources degrade to partial results; nothing here is fatal except
// an unreadable present file.
func (s *Service) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.logger == nil {
		s.logger = logger.Get()
	}
	log := s.logger.Named("load")

	loader := datasource.NewLoader(datasource.WithLogger(log))
	scored, err := loader.Load(ctx, filepath.Join(s.dataDir, s.scoredFile))
	if err != nil {
		return fmt.Errorf("load score table: %w", err)
	}
	qc, err := loader.Load(ctx, filepath.Join(s.dataDir, s.qcFile))
	if err != nil {
		return fmt.Errorf("load qc table: %w", err)
	}

	rawLoader := datasource.NewLoader(
		datasource.WithLogger(log),
		datasource.WithoutHeader(colSubjectID),
	)
	var raws []datasource.Table
	for _, f := range s.rawFiles {
		t, err := rawLoader.Load(ctx, filepath.Join(s.dataDir, f))
		if err != nil {
			return fmt.Errorf("load raw table %s: %w", f, err)
		}
		raws = append(raws, t)
	}

	// Canonical roster across every source.
	rb := roster.NewBuilder()
	rb.AddTable(scored, colSubjectID)
	rb.AddTable(qc, colSubjectID)
	for _, t := range raws {
		rb.AddTable(t, colSubjectID)
	}
	s.rosterIDs = rb.Build()

	s.subjects = make(map[string]*model.Subject, len(s.rosterIDs))
	s.inScored = make(map[string]bool)
	s.inQC = make(map[string]bool)
	for _, id := range s.rosterIDs {
		s.subjects[id] = &model.Subject{ID: id, IndexSource: model.IndexSourceUnknown}
	}

	s.ingestScored(scored)
	summaries := s.aggregateQC(qc)
	s.synthesizeIndices(summaries)
	s.scoredTable = scored
	s.loaded = true

	s.generateAlerts(ctx)
	s.publishMetrics()

	log.Info(ctx, "engine data loaded",
		logger.Int("subjects", len(s.rosterIDs)),
		logger.Int("scoredRows", len(scored.Rows)),
		logger.Int("qcRows", len(qc.Rows)),
		logger.Int("rawSources", len(raws)),
	)
	return nil
}

// ingestScored folds score-table rows into their subjects. Core fields are
// typed; every other column travels in the record's Extra map. The latest
// non-nil value wins for subject-level metrics.
func (s *Service) ingestScored(scored datasource.Table) {
	for _, row := range scored.Rows {
		id, ok := datasource.StringField(row, colSubjectID)
		if !ok {
			continue
		}
		subj, ok := s.subjects[id]
		if !ok {
			continue
		}
		s.inScored[id] = true

		rec := model.Record{
			SubjectID:         id,
			IndependenceIndex: datasource.FloatField(row, colIndex),
			StepsSum:          datasource.FloatField(row, colStepsSum),
			ActiveMinutes:     datasource.FloatField(row, colActiveMinutes),
			Extra:             map[string]string{},
		}
		for col, val := range row {
			switch col {
			case colSubjectID, colIndex, colStepsSum, colActiveMinutes:
			default:
				rec.Extra[col] = val
			}
		}
		subj.Records = append(subj.Records, rec)

		if rec.IndependenceIndex != nil {
			subj.IndependenceIndex = rec.IndependenceIndex
			subj.IndexSource = model.IndexSourceModel
		}
		if rec.StepsSum != nil {
			subj.StepsSum = rec.StepsSum
		}
		if rec.ActiveMinutes != nil {
			subj.ActiveMinutes = rec.ActiveMinutes
		}
	}
}

// aggregateQC derives one immutable QC summary per subject from the
// per-device quality-control rows.
func (s *Service) aggregateQC(qc datasource.Table) map[string]*model.QCSummary {
	type acc struct {
		records int
		days    int
		first   string
		last    string
		steps   []float64
		active  []float64
	}
	accs := map[string]*acc{}

	for _, row := range qc.Rows {
		id, ok := datasource.StringField(row, colSubjectID)
		if !ok {
			continue
		}
		if _, known := s.subjects[id]; !known {
			continue
		}
		s.inQC[id] = true
		a := accs[id]
		if a == nil {
			a = &acc{}
			accs[id] = a
		}
		if v := datasource.FloatField(row, qcColRecords); v != nil {
			a.records += int(*v)
		}
		if v := datasource.FloatField(row, qcColDays); v != nil && int(*v) > a.days {
			a.days = int(*v)
		}
		if d, ok := datasource.StringField(row, qcColFirstDate); ok {
			if a.first == "" || d < a.first {
				a.first = d
			}
		}
		if d, ok := datasource.StringField(row, qcColLastDate); ok {
			if d > a.last {
				a.last = d
			}
		}
		if v := datasource.FloatField(row, qcColAvgSteps); v != nil {
			a.steps = append(a.steps, *v)
		}
		if v := datasource.FloatField(row, qcColAvgActive); v != nil {
			a.active = append(a.active, *v)
		}
	}

	out := make(map[string]*model.QCSummary, len(accs))
	for id, a := range accs {
		sum := &model.QCSummary{
			SubjectID:   id,
			RecordCount: a.records,
			UniqueDays:  a.days,
			FirstDate:   a.first,
			LastDate:    a.last,
		}
		if len(a.steps) > 0 {
			m := mean(a.steps)
			sum.AvgStepsPerDay = &m
		}
		if len(a.active) > 0 {
			m := mean(a.active)
			sum.AvgActiveMinutesDay = &m
		}
		out[id] = sum
		s.subjects[id].QC = sum
	}
	return out
}

// synthesizeIndices fills in a substitute index for subjects lacking the
// model-computed one, from normalized QC averages.
func (s *Service) synthesizeIndices(summaries map[string]*model.QCSummary) {
	var stepsPop, activePop []float64
	for _, sum := range summaries {
		if sum.AvgStepsPerDay != nil {
			stepsPop = append(stepsPop, *sum.AvgStepsPerDay)
		}
		if sum.AvgActiveMinutesDay != nil {
			activePop = append(activePop, *sum.AvgActiveMinutesDay)
		}
	}
	stepsStats := stats.Describe(stepsPop)
	activeStats := stats.Describe(activePop)

	for _, subj := range s.subjects {
		if subj.IndependenceIndex != nil {
			continue
		}
		sum := subj.QC
		if sum == nil {
			continue
		}
		derived := s.scorer.DeriveIndex(sum.AvgStepsPerDay, sum.AvgActiveMinutesDay, stepsStats, activeStats)
		if derived == nil {
			continue
		}
		subj.IndependenceIndex = derived
		subj.IndexSource = model.IndexSourceQCDerived
	}
}

// generateAlerts raises the load-time heuristic alerts: one per High-tier
// subject and one per subject under the low-activity cut. A subject may
// receive zero, one, or both.
func (s *Service) generateAlerts(ctx context.Context) {
	th := s.computeThreshold()
	for _, id := range s.rosterIDs {
		subj := s.subjects[id]
		if subj.IndependenceIndex != nil {
			if s.scorer.Classify(*subj.IndependenceIndex, th) == model.RiskHigh {
				if _, err := s.alerts.Create(ctx, id, model.AlertTypeRiskHigh, model.SeverityHigh, nil); err != nil {
					s.logger.Warn(ctx, "risk alert creation failed", logger.String("subject", id), logger.Error(err))
				}
			}
		}
		if active := s.effectiveActiveMinutes(subj); active != nil && *active < s.lowActivityMinutes {
			if _, err := s.alerts.Create(ctx, id, model.AlertTypeLowActivity, model.SeverityMedium, nil); err != nil {
				s.logger.Warn(ctx, "activity alert creation failed", logger.String("subject", id), logger.Error(err))
			}
		}
	}
}

// effectiveActiveMinutes prefers the score table's active minutes and
// falls back to the QC daily average.
func (s *Service) effectiveActiveMinutes(subj *model.Subject) *float64 {
	if subj.ActiveMinutes != nil {
		return subj.ActiveMinutes
	}
	if subj.QC != nil {
		return subj.QC.AvgActiveMinutesDay
	}
	return nil
}

// computeThreshold derives the current cut points from the valid index
// population. Always computed fresh; never cached across calls.
func (s *Service) computeThreshold() model.Threshold {
	var population []float64
	hasModel, hasDerived := false, false
	for _, subj := range s.subjects {
		if subj.IndependenceIndex == nil {
			continue
		}
		population = append(population, *subj.IndependenceIndex)
		switch subj.IndexSource {
		case model.IndexSourceModel:
			hasModel = true
		case model.IndexSourceQCDerived:
			hasDerived = true
		}
	}
	return s.scorer.Thresholds(population, hasModel && hasDerived)
}

// view returns a copy of the subject with its tier classified under the
// given threshold.
func (s *Service) view(subj *model.Subject, th model.Threshold) model.Subject {
	out := *subj
	if out.IndependenceIndex != nil {
		out.RiskLevel = s.scorer.Classify(*out.IndependenceIndex, th)
	}
	return out
}

// Roster returns the sorted canonical subject ID list.
func (s *Service) Roster(_ context.Context) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.rosterIDs))
	copy(out, s.rosterIDs)
	return out
}

// Subject returns the subject view with metrics, QC summary, and index
// provenance. Subjects absent from both the score and QC tables are
// reported as not found even when a raw source put them on the roster.
func (s *Service) Subject(_ context.Context, id string) (model.Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	subj, err := s.lookup(id)
	if err != nil {
		return model.Subject{}, err
	}
	return s.view(subj, s.computeThreshold()), nil
}

// Subjects returns every roster subject's view plus the threshold used.
func (s *Service) Subjects(_ context.Context) ([]model.Subject, model.Threshold) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	th := s.computeThreshold()
	out := make([]model.Subject, 0, len(s.rosterIDs))
	for _, id := range s.rosterIDs {
		out = append(out, s.view(s.subjects[id], th))
	}
	return out, th
}

// Explanation renders the ranked rationale for the subject's latest
// record under the current threshold.
func (s *Service) Explanation(_ context.Context, id string) (model.Explanation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	subj, err := s.lookup(id)
	if err != nil {
		return model.Explanation{}, err
	}
	th := s.computeThreshold()
	return s.explainer.Explain(s.view(subj, th), th), nil
}

// lookup resolves a roster subject that has data in the score or QC
// tables. Callers must hold the read lock.
func (s *Service) lookup(id string) (*model.Subject, error) {
	if !s.loaded {
		return nil, ErrNotLoaded
	}
	id = strings.TrimSpace(id)
	subj, ok := s.subjects[id]
	if !ok || !(s.inScored[id] || s.inQC[id]) {
		return nil, fmt.Errorf("subject %q: %w", id, ErrSubjectNotFound)
	}
	return subj, nil
}

// ListAlerts returns alerts in insertion order, optionally filtered.
func (s *Service) ListAlerts(ctx context.Context, status model.AlertStatus) []model.Alert {
	return s.alerts.List(ctx, status)
}

// CreateAlert appends a new open alert for a subject.
func (s *Service) CreateAlert(ctx context.Context, subjectID, alertType, severity string) (model.Alert, error) {
	return s.alerts.Create(ctx, subjectID, alertType, severity, nil)
}

// AcknowledgeAlert marks an alert acknowledged.
func (s *Service) AcknowledgeAlert(ctx context.Context, id int64) (model.Alert, error) {
	return s.alerts.Acknowledge(ctx, id)
}

// DeclineAlert marks an alert declined.
func (s *Service) DeclineAlert(ctx context.Context, id int64) (model.Alert, error) {
	return s.alerts.Decline(ctx, id)
}

// ReportCSV renders the leading rows of the score table back to CSV for
// offline report downloads. Returns the text and the row count included.
func (s *Service) ReportCSV(_ context.Context) (string, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.loaded || len(s.scoredTable.Columns) == 0 {
		return "", 0
	}
	var b strings.Builder
	b.WriteString(strings.Join(s.scoredTable.Columns, ","))
	b.WriteByte('\n')
	rows := s.scoredTable.Rows
	if len(rows) > s.maxReportRows {
		rows = rows[:s.maxReportRows]
	}
	for _, row := range rows {
		fields := make([]string, len(s.scoredTable.Columns))
		for i, col := range s.scoredTable.Columns {
			fields[i] = row[col]
		}
		b.WriteString(strings.Join(fields, ","))
		b.WriteByte('\n')
	}
	return b.String(), len(rows)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	out := map[string]interface{}{
		"loaded":   s.loaded,
		"subjects": len(s.rosterIDs),
	}
	if s.loaded {
		counts := map[model.IndexSource]int{}
		for _, subj := range s.subjects {
			counts[subj.IndexSource]++
		}
		out["subjectsWithModelIndex"] = counts[model.IndexSourceModel]
		out["subjectsWithDerivedIndex"] = counts[model.IndexSourceQCDerived]
		out["subjectsWithoutIndex"] = counts[model.IndexSourceUnknown]
		out["alertsTotal"] = s.alerts.Count(ctx)
		out["alertsOpen"] = s.alerts.OpenCount(ctx)
	}
	return out
}

// publishMetrics pushes the post-load engine gauges.
func (s *Service) publishMetrics() {
	metrics.UpdateSubjectCount(len(s.rosterIDs))
	counts := map[model.IndexSource]int{}
	for _, subj := range s.subjects {
		counts[subj.IndexSource]++
	}
	for src, n := range counts {
		metrics.UpdateSubjectsByIndexSource(string(src), n)
	}
}

// orderedFeatures converts the configured label map into a deterministic
// feature list, sorted by key so tie-breaks never depend on map order.
func orderedFeatures(labels map[string]string) []explain.Feature {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	features := make([]explain.Feature, 0, len(keys))
	for _, k := range keys {
		features = append(features, explain.Feature{Key: k, Label: labels[k]})
	}
	return features
}

func mean(vals []float64) float64 {
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}
