package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/okian/carelens/internal/domain/model"
	"github.com/okian/carelens/pkg/metrics"
)

// Defaults applied when Create is called without a type or severity.
const (
	defaultAlertType     = "manual"
	defaultAlertSeverity = model.SeverityMedium
)

// MemoryStore implements Store with an in-memory slice guarded by a mutex.
// Alerts are append-only: transitions mutate status in place and nothing
// is ever deleted, so insertion order is stable for the process lifetime.
type MemoryStore struct {
	mu     sync.Mutex
	alerts []model.Alert
	byID   map[int64]int
	nextID int64
	now    func() time.Time
}

// NewMemoryStore creates an in-memory alert store with configuration
// options.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		byID:   make(map[int64]int),
		nextID: 1,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns alerts in insertion order, optionally filtered by status.
func (s *MemoryStore) List(_ context.Context, status model.AlertStatus) []model.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Alert, 0, len(s.alerts))
	for _, a := range s.alerts {
		if status != "" && a.Status != status {
			continue
		}
		out = append(out, a)
	}
	return out
}

// Create appends a new open alert and returns it.
func (s *MemoryStore) Create(_ context.Context, subjectID, alertType, severity string, metadata map[string]string) (model.Alert, error) {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return model.Alert{}, fmt.Errorf("create alert: %w", ErrValidation)
	}
	if alertType == "" {
		alertType = defaultAlertType
	}
	if severity == "" {
		severity = defaultAlertSeverity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	a := model.Alert{
		ID:        s.nextID,
		SubjectID: subjectID,
		Type:      alertType,
		Severity:  severity,
		Status:    model.AlertOpen,
		CreatedAt: now,
		UpdatedAt: now,
		Metadata:  metadata,
	}
	s.nextID++
	s.byID[a.ID] = len(s.alerts)
	s.alerts = append(s.alerts, a)

	metrics.RecordAlertGenerated(alertType)
	metrics.UpdateOpenAlerts(s.openCountLocked())
	return a, nil
}

// Acknowledge sets the alert status to acknowledged.
func (s *MemoryStore) Acknowledge(ctx context.Context, id int64) (model.Alert, error) {
	return s.transition(ctx, id, model.AlertAcknowledged)
}

// Decline sets the alert status to declined.
func (s *MemoryStore) Decline(ctx context.Context, id int64) (model.Alert, error) {
	return s.transition(ctx, id, model.AlertDeclined)
}

// transition overwrites the alert status, permissively allowing a resolved
// alert to be re-resolved the other way.
func (s *MemoryStore) transition(_ context.Context, id int64, status model.AlertStatus) (model.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.byID[id]
	if !ok {
		return model.Alert{}, fmt.Errorf("alert %d: %w", id, ErrNotFound)
	}
	s.alerts[i].Status = status
	s.alerts[i].UpdatedAt = s.now()

	metrics.RecordAlertTransition(string(status))
	metrics.UpdateOpenAlerts(s.openCountLocked())
	return s.alerts[i], nil
}

// Count returns the total number of alerts ever created.
func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.alerts)
}

// OpenCount returns the number of alerts currently open.
func (s *MemoryStore) OpenCount(_ context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.openCountLocked()
}

func (s *MemoryStore) openCountLocked() int {
	n := 0
	for _, a := range s.alerts {
		if a.Status == model.AlertOpen {
			n++
		}
	}
	return n
}
