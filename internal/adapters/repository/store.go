// Package repository defines the alert store interface and errors.
package repository

import (
	"context"

	"github.com/okian/carelens/internal/domain/model"
)

// Store provides read/write access to the alert state. It is the only
// mutable shared resource in the engine; implementations must serialize
// writes so concurrent transitions and ID allocation never lose updates.
type Store interface {
	// List returns alerts in stable insertion order, optionally filtered
	// by status. An empty status returns everything.
	List(ctx context.Context, status model.AlertStatus) []model.Alert

	// Create appends a new open alert with a freshly allocated monotonic
	// ID. Returns ErrValidation when subjectID is blank. Empty type and
	// severity fall back to defaults.
	Create(ctx context.Context, subjectID, alertType, severity string, metadata map[string]string) (model.Alert, error)

	// Acknowledge sets the alert status to acknowledged and refreshes its
	// update time. Returns ErrNotFound for unknown IDs. Re-transitioning
	// an already-resolved alert overwrites its status.
	Acknowledge(ctx context.Context, id int64) (model.Alert, error)

	// Decline mirrors Acknowledge with the declined status.
	Decline(ctx context.Context, id int64) (model.Alert, error)

	// Count returns the total number of alerts ever created.
	Count(ctx context.Context) int

	// OpenCount returns the number of alerts currently open.
	OpenCount(ctx context.Context) int
}
