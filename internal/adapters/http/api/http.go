// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/carelens/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Read operations expose engine data.
	Roster(ctx context.Context) []string
	Subject(ctx context.Context, id string) (model.Subject, error)
	Subjects(ctx context.Context) ([]model.Subject, model.Threshold)
	Explanation(ctx context.Context, id string) (model.Explanation, error)
	ReportCSV(ctx context.Context) (string, int)

	// Alert lifecycle operations.
	ListAlerts(ctx context.Context, status model.AlertStatus) []model.Alert
	CreateAlert(ctx context.Context, subjectID, alertType, severity string) (model.Alert, error)
	AcknowledgeAlert(ctx context.Context, id int64) (model.Alert, error)
	DeclineAlert(ctx context.Context, id int64) (model.Alert, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	subjectsHandler *SubjectsHandler
	alertsHandler   *AlertsHandler
	authHandler     *AuthHandler
	reportHandler   *ReportHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		subjectsHandler: NewSubjectsHandler(deps),
		alertsHandler:   NewAlertsHandler(deps),
		authHandler:     NewAuthHandler(),
		reportHandler:   NewReportHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/api/v1/roster", MetricsMiddleware(s.subjectsHandler.HandleGetRoster, "roster"))
	mux.HandleFunc("/api/v1/subjects", MetricsMiddleware(s.subjectsHandler.HandleListSubjects, "subjects"))
	mux.HandleFunc("/api/v1/subjects/", MetricsMiddleware(s.subjectsHandler.HandleSubjectSubtree, "subject"))
	mux.HandleFunc("/api/v1/alerts", MetricsMiddleware(s.alertsHandler.HandleAlerts, "alerts"))
	mux.HandleFunc("/api/v1/alerts/", MetricsMiddleware(s.alertsHandler.HandleAlertTransition, "alert_transition"))
	mux.HandleFunc("/api/v1/auth/login", MetricsMiddleware(s.authHandler.HandleLogin, "login"))
	mux.HandleFunc("/api/v1/reports/export", MetricsMiddleware(s.reportHandler.HandleExport, "report"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError translates engine errors to their HTTP shape.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case isNotFound(err):
		writeError(w, http.StatusNotFound, "not_found", err)
	case isValidation(err):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
