// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/carelens/internal/domain/model"
)

// AlertsHandler handles alert listing, creation, and transitions.
type AlertsHandler struct {
	deps Dependencies
}

// NewAlertsHandler creates a new alerts handler.
func NewAlertsHandler(deps Dependencies) *AlertsHandler {
	return &AlertsHandler{deps: deps}
}

// createAlertRequest mirrors the OpenAPI schema for POST /api/v1/alerts.
type createAlertRequest struct {
	SubjectID string `json:"subject_id"`
	Type      string `json:"type"`
	Severity  string `json:"severity"`
}

// alertsResponse mirrors the OpenAPI schema for GET /api/v1/alerts.
type alertsResponse struct {
	Alerts []model.Alert `json:"alerts"`
	Count  int           `json:"count"`
}

// HandleAlerts handles GET and POST /api/v1/alerts requests.
func (h *AlertsHandler) HandleAlerts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *AlertsHandler) list(w http.ResponseWriter, r *http.Request) {
	status := model.AlertStatus(strings.TrimSpace(r.URL.Query().Get("status")))
	switch status {
	case "", model.AlertOpen, model.AlertAcknowledged, model.AlertDeclined:
	default:
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	alerts := h.deps.ListAlerts(r.Context(), status)
	writeJSON(w, http.StatusOK, alertsResponse{Alerts: alerts, Count: len(alerts)})
}

func (h *AlertsHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createAlertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	alert, err := h.deps.CreateAlert(r.Context(), req.SubjectID, req.Type, req.Severity)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, alert)
}

// HandleAlertTransition handles POST /api/v1/alerts/{id}/ack and
// POST /api/v1/alerts/{id}/decline requests.
func (h *AlertsHandler) HandleAlertTransition(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	// Extract path parameters after /api/v1/alerts/
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/alerts/")
	rawID, action, _ := strings.Cut(path, "/")
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	var alert model.Alert
	switch action {
	case "ack":
		alert, err = h.deps.AcknowledgeAlert(r.Context(), id)
	case "decline":
		alert, err = h.deps.DeclineAlert(r.Context(), id)
	default:
		http.NotFound(w, r)
		return
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, alert)
}
