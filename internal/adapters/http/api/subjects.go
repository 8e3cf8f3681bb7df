// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strings"

	"github.com/okian/carelens/internal/domain/model"
)

// SubjectsHandler handles roster and subject read requests.
type SubjectsHandler struct {
	deps Dependencies
}

// NewSubjectsHandler creates a new subjects handler.
func NewSubjectsHandler(deps Dependencies) *SubjectsHandler {
	return &SubjectsHandler{deps: deps}
}

// rosterResponse mirrors the OpenAPI schema for GET /api/v1/roster.
type rosterResponse struct {
	Subjects []string `json:"subjects"`
	Count    int      `json:"count"`
}

// subjectsResponse mirrors the OpenAPI schema for GET /api/v1/subjects.
type subjectsResponse struct {
	Subjects   []model.Subject `json:"subjects"`
	Thresholds model.Threshold `json:"thresholds"`
}

// HandleGetRoster handles GET /api/v1/roster requests.
func (h *SubjectsHandler) HandleGetRoster(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	ids := h.deps.Roster(r.Context())
	writeJSON(w, http.StatusOK, rosterResponse{Subjects: ids, Count: len(ids)})
}

// HandleListSubjects handles GET /api/v1/subjects requests.
func (h *SubjectsHandler) HandleListSubjects(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	subjects, th := h.deps.Subjects(r.Context())
	writeJSON(w, http.StatusOK, subjectsResponse{Subjects: subjects, Thresholds: th})
}

// HandleSubjectSubtree handles GET /api/v1/subjects/{id} and
// GET /api/v1/subjects/{id}/explanation requests.
func (h *SubjectsHandler) HandleSubjectSubtree(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	// Extract path parameters after /api/v1/subjects/
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/subjects/")
	id, rest, _ := strings.Cut(path, "/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	switch rest {
	case "":
		subject, err := h.deps.Subject(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, subject)
	case "explanation":
		explanation, err := h.deps.Explanation(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, explanation)
	default:
		http.NotFound(w, r)
	}
}
