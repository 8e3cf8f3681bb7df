// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AuthHandler handles the demo login flow. Tokens are opaque identifiers
// minted per login; nothing enforces them on other routes.
type AuthHandler struct{}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

// loginRequest mirrors the OpenAPI schema for POST /api/v1/auth/login.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	IssuedAt string `json:"issued_at"`
}

func (l loginRequest) validate() error {
	switch {
	case strings.TrimSpace(l.Username) == "":
		return errors.New("missing username")
	case strings.TrimSpace(l.Password) == "":
		return errors.New("missing password")
	}
	return nil
}

// HandleLogin handles POST /api/v1/auth/login requests.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{
		Token:    uuid.NewString(),
		Username: strings.TrimSpace(req.Username),
		IssuedAt: time.Now().UTC().Format(time.RFC3339),
	})
}
