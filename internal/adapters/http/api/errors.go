package api

import (
	"errors"

	"github.com/okian/carelens/internal/adapters/repository"
	service "github.com/okian/carelens/internal/app"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
)

// isNotFound reports whether an upstream error should map to 404.
func isNotFound(err error) bool {
	return errors.Is(err, service.ErrSubjectNotFound) || errors.Is(err, repository.ErrNotFound)
}

// isValidation reports whether an upstream error should map to 400.
func isValidation(err error) bool {
	return errors.Is(err, repository.ErrValidation) || errors.Is(err, ErrBadRequest)
}
