package repository

import "errors"

// Sentinel kinds for alert store errors.
var (
	ErrNotFound   = errors.New("alert not found")
	ErrValidation = errors.New("subject id is required")
)
