package service

import "errors"

// Sentinel kinds for engine lookup failures.
var (
	ErrSubjectNotFound = errors.New("subject not found")
	ErrNotLoaded       = errors.New("engine data not loaded")
)
