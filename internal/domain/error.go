package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrConflict        = errors.New("entity was modified concurrently")

	// Chat errors
	ErrSessionBusy = errors.New("a chat request is already in flight for this session")

	// AI backend errors
	ErrRateLimited   = errors.New("rate limited by AI backend")
	ErrQuotaExceeded = errors.New("AI backend quota or payment required")
	ErrBackend       = errors.New("AI backend error")

	// Job errors
	ErrJobNotCompleted   = errors.New("job is not in completed state")
	ErrInvalidTransition = errors.New("invalid job status transition")

	ErrInvalidExecContext = errors.New("invalid query executor")
)

// BackendError carries the human-readable message extracted from an AI
// backend failure together with the category sentinel it maps to
// (ErrRateLimited, ErrQuotaExceeded or ErrBackend).
type BackendError struct {
	Category error
	Message  string
}

func (e *BackendError) Error() string {
	if e.Message == "" {
		return e.Category.Error()
	}
	return e.Message
}

func (e *BackendError) Unwrap() error { return e.Category }

func NewBackendError(category error, message string) *BackendError {
	if category == nil {
		category = ErrBackend
	}
	return &BackendError{Category: category, Message: message}
}
