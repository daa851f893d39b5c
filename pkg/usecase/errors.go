package usecase

import "errors"

// Sentinel errors for use case layer
var (
	// Not found errors
	ErrProfileNotFound = errors.New("client profile not found")
	ErrSessionNotFound = errors.New("session not found")

	// Concurrency errors
	ErrSessionBusy = errors.New("session has a turn in flight")

	// Validation errors
	ErrInvalidRequest = errors.New("invalid request")
)

// Context keys for error values
const (
	ProfileIDKey = "profile_id"
	SessionIDKey = "session_id"
)
