package interfaces

import "errors"

// Sentinel errors shared by all repository backends
var (
	ErrEntityNotFound  = errors.New("entity not found")
	ErrSessionNotFound = errors.New("session not found")

	// ErrVersionConflict indicates a session update lost the optimistic
	// version check to a concurrent turn
	ErrVersionConflict = errors.New("session version conflict")
)
