// services/errors.go
package services

import "errors"

// Sentinel errors for the simulation engine. Handlers map these onto HTTP
// statuses; everything else is matched with errors.Is.
var (
	ErrMatchNotFound    = errors.New("match not found")
	ErrRosterNotFound   = errors.New("roster not found")
	ErrAlreadyRunning   = errors.New("match already running")
	ErrMatchCompleted   = errors.New("match already completed")
	ErrRecoveryConflict = errors.New("snapshot references a completed match")
	ErrNoSnapshot       = errors.New("no resumable snapshot")
)
