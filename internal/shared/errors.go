package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Store errors
	ErrTrackNotFound = fmt.Errorf("track not found")
	ErrEmptyLibrary  = fmt.Errorf("fingerprint store is empty")

	// Collaborator errors
	ErrQueueUnavailable = fmt.Errorf("playback queue unavailable")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
