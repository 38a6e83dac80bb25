package models

import (
	"fmt"
	"time"
)

// Run is the persisted summary of one playlist generation.
type Run struct {
	ID           string    `json:"id"`
	Mode         string    `json:"mode"`
	Seed         string    `json:"seed"`
	Requested    int       `json:"requested"`
	Picked       int       `json:"picked"`
	StopReason   string    `json:"stop_reason"`
	ErrorMessage string    `json:"error,omitempty"`
	DryRun       bool      `json:"dry_run"`
	StartedAt    time.Time `json:"started_at"`
	CompletedAt  time.Time `json:"completed_at"`
}

// Validate checks the fields required for persistence.
func (r *Run) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("run id is required")
	}
	if r.Mode == "" {
		return fmt.Errorf("run mode is required")
	}
	if r.StopReason == "" {
		return fmt.Errorf("run stop reason is required")
	}
	if r.CompletedAt.Before(r.StartedAt) {
		return fmt.Errorf("run completed before it started")
	}
	return nil
}

// Duration is the wall time of the run.
func (r *Run) Duration() time.Duration {
	return r.CompletedAt.Sub(r.StartedAt)
}
