// Package adapter defines the run-completion notification boundary.
//
// Adapters publish run completion notifications to downstream systems.
// The CLI owns adapter lifecycle; users provide configuration only.
package adapter

import "context"

// RunCompletedEvent is the payload published when a run finishes.
type RunCompletedEvent struct {
	EventType   string `json:"event_type"` // always "run_completed"
	RunID       string `json:"run_id"`
	Outcome     string `json:"outcome"` // success, failures, error
	Timestamp   string `json:"timestamp"` // ISO 8601
	ProgramCount int   `json:"program_count"`
	TestCount    int   `json:"test_count"`
	FailedCount  int   `json:"failed_count"`
	DurationMs   int64 `json:"duration_ms"`
}

// Adapter publishes run completion events to a downstream system.
// Implementations must be safe for single-use per run.
type Adapter interface {
	// Publish sends a run completion event to the downstream system.
	// Must respect context cancellation and deadlines.
	Publish(ctx context.Context, event *RunCompletedEvent) error

	// Close releases adapter resources.
	Close() error
}
