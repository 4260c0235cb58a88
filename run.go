package usecase

import (
	"time"

	"github.com/xraph/usecase/id"
)

// RunState is the lifecycle state of a single run.
type RunState string

const (
	RunPending   RunState = "pending"
	RunRunning   RunState = "running"
	RunSucceeded RunState = "succeeded"
	RunFailed    RunState = "failed"
	RunReleased  RunState = "released"
)

// IsTerminal reports whether no further transition is possible.
func (s RunState) IsTerminal() bool { return s == RunReleased }

// CanTransition reports whether moving from s to next is allowed.
// Transitions are monotonic: pending → running → succeeded|failed → released.
func (s RunState) CanTransition(next RunState) bool {
	switch s {
	case RunPending:
		return next == RunRunning
	case RunRunning:
		return next == RunSucceeded || next == RunFailed
	case RunSucceeded, RunFailed:
		return next == RunReleased
	}
	return false
}

// Run is a snapshot of one execution of a use case inside an engine.
type Run struct {
	ID          id.RunID     `json:"id"`
	UseCaseID   id.UseCaseID `json:"use_case_id"`
	Name        string       `json:"name"`
	ParentRunID id.RunID     `json:"parent_run_id,omitempty"`
	State       RunState     `json:"state"`
	Error       string       `json:"error,omitempty"`
	StartedAt   time.Time    `json:"started_at"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
}

// Duration returns how long the run took, or zero while it is live.
func (r *Run) Duration() time.Duration {
	if r.CompletedAt == nil {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}
