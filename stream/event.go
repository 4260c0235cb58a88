// Package stream provides an in-process event broker for use case
// lifecycle events. It bridges the ext.Extension system to channel
// subscribers via topic-based pub/sub.
package stream

import (
	"encoding/json"
	"time"
)

// EventType identifies the kind of lifecycle event.
type EventType string

const (
	// Run events.
	EventRunStarted     EventType = "run.started"
	EventRunDidExecute  EventType = "run.did_execute"
	EventRunCompleted   EventType = "run.completed"
	EventRunFailed      EventType = "run.failed"
	EventRunLateDropped EventType = "run.release_violation"

	// Payload events.
	EventPayload EventType = "payload.dispatched"
)

// Event is the envelope sent to subscribers on a topic channel.
type Event struct {
	// Type identifies the lifecycle event.
	Type EventType `json:"type"`

	// Timestamp is when the event was emitted.
	Timestamp time.Time `json:"ts"`

	// Topic is the entity channel this event was published on.
	Topic string `json:"topic"`

	// UseCase is the display name of the use case the event concerns.
	UseCase string `json:"use_case,omitempty"`

	// Data is the event-specific payload.
	Data json.RawMessage `json:"data"`
}

// RunEventData is the payload for run lifecycle events.
type RunEventData struct {
	RunID       string `json:"run_id"`
	UseCaseID   string `json:"use_case_id"`
	Name        string `json:"name"`
	ParentRunID string `json:"parent_run_id,omitempty"`
	Args        int    `json:"args,omitempty"`
	ElapsedMs   int64  `json:"elapsed_ms,omitempty"`
	Error       string `json:"error,omitempty"`
}

// PayloadEventData is the payload for user payloads reaching the root
// dispatcher and for payloads dropped after release.
type PayloadEventData struct {
	PayloadType string          `json:"payload_type"`
	RunID       string          `json:"run_id,omitempty"`
	UseCase     string          `json:"use_case,omitempty"`
	Parents     []string        `json:"parents,omitempty"`
	Body        json.RawMessage `json:"body,omitempty"`
}
