// Package payload defines the immutable tagged values that flow through a
// dispatcher: the four lifecycle variants emitted around every use case run
// and arbitrary application-defined payloads.
package payload

import (
	"time"

	"github.com/xraph/usecase/id"
)

// Type is the discriminant of a payload. Subscribers are selected by it.
type Type string

const (
	// TypeWillExecute is emitted before a use case's Execute is invoked.
	TypeWillExecute Type = "usecase.will_execute"
	// TypeDidExecute is emitted once Execute has returned or its future settled.
	TypeDidExecute Type = "usecase.did_execute"
	// TypeCompleted is emitted after DidExecute for a successful run.
	TypeCompleted Type = "usecase.completed"
	// TypeFailed is emitted after DidExecute for a failed run, and by ThrowError.
	TypeFailed Type = "usecase.failed"

	// Any is the wildcard subscription key. No payload reports it as its type.
	Any Type = "*"
)

// Payload is an immutable event value. Implementations should be value
// types or never mutated after dispatch.
type Payload interface {
	Type() Type
}

// IsLifecycle reports whether t is one of the lifecycle discriminants.
func IsLifecycle(t Type) bool {
	switch t {
	case TypeWillExecute, TypeDidExecute, TypeCompleted, TypeFailed:
		return true
	}
	return false
}

// Origin names the use case a payload came from.
type Origin struct {
	ID   id.UseCaseID `json:"id"`
	Name string       `json:"name"`
}

// IsZero reports whether the origin is unset (payload dispatched outside a use case).
func (o Origin) IsZero() bool { return o.ID.IsNil() && o.Name == "" }

// Meta accompanies every delivery.
type Meta struct {
	// UseCase is the unit that dispatched the payload.
	UseCase Origin `json:"use_case"`

	// Parents is the ancestor chain of the run, nearest first.
	Parents []Origin `json:"parents,omitempty"`

	// RunID identifies the run the payload belongs to. Nil for payloads
	// dispatched outside an engine.
	RunID id.RunID `json:"run_id"`

	// IsLifecycle is true for payloads emitted by the engine itself.
	IsLifecycle bool `json:"is_lifecycle"`

	Timestamp time.Time `json:"ts"`
}

// Event is a general-purpose user-defined payload.
type Event struct {
	Kind Type           `json:"type"`
	Data map[string]any `json:"data,omitempty"`
}

// New returns a user-defined payload of the given kind.
func New(kind Type, data map[string]any) *Event {
	return &Event{Kind: kind, Data: data}
}

// Type implements Payload.
func (e *Event) Type() Type { return e.Kind }
