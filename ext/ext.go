// Package ext defines the extension system for use case engines.
// Extensions are notified of lifecycle events (run started, completed,
// failed, payload dispatched) and can react to them.
//
// Each lifecycle hook is a separate interface so extensions opt in only
// to the events they care about.
package ext

import (
	"context"
	"time"

	"github.com/xraph/usecase"
	"github.com/xraph/usecase/payload"
)

// Extension is the base interface all extensions must implement.
type Extension interface {
	// Name returns a unique human-readable name for the extension.
	Name() string
}

// ──────────────────────────────────────────────────
// Run lifecycle hooks
// ──────────────────────────────────────────────────

// UseCaseWillExecute is called before Execute is invoked.
type UseCaseWillExecute interface {
	OnUseCaseWillExecute(ctx context.Context, r *usecase.Run, args []any) error
}

// UseCaseDidExecute is called once Execute has returned or its future settled.
type UseCaseDidExecute interface {
	OnUseCaseDidExecute(ctx context.Context, r *usecase.Run, value any) error
}

// UseCaseCompleted is called after a run finishes successfully.
type UseCaseCompleted interface {
	OnUseCaseCompleted(ctx context.Context, r *usecase.Run, value any, elapsed time.Duration) error
}

// UseCaseFailed is called after a run finishes with an error.
type UseCaseFailed interface {
	OnUseCaseFailed(ctx context.Context, r *usecase.Run, err error) error
}

// ──────────────────────────────────────────────────
// Payload hooks
// ──────────────────────────────────────────────────

// PayloadDispatched is called for every payload delivered by the root
// dispatcher, lifecycle and user-defined alike.
type PayloadDispatched interface {
	OnPayloadDispatched(ctx context.Context, p payload.Payload, meta payload.Meta) error
}

// ReleaseViolation is called when a payload is dropped because a run in
// its chain was already released. released is the run that blocked it.
type ReleaseViolation interface {
	OnReleaseViolation(ctx context.Context, released *usecase.Run, p payload.Payload, meta payload.Meta) error
}

// ──────────────────────────────────────────────────
// Other lifecycle hooks
// ──────────────────────────────────────────────────

// Shutdown is called when the engine is released.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
