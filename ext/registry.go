package ext

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/usecase"
	"github.com/xraph/usecase/payload"
)

// Named entry types pair a hook implementation with the extension name
// captured at registration time. This avoids type-asserting back to
// Extension inside the emit methods.
type willExecuteEntry struct {
	name string
	hook UseCaseWillExecute
}

type didExecuteEntry struct {
	name string
	hook UseCaseDidExecute
}

type completedEntry struct {
	name string
	hook UseCaseCompleted
}

type failedEntry struct {
	name string
	hook UseCaseFailed
}

type payloadDispatchedEntry struct {
	name string
	hook PayloadDispatched
}

type releaseViolationEntry struct {
	name string
	hook ReleaseViolation
}

type shutdownEntry struct {
	name string
	hook Shutdown
}

// Registry holds registered extensions and dispatches lifecycle events
// to them. It type-caches extensions at registration time so emit calls
// iterate only over extensions that implement the relevant hook.
// Register all extensions before the engine starts running use cases.
type Registry struct {
	extensions []Extension
	logger     *slog.Logger

	// Type-cached slices for each lifecycle hook.
	willExecute       []willExecuteEntry
	didExecute        []didExecuteEntry
	completed         []completedEntry
	failed            []failedEntry
	payloadDispatched []payloadDispatchedEntry
	releaseViolation  []releaseViolationEntry
	shutdown          []shutdownEntry
}

// NewRegistry creates an extension registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{logger: logger}
}

// Register adds an extension and type-asserts it into all applicable
// hook caches. Extensions are notified in registration order.
func (r *Registry) Register(e Extension) {
	r.extensions = append(r.extensions, e)
	name := e.Name()

	if h, ok := e.(UseCaseWillExecute); ok {
		r.willExecute = append(r.willExecute, willExecuteEntry{name, h})
	}
	if h, ok := e.(UseCaseDidExecute); ok {
		r.didExecute = append(r.didExecute, didExecuteEntry{name, h})
	}
	if h, ok := e.(UseCaseCompleted); ok {
		r.completed = append(r.completed, completedEntry{name, h})
	}
	if h, ok := e.(UseCaseFailed); ok {
		r.failed = append(r.failed, failedEntry{name, h})
	}
	if h, ok := e.(PayloadDispatched); ok {
		r.payloadDispatched = append(r.payloadDispatched, payloadDispatchedEntry{name, h})
	}
	if h, ok := e.(ReleaseViolation); ok {
		r.releaseViolation = append(r.releaseViolation, releaseViolationEntry{name, h})
	}
	if h, ok := e.(Shutdown); ok {
		r.shutdown = append(r.shutdown, shutdownEntry{name, h})
	}
}

// Extensions returns all registered extensions.
func (r *Registry) Extensions() []Extension { return r.extensions }

// ──────────────────────────────────────────────────
// Run event emitters
// ──────────────────────────────────────────────────

// EmitWillExecute notifies all extensions that implement UseCaseWillExecute.
func (r *Registry) EmitWillExecute(ctx context.Context, run *usecase.Run, args []any) {
	for _, e := range r.willExecute {
		if err := e.hook.OnUseCaseWillExecute(ctx, run, args); err != nil {
			r.logHookError("OnUseCaseWillExecute", e.name, err)
		}
	}
}

// EmitDidExecute notifies all extensions that implement UseCaseDidExecute.
func (r *Registry) EmitDidExecute(ctx context.Context, run *usecase.Run, value any) {
	for _, e := range r.didExecute {
		if err := e.hook.OnUseCaseDidExecute(ctx, run, value); err != nil {
			r.logHookError("OnUseCaseDidExecute", e.name, err)
		}
	}
}

// EmitCompleted notifies all extensions that implement UseCaseCompleted.
func (r *Registry) EmitCompleted(ctx context.Context, run *usecase.Run, value any, elapsed time.Duration) {
	for _, e := range r.completed {
		if err := e.hook.OnUseCaseCompleted(ctx, run, value, elapsed); err != nil {
			r.logHookError("OnUseCaseCompleted", e.name, err)
		}
	}
}

// EmitFailed notifies all extensions that implement UseCaseFailed.
func (r *Registry) EmitFailed(ctx context.Context, run *usecase.Run, runErr error) {
	for _, e := range r.failed {
		if err := e.hook.OnUseCaseFailed(ctx, run, runErr); err != nil {
			r.logHookError("OnUseCaseFailed", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Payload event emitters
// ──────────────────────────────────────────────────

// EmitPayloadDispatched notifies all extensions that implement PayloadDispatched.
func (r *Registry) EmitPayloadDispatched(ctx context.Context, p payload.Payload, meta payload.Meta) {
	for _, e := range r.payloadDispatched {
		if err := e.hook.OnPayloadDispatched(ctx, p, meta); err != nil {
			r.logHookError("OnPayloadDispatched", e.name, err)
		}
	}
}

// EmitReleaseViolation notifies all extensions that implement ReleaseViolation.
func (r *Registry) EmitReleaseViolation(ctx context.Context, released *usecase.Run, p payload.Payload, meta payload.Meta) {
	for _, e := range r.releaseViolation {
		if err := e.hook.OnReleaseViolation(ctx, released, p, meta); err != nil {
			r.logHookError("OnReleaseViolation", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Other event emitters
// ──────────────────────────────────────────────────

// EmitShutdown notifies all extensions that implement Shutdown.
func (r *Registry) EmitShutdown(ctx context.Context) {
	for _, e := range r.shutdown {
		if err := e.hook.OnShutdown(ctx); err != nil {
			r.logHookError("OnShutdown", e.name, err)
		}
	}
}

// logHookError logs a warning when a lifecycle hook returns an error.
// Errors from hooks are never propagated.
func (r *Registry) logHookError(hook, extName string, err error) {
	r.logger.Warn("extension hook error",
		slog.String("hook", hook),
		slog.String("extension", extName),
		slog.String("error", err.Error()),
	)
}
