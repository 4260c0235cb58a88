package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/usecase"
	"github.com/xraph/usecase/ext"
	"github.com/xraph/usecase/payload"
)

// Compile-time interface checks.
var (
	_ ext.Extension          = (*Extension)(nil)
	_ ext.UseCaseWillExecute = (*Extension)(nil)
	_ ext.UseCaseDidExecute  = (*Extension)(nil)
	_ ext.UseCaseCompleted   = (*Extension)(nil)
	_ ext.UseCaseFailed      = (*Extension)(nil)
	_ ext.ReleaseViolation   = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	// Record persists a fully-formed audit event.
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a backend-neutral audit record. Callers provide a
// RecorderFunc adapter that bridges to their audit backend.
type AuditEvent struct {
	// What happened
	Action   string `json:"action"`
	Resource string `json:"resource"`
	Category string `json:"category"`

	// Details
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Severity constants.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Outcome constants.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Extension bridges run lifecycle events to an audit trail backend.
// Each lifecycle hook emits a structured audit event through the [Recorder].
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements ext.Extension.
func (e *Extension) Name() string { return "audit-hook" }

// ── Run lifecycle hooks ─────────────────────────────

// OnUseCaseWillExecute implements ext.UseCaseWillExecute.
func (e *Extension) OnUseCaseWillExecute(ctx context.Context, r *usecase.Run, args []any) error {
	return e.record(ctx, ActionRunStarted, SeverityInfo, OutcomeSuccess,
		r.ID.String(), CategoryRun, nil,
		"use_case", r.Name,
		"use_case_id", r.UseCaseID.String(),
		"parent_run_id", parentRunID(r),
		"args", len(args),
	)
}

// OnUseCaseDidExecute implements ext.UseCaseDidExecute.
func (e *Extension) OnUseCaseDidExecute(ctx context.Context, r *usecase.Run, _ any) error {
	return e.record(ctx, ActionRunDidExecute, SeverityInfo, OutcomeSuccess,
		r.ID.String(), CategoryRun, nil,
		"use_case", r.Name,
	)
}

// OnUseCaseCompleted implements ext.UseCaseCompleted.
func (e *Extension) OnUseCaseCompleted(ctx context.Context, r *usecase.Run, _ any, elapsed time.Duration) error {
	return e.record(ctx, ActionRunCompleted, SeverityInfo, OutcomeSuccess,
		r.ID.String(), CategoryRun, nil,
		"use_case", r.Name,
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

// OnUseCaseFailed implements ext.UseCaseFailed.
func (e *Extension) OnUseCaseFailed(ctx context.Context, r *usecase.Run, runErr error) error {
	return e.record(ctx, ActionRunFailed, SeverityCritical, OutcomeFailure,
		r.ID.String(), CategoryRun, runErr,
		"use_case", r.Name,
		"parent_run_id", parentRunID(r),
	)
}

// OnReleaseViolation implements ext.ReleaseViolation.
func (e *Extension) OnReleaseViolation(ctx context.Context, released *usecase.Run, p payload.Payload, meta payload.Meta) error {
	return e.record(ctx, ActionReleaseViolation, SeverityWarning, OutcomeFailure,
		released.ID.String(), CategoryPayload, nil,
		"use_case", released.Name,
		"payload_type", string(p.Type()),
		"dispatched_by", meta.UseCase.Name,
	)
}

// ── Internal helpers ────────────────────────────────

func parentRunID(r *usecase.Run) string {
	if r.ParentRunID.IsNil() {
		return ""
	}
	return r.ParentRunID.String()
}

// record builds and sends an audit event if the action is enabled.
// The kvPairs argument is a list of key-value pairs added to Metadata.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   ResourceRun,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
