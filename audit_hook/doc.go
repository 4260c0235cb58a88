// Package audithook is an engine extension that bridges use case run
// lifecycle events to an immutable audit trail backend.
//
// Every run lifecycle hook emits a structured audit event through the
// [Recorder] interface. The extension assigns severity levels (info for
// normal operations, warning for release violations, critical for failed
// runs) and metadata (use case name, parent run, elapsed time, errors).
//
// # Usage
//
//	audithook.New(audithook.RecorderFunc(func(ctx context.Context, evt *audithook.AuditEvent) error {
//	    return trail.Append(ctx, evt.Action, evt.ResourceID, evt.Metadata)
//	}))
//
// # Selective filtering
//
//	audithook.New(recorder,
//	    audithook.WithActions(
//	        audithook.ActionRunFailed,
//	        audithook.ActionReleaseViolation,
//	    ),
//	)
package audithook
