package audithook

// Audit event actions. Each constant corresponds to one ext lifecycle hook
// and becomes the Action field of the audit event.
const (
	ActionRunStarted       = "run.started"
	ActionRunDidExecute    = "run.did_execute"
	ActionRunCompleted     = "run.completed"
	ActionRunFailed        = "run.failed"
	ActionReleaseViolation = "run.release_violation"
)

// Audit event categories group related actions.
const (
	CategoryRun     = "usecase.run"
	CategoryPayload = "usecase.payload"
)

// Resource types used as the Resource field in audit events.
const (
	ResourceRun = "run"
)

// AllActions returns every action this extension can emit.
func AllActions() []string {
	return []string{
		ActionRunStarted,
		ActionRunDidExecute,
		ActionRunCompleted,
		ActionRunFailed,
		ActionReleaseViolation,
	}
}
