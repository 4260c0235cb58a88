package payload

// WillExecute is emitted before Execute runs.
type WillExecute struct {
	Args []any
}

// Type implements Payload.
func (WillExecute) Type() Type { return TypeWillExecute }

// DidExecute is emitted when Execute has finished, successfully or not.
type DidExecute struct {
	Value any
}

// Type implements Payload.
func (DidExecute) Type() Type { return TypeDidExecute }

// Completed is emitted after DidExecute for a successful run.
type Completed struct {
	Value any
}

// Type implements Payload.
func (Completed) Type() Type { return TypeCompleted }

// Failed carries an error. The engine emits it after DidExecute for a failed
// run; use cases emit it through ThrowError.
type Failed struct {
	Err error
}

// Type implements Payload.
func (Failed) Type() Type { return TypeFailed }

// Error returns the wrapped error message, or "" when Err is nil.
func (f Failed) Error() string {
	if f.Err == nil {
		return ""
	}
	return f.Err.Error()
}
