package payload_test

import (
	"errors"
	"testing"

	"github.com/xraph/usecase/id"
	"github.com/xraph/usecase/payload"
)

func TestLifecycleTypes(t *testing.T) {
	tests := []struct {
		p    payload.Payload
		want payload.Type
	}{
		{payload.WillExecute{}, payload.TypeWillExecute},
		{payload.DidExecute{}, payload.TypeDidExecute},
		{payload.Completed{}, payload.TypeCompleted},
		{payload.Failed{}, payload.TypeFailed},
	}
	for _, tt := range tests {
		if got := tt.p.Type(); got != tt.want {
			t.Errorf("Type() = %q, want %q", got, tt.want)
		}
		if !payload.IsLifecycle(tt.p.Type()) {
			t.Errorf("IsLifecycle(%q) = false", tt.p.Type())
		}
	}
}

func TestEvent(t *testing.T) {
	evt := payload.New("color.changed", map[string]any{"hex": "#fff"})
	if evt.Type() != "color.changed" {
		t.Errorf("Type() = %q", evt.Type())
	}
	if payload.IsLifecycle(evt.Type()) {
		t.Error("user payload reported as lifecycle")
	}
	if payload.IsLifecycle(payload.Any) {
		t.Error("wildcard reported as lifecycle")
	}
}

func TestFailedError(t *testing.T) {
	if got := (payload.Failed{}).Error(); got != "" {
		t.Errorf("empty Failed Error() = %q", got)
	}
	if got := (payload.Failed{Err: errors.New("boom")}).Error(); got != "boom" {
		t.Errorf("Error() = %q, want boom", got)
	}
}

func TestOriginIsZero(t *testing.T) {
	if !(payload.Origin{}).IsZero() {
		t.Error("zero origin should be zero")
	}
	if (payload.Origin{ID: id.NewUseCaseID()}).IsZero() {
		t.Error("origin with id should not be zero")
	}
}
