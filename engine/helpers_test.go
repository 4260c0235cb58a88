package engine_test

import (
	"context"
	"sync"
	"testing"

	"github.com/xraph/usecase"
	"github.com/xraph/usecase/engine"
	"github.com/xraph/usecase/internal/logtest"
	"github.com/xraph/usecase/payload"
)

// funcUseCase runs fn as its Execute body.
type funcUseCase struct {
	usecase.Base
	name string
	fn   func(ctx context.Context, self *funcUseCase, args ...any) (any, error)
}

func (u *funcUseCase) DisplayName() string { return u.name }

func (u *funcUseCase) Execute(ctx context.Context, args ...any) (any, error) {
	return u.fn(ctx, u, args...)
}

func newFunc(name string, fn func(ctx context.Context, self *funcUseCase, args ...any) (any, error)) *funcUseCase {
	return usecase.New(&funcUseCase{name: name, fn: fn})
}

// noExecute never defines Execute.
type noExecute struct {
	usecase.Base
}

func newEngine(t *testing.T, opts ...engine.Option) *engine.Context {
	t.Helper()
	opts = append([]engine.Option{engine.WithLogger(logtest.Discard())}, opts...)
	c, err := engine.New(opts...)
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	return c
}

// typeLog collects payload types from a handler. It is safe for
// concurrent use.
type typeLog struct {
	mu    sync.Mutex
	types []payload.Type
	metas []payload.Meta
}

func (l *typeLog) handle(p payload.Payload, meta payload.Meta) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.types = append(l.types, p.Type())
	l.metas = append(l.metas, meta)
}

func (l *typeLog) snapshot() []payload.Type {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]payload.Type, len(l.types))
	copy(out, l.types)
	return out
}

func (l *typeLog) contains(t payload.Type) bool {
	for _, got := range l.snapshot() {
		if got == t {
			return true
		}
	}
	return false
}

func (l *typeLog) metaFor(t payload.Type) (payload.Meta, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, got := range l.types {
		if got == t {
			return l.metas[i], true
		}
	}
	return payload.Meta{}, false
}

func equalTypes(got, want []payload.Type) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

// violationExt counts release violations.
type violationExt struct {
	mu    sync.Mutex
	calls int
}

func (e *violationExt) Name() string { return "violations" }

func (e *violationExt) OnReleaseViolation(context.Context, *usecase.Run, payload.Payload, payload.Meta) error {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	return nil
}

func (e *violationExt) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}
