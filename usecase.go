package usecase

import (
	"context"
	"reflect"
	"sync"
	"time"

	"github.com/xraph/usecase/dispatcher"
	"github.com/xraph/usecase/id"
	"github.com/xraph/usecase/payload"
)

// UseCase is an executable unit. Concrete types embed Base, which supplies
// every method except a real Execute.
type UseCase interface {
	ID() id.UseCaseID
	Name() string
	Execute(ctx context.Context, args ...any) (any, error)
	Dispatch(p payload.Payload)
	OnDispatch(h dispatcher.Handler) (unsubscribe func())
	ThrowError(err error)
	Unit() *Base
}

// Delegate receives every payload a bound use case dispatches, after the
// use case's own observers have seen it.
type Delegate interface {
	Delegate(p payload.Payload, meta payload.Meta)
}

// Base is the plumbing embedded by every use case. The zero value is
// usable; New fills in the display name from the concrete type.
type Base struct {
	once sync.Once
	id   id.UseCaseID
	name string
	bus  *dispatcher.Dispatcher

	mu       sync.RWMutex
	delegate Delegate
}

// New assigns u a fresh identity and resolves its display name. A type
// that defines DisplayName() string uses that; otherwise the concrete type
// name is used. Calling New again is a no-op.
func New[T UseCase](u T) T {
	b := u.Unit()
	b.init()

	b.mu.Lock()
	if b.name == "" {
		b.name = displayName(u)
	}
	b.mu.Unlock()
	return u
}

func (b *Base) init() {
	b.once.Do(func() {
		b.id = id.NewUseCaseID()
		b.bus = dispatcher.New()
	})
}

func displayName(u UseCase) string {
	if u == nil {
		return "UseCase"
	}
	if n, ok := u.(interface{ DisplayName() string }); ok {
		if name := n.DisplayName(); name != "" {
			return name
		}
	}
	t := reflect.TypeOf(u)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" {
		return "UseCase"
	}
	return t.Name()
}

// ID returns the unit's identity. It never changes.
func (b *Base) ID() id.UseCaseID {
	b.init()
	return b.id
}

// Name returns the display name, or "UseCase" before New has run.
func (b *Base) Name() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.name == "" {
		return "UseCase"
	}
	return b.name
}

// Origin returns the unit's identity as payload metadata.
func (b *Base) Origin() payload.Origin {
	return payload.Origin{ID: b.ID(), Name: b.Name()}
}

// Unit returns b. It lets engine code reach the plumbing of any UseCase.
func (b *Base) Unit() *Base { return b }

// Execute is the default implementation. It always fails with a
// *TypeError; concrete use cases must define their own.
func (b *Base) Execute(context.Context, ...any) (any, error) {
	return nil, &TypeError{UseCase: b.Name(), Err: ErrNotImplemented}
}

// Dispatch stamps p with the unit's identity, delivers it to the unit's
// direct observers and then to the bound delegate, if any.
func (b *Base) Dispatch(p payload.Payload) {
	if p == nil {
		return
	}
	meta := payload.Meta{
		UseCase:   b.Origin(),
		Timestamp: time.Now().UTC(),
	}
	b.bus.Dispatch(p, meta)

	if d := b.Bound(); d != nil {
		d.Delegate(p, meta)
	}
}

// Notify delivers p to the unit's direct observers only. The engine uses
// it to emit lifecycle payloads.
func (b *Base) Notify(p payload.Payload, meta payload.Meta) {
	b.init()
	b.bus.Dispatch(p, meta)
}

// OnDispatch subscribes h to every payload on the unit's private bus.
func (b *Base) OnDispatch(h dispatcher.Handler) (unsubscribe func()) {
	b.init()
	return b.bus.OnDispatch(h)
}

// ThrowError dispatches a payload.Failed carrying err.
func (b *Base) ThrowError(err error) {
	b.Dispatch(payload.Failed{Err: err})
}

// Bind routes subsequent dispatches to d. The binding outlives the run
// that set it so that late dispatches still reach it; the next run
// replaces it.
func (b *Base) Bind(d Delegate) {
	b.mu.Lock()
	b.delegate = d
	b.mu.Unlock()
}

// Bound returns the current binding, or nil.
func (b *Base) Bound() Delegate {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.delegate
}
