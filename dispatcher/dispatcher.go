// Package dispatcher provides the synchronous publish/subscribe bus used
// both as the root event bus of an engine and as the private bus of every
// use case.
//
// Delivery is synchronous and reentrant: a handler may itself call
// Dispatch, and the nested delivery runs to completion before the outer
// Dispatch returns (depth-first). No lock is held while handlers run.
// Each Dispatch delivers to the snapshot of handlers taken when it starts,
// so unsubscribing during delivery never skips or repeats a handler.
package dispatcher

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/xraph/usecase/payload"
)

// Handler receives a payload and its delivery metadata.
type Handler func(p payload.Payload, meta payload.Meta)

type subscription struct {
	typ payload.Type
	h   Handler
}

// Dispatcher maps payload types (or the wildcard payload.Any) to an
// ordered list of handlers. Registration order is notification order.
// It is safe for concurrent use.
type Dispatcher struct {
	mu     sync.RWMutex
	subs   []*subscription
	logger *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger used to report handler panics.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// New creates an empty Dispatcher.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{logger: slog.Default()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Subscribe registers h for payloads of type t. Pass payload.Any to
// receive every payload. The returned function removes the handler; it is
// idempotent and may be called from inside a handler.
func (d *Dispatcher) Subscribe(t payload.Type, h Handler) (unsubscribe func()) {
	if h == nil {
		return func() {}
	}

	s := &subscription{typ: t, h: h}

	d.mu.Lock()
	d.subs = append(d.subs, s)
	d.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { d.remove(s) })
	}
}

// OnDispatch registers h for every payload.
func (d *Dispatcher) OnDispatch(h Handler) (unsubscribe func()) {
	return d.Subscribe(payload.Any, h)
}

// Dispatch delivers p to every handler registered for p.Type() and for
// payload.Any, in registration order. A panicking handler is logged and
// delivery continues with the next one.
func (d *Dispatcher) Dispatch(p payload.Payload, meta payload.Meta) {
	if p == nil {
		return
	}
	t := p.Type()

	d.mu.RLock()
	targets := make([]*subscription, 0, len(d.subs))
	for _, s := range d.subs {
		if s.typ == t || s.typ == payload.Any {
			targets = append(targets, s)
		}
	}
	d.mu.RUnlock()

	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now().UTC()
	}

	for _, s := range targets {
		d.deliver(s, p, meta)
	}
}

// Len returns the number of registered handlers.
func (d *Dispatcher) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.subs)
}

func (d *Dispatcher) deliver(s *subscription, p payload.Payload, meta payload.Meta) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("dispatcher handler panicked",
				slog.String("payload_type", string(p.Type())),
				slog.String("use_case", meta.UseCase.Name),
				slog.String("panic", fmt.Sprint(r)),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()
	s.h(p, meta)
}

func (d *Dispatcher) remove(s *subscription) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, cur := range d.subs {
		if cur == s {
			d.subs = append(d.subs[:i:i], d.subs[i+1:]...)
			return
		}
	}
}
