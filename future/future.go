// Package future provides a settle-once pending value. A use case returns a
// *Future from Execute to signal asynchronous completion; the engine
// subscribes to its settlement instead of polling.
package future

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrNilRejection is the error a future settles with when Reject is
// called with a nil error.
var ErrNilRejection = errors.New("future: rejected with nil error")

// Future is a value that settles exactly once, either resolved with a
// value or rejected with an error. The first settle call wins; later ones
// report false and have no effect. It is safe for concurrent use.
type Future struct {
	mu        sync.Mutex
	done      chan struct{}
	settled   bool
	value     any
	err       error
	callbacks []func(any, error)
}

// New returns a pending future.
func New() *Future {
	return &Future{done: make(chan struct{})}
}

// Resolved returns a future already resolved with v.
func Resolved(v any) *Future {
	f := New()
	f.Resolve(v)
	return f
}

// Rejected returns a future already rejected with err.
func Rejected(err error) *Future {
	f := New()
	f.Reject(err)
	return f
}

// Go runs fn on a new goroutine and settles the returned future with its
// result. A panic inside fn rejects the future.
func Go(fn func() (any, error)) *Future {
	f := New()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				f.Reject(fmt.Errorf("future: panic: %v", r))
			}
		}()
		v, err := fn()
		if err != nil {
			f.Reject(err)
			return
		}
		f.Resolve(v)
	}()
	return f
}

// Resolve settles the future with v. It reports whether this call settled it.
func (f *Future) Resolve(v any) bool { return f.settle(v, nil) }

// Reject settles the future with err. It reports whether this call settled it.
func (f *Future) Reject(err error) bool {
	if err == nil {
		err = ErrNilRejection
	}
	return f.settle(nil, err)
}

// Done returns a channel closed once the future settles.
func (f *Future) Done() <-chan struct{} { return f.done }

// Settled reports whether the future has settled.
func (f *Future) Settled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.settled
}

// Result returns the settled value and error without blocking. ok is false
// while the future is pending.
func (f *Future) Result() (v any, ok bool, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value, f.settled, f.err
}

// Await blocks until the future settles or ctx is done.
func (f *Future) Await(ctx context.Context) (any, error) {
	select {
	case <-f.done:
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.value, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// OnSettle registers fn to run once the future settles. Callbacks run in
// registration order on the goroutine that settles the future; if the
// future has already settled, fn runs immediately on the caller's goroutine.
func (f *Future) OnSettle(fn func(v any, err error)) {
	f.mu.Lock()
	if !f.settled {
		f.callbacks = append(f.callbacks, fn)
		f.mu.Unlock()
		return
	}
	v, err := f.value, f.err
	f.mu.Unlock()
	fn(v, err)
}

func (f *Future) settle(v any, err error) bool {
	f.mu.Lock()
	if f.settled {
		f.mu.Unlock()
		return false
	}
	f.settled = true
	f.value = v
	f.err = err
	callbacks := f.callbacks
	f.callbacks = nil
	close(f.done)
	f.mu.Unlock()

	for _, fn := range callbacks {
		fn(v, err)
	}
	return true
}

// Await waits for f and converts its value to T. A nil value yields the
// zero T; a value of another type is an error.
func Await[T any](ctx context.Context, f *Future) (T, error) {
	var zero T
	v, err := f.Await(ctx)
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("future: value of type %T is not %T", v, zero)
	}
	return typed, nil
}
