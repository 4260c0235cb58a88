package middleware

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/usecase"
	"github.com/xraph/usecase/future"
)

// Handler is the terminal function that calls Execute.
type Handler func(ctx context.Context) (any, error)

// Middleware wraps a Handler with cross-cutting logic. It receives the
// current context, the run being executed, and the next handler to call.
// The run is a read-only snapshot taken when the run started.
type Middleware func(ctx context.Context, r *usecase.Run, next Handler) (any, error)

// Chain composes multiple middleware into a single Middleware.
// Middleware are applied right-to-left: the first middleware in the
// list is the outermost wrapper.
//
// Example: Chain(recover, logging, timeout) executes as:
//
//	recover → logging → timeout → handler
func Chain(mws ...Middleware) Middleware {
	return func(ctx context.Context, r *usecase.Run, next Handler) (any, error) {
		h := next
		for i := len(mws) - 1; i >= 0; i-- {
			mw := mws[i]
			prev := h
			h = func(ctx context.Context) (any, error) {
				return mw(ctx, r, prev)
			}
		}
		return h(ctx)
	}
}

// errAborted is reported to Settle callbacks when the handler exits
// through runtime.Goexit.
var errAborted = errors.New("usecase: execution aborted")

// OnSettled calls fn with the final outcome of an Execute call. When v is
// a non-nil *future.Future, fn runs once the future settles; otherwise it
// runs immediately with v and err.
func OnSettled(v any, err error, fn func(v any, err error)) {
	if f, ok := v.(*future.Future); ok && f != nil && err == nil {
		f.OnSettle(fn)
		return
	}
	fn(v, err)
}

// Settle calls next and hands its final outcome to fn as OnSettled does.
// If next panics, fn receives an error for the panic and the panic keeps
// unwinding to the outer Recover.
func Settle(ctx context.Context, next Handler, fn func(v any, err error)) (any, error) {
	returned := false
	defer func() {
		if returned {
			return
		}
		p := recover()
		if p == nil {
			fn(nil, errAborted)
			return
		}
		fn(nil, fmt.Errorf("panic: %v", p))
		panic(p)
	}()

	v, err := next(ctx)
	returned = true
	OnSettled(v, err, fn)
	return v, err
}
