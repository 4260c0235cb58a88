package engine

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/xraph/usecase"
	"github.com/xraph/usecase/future"
	"github.com/xraph/usecase/payload"
)

// Executor runs one use case inside an engine. Obtain one from
// Context.UseCase or UseCaseContext.UseCase.
type Executor struct {
	engine *Context
	unit   usecase.UseCase
	parent *token
}

// Execute runs the use case and returns a future that settles once the
// run is released and its DidExecute and Completed or Failed payloads
// have been emitted. It never panics: a contract violation, a returned
// error, and a panic inside Execute all reject the future.
func (e *Executor) Execute(ctx context.Context, args ...any) *future.Future {
	c := e.engine
	if e.unit == nil {
		return future.Rejected(usecase.ErrNilUseCase)
	}
	if c.released.Load() {
		return future.Rejected(usecase.ErrContextReleased)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	unit := usecase.New(e.unit)
	parent := e.parent
	if parent == nil {
		if uc, ok := FromContext(ctx); ok && uc.engine == c {
			parent = uc.token
		}
	}

	t := newToken(ctx, c, unit, parent)
	c.register(t)
	unit.Unit().Bind(t)

	willRun := t.snapshot()
	t.emit(payload.WillExecute{Args: args})
	c.extensions.EmitWillExecute(ctx, &willRun, args)

	result := future.New()
	t.transition(usecase.RunRunning)

	runCtx := context.WithValue(ctx, ctxKey{}, &UseCaseContext{engine: c, token: t})
	v, err := c.invoke(runCtx, t, args)

	if f, ok := v.(*future.Future); ok && err == nil {
		if f == nil {
			c.finish(t, nil, nil, result)
			return result
		}
		f.OnSettle(func(v any, err error) {
			c.finish(t, v, err, result)
		})
		return result
	}
	c.finish(t, v, err, result)
	return result
}

// invoke calls Execute through the middleware chain. A panic that escapes
// the chain becomes an error.
func (c *Context) invoke(ctx context.Context, t *token, args []any) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("use case panicked",
				slog.String("use_case", t.origin.Name),
				slog.String("run_id", t.runID.String()),
				slog.String("panic", fmt.Sprint(r)),
				slog.String("stack", string(debug.Stack())),
			)
			v, err = nil, fmt.Errorf("panic in use case %s: %v", t.origin.Name, r)
		}
	}()

	run := t.snapshot()
	return c.chain(ctx, &run, func(ctx context.Context) (any, error) {
		return t.unit.Execute(ctx, args...)
	})
}

// finish releases the run and emits its closing payloads: DidExecute,
// then Completed or Failed. result settles last.
func (c *Context) finish(t *token, v any, err error, result *future.Future) {
	run := t.complete(err)
	t.release()

	if err != nil {
		v = nil
	}
	t.emit(payload.DidExecute{Value: v})
	c.extensions.EmitDidExecute(t.ctx, &run, v)

	if err != nil {
		t.emit(payload.Failed{Err: err})
		c.extensions.EmitFailed(t.ctx, &run, err)
		result.Reject(err)
		return
	}

	t.emit(payload.Completed{Value: v})
	c.extensions.EmitCompleted(t.ctx, &run, v, run.Duration())
	result.Resolve(v)
}
