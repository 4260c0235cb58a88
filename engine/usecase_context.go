package engine

import (
	"context"
	"time"

	"github.com/xraph/usecase"
	"github.com/xraph/usecase/payload"
)

type ctxKey struct{}

// UseCaseContext is the handle a running use case receives through its
// context.Context. It is scoped to exactly one run, so concurrent runs of
// the same use case instance each hold their own.
type UseCaseContext struct {
	engine *Context
	token  *token
}

// FromContext returns the UseCaseContext of the run executing with ctx.
func FromContext(ctx context.Context) (*UseCaseContext, bool) {
	if ctx == nil {
		return nil, false
	}
	uc, ok := ctx.Value(ctxKey{}).(*UseCaseContext)
	return uc, ok && uc != nil
}

// Context returns the engine that started the run.
func (uc *UseCaseContext) Context() *Context { return uc.engine }

// UseCase returns an Executor whose runs are nested under this run.
func (uc *UseCaseContext) UseCase(u usecase.UseCase) *Executor {
	return &Executor{engine: uc.engine, unit: u, parent: uc.token}
}

// Dispatch delivers p on behalf of this run: first to the use case's own
// observers, then to the root dispatcher unless the run or an ancestor is
// released. Unlike the use case's own Dispatch it never depends on which
// run bound the instance last.
func (uc *UseCaseContext) Dispatch(p payload.Payload) {
	if p == nil {
		return
	}
	meta := payload.Meta{
		UseCase:   uc.token.origin,
		Timestamp: time.Now().UTC(),
	}
	uc.token.unit.Unit().Notify(p, meta)
	uc.token.Delegate(p, meta)
}

// Run returns a snapshot of the run.
func (uc *UseCaseContext) Run() usecase.Run { return uc.token.snapshot() }

// Released reports whether the run has been released.
func (uc *UseCaseContext) Released() bool { return uc.token.released.Load() }
