package engine

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xraph/usecase"
	"github.com/xraph/usecase/id"
	"github.com/xraph/usecase/payload"
)

var _ usecase.Delegate = (*token)(nil)

// token is the per-run bookkeeping record. released flips to true once
// and never back; warned makes the release-violation warning fire at most
// once per run.
type token struct {
	engine  *Context
	unit    usecase.UseCase
	parent  *token
	runID   id.RunID
	origin  payload.Origin
	parents []payload.Origin
	ctx     context.Context

	mu  sync.Mutex
	run usecase.Run

	released atomic.Bool
	warned   atomic.Bool
}

func newToken(ctx context.Context, c *Context, u usecase.UseCase, parent *token) *token {
	t := &token{
		engine: c,
		unit:   u,
		parent: parent,
		runID:  id.NewRunID(),
		origin: u.Unit().Origin(),
		ctx:    ctx,
	}
	for p := parent; p != nil; p = p.parent {
		t.parents = append(t.parents, p.origin)
	}

	t.run = usecase.Run{
		ID:        t.runID,
		UseCaseID: t.origin.ID,
		Name:      t.origin.Name,
		State:     usecase.RunPending,
		StartedAt: time.Now().UTC(),
	}
	if parent != nil {
		t.run.ParentRunID = parent.runID
	}
	return t
}

func (t *token) snapshot() usecase.Run {
	t.mu.Lock()
	defer t.mu.Unlock()
	r := t.run
	if r.CompletedAt != nil {
		at := *r.CompletedAt
		r.CompletedAt = &at
	}
	return r
}

func (t *token) transition(next usecase.RunState) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.run.State.CanTransition(next) {
		return false
	}
	t.run.State = next
	return true
}

// complete records the outcome and returns the run as it stood before
// release.
func (t *token) complete(err error) usecase.Run {
	t.mu.Lock()
	defer t.mu.Unlock()

	next := usecase.RunSucceeded
	if err != nil {
		next = usecase.RunFailed
		t.run.Error = err.Error()
	}
	if t.run.State.CanTransition(next) {
		t.run.State = next
	}
	now := time.Now().UTC()
	t.run.CompletedAt = &now

	r := t.run
	at := now
	r.CompletedAt = &at
	return r
}

func (t *token) release() {
	if !t.released.CompareAndSwap(false, true) {
		return
	}
	t.transition(usecase.RunReleased)
	t.engine.unregister(t)
}

// releasedFrom returns the first released token walking from start up to
// the root, or nil when the whole chain is live.
func releasedFrom(start *token) *token {
	for cur := start; cur != nil; cur = cur.parent {
		if cur.released.Load() {
			return cur
		}
	}
	return nil
}

func (t *token) meta(base payload.Meta, lifecycle bool) payload.Meta {
	base.UseCase = t.origin
	base.Parents = t.parents
	base.RunID = t.runID
	base.IsLifecycle = lifecycle
	if base.Timestamp.IsZero() {
		base.Timestamp = time.Now().UTC()
	}
	return base
}

// emit sends an engine lifecycle payload to the unit's own observers, then
// delegates it to the root unless an ancestor run is released. The run's
// own release does not gate its DidExecute and Completed payloads.
func (t *token) emit(p payload.Payload) {
	meta := t.meta(payload.Meta{}, true)
	t.unit.Unit().Notify(p, meta)

	if rel := releasedFrom(t.parent); rel != nil {
		t.violation(rel, p, meta)
		return
	}
	t.engine.forward(t.ctx, p, meta)
}

// Delegate implements usecase.Delegate. It receives payloads the unit
// dispatched itself, after its direct observers saw them.
func (t *token) Delegate(p payload.Payload, meta payload.Meta) {
	meta = t.meta(meta, false)
	if rel := releasedFrom(t); rel != nil {
		t.violation(rel, p, meta)
		return
	}
	t.engine.forward(t.ctx, p, meta)
}

func (t *token) violation(released *token, p payload.Payload, meta payload.Meta) {
	if t.warned.CompareAndSwap(false, true) {
		t.engine.logger.Warn("UseCase "+released.origin.Name+" is already released",
			slog.String("use_case", t.origin.Name),
			slog.String("run_id", t.runID.String()),
			slog.String("released_run_id", released.runID.String()),
			slog.String("payload_type", string(p.Type())),
		)
	}
	r := released.snapshot()
	t.engine.extensions.EmitReleaseViolation(t.ctx, &r, p, meta)
}
