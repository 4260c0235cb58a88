package main

import (
	"context"
	"errors"
	"time"

	"github.com/xraph/usecase"
	"github.com/xraph/usecase/engine"
	"github.com/xraph/usecase/future"
	"github.com/xraph/usecase/payload"
)

const (
	orderPlaced   payload.Type = "order.placed"
	stockReserved payload.Type = "stock.reserved"
	noteAdded     payload.Type = "note.added"
)

func countOrders(n int, p payload.Payload, _ payload.Meta) int {
	if p.Type() == orderPlaced {
		return n + 1
	}
	return n
}

// ReserveStock dispatches one reservation per SKU.
type ReserveStock struct {
	usecase.Base
}

func (r *ReserveStock) Execute(_ context.Context, args ...any) (any, error) {
	for _, sku := range args {
		r.Dispatch(payload.New(stockReserved, map[string]any{"sku": sku}))
	}
	return len(args), nil
}

// Checkout reserves stock through a nested run and then places the order.
type Checkout struct {
	usecase.Base
}

func (c *Checkout) Execute(ctx context.Context, args ...any) (any, error) {
	uc, ok := engine.FromContext(ctx)
	if !ok {
		return nil, usecase.ErrContextReleased
	}
	reserved, err := future.Await[int](ctx, uc.UseCase(usecase.New(&ReserveStock{})).Execute(ctx, args...))
	if err != nil {
		return nil, err
	}
	c.Dispatch(payload.New(orderPlaced, map[string]any{"items": reserved}))
	return reserved, nil
}

func runNested(ctx context.Context, eng *engine.Context) error {
	_, err := eng.UseCase(usecase.New(&Checkout{})).Execute(ctx, "sku-1", "sku-2").Await(ctx)
	return err
}

// AddNote dispatches a note. Started from a released parent, the note is
// dropped.
type AddNote struct {
	usecase.Base
}

func (a *AddNote) Execute(context.Context, ...any) (any, error) {
	a.Dispatch(payload.New(noteAdded, nil))
	return nil, nil
}

// FireAndForget starts AddNote after it has already returned.
type FireAndForget struct {
	usecase.Base
	done chan struct{}
}

func (f *FireAndForget) Execute(ctx context.Context, _ ...any) (any, error) {
	uc, _ := engine.FromContext(ctx)
	go func() {
		defer close(f.done)
		time.Sleep(10 * time.Millisecond)
		uc.UseCase(usecase.New(&AddNote{})).Execute(context.Background())
	}()
	return nil, nil
}

func runLate(ctx context.Context, eng *engine.Context) error {
	parent := usecase.New(&FireAndForget{done: make(chan struct{})})
	if _, err := eng.UseCase(parent).Execute(ctx).Await(ctx); err != nil {
		return err
	}
	select {
	case <-parent.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var errPaymentDeclined = errors.New("payment declined")

// ChargeCard always fails.
type ChargeCard struct {
	usecase.Base
}

func (c *ChargeCard) Execute(context.Context, ...any) (any, error) {
	return nil, errPaymentDeclined
}

// BrokenImport panics.
type BrokenImport struct {
	usecase.Base
}

func (b *BrokenImport) Execute(context.Context, ...any) (any, error) {
	panic("malformed row")
}

// runFailure expects both runs to fail; the failures are reported through
// the event stream.
func runFailure(ctx context.Context, eng *engine.Context) error {
	if _, err := eng.UseCase(usecase.New(&ChargeCard{})).Execute(ctx).Await(ctx); !errors.Is(err, errPaymentDeclined) {
		return errors.New("charge card: expected payment declined")
	}
	if _, err := eng.UseCase(usecase.New(&BrokenImport{})).Execute(ctx).Await(ctx); err == nil {
		return errors.New("broken import: expected failure")
	}
	return nil
}
