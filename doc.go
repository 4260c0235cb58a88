// Package usecase provides the executable unit at the center of an
// in-process command/event orchestration core.
//
// A use case is an ordinary Go type that embeds Base and defines Execute.
// Base supplies identity, a display name, a private payload bus and the
// Dispatch/ThrowError plumbing. Running a use case through an engine.Context
// wraps every run in a fixed lifecycle:
//
//	WillExecute → (user payloads) → DidExecute → Completed | Failed
//
// # Quick Start
//
//	type Checkout struct{ usecase.Base }
//
//	func (c *Checkout) Execute(ctx context.Context, args ...any) (any, error) {
//	    c.Dispatch(payload.New("cart.checked_out", nil))
//	    return "ok", nil
//	}
//
//	ctx, _ := engine.New()
//	f := ctx.UseCase(usecase.New(&Checkout{})).Execute(context.Background())
//	v, err := f.Await(context.Background())
//
// Payloads a unit dispatches are delegated to the engine's root dispatcher
// while the run is live. Once the run is released, further payloads are
// dropped and reported as a warning instead of an error.
//
// All identities use TypeID: type-prefixed, K-sortable, UUIDv7-based.
package usecase
