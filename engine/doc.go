// Package engine provides the execution context that runs use cases and
// routes their payloads to a single root dispatcher.
//
// The engine package sits above the root usecase package and every
// subsystem package (middleware, ext, observability, stream, store) and
// below the application layer, so it can wire them together without
// import cycles.
//
// # Running a use case
//
//	ctx, err := engine.New(
//	    engine.WithLogger(logger),
//	    engine.WithStore(cartStore),
//	    engine.WithExtension(audithook.New(recorder)),
//	)
//
//	f := ctx.UseCase(usecase.New(&AddItem{})).Execute(goctx, item)
//	v, err := f.Await(goctx)
//
// Every run emits payloads in a fixed order: WillExecute, then the
// payloads the use case dispatches, then DidExecute, then Completed or
// Failed. A run is live until Execute returns, or until the future it
// returns settles, and released afterwards.
//
// # Nesting
//
// Execute receives a context.Context carrying a [UseCaseContext]. A use
// case starts children through it:
//
//	func (a *Checkout) Execute(ctx context.Context, _ ...any) (any, error) {
//	    uc, _ := engine.FromContext(ctx)
//	    return uc.UseCase(&Reserve{}).Execute(ctx).Await(ctx)
//	}
//
// A payload dispatched while any run in its ancestor chain is released
// never reaches the root dispatcher. The engine logs a warning once per
// run naming the released use case and notifies ReleaseViolation hooks.
//
// # Options
//
//   - [WithLogger] sets the structured logger
//   - [WithConfig] applies a usecase.Config
//   - [WithDispatcher] supplies the root dispatcher
//   - [WithStore] attaches a state container to the root dispatcher
//   - [WithExtension] registers a lifecycle extension
//   - [WithMiddleware] adds middleware to the Execute chain
//   - [WithTracerProvider] sets the OpenTelemetry tracer provider
//   - [WithMeterProvider] sets the OpenTelemetry meter provider
package engine
