// Package ext defines the extension system for use case engines.
//
// Extensions are notified of run lifecycle events and can react to them:
// recording metrics, writing audit trails, feeding a stream broker.
// Each lifecycle hook is a separate interface so extensions opt in only
// to the events they care about.
//
// # Implementing an Extension
//
//	type MyExtension struct{}
//
//	func (e *MyExtension) Name() string { return "my-extension" }
//
//	// Opt in to specific hooks by implementing their interfaces.
//	func (e *MyExtension) OnUseCaseCompleted(ctx context.Context, r *usecase.Run, v any, elapsed time.Duration) error {
//	    log.Printf("%s completed in %s", r.Name, elapsed)
//	    return nil
//	}
//
// # Run Lifecycle Hooks
//
//   - [UseCaseWillExecute]: a run is about to call Execute
//   - [UseCaseDidExecute]: Execute returned or its future settled
//   - [UseCaseCompleted]: the run finished successfully
//   - [UseCaseFailed]: the run finished with an error
//
// # Payload Hooks
//
//   - [PayloadDispatched]: a payload reached the root dispatcher
//   - [ReleaseViolation]: a payload was dropped because its run was released
//
// # Other Hooks
//
//   - [Shutdown]: the engine is being released
//
// The [Registry] fans out each event to all registered extensions that
// implement the corresponding hook interface.
package ext
