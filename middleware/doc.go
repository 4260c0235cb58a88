// Package middleware provides composable middleware around use case
// execution.
//
// A [Middleware] wraps the call to a use case's Execute. Middleware are
// composed into a chain using [Chain]. They are applied right-to-left: the
// first middleware in the slice is the outermost wrapper.
//
//	// recover → logging → Execute
//	chain := middleware.Chain(middleware.Recover(logger), middleware.Logging(logger))
//
// Execute may return a *future.Future to signal asynchronous completion.
// Middleware that observe the outcome use [Settle] (or [OnSettled]), which
// waits for the future without blocking the chain. Settle also reports a
// panic from the inner chain before it unwinds.
//
// # Built-in Middleware
//
//   - [Logging] logs use case name, run ID, duration, and outcome
//   - [Recover] catches panics and converts them to errors
//   - [Timeout] bounds the context passed to Execute
//   - [Tracing] wraps execution in an OpenTelemetry span
//   - [Metrics] records per-use-case duration and outcome counters
//   - [RateLimit] admits Execute calls through a token bucket
//   - [Admission] enforces per-use-case concurrency and rate [Limits]
//
// # Writing Custom Middleware
//
//	func MyMiddleware() middleware.Middleware {
//	    return func(ctx context.Context, r *usecase.Run, next middleware.Handler) (any, error) {
//	        // pre-processing
//	        v, err := next(ctx)
//	        // post-processing
//	        return v, err
//	    }
//	}
//
// Middleware MUST call next to continue the chain unless intentionally
// short-circuiting (e.g., rate limiting).
package middleware
