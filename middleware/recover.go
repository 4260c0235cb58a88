package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/xraph/usecase"
)

// Recover returns middleware that recovers from panics in the handler chain.
// Panics are converted to errors and logged with a stack trace.
func Recover(logger *slog.Logger) Middleware {
	return func(ctx context.Context, r *usecase.Run, next Handler) (v any, retErr error) {
		defer func() {
			if p := recover(); p != nil {
				stack := string(debug.Stack())
				logger.Error("use case panicked",
					slog.String("use_case", r.Name),
					slog.String("run_id", r.ID.String()),
					slog.Any("panic", p),
					slog.String("stack", stack),
				)
				v = nil
				retErr = fmt.Errorf("panic in use case %s: %v", r.Name, p)
			}
		}()
		return next(ctx)
	}
}
