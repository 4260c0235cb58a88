package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/usecase"
)

// Timeout returns middleware that bounds the context passed to Execute.
// When the deadline passes the context is cancelled; Execute is expected
// to observe it cooperatively. For an asynchronous run the context stays
// alive until the returned future settles or the deadline passes.
func Timeout(logger *slog.Logger, d time.Duration) Middleware {
	return func(ctx context.Context, r *usecase.Run, next Handler) (any, error) {
		if d <= 0 {
			return next(ctx)
		}
		logger.Debug("use case timeout set",
			slog.String("run_id", r.ID.String()),
			slog.Duration("timeout", d),
		)

		ctx, cancel := context.WithTimeout(ctx, d)
		return Settle(ctx, next, func(any, error) { cancel() })
	}
}
