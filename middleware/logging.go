package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/usecase"
)

// Logging returns middleware that logs use case start and completion.
// Completion of an asynchronous run is logged when its future settles.
func Logging(logger *slog.Logger) Middleware {
	return func(ctx context.Context, r *usecase.Run, next Handler) (any, error) {
		logger.Debug("use case started",
			slog.String("use_case", r.Name),
			slog.String("run_id", r.ID.String()),
		)

		start := time.Now()
		return Settle(ctx, next, func(_ any, err error) {
			elapsed := time.Since(start)
			if err != nil {
				logger.Error("use case failed",
					slog.String("use_case", r.Name),
					slog.String("run_id", r.ID.String()),
					slog.Duration("elapsed", elapsed),
					slog.String("error", err.Error()),
				)
				return
			}
			logger.Debug("use case completed",
				slog.String("use_case", r.Name),
				slog.String("run_id", r.ID.String()),
				slog.Duration("elapsed", elapsed),
			)
		})
	}
}
