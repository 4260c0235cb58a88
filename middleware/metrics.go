package middleware

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xraph/usecase"
)

// meterName is the instrumentation scope name for use case metrics.
const meterName = "github.com/xraph/usecase"

// Metrics returns middleware that records per-use-case execution metrics
// using the global OTel MeterProvider. If no MeterProvider is configured,
// noop instruments are used and this middleware becomes a pass-through.
//
// Instruments:
//   - usecase.execute.duration (Float64Histogram): time until the run
//     settles, in seconds, with attributes: use_case, status ("ok" or "error")
//   - usecase.execute.count (Int64Counter): total executions,
//     with attributes: use_case, status ("ok" or "error")
func Metrics() Middleware {
	meter := otel.Meter(meterName)
	return MetricsWithMeter(meter)
}

// MetricsWithMeter returns metrics middleware using the provided meter.
func MetricsWithMeter(meter metric.Meter) Middleware {
	// On error the API returns noop instruments.
	duration, dErr := meter.Float64Histogram(
		"usecase.execute.duration",
		metric.WithDescription("Duration of use case execution in seconds"),
		metric.WithUnit("s"),
	)
	_ = dErr

	executions, eErr := meter.Int64Counter(
		"usecase.execute.count",
		metric.WithDescription("Total number of use case executions"),
		metric.WithUnit("{execution}"),
	)
	_ = eErr

	return func(ctx context.Context, r *usecase.Run, next Handler) (any, error) {
		start := time.Now()
		return Settle(ctx, next, func(_ any, err error) {
			status := "ok"
			if err != nil {
				status = "error"
			}
			attrs := metric.WithAttributes(
				attribute.String("use_case", r.Name),
				attribute.String("status", status),
			)
			duration.Record(context.WithoutCancel(ctx), time.Since(start).Seconds(), attrs)
			executions.Add(context.WithoutCancel(ctx), 1, attrs)
		})
	}
}
