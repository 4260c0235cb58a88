package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/usecase"
)

// tracerName is the instrumentation scope name for use case tracing.
const tracerName = "github.com/xraph/usecase"

// Tracing returns middleware that wraps use case execution in an
// OpenTelemetry span. If no TracerProvider is configured globally, the
// default noop tracer is used and this middleware becomes a pass-through.
//
// Span attributes include: usecase.id, usecase.name, usecase.run_id and,
// for nested runs, usecase.parent_run_id. On error, the span status is set
// to codes.Error with the error message. An asynchronous run's span ends
// when its future settles; a panicking run ends its span with an error.
func Tracing() Middleware {
	tracer := otel.Tracer(tracerName)
	return TracingWithTracer(tracer)
}

// TracingWithTracer returns tracing middleware using the provided tracer.
func TracingWithTracer(tracer trace.Tracer) Middleware {
	return func(ctx context.Context, r *usecase.Run, next Handler) (any, error) {
		attrs := []attribute.KeyValue{
			attribute.String("usecase.id", r.UseCaseID.String()),
			attribute.String("usecase.name", r.Name),
			attribute.String("usecase.run_id", r.ID.String()),
		}
		if !r.ParentRunID.IsNil() {
			attrs = append(attrs, attribute.String("usecase.parent_run_id", r.ParentRunID.String()))
		}

		ctx, span := tracer.Start(ctx, "usecase.execute",
			trace.WithAttributes(attrs...),
			trace.WithSpanKind(trace.SpanKindInternal),
		)

		return Settle(ctx, next, func(_ any, err error) {
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			} else {
				span.SetStatus(codes.Ok, "")
			}
			span.End()
		})
	}
}
