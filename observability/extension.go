package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xraph/usecase"
	"github.com/xraph/usecase/ext"
	"github.com/xraph/usecase/payload"
)

// meterName is the instrumentation scope name for lifecycle metrics.
const meterName = "github.com/xraph/usecase/observability"

// Compile-time interface checks.
var (
	_ ext.Extension          = (*MetricsExtension)(nil)
	_ ext.UseCaseWillExecute = (*MetricsExtension)(nil)
	_ ext.UseCaseCompleted   = (*MetricsExtension)(nil)
	_ ext.UseCaseFailed      = (*MetricsExtension)(nil)
	_ ext.PayloadDispatched  = (*MetricsExtension)(nil)
	_ ext.ReleaseViolation   = (*MetricsExtension)(nil)
)

// MetricsExtension records system-wide lifecycle metrics through an OTel
// meter. Register it as an engine extension to track run rates, failure
// rates, payload volume, and late dispatches.
type MetricsExtension struct {
	RunStarted        metric.Int64Counter
	RunCompleted      metric.Int64Counter
	RunFailed         metric.Int64Counter
	RunDuration       metric.Float64Histogram
	PayloadDispatched metric.Int64Counter
	ReleaseViolations metric.Int64Counter
}

// NewMetricsExtension creates a MetricsExtension using the global
// MeterProvider.
func NewMetricsExtension() *MetricsExtension {
	return NewMetricsExtensionWithMeter(otel.Meter(meterName))
}

// NewMetricsExtensionWithMeter creates a MetricsExtension with the provided
// meter. Instrument creation errors fall back to the API's noop instruments.
func NewMetricsExtensionWithMeter(meter metric.Meter) *MetricsExtension {
	started, _ := meter.Int64Counter("usecase.run.started",
		metric.WithDescription("Runs that began executing"))
	completed, _ := meter.Int64Counter("usecase.run.completed",
		metric.WithDescription("Runs that finished successfully"))
	failed, _ := meter.Int64Counter("usecase.run.failed",
		metric.WithDescription("Runs that finished with an error"))
	duration, _ := meter.Float64Histogram("usecase.run.duration",
		metric.WithDescription("Time from start to completion of successful runs"),
		metric.WithUnit("s"))
	dispatched, _ := meter.Int64Counter("usecase.payload.dispatched",
		metric.WithDescription("Payloads delivered by the root dispatcher"))
	violations, _ := meter.Int64Counter("usecase.release_violations",
		metric.WithDescription("Payloads dropped because their run was released"))

	return &MetricsExtension{
		RunStarted:        started,
		RunCompleted:      completed,
		RunFailed:         failed,
		RunDuration:       duration,
		PayloadDispatched: dispatched,
		ReleaseViolations: violations,
	}
}

// Name implements ext.Extension.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// ── Run lifecycle hooks ─────────────────────────────

// OnUseCaseWillExecute implements ext.UseCaseWillExecute.
func (m *MetricsExtension) OnUseCaseWillExecute(ctx context.Context, r *usecase.Run, _ []any) error {
	m.RunStarted.Add(ctx, 1, useCaseAttr(r.Name))
	return nil
}

// OnUseCaseCompleted implements ext.UseCaseCompleted.
func (m *MetricsExtension) OnUseCaseCompleted(ctx context.Context, r *usecase.Run, _ any, elapsed time.Duration) error {
	m.RunCompleted.Add(ctx, 1, useCaseAttr(r.Name))
	m.RunDuration.Record(ctx, elapsed.Seconds(), useCaseAttr(r.Name))
	return nil
}

// OnUseCaseFailed implements ext.UseCaseFailed.
func (m *MetricsExtension) OnUseCaseFailed(ctx context.Context, r *usecase.Run, _ error) error {
	m.RunFailed.Add(ctx, 1, useCaseAttr(r.Name))
	return nil
}

// ── Payload hooks ───────────────────────────────────

// OnPayloadDispatched implements ext.PayloadDispatched.
func (m *MetricsExtension) OnPayloadDispatched(ctx context.Context, p payload.Payload, _ payload.Meta) error {
	m.PayloadDispatched.Add(ctx, 1, metric.WithAttributes(
		attribute.String("payload_type", string(p.Type())),
	))
	return nil
}

// OnReleaseViolation implements ext.ReleaseViolation.
func (m *MetricsExtension) OnReleaseViolation(ctx context.Context, released *usecase.Run, _ payload.Payload, _ payload.Meta) error {
	m.ReleaseViolations.Add(ctx, 1, useCaseAttr(released.Name))
	return nil
}

func useCaseAttr(name string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("use_case", name))
}
