package observability_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/xraph/usecase"
	"github.com/xraph/usecase/ext"
	"github.com/xraph/usecase/id"
	"github.com/xraph/usecase/observability"
	"github.com/xraph/usecase/payload"
)

func newTestExtension() (*observability.MetricsExtension, *sdkmetric.ManualReader) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	return observability.NewMetricsExtensionWithMeter(mp.Meter("test")), reader
}

func newTestRun() *usecase.Run {
	return &usecase.Run{
		ID:        id.NewRunID(),
		UseCaseID: id.NewUseCaseID(),
		Name:      "checkout",
	}
}

// counterValue sums every data point of the named Int64 counter.
func counterValue(t *testing.T, reader *sdkmetric.ManualReader, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("%s: expected Sum[int64], got %T", name, m.Data)
			}
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			return total
		}
	}
	return 0
}

func TestMetricsExtension_Name(t *testing.T) {
	e, _ := newTestExtension()
	if e.Name() != "observability-metrics" {
		t.Errorf("expected name %q, got %q", "observability-metrics", e.Name())
	}
}

func TestMetricsExtension_RunStarted(t *testing.T) {
	e, reader := newTestExtension()
	if err := e.OnUseCaseWillExecute(context.Background(), newTestRun(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := counterValue(t, reader, "usecase.run.started"); got != 1 {
		t.Errorf("usecase.run.started: want 1, got %d", got)
	}
}

func TestMetricsExtension_RunCompleted(t *testing.T) {
	e, reader := newTestExtension()
	if err := e.OnUseCaseCompleted(context.Background(), newTestRun(), "ok", 100*time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := counterValue(t, reader, "usecase.run.completed"); got != 1 {
		t.Errorf("usecase.run.completed: want 1, got %d", got)
	}
}

func TestMetricsExtension_RunFailed(t *testing.T) {
	e, reader := newTestExtension()
	if err := e.OnUseCaseFailed(context.Background(), newTestRun(), errors.New("boom")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := counterValue(t, reader, "usecase.run.failed"); got != 1 {
		t.Errorf("usecase.run.failed: want 1, got %d", got)
	}
}

func TestMetricsExtension_PayloadsAndViolations(t *testing.T) {
	e, reader := newTestExtension()
	ctx := context.Background()
	p := payload.New("cart.updated", nil)

	for range 3 {
		_ = e.OnPayloadDispatched(ctx, p, payload.Meta{})
	}
	_ = e.OnReleaseViolation(ctx, newTestRun(), p, payload.Meta{})

	if got := counterValue(t, reader, "usecase.payload.dispatched"); got != 3 {
		t.Errorf("usecase.payload.dispatched: want 3, got %d", got)
	}
	if got := counterValue(t, reader, "usecase.release_violations"); got != 1 {
		t.Errorf("usecase.release_violations: want 1, got %d", got)
	}
}

func TestMetricsExtension_ViaRegistry(t *testing.T) {
	e, reader := newTestExtension()
	r := ext.NewRegistry(slog.Default())
	r.Register(e)

	ctx := context.Background()
	run := newTestRun()
	r.EmitWillExecute(ctx, run, nil)
	r.EmitCompleted(ctx, run, nil, time.Millisecond)
	r.EmitWillExecute(ctx, run, nil)
	r.EmitFailed(ctx, run, errors.New("x"))

	if got := counterValue(t, reader, "usecase.run.started"); got != 2 {
		t.Errorf("usecase.run.started: want 2, got %d", got)
	}
	if got := counterValue(t, reader, "usecase.run.completed"); got != 1 {
		t.Errorf("usecase.run.completed: want 1, got %d", got)
	}
	if got := counterValue(t, reader, "usecase.run.failed"); got != 1 {
		t.Errorf("usecase.run.failed: want 1, got %d", got)
	}
}
