package middleware_test

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/xraph/usecase/future"
	"github.com/xraph/usecase/internal/logtest"
	mw "github.com/xraph/usecase/middleware"
)

func setupTestMeter() (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	return reader, mp
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func hasAttr(attrs []attribute.KeyValue, key, value string) bool {
	for _, a := range attrs {
		if string(a.Key) == key && a.Value.AsString() == value {
			return true
		}
	}
	return false
}

func TestMetrics_RecordsDuration(t *testing.T) {
	reader, mp := setupTestMeter()
	m := mw.MetricsWithMeter(mp.Meter("test"))

	_, _ = m(context.Background(), newRun("checkout"), func(_ context.Context) (any, error) {
		return nil, nil
	})

	rm := collectMetrics(t, reader)
	metric := findMetric(rm, "usecase.execute.duration")
	if metric == nil {
		t.Fatal("usecase.execute.duration metric not found")
	}

	hist, ok := metric.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatal("expected Histogram[float64] data type")
	}
	if len(hist.DataPoints) == 0 {
		t.Fatal("no data points recorded for duration")
	}
	if hist.DataPoints[0].Count != 1 {
		t.Errorf("expected count=1, got %d", hist.DataPoints[0].Count)
	}
}

func TestMetrics_RecordsExecutions(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status string
	}{
		{"success", nil, "ok"},
		{"error", errors.New("boom"), "error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader, mp := setupTestMeter()
			m := mw.MetricsWithMeter(mp.Meter("test"))

			_, _ = m(context.Background(), newRun("checkout"), func(_ context.Context) (any, error) {
				return nil, tt.err
			})

			metric := findMetric(collectMetrics(t, reader), "usecase.execute.count")
			if metric == nil {
				t.Fatal("usecase.execute.count metric not found")
			}
			sum, ok := metric.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatal("expected Sum[int64] data type")
			}
			if len(sum.DataPoints) == 0 {
				t.Fatal("no data points recorded")
			}
			if sum.DataPoints[0].Value != 1 {
				t.Errorf("expected value=1, got %d", sum.DataPoints[0].Value)
			}
			attrs := sum.DataPoints[0].Attributes.ToSlice()
			if !hasAttr(attrs, "status", tt.status) {
				t.Errorf("expected status=%s attribute", tt.status)
			}
			if !hasAttr(attrs, "use_case", "checkout") {
				t.Error("expected use_case=checkout attribute")
			}
		})
	}
}

func TestMetrics_AsyncRecordedOnSettle(t *testing.T) {
	reader, mp := setupTestMeter()
	m := mw.MetricsWithMeter(mp.Meter("test"))
	f := future.New()

	_, _ = m(context.Background(), newRun("async"), func(_ context.Context) (any, error) {
		return f, nil
	})

	if metric := findMetric(collectMetrics(t, reader), "usecase.execute.count"); metric != nil {
		t.Fatal("counter recorded before future settled")
	}

	f.Reject(errors.New("late"))

	metric := findMetric(collectMetrics(t, reader), "usecase.execute.count")
	if metric == nil {
		t.Fatal("usecase.execute.count metric not found after settle")
	}
	sum := metric.Data.(metricdata.Sum[int64])
	if !hasAttr(sum.DataPoints[0].Attributes.ToSlice(), "status", "error") {
		t.Error("expected status=error for rejected future")
	}
}

func TestMetrics_PanicRecordedAsError(t *testing.T) {
	reader, mp := setupTestMeter()
	chain := mw.Chain(mw.Recover(logtest.Discard()), mw.MetricsWithMeter(mp.Meter("test")))

	_, _ = chain(context.Background(), newRun("checkout"), func(_ context.Context) (any, error) {
		panic("boom")
	})

	metric := findMetric(collectMetrics(t, reader), "usecase.execute.count")
	if metric == nil {
		t.Fatal("usecase.execute.count metric not found")
	}
	sum, ok := metric.Data.(metricdata.Sum[int64])
	if !ok || len(sum.DataPoints) != 1 {
		t.Fatal("expected one Sum[int64] data point")
	}
	if !hasAttr(sum.DataPoints[0].Attributes.ToSlice(), "status", "error") {
		t.Error("expected status=error attribute")
	}
}
