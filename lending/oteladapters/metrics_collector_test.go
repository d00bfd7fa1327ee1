package oteladapters_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/AntonStoeckl/library-lending-go/lending/oteladapters"
)

func Test_MetricsCollector_RecordDuration(t *testing.T) {
	// setup
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	collector := oteladapters.NewMetricsCollector(provider.Meter("test"))

	// act
	labels := map[string]string{
		"operation": "create_loan",
		"status":    "success",
	}
	collector.RecordDuration("lendingstore_operation_duration_seconds", 150*time.Millisecond, labels)

	// assert
	var resourceMetrics metricdata.ResourceMetrics
	err := reader.Collect(context.Background(), &resourceMetrics)
	require.NoError(t, err, "Failed to collect metrics")

	histogram := findHistogramMetric(t, resourceMetrics, "lendingstore_operation_duration_seconds")
	require.Len(t, histogram.DataPoints, 1, "Expected exactly one data point")

	dataPoint := histogram.DataPoints[0]
	assert.Equal(t, uint64(1), dataPoint.Count, "Histogram count should be 1")
	assert.InDelta(t, 0.15, dataPoint.Sum, 0.001, "Histogram sum should be 0.15 seconds")

	expectedAttrs := attribute.NewSet(
		attribute.String("operation", "create_loan"),
		attribute.String("status", "success"),
	)
	assert.True(t, dataPoint.Attributes.Equals(&expectedAttrs), "Attributes should match")
}

func Test_MetricsCollector_IncrementCounter(t *testing.T) {
	// setup
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	collector := oteladapters.NewMetricsCollector(provider.Meter("test"))

	// act
	labels := map[string]string{"operation": "create_loan"}
	collector.IncrementCounter("lendingstore_storage_conflicts_total", labels)
	collector.IncrementCounter("lendingstore_storage_conflicts_total", labels)
	collector.IncrementCounter("lendingstore_storage_conflicts_total", labels)

	// assert
	var resourceMetrics metricdata.ResourceMetrics
	err := reader.Collect(context.Background(), &resourceMetrics)
	require.NoError(t, err, "Failed to collect metrics")

	counter := findCounterMetric(t, resourceMetrics, "lendingstore_storage_conflicts_total")
	require.Len(t, counter.DataPoints, 1, "Expected exactly one data point")
	assert.Equal(t, int64(3), counter.DataPoints[0].Value, "Counter should have been incremented 3 times")
}

func Test_MetricsCollector_RecordValue(t *testing.T) {
	// setup
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	collector := oteladapters.NewMetricsCollector(provider.Meter("test"))

	// act
	collector.RecordValue("lendingstore_active_loans", 42.5, map[string]string{"status": "success"})

	// assert
	var resourceMetrics metricdata.ResourceMetrics
	err := reader.Collect(context.Background(), &resourceMetrics)
	require.NoError(t, err, "Failed to collect metrics")

	gauge := findGaugeMetric(t, resourceMetrics, "lendingstore_active_loans")
	require.Len(t, gauge.DataPoints, 1, "Expected exactly one data point")
	assert.Equal(t, 42.5, gauge.DataPoints[0].Value, "Gauge value should be 42.5")
}

func Test_MetricsCollector_ContextualMethods(t *testing.T) {
	// setup
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	collector := oteladapters.NewMetricsCollector(provider.Meter("test"))

	// act
	ctx := context.Background()
	labels := map[string]string{"test": "contextual"}
	collector.RecordDurationContext(ctx, "test_duration", 100*time.Millisecond, labels)
	collector.IncrementCounterContext(ctx, "test_counter", labels)
	collector.RecordValueContext(ctx, "test_gauge", 123.45, labels)

	// assert
	var resourceMetrics metricdata.ResourceMetrics
	err := reader.Collect(context.Background(), &resourceMetrics)
	require.NoError(t, err, "Failed to collect metrics")

	metricNames := make(map[string]bool)
	for _, scopeMetrics := range resourceMetrics.ScopeMetrics {
		for _, m := range scopeMetrics.Metrics {
			metricNames[m.Name] = true
		}
	}

	assert.True(t, metricNames["test_duration"], "Duration metric should be recorded")
	assert.True(t, metricNames["test_counter"], "Counter metric should be recorded")
	assert.True(t, metricNames["test_gauge"], "Gauge metric should be recorded")
}

func Test_MetricsCollector_NilLabels(t *testing.T) {
	// setup
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	collector := oteladapters.NewMetricsCollector(provider.Meter("test"))

	// act
	collector.RecordDuration("test_metric", 50*time.Millisecond, nil)

	// assert
	var resourceMetrics metricdata.ResourceMetrics
	err := reader.Collect(context.Background(), &resourceMetrics)
	require.NoError(t, err, "Failed to collect metrics")

	found := false
	for _, scopeMetrics := range resourceMetrics.ScopeMetrics {
		for _, m := range scopeMetrics.Metrics {
			if m.Name == "test_metric" {
				found = true
			}
		}
	}

	assert.True(t, found, "Metric should be recorded even with nil labels")
}

func Test_MetricsCollector_InstrumentReuse(t *testing.T) {
	// setup
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	collector := oteladapters.NewMetricsCollector(provider.Meter("test"))

	// act
	collector.RecordDuration("reused_histogram", 100*time.Millisecond, nil)
	collector.RecordDuration("reused_histogram", 200*time.Millisecond, nil)
	collector.IncrementCounter("reused_counter", nil)
	collector.IncrementCounter("reused_counter", nil)
	collector.IncrementCounter("reused_counter", nil)
	collector.RecordValue("reused_gauge", 10.0, nil)
	collector.RecordValue("reused_gauge", 20.0, nil)

	// assert
	var resourceMetrics metricdata.ResourceMetrics
	err := reader.Collect(context.Background(), &resourceMetrics)
	require.NoError(t, err, "Failed to collect metrics")

	histogram := findHistogramMetric(t, resourceMetrics, "reused_histogram")
	assert.Equal(t, uint64(2), histogram.DataPoints[0].Count, "Should have recorded two durations")

	counter := findCounterMetric(t, resourceMetrics, "reused_counter")
	assert.Equal(t, int64(3), counter.DataPoints[0].Value, "Should have incremented counter 3 times")

	gauge := findGaugeMetric(t, resourceMetrics, "reused_gauge")
	assert.Equal(t, 20.0, gauge.DataPoints[0].Value, "Should have the last recorded gauge value")
}

func Test_MetricsCollector_InstrumentCreationErrors(t *testing.T) {
	// setup
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	errorMeter := &errorInjectingMeter{Meter: provider.Meter("test")}
	collector := oteladapters.NewMetricsCollector(errorMeter)

	// act + assert - recording degrades to a no-op when instrument creation fails
	assert.NotPanics(t, func() {
		collector.RecordDuration("error_histogram", 100*time.Millisecond, nil)
	}, "RecordDuration should not panic when histogram creation fails")

	assert.NotPanics(t, func() {
		collector.IncrementCounter("error_counter", nil)
	}, "IncrementCounter should not panic when counter creation fails")

	assert.NotPanics(t, func() {
		collector.RecordValue("error_gauge", 42.0, nil)
	}, "RecordValue should not panic when gauge creation fails")
}

// errorInjectingMeter wraps a real meter but fails instrument creation for "error_" names.
type errorInjectingMeter struct {
	metric.Meter
}

func (m *errorInjectingMeter) Float64Histogram(name string, options ...metric.Float64HistogramOption) (metric.Float64Histogram, error) {
	if name == "error_histogram" {
		return nil, errors.New("histogram creation failed")
	}
	return m.Meter.Float64Histogram(name, options...)
}

func (m *errorInjectingMeter) Int64Counter(name string, options ...metric.Int64CounterOption) (metric.Int64Counter, error) {
	if name == "error_counter" {
		return nil, errors.New("counter creation failed")
	}
	return m.Meter.Int64Counter(name, options...)
}

func (m *errorInjectingMeter) Float64Gauge(name string, options ...metric.Float64GaugeOption) (metric.Float64Gauge, error) {
	if name == "error_gauge" {
		return nil, errors.New("gauge creation failed")
	}
	return m.Meter.Float64Gauge(name, options...)
}

func findHistogramMetric(t *testing.T, resourceMetrics metricdata.ResourceMetrics, name string) *metricdata.Histogram[float64] {
	t.Helper()
	for _, scopeMetrics := range resourceMetrics.ScopeMetrics {
		for _, m := range scopeMetrics.Metrics {
			if m.Name == name {
				if h, ok := m.Data.(metricdata.Histogram[float64]); ok {
					return &h
				}
			}
		}
	}
	t.Fatalf("Histogram metric %s not found", name)
	return nil
}

func findCounterMetric(t *testing.T, resourceMetrics metricdata.ResourceMetrics, name string) *metricdata.Sum[int64] {
	t.Helper()
	for _, scopeMetrics := range resourceMetrics.ScopeMetrics {
		for _, m := range scopeMetrics.Metrics {
			if m.Name == name {
				if c, ok := m.Data.(metricdata.Sum[int64]); ok {
					return &c
				}
			}
		}
	}
	t.Fatalf("Counter metric %s not found", name)
	return nil
}

func findGaugeMetric(t *testing.T, resourceMetrics metricdata.ResourceMetrics, name string) *metricdata.Gauge[float64] {
	t.Helper()
	for _, scopeMetrics := range resourceMetrics.ScopeMetrics {
		for _, m := range scopeMetrics.Metrics {
			if m.Name == name {
				if g, ok := m.Data.(metricdata.Gauge[float64]); ok {
					return &g
				}
			}
		}
	}
	t.Fatalf("Gauge metric %s not found", name)
	return nil
}
