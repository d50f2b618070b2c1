package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Observability records sink latencies through an OpenTelemetry meter exported to Prometheus.
type Observability struct {
	meterProvider *metric.MeterProvider
	meter         otelmetric.Meter
	sinkCounter   otelmetric.Int64Counter
	sinkDuration  otelmetric.Float64Histogram
}

func New(serviceName string) (*Observability, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return &Observability{}, err
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	return newWithProvider(provider, serviceName), nil
}

// NewWithReader builds an instance on a caller-supplied reader, used by tests.
func NewWithReader(reader metric.Reader, serviceName string) *Observability {
	return newWithProvider(metric.NewMeterProvider(metric.WithReader(reader)), serviceName)
}

func newWithProvider(provider *metric.MeterProvider, serviceName string) *Observability {
	meter := provider.Meter(serviceName)

	sinkCounter, _ := meter.Int64Counter(
		"sink.calls",
		otelmetric.WithDescription("Number of calls made to external sinks"),
	)

	sinkDuration, _ := meter.Float64Histogram(
		"sink.duration",
		otelmetric.WithDescription("External sink call duration"),
		otelmetric.WithUnit("ms"),
	)

	return &Observability{
		meterProvider: provider,
		meter:         meter,
		sinkCounter:   sinkCounter,
		sinkDuration:  sinkDuration,
	}
}

// RecordSinkCall counts one sink call and records its latency.
func (o *Observability) RecordSinkCall(ctx context.Context, sink string, duration time.Duration, status string) {
	if o == nil {
		return
	}
	attrs := otelmetric.WithAttributes(
		attribute.String("sink", sink),
		attribute.String("status", status),
	)
	if o.sinkCounter != nil {
		o.sinkCounter.Add(ctx, 1, attrs)
	}
	if o.sinkDuration != nil {
		o.sinkDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	}
}

func (o *Observability) Shutdown() {
	if o == nil || o.meterProvider == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = o.meterProvider.Shutdown(ctx)
}
