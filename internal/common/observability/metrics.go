package observability

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Observability bundles the OpenTelemetry meter and tracer used by the
// request path. A nil *Observability is valid and records nothing.
type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	meter          otelmetric.Meter
	tracer         trace.Tracer
	requestCounter otelmetric.Int64Counter
	leadsReturned  otelmetric.Int64Histogram
	fetchDuration  otelmetric.Float64Histogram
}

func New(serviceName string) *Observability {
	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tracerProvider)

	o := &Observability{
		tracerProvider: tracerProvider,
		tracer:         tracerProvider.Tracer(serviceName),
	}

	exporter, err := prometheus.New()
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return o
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	requestCounter, _ := meter.Int64Counter(
		"leads.requests",
		otelmetric.WithDescription("Number of lead aggregation requests"),
	)

	leadsReturned, _ := meter.Int64Histogram(
		"leads.returned",
		otelmetric.WithDescription("Number of enriched leads returned per request"),
	)

	fetchDuration, _ := meter.Float64Histogram(
		"leads.fetch.duration",
		otelmetric.WithDescription("Lead aggregation duration"),
		otelmetric.WithUnit("ms"),
	)

	o.meterProvider = provider
	o.meter = meter
	o.requestCounter = requestCounter
	o.leadsReturned = leadsReturned
	o.fetchDuration = fetchDuration
	return o
}

// NewNoop returns an Observability that only tracks span context, without
// touching the global providers. Intended for tests.
func NewNoop() *Observability {
	tp := sdktrace.NewTracerProvider()
	return &Observability{
		tracerProvider: tp,
		tracer:         tp.Tracer("noop"),
	}
}

func (o *Observability) RecordRequest(ctx context.Context, status string) {
	if o == nil || o.requestCounter == nil {
		return
	}
	o.requestCounter.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("status", status),
	))
}

func (o *Observability) RecordLeadsReturned(ctx context.Context, count int) {
	if o == nil || o.leadsReturned == nil {
		return
	}
	o.leadsReturned.Record(ctx, int64(count))
}

func (o *Observability) RecordFetchDuration(ctx context.Context, duration time.Duration, status string) {
	if o == nil || o.fetchDuration == nil {
		return
	}
	o.fetchDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
		attribute.String("status", status),
	))
}

func (o *Observability) Shutdown() {
	if o == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if o.meterProvider != nil {
		_ = o.meterProvider.Shutdown(ctx)
	}
	if o.tracerProvider != nil {
		_ = o.tracerProvider.Shutdown(ctx)
	}
}
