// internal/common/observability/metrics.go
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
)

// Observability owns the OpenTelemetry meter provider. The Prometheus
// exporter bridges every instrument into the default registry, so the
// /metrics endpoint serves these alongside the promauto collectors.
type Observability struct {
	meterProvider *metric.MeterProvider
	jobsProcessed otelmetric.Int64Counter
	jobsActive    otelmetric.Int64UpDownCounter
	jobDuration   otelmetric.Float64Histogram
}

// New builds the provider and the worker instruments. A failed exporter
// leaves a zero-value Observability whose record methods are no-ops:
// metrics degrade, job handling keeps running.
func New(serviceName string) *Observability {
	exporter, err := prometheus.New()
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return &Observability{}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	jobsProcessed, _ := meter.Int64Counter(
		"jobs.processed",
		otelmetric.WithDescription("Jobs handled, by task type and outcome"),
	)
	jobsActive, _ := meter.Int64UpDownCounter(
		"jobs.active",
		otelmetric.WithDescription("Jobs currently being handled"),
	)
	jobDuration, _ := meter.Float64Histogram(
		"jobs.duration",
		otelmetric.WithDescription("Job handling duration"),
		otelmetric.WithUnit("ms"),
	)

	return &Observability{
		meterProvider: provider,
		jobsProcessed: jobsProcessed,
		jobsActive:    jobsActive,
		jobDuration:   jobDuration,
	}
}

// RecordJobProcessed counts one finished job with its outcome, "handled"
// or "panic".
func (o *Observability) RecordJobProcessed(ctx context.Context, taskType, status string) {
	if o.jobsProcessed == nil {
		return
	}
	o.jobsProcessed.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("task_type", taskType),
		attribute.String("status", status),
	))
}

// RecordJobActive moves the in-flight count by delta: +1 on start, -1 on end.
func (o *Observability) RecordJobActive(ctx context.Context, taskType string, delta int64) {
	if o.jobsActive == nil {
		return
	}
	o.jobsActive.Add(ctx, delta, otelmetric.WithAttributes(
		attribute.String("task_type", taskType),
	))
}

func (o *Observability) RecordJobDuration(ctx context.Context, taskType string, duration time.Duration) {
	if o.jobDuration == nil {
		return
	}
	o.jobDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
		attribute.String("task_type", taskType),
	))
}

// Shutdown flushes the provider.
func (o *Observability) Shutdown() {
	if o.meterProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		o.meterProvider.Shutdown(ctx)
	}
}
