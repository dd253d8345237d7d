package observability

import (
	"context"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/trace"

	"nl-sql-search/internal/common/logger"
	"nl-sql-search/internal/search"
)

// Observability owns the OpenTelemetry meter provider whose readings are
// exported through a Prometheus registerer. It doubles as a search.Observer.
type Observability struct {
	serviceName    string
	meterProvider  *metric.MeterProvider
	meter          otelmetric.Meter
	searchCounter  otelmetric.Int64Counter
	searchDuration otelmetric.Float64Histogram
	rowCount       otelmetric.Int64Histogram
}

// New builds the provider and registers it globally. A nil reg uses the
// default Prometheus registerer. Instrument failures are logged and leave
// the corresponding recorder inert.
func New(serviceName string, reg promclient.Registerer, log logger.Logger) *Observability {
	opts := []prometheus.Option{}
	if reg != nil {
		opts = append(opts, prometheus.WithRegisterer(reg))
	}

	exporter, err := prometheus.New(opts...)
	if err != nil {
		log.Error("failed to create prometheus exporter", map[string]interface{}{"error": err.Error()})
		return &Observability{serviceName: serviceName}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)
	o := &Observability{
		serviceName:   serviceName,
		meterProvider: provider,
		meter:         meter,
	}

	if o.searchCounter, err = meter.Int64Counter(
		"searches.processed",
		otelmetric.WithDescription("Number of hybrid searches processed"),
	); err != nil {
		log.Warn("searches.processed instrument unavailable", map[string]interface{}{"error": err.Error()})
	}

	if o.searchDuration, err = meter.Float64Histogram(
		"searches.duration",
		otelmetric.WithDescription("Hybrid search duration"),
		otelmetric.WithUnit("ms"),
	); err != nil {
		log.Warn("searches.duration instrument unavailable", map[string]interface{}{"error": err.Error()})
	}

	if o.rowCount, err = meter.Int64Histogram(
		"searches.rows",
		otelmetric.WithDescription("Rows returned by successful searches"),
	); err != nil {
		log.Warn("searches.rows instrument unavailable", map[string]interface{}{"error": err.Error()})
	}

	return o
}

// Tracer returns the service tracer from the global provider.
func (o *Observability) Tracer() trace.Tracer {
	return otel.Tracer(o.serviceName)
}

// StartSpan starts a span named name on the service tracer.
func (o *Observability) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return o.Tracer().Start(ctx, name, trace.WithAttributes(attrs...))
}

func (o *Observability) ObserveSearch(ctx context.Context, ev search.Event) {
	o.RecordSearchProcessed(ctx, string(ev.Outcome))
	o.RecordSearchDuration(ctx, ev.Duration, string(ev.Outcome))
	if o.rowCount != nil && ev.RowCount > 0 {
		o.rowCount.Record(ctx, int64(ev.RowCount))
	}
}

func (o *Observability) RecordSearchProcessed(ctx context.Context, outcome string) {
	if o.searchCounter != nil {
		o.searchCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("outcome", outcome),
		))
	}
}

func (o *Observability) RecordSearchDuration(ctx context.Context, duration time.Duration, outcome string) {
	if o.searchDuration != nil {
		o.searchDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("outcome", outcome),
		))
	}
}

func (o *Observability) Shutdown(ctx context.Context) error {
	if o.meterProvider == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return o.meterProvider.Shutdown(ctx)
}
