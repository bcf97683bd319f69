package telemetry

import (
	"context"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// discardSpanExporter drops finished spans. It backs tracing when no collector is
// configured so that logs still carry trace and span ids.
type discardSpanExporter struct{}

func (discardSpanExporter) ExportSpans(context.Context, []sdktrace.ReadOnlySpan) error { return nil }
func (discardSpanExporter) Shutdown(context.Context) error                            { return nil }

// discardMetricExporter drops collected metrics.
type discardMetricExporter struct{}

func (discardMetricExporter) Temporality(sdkmetric.InstrumentKind) metricdata.Temporality {
	return metricdata.CumulativeTemporality
}

func (discardMetricExporter) Aggregation(kind sdkmetric.InstrumentKind) sdkmetric.Aggregation {
	return sdkmetric.DefaultAggregationSelector(kind)
}

func (discardMetricExporter) Export(context.Context, *metricdata.ResourceMetrics) error { return nil }
func (discardMetricExporter) ForceFlush(context.Context) error                         { return nil }
func (discardMetricExporter) Shutdown(context.Context) error                           { return nil }

func DiscardSpanExporter() sdktrace.SpanExporter { return discardSpanExporter{} }

func DiscardMetricExporter() sdkmetric.Exporter { return discardMetricExporter{} }
