package eventbus

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type Metrics struct {
	eventsEmittedTotal metric.Int64Counter
	emitDuration       metric.Float64Histogram
	handlerDuration    metric.Float64Histogram
	handlerFailures    metric.Int64Counter
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.eventsEmittedTotal, err = meter.Int64Counter(
		"eventbus_events_emitted_total",
		metric.WithDescription("Total number of emitted events"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create eventbus_events_emitted_total counter: %w", err)
	}

	m.emitDuration, err = meter.Float64Histogram(
		"eventbus_emit_duration_seconds",
		metric.WithDescription("Duration of a full emission including nested emissions"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create eventbus_emit_duration histogram: %w", err)
	}

	m.handlerDuration, err = meter.Float64Histogram(
		"eventbus_handler_duration_seconds",
		metric.WithDescription("Duration of a single handler invocation"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create eventbus_handler_duration histogram: %w", err)
	}

	m.handlerFailures, err = meter.Int64Counter(
		"eventbus_handler_failures_total",
		metric.WithDescription("Handler invocations that returned an error"),
		metric.WithUnit("{handler}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create eventbus_handler_failures_total counter: %w", err)
	}

	return m, nil
}

func (m *Metrics) RecordEmit(ctx context.Context, eventType EventType, handlers int, durationSeconds float64, success bool) {
	m.eventsEmittedTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event_type", eventType),
		attribute.String("status", statusLabel(success)),
		attribute.Bool("delivered", handlers > 0),
	))
	m.emitDuration.Record(ctx, durationSeconds, metric.WithAttributes(
		attribute.String("event_type", eventType),
		attribute.String("status", statusLabel(success)),
	))
}

func (m *Metrics) RecordHandle(ctx context.Context, eventType EventType, durationSeconds float64, success bool) {
	m.handlerDuration.Record(ctx, durationSeconds, metric.WithAttributes(
		attribute.String("event_type", eventType),
		attribute.String("status", statusLabel(success)),
	))
	if !success {
		m.handlerFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("event_type", eventType)))
	}
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "error"
}
