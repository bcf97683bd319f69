package eventbus

import (
	"context"
	"log/slog"
	"time"

	"github.com/dejobratic/orderflow/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// Dispatcher is the bus contract shared by Bus and its decorators.
type Dispatcher interface {
	Subscribe(eventType EventType, handler Handler)
	Emit(ctx context.Context, eventType EventType, payload Payload) error
	HandlerCount(eventType EventType) int
}

// ObservableBus traces, measures and logs emissions and handler invocations of
// the wrapped bus without changing dispatch order or failure propagation.
type ObservableBus struct {
	bus     Dispatcher
	logger  *slog.Logger
	metrics *Metrics
}

func NewObservableBus(bus Dispatcher, logger *slog.Logger, metrics *Metrics) *ObservableBus {
	return &ObservableBus{
		bus:     bus,
		logger:  logger,
		metrics: metrics,
	}
}

func (o *ObservableBus) Subscribe(eventType EventType, handler Handler) {
	if handler == nil {
		panic("eventbus: nil handler")
	}

	o.bus.Subscribe(eventType, func(ctx context.Context, payload Payload) error {
		ctx, span := telemetry.StartSpan(ctx, "EventBus.Handle")
		defer span.End()

		telemetry.AddSpanAttributes(span,
			attribute.String("event.type", eventType),
			attribute.Int("event.depth", Depth(ctx)),
		)

		start := time.Now()
		err := handler(ctx, payload)
		duration := time.Since(start).Seconds()

		o.metrics.RecordHandle(ctx, eventType, duration, err == nil)

		if err != nil {
			telemetry.RecordSpanError(span, err)
			return err
		}

		telemetry.SetSpanSuccess(span)
		return nil
	})
}

func (o *ObservableBus) Emit(ctx context.Context, eventType EventType, payload Payload) error {
	ctx, span := telemetry.StartSpan(ctx, "EventBus.Emit")
	defer span.End()

	handlers := o.bus.HandlerCount(eventType)
	telemetry.AddSpanAttributes(span,
		attribute.String("event.type", eventType),
		attribute.Int("event.handlers", handlers),
	)

	o.logger.DebugContext(ctx, "event::"+eventType, "payload", payload, "handlers", handlers)

	start := time.Now()
	err := o.bus.Emit(ctx, eventType, payload)
	duration := time.Since(start).Seconds()

	o.metrics.RecordEmit(ctx, eventType, handlers, duration, err == nil)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return err
	}

	telemetry.SetSpanSuccess(span)
	return nil
}

func (o *ObservableBus) HandlerCount(eventType EventType) int {
	return o.bus.HandlerCount(eventType)
}
