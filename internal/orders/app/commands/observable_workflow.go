package commands

import (
	"context"
	"log/slog"
	"time"

	"github.com/dejobratic/orderflow/internal/orders/metrics"
	"github.com/dejobratic/orderflow/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

type ObservableWorkflow struct {
	workflow Workflow
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func NewObservableWorkflow(workflow Workflow, logger *slog.Logger, metrics *metrics.Metrics) *ObservableWorkflow {
	return &ObservableWorkflow{
		workflow: workflow,
		logger:   logger,
		metrics:  metrics,
	}
}

func (o *ObservableWorkflow) CreateOrder(ctx context.Context, cmd CreateOrderCommand) error {
	return o.observe(ctx, "Workflow.CreateOrder", metrics.ActionCreateOrder, cmd.OrderID,
		func(ctx context.Context) error {
			err := o.workflow.CreateOrder(ctx, cmd)
			o.metrics.RecordOrderCreated(ctx, err == nil)
			return err
		},
		attribute.String("order.customer", cmd.Customer),
	)
}

func (o *ObservableWorkflow) ProcessPayment(ctx context.Context, cmd ProcessPaymentCommand) error {
	return o.observe(ctx, "Workflow.ProcessPayment", metrics.ActionProcessPayment, cmd.OrderID,
		func(ctx context.Context) error {
			return o.workflow.ProcessPayment(ctx, cmd)
		},
		attribute.Int64("order.amount", cmd.Amount),
		attribute.Int64("order.product_id", cmd.ProductID),
	)
}

func (o *ObservableWorkflow) ShipOrder(ctx context.Context, cmd ShipOrderCommand) error {
	return o.observe(ctx, "Workflow.ShipOrder", metrics.ActionShipOrder, cmd.OrderID,
		func(ctx context.Context) error {
			return o.workflow.ShipOrder(ctx, cmd)
		},
	)
}

func (o *ObservableWorkflow) observe(
	ctx context.Context,
	spanName, action string,
	orderID int64,
	fn func(ctx context.Context) error,
	attrs ...attribute.KeyValue,
) error {
	ctx, span := telemetry.StartSpan(ctx, spanName)
	defer span.End()

	telemetry.AddSpanAttributes(span, append(attrs, attribute.Int64("order.id", orderID))...)

	o.logger.InfoContext(ctx, "running workflow action", "action", action, "order_id", orderID)

	start := time.Now()
	err := fn(ctx)
	o.metrics.RecordAction(ctx, action, time.Since(start).Seconds(), err == nil)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		o.logger.ErrorContext(ctx, "workflow action failed",
			"action", action,
			"order_id", orderID,
			"error", err,
		)
		return err
	}

	telemetry.SetSpanSuccess(span)
	return nil
}
