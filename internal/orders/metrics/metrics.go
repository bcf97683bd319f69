package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Workflow actions triggered from the presentation layer.
const (
	ActionCreateOrder    = "create_order"
	ActionProcessPayment = "process_payment"
	ActionShipOrder      = "ship_order"
)

type Metrics struct {
	ordersCreatedTotal metric.Int64Counter
	actionDuration     metric.Float64Histogram
	inventoryChecks    metric.Int64Counter
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.ordersCreatedTotal, err = meter.Int64Counter(
		"orders_created_total",
		metric.WithDescription("Total number of orders created"),
		metric.WithUnit("{order}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create orders_created_total counter: %w", err)
	}

	m.actionDuration, err = meter.Float64Histogram(
		"workflow_action_duration_seconds",
		metric.WithDescription("Duration of a workflow action including every event it triggers"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create workflow_action_duration histogram: %w", err)
	}

	m.inventoryChecks, err = meter.Int64Counter(
		"inventory_checks_total",
		metric.WithDescription("Inventory check outcomes"),
		metric.WithUnit("{check}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create inventory_checks_total counter: %w", err)
	}

	return m, nil
}

func (m *Metrics) RecordOrderCreated(ctx context.Context, success bool) {
	m.ordersCreatedTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", status(success)),
	))
}

func (m *Metrics) RecordAction(ctx context.Context, action string, durationSeconds float64, success bool) {
	m.actionDuration.Record(ctx, durationSeconds, metric.WithAttributes(
		attribute.String("action", action),
		attribute.String("status", status(success)),
	))
}

func (m *Metrics) RecordInventoryCheck(ctx context.Context, inStock bool) {
	result := "failed"
	if inStock {
		result = "passed"
	}
	m.inventoryChecks.Add(ctx, 1, metric.WithAttributes(
		attribute.String("result", result),
	))
}

func status(success bool) string {
	if success {
		return "success"
	}
	return "error"
}
