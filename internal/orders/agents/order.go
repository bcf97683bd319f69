package agents

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dejobratic/orderflow/internal/orders/domain"
	"github.com/dejobratic/orderflow/internal/orders/ports"
)

type OrderAgent struct {
	events ports.EventPublisher
	logger *slog.Logger
}

func NewOrderAgent(events ports.EventPublisher, logger *slog.Logger) *OrderAgent {
	return &OrderAgent{events: events, logger: logger}
}

// CreateOrder announces a new order for customer.
func (a *OrderAgent) CreateOrder(ctx context.Context, orderID int64, customer string) error {
	order := domain.Order{ID: orderID, Customer: customer}
	if err := order.Validate(); err != nil {
		return err
	}

	a.logger.InfoContext(ctx, "order created", "order_id", orderID, "customer", customer)

	if err := a.events.Emit(ctx, domain.EventOrderCreated, domain.OrderCreatedPayload(orderID, customer)); err != nil {
		return fmt.Errorf("emit %s: %w", domain.EventOrderCreated, err)
	}
	return nil
}
