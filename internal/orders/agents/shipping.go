package agents

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dejobratic/orderflow/internal/orders/domain"
	"github.com/dejobratic/orderflow/internal/orders/ports"
)

type ShippingAgent struct {
	events ports.EventPublisher
	logger *slog.Logger
}

func NewShippingAgent(events ports.EventPublisher, logger *slog.Logger) *ShippingAgent {
	return &ShippingAgent{events: events, logger: logger}
}

// ShipOrder hands the order over to the carrier.
func (a *ShippingAgent) ShipOrder(ctx context.Context, orderID int64) error {
	if orderID <= 0 {
		return errors.New("order_id must be positive")
	}

	a.logger.InfoContext(ctx, "shipping order", "order_id", orderID)

	if err := a.events.Emit(ctx, domain.EventOrderShipped, domain.OrderShippedPayload(orderID)); err != nil {
		return fmt.Errorf("emit %s: %w", domain.EventOrderShipped, err)
	}
	return nil
}
