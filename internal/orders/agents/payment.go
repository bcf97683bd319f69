package agents

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dejobratic/orderflow/internal/orders/domain"
	"github.com/dejobratic/orderflow/internal/orders/ports"
)

type PaymentAgent struct {
	events ports.EventPublisher
	logger *slog.Logger
}

func NewPaymentAgent(events ports.EventPublisher, logger *slog.Logger) *PaymentAgent {
	return &PaymentAgent{events: events, logger: logger}
}

// ProcessPayment charges amount for the order. Payments always succeed.
func (a *PaymentAgent) ProcessPayment(ctx context.Context, orderID, amount int64) error {
	if orderID <= 0 {
		return errors.New("order_id must be positive")
	}
	if amount <= 0 {
		return errors.New("amount must be positive")
	}

	a.logger.InfoContext(ctx, "processing payment", "order_id", orderID, "amount", amount)

	if err := a.events.Emit(ctx, domain.EventPaymentSuccessful, domain.PaymentSuccessfulPayload(orderID, amount)); err != nil {
		return fmt.Errorf("emit %s: %w", domain.EventPaymentSuccessful, err)
	}
	return nil
}
