package agents

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dejobratic/orderflow/internal/orders/domain"
	"github.com/dejobratic/orderflow/internal/orders/ports"
)

type InventoryAgent struct {
	events ports.EventPublisher
	stock  ports.StockChecker
	logger *slog.Logger
}

func NewInventoryAgent(events ports.EventPublisher, stock ports.StockChecker, logger *slog.Logger) *InventoryAgent {
	return &InventoryAgent{events: events, stock: stock, logger: logger}
}

// CheckInventory emits inventory_check_passed when the product is available and
// inventory_check_failed otherwise.
func (a *InventoryAgent) CheckInventory(ctx context.Context, orderID, productID int64, quantity int) error {
	if orderID <= 0 {
		return errors.New("order_id must be positive")
	}
	if quantity <= 0 {
		return errors.New("quantity must be positive")
	}

	a.logger.InfoContext(ctx, "checking inventory",
		"order_id", orderID,
		"product_id", productID,
		"quantity", quantity,
	)

	inStock, err := a.stock.InStock(ctx, productID, quantity)
	if err != nil {
		return fmt.Errorf("check stock for product %d: %w", productID, err)
	}

	eventType := domain.EventInventoryCheckFailed
	if inStock {
		eventType = domain.EventInventoryCheckPassed
	}

	if err := a.events.Emit(ctx, eventType, domain.InventoryCheckPayload(orderID, productID)); err != nil {
		return fmt.Errorf("emit %s: %w", eventType, err)
	}
	return nil
}

// StaticStock answers every stock query with the same result.
type StaticStock struct {
	Available bool
}

// AlwaysInStock reports every product as available.
var AlwaysInStock = StaticStock{Available: true}

func (s StaticStock) InStock(context.Context, int64, int) (bool, error) {
	return s.Available, nil
}
