package commands

import (
	"context"
	"errors"
	"strings"
)

// CreateOrderCommand announces a new order.
type CreateOrderCommand struct {
	OrderID  int64
	Customer string
}

func (c CreateOrderCommand) Validate() error {
	if c.OrderID <= 0 {
		return errors.New("order_id must be positive")
	}
	if strings.TrimSpace(c.Customer) == "" {
		return errors.New("customer is required")
	}
	return nil
}

// ProcessPaymentCommand charges an order and reserves one of its products.
type ProcessPaymentCommand struct {
	OrderID   int64
	Amount    int64
	ProductID int64
	Quantity  int
}

func (c ProcessPaymentCommand) Validate() error {
	if c.OrderID <= 0 {
		return errors.New("order_id must be positive")
	}
	if c.Amount <= 0 {
		return errors.New("amount must be positive")
	}
	if c.ProductID <= 0 {
		return errors.New("product_id must be positive")
	}
	if c.Quantity <= 0 {
		return errors.New("quantity must be positive")
	}
	return nil
}

// ShipOrderCommand hands an order over to shipping.
type ShipOrderCommand struct {
	OrderID int64
}

func (c ShipOrderCommand) Validate() error {
	if c.OrderID <= 0 {
		return errors.New("order_id must be positive")
	}
	return nil
}

type Workflow interface {
	CreateOrder(ctx context.Context, cmd CreateOrderCommand) error
	ProcessPayment(ctx context.Context, cmd ProcessPaymentCommand) error
	ShipOrder(ctx context.Context, cmd ShipOrderCommand) error
}

type OrderCreator interface {
	CreateOrder(ctx context.Context, orderID int64, customer string) error
}

type PaymentProcessor interface {
	ProcessPayment(ctx context.Context, orderID, amount int64) error
}

type InventoryChecker interface {
	CheckInventory(ctx context.Context, orderID, productID int64, quantity int) error
}

type Shipper interface {
	ShipOrder(ctx context.Context, orderID int64) error
}

// WorkflowHandler runs each workflow action by calling the agent responsible for it.
// Everything that reacts to the resulting events happens synchronously inside the call.
type WorkflowHandler struct {
	orders    OrderCreator
	payments  PaymentProcessor
	inventory InventoryChecker
	shipping  Shipper
}

func NewWorkflowHandler(
	orders OrderCreator,
	payments PaymentProcessor,
	inventory InventoryChecker,
	shipping Shipper,
) *WorkflowHandler {
	return &WorkflowHandler{
		orders:    orders,
		payments:  payments,
		inventory: inventory,
		shipping:  shipping,
	}
}

func (h *WorkflowHandler) CreateOrder(ctx context.Context, cmd CreateOrderCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	return h.orders.CreateOrder(ctx, cmd.OrderID, cmd.Customer)
}

// ProcessPayment charges the order and then checks inventory for it. The inventory
// check is skipped when the payment fails.
func (h *WorkflowHandler) ProcessPayment(ctx context.Context, cmd ProcessPaymentCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	if err := h.payments.ProcessPayment(ctx, cmd.OrderID, cmd.Amount); err != nil {
		return err
	}
	return h.inventory.CheckInventory(ctx, cmd.OrderID, cmd.ProductID, cmd.Quantity)
}

func (h *WorkflowHandler) ShipOrder(ctx context.Context, cmd ShipOrderCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	return h.shipping.ShipOrder(ctx, cmd.OrderID)
}
