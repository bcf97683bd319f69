package domain

import (
	"errors"
	"strings"
	"time"
)

// OrderStatus captures how far an order has moved through the workflow.
type OrderStatus string

const (
	StatusCreated            OrderStatus = "created"
	StatusPaid               OrderStatus = "paid"
	StatusInventoryConfirmed OrderStatus = "inventory_confirmed"
	StatusInventoryFailed    OrderStatus = "inventory_failed"
	StatusShipped            OrderStatus = "shipped"
)

// Order is the projection of an order built from workflow events.
type Order struct {
	ID        int64       `json:"id"`
	Customer  string      `json:"customer"`
	Amount    int64       `json:"amount,omitempty"`
	ProductID int64       `json:"product_id,omitempty"`
	Status    OrderStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Validate ensures the order adheres to business constraints.
func (o Order) Validate() error {
	if o.ID <= 0 {
		return errors.New("order_id must be positive")
	}
	if strings.TrimSpace(o.Customer) == "" {
		return errors.New("customer is required")
	}
	if o.Amount < 0 {
		return errors.New("amount must not be negative")
	}
	return nil
}

// IsTerminal indicates whether the order has left the workflow.
func (o Order) IsTerminal() bool {
	return o.Status == StatusShipped
}

// Valid reports whether s is one of the known statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusCreated, StatusPaid, StatusInventoryConfirmed, StatusInventoryFailed, StatusShipped:
		return true
	default:
		return false
	}
}
