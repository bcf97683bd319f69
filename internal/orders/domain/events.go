package domain

import (
	"errors"
	"fmt"
)

// Event types emitted by the workflow agents.
const (
	EventOrderCreated         = "order_created"
	EventPaymentSuccessful    = "payment_successful"
	EventInventoryCheckPassed = "inventory_check_passed"
	EventInventoryCheckFailed = "inventory_check_failed"
	EventOrderShipped         = "order_shipped"
)

// WorkflowEvents lists every event type the agents emit, in workflow order.
var WorkflowEvents = []string{
	EventOrderCreated,
	EventPaymentSuccessful,
	EventInventoryCheckPassed,
	EventInventoryCheckFailed,
	EventOrderShipped,
}

// Payload keys.
const (
	KeyOrderID   = "order_id"
	KeyCustomer  = "customer"
	KeyAmount    = "amount"
	KeyProductID = "product_id"
)

var ErrInvalidPayload = errors.New("invalid event payload")

func OrderCreatedPayload(orderID int64, customer string) map[string]any {
	return map[string]any{KeyOrderID: orderID, KeyCustomer: customer}
}

func PaymentSuccessfulPayload(orderID, amount int64) map[string]any {
	return map[string]any{KeyOrderID: orderID, KeyAmount: amount}
}

func InventoryCheckPayload(orderID, productID int64) map[string]any {
	return map[string]any{KeyOrderID: orderID, KeyProductID: productID}
}

func OrderShippedPayload(orderID int64) map[string]any {
	return map[string]any{KeyOrderID: orderID}
}

// IntFrom reads an integer field from a payload. Payloads built in-process carry
// Go integers; payloads decoded from JSON carry float64.
func IntFrom(payload map[string]any, key string) (int64, error) {
	raw, ok := payload[key]
	if !ok {
		return 0, fmt.Errorf("%w: missing %s", ErrInvalidPayload, key)
	}

	switch v := raw.(type) {
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		if v != float64(int64(v)) {
			return 0, fmt.Errorf("%w: %s is not an integer", ErrInvalidPayload, key)
		}
		return int64(v), nil
	default:
		return 0, fmt.Errorf("%w: %s has type %T", ErrInvalidPayload, key, raw)
	}
}

// StringFrom reads a string field from a payload.
func StringFrom(payload map[string]any, key string) (string, error) {
	raw, ok := payload[key]
	if !ok {
		return "", fmt.Errorf("%w: missing %s", ErrInvalidPayload, key)
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s has type %T", ErrInvalidPayload, key, raw)
	}
	return s, nil
}
