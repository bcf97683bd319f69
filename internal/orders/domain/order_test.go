package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/dejobratic/orderflow/internal/orders/domain"
)

func TestOrderValidate(t *testing.T) {
	tests := []struct {
		name    string
		order   domain.Order
		wantErr bool
	}{
		{
			name: "valid order",
			order: domain.Order{
				ID:        4821,
				Customer:  "Customer 3",
				Status:    domain.StatusCreated,
				CreatedAt: time.Now(),
				UpdatedAt: time.Now(),
			},
			wantErr: false,
		},
		{
			name:    "missing customer",
			order:   domain.Order{ID: 4821, Status: domain.StatusCreated},
			wantErr: true,
		},
		{
			name:    "whitespace only customer",
			order:   domain.Order{ID: 4821, Customer: "   "},
			wantErr: true,
		},
		{
			name:    "zero id",
			order:   domain.Order{Customer: "Customer 1"},
			wantErr: true,
		},
		{
			name:    "negative amount",
			order:   domain.Order{ID: 1000, Customer: "Customer 1", Amount: -5},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.order.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestOrderIsTerminal(t *testing.T) {
	tests := []struct {
		status domain.OrderStatus
		want   bool
	}{
		{domain.StatusCreated, false},
		{domain.StatusPaid, false},
		{domain.StatusInventoryConfirmed, false},
		{domain.StatusInventoryFailed, false},
		{domain.StatusShipped, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			order := domain.Order{Status: tt.status}
			if got := order.IsTerminal(); got != tt.want {
				t.Errorf("IsTerminal() = %v, want %v", got, tt.want)
			}
			if !tt.status.Valid() {
				t.Errorf("expected %s to be a valid status", tt.status)
			}
		})
	}

	if domain.OrderStatus("pending").Valid() {
		t.Error("expected unknown status to be invalid")
	}
}

func TestIntFrom(t *testing.T) {
	tests := []struct {
		name    string
		payload map[string]any
		want    int64
		wantErr bool
	}{
		{"int", map[string]any{"order_id": 4821}, 4821, false},
		{"int64", map[string]any{"order_id": int64(4821)}, 4821, false},
		{"whole float from json", map[string]any{"order_id": float64(4821)}, 4821, false},
		{"fractional float", map[string]any{"order_id": 48.5}, 0, true},
		{"string", map[string]any{"order_id": "4821"}, 0, true},
		{"missing", map[string]any{}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := domain.IntFrom(tt.payload, domain.KeyOrderID)
			if (err != nil) != tt.wantErr {
				t.Fatalf("IntFrom() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, domain.ErrInvalidPayload) {
				t.Errorf("expected ErrInvalidPayload, got %v", err)
			}
			if got != tt.want {
				t.Errorf("IntFrom() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestStringFrom(t *testing.T) {
	payload := domain.OrderCreatedPayload(4821, "Customer 3")

	customer, err := domain.StringFrom(payload, domain.KeyCustomer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if customer != "Customer 3" {
		t.Errorf("expected Customer 3, got %s", customer)
	}

	if _, err := domain.StringFrom(payload, domain.KeyOrderID); !errors.Is(err, domain.ErrInvalidPayload) {
		t.Errorf("expected ErrInvalidPayload for non-string field, got %v", err)
	}
}
