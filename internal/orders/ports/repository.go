package ports

import (
	"context"
	"errors"

	"github.com/dejobratic/orderflow/internal/orders/domain"
)

// OrderRepository stores the order projection maintained by the presentation layer.
type OrderRepository interface {
	Create(ctx context.Context, order domain.Order) error
	Save(ctx context.Context, order domain.Order) error
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	List(ctx context.Context, filter ListFilter) ([]domain.Order, error)
}

// ListFilter narrows list queries by status and pagination.
type ListFilter struct {
	Status   *domain.OrderStatus
	Page     int
	PageSize int
}

var (
	// ErrNotFound is returned when the requested order does not exist.
	ErrNotFound = errors.New("order not found")
	// ErrAlreadyExists is returned when creating an order whose id is taken.
	ErrAlreadyExists = errors.New("order already exists")
)
