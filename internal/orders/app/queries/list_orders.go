package queries

import (
	"context"
	"fmt"

	"github.com/dejobratic/orderflow/internal/orders/domain"
	"github.com/dejobratic/orderflow/internal/orders/ports"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ListOrdersQuery pages through the order projection, optionally by status.
type ListOrdersQuery struct {
	Status   string
	Page     int
	PageSize int
}

type ListOrdersQueryHandler struct {
	repo ports.OrderRepository
}

func NewListOrdersQueryHandler(repo ports.OrderRepository) *ListOrdersQueryHandler {
	return &ListOrdersQueryHandler{repo: repo}
}

func (h *ListOrdersQueryHandler) Handle(ctx context.Context, query ListOrdersQuery) ([]domain.Order, error) {
	filter, err := query.Filter()
	if err != nil {
		return nil, err
	}
	return h.repo.List(ctx, filter)
}

// Filter validates the query and converts it into a repository filter with
// pagination defaults applied.
func (q ListOrdersQuery) Filter() (ports.ListFilter, error) {
	filter := ports.ListFilter{Page: q.Page, PageSize: q.PageSize}

	if q.Status != "" {
		status := domain.OrderStatus(q.Status)
		if !status.Valid() {
			return ports.ListFilter{}, fmt.Errorf("unknown status %q", q.Status)
		}
		filter.Status = &status
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = defaultPageSize
	}
	if filter.PageSize > maxPageSize {
		filter.PageSize = maxPageSize
	}

	return filter, nil
}
