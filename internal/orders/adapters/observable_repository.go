package adapters

import (
	"context"
	"errors"
	"time"

	"github.com/dejobratic/orderflow/internal/database"
	"github.com/dejobratic/orderflow/internal/orders/domain"
	"github.com/dejobratic/orderflow/internal/orders/ports"
	"github.com/dejobratic/orderflow/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ObservableRepository traces and times every call to the wrapped repository.
type ObservableRepository struct {
	repo    ports.OrderRepository
	metrics *database.Metrics
}

func NewObservableRepository(repo ports.OrderRepository, metrics *database.Metrics) *ObservableRepository {
	return &ObservableRepository{
		repo:    repo,
		metrics: metrics,
	}
}

func (r *ObservableRepository) Create(ctx context.Context, order domain.Order) error {
	return r.observe(ctx, "OrderRepository.Create", "create_order", func(ctx context.Context, span trace.Span) error {
		telemetry.AddSpanAttributes(span,
			attribute.Int64("order.id", order.ID),
			attribute.String("order.status", string(order.Status)),
		)
		return r.repo.Create(ctx, order)
	})
}

func (r *ObservableRepository) Save(ctx context.Context, order domain.Order) error {
	return r.observe(ctx, "OrderRepository.Save", "save_order", func(ctx context.Context, span trace.Span) error {
		telemetry.AddSpanAttributes(span,
			attribute.Int64("order.id", order.ID),
			attribute.String("order.status", string(order.Status)),
		)
		return r.repo.Save(ctx, order)
	})
}

// GetByID treats a missing order as a successful lookup; the service probes for free
// ids this way.
func (r *ObservableRepository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	var order *domain.Order
	var miss error
	err := r.observe(ctx, "OrderRepository.GetByID", "get_order_by_id", func(ctx context.Context, span trace.Span) error {
		telemetry.AddSpanAttributes(span, attribute.Int64("order.id", id))
		var err error
		order, err = r.repo.GetByID(ctx, id)
		if errors.Is(err, ports.ErrNotFound) {
			telemetry.AddSpanAttributes(span, attribute.Bool("order.found", false))
			miss = err
			return nil
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	if miss != nil {
		return nil, miss
	}
	return order, nil
}

func (r *ObservableRepository) List(ctx context.Context, filter ports.ListFilter) ([]domain.Order, error) {
	var orders []domain.Order
	err := r.observe(ctx, "OrderRepository.List", "list_orders", func(ctx context.Context, span trace.Span) error {
		attrs := []attribute.KeyValue{
			attribute.Int("page", filter.Page),
			attribute.Int("page_size", filter.PageSize),
		}
		if filter.Status != nil {
			attrs = append(attrs, attribute.String("filter.status", string(*filter.Status)))
		}
		telemetry.AddSpanAttributes(span, attrs...)

		var err error
		orders, err = r.repo.List(ctx, filter)
		if err == nil {
			telemetry.AddSpanAttributes(span, attribute.Int("result.count", len(orders)))
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *ObservableRepository) observe(ctx context.Context, spanName, operation string, fn func(context.Context, trace.Span) error) error {
	ctx, span := telemetry.StartSpan(ctx, spanName)
	defer span.End()

	telemetry.AddSpanAttributes(span, attribute.String("operation", operation))

	start := time.Now()
	err := fn(ctx, span)
	duration := time.Since(start).Seconds()

	r.metrics.RecordQuery(ctx, operation, duration, err == nil)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return err
	}

	telemetry.SetSpanSuccess(span)
	return nil
}
