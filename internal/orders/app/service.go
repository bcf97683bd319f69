package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/dejobratic/orderflow/internal/eventbus"
	"github.com/dejobratic/orderflow/internal/orders/app/commands"
	"github.com/dejobratic/orderflow/internal/orders/app/queries"
	"github.com/dejobratic/orderflow/internal/orders/domain"
	"github.com/dejobratic/orderflow/internal/orders/metrics"
	"github.com/dejobratic/orderflow/internal/orders/ports"
)

var (
	// ErrNoCurrentOrder is returned by payment and shipping before any order exists.
	ErrNoCurrentOrder = errors.New("no current order")
	// ErrActionDisabled is returned when the workflow has not reached the requested step.
	ErrActionDisabled = errors.New("action is not available for the current order")
)

const (
	minOrderID       = 1000
	maxOrderID       = 9999
	orderIDAttempts  = 100
	inventoryQty     = 1
	waitingStatusMsg = "Order Status: Waiting..."
)

// Config bounds the values the service picks on behalf of the user.
type Config struct {
	CustomerCount int
	ProductCount  int
	MinAmount     int64
	MaxAmount     int64
}

func DefaultConfig() Config {
	return Config{
		CustomerCount: 5,
		ProductCount:  3,
		MinAmount:     100,
		MaxAmount:     500,
	}
}

func (c Config) normalized() Config {
	if c.CustomerCount < 1 {
		c.CustomerCount = 1
	}
	if c.ProductCount < 1 {
		c.ProductCount = 1
	}
	if c.MinAmount < 1 {
		c.MinAmount = 1
	}
	if c.MaxAmount < c.MinAmount {
		c.MaxAmount = c.MinAmount
	}
	return c
}

// View is what the user sees: a status line, the order being worked on and which
// actions are currently available.
type View struct {
	Status         string `json:"status"`
	OrderID        int64  `json:"current_order_id,omitempty"`
	Customer       string `json:"customer,omitempty"`
	PaymentEnabled bool   `json:"payment_enabled"`
	ShipEnabled    bool   `json:"ship_enabled"`
}

type Option func(*Service)

// WithRand replaces the random source used for order ids, customers, amounts and
// products.
func WithRand(rng *rand.Rand) Option {
	return func(s *Service) {
		s.rng = rng
	}
}

// Service drives the order workflow on behalf of a single user and keeps the view and
// the order projection in step with the events the agents emit.
type Service struct {
	workflow   commands.Workflow
	getOrder   *queries.GetOrderQueryHandler
	listOrders *queries.ListOrdersQueryHandler
	repo       ports.OrderRepository
	idemStore  ports.IdempotencyStore
	logger     *slog.Logger
	metrics    *metrics.Metrics
	cfg        Config
	rng        *rand.Rand

	// actionMu serializes user actions. Subscriptions run inside an action on the
	// same goroutine and only take mu.
	actionMu sync.Mutex
	mu       sync.RWMutex
	view     View
}

// NewService subscribes the service to every workflow event on events.
func NewService(
	events ports.EventBus,
	workflow commands.Workflow,
	repo ports.OrderRepository,
	idem ports.IdempotencyStore,
	logger *slog.Logger,
	metrics *metrics.Metrics,
	cfg Config,
	opts ...Option,
) *Service {
	s := &Service{
		workflow:   workflow,
		getOrder:   queries.NewGetOrderQueryHandler(repo),
		listOrders: queries.NewListOrdersQueryHandler(repo),
		repo:       repo,
		idemStore:  idem,
		logger:     logger,
		metrics:    metrics,
		cfg:        cfg.normalized(),
		rng:        rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		view:       View{Status: waitingStatusMsg},
	}
	for _, opt := range opts {
		opt(s)
	}

	events.Subscribe(domain.EventOrderCreated, s.onOrderCreated)
	events.Subscribe(domain.EventPaymentSuccessful, s.onPaymentSuccessful)
	events.Subscribe(domain.EventInventoryCheckPassed, s.onInventoryCheckPassed)
	events.Subscribe(domain.EventInventoryCheckFailed, s.onInventoryCheckFailed)
	events.Subscribe(domain.EventOrderShipped, s.onOrderShipped)

	return s
}

// View returns a snapshot of the current presentation state.
func (s *Service) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

// CreateOrder starts a new order for customer, or for a randomly picked customer when
// none is given. The new order becomes the current one.
func (s *Service) CreateOrder(ctx context.Context, customer string) (*domain.Order, error) {
	s.actionMu.Lock()
	defer s.actionMu.Unlock()

	customer = strings.TrimSpace(customer)
	if customer == "" {
		customer = fmt.Sprintf("Customer %d", s.rng.IntN(s.cfg.CustomerCount)+1)
	}

	orderID, err := s.nextOrderID(ctx)
	if err != nil {
		return nil, err
	}

	cmd := commands.CreateOrderCommand{OrderID: orderID, Customer: customer}
	if err := s.workflow.CreateOrder(ctx, cmd); err != nil {
		return nil, err
	}

	return s.repo.GetByID(ctx, orderID)
}

// ProcessPayment charges the current order a random amount and checks inventory for
// a random product.
func (s *Service) ProcessPayment(ctx context.Context) (View, error) {
	s.actionMu.Lock()
	defer s.actionMu.Unlock()

	orderID, err := s.requireAction(func(v View) bool { return v.PaymentEnabled })
	if err != nil {
		return View{}, err
	}

	cmd := commands.ProcessPaymentCommand{
		OrderID:   orderID,
		Amount:    s.cfg.MinAmount + s.rng.Int64N(s.cfg.MaxAmount-s.cfg.MinAmount+1),
		ProductID: int64(s.rng.IntN(s.cfg.ProductCount) + 1),
		Quantity:  inventoryQty,
	}
	if err := s.workflow.ProcessPayment(ctx, cmd); err != nil {
		return View{}, err
	}

	return s.View(), nil
}

// ShipOrder ships the current order once inventory has been confirmed.
func (s *Service) ShipOrder(ctx context.Context) (View, error) {
	s.actionMu.Lock()
	defer s.actionMu.Unlock()

	orderID, err := s.requireAction(func(v View) bool { return v.ShipEnabled })
	if err != nil {
		return View{}, err
	}

	if err := s.workflow.ShipOrder(ctx, commands.ShipOrderCommand{OrderID: orderID}); err != nil {
		return View{}, err
	}

	return s.View(), nil
}

// GetOrder retrieves an order by ID.
func (s *Service) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	return s.getOrder.Handle(ctx, queries.GetOrderQuery{OrderID: id})
}

// ListOrders returns a page of orders, newest first.
func (s *Service) ListOrders(ctx context.Context, query queries.ListOrdersQuery) ([]domain.Order, error) {
	return s.listOrders.Handle(ctx, query)
}

// SaveIdempotentResponse writes response details for a key.
func (s *Service) SaveIdempotentResponse(ctx context.Context, key string, response ports.StoredResponse) error {
	return s.idemStore.Save(ctx, key, response)
}

// GetIdempotentResponse retrieves previously stored response data.
func (s *Service) GetIdempotentResponse(ctx context.Context, key string) (*ports.StoredResponse, error) {
	return s.idemStore.Get(ctx, key)
}

func (s *Service) requireAction(enabled func(View) bool) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.view.OrderID == 0 {
		return 0, ErrNoCurrentOrder
	}
	if !enabled(s.view) {
		return 0, ErrActionDisabled
	}
	return s.view.OrderID, nil
}

func (s *Service) nextOrderID(ctx context.Context) (int64, error) {
	for range orderIDAttempts {
		id := minOrderID + s.rng.Int64N(maxOrderID-minOrderID+1)
		_, err := s.repo.GetByID(ctx, id)
		if errors.Is(err, ports.ErrNotFound) {
			return id, nil
		}
		if err != nil {
			return 0, fmt.Errorf("check order id %d: %w", id, err)
		}
	}
	return 0, fmt.Errorf("pick order id: no free id after %d attempts", orderIDAttempts)
}

func (s *Service) onOrderCreated(ctx context.Context, payload eventbus.Payload) error {
	orderID, err := domain.IntFrom(payload, domain.KeyOrderID)
	if err != nil {
		return err
	}
	customer, err := domain.StringFrom(payload, domain.KeyCustomer)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	order := domain.Order{
		ID:        orderID,
		Customer:  customer,
		Status:    domain.StatusCreated,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, order); err != nil {
		return fmt.Errorf("record order %d: %w", orderID, err)
	}

	s.setView(ctx, View{
		Status:         "Order Status: Created for " + customer,
		OrderID:        orderID,
		Customer:       customer,
		PaymentEnabled: true,
	})
	return nil
}

func (s *Service) onPaymentSuccessful(ctx context.Context, payload eventbus.Payload) error {
	orderID, err := domain.IntFrom(payload, domain.KeyOrderID)
	if err != nil {
		return err
	}
	amount, err := domain.IntFrom(payload, domain.KeyAmount)
	if err != nil {
		return err
	}

	if err := s.updateOrder(ctx, orderID, func(o *domain.Order) {
		o.Amount = amount
		o.Status = domain.StatusPaid
	}); err != nil {
		return err
	}

	s.updateView(ctx, orderID, func(v *View) {
		v.Status = fmt.Sprintf("Order Status: Payment Processed for Order %d", orderID)
	})
	return nil
}

func (s *Service) onInventoryCheckPassed(ctx context.Context, payload eventbus.Payload) error {
	return s.onInventoryCheck(ctx, payload, true)
}

func (s *Service) onInventoryCheckFailed(ctx context.Context, payload eventbus.Payload) error {
	return s.onInventoryCheck(ctx, payload, false)
}

func (s *Service) onInventoryCheck(ctx context.Context, payload eventbus.Payload, inStock bool) error {
	orderID, err := domain.IntFrom(payload, domain.KeyOrderID)
	if err != nil {
		return err
	}
	productID, err := domain.IntFrom(payload, domain.KeyProductID)
	if err != nil {
		return err
	}

	s.metrics.RecordInventoryCheck(ctx, inStock)

	status := domain.StatusInventoryFailed
	if inStock {
		status = domain.StatusInventoryConfirmed
	}
	if err := s.updateOrder(ctx, orderID, func(o *domain.Order) {
		o.ProductID = productID
		o.Status = status
	}); err != nil {
		return err
	}

	s.updateView(ctx, orderID, func(v *View) {
		v.ShipEnabled = inStock
		if !inStock {
			v.Status = fmt.Sprintf("Order Status: Inventory check failed for Order %d", orderID)
		}
	})
	return nil
}

func (s *Service) onOrderShipped(ctx context.Context, payload eventbus.Payload) error {
	orderID, err := domain.IntFrom(payload, domain.KeyOrderID)
	if err != nil {
		return err
	}

	if err := s.updateOrder(ctx, orderID, func(o *domain.Order) {
		o.Status = domain.StatusShipped
	}); err != nil {
		return err
	}

	s.updateView(ctx, orderID, func(v *View) {
		v.Status = fmt.Sprintf("Order Status: Shipped Order %d", orderID)
		v.PaymentEnabled = false
		v.ShipEnabled = false
	})
	return nil
}

func (s *Service) updateOrder(ctx context.Context, orderID int64, mutate func(*domain.Order)) error {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("load order %d: %w", orderID, err)
	}
	mutate(order)
	if err := s.repo.Save(ctx, *order); err != nil {
		return fmt.Errorf("save order %d: %w", orderID, err)
	}
	return nil
}

func (s *Service) setView(ctx context.Context, view View) {
	s.mu.Lock()
	s.view = view
	s.mu.Unlock()
	s.logView(ctx, view)
}

// updateView applies mutate only while orderID is the current order, so events for
// other orders still reach the projection but never the view.
func (s *Service) updateView(ctx context.Context, orderID int64, mutate func(*View)) {
	s.mu.Lock()
	if s.view.OrderID != orderID {
		s.mu.Unlock()
		return
	}
	mutate(&s.view)
	view := s.view
	s.mu.Unlock()
	s.logView(ctx, view)
}

func (s *Service) logView(ctx context.Context, view View) {
	s.logger.InfoContext(ctx, view.Status,
		"order_id", view.OrderID,
		"payment_enabled", view.PaymentEnabled,
		"ship_enabled", view.ShipEnabled,
	)
}
