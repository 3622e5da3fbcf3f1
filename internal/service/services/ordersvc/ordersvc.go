package ordersvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/kikorobot/storefront/internal/dal/interfaces/iorderrepo"
	"github.com/kikorobot/storefront/internal/dal/interfaces/ioutboxrepo"
	"github.com/kikorobot/storefront/internal/gateway/razorpay"
	"github.com/kikorobot/storefront/internal/service/models/currency"
	"github.com/kikorobot/storefront/internal/service/models/order"
	"github.com/kikorobot/storefront/internal/service/models/outbox"
	"github.com/kikorobot/storefront/internal/service/models/status"
)

var (
	// ErrValidation signals missing or malformed required input.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound signals that no order matches the requested id.
	ErrNotFound = errors.New("order not found")
)

// gateway is the payment provider contract the service depends on.
type gateway interface {
	CreateOrder(ctx context.Context, amount float64, cur currency.Currency, receipt string, notes map[string]interface{}) (*razorpay.Order, error)
	VerifySignature(gatewayOrderID, paymentID, signature string) error
}

// OrderService drives the order lifecycle: checkout initiation, payment
// completion, listing and administrative status changes.
type OrderService struct {
	orderRepo  iorderrepo.IOrderRepository
	outboxRepo ioutboxrepo.IOutboxRepository
	gateway    gateway

	now   func() time.Time
	newID func() string

	eventsExchange string
	eventsQueue    string
	maxRetries     int
}

// Option is a function that configures the OrderService.
type Option func(*OrderService)

// MustNewOrderService creates a new OrderService. Panics when the order
// repository or gateway is missing.
func MustNewOrderService(opts ...Option) *OrderService {
	s := &OrderService{
		now:        time.Now,
		newID:      uuid.NewString,
		maxRetries: 5,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.orderRepo == nil {
		panic("ordersvc: order repository is required")
	}
	if s.gateway == nil {
		panic("ordersvc: payment gateway is required")
	}

	return s
}

// WithOrderRepository sets the order repository.
func WithOrderRepository(repo iorderrepo.IOrderRepository) Option {
	return func(s *OrderService) {
		s.orderRepo = repo
	}
}

// WithGateway sets the payment gateway adapter.
func WithGateway(g gateway) Option {
	return func(s *OrderService) {
		s.gateway = g
	}
}

// WithOutbox enables order event publishing through the given outbox.
func WithOutbox(repo ioutboxrepo.IOutboxRepository, exchange, queue string) Option {
	return func(s *OrderService) {
		s.outboxRepo = repo
		s.eventsExchange = exchange
		s.eventsQueue = queue
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *OrderService) {
		s.now = now
	}
}

// WithIDGenerator overrides the internal order id generator.
func WithIDGenerator(newID func() string) Option {
	return func(s *OrderService) {
		s.newID = newID
	}
}

// InitiateCheckout mints a provider-side order for the given amount and
// returns the handle the browser needs to open the payment widget.
func (s *OrderService) InitiateCheckout(
	ctx context.Context,
	amount float64,
	currencyCode string,
	receipt string,
	notes map[string]interface{},
) (*razorpay.Order, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount is required", ErrValidation)
	}

	cur, err := currency.ParseCurrency(currencyCode)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	return s.gateway.CreateOrder(ctx, amount, cur, receipt, notes)
}

// CompletePaymentRequest carries the payment widget callback together with
// the order contents collected at checkout.
type CompletePaymentRequest struct {
	GatewayOrderID  string
	PaymentID       string
	Signature       string
	UserID          string
	UserEmail       string
	UserName        string
	Items           []order.Item
	ShippingAddress order.ShippingAddress
	TotalAmount     float64
	Currency        string
}

// CompletePayment verifies the callback signature and persists the order.
// Creation is idempotent on the payment id: a second callback for the same
// payment returns the previously stored order unchanged.
func (s *OrderService) CompletePayment(ctx context.Context, req CompletePaymentRequest) (*order.Order, error) {
	if req.GatewayOrderID == "" || req.PaymentID == "" || req.Signature == "" {
		return nil, fmt.Errorf("%w: order id, payment id and signature are required", ErrValidation)
	}

	if err := s.gateway.VerifySignature(req.GatewayOrderID, req.PaymentID, req.Signature); err != nil {
		return nil, err
	}

	existing, err := s.orderRepo.GetByPaymentID(ctx, req.PaymentID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	cur, err := currency.ParseCurrency(req.Currency)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	now := s.now()
	o := order.Order{
		ID:              s.newID(),
		GatewayOrderID:  req.GatewayOrderID,
		PaymentID:       req.PaymentID,
		UserID:          req.UserID,
		UserEmail:       req.UserEmail,
		UserName:        req.UserName,
		Items:           req.Items,
		ShippingAddress: req.ShippingAddress,
		TotalAmount:     req.TotalAmount,
		Currency:        cur,
		Status:          status.StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	stored, err := s.orderRepo.Insert(ctx, o)
	if err != nil {
		return nil, err
	}

	s.emitEvent(ctx, outbox.RoutingKeyOrderCreated, &stored)

	return &stored, nil
}

// UserOrder is an order decorated with the customer-facing status label.
type UserOrder struct {
	order.Order
	StatusText string `json:"statusText"`
}

// UserOrders returns the given user's orders, newest first.
func (s *OrderService) UserOrders(ctx context.Context, userID string) ([]UserOrder, error) {
	orders, err := s.orderRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	sortNewestFirst(orders)

	result := make([]UserOrder, 0, len(orders))
	for _, o := range orders {
		result = append(result, UserOrder{
			Order:      o,
			StatusText: o.Status.Label(),
		})
	}

	return result, nil
}

// AllOrders returns every order, newest first.
func (s *OrderService) AllOrders(ctx context.Context) ([]order.Order, error) {
	orders, err := s.orderRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	sortNewestFirst(orders)

	return orders, nil
}

// OrderByID looks an order up by its internal id, falling back to the
// gateway order id. Returns ErrNotFound when neither matches.
func (s *OrderService) OrderByID(ctx context.Context, id string) (*order.Order, error) {
	o, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		o, err = s.orderRepo.GetByGatewayOrderID(ctx, id)
		if err != nil {
			return nil, err
		}
	}
	if o == nil {
		return nil, ErrNotFound
	}

	return o, nil
}

// SetStatus replaces the status of the order minted under the given gateway
// order id. Transitions are unconstrained. Updating a missing order succeeds
// quietly, matching the store contract.
func (s *OrderService) SetStatus(ctx context.Context, gatewayOrderID, statusValue string) error {
	st, err := status.ParseStatus(statusValue)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	existing, err := s.orderRepo.GetByGatewayOrderID(ctx, gatewayOrderID)
	if err != nil {
		return err
	}

	if err := s.orderRepo.UpdateStatus(ctx, gatewayOrderID, st); err != nil {
		return err
	}

	if existing != nil {
		existing.Status = st
		s.emitEvent(ctx, outbox.RoutingKeyOrderStatusChanged, existing)
	}

	return nil
}

// RemoveOrder permanently deletes the order minted under the given gateway
// order id. Deleting a missing order succeeds quietly.
func (s *OrderService) RemoveOrder(ctx context.Context, gatewayOrderID string) error {
	return s.orderRepo.Delete(ctx, gatewayOrderID)
}

// orderEvent is the payload published for order lifecycle changes.
type orderEvent struct {
	OrderID        string  `json:"orderId"`
	GatewayOrderID string  `json:"gatewayOrderId"`
	PaymentID      string  `json:"paymentId"`
	UserID         string  `json:"userId"`
	Status         string  `json:"status"`
	TotalAmount    float64 `json:"totalAmount"`
	Currency       string  `json:"currency"`
	OccurredAt     string  `json:"occurredAt"`
}

// emitEvent writes an order event to the outbox. Event publishing is
// best-effort: a failed outbox write is logged, not surfaced to the caller.
func (s *OrderService) emitEvent(ctx context.Context, routingKey string, o *order.Order) {
	if s.outboxRepo == nil {
		return
	}

	now := s.now()
	payload, err := json.Marshal(orderEvent{
		OrderID:        o.ID,
		GatewayOrderID: o.GatewayOrderID,
		PaymentID:      o.PaymentID,
		UserID:         o.UserID,
		Status:         o.Status.String(),
		TotalAmount:    o.TotalAmount,
		Currency:       o.Currency.String(),
		OccurredAt:     now.UTC().Format(time.RFC3339),
	})
	if err != nil {
		slog.Error("Failed to encode order event", "routing_key", routingKey, "error", err)

		return
	}

	msg := outbox.Message{
		QueueName:    s.eventsQueue,
		ExchangeName: s.eventsExchange,
		RoutingKey:   routingKey,
		Payload:      payload,
		ContentType:  "application/json",
		MaxRetries:   s.maxRetries,
		CreatedAt:    now,
		UpdatedAt:    now,
		NextRetryAt:  now,
	}

	if err := s.outboxRepo.Insert(ctx, msg); err != nil {
		slog.Error("Failed to enqueue order event", "routing_key", routingKey, "error", err)
	}
}

func sortNewestFirst(orders []order.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}
