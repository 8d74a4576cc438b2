package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lorahalle/storefront/storefront-backend/internal/domain"
	"github.com/lorahalle/storefront/storefront-backend/internal/metrics"
	"github.com/lorahalle/storefront/storefront-backend/internal/store"
	"github.com/rs/zerolog/log"
)

const (
	DefaultOrderPageSize = 50
	MaxOrderPageSize     = 200
)

// OrderEventPublisher announces placed orders to downstream systems
type OrderEventPublisher interface {
	PublishOrderPlaced(ctx context.Context, order *domain.Order) error
}

// OrderObserver is told about orders placed by a session
type OrderObserver interface {
	OrderPlaced(sessionID string, order *domain.Order)
}

// CheckoutService turns session carts into orders
type CheckoutService struct {
	orderRepo domain.OrderRepository
	publisher OrderEventPublisher
	observer  OrderObserver
}

// NewCheckoutService creates a new CheckoutService. publisher and observer may be nil.
func NewCheckoutService(orderRepo domain.OrderRepository, publisher OrderEventPublisher, observer OrderObserver) *CheckoutService {
	return &CheckoutService{orderRepo: orderRepo, publisher: publisher, observer: observer}
}

// PlaceOrder takes the session cart and stores it as a pending order. The
// cart is emptied in the same step it is read, so concurrent checkouts of one
// session never order the same lines twice; lines added while the order is
// being stored stay in the cart. The taken lines are put back when the order
// cannot be stored.
func (s *CheckoutService) PlaceOrder(ctx context.Context, c *store.Container) (*domain.Order, error) {
	lines := c.TakeCart(ctx)
	if len(lines) == 0 {
		return nil, domain.ErrEmptyCart
	}

	total, err := domain.SumCart(lines)
	if err != nil {
		c.RestoreCart(ctx, lines)
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}

	customerID := domain.GuestCustomerID
	if user := c.User(); user != nil {
		customerID = user.ID
	}

	order, err := s.orderRepo.Create(ctx, &domain.Order{
		ID:          uuid.New(),
		CustomerID:  customerID,
		Items:       lines,
		TotalAmount: total,
		Status:      domain.OrderStatusPending,
	})
	if err != nil {
		c.RestoreCart(ctx, lines)
		log.Error().Err(err).Str("session_id", c.SessionID()).Msg("Failed to store order")
		return nil, err
	}
	metrics.OrdersPlaced.Inc()

	if s.publisher != nil {
		if err := s.publisher.PublishOrderPlaced(ctx, order); err != nil {
			log.Error().Err(err).Str("order_id", order.ID.String()).Msg("Failed to publish order event")
		}
	}

	if s.observer != nil {
		s.observer.OrderPlaced(c.SessionID(), order)
	}

	log.Info().
		Str("order_id", order.ID.String()).
		Str("customer_id", customerID).
		Int64("total", order.TotalAmount).
		Msg("Order placed")
	return order, nil
}

// CustomerOrders lists a customer's orders newest first
func (s *CheckoutService) CustomerOrders(ctx context.Context, customerID string) ([]*domain.Order, error) {
	if customerID == "" || customerID == domain.GuestCustomerID {
		return nil, domain.ErrUnauthorized
	}
	return s.orderRepo.ListByCustomer(ctx, customerID)
}

// ListOrders lists all orders newest first
func (s *CheckoutService) ListOrders(ctx context.Context, limit, offset int) ([]*domain.Order, error) {
	if limit <= 0 {
		limit = DefaultOrderPageSize
	}
	if limit > MaxOrderPageSize {
		limit = MaxOrderPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return s.orderRepo.List(ctx, limit, offset)
}

// UpdateStatus moves an order along its fulfilment flow
func (s *CheckoutService) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) (*domain.Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, status)
	}
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanTransitionTo(status) {
		return nil, fmt.Errorf("%w: %s to %s", domain.ErrInvalidOrderFlow, order.Status, status)
	}
	return s.orderRepo.UpdateStatus(ctx, id, status)
}
