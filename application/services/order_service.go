package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"printora-backend/application/ports"
	"printora-backend/domain/content"
	"printora-backend/pkg/cache"
	pkgerrors "printora-backend/pkg/errors"
	"printora-backend/pkg/utils"
)

// CreateOrderInput carries one order submission
type CreateOrderInput struct {
	Email    string
	Currency string
	Locale   string
	Items    []content.OrderItem
}

// OrderService handles order creation and cached order lookups. The status
// lookup path is the one polled by customers, so it is served from a
// short-lived cache; writes always go straight to the store and invalidate.
type OrderService struct {
	store  ports.OrderStore
	caches *cache.Registry
	logger *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(store ports.OrderStore, caches *cache.Registry, logger *zap.Logger) *OrderService {
	return &OrderService{
		store:  store,
		caches: caches,
		logger: logger,
	}
}

// CreateOrder validates and persists a new order
func (s *OrderService) CreateOrder(ctx context.Context, input CreateOrderInput) (*content.Order, error) {
	order, err := content.NewOrder(input.Email, input.Currency, input.Locale, input.Items)
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(order); err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}

	if err := s.store.SaveOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to save order: %w", err)
	}

	// Prime the cache so the confirmation page and first status polls
	// never touch the store. A failed prime only costs a reload.
	key := s.caches.Keys().BuildID(cache.EntityOrder, order.ID)
	if err := s.caches.For(cache.EntityOrder).Set(ctx, key, order, 0); err != nil {
		s.logger.Warn("Failed to prime order cache",
			zap.String("order_id", order.ID),
			zap.Error(err))
	}

	s.logger.Info("Order created",
		zap.String("order_id", order.ID),
		zap.String("order_number", order.Number),
		zap.Int("items", len(order.Items)),
		zap.Int64("total_cents", order.TotalCents))
	return order, nil
}

// GetOrder returns one order by ID
func (s *OrderService) GetOrder(ctx context.Context, id string) (*content.Order, error) {
	if id == "" {
		return nil, pkgerrors.NewValidationError("order id cannot be empty")
	}

	key := s.caches.Keys().BuildID(cache.EntityOrder, id)
	var order content.Order
	err := s.caches.For(cache.EntityOrder).GetOrSet(ctx, key, 0, &order, func(ctx context.Context) (interface{}, error) {
		return s.store.GetOrder(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderByNumber returns one order by its human-facing number. This is the
// endpoint customers poll for status updates.
func (s *OrderService) GetOrderByNumber(ctx context.Context, number string) (*content.Order, error) {
	if number == "" {
		return nil, pkgerrors.NewValidationError("order number cannot be empty")
	}

	key := s.caches.Keys().Build(cache.EntityOrder, map[string]string{"number": number})
	var order content.Order
	err := s.caches.For(cache.EntityOrder).GetOrSet(ctx, key, 0, &order, func(ctx context.Context) (interface{}, error) {
		return s.store.GetOrderByNumber(ctx, number)
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateOrderStatus moves an order to a new status and drops its cached
// views. The order is always read from the store first so the transition
// check never runs against a stale cache entry.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, id string, status content.OrderStatus) (*content.Order, error) {
	order, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := order.TransitionTo(status); err != nil {
		return nil, err
	}
	if err := s.store.SaveOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to save order: %w", err)
	}

	s.invalidateOrder(ctx, order)

	s.logger.Info("Order status updated",
		zap.String("order_id", order.ID),
		zap.String("status", string(order.Status)))
	return order, nil
}

func (s *OrderService) invalidateOrder(ctx context.Context, order *content.Order) {
	instance := s.caches.For(cache.EntityOrder)
	instance.Delete(s.caches.Keys().BuildID(cache.EntityOrder, order.ID))
	instance.Delete(s.caches.Keys().Build(cache.EntityOrder, map[string]string{"number": order.Number}))
}
