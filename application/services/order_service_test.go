package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"printora-backend/domain/content"
	pkgerrors "printora-backend/pkg/errors"
)

type stubOrderStore struct {
	mu     sync.Mutex
	loads  int
	orders map[string]*content.Order
}

func newStubOrderStore() *stubOrderStore {
	return &stubOrderStore{orders: make(map[string]*content.Order)}
}

func (s *stubOrderStore) SaveOrder(_ context.Context, order *content.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *order
	s.orders[order.ID] = &clone
	return nil
}

func (s *stubOrderStore) GetOrder(_ context.Context, id string) (*content.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	order, ok := s.orders[id]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("order")
	}
	clone := *order
	return &clone, nil
}

func (s *stubOrderStore) GetOrderByNumber(_ context.Context, number string) (*content.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	for _, order := range s.orders {
		if order.Number == number {
			clone := *order
			return &clone, nil
		}
	}
	return nil, pkgerrors.NewNotFoundError("order")
}

func (s *stubOrderStore) loadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loads
}

func orderInput() CreateOrderInput {
	return CreateOrderInput{
		Email:    "anna@example.com",
		Currency: "EUR",
		Locale:   "de",
		Items: []content.OrderItem{
			{TemplateID: "tpl-1", Quantity: 100, UnitPriceCents: 25},
		},
	}
}

func TestOrderService_CreateOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("Should persist and prime the cache", func(t *testing.T) {
		store := newStubOrderStore()
		svc := NewOrderService(store, newServiceRegistry(t), zap.NewNop())

		order, err := svc.CreateOrder(ctx, orderInput())
		require.NoError(t, err)

		got, err := svc.GetOrder(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, order.Number, got.Number)
		assert.Equal(t, 0, store.loadCount())
	})

	t.Run("Should reject an invalid email", func(t *testing.T) {
		svc := NewOrderService(newStubOrderStore(), newServiceRegistry(t), zap.NewNop())

		input := orderInput()
		input.Email = "not-an-email"
		_, err := svc.CreateOrder(ctx, input)

		require.Error(t, err)
		assert.True(t, pkgerrors.IsValidation(err))
	})

	t.Run("Should reject an order without items", func(t *testing.T) {
		svc := NewOrderService(newStubOrderStore(), newServiceRegistry(t), zap.NewNop())

		input := orderInput()
		input.Items = nil
		_, err := svc.CreateOrder(ctx, input)

		require.Error(t, err)
		assert.True(t, pkgerrors.IsValidation(err))
	})
}

func TestOrderService_GetOrderByNumber(t *testing.T) {
	ctx := context.Background()

	t.Run("Should cache status polls by order number", func(t *testing.T) {
		store := newStubOrderStore()
		svc := NewOrderService(store, newServiceRegistry(t), zap.NewNop())
		order, err := svc.CreateOrder(ctx, orderInput())
		require.NoError(t, err)

		for i := 0; i < 5; i++ {
			got, err := svc.GetOrderByNumber(ctx, order.Number)
			require.NoError(t, err)
			assert.Equal(t, content.OrderStatusPending, got.Status)
		}

		assert.Equal(t, 1, store.loadCount())
	})
}

func TestOrderService_UpdateOrderStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("Should drop cached views so polls see the new status", func(t *testing.T) {
		store := newStubOrderStore()
		svc := NewOrderService(store, newServiceRegistry(t), zap.NewNop())
		order, err := svc.CreateOrder(ctx, orderInput())
		require.NoError(t, err)

		_, err = svc.GetOrderByNumber(ctx, order.Number)
		require.NoError(t, err)

		_, err = svc.UpdateOrderStatus(ctx, order.ID, content.OrderStatusPaid)
		require.NoError(t, err)

		got, err := svc.GetOrderByNumber(ctx, order.Number)
		require.NoError(t, err)
		assert.Equal(t, content.OrderStatusPaid, got.Status)
	})

	t.Run("Should reject an invalid transition", func(t *testing.T) {
		store := newStubOrderStore()
		svc := NewOrderService(store, newServiceRegistry(t), zap.NewNop())
		order, err := svc.CreateOrder(ctx, orderInput())
		require.NoError(t, err)

		_, err = svc.UpdateOrderStatus(ctx, order.ID, content.OrderStatusDelivered)

		require.Error(t, err)
		assert.True(t, pkgerrors.IsValidation(err))
	})
}
