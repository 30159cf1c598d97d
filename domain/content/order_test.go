package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "printora-backend/pkg/errors"
)

func TestNewOrder(t *testing.T) {
	t.Run("Should create a pending order with a computed total", func(t *testing.T) {
		order, err := NewOrder("Anna@Example.com", "EUR", "de", []OrderItem{
			{TemplateID: "tpl-1", Quantity: 100, UnitPriceCents: 25},
			{TemplateID: "tpl-2", Quantity: 2, UnitPriceCents: 1500},
		})

		require.NoError(t, err)
		assert.Equal(t, OrderStatusPending, order.Status)
		assert.Equal(t, "anna@example.com", order.Email)
		assert.Equal(t, int64(100*25+2*1500), order.TotalCents)
		assert.NotEmpty(t, order.ID)
		assert.Contains(t, order.Number, "PO-")
		assert.Equal(t, 1, order.Version)
	})

	t.Run("Should reject an order without items", func(t *testing.T) {
		_, err := NewOrder("anna@example.com", "EUR", "de", nil)

		require.Error(t, err)
		assert.True(t, pkgerrors.IsValidation(err))
	})

	t.Run("Should reject an order without an email", func(t *testing.T) {
		_, err := NewOrder("  ", "EUR", "de", []OrderItem{{TemplateID: "tpl-1", Quantity: 1}})

		require.Error(t, err)
		assert.True(t, pkgerrors.IsValidation(err))
	})
}

func TestOrder_TransitionTo(t *testing.T) {
	newOrder := func(t *testing.T) *Order {
		t.Helper()
		order, err := NewOrder("anna@example.com", "EUR", "de", []OrderItem{
			{TemplateID: "tpl-1", Quantity: 1, UnitPriceCents: 500},
		})
		require.NoError(t, err)
		return order
	}

	t.Run("Should walk the order through its lifecycle", func(t *testing.T) {
		order := newOrder(t)

		require.NoError(t, order.TransitionTo(OrderStatusPaid))
		require.NoError(t, order.TransitionTo(OrderStatusInProduction))
		require.NoError(t, order.TransitionTo(OrderStatusShipped))
		require.NoError(t, order.TransitionTo(OrderStatusDelivered))

		assert.Equal(t, OrderStatusDelivered, order.Status)
		assert.Equal(t, 5, order.Version)
	})

	t.Run("Should reject skipping states", func(t *testing.T) {
		order := newOrder(t)

		err := order.TransitionTo(OrderStatusShipped)

		require.Error(t, err)
		assert.True(t, pkgerrors.IsValidation(err))
		assert.Equal(t, OrderStatusPending, order.Status)
	})

	t.Run("Should treat a repeated status as a no-op", func(t *testing.T) {
		order := newOrder(t)

		require.NoError(t, order.TransitionTo(OrderStatusPending))
		assert.Equal(t, 1, order.Version)
	})

	t.Run("Should not leave a terminal status", func(t *testing.T) {
		order := newOrder(t)
		require.NoError(t, order.TransitionTo(OrderStatusCancelled))

		err := order.TransitionTo(OrderStatusPaid)

		require.Error(t, err)
	})
}
