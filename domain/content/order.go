package content

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	pkgerrors "printora-backend/pkg/errors"
)

// OrderStatus represents the state of an order
type OrderStatus string

const (
	OrderStatusPending      OrderStatus = "pending"
	OrderStatusPaid         OrderStatus = "paid"
	OrderStatusInProduction OrderStatus = "in_production"
	OrderStatusShipped      OrderStatus = "shipped"
	OrderStatusDelivered    OrderStatus = "delivered"
	OrderStatusCancelled    OrderStatus = "cancelled"
)

// orderTransitions lists the allowed next states per status
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:      {OrderStatusPaid, OrderStatusCancelled},
	OrderStatusPaid:         {OrderStatusInProduction, OrderStatusCancelled},
	OrderStatusInProduction: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:      {OrderStatusDelivered},
	OrderStatusDelivered:    {},
	OrderStatusCancelled:    {},
}

// CanTransitionTo reports whether the status may change to next
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// OrderItem is one line of an order
type OrderItem struct {
	TemplateID     string            `json:"templateId" validate:"required"`
	Quantity       int               `json:"quantity" validate:"required,gt=0,lte=10000"`
	UnitPriceCents int64             `json:"unitPriceCents" validate:"gte=0"`
	Options        map[string]string `json:"options,omitempty"`
}

// Order is a customer print order
type Order struct {
	ID         string      `json:"id" validate:"required"`
	Number     string      `json:"number" validate:"required"`
	Email      string      `json:"email" validate:"required,email"`
	Items      []OrderItem `json:"items" validate:"required,min=1,max=50,dive"`
	Status     OrderStatus `json:"status"`
	TotalCents int64       `json:"totalCents"`
	Currency   string      `json:"currency" validate:"required,len=3"`
	Locale     string      `json:"locale,omitempty"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
	Version    int         `json:"version"`
}

// NewOrder creates a pending order with a fresh ID and order number
func NewOrder(email, currency, locale string, items []OrderItem) (*Order, error) {
	if strings.TrimSpace(email) == "" {
		return nil, pkgerrors.NewValidationError("email cannot be empty")
	}
	if len(items) == 0 {
		return nil, pkgerrors.NewValidationError("order needs at least one item")
	}
	if currency == "" {
		currency = "EUR"
	}

	now := time.Now()
	order := &Order{
		ID:        uuid.New().String(),
		Number:    generateOrderNumber(now),
		Email:     strings.ToLower(strings.TrimSpace(email)),
		Items:     items,
		Status:    OrderStatusPending,
		Currency:  currency,
		Locale:    locale,
		CreatedAt: now,
		UpdatedAt: now,
		Version:   1,
	}
	order.TotalCents = order.Total()

	return order, nil
}

// Total computes the order total from its items
func (o *Order) Total() int64 {
	var total int64
	for _, item := range o.Items {
		total += item.UnitPriceCents * int64(item.Quantity)
	}
	return total
}

// TransitionTo moves the order to a new status following the allowed
// transitions
func (o *Order) TransitionTo(next OrderStatus) error {
	if o.Status == next {
		return nil
	}
	if !o.Status.CanTransitionTo(next) {
		return pkgerrors.NewValidationError(
			fmt.Sprintf("order cannot move from %s to %s", o.Status, next))
	}

	o.Status = next
	o.UpdatedAt = time.Now()
	o.Version++
	return nil
}

// generateOrderNumber builds the human-facing order number
func generateOrderNumber(now time.Time) string {
	return fmt.Sprintf("PO-%s-%s", now.Format("20060102"), strings.ToUpper(uuid.New().String()[:8]))
}
