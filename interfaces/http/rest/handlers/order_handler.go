package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"printora-backend/application/services"
	"printora-backend/domain/content"
	"printora-backend/pkg/common"
	"printora-backend/pkg/utils"
)

// OrderHandler serves order creation and status lookups
type OrderHandler struct {
	orders  *services.OrderService
	maxBody int64
	logger  *zap.Logger
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orders *services.OrderService, maxBody int64, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		orders:  orders,
		maxBody: maxBody,
		logger:  logger,
	}
}

// CreateOrderRequest is the body for creating an order
type CreateOrderRequest struct {
	Email    string             `json:"email" validate:"required,email"`
	Currency string             `json:"currency" validate:"required,len=3"`
	Locale   string             `json:"locale,omitempty"`
	Items    []OrderItemRequest `json:"items" validate:"required,min=1,max=50,dive"`
}

// OrderItemRequest is one order line in the request body
type OrderItemRequest struct {
	TemplateID     string            `json:"templateId" validate:"required"`
	Quantity       int               `json:"quantity" validate:"required,gt=0,lte=10000"`
	UnitPriceCents int64             `json:"unitPriceCents" validate:"gte=0"`
	Options        map[string]string `json:"options,omitempty"`
}

// OrderStatusResponse is the compact view served to status polling. It
// deliberately omits email and line items; the order number is shared on
// packing slips and must not leak the rest of the order.
type OrderStatusResponse struct {
	Number     string    `json:"number"`
	Status     string    `json:"status"`
	TotalCents int64     `json:"totalCents"`
	Currency   string    `json:"currency"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// UpdateOrderStatusRequest is the body for an operator status change
type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending paid in_production shipped delivered cancelled"`
}

// CreateOrder handles POST /orders
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := common.ParseJSONBody(r, &req, h.maxBody); err != nil {
		common.RespondError(w, http.StatusBadRequest,
			common.StandardErrorCodes.BadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest,
			common.StandardErrorCodes.ValidationError, err.Error())
		return
	}

	locale := req.Locale
	if locale == "" {
		locale, _ = common.GetLocale(r.Context())
	}

	items := make([]content.OrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, content.OrderItem{
			TemplateID:     item.TemplateID,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			Options:        item.Options,
		})
	}

	order, err := h.orders.CreateOrder(r.Context(), services.CreateOrderInput{
		Email:    req.Email,
		Currency: req.Currency,
		Locale:   locale,
		Items:    items,
	})
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, order)
}

// GetOrder handles GET /orders/{orderID}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["orderID"]

	order, err := h.orders.GetOrder(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, order)
}

// GetOrderStatus handles GET /orders/number/{number}
func (h *OrderHandler) GetOrderStatus(w http.ResponseWriter, r *http.Request) {
	number := mux.Vars(r)["number"]

	order, err := h.orders.GetOrderByNumber(r.Context(), number)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, OrderStatusResponse{
		Number:     order.Number,
		Status:     string(order.Status),
		TotalCents: order.TotalCents,
		Currency:   order.Currency,
		UpdatedAt:  order.UpdatedAt,
	})
}

// UpdateOrderStatus handles POST /admin/orders/{orderID}/status. Admin
// routes are matched by chi, so the path variable comes from chi's context.
func (h *OrderHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "orderID")

	var req UpdateOrderStatusRequest
	if err := common.ParseJSONBody(r, &req, h.maxBody); err != nil {
		common.RespondError(w, http.StatusBadRequest,
			common.StandardErrorCodes.BadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest,
			common.StandardErrorCodes.ValidationError, err.Error())
		return
	}

	order, err := h.orders.UpdateOrderStatus(r.Context(), id, content.OrderStatus(req.Status))
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, order)
}
