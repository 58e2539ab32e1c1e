package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"storefront/internal/middleware"
	"storefront/internal/service"
)

// CreateOrderRequest represents the order creation payload. The buyer is
// resolved from the caller identity, never from the body.
type CreateOrderRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
}

// OrderHandler handles HTTP requests for order operations
type OrderHandler struct {
	orderService service.OrderService
	logger       *zap.Logger
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		logger:       logger,
	}
}

// RegisterRoutes registers all order routes
func (h *OrderHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/orders", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/", h.Create)
		r.Get("/", h.ListOwn)
	})
}

// Create places an order for a product
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest

	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Order creation validation failed", zap.Error(err))
		respondDecodeError(w, err)
		return
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	order, err := h.orderService.Create(r.Context(), middleware.GetCaller(r.Context()), productID)
	if err != nil {
		h.logger.Debug("Order creation failed", zap.Error(err))
		respondServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("Order created successfully", zap.String("order_id", order.ID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, order)
}

// ListOwn returns the authenticated caller's orders
func (h *OrderHandler) ListOwn(w http.ResponseWriter, r *http.Request) {
	caller := middleware.GetCaller(r.Context())
	if caller == nil {
		middleware.RespondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	orders, err := h.orderService.ListByUser(r.Context(), caller, caller.ID)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, orders)
}
