package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/eventmart/commerce-backend/internal/middleware"
	"github.com/eventmart/commerce-backend/internal/models"
	"github.com/eventmart/commerce-backend/internal/services"
	"github.com/eventmart/commerce-backend/internal/utils"
)

// OrderHandler exposes the product order and payment endpoints
type OrderHandler struct {
	orders *services.OrderService
	logger *logrus.Logger
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orders *services.OrderService, logger *logrus.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, logger: logger}
}

// PlaceOrder handles POST /api/v1/product/order
func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		respondError(c, models.NewActionNotAllowedError("authentication required"))
		return
	}

	var req models.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, models.NewValidationError("invalid request body"))
		return
	}

	confirmation, err := h.orders.PlaceOrder(c.Request.Context(), user.UserID, &req, utils.GetClientInfo(c))
	if err != nil {
		h.logError(c, err)
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, "order created", confirmation)
}

// VerifyPayment handles POST /api/v1/product/verify
func (h *OrderHandler) VerifyPayment(c *gin.Context) {
	if _, ok := middleware.GetUser(c); !ok {
		respondError(c, models.NewActionNotAllowedError("authentication required"))
		return
	}

	var req models.VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, models.NewValidationError("invalid request body"))
		return
	}

	order, err := h.orders.VerifyPayment(c.Request.Context(), &req, utils.GetClientInfo(c))
	if err != nil {
		h.logError(c, err)
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "payment verified", order)
}

// GetOrder handles GET /api/v1/product/orders/:orderId
func (h *OrderHandler) GetOrder(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		respondError(c, models.NewActionNotAllowedError("authentication required"))
		return
	}

	order, err := h.orders.GetOrder(user.UserID, c.Param("orderId"))
	if err != nil {
		h.logError(c, err)
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "order fetched", order)
}

// ListMyOrders handles GET /api/v1/product/orders
func (h *OrderHandler) ListMyOrders(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		respondError(c, models.NewActionNotAllowedError("authentication required"))
		return
	}

	orders, err := h.orders.ListMyOrders(user.UserID)
	if err != nil {
		h.logError(c, err)
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "orders fetched", orders)
}

// ListProductOrders handles GET /api/v1/product/:id/orders
func (h *OrderHandler) ListProductOrders(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		respondError(c, models.NewActionNotAllowedError("authentication required"))
		return
	}
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, models.NewValidationError("invalid product id"))
		return
	}

	orders, err := h.orders.ListProductOrders(user.UserID, productID)
	if err != nil {
		h.logError(c, err)
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "orders fetched", orders)
}

func (h *OrderHandler) logError(c *gin.Context, err error) {
	if models.KindOf(err) == models.KindInternal {
		h.logger.WithError(err).WithField("path", c.Request.URL.Path).Error("Order handler failure")
	}
}
