package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/eventmart/commerce-backend/internal/middleware"
	"github.com/eventmart/commerce-backend/internal/models"
	"github.com/eventmart/commerce-backend/internal/services"
)

// CartHandler exposes the shopping cart endpoints
type CartHandler struct {
	carts  *services.CartService
	logger *logrus.Logger
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(carts *services.CartService, logger *logrus.Logger) *CartHandler {
	return &CartHandler{carts: carts, logger: logger}
}

// cartItemRequest is the add/update payload
type cartItemRequest struct {
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity"`
}

// AddItem handles POST /api/v1/cart
func (h *CartHandler) AddItem(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		respondError(c, models.NewActionNotAllowedError("authentication required"))
		return
	}

	var req cartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, models.NewValidationError("invalid request body"))
		return
	}
	variantID, err := uuid.Parse(req.VariantID)
	if err != nil {
		respondError(c, models.NewValidationError("invalid variant id"))
		return
	}

	if err := h.carts.AddItem(user.UserID, variantID, req.Quantity); err != nil {
		h.logError(c, err)
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, "item added to cart", nil)
}

// GetCart handles GET /api/v1/cart
func (h *CartHandler) GetCart(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		respondError(c, models.NewActionNotAllowedError("authentication required"))
		return
	}

	lines, err := h.carts.GetCart(user.UserID)
	if err != nil {
		h.logError(c, err)
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "cart fetched", lines)
}

// UpdateItem handles PATCH /api/v1/cart/:itemId
func (h *CartHandler) UpdateItem(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		respondError(c, models.NewActionNotAllowedError("authentication required"))
		return
	}
	itemID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		respondError(c, models.NewValidationError("invalid cart item id"))
		return
	}

	var req cartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, models.NewValidationError("invalid request body"))
		return
	}

	if err := h.carts.UpdateQuantity(user.UserID, itemID, req.Quantity); err != nil {
		h.logError(c, err)
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "cart updated", nil)
}

// RemoveItem handles DELETE /api/v1/cart/:itemId
func (h *CartHandler) RemoveItem(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		respondError(c, models.NewActionNotAllowedError("authentication required"))
		return
	}
	itemID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		respondError(c, models.NewValidationError("invalid cart item id"))
		return
	}

	if err := h.carts.RemoveItem(user.UserID, itemID); err != nil {
		h.logError(c, err)
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "item removed", nil)
}

// ClearCart handles DELETE /api/v1/cart
func (h *CartHandler) ClearCart(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		respondError(c, models.NewActionNotAllowedError("authentication required"))
		return
	}

	if err := h.carts.ClearCart(user.UserID); err != nil {
		h.logError(c, err)
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "cart cleared", nil)
}

func (h *CartHandler) logError(c *gin.Context, err error) {
	if models.KindOf(err) == models.KindInternal {
		h.logger.WithError(err).WithField("path", c.Request.URL.Path).Error("Cart handler failure")
	}
}
