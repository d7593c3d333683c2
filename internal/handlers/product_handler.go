package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/eventmart/commerce-backend/internal/middleware"
	"github.com/eventmart/commerce-backend/internal/models"
	"github.com/eventmart/commerce-backend/internal/services"
)

// ProductHandler exposes the product catalog endpoints
type ProductHandler struct {
	products *services.ProductService
	logger   *logrus.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(products *services.ProductService, logger *logrus.Logger) *ProductHandler {
	return &ProductHandler{products: products, logger: logger}
}

// productDetail is the product page payload
type productDetail struct {
	Product  *models.Product  `json:"product"`
	Variants []models.Variant `json:"variants"`
}

// CreateProduct handles POST /api/v1/product
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		respondError(c, models.NewActionNotAllowedError("authentication required"))
		return
	}

	var req services.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, models.NewValidationError("invalid request body"))
		return
	}

	product, variants, err := h.products.CreateProduct(user.UserID, &req)
	if err != nil {
		h.logError(c, err)
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, "product created", productDetail{Product: product, Variants: variants})
}

// GetProduct handles GET /api/v1/product/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, models.NewValidationError("invalid product id"))
		return
	}

	product, variants, err := h.products.GetProduct(c.Request.Context(), id)
	if err != nil {
		h.logError(c, err)
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "product fetched", productDetail{Product: product, Variants: variants})
}

// ListProducts handles GET /api/v1/product
func (h *ProductHandler) ListProducts(c *gin.Context) {
	filters := models.ProductFilters{
		Category: c.Query("category"),
		Search:   c.Query("search"),
	}
	if raw := c.Query("price_min"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			filters.PriceMin = &v
		}
	}
	if raw := c.Query("price_max"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			filters.PriceMax = &v
		}
	}
	sort := models.ProductSortOrder(c.DefaultQuery("sort", string(models.SortNewest)))
	pagination := parsePagination(c)

	products, meta, err := h.products.ListProducts(filters, sort, pagination)
	if err != nil {
		h.logError(c, err)
		respondError(c, err)
		return
	}
	respondPage(c, "products fetched", products, meta)
}

// ListMyProducts handles GET /api/v1/product/mine
func (h *ProductHandler) ListMyProducts(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		respondError(c, models.NewActionNotAllowedError("authentication required"))
		return
	}

	products, err := h.products.ListMyProducts(user.UserID)
	if err != nil {
		h.logError(c, err)
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "products fetched", products)
}

// UpdateProduct handles PUT /api/v1/product/:id
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		respondError(c, models.NewActionNotAllowedError("authentication required"))
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, models.NewValidationError("invalid product id"))
		return
	}

	var req services.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, models.NewValidationError("invalid request body"))
		return
	}

	product, err := h.products.UpdateProduct(c.Request.Context(), user.UserID, id, &req)
	if err != nil {
		h.logError(c, err)
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "product updated", product)
}

// DeleteProduct handles DELETE /api/v1/product/:id
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		respondError(c, models.NewActionNotAllowedError("authentication required"))
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, models.NewValidationError("invalid product id"))
		return
	}

	if err := h.products.DeleteProduct(c.Request.Context(), user.UserID, id); err != nil {
		h.logError(c, err)
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "product deleted", nil)
}

// AddVariant handles POST /api/v1/product/:id/variants
func (h *ProductHandler) AddVariant(c *gin.Context) {
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

	var req services.VariantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, models.NewValidationError("invalid request body"))
		return
	}

	variant, err := h.products.AddVariant(c.Request.Context(), user.UserID, productID, &req)
	if err != nil {
		h.logError(c, err)
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, "variant created", variant)
}

// UpdateVariant handles PUT /api/v1/product/:id/variants/:variantId
func (h *ProductHandler) UpdateVariant(c *gin.Context) {
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
	variantID, err := uuid.Parse(c.Param("variantId"))
	if err != nil {
		respondError(c, models.NewValidationError("invalid variant id"))
		return
	}

	var req services.VariantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, models.NewValidationError("invalid request body"))
		return
	}

	variant, err := h.products.UpdateVariant(c.Request.Context(), user.UserID, productID, variantID, &req)
	if err != nil {
		h.logError(c, err)
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "variant updated", variant)
}

// promoterRequest is the add-promoter payload
type promoterRequest struct {
	Name              string  `json:"name"`
	Email             string  `json:"email"`
	CommissionPercent float64 `json:"commission_percent"`
}

// AddPromoter handles POST /api/v1/product/:id/promoters
func (h *ProductHandler) AddPromoter(c *gin.Context) {
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

	var req promoterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, models.NewValidationError("invalid request body"))
		return
	}

	promoter, err := h.products.AddPromoter(user.UserID, productID, req.Name, req.Email, req.CommissionPercent)
	if err != nil {
		h.logError(c, err)
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, "promoter added", promoter)
}

// ListPromoters handles GET /api/v1/product/:id/promoters
func (h *ProductHandler) ListPromoters(c *gin.Context) {
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

	promoters, err := h.products.ListPromoters(user.UserID, productID)
	if err != nil {
		h.logError(c, err)
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "promoters fetched", promoters)
}

// RemovePromoter handles DELETE /api/v1/product/:id/promoters/:promoterId
func (h *ProductHandler) RemovePromoter(c *gin.Context) {
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
	promoterID, err := uuid.Parse(c.Param("promoterId"))
	if err != nil {
		respondError(c, models.NewValidationError("invalid promoter id"))
		return
	}

	if err := h.products.RemovePromoter(user.UserID, productID, promoterID); err != nil {
		h.logError(c, err)
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "promoter removed", nil)
}

func (h *ProductHandler) logError(c *gin.Context, err error) {
	if models.KindOf(err) == models.KindInternal {
		h.logger.WithError(err).WithField("path", c.Request.URL.Path).Error("Product handler failure")
	}
}
