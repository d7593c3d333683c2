package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/eventmart/commerce-backend/internal/models"
	"github.com/eventmart/commerce-backend/internal/services"
)

// CategoryHandler exposes the taxonomy endpoints
type CategoryHandler struct {
	categories *services.CategoryService
	logger     *logrus.Logger
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(categories *services.CategoryService, logger *logrus.Logger) *CategoryHandler {
	return &CategoryHandler{categories: categories, logger: logger}
}

// CreateCategory handles POST /api/v1/categories
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	var req models.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, models.NewValidationError("invalid request body"))
		return
	}

	category, err := h.categories.CreateCategory(&req)
	if err != nil {
		h.logError(c, err)
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, "category created", category)
}

// ListCategories handles GET /api/v1/categories
func (h *CategoryHandler) ListCategories(c *gin.Context) {
	categories, err := h.categories.ListCategories(models.CategoryType(c.Query("type")))
	if err != nil {
		h.logError(c, err)
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "categories fetched", categories)
}

// renameCategoryRequest is the rename payload
type renameCategoryRequest struct {
	Name string `json:"name"`
}

// UpdateCategory handles PUT /api/v1/categories/:id
func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, models.NewValidationError("invalid category id"))
		return
	}

	var req renameCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, models.NewValidationError("invalid request body"))
		return
	}

	category, err := h.categories.RenameCategory(id, req.Name)
	if err != nil {
		h.logError(c, err)
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "category updated", category)
}

// DeleteCategory handles DELETE /api/v1/categories/:id
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, models.NewValidationError("invalid category id"))
		return
	}

	if err := h.categories.DeleteCategory(id); err != nil {
		h.logError(c, err)
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "category deleted", nil)
}

func (h *CategoryHandler) logError(c *gin.Context, err error) {
	if models.KindOf(err) == models.KindInternal {
		h.logger.WithError(err).WithField("path", c.Request.URL.Path).Error("Category handler failure")
	}
}
