package services

import (
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/eventmart/commerce-backend/internal/database"
	"github.com/eventmart/commerce-backend/internal/models"
)

// CategoryService handles the browse taxonomy
type CategoryService struct {
	categories *database.CategoryRepository
	logger     *logrus.Logger
}

// NewCategoryService creates a new CategoryService
func NewCategoryService(categories *database.CategoryRepository, logger *logrus.Logger) *CategoryService {
	return &CategoryService{
		categories: categories,
		logger:     logger,
	}
}

// CreateCategory validates and persists a new category
func (s *CategoryService) CreateCategory(req *models.CreateCategoryRequest) (*models.Category, error) {
	if req.Name == "" {
		return nil, models.NewValidationError("missing required attributes: name")
	}
	if req.Type != models.CategoryTypeEvent && req.Type != models.CategoryTypeProduct {
		return nil, models.NewValidationError("type must be 'event' or 'product'")
	}

	category := &models.Category{
		Name: req.Name,
		Type: req.Type,
	}
	if err := s.categories.Create(category); err != nil {
		if errors.Is(err, database.ErrDuplicateCategory) {
			return nil, models.NewValidationError("category already exists")
		}
		return nil, models.NewInternalError("failed to create category", err)
	}

	s.logger.WithFields(logrus.Fields{
		"category_id": category.ID,
		"name":        category.Name,
		"type":        category.Type,
	}).Info("Category created")

	return category, nil
}

// ListCategories returns categories, optionally narrowed to one type
func (s *CategoryService) ListCategories(categoryType models.CategoryType) ([]models.Category, error) {
	if categoryType != "" && categoryType != models.CategoryTypeEvent && categoryType != models.CategoryTypeProduct {
		return nil, models.NewValidationError("type must be 'event' or 'product'")
	}
	categories, err := s.categories.List(categoryType)
	if err != nil {
		return nil, models.NewInternalError("failed to list categories", err)
	}
	return categories, nil
}

// RenameCategory changes a category's display name
func (s *CategoryService) RenameCategory(id uuid.UUID, name string) (*models.Category, error) {
	if name == "" {
		return nil, models.NewValidationError("missing required attributes: name")
	}
	if err := s.categories.Rename(id, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.NewNotFoundError("category not found")
		}
		if errors.Is(err, database.ErrDuplicateCategory) {
			return nil, models.NewValidationError("category already exists")
		}
		return nil, models.NewInternalError("failed to rename category", err)
	}
	category, err := s.categories.GetByID(id)
	if err != nil {
		return nil, models.NewInternalError("failed to load category", err)
	}
	return category, nil
}

// DeleteCategory removes a category
func (s *CategoryService) DeleteCategory(id uuid.UUID) error {
	if err := s.categories.Delete(id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.NewNotFoundError("category not found")
		}
		return models.NewInternalError("failed to delete category", err)
	}
	return nil
}
