package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/eventmart/commerce-backend/internal/cache"
	"github.com/eventmart/commerce-backend/internal/database"
	"github.com/eventmart/commerce-backend/internal/models"
)

// ProductService handles product catalog operations
type ProductService struct {
	products *database.ProductRepository
	catalog  *cache.CatalogCache
	logger   *logrus.Logger
}

// NewProductService creates a new ProductService
func NewProductService(products *database.ProductRepository, catalog *cache.CatalogCache, logger *logrus.Logger) *ProductService {
	return &ProductService{
		products: products,
		catalog:  catalog,
		logger:   logger,
	}
}

// CreateProductRequest is the payload for POST /api/v1/product
type CreateProductRequest struct {
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Categories  []string           `json:"categories"`
	Offer       *models.Offer      `json:"offer"`
	Variants    []VariantRequest   `json:"variants"`
	Status      models.ProductStatus `json:"status"`
}

// VariantRequest describes one variant in a create/update payload
type VariantRequest struct {
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	TotalStock int     `json:"total_stock"`
}

// ============================================================================
// PRODUCT CRUD
// ============================================================================

// CreateProduct validates and persists a new product with its variants
func (s *ProductService) CreateProduct(userID uuid.UUID, req *CreateProductRequest) (*models.Product, []models.Variant, error) {
	if err := validateProductRequest(req); err != nil {
		return nil, nil, err
	}

	status := req.Status
	if status == "" {
		status = models.ProductStatusDraft
	}

	product := &models.Product{
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		Categories:  req.Categories,
		Status:      status,
		Offer:       req.Offer,
	}

	if err := s.products.Create(product); err != nil {
		return nil, nil, models.NewInternalError("failed to create product", err)
	}

	variants := make([]models.Variant, 0, len(req.Variants))
	for _, v := range req.Variants {
		variant := models.Variant{
			ProductID:  product.ID,
			Name:       v.Name,
			Price:      v.Price,
			TotalStock: v.TotalStock,
			Status:     models.VariantStatusActive,
		}
		if err := s.products.CreateVariant(&variant); err != nil {
			return nil, nil, models.NewInternalError("failed to create variant", err)
		}
		variants = append(variants, variant)
	}

	s.logger.WithFields(logrus.Fields{
		"product_id": product.ID,
		"user_id":    userID,
		"variants":   len(variants),
	}).Info("Product created")

	return product, variants, nil
}

// GetProduct loads a product and its variants, caching the product row
func (s *ProductService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, []models.Variant, error) {
	var product *models.Product

	if cached, err := s.catalog.GetProduct(ctx, id); err == nil && cached != nil {
		product = cached
	} else if err != nil {
		s.logger.WithError(err).Warn("Product cache read failed")
	}

	if product == nil {
		loaded, err := s.products.GetByID(id)
		if err != nil {
			return nil, nil, models.NewInternalError("failed to load product", err)
		}
		if loaded == nil {
			return nil, nil, models.NewNotFoundError("product not found")
		}
		product = loaded

		if err := s.catalog.SetProduct(ctx, product); err != nil {
			s.logger.WithError(err).Warn("Product cache write failed")
		}
	}

	variants, err := s.products.ListVariantsByProduct(id)
	if err != nil {
		return nil, nil, models.NewInternalError("failed to load variants", err)
	}
	return product, variants, nil
}

// ListProducts returns active products with pagination metadata
func (s *ProductService) ListProducts(filters models.ProductFilters, sort models.ProductSortOrder, p models.Pagination) ([]models.Product, models.PageMeta, error) {
	products, total, err := s.products.List(filters, sort, p.Page, p.Limit)
	if err != nil {
		return nil, models.PageMeta{}, models.NewInternalError("failed to list products", err)
	}
	return products, models.NewPageMeta(p, total), nil
}

// ListMyProducts returns every product owned by the user, any status
func (s *ProductService) ListMyProducts(userID uuid.UUID) ([]models.Product, error) {
	products, err := s.products.ListByUser(userID)
	if err != nil {
		return nil, models.NewInternalError("failed to list products", err)
	}
	return products, nil
}

// UpdateProduct rewrites a product the user owns
func (s *ProductService) UpdateProduct(ctx context.Context, userID, productID uuid.UUID, req *CreateProductRequest) (*models.Product, error) {
	product, err := s.loadOwned(userID, productID)
	if err != nil {
		return nil, err
	}
	if err := validateProductRequest(req); err != nil {
		return nil, err
	}

	product.Title = req.Title
	product.Description = req.Description
	product.Categories = req.Categories
	product.Offer = req.Offer
	if req.Status != "" {
		product.Status = req.Status
	}

	if err := s.products.Update(product); err != nil {
		return nil, models.NewInternalError("failed to update product", err)
	}

	if err := s.catalog.InvalidateProduct(ctx, productID); err != nil {
		s.logger.WithError(err).Warn("Product cache invalidation failed")
	}
	return product, nil
}

// DeleteProduct removes a product the user owns
func (s *ProductService) DeleteProduct(ctx context.Context, userID, productID uuid.UUID) error {
	if _, err := s.loadOwned(userID, productID); err != nil {
		return err
	}

	if err := s.products.Delete(productID); err != nil {
		return models.NewInternalError("failed to delete product", err)
	}

	if err := s.catalog.InvalidateProduct(ctx, productID); err != nil {
		s.logger.WithError(err).Warn("Product cache invalidation failed")
	}

	s.logger.WithField("product_id", productID).Info("Product deleted")
	return nil
}

// ============================================================================
// VARIANTS
// ============================================================================

// AddVariant attaches a new variant to a product the user owns
func (s *ProductService) AddVariant(ctx context.Context, userID, productID uuid.UUID, req *VariantRequest) (*models.Variant, error) {
	if _, err := s.loadOwned(userID, productID); err != nil {
		return nil, err
	}
	if err := validateVariantRequest(req); err != nil {
		return nil, err
	}

	variant := &models.Variant{
		ProductID:  productID,
		Name:       req.Name,
		Price:      req.Price,
		TotalStock: req.TotalStock,
		Status:     models.VariantStatusActive,
	}
	if err := s.products.CreateVariant(variant); err != nil {
		return nil, models.NewInternalError("failed to create variant", err)
	}

	if err := s.catalog.InvalidateProduct(ctx, productID); err != nil {
		s.logger.WithError(err).Warn("Product cache invalidation failed")
	}
	return variant, nil
}

// UpdateVariant rewrites a variant of a product the user owns. The
// new total stock cannot undercut what has already been sold.
func (s *ProductService) UpdateVariant(ctx context.Context, userID, productID, variantID uuid.UUID, req *VariantRequest) (*models.Variant, error) {
	if _, err := s.loadOwned(userID, productID); err != nil {
		return nil, err
	}
	if err := validateVariantRequest(req); err != nil {
		return nil, err
	}

	variant, err := s.products.GetVariantByID(variantID)
	if err != nil {
		return nil, models.NewInternalError("failed to load variant", err)
	}
	if variant == nil || variant.ProductID != productID {
		return nil, models.NewNotFoundError("variant not found")
	}
	if req.TotalStock < variant.ItemsSold {
		return nil, models.NewValidationError("total_stock cannot be lower than items already sold")
	}

	variant.Name = req.Name
	variant.Price = req.Price
	variant.TotalStock = req.TotalStock

	if err := s.products.UpdateVariant(variant); err != nil {
		return nil, models.NewInternalError("failed to update variant", err)
	}

	if err := s.catalog.InvalidateProduct(ctx, productID); err != nil {
		s.logger.WithError(err).Warn("Product cache invalidation failed")
	}
	return variant, nil
}

// ============================================================================
// PROMOTERS
// ============================================================================

// AddPromoter attaches a promoter to a product the user owns
func (s *ProductService) AddPromoter(userID, productID uuid.UUID, name, email string, commission float64) (*models.Promoter, error) {
	if _, err := s.loadOwned(userID, productID); err != nil {
		return nil, err
	}
	if name == "" || email == "" {
		return nil, models.NewValidationError("missing required attributes: name, email")
	}
	if commission < 0 || commission > 100 {
		return nil, models.NewValidationError("commission_percent must be between 0 and 100")
	}

	promoter := &models.Promoter{
		ProductID:         productID,
		Name:              name,
		Email:             email,
		CommissionPercent: commission,
		Status:            models.PromoterStatusActive,
	}
	if err := s.products.AddPromoter(promoter); err != nil {
		return nil, models.NewInternalError("failed to add promoter", err)
	}
	return promoter, nil
}

// ListPromoters returns active promoters of a product the user owns
func (s *ProductService) ListPromoters(userID, productID uuid.UUID) ([]models.Promoter, error) {
	if _, err := s.loadOwned(userID, productID); err != nil {
		return nil, err
	}
	promoters, err := s.products.ListPromotersByProduct(productID)
	if err != nil {
		return nil, models.NewInternalError("failed to list promoters", err)
	}
	return promoters, nil
}

// RemovePromoter detaches a promoter from a product the user owns
func (s *ProductService) RemovePromoter(userID, productID, promoterID uuid.UUID) error {
	if _, err := s.loadOwned(userID, productID); err != nil {
		return err
	}
	if err := s.products.RemovePromoter(promoterID); err != nil {
		return models.NewNotFoundError("promoter not found")
	}
	return nil
}

// loadOwned loads a product and checks ownership
func (s *ProductService) loadOwned(userID, productID uuid.UUID) (*models.Product, error) {
	product, err := s.products.GetByID(productID)
	if err != nil {
		return nil, models.NewInternalError("failed to load product", err)
	}
	if product == nil {
		return nil, models.NewNotFoundError("product not found")
	}
	if product.UserID != userID {
		return nil, models.NewActionNotAllowedError("you do not own this product")
	}
	return product, nil
}

func validateProductRequest(req *CreateProductRequest) error {
	var missing []string
	if req.Title == "" {
		missing = append(missing, "title")
	}
	if len(missing) > 0 {
		return models.NewValidationError("missing required attributes: " + strings.Join(missing, ", "))
	}
	for i := range req.Variants {
		if err := validateVariantRequest(&req.Variants[i]); err != nil {
			return err
		}
	}
	if req.Offer != nil {
		if req.Offer.Percentage < 0 || req.Offer.Percentage > 100 {
			return models.NewValidationError("offer percentage must be between 0 and 100")
		}
		if req.Offer.QuantityCap < 0 {
			return models.NewValidationError("offer quantity_cap cannot be negative")
		}
	}
	return nil
}

func validateVariantRequest(req *VariantRequest) error {
	if req.Name == "" {
		return models.NewValidationError("variant name is required")
	}
	if req.Price < 0 {
		return models.NewValidationError("variant price cannot be negative")
	}
	if req.TotalStock < 0 {
		return models.NewValidationError("variant total_stock cannot be negative")
	}
	return nil
}
