package services

import (
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/eventmart/commerce-backend/internal/database"
	"github.com/eventmart/commerce-backend/internal/models"
)

// CartService handles shopping cart operations
type CartService struct {
	carts    *database.CartRepository
	products *database.ProductRepository
	logger   *logrus.Logger
}

// NewCartService creates a new CartService
func NewCartService(carts *database.CartRepository, products *database.ProductRepository, logger *logrus.Logger) *CartService {
	return &CartService{
		carts:    carts,
		products: products,
		logger:   logger,
	}
}

// CartLine joins a cart item with its variant for display
type CartLine struct {
	Item    models.CartItem `json:"item"`
	Variant models.Variant  `json:"variant"`
}

// AddItem puts a variant in the user's cart, merging quantities when
// it is already there.
func (s *CartService) AddItem(userID, variantID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return models.NewValidationError("quantity must be positive")
	}

	variant, err := s.products.GetVariantByID(variantID)
	if err != nil {
		return models.NewInternalError("failed to load variant", err)
	}
	if variant == nil {
		return models.NewNotFoundError("variant not found")
	}
	if variant.Status != models.VariantStatusActive {
		return models.NewActionNotAllowedError("variant is not available")
	}

	item := &models.CartItem{
		UserID:    userID,
		VariantID: variantID,
		Quantity:  quantity,
	}
	if err := s.carts.Upsert(item); err != nil {
		return models.NewInternalError("failed to add to cart", err)
	}
	return nil
}

// GetCart returns the user's cart lines with their variants
func (s *CartService) GetCart(userID uuid.UUID) ([]CartLine, error) {
	items, err := s.carts.ListByUser(userID)
	if err != nil {
		return nil, models.NewInternalError("failed to load cart", err)
	}
	if len(items) == 0 {
		return []CartLine{}, nil
	}

	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.VariantID)
	}
	variants, err := s.products.GetVariantsByIDs(ids)
	if err != nil {
		return nil, models.NewInternalError("failed to load cart variants", err)
	}
	byID := make(map[uuid.UUID]models.Variant, len(variants))
	for _, v := range variants {
		byID[v.ID] = v
	}

	lines := make([]CartLine, 0, len(items))
	for _, item := range items {
		variant, ok := byID[item.VariantID]
		if !ok {
			// Variant was deleted since it was carted; skip the line
			continue
		}
		lines = append(lines, CartLine{Item: item, Variant: variant})
	}
	return lines, nil
}

// UpdateQuantity sets an exact quantity on a cart line
func (s *CartService) UpdateQuantity(userID, itemID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return models.NewValidationError("quantity must be positive")
	}
	if err := s.carts.UpdateQuantity(userID, itemID, quantity); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.NewNotFoundError("cart item not found")
		}
		return models.NewInternalError("failed to update cart", err)
	}
	return nil
}

// RemoveItem deletes a cart line
func (s *CartService) RemoveItem(userID, itemID uuid.UUID) error {
	if err := s.carts.Remove(userID, itemID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.NewNotFoundError("cart item not found")
		}
		return models.NewInternalError("failed to remove cart item", err)
	}
	return nil
}

// ClearCart empties the user's cart
func (s *CartService) ClearCart(userID uuid.UUID) error {
	if err := s.carts.Clear(userID); err != nil {
		return models.NewInternalError("failed to clear cart", err)
	}
	return nil
}
