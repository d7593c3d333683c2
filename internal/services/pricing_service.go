package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/eventmart/commerce-backend/internal/models"
)

// PricingService computes subtotals, offer discounts and availability.
// All methods are pure; callers pass the catalog state they loaded.
type PricingService struct{}

// NewPricingService creates a new PricingService
func NewPricingService() *PricingService {
	return &PricingService{}
}

// ============================================================================
// EVENT PRICING
// ============================================================================

// EventSubtotal sums price x quantity over the requested ticket
// categories. An unknown category name fails the whole calculation.
func (s *PricingService) EventSubtotal(event *models.Event, requests models.TicketRequests) (float64, error) {
	subtotal := 0.0
	for _, req := range requests {
		ticket, ok := event.TicketByCategory(req.CategoryName)
		if !ok {
			return 0, models.NewNotFoundError(fmt.Sprintf("ticket category '%s' not found", req.CategoryName))
		}
		subtotal += ticket.Price * float64(req.Quantity)
	}
	return subtotal, nil
}

// EventDiscount evaluates the event offer against the requested
// tickets. The discount applies per unit: the offer's quantity cap,
// less tickets already sold, bounds how many units get the percentage
// off. Eligibility is consumed in the order the caller listed the
// categories, so two orderings of the same quantities can price
// differently once the cap runs low.
func (s *PricingService) EventDiscount(event *models.Event, requests models.TicketRequests, now time.Time) float64 {
	offer := event.Offer
	if offer == nil || !offerActive(offer, now) {
		return 0
	}

	eligibleRemaining := offer.QuantityCap - event.TotalTicketsSold
	if eligibleRemaining < 0 {
		eligibleRemaining = 0
	}

	discount := 0.0
	for _, req := range requests {
		if eligibleRemaining == 0 {
			break
		}
		ticket, ok := event.TicketByCategory(req.CategoryName)
		if !ok {
			continue
		}
		eligible := req.Quantity
		if eligible > eligibleRemaining {
			eligible = eligibleRemaining
		}
		discount += ticket.Price * float64(eligible) * offer.Percentage / 100
		eligibleRemaining -= eligible
	}
	return discount
}

// CheckEventAvailability verifies every requested category still has
// room. This is an advisory pre-check against the loaded snapshot;
// the binding capacity check happens in the inventory UPDATE at
// payment completion.
func (s *PricingService) CheckEventAvailability(event *models.Event, requests models.TicketRequests) error {
	for _, req := range requests {
		ticket, ok := event.TicketByCategory(req.CategoryName)
		if !ok {
			return models.NewNotFoundError(fmt.Sprintf("ticket category '%s' not found", req.CategoryName))
		}
		if ticket.TicketsSold+req.Quantity > ticket.AudienceCapacity {
			return models.NewCapacityExceededError(fmt.Sprintf(
				"only %d tickets left in category '%s'",
				ticket.AudienceCapacity-ticket.TicketsSold, req.CategoryName))
		}
	}
	return nil
}

// ============================================================================
// PRODUCT PRICING
// ============================================================================

// ProductSubtotal sums price x quantity over the ordered variants.
// An unknown variant id fails the whole calculation.
func (s *PricingService) ProductSubtotal(variants map[uuid.UUID]*models.Variant, items models.OrderItems) (float64, error) {
	subtotal := 0.0
	for _, item := range items {
		variant, ok := variants[item.VariantID]
		if !ok {
			return 0, models.NewNotFoundError(fmt.Sprintf("variant '%s' not found", item.VariantID))
		}
		subtotal += variant.Price * float64(item.Quantity)
	}
	return subtotal, nil
}

// ProductDiscount evaluates the product offer. Unlike the per-unit
// event evaluation, a product offer discounts the whole subtotal:
// if any ordered unit is still inside the offer's quantity cap, the
// percentage comes off the entire amount.
func (s *PricingService) ProductDiscount(product *models.Product, subtotal float64, totalQuantity int, now time.Time) float64 {
	offer := product.Offer
	if offer == nil || !offerActive(offer, now) {
		return 0
	}

	eligibleRemaining := offer.QuantityCap - product.ProductsSold
	if eligibleRemaining < 0 {
		eligibleRemaining = 0
	}

	eligible := totalQuantity
	if eligible > eligibleRemaining {
		eligible = eligibleRemaining
	}
	if eligible <= 0 {
		return 0
	}
	return subtotal * offer.Percentage / 100
}

// CheckVariantAvailability verifies every ordered variant still has
// stock. Advisory, same as the event check.
func (s *PricingService) CheckVariantAvailability(variants map[uuid.UUID]*models.Variant, items models.OrderItems) error {
	for _, item := range items {
		variant, ok := variants[item.VariantID]
		if !ok {
			return models.NewNotFoundError(fmt.Sprintf("variant '%s' not found", item.VariantID))
		}
		if variant.Status != models.VariantStatusActive {
			return models.NewActionNotAllowedError(fmt.Sprintf("variant '%s' is not available", variant.Name))
		}
		if variant.ItemsSold+item.Quantity > variant.TotalStock {
			return models.NewCapacityExceededError(fmt.Sprintf(
				"only %d items left for variant '%s'",
				variant.TotalStock-variant.ItemsSold, variant.Name))
		}
	}
	return nil
}

// offerActive reports whether now falls inside the offer window.
// Offers without a window are always active.
func offerActive(offer *models.Offer, now time.Time) bool {
	if offer.Percentage <= 0 {
		return false
	}
	if offer.StartAt != nil && now.Before(*offer.StartAt) {
		return false
	}
	if offer.EndAt != nil && now.After(*offer.EndAt) {
		return false
	}
	return true
}
