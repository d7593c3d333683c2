package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/eventmart/commerce-backend/internal/cache"
	"github.com/eventmart/commerce-backend/internal/database"
	"github.com/eventmart/commerce-backend/internal/kafka"
	"github.com/eventmart/commerce-backend/internal/models"
	"github.com/eventmart/commerce-backend/internal/utils"
	"github.com/eventmart/commerce-backend/pkg/ordernum"
)

// OrderService orchestrates the product purchase flow. It mirrors the
// event booking flow: availability, pricing, payment initiation,
// pending persistence and payment verification.
type OrderService struct {
	products *database.ProductRepository
	orders   *database.OrderRepository
	carts    *database.CartRepository
	audits   *database.PaymentAuditRepository
	pricing  *PricingService
	gateway  PaymentGateway
	producer *kafka.Producer
	catalog  *cache.CatalogCache
	logger   *logrus.Logger
}

// NewOrderService creates a new OrderService
func NewOrderService(
	products *database.ProductRepository,
	orders *database.OrderRepository,
	carts *database.CartRepository,
	audits *database.PaymentAuditRepository,
	pricing *PricingService,
	gateway PaymentGateway,
	producer *kafka.Producer,
	catalog *cache.CatalogCache,
	logger *logrus.Logger,
) *OrderService {
	return &OrderService{
		products: products,
		orders:   orders,
		carts:    carts,
		audits:   audits,
		pricing:  pricing,
		gateway:  gateway,
		producer: producer,
		catalog:  catalog,
		logger:   logger,
	}
}

// ============================================================================
// ORDERING
// ============================================================================

// PlaceOrder creates a pending order for product variants. Stock only
// moves when the payment verifies.
func (s *OrderService) PlaceOrder(ctx context.Context, userID uuid.UUID, req *models.PlaceOrderRequest, client utils.ClientInfo) (*models.BookingConfirmation, error) {
	if err := validatePlaceOrderRequest(req); err != nil {
		return nil, err
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, models.NewValidationError("product_id is not a valid id")
	}

	product, err := s.products.GetByID(productID)
	if err != nil {
		return nil, models.NewInternalError("failed to load product", err)
	}
	if product == nil {
		return nil, models.NewNotFoundError("product not found")
	}
	if product.Status != models.ProductStatusActive {
		return nil, models.NewActionNotAllowedError("product is not open for orders")
	}

	variants, err := s.loadVariants(productID, req.Items)
	if err != nil {
		return nil, err
	}

	if err := s.pricing.CheckVariantAvailability(variants, req.Items); err != nil {
		return nil, err
	}

	now := time.Now()
	subtotal, err := s.pricing.ProductSubtotal(variants, req.Items)
	if err != nil {
		return nil, err
	}
	discount := s.pricing.ProductDiscount(product, subtotal, req.Items.TotalQuantity(), now)
	total := subtotal - discount

	orderID := ordernum.NewOrderID(ordernum.PrefixOrder)
	orderNumber := ordernum.NewOrderNumber(ordernum.PrefixOrder, now)

	gatewayOrderID, err := s.gateway.CreateOrder(ctx, total, orderNumber)
	if err != nil {
		return nil, models.NewPaymentInitiationError("failed to initiate payment", err)
	}

	order := &models.Order{
		OrderID:             orderID,
		OrderNumber:         orderNumber,
		UserID:              userID,
		ProductID:           productID,
		ShippingDetails:     *req.ShippingDetails,
		Items:               req.Items,
		NumberOfItems:       req.Items.TotalQuantity(),
		ItemsPrice:          subtotal,
		OfferDiscountAmount: discount,
		TotalPrice:          total,
		PaymentDetails: models.PaymentDetails{
			GatewayOrderID:  gatewayOrderID,
			PaymentStatus:   models.PaymentStatusPending,
			TransactionType: models.TransactionTypeProduct,
		},
	}

	if err := s.orders.Create(order); err != nil {
		return nil, models.NewInternalError("failed to save order", err)
	}

	s.recordAudit(orderID, gatewayOrderID, total, models.AuditStatusInitiated, client, nil)

	s.logger.WithFields(logrus.Fields{
		"order_id":         orderID,
		"product_id":       productID,
		"user_id":          userID,
		"total_price":      total,
		"gateway_order_id": gatewayOrderID,
	}).Info("Product order created")

	return &models.BookingConfirmation{
		OrderID:        orderID,
		OrderNumber:    orderNumber,
		GatewayOrderID: gatewayOrderID,
		Amount:         total,
		Currency:       "INR",
	}, nil
}

// GetOrder loads an order the user owns
func (s *OrderService) GetOrder(userID uuid.UUID, orderID string) (*models.Order, error) {
	order, err := s.orders.GetByOrderID(orderID)
	if err != nil {
		return nil, models.NewInternalError("failed to load order", err)
	}
	if order == nil || order.UserID != userID {
		return nil, models.NewNotFoundError("order not found")
	}
	return order, nil
}

// ListMyOrders returns the user's orders, newest first
func (s *OrderService) ListMyOrders(userID uuid.UUID) ([]models.Order, error) {
	orders, err := s.orders.ListByUser(userID)
	if err != nil {
		return nil, models.NewInternalError("failed to list orders", err)
	}
	return orders, nil
}

// ListProductOrders returns completed orders for a product the user sells
func (s *OrderService) ListProductOrders(userID, productID uuid.UUID) ([]models.Order, error) {
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

	orders, err := s.orders.ListByProduct(productID)
	if err != nil {
		return nil, models.NewInternalError("failed to list orders", err)
	}
	return orders, nil
}

// ============================================================================
// PAYMENT VERIFICATION
// ============================================================================

// VerifyPayment completes a pending order. The stock bump and the
// status flip share one transaction; verifying an already-completed
// order is a no-op success.
func (s *OrderService) VerifyPayment(ctx context.Context, req *models.VerifyPaymentRequest, client utils.ClientInfo) (*models.Order, error) {
	if missing := req.Validate(); len(missing) > 0 {
		return nil, models.NewValidationError("missing required attributes: " + strings.Join(missing, ", "))
	}

	order, err := s.orders.GetByOrderID(req.OrderID)
	if err != nil {
		return nil, models.NewInternalError("failed to load order", err)
	}
	if order == nil {
		return nil, models.NewNotFoundError("order not found")
	}

	if order.PaymentDetails.PaymentStatus == models.PaymentStatusCompleted {
		return order, nil
	}
	if order.PaymentDetails.PaymentStatus == models.PaymentStatusExpired {
		return nil, models.NewActionNotAllowedError("order has expired")
	}
	if order.PaymentDetails.GatewayOrderID != req.GatewayOrderID {
		return nil, models.NewValidationError("gateway_order_id does not match this order")
	}

	valid, err := s.gateway.VerifySignature(ctx, req.GatewayOrderID, req.GatewayPaymentID, req.GatewaySignature)
	if err != nil {
		return nil, models.NewPaymentInitiationError("failed to reach payment gateway", err)
	}
	if !valid {
		reason := "signature verification failed"
		s.recordAudit(req.OrderID, req.GatewayOrderID, order.TotalPrice, models.AuditStatusFailed, client, &reason)
		return nil, models.NewPaymentFailedError("payment verification failed")
	}

	tx, err := s.orders.BeginTx()
	if err != nil {
		return nil, models.NewInternalError("failed to start transaction", err)
	}

	sold, err := s.products.IncrementItemsSold(tx, order.ProductID, order.Items)
	if err != nil {
		tx.Rollback()
		return nil, models.NewInternalError("failed to update stock", err)
	}
	if !sold {
		tx.Rollback()
		reason := "stock exhausted at completion"
		s.recordAudit(req.OrderID, req.GatewayOrderID, order.TotalPrice, models.AuditStatusFailed, client, &reason)
		return nil, models.NewCapacityExceededError("items sold out before payment completed")
	}

	completed, err := s.orders.MarkCompleted(tx, req.OrderID, req.GatewayPaymentID)
	if err != nil {
		tx.Rollback()
		return nil, models.NewInternalError("failed to complete order", err)
	}
	if !completed {
		// Lost the race to another verification of the same order
		tx.Rollback()
		return s.GetOrder(order.UserID, req.OrderID)
	}

	if err := tx.Commit(); err != nil {
		return nil, models.NewInternalError("failed to commit order completion", err)
	}

	order.PaymentDetails.PaymentStatus = models.PaymentStatusCompleted
	order.PaymentDetails.GatewayPaymentID = req.GatewayPaymentID

	s.recordAudit(req.OrderID, req.GatewayOrderID, order.TotalPrice, models.AuditStatusVerified, client, nil)

	purchased := make([]uuid.UUID, 0, len(order.Items))
	for _, item := range order.Items {
		purchased = append(purchased, item.VariantID)
	}
	if err := s.carts.RemoveVariants(order.UserID, purchased); err != nil {
		s.logger.WithError(err).Warn("Cart cleanup after purchase failed")
	}

	if err := s.catalog.InvalidateProduct(ctx, order.ProductID); err != nil {
		s.logger.WithError(err).Warn("Product cache invalidation failed")
	}

	if err := s.producer.PublishPurchase(ctx, kafka.PurchaseEvent{
		OrderID:         order.OrderID,
		OrderNumber:     order.OrderNumber,
		TransactionType: string(models.TransactionTypeProduct),
		UserID:          order.UserID.String(),
		SubjectID:       order.ProductID.String(),
		Quantity:        order.NumberOfItems,
		TotalPrice:      order.TotalPrice,
		CompletedAt:     time.Now(),
	}); err != nil {
		s.logger.WithError(err).Warn("Purchase event publish failed")
	}

	s.logger.WithFields(logrus.Fields{
		"order_id":   order.OrderID,
		"product_id": order.ProductID,
	}).Info("Product order completed")

	return order, nil
}

// loadVariants fetches the ordered variants and checks they belong to
// the product.
func (s *OrderService) loadVariants(productID uuid.UUID, items models.OrderItems) (map[uuid.UUID]*models.Variant, error) {
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.VariantID)
	}

	variants, err := s.products.GetVariantsByIDs(ids)
	if err != nil {
		return nil, models.NewInternalError("failed to load variants", err)
	}

	byID := make(map[uuid.UUID]*models.Variant, len(variants))
	for i := range variants {
		if variants[i].ProductID != productID {
			return nil, models.NewValidationError("all variants must belong to the ordered product")
		}
		byID[variants[i].ID] = &variants[i]
	}
	for _, item := range items {
		if _, ok := byID[item.VariantID]; !ok {
			return nil, models.NewNotFoundError("variant '" + item.VariantID.String() + "' not found")
		}
	}
	return byID, nil
}

func (s *OrderService) recordAudit(orderID, gatewayOrderID string, amount float64, status models.PaymentAuditStatus, client utils.ClientInfo, failureReason *string) {
	audit := &models.PaymentAudit{
		OrderID:         orderID,
		TransactionType: models.TransactionTypeProduct,
		GatewayOrderID:  gatewayOrderID,
		Amount:          amount,
		Status:          status,
		IPAddress:       client.IPAddress,
		DeviceType:      client.DeviceType,
		Browser:         client.Browser,
		FailureReason:   failureReason,
	}
	if err := s.audits.Record(audit); err != nil {
		s.logger.WithError(err).WithField("order_id", orderID).Warn("Payment audit write failed")
	}
}

func validatePlaceOrderRequest(req *models.PlaceOrderRequest) error {
	var missing []string
	if req.ProductID == "" {
		missing = append(missing, "product_id")
	}
	if req.ShippingDetails == nil {
		missing = append(missing, "shipping_details")
	}
	if len(req.Items) == 0 {
		missing = append(missing, "items")
	}
	if len(missing) > 0 {
		return models.NewValidationError("missing required attributes: " + strings.Join(missing, ", "))
	}

	if req.ShippingDetails.Name == "" || req.ShippingDetails.Address == "" || req.ShippingDetails.City == "" {
		return models.NewValidationError("shipping_details requires name, address and city")
	}
	for _, item := range req.Items {
		if item.VariantID == uuid.Nil {
			return models.NewValidationError("items entries require variant_id")
		}
		if item.Quantity <= 0 {
			return models.NewValidationError("item quantities must be positive")
		}
	}
	return nil
}
