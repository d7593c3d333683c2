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

// EventBookingService orchestrates the event purchase flow:
// availability, pricing, payment initiation, pending persistence and
// payment verification.
type EventBookingService struct {
	events   *database.EventRepository
	bookings *database.BookingRepository
	audits   *database.PaymentAuditRepository
	pricing  *PricingService
	gateway  PaymentGateway
	producer *kafka.Producer
	catalog  *cache.CatalogCache
	logger   *logrus.Logger
}

// NewEventBookingService creates a new EventBookingService
func NewEventBookingService(
	events *database.EventRepository,
	bookings *database.BookingRepository,
	audits *database.PaymentAuditRepository,
	pricing *PricingService,
	gateway PaymentGateway,
	producer *kafka.Producer,
	catalog *cache.CatalogCache,
	logger *logrus.Logger,
) *EventBookingService {
	return &EventBookingService{
		events:   events,
		bookings: bookings,
		audits:   audits,
		pricing:  pricing,
		gateway:  gateway,
		producer: producer,
		catalog:  catalog,
		logger:   logger,
	}
}

// ============================================================================
// BOOKING
// ============================================================================

// BookEvent creates a pending booking: it prices the requested
// tickets, registers the amount with the payment gateway and persists
// the booking with payment status pending. No inventory moves here;
// sold counters only change when the payment verifies.
func (s *EventBookingService) BookEvent(ctx context.Context, userID uuid.UUID, req *models.BookEventRequest, client utils.ClientInfo) (*models.BookingConfirmation, error) {
	if err := validateBookEventRequest(req); err != nil {
		return nil, err
	}

	eventID, err := uuid.Parse(req.EventID)
	if err != nil {
		return nil, models.NewValidationError("event_id is not a valid id")
	}

	event, err := s.events.GetByID(eventID)
	if err != nil {
		return nil, models.NewInternalError("failed to load event", err)
	}
	if event == nil {
		return nil, models.NewNotFoundError("event not found")
	}
	if event.PublishStatus != models.EventStatusPublished {
		return nil, models.NewActionNotAllowedError("event is not open for booking")
	}

	if err := s.pricing.CheckEventAvailability(event, req.TicketDetails); err != nil {
		return nil, err
	}

	now := time.Now()
	subtotal, err := s.pricing.EventSubtotal(event, req.TicketDetails)
	if err != nil {
		return nil, err
	}
	discount := s.pricing.EventDiscount(event, req.TicketDetails, now)
	total := subtotal - discount

	orderID := ordernum.NewOrderID(ordernum.PrefixBooking)
	orderNumber := ordernum.NewOrderNumber(ordernum.PrefixBooking, now)

	// The human-readable order number is the receipt the buyer sees
	// on the gateway side.
	gatewayOrderID, err := s.gateway.CreateOrder(ctx, total, orderNumber)
	if err != nil {
		return nil, models.NewPaymentInitiationError("failed to initiate payment", err)
	}

	bookingDate := now
	if req.BookingDate != nil {
		bookingDate = *req.BookingDate
	}

	booking := &models.EventBooking{
		OrderID:             orderID,
		OrderNumber:         orderNumber,
		UserID:              userID,
		EventID:             eventID,
		BookingDate:         bookingDate,
		BuyerDetails:        *req.BuyerDetails,
		TicketDetails:       req.TicketDetails,
		NumberOfTickets:     req.TicketDetails.TotalQuantity(),
		TicketPrice:         subtotal,
		OfferDiscountAmount: discount,
		TotalPrice:          total,
		PaymentDetails: models.PaymentDetails{
			GatewayOrderID:  gatewayOrderID,
			PaymentStatus:   models.PaymentStatusPending,
			TransactionType: models.TransactionTypeEvent,
		},
	}

	if err := s.bookings.Create(booking); err != nil {
		return nil, models.NewInternalError("failed to save booking", err)
	}

	s.recordAudit(orderID, models.TransactionTypeEvent, gatewayOrderID, total, models.AuditStatusInitiated, client, nil)

	s.logger.WithFields(logrus.Fields{
		"order_id":         orderID,
		"event_id":         eventID,
		"user_id":          userID,
		"total_price":      total,
		"gateway_order_id": gatewayOrderID,
	}).Info("Event booking created")

	return &models.BookingConfirmation{
		OrderID:        orderID,
		OrderNumber:    orderNumber,
		GatewayOrderID: gatewayOrderID,
		Amount:         total,
		Currency:       "INR",
	}, nil
}

// GetBooking loads a booking the user owns
func (s *EventBookingService) GetBooking(userID uuid.UUID, orderID string) (*models.EventBooking, error) {
	booking, err := s.bookings.GetByOrderID(orderID)
	if err != nil {
		return nil, models.NewInternalError("failed to load booking", err)
	}
	if booking == nil || booking.UserID != userID {
		return nil, models.NewNotFoundError("booking not found")
	}
	return booking, nil
}

// ListMyBookings returns the user's bookings, newest first
func (s *EventBookingService) ListMyBookings(userID uuid.UUID) ([]models.EventBooking, error) {
	bookings, err := s.bookings.ListByUser(userID)
	if err != nil {
		return nil, models.NewInternalError("failed to list bookings", err)
	}
	return bookings, nil
}

// ListEventBookings returns completed bookings for an event the user organizes
func (s *EventBookingService) ListEventBookings(userID, eventID uuid.UUID) ([]models.EventBooking, error) {
	event, err := s.events.GetByID(eventID)
	if err != nil {
		return nil, models.NewInternalError("failed to load event", err)
	}
	if event == nil {
		return nil, models.NewNotFoundError("event not found")
	}
	if event.UserID != userID {
		return nil, models.NewActionNotAllowedError("you do not own this event")
	}

	bookings, err := s.bookings.ListByEvent(eventID)
	if err != nil {
		return nil, models.NewInternalError("failed to list bookings", err)
	}
	return bookings, nil
}

// ============================================================================
// PAYMENT VERIFICATION
// ============================================================================

// VerifyPayment completes a pending booking. The gateway signature is
// checked first; then the status flip and the ticket counter bump run
// in one transaction, so a booking is never completed without its
// inventory and vice versa. Verifying an already-completed booking is
// a no-op success.
func (s *EventBookingService) VerifyPayment(ctx context.Context, req *models.VerifyPaymentRequest, client utils.ClientInfo) (*models.EventBooking, error) {
	if missing := req.Validate(); len(missing) > 0 {
		return nil, models.NewValidationError("missing required attributes: " + strings.Join(missing, ", "))
	}

	booking, err := s.bookings.GetByOrderID(req.OrderID)
	if err != nil {
		return nil, models.NewInternalError("failed to load booking", err)
	}
	if booking == nil {
		return nil, models.NewNotFoundError("booking not found")
	}

	if booking.PaymentDetails.PaymentStatus == models.PaymentStatusCompleted {
		return booking, nil
	}
	if booking.PaymentDetails.PaymentStatus == models.PaymentStatusExpired {
		return nil, models.NewActionNotAllowedError("booking has expired")
	}
	if booking.PaymentDetails.GatewayOrderID != req.GatewayOrderID {
		return nil, models.NewValidationError("gateway_order_id does not match this booking")
	}

	valid, err := s.gateway.VerifySignature(ctx, req.GatewayOrderID, req.GatewayPaymentID, req.GatewaySignature)
	if err != nil {
		return nil, models.NewPaymentInitiationError("failed to reach payment gateway", err)
	}
	if !valid {
		reason := "signature verification failed"
		s.recordAudit(req.OrderID, models.TransactionTypeEvent, req.GatewayOrderID, booking.TotalPrice, models.AuditStatusFailed, client, &reason)
		return nil, models.NewPaymentFailedError("payment verification failed")
	}

	tx, err := s.bookings.BeginTx()
	if err != nil {
		return nil, models.NewInternalError("failed to start transaction", err)
	}

	sold, err := s.events.IncrementTicketsSold(tx, booking.EventID, booking.TicketDetails)
	if err != nil {
		tx.Rollback()
		return nil, models.NewInternalError("failed to update ticket inventory", err)
	}
	if !sold {
		tx.Rollback()
		reason := "capacity exhausted at completion"
		s.recordAudit(req.OrderID, models.TransactionTypeEvent, req.GatewayOrderID, booking.TotalPrice, models.AuditStatusFailed, client, &reason)
		return nil, models.NewCapacityExceededError("tickets sold out before payment completed")
	}

	completed, err := s.bookings.MarkCompleted(tx, req.OrderID, req.GatewayPaymentID)
	if err != nil {
		tx.Rollback()
		return nil, models.NewInternalError("failed to complete booking", err)
	}
	if !completed {
		// Lost the race to another verification of the same order
		tx.Rollback()
		return s.GetBooking(booking.UserID, req.OrderID)
	}

	if err := tx.Commit(); err != nil {
		return nil, models.NewInternalError("failed to commit booking completion", err)
	}

	booking.PaymentDetails.PaymentStatus = models.PaymentStatusCompleted
	booking.PaymentDetails.GatewayPaymentID = req.GatewayPaymentID

	s.recordAudit(req.OrderID, models.TransactionTypeEvent, req.GatewayOrderID, booking.TotalPrice, models.AuditStatusVerified, client, nil)

	if err := s.catalog.InvalidateEvent(ctx, booking.EventID); err != nil {
		s.logger.WithError(err).Warn("Event cache invalidation failed")
	}

	if err := s.producer.PublishPurchase(ctx, kafka.PurchaseEvent{
		OrderID:         booking.OrderID,
		OrderNumber:     booking.OrderNumber,
		TransactionType: string(models.TransactionTypeEvent),
		UserID:          booking.UserID.String(),
		SubjectID:       booking.EventID.String(),
		Quantity:        booking.NumberOfTickets,
		TotalPrice:      booking.TotalPrice,
		CompletedAt:     time.Now(),
	}); err != nil {
		s.logger.WithError(err).Warn("Purchase event publish failed")
	}

	s.logger.WithFields(logrus.Fields{
		"order_id": booking.OrderID,
		"event_id": booking.EventID,
	}).Info("Event booking completed")

	return booking, nil
}

// recordAudit writes a payment audit row. Failures are logged, never
// surfaced to the payment flow.
func (s *EventBookingService) recordAudit(orderID string, txType models.TransactionType, gatewayOrderID string, amount float64, status models.PaymentAuditStatus, client utils.ClientInfo, failureReason *string) {
	audit := &models.PaymentAudit{
		OrderID:         orderID,
		TransactionType: txType,
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

// validateBookEventRequest reports every missing attribute at once
func validateBookEventRequest(req *models.BookEventRequest) error {
	var missing []string
	if req.EventID == "" {
		missing = append(missing, "event_id")
	}
	if req.BuyerDetails == nil {
		missing = append(missing, "buyer_details")
	}
	if len(req.TicketDetails) == 0 {
		missing = append(missing, "ticket_details")
	}
	if len(missing) > 0 {
		return models.NewValidationError("missing required attributes: " + strings.Join(missing, ", "))
	}

	if req.BuyerDetails.Name == "" || req.BuyerDetails.Email == "" {
		return models.NewValidationError("buyer_details requires name and email")
	}
	for _, t := range req.TicketDetails {
		if t.CategoryName == "" {
			return models.NewValidationError("ticket_details entries require category_name")
		}
		if t.Quantity <= 0 {
			return models.NewValidationError("ticket_details quantities must be positive")
		}
	}
	return nil
}
