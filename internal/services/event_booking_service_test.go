package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventmart/commerce-backend/internal/database"
	"github.com/eventmart/commerce-backend/internal/models"
	"github.com/eventmart/commerce-backend/internal/utils"
)

// fakeGateway implements PaymentGateway for tests
type fakeGateway struct {
	orderID     string
	createErr   error
	valid       bool
	verifyErr   error
	createCalls int
	verifyCalls int
	lastReceipt string
}

func (g *fakeGateway) CreateOrder(ctx context.Context, amount float64, receipt string) (string, error) {
	g.createCalls++
	g.lastReceipt = receipt
	if g.createErr != nil {
		return "", g.createErr
	}
	return g.orderID, nil
}

func (g *fakeGateway) VerifySignature(ctx context.Context, orderID, paymentID, signature string) (bool, error) {
	g.verifyCalls++
	if g.verifyErr != nil {
		return false, g.verifyErr
	}
	return g.valid, nil
}

func setupBookingTest(t *testing.T) (*EventBookingService, sqlmock.Sqlmock, *fakeGateway, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	gateway := &fakeGateway{orderID: "rzp_order_1", valid: true}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	service := NewEventBookingService(
		database.NewEventRepository(sqlxDB),
		database.NewBookingRepository(sqlxDB),
		database.NewPaymentAuditRepository(sqlxDB),
		NewPricingService(),
		gateway,
		nil, // producer disabled
		nil, // cache disabled
		logger,
	)

	cleanup := func() {
		db.Close()
	}
	return service, mock, gateway, cleanup
}

var eventColumns = []string{
	"id", "user_id", "title", "description", "categories", "is_online",
	"platform_details", "venue_details", "start_at", "end_at", "publish_status",
	"tickets", "total_tickets", "total_tickets_sold", "offer", "created_at", "updated_at",
}

func eventRow(event *models.Event) *sqlmock.Rows {
	categories, _ := json.Marshal(event.Categories)
	tickets, _ := json.Marshal(event.Tickets)
	var offer interface{}
	if event.Offer != nil {
		offer, _ = json.Marshal(event.Offer)
	}
	now := time.Now()
	return sqlmock.NewRows(eventColumns).AddRow(
		event.ID, event.UserID, event.Title, event.Description, categories, event.IsOnline,
		nil, nil, event.StartAt, event.EndAt, event.PublishStatus,
		tickets, event.TotalTickets, event.TotalTicketsSold, offer, now, now,
	)
}

var bookingColumns = []string{
	"order_id", "order_number", "user_id", "event_id", "booking_date",
	"buyer_details", "ticket_details", "number_of_tickets", "ticket_price",
	"offer_discount_amount", "total_price", "payment_details", "created_at", "updated_at",
}

func bookingRow(booking *models.EventBooking) *sqlmock.Rows {
	buyer, _ := json.Marshal(booking.BuyerDetails)
	tickets, _ := json.Marshal(booking.TicketDetails)
	payment, _ := json.Marshal(booking.PaymentDetails)
	now := time.Now()
	return sqlmock.NewRows(bookingColumns).AddRow(
		booking.OrderID, booking.OrderNumber, booking.UserID, booking.EventID, booking.BookingDate,
		buyer, tickets, booking.NumberOfTickets, booking.TicketPrice,
		booking.OfferDiscountAmount, booking.TotalPrice, payment, now, now,
	)
}

func bookableEvent() *models.Event {
	return &models.Event{
		ID:            uuid.New(),
		UserID:        uuid.New(),
		Title:         "Open Air Concert",
		IsOnline:      false,
		StartAt:       time.Now().Add(72 * time.Hour),
		EndAt:         time.Now().Add(76 * time.Hour),
		PublishStatus: models.EventStatusPublished,
		Tickets: models.TicketCategories{
			{CategoryName: "VIP", Price: 100, AudienceCapacity: 50, TicketsSold: 10},
		},
		TotalTickets: 50,
		Offer:        &models.Offer{Percentage: 10, QuantityCap: 100},
	}
}

func pendingBooking(eventID uuid.UUID) *models.EventBooking {
	return &models.EventBooking{
		OrderID:     "BKG-abc123",
		OrderNumber: "BKG-20260101-XYZ123",
		UserID:      uuid.New(),
		EventID:     eventID,
		BookingDate: time.Now(),
		BuyerDetails: models.BuyerDetails{
			Name:  "Nimal Perera",
			Email: "nimal@example.com",
		},
		TicketDetails: models.TicketRequests{
			{CategoryName: "VIP", Quantity: 2},
		},
		NumberOfTickets:     2,
		TicketPrice:         200,
		OfferDiscountAmount: 20,
		TotalPrice:          180,
		PaymentDetails: models.PaymentDetails{
			GatewayOrderID:  "rzp_order_1",
			PaymentStatus:   models.PaymentStatusPending,
			TransactionType: models.TransactionTypeEvent,
		},
	}
}

func bookRequest(eventID string) *models.BookEventRequest {
	return &models.BookEventRequest{
		EventID: eventID,
		BuyerDetails: &models.BuyerDetails{
			Name:  "Nimal Perera",
			Email: "nimal@example.com",
		},
		TicketDetails: models.TicketRequests{
			{CategoryName: "VIP", Quantity: 2},
		},
	}
}

func TestBookEvent(t *testing.T) {
	ctx := context.Background()
	client := utils.ClientInfo{IPAddress: "203.0.113.9", DeviceType: "desktop", Browser: "Firefox 128"}

	t.Run("Success", func(t *testing.T) {
		service, mock, gateway, cleanup := setupBookingTest(t)
		defer cleanup()

		event := bookableEvent()
		mock.ExpectQuery(`SELECT (.+) FROM events WHERE id`).
			WithArgs(event.ID).
			WillReturnRows(eventRow(event))
		mock.ExpectExec(`INSERT INTO event_bookings`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO payment_audits`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		confirmation, err := service.BookEvent(ctx, uuid.New(), bookRequest(event.ID.String()), client)
		require.NoError(t, err)
		require.NotNil(t, confirmation)

		// 2 x 100 minus the 10% offer
		assert.Equal(t, 180.0, confirmation.Amount)
		assert.Equal(t, "INR", confirmation.Currency)
		assert.Equal(t, "rzp_order_1", confirmation.GatewayOrderID)
		assert.Contains(t, confirmation.OrderID, "BKG")
		assert.Equal(t, 1, gateway.createCalls)
		assert.Equal(t, confirmation.OrderNumber, gateway.lastReceipt)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Event Not Found", func(t *testing.T) {
		service, mock, _, cleanup := setupBookingTest(t)
		defer cleanup()

		eventID := uuid.New()
		mock.ExpectQuery(`SELECT (.+) FROM events WHERE id`).
			WithArgs(eventID).
			WillReturnRows(sqlmock.NewRows(eventColumns))

		_, err := service.BookEvent(ctx, uuid.New(), bookRequest(eventID.String()), client)
		require.Error(t, err)
		assert.Equal(t, models.KindNotFound, models.KindOf(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Draft Event", func(t *testing.T) {
		service, mock, _, cleanup := setupBookingTest(t)
		defer cleanup()

		event := bookableEvent()
		event.PublishStatus = models.EventStatusDraft
		mock.ExpectQuery(`SELECT (.+) FROM events WHERE id`).
			WithArgs(event.ID).
			WillReturnRows(eventRow(event))

		_, err := service.BookEvent(ctx, uuid.New(), bookRequest(event.ID.String()), client)
		require.Error(t, err)
		assert.Equal(t, models.KindActionNotAllowed, models.KindOf(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Capacity Exceeded", func(t *testing.T) {
		service, mock, gateway, cleanup := setupBookingTest(t)
		defer cleanup()

		event := bookableEvent()
		event.Tickets[0].TicketsSold = 49
		mock.ExpectQuery(`SELECT (.+) FROM events WHERE id`).
			WithArgs(event.ID).
			WillReturnRows(eventRow(event))

		_, err := service.BookEvent(ctx, uuid.New(), bookRequest(event.ID.String()), client)
		require.Error(t, err)
		assert.Equal(t, models.KindCapacityExceeded, models.KindOf(err))
		assert.Equal(t, 0, gateway.createCalls)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Gateway Failure", func(t *testing.T) {
		service, mock, gateway, cleanup := setupBookingTest(t)
		defer cleanup()
		gateway.createErr = fmt.Errorf("gateway unreachable")

		event := bookableEvent()
		mock.ExpectQuery(`SELECT (.+) FROM events WHERE id`).
			WithArgs(event.ID).
			WillReturnRows(eventRow(event))

		_, err := service.BookEvent(ctx, uuid.New(), bookRequest(event.ID.String()), client)
		require.Error(t, err)
		assert.Equal(t, models.KindPaymentInitiation, models.KindOf(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Missing Attributes", func(t *testing.T) {
		service, _, _, cleanup := setupBookingTest(t)
		defer cleanup()

		_, err := service.BookEvent(ctx, uuid.New(), &models.BookEventRequest{}, client)
		require.Error(t, err)
		assert.Equal(t, models.KindValidation, models.KindOf(err))
		assert.Contains(t, err.Error(), "event_id")
		assert.Contains(t, err.Error(), "buyer_details")
		assert.Contains(t, err.Error(), "ticket_details")
	})
}

func TestVerifyBookingPayment(t *testing.T) {
	ctx := context.Background()
	client := utils.ClientInfo{IPAddress: "203.0.113.9"}

	verifyRequest := func(booking *models.EventBooking) *models.VerifyPaymentRequest {
		return &models.VerifyPaymentRequest{
			OrderID:          booking.OrderID,
			GatewayOrderID:   booking.PaymentDetails.GatewayOrderID,
			GatewayPaymentID: "rzp_pay_1",
			GatewaySignature: "sig_1",
		}
	}

	t.Run("Success", func(t *testing.T) {
		service, mock, _, cleanup := setupBookingTest(t)
		defer cleanup()

		booking := pendingBooking(uuid.New())
		mock.ExpectQuery(`SELECT (.+) FROM event_bookings WHERE order_id`).
			WithArgs(booking.OrderID).
			WillReturnRows(bookingRow(booking))
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE events e`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE event_bookings`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()
		mock.ExpectExec(`INSERT INTO payment_audits`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		result, err := service.VerifyPayment(ctx, verifyRequest(booking), client)
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusCompleted, result.PaymentDetails.PaymentStatus)
		assert.Equal(t, "rzp_pay_1", result.PaymentDetails.GatewayPaymentID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Already Completed", func(t *testing.T) {
		service, mock, gateway, cleanup := setupBookingTest(t)
		defer cleanup()

		booking := pendingBooking(uuid.New())
		booking.PaymentDetails.PaymentStatus = models.PaymentStatusCompleted
		booking.PaymentDetails.GatewayPaymentID = "rzp_pay_1"
		mock.ExpectQuery(`SELECT (.+) FROM event_bookings WHERE order_id`).
			WithArgs(booking.OrderID).
			WillReturnRows(bookingRow(booking))

		result, err := service.VerifyPayment(ctx, verifyRequest(booking), client)
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusCompleted, result.PaymentDetails.PaymentStatus)
		assert.Equal(t, 0, gateway.verifyCalls)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Expired Booking", func(t *testing.T) {
		service, mock, _, cleanup := setupBookingTest(t)
		defer cleanup()

		booking := pendingBooking(uuid.New())
		booking.PaymentDetails.PaymentStatus = models.PaymentStatusExpired
		mock.ExpectQuery(`SELECT (.+) FROM event_bookings WHERE order_id`).
			WithArgs(booking.OrderID).
			WillReturnRows(bookingRow(booking))

		_, err := service.VerifyPayment(ctx, verifyRequest(booking), client)
		require.Error(t, err)
		assert.Equal(t, models.KindActionNotAllowed, models.KindOf(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Gateway Order Mismatch", func(t *testing.T) {
		service, mock, _, cleanup := setupBookingTest(t)
		defer cleanup()

		booking := pendingBooking(uuid.New())
		mock.ExpectQuery(`SELECT (.+) FROM event_bookings WHERE order_id`).
			WithArgs(booking.OrderID).
			WillReturnRows(bookingRow(booking))

		req := verifyRequest(booking)
		req.GatewayOrderID = "rzp_order_other"
		_, err := service.VerifyPayment(ctx, req, client)
		require.Error(t, err)
		assert.Equal(t, models.KindValidation, models.KindOf(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Invalid Signature", func(t *testing.T) {
		service, mock, gateway, cleanup := setupBookingTest(t)
		defer cleanup()
		gateway.valid = false

		booking := pendingBooking(uuid.New())
		mock.ExpectQuery(`SELECT (.+) FROM event_bookings WHERE order_id`).
			WithArgs(booking.OrderID).
			WillReturnRows(bookingRow(booking))
		mock.ExpectExec(`INSERT INTO payment_audits`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		_, err := service.VerifyPayment(ctx, verifyRequest(booking), client)
		require.Error(t, err)
		assert.Equal(t, models.KindPaymentFailed, models.KindOf(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Sold Out At Completion", func(t *testing.T) {
		// The capacity predicate in the inventory UPDATE matches zero
		// rows; the booking stays pending and the caller learns why.
		service, mock, _, cleanup := setupBookingTest(t)
		defer cleanup()

		booking := pendingBooking(uuid.New())
		mock.ExpectQuery(`SELECT (.+) FROM event_bookings WHERE order_id`).
			WithArgs(booking.OrderID).
			WillReturnRows(bookingRow(booking))
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE events e`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()
		mock.ExpectExec(`INSERT INTO payment_audits`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		_, err := service.VerifyPayment(ctx, verifyRequest(booking), client)
		require.Error(t, err)
		assert.Equal(t, models.KindCapacityExceeded, models.KindOf(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Concurrent Verification", func(t *testing.T) {
		// A parallel verification completed first: the status flip
		// matches zero rows, so this caller re-reads and returns the
		// completed booking without double-counting inventory.
		service, mock, _, cleanup := setupBookingTest(t)
		defer cleanup()

		booking := pendingBooking(uuid.New())
		mock.ExpectQuery(`SELECT (.+) FROM event_bookings WHERE order_id`).
			WithArgs(booking.OrderID).
			WillReturnRows(bookingRow(booking))
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE events e`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE event_bookings`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		completed := pendingBooking(booking.EventID)
		completed.OrderID = booking.OrderID
		completed.UserID = booking.UserID
		completed.PaymentDetails.PaymentStatus = models.PaymentStatusCompleted
		completed.PaymentDetails.GatewayPaymentID = "rzp_pay_1"
		mock.ExpectQuery(`SELECT (.+) FROM event_bookings WHERE order_id`).
			WithArgs(booking.OrderID).
			WillReturnRows(bookingRow(completed))

		result, err := service.VerifyPayment(ctx, verifyRequest(booking), client)
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusCompleted, result.PaymentDetails.PaymentStatus)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Booking Not Found", func(t *testing.T) {
		service, mock, _, cleanup := setupBookingTest(t)
		defer cleanup()

		mock.ExpectQuery(`SELECT (.+) FROM event_bookings WHERE order_id`).
			WithArgs("BKG-missing").
			WillReturnRows(sqlmock.NewRows(bookingColumns))

		_, err := service.VerifyPayment(ctx, &models.VerifyPaymentRequest{
			OrderID:          "BKG-missing",
			GatewayOrderID:   "rzp_order_1",
			GatewayPaymentID: "rzp_pay_1",
			GatewaySignature: "sig_1",
		}, client)
		require.Error(t, err)
		assert.Equal(t, models.KindNotFound, models.KindOf(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Missing Attributes", func(t *testing.T) {
		service, _, _, cleanup := setupBookingTest(t)
		defer cleanup()

		_, err := service.VerifyPayment(ctx, &models.VerifyPaymentRequest{}, client)
		require.Error(t, err)
		assert.Equal(t, models.KindValidation, models.KindOf(err))
	})
}
