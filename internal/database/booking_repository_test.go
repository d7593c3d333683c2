package database

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventmart/commerce-backend/internal/models"
)

func setupBookingRepoTest(t *testing.T) (*BookingRepository, *sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	return NewBookingRepository(sqlxDB), sqlxDB, mock, func() { db.Close() }
}

var testBookingColumns = []string{
	"order_id", "order_number", "user_id", "event_id", "booking_date",
	"buyer_details", "ticket_details", "number_of_tickets", "ticket_price",
	"offer_discount_amount", "total_price", "payment_details", "created_at", "updated_at",
}

func testBooking() *models.EventBooking {
	return &models.EventBooking{
		OrderID:     "BKG-test1",
		OrderNumber: "BKG-20260815-AB12CD",
		UserID:      uuid.New(),
		EventID:     uuid.New(),
		BookingDate: time.Now(),
		BuyerDetails: models.BuyerDetails{
			Name:  "Saman Fernando",
			Email: "saman@example.com",
		},
		TicketDetails:   models.TicketRequests{{CategoryName: "General", Quantity: 2}},
		NumberOfTickets: 2,
		TicketPrice:     100,
		TotalPrice:      100,
		PaymentDetails: models.PaymentDetails{
			GatewayOrderID:  "rzp_order_9",
			PaymentStatus:   models.PaymentStatusPending,
			TransactionType: models.TransactionTypeEvent,
		},
	}
}

func TestCreateBooking(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		repo, _, mock, cleanup := setupBookingRepoTest(t)
		defer cleanup()

		booking := testBooking()
		mock.ExpectExec(`INSERT INTO event_bookings`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Create(booking)
		require.NoError(t, err)
		assert.False(t, booking.CreatedAt.IsZero())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Database Error", func(t *testing.T) {
		repo, _, mock, cleanup := setupBookingRepoTest(t)
		defer cleanup()

		mock.ExpectExec(`INSERT INTO event_bookings`).
			WillReturnError(fmt.Errorf("connection reset"))

		err := repo.Create(testBooking())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to insert booking")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetBookingByOrderID(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		repo, _, mock, cleanup := setupBookingRepoTest(t)
		defer cleanup()

		booking := testBooking()
		buyer, _ := json.Marshal(booking.BuyerDetails)
		tickets, _ := json.Marshal(booking.TicketDetails)
		payment, _ := json.Marshal(booking.PaymentDetails)
		now := time.Now()

		mock.ExpectQuery(`SELECT (.+) FROM event_bookings WHERE order_id`).
			WithArgs(booking.OrderID).
			WillReturnRows(sqlmock.NewRows(testBookingColumns).AddRow(
				booking.OrderID, booking.OrderNumber, booking.UserID, booking.EventID, booking.BookingDate,
				buyer, tickets, booking.NumberOfTickets, booking.TicketPrice,
				booking.OfferDiscountAmount, booking.TotalPrice, payment, now, now,
			))

		got, err := repo.GetByOrderID(booking.OrderID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, booking.OrderID, got.OrderID)
		assert.Equal(t, models.PaymentStatusPending, got.PaymentDetails.PaymentStatus)
		assert.Equal(t, "Saman Fernando", got.BuyerDetails.Name)
		require.Len(t, got.TicketDetails, 1)
		assert.Equal(t, 2, got.TicketDetails[0].Quantity)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found", func(t *testing.T) {
		repo, _, mock, cleanup := setupBookingRepoTest(t)
		defer cleanup()

		mock.ExpectQuery(`SELECT (.+) FROM event_bookings WHERE order_id`).
			WithArgs("BKG-missing").
			WillReturnRows(sqlmock.NewRows(testBookingColumns))

		got, err := repo.GetByOrderID("BKG-missing")
		require.NoError(t, err)
		assert.Nil(t, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMarkBookingCompleted(t *testing.T) {
	t.Run("Pending Booking Completes", func(t *testing.T) {
		repo, sqlxDB, mock, cleanup := setupBookingRepoTest(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE event_bookings`).
			WithArgs("BKG-test1", "rzp_pay_9").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		tx, err := sqlxDB.Beginx()
		require.NoError(t, err)

		completed, err := repo.MarkCompleted(tx, "BKG-test1", "rzp_pay_9")
		require.NoError(t, err)
		assert.True(t, completed)
		require.NoError(t, tx.Commit())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Already Completed Matches Zero Rows", func(t *testing.T) {
		repo, sqlxDB, mock, cleanup := setupBookingRepoTest(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE event_bookings`).
			WithArgs("BKG-test1", "rzp_pay_9").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		tx, err := sqlxDB.Beginx()
		require.NoError(t, err)

		completed, err := repo.MarkCompleted(tx, "BKG-test1", "rzp_pay_9")
		require.NoError(t, err)
		assert.False(t, completed)
		require.NoError(t, tx.Rollback())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMarkExpiredOlderThan(t *testing.T) {
	repo, _, mock, cleanup := setupBookingRepoTest(t)
	defer cleanup()

	cutoff := time.Now().Add(-24 * time.Hour)
	mock.ExpectExec(`UPDATE event_bookings`).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 3))

	expired, err := repo.MarkExpiredOlderThan(cutoff)
	require.NoError(t, err)
	assert.Equal(t, 3, expired)
	assert.NoError(t, mock.ExpectationsWereMet())
}
