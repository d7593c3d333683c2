package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/eventmart/commerce-backend/internal/middleware"
	"github.com/eventmart/commerce-backend/internal/models"
	"github.com/eventmart/commerce-backend/internal/services"
	"github.com/eventmart/commerce-backend/internal/utils"
)

// EventBookingHandler exposes the booking and payment endpoints
type EventBookingHandler struct {
	bookings *services.EventBookingService
	logger   *logrus.Logger
}

// NewEventBookingHandler creates a new EventBookingHandler
func NewEventBookingHandler(bookings *services.EventBookingService, logger *logrus.Logger) *EventBookingHandler {
	return &EventBookingHandler{bookings: bookings, logger: logger}
}

// BookEvent handles POST /api/v1/events/book
func (h *EventBookingHandler) BookEvent(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		respondError(c, models.NewActionNotAllowedError("authentication required"))
		return
	}

	var req models.BookEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, models.NewValidationError("invalid request body"))
		return
	}

	confirmation, err := h.bookings.BookEvent(c.Request.Context(), user.UserID, &req, utils.GetClientInfo(c))
	if err != nil {
		h.logError(c, err)
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, "booking created", confirmation)
}

// VerifyPayment handles POST /api/v1/events/verify
func (h *EventBookingHandler) VerifyPayment(c *gin.Context) {
	if _, ok := middleware.GetUser(c); !ok {
		respondError(c, models.NewActionNotAllowedError("authentication required"))
		return
	}

	var req models.VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, models.NewValidationError("invalid request body"))
		return
	}

	booking, err := h.bookings.VerifyPayment(c.Request.Context(), &req, utils.GetClientInfo(c))
	if err != nil {
		h.logError(c, err)
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "payment verified", booking)
}

// GetBooking handles GET /api/v1/events/bookings/:orderId
func (h *EventBookingHandler) GetBooking(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		respondError(c, models.NewActionNotAllowedError("authentication required"))
		return
	}

	booking, err := h.bookings.GetBooking(user.UserID, c.Param("orderId"))
	if err != nil {
		h.logError(c, err)
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "booking fetched", booking)
}

// ListMyBookings handles GET /api/v1/events/bookings
func (h *EventBookingHandler) ListMyBookings(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		respondError(c, models.NewActionNotAllowedError("authentication required"))
		return
	}

	bookings, err := h.bookings.ListMyBookings(user.UserID)
	if err != nil {
		h.logError(c, err)
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "bookings fetched", bookings)
}

// ListEventBookings handles GET /api/v1/events/:id/bookings
func (h *EventBookingHandler) ListEventBookings(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		respondError(c, models.NewActionNotAllowedError("authentication required"))
		return
	}
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, models.NewValidationError("invalid event id"))
		return
	}

	bookings, err := h.bookings.ListEventBookings(user.UserID, eventID)
	if err != nil {
		h.logError(c, err)
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "bookings fetched", bookings)
}

func (h *EventBookingHandler) logError(c *gin.Context, err error) {
	if models.KindOf(err) == models.KindInternal {
		h.logger.WithError(err).WithField("path", c.Request.URL.Path).Error("Booking handler failure")
	}
}
