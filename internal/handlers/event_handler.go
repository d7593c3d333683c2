package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/eventmart/commerce-backend/internal/middleware"
	"github.com/eventmart/commerce-backend/internal/models"
	"github.com/eventmart/commerce-backend/internal/services"
)

// EventHandler exposes the event catalog endpoints
type EventHandler struct {
	events *services.EventService
	logger *logrus.Logger
}

// NewEventHandler creates a new EventHandler
func NewEventHandler(events *services.EventService, logger *logrus.Logger) *EventHandler {
	return &EventHandler{events: events, logger: logger}
}

// CreateEvent handles POST /api/v1/events
func (h *EventHandler) CreateEvent(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		respondError(c, models.NewActionNotAllowedError("authentication required"))
		return
	}

	var req models.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, models.NewValidationError("invalid request body"))
		return
	}

	event, err := h.events.CreateEvent(user.UserID, &req)
	if err != nil {
		h.logError(c, err)
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, "event created", event)
}

// GetEvent handles GET /api/v1/events/:id
func (h *EventHandler) GetEvent(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, models.NewValidationError("invalid event id"))
		return
	}

	event, err := h.events.GetEvent(c.Request.Context(), id)
	if err != nil {
		h.logError(c, err)
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "event fetched", event)
}

// ListEvents handles GET /api/v1/events
func (h *EventHandler) ListEvents(c *gin.Context) {
	filters := parseEventFilters(c)
	pagination := parsePagination(c)

	events, meta, err := h.events.ListEvents(filters, pagination)
	if err != nil {
		h.logError(c, err)
		respondError(c, err)
		return
	}
	respondPage(c, "events fetched", events, meta)
}

// ListMyEvents handles GET /api/v1/events/mine
func (h *EventHandler) ListMyEvents(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		respondError(c, models.NewActionNotAllowedError("authentication required"))
		return
	}

	events, err := h.events.ListMyEvents(user.UserID)
	if err != nil {
		h.logError(c, err)
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "events fetched", events)
}

// UpdateEvent handles PUT /api/v1/events/:id
func (h *EventHandler) UpdateEvent(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		respondError(c, models.NewActionNotAllowedError("authentication required"))
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, models.NewValidationError("invalid event id"))
		return
	}

	var req models.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, models.NewValidationError("invalid request body"))
		return
	}

	event, err := h.events.UpdateEvent(c.Request.Context(), user.UserID, id, &req)
	if err != nil {
		h.logError(c, err)
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "event updated", event)
}

// PublishEvent handles PATCH /api/v1/events/:id/publish
func (h *EventHandler) PublishEvent(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		respondError(c, models.NewActionNotAllowedError("authentication required"))
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, models.NewValidationError("invalid event id"))
		return
	}

	event, err := h.events.PublishEvent(c.Request.Context(), user.UserID, id)
	if err != nil {
		h.logError(c, err)
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "event published", event)
}

// DeleteEvent handles DELETE /api/v1/events/:id
func (h *EventHandler) DeleteEvent(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		respondError(c, models.NewActionNotAllowedError("authentication required"))
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, models.NewValidationError("invalid event id"))
		return
	}

	if err := h.events.DeleteEvent(c.Request.Context(), user.UserID, id); err != nil {
		h.logError(c, err)
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "event deleted", nil)
}

func (h *EventHandler) logError(c *gin.Context, err error) {
	if models.KindOf(err) == models.KindInternal {
		h.logger.WithError(err).WithField("path", c.Request.URL.Path).Error("Event handler failure")
	}
}

// parseEventFilters reads the listing filters from the query string
func parseEventFilters(c *gin.Context) models.EventFilters {
	filters := models.EventFilters{
		EventType: c.Query("event_type"),
		Search:    c.Query("search"),
	}

	if raw := c.Query("start_date"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			filters.StartDate = &t
		}
	}
	if raw := c.Query("end_date"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			filters.EndDate = &t
		}
	}
	if raw := c.Query("price_min"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			filters.PriceMin = &v
		}
	}
	if raw := c.Query("price_max"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			filters.PriceMax = &v
		}
	}
	return filters
}

// parsePagination reads and clamps page/limit from the query string
func parsePagination(c *gin.Context) models.Pagination {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	return models.NormalizePagination(page, limit)
}
