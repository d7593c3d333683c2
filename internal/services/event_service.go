package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/eventmart/commerce-backend/internal/cache"
	"github.com/eventmart/commerce-backend/internal/database"
	"github.com/eventmart/commerce-backend/internal/models"
)

// editLockWindow blocks edits and deletes when the event starts this
// close to now.
const editLockWindow = 24 * time.Hour

// EventService handles event catalog operations
type EventService struct {
	events  *database.EventRepository
	catalog *cache.CatalogCache
	logger  *logrus.Logger
}

// NewEventService creates a new EventService
func NewEventService(events *database.EventRepository, catalog *cache.CatalogCache, logger *logrus.Logger) *EventService {
	return &EventService{
		events:  events,
		catalog: catalog,
		logger:  logger,
	}
}

// CreateEvent validates and persists a new draft event
func (s *EventService) CreateEvent(userID uuid.UUID, req *models.CreateEventRequest) (*models.Event, error) {
	if err := validateEventRequest(req); err != nil {
		return nil, err
	}

	totalTickets := 0
	for _, t := range req.Tickets {
		totalTickets += t.AudienceCapacity
	}

	event := &models.Event{
		UserID:          userID,
		Title:           req.Title,
		Description:     req.Description,
		Categories:      req.Categories,
		IsOnline:        *req.IsOnline,
		PlatformDetails: req.PlatformDetails,
		VenueDetails:    req.VenueDetails,
		StartAt:         req.StartAt,
		EndAt:           req.EndAt,
		PublishStatus:   models.EventStatusDraft,
		Tickets:         req.Tickets,
		TotalTickets:    totalTickets,
		Offer:           req.Offer,
	}

	if err := s.events.Create(event); err != nil {
		return nil, models.NewInternalError("failed to create event", err)
	}

	s.logger.WithFields(logrus.Fields{
		"event_id": event.ID,
		"user_id":  userID,
	}).Info("Event created")

	return event, nil
}

// GetEvent loads an event, serving repeated reads from the cache
func (s *EventService) GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	if cached, err := s.catalog.GetEvent(ctx, id); err == nil && cached != nil {
		return cached, nil
	} else if err != nil {
		s.logger.WithError(err).Warn("Event cache read failed")
	}

	event, err := s.events.GetByID(id)
	if err != nil {
		return nil, models.NewInternalError("failed to load event", err)
	}
	if event == nil {
		return nil, models.NewNotFoundError("event not found")
	}

	if err := s.catalog.SetEvent(ctx, event); err != nil {
		s.logger.WithError(err).Warn("Event cache write failed")
	}
	return event, nil
}

// ListEvents returns published events with pagination metadata
func (s *EventService) ListEvents(filters models.EventFilters, p models.Pagination) ([]models.Event, models.PageMeta, error) {
	events, total, err := s.events.List(filters, p.Page, p.Limit)
	if err != nil {
		return nil, models.PageMeta{}, models.NewInternalError("failed to list events", err)
	}
	return events, models.NewPageMeta(p, total), nil
}

// ListMyEvents returns every event owned by the user, drafts included
func (s *EventService) ListMyEvents(userID uuid.UUID) ([]models.Event, error) {
	events, err := s.events.ListByUser(userID)
	if err != nil {
		return nil, models.NewInternalError("failed to list events", err)
	}
	return events, nil
}

// UpdateEvent rewrites an event the user owns. Events starting within
// 24 hours are locked against edits.
func (s *EventService) UpdateEvent(ctx context.Context, userID, eventID uuid.UUID, req *models.CreateEventRequest) (*models.Event, error) {
	event, err := s.loadOwnedUnlocked(userID, eventID)
	if err != nil {
		return nil, err
	}

	if err := validateEventRequest(req); err != nil {
		return nil, err
	}

	totalTickets := 0
	for _, t := range req.Tickets {
		totalTickets += t.AudienceCapacity
	}

	// Sold counters come from the stored event, never the payload.
	sold := make(map[string]int, len(event.Tickets))
	for _, t := range event.Tickets {
		sold[t.CategoryName] = t.TicketsSold
	}
	for i := range req.Tickets {
		req.Tickets[i].TicketsSold = sold[req.Tickets[i].CategoryName]
	}

	event.Title = req.Title
	event.Description = req.Description
	event.Categories = req.Categories
	event.IsOnline = *req.IsOnline
	event.PlatformDetails = req.PlatformDetails
	event.VenueDetails = req.VenueDetails
	event.StartAt = req.StartAt
	event.EndAt = req.EndAt
	event.Tickets = req.Tickets
	event.TotalTickets = totalTickets
	event.Offer = req.Offer

	if err := s.events.Update(event); err != nil {
		return nil, models.NewInternalError("failed to update event", err)
	}

	if err := s.catalog.InvalidateEvent(ctx, eventID); err != nil {
		s.logger.WithError(err).Warn("Event cache invalidation failed")
	}
	return event, nil
}

// PublishEvent flips a draft event to published
func (s *EventService) PublishEvent(ctx context.Context, userID, eventID uuid.UUID) (*models.Event, error) {
	event, err := s.loadOwned(userID, eventID)
	if err != nil {
		return nil, err
	}
	if event.PublishStatus == models.EventStatusPublished {
		return event, nil
	}

	event.PublishStatus = models.EventStatusPublished
	if err := s.events.Update(event); err != nil {
		return nil, models.NewInternalError("failed to publish event", err)
	}

	if err := s.catalog.InvalidateEvent(ctx, eventID); err != nil {
		s.logger.WithError(err).Warn("Event cache invalidation failed")
	}

	s.logger.WithField("event_id", eventID).Info("Event published")
	return event, nil
}

// DeleteEvent removes an event the user owns, unless it starts within
// 24 hours.
func (s *EventService) DeleteEvent(ctx context.Context, userID, eventID uuid.UUID) error {
	if _, err := s.loadOwnedUnlocked(userID, eventID); err != nil {
		return err
	}

	if err := s.events.Delete(eventID); err != nil {
		return models.NewInternalError("failed to delete event", err)
	}

	if err := s.catalog.InvalidateEvent(ctx, eventID); err != nil {
		s.logger.WithError(err).Warn("Event cache invalidation failed")
	}

	s.logger.WithField("event_id", eventID).Info("Event deleted")
	return nil
}

// loadOwned loads an event and checks ownership
func (s *EventService) loadOwned(userID, eventID uuid.UUID) (*models.Event, error) {
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
	return event, nil
}

// loadOwnedUnlocked additionally enforces the 24 hour edit lock
func (s *EventService) loadOwnedUnlocked(userID, eventID uuid.UUID) (*models.Event, error) {
	event, err := s.loadOwned(userID, eventID)
	if err != nil {
		return nil, err
	}
	if event.StartsWithin(editLockWindow, time.Now()) {
		return nil, models.NewActionNotAllowedError("event cannot be modified within 24 hours of its start")
	}
	return event, nil
}

// validateEventRequest checks the create/update payload and reports
// every missing attribute at once.
func validateEventRequest(req *models.CreateEventRequest) error {
	var missing []string
	if req.Title == "" {
		missing = append(missing, "title")
	}
	if req.IsOnline == nil {
		missing = append(missing, "is_online")
	}
	if req.StartAt.IsZero() {
		missing = append(missing, "start_at")
	}
	if req.EndAt.IsZero() {
		missing = append(missing, "end_at")
	}
	if len(req.Tickets) == 0 {
		missing = append(missing, "tickets")
	}
	if req.IsOnline != nil {
		if *req.IsOnline && req.PlatformDetails == nil {
			missing = append(missing, "platform_details")
		}
		if !*req.IsOnline && req.VenueDetails == nil {
			missing = append(missing, "venue_details")
		}
	}
	if len(missing) > 0 {
		return models.NewValidationError("missing required attributes: " + strings.Join(missing, ", "))
	}

	if !req.StartAt.Before(req.EndAt) {
		return models.NewValidationError("start_at must be before end_at")
	}
	for _, t := range req.Tickets {
		if t.CategoryName == "" {
			return models.NewValidationError("ticket category_name is required")
		}
		if t.Price < 0 {
			return models.NewValidationError(fmt.Sprintf("ticket category '%s' has a negative price", t.CategoryName))
		}
		if t.AudienceCapacity <= 0 {
			return models.NewValidationError(fmt.Sprintf("ticket category '%s' needs a positive capacity", t.CategoryName))
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
