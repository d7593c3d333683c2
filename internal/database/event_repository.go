package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/eventmart/commerce-backend/internal/models"
)

// EventRepository handles events database operations
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository creates a new EventRepository
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// ============================================================================
// EVENT CRUD OPERATIONS
// ============================================================================

// Create inserts a new event
func (r *EventRepository) Create(event *models.Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	event.CreatedAt = time.Now()
	event.UpdatedAt = event.CreatedAt

	query := `
		INSERT INTO events (
			id, user_id, title, description, categories, is_online,
			platform_details, venue_details, start_at, end_at, publish_status,
			tickets, total_tickets, total_tickets_sold, offer, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17
		)`

	_, err := r.db.Exec(query,
		event.ID, event.UserID, event.Title, event.Description, event.Categories, event.IsOnline,
		event.PlatformDetails, event.VenueDetails, event.StartAt, event.EndAt, event.PublishStatus,
		event.Tickets, event.TotalTickets, event.TotalTicketsSold, event.Offer,
		event.CreatedAt, event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

// GetByID retrieves an event by ID. Returns nil when not found.
func (r *EventRepository) GetByID(id uuid.UUID) (*models.Event, error) {
	query := `
		SELECT id, user_id, title, description, categories, is_online,
			   platform_details, venue_details, start_at, end_at, publish_status,
			   tickets, total_tickets, total_tickets_sold, offer, created_at, updated_at
		FROM events
		WHERE id = $1`

	var event models.Event
	err := r.db.Get(&event, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// List returns published events matching the filters, newest first,
// with the total match count for pagination metadata.
func (r *EventRepository) List(filters models.EventFilters, page, limit int) ([]models.Event, int, error) {
	where := `WHERE publish_status = 'published'`
	args := []interface{}{}
	argIdx := 1

	if filters.StartDate != nil {
		where += fmt.Sprintf(" AND start_at >= $%d", argIdx)
		args = append(args, *filters.StartDate)
		argIdx++
	}
	if filters.EndDate != nil {
		where += fmt.Sprintf(" AND start_at <= $%d", argIdx)
		args = append(args, *filters.EndDate)
		argIdx++
	}
	switch filters.EventType {
	case "online":
		where += " AND is_online = true"
	case "in_person":
		where += " AND is_online = false"
	}
	if filters.Search != "" {
		where += fmt.Sprintf(" AND title ILIKE $%d", argIdx)
		args = append(args, "%"+filters.Search+"%")
		argIdx++
	}
	if filters.PriceMin != nil || filters.PriceMax != nil {
		min := 0.0
		max := 1e12
		if filters.PriceMin != nil {
			min = *filters.PriceMin
		}
		if filters.PriceMax != nil {
			max = *filters.PriceMax
		}
		where += fmt.Sprintf(` AND EXISTS (
			SELECT 1 FROM jsonb_array_elements(tickets) t
			WHERE (t->>'price')::numeric BETWEEN $%d AND $%d
		)`, argIdx, argIdx+1)
		args = append(args, min, max)
		argIdx += 2
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM events ` + where
	if err := r.db.Get(&total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count events: %w", err)
	}

	listQuery := fmt.Sprintf(`
		SELECT id, user_id, title, description, categories, is_online,
			   platform_details, venue_details, start_at, end_at, publish_status,
			   tickets, total_tickets, total_tickets_sold, offer, created_at, updated_at
		FROM events
		%s
		ORDER BY start_at ASC
		LIMIT $%d OFFSET $%d`, where, argIdx, argIdx+1)
	args = append(args, limit, (page-1)*limit)

	var events []models.Event
	if err := r.db.Select(&events, listQuery, args...); err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

// ListByUser returns all events owned by a user, including drafts.
func (r *EventRepository) ListByUser(userID uuid.UUID) ([]models.Event, error) {
	query := `
		SELECT id, user_id, title, description, categories, is_online,
			   platform_details, venue_details, start_at, end_at, publish_status,
			   tickets, total_tickets, total_tickets_sold, offer, created_at, updated_at
		FROM events
		WHERE user_id = $1
		ORDER BY created_at DESC`

	var events []models.Event
	err := r.db.Select(&events, query, userID)
	if err != nil {
		return nil, err
	}
	return events, nil
}

// Update rewrites the mutable event fields
func (r *EventRepository) Update(event *models.Event) error {
	query := `
		UPDATE events
		SET title = $1, description = $2, categories = $3, is_online = $4,
			platform_details = $5, venue_details = $6, start_at = $7, end_at = $8,
			publish_status = $9, tickets = $10, total_tickets = $11, offer = $12,
			updated_at = $13
		WHERE id = $14`

	result, err := r.db.Exec(query,
		event.Title, event.Description, event.Categories, event.IsOnline,
		event.PlatformDetails, event.VenueDetails, event.StartAt, event.EndAt,
		event.PublishStatus, event.Tickets, event.TotalTickets, event.Offer,
		time.Now(), event.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes an event
func (r *EventRepository) Delete(id uuid.UUID) error {
	result, err := r.db.Exec(`DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ============================================================================
// INVENTORY
// ============================================================================

// IncrementTicketsSold bumps the sold counters for the requested
// categories in a single conditional UPDATE. The WHERE predicate
// re-checks every category's capacity inside the statement, so two
// concurrent payment verifications cannot oversell: the loser sees
// zero rows affected and returns false.
func (r *EventRepository) IncrementTicketsSold(tx *sqlx.Tx, eventID uuid.UUID, requests models.TicketRequests) (bool, error) {
	reqJSON, err := json.Marshal(requests)
	if err != nil {
		return false, fmt.Errorf("failed to marshal ticket requests: %w", err)
	}

	query := `
		UPDATE events e
		SET tickets = (
				SELECT jsonb_agg(
					CASE WHEN r.quantity IS NOT NULL
						THEN t.elem || jsonb_build_object('tickets_sold', (t.elem->>'tickets_sold')::int + r.quantity)
						ELSE t.elem
					END
					ORDER BY t.ord)
				FROM jsonb_array_elements(e.tickets) WITH ORDINALITY t(elem, ord)
				LEFT JOIN jsonb_to_recordset($2::jsonb) AS r(category_name text, quantity int)
					ON r.category_name = t.elem->>'category_name'
			),
			total_tickets_sold = e.total_tickets_sold + $3,
			updated_at = NOW()
		WHERE e.id = $1
		  AND NOT EXISTS (
				SELECT 1
				FROM jsonb_array_elements(e.tickets) t(elem)
				JOIN jsonb_to_recordset($2::jsonb) AS r(category_name text, quantity int)
					ON r.category_name = t.elem->>'category_name'
				WHERE (t.elem->>'tickets_sold')::int + r.quantity > (t.elem->>'audience_capacity')::int
			)`

	result, err := tx.Exec(query, eventID, string(reqJSON), requests.TotalQuantity())
	if err != nil {
		return false, fmt.Errorf("failed to increment tickets sold: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	return rowsAffected > 0, nil
}
