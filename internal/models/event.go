package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// EventPublishStatus matches PostgreSQL ENUM: event_publish_status
type EventPublishStatus string

const (
	EventStatusDraft     EventPublishStatus = "draft"
	EventStatusPublished EventPublishStatus = "published"
)

// TicketCategory is a priceable unit of an event: its own price,
// capacity share and sold counter.
type TicketCategory struct {
	CategoryName     string  `json:"category_name"`
	Price            float64 `json:"price"`
	AudienceCapacity int     `json:"audience_capacity"`
	TicketsSold      int     `json:"tickets_sold"`
}

// TicketCategories is stored as a JSONB column.
type TicketCategories []TicketCategory

func (t TicketCategories) Value() (driver.Value, error) {
	return json.Marshal(t)
}

func (t *TicketCategories) Scan(value interface{}) error {
	if value == nil {
		*t = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed for TicketCategories")
	}
	return json.Unmarshal(bytes, t)
}

// Offer is a time/quantity-bounded percentage discount attached to an
// event or a product. StartAt/EndAt are optional; when present the
// discount only applies inside the window.
type Offer struct {
	Percentage  float64    `json:"percentage"`
	QuantityCap int        `json:"quantity_cap"`
	StartAt     *time.Time `json:"start_at,omitempty"`
	EndAt       *time.Time `json:"end_at,omitempty"`
}

func (o Offer) Value() (driver.Value, error) {
	return json.Marshal(o)
}

func (o *Offer) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed for Offer")
	}
	return json.Unmarshal(bytes, o)
}

// PlatformDetails describes where an online event is hosted.
type PlatformDetails struct {
	Platform string `json:"platform"`
	JoinURL  string `json:"join_url"`
}

func (p PlatformDetails) Value() (driver.Value, error) {
	return json.Marshal(p)
}

func (p *PlatformDetails) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed for PlatformDetails")
	}
	return json.Unmarshal(bytes, p)
}

// VenueDetails describes where an in-person event takes place.
type VenueDetails struct {
	VenueName string `json:"venue_name"`
	Address   string `json:"address"`
	City      string `json:"city"`
}

func (v VenueDetails) Value() (driver.Value, error) {
	return json.Marshal(v)
}

func (v *VenueDetails) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed for VenueDetails")
	}
	return json.Unmarshal(bytes, v)
}

// StringSlice is stored as a JSONB array (category ids on events/products).
type StringSlice []string

func (s StringSlice) Value() (driver.Value, error) {
	return json.Marshal(s)
}

func (s *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed for StringSlice")
	}
	return json.Unmarshal(bytes, s)
}

// Event represents a sellable event (events table).
type Event struct {
	ID               uuid.UUID          `json:"id" db:"id"`
	UserID           uuid.UUID          `json:"user_id" db:"user_id"`
	Title            string             `json:"title" db:"title"`
	Description      string             `json:"description" db:"description"`
	Categories       StringSlice        `json:"categories" db:"categories"`
	IsOnline         bool               `json:"is_online" db:"is_online"`
	PlatformDetails  *PlatformDetails   `json:"platform_details,omitempty" db:"platform_details"`
	VenueDetails     *VenueDetails      `json:"venue_details,omitempty" db:"venue_details"`
	StartAt          time.Time          `json:"start_at" db:"start_at"`
	EndAt            time.Time          `json:"end_at" db:"end_at"`
	PublishStatus    EventPublishStatus `json:"publish_status" db:"publish_status"`
	Tickets          TicketCategories   `json:"tickets" db:"tickets"`
	TotalTickets     int                `json:"total_tickets" db:"total_tickets"`
	TotalTicketsSold int                `json:"total_tickets_sold" db:"total_tickets_sold"`
	Offer            *Offer             `json:"offer,omitempty" db:"offer"`
	CreatedAt        time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at" db:"updated_at"`
}

// TicketByCategory returns the ticket category with the given name.
func (e *Event) TicketByCategory(name string) (*TicketCategory, bool) {
	for i := range e.Tickets {
		if e.Tickets[i].CategoryName == name {
			return &e.Tickets[i], true
		}
	}
	return nil, false
}

// StartsWithin reports whether the event starts within d from now.
// Updates and deletes are refused inside this guard window.
func (e *Event) StartsWithin(d time.Duration, now time.Time) bool {
	diff := e.StartAt.Sub(now)
	if diff < 0 {
		diff = -diff
	}
	return diff <= d
}

// EventFilters narrows the event listing.
type EventFilters struct {
	StartDate *time.Time
	EndDate   *time.Time
	EventType string // "online", "in_person" or "all"
	PriceMin  *float64
	PriceMax  *float64
	Search    string // case-insensitive title match
}

// CreateEventRequest is the payload for POST /api/v1/events.
type CreateEventRequest struct {
	Title           string           `json:"title"`
	Description     string           `json:"description"`
	Categories      []string         `json:"categories"`
	IsOnline        *bool            `json:"is_online"`
	PlatformDetails *PlatformDetails `json:"platform_details"`
	VenueDetails    *VenueDetails    `json:"venue_details"`
	StartAt         time.Time        `json:"start_at"`
	EndAt           time.Time        `json:"end_at"`
	Tickets         TicketCategories `json:"tickets"`
	TotalTickets    int              `json:"total_tickets"`
	Offer           *Offer           `json:"offer"`
}
