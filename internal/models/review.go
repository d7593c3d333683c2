package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ReviewReply is a seller response appended under a review.
type ReviewReply struct {
	UserID    uuid.UUID `json:"user_id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// ReviewReplies is stored as a JSONB array on the review row.
type ReviewReplies []ReviewReply

func (r ReviewReplies) Value() (driver.Value, error) {
	return json.Marshal(r)
}

func (r *ReviewReplies) Scan(value interface{}) error {
	if value == nil {
		*r = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed for ReviewReplies")
	}
	return json.Unmarshal(bytes, r)
}

// Review is a user rating on an event or product (reviews table).
// One review per (user, subject); re-submitting overwrites it.
type Review struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	UserID    uuid.UUID       `json:"user_id" db:"user_id"`
	SubjectID uuid.UUID       `json:"subject_id" db:"subject_id"`
	Type      TransactionType `json:"type" db:"type"`
	Rating    int             `json:"rating" db:"rating"`
	Comment   string          `json:"comment" db:"comment"`
	Replies   ReviewReplies   `json:"replies" db:"replies"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

// SubmitReviewRequest is the payload for POST /api/v1/reviews.
type SubmitReviewRequest struct {
	SubjectID string          `json:"subject_id"`
	Type      TransactionType `json:"type"`
	Rating    int             `json:"rating"`
	Comment   string          `json:"comment"`
}
