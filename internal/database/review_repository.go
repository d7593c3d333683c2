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

// ReviewRepository handles reviews database operations
type ReviewRepository struct {
	db *sqlx.DB
}

// NewReviewRepository creates a new ReviewRepository
func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Upsert writes a review, replacing the user's earlier review of the
// same subject if one exists. One review per (user, subject).
func (r *ReviewRepository) Upsert(review *models.Review) error {
	if review.ID == uuid.Nil {
		review.ID = uuid.New()
	}
	now := time.Now()

	query := `
		INSERT INTO reviews (id, user_id, subject_id, type, rating, comment, replies, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, '[]'::jsonb, $7, $8)
		ON CONFLICT (user_id, subject_id)
		DO UPDATE SET rating = EXCLUDED.rating, comment = EXCLUDED.comment, updated_at = EXCLUDED.updated_at`

	_, err := r.db.Exec(query,
		review.ID, review.UserID, review.SubjectID, review.Type,
		review.Rating, review.Comment, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert review: %w", err)
	}
	return nil
}

// ListBySubject returns reviews for an event or product, newest first
func (r *ReviewRepository) ListBySubject(subjectID uuid.UUID) ([]models.Review, error) {
	query := `
		SELECT id, user_id, subject_id, type, rating, comment, replies, created_at, updated_at
		FROM reviews
		WHERE subject_id = $1
		ORDER BY created_at DESC`

	var reviews []models.Review
	err := r.db.Select(&reviews, query, subjectID)
	if err != nil {
		return nil, err
	}
	return reviews, nil
}

// GetByID retrieves a review by ID. Returns nil when not found.
func (r *ReviewRepository) GetByID(id uuid.UUID) (*models.Review, error) {
	query := `
		SELECT id, user_id, subject_id, type, rating, comment, replies, created_at, updated_at
		FROM reviews
		WHERE id = $1`

	var review models.Review
	err := r.db.Get(&review, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// AppendReply appends a reply to the review's replies array
func (r *ReviewRepository) AppendReply(reviewID uuid.UUID, reply models.ReviewReply) error {
	replyJSON, err := json.Marshal(reply)
	if err != nil {
		return fmt.Errorf("failed to marshal reply: %w", err)
	}

	query := `
		UPDATE reviews
		SET replies = replies || $2::jsonb, updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.Exec(query, reviewID, string(replyJSON))
	if err != nil {
		return fmt.Errorf("failed to append reply: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// RemoveReply drops the given user's reply from the review's replies
// array. Replies are keyed by user, one per review.
func (r *ReviewRepository) RemoveReply(reviewID, replyUserID uuid.UUID) error {
	query := `
		UPDATE reviews
		SET replies = COALESCE(
			(SELECT jsonb_agg(reply) FROM jsonb_array_elements(replies) AS reply
			 WHERE reply->>'user_id' <> $2),
			'[]'::jsonb),
		    updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.Exec(query, reviewID, replyUserID.String())
	if err != nil {
		return fmt.Errorf("failed to remove reply: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// AverageRating returns the mean rating and count for a subject
func (r *ReviewRepository) AverageRating(subjectID uuid.UUID) (float64, int, error) {
	var result struct {
		Average sql.NullFloat64 `db:"average"`
		Count   int             `db:"count"`
	}
	query := `SELECT AVG(rating) AS average, COUNT(*) AS count FROM reviews WHERE subject_id = $1`
	if err := r.db.Get(&result, query, subjectID); err != nil {
		return 0, 0, err
	}
	return result.Average.Float64, result.Count, nil
}

// Delete removes a review owned by the user
func (r *ReviewRepository) Delete(userID, reviewID uuid.UUID) error {
	result, err := r.db.Exec(`DELETE FROM reviews WHERE id = $1 AND user_id = $2`, reviewID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
