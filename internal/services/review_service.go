package services

import (
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/eventmart/commerce-backend/internal/database"
	"github.com/eventmart/commerce-backend/internal/models"
)

// ReviewService handles ratings on events and products
type ReviewService struct {
	reviews  *database.ReviewRepository
	events   *database.EventRepository
	products *database.ProductRepository
	logger   *logrus.Logger
}

// NewReviewService creates a new ReviewService
func NewReviewService(
	reviews *database.ReviewRepository,
	events *database.EventRepository,
	products *database.ProductRepository,
	logger *logrus.Logger,
) *ReviewService {
	return &ReviewService{
		reviews:  reviews,
		events:   events,
		products: products,
		logger:   logger,
	}
}

// SubmitReview writes a user's review of an event or product. A
// repeat submission from the same user replaces the earlier review.
func (s *ReviewService) SubmitReview(userID uuid.UUID, req *models.SubmitReviewRequest) (*models.Review, error) {
	if req.SubjectID == "" {
		return nil, models.NewValidationError("missing required attributes: subject_id")
	}
	if req.Rating < 1 || req.Rating > 5 {
		return nil, models.NewValidationError("rating must be between 1 and 5")
	}

	subjectID, err := uuid.Parse(req.SubjectID)
	if err != nil {
		return nil, models.NewValidationError("subject_id is not a valid id")
	}

	switch req.Type {
	case models.TransactionTypeEvent:
		event, err := s.events.GetByID(subjectID)
		if err != nil {
			return nil, models.NewInternalError("failed to load event", err)
		}
		if event == nil {
			return nil, models.NewNotFoundError("event not found")
		}
	case models.TransactionTypeProduct:
		product, err := s.products.GetByID(subjectID)
		if err != nil {
			return nil, models.NewInternalError("failed to load product", err)
		}
		if product == nil {
			return nil, models.NewNotFoundError("product not found")
		}
	default:
		return nil, models.NewValidationError("type must be 'event' or 'product'")
	}

	review := &models.Review{
		UserID:    userID,
		SubjectID: subjectID,
		Type:      req.Type,
		Rating:    req.Rating,
		Comment:   req.Comment,
	}
	if err := s.reviews.Upsert(review); err != nil {
		return nil, models.NewInternalError("failed to save review", err)
	}
	return review, nil
}

// SubjectReviews returns a subject's reviews with its aggregate rating
func (s *ReviewService) SubjectReviews(subjectID uuid.UUID) ([]models.Review, float64, int, error) {
	reviews, err := s.reviews.ListBySubject(subjectID)
	if err != nil {
		return nil, 0, 0, models.NewInternalError("failed to list reviews", err)
	}
	average, count, err := s.reviews.AverageRating(subjectID)
	if err != nil {
		return nil, 0, 0, models.NewInternalError("failed to compute rating", err)
	}
	return reviews, average, count, nil
}

// ReplyToReview appends a seller reply under a review. Only the owner
// of the reviewed event or product may reply.
func (s *ReviewService) ReplyToReview(userID, reviewID uuid.UUID, message string) error {
	if message == "" {
		return models.NewValidationError("missing required attributes: message")
	}

	review, err := s.reviews.GetByID(reviewID)
	if err != nil {
		return models.NewInternalError("failed to load review", err)
	}
	if review == nil {
		return models.NewNotFoundError("review not found")
	}

	ownerID, err := s.subjectOwner(review)
	if err != nil {
		return err
	}
	if ownerID != userID {
		return models.NewActionNotAllowedError("only the seller can reply to reviews")
	}

	reply := models.ReviewReply{
		UserID:    userID,
		Message:   message,
		CreatedAt: time.Now(),
	}
	if err := s.reviews.AppendReply(reviewID, reply); err != nil {
		return models.NewInternalError("failed to save reply", err)
	}
	return nil
}

// DeleteReply removes the caller's own reply from a review
func (s *ReviewService) DeleteReply(userID, reviewID uuid.UUID) error {
	review, err := s.reviews.GetByID(reviewID)
	if err != nil {
		return models.NewInternalError("failed to load review", err)
	}
	if review == nil {
		return models.NewNotFoundError("review not found")
	}

	hasReply := false
	for _, reply := range review.Replies {
		if reply.UserID == userID {
			hasReply = true
			break
		}
	}
	if !hasReply {
		return models.NewNotFoundError("reply not found")
	}

	if err := s.reviews.RemoveReply(reviewID, userID); err != nil {
		return models.NewInternalError("failed to remove reply", err)
	}
	return nil
}

// DeleteReview removes the user's own review
func (s *ReviewService) DeleteReview(userID, reviewID uuid.UUID) error {
	if err := s.reviews.Delete(userID, reviewID); err != nil {
		return models.NewNotFoundError("review not found")
	}
	return nil
}

func (s *ReviewService) subjectOwner(review *models.Review) (uuid.UUID, error) {
	switch review.Type {
	case models.TransactionTypeEvent:
		event, err := s.events.GetByID(review.SubjectID)
		if err != nil {
			return uuid.Nil, models.NewInternalError("failed to load event", err)
		}
		if event == nil {
			return uuid.Nil, models.NewNotFoundError("event not found")
		}
		return event.UserID, nil
	case models.TransactionTypeProduct:
		product, err := s.products.GetByID(review.SubjectID)
		if err != nil {
			return uuid.Nil, models.NewInternalError("failed to load product", err)
		}
		if product == nil {
			return uuid.Nil, models.NewNotFoundError("product not found")
		}
		return product.UserID, nil
	}
	return uuid.Nil, models.NewInternalError("unknown review type", nil)
}
