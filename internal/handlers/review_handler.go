package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/eventmart/commerce-backend/internal/middleware"
	"github.com/eventmart/commerce-backend/internal/models"
	"github.com/eventmart/commerce-backend/internal/services"
)

// ReviewHandler exposes the review endpoints
type ReviewHandler struct {
	reviews *services.ReviewService
	logger  *logrus.Logger
}

// NewReviewHandler creates a new ReviewHandler
func NewReviewHandler(reviews *services.ReviewService, logger *logrus.Logger) *ReviewHandler {
	return &ReviewHandler{reviews: reviews, logger: logger}
}

// SubmitReview handles POST /api/v1/reviews
func (h *ReviewHandler) SubmitReview(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		respondError(c, models.NewActionNotAllowedError("authentication required"))
		return
	}

	var req models.SubmitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, models.NewValidationError("invalid request body"))
		return
	}

	review, err := h.reviews.SubmitReview(user.UserID, &req)
	if err != nil {
		h.logError(c, err)
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, "review submitted", review)
}

// subjectReviewsResponse is the review listing payload
type subjectReviewsResponse struct {
	Reviews       []models.Review `json:"reviews"`
	AverageRating float64         `json:"average_rating"`
	ReviewCount   int             `json:"review_count"`
}

// ListSubjectReviews handles GET /api/v1/reviews/:subjectId
func (h *ReviewHandler) ListSubjectReviews(c *gin.Context) {
	subjectID, err := uuid.Parse(c.Param("subjectId"))
	if err != nil {
		respondError(c, models.NewValidationError("invalid subject id"))
		return
	}

	reviews, average, count, err := h.reviews.SubjectReviews(subjectID)
	if err != nil {
		h.logError(c, err)
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "reviews fetched", subjectReviewsResponse{
		Reviews:       reviews,
		AverageRating: average,
		ReviewCount:   count,
	})
}

// replyRequest is the reply payload
type replyRequest struct {
	Message string `json:"message"`
}

// ReplyToReview handles POST /api/v1/reviews/:reviewId/replies
func (h *ReviewHandler) ReplyToReview(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		respondError(c, models.NewActionNotAllowedError("authentication required"))
		return
	}
	reviewID, err := uuid.Parse(c.Param("reviewId"))
	if err != nil {
		respondError(c, models.NewValidationError("invalid review id"))
		return
	}

	var req replyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, models.NewValidationError("invalid request body"))
		return
	}

	if err := h.reviews.ReplyToReview(user.UserID, reviewID, req.Message); err != nil {
		h.logError(c, err)
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, "reply added", nil)
}

// DeleteReply handles DELETE /api/v1/reviews/:reviewId/replies
func (h *ReviewHandler) DeleteReply(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		respondError(c, models.NewActionNotAllowedError("authentication required"))
		return
	}
	reviewID, err := uuid.Parse(c.Param("reviewId"))
	if err != nil {
		respondError(c, models.NewValidationError("invalid review id"))
		return
	}

	if err := h.reviews.DeleteReply(user.UserID, reviewID); err != nil {
		h.logError(c, err)
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "reply removed", nil)
}

// DeleteReview handles DELETE /api/v1/reviews/:reviewId
func (h *ReviewHandler) DeleteReview(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		respondError(c, models.NewActionNotAllowedError("authentication required"))
		return
	}
	reviewID, err := uuid.Parse(c.Param("reviewId"))
	if err != nil {
		respondError(c, models.NewValidationError("invalid review id"))
		return
	}

	if err := h.reviews.DeleteReview(user.UserID, reviewID); err != nil {
		h.logError(c, err)
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "review deleted", nil)
}

func (h *ReviewHandler) logError(c *gin.Context, err error) {
	if models.KindOf(err) == models.KindInternal {
		h.logger.WithError(err).WithField("path", c.Request.URL.Path).Error("Review handler failure")
	}
}
