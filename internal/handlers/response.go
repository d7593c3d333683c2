package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eventmart/commerce-backend/internal/models"
)

// successResponse is the envelope for successful responses
type successResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

// errorResponse is the envelope for failures. Only the public message
// and the error kind leave the service; causes stay in the logs.
type errorResponse struct {
	Message   string           `json:"message"`
	ErrorKind models.ErrorKind `json:"errorKind"`
}

// respondOK writes a success envelope
func respondOK(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, successResponse{Message: message, Data: data})
}

// respondPage writes a success envelope with pagination metadata
func respondPage(c *gin.Context, message string, data interface{}, meta models.PageMeta) {
	c.JSON(http.StatusOK, successResponse{Message: message, Data: data, Meta: meta})
}

// respondError maps an error kind to its HTTP status and writes the
// error envelope.
func respondError(c *gin.Context, err error) {
	kind := models.KindOf(err)
	message := "internal server error"
	if appErr, ok := models.AsAppError(err); ok && kind != models.KindInternal {
		message = appErr.PublicMessage()
	}
	c.JSON(statusForKind(kind), errorResponse{Message: message, ErrorKind: kind})
}

// statusForKind maps each error kind to exactly one HTTP status
func statusForKind(kind models.ErrorKind) int {
	switch kind {
	case models.KindValidation:
		return http.StatusBadRequest
	case models.KindNotFound:
		return http.StatusNotFound
	case models.KindActionNotAllowed:
		return http.StatusForbidden
	case models.KindCapacityExceeded:
		return http.StatusConflict
	case models.KindPaymentFailed:
		return http.StatusPaymentRequired
	case models.KindPaymentInitiation:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
