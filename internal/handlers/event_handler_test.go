package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventmart/commerce-backend/internal/database"
	"github.com/eventmart/commerce-backend/internal/middleware"
	"github.com/eventmart/commerce-backend/internal/models"
	"github.com/eventmart/commerce-backend/internal/services"
)

// injectUser stands in for the auth middleware in handler tests
func injectUser(userID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserContextKey, &middleware.UserContext{
			UserID: userID,
			Email:  "buyer@example.com",
			Roles:  []string{"user"},
		})
		c.Next()
	}
}

func setupEventHandlerTest(t *testing.T) (*EventHandler, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	service := services.NewEventService(database.NewEventRepository(sqlxDB), nil, logger)
	return NewEventHandler(service, logger), mock, func() { db.Close() }
}

var handlerEventColumns = []string{
	"id", "user_id", "title", "description", "categories", "is_online",
	"platform_details", "venue_details", "start_at", "end_at", "publish_status",
	"tickets", "total_tickets", "total_tickets_sold", "offer", "created_at", "updated_at",
}

func handlerEventRow(id, userID uuid.UUID) *sqlmock.Rows {
	tickets, _ := json.Marshal(models.TicketCategories{
		{CategoryName: "General", Price: 50, AudienceCapacity: 100, TicketsSold: 0},
	})
	now := time.Now()
	return sqlmock.NewRows(handlerEventColumns).AddRow(
		id, userID, "Jazz Night", "An evening of jazz", []byte(`["music"]`), false,
		nil, nil, now.Add(96*time.Hour), now.Add(100*time.Hour), models.EventStatusPublished,
		tickets, 100, 0, nil, now, now,
	)
}

func TestListEventsEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("Paginated Envelope", func(t *testing.T) {
		handler, mock, cleanup := setupEventHandlerTest(t)
		defer cleanup()

		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM events`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))
		mock.ExpectQuery(`SELECT (.+) FROM events`).
			WithArgs(20, 0).
			WillReturnRows(handlerEventRow(uuid.New(), uuid.New()))

		router := gin.New()
		router.GET("/api/v1/events", handler.ListEvents)

		// Limit above the maximum gets clamped to 20
		req := httptest.NewRequest("GET", "/api/v1/events?page=1&limit=100", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var body struct {
			Message string          `json:"message"`
			Data    []models.Event  `json:"data"`
			Meta    models.PageMeta `json:"meta"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "events fetched", body.Message)
		assert.Len(t, body.Data, 1)
		assert.Equal(t, 42, body.Meta.Total)
		assert.Equal(t, 20, body.Meta.Limit)
		assert.Equal(t, 3, body.Meta.TotalPages)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetEventEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("Success", func(t *testing.T) {
		handler, mock, cleanup := setupEventHandlerTest(t)
		defer cleanup()

		id := uuid.New()
		mock.ExpectQuery(`SELECT (.+) FROM events WHERE id`).
			WithArgs(id).
			WillReturnRows(handlerEventRow(id, uuid.New()))

		router := gin.New()
		router.GET("/api/v1/events/:id", handler.GetEvent)

		req := httptest.NewRequest("GET", "/api/v1/events/"+id.String(), nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Jazz Night")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Invalid ID", func(t *testing.T) {
		handler, _, cleanup := setupEventHandlerTest(t)
		defer cleanup()

		router := gin.New()
		router.GET("/api/v1/events/:id", handler.GetEvent)

		req := httptest.NewRequest("GET", "/api/v1/events/not-a-uuid", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "ValidationError")
	})

	t.Run("Not Found", func(t *testing.T) {
		handler, mock, cleanup := setupEventHandlerTest(t)
		defer cleanup()

		id := uuid.New()
		mock.ExpectQuery(`SELECT (.+) FROM events WHERE id`).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows(handlerEventColumns))

		router := gin.New()
		router.GET("/api/v1/events/:id", handler.GetEvent)

		req := httptest.NewRequest("GET", "/api/v1/events/"+id.String(), nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "NotFoundError")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCreateEventEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("Success", func(t *testing.T) {
		handler, mock, cleanup := setupEventHandlerTest(t)
		defer cleanup()

		mock.ExpectExec(`INSERT INTO events`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		router := gin.New()
		router.POST("/api/v1/events", injectUser(uuid.New()), handler.CreateEvent)

		payload := map[string]interface{}{
			"title":     "Jazz Night",
			"is_online": false,
			"venue_details": map[string]string{
				"venue_name": "Town Hall",
				"address":    "1 Main Street",
				"city":       "Colombo",
			},
			"start_at": time.Now().Add(96 * time.Hour).Format(time.RFC3339),
			"end_at":   time.Now().Add(100 * time.Hour).Format(time.RFC3339),
			"tickets": []map[string]interface{}{
				{"category_name": "General", "price": 50, "audience_capacity": 100},
			},
		}
		body, _ := json.Marshal(payload)

		req := httptest.NewRequest("POST", "/api/v1/events", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), "event created")
		assert.Contains(t, w.Body.String(), `"publish_status":"draft"`)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Validation Failure", func(t *testing.T) {
		handler, _, cleanup := setupEventHandlerTest(t)
		defer cleanup()

		router := gin.New()
		router.POST("/api/v1/events", injectUser(uuid.New()), handler.CreateEvent)

		req := httptest.NewRequest("POST", "/api/v1/events", bytes.NewReader([]byte(`{}`)))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "missing required attributes")
	})

	t.Run("No Authenticated User", func(t *testing.T) {
		handler, _, cleanup := setupEventHandlerTest(t)
		defer cleanup()

		router := gin.New()
		router.POST("/api/v1/events", handler.CreateEvent)

		req := httptest.NewRequest("POST", "/api/v1/events", bytes.NewReader([]byte(`{}`)))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}
