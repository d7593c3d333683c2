package database

import (
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventmart/commerce-backend/internal/models"
)

func setupReviewRepoTest(t *testing.T) (*ReviewRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewReviewRepository(sqlx.NewDb(db, "sqlmock"))
	return repo, mock, func() { db.Close() }
}

func TestUpsertReview(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		repo, mock, cleanup := setupReviewRepoTest(t)
		defer cleanup()

		review := &models.Review{
			UserID:    uuid.New(),
			SubjectID: uuid.New(),
			Type:      models.TransactionTypeProduct,
			Rating:    4,
			Comment:   "Solid build quality",
		}
		mock.ExpectExec(`INSERT INTO reviews`).
			WithArgs(sqlmock.AnyArg(), review.UserID, review.SubjectID, review.Type,
				4, "Solid build quality", sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Upsert(review)
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, review.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAppendReply(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		repo, mock, cleanup := setupReviewRepoTest(t)
		defer cleanup()

		reviewID := uuid.New()
		reply := models.ReviewReply{UserID: uuid.New(), Message: "Thanks!", CreatedAt: time.Now()}
		replyJSON, _ := json.Marshal(reply)

		mock.ExpectExec(`UPDATE reviews SET replies = replies`).
			WithArgs(reviewID, string(replyJSON)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.AppendReply(reviewID, reply))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Review Not Found", func(t *testing.T) {
		repo, mock, cleanup := setupReviewRepoTest(t)
		defer cleanup()

		mock.ExpectExec(`UPDATE reviews SET replies = replies`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.AppendReply(uuid.New(), models.ReviewReply{UserID: uuid.New(), Message: "hi"})
		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRemoveReply(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		repo, mock, cleanup := setupReviewRepoTest(t)
		defer cleanup()

		reviewID, replierID := uuid.New(), uuid.New()
		mock.ExpectExec(`UPDATE reviews SET replies = COALESCE`).
			WithArgs(reviewID, replierID.String()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.RemoveReply(reviewID, replierID))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Review Not Found", func(t *testing.T) {
		repo, mock, cleanup := setupReviewRepoTest(t)
		defer cleanup()

		mock.ExpectExec(`UPDATE reviews SET replies = COALESCE`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.RemoveReply(uuid.New(), uuid.New()), sql.ErrNoRows)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAverageRating(t *testing.T) {
	repo, mock, cleanup := setupReviewRepoTest(t)
	defer cleanup()

	subjectID := uuid.New()
	mock.ExpectQuery(`SELECT AVG\(rating\) AS average, COUNT\(\*\) AS count FROM reviews`).
		WithArgs(subjectID).
		WillReturnRows(sqlmock.NewRows([]string{"average", "count"}).AddRow(4.25, 8))

	average, count, err := repo.AverageRating(subjectID)
	require.NoError(t, err)
	assert.Equal(t, 4.25, average)
	assert.Equal(t, 8, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
