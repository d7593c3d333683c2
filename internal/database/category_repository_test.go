package database

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventmart/commerce-backend/internal/models"
)

func setupCategoryTest(t *testing.T) (*CategoryRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewCategoryRepository(sqlx.NewDb(db, "sqlmock"))
	return repo, mock, func() { db.Close() }
}

func TestCreateCategory(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		repo, mock, cleanup := setupCategoryTest(t)
		defer cleanup()

		mock.ExpectExec(`INSERT INTO categories`).
			WithArgs(sqlmock.AnyArg(), "Music", models.CategoryTypeEvent, sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		category := &models.Category{Name: "Music", Type: models.CategoryTypeEvent}
		err := repo.Create(category)
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, category.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Duplicate", func(t *testing.T) {
		repo, mock, cleanup := setupCategoryTest(t)
		defer cleanup()

		mock.ExpectExec(`INSERT INTO categories`).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "categories_name_type_key"})

		err := repo.Create(&models.Category{Name: "Music", Type: models.CategoryTypeEvent})
		assert.ErrorIs(t, err, ErrDuplicateCategory)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Database Error", func(t *testing.T) {
		repo, mock, cleanup := setupCategoryTest(t)
		defer cleanup()

		mock.ExpectExec(`INSERT INTO categories`).
			WillReturnError(fmt.Errorf("connection reset"))

		err := repo.Create(&models.Category{Name: "Music", Type: models.CategoryTypeEvent})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to insert category")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestListCategories(t *testing.T) {
	columns := []string{"id", "name", "type", "created_at", "updated_at"}

	t.Run("All Types", func(t *testing.T) {
		repo, mock, cleanup := setupCategoryTest(t)
		defer cleanup()

		now := time.Now()
		mock.ExpectQuery(`SELECT (.+) FROM categories ORDER BY name ASC`).
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow(uuid.New(), "Electronics", models.CategoryTypeProduct, now, now).
				AddRow(uuid.New(), "Music", models.CategoryTypeEvent, now, now))

		categories, err := repo.List("")
		require.NoError(t, err)
		assert.Len(t, categories, 2)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Filtered By Type", func(t *testing.T) {
		repo, mock, cleanup := setupCategoryTest(t)
		defer cleanup()

		now := time.Now()
		mock.ExpectQuery(`SELECT (.+) FROM categories WHERE type`).
			WithArgs(models.CategoryTypeEvent).
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow(uuid.New(), "Music", models.CategoryTypeEvent, now, now))

		categories, err := repo.List(models.CategoryTypeEvent)
		require.NoError(t, err)
		assert.Len(t, categories, 1)
		assert.Equal(t, "Music", categories[0].Name)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRenameCategory(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		repo, mock, cleanup := setupCategoryTest(t)
		defer cleanup()

		id := uuid.New()
		mock.ExpectExec(`UPDATE categories SET name`).
			WithArgs(id, "Live Music").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Rename(id, "Live Music"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Duplicate Name", func(t *testing.T) {
		repo, mock, cleanup := setupCategoryTest(t)
		defer cleanup()

		mock.ExpectExec(`UPDATE categories SET name`).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "categories_name_type_key"})

		assert.ErrorIs(t, repo.Rename(uuid.New(), "Music"), ErrDuplicateCategory)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found", func(t *testing.T) {
		repo, mock, cleanup := setupCategoryTest(t)
		defer cleanup()

		id := uuid.New()
		mock.ExpectExec(`UPDATE categories SET name`).
			WithArgs(id, "Live Music").
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.Rename(id, "Live Music"), sql.ErrNoRows)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDeleteCategory(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		repo, mock, cleanup := setupCategoryTest(t)
		defer cleanup()

		id := uuid.New()
		mock.ExpectExec(`DELETE FROM categories WHERE id`).
			WithArgs(id).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Delete(id))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found", func(t *testing.T) {
		repo, mock, cleanup := setupCategoryTest(t)
		defer cleanup()

		id := uuid.New()
		mock.ExpectExec(`DELETE FROM categories WHERE id`).
			WithArgs(id).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.Delete(id), sql.ErrNoRows)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
