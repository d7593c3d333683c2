package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"github.com/eventmart/commerce-backend/internal/models"
)

// ErrDuplicateCategory is returned when a category with the same name
// and type already exists.
var ErrDuplicateCategory = errors.New("category already exists")

// CategoryRepository handles categories database operations
type CategoryRepository struct {
	db *sqlx.DB
}

// NewCategoryRepository creates a new CategoryRepository
func NewCategoryRepository(db *sqlx.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// Create inserts a new category. Duplicate (name, type) pairs map to
// ErrDuplicateCategory via the unique constraint.
func (r *CategoryRepository) Create(category *models.Category) error {
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	category.CreatedAt = time.Now()
	category.UpdatedAt = category.CreatedAt

	query := `
		INSERT INTO categories (id, name, type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.Exec(query, category.ID, category.Name, category.Type, category.CreatedAt, category.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateCategory
		}
		return fmt.Errorf("failed to insert category: %w", err)
	}
	return nil
}

// List returns categories, optionally narrowed to one type
func (r *CategoryRepository) List(categoryType models.CategoryType) ([]models.Category, error) {
	query := `
		SELECT id, name, type, created_at, updated_at
		FROM categories`
	args := []interface{}{}

	if categoryType != "" {
		query += ` WHERE type = $1`
		args = append(args, categoryType)
	}
	query += ` ORDER BY name ASC`

	var categories []models.Category
	err := r.db.Select(&categories, query, args...)
	if err != nil {
		return nil, err
	}
	return categories, nil
}

// GetByID retrieves a category by ID. Returns nil when not found.
func (r *CategoryRepository) GetByID(id uuid.UUID) (*models.Category, error) {
	var category models.Category
	err := r.db.Get(&category, `SELECT id, name, type, created_at, updated_at FROM categories WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// Rename updates a category's name. The unique (name, type)
// constraint maps collisions to ErrDuplicateCategory.
func (r *CategoryRepository) Rename(id uuid.UUID, name string) error {
	result, err := r.db.Exec(`UPDATE categories SET name = $2, updated_at = NOW() WHERE id = $1`, id, name)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateCategory
		}
		return fmt.Errorf("failed to rename category: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a category
func (r *CategoryRepository) Delete(id uuid.UUID) error {
	result, err := r.db.Exec(`DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
