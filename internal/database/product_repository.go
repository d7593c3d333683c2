package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/eventmart/commerce-backend/internal/models"
)

// ProductRepository handles products, variants and promoters database operations
type ProductRepository struct {
	db *sqlx.DB
}

// NewProductRepository creates a new ProductRepository
func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// ============================================================================
// PRODUCT CRUD OPERATIONS
// ============================================================================

// Create inserts a new product
func (r *ProductRepository) Create(product *models.Product) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	product.CreatedAt = time.Now()
	product.UpdatedAt = product.CreatedAt

	query := `
		INSERT INTO products (
			id, user_id, title, description, categories, status,
			products_sold, offer, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.Exec(query,
		product.ID, product.UserID, product.Title, product.Description,
		product.Categories, product.Status, product.ProductsSold, product.Offer,
		product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

// GetByID retrieves a product by ID. Returns nil when not found.
func (r *ProductRepository) GetByID(id uuid.UUID) (*models.Product, error) {
	query := `
		SELECT id, user_id, title, description, categories, status,
			   products_sold, offer, created_at, updated_at
		FROM products
		WHERE id = $1`

	var product models.Product
	err := r.db.Get(&product, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// List returns active products matching the filters with the total
// match count. Price filters and price sorts use the cheapest active
// variant of each product.
func (r *ProductRepository) List(filters models.ProductFilters, sort models.ProductSortOrder, page, limit int) ([]models.Product, int, error) {
	where := `WHERE p.status = 'active'`
	args := []interface{}{}
	argIdx := 1

	if filters.Category != "" {
		where += fmt.Sprintf(" AND p.categories @> to_jsonb(ARRAY[$%d::text])", argIdx)
		args = append(args, filters.Category)
		argIdx++
	}
	if filters.Search != "" {
		where += fmt.Sprintf(" AND p.title ILIKE $%d", argIdx)
		args = append(args, "%"+filters.Search+"%")
		argIdx++
	}
	if filters.PriceMin != nil {
		where += fmt.Sprintf(` AND (SELECT MIN(v.price) FROM variants v
			WHERE v.product_id = p.id AND v.status = 'ACTIVE') >= $%d`, argIdx)
		args = append(args, *filters.PriceMin)
		argIdx++
	}
	if filters.PriceMax != nil {
		where += fmt.Sprintf(` AND (SELECT MIN(v.price) FROM variants v
			WHERE v.product_id = p.id AND v.status = 'ACTIVE') <= $%d`, argIdx)
		args = append(args, *filters.PriceMax)
		argIdx++
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM products p ` + where
	if err := r.db.Get(&total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	orderBy := "p.created_at DESC"
	switch sort {
	case models.SortPopular:
		orderBy = "p.products_sold DESC"
	case models.SortOldest:
		orderBy = "p.created_at ASC"
	case models.SortHighToLow:
		orderBy = `(SELECT MIN(v.price) FROM variants v WHERE v.product_id = p.id AND v.status = 'ACTIVE') DESC NULLS LAST`
	case models.SortLowToHigh:
		orderBy = `(SELECT MIN(v.price) FROM variants v WHERE v.product_id = p.id AND v.status = 'ACTIVE') ASC NULLS LAST`
	}

	listQuery := fmt.Sprintf(`
		SELECT p.id, p.user_id, p.title, p.description, p.categories, p.status,
			   p.products_sold, p.offer, p.created_at, p.updated_at
		FROM products p
		%s
		ORDER BY %s
		LIMIT $%d OFFSET $%d`, where, orderBy, argIdx, argIdx+1)
	args = append(args, limit, (page-1)*limit)

	var products []models.Product
	if err := r.db.Select(&products, listQuery, args...); err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// ListByUser returns all products owned by a user, any status
func (r *ProductRepository) ListByUser(userID uuid.UUID) ([]models.Product, error) {
	query := `
		SELECT id, user_id, title, description, categories, status,
			   products_sold, offer, created_at, updated_at
		FROM products
		WHERE user_id = $1
		ORDER BY created_at DESC`

	var products []models.Product
	err := r.db.Select(&products, query, userID)
	if err != nil {
		return nil, err
	}
	return products, nil
}

// Update rewrites the mutable product fields
func (r *ProductRepository) Update(product *models.Product) error {
	query := `
		UPDATE products
		SET title = $1, description = $2, categories = $3, status = $4,
			offer = $5, updated_at = $6
		WHERE id = $7`

	result, err := r.db.Exec(query,
		product.Title, product.Description, product.Categories, product.Status,
		product.Offer, time.Now(), product.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a product and its variants
func (r *ProductRepository) Delete(id uuid.UUID) error {
	if _, err := r.db.Exec(`DELETE FROM variants WHERE product_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete product variants: %w", err)
	}
	result, err := r.db.Exec(`DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ============================================================================
// VARIANT OPERATIONS
// ============================================================================

// CreateVariant inserts a new variant for a product
func (r *ProductRepository) CreateVariant(variant *models.Variant) error {
	if variant.ID == uuid.Nil {
		variant.ID = uuid.New()
	}
	variant.CreatedAt = time.Now()
	variant.UpdatedAt = variant.CreatedAt

	query := `
		INSERT INTO variants (
			id, product_id, name, price, total_stock, items_sold, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.Exec(query,
		variant.ID, variant.ProductID, variant.Name, variant.Price,
		variant.TotalStock, variant.ItemsSold, variant.Status,
		variant.CreatedAt, variant.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert variant: %w", err)
	}
	return nil
}

// GetVariantByID retrieves a variant by ID. Returns nil when not found.
func (r *ProductRepository) GetVariantByID(id uuid.UUID) (*models.Variant, error) {
	query := `
		SELECT id, product_id, name, price, total_stock, items_sold, status, created_at, updated_at
		FROM variants
		WHERE id = $1`

	var variant models.Variant
	err := r.db.Get(&variant, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &variant, nil
}

// GetVariantsByIDs returns multiple variants by IDs
func (r *ProductRepository) GetVariantsByIDs(ids []uuid.UUID) ([]models.Variant, error) {
	if len(ids) == 0 {
		return []models.Variant{}, nil
	}

	query, args, err := sqlx.In(`
		SELECT id, product_id, name, price, total_stock, items_sold, status, created_at, updated_at
		FROM variants
		WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}

	query = r.db.Rebind(query)

	var variants []models.Variant
	err = r.db.Select(&variants, query, args...)
	if err != nil {
		return nil, err
	}
	return variants, nil
}

// ListVariantsByProduct returns all variants of a product
func (r *ProductRepository) ListVariantsByProduct(productID uuid.UUID) ([]models.Variant, error) {
	query := `
		SELECT id, product_id, name, price, total_stock, items_sold, status, created_at, updated_at
		FROM variants
		WHERE product_id = $1
		ORDER BY created_at ASC`

	var variants []models.Variant
	err := r.db.Select(&variants, query, productID)
	if err != nil {
		return nil, err
	}
	return variants, nil
}

// UpdateVariant rewrites the mutable variant fields
func (r *ProductRepository) UpdateVariant(variant *models.Variant) error {
	query := `
		UPDATE variants
		SET name = $1, price = $2, total_stock = $3, status = $4, updated_at = $5
		WHERE id = $6`

	result, err := r.db.Exec(query,
		variant.Name, variant.Price, variant.TotalStock, variant.Status,
		time.Now(), variant.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update variant: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ============================================================================
// PROMOTER OPERATIONS
// ============================================================================

// AddPromoter attaches a promoter to a product
func (r *ProductRepository) AddPromoter(promoter *models.Promoter) error {
	if promoter.ID == uuid.Nil {
		promoter.ID = uuid.New()
	}
	promoter.CreatedAt = time.Now()
	promoter.UpdatedAt = promoter.CreatedAt

	query := `
		INSERT INTO promoters (
			id, product_id, name, email, commission_percent, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(query,
		promoter.ID, promoter.ProductID, promoter.Name, promoter.Email,
		promoter.CommissionPercent, promoter.Status,
		promoter.CreatedAt, promoter.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert promoter: %w", err)
	}
	return nil
}

// ListPromotersByProduct returns active promoters for a product
func (r *ProductRepository) ListPromotersByProduct(productID uuid.UUID) ([]models.Promoter, error) {
	query := `
		SELECT id, product_id, name, email, commission_percent, status, created_at, updated_at
		FROM promoters
		WHERE product_id = $1 AND status = 'ACTIVE'
		ORDER BY created_at ASC`

	var promoters []models.Promoter
	err := r.db.Select(&promoters, query, productID)
	if err != nil {
		return nil, err
	}
	return promoters, nil
}

// RemovePromoter marks a promoter as removed
func (r *ProductRepository) RemovePromoter(id uuid.UUID) error {
	query := `
		UPDATE promoters
		SET status = 'REMOVED', updated_at = NOW()
		WHERE id = $1 AND status = 'ACTIVE'`

	result, err := r.db.Exec(query, id)
	if err != nil {
		return fmt.Errorf("failed to remove promoter: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ============================================================================
// INVENTORY
// ============================================================================

// IncrementItemsSold bumps the sold counters for the ordered variants.
// Each UPDATE carries the stock predicate in its WHERE clause; a
// variant without enough remaining stock updates zero rows and the
// whole transaction must be rolled back by the caller.
func (r *ProductRepository) IncrementItemsSold(tx *sqlx.Tx, productID uuid.UUID, items models.OrderItems) (bool, error) {
	query := `
		UPDATE variants
		SET items_sold = items_sold + $2, updated_at = NOW()
		WHERE id = $1
		  AND items_sold + $2 <= total_stock`

	for _, item := range items {
		result, err := tx.Exec(query, item.VariantID, item.Quantity)
		if err != nil {
			return false, fmt.Errorf("failed to increment items sold for variant %s: %w", item.VariantID, err)
		}
		rowsAffected, _ := result.RowsAffected()
		if rowsAffected == 0 {
			return false, nil
		}
	}

	_, err := tx.Exec(`
		UPDATE products
		SET products_sold = products_sold + $2, updated_at = NOW()
		WHERE id = $1`, productID, items.TotalQuantity())
	if err != nil {
		return false, fmt.Errorf("failed to increment products sold: %w", err)
	}
	return true, nil
}
