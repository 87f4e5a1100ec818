package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"ferreteria/internal/domain"
	apperrors "ferreteria/internal/errors"
)

// Unique index names, matched against MySQL duplicate-key messages.
const (
	IndexSKU     = "uq_products_sku"
	IndexBarcode = "uq_barcodes_code"
)

const productColumns = `
	id, sku, name, description, categoryId, price, minStock, unit, isActive,
	preferredLocationId, preferredLocationCode, createdAt, updatedAt`

type querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

type MySQLCatalogRepository struct {
	db *sql.DB
}

func NewMySQLCatalogRepository(db *sql.DB) *MySQLCatalogRepository {
	return &MySQLCatalogRepository{db: db}
}

// NormalizeSKU is the form the unique index compares.
func NormalizeSKU(sku string) string {
	return strings.ToLower(strings.TrimSpace(sku))
}

func (r *MySQLCatalogRepository) GetByID(ctx context.Context, id int) (*domain.Product, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM Products WHERE id = ?`, id)
	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("product %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying product: %w", err)
	}

	if err := r.loadRelations(ctx, r.db, p); err != nil {
		return nil, err
	}
	return p, nil
}

// GetByIDs returns the products that exist; missing ids are simply absent.
func (r *MySQLCatalogRepository) GetByIDs(ctx context.Context, ids []int) ([]domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	query := fmt.Sprintf(`SELECT %s FROM Products WHERE id IN (%s)`,
		productColumns, strings.Join(placeholders, ", "))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning product row: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating product rows: %w", err)
	}

	return products, nil
}

// FindForUpdate locks the product row for the rest of tx.
func (r *MySQLCatalogRepository) FindForUpdate(ctx context.Context, tx *sql.Tx, id int) (*domain.Product, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+productColumns+` FROM Products WHERE id = ? FOR UPDATE`, id)
	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("product %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("locking product: %w", err)
	}

	if err := r.loadRelations(ctx, tx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *MySQLCatalogRepository) Insert(ctx context.Context, tx *sql.Tx, p domain.Product) (int, error) {
	query := `
		INSERT INTO Products (sku, skuNormalized, name, description, categoryId, price, minStock,
		                      unit, isActive, preferredLocationId, preferredLocationCode)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	res, err := tx.ExecContext(ctx, query,
		strings.TrimSpace(p.SKU), NormalizeSKU(p.SKU), p.Name, p.Description, p.CategoryID, p.Price,
		p.MinStock, p.Unit, p.IsActive, p.PreferredLocationID, p.PreferredLocationCode,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting product: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading product id: %w", err)
	}
	return int(id), nil
}

func (r *MySQLCatalogRepository) Update(ctx context.Context, tx *sql.Tx, p domain.Product) error {
	query := `
		UPDATE Products
		SET sku = ?, skuNormalized = ?, name = ?, description = ?, categoryId = ?, price = ?,
		    minStock = ?, unit = ?, isActive = ?, preferredLocationId = ?, preferredLocationCode = ?
		WHERE id = ?
	`
	_, err := tx.ExecContext(ctx, query,
		strings.TrimSpace(p.SKU), NormalizeSKU(p.SKU), p.Name, p.Description, p.CategoryID, p.Price,
		p.MinStock, p.Unit, p.IsActive, p.PreferredLocationID, p.PreferredLocationCode, p.ID,
	)
	if err != nil {
		return fmt.Errorf("updating product: %w", err)
	}
	return nil
}

func (r *MySQLCatalogRepository) ReplaceCategories(ctx context.Context, tx *sql.Tx, productID int, categoryIDs []int) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM ProductCategories WHERE productId = ?`, productID); err != nil {
		return fmt.Errorf("clearing product categories: %w", err)
	}
	for _, categoryID := range categoryIDs {
		_, err := tx.ExecContext(ctx, `INSERT INTO ProductCategories (productId, categoryId) VALUES (?, ?)`, productID, categoryID)
		if err != nil {
			return fmt.Errorf("inserting product category: %w", err)
		}
	}
	return nil
}

func (r *MySQLCatalogRepository) ReplaceBarcodes(ctx context.Context, tx *sql.Tx, productID int, codes []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM ProductBarcodes WHERE productId = ?`, productID); err != nil {
		return fmt.Errorf("clearing product barcodes: %w", err)
	}
	for _, code := range codes {
		_, err := tx.ExecContext(ctx, `INSERT INTO ProductBarcodes (productId, code) VALUES (?, ?)`, productID, code)
		if err != nil {
			return fmt.Errorf("inserting product barcode: %w", err)
		}
	}
	return nil
}

func (r *MySQLCatalogRepository) loadRelations(ctx context.Context, q querier, p *domain.Product) error {
	categories, err := queryInts(ctx, q, `SELECT categoryId FROM ProductCategories WHERE productId = ? ORDER BY categoryId`, p.ID)
	if err != nil {
		return fmt.Errorf("querying product categories: %w", err)
	}
	p.CategoryIDs = categories

	rows, err := q.QueryContext(ctx, `SELECT code FROM ProductBarcodes WHERE productId = ? ORDER BY code`, p.ID)
	if err != nil {
		return fmt.Errorf("querying product barcodes: %w", err)
	}
	defer rows.Close()

	p.Barcodes = nil
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return fmt.Errorf("scanning barcode row: %w", err)
		}
		p.Barcodes = append(p.Barcodes, code)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating barcode rows: %w", err)
	}
	return nil
}

func queryInts(ctx context.Context, q querier, query string, args ...interface{}) ([]int, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func scanProduct(s rowScanner) (*domain.Product, error) {
	var (
		p          domain.Product
		categoryID sql.NullInt64
		locationID sql.NullInt64
	)
	err := s.Scan(
		&p.ID, &p.SKU, &p.Name, &p.Description, &categoryID, &p.Price, &p.MinStock,
		&p.Unit, &p.IsActive, &locationID, &p.PreferredLocationCode, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.CategoryID = nullableInt(categoryID)
	p.PreferredLocationID = nullableInt(locationID)
	return &p, nil
}

func nullableInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}
