package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"ferreteria/internal/domain"
)

type MovementFilter struct {
	ProductID *int
	Type      domain.MovementType
	Page      int
	Limit     int
}

type MySQLStockRepository struct {
	db *sql.DB
}

func NewMySQLStockRepository(db *sql.DB) *MySQLStockRepository {
	return &MySQLStockRepository{db: db}
}

func (r *MySQLStockRepository) GetQuantity(ctx context.Context, productID int) (int, error) {
	var qty int
	err := r.db.QueryRowContext(ctx, `SELECT quantity FROM StockLevels WHERE productId = ?`, productID).Scan(&qty)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("querying stock level: %w", err)
	}
	return qty, nil
}

func (r *MySQLStockRepository) GetQuantities(ctx context.Context, productIDs []int) (map[int]int, error) {
	result := make(map[int]int, len(productIDs))
	if len(productIDs) == 0 {
		return result, nil
	}

	placeholders := make([]string, len(productIDs))
	args := make([]interface{}, len(productIDs))
	for i, id := range productIDs {
		placeholders[i] = "?"
		args[i] = id
		result[id] = 0
	}

	query := fmt.Sprintf(`SELECT productId, quantity FROM StockLevels WHERE productId IN (%s)`,
		strings.Join(placeholders, ", "))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying stock levels: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, qty int
		if err := rows.Scan(&id, &qty); err != nil {
			return nil, fmt.Errorf("scanning stock level row: %w", err)
		}
		result[id] = qty
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating stock level rows: %w", err)
	}

	return result, nil
}

// AddDelta applies a signed delta, creating the row when missing.
func (r *MySQLStockRepository) AddDelta(ctx context.Context, tx *sql.Tx, productID int, delta int) error {
	query := `
		INSERT INTO StockLevels (productId, quantity) VALUES (?, ?)
		ON DUPLICATE KEY UPDATE quantity = quantity + VALUES(quantity)
	`
	if _, err := tx.ExecContext(ctx, query, productID, delta); err != nil {
		return fmt.Errorf("applying stock delta: %w", err)
	}
	return nil
}

// DecrementIfAvailable subtracts quantity only when the result stays
// non-negative. The check and the write are one statement, so concurrent
// callers on the same row serialize on its lock. Returns false when the
// row is missing or the stock is short.
func (r *MySQLStockRepository) DecrementIfAvailable(ctx context.Context, tx *sql.Tx, productID int, quantity int) (bool, error) {
	query := `UPDATE StockLevels SET quantity = quantity - ? WHERE productId = ? AND quantity >= ?`

	result, err := tx.ExecContext(ctx, query, quantity, productID, quantity)
	if err != nil {
		return false, fmt.Errorf("decrementing stock: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("getting rows affected: %w", err)
	}

	return rowsAffected == 1, nil
}

func (r *MySQLStockRepository) InsertMovement(ctx context.Context, tx *sql.Tx, m domain.StockMovement) (int64, error) {
	query := `INSERT INTO StockMovements (productId, type, quantity, reason, unitCost) VALUES (?, ?, ?, ?, ?)`

	var unitCost interface{}
	if m.UnitCost != nil {
		unitCost = *m.UnitCost
	}

	result, err := tx.ExecContext(ctx, query, m.ProductID, string(m.Type), m.Quantity, m.Reason, unitCost)
	if err != nil {
		return 0, fmt.Errorf("inserting stock movement: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting last insert id: %w", err)
	}
	return id, nil
}

func (r *MySQLStockRepository) ListMovements(ctx context.Context, filter MovementFilter) ([]domain.StockMovement, int, error) {
	var where []string
	var args []interface{}
	if filter.ProductID != nil {
		where = append(where, "productId = ?")
		args = append(args, *filter.ProductID)
	}
	if filter.Type != "" {
		where = append(where, "type = ?")
		args = append(args, string(filter.Type))
	}

	whereSQL := ""
	if len(where) > 0 {
		whereSQL = "WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM StockMovements "+whereSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting stock movements: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, productId, type, quantity, reason, unitCost, createdAt
		FROM StockMovements
		%s
		ORDER BY createdAt DESC, id DESC
		LIMIT ? OFFSET ?`, whereSQL)

	pageArgs := append(append([]interface{}{}, args...), filter.Limit, (filter.Page-1)*filter.Limit)
	rows, err := r.db.QueryContext(ctx, query, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("querying stock movements: %w", err)
	}
	defer rows.Close()

	movements := make([]domain.StockMovement, 0, filter.Limit)
	for rows.Next() {
		var m domain.StockMovement
		var movementType string
		if err := rows.Scan(&m.ID, &m.ProductID, &movementType, &m.Quantity, &m.Reason, &m.UnitCost, &m.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scanning stock movement row: %w", err)
		}
		m.Type = domain.MovementType(movementType)
		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating stock movement rows: %w", err)
	}

	return movements, total, nil
}

func (r *MySQLStockRepository) ListLowStock(ctx context.Context) ([]domain.LowStockItem, error) {
	query := `
		SELECT p.id, p.sku, p.name, p.minStock, COALESCE(s.quantity, 0) AS quantity
		FROM Products p
		LEFT JOIN StockLevels s ON s.productId = p.id
		WHERE p.isActive = 1 AND COALESCE(s.quantity, 0) < p.minStock
		ORDER BY (p.minStock - COALESCE(s.quantity, 0)) DESC, p.id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying low stock: %w", err)
	}
	defer rows.Close()

	var items []domain.LowStockItem
	for rows.Next() {
		var it domain.LowStockItem
		if err := rows.Scan(&it.ProductID, &it.SKU, &it.Name, &it.MinStock, &it.Quantity); err != nil {
			return nil, fmt.Errorf("scanning low stock row: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating low stock rows: %w", err)
	}

	return items, nil
}
