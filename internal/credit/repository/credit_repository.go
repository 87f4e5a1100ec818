package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"ferreteria/internal/domain"
)

type MySQLCreditRepository struct {
	db *sql.DB
}

func NewMySQLCreditRepository(db *sql.DB) *MySQLCreditRepository {
	return &MySQLCreditRepository{db: db}
}

// Balance folds the account in SQL: debts and adjustments add, payments
// subtract. No rows yields zero.
func (r *MySQLCreditRepository) Balance(ctx context.Context, customerID int) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(CASE WHEN type = 'PAYMENT' THEN -amount ELSE amount END), 0)
		FROM CreditAccountEntries
		WHERE customerId = ?
	`
	var balance decimal.Decimal
	if err := r.db.QueryRowContext(ctx, query, customerID).Scan(&balance); err != nil {
		return decimal.Zero, fmt.Errorf("querying credit balance: %w", err)
	}
	return balance, nil
}

func (r *MySQLCreditRepository) Insert(ctx context.Context, e domain.CreditAccountEntry) (int64, error) {
	query := `
		INSERT INTO CreditAccountEntries (customerId, type, amount, saleId, operatorId, description)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	res, err := r.db.ExecContext(ctx, query, e.CustomerID, string(e.Type), e.Amount, e.SaleID, e.OperatorID, e.Description)
	if err != nil {
		return 0, fmt.Errorf("inserting credit entry: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading credit entry id: %w", err)
	}
	return id, nil
}

func (r *MySQLCreditRepository) ListByCustomer(ctx context.Context, customerID int) ([]domain.CreditAccountEntry, error) {
	query := `
		SELECT id, customerId, type, amount, saleId, operatorId, description, createdAt
		FROM CreditAccountEntries
		WHERE customerId = ?
		ORDER BY createdAt, id
	`
	rows, err := r.db.QueryContext(ctx, query, customerID)
	if err != nil {
		return nil, fmt.Errorf("querying credit entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.CreditAccountEntry
	for rows.Next() {
		var (
			e          domain.CreditAccountEntry
			entryType  string
			saleID     sql.NullInt64
			operatorID sql.NullInt64
		)
		if err := rows.Scan(&e.ID, &e.CustomerID, &entryType, &e.Amount, &saleID, &operatorID, &e.Description, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning credit entry row: %w", err)
		}
		e.Type = domain.CreditEntryType(entryType)
		if saleID.Valid {
			id := saleID.Int64
			e.SaleID = &id
		}
		if operatorID.Valid {
			id := int(operatorID.Int64)
			e.OperatorID = &id
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating credit entry rows: %w", err)
	}

	return entries, nil
}
