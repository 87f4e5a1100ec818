package repository

import (
	"context"
	"database/sql"
	"fmt"

	"ferreteria/internal/domain"
	apperrors "ferreteria/internal/errors"
)

type MySQLCustomerRepository struct {
	db *sql.DB
}

func NewMySQLCustomerRepository(db *sql.DB) *MySQLCustomerRepository {
	return &MySQLCustomerRepository{db: db}
}

func (r *MySQLCustomerRepository) GetByID(ctx context.Context, id int) (*domain.Customer, error) {
	query := `
		SELECT id, firstName, lastName, document, address, creditEnabled, creditLimit
		FROM Customers
		WHERE id = ?
	`

	var c domain.Customer
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.FirstName, &c.LastName, &c.Document, &c.Address, &c.CreditEnabled, &c.CreditLimit,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("customer %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying customer: %w", err)
	}

	return &c, nil
}
