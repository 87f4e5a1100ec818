package repository

import (
	"context"
	"database/sql"
	"fmt"

	"ferreteria/internal/domain"
	apperrors "ferreteria/internal/errors"
)

type MySQLSaleRepository struct {
	db *sql.DB
}

func NewMySQLSaleRepository(db *sql.DB) *MySQLSaleRepository {
	return &MySQLSaleRepository{db: db}
}

func (r *MySQLSaleRepository) InsertSale(ctx context.Context, tx *sql.Tx, s domain.Sale) (int64, error) {
	query := `
		INSERT INTO Sales (customerId, customerType, paymentType, total, totalInWords, operatorId, status, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	res, err := tx.ExecContext(ctx, query,
		s.CustomerID, string(s.CustomerType), string(s.PaymentType), s.Total, s.TotalInWords,
		s.OperatorID, s.Status, s.Notes,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting sale: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading sale id: %w", err)
	}
	return id, nil
}

func (r *MySQLSaleRepository) InsertLine(ctx context.Context, tx *sql.Tx, l domain.SaleLine) (int64, error) {
	query := `
		INSERT INTO SaleLines (saleId, lineNo, productId, description, quantity, unitPrice, subtotal, allowBelowStock)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	res, err := tx.ExecContext(ctx, query,
		l.SaleID, l.LineNo, l.ProductID, l.Description, l.Quantity, l.UnitPrice, l.Subtotal, l.AllowBelowStock,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting sale line: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading sale line id: %w", err)
	}
	return id, nil
}

func (r *MySQLSaleRepository) InsertPayment(ctx context.Context, tx *sql.Tx, p domain.Payment) error {
	query := `INSERT INTO Payments (saleId, paymentType, amount) VALUES (?, ?, ?)`

	if _, err := tx.ExecContext(ctx, query, p.SaleID, string(p.PaymentType), p.Amount); err != nil {
		return fmt.Errorf("inserting payment: %w", err)
	}
	return nil
}

// NextInvoiceNumber locks the point of sale's numbering until tx ends, so
// two sales cannot take the same number.
func (r *MySQLSaleRepository) NextInvoiceNumber(ctx context.Context, tx *sql.Tx, pointOfSale int) (int64, error) {
	query := `SELECT COALESCE(MAX(number), 0) + 1 FROM Invoices WHERE pointOfSale = ? FOR UPDATE`

	var next int64
	if err := tx.QueryRowContext(ctx, query, pointOfSale).Scan(&next); err != nil {
		return 0, fmt.Errorf("reserving invoice number: %w", err)
	}
	return next, nil
}

func (r *MySQLSaleRepository) InsertInvoice(ctx context.Context, tx *sql.Tx, inv domain.Invoice) (int64, error) {
	query := `
		INSERT INTO Invoices (saleId, pointOfSale, number, customerName, customerDocument, customerAddress)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	res, err := tx.ExecContext(ctx, query,
		inv.SaleID, inv.PointOfSale, inv.Number, inv.CustomerName, inv.CustomerDocument, inv.CustomerAddress,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting invoice: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading invoice id: %w", err)
	}
	return id, nil
}

func (r *MySQLSaleRepository) InsertHistory(ctx context.Context, tx *sql.Tx, saleID int64, action string, operatorID int, detail string) error {
	query := `INSERT INTO SaleHistory (saleId, action, operatorId, detail) VALUES (?, ?, ?, ?)`

	if _, err := tx.ExecContext(ctx, query, saleID, action, operatorID, detail); err != nil {
		return fmt.Errorf("inserting sale history: %w", err)
	}
	return nil
}

func (r *MySQLSaleRepository) FindByID(ctx context.Context, id int64) (*domain.Sale, error) {
	query := `
		SELECT id, createdAt, customerId, customerType, paymentType, total, totalInWords,
		       operatorId, status, notes
		FROM Sales
		WHERE id = ?
	`

	var (
		s            domain.Sale
		customerID   sql.NullInt64
		customerType string
		paymentType  string
		notes        sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&s.ID, &s.CreatedAt, &customerID, &customerType, &paymentType, &s.Total, &s.TotalInWords,
		&s.OperatorID, &s.Status, &notes,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("sale %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying sale by id: %w", err)
	}

	s.CustomerType = domain.CustomerType(customerType)
	s.PaymentType = domain.PaymentType(paymentType)
	if customerID.Valid {
		cid := int(customerID.Int64)
		s.CustomerID = &cid
	}
	if notes.Valid {
		s.Notes = &notes.String
	}

	lines, err := r.findLines(ctx, id)
	if err != nil {
		return nil, err
	}
	s.Lines = lines

	return &s, nil
}

// FindInvoice returns nil without error when the sale was not invoiced.
func (r *MySQLSaleRepository) FindInvoice(ctx context.Context, saleID int64) (*domain.Invoice, error) {
	query := `
		SELECT id, saleId, pointOfSale, number, customerName, customerDocument, customerAddress, createdAt
		FROM Invoices
		WHERE saleId = ?
	`

	var inv domain.Invoice
	err := r.db.QueryRowContext(ctx, query, saleID).Scan(
		&inv.ID, &inv.SaleID, &inv.PointOfSale, &inv.Number,
		&inv.CustomerName, &inv.CustomerDocument, &inv.CustomerAddress, &inv.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying invoice: %w", err)
	}
	return &inv, nil
}

func (r *MySQLSaleRepository) findLines(ctx context.Context, saleID int64) ([]domain.SaleLine, error) {
	query := `
		SELECT id, saleId, lineNo, productId, description, quantity, unitPrice, subtotal, allowBelowStock
		FROM SaleLines
		WHERE saleId = ?
		ORDER BY lineNo
	`
	rows, err := r.db.QueryContext(ctx, query, saleID)
	if err != nil {
		return nil, fmt.Errorf("querying sale lines: %w", err)
	}
	defer rows.Close()

	var lines []domain.SaleLine
	for rows.Next() {
		var l domain.SaleLine
		if err := rows.Scan(&l.ID, &l.SaleID, &l.LineNo, &l.ProductID, &l.Description,
			&l.Quantity, &l.UnitPrice, &l.Subtotal, &l.AllowBelowStock); err != nil {
			return nil, fmt.Errorf("scanning sale line row: %w", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sale line rows: %w", err)
	}
	return lines, nil
}
