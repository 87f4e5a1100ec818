package repository

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ferreteria/internal/domain"
	apperrors "ferreteria/internal/errors"
	"ferreteria/internal/testutil"
)

// Unit Tests

func TestNewMySQLSaleRepository(t *testing.T) {
	db := &sql.DB{}
	repo := NewMySQLSaleRepository(db)

	assert.NotNil(t, repo)
	assert.Equal(t, db, repo.db)
}

func TestFindByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT id, createdAt, customerId`).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = NewMySQLSaleRepository(db).FindByID(context.Background(), 5)

	_, ok := apperrors.IsNotFoundError(err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByID_LoadsLines(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`SELECT id, createdAt, customerId`).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "createdAt", "customerId", "customerType", "paymentType", "total", "totalInWords", "operatorId", "status", "notes",
		}).AddRow(5, now, nil, "WALK_IN", "CASH", "150.00", "ciento cincuenta con 00/100", 3, "CONFIRMED", nil))
	mock.ExpectQuery(`FROM SaleLines`).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "saleId", "lineNo", "productId", "description", "quantity", "unitPrice", "subtotal", "allowBelowStock",
		}).AddRow(1, 5, 1, 9, "Pinza", 3, "50.00", "150.00", false))

	s, err := NewMySQLSaleRepository(db).FindByID(context.Background(), 5)
	require.NoError(t, err)

	assert.Nil(t, s.CustomerID)
	assert.Nil(t, s.Notes)
	assert.Equal(t, domain.PaymentCash, s.PaymentType)
	require.Len(t, s.Lines, 1)
	assert.Equal(t, "150.00", s.Lines[0].Subtotal.StringFixed(2))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindInvoice_Absent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM Invoices`).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	inv, err := NewMySQLSaleRepository(db).FindInvoice(context.Background(), 5)
	require.NoError(t, err)
	assert.Nil(t, inv)
}

func TestNextInvoiceNumber_LocksPointOfSale(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COALESCE\(MAX\(number\), 0\) \+ 1 FROM Invoices WHERE pointOfSale = \? FOR UPDATE`).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"next"}).AddRow(18))
	mock.ExpectRollback()

	tx, err := db.Begin()
	require.NoError(t, err)
	next, err := NewMySQLSaleRepository(db).NextInvoiceNumber(context.Background(), tx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(18), next)

	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Integration Tests

func TestSaleRepository_WriteAndRead(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	repo := NewMySQLSaleRepository(db)
	ctx := context.Background()
	productID := testutil.InsertProduct(t, db, "PIN-1", "Pinza", "50.00", 0)
	customerID := testutil.InsertCustomer(t, db, "Ana", "Gómez", "500.00")
	notes := "entrega a domicilio"

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	saleID, err := repo.InsertSale(ctx, tx, domain.Sale{
		CustomerID: &customerID, CustomerType: domain.CustomerRegistered, PaymentType: domain.PaymentStoreCredit,
		Total: decimal.RequireFromString("150.00"), TotalInWords: "ciento cincuenta con 00/100",
		OperatorID: 3, Status: domain.SaleStatusConfirmed, Notes: &notes,
	})
	require.NoError(t, err)
	_, err = repo.InsertLine(ctx, tx, domain.SaleLine{
		SaleID: saleID, LineNo: 1, ProductID: productID, Description: "Pinza", Quantity: 3,
		UnitPrice: decimal.RequireFromString("50.00"), Subtotal: decimal.RequireFromString("150.00"),
	})
	require.NoError(t, err)
	require.NoError(t, repo.InsertPayment(ctx, tx, domain.Payment{SaleID: saleID, PaymentType: domain.PaymentStoreCredit, Amount: decimal.RequireFromString("150.00")}))
	number, err := repo.NextInvoiceNumber(ctx, tx, 1)
	require.NoError(t, err)
	_, err = repo.InsertInvoice(ctx, tx, domain.Invoice{SaleID: saleID, PointOfSale: 1, Number: number, CustomerName: "Ana Gómez"})
	require.NoError(t, err)
	require.NoError(t, repo.InsertHistory(ctx, tx, saleID, domain.SaleActionCreated, 3, "total=150.00"))
	require.NoError(t, tx.Commit())

	s, err := repo.FindByID(ctx, saleID)
	require.NoError(t, err)
	require.NotNil(t, s.CustomerID)
	assert.Equal(t, customerID, *s.CustomerID)
	assert.Equal(t, notes, *s.Notes)
	require.Len(t, s.Lines, 1)
	assert.True(t, s.Total.Equal(s.LinesTotal()))

	inv, err := repo.FindInvoice(ctx, saleID)
	require.NoError(t, err)
	require.NotNil(t, inv)
	assert.Equal(t, int64(1), inv.Number)
}

func TestSaleRepository_InvoiceNumbersAreUniqueUnderConcurrency(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	repo := NewMySQLSaleRepository(db)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tx, err := db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
			if err != nil {
				return
			}
			defer tx.Rollback()

			saleID, err := repo.InsertSale(ctx, tx, domain.Sale{
				CustomerType: domain.CustomerWalkIn, PaymentType: domain.PaymentCash,
				Total: decimal.NewFromInt(1), TotalInWords: "uno con 00/100", OperatorID: 1, Status: domain.SaleStatusConfirmed,
			})
			if err != nil {
				return
			}
			number, err := repo.NextInvoiceNumber(ctx, tx, 7)
			if err != nil {
				return
			}
			if _, err := repo.InsertInvoice(ctx, tx, domain.Invoice{SaleID: saleID, PointOfSale: 7, Number: number, CustomerName: domain.WalkInCustomerName}); err != nil {
				return
			}
			tx.Commit()
		}()
	}
	wg.Wait()

	var total, distinct, maxNumber int
	err := db.QueryRow(`SELECT COUNT(*), COUNT(DISTINCT number), COALESCE(MAX(number), 0) FROM Invoices WHERE pointOfSale = 7`).
		Scan(&total, &distinct, &maxNumber)
	require.NoError(t, err)
	assert.Equal(t, total, distinct)
	assert.Equal(t, total, maxNumber, "numbers are gapless")
}
