package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "ferreteria/internal/errors"
	"ferreteria/internal/testutil"
)

func TestGetByID_ScansDecimalLimit(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT id, firstName, lastName, document, address, creditEnabled, creditLimit\s+FROM Customers`).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"id", "firstName", "lastName", "document", "address", "creditEnabled", "creditLimit"}).
			AddRow(3, "Juan", "Pérez", "20-1-9", "Calle 1", true, "500.00"))

	c, err := NewMySQLCustomerRepository(db).GetByID(context.Background(), 3)
	require.NoError(t, err)

	assert.Equal(t, "Juan Pérez", c.DisplayName())
	assert.True(t, c.CreditEnabled)
	assert.True(t, decimal.RequireFromString("500").Equal(c.CreditLimit))
}

func TestGetByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM Customers`).WithArgs(9).WillReturnError(sql.ErrNoRows)

	_, err = NewMySQLCustomerRepository(db).GetByID(context.Background(), 9)

	_, ok := apperrors.IsNotFoundError(err)
	assert.True(t, ok)
}

// Integration Tests

func TestCustomerRepository_GetByID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	id := testutil.InsertCustomer(t, db, "Marta", "Gómez", "1500.00")

	c, err := NewMySQLCustomerRepository(db).GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Marta", c.FirstName)
	assert.True(t, decimal.RequireFromString("1500").Equal(c.CreditLimit))
}
