package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"

	_ "github.com/go-sql-driver/mysql"

	"ferreteria/internal/infrastructure/mysql"
)

// SetupTestDB opens the integration database. It expects a MySQL server
// with a 'ferreteria_test' schema; TEST_DB_DSN overrides the default DSN.
// Tests are skipped when the server is not reachable.
func SetupTestDB(t *testing.T) *sql.DB {
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		dsn = "root:@tcp(localhost:3306)/ferreteria_test?parseTime=true"
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("test database not available: %v", err)
	}

	return db
}

// CleanupTestDB empties every table, children first, and closes db.
func CleanupTestDB(t *testing.T, db *sql.DB) {
	if db == nil {
		return
	}

	tables := []string{
		"SaleHistory", "Invoices", "Payments", "SaleLines", "Sales",
		"CreditAccountEntries", "StockMovements", "StockLevels",
		"ProductBarcodes", "ProductCategories", "Products", "Customers", "AuditLog",
	}
	for _, table := range tables {
		if _, err := db.Exec(fmt.Sprintf("DELETE FROM %s", table)); err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}

	db.Close()
}

// SetupTestTables creates the schema and starts from empty tables.
func SetupTestTables(t *testing.T, db *sql.DB) {
	if err := mysql.ApplySchema(context.Background(), db); err != nil {
		t.Fatalf("failed to create tables: %v", err)
	}

	for _, table := range []string{
		"SaleHistory", "Invoices", "Payments", "SaleLines", "Sales",
		"CreditAccountEntries", "StockMovements", "StockLevels",
		"ProductBarcodes", "ProductCategories", "Products", "Customers", "AuditLog",
	} {
		if _, err := db.Exec(fmt.Sprintf("DELETE FROM %s", table)); err != nil {
			t.Logf("failed to reset table %s: %v", table, err)
		}
	}
}

// InsertProduct seeds an active product and returns its id.
func InsertProduct(t *testing.T, db *sql.DB, sku, name, price string, minStock int) int {
	res, err := db.Exec(`
		INSERT INTO Products (sku, skuNormalized, name, description, price, minStock, unit, isActive)
		VALUES (?, LOWER(?), ?, '', ?, ?, 'unidad', 1)
	`, sku, sku, name, price, minStock)
	if err != nil {
		t.Fatalf("failed to insert product: %v", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("failed to read product id: %v", err)
	}
	return int(id)
}

// SetStock overwrites the stock counter without writing a movement.
func SetStock(t *testing.T, db *sql.DB, productID, quantity int) {
	_, err := db.Exec(`
		INSERT INTO StockLevels (productId, quantity) VALUES (?, ?)
		ON DUPLICATE KEY UPDATE quantity = VALUES(quantity)
	`, productID, quantity)
	if err != nil {
		t.Fatalf("failed to set stock: %v", err)
	}
}

// InsertCustomer seeds a credit-enabled customer and returns its id.
func InsertCustomer(t *testing.T, db *sql.DB, firstName, lastName, creditLimit string) int {
	res, err := db.Exec(`
		INSERT INTO Customers (firstName, lastName, document, address, creditEnabled, creditLimit)
		VALUES (?, ?, '20-12345678-9', 'Av. Siempre Viva 742', 1, ?)
	`, firstName, lastName, creditLimit)
	if err != nil {
		t.Fatalf("failed to insert customer: %v", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("failed to read customer id: %v", err)
	}
	return int(id)
}
