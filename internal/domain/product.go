package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const MaxProductCategories = 3

type Product struct {
	ID                    int
	SKU                   string
	Name                  string
	Description           string
	CategoryID            *int
	Price                 decimal.Decimal
	MinStock              int
	Unit                  string
	IsActive              bool
	PreferredLocationID   *int
	PreferredLocationCode string
	CategoryIDs           []int
	Barcodes              []string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// LowStockItem is a product whose stock counter sits below its threshold.
type LowStockItem struct {
	ProductID int
	SKU       string
	Name      string
	MinStock  int
	Quantity  int
}
