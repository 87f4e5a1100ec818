package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type CustomerType string

const (
	CustomerWalkIn     CustomerType = "WALK_IN"
	CustomerRegistered CustomerType = "REGISTERED"
)

func (t CustomerType) Valid() bool {
	return t == CustomerWalkIn || t == CustomerRegistered
}

type PaymentType string

const (
	PaymentCash        PaymentType = "CASH"
	PaymentStoreCredit PaymentType = "STORE_CREDIT"
)

func (t PaymentType) Valid() bool {
	return t == PaymentCash || t == PaymentStoreCredit
}

const (
	SaleStatusConfirmed = "CONFIRMED"

	SaleActionCreated = "CREATED"
)

type Sale struct {
	ID           int64
	CreatedAt    time.Time
	CustomerID   *int
	CustomerType CustomerType
	PaymentType  PaymentType
	Total        decimal.Decimal
	TotalInWords string
	OperatorID   int
	Status       string
	Notes        *string
	Lines        []SaleLine
}

type SaleLine struct {
	ID              int64
	SaleID          int64
	LineNo          int
	ProductID       int
	Description     string
	Quantity        int
	UnitPrice       decimal.Decimal
	Subtotal        decimal.Decimal
	AllowBelowStock bool
}

type Payment struct {
	ID          int64
	SaleID      int64
	PaymentType PaymentType
	Amount      decimal.Decimal
	CreatedAt   time.Time
}

type Invoice struct {
	ID               int64
	SaleID           int64
	PointOfSale      int
	Number           int64
	CustomerName     string
	CustomerDocument string
	CustomerAddress  string
	CreatedAt        time.Time
}

// LinesTotal sums line subtotals; a committed sale's Total equals it.
func (s Sale) LinesTotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range s.Lines {
		total = total.Add(l.Subtotal)
	}
	return total
}
