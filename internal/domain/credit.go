package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type CreditEntryType string

const (
	CreditDebt       CreditEntryType = "DEBT"
	CreditPayment    CreditEntryType = "PAYMENT"
	CreditAdjustment CreditEntryType = "ADJUSTMENT"
)

type CreditAccountEntry struct {
	ID          int64
	CustomerID  int
	Type        CreditEntryType
	Amount      decimal.Decimal
	SaleID      *int64
	OperatorID  *int
	Description string
	CreatedAt   time.Time
}

// Balance folds entries into the running account balance:
// debts and adjustments add, payments subtract.
func Balance(entries []CreditAccountEntry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		switch e.Type {
		case CreditDebt, CreditAdjustment:
			total = total.Add(e.Amount)
		case CreditPayment:
			total = total.Sub(e.Amount)
		}
	}
	return total
}
