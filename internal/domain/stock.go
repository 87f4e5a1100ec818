package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type MovementType string

const (
	MovementIngress MovementType = "INGRESO"
	MovementEgress  MovementType = "EGRESO"
)

func (t MovementType) Valid() bool {
	return t == MovementIngress || t == MovementEgress
}

// StockMovement is append-only. Quantity is always positive; the type
// carries the direction.
type StockMovement struct {
	ID        int64
	ProductID int
	Type      MovementType
	Quantity  int
	Reason    *string
	UnitCost  *decimal.Decimal
	CreatedAt time.Time
}
