package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

const WalkInCustomerName = "CONSUMIDOR FINAL"

type Customer struct {
	ID            int
	FirstName     string
	LastName      string
	Document      string
	Address       string
	CreditEnabled bool
	CreditLimit   decimal.Decimal
}

// DisplayName joins name and surname, falling back to the walk-in label
// when both are blank.
func (c *Customer) DisplayName() string {
	if c == nil {
		return WalkInCustomerName
	}
	name := strings.TrimSpace(strings.TrimSpace(c.FirstName) + " " + strings.TrimSpace(c.LastName))
	if name == "" {
		return WalkInCustomerName
	}
	return name
}
