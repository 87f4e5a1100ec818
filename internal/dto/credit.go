package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"ferreteria/internal/domain"
)

type CreditPaymentRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description" validate:"max=255"`
}

type CreditEntryDTO struct {
	ID          int64     `json:"id"`
	Type        string    `json:"type"`
	Amount      string    `json:"amount"`
	SaleID      *int64    `json:"saleId"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

type CreditBalanceResponse struct {
	CustomerID    int              `json:"customerId"`
	CustomerName  string           `json:"customerName"`
	CreditEnabled bool             `json:"creditEnabled"`
	CreditLimit   string           `json:"creditLimit"`
	Balance       string           `json:"balance"`
	Available     string           `json:"available"`
	Entries       []CreditEntryDTO `json:"entries"`
}

func NewCreditEntryDTO(e domain.CreditAccountEntry) CreditEntryDTO {
	return CreditEntryDTO{
		ID:          e.ID,
		Type:        string(e.Type),
		Amount:      Money(e.Amount),
		SaleID:      e.SaleID,
		Description: e.Description,
		CreatedAt:   e.CreatedAt,
	}
}
