package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"ferreteria/internal/domain"
)

type StockAdjustmentRequest struct {
	Quantity int              `json:"quantity"`
	Reason   string           `json:"reason" validate:"max=255"`
	UnitCost *decimal.Decimal `json:"unitCost,omitempty"`
}

type StockQuantitiesRequest struct {
	ProductIDs []int `json:"productIds" validate:"required,min=1,max=500,dive,gt=0"`
}

type StockQuantityResponse struct {
	ProductID int `json:"productId"`
	Quantity  int `json:"quantity"`
}

type StockQuantitiesResponse struct {
	Quantities []StockQuantityResponse `json:"quantities"`
}

type StockMovementDTO struct {
	ID        int64     `json:"id"`
	ProductID int       `json:"productId"`
	Type      string    `json:"type"`
	Quantity  int       `json:"quantity"`
	Reason    *string   `json:"reason"`
	UnitCost  *string   `json:"unitCost"`
	CreatedAt time.Time `json:"createdAt"`
}

type StockMovementPageResponse struct {
	Movements []StockMovementDTO `json:"movements"`
	Total     int                `json:"total"`
	Page      int                `json:"page"`
	Limit     int                `json:"limit"`
}

type LowStockItemDTO struct {
	ProductID int    `json:"productId"`
	SKU       string `json:"sku"`
	Name      string `json:"name"`
	MinStock  int    `json:"minStock"`
	Quantity  int    `json:"quantity"`
}

func NewStockMovementDTO(m domain.StockMovement) StockMovementDTO {
	out := StockMovementDTO{
		ID:        m.ID,
		ProductID: m.ProductID,
		Type:      string(m.Type),
		Quantity:  m.Quantity,
		Reason:    m.Reason,
		CreatedAt: m.CreatedAt,
	}
	if m.UnitCost != nil {
		cost := Money(*m.UnitCost)
		out.UnitCost = &cost
	}
	return out
}

// Money renders an amount with exactly two decimals.
func Money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
