package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"ferreteria/internal/domain"
)

type ProductRequest struct {
	SKU                   string          `json:"sku" validate:"required,max=64"`
	Name                  string          `json:"name" validate:"required,max=255"`
	Description           string          `json:"description"`
	CategoryID            *int            `json:"categoryId" validate:"omitempty,gt=0"`
	CategoryIDs           []int           `json:"categoryIds" validate:"max=3,dive,gt=0"`
	Price                 decimal.Decimal `json:"price"`
	MinStock              int             `json:"minStock" validate:"gte=0"`
	Unit                  string          `json:"unit" validate:"max=32"`
	IsActive              *bool           `json:"isActive"`
	PreferredLocationID   *int            `json:"preferredLocationId" validate:"omitempty,gt=0"`
	PreferredLocationCode string          `json:"preferredLocationCode" validate:"max=32"`
	Barcodes              []string        `json:"barcodes" validate:"dive,required,max=64"`
}

type UpdateProductRequest struct {
	ProductRequest
	Token string `json:"token" validate:"required,len=64,hexadecimal"`
}

type ProductDTO struct {
	ID                    int       `json:"id"`
	SKU                   string    `json:"sku"`
	Name                  string    `json:"name"`
	Description           string    `json:"description"`
	CategoryID            *int      `json:"categoryId"`
	CategoryIDs           []int     `json:"categoryIds"`
	Price                 string    `json:"price"`
	MinStock              int       `json:"minStock"`
	Unit                  string    `json:"unit"`
	IsActive              bool      `json:"isActive"`
	PreferredLocationID   *int      `json:"preferredLocationId"`
	PreferredLocationCode string    `json:"preferredLocationCode"`
	Barcodes              []string  `json:"barcodes"`
	UpdatedAt             time.Time `json:"updatedAt"`
}

// ProductEditResponse carries the token the client must send back with
// its update.
type ProductEditResponse struct {
	Product ProductDTO `json:"product"`
	Token   string     `json:"token"`
}

func (r ProductRequest) ToDomain() domain.Product {
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}
	unit := r.Unit
	if unit == "" {
		unit = "unidad"
	}
	return domain.Product{
		SKU:                   r.SKU,
		Name:                  r.Name,
		Description:           r.Description,
		CategoryID:            r.CategoryID,
		CategoryIDs:           r.CategoryIDs,
		Price:                 r.Price,
		MinStock:              r.MinStock,
		Unit:                  unit,
		IsActive:              active,
		PreferredLocationID:   r.PreferredLocationID,
		PreferredLocationCode: r.PreferredLocationCode,
		Barcodes:              r.Barcodes,
	}
}

func NewProductDTO(p domain.Product) ProductDTO {
	categories := p.CategoryIDs
	if categories == nil {
		categories = []int{}
	}
	barcodes := p.Barcodes
	if barcodes == nil {
		barcodes = []string{}
	}
	return ProductDTO{
		ID:                    p.ID,
		SKU:                   p.SKU,
		Name:                  p.Name,
		Description:           p.Description,
		CategoryID:            p.CategoryID,
		CategoryIDs:           categories,
		Price:                 Money(p.Price),
		MinStock:              p.MinStock,
		Unit:                  p.Unit,
		IsActive:              p.IsActive,
		PreferredLocationID:   p.PreferredLocationID,
		PreferredLocationCode: p.PreferredLocationCode,
		Barcodes:              barcodes,
		UpdatedAt:             p.UpdatedAt,
	}
}

type SearchProductsRequest struct {
	ProductIDs []int `json:"productIds" validate:"required,min=1,max=100,dive,gt=0"`
}

// SearchProductDTO is a catalog entry with its current stock counter, as
// the point of sale shows it before building a sale.
type SearchProductDTO struct {
	ProductDTO
	Stock    int  `json:"stock"`
	HasStock bool `json:"hasStock"`
}

type SearchProductsResponse struct {
	Products []SearchProductDTO `json:"products"`
	NotFound []int              `json:"notFound"`
}
