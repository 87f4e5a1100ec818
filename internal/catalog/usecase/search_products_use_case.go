package usecase

import (
	"context"

	"ferreteria/internal/domain"
	apperrors "ferreteria/internal/errors"
)

type ProductLookup interface {
	GetByIDs(ctx context.Context, ids []int) (found []domain.Product, notFoundIDs []int, err error)
}

type StockReader interface {
	GetQuantities(ctx context.Context, productIDs []int) (map[int]int, error)
}

type SearchResult struct {
	Products   []domain.Product
	Quantities map[int]int
	NotFound   []int
}

type SearchProductsUseCase struct {
	products ProductLookup
	stock    StockReader
}

func NewSearchProductsUseCase(products ProductLookup, stock StockReader) *SearchProductsUseCase {
	return &SearchProductsUseCase{products: products, stock: stock}
}

func (uc *SearchProductsUseCase) SearchProducts(ctx context.Context, op domain.Operator, ids []int) (*SearchResult, error) {
	if !op.Can(domain.CapViewStock) {
		return nil, apperrors.NewForbiddenError("operator cannot look up products")
	}

	found, notFound, err := uc.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	foundIDs := make([]int, len(found))
	for i, p := range found {
		foundIDs[i] = p.ID
	}
	quantities := map[int]int{}
	if len(foundIDs) > 0 {
		if quantities, err = uc.stock.GetQuantities(ctx, foundIDs); err != nil {
			return nil, err
		}
	}

	if notFound == nil {
		notFound = []int{}
	}
	return &SearchResult{Products: found, Quantities: quantities, NotFound: notFound}, nil
}
