package controller

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"ferreteria/internal/catalog/usecase"
	"ferreteria/internal/domain"
	"ferreteria/internal/dto"
	"ferreteria/internal/web"
)

type SearchUseCase interface {
	SearchProducts(ctx context.Context, op domain.Operator, ids []int) (*usecase.SearchResult, error)
}

type SearchController struct {
	useCase SearchUseCase
	logger  *zap.Logger
}

func NewSearchController(useCase SearchUseCase, logger *zap.Logger) *SearchController {
	return &SearchController{
		useCase: useCase,
		logger:  logger,
	}
}

// SearchProducts resolves a batch of ids; unknown ids are listed in
// notFound rather than failing the request.
func (c *SearchController) SearchProducts(w http.ResponseWriter, r *http.Request) {
	traceID := web.NewTraceID()
	logger := c.logger.With(zap.String("traceId", traceID))

	var req dto.SearchProductsRequest
	if err := web.Decode(r, &req); err != nil {
		web.WriteError(w, logger, traceID, err)
		return
	}

	result, err := c.useCase.SearchProducts(r.Context(), web.OperatorFrom(r.Context()), req.ProductIDs)
	if err != nil {
		web.WriteError(w, logger, traceID, err)
		return
	}

	products := make([]dto.SearchProductDTO, 0, len(result.Products))
	for _, p := range result.Products {
		qty := result.Quantities[p.ID]
		products = append(products, dto.SearchProductDTO{
			ProductDTO: dto.NewProductDTO(p),
			Stock:      qty,
			HasStock:   qty > 0,
		})
	}

	web.WriteJSON(w, logger, http.StatusOK, dto.SearchProductsResponse{
		Products: products,
		NotFound: result.NotFound,
	})
}
