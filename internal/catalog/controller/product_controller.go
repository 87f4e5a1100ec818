package controller

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"ferreteria/internal/concurrency"
	"ferreteria/internal/domain"
	"ferreteria/internal/dto"
	"ferreteria/internal/web"
)

type ManageProductsUseCase interface {
	Create(ctx context.Context, op domain.Operator, p domain.Product) (*domain.Product, error)
	GetForEdit(ctx context.Context, op domain.Operator, id int) (*domain.Product, concurrency.Token, error)
	Update(ctx context.Context, op domain.Operator, id int, p domain.Product, token concurrency.Token) (*domain.Product, error)
}

type ProductController struct {
	useCase ManageProductsUseCase
	logger  *zap.Logger
}

func NewProductController(useCase ManageProductsUseCase, logger *zap.Logger) *ProductController {
	return &ProductController{
		useCase: useCase,
		logger:  logger,
	}
}

func (c *ProductController) Create(w http.ResponseWriter, r *http.Request) {
	traceID := web.NewTraceID()
	logger := c.logger.With(zap.String("traceId", traceID))

	var req dto.ProductRequest
	if err := web.Decode(r, &req); err != nil {
		web.WriteError(w, logger, traceID, err)
		return
	}

	p, err := c.useCase.Create(r.Context(), web.OperatorFrom(r.Context()), req.ToDomain())
	if err != nil {
		web.WriteError(w, logger, traceID, err)
		return
	}

	web.WriteJSON(w, logger, http.StatusCreated, dto.NewProductDTO(*p))
}

func (c *ProductController) GetForEdit(w http.ResponseWriter, r *http.Request) {
	traceID := web.NewTraceID()
	logger := c.logger.With(zap.String("traceId", traceID))

	id, err := web.PathID(r, "productId")
	if err != nil {
		web.WriteError(w, logger, traceID, err)
		return
	}

	p, token, err := c.useCase.GetForEdit(r.Context(), web.OperatorFrom(r.Context()), id)
	if err != nil {
		web.WriteError(w, logger, traceID, err)
		return
	}

	web.WriteJSON(w, logger, http.StatusOK, dto.ProductEditResponse{
		Product: dto.NewProductDTO(*p),
		Token:   string(token),
	})
}

// Update answers 409 CONCURRENT_MODIFICATION when the product changed
// after the client loaded its edit form.
func (c *ProductController) Update(w http.ResponseWriter, r *http.Request) {
	traceID := web.NewTraceID()
	logger := c.logger.With(zap.String("traceId", traceID))

	id, err := web.PathID(r, "productId")
	if err != nil {
		web.WriteError(w, logger, traceID, err)
		return
	}

	var req dto.UpdateProductRequest
	if err := web.Decode(r, &req); err != nil {
		web.WriteError(w, logger, traceID, err)
		return
	}

	p, err := c.useCase.Update(r.Context(), web.OperatorFrom(r.Context()), id, req.ToDomain(), concurrency.Token(req.Token))
	if err != nil {
		web.WriteError(w, logger, traceID, err)
		return
	}

	web.WriteJSON(w, logger, http.StatusOK, dto.NewProductDTO(*p))
}
