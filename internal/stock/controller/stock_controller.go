package controller

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"ferreteria/internal/domain"
	"ferreteria/internal/dto"
	apperrors "ferreteria/internal/errors"
	"ferreteria/internal/stock/repository"
	"ferreteria/internal/stock/service"
	"ferreteria/internal/stock/usecase"
	"ferreteria/internal/web"
)

type StockReader interface {
	GetQuantity(ctx context.Context, productID int) (int, error)
	GetQuantities(ctx context.Context, productIDs []int) (map[int]int, error)
	ListMovements(ctx context.Context, filter repository.MovementFilter) (*service.MovementPage, error)
	ListLowStock(ctx context.Context) ([]domain.LowStockItem, error)
}

type AdjustStockUseCase interface {
	Ingress(ctx context.Context, op domain.Operator, adj usecase.Adjustment) error
	Egress(ctx context.Context, op domain.Operator, adj usecase.Adjustment) error
	EgressAllowingNegative(ctx context.Context, op domain.Operator, adj usecase.Adjustment) error
}

type StockController struct {
	reader StockReader
	adjust AdjustStockUseCase
	logger *zap.Logger
}

func NewStockController(reader StockReader, adjust AdjustStockUseCase, logger *zap.Logger) *StockController {
	return &StockController{
		reader: reader,
		adjust: adjust,
		logger: logger,
	}
}

func (c *StockController) GetQuantity(w http.ResponseWriter, r *http.Request) {
	traceID := web.NewTraceID()
	logger := c.logger.With(zap.String("traceId", traceID))

	productID, err := web.PathID(r, "productId")
	if err != nil {
		web.WriteError(w, logger, traceID, err)
		return
	}

	qty, err := c.reader.GetQuantity(r.Context(), productID)
	if err != nil {
		web.WriteError(w, logger, traceID, err)
		return
	}

	web.WriteJSON(w, logger, http.StatusOK, dto.StockQuantityResponse{ProductID: productID, Quantity: qty})
}

func (c *StockController) GetQuantities(w http.ResponseWriter, r *http.Request) {
	traceID := web.NewTraceID()
	logger := c.logger.With(zap.String("traceId", traceID))

	var req dto.StockQuantitiesRequest
	if err := web.Decode(r, &req); err != nil {
		web.WriteError(w, logger, traceID, err)
		return
	}

	quantities, err := c.reader.GetQuantities(r.Context(), req.ProductIDs)
	if err != nil {
		web.WriteError(w, logger, traceID, err)
		return
	}

	resp := dto.StockQuantitiesResponse{Quantities: make([]dto.StockQuantityResponse, 0, len(req.ProductIDs))}
	seen := make(map[int]bool, len(req.ProductIDs))
	for _, id := range req.ProductIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		resp.Quantities = append(resp.Quantities, dto.StockQuantityResponse{ProductID: id, Quantity: quantities[id]})
	}
	web.WriteJSON(w, logger, http.StatusOK, resp)
}

func (c *StockController) Ingress(w http.ResponseWriter, r *http.Request) {
	c.handleAdjustment(w, r, c.adjust.Ingress)
}

func (c *StockController) Egress(w http.ResponseWriter, r *http.Request) {
	c.handleAdjustment(w, r, c.adjust.Egress)
}

func (c *StockController) EgressAllowingNegative(w http.ResponseWriter, r *http.Request) {
	c.handleAdjustment(w, r, c.adjust.EgressAllowingNegative)
}

func (c *StockController) handleAdjustment(
	w http.ResponseWriter,
	r *http.Request,
	apply func(ctx context.Context, op domain.Operator, adj usecase.Adjustment) error,
) {
	traceID := web.NewTraceID()
	logger := c.logger.With(zap.String("traceId", traceID))

	productID, err := web.PathID(r, "productId")
	if err != nil {
		web.WriteError(w, logger, traceID, err)
		return
	}

	var req dto.StockAdjustmentRequest
	if err := web.Decode(r, &req); err != nil {
		web.WriteError(w, logger, traceID, err)
		return
	}

	adj := usecase.Adjustment{
		ProductID: productID,
		Quantity:  req.Quantity,
		Reason:    req.Reason,
		UnitCost:  req.UnitCost,
	}
	if err := apply(r.Context(), web.OperatorFrom(r.Context()), adj); err != nil {
		web.WriteError(w, logger, traceID, err)
		return
	}

	qty, err := c.reader.GetQuantity(r.Context(), productID)
	if err != nil {
		web.WriteError(w, logger, traceID, err)
		return
	}
	web.WriteJSON(w, logger, http.StatusOK, dto.StockQuantityResponse{ProductID: productID, Quantity: qty})
}

func (c *StockController) ListMovements(w http.ResponseWriter, r *http.Request) {
	traceID := web.NewTraceID()
	logger := c.logger.With(zap.String("traceId", traceID))

	filter, err := parseMovementFilter(r)
	if err != nil {
		web.WriteError(w, logger, traceID, err)
		return
	}

	page, err := c.reader.ListMovements(r.Context(), filter)
	if err != nil {
		web.WriteError(w, logger, traceID, err)
		return
	}

	resp := dto.StockMovementPageResponse{
		Movements: make([]dto.StockMovementDTO, len(page.Movements)),
		Total:     page.Total,
		Page:      page.Page,
		Limit:     page.Limit,
	}
	for i, m := range page.Movements {
		resp.Movements[i] = dto.NewStockMovementDTO(m)
	}
	web.WriteJSON(w, logger, http.StatusOK, resp)
}

func (c *StockController) ListLowStock(w http.ResponseWriter, r *http.Request) {
	traceID := web.NewTraceID()
	logger := c.logger.With(zap.String("traceId", traceID))

	items, err := c.reader.ListLowStock(r.Context())
	if err != nil {
		web.WriteError(w, logger, traceID, err)
		return
	}

	resp := make([]dto.LowStockItemDTO, len(items))
	for i, it := range items {
		resp[i] = dto.LowStockItemDTO{
			ProductID: it.ProductID,
			SKU:       it.SKU,
			Name:      it.Name,
			MinStock:  it.MinStock,
			Quantity:  it.Quantity,
		}
	}
	web.WriteJSON(w, logger, http.StatusOK, resp)
}

func parseMovementFilter(r *http.Request) (repository.MovementFilter, error) {
	var filter repository.MovementFilter

	productID, err := web.QueryInt(r, "productId", 0)
	if err != nil {
		return filter, err
	}
	if productID < 0 {
		return filter, apperrors.NewBusinessError(apperrors.CodeInvalidField, "productId", "productId must be positive")
	}
	if productID > 0 {
		filter.ProductID = &productID
	}

	filter.Type = domain.MovementType(r.URL.Query().Get("type"))

	if filter.Page, err = web.QueryInt(r, "page", 0); err != nil {
		return filter, err
	}
	if filter.Limit, err = web.QueryInt(r, "limit", 0); err != nil {
		return filter, err
	}
	return filter, nil
}
