package controller

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"ferreteria/internal/domain"
	"ferreteria/internal/dto"
	"ferreteria/internal/sale/service"
	"ferreteria/internal/sale/usecase"
	"ferreteria/internal/web"
)

type CreateSaleUseCase interface {
	Execute(ctx context.Context, in service.CreateSaleInput) (*usecase.Result, error)
}

type GetReceiptUseCase interface {
	Execute(ctx context.Context, op domain.Operator, saleID int64) (*service.Receipt, error)
}

type SaleController struct {
	createSale CreateSaleUseCase
	getReceipt GetReceiptUseCase
	logger     *zap.Logger
}

func NewSaleController(createSale CreateSaleUseCase, getReceipt GetReceiptUseCase, logger *zap.Logger) *SaleController {
	return &SaleController{
		createSale: createSale,
		getReceipt: getReceipt,
		logger:     logger,
	}
}

func (c *SaleController) Create(w http.ResponseWriter, r *http.Request) {
	traceID := web.NewTraceID()
	logger := c.logger.With(zap.String("traceId", traceID))

	var req dto.CreateSaleRequest
	if err := web.Decode(r, &req); err != nil {
		web.WriteError(w, logger, traceID, err)
		return
	}

	op := web.OperatorFrom(r.Context())
	logger.Info("creating sale",
		zap.Int("operatorId", op.ID),
		zap.Int("lineCount", len(req.Lines)),
		zap.String("paymentType", req.PaymentType),
	)

	result, err := c.createSale.Execute(r.Context(), toInput(req, op))
	if err != nil {
		web.WriteError(w, logger, traceID, err)
		return
	}

	resp := dto.SaleResponse{
		TraceID:          traceID,
		SaleID:           result.Sale.ID,
		Total:            dto.Money(result.Sale.Total),
		TotalInWords:     result.Sale.TotalInWords,
		PostCommitIssues: make([]dto.PostCommitIssueDTO, len(result.PostCommitIssues)),
		Timestamp:        time.Now().UTC(),
	}
	if result.Invoice != nil {
		number := result.Invoice.Number
		resp.InvoiceNumber = &number
	}
	for i, issue := range result.PostCommitIssues {
		resp.PostCommitIssues[i] = dto.PostCommitIssueDTO{Step: issue.Step, ProductID: issue.ProductID, Message: issue.Message}
	}

	web.WriteJSON(w, logger, http.StatusCreated, resp)
}

func (c *SaleController) GetReceipt(w http.ResponseWriter, r *http.Request) {
	traceID := web.NewTraceID()
	logger := c.logger.With(zap.String("traceId", traceID))

	saleID, err := web.PathID(r, "saleId")
	if err != nil {
		web.WriteError(w, logger, traceID, err)
		return
	}

	receipt, err := c.getReceipt.Execute(r.Context(), web.OperatorFrom(r.Context()), int64(saleID))
	if err != nil {
		web.WriteError(w, logger, traceID, err)
		return
	}

	web.WriteJSON(w, logger, http.StatusOK, toReceiptResponse(receipt))
}

func toInput(req dto.CreateSaleRequest, op domain.Operator) service.CreateSaleInput {
	lines := make([]service.LineInput, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = service.LineInput{ProductID: l.ProductID, Quantity: l.Quantity, AllowBelowStock: l.AllowBelowStock}
	}
	return service.CreateSaleInput{
		Lines:               lines,
		CustomerType:        domain.CustomerType(req.CustomerType),
		CustomerID:          req.CustomerID,
		PaymentType:         domain.PaymentType(req.PaymentType),
		OverrideCreditLimit: req.OverrideCreditLimit,
		IssueInvoice:        req.IssueInvoice,
		PointOfSale:         req.PointOfSale,
		Notes:               req.Notes,
		Operator:            op,
	}
}

func toReceiptResponse(rc *service.Receipt) dto.ReceiptResponse {
	s := rc.Sale
	lines := make([]dto.ReceiptLineDTO, len(s.Lines))
	for i, l := range s.Lines {
		lines[i] = dto.ReceiptLineDTO{
			LineNo:      l.LineNo,
			ProductID:   l.ProductID,
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   dto.Money(l.UnitPrice),
			Subtotal:    dto.Money(l.Subtotal),
		}
	}

	resp := dto.ReceiptResponse{
		SaleID:       s.ID,
		CreatedAt:    s.CreatedAt,
		CustomerType: string(s.CustomerType),
		CustomerName: rc.CustomerName,
		PaymentType:  string(s.PaymentType),
		Status:       s.Status,
		Total:        dto.Money(s.Total),
		TotalInWords: s.TotalInWords,
		Notes:        s.Notes,
		Lines:        lines,
	}
	if inv := rc.Invoice; inv != nil {
		resp.Invoice = &dto.InvoiceDTO{
			PointOfSale:      inv.PointOfSale,
			Number:           inv.Number,
			CustomerName:     inv.CustomerName,
			CustomerDocument: inv.CustomerDocument,
			CustomerAddress:  inv.CustomerAddress,
		}
	}
	return resp
}
