package usecase

import (
	"context"

	"ferreteria/internal/domain"
	apperrors "ferreteria/internal/errors"
	"ferreteria/internal/sale/service"
)

type ReceiptReader interface {
	GetReceipt(ctx context.Context, saleID int64) (*service.Receipt, error)
}

type GetReceiptUseCase struct {
	receipts ReceiptReader
}

func NewGetReceiptUseCase(receipts ReceiptReader) *GetReceiptUseCase {
	return &GetReceiptUseCase{receipts: receipts}
}

func (uc *GetReceiptUseCase) Execute(ctx context.Context, op domain.Operator, saleID int64) (*service.Receipt, error) {
	if !op.Can(domain.CapViewReceipt) {
		return nil, apperrors.NewForbiddenError("operator cannot view receipts")
	}
	return uc.receipts.GetReceipt(ctx, saleID)
}
