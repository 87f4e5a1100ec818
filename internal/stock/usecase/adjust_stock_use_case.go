package usecase

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"ferreteria/internal/domain"
	apperrors "ferreteria/internal/errors"
)

type StockLedger interface {
	Ingress(ctx context.Context, productID int, quantity int, reason string, unitCost *decimal.Decimal) error
	Egress(ctx context.Context, productID int, quantity int, reason string) error
	EgressAllowingNegative(ctx context.Context, productID int, quantity int, reason string) error
}

type ProductFinder interface {
	GetByID(ctx context.Context, id int) (*domain.Product, error)
}

type AuditRecorder interface {
	Record(ctx context.Context, e domain.AuditEntry)
}

// Adjustment is a manual stock correction made from the back office.
type Adjustment struct {
	ProductID int
	Quantity  int
	Reason    string
	UnitCost  *decimal.Decimal
}

type AdjustStockUseCase struct {
	ledger   StockLedger
	products ProductFinder
	audit    AuditRecorder
	logger   *zap.Logger
}

func NewAdjustStockUseCase(ledger StockLedger, products ProductFinder, audit AuditRecorder, logger *zap.Logger) *AdjustStockUseCase {
	return &AdjustStockUseCase{
		ledger:   ledger,
		products: products,
		audit:    audit,
		logger:   logger,
	}
}

func (uc *AdjustStockUseCase) Ingress(ctx context.Context, op domain.Operator, adj Adjustment) error {
	if !op.Can(domain.CapAdjustStock) {
		return apperrors.NewForbiddenError("operator cannot adjust stock")
	}
	if err := uc.ensureProduct(ctx, adj.ProductID); err != nil {
		return err
	}
	if err := uc.ledger.Ingress(ctx, adj.ProductID, adj.Quantity, adj.Reason, adj.UnitCost); err != nil {
		return err
	}
	uc.record(ctx, op, domain.AuditStockIngress, adj)
	return nil
}

func (uc *AdjustStockUseCase) Egress(ctx context.Context, op domain.Operator, adj Adjustment) error {
	if !op.Can(domain.CapAdjustStock) {
		return apperrors.NewForbiddenError("operator cannot adjust stock")
	}
	if err := uc.ensureProduct(ctx, adj.ProductID); err != nil {
		return err
	}
	if err := uc.ledger.Egress(ctx, adj.ProductID, adj.Quantity, adj.Reason); err != nil {
		return err
	}
	uc.record(ctx, op, domain.AuditStockEgress, adj)
	return nil
}

// EgressAllowingNegative lets the counter drop below zero, so it needs
// its own capability.
func (uc *AdjustStockUseCase) EgressAllowingNegative(ctx context.Context, op domain.Operator, adj Adjustment) error {
	if !op.Can(domain.CapAdjustStockNegative) {
		return apperrors.NewForbiddenError("operator cannot take stock below zero")
	}
	if err := uc.ensureProduct(ctx, adj.ProductID); err != nil {
		return err
	}
	if err := uc.ledger.EgressAllowingNegative(ctx, adj.ProductID, adj.Quantity, adj.Reason); err != nil {
		return err
	}
	uc.record(ctx, op, domain.AuditStockEgressNegative, adj)
	return nil
}

func (uc *AdjustStockUseCase) ensureProduct(ctx context.Context, productID int) error {
	if _, err := uc.products.GetByID(ctx, productID); err != nil {
		if _, ok := apperrors.IsNotFoundError(err); ok {
			return apperrors.NewNotFoundError(fmt.Sprintf("product %d not found", productID))
		}
		return err
	}
	return nil
}

func (uc *AdjustStockUseCase) record(ctx context.Context, op domain.Operator, action string, adj Adjustment) {
	detail := fmt.Sprintf("product=%d quantity=%d", adj.ProductID, adj.Quantity)
	if adj.Reason != "" {
		detail += " reason=" + adj.Reason
	}
	uc.audit.Record(ctx, domain.AuditEntry{
		OperatorID:   op.ID,
		OperatorName: op.Name,
		Action:       action,
		Detail:       detail,
	})
	uc.logger.Info("stock adjusted",
		zap.String("action", action),
		zap.Int("operatorId", op.ID),
		zap.Int("productId", adj.ProductID),
		zap.Int("quantity", adj.Quantity),
	)
}
