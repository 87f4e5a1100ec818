package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"ferreteria/internal/domain"
	apperrors "ferreteria/internal/errors"
	"ferreteria/internal/infrastructure/mysql"
	"ferreteria/internal/infrastructure/redis"
	"ferreteria/internal/reconcile"
	"ferreteria/internal/sale/service"
)

type SaleService interface {
	Prepare(ctx context.Context, in service.CreateSaleInput) (*service.Draft, error)
	Commit(ctx context.Context, d *service.Draft) (*service.Committed, error)
}

type StockLedger interface {
	Egress(ctx context.Context, productID int, quantity int, reason string) error
	EgressAllowingNegative(ctx context.Context, productID int, quantity int, reason string) error
}

type CreditLedger interface {
	RegisterDebt(ctx context.Context, customerID int, saleID int64, amount decimal.Decimal, operatorID int, description string) error
}

type AuditRecorder interface {
	Record(ctx context.Context, e domain.AuditEntry)
}

const (
	StepStockDepletion = "STOCK_DEPLETION"
	StepCreditDebt     = "CREDIT_DEBT"
)

// PostCommitIssue is a step that failed after the sale was committed. The
// sale stands; the issue is left for reconciliation.
type PostCommitIssue struct {
	Step      string
	ProductID int
	Message   string
}

type Result struct {
	Sale             domain.Sale
	Invoice          *domain.Invoice
	PostCommitIssues []PostCommitIssue
}

type CreateSaleUseCase struct {
	sales      SaleService
	stock      StockLedger
	credit     CreditLedger
	locker     redis.Locker
	publisher  reconcile.Publisher
	audit      AuditRecorder
	logger     *zap.Logger
	maxRetries int
}

func NewCreateSaleUseCase(
	sales SaleService,
	stock StockLedger,
	credit CreditLedger,
	locker redis.Locker,
	publisher reconcile.Publisher,
	audit AuditRecorder,
	logger *zap.Logger,
	maxRetries int,
) *CreateSaleUseCase {
	return &CreateSaleUseCase{
		sales:      sales,
		stock:      stock,
		credit:     credit,
		locker:     locker,
		publisher:  publisher,
		audit:      audit,
		logger:     logger,
		maxRetries: maxRetries,
	}
}

// Execute validates, commits and then depletes stock and charges the
// customer's account. Only validation and the commit can fail the call;
// the steps after it are reported as PostCommitIssues.
func (uc *CreateSaleUseCase) Execute(ctx context.Context, in service.CreateSaleInput) (*Result, error) {
	op := in.Operator
	if !op.Can(domain.CapCreateSale) {
		return nil, apperrors.NewForbiddenError("operator cannot create sales")
	}
	if in.OverrideCreditLimit && !op.Can(domain.CapOverrideCreditLimit) {
		return nil, apperrors.NewForbiddenError("operator cannot override the credit limit")
	}

	// Store-credit sales hold the customer's lock from the limit check
	// until the debt is written, so two sales cannot both pass the check.
	if in.PaymentType == domain.PaymentStoreCredit && in.CustomerType == domain.CustomerRegistered && in.CustomerID != nil {
		lock, err := uc.obtainCreditLock(ctx, *in.CustomerID)
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
				uc.logger.Warn("failed to release credit lock", zap.Int("customerId", *in.CustomerID), zap.Error(err))
			}
		}()
	}

	var committed *service.Committed
	err := mysql.RetryOnDeadlock(ctx, uc.maxRetries, uc.logger, "create_sale", func() error {
		draft, err := uc.sales.Prepare(ctx, in)
		if err != nil {
			return err
		}
		committed, err = uc.sales.Commit(ctx, draft)
		return err
	})
	if err != nil {
		return nil, err
	}

	// The sale is committed; nothing after this point may be cut short by
	// the caller going away.
	ctx = context.WithoutCancel(ctx)

	result := &Result{Sale: committed.Sale, Invoice: committed.Invoice}
	result.PostCommitIssues = uc.afterCommit(ctx, op, committed.Sale)

	detail := fmt.Sprintf("sale=%d total=%s payment=%s", result.Sale.ID, result.Sale.Total.StringFixed(2), result.Sale.PaymentType)
	if result.Invoice != nil {
		detail += fmt.Sprintf(" invoice=%d-%d", result.Invoice.PointOfSale, result.Invoice.Number)
	}
	uc.record(ctx, op, domain.AuditSaleCreated, detail)

	return result, nil
}

func (uc *CreateSaleUseCase) obtainCreditLock(ctx context.Context, customerID int) (redis.Lock, error) {
	lock, err := uc.locker.Obtain(ctx, fmt.Sprintf("credit:customer:%d", customerID))
	if err != nil {
		if errors.Is(err, redis.ErrLockNotObtained) {
			uc.logger.Warn("credit account busy", zap.Int("customerId", customerID))
			return nil, apperrors.NewConflictError(apperrors.CodeCreditAccountBusy,
				fmt.Sprintf("another sale for customer %d is in progress, try again", customerID))
		}
		uc.logger.Error("failed to obtain credit lock", zap.Int("customerId", customerID), zap.Error(err))
		return nil, apperrors.NewInternalError("obtaining credit lock", err)
	}
	return lock, nil
}

func (uc *CreateSaleUseCase) afterCommit(ctx context.Context, op domain.Operator, sale domain.Sale) []PostCommitIssue {
	var issues []PostCommitIssue
	reason := fmt.Sprintf("venta %d", sale.ID)

	for _, line := range sale.Lines {
		var err error
		if line.AllowBelowStock {
			err = uc.stock.EgressAllowingNegative(ctx, line.ProductID, line.Quantity, reason)
		} else {
			err = uc.stock.Egress(ctx, line.ProductID, line.Quantity, reason)
		}
		if err == nil {
			continue
		}

		issues = append(issues, PostCommitIssue{Step: StepStockDepletion, ProductID: line.ProductID, Message: err.Error()})
		uc.reportFailure(ctx, op, reconcile.Event{
			Kind:      reconcile.KindStockDepletion,
			SaleID:    sale.ID,
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Reason:    err.Error(),
		}, err)
	}

	if sale.PaymentType == domain.PaymentStoreCredit && sale.CustomerID != nil {
		err := uc.credit.RegisterDebt(ctx, *sale.CustomerID, sale.ID, sale.Total, sale.OperatorID, reason)
		if err != nil {
			issues = append(issues, PostCommitIssue{Step: StepCreditDebt, Message: err.Error()})
			uc.reportFailure(ctx, op, reconcile.Event{
				Kind:       reconcile.KindCreditDebt,
				SaleID:     sale.ID,
				CustomerID: *sale.CustomerID,
				Amount:     sale.Total.StringFixed(2),
				Reason:     err.Error(),
			}, err)
		}
	}

	return issues
}

func (uc *CreateSaleUseCase) reportFailure(ctx context.Context, op domain.Operator, e reconcile.Event, cause error) {
	e.OccurredAt = time.Now().UTC()

	uc.logger.Error("post-commit step failed",
		zap.String("event", "post_commit_failure"),
		zap.String("kind", string(e.Kind)),
		zap.Int64("saleId", e.SaleID),
		zap.Int("productId", e.ProductID),
		zap.Int("quantity", e.Quantity),
		zap.Int("customerId", e.CustomerID),
		zap.Error(cause),
	)

	if err := uc.publisher.Publish(ctx, e); err != nil {
		uc.logger.Error("failed to publish reconcile event", zap.Int64("saleId", e.SaleID), zap.Error(err))
	}

	detail := fmt.Sprintf("sale=%d kind=%s", e.SaleID, e.Kind)
	if e.ProductID != 0 {
		detail += fmt.Sprintf(" product=%d quantity=%d", e.ProductID, e.Quantity)
	}
	if e.CustomerID != 0 {
		detail += fmt.Sprintf(" customer=%d amount=%s", e.CustomerID, e.Amount)
	}
	uc.record(ctx, op, domain.AuditSalePostCommitFailed, detail)
}

func (uc *CreateSaleUseCase) record(ctx context.Context, op domain.Operator, action, detail string) {
	uc.audit.Record(ctx, domain.AuditEntry{
		OperatorID:   op.ID,
		OperatorName: op.Name,
		Action:       action,
		Detail:       detail,
		CreatedAt:    time.Now().UTC(),
	})
}
