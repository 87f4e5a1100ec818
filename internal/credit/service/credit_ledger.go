package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"ferreteria/internal/domain"
	apperrors "ferreteria/internal/errors"
)

type Repository interface {
	Balance(ctx context.Context, customerID int) (decimal.Decimal, error)
	Insert(ctx context.Context, e domain.CreditAccountEntry) (int64, error)
	ListByCustomer(ctx context.Context, customerID int) ([]domain.CreditAccountEntry, error)
}

// CreditLedger keeps each customer's store-credit account as an
// append-only list of entries. The balance is always derived, never stored.
type CreditLedger struct {
	repo   Repository
	logger *zap.Logger
}

func NewCreditLedger(repo Repository, logger *zap.Logger) *CreditLedger {
	return &CreditLedger{repo: repo, logger: logger}
}

func (l *CreditLedger) GetBalance(ctx context.Context, customerID int) (decimal.Decimal, error) {
	balance, err := l.repo.Balance(ctx, customerID)
	if err != nil {
		l.logger.Error("failed to read credit balance", zap.Int("customerId", customerID), zap.Error(err))
		return decimal.Zero, apperrors.NewInternalError("reading credit balance", err)
	}
	return balance, nil
}

// RegisterDebt charges a store-credit sale to the customer's account.
func (l *CreditLedger) RegisterDebt(ctx context.Context, customerID int, saleID int64, amount decimal.Decimal, operatorID int, description string) error {
	if !amount.IsPositive() {
		return apperrors.NewBusinessError(apperrors.CodeInvalidField, "amount", "debt amount must be greater than zero")
	}

	_, err := l.repo.Insert(ctx, domain.CreditAccountEntry{
		CustomerID:  customerID,
		Type:        domain.CreditDebt,
		Amount:      amount.Round(2),
		SaleID:      &saleID,
		OperatorID:  &operatorID,
		Description: description,
	})
	if err != nil {
		l.logger.Error("failed to register debt",
			zap.Int("customerId", customerID), zap.Int64("saleId", saleID), zap.String("amount", amount.StringFixed(2)), zap.Error(err))
		return apperrors.NewInternalError("registering debt", err)
	}

	l.logger.Info("debt registered", zap.Int("customerId", customerID), zap.Int64("saleId", saleID), zap.String("amount", amount.StringFixed(2)))
	return nil
}

// RegisterPayment records money received against the account. Paying more
// than the balance is allowed and leaves the account in the customer's
// favor.
func (l *CreditLedger) RegisterPayment(ctx context.Context, customerID int, amount decimal.Decimal, operatorID int, description string) (*domain.CreditAccountEntry, error) {
	if !amount.IsPositive() {
		return nil, apperrors.NewBusinessError(apperrors.CodeInvalidField, "amount", "payment amount must be greater than zero")
	}

	entry := domain.CreditAccountEntry{
		CustomerID:  customerID,
		Type:        domain.CreditPayment,
		Amount:      amount.Round(2),
		OperatorID:  &operatorID,
		Description: description,
	}
	id, err := l.repo.Insert(ctx, entry)
	if err != nil {
		l.logger.Error("failed to register payment", zap.Int("customerId", customerID), zap.Error(err))
		return nil, apperrors.NewInternalError("registering payment", err)
	}
	entry.ID = id

	l.logger.Info("payment registered", zap.Int("customerId", customerID), zap.String("amount", entry.Amount.StringFixed(2)))
	return &entry, nil
}

func (l *CreditLedger) ListEntries(ctx context.Context, customerID int) ([]domain.CreditAccountEntry, error) {
	entries, err := l.repo.ListByCustomer(ctx, customerID)
	if err != nil {
		l.logger.Error("failed to list credit entries", zap.Int("customerId", customerID), zap.Error(err))
		return nil, apperrors.NewInternalError(fmt.Sprintf("listing credit entries of customer %d", customerID), err)
	}
	return entries, nil
}
