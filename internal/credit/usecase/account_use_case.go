package usecase

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"ferreteria/internal/domain"
	apperrors "ferreteria/internal/errors"
)

type CreditLedger interface {
	GetBalance(ctx context.Context, customerID int) (decimal.Decimal, error)
	RegisterPayment(ctx context.Context, customerID int, amount decimal.Decimal, operatorID int, description string) (*domain.CreditAccountEntry, error)
	ListEntries(ctx context.Context, customerID int) ([]domain.CreditAccountEntry, error)
}

type CustomerDirectory interface {
	GetByID(ctx context.Context, id int) (*domain.Customer, error)
}

type AuditRecorder interface {
	Record(ctx context.Context, e domain.AuditEntry)
}

// Statement is the account screen: where the customer stands and how
// they got there.
type Statement struct {
	Customer  domain.Customer
	Balance   decimal.Decimal
	Available decimal.Decimal
	Entries   []domain.CreditAccountEntry
}

type AccountUseCase struct {
	ledger    CreditLedger
	customers CustomerDirectory
	audit     AuditRecorder
	logger    *zap.Logger
}

func NewAccountUseCase(ledger CreditLedger, customers CustomerDirectory, audit AuditRecorder, logger *zap.Logger) *AccountUseCase {
	return &AccountUseCase{
		ledger:    ledger,
		customers: customers,
		audit:     audit,
		logger:    logger,
	}
}

func (uc *AccountUseCase) Statement(ctx context.Context, op domain.Operator, customerID int) (*Statement, error) {
	if !op.Can(domain.CapManageCredit) {
		return nil, apperrors.NewForbiddenError("operator cannot view credit accounts")
	}

	customer, err := uc.customers.GetByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	balance, err := uc.ledger.GetBalance(ctx, customerID)
	if err != nil {
		return nil, err
	}
	entries, err := uc.ledger.ListEntries(ctx, customerID)
	if err != nil {
		return nil, err
	}

	return &Statement{
		Customer:  *customer,
		Balance:   balance,
		Available: customer.CreditLimit.Sub(balance),
		Entries:   entries,
	}, nil
}

func (uc *AccountUseCase) RegisterPayment(ctx context.Context, op domain.Operator, customerID int, amount decimal.Decimal, description string) (*Statement, error) {
	if !op.Can(domain.CapManageCredit) {
		return nil, apperrors.NewForbiddenError("operator cannot register payments")
	}
	if _, err := uc.customers.GetByID(ctx, customerID); err != nil {
		return nil, err
	}

	entry, err := uc.ledger.RegisterPayment(ctx, customerID, amount, op.ID, description)
	if err != nil {
		return nil, err
	}

	uc.audit.Record(ctx, domain.AuditEntry{
		OperatorID:   op.ID,
		OperatorName: op.Name,
		Action:       domain.AuditCreditPayment,
		Detail:       fmt.Sprintf("customer=%d amount=%s entry=%d", customerID, entry.Amount.StringFixed(2), entry.ID),
	})

	return uc.Statement(ctx, op, customerID)
}
