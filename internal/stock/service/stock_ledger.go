package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"ferreteria/internal/domain"
	apperrors "ferreteria/internal/errors"
	"ferreteria/internal/infrastructure/mysql"
	"ferreteria/internal/stock/repository"
)

const (
	defaultMovementsPage  = 1
	defaultMovementsLimit = 50
	maxMovementsLimit     = 500
)

type StockRepository interface {
	GetQuantity(ctx context.Context, productID int) (int, error)
	GetQuantities(ctx context.Context, productIDs []int) (map[int]int, error)
	AddDelta(ctx context.Context, tx *sql.Tx, productID int, delta int) error
	DecrementIfAvailable(ctx context.Context, tx *sql.Tx, productID int, quantity int) (bool, error)
	InsertMovement(ctx context.Context, tx *sql.Tx, m domain.StockMovement) (int64, error)
	ListMovements(ctx context.Context, filter repository.MovementFilter) ([]domain.StockMovement, int, error)
	ListLowStock(ctx context.Context) ([]domain.LowStockItem, error)
}

type MovementPage struct {
	Movements []domain.StockMovement
	Total     int
	Page      int
	Limit     int
}

// StockLedger owns the per-product stock counter and its movement log.
// Every change is a signed delta written in the same transaction as the
// movement that explains it.
type StockLedger struct {
	db               mysql.TxBeginner
	repo             StockRepository
	logger           *zap.Logger
	txTimeout        time.Duration
	maxRetryAttempts int
}

func NewStockLedger(
	db mysql.TxBeginner,
	repo StockRepository,
	logger *zap.Logger,
	txTimeout time.Duration,
	maxRetryAttempts int,
) *StockLedger {
	return &StockLedger{
		db:               db,
		repo:             repo,
		logger:           logger,
		txTimeout:        txTimeout,
		maxRetryAttempts: maxRetryAttempts,
	}
}

func (l *StockLedger) GetQuantity(ctx context.Context, productID int) (int, error) {
	qty, err := l.repo.GetQuantity(ctx, productID)
	if err != nil {
		l.logger.Error("failed to read stock", zap.Int("productId", productID), zap.Error(err))
		return 0, apperrors.NewInternalError("reading stock", err)
	}
	return qty, nil
}

func (l *StockLedger) GetQuantities(ctx context.Context, productIDs []int) (map[int]int, error) {
	quantities, err := l.repo.GetQuantities(ctx, productIDs)
	if err != nil {
		l.logger.Error("failed to read stock levels", zap.Ints("productIds", productIDs), zap.Error(err))
		return nil, apperrors.NewInternalError("reading stock levels", err)
	}
	return quantities, nil
}

func (l *StockLedger) Ingress(ctx context.Context, productID int, quantity int, reason string, unitCost *decimal.Decimal) error {
	if err := validateQuantity(quantity); err != nil {
		return err
	}
	if unitCost != nil && unitCost.IsNegative() {
		return apperrors.NewBusinessError(apperrors.CodeInvalidField, "unitCost", "unit cost must not be negative")
	}

	err := l.inTx(ctx, "stock.ingress", func(ctx context.Context, tx *sql.Tx) error {
		if err := l.repo.AddDelta(ctx, tx, productID, quantity); err != nil {
			return err
		}
		_, err := l.repo.InsertMovement(ctx, tx, domain.StockMovement{
			ProductID: productID,
			Type:      domain.MovementIngress,
			Quantity:  quantity,
			Reason:    optionalReason(reason),
			UnitCost:  unitCost,
		})
		return err
	})
	if err != nil {
		return l.storageFailure("ingress", productID, quantity, err)
	}

	l.logger.Info("stock ingress", zap.Int("productId", productID), zap.Int("quantity", quantity))
	return nil
}

func (l *StockLedger) Egress(ctx context.Context, productID int, quantity int, reason string) error {
	if err := validateQuantity(quantity); err != nil {
		return err
	}

	var insufficient bool
	err := l.inTx(ctx, "stock.egress", func(ctx context.Context, tx *sql.Tx) error {
		insufficient = false
		ok, err := l.repo.DecrementIfAvailable(ctx, tx, productID, quantity)
		if err != nil {
			return err
		}
		if !ok {
			insufficient = true
			return nil
		}
		_, err = l.repo.InsertMovement(ctx, tx, domain.StockMovement{
			ProductID: productID,
			Type:      domain.MovementEgress,
			Quantity:  quantity,
			Reason:    optionalReason(reason),
		})
		return err
	})
	if err != nil {
		return l.storageFailure("egress", productID, quantity, err)
	}

	if insufficient {
		available, readErr := l.repo.GetQuantity(ctx, productID)
		if readErr != nil {
			l.logger.Warn("failed to read stock after rejected egress", zap.Int("productId", productID), zap.Error(readErr))
		}
		l.logger.Info("stock egress rejected", zap.Int("productId", productID), zap.Int("quantity", quantity), zap.Int("available", available))
		return InsufficientStockError(productID, quantity, available)
	}

	l.logger.Info("stock egress", zap.Int("productId", productID), zap.Int("quantity", quantity))
	return nil
}

// EgressAllowingNegative is the point-of-sale override: the counter may
// go below zero.
func (l *StockLedger) EgressAllowingNegative(ctx context.Context, productID int, quantity int, reason string) error {
	if err := validateQuantity(quantity); err != nil {
		return err
	}

	err := l.inTx(ctx, "stock.egress_negative", func(ctx context.Context, tx *sql.Tx) error {
		if err := l.repo.AddDelta(ctx, tx, productID, -quantity); err != nil {
			return err
		}
		_, err := l.repo.InsertMovement(ctx, tx, domain.StockMovement{
			ProductID: productID,
			Type:      domain.MovementEgress,
			Quantity:  quantity,
			Reason:    optionalReason(reason),
		})
		return err
	})
	if err != nil {
		return l.storageFailure("egress allowing negative", productID, quantity, err)
	}

	l.logger.Info("stock egress allowing negative", zap.Int("productId", productID), zap.Int("quantity", quantity))
	return nil
}

func (l *StockLedger) ListMovements(ctx context.Context, filter repository.MovementFilter) (*MovementPage, error) {
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, apperrors.NewBusinessError(apperrors.CodeInvalidField, "type", "type must be INGRESO or EGRESO")
	}
	if filter.Page < 1 {
		filter.Page = defaultMovementsPage
	}
	if filter.Limit < 1 {
		filter.Limit = defaultMovementsLimit
	}
	if filter.Limit > maxMovementsLimit {
		filter.Limit = maxMovementsLimit
	}

	movements, total, err := l.repo.ListMovements(ctx, filter)
	if err != nil {
		l.logger.Error("failed to list stock movements", zap.Error(err))
		return nil, apperrors.NewInternalError("listing stock movements", err)
	}

	return &MovementPage{Movements: movements, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func (l *StockLedger) ListLowStock(ctx context.Context) ([]domain.LowStockItem, error) {
	items, err := l.repo.ListLowStock(ctx)
	if err != nil {
		l.logger.Error("failed to list low stock", zap.Error(err))
		return nil, apperrors.NewInternalError("listing low stock", err)
	}
	return items, nil
}

func (l *StockLedger) inTx(ctx context.Context, op string, fn func(ctx context.Context, tx *sql.Tx) error) error {
	return mysql.RetryOnDeadlock(ctx, l.maxRetryAttempts, l.logger, op, func() error {
		return mysql.WithTx(ctx, l.db, l.txTimeout, fn)
	})
}

func (l *StockLedger) storageFailure(op string, productID, quantity int, err error) error {
	if _, ok := apperrors.IsDeadlockError(err); ok {
		l.logger.Error("stock "+op+" gave up after deadlocks", zap.Int("productId", productID), zap.Int("quantity", quantity))
		return err
	}
	l.logger.Error("stock "+op+" failed", zap.Int("productId", productID), zap.Int("quantity", quantity), zap.Error(err))
	return apperrors.NewInternalError("stock "+op, err)
}

func validateQuantity(quantity int) error {
	if quantity <= 0 {
		return apperrors.NewBusinessError(apperrors.CodeInvalidQuantity, "quantity", "quantity must be greater than zero")
	}
	return nil
}

// InsufficientStockError reports a rejected egress with the stock seen.
func InsufficientStockError(productID, requested, available int) error {
	return apperrors.NewBusinessError(apperrors.CodeInsufficientStock, "quantity",
		fmt.Sprintf("insufficient stock for product %d: requested %d, available %d", productID, requested, available))
}

func optionalReason(reason string) *string {
	if reason == "" {
		return nil
	}
	return &reason
}
