package service

import (
	"context"

	"go.uber.org/zap"

	"ferreteria/internal/domain"
	apperrors "ferreteria/internal/errors"
)

type Repository interface {
	GetByID(ctx context.Context, id int) (*domain.Customer, error)
}

// CustomerDirectory is a read-only view of the customer master; creating
// and editing customers happens elsewhere.
type CustomerDirectory struct {
	repo   Repository
	logger *zap.Logger
}

func NewCustomerDirectory(repo Repository, logger *zap.Logger) *CustomerDirectory {
	return &CustomerDirectory{repo: repo, logger: logger}
}

func (d *CustomerDirectory) GetByID(ctx context.Context, id int) (*domain.Customer, error) {
	c, err := d.repo.GetByID(ctx, id)
	if err != nil {
		if _, ok := apperrors.IsNotFoundError(err); ok {
			return nil, err
		}
		d.logger.Error("failed to load customer", zap.Int("customerId", id), zap.Error(err))
		return nil, apperrors.NewInternalError("loading customer", err)
	}
	return c, nil
}
