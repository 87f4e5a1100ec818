package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"ferreteria/internal/concurrency"
	"ferreteria/internal/domain"
	apperrors "ferreteria/internal/errors"
)

type CatalogService interface {
	Create(ctx context.Context, p domain.Product) (*domain.Product, error)
	GetForEdit(ctx context.Context, id int) (*domain.Product, concurrency.Token, error)
	Update(ctx context.Context, id int, p domain.Product, token concurrency.Token) (*domain.Product, error)
}

type AuditRecorder interface {
	Record(ctx context.Context, e domain.AuditEntry)
}

type ManageProductsUseCase struct {
	catalog CatalogService
	audit   AuditRecorder
	logger  *zap.Logger
}

func NewManageProductsUseCase(catalog CatalogService, audit AuditRecorder, logger *zap.Logger) *ManageProductsUseCase {
	return &ManageProductsUseCase{
		catalog: catalog,
		audit:   audit,
		logger:  logger,
	}
}

func (uc *ManageProductsUseCase) Create(ctx context.Context, op domain.Operator, p domain.Product) (*domain.Product, error) {
	if !op.Can(domain.CapManageCatalog) {
		return nil, apperrors.NewForbiddenError("operator cannot manage the catalog")
	}

	created, err := uc.catalog.Create(ctx, p)
	if err != nil {
		return nil, err
	}

	uc.audit.Record(ctx, domain.AuditEntry{
		OperatorID:   op.ID,
		OperatorName: op.Name,
		Action:       domain.AuditProductCreated,
		Detail:       fmt.Sprintf("product=%d sku=%s", created.ID, created.SKU),
	})
	return created, nil
}

func (uc *ManageProductsUseCase) GetForEdit(ctx context.Context, op domain.Operator, id int) (*domain.Product, concurrency.Token, error) {
	if !op.Can(domain.CapManageCatalog) {
		return nil, "", apperrors.NewForbiddenError("operator cannot manage the catalog")
	}
	return uc.catalog.GetForEdit(ctx, id)
}

func (uc *ManageProductsUseCase) Update(ctx context.Context, op domain.Operator, id int, p domain.Product, token concurrency.Token) (*domain.Product, error) {
	if !op.Can(domain.CapManageCatalog) {
		return nil, apperrors.NewForbiddenError("operator cannot manage the catalog")
	}

	updated, err := uc.catalog.Update(ctx, id, p, token)
	if err != nil {
		if _, ok := apperrors.IsConflictError(err); ok {
			uc.logger.Info("concurrent product edit", zap.Int("productId", id), zap.Int("operatorId", op.ID))
		}
		return nil, err
	}

	uc.audit.Record(ctx, domain.AuditEntry{
		OperatorID:   op.ID,
		OperatorName: op.Name,
		Action:       domain.AuditProductUpdated,
		Detail:       fmt.Sprintf("product=%d sku=%s", updated.ID, updated.SKU),
	})
	return updated, nil
}
