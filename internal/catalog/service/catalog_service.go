package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"ferreteria/internal/catalog/repository"
	"ferreteria/internal/concurrency"
	"ferreteria/internal/domain"
	apperrors "ferreteria/internal/errors"
	"ferreteria/internal/infrastructure/mysql"
)

type Repository interface {
	GetByID(ctx context.Context, id int) (*domain.Product, error)
	GetByIDs(ctx context.Context, ids []int) ([]domain.Product, error)
	FindForUpdate(ctx context.Context, tx *sql.Tx, id int) (*domain.Product, error)
	Insert(ctx context.Context, tx *sql.Tx, p domain.Product) (int, error)
	Update(ctx context.Context, tx *sql.Tx, p domain.Product) error
	ReplaceCategories(ctx context.Context, tx *sql.Tx, productID int, categoryIDs []int) error
	ReplaceBarcodes(ctx context.Context, tx *sql.Tx, productID int, codes []string) error
}

// CatalogService is the product collaborator of the sale engine and the
// back end of the product edit screen.
type CatalogService struct {
	db               mysql.TxBeginner
	repo             Repository
	logger           *zap.Logger
	txTimeout        time.Duration
	maxRetryAttempts int
}

func NewCatalogService(
	db mysql.TxBeginner,
	repo Repository,
	logger *zap.Logger,
	txTimeout time.Duration,
	maxRetryAttempts int,
) *CatalogService {
	return &CatalogService{
		db:               db,
		repo:             repo,
		logger:           logger,
		txTimeout:        txTimeout,
		maxRetryAttempts: maxRetryAttempts,
	}
}

func (s *CatalogService) GetByID(ctx context.Context, id int) (*domain.Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if _, ok := apperrors.IsNotFoundError(err); ok {
			return nil, err
		}
		s.logger.Error("failed to load product", zap.Int("productId", id), zap.Error(err))
		return nil, apperrors.NewInternalError("loading product", err)
	}
	return p, nil
}

// GetByIDs splits ids into the products found and the ids with no row.
func (s *CatalogService) GetByIDs(ctx context.Context, ids []int) ([]domain.Product, []int, error) {
	found, err := s.repo.GetByIDs(ctx, ids)
	if err != nil {
		s.logger.Error("failed to load products", zap.Ints("productIds", ids), zap.Error(err))
		return nil, nil, apperrors.NewInternalError("loading products", err)
	}

	foundSet := make(map[int]struct{}, len(found))
	for _, p := range found {
		foundSet[p.ID] = struct{}{}
	}

	var notFoundIDs []int
	for _, id := range ids {
		if _, ok := foundSet[id]; !ok {
			notFoundIDs = append(notFoundIDs, id)
		}
	}

	return found, notFoundIDs, nil
}

func (s *CatalogService) Create(ctx context.Context, p domain.Product) (*domain.Product, error) {
	p = normalize(p)
	if err := validate(p); err != nil {
		return nil, err
	}

	var id int
	err := s.inTx(ctx, "catalog.create", func(ctx context.Context, tx *sql.Tx) error {
		var err error
		if id, err = s.repo.Insert(ctx, tx, p); err != nil {
			return err
		}
		if err := s.repo.ReplaceCategories(ctx, tx, id, p.CategoryIDs); err != nil {
			return err
		}
		return s.repo.ReplaceBarcodes(ctx, tx, id, p.Barcodes)
	})
	if err != nil {
		return nil, s.writeFailure("create", p, err)
	}

	s.logger.Info("product created", zap.Int("productId", id), zap.String("sku", p.SKU))
	return s.GetByID(ctx, id)
}

// GetForEdit returns the product together with the token that Update
// expects back.
func (s *CatalogService) GetForEdit(ctx context.Context, id int) (*domain.Product, concurrency.Token, error) {
	p, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	return p, concurrency.Fingerprint(concurrency.StateOf(*p), p.CategoryIDs), nil
}

// Update applies the edit only if the stored product still hashes to
// token. The check runs on the locked row, inside the write transaction.
func (s *CatalogService) Update(ctx context.Context, id int, p domain.Product, token concurrency.Token) (*domain.Product, error) {
	p = normalize(p)
	p.ID = id
	if err := validate(p); err != nil {
		return nil, err
	}

	err := s.inTx(ctx, "catalog.update", func(ctx context.Context, tx *sql.Tx) error {
		current, err := s.repo.FindForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := concurrency.Verify(token, concurrency.Fingerprint(concurrency.StateOf(*current), current.CategoryIDs)); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, tx, p); err != nil {
			return err
		}
		if err := s.repo.ReplaceCategories(ctx, tx, id, p.CategoryIDs); err != nil {
			return err
		}
		return s.repo.ReplaceBarcodes(ctx, tx, id, p.Barcodes)
	})
	if err != nil {
		if _, ok := apperrors.IsConflictError(err); ok {
			s.logger.Info("product edit rejected, stale token", zap.Int("productId", id))
			return nil, err
		}
		if _, ok := apperrors.IsNotFoundError(err); ok {
			return nil, err
		}
		return nil, s.writeFailure("update", p, err)
	}

	s.logger.Info("product updated", zap.Int("productId", id))
	return s.GetByID(ctx, id)
}

func (s *CatalogService) inTx(ctx context.Context, op string, fn func(ctx context.Context, tx *sql.Tx) error) error {
	return mysql.RetryOnDeadlock(ctx, s.maxRetryAttempts, s.logger, op, func() error {
		return mysql.WithTx(ctx, s.db, s.txTimeout, fn)
	})
}

func (s *CatalogService) writeFailure(op string, p domain.Product, err error) error {
	switch {
	case mysql.IsDuplicateKey(err, repository.IndexSKU):
		return apperrors.NewBusinessError(apperrors.CodeDuplicateSku, "sku",
			fmt.Sprintf("sku %q is already in use", p.SKU))
	case mysql.IsDuplicateKey(err, repository.IndexBarcode):
		return apperrors.NewBusinessError(apperrors.CodeDuplicateBarcode, "barcodes",
			"one of the barcodes is already assigned to another product")
	}
	if _, ok := apperrors.IsDeadlockError(err); ok {
		return err
	}
	s.logger.Error("product "+op+" failed", zap.Int("productId", p.ID), zap.String("sku", p.SKU), zap.Error(err))
	return apperrors.NewInternalError("product "+op, err)
}

func normalize(p domain.Product) domain.Product {
	p.SKU = strings.TrimSpace(p.SKU)
	p.Name = strings.TrimSpace(p.Name)
	p.CategoryIDs = dedupeInts(p.CategoryIDs)

	codes := make([]string, 0, len(p.Barcodes))
	for _, c := range p.Barcodes {
		if c = strings.TrimSpace(c); c != "" {
			codes = append(codes, c)
		}
	}
	p.Barcodes = codes
	return p
}

// validate collects every field problem instead of stopping at the first.
func validate(p domain.Product) error {
	var details []apperrors.ValidationDetail
	add := func(code, field, msg string) {
		details = append(details, apperrors.ValidationDetail{Field: field, Code: code, Message: msg})
	}

	if p.SKU == "" {
		add(apperrors.CodeInvalidField, "sku", "sku is required")
	}
	if p.Name == "" {
		add(apperrors.CodeInvalidField, "name", "name is required")
	}
	if p.Price.IsNegative() {
		add(apperrors.CodeInvalidField, "price", "price must not be negative")
	}
	if p.MinStock < 0 {
		add(apperrors.CodeInvalidField, "minStock", "minStock must not be negative")
	}
	if len(p.CategoryIDs) > domain.MaxProductCategories {
		add(apperrors.CodeInvalidField, "categoryIds",
			fmt.Sprintf("a product can have at most %d categories", domain.MaxProductCategories))
	}

	seen := make(map[string]bool, len(p.Barcodes))
	for _, code := range p.Barcodes {
		if seen[code] {
			add(apperrors.CodeDuplicateBarcode, "barcodes", fmt.Sprintf("barcode %s is repeated", code))
		}
		seen[code] = true
	}

	if len(details) > 0 {
		return apperrors.NewValidationError("invalid product", details...)
	}
	return nil
}

func dedupeInts(ids []int) []int {
	seen := make(map[int]bool, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
