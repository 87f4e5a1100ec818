package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ferreteria/internal/concurrency"
	"ferreteria/internal/domain"
	apperrors "ferreteria/internal/errors"
)

type mockCatalogService struct {
	CreateFunc     func(ctx context.Context, p domain.Product) (*domain.Product, error)
	GetForEditFunc func(ctx context.Context, id int) (*domain.Product, concurrency.Token, error)
	UpdateFunc     func(ctx context.Context, id int, p domain.Product, token concurrency.Token) (*domain.Product, error)
}

func (m *mockCatalogService) Create(ctx context.Context, p domain.Product) (*domain.Product, error) {
	return m.CreateFunc(ctx, p)
}

func (m *mockCatalogService) GetForEdit(ctx context.Context, id int) (*domain.Product, concurrency.Token, error) {
	return m.GetForEditFunc(ctx, id)
}

func (m *mockCatalogService) Update(ctx context.Context, id int, p domain.Product, token concurrency.Token) (*domain.Product, error) {
	return m.UpdateFunc(ctx, id, p, token)
}

type recordingAudit struct {
	entries []domain.AuditEntry
}

func (r *recordingAudit) Record(ctx context.Context, e domain.AuditEntry) {
	r.entries = append(r.entries, e)
}

var stockOperator = domain.Operator{ID: 2, Name: "Beto", Role: domain.RoleStock}

func TestCreate_AuditsProduct(t *testing.T) {
	catalog := &mockCatalogService{
		CreateFunc: func(ctx context.Context, p domain.Product) (*domain.Product, error) {
			p.ID = 11
			return &p, nil
		},
	}
	audit := &recordingAudit{}
	uc := NewManageProductsUseCase(catalog, audit, zap.NewNop())

	p, err := uc.Create(context.Background(), stockOperator, domain.Product{SKU: "X-1"})
	require.NoError(t, err)

	assert.Equal(t, 11, p.ID)
	require.Len(t, audit.entries, 1)
	assert.Equal(t, domain.AuditProductCreated, audit.entries[0].Action)
	assert.Equal(t, "product=11 sku=X-1", audit.entries[0].Detail)
}

func TestCreate_SellerForbidden(t *testing.T) {
	uc := NewManageProductsUseCase(&mockCatalogService{}, &recordingAudit{}, zap.NewNop())

	_, err := uc.Create(context.Background(), domain.Operator{Role: domain.RoleSeller}, domain.Product{})

	_, ok := apperrors.IsForbiddenError(err)
	assert.True(t, ok)
}

func TestUpdate_ConflictNotAudited(t *testing.T) {
	catalog := &mockCatalogService{
		UpdateFunc: func(ctx context.Context, id int, p domain.Product, token concurrency.Token) (*domain.Product, error) {
			return nil, apperrors.NewConflictError(apperrors.CodeConcurrentModification, "stale")
		},
	}
	audit := &recordingAudit{}
	uc := NewManageProductsUseCase(catalog, audit, zap.NewNop())

	_, err := uc.Update(context.Background(), stockOperator, 3, domain.Product{}, "old")

	_, ok := apperrors.IsConflictError(err)
	assert.True(t, ok)
	assert.Empty(t, audit.entries)
}

func TestUpdate_PassesToken(t *testing.T) {
	var gotToken concurrency.Token
	catalog := &mockCatalogService{
		UpdateFunc: func(ctx context.Context, id int, p domain.Product, token concurrency.Token) (*domain.Product, error) {
			gotToken = token
			p.ID = id
			return &p, nil
		},
	}
	audit := &recordingAudit{}
	uc := NewManageProductsUseCase(catalog, audit, zap.NewNop())

	_, err := uc.Update(context.Background(), stockOperator, 3, domain.Product{SKU: "A"}, "abc")
	require.NoError(t, err)

	assert.Equal(t, concurrency.Token("abc"), gotToken)
	require.Len(t, audit.entries, 1)
	assert.Equal(t, domain.AuditProductUpdated, audit.entries[0].Action)
}
