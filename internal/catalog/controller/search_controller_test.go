package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ferreteria/internal/catalog/usecase"
	"ferreteria/internal/domain"
	"ferreteria/internal/dto"
)

type mockSearchUseCase struct {
	SearchProductsFunc func(ctx context.Context, op domain.Operator, ids []int) (*usecase.SearchResult, error)
}

func (m *mockSearchUseCase) SearchProducts(ctx context.Context, op domain.Operator, ids []int) (*usecase.SearchResult, error) {
	return m.SearchProductsFunc(ctx, op, ids)
}

func TestSearchProducts_OK(t *testing.T) {
	uc := &mockSearchUseCase{
		SearchProductsFunc: func(ctx context.Context, op domain.Operator, ids []int) (*usecase.SearchResult, error) {
			assert.Equal(t, []int{1, 7}, ids)
			return &usecase.SearchResult{
				Products:   []domain.Product{{ID: 1, SKU: "MAR-1", Name: "Martillo", Price: decimal.RequireFromString("100")}},
				Quantities: map[int]int{1: 3},
				NotFound:   []int{7},
			}, nil
		},
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/products/search", strings.NewReader(`{"productIds":[1,7]}`))
	NewSearchController(uc, zap.NewNop()).SearchProducts(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp dto.SearchProductsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Products, 1)
	assert.Equal(t, "MAR-1", resp.Products[0].SKU)
	assert.Equal(t, "100.00", resp.Products[0].Price)
	assert.Equal(t, 3, resp.Products[0].Stock)
	assert.True(t, resp.Products[0].HasStock)
	assert.Equal(t, []int{7}, resp.NotFound)
}

func TestSearchProducts_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"empty list", `{"productIds":[]}`, http.StatusUnprocessableEntity},
		{"missing list", `{}`, http.StatusUnprocessableEntity},
		{"non-positive id", `{"productIds":[1,0]}`, http.StatusUnprocessableEntity},
		{"too many ids", `{"productIds":[` + strings.Repeat("1,", 100) + `1]}`, http.StatusUnprocessableEntity},
		{"invalid json", `{"productIds":`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/products/search", strings.NewReader(tt.body))
			NewSearchController(&mockSearchUseCase{}, zap.NewNop()).SearchProducts(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
