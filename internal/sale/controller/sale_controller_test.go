package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ferreteria/internal/domain"
	"ferreteria/internal/dto"
	apperrors "ferreteria/internal/errors"
	"ferreteria/internal/sale/service"
	"ferreteria/internal/sale/usecase"
	"ferreteria/internal/web"
)

type mockCreateSale struct {
	ExecuteFunc func(ctx context.Context, in service.CreateSaleInput) (*usecase.Result, error)
}

func (m *mockCreateSale) Execute(ctx context.Context, in service.CreateSaleInput) (*usecase.Result, error) {
	return m.ExecuteFunc(ctx, in)
}

type mockGetReceipt struct {
	ExecuteFunc func(ctx context.Context, op domain.Operator, saleID int64) (*service.Receipt, error)
}

func (m *mockGetReceipt) Execute(ctx context.Context, op domain.Operator, saleID int64) (*service.Receipt, error) {
	return m.ExecuteFunc(ctx, op, saleID)
}

var seller = domain.Operator{ID: 3, Name: "Caro", Role: domain.RoleSeller}

func newRouter(c *SaleController) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(web.WithOperator(r.Context(), seller)))
		})
	})
	r.Post("/sales", c.Create)
	r.Get("/sales/{saleId}/receipt", c.GetReceipt)
	return r
}

func TestCreate_Created(t *testing.T) {
	var got service.CreateSaleInput
	create := &mockCreateSale{
		ExecuteFunc: func(ctx context.Context, in service.CreateSaleInput) (*usecase.Result, error) {
			got = in
			return &usecase.Result{
				Sale:    domain.Sale{ID: 12, Total: decimal.RequireFromString("300"), TotalInWords: "trescientos con 00/100"},
				Invoice: &domain.Invoice{PointOfSale: 1, Number: 45},
			}, nil
		},
	}
	body := `{"lines":[{"productId":1,"quantity":3}],"customerType":"REGISTERED","customerId":10,"paymentType":"STORE_CREDIT","issueInvoice":true}`

	rec := httptest.NewRecorder()
	newRouter(NewSaleController(create, &mockGetReceipt{}, zap.NewNop())).
		ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sales", strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp dto.SaleResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(12), resp.SaleID)
	assert.Equal(t, "300.00", resp.Total)
	require.NotNil(t, resp.InvoiceNumber)
	assert.Equal(t, int64(45), *resp.InvoiceNumber)
	assert.NotNil(t, resp.PostCommitIssues)
	assert.NotEmpty(t, resp.TraceID)

	assert.Equal(t, seller, got.Operator)
	assert.Equal(t, domain.PaymentStoreCredit, got.PaymentType)
	require.NotNil(t, got.CustomerID)
	assert.Equal(t, 10, *got.CustomerID)
	assert.Equal(t, []service.LineInput{{ProductID: 1, Quantity: 3}}, got.Lines)
}

func TestCreate_ReportsPostCommitIssues(t *testing.T) {
	create := &mockCreateSale{
		ExecuteFunc: func(ctx context.Context, in service.CreateSaleInput) (*usecase.Result, error) {
			return &usecase.Result{
				Sale:             domain.Sale{ID: 13, Total: decimal.RequireFromString("10")},
				PostCommitIssues: []usecase.PostCommitIssue{{Step: usecase.StepStockDepletion, ProductID: 2, Message: "insufficient stock"}},
			}, nil
		},
	}
	body := `{"lines":[{"productId":2,"quantity":1}],"customerType":"WALK_IN","paymentType":"CASH"}`

	rec := httptest.NewRecorder()
	newRouter(NewSaleController(create, &mockGetReceipt{}, zap.NewNop())).
		ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sales", strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp dto.SaleResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.PostCommitIssues, 1)
	assert.Equal(t, "STOCK_DEPLETION", resp.PostCommitIssues[0].Step)
}

func TestCreate_RejectsMalformedRequest(t *testing.T) {
	create := &mockCreateSale{}
	body := `{"lines":[],"customerType":"VIP","paymentType":"CASH"}`

	rec := httptest.NewRecorder()
	newRouter(NewSaleController(create, &mockGetReceipt{}, zap.NewNop())).
		ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sales", strings.NewReader(body)))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var resp web.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Details, 2)
}

func TestCreate_ValidationErrorIs422(t *testing.T) {
	create := &mockCreateSale{
		ExecuteFunc: func(ctx context.Context, in service.CreateSaleInput) (*usecase.Result, error) {
			return nil, apperrors.NewValidationError("sale rejected",
				apperrors.ValidationDetail{Field: "lines[0].quantity", Code: apperrors.CodeInsufficientStock, Message: "insufficient stock"},
				apperrors.ValidationDetail{Field: "paymentType", Code: apperrors.CodeCreditLimitExceeded, Message: "credit limit exceeded"},
			)
		},
	}
	body := `{"lines":[{"productId":1,"quantity":3}],"customerType":"REGISTERED","customerId":10,"paymentType":"STORE_CREDIT"}`

	rec := httptest.NewRecorder()
	newRouter(NewSaleController(create, &mockGetReceipt{}, zap.NewNop())).
		ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sales", strings.NewReader(body)))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var resp web.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Details, 2)
	assert.Equal(t, apperrors.CodeCreditLimitExceeded, resp.Details[1].Code)
}

func TestGetReceipt_OK(t *testing.T) {
	notes := "retira el lunes"
	receipts := &mockGetReceipt{
		ExecuteFunc: func(ctx context.Context, op domain.Operator, saleID int64) (*service.Receipt, error) {
			assert.Equal(t, int64(12), saleID)
			return &service.Receipt{
				Sale: domain.Sale{
					ID: 12, CustomerType: domain.CustomerWalkIn, PaymentType: domain.PaymentCash,
					Status: domain.SaleStatusConfirmed, Total: decimal.RequireFromString("21.5"), Notes: &notes,
					Lines: []domain.SaleLine{{LineNo: 1, ProductID: 1, Description: "Martillo", Quantity: 1,
						UnitPrice: decimal.RequireFromString("21.5"), Subtotal: decimal.RequireFromString("21.5")}},
				},
				CustomerName: domain.WalkInCustomerName,
			}, nil
		},
	}

	rec := httptest.NewRecorder()
	newRouter(NewSaleController(&mockCreateSale{}, receipts, zap.NewNop())).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sales/12/receipt", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp dto.ReceiptResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "21.50", resp.Total)
	assert.Equal(t, domain.WalkInCustomerName, resp.CustomerName)
	require.Len(t, resp.Lines, 1)
	assert.Equal(t, "21.50", resp.Lines[0].UnitPrice)
	assert.Nil(t, resp.Invoice)
}

func TestGetReceipt_NotFound(t *testing.T) {
	receipts := &mockGetReceipt{
		ExecuteFunc: func(ctx context.Context, op domain.Operator, saleID int64) (*service.Receipt, error) {
			return nil, apperrors.NewNotFoundError("sale 9 not found")
		},
	}

	rec := httptest.NewRecorder()
	newRouter(NewSaleController(&mockCreateSale{}, receipts, zap.NewNop())).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sales/9/receipt", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
