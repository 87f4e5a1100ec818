package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"ferreteria/internal/domain"
	apperrors "ferreteria/internal/errors"
	"ferreteria/internal/infrastructure/redis"
	"ferreteria/internal/reconcile"
	"ferreteria/internal/sale/service"
)

type mockSaleService struct {
	PrepareFunc func(ctx context.Context, in service.CreateSaleInput) (*service.Draft, error)
	CommitFunc  func(ctx context.Context, d *service.Draft) (*service.Committed, error)
}

func (m *mockSaleService) Prepare(ctx context.Context, in service.CreateSaleInput) (*service.Draft, error) {
	return m.PrepareFunc(ctx, in)
}

func (m *mockSaleService) Commit(ctx context.Context, d *service.Draft) (*service.Committed, error) {
	return m.CommitFunc(ctx, d)
}

type mockStockLedger struct {
	EgressFunc                 func(ctx context.Context, productID int, quantity int, reason string) error
	EgressAllowingNegativeFunc func(ctx context.Context, productID int, quantity int, reason string) error
}

func (m *mockStockLedger) Egress(ctx context.Context, productID int, quantity int, reason string) error {
	return m.EgressFunc(ctx, productID, quantity, reason)
}

func (m *mockStockLedger) EgressAllowingNegative(ctx context.Context, productID int, quantity int, reason string) error {
	return m.EgressAllowingNegativeFunc(ctx, productID, quantity, reason)
}

type mockCreditLedger struct {
	RegisterDebtFunc func(ctx context.Context, customerID int, saleID int64, amount decimal.Decimal, operatorID int, description string) error
}

func (m *mockCreditLedger) RegisterDebt(ctx context.Context, customerID int, saleID int64, amount decimal.Decimal, operatorID int, description string) error {
	return m.RegisterDebtFunc(ctx, customerID, saleID, amount, operatorID, description)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []reconcile.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, e reconcile.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

type recordingAudit struct {
	entries []domain.AuditEntry
}

func (r *recordingAudit) Record(ctx context.Context, e domain.AuditEntry) {
	r.entries = append(r.entries, e)
}

func (r *recordingAudit) actions() []string {
	var out []string
	for _, e := range r.entries {
		out = append(out, e.Action)
	}
	return out
}

type mockLocker struct {
	ObtainFunc func(ctx context.Context, key string) (redis.Lock, error)
	keys       []string
}

func (m *mockLocker) Obtain(ctx context.Context, key string) (redis.Lock, error) {
	m.keys = append(m.keys, key)
	if m.ObtainFunc != nil {
		return m.ObtainFunc(ctx, key)
	}
	return &countingLock{}, nil
}

type countingLock struct {
	released int
}

func (l *countingLock) Release(ctx context.Context) error {
	l.released++
	return nil
}

var (
	seller = domain.Operator{ID: 3, Name: "Caro", Role: domain.RoleSeller}
	admin  = domain.Operator{ID: 1, Name: "Root", Role: domain.RoleAdmin}
)

func committedSale(payment domain.PaymentType, customerID *int) *service.Committed {
	return &service.Committed{Sale: domain.Sale{
		ID:          77,
		CustomerID:  customerID,
		PaymentType: payment,
		Total:       decimal.RequireFromString("250.00"),
		OperatorID:  seller.ID,
		Lines: []domain.SaleLine{
			{LineNo: 1, ProductID: 1, Quantity: 2, Subtotal: decimal.RequireFromString("200.00")},
			{LineNo: 2, ProductID: 2, Quantity: 1, Subtotal: decimal.RequireFromString("50.00"), AllowBelowStock: true},
		},
	}}
}

func passingService(c *service.Committed) *mockSaleService {
	return &mockSaleService{
		PrepareFunc: func(ctx context.Context, in service.CreateSaleInput) (*service.Draft, error) {
			return &service.Draft{Sale: c.Sale}, nil
		},
		CommitFunc: func(ctx context.Context, d *service.Draft) (*service.Committed, error) {
			return c, nil
		},
	}
}

type harness struct {
	stockCalls  []string
	debts       []decimal.Decimal
	stock       *mockStockLedger
	credit      *mockCreditLedger
	locker      *mockLocker
	publisher   *recordingPublisher
	audit       *recordingAudit
	logs        *observer.ObservedLogs
	logger      *zap.Logger
	maxAttempts int
}

func newHarness() *harness {
	core, logs := observer.New(zap.InfoLevel)
	h := &harness{
		locker:      &mockLocker{},
		publisher:   &recordingPublisher{},
		audit:       &recordingAudit{},
		logs:        logs,
		logger:      zap.New(core),
		maxAttempts: 3,
	}
	h.stock = &mockStockLedger{
		EgressFunc: func(ctx context.Context, productID int, quantity int, reason string) error {
			h.stockCalls = append(h.stockCalls, fmt.Sprintf("egress:%d:%d", productID, quantity))
			return nil
		},
		EgressAllowingNegativeFunc: func(ctx context.Context, productID int, quantity int, reason string) error {
			h.stockCalls = append(h.stockCalls, fmt.Sprintf("negative:%d:%d", productID, quantity))
			return nil
		},
	}
	h.credit = &mockCreditLedger{
		RegisterDebtFunc: func(ctx context.Context, customerID int, saleID int64, amount decimal.Decimal, operatorID int, description string) error {
			h.debts = append(h.debts, amount)
			return nil
		},
	}
	return h
}

func (h *harness) useCase(sales SaleService) *CreateSaleUseCase {
	return NewCreateSaleUseCase(sales, h.stock, h.credit, h.locker, h.publisher, h.audit, h.logger, h.maxAttempts)
}

func cashInput() service.CreateSaleInput {
	return service.CreateSaleInput{
		Lines:        []service.LineInput{{ProductID: 1, Quantity: 2}},
		CustomerType: domain.CustomerWalkIn,
		PaymentType:  domain.PaymentCash,
		Operator:     seller,
	}
}

func creditInput(customerID int) service.CreateSaleInput {
	in := cashInput()
	in.CustomerType = domain.CustomerRegistered
	in.CustomerID = &customerID
	in.PaymentType = domain.PaymentStoreCredit
	return in
}

func TestExecute_CashSaleDepletesStock(t *testing.T) {
	h := newHarness()

	result, err := h.useCase(passingService(committedSale(domain.PaymentCash, nil))).Execute(context.Background(), cashInput())
	require.NoError(t, err)

	assert.Equal(t, int64(77), result.Sale.ID)
	assert.Empty(t, result.PostCommitIssues)
	assert.Equal(t, []string{"egress:1:2", "negative:2:1"}, h.stockCalls)
	assert.Empty(t, h.debts)
	assert.Empty(t, h.locker.keys)
	assert.Equal(t, []string{domain.AuditSaleCreated}, h.audit.actions())
}

func TestExecute_StoreCreditChargesAccountUnderLock(t *testing.T) {
	h := newHarness()
	lock := &countingLock{}
	h.locker.ObtainFunc = func(ctx context.Context, key string) (redis.Lock, error) { return lock, nil }
	customerID := 10

	result, err := h.useCase(passingService(committedSale(domain.PaymentStoreCredit, &customerID))).
		Execute(context.Background(), creditInput(customerID))
	require.NoError(t, err)

	assert.Empty(t, result.PostCommitIssues)
	require.Len(t, h.debts, 1)
	assert.Equal(t, "250.00", h.debts[0].StringFixed(2))
	assert.Equal(t, []string{"credit:customer:10"}, h.locker.keys)
	assert.Equal(t, 1, lock.released)
}

func TestExecute_LockBusyIsConflict(t *testing.T) {
	h := newHarness()
	h.locker.ObtainFunc = func(ctx context.Context, key string) (redis.Lock, error) {
		return nil, fmt.Errorf("%w: %s", redis.ErrLockNotObtained, key)
	}
	sales := &mockSaleService{}

	_, err := h.useCase(sales).Execute(context.Background(), creditInput(10))

	ce, ok := apperrors.IsConflictError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeCreditAccountBusy, ce.Code)
}

func TestExecute_LockBackendDownFailsClosed(t *testing.T) {
	h := newHarness()
	h.locker.ObtainFunc = func(ctx context.Context, key string) (redis.Lock, error) {
		return nil, errors.New("dial tcp: connection refused")
	}

	_, err := h.useCase(&mockSaleService{}).Execute(context.Background(), creditInput(10))

	var internal *apperrors.InternalError
	assert.ErrorAs(t, err, &internal)
}

func TestExecute_Forbidden(t *testing.T) {
	h := newHarness()

	in := cashInput()
	in.Operator = domain.Operator{ID: 5, Role: domain.RoleStock}
	_, err := h.useCase(&mockSaleService{}).Execute(context.Background(), in)
	_, ok := apperrors.IsForbiddenError(err)
	assert.True(t, ok)

	in = creditInput(10)
	in.OverrideCreditLimit = true
	_, err = h.useCase(&mockSaleService{}).Execute(context.Background(), in)
	_, ok = apperrors.IsForbiddenError(err)
	assert.True(t, ok, "sellers cannot override the credit limit")
}

func TestExecute_AdminMayOverride(t *testing.T) {
	h := newHarness()
	customerID := 10
	in := creditInput(customerID)
	in.Operator = admin
	in.OverrideCreditLimit = true

	_, err := h.useCase(passingService(committedSale(domain.PaymentStoreCredit, &customerID))).Execute(context.Background(), in)
	assert.NoError(t, err)
}

func TestExecute_ValidationFailureHasNoSideEffects(t *testing.T) {
	h := newHarness()
	sales := &mockSaleService{
		PrepareFunc: func(ctx context.Context, in service.CreateSaleInput) (*service.Draft, error) {
			return nil, apperrors.NewBusinessError(apperrors.CodeInsufficientStock, "lines[0].quantity", "insufficient stock")
		},
	}

	_, err := h.useCase(sales).Execute(context.Background(), cashInput())

	_, ok := apperrors.IsValidationError(err)
	assert.True(t, ok)
	assert.Empty(t, h.stockCalls)
	assert.Empty(t, h.audit.entries)
}

func TestExecute_DeadlockRetriesWholeSale(t *testing.T) {
	h := newHarness()
	committed := committedSale(domain.PaymentCash, nil)
	prepares, commits := 0, 0
	sales := &mockSaleService{
		PrepareFunc: func(ctx context.Context, in service.CreateSaleInput) (*service.Draft, error) {
			prepares++
			return &service.Draft{Sale: committed.Sale}, nil
		},
		CommitFunc: func(ctx context.Context, d *service.Draft) (*service.Committed, error) {
			commits++
			if commits == 1 {
				return nil, &mysql.MySQLError{Number: 1213}
			}
			return committed, nil
		},
	}

	_, err := h.useCase(sales).Execute(context.Background(), cashInput())
	require.NoError(t, err)
	assert.Equal(t, 2, prepares)
	assert.Equal(t, 2, commits)
}

func TestExecute_DeadlockExhausted(t *testing.T) {
	h := newHarness()
	h.maxAttempts = 1
	sales := &mockSaleService{
		PrepareFunc: func(ctx context.Context, in service.CreateSaleInput) (*service.Draft, error) {
			return &service.Draft{}, nil
		},
		CommitFunc: func(ctx context.Context, d *service.Draft) (*service.Committed, error) {
			return nil, &mysql.MySQLError{Number: 1213}
		},
	}

	_, err := h.useCase(sales).Execute(context.Background(), cashInput())

	_, ok := apperrors.IsDeadlockError(err)
	assert.True(t, ok)
	assert.Empty(t, h.stockCalls)
}

func TestExecute_PostCommitFailuresAreReported(t *testing.T) {
	h := newHarness()
	h.stock.EgressFunc = func(ctx context.Context, productID int, quantity int, reason string) error {
		return apperrors.NewBusinessError(apperrors.CodeInsufficientStock, "quantity", "insufficient stock: requested 2, available 1")
	}
	h.credit.RegisterDebtFunc = func(ctx context.Context, customerID int, saleID int64, amount decimal.Decimal, operatorID int, description string) error {
		return apperrors.NewInternalError("registering debt", errors.New("connection reset"))
	}
	customerID := 10

	result, err := h.useCase(passingService(committedSale(domain.PaymentStoreCredit, &customerID))).
		Execute(context.Background(), creditInput(customerID))
	require.NoError(t, err, "the sale stands once committed")

	require.Len(t, result.PostCommitIssues, 2)
	assert.Equal(t, StepStockDepletion, result.PostCommitIssues[0].Step)
	assert.Equal(t, 1, result.PostCommitIssues[0].ProductID)
	assert.Equal(t, StepCreditDebt, result.PostCommitIssues[1].Step)

	require.Len(t, h.publisher.events, 2)
	assert.Equal(t, reconcile.KindStockDepletion, h.publisher.events[0].Kind)
	assert.Equal(t, 2, h.publisher.events[0].Quantity)
	assert.Equal(t, reconcile.KindCreditDebt, h.publisher.events[1].Kind)
	assert.Equal(t, "250.00", h.publisher.events[1].Amount)

	assert.Equal(t, []string{
		domain.AuditSalePostCommitFailed,
		domain.AuditSalePostCommitFailed,
		domain.AuditSaleCreated,
	}, h.audit.actions())
	assert.Equal(t, 2, h.logs.FilterField(zap.String("event", "post_commit_failure")).Len())
}

func TestExecute_PostCommitRunsAfterCancellation(t *testing.T) {
	h := newHarness()
	ctx, cancel := context.WithCancel(context.Background())
	h.stock.EgressFunc = func(c context.Context, productID int, quantity int, reason string) error {
		return c.Err()
	}
	sales := passingService(committedSale(domain.PaymentCash, nil))
	sales.CommitFunc = func(c context.Context, d *service.Draft) (*service.Committed, error) {
		cancel()
		return committedSale(domain.PaymentCash, nil), nil
	}

	result, err := h.useCase(sales).Execute(ctx, cashInput())
	require.NoError(t, err)
	assert.Empty(t, result.PostCommitIssues)
}
