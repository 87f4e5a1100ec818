package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"ferreteria/internal/domain"
	apperrors "ferreteria/internal/errors"
	"ferreteria/internal/infrastructure/mysql"
	"ferreteria/internal/spellout"
)

type ProductCatalog interface {
	GetByIDs(ctx context.Context, ids []int) (found []domain.Product, notFoundIDs []int, err error)
}

type StockReader interface {
	GetQuantities(ctx context.Context, productIDs []int) (map[int]int, error)
}

type CreditReader interface {
	GetBalance(ctx context.Context, customerID int) (decimal.Decimal, error)
}

type CustomerDirectory interface {
	GetByID(ctx context.Context, id int) (*domain.Customer, error)
}

type SaleRepository interface {
	InsertSale(ctx context.Context, tx *sql.Tx, s domain.Sale) (int64, error)
	InsertLine(ctx context.Context, tx *sql.Tx, l domain.SaleLine) (int64, error)
	InsertPayment(ctx context.Context, tx *sql.Tx, p domain.Payment) error
	NextInvoiceNumber(ctx context.Context, tx *sql.Tx, pointOfSale int) (int64, error)
	InsertInvoice(ctx context.Context, tx *sql.Tx, inv domain.Invoice) (int64, error)
	InsertHistory(ctx context.Context, tx *sql.Tx, saleID int64, action string, operatorID int, detail string) error
	FindByID(ctx context.Context, id int64) (*domain.Sale, error)
	FindInvoice(ctx context.Context, saleID int64) (*domain.Invoice, error)
}

type LineInput struct {
	ProductID       int
	Quantity        int
	AllowBelowStock bool
}

type CreateSaleInput struct {
	Lines               []LineInput
	CustomerType        domain.CustomerType
	CustomerID          *int
	PaymentType         domain.PaymentType
	OverrideCreditLimit bool
	IssueInvoice        bool
	PointOfSale         int
	Notes               string
	Operator            domain.Operator
}

// Draft is a sale that passed validation and is ready to be committed.
type Draft struct {
	Sale         domain.Sale
	Customer     *domain.Customer
	IssueInvoice bool
	PointOfSale  int
}

type Committed struct {
	Sale    domain.Sale
	Invoice *domain.Invoice
}

type Receipt struct {
	Sale         domain.Sale
	Invoice      *domain.Invoice
	CustomerName string
}

type SaleService struct {
	db                 mysql.TxBeginner
	repo               SaleRepository
	catalog            ProductCatalog
	stock              StockReader
	credit             CreditReader
	customers          CustomerDirectory
	logger             *zap.Logger
	txTimeout          time.Duration
	defaultPointOfSale int
}

func NewSaleService(
	db mysql.TxBeginner,
	repo SaleRepository,
	catalog ProductCatalog,
	stock StockReader,
	credit CreditReader,
	customers CustomerDirectory,
	logger *zap.Logger,
	txTimeout time.Duration,
	defaultPointOfSale int,
) *SaleService {
	return &SaleService{
		db:                 db,
		repo:               repo,
		catalog:            catalog,
		stock:              stock,
		credit:             credit,
		customers:          customers,
		logger:             logger,
		txTimeout:          txTimeout,
		defaultPointOfSale: defaultPointOfSale,
	}
}

// Prepare checks a proposed sale against current catalog, stock and
// credit state. Prices and stock are always read here, never taken from
// the caller. Every problem found is reported in one ValidationError.
func (s *SaleService) Prepare(ctx context.Context, in CreateSaleInput) (*Draft, error) {
	var details []apperrors.ValidationDetail
	add := func(code, field, msg string) {
		details = append(details, apperrors.ValidationDetail{Field: field, Code: code, Message: msg})
	}

	if !in.CustomerType.Valid() {
		add(apperrors.CodeInvalidField, "customerType", "customerType must be WALK_IN or REGISTERED")
	}
	if !in.PaymentType.Valid() {
		add(apperrors.CodeInvalidField, "paymentType", "paymentType must be CASH or STORE_CREDIT")
	}
	if len(in.Lines) == 0 {
		add(apperrors.CodeInvalidQuantity, "lines", "a sale needs at least one line")
	}

	products, available, err := s.loadLineState(ctx, in.Lines)
	if err != nil {
		return nil, err
	}

	// Quantities are accumulated per product so repeated lines cannot
	// each pass against the same stock.
	requested := make(map[int]int, len(products))
	lines := make([]domain.SaleLine, 0, len(in.Lines))
	total := decimal.Zero

	for i, l := range in.Lines {
		field := fmt.Sprintf("lines[%d]", i)

		if l.Quantity <= 0 {
			add(apperrors.CodeInvalidQuantity, field+".quantity", "quantity must be greater than zero")
			continue
		}
		p, ok := products[l.ProductID]
		if !ok {
			add(apperrors.CodeUnknownProduct, field+".productId", fmt.Sprintf("product %d does not exist", l.ProductID))
			continue
		}
		if !p.IsActive {
			add(apperrors.CodeProductInactive, field+".productId", fmt.Sprintf("product %s is inactive", p.SKU))
			continue
		}

		requested[p.ID] += l.Quantity
		if !l.AllowBelowStock && requested[p.ID] > available[p.ID] {
			add(apperrors.CodeInsufficientStock, field+".quantity",
				fmt.Sprintf("insufficient stock for %s: requested %d, available %d", p.Name, requested[p.ID], available[p.ID]))
			continue
		}

		subtotal := p.Price.Mul(decimal.NewFromInt(int64(l.Quantity))).Round(2)
		total = total.Add(subtotal)
		lines = append(lines, domain.SaleLine{
			LineNo:          i + 1,
			ProductID:       p.ID,
			Description:     p.Name,
			Quantity:        l.Quantity,
			UnitPrice:       p.Price,
			Subtotal:        subtotal,
			AllowBelowStock: l.AllowBelowStock,
		})
	}

	customer, err := s.resolveCustomer(ctx, in, add)
	if err != nil {
		return nil, err
	}

	if in.PaymentType == domain.PaymentStoreCredit {
		if err := s.checkCredit(ctx, customer, total, in.OverrideCreditLimit, add); err != nil {
			return nil, err
		}
	}

	if len(details) > 0 {
		s.logger.Info("sale rejected by validation", zap.Int("operatorId", in.Operator.ID), zap.Int("errorCount", len(details)))
		return nil, apperrors.NewValidationError("sale rejected", details...)
	}

	sale := domain.Sale{
		CustomerType: in.CustomerType,
		PaymentType:  in.PaymentType,
		Total:        total,
		TotalInWords: spellout.Amount(total),
		OperatorID:   in.Operator.ID,
		Status:       domain.SaleStatusConfirmed,
		Lines:        lines,
	}
	if customer != nil {
		id := customer.ID
		sale.CustomerID = &id
	}
	if notes := strings.TrimSpace(in.Notes); notes != "" {
		sale.Notes = &notes
	}

	pointOfSale := in.PointOfSale
	if pointOfSale <= 0 {
		pointOfSale = s.defaultPointOfSale
	}

	return &Draft{
		Sale:         sale,
		Customer:     customer,
		IssueInvoice: in.IssueInvoice,
		PointOfSale:  pointOfSale,
	}, nil
}

// Commit writes the sale header, lines, payment, optional invoice and the
// history entry in one transaction. Deadlocks come back unwrapped so the
// caller can retry.
func (s *SaleService) Commit(ctx context.Context, d *Draft) (*Committed, error) {
	var out Committed

	err := mysql.WithTx(ctx, s.db, s.txTimeout, func(ctx context.Context, tx *sql.Tx) error {
		out = Committed{Sale: d.Sale}
		out.Sale.Lines = append([]domain.SaleLine(nil), d.Sale.Lines...)
		out.Sale.CreatedAt = time.Now().UTC()

		saleID, err := s.repo.InsertSale(ctx, tx, out.Sale)
		if err != nil {
			return err
		}
		out.Sale.ID = saleID

		for i := range out.Sale.Lines {
			line := &out.Sale.Lines[i]
			line.SaleID = saleID
			if line.ID, err = s.repo.InsertLine(ctx, tx, *line); err != nil {
				return err
			}
		}

		err = s.repo.InsertPayment(ctx, tx, domain.Payment{
			SaleID:      saleID,
			PaymentType: out.Sale.PaymentType,
			Amount:      out.Sale.Total,
		})
		if err != nil {
			return err
		}

		if d.IssueInvoice {
			inv, err := s.insertInvoice(ctx, tx, saleID, d)
			if err != nil {
				return err
			}
			out.Invoice = inv
		}

		detail := fmt.Sprintf("total=%s lines=%d payment=%s", out.Sale.Total.StringFixed(2), len(out.Sale.Lines), out.Sale.PaymentType)
		return s.repo.InsertHistory(ctx, tx, saleID, domain.SaleActionCreated, out.Sale.OperatorID, detail)
	})
	if err != nil {
		if mysql.IsDeadlock(err) {
			return nil, err
		}
		s.logger.Error("sale commit failed", zap.Int("operatorId", d.Sale.OperatorID), zap.String("total", d.Sale.Total.StringFixed(2)), zap.Error(err))
		return nil, apperrors.NewInternalError("committing sale", err)
	}

	s.logger.Info("sale committed",
		zap.Int64("saleId", out.Sale.ID),
		zap.String("total", out.Sale.Total.StringFixed(2)),
		zap.String("paymentType", string(out.Sale.PaymentType)),
		zap.Int("lineCount", len(out.Sale.Lines)),
	)
	return &out, nil
}

func (s *SaleService) GetReceipt(ctx context.Context, saleID int64) (*Receipt, error) {
	sale, err := s.repo.FindByID(ctx, saleID)
	if err != nil {
		if _, ok := apperrors.IsNotFoundError(err); ok {
			return nil, err
		}
		s.logger.Error("failed to load sale", zap.Int64("saleId", saleID), zap.Error(err))
		return nil, apperrors.NewInternalError("loading sale", err)
	}

	inv, err := s.repo.FindInvoice(ctx, saleID)
	if err != nil {
		s.logger.Error("failed to load invoice", zap.Int64("saleId", saleID), zap.Error(err))
		return nil, apperrors.NewInternalError("loading invoice", err)
	}

	receipt := &Receipt{Sale: *sale, Invoice: inv, CustomerName: domain.WalkInCustomerName}
	switch {
	case inv != nil:
		receipt.CustomerName = inv.CustomerName
	case sale.CustomerID != nil:
		c, err := s.customers.GetByID(ctx, *sale.CustomerID)
		if err != nil {
			s.logger.Warn("receipt customer lookup failed", zap.Int64("saleId", saleID), zap.Error(err))
		} else {
			receipt.CustomerName = c.DisplayName()
		}
	}
	return receipt, nil
}

func (s *SaleService) loadLineState(ctx context.Context, lines []LineInput) (map[int]domain.Product, map[int]int, error) {
	ids := make([]int, 0, len(lines))
	seen := make(map[int]bool, len(lines))
	for _, l := range lines {
		if l.ProductID > 0 && !seen[l.ProductID] {
			seen[l.ProductID] = true
			ids = append(ids, l.ProductID)
		}
	}
	if len(ids) == 0 {
		return map[int]domain.Product{}, map[int]int{}, nil
	}

	found, _, err := s.catalog.GetByIDs(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	products := make(map[int]domain.Product, len(found))
	for _, p := range found {
		products[p.ID] = p
	}

	available, err := s.stock.GetQuantities(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	return products, available, nil
}

func (s *SaleService) resolveCustomer(ctx context.Context, in CreateSaleInput, add func(code, field, msg string)) (*domain.Customer, error) {
	if in.CustomerType != domain.CustomerRegistered {
		return nil, nil
	}
	if in.CustomerID == nil {
		add(apperrors.CodeCustomerRequired, "customerId", "a registered-customer sale needs a customer")
		return nil, nil
	}

	c, err := s.customers.GetByID(ctx, *in.CustomerID)
	if err != nil {
		if _, ok := apperrors.IsNotFoundError(err); ok {
			add(apperrors.CodeCustomerNotFound, "customerId", fmt.Sprintf("customer %d does not exist", *in.CustomerID))
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

func (s *SaleService) checkCredit(ctx context.Context, c *domain.Customer, total decimal.Decimal, override bool, add func(code, field, msg string)) error {
	if c == nil {
		add(apperrors.CodeCreditRequiresCustomer, "paymentType", "store credit needs a registered customer")
		return nil
	}
	if !c.CreditEnabled {
		add(apperrors.CodeCreditNotEnabled, "customerId", fmt.Sprintf("customer %d has no store credit", c.ID))
		return nil
	}

	balance, err := s.credit.GetBalance(ctx, c.ID)
	if err != nil {
		return err
	}

	projected := balance.Add(total)
	if projected.GreaterThan(c.CreditLimit) {
		if override {
			s.logger.Warn("credit limit overridden",
				zap.Int("customerId", c.ID), zap.String("projected", projected.StringFixed(2)), zap.String("limit", c.CreditLimit.StringFixed(2)))
			return nil
		}
		add(apperrors.CodeCreditLimitExceeded, "paymentType",
			fmt.Sprintf("credit limit %s exceeded: balance %s plus sale %s", c.CreditLimit.StringFixed(2), balance.StringFixed(2), total.StringFixed(2)))
	}
	return nil
}

func (s *SaleService) insertInvoice(ctx context.Context, tx *sql.Tx, saleID int64, d *Draft) (*domain.Invoice, error) {
	number, err := s.repo.NextInvoiceNumber(ctx, tx, d.PointOfSale)
	if err != nil {
		return nil, err
	}

	inv := domain.Invoice{
		SaleID:       saleID,
		PointOfSale:  d.PointOfSale,
		Number:       number,
		CustomerName: d.Customer.DisplayName(),
		CreatedAt:    time.Now().UTC(),
	}
	if d.Customer != nil {
		inv.CustomerDocument = d.Customer.Document
		inv.CustomerAddress = d.Customer.Address
	}

	if inv.ID, err = s.repo.InsertInvoice(ctx, tx, inv); err != nil {
		return nil, err
	}
	return &inv, nil
}
