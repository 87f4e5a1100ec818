package controller

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"ferreteria/internal/credit/usecase"
	"ferreteria/internal/domain"
	"ferreteria/internal/dto"
	"ferreteria/internal/web"
)

type AccountUseCase interface {
	Statement(ctx context.Context, op domain.Operator, customerID int) (*usecase.Statement, error)
	RegisterPayment(ctx context.Context, op domain.Operator, customerID int, amount decimal.Decimal, description string) (*usecase.Statement, error)
}

type CreditController struct {
	useCase AccountUseCase
	logger  *zap.Logger
}

func NewCreditController(useCase AccountUseCase, logger *zap.Logger) *CreditController {
	return &CreditController{
		useCase: useCase,
		logger:  logger,
	}
}

func (c *CreditController) GetBalance(w http.ResponseWriter, r *http.Request) {
	traceID := web.NewTraceID()
	logger := c.logger.With(zap.String("traceId", traceID))

	customerID, err := web.PathID(r, "customerId")
	if err != nil {
		web.WriteError(w, logger, traceID, err)
		return
	}

	st, err := c.useCase.Statement(r.Context(), web.OperatorFrom(r.Context()), customerID)
	if err != nil {
		web.WriteError(w, logger, traceID, err)
		return
	}

	web.WriteJSON(w, logger, http.StatusOK, toBalanceResponse(st))
}

func (c *CreditController) RegisterPayment(w http.ResponseWriter, r *http.Request) {
	traceID := web.NewTraceID()
	logger := c.logger.With(zap.String("traceId", traceID))

	customerID, err := web.PathID(r, "customerId")
	if err != nil {
		web.WriteError(w, logger, traceID, err)
		return
	}

	var req dto.CreditPaymentRequest
	if err := web.Decode(r, &req); err != nil {
		web.WriteError(w, logger, traceID, err)
		return
	}

	st, err := c.useCase.RegisterPayment(r.Context(), web.OperatorFrom(r.Context()), customerID, req.Amount, req.Description)
	if err != nil {
		web.WriteError(w, logger, traceID, err)
		return
	}

	web.WriteJSON(w, logger, http.StatusCreated, toBalanceResponse(st))
}

func toBalanceResponse(st *usecase.Statement) dto.CreditBalanceResponse {
	entries := make([]dto.CreditEntryDTO, len(st.Entries))
	for i, e := range st.Entries {
		entries[i] = dto.NewCreditEntryDTO(e)
	}
	return dto.CreditBalanceResponse{
		CustomerID:    st.Customer.ID,
		CustomerName:  st.Customer.DisplayName(),
		CreditEnabled: st.Customer.CreditEnabled,
		CreditLimit:   dto.Money(st.Customer.CreditLimit),
		Balance:       dto.Money(st.Balance),
		Available:     dto.Money(st.Available),
		Entries:       entries,
	}
}
