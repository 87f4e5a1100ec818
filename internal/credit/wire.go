package credit

import (
	"database/sql"

	"go.uber.org/zap"

	"ferreteria/internal/credit/controller"
	"ferreteria/internal/credit/repository"
	"ferreteria/internal/credit/service"
	"ferreteria/internal/credit/usecase"
)

type Module struct {
	Ledger     *service.CreditLedger
	Controller *controller.CreditController
}

func NewModule(db *sql.DB, customers usecase.CustomerDirectory, audit usecase.AuditRecorder, logger *zap.Logger) *Module {
	ledger := service.NewCreditLedger(repository.NewMySQLCreditRepository(db), logger)

	return &Module{
		Ledger:     ledger,
		Controller: controller.NewCreditController(usecase.NewAccountUseCase(ledger, customers, audit, logger), logger),
	}
}
