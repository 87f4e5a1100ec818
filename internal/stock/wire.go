package stock

import (
	"database/sql"

	"go.uber.org/zap"

	"ferreteria/internal/config"
	"ferreteria/internal/stock/controller"
	"ferreteria/internal/stock/repository"
	"ferreteria/internal/stock/service"
	"ferreteria/internal/stock/usecase"
)

// Module exposes the ledger to the sale module alongside the HTTP
// controller.
type Module struct {
	Ledger     *service.StockLedger
	Controller *controller.StockController
}

func NewModule(db *sql.DB, cfg *config.Config, products usecase.ProductFinder, audit usecase.AuditRecorder, logger *zap.Logger) *Module {
	stockRepo := repository.NewMySQLStockRepository(db)

	ledger := service.NewStockLedger(
		db,
		stockRepo,
		logger,
		cfg.Sale.TxTimeout,
		cfg.Sale.MaxRetryAttempts,
	)

	adjust := usecase.NewAdjustStockUseCase(ledger, products, audit, logger)

	return &Module{
		Ledger:     ledger,
		Controller: controller.NewStockController(ledger, adjust, logger),
	}
}
