package sale

import (
	"database/sql"

	"go.uber.org/zap"

	"ferreteria/internal/config"
	"ferreteria/internal/infrastructure/redis"
	"ferreteria/internal/reconcile"
	"ferreteria/internal/sale/controller"
	"ferreteria/internal/sale/repository"
	"ferreteria/internal/sale/service"
	"ferreteria/internal/sale/usecase"
)

// Dependencies are the other modules a sale reads from and writes to.
type Dependencies struct {
	Catalog service.ProductCatalog
	Stock   interface {
		service.StockReader
		usecase.StockLedger
	}
	Credit interface {
		service.CreditReader
		usecase.CreditLedger
	}
	Customers service.CustomerDirectory
	Locker    redis.Locker
	Publisher reconcile.Publisher
	Audit     usecase.AuditRecorder
}

func NewModule(db *sql.DB, cfg *config.Config, deps Dependencies, logger *zap.Logger) *controller.SaleController {
	saleRepo := repository.NewMySQLSaleRepository(db)

	saleService := service.NewSaleService(
		db,
		saleRepo,
		deps.Catalog,
		deps.Stock,
		deps.Credit,
		deps.Customers,
		logger,
		cfg.Sale.TxTimeout,
		cfg.Sale.DefaultPointOfSale,
	)

	createSale := usecase.NewCreateSaleUseCase(
		saleService,
		deps.Stock,
		deps.Credit,
		deps.Locker,
		deps.Publisher,
		deps.Audit,
		logger,
		cfg.Sale.MaxRetryAttempts,
	)

	return controller.NewSaleController(createSale, usecase.NewGetReceiptUseCase(saleService), logger)
}
