package catalog

import (
	"database/sql"

	"go.uber.org/zap"

	"ferreteria/internal/catalog/controller"
	"ferreteria/internal/catalog/repository"
	"ferreteria/internal/catalog/service"
	"ferreteria/internal/catalog/usecase"
	"ferreteria/internal/config"
)

type Module struct {
	Service    *service.CatalogService
	Controller *controller.ProductController
}

func NewModule(db *sql.DB, cfg *config.Config, audit usecase.AuditRecorder, logger *zap.Logger) *Module {
	repo := repository.NewMySQLCatalogRepository(db)
	svc := service.NewCatalogService(db, repo, logger, cfg.Sale.TxTimeout, cfg.Sale.MaxRetryAttempts)

	return &Module{
		Service:    svc,
		Controller: controller.NewProductController(usecase.NewManageProductsUseCase(svc, audit, logger), logger),
	}
}

// NewSearchController is built after the stock module, which itself reads
// products through Service.
func NewSearchController(svc *service.CatalogService, stock usecase.StockReader, logger *zap.Logger) *controller.SearchController {
	return controller.NewSearchController(usecase.NewSearchProductsUseCase(svc, stock), logger)
}
