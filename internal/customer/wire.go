package customer

import (
	"database/sql"

	"go.uber.org/zap"

	"ferreteria/internal/customer/repository"
	"ferreteria/internal/customer/service"
)

func NewModule(db *sql.DB, logger *zap.Logger) *service.CustomerDirectory {
	return service.NewCustomerDirectory(repository.NewMySQLCustomerRepository(db), logger)
}
