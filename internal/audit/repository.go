package audit

import (
	"context"
	"database/sql"
	"fmt"

	"ferreteria/internal/domain"
)

type MySQLAuditRepository struct {
	db *sql.DB
}

func NewMySQLAuditRepository(db *sql.DB) *MySQLAuditRepository {
	return &MySQLAuditRepository{db: db}
}

func (r *MySQLAuditRepository) Insert(ctx context.Context, e domain.AuditEntry) error {
	query := `INSERT INTO AuditLog (operatorId, operatorName, action, detail, createdAt) VALUES (?, ?, ?, ?, ?)`

	if _, err := r.db.ExecContext(ctx, query, e.OperatorID, e.OperatorName, e.Action, e.Detail, e.CreatedAt); err != nil {
		return fmt.Errorf("inserting audit entry: %w", err)
	}
	return nil
}
