package domain

import "time"

type AuditEntry struct {
	OperatorID   int
	OperatorName string
	Action       string
	Detail       string
	CreatedAt    time.Time
}

const (
	AuditStockIngress         = "STOCK_INGRESS"
	AuditStockEgress          = "STOCK_EGRESS"
	AuditStockEgressNegative  = "STOCK_EGRESS_NEGATIVE"
	AuditSaleCreated          = "SALE_CREATED"
	AuditSalePostCommitFailed = "SALE_POST_COMMIT_FAILED"
	AuditProductCreated       = "PRODUCT_CREATED"
	AuditProductUpdated       = "PRODUCT_UPDATED"
	AuditCreditPayment        = "CREDIT_PAYMENT"
)
