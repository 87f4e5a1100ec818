// Package reconcile emits the events a reconciliation job consumes to
// repair drift left by best-effort steps that ran after a sale commit.
package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const QueueStock = "reconcile:stock"

type Kind string

const (
	KindStockDepletion Kind = "STOCK_DEPLETION_FAILED"
	KindCreditDebt     Kind = "CREDIT_DEBT_FAILED"
)

type Event struct {
	Kind       Kind      `json:"kind"`
	SaleID     int64     `json:"saleId"`
	ProductID  int       `json:"productId,omitempty"`
	CustomerID int       `json:"customerId,omitempty"`
	Quantity   int       `json:"quantity,omitempty"`
	Amount     string    `json:"amount,omitempty"`
	Reason     string    `json:"reason"`
	OccurredAt time.Time `json:"occurredAt"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type RedisPublisher struct {
	rdb   goredis.Cmdable
	queue string
}

func NewRedisPublisher(rdb goredis.Cmdable) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, queue: QueueStock}
}

func (p *RedisPublisher) Publish(ctx context.Context, e Event) error {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding reconcile event: %w", err)
	}
	if err := p.rdb.LPush(ctx, p.queue, data).Err(); err != nil {
		return fmt.Errorf("pushing reconcile event: %w", err)
	}
	return nil
}

// LogPublisher is the fallback without Redis: the structured log line is
// the record a reconciliation job scans for.
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, e Event) error {
	p.logger.Warn("reconcile event",
		zap.String("event", string(e.Kind)),
		zap.Int64("saleId", e.SaleID),
		zap.Int("productId", e.ProductID),
		zap.Int("customerId", e.CustomerID),
		zap.Int("quantity", e.Quantity),
		zap.String("amount", e.Amount),
		zap.String("reason", e.Reason),
	)
	return nil
}
