package mysql

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"

	apperrors "ferreteria/internal/errors"
)

// Backoff before attempt 2, 3, ... ; later attempts reuse the last value.
var retryBackoffs = []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 400 * time.Millisecond}

// RetryOnDeadlock runs fn up to maxAttempts times while it fails with a
// deadlock or lock-wait timeout. Each retry sleeps its backoff ±20%.
// Exhausting the attempts yields a DeadlockError.
func RetryOnDeadlock(ctx context.Context, maxAttempts int, logger *zap.Logger, op string, fn func() error) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil || !IsDeadlock(err) {
			return err
		}
		if attempt == maxAttempts {
			break
		}

		base := retryBackoffs[min(attempt-1, len(retryBackoffs)-1)]
		jitter := time.Duration((rand.Float64()*0.4 - 0.2) * float64(base))
		logger.Warn("deadlock detected, retrying",
			zap.String("op", op), zap.Int("attempt", attempt), zap.Int("maxAttempts", maxAttempts), zap.Error(err))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(base + jitter):
		}
	}

	return apperrors.NewDeadlockError("max retries exceeded")
}
