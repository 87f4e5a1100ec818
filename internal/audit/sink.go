package audit

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"ferreteria/internal/domain"
)

const writeTimeout = 5 * time.Second

type Repository interface {
	Insert(ctx context.Context, e domain.AuditEntry) error
}

// Sink records audit entries without making the caller wait or fail.
// Entries are queued and written by a fixed set of workers; a full queue
// or a failed write is logged and the entry dropped.
type Sink struct {
	repo   Repository
	logger *zap.Logger
	queue  chan domain.AuditEntry
	wg     sync.WaitGroup
	once   sync.Once
	mu     sync.RWMutex
	closed bool
}

func NewSink(repo Repository, logger *zap.Logger, queueSize, workers int) *Sink {
	if queueSize < 1 {
		queueSize = 1
	}
	if workers < 1 {
		workers = 1
	}

	s := &Sink{
		repo:   repo,
		logger: logger,
		queue:  make(chan domain.AuditEntry, queueSize),
	}
	for i := 0; i < workers; i++ {
		s.wg.Add(1)
		go s.run(i)
	}
	logger.Info("audit sink started", zap.Int("workers", workers), zap.Int("queueSize", queueSize))
	return s
}

func (s *Sink) Record(ctx context.Context, e domain.AuditEntry) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.logger.Warn("audit entry dropped, sink closed", zap.String("action", e.Action), zap.Int("operatorId", e.OperatorID))
		return
	}

	select {
	case s.queue <- e:
	default:
		s.logger.Error("audit entry dropped, queue full",
			zap.String("action", e.Action), zap.Int("operatorId", e.OperatorID), zap.String("detail", e.Detail))
	}
}

// Close stops accepting entries and waits for the queue to drain.
func (s *Sink) Close() {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.queue)
		s.mu.Unlock()
		s.wg.Wait()
	})
}

func (s *Sink) run(id int) {
	defer s.wg.Done()
	for e := range s.queue {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		if err := s.repo.Insert(ctx, e); err != nil {
			s.logger.Error("failed to write audit entry",
				zap.Int("worker", id), zap.String("action", e.Action), zap.Int("operatorId", e.OperatorID), zap.Error(err))
		}
		cancel()
	}
}
