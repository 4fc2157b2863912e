package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/taskboard/internal/model"
)

// Relocator переносит задачи с несуществующим статусом в первую колонку доски
type Relocator interface {
	RelocateOrphans(ctx context.Context, limit int) ([]model.TaskRelocation, error)
}

type Pool struct {
	repo     Relocator
	logger   *zap.Logger
	count    int
	interval time.Duration
	batch    int
	wg       sync.WaitGroup
	stop     chan struct{}
	stopOnce sync.Once
}

func NewPool(repo Relocator, logger *zap.Logger, count int, interval time.Duration, batch int) *Pool {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if batch <= 0 {
		batch = 50
	}
	return &Pool{
		repo:     repo,
		logger:   logger,
		count:    count,
		interval: interval,
		batch:    batch,
		stop:     make(chan struct{}),
	}
}

func (p *Pool) Start(ctx context.Context) {
	p.logger.Info("Starting reconcile workers",
		zap.Int("workers", p.count),
		zap.Duration("interval", p.interval),
		zap.Int("batch", p.batch),
	)

	for i := 0; i < p.count; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
}

func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		p.logger.Info("Stopping reconcile workers...")
		close(p.stop)
		p.wg.Wait()
		p.logger.Info("Reconcile workers stopped")
	})
}

func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := p.reconcile(ctx, id); err != nil && ctx.Err() == nil {
				p.logger.Error("reconcile error", zap.Int("worker", id), zap.Error(err))
			}
		}
	}
}

// reconcile обрабатывает один батч; SKIP LOCKED в репозитории не дает
// двум воркерам взять одну и ту же задачу
func (p *Pool) reconcile(ctx context.Context, workerID int) (int, error) {
	moved, err := p.repo.RelocateOrphans(ctx, p.batch)
	if err != nil {
		return 0, err
	}

	for _, m := range moved {
		p.logger.Info("Task relocated to first column",
			zap.Int("worker", workerID),
			zap.String("task_id", m.TaskID),
			zap.String("board_id", m.BoardID),
			zap.String("from", m.FromStatus),
			zap.String("to", m.ToStatus),
		)
	}
	return len(moved), nil
}
