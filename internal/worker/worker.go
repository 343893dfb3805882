package worker

import (
	"context"
	"log/slog"
	"sync"

	"github.com/alertachile/monitor/internal/models"
)

// UpsertFunc persists one normalized emergency.
type UpsertFunc func(ctx context.Context, e *models.Emergency) error

// Pool fans normalized emergencies out to a bounded set of upsert
// workers. A poll cycle can emit a burst of records at once; the
// buffered queue absorbs it without stalling the sources.
type Pool struct {
	numWorkers int
	queue      chan *models.Emergency
	upsert     UpsertFunc
	logger     *slog.Logger
	wg         sync.WaitGroup
}

func NewPool(numWorkers, bufferSize int, upsert UpsertFunc, logger *slog.Logger) *Pool {
	return &Pool{
		numWorkers: numWorkers,
		queue:      make(chan *models.Emergency, bufferSize),
		upsert:     upsert,
		logger:     logger,
	}
}

func (p *Pool) Start(ctx context.Context) {
	for i := 1; i <= p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
}

func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-p.queue:
			if !ok {
				return
			}
			if err := p.upsert(ctx, e); err != nil {
				p.logger.Error("upsert failed", "worker", id, "id", e.ID, "error", err)
			}
		}
	}
}

// Submit blocks when the queue is full, giving up once ctx ends so a
// producer can never hang on a pool whose workers have already exited.
// It reports whether the record was accepted.
func (p *Pool) Submit(ctx context.Context, e *models.Emergency) bool {
	select {
	case p.queue <- e:
		return true
	case <-ctx.Done():
		return false
	}
}

// Stop closes the queue and waits for in-flight upserts to finish.
func (p *Pool) Stop() {
	close(p.queue)
	p.wg.Wait()
}
