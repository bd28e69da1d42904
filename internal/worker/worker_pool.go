package worker

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

type Task func()

// WorkerPool runs submitted tasks on a fixed set of goroutines with panic
// recovery.
type WorkerPool struct {
	size     int
	tasks    chan Task
	quit     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	logger   zerolog.Logger
}

func NewWorkerPool(size, queueSize int, logger zerolog.Logger) *WorkerPool {
	return &WorkerPool{
		size:   size,
		tasks:  make(chan Task, queueSize),
		quit:   make(chan struct{}),
		logger: logger,
	}
}

func (p *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.run(ctx, i)
	}

	p.logger.Info().Int("workers", p.size).Msg("Worker pool started")
}

func (p *WorkerPool) run(ctx context.Context, id int) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.quit:
			return
		case task := <-p.tasks:
			p.execute(id, task)
		}
	}
}

func (p *WorkerPool) execute(id int, task Task) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error().
				Int("worker_id", id).
				Interface("panic", r).
				Msg("Task panicked")
		}
	}()

	task()
}

// Submit enqueues a task. Tasks submitted after Stop are dropped; producers
// racing shutdown must not panic the pool.
func (p *WorkerPool) Submit(task Task) {
	select {
	case <-p.quit:
		p.logger.Warn().Msg("Worker pool stopped, dropping task")
	case p.tasks <- task:
	}
}

func (p *WorkerPool) Stop() {
	p.stopOnce.Do(func() {
		close(p.quit)
	})
	p.wg.Wait()
	p.logger.Info().Msg("Worker pool stopped")
}
