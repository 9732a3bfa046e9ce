package workerpool

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Task represents a unit of work to be executed by the pool.
type Task struct {
	ID  string
	Run func(context.Context) error
}

// Pool manages a bounded set of goroutines executing submitted tasks.
// Submission blocks when the queue is full; Close drains the queue and
// waits for every accepted task to finish.
type Pool struct {
	name       string
	maxWorkers int
	tasks      chan Task
	logger     *zap.Logger
	wg         sync.WaitGroup
	closeOnce  sync.Once

	activeWorkers  int32
	submittedTasks uint64
	completedTasks uint64
	failedTasks    uint64
}

// Config holds worker pool configuration.
type Config struct {
	Name       string
	MaxWorkers int
	QueueSize  int
	Logger     *zap.Logger
}

// New creates a pool and starts its workers.
func New(cfg *Config) *Pool {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 8
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	pool := &Pool{
		name:       cfg.Name,
		maxWorkers: cfg.MaxWorkers,
		tasks:      make(chan Task, cfg.QueueSize),
		logger:     cfg.Logger,
	}

	for i := 0; i < pool.maxWorkers; i++ {
		pool.wg.Add(1)
		go pool.worker(i)
	}

	pool.logger.Info("Worker pool started",
		zap.String("name", pool.name),
		zap.Int("max_workers", pool.maxWorkers),
		zap.Int("queue_size", cfg.QueueSize))

	return pool
}

// worker drains the task queue until Close closes it.
func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for task := range p.tasks {
		p.executeTask(id, task)
	}

	p.logger.Debug("Worker stopping",
		zap.String("pool", p.name),
		zap.Int("worker_id", id))
}

// executeTask runs a single task with panic recovery.
func (p *Pool) executeTask(workerID int, task Task) {
	atomic.AddInt32(&p.activeWorkers, 1)
	defer atomic.AddInt32(&p.activeWorkers, -1)

	start := time.Now()
	err := p.safeExecute(task)
	duration := time.Since(start)

	if err != nil {
		atomic.AddUint64(&p.failedTasks, 1)
		p.logger.Error("Task failed",
			zap.String("pool", p.name),
			zap.Int("worker_id", workerID),
			zap.String("task_id", task.ID),
			zap.Duration("duration", duration),
			zap.Error(err))
		return
	}
	atomic.AddUint64(&p.completedTasks, 1)
	p.logger.Debug("Task completed",
		zap.String("pool", p.name),
		zap.Int("worker_id", workerID),
		zap.String("task_id", task.ID),
		zap.Duration("duration", duration))
}

func (p *Pool) safeExecute(task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
			p.logger.Error("Task panic recovered",
				zap.String("pool", p.name),
				zap.String("task_id", task.ID),
				zap.Any("panic", r))
		}
	}()

	return task.Run(context.Background())
}

// Submit enqueues a task, blocking while the queue is full. It returns the
// context's error if the context is canceled first. Submit must not be
// called after Close.
func (p *Pool) Submit(ctx context.Context, task Task) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case p.tasks <- task:
		atomic.AddUint64(&p.submittedTasks, 1)
		return nil
	}
}

// Close stops accepting tasks, drains the queue, and waits for every
// accepted task to finish.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		close(p.tasks)
		p.wg.Wait()
		p.logger.Info("Worker pool drained",
			zap.String("name", p.name),
			zap.Uint64("completed", atomic.LoadUint64(&p.completedTasks)),
			zap.Uint64("failed", atomic.LoadUint64(&p.failedTasks)))
	})
}

// Stats represents current worker pool statistics.
type Stats struct {
	Name           string
	MaxWorkers     int
	ActiveWorkers  int
	QueuedTasks    int
	SubmittedTasks uint64
	CompletedTasks uint64
	FailedTasks    uint64
}

// Stats returns a snapshot of the pool's counters.
func (p *Pool) Stats() Stats {
	return Stats{
		Name:           p.name,
		MaxWorkers:     p.maxWorkers,
		ActiveWorkers:  int(atomic.LoadInt32(&p.activeWorkers)),
		QueuedTasks:    len(p.tasks),
		SubmittedTasks: atomic.LoadUint64(&p.submittedTasks),
		CompletedTasks: atomic.LoadUint64(&p.completedTasks),
		FailedTasks:    atomic.LoadUint64(&p.failedTasks),
	}
}
