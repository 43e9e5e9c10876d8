package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// JobQueue is the bounded scheduling layer between submission and the
// runner: a fixed worker pool draining a buffered channel. The worker
// count is the admission-control knob — submissions are never rejected,
// they queue.
type JobQueue struct {
	runner  *Runner
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan Request
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

type Option func(*JobQueue)

func WithWorkers(n int) Option {
	return func(q *JobQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *JobQueue) {
		if n > 0 {
			q.ch = make(chan Request, n)
		}
	}
}

func WithJobTimeout(d time.Duration) Option {
	return func(q *JobQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewJobQueue(runner *Runner, logger *slog.Logger, opts ...Option) *JobQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &JobQueue{
		runner:  runner,
		logger:  logger,
		workers: 4,
		timeout: 15 * time.Minute,
		ch:      make(chan Request, 64),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *JobQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("worker started", "worker_id", workerID)

				for req := range q.ch {
					ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
					q.runner.Run(ctx, req)
					cancel()
				}

				q.logger.Info("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

// Enqueue schedules a job. It returns immediately unless the queue is
// full, in which case it blocks until a worker frees a slot.
func (q *JobQueue) Enqueue(req Request) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "job_id", req.JobID)
		return
	}
	select {
	case q.ch <- req:
		q.logger.Info("queued job", "job_id", req.JobID, "source", req.DisplayName)
	default:
		q.logger.Warn("queue full, applying backpressure", "job_id", req.JobID)
		q.ch <- req
	}
}

// Shutdown stops accepting jobs and waits for in-flight ones, bounded by ctx.
func (q *JobQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}
