package async

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/joseph-ayodele/contract-extractor/internal/common"
)

// ProcessorQueue runs queued keys through a KeyProcessor on a fixed pool
// of workers.
type ProcessorQueue struct {
	proc    KeyProcessor
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch       chan Job
	stopping chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	once     sync.Once

	// mu is held shared by senders; Shutdown takes it exclusively to
	// close ch.
	mu     sync.RWMutex
	closed bool
}

type Option func(*ProcessorQueue)

func WithWorkers(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}
func WithProcessTimeout(d time.Duration) Option {
	return func(q *ProcessorQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewProcessorQueue(proc KeyProcessor, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ProcessorQueue{
		proc:    proc,
		logger:  logger,
		workers: 4,
		timeout: 3 * time.Minute,
		ch:       make(chan Job, 256),
		stopping: make(chan struct{}),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ProcessorQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Debug("queue.worker.started", "worker_id", workerID)

				for job := range q.ch {
					q.run(workerID, job)
				}

				q.logger.Debug("queue.worker.stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *ProcessorQueue) run(workerID int, job Job) {
	ctx := context.Background()
	if job.RequestID != "" {
		ctx = common.WithRequestID(ctx, job.RequestID)
	}
	ctx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()

	record, err := q.proc.ProcessKey(ctx, job.Key)
	if err != nil {
		q.logger.Error("queue.job.failed", "worker_id", workerID, "key", job.Key, "error", err)
		return
	}
	q.logger.Info("queue.job.ok",
		"worker_id", workerID,
		"key", job.Key,
		"contract_id", record.ContractID,
		"waited", time.Since(job.SubmittedAt).Round(time.Millisecond),
	)
}

// Enqueue waits for room while the queue is full. It gives up with
// ctx.Err() when ctx is done and with ErrQueueClosed once Shutdown starts.
func (q *ProcessorQueue) Enqueue(ctx context.Context, job Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.logger.Warn("queue.enqueue.closed", "key", job.Key)
		return ErrQueueClosed
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}
	select {
	case q.ch <- job:
		q.logger.Debug("queue.enqueued", "key", job.Key)
		return nil
	default:
	}

	q.logger.Warn("queue full, applying backpressure", "key", job.Key)
	select {
	case q.ch <- job:
		q.logger.Debug("queue.enqueued", "key", job.Key)
		return nil
	case <-ctx.Done():
		q.logger.Warn("queue.enqueue.abandoned", "key", job.Key, "error", ctx.Err())
		return ctx.Err()
	case <-q.stopping:
		q.logger.Warn("queue.enqueue.closed", "key", job.Key)
		return ErrQueueClosed
	}
}

// Shutdown stops intake and waits for queued jobs until ctx is done.
// Senders blocked on a full queue are released with ErrQueueClosed.
func (q *ProcessorQueue) Shutdown(ctx context.Context) {
	q.stopOnce.Do(func() { close(q.stopping) })

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
