package async

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/prp-express/internal/llm"
)

// ExtractionQueue runs extraction jobs on a fixed pool of workers and hands
// each result to the job's sink.
type ExtractionQueue struct {
	extractor llm.Extractor
	logger    *slog.Logger
	workers   int
	timeout   time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

var _ Queue = (*ExtractionQueue)(nil)

type Option func(*ExtractionQueue)

func WithWorkers(n int) Option {
	return func(q *ExtractionQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *ExtractionQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}

func WithProcessTimeout(d time.Duration) Option {
	return func(q *ExtractionQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewExtractionQueue(extractor llm.Extractor, logger *slog.Logger, opts ...Option) *ExtractionQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ExtractionQueue{
		extractor: extractor,
		logger:    logger,
		workers:   4,
		timeout:   2 * time.Minute,
		ch:        make(chan Job, 256),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ExtractionQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Debug("extract.worker.started", "worker_id", workerID)

				for job := range q.ch {
					res := q.run(job)
					if res.Err != nil {
						q.logger.Warn("extract.job.failed", "worker_id", workerID, "report_id", job.ReportID, "error", res.Err)
					} else {
						q.logger.Info("extract.job.done", "worker_id", workerID, "report_id", job.ReportID,
							"absent", res.Fields == nil, "elapsed_ms", res.Elapsed.Milliseconds())
					}
					if job.Sink != nil {
						job.Sink.ApplyExtraction(res)
					}
				}

				q.logger.Debug("extract.worker.stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

// run calls the extractor, converting panics into errors so a record can never
// be left without a result.
func (q *ExtractionQueue) run(job Job) (res Result) {
	start := time.Now()
	res = Result{ReportID: job.ReportID, TraceID: job.TraceID}
	defer func() {
		if r := recover(); r != nil {
			res.Fields = nil
			res.Err = fmt.Errorf("extractor panic: %v", r)
		}
		res.Elapsed = time.Since(start)
	}()

	if q.extractor == nil {
		res.Err = errors.New("no extractor configured")
		return res
	}
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()
	res.Fields, res.Err = q.extractor.ExtractSection(ctx, job.Subject, job.RawText)
	return res
}

// Enqueue submits a job. It blocks while the buffer is full and returns
// ErrQueueClosed after Shutdown.
func (q *ExtractionQueue) Enqueue(ctx context.Context, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "report_id", job.ReportID)
		return ErrQueueClosed
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now().UTC()
	}
	if job.TraceID == "" {
		job.TraceID = uuid.NewString()
	}
	select {
	case q.ch <- job:
		q.logger.Debug("extract.job.queued", "report_id", job.ReportID, "trace_id", job.TraceID)
		return nil
	default:
	}
	q.logger.Warn("queue full, applying backpressure", "report_id", job.ReportID)
	select {
	case q.ch <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting jobs and waits for in-flight ones to finish.
func (q *ExtractionQueue) Shutdown(ctx context.Context) {
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
