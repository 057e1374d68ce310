package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	jobTracer          = otel.Tracer("finledger/scheduler")
	jobMeter           = otel.Meter("finledger/scheduler")
	jobDuration, _     = jobMeter.Float64Histogram("scheduler.job.duration", metric.WithDescription("Connection sync duration in seconds"), metric.WithUnit("s"))
	jobTotal, _        = jobMeter.Int64Counter("scheduler.job.total", metric.WithDescription("Sync jobs executed by status"))
	jobQueueDropped, _ = jobMeter.Int64Counter("scheduler.job.queue_dropped", metric.WithDescription("Sync jobs dropped due to full queue"))
)

// DefaultJobTimeout bounds one job when no timeout is configured. A full
// resync pages through four entity sets against the aggregator.
const DefaultJobTimeout = 2 * time.Minute

// WorkerPool runs sync jobs on a fixed set of workers fed from a
// bounded queue. Sizing comes from the scheduler configuration: enough
// workers to drain a sync window quickly, a per-worker delay so the
// pool as a whole stays under the aggregator's rate limits.
type WorkerPool struct {
	workerCount int
	jobDelay    time.Duration
	jobTimeout  time.Duration
	jobs        chan Job
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewWorkerPool creates a worker pool. jobTimeout <= 0 falls back to
// DefaultJobTimeout.
func NewWorkerPool(workerCount int, jobDelay, jobTimeout time.Duration, queueSize int) *WorkerPool {
	if jobTimeout <= 0 {
		jobTimeout = DefaultJobTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())

	wp := &WorkerPool{
		workerCount: workerCount,
		jobDelay:    jobDelay,
		jobTimeout:  jobTimeout,
		jobs:        make(chan Job, queueSize),
		ctx:         ctx,
		cancel:      cancel,
	}

	if depth, err := jobMeter.Int64ObservableGauge("scheduler.queue.depth", metric.WithDescription("Sync jobs waiting in the queue")); err == nil {
		jobMeter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
			o.ObserveInt64(depth, int64(len(wp.jobs)))
			return nil
		}, depth)
	}

	return wp
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start() {
	log.Printf("Starting worker pool: %d workers, %v delay, %v job timeout", wp.workerCount, wp.jobDelay, wp.jobTimeout)

	for i := 1; i <= wp.workerCount; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// worker drains the queue until it is closed or the pool is cancelled.
// The delay runs after every job so each worker stays under the
// aggregator's per-client rate.
func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for job := range wp.jobs {
		select {
		case <-wp.ctx.Done():
			log.Printf("Worker %d shutting down with jobs still queued", id)
			return
		default:
		}

		wp.processJob(id, job)

		if wp.jobDelay > 0 {
			select {
			case <-time.After(wp.jobDelay):
			case <-wp.ctx.Done():
				log.Printf("Worker %d shutting down during delay", id)
				return
			}
		}
	}

	log.Printf("Worker %d: queue drained", id)
}

// processJob executes a single job with error handling, logging, and telemetry.
func (wp *WorkerPool) processJob(workerID int, job Job) {
	ctx, cancel := context.WithTimeout(wp.ctx, wp.jobTimeout)
	defer cancel()

	ctx, span := jobTracer.Start(ctx, "scheduler.job",
		trace.WithAttributes(
			attribute.Int("worker.id", workerID),
			attribute.String("job.description", job.Description()),
			attribute.String("job.user_id", job.UserID()),
		),
	)
	defer span.End()

	start := time.Now()
	err := job.Execute(ctx)
	jobDuration.Record(ctx, time.Since(start).Seconds())

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		jobTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("status", "error")))
		log.Printf("User %s: worker %d failed %s: %v", job.UserID(), workerID, job.Description(), err)
		return
	}

	jobTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("status", "success")))
	log.Printf("User %s: worker %d completed %s in %s", job.UserID(), workerID, job.Description(), time.Since(start).Round(time.Millisecond))
}

// Submit adds a job to the queue without blocking. A full queue drops
// the job; the next scheduled window picks the connection up again.
func (wp *WorkerPool) Submit(job Job) error {
	select {
	case <-wp.ctx.Done():
		return wp.ctx.Err()
	case wp.jobs <- job:
		return nil
	default:
		jobQueueDropped.Add(context.Background(), 1)
		return fmt.Errorf("job queue full, dropping %s", job.Description())
	}
}

// SubmitBatch adds multiple jobs to the queue.
func (wp *WorkerPool) SubmitBatch(jobs []Job) {
	submitted := 0
	for _, job := range jobs {
		if err := wp.Submit(job); err != nil {
			log.Printf("User %s: failed to submit job: %v", job.UserID(), err)
			continue
		}
		submitted++
	}
	log.Printf("Submitted %d/%d jobs to worker pool", submitted, len(jobs))
}

// ShutdownWithTimeout closes the queue and waits for in-flight jobs. If
// workers are still busy when the timeout expires, the pool context is
// cancelled and running jobs see their context fail.
func (wp *WorkerPool) ShutdownWithTimeout(timeout time.Duration) {
	log.Printf("Worker pool: shutting down with %v timeout", timeout)

	close(wp.jobs)

	done := make(chan struct{})
	go func() {
		wp.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("Worker pool: all workers finished")
	case <-time.After(timeout):
		log.Println("Worker pool: timeout reached, forcing shutdown")
		wp.cancel()
	}
}
