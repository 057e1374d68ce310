package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

// countingJob records executions for pool tests.
type countingJob struct {
	executed *atomic.Int64
}

func (j *countingJob) Execute(ctx context.Context) error {
	j.executed.Add(1)
	return nil
}

func (j *countingJob) UserID() string      { return "1" }
func (j *countingJob) Description() string { return "counting job" }

func TestWorkerPoolProcessesAllJobs(t *testing.T) {
	var executed atomic.Int64

	pool := NewWorkerPool(2, 0, time.Second, 8)
	pool.Start()

	jobs := make([]Job, 5)
	for i := range jobs {
		jobs[i] = &countingJob{executed: &executed}
	}
	pool.SubmitBatch(jobs)

	// Closing the queue makes workers drain what was submitted.
	pool.ShutdownWithTimeout(2 * time.Second)

	if got := executed.Load(); got != 5 {
		t.Errorf("executed %d jobs, want 5", got)
	}
}

func TestWorkerPoolFullQueueDropsJob(t *testing.T) {
	var executed atomic.Int64

	// No workers started, so the single queue slot fills immediately.
	pool := NewWorkerPool(1, 0, time.Second, 1)

	if err := pool.Submit(&countingJob{executed: &executed}); err != nil {
		t.Fatalf("first submit should queue: %v", err)
	}
	if err := pool.Submit(&countingJob{executed: &executed}); err == nil {
		t.Error("second submit should report a full queue")
	}
}

func TestNewWorkerPoolDefaultsJobTimeout(t *testing.T) {
	pool := NewWorkerPool(1, 0, 0, 1)
	if pool.jobTimeout != DefaultJobTimeout {
		t.Errorf("jobTimeout = %v, want %v", pool.jobTimeout, DefaultJobTimeout)
	}

	pool = NewWorkerPool(1, 0, 30*time.Second, 1)
	if pool.jobTimeout != 30*time.Second {
		t.Errorf("jobTimeout = %v, want configured 30s", pool.jobTimeout)
	}
}
