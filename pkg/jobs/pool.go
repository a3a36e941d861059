// Package jobs runs batches of independent tasks on a bounded set of goroutines.
package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job is one unit of work in a batch.
type Job struct {
	ID      string
	Payload interface{}
	Attempt int
}

// Handler processes a job.
type Handler func(context.Context, Job) error

// PoolConfig configures worker pool behaviour.
type PoolConfig struct {
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
}

// Result summarises a finished batch.
type Result struct {
	Succeeded int
	Failed    int
	// Errors holds the last error of every failed job, keyed by job ID.
	Errors map[string]error
}

type permanentError struct {
	err error
}

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var p permanentError
	return errors.As(err, &p)
}

// Pool runs a handler over batches of jobs.
type Pool struct {
	name       string
	handler    Handler
	workers    int
	maxRetries int
	retryDelay time.Duration
	logger     *zap.Logger
}

// NewPool builds a pool with the provided handler.
func NewPool(name string, handler Handler, cfg PoolConfig) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Pool{
		name:       name,
		handler:    handler,
		workers:    cfg.Workers,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		logger:     cfg.Logger,
	}
}

// Run processes every job and blocks until all of them finished or ctx is cancelled.
// Jobs not started before cancellation count as failed with ctx.Err().
func (p *Pool) Run(ctx context.Context, batch []Job) Result {
	queue := make(chan Job, len(batch))
	for _, job := range batch {
		queue <- job
	}
	close(queue)

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		result = Result{Errors: make(map[string]error)}
	)
	record := func(job Job, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			result.Failed++
			result.Errors[job.ID] = err
			return
		}
		result.Succeeded++
	}

	workers := p.workers
	if workers > len(batch) {
		workers = len(batch)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for job := range queue {
				if err := ctx.Err(); err != nil {
					record(job, err)
					continue
				}
				record(job, p.process(ctx, workerID, job))
			}
		}(i + 1)
	}
	wg.Wait()

	p.logger.Sugar().Infow("batch finished", "pool", p.name, "succeeded", result.Succeeded, "failed", result.Failed)
	return result
}

func (p *Pool) process(ctx context.Context, workerID int, job Job) error {
	for {
		err := p.handler(ctx, job)
		if err == nil {
			return nil
		}
		if IsPermanent(err) || job.Attempt >= p.maxRetries {
			p.logger.Sugar().Warnw("job failed", "pool", p.name, "worker", workerID, "job_id", job.ID, "attempt", job.Attempt, "error", err)
			return err
		}
		job.Attempt++
		p.logger.Sugar().Debugw("job failed, retrying", "pool", p.name, "worker", workerID, "job_id", job.ID, "attempt", job.Attempt, "error", err)

		timer := time.NewTimer(p.retryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
