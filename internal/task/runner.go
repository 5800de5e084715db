package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/reelforge/reelforge-api/internal/config"
	"github.com/reelforge/reelforge-api/internal/domain"
	"github.com/reelforge/reelforge-api/internal/store"
)

// Errors returned by the runner's control operations. They are rejected
// synchronously at the API boundary; no state is mutated.
var (
	// ErrNotFailed is returned by Retry when the task is not in failed status.
	ErrNotFailed = errors.New("task is not in failed status")

	// ErrNotRunning is returned by Cancel when the task is not in running status.
	ErrNotRunning = errors.New("task is not in running status")

	// ErrUnknownKind is returned by Submit for a task kind with no pipeline.
	ErrUnknownKind = errors.New("no pipeline registered for task kind")
)

// Pipeline runs the full processing for one task and returns the reference
// to the produced output artifact.
type Pipeline interface {
	Run(ctx context.Context, t *domain.Task) (outputRef string, err error)
}

// shutdownWait bounds how long Stop waits for workers to drain before
// returning with them still running.
const shutdownWait = 30 * time.Second

// Runner owns the worker pool and the monitor. Workers communicate only
// through the Queue and the TaskStore; a task is bound to exactly one
// worker for its entire pipeline execution.
type Runner struct {
	tasks     store.TaskStore
	queue     *Queue
	pipelines map[string]Pipeline
	cfg       config.SchedulerConfig
	logger    *slog.Logger
	metrics   *Metrics

	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup

	activeWorkers atomic.Int32
}

// Stats is a snapshot of the runner's operational state.
type Stats struct {
	WorkerCount   int                       `json:"worker_count"`
	ActiveWorkers int                       `json:"active_workers"`
	QueueDepth    int                       `json:"queue_depth"`
	CountByStatus map[domain.TaskStatus]int `json:"count_by_status"`
}

// NewRunner creates a runner. Pipelines maps task kind to the pipeline that
// processes it; metrics may be nil to disable instrumentation.
func NewRunner(
	tasks store.TaskStore,
	queue *Queue,
	pipelines map[string]Pipeline,
	cfg config.SchedulerConfig,
	logger *slog.Logger,
	metrics *Metrics,
) *Runner {
	if cfg.WorkerCount <= 0 {
		logger.Warn("invalid worker count specified, using default",
			"specified_count", cfg.WorkerCount,
			"default_count", 1)
		cfg.WorkerCount = 1
	}
	if cfg.DequeueTimeout <= 0 {
		cfg.DequeueTimeout = time.Second
	}
	if cfg.MonitorInterval <= 0 {
		cfg.MonitorInterval = 30 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Runner{
		tasks:      tasks,
		queue:      queue,
		pipelines:  pipelines,
		cfg:        cfg,
		logger:     logger,
		metrics:    metrics,
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// Submit creates a pending task, persists it and enqueues its descriptor.
// Returns the new task's ID.
func (r *Runner) Submit(ctx context.Context, kind, inputRef string, params json.RawMessage) (uuid.UUID, error) {
	if _, ok := r.pipelines[kind]; !ok {
		return uuid.Nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	t, err := domain.NewTask(kind, inputRef, params)
	if err != nil {
		return uuid.Nil, err
	}

	if err := r.tasks.Create(ctx, t); err != nil {
		return uuid.Nil, fmt.Errorf("failed to persist task: %w", err)
	}

	if err := r.queue.Enqueue(Descriptor{ID: t.ID, Kind: t.Kind, InputRef: t.InputRef}); err != nil {
		// The row stays pending; startup recovery re-enqueues it.
		return uuid.Nil, fmt.Errorf("failed to enqueue task: %w", err)
	}

	if r.metrics != nil {
		r.metrics.Submitted.Inc()
	}
	r.logger.Info("task submitted",
		"task_id", t.ID,
		"task_kind", kind,
		"input_ref", inputRef)
	return t.ID, nil
}

// Start recovers unfinished tasks, then launches the worker pool and the
// monitor goroutine.
func (r *Runner) Start() error {
	if err := r.recover(); err != nil {
		return fmt.Errorf("failed to recover tasks: %w", err)
	}

	for i := 0; i < r.cfg.WorkerCount; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}

	r.wg.Add(1)
	go r.monitor()

	r.logger.Info("task runner started",
		"worker_count", r.cfg.WorkerCount,
		"monitor_interval", r.cfg.MonitorInterval,
		"task_timeout", r.cfg.TaskTimeout)
	return nil
}

// Stop signals all workers and the monitor to exit and waits for them,
// bounded by shutdownWait.
func (r *Runner) Stop() {
	r.cancelFunc()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("task runner stopped")
	case <-time.After(shutdownWait):
		r.logger.Error("task runner shutdown timed out, abandoning workers",
			"wait", shutdownWait)
	}

	r.queue.Close()
}

// Retry reopens a failed task: clears its error, resets progress to zero,
// transitions it back to pending and re-enqueues it. Returns ErrNotFailed
// for any other status.
func (r *Runner) Retry(ctx context.Context, id uuid.UUID) error {
	t, err := r.tasks.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if t.Status != domain.TaskStatusFailed {
		return fmt.Errorf("%w: status is %s", ErrNotFailed, t.Status)
	}

	if err := r.tasks.Reopen(ctx, id); err != nil {
		if errors.Is(err, store.ErrInvalidTransition) {
			return fmt.Errorf("%w: task changed status concurrently", ErrNotFailed)
		}
		return err
	}

	if err := r.queue.Enqueue(Descriptor{ID: t.ID, Kind: t.Kind, InputRef: t.InputRef}); err != nil {
		return fmt.Errorf("failed to re-enqueue task: %w", err)
	}

	r.logger.Info("task reopened for retry", "task_id", id)
	return nil
}

// Cancel marks a running task cancelled. Cancellation is advisory: an
// in-flight external call runs to completion and the worker discards its
// result once it observes the cancelled status. Returns ErrNotRunning for
// any other status.
func (r *Runner) Cancel(ctx context.Context, id uuid.UUID) error {
	t, err := r.tasks.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if t.Status != domain.TaskStatusRunning {
		return fmt.Errorf("%w: status is %s", ErrNotRunning, t.Status)
	}

	if err := r.tasks.MarkCancelled(ctx, id); err != nil {
		if errors.Is(err, store.ErrInvalidTransition) {
			return fmt.Errorf("%w: task changed status concurrently", ErrNotRunning)
		}
		return err
	}

	r.queue.Remove(id)
	if r.metrics != nil {
		r.metrics.Cancelled.Inc()
	}
	r.logger.Info("task cancelled", "task_id", id)
	return nil
}

// Stats reports the runner's current operational snapshot.
func (r *Runner) Stats(ctx context.Context) (*Stats, error) {
	counts, err := r.tasks.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}
	return &Stats{
		WorkerCount:   r.cfg.WorkerCount,
		ActiveWorkers: int(r.activeWorkers.Load()),
		QueueDepth:    r.queue.Len(),
		CountByStatus: counts,
	}, nil
}

// recover re-enqueues tasks that were pending when the process last exited
// and fails tasks that were left running by a crash, so no task is ever
// permanently stuck in running.
func (r *Runner) recover() error {
	ctx := context.Background()

	pending, err := r.tasks.ListByStatus(ctx, domain.TaskStatusPending)
	if err != nil {
		return fmt.Errorf("failed to list pending tasks: %w", err)
	}
	for _, t := range pending {
		if err := r.queue.Enqueue(Descriptor{ID: t.ID, Kind: t.Kind, InputRef: t.InputRef}); err != nil {
			r.logger.Error("failed to requeue pending task",
				"task_id", t.ID,
				"error", err)
		}
	}

	running, err := r.tasks.ListByStatus(ctx, domain.TaskStatusRunning)
	if err != nil {
		return fmt.Errorf("failed to list running tasks: %w", err)
	}
	for _, t := range running {
		if err := r.tasks.MarkFailed(ctx, t.ID, "interrupted by process restart"); err != nil {
			r.logger.Error("failed to fail orphaned running task",
				"task_id", t.ID,
				"error", err)
		}
	}

	r.logger.Info("task recovery finished",
		"requeued_pending", len(pending),
		"failed_orphans", len(running))
	return nil
}

// worker loops on the queue until the runner is stopped.
func (r *Runner) worker(id int) {
	defer r.wg.Done()

	r.logger.Debug("starting worker", "worker_id", id)

	for {
		select {
		case <-r.ctx.Done():
			r.logger.Debug("stopping worker", "worker_id", id)
			return
		default:
		}

		desc, ok := r.queue.Dequeue(r.cfg.DequeueTimeout)
		if !ok {
			continue
		}

		r.processTask(desc, id)
	}
}

// processTask claims a task and drives its pipeline. The deferred guard
// converts a pipeline panic into a failed terminal transition, so a worker
// crash never leaves a task permanently running.
func (r *Runner) processTask(desc Descriptor, workerID int) {
	ctx := context.Background()
	logger := r.logger.With(
		"task_id", desc.ID,
		"task_kind", desc.Kind,
		"worker_id", workerID,
	)

	t, err := r.tasks.GetByID(ctx, desc.ID)
	if err != nil {
		logger.Error("failed to load task for processing", "error", err)
		return
	}

	pipeline, ok := r.pipelines[t.Kind]
	if !ok {
		logger.Error("no pipeline registered for task kind")
		if err := r.tasks.MarkRunning(ctx, t.ID); err == nil {
			_ = r.tasks.MarkFailed(ctx, t.ID, fmt.Sprintf("no pipeline registered for kind %q", t.Kind))
		}
		return
	}

	if err := r.tasks.MarkRunning(ctx, t.ID); err != nil {
		// Stale descriptor: the task was cancelled, retried elsewhere or is
		// otherwise no longer pending.
		logger.Warn("skipping task that could not be claimed", "error", err)
		return
	}

	r.activeWorkers.Add(1)
	defer r.activeWorkers.Add(-1)

	logger.Info("processing task")
	started := time.Now()

	var outputRef string
	runErr := func() (err error) {
		defer func() {
			if p := recover(); p != nil {
				err = fmt.Errorf("pipeline panic: %v", p)
			}
		}()
		outputRef, err = pipeline.Run(ctx, t)
		return err
	}()

	elapsed := time.Since(started)

	switch {
	case runErr == nil:
		if err := r.tasks.MarkCompleted(ctx, t.ID, outputRef); err != nil {
			if errors.Is(err, store.ErrInvalidTransition) {
				// Cancelled while the last stage was finishing: the result
				// is discarded and the output reference never recorded.
				logger.Info("discarding result of task no longer running",
					"elapsed", elapsed)
				return
			}
			logger.Error("failed to mark task completed", "error", err)
			return
		}
		if r.metrics != nil {
			r.metrics.Completed.Inc()
		}
		logger.Info("task completed", "output_ref", outputRef, "elapsed", elapsed)

	case errors.Is(runErr, domain.ErrTaskCancelled):
		logger.Info("pipeline stopped on cancelled task", "elapsed", elapsed)

	default:
		if err := r.tasks.MarkFailed(ctx, t.ID, runErr.Error()); err != nil {
			logger.Error("failed to mark task failed", "error", err)
		}
		if r.metrics != nil {
			r.metrics.Failed.Inc()
		}
		logger.Error("task failed", "error", runErr, "elapsed", elapsed)
	}
}

// monitor periodically force-fails running tasks that exceeded the task
// timeout ceiling. This is the only mechanism that reclaims a worker stuck
// on an unbounded external dependency.
func (r *Runner) monitor() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.cfg.MonitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.sweepTimedOut()
		}
	}
}

func (r *Runner) sweepTimedOut() {
	ctx := context.Background()

	running, err := r.tasks.ListByStatus(ctx, domain.TaskStatusRunning)
	if err != nil {
		r.logger.Error("monitor failed to list running tasks", "error", err)
		return
	}

	now := time.Now().UTC()
	for _, t := range running {
		if t.StartedAt == nil || now.Sub(*t.StartedAt) <= r.cfg.TaskTimeout {
			continue
		}

		msg := fmt.Sprintf("task execution exceeded timeout ceiling (%s)", r.cfg.TaskTimeout)
		if err := r.tasks.MarkFailed(ctx, t.ID, msg); err != nil {
			if errors.Is(err, store.ErrInvalidTransition) {
				continue // finished between listing and the sweep
			}
			r.logger.Error("monitor failed to time out task",
				"task_id", t.ID,
				"error", err)
			continue
		}

		if r.metrics != nil {
			r.metrics.TimedOut.Inc()
		}
		r.logger.Warn("task force-failed by timeout monitor",
			"task_id", t.ID,
			"started_at", t.StartedAt,
			"timeout", r.cfg.TaskTimeout)
	}
}
