package task

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelforge/reelforge-api/internal/config"
	"github.com/reelforge/reelforge-api/internal/domain"
	"github.com/reelforge/reelforge-api/internal/mocks"
)

const kindA = domain.TaskKindDocumentToVideo

// fakePipeline runs a configurable function per task execution.
type fakePipeline struct {
	mu   sync.Mutex
	runs int
	fn   func(ctx context.Context, t *domain.Task, run int) (string, error)
}

func (p *fakePipeline) Run(ctx context.Context, t *domain.Task) (string, error) {
	p.mu.Lock()
	p.runs++
	run := p.runs
	fn := p.fn
	p.mu.Unlock()
	if fn == nil {
		return "output/" + t.ID.String() + ".mp4", nil
	}
	return fn(ctx, t, run)
}

func (p *fakePipeline) runCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.runs
}

func testSchedulerConfig() config.SchedulerConfig {
	return config.SchedulerConfig{
		WorkerCount:     2,
		QueueSize:       16,
		TaskTimeout:     time.Minute,
		MonitorInterval: 20 * time.Millisecond,
		DequeueTimeout:  10 * time.Millisecond,
	}
}

func newTestRunner(t *testing.T, pipeline Pipeline, cfg config.SchedulerConfig) (*Runner, *mocks.MemTaskStore) {
	t.Helper()
	tasks := mocks.NewMemTaskStore()
	queue := NewQueue(cfg.QueueSize, setupTestLogger())
	metrics := NewMetrics(prometheus.NewRegistry(), func() float64 { return float64(queue.Len()) })
	runner := NewRunner(tasks, queue,
		map[string]Pipeline{kindA: pipeline},
		cfg, setupTestLogger(), metrics)
	return runner, tasks
}

func waitForStatus(t *testing.T, tasks *mocks.MemTaskStore, id uuid.UUID, want domain.TaskStatus) *domain.Task {
	t.Helper()
	var got *domain.Task
	require.Eventually(t, func() bool {
		task, err := tasks.GetByID(context.Background(), id)
		if err != nil {
			return false
		}
		got = task
		return task.Status == want
	}, 3*time.Second, 5*time.Millisecond, "task never reached status %s", want)
	return got
}

func TestSubmitAndComplete(t *testing.T) {
	pipeline := &fakePipeline{}
	runner, tasks := newTestRunner(t, pipeline, testSchedulerConfig())

	require.NoError(t, runner.Start())
	defer runner.Stop()

	id, err := runner.Submit(context.Background(), kindA, "docs/chapter1.txt", nil)
	require.NoError(t, err)

	done := waitForStatus(t, tasks, id, domain.TaskStatusCompleted)
	assert.NotEmpty(t, done.OutputRef)
	assert.Equal(t, float64(1), done.Progress)
	assert.Empty(t, done.ErrorMessage)
	assert.NotNil(t, done.StartedAt)
	assert.NotNil(t, done.CompletedAt)
}

func TestSubmitUnknownKind(t *testing.T) {
	runner, _ := newTestRunner(t, &fakePipeline{}, testSchedulerConfig())

	_, err := runner.Submit(context.Background(), "unknown_kind", "docs/x.txt", nil)
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestPipelineFailureMarksTaskFailed(t *testing.T) {
	pipeline := &fakePipeline{
		fn: func(_ context.Context, _ *domain.Task, _ int) (string, error) {
			return "", errors.New("stage generate_assets: provider exploded")
		},
	}
	runner, tasks := newTestRunner(t, pipeline, testSchedulerConfig())

	require.NoError(t, runner.Start())
	defer runner.Stop()

	id, err := runner.Submit(context.Background(), kindA, "docs/chapter1.txt", nil)
	require.NoError(t, err)

	failed := waitForStatus(t, tasks, id, domain.TaskStatusFailed)
	assert.Contains(t, failed.ErrorMessage, "stage generate_assets")
	assert.Empty(t, failed.OutputRef)
}

func TestPipelinePanicMarksTaskFailed(t *testing.T) {
	pipeline := &fakePipeline{
		fn: func(_ context.Context, _ *domain.Task, _ int) (string, error) {
			panic("boom")
		},
	}
	runner, tasks := newTestRunner(t, pipeline, testSchedulerConfig())

	require.NoError(t, runner.Start())
	defer runner.Stop()

	id, err := runner.Submit(context.Background(), kindA, "docs/chapter1.txt", nil)
	require.NoError(t, err)

	failed := waitForStatus(t, tasks, id, domain.TaskStatusFailed)
	assert.Contains(t, failed.ErrorMessage, "pipeline panic")
}

func TestRetryResetsAndReruns(t *testing.T) {
	pipeline := &fakePipeline{
		fn: func(_ context.Context, t *domain.Task, run int) (string, error) {
			if run == 1 {
				return "", errors.New("stage breakdown: transient provider failure")
			}
			return "output/" + t.ID.String() + ".mp4", nil
		},
	}
	runner, tasks := newTestRunner(t, pipeline, testSchedulerConfig())

	require.NoError(t, runner.Start())
	defer runner.Stop()

	id, err := runner.Submit(context.Background(), kindA, "docs/chapter1.txt", nil)
	require.NoError(t, err)

	waitForStatus(t, tasks, id, domain.TaskStatusFailed)

	require.NoError(t, runner.Retry(context.Background(), id))

	// Reopen semantics: error cleared and progress reset before re-queueing.
	reopened, err := tasks.GetByID(context.Background(), id)
	require.NoError(t, err)
	if reopened.Status == domain.TaskStatusPending {
		assert.Empty(t, reopened.ErrorMessage)
		assert.Equal(t, float64(0), reopened.Progress)
	}

	done := waitForStatus(t, tasks, id, domain.TaskStatusCompleted)
	assert.NotEmpty(t, done.OutputRef)
	assert.Empty(t, done.ErrorMessage)
	assert.Equal(t, 2, pipeline.runCount())
}

func TestRetryRejectedUnlessFailed(t *testing.T) {
	pipeline := &fakePipeline{}
	runner, tasks := newTestRunner(t, pipeline, testSchedulerConfig())

	// Not started: the submitted task stays pending.
	id, err := runner.Submit(context.Background(), kindA, "docs/chapter1.txt", nil)
	require.NoError(t, err)

	err = runner.Retry(context.Background(), id)
	assert.ErrorIs(t, err, ErrNotFailed)

	pendingTask, err := tasks.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusPending, pendingTask.Status)

	err = runner.Retry(context.Background(), uuid.New())
	assert.Error(t, err)
}

func TestCancelScenarioDiscardsLateResult(t *testing.T) {
	release := make(chan struct{})
	started := make(chan uuid.UUID, 1)

	pipeline := &fakePipeline{
		fn: func(_ context.Context, task *domain.Task, _ int) (string, error) {
			started <- task.ID
			<-release
			// The in-flight call "completes successfully" after cancellation.
			return "output/late.mp4", nil
		},
	}
	runner, tasks := newTestRunner(t, pipeline, testSchedulerConfig())

	require.NoError(t, runner.Start())
	defer runner.Stop()

	id, err := runner.Submit(context.Background(), kindA, "docs/chapter1.txt", nil)
	require.NoError(t, err)

	select {
	case <-started:
	case <-time.After(3 * time.Second):
		t.Fatal("pipeline never started")
	}

	require.NoError(t, runner.Cancel(context.Background(), id))

	cancelled := waitForStatus(t, tasks, id, domain.TaskStatusCancelled)
	assert.Empty(t, cancelled.OutputRef)

	// Let the in-flight pipeline finish; its result must be discarded.
	close(release)
	time.Sleep(50 * time.Millisecond)

	final, err := tasks.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusCancelled, final.Status)
	assert.Empty(t, final.OutputRef)
}

func TestCancelRejectedUnlessRunning(t *testing.T) {
	runner, _ := newTestRunner(t, &fakePipeline{}, testSchedulerConfig())

	id, err := runner.Submit(context.Background(), kindA, "docs/chapter1.txt", nil)
	require.NoError(t, err)

	// Runner not started: the task is still pending.
	err = runner.Cancel(context.Background(), id)
	assert.ErrorIs(t, err, ErrNotRunning)

	err = runner.Cancel(context.Background(), uuid.New())
	assert.Error(t, err)
}

func TestMonitorReclaimsTimedOutTask(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	started := make(chan uuid.UUID, 1)

	pipeline := &fakePipeline{
		fn: func(_ context.Context, task *domain.Task, _ int) (string, error) {
			started <- task.ID
			<-release
			return "output/stuck.mp4", nil
		},
	}

	cfg := testSchedulerConfig()
	cfg.WorkerCount = 1
	cfg.TaskTimeout = 40 * time.Millisecond
	cfg.MonitorInterval = 10 * time.Millisecond

	runner, tasks := newTestRunner(t, pipeline, cfg)
	require.NoError(t, runner.Start())

	id, err := runner.Submit(context.Background(), kindA, "docs/chapter1.txt", nil)
	require.NoError(t, err)

	select {
	case <-started:
	case <-time.After(3 * time.Second):
		t.Fatal("pipeline never started")
	}

	failed := waitForStatus(t, tasks, id, domain.TaskStatusFailed)
	assert.Contains(t, failed.ErrorMessage, "timeout ceiling")
	assert.Empty(t, failed.OutputRef)
}

func TestRecoverRequeuesPendingAndFailsOrphans(t *testing.T) {
	pipeline := &fakePipeline{}
	runner, tasks := newTestRunner(t, pipeline, testSchedulerConfig())

	pendingTask, err := domain.NewTask(kindA, "docs/pending.txt", nil)
	require.NoError(t, err)
	tasks.Put(pendingTask)

	orphan, err := domain.NewTask(kindA, "docs/orphan.txt", nil)
	require.NoError(t, err)
	orphan.Status = domain.TaskStatusRunning
	startedAt := time.Now().UTC().Add(-time.Hour)
	orphan.StartedAt = &startedAt
	tasks.Put(orphan)

	require.NoError(t, runner.Start())
	defer runner.Stop()

	waitForStatus(t, tasks, pendingTask.ID, domain.TaskStatusCompleted)

	failedOrphan := waitForStatus(t, tasks, orphan.ID, domain.TaskStatusFailed)
	assert.Contains(t, failedOrphan.ErrorMessage, "interrupted by process restart")
}

func TestStats(t *testing.T) {
	runner, tasks := newTestRunner(t, &fakePipeline{}, testSchedulerConfig())

	done, err := domain.NewTask(kindA, "docs/a.txt", nil)
	require.NoError(t, err)
	done.Status = domain.TaskStatusCompleted
	tasks.Put(done)

	_, err = runner.Submit(context.Background(), kindA, "docs/b.txt", nil)
	require.NoError(t, err)

	stats, err := runner.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, stats.WorkerCount)
	assert.Equal(t, 0, stats.ActiveWorkers)
	assert.Equal(t, 1, stats.QueueDepth)
	assert.Equal(t, 1, stats.CountByStatus[domain.TaskStatusCompleted])
	assert.Equal(t, 1, stats.CountByStatus[domain.TaskStatusPending])
}

func TestProgressObservedNonDecreasing(t *testing.T) {
	var observations []float64
	var obsMu sync.Mutex

	tasks := mocks.NewMemTaskStore()
	queue := NewQueue(16, setupTestLogger())

	pipeline := &fakePipeline{
		fn: func(ctx context.Context, task *domain.Task, _ int) (string, error) {
			for _, p := range []float64{0.1, 0.3, 0.6, 0.8, 0.9} {
				if err := tasks.UpdateProgress(ctx, task.ID, p); err != nil {
					return "", err
				}
				got, err := tasks.GetByID(ctx, task.ID)
				if err != nil {
					return "", err
				}
				obsMu.Lock()
				observations = append(observations, got.Progress)
				obsMu.Unlock()
			}
			return "output/final.mp4", nil
		},
	}

	runner := NewRunner(tasks, queue,
		map[string]Pipeline{kindA: pipeline},
		testSchedulerConfig(), setupTestLogger(), nil)

	require.NoError(t, runner.Start())
	defer runner.Stop()

	id, err := runner.Submit(context.Background(), kindA, "docs/chapter1.txt", nil)
	require.NoError(t, err)

	waitForStatus(t, tasks, id, domain.TaskStatusCompleted)

	obsMu.Lock()
	defer obsMu.Unlock()
	require.NotEmpty(t, observations)
	for i := 1; i < len(observations); i++ {
		assert.GreaterOrEqual(t, observations[i], observations[i-1])
	}
}
