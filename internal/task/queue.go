package task

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Common errors returned by the Queue.
var (
	ErrQueueClosed = errors.New("task queue is closed")
	ErrQueueFull   = errors.New("task queue is full")
)

// Descriptor is the minimal dispatch record handed to workers. The
// authoritative task state always lives in the TaskStore.
type Descriptor struct {
	ID       uuid.UUID
	Kind     string
	InputRef string
}

// Queue is a buffered in-process FIFO of task descriptors. Each enqueued
// descriptor is delivered to at most one dequeuing worker. Removing a
// descriptor tombstones exactly one buffered instance of its ID; a later
// enqueue of the same ID is a fresh instance and stays deliverable.
// Clearing the queue never mutates the TaskStore.
type Queue struct {
	ch     chan Descriptor
	logger *slog.Logger

	mu      sync.Mutex
	removed map[uuid.UUID]int
	closed  bool
}

// NewQueue creates a queue with the specified buffer capacity.
func NewQueue(size int, logger *slog.Logger) *Queue {
	return &Queue{
		ch:      make(chan Descriptor, size),
		logger:  logger,
		removed: make(map[uuid.UUID]int),
	}
}

// Enqueue adds a descriptor for processing. Returns ErrQueueFull when the
// buffer is at capacity and ErrQueueClosed after Close.
func (q *Queue) Enqueue(d Descriptor) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}

	// The send is non-blocking and happens under the same lock as the
	// closed check, so Close cannot close the channel in between.
	select {
	case q.ch <- d:
		q.logger.Debug("task enqueued",
			"task_id", d.ID,
			"task_kind", d.Kind,
			"queue_len", len(q.ch),
			"queue_cap", cap(q.ch))
		return nil
	default:
		return fmt.Errorf("%w: queue capacity %d reached", ErrQueueFull, cap(q.ch))
	}
}

// Dequeue blocks up to timeout for the next descriptor. It returns
// ok=false on timeout or once the queue is closed and drained, so workers
// can check their stop flag between blocking intervals instead of erroring.
func (q *Queue) Dequeue(timeout time.Duration) (Descriptor, bool) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		select {
		case d, open := <-q.ch:
			if !open {
				return Descriptor{}, false
			}
			q.mu.Lock()
			skipped := q.removed[d.ID] > 0
			if skipped {
				// Each skip consumes one tombstone, so a fresh enqueue of
				// the same ID is not swallowed by a stale removal.
				if q.removed[d.ID] == 1 {
					delete(q.removed, d.ID)
				} else {
					q.removed[d.ID]--
				}
			}
			q.mu.Unlock()
			if skipped {
				continue
			}
			return d, true
		case <-deadline.C:
			return Descriptor{}, false
		}
	}
}

// Remove tombstones one buffered instance of the descriptor so it will be
// skipped when dequeued. It has no effect on the task's durable state.
func (q *Queue) Remove(id uuid.UUID) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.removed[id]++
}

// Len returns the number of buffered descriptors, including tombstoned ones.
func (q *Queue) Len() int {
	return len(q.ch)
}

// Close closes the queue, preventing further submission. Safe to call once.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.ch)
	q.logger.Info("task queue closed")
}
