// Package task implements the job orchestration layer: the in-process FIFO
// queue of pending task descriptors, the fixed-size worker pool that drives
// one pipeline per task, and the background monitor that reclaims tasks
// stuck past the timeout ceiling. Durable task state lives in the TaskStore;
// the queue only carries dispatch descriptors.
package task
