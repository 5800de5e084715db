// Package pipeline implements the staged processing that turns one task's
// input document into a finished video: script breakdown, per-scene asset
// generation through supervised provider calls, per-scene composition and
// the final merge. Each stage persists its output and advances the task's
// progress checkpoint before the next stage starts.
package pipeline
