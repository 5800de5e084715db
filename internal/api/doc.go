// Package api exposes the task orchestration HTTP surface: task
// submission, inspection, retry/cancel controls, the per-task call audit
// trail and operational stats.
package api
