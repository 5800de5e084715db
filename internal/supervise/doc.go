// Package supervise implements the reusable protocol wrapping a single
// external generation operation: asynchronous completion polling with a
// bounded attempt ceiling, and bounded content-policy retry with prompt
// mutation. Every pipeline stage that talks to an external generator goes
// through this package, so polling intervals, attempt ceilings and
// terminal-state classification are defined exactly once.
package supervise
