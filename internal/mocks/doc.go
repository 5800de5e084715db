// Package mocks provides in-memory implementations of the store interfaces
// for use in tests across packages. The task store enforces the same state
// machine and progress monotonicity as the postgres implementation, so
// scheduler tests exercise real transition semantics.
package mocks
