// Package store defines persistence interfaces for the service's entities
// and the common error types store implementations return. Concrete
// implementations live in internal/platform/postgres.
package store
