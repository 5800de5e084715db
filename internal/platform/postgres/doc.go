// Package postgres implements the store interfaces on PostgreSQL via
// database/sql and the pgx stdlib driver. Status mutations are conditional
// UPDATEs keyed on the current status, so the task state machine is enforced
// at the row level even with concurrent writers.
package postgres
