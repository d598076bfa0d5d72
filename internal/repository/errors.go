// Package repository defines the SQL data access layer and the error
// values shared across repositories.  Sentinels let higher layers tell
// failure scenarios apart: ErrNotFound for a missing (or other tenant's)
// row, ErrConflict when a conditional write touched fewer rows than
// expected because another request changed them first.
package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"
)

// ErrNotFound is returned when the requested row does not exist within
// the caller's hotel.  Handlers translate it into HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrConflict signals that a guarded update lost a race or the current
// state does not allow it.  Handlers translate it into HTTP 409.
var ErrConflict = errors.New("conflict")

// Querier is satisfied by both *sql.DB and *sql.Tx so read helpers can
// run inside or outside a transaction.
type Querier interface {
    ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
    QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
    QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
    if n <= 0 {
        return ""
    }
    return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
