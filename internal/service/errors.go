// Package service holds the reservation lifecycle and room inventory
// operations.  Each operation runs its writes in one SQL transaction and
// reports failures as the typed errors below, which handlers map to HTTP
// statuses in one place.
package service

import (
    "errors"
    "fmt"
)

// ValidationError is malformed or inconsistent input.  Nothing has been
// written when it is returned.
type ValidationError struct {
    Field string
    Msg   string
}

func (e ValidationError) Error() string {
    if e.Msg != "" && e.Field != "" {
        return fmt.Sprintf("%s: %s", e.Field, e.Msg)
    }
    if e.Msg != "" {
        return e.Msg
    }
    if e.Field != "" {
        return fmt.Sprintf("invalid %s", e.Field)
    }
    return "validation error"
}

// NotFoundError means the target does not exist within the caller's hotel.
type NotFoundError struct {
    Resource string
    Err      error
}

func (e NotFoundError) Error() string {
    if e.Resource == "" {
        return "not found"
    }
    return fmt.Sprintf("%s not found", e.Resource)
}

func (e NotFoundError) Unwrap() error { return e.Err }

// ConflictError is a refused status move or a lost race on a room unit.
type ConflictError struct {
    Resource string
    Msg      string
    Err      error
}

func (e ConflictError) Error() string {
    switch {
    case e.Msg != "" && e.Resource != "":
        return fmt.Sprintf("%s conflict: %s", e.Resource, e.Msg)
    case e.Msg != "":
        return e.Msg
    case e.Resource != "":
        return fmt.Sprintf("%s conflict", e.Resource)
    default:
        return "conflict"
    }
}

func (e ConflictError) Unwrap() error { return e.Err }

// UnauthorizedError is a call without a tenant in its session.
type UnauthorizedError struct{ Msg string }

func (e UnauthorizedError) Error() string {
    if e.Msg == "" {
        return "unauthorized"
    }
    return e.Msg
}

func IsValidation(err error) bool {
    var target ValidationError
    return errors.As(err, &target)
}

func IsNotFound(err error) bool {
    var target NotFoundError
    return errors.As(err, &target)
}

func IsConflict(err error) bool {
    var target ConflictError
    return errors.As(err, &target)
}

func IsUnauthorized(err error) bool {
    var target UnauthorizedError
    return errors.As(err, &target)
}

// outcome labels err for the operation metrics.
func outcome(err error) string {
    switch {
    case err == nil:
        return "ok"
    case IsValidation(err):
        return "invalid"
    case IsNotFound(err):
        return "not_found"
    case IsConflict(err):
        return "conflict"
    case IsUnauthorized(err):
        return "unauthorized"
    default:
        return "error"
    }
}
