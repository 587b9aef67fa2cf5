package service

import (
    "errors"
    "fmt"
)

// Sentinel errors returned by the services.  Handlers map them to status
// codes with errors.Is; wrapped messages carry the detail.
var (
    ErrUnauthenticated    = errors.New("unauthenticated")
    ErrForbidden          = errors.New("forbidden")
    ErrInvariantViolation = errors.New("invariant violation")
    ErrNotFound           = errors.New("not found")
    ErrConflict           = errors.New("conflict")

    // ErrSelfAction is a Forbidden raised before any permission lookup
    // when a principal targets itself with a destructive operation.
    ErrSelfAction = fmt.Errorf("%w: cannot perform this action on yourself", ErrForbidden)
)

// invariantf wraps ErrInvariantViolation with a formatted reason.
func invariantf(format string, args ...any) error {
    return fmt.Errorf("%w: %s", ErrInvariantViolation, fmt.Sprintf(format, args...))
}

func forbiddenf(format string, args ...any) error {
    return fmt.Errorf("%w: %s", ErrForbidden, fmt.Sprintf(format, args...))
}
