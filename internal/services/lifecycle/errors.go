package lifecycle

import (
	"errors"
	"fmt"
	"strings"
)

// Error taxonomy for lifecycle operations. Handlers map these onto HTTP
// statuses; nothing below this package inspects error strings.
var (
	// ErrValidation: missing or malformed input, reported before any write
	ErrValidation = errors.New("validation error")

	// ErrNotFound: referenced batch/item does not exist, no state change
	ErrNotFound = errors.New("not found")

	// ErrConflict: duplicate scan, re-install, undo on empty log
	ErrConflict = errors.New("conflict")

	// ErrStateViolation: operation not allowed in the batch's current state
	ErrStateViolation = errors.New("state violation")

	// ErrExternal: upload/collaborator failure, retryable by the caller
	ErrExternal = errors.New("external service failure")
)

// ValidationError carries the full list of offending fields so a form can
// surface every problem at once
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s", strings.Join(e.Fields, ", "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func validationf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrValidation)...)
}

func notFoundf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
}

func conflictf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrConflict)...)
}

func stateViolationf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrStateViolation)...)
}

func externalf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrExternal)...)
}
