package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrConfiguration indicates missing or inconsistent setup (account, journal,
// partner, API credentials). Always batch-aborting and user-facing.
var ErrConfiguration = errors.New("configuration error")

// ErrMalformedInput indicates an unparseable or incomplete input record
// (missing import ID, bad numeric field, unknown transaction-type code).
// Fatal for the whole file or sync run, never skippable.
var ErrMalformedInput = errors.New("malformed input")

// ErrIntegrity indicates upstream data corruption, such as a bank movement
// whose amount disagrees with its correlated expense detail.
var ErrIntegrity = errors.New("integrity error")

// ErrSkipRecord marks a per-record precondition failure inside a
// user-triggered batch (e.g. processing a transaction that is not draft).
// Callers log it and continue with the next record.
var ErrSkipRecord = errors.New("record skipped")

// AppError carries a status code alongside a message and cause.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates an AppError wrapping an underlying cause.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// Configuration builds a user-facing configuration error naming the missing item.
func Configuration(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

// Validation builds a user-correctable business-rule error.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// MalformedInput builds a fatal input error naming the offending line or field.
func MalformedInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedInput, fmt.Sprintf(format, args...))
}

// Integrity builds a "should never happen" upstream-data error.
func Integrity(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrIntegrity, fmt.Sprintf(format, args...))
}

// Skip builds a recoverable per-record skip.
func Skip(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrSkipRecord, fmt.Sprintf(format, args...))
}

// IsFatal reports whether an error must abort the current batch.
// Everything except an explicit per-record skip is fatal.
func IsFatal(err error) bool {
	return err != nil && !errors.Is(err, ErrSkipRecord)
}
