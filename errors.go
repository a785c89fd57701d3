package epkroute

import (
	"errors"
	"fmt"

	"github.com/epkroute/epkroute-go/distinct"
	"github.com/epkroute/epkroute-go/element"
	"github.com/epkroute/epkroute-go/hashrange"
	"github.com/epkroute/epkroute-go/internal/routing"
	"github.com/epkroute/epkroute-go/pkhash"
	"github.com/epkroute/epkroute-go/wide"
)

// ErrorCode represents an epkroute error code.
type ErrorCode string

const (
	ErrorCodeFormat             ErrorCode = "FORMAT"
	ErrorCodeOutOfRange         ErrorCode = "OUT_OF_RANGE"
	ErrorCodeInvalidArgument    ErrorCode = "INVALID_ARGUMENT"
	ErrorCodeInvariantViolation ErrorCode = "INVARIANT_VIOLATION"
	ErrorCodePartitionNotFound  ErrorCode = "PARTITION_NOT_FOUND"
	ErrorCodeUnknown            ErrorCode = "UNKNOWN"
)

// Error is the base error type for all epkroute errors.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// base lets typed errors embed Error without a field named Error hiding
// the promoted Error method.
type base = Error

// FormatError indicates a malformed hash, token, or byte buffer.
type FormatError struct {
	base
}

// NewFormatError creates a new FormatError.
func NewFormatError(message string, cause error) *FormatError {
	return &FormatError{
		base: base{
			Code:    ErrorCodeFormat,
			Message: message,
			Cause:   cause,
		},
	}
}

// OutOfRangeError indicates a value beyond a hashing scheme's limits, such
// as an oversized V2 string.
type OutOfRangeError struct {
	base
}

// NewOutOfRangeError creates a new OutOfRangeError.
func NewOutOfRangeError(message string, cause error) *OutOfRangeError {
	return &OutOfRangeError{
		base: base{
			Code:    ErrorCodeOutOfRange,
			Message: message,
			Cause:   cause,
		},
	}
}

// InvalidArgumentError indicates invalid parameters.
type InvalidArgumentError struct {
	base
}

// NewInvalidArgumentError creates a new InvalidArgumentError.
func NewInvalidArgumentError(message string) *InvalidArgumentError {
	return &InvalidArgumentError{
		base: base{
			Code:    ErrorCodeInvalidArgument,
			Message: message,
		},
	}
}

// InvariantViolationError indicates a partition layout that is not a
// contiguous, non-overlapping set of ranges.
type InvariantViolationError struct {
	base
}

// NewInvariantViolationError creates a new InvariantViolationError.
func NewInvariantViolationError(message string, cause error) *InvariantViolationError {
	return &InvariantViolationError{
		base: base{
			Code:    ErrorCodeInvariantViolation,
			Message: message,
			Cause:   cause,
		},
	}
}

// PartitionNotFoundError indicates no partition matches an id or hash.
type PartitionNotFoundError struct {
	base
	PartitionID string // Requested id, empty for hash lookups
}

// NewPartitionNotFoundError creates a new PartitionNotFoundError.
func NewPartitionNotFoundError(message string, partitionID string, cause error) *PartitionNotFoundError {
	return &PartitionNotFoundError{
		base: base{
			Code:    ErrorCodePartitionNotFound,
			Message: message,
			Cause:   cause,
		},
		PartitionID: partitionID,
	}
}

// IsFormat returns true if the error is a FormatError.
func IsFormat(err error) bool {
	var target *FormatError
	return errors.As(err, &target)
}

// IsOutOfRange returns true if the error is an OutOfRangeError.
func IsOutOfRange(err error) bool {
	var target *OutOfRangeError
	return errors.As(err, &target)
}

// IsInvalidArgument returns true if the error is an InvalidArgumentError.
func IsInvalidArgument(err error) bool {
	var target *InvalidArgumentError
	return errors.As(err, &target)
}

// IsInvariantViolation returns true if the error is an InvariantViolationError.
func IsInvariantViolation(err error) bool {
	var target *InvariantViolationError
	return errors.As(err, &target)
}

// IsPartitionNotFound returns true if the error is a PartitionNotFoundError.
func IsPartitionNotFound(err error) bool {
	var target *PartitionNotFoundError
	return errors.As(err, &target)
}

// FromError converts an error from the hashing, range, distinct, or
// routing packages to an epkroute error. Errors that are already epkroute
// errors are returned unchanged.
func FromError(err error) error {
	if err == nil {
		return nil
	}

	if isTyped(err) {
		return err
	}

	message := err.Error()
	switch {
	case errors.Is(err, wide.ErrFormat), errors.Is(err, distinct.ErrMalformedToken):
		return NewFormatError(message, err)

	case errors.Is(err, pkhash.ErrOutOfRange):
		return NewOutOfRangeError(message, err)

	case errors.Is(err, pkhash.ErrInvalidComponent),
		errors.Is(err, pkhash.ErrUnsupportedVersion),
		errors.Is(err, distinct.ErrInvalidArgument),
		errors.Is(err, element.ErrUnsupported),
		errors.Is(err, hashrange.ErrInvalidRange):
		e := NewInvalidArgumentError(message)
		e.Cause = err
		return e

	case errors.Is(err, hashrange.ErrInvalidRanges), errors.Is(err, routing.ErrDuplicatePartition):
		return NewInvariantViolationError(message, err)

	case errors.Is(err, routing.ErrPartitionNotFound):
		return NewPartitionNotFoundError(message, "", err)

	default:
		return &Error{
			Code:    ErrorCodeUnknown,
			Message: message,
			Cause:   err,
		}
	}
}

func isTyped(err error) bool {
	var target *Error
	return errors.As(err, &target) || IsFormat(err) || IsOutOfRange(err) ||
		IsInvalidArgument(err) || IsInvariantViolation(err) || IsPartitionNotFound(err)
}
