package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrorCode is a machine-readable classification of a domain failure.
type ErrorCode string

const (
	CodeValidation        ErrorCode = "VALIDATION_ERROR"
	CodeInvalidRange      ErrorCode = "INVALID_RANGE"
	CodeNotFound          ErrorCode = "NOT_FOUND"
	CodeNotAuthorized     ErrorCode = "NOT_AUTHORIZED"
	CodeDateConflict      ErrorCode = "DATE_CONFLICT"
	CodeInvalidTransition ErrorCode = "INVALID_TRANSITION"
	CodeDuplicateReview   ErrorCode = "DUPLICATE_REVIEW"
	CodeConflict          ErrorCode = "CONFLICT"
)

// Error is a typed domain error carrying a classification code. All booking
// core failures are reported through this type so the HTTP layer can map them
// to status codes without string matching.
type Error struct {
	Code    ErrorCode
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// NewValidationError creates an error for malformed or rejected input.
func NewValidationError(message string) *Error {
	return &Error{Code: CodeValidation, Message: message}
}

// NewInvalidRangeError creates an error for a malformed date range.
func NewInvalidRangeError(message string) *Error {
	return &Error{Code: CodeInvalidRange, Message: message}
}

// NewNotFoundError creates an error for a missing resource.
func NewNotFoundError(resource, id string) *Error {
	return &Error{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// NewNotAuthorizedError creates an error for an actor who is not party to the
// booking or not permitted to perform the operation on it.
func NewNotAuthorizedError(bookingID uuid.UUID, message string) *Error {
	return &Error{
		Code:    CodeNotAuthorized,
		Message: fmt.Sprintf("%s (booking %s)", message, bookingID),
	}
}

// NewDateConflictError creates an error for a date range that overlaps an
// existing hold on the property.
func NewDateConflictError(propertyID uuid.UUID, checkIn, checkOut time.Time) *Error {
	return &Error{
		Code: CodeDateConflict,
		Message: fmt.Sprintf(
			"property %s is not available for %s to %s",
			propertyID, checkIn.Format(time.DateOnly), checkOut.Format(time.DateOnly),
		),
	}
}

// NewInvalidTransitionError creates an error for an illegal booking state
// change, naming the booking, the attempted event and the current state.
func NewInvalidTransitionError(bookingID uuid.UUID, event, currentState string) *Error {
	return &Error{
		Code: CodeInvalidTransition,
		Message: fmt.Sprintf(
			"cannot %s booking %s in state %q", event, bookingID, currentState,
		),
	}
}

// NewDuplicateReviewError creates an error for a second review submission in
// the same booking direction.
func NewDuplicateReviewError(bookingID, reviewerID uuid.UUID) *Error {
	return &Error{
		Code: CodeDuplicateReview,
		Message: fmt.Sprintf(
			"reviewer %s has already reviewed booking %s", reviewerID, bookingID,
		),
	}
}

// NewConflictError creates an error for a concurrent-modification conflict.
func NewConflictError(message string) *Error {
	return &Error{Code: CodeConflict, Message: message}
}

// IsCode reports whether err is a domain error with the given code.
func IsCode(err error, code ErrorCode) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf returns the domain error code of err, or an empty code if err is not
// a domain error.
func CodeOf(err error) ErrorCode {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}
