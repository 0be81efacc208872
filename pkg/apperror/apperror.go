package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies an error for transport mapping.
type Code string

const (
	CodeBadRequest   Code = "BAD_REQUEST"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeForbidden    Code = "FORBIDDEN"
	CodeNotFound     Code = "NOT_FOUND"
	CodeConflict     Code = "CONFLICT"
	CodeInternal     Code = "INTERNAL"
)

// AppError is a typed, expected business outcome. It is returned as a value
// and mapped to an HTTP status by the handler layer; it is never treated as
// an unexpected failure.
type AppError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
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

// Is lets wrapped copies of a sentinel match the sentinel itself.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

func New(code Code, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Wrap attaches an underlying cause to a sentinel without mutating it.
func Wrap(sentinel *AppError, err error) *AppError {
	return &AppError{Code: sentinel.Code, Message: sentinel.Message, Err: err}
}

// Conflict taxonomy for scheduling decisions. All of these are recoverable,
// expected outcomes of business rules.
var (
	ErrDoctorUnavailable      = New(CodeConflict, "requested time is outside the doctor's working hours")
	ErrAppointmentOverlap     = New(CodeConflict, "doctor already has an active appointment in this time range")
	ErrSlotUnavailable        = New(CodeConflict, "operating theatre slot is not available")
	ErrShiftOverlap           = New(CodeConflict, "staff member already has an overlapping shift")
	ErrNotOwner               = New(CodeForbidden, "resource belongs to another user")
	ErrInvalidStateTransition = New(CodeConflict, "operation is not allowed from the current state")
	ErrPastDate               = New(CodeBadRequest, "cannot book a date in the past")
	ErrNotFound               = New(CodeNotFound, "resource not found")
	ErrForbidden              = New(CodeForbidden, "insufficient permissions")
	ErrUnauthorized           = New(CodeUnauthorized, "unauthorized")
)

// NotFound returns ErrNotFound annotated with the missing resource name.
func NotFound(resource string) error {
	return fmt.Errorf("%s: %w", resource, ErrNotFound)
}

// Internal wraps an unexpected failure (storage unavailability, integrity
// violations outside the conflict taxonomy). No business detail is exposed.
func Internal(err error) *AppError {
	return &AppError{Code: CodeInternal, Message: "internal server error", Err: err}
}

// HTTPStatus maps an error to a transport status code.
func HTTPStatus(err error) int {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError
	}
	switch appErr.Code {
	case CodeBadRequest:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
