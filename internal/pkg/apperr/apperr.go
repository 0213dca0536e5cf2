// Package apperr defines the error kinds returned by the attendance and
// scheduling rules, together with their retry and HTTP semantics.
package apperr

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"

	"workforce/backend/foundation/web"
)

// Kind categorizes a rule error.
type Kind string

const (
	StaffNotFound       Kind = "STAFF_NOT_FOUND"
	AlreadyClockedIn    Kind = "ALREADY_CLOCKED_IN"
	NotClockedIn        Kind = "NOT_CLOCKED_IN"
	AlreadyOnBreak      Kind = "ALREADY_ON_BREAK"
	NotOnBreak          Kind = "NOT_ON_BREAK"
	DuplicateClockIn    Kind = "DUPLICATE_CLOCK_IN"
	DuplicateClockOut   Kind = "DUPLICATE_CLOCK_OUT"
	DuplicateBreakStart Kind = "DUPLICATE_BREAK_START"
	DuplicateBreakEnd   Kind = "DUPLICATE_BREAK_END"
	OutOfOrderEvent     Kind = "OUT_OF_ORDER_EVENT"
	ReasonRequired      Kind = "REASON_REQUIRED"
	OverlapConflict     Kind = "OVERLAP_CONFLICT"
	InvalidShift        Kind = "INVALID_SHIFT"
	LockTimeout         Kind = "LOCK_TIMEOUT"
	InvalidRole         Kind = "INVALID_ROLE"
	IDRangeExhausted    Kind = "ID_RANGE_EXHAUSTED"
	AllocationConflict  Kind = "ALLOCATION_CONFLICT"
	InvalidArgument     Kind = "INVALID_ARGUMENT"
	NotFound            Kind = "NOT_FOUND"
)

// Error is a rule violation reported to the caller as a value.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// New creates an Error of the given kind.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error of the given kind that carries a cause.
func Wrap(err error, kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first *Error in err's chain, or "" if there
// is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Retryable reports whether the caller may resubmit the same request.
func Retryable(err error) bool {
	switch KindOf(err) {
	case AllocationConflict, LockTimeout:
		return true
	}
	return false
}

// HTTPStatus maps a kind to the status code the controllers answer with.
func HTTPStatus(kind Kind) int {
	switch kind {
	case StaffNotFound, NotFound:
		return http.StatusNotFound
	case AlreadyClockedIn, NotClockedIn, AlreadyOnBreak, NotOnBreak, OutOfOrderEvent, OverlapConflict, AllocationConflict, LockTimeout:
		return http.StatusConflict
	case DuplicateClockIn, DuplicateClockOut, DuplicateBreakStart, DuplicateBreakEnd:
		return http.StatusTooManyRequests
	case InvalidRole, InvalidShift, InvalidArgument, ReasonRequired:
		return http.StatusBadRequest
	case IDRangeExhausted:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// ToRequestError converts a rule error into a *web.Error that keeps its kind
// and retry hint in the response body. Other errors are returned unchanged
// so the web layer logs them and answers 500.
func ToRequestError(err error) error {
	if err == nil {
		return nil
	}

	var webErr *web.Error
	if errors.As(err, &webErr) {
		return webErr
	}

	kind := KindOf(err)
	if kind == "" {
		return err
	}

	return &web.Error{
		Err:    err,
		Status: HTTPStatus(kind),
		Fields: map[string]interface{}{
			"kind":      string(kind),
			"retryable": Retryable(err),
		},
	}
}
