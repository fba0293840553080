package eventerrors

import (
	"errors"
	"go-skud/internal/shared/apperror"
	"net/http"
)

// Rejections carry their reason slug in Message so logs, metrics and the
// ingestion endpoint all report the same string.
var (
	ErrNoPayload = apperror.New(
		apperror.CodeRejected,
		"no-payload",
		http.StatusOK,
	)
	ErrInvalidTimestamp = apperror.New(
		apperror.CodeRejected,
		"invalid-timestamp",
		http.StatusOK,
	)
	ErrStaleEvent = apperror.New(
		apperror.CodeRejected,
		"stale-event",
		http.StatusOK,
	)
	ErrNotAccessEvent = apperror.New(
		apperror.CodeRejected,
		"not-access-event",
		http.StatusOK,
	)
	ErrNoEmployee = apperror.New(
		apperror.CodeRejected,
		"no-employee-id",
		http.StatusOK,
	)
	ErrInvalidEmployeeID = apperror.New(
		apperror.CodeRejected,
		"invalid-employee-id",
		http.StatusOK,
	)
	ErrUnknownTerminal = apperror.New(
		apperror.CodeRejected,
		"unknown-terminal",
		http.StatusOK,
	)
	ErrUnknownEmployee = apperror.New(
		apperror.CodeRejected,
		"unknown-employee",
		http.StatusOK,
	)
)

var all = []*apperror.AppError{
	ErrNoPayload,
	ErrInvalidTimestamp,
	ErrStaleEvent,
	ErrNotAccessEvent,
	ErrNoEmployee,
	ErrInvalidEmployeeID,
	ErrUnknownTerminal,
	ErrUnknownEmployee,
}

// Reason returns the rejection slug of err, or "" when err is not a rejection.
func Reason(err error) string {
	for _, r := range all {
		if errors.Is(err, r) {
			return r.Message
		}
	}
	return ""
}
