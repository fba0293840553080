package attendanceerrors

import (
	"go-skud/internal/shared/apperror"
	"net/http"
)

var (
	ErrInvalidEvent = apperror.New(
		apperror.CodeInvalidInput,
		"Event cannot be reconciled",
		http.StatusBadRequest,
	)
	ErrInvalidDateRange = apperror.New(
		apperror.CodeInvalidInput,
		"Start date must not be after end date",
		http.StatusBadRequest,
	)
)
