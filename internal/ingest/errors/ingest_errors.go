package ingesterrors

import (
	"go-skud/internal/shared/apperror"
	"net/http"
)

var (
	ErrQueueFull = apperror.New(
		apperror.CodeServiceUnavailable,
		"Ingestion queue is full",
		http.StatusServiceUnavailable,
	)
	ErrWorkerStopped = apperror.New(
		apperror.CodeServiceUnavailable,
		"Ingestion worker is stopped",
		http.StatusServiceUnavailable,
	)
)
