package jobs

import (
	"errors"
	"net/http"
)

// Sentinel errors for queue operations.
var (
	ErrQueueFull   = errors.New("job queue full")
	ErrQueueClosed = errors.New("job queue closed")
	ErrPoolStarted = errors.New("worker pool already started")
)

// MapHTTPStatus maps queue errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrQueueFull), errors.Is(err, ErrQueueClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
