package transcripts

import (
	"errors"
	"net/http"
)

// Domain errors for transcript operations.
var (
	ErrNotFound          = errors.New("transcript not found")
	ErrInvalidTimestamps = errors.New("invalid word timestamps")
	ErrInvalidID         = errors.New("invalid transcript id")
)

// MapHTTPStatus maps transcript domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidID):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
