package rubrics

import (
	"errors"
	"net/http"
)

// Domain errors for rubric operations.
var (
	ErrNotFound  = errors.New("rubric not found")
	ErrInvalidID = errors.New("invalid rubric id")
)

// MapHTTPStatus maps rubric domain errors to HTTP status codes.
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
