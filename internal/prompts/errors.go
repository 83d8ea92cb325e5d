package prompts

import (
	"errors"
	"net/http"
)

// Domain errors for prompt operations.
var (
	ErrNotFound             = errors.New("prompt not found")
	ErrDuplicate            = errors.New("prompt name already exists")
	ErrInvalidStage         = errors.New("stage must be clarity or content")
	ErrNameRequired         = errors.New("prompt name required")
	ErrInstructionsRequired = errors.New("prompt instructions required")
	ErrInvalidID            = errors.New("invalid prompt id")
)

// MapHTTPStatus maps prompt domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidStage),
		errors.Is(err, ErrNameRequired),
		errors.Is(err, ErrInstructionsRequired),
		errors.Is(err, ErrInvalidID):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
