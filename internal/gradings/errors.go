package gradings

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/cadence/internal/jobs"
	"github.com/JaimeStill/cadence/pkg/storage"
)

// Domain errors for grading operations.
var (
	ErrNotFound           = errors.New("grading not found")
	ErrDuplicate          = errors.New("grading already exists for transcript and rubric")
	ErrStaleAttempt       = errors.New("grading attempt superseded")
	ErrInvalidStatus      = errors.New("invalid grading status")
	ErrInvalidID          = errors.New("invalid grading id")
	ErrTranscriptRequired = errors.New("transcript_id required")
	ErrRubricRequired     = errors.New("rubric_id required")
	ErrInvalidSourceType  = errors.New("source_type must be self or instructor")
	ErrInvalidContextType = errors.New("context_type must be practice or class")
	ErrContextRequired    = errors.New("context_id required for class gradings")
	ErrTranscriptNotFound = errors.New("transcript not found")
	ErrRubricNotFound     = errors.New("rubric not found")
	ErrReportNotFound     = errors.New("grading report not found")
	ErrPanic              = errors.New("grading run panicked")
)

// MapHTTPStatus maps grading domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrTranscriptNotFound),
		errors.Is(err, ErrRubricNotFound),
		errors.Is(err, ErrReportNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidStatus),
		errors.Is(err, ErrInvalidID),
		errors.Is(err, ErrTranscriptRequired),
		errors.Is(err, ErrRubricRequired),
		errors.Is(err, ErrInvalidSourceType),
		errors.Is(err, ErrInvalidContextType),
		errors.Is(err, ErrContextRequired):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrDisabled):
		return storage.MapHTTPStatus(err)
	case errors.Is(err, jobs.ErrQueueFull), errors.Is(err, jobs.ErrQueueClosed):
		return jobs.MapHTTPStatus(err)
	default:
		return http.StatusInternalServerError
	}
}
