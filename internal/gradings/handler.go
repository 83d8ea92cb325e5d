package gradings

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/cadence/pkg/handlers"
	"github.com/JaimeStill/cadence/pkg/pagination"
	"github.com/JaimeStill/cadence/pkg/routes"
)

// Handler provides HTTP endpoints for gradings.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
}

// NewHandler creates a Handler with the given system, logger, and pagination config.
func NewHandler(sys System, logger *slog.Logger, pagination pagination.Config) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "gradings"),
		pagination: pagination,
	}
}

// Routes returns the route group definition for grading endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/gradings",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "POST", Pattern: "", Handler: h.Submit},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "DELETE", Pattern: "/{id}", Handler: h.Delete},
			{Method: "GET", Pattern: "/{id}/report", Handler: h.Report},
		},
	}
}

// TranscriptRoutes returns the gradings nested under a transcript.
func (h *Handler) TranscriptRoutes() routes.Group {
	return routes.Group{
		Prefix: "/transcripts",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/{id}/gradings", Handler: h.ListByTranscript},
		},
	}
}

// List returns a paginated list of gradings.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	filters := FiltersFromQuery(r.URL.Query())

	result, err := h.sys.List(r.Context(), page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Submit creates or replaces a grading and queues it for execution. The
// response is the grading in its processing state.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	cmd, err := handlers.DecodeJSON[Command](w, r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	grading, err := h.sys.Submit(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusAccepted, grading)
}

// Find returns a single grading by its UUID path parameter.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, err := handlers.PathUUID(r, "id")
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidID)
		return
	}

	grading, err := h.sys.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, grading)
}

// ListByTranscript returns every grading of a transcript, newest first.
func (h *Handler) ListByTranscript(w http.ResponseWriter, r *http.Request) {
	id, err := handlers.PathUUID(r, "id")
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidID)
		return
	}

	items, err := h.sys.ListByTranscript(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, items)
}

// Delete removes a grading and its archived report.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := handlers.PathUUID(r, "id")
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidID)
		return
	}

	if err := h.sys.Delete(r.Context(), id); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Report streams the archived JSON report of a completed grading.
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	id, err := handlers.PathUUID(r, "id")
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidID)
		return
	}

	rc, err := h.sys.Report(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="grading-`+id.String()+`.json"`)
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Error("report stream failed", "id", id, "error", err)
	}
}
