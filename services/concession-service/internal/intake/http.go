package intake

import (
	"errors"
	"log/slog"
	"net/http"

	"railway/common/httputil"
	"railway/services/concession-service/internal/student"
	"railway/services/concession-service/internal/validation"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	service Service
	logger  *slog.Logger
}

func NewHandler(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Post("/concessions", h.Submit)
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var form Form
	if err := httputil.DecodeJSON(r, &form); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	pair, err := h.service.Submit(r.Context(), form)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusCreated, pair)
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		httputil.RespondWithFieldErrors(w, "Invalid concession form", verr.Fields)
	case errors.Is(err, student.ErrStudentNotFound):
		h.logger.InfoContext(r.Context(), "intake for unknown student")
		httputil.RespondWithError(w, http.StatusNotFound, "Student not found")
	default:
		h.logger.ErrorContext(r.Context(), "concession intake failed", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to save concession request")
	}
}
