package concession

import (
	"errors"
	"log/slog"
	"net/http"

	"railway/common/httputil"

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
	router.Get("/concessions/enquiries", h.ListEnquiries)
	router.Get("/concessions/{id}", h.GetPair)
}

func (h *Handler) ListEnquiries(w http.ResponseWriter, r *http.Request) {
	status := Status(r.URL.Query().Get("status"))

	enquiries, err := h.service.ListEnquiries(r.Context(), status)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, enquiries)
}

func (h *Handler) GetPair(w http.ResponseWriter, r *http.Request) {
	pair, err := h.service.GetPair(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, pair)
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvalidStatus):
		httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrDetailNotFound), errors.Is(err, ErrRequestNotFound):
		h.logger.InfoContext(r.Context(), "concession not found", "error", err)
		httputil.RespondWithError(w, http.StatusNotFound, err.Error())
	default:
		h.logger.ErrorContext(r.Context(), "concession lookup failed", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}
