package approval

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"railway/common/httputil"
	"railway/services/concession-service/internal/concession"
	"railway/services/concession-service/internal/validation"

	"github.com/go-chi/chi/v5"
)

// Enquiries refreshes the list shown next to the approval form.
type Enquiries interface {
	ListEnquiries(ctx context.Context, status concession.Status) ([]concession.Detail, error)
}

type Response struct {
	Result    *Result             `json:"result"`
	Enquiries []concession.Detail `json:"enquiries,omitempty"`
}

type Handler struct {
	service   Service
	enquiries Enquiries
	logger    *slog.Logger
}

func NewHandler(service Service, enquiries Enquiries, logger *slog.Logger) *Handler {
	return &Handler{
		service:   service,
		enquiries: enquiries,
		logger:    logger,
	}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Post("/concessions/approve", h.Approve)
}

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := httputil.DecodeJSON(r, &in); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.service.Approve(r.Context(), in)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	resp := Response{Result: result}
	enquiries, err := h.enquiries.ListEnquiries(r.Context(), concession.StatusPending)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to refresh enquiries", "error", err)
	} else {
		resp.Enquiries = enquiries
	}
	httputil.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		httputil.RespondWithFieldErrors(w, "Invalid approval", verr.Fields)
	case errors.Is(err, concession.ErrDetailNotFound), errors.Is(err, concession.ErrRequestNotFound):
		h.logger.InfoContext(r.Context(), "approval lookup missed", "error", err)
		httputil.RespondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrAmbiguousDetails):
		h.logger.WarnContext(r.Context(), "approval lookup ambiguous", "error", err)
		httputil.RespondWithError(w, http.StatusConflict, err.Error())
	default:
		h.logger.ErrorContext(r.Context(), "approval failed", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to approve concession request")
	}
}
