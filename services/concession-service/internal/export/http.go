package export

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"railway/common/httputil"
	"railway/services/concession-service/internal/metrics"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	service *Service
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewHandler(service *Service, m *metrics.Metrics, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		metrics: m,
		logger:  logger,
	}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/exports/batches", h.ListBatches)
	router.Get("/exports/batches/{date}", h.DownloadBatch)
}

func (h *Handler) ListBatches(w http.ResponseWriter, r *http.Request) {
	batches, err := h.service.Batches(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list batches", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to list batches")
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, batches)
}

func (h *Handler) DownloadBatch(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")

	batch, err := h.service.Batch(r.Context(), date)
	if err != nil {
		if errors.Is(err, ErrBatchNotFound) {
			httputil.RespondWithError(w, http.StatusNotFound, "Batch not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "failed to load batch", "date", date, "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to load batch")
		return
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, DefaultColumns, Records(batch.Passes)); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to write csv", "date", date, "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to export batch")
		return
	}

	h.metrics.RecordExport(r.Context())
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "concessions-"+date+".csv"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
