package passes

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"railway/common/httputil"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	service *Service
	watcher *Watcher
	logger  *slog.Logger
}

func NewHandler(service *Service, watcher *Watcher, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		watcher: watcher,
		logger:  logger,
	}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/passes", h.List)
	router.Get("/passes/stream", h.Stream)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("certNo")

	snapshot, err := h.service.Snapshot(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to load passes", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to load passes")
		return
	}

	filtered := Filter(snapshot, search)
	httputil.RespondWithJSON(w, http.StatusOK, View{
		Passes:   filtered,
		Count:    len(filtered),
		Search:   search,
		NotFound: len(filtered) == 0,
	})
}

// Stream sends the live view as server-sent events until the client goes away.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	rc := http.NewResponseController(w)
	// the server write timeout would cut the stream
	_ = rc.SetWriteDeadline(time.Time{})

	views := make(chan View, 8)
	sub, err := h.watcher.Watch(ctx, r.URL.Query().Get("certNo"), func(v View) {
		select {
		case views <- v:
		case <-ctx.Done():
		}
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to start pass stream", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to load passes")
		return
	}
	defer func() {
		// unblocks a delivery waiting on a full buffer
		cancel()
		sub.Close()
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		h.logger.WarnContext(ctx, "response does not support streaming", "error", err)
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.Done():
			return
		case v := <-views:
			if err := writeEvent(w, "snapshot", v); err != nil {
				return
			}
			if v.NotFound {
				if err := writeEvent(w, "notfound", map[string]string{"search": v.Search}); err != nil {
					return
				}
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}

func writeEvent(w http.ResponseWriter, event string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}
