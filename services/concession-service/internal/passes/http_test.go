package passes_test

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"railway/services/concession-service/internal/concession"
	"railway/services/concession-service/internal/passes"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(env *watchEnv) chi.Router {
	router := chi.NewRouter()
	passes.NewHandler(newPassService(env.repo), env.watcher, testLogger()).RegisterRoutes(router)
	return router
}

func TestHandler_List(t *testing.T) {
	env := setupWatch(t)
	seedIssued(env.repo, "a", "CERT-100", concession.StatusServiced, now.Add(-time.Hour))
	seedIssued(env.repo, "b", "CERT-200", concession.StatusServiced, now.Add(-2*time.Hour))
	router := setupRouter(env)

	t.Run("Filtered", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/passes?certNo=200", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var view passes.View
		require.NoError(t, json.NewDecoder(w.Body).Decode(&view))
		require.Equal(t, 1, view.Count)
		assert.Equal(t, "b", view.Passes[0].ID)
		assert.Equal(t, "b", view.Passes[0].UID)
		assert.False(t, view.NotFound)
	})

	t.Run("NoMatch", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/passes?certNo=missing", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		var view passes.View
		require.NoError(t, json.NewDecoder(w.Body).Decode(&view))
		assert.True(t, view.NotFound)
		assert.Empty(t, view.Passes)
	})

	t.Run("StoreFailure", func(t *testing.T) {
		env.repo.FailListing = assert.AnError
		defer func() { env.repo.FailListing = nil }()

		req := httptest.NewRequest(http.MethodGet, "/passes", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestHandler_Stream(t *testing.T) {
	env := setupWatch(t)
	seedIssued(env.repo, "a", "CERT-100", concession.StatusServiced, now.Add(-time.Hour))

	server := httptest.NewServer(setupRouter(env))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/passes/stream?certNo=nothing", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	var events []string
	for len(events) < 2 {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if name, ok := strings.CutPrefix(strings.TrimSpace(line), "event: "); ok {
			events = append(events, name)
		}
	}
	assert.Equal(t, []string{"snapshot", "notfound"}, events)
	assert.Equal(t, 1, env.feed.Subscribers())

	cancel()
	assert.Eventually(t, func() bool { return env.feed.Subscribers() == 0 }, 2*time.Second, 10*time.Millisecond)
}

// stalledWriter holds the first write until released, then fails every write.
type stalledWriter struct {
	header  http.Header
	release chan struct{}
}

func (w *stalledWriter) Header() http.Header { return w.header }

func (w *stalledWriter) WriteHeader(int) {}

func (w *stalledWriter) Flush() {}

func (w *stalledWriter) Write([]byte) (int, error) {
	<-w.release
	return 0, errors.New("connection reset")
}

func TestHandler_StreamWriteFailureWithFullBuffer(t *testing.T) {
	env := setupWatch(t)
	seedIssued(env.repo, "a", "CERT-100", concession.StatusServiced, now.Add(-time.Hour))
	handler := passes.NewHandler(newPassService(env.repo), env.watcher, testLogger())

	writer := &stalledWriter{header: make(http.Header), release: make(chan struct{})}
	req := httptest.NewRequest(http.MethodGet, "/passes/stream", nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		handler.Stream(writer, req)
	}()

	require.Eventually(t, func() bool { return env.feed.Subscribers() == 1 }, 2*time.Second, 5*time.Millisecond)

	// more refreshes than the stream buffers while the first write is stuck
	for i := 0; i < 12; i++ {
		before := env.repo.Queries()
		env.touch(t, "a")
		require.Eventually(t, func() bool { return env.repo.Queries() > before }, 2*time.Second, 5*time.Millisecond)
	}

	close(writer.release)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not return after a failed write")
	}
	assert.Equal(t, 0, env.feed.Subscribers())
}
