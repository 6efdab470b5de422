package export_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"railway/services/concession-service/internal/concession"
	"railway/services/concession-service/internal/concession/concessiontest"
	"railway/services/concession-service/internal/export"
	"railway/services/concession-service/internal/metrics"
	"railway/services/concession-service/internal/passes"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedServiced(repo *concessiontest.Memory, id, certNo string, issued time.Time) {
	repo.PutDetail(concession.Detail{
		ID:             id,
		FirstName:      "Student",
		LastName:       id,
		Status:         concession.StatusServiced,
		LastPassIssued: &issued,
	})
	repo.PutRequest(concession.Request{ID: id, UID: id, PassNum: certNo, Status: concession.StatusServiced})
}

func setupService() (*concessiontest.Memory, *export.Service) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	repo := concessiontest.NewMemory()
	return repo, export.NewService(repo, passes.NewService(repo, passes.DefaultWindow, logger))
}

func TestBatches_GroupedByDateNewestFirst(t *testing.T) {
	repo, svc := setupService()
	seedServiced(repo, "a", "CERT-1", time.Date(2024, time.September, 8, 10, 0, 0, 0, time.UTC))
	seedServiced(repo, "b", "CERT-2", time.Date(2024, time.September, 9, 9, 0, 0, 0, time.UTC))
	seedServiced(repo, "c", "CERT-3", time.Date(2024, time.September, 9, 17, 0, 0, 0, time.UTC))
	// serviced long ago still exports; pending never does
	seedServiced(repo, "d", "CERT-4", time.Date(2023, time.January, 2, 9, 0, 0, 0, time.UTC))
	repo.PutDetail(concession.Detail{ID: "e", Status: concession.StatusPending})

	batches, err := svc.Batches(context.Background())
	require.NoError(t, err)

	require.Len(t, batches, 3)
	assert.Equal(t, "2024-09-09", batches[0].Date)
	assert.Equal(t, 0, batches[0].Index)
	assert.Equal(t, 2, batches[0].Count)
	assert.Equal(t, "CERT-2", batches[0].Passes[0].CertNo)
	assert.Equal(t, "2024-09-08", batches[1].Date)
	assert.Equal(t, "2023-01-02", batches[2].Date)
	assert.Equal(t, 2, batches[2].Index)
}

func TestBatches_NoWrites(t *testing.T) {
	repo, svc := setupService()
	seedServiced(repo, "a", "CERT-1", time.Date(2024, time.September, 8, 10, 0, 0, 0, time.UTC))

	_, err := svc.Batches(context.Background())
	require.NoError(t, err)
	assert.Zero(t, repo.Writes())

	d, _ := repo.Detail("a")
	assert.Equal(t, concession.StatusServiced, d.Status)
}

func TestHandler_Batches(t *testing.T) {
	repo, svc := setupService()
	seedServiced(repo, "a", "CERT-1", time.Date(2024, time.September, 8, 10, 0, 0, 0, time.UTC))
	seedServiced(repo, "b", "CERT-2", time.Date(2024, time.September, 8, 11, 0, 0, 0, time.UTC))

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	router := chi.NewRouter()
	export.NewHandler(svc, metrics.NewMock(), logger).RegisterRoutes(router)

	t.Run("List", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/exports/batches", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var batches []export.Batch
		require.NoError(t, json.NewDecoder(w.Body).Decode(&batches))
		require.Len(t, batches, 1)
		assert.Equal(t, "2024-09-08", batches[0].Date)
		assert.Equal(t, 2, batches[0].Count)
	})

	t.Run("Download", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/exports/batches/2024-09-08", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Content-Disposition"), "concessions-2024-09-08.csv")

		lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
		require.Len(t, lines, 3)
		assert.True(t, strings.HasPrefix(lines[1], "CERT-1,Student,,a,"))
		assert.True(t, strings.HasSuffix(lines[2], ",2024-09-08"))
	})

	t.Run("UnknownDate", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/exports/batches/1999-01-01", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
