package intake_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"railway/services/concession-service/internal/changefeed"
	"railway/services/concession-service/internal/concession"
	"railway/services/concession-service/internal/concession/concessiontest"
	"railway/services/concession-service/internal/intake"
	"railway/services/concession-service/internal/metrics"
	"railway/services/concession-service/internal/student"
	"railway/services/concession-service/internal/validation"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var submittedAt = time.Date(2024, time.August, 12, 9, 30, 0, 0, time.UTC)

type profiles map[string]*student.Student

func (p profiles) GetByEmail(_ context.Context, email string) (*student.Student, error) {
	s, ok := p[email]
	if !ok {
		return nil, student.ErrStudentNotFound
	}
	return s, nil
}

type recordingEvents struct {
	mu     sync.Mutex
	events []concession.Event
	err    error
}

func (r *recordingEvents) PublishEvent(_ context.Context, e concession.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return r.err
}

type testEnv struct {
	repo    *concessiontest.Memory
	feed    *changefeed.Local
	events  *recordingEvents
	changes *[]changefeed.Change
	service intake.Service
}

func setupTest(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	repo := concessiontest.NewMemory()
	feed := changefeed.NewLocal()
	t.Cleanup(func() { _ = feed.Close() })

	var mu sync.Mutex
	changes := &[]changefeed.Change{}
	_, err := feed.Subscribe(func(c changefeed.Change) {
		mu.Lock()
		defer mu.Unlock()
		*changes = append(*changes, c)
	})
	require.NoError(t, err)

	events := &recordingEvents{}
	svc := intake.NewService(repo,
		profiles{"asha@college.edu": {ID: "stu-1", Name: "Asha Patil", Email: "asha@college.edu"}},
		feed, metrics.NewMock(), logger,
		intake.WithClock(func() time.Time { return submittedAt }),
		intake.WithEvents(events),
	)

	return &testEnv{repo: repo, feed: feed, events: events, changes: changes, service: svc}
}

func validForm() intake.Form {
	return intake.Form{
		Email:      "asha@college.edu",
		FirstName:  "Asha",
		LastName:   "Patil",
		Gender:     "Female",
		DOB:        "2004-03-15",
		PhoneNum:   "9876543210",
		Branch:     "Computer",
		GradYear:   "SE",
		Address:    "12 Station Road, Dadar",
		Class:      "Second",
		Duration:   "Monthly",
		TravelLane: "Western",
		From:       "Dadar",
		To:         "Bandra",
	}
}

func TestSubmit_PendingPair(t *testing.T) {
	env := setupTest(t)

	pair, err := env.service.Submit(context.Background(), validForm())
	require.NoError(t, err)

	assert.Equal(t, 1, env.repo.DetailCount())
	assert.Equal(t, 1, env.repo.RequestCount())

	detail, ok := env.repo.Detail("stu-1")
	require.True(t, ok)
	request, ok := env.repo.Request("stu-1")
	require.True(t, ok)

	assert.Equal(t, detail.ID, request.ID)
	assert.Equal(t, "stu-1", request.UID)
	assert.Equal(t, concession.StatusPending, detail.Status)
	assert.Equal(t, detail.Status, request.Status)
	assert.Equal(t, concession.PendingMessage, detail.StatusMessage)
	assert.Nil(t, detail.LastPassIssued)
	assert.Empty(t, request.PassNum)

	// August 2024: FE graduates 2028, so SE graduates 2027.
	assert.Equal(t, "2027", detail.GradYear)
	assert.Equal(t, 20, detail.AgeYears)
	assert.Equal(t, 4, detail.AgeMonths)
	assert.Equal(t, int64(9876543210), detail.PhoneNum)
	assert.Equal(t, submittedAt, request.Time)

	assert.Equal(t, concession.StatusPending, pair.Detail.Status)
	assert.Len(t, *env.changes, 2)
	require.Len(t, env.events.events, 1)
	assert.Equal(t, concession.EventCreated, env.events.events[0].Type)
}

func TestSubmit_WithCertificateIsServiced(t *testing.T) {
	env := setupTest(t)

	form := validForm()
	form.CertNo = " CERT-42 "
	_, err := env.service.Submit(context.Background(), form)
	require.NoError(t, err)

	detail, _ := env.repo.Detail("stu-1")
	request, _ := env.repo.Request("stu-1")

	assert.Equal(t, concession.StatusServiced, detail.Status)
	assert.Equal(t, concession.StatusServiced, request.Status)
	assert.Equal(t, concession.ServicedMessage, request.StatusMessage)
	assert.Equal(t, "CERT-42", request.PassNum)
	require.NotNil(t, detail.LastPassIssued)
	assert.Equal(t, submittedAt, *detail.LastPassIssued)
}

func TestSubmit_ResubmissionOverwrites(t *testing.T) {
	env := setupTest(t)

	form := validForm()
	form.CertNo = "CERT-1"
	_, err := env.service.Submit(context.Background(), form)
	require.NoError(t, err)

	form.CertNo = ""
	form.To = "Andheri"
	_, err = env.service.Submit(context.Background(), form)
	require.NoError(t, err)

	assert.Equal(t, 1, env.repo.DetailCount())
	detail, _ := env.repo.Detail("stu-1")
	request, _ := env.repo.Request("stu-1")
	assert.Equal(t, "Andheri", detail.To)
	assert.Equal(t, concession.StatusPending, detail.Status)
	assert.Equal(t, detail.Status, request.Status)
}

func TestSubmit_RejectedWithoutWrites(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*intake.Form)
		field  string
	}{
		{"MissingFirstName", func(f *intake.Form) { f.FirstName = "" }, "firstName"},
		{"BadEmail", func(f *intake.Form) { f.Email = "asha" }, "email"},
		{"BadDate", func(f *intake.Form) { f.DOB = "15-03-2004" }, "dob"},
		{"FutureDate", func(f *intake.Form) { f.DOB = "2030-01-01" }, "dob"},
		{"ShortPhone", func(f *intake.Form) { f.PhoneNum = "98765" }, "phoneNum"},
		{"AlphaPhone", func(f *intake.Form) { f.PhoneNum = "98765abcde" }, "phoneNum"},
		{"SignedPhone", func(f *intake.Form) { f.PhoneNum = "-987654321" }, "phoneNum"},
		{"PlusPhone", func(f *intake.Form) { f.PhoneNum = "+987654321" }, "phoneNum"},
		{"UnknownGradYear", func(f *intake.Form) { f.GradYear = "ME" }, "gradYear"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTest(t)
			form := validForm()
			tt.mutate(&form)

			_, err := env.service.Submit(context.Background(), form)

			var verr *validation.Error
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Contains(t, verr.Fields, tt.field)
			assert.Zero(t, env.repo.Writes())
			assert.Empty(t, *env.changes)
		})
	}
}

func TestSubmit_UnknownStudent(t *testing.T) {
	env := setupTest(t)
	form := validForm()
	form.Email = "ghost@college.edu"

	_, err := env.service.Submit(context.Background(), form)
	assert.ErrorIs(t, err, student.ErrStudentNotFound)
	assert.Zero(t, env.repo.Writes())
}

func TestSubmit_StoreFailure(t *testing.T) {
	env := setupTest(t)
	env.repo.FailSave = errors.New("connection reset")

	_, err := env.service.Submit(context.Background(), validForm())
	assert.ErrorIs(t, err, env.repo.FailSave)
	assert.Zero(t, env.repo.DetailCount())
	assert.Zero(t, env.repo.RequestCount())
	assert.Empty(t, *env.changes)
	assert.Empty(t, env.events.events)
}

func TestSubmit_EventFailureKeepsRecords(t *testing.T) {
	env := setupTest(t)
	env.events.err = errors.New("broker down")

	_, err := env.service.Submit(context.Background(), validForm())
	require.NoError(t, err)
	assert.Equal(t, 1, env.repo.DetailCount())
}

func TestHandler_Submit(t *testing.T) {
	env := setupTest(t)
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	router := chi.NewRouter()
	intake.NewHandler(env.service, logger).RegisterRoutes(router)

	post := func(body interface{}) *httptest.ResponseRecorder {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, "/concessions", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("Created", func(t *testing.T) {
		w := post(validForm())
		require.Equal(t, http.StatusCreated, w.Code)

		var pair concession.Pair
		require.NoError(t, json.NewDecoder(w.Body).Decode(&pair))
		assert.Equal(t, "stu-1", pair.Detail.ID)
		assert.Equal(t, "stu-1", pair.Request.UID)
	})

	t.Run("FieldErrors", func(t *testing.T) {
		form := validForm()
		form.PhoneNum = ""
		w := post(form)
		require.Equal(t, http.StatusBadRequest, w.Code)

		var body struct {
			Error  string            `json:"error"`
			Fields map[string]string `json:"fields"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "is required", body.Fields["phoneNum"])
	})

	t.Run("UnknownStudent", func(t *testing.T) {
		form := validForm()
		form.Email = "ghost@college.edu"
		assert.Equal(t, http.StatusNotFound, post(form).Code)
	})

	t.Run("MalformedBody", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/concessions", bytes.NewBufferString("{"))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
