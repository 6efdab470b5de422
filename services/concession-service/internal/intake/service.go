package intake

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"railway/services/concession-service/internal/age"
	"railway/services/concession-service/internal/changefeed"
	"railway/services/concession-service/internal/concession"
	"railway/services/concession-service/internal/gradyear"
	"railway/services/concession-service/internal/metrics"
	"railway/services/concession-service/internal/student"
	"railway/services/concession-service/internal/validation"

	"github.com/go-playground/validator/v10"
)

const dateLayout = "2006-01-02"

// Profiles resolves the student profile owning a submission.
type Profiles interface {
	GetByEmail(ctx context.Context, email string) (*student.Student, error)
}

type Service interface {
	Submit(ctx context.Context, form Form) (*concession.Pair, error)
}

type service struct {
	repo     concession.Repository
	profiles Profiles
	feed     changefeed.Feed
	events   concession.EventPublisher
	metrics  *metrics.Metrics
	logger   *slog.Logger
	validate *validator.Validate
	now      func() time.Time
}

type Option func(*service)

// WithClock overrides the submission time source.
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

// WithEvents publishes a lifecycle event after every accepted form.
func WithEvents(events concession.EventPublisher) Option {
	return func(s *service) { s.events = events }
}

func NewService(repo concession.Repository, profiles Profiles, feed changefeed.Feed, m *metrics.Metrics, logger *slog.Logger, opts ...Option) Service {
	s := &service{
		repo:     repo,
		profiles: profiles,
		feed:     feed,
		metrics:  m,
		logger:   logger,
		validate: validation.New(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Submit(ctx context.Context, form Form) (*concession.Pair, error) {
	now := s.now()

	if err := validation.Struct(s.validate, form); err != nil {
		return nil, err
	}

	dob, err := time.Parse(dateLayout, form.DOB)
	if err != nil {
		return nil, validation.FieldError("dob", "must be a date in YYYY-MM-DD format")
	}
	if dob.After(now) {
		return nil, validation.FieldError("dob", "must not be in the future")
	}
	phoneNum, err := strconv.ParseInt(form.PhoneNum, 10, 64)
	if err != nil {
		return nil, validation.FieldError("phoneNum", "must contain digits only")
	}
	gradYear, err := gradyear.Resolve(form.GradYear, now)
	if err != nil {
		return nil, validation.FieldError("gradYear", "must be one of "+strings.Join(gradyear.Labels(), " "))
	}

	profile, err := s.profiles.GetByEmail(ctx, form.Email)
	if err != nil {
		return nil, err
	}

	years, months := age.Calculate(dob, now)
	detail := &concession.Detail{
		ID:         profile.ID,
		FirstName:  strings.TrimSpace(form.FirstName),
		MiddleName: strings.TrimSpace(form.MiddleName),
		LastName:   strings.TrimSpace(form.LastName),
		Gender:     form.Gender,
		DOB:        dob,
		AgeYears:   years,
		AgeMonths:  months,
		Branch:     form.Branch,
		GradYear:   gradYear,
		PhoneNum:   phoneNum,
		Address:    form.Address,
		Class:      form.Class,
		Duration:   form.Duration,
		TravelLane: form.TravelLane,
		From:       form.From,
		To:         form.To,
	}
	request := &concession.Request{
		ID:               profile.ID,
		UID:              profile.ID,
		NotificationTime: now,
		Time:             now,
	}

	certNo := strings.TrimSpace(form.CertNo)
	if certNo != "" {
		issued := now
		detail.Status = concession.StatusServiced
		detail.StatusMessage = concession.ServicedMessage
		detail.LastPassIssued = &issued
		request.Status = concession.StatusServiced
		request.StatusMessage = concession.ServicedMessage
		request.PassNum = certNo
	} else {
		detail.Status = concession.StatusPending
		detail.StatusMessage = concession.PendingMessage
		request.Status = concession.StatusPending
		request.StatusMessage = concession.PendingMessage
	}

	if err := s.repo.SavePair(ctx, detail, request); err != nil {
		return nil, fmt.Errorf("save concession: %w", err)
	}

	s.logger.InfoContext(ctx, "concession saved", "id", detail.ID, "status", detail.Status)
	s.metrics.RecordIntake(ctx, string(detail.Status))
	s.announce(ctx, detail, request, now)

	return &concession.Pair{Detail: detail, Request: request}, nil
}

// announce reports the committed write. Failures here never undo the intake.
func (s *service) announce(ctx context.Context, detail *concession.Detail, request *concession.Request, now time.Time) {
	if s.feed != nil {
		for _, change := range changefeed.PairChanges(detail.ID, changefeed.OpUpsert, now) {
			if err := s.feed.Publish(ctx, change); err != nil {
				s.logger.WarnContext(ctx, "failed to publish change", "id", detail.ID, "error", err)
			}
		}
	}

	if s.events != nil {
		event := concession.Event{
			Type:    concession.EventCreated,
			ID:      detail.ID,
			Status:  detail.Status,
			PassNum: request.PassNum,
			At:      now,
		}
		if err := s.events.PublishEvent(ctx, event); err != nil {
			s.logger.WarnContext(ctx, "failed to publish lifecycle event", "id", detail.ID, "error", err)
		}
	}
}
