// Package approval marks a pending concession request serviced.
package approval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"railway/services/concession-service/internal/changefeed"
	"railway/services/concession-service/internal/concession"
	"railway/services/concession-service/internal/metrics"
	"railway/services/concession-service/internal/validation"

	"github.com/go-playground/validator/v10"
)

var ErrAmbiguousDetails = errors.New("more than one concession matches name and phone number")

// Input identifies the applicant and carries the certificate number to record.
type Input struct {
	FirstName string `json:"firstName" validate:"required"`
	PhoneNum  string `json:"phoneNum" validate:"required,number,len=10"`
	CertNo    string `json:"certNo" validate:"required"`
}

type Result struct {
	ID         string            `json:"id"`
	PassNum    string            `json:"passNum"`
	Status     concession.Status `json:"status"`
	ServicedAt time.Time         `json:"servicedAt"`
}

type Service interface {
	Approve(ctx context.Context, in Input) (*Result, error)
}

type service struct {
	repo     concession.Repository
	feed     changefeed.Feed
	events   concession.EventPublisher
	metrics  *metrics.Metrics
	logger   *slog.Logger
	validate *validator.Validate
	now      func() time.Time
}

type Option func(*service)

func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

func WithEvents(events concession.EventPublisher) Option {
	return func(s *service) { s.events = events }
}

func NewService(repo concession.Repository, feed changefeed.Feed, m *metrics.Metrics, logger *slog.Logger, opts ...Option) Service {
	s := &service{
		repo:     repo,
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

func (s *service) Approve(ctx context.Context, in Input) (*Result, error) {
	result, err := s.approve(ctx, in)
	if err != nil {
		s.metrics.RecordApprovalFailure(ctx, failureReason(err))
		return nil, err
	}
	s.metrics.RecordApproval(ctx)
	return result, nil
}

func (s *service) approve(ctx context.Context, in Input) (*Result, error) {
	if err := validation.Struct(s.validate, in); err != nil {
		return nil, err
	}
	firstName := strings.TrimSpace(in.FirstName)
	certNo := strings.TrimSpace(in.CertNo)
	phoneNum, err := strconv.ParseInt(in.PhoneNum, 10, 64)
	if err != nil {
		return nil, validation.FieldError("phoneNum", "must contain digits only")
	}

	details, err := s.repo.FindDetails(ctx, firstName, phoneNum)
	if err != nil {
		return nil, fmt.Errorf("find details: %w", err)
	}
	switch len(details) {
	case 0:
		return nil, concession.ErrDetailNotFound
	case 1:
	default:
		return nil, fmt.Errorf("%w: %d records", ErrAmbiguousDetails, len(details))
	}
	detail := details[0]

	requests, err := s.repo.FindRequestsByUID(ctx, detail.ID)
	if err != nil {
		return nil, fmt.Errorf("find requests: %w", err)
	}
	if len(requests) == 0 {
		return nil, concession.ErrRequestNotFound
	}
	request := requests[0]
	for _, r := range requests {
		if r.ID == detail.ID {
			request = r
			break
		}
	}

	now := s.now()
	if err := s.repo.MarkServiced(ctx, detail.ID, request.ID, certNo, now); err != nil {
		if errors.Is(err, concession.ErrDetailNotFound) || errors.Is(err, concession.ErrRequestNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("mark serviced: %w", err)
	}

	s.logger.InfoContext(ctx, "concession serviced", "id", detail.ID, "passNum", certNo)
	s.announce(ctx, detail.ID, certNo, now)

	return &Result{
		ID:         detail.ID,
		PassNum:    certNo,
		Status:     concession.StatusServiced,
		ServicedAt: now,
	}, nil
}

func (s *service) announce(ctx context.Context, id, passNum string, now time.Time) {
	if s.feed != nil {
		for _, change := range changefeed.PairChanges(id, changefeed.OpServiced, now) {
			if err := s.feed.Publish(ctx, change); err != nil {
				s.logger.WarnContext(ctx, "failed to publish change", "id", id, "error", err)
			}
		}
	}
	if s.events != nil {
		event := concession.Event{
			Type:    concession.EventServiced,
			ID:      id,
			Status:  concession.StatusServiced,
			PassNum: passNum,
			At:      now,
		}
		if err := s.events.PublishEvent(ctx, event); err != nil {
			s.logger.WarnContext(ctx, "failed to publish lifecycle event", "id", id, "error", err)
		}
	}
}

func failureReason(err error) string {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		return "validation"
	case errors.Is(err, concession.ErrDetailNotFound):
		return "details_not_found"
	case errors.Is(err, concession.ErrRequestNotFound):
		return "request_not_found"
	case errors.Is(err, ErrAmbiguousDetails):
		return "ambiguous"
	}
	return "store"
}
