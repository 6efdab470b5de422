// Package passes serves the recently issued passes, once or as a live view.
package passes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"railway/services/concession-service/internal/concession"
)

// DefaultWindow is how far back a pass counts as recent.
const DefaultWindow = 7 * 24 * time.Hour

var issuedStatuses = []concession.Status{concession.StatusServiced, concession.StatusDownloaded}

// Pass is an issued concession detail joined with its request.
type Pass struct {
	concession.Detail
	CertNo string    `json:"certNo"`
	UID    string    `json:"uid"`
	DOI    time.Time `json:"doi"`
}

type Service struct {
	repo   concession.Repository
	window time.Duration
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo concession.Repository, window time.Duration, logger *slog.Logger) *Service {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Service{
		repo:   repo,
		window: window,
		logger: logger,
		now:    time.Now,
	}
}

// SetClock replaces the time source used for the recency window.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Snapshot returns passes issued within the window, newest first.
func (s *Service) Snapshot(ctx context.Context) ([]Pass, error) {
	since := s.now().Add(-s.window)
	details, err := s.repo.ListIssuedSince(ctx, issuedStatuses, since)
	if err != nil {
		return nil, fmt.Errorf("list issued passes: %w", err)
	}
	return s.Enrich(ctx, details)
}

// Enrich joins each detail with the request at the same id. Details without
// a request are dropped.
func (s *Service) Enrich(ctx context.Context, details []concession.Detail) ([]Pass, error) {
	out := make([]Pass, 0, len(details))
	for _, d := range details {
		request, err := s.repo.GetRequest(ctx, d.ID)
		if err != nil {
			if errors.Is(err, concession.ErrRequestNotFound) {
				s.logger.DebugContext(ctx, "issued detail without request", "id", d.ID)
				continue
			}
			return nil, fmt.Errorf("get request %s: %w", d.ID, err)
		}

		p := Pass{Detail: d, CertNo: request.PassNum, UID: request.UID}
		if d.LastPassIssued != nil {
			p.DOI = *d.LastPassIssued
		}
		out = append(out, p)
	}
	return out, nil
}

// Filter keeps passes whose certificate number contains search, ignoring case.
// An empty search keeps everything.
func Filter(passes []Pass, search string) []Pass {
	search = strings.ToLower(strings.TrimSpace(search))
	out := make([]Pass, 0, len(passes))
	for _, p := range passes {
		if search == "" || strings.Contains(strings.ToLower(p.CertNo), search) {
			out = append(out, p)
		}
	}
	return out
}
