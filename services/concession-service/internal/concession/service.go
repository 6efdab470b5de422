package concession

import (
	"context"
	"errors"
	"fmt"
)

var ErrInvalidStatus = errors.New("invalid status")

// Pair is a detail together with its request at the same id.
type Pair struct {
	Detail  *Detail  `json:"detail"`
	Request *Request `json:"request"`
}

type Service interface {
	ListEnquiries(ctx context.Context, status Status) ([]Detail, error)
	GetPair(ctx context.Context, id string) (*Pair, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) ListEnquiries(ctx context.Context, status Status) ([]Detail, error) {
	if status == "" {
		status = StatusPending
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	details, err := s.repo.ListByStatus(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("list enquiries: %w", err)
	}
	if details == nil {
		details = []Detail{}
	}
	return details, nil
}

func (s *service) GetPair(ctx context.Context, id string) (*Pair, error) {
	detail, err := s.repo.GetDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	request, err := s.repo.GetRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Pair{Detail: detail, Request: request}, nil
}
