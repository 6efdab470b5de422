package export

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"railway/services/concession-service/internal/concession"
	"railway/services/concession-service/internal/passes"
)

var ErrBatchNotFound = errors.New("batch not found")

// Batch is the set of passes issued on one calendar day.
type Batch struct {
	Index  int           `json:"index"`
	Date   string        `json:"date"`
	Count  int           `json:"count"`
	Passes []passes.Pass `json:"-"`
}

type Service struct {
	repo   concession.Repository
	passes *passes.Service
}

func NewService(repo concession.Repository, passes *passes.Service) *Service {
	return &Service{
		repo:   repo,
		passes: passes,
	}
}

// Batches groups serviced passes by issue date, newest first.
func (s *Service) Batches(ctx context.Context) ([]Batch, error) {
	details, err := s.repo.ListByStatus(ctx, concession.StatusServiced)
	if err != nil {
		return nil, fmt.Errorf("list serviced: %w", err)
	}
	issued, err := s.passes.Enrich(ctx, details)
	if err != nil {
		return nil, err
	}
	return GroupByDate(issued), nil
}

func (s *Service) Batch(ctx context.Context, date string) (*Batch, error) {
	batches, err := s.Batches(ctx)
	if err != nil {
		return nil, err
	}
	for i := range batches {
		if batches[i].Date == date {
			return &batches[i], nil
		}
	}
	return nil, ErrBatchNotFound
}

// GroupByDate buckets passes by the UTC date of issue. Passes never issued are skipped.
func GroupByDate(issued []passes.Pass) []Batch {
	byDate := make(map[string][]passes.Pass)
	for _, p := range issued {
		if p.LastPassIssued == nil {
			continue
		}
		date := p.LastPassIssued.UTC().Format(dateLayout)
		byDate[date] = append(byDate[date], p)
	}

	batches := make([]Batch, 0, len(byDate))
	for date, ps := range byDate {
		sort.SliceStable(ps, func(i, j int) bool {
			return ps[i].LastPassIssued.Before(*ps[j].LastPassIssued)
		})
		batches = append(batches, Batch{Date: date, Count: len(ps), Passes: ps})
	}
	sort.Slice(batches, func(i, j int) bool { return batches[i].Date > batches[j].Date })
	for i := range batches {
		batches[i].Index = i
	}
	return batches
}

// Records flattens passes into rows for WriteCSV.
func Records(ps []passes.Pass) []Record {
	out := make([]Record, len(ps))
	for i, p := range ps {
		out[i] = Record{
			"id":         p.ID,
			"uid":        p.UID,
			"certNo":     p.CertNo,
			"firstName":  p.FirstName,
			"middleName": p.MiddleName,
			"lastName":   p.LastName,
			"gender":     p.Gender,
			"dob":        p.DOB,
			"ageYears":   p.AgeYears,
			"ageMonths":  p.AgeMonths,
			"branch":     p.Branch,
			"gradyear":   p.GradYear,
			"phoneNum":   p.PhoneNum,
			"address":    p.Address,
			"class":      p.Class,
			"duration":   p.Duration,
			"travelLane": p.TravelLane,
			"from":       p.From,
			"to":         p.To,
			"status":     string(p.Status),
			"doi":        p.DOI,
		}
	}
	return out
}
