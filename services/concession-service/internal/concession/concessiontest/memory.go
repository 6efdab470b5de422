// Package concessiontest provides an in-memory concession.Repository for tests.
package concessiontest

import (
	"context"
	"sort"
	"sync"
	"time"

	"railway/services/concession-service/internal/concession"
)

// Memory keeps both collections in maps and counts writes.
type Memory struct {
	mu       sync.Mutex
	details  map[string]concession.Detail
	requests map[string]concession.Request

	writes      int
	queries     int
	pointReads  int
	FailSave    error
	FailMark    error
	FailListing error
}

var _ concession.Repository = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		details:  make(map[string]concession.Detail),
		requests: make(map[string]concession.Request),
	}
}

// PutDetail seeds a detail without counting it as a write.
func (m *Memory) PutDetail(d concession.Detail) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.details[d.ID] = d
}

// PutRequest seeds a request without counting it as a write.
func (m *Memory) PutRequest(r concession.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[r.ID] = r
}

func (m *Memory) DeleteRequest(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.requests, id)
}

func (m *Memory) Detail(id string) (concession.Detail, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.details[id]
	return d, ok
}

func (m *Memory) Request(id string) (concession.Request, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	return r, ok
}

func (m *Memory) DetailCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.details)
}

func (m *Memory) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Writes is the number of successful record writes.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// Queries is the number of list queries served.
func (m *Memory) Queries() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queries
}

func (m *Memory) PointReads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pointReads
}

func (m *Memory) SavePair(_ context.Context, detail *concession.Detail, request *concession.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSave != nil {
		return m.FailSave
	}
	m.details[detail.ID] = *detail
	m.requests[request.ID] = *request
	m.writes += 2
	return nil
}

func (m *Memory) FindDetails(_ context.Context, firstName string, phoneNum int64) ([]concession.Detail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries++
	var out []concession.Detail
	for _, d := range m.details {
		if d.FirstName == firstName && d.PhoneNum == phoneNum {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *Memory) FindRequestsByUID(_ context.Context, uid string) ([]concession.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries++
	var out []concession.Request
	for _, r := range m.requests {
		if r.UID == uid {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *Memory) MarkServiced(_ context.Context, detailID, requestID, passNum string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailMark != nil {
		return m.FailMark
	}
	d, ok := m.details[detailID]
	if !ok {
		return concession.ErrDetailNotFound
	}
	r, ok := m.requests[requestID]
	if !ok {
		return concession.ErrRequestNotFound
	}

	issued := at
	d.LastPassIssued = &issued
	d.Status = concession.StatusServiced
	d.StatusMessage = concession.ServicedMessage
	r.Status = concession.StatusServiced
	r.PassNum = passNum
	r.StatusMessage = concession.ServicedMessage

	m.details[detailID] = d
	m.requests[requestID] = r
	m.writes += 2
	return nil
}

func (m *Memory) GetDetail(_ context.Context, id string) (*concession.Detail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pointReads++
	d, ok := m.details[id]
	if !ok {
		return nil, concession.ErrDetailNotFound
	}
	return &d, nil
}

func (m *Memory) GetRequest(_ context.Context, id string) (*concession.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pointReads++
	r, ok := m.requests[id]
	if !ok {
		return nil, concession.ErrRequestNotFound
	}
	return &r, nil
}

func (m *Memory) ListByStatus(_ context.Context, status concession.Status) ([]concession.Detail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries++
	if m.FailListing != nil {
		return nil, m.FailListing
	}
	var out []concession.Detail
	for _, d := range m.details {
		if d.Status == status {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FirstName != out[j].FirstName {
			return out[i].FirstName < out[j].FirstName
		}
		return out[i].LastName < out[j].LastName
	})
	return out, nil
}

func (m *Memory) ListIssuedSince(_ context.Context, statuses []concession.Status, since time.Time) ([]concession.Detail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries++
	if m.FailListing != nil {
		return nil, m.FailListing
	}
	var out []concession.Detail
	for _, d := range m.details {
		if d.LastPassIssued == nil || d.LastPassIssued.Before(since) {
			continue
		}
		for _, s := range statuses {
			if d.Status == s {
				out = append(out, d)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastPassIssued.After(*out[j].LastPassIssued)
	})
	return out, nil
}
