package student

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrStudentNotFound = errors.New("student not found")
	ErrInvalidInput    = errors.New("invalid input")
)

type Service interface {
	CreateStudent(ctx context.Context, student *Student) (*Student, error)
	GetByEmail(ctx context.Context, email string) (*Student, error)
	ListEmails(ctx context.Context) ([]string, error)
	Autofill(ctx context.Context, email string) (*Autofill, error)
}

type service struct {
	repo  Repository
	cache *Cache
}

// NewService builds the profile service. cache may be nil.
func NewService(repo Repository, cache *Cache) Service {
	return &service{
		repo:  repo,
		cache: cache,
	}
}

func (s *service) CreateStudent(ctx context.Context, student *Student) (*Student, error) {
	student.Email = normalizeEmail(student.Email)
	if student.Email == "" || strings.TrimSpace(student.Name) == "" {
		return nil, ErrInvalidInput
	}
	if student.ID == "" {
		student.ID = uuid.NewString()
	}

	created, err := s.repo.Create(ctx, student)
	if err != nil {
		return nil, fmt.Errorf("create student: %w", err)
	}
	s.cache.Set(created.Email, created)
	return created, nil
}

func (s *service) GetByEmail(ctx context.Context, email string) (*Student, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, ErrInvalidInput
	}
	if cached, ok := s.cache.Get(email); ok {
		return cached, nil
	}

	student, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	s.cache.Set(email, student)
	return student, nil
}

func (s *service) ListEmails(ctx context.Context) ([]string, error) {
	emails, err := s.repo.ListEmails(ctx)
	if err != nil {
		return nil, fmt.Errorf("list emails: %w", err)
	}
	if emails == nil {
		emails = []string{}
	}
	return emails, nil
}

func (s *service) Autofill(ctx context.Context, email string) (*Autofill, error) {
	student, err := s.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	first, middle, last := SplitName(student.Name)
	return &Autofill{
		ID:         student.ID,
		FirstName:  first,
		MiddleName: middle,
		LastName:   last,
		Branch:     student.Branch,
	}, nil
}

// SplitName returns the first, second and last space-separated parts of a
// full name. Single-word names fill only the first part.
func SplitName(name string) (first, middle, last string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", "", ""
	case 1:
		return parts[0], "", ""
	case 2:
		return parts[0], "", parts[1]
	}
	return parts[0], parts[1], parts[len(parts)-1]
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
