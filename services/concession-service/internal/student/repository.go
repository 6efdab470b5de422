package student

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"railway/common/metrics"

	"github.com/uptrace/bun"
)

type Repository interface {
	Create(ctx context.Context, student *Student) (*Student, error)
	GetByEmail(ctx context.Context, email string) (*Student, error)
	ListEmails(ctx context.Context) ([]string, error)
}

type repository struct {
	db      *bun.DB
	metrics *metrics.Metrics
}

func NewRepository(db *bun.DB, m *metrics.Metrics) Repository {
	return &repository{
		db:      db,
		metrics: m,
	}
}

func (r *repository) Create(ctx context.Context, student *Student) (*Student, error) {
	start := time.Now()
	_, err := r.db.NewInsert().Model(student).Returning("*").Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "insert", "students", time.Since(start), err)

	if err != nil {
		return nil, err
	}
	return student, nil
}

func (r *repository) GetByEmail(ctx context.Context, email string) (*Student, error) {
	start := time.Now()
	student := new(Student)
	err := r.db.NewSelect().
		Model(student).
		Where("email = ?", email).
		Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "students", time.Since(start), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	return student, nil
}

func (r *repository) ListEmails(ctx context.Context) ([]string, error) {
	start := time.Now()
	var emails []string
	err := r.db.NewSelect().
		Model((*Student)(nil)).
		Column("email").
		Order("email ASC").
		Scan(ctx, &emails)

	r.metrics.Database.RecordQuery(ctx, "select", "students", time.Since(start), err)

	return emails, err
}
