package concession

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"railway/common/metrics"

	"github.com/uptrace/bun"
)

const (
	detailsTable  = "concession_details"
	requestsTable = "concession_requests"
)

type Repository interface {
	// SavePair creates or overwrites both records in one transaction.
	SavePair(ctx context.Context, detail *Detail, request *Request) error
	FindDetails(ctx context.Context, firstName string, phoneNum int64) ([]Detail, error)
	FindRequestsByUID(ctx context.Context, uid string) ([]Request, error)
	// MarkServiced stamps both records serviced in one transaction.
	MarkServiced(ctx context.Context, detailID, requestID, passNum string, at time.Time) error
	GetDetail(ctx context.Context, id string) (*Detail, error)
	GetRequest(ctx context.Context, id string) (*Request, error)
	ListByStatus(ctx context.Context, status Status) ([]Detail, error)
	ListIssuedSince(ctx context.Context, statuses []Status, since time.Time) ([]Detail, error)
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

func (r *repository) record(ctx context.Context, op, table string, start time.Time, err error) {
	if r.metrics == nil {
		return
	}
	r.metrics.Database.RecordQuery(ctx, op, table, time.Since(start), err)
}

func (r *repository) SavePair(ctx context.Context, detail *Detail, request *Request) error {
	if detail.ID == "" || detail.ID != request.ID {
		return fmt.Errorf("paired records must share a non-empty id (detail %q, request %q)", detail.ID, request.ID)
	}

	start := time.Now()
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(detail).On("CONFLICT (id) DO UPDATE").Exec(ctx); err != nil {
			return fmt.Errorf("upsert %s: %w", detailsTable, err)
		}
		if _, err := tx.NewInsert().Model(request).On("CONFLICT (id) DO UPDATE").Exec(ctx); err != nil {
			return fmt.Errorf("upsert %s: %w", requestsTable, err)
		}
		return nil
	})
	r.record(ctx, "upsert_pair", detailsTable, start, err)
	return err
}

func (r *repository) FindDetails(ctx context.Context, firstName string, phoneNum int64) ([]Detail, error) {
	start := time.Now()
	var details []Detail
	err := r.db.NewSelect().
		Model(&details).
		Where("first_name = ?", firstName).
		Where("phone_num = ?", phoneNum).
		Scan(ctx)
	r.record(ctx, "select", detailsTable, start, err)
	return details, err
}

func (r *repository) FindRequestsByUID(ctx context.Context, uid string) ([]Request, error) {
	start := time.Now()
	var requests []Request
	err := r.db.NewSelect().
		Model(&requests).
		Where("uid = ?", uid).
		Scan(ctx)
	r.record(ctx, "select", requestsTable, start, err)
	return requests, err
}

func (r *repository) MarkServiced(ctx context.Context, detailID, requestID, passNum string, at time.Time) error {
	start := time.Now()
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model(&Detail{ID: detailID}).
			Set("last_pass_issued = ?", at).
			Set("status = ?", StatusServiced).
			Set("status_message = ?", ServicedMessage).
			WherePK().
			Exec(ctx)
		if err := affectedOne(res, err, ErrDetailNotFound); err != nil {
			return err
		}

		res, err = tx.NewUpdate().
			Model(&Request{ID: requestID}).
			Set("status = ?", StatusServiced).
			Set("pass_num = ?", passNum).
			Set("status_message = ?", ServicedMessage).
			WherePK().
			Exec(ctx)
		return affectedOne(res, err, ErrRequestNotFound)
	})
	r.record(ctx, "update_pair", detailsTable, start, err)
	return err
}

// affectedOne turns a zero-row update into notFound so the transaction rolls back.
func affectedOne(res sql.Result, err error, notFound error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func (r *repository) GetDetail(ctx context.Context, id string) (*Detail, error) {
	start := time.Now()
	detail := new(Detail)
	err := r.db.NewSelect().Model(detail).Where("id = ?", id).Scan(ctx)
	r.record(ctx, "select", detailsTable, start, err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDetailNotFound
		}
		return nil, err
	}
	return detail, nil
}

func (r *repository) GetRequest(ctx context.Context, id string) (*Request, error) {
	start := time.Now()
	request := new(Request)
	err := r.db.NewSelect().Model(request).Where("id = ?", id).Scan(ctx)
	r.record(ctx, "select", requestsTable, start, err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	return request, nil
}

func (r *repository) ListByStatus(ctx context.Context, status Status) ([]Detail, error) {
	start := time.Now()
	var details []Detail
	err := r.db.NewSelect().
		Model(&details).
		Where("status = ?", status).
		Order("first_name ASC", "last_name ASC").
		Scan(ctx)
	r.record(ctx, "select", detailsTable, start, err)
	return details, err
}

func (r *repository) ListIssuedSince(ctx context.Context, statuses []Status, since time.Time) ([]Detail, error) {
	start := time.Now()
	var details []Detail
	err := r.db.NewSelect().
		Model(&details).
		Where("status IN (?)", bun.In(statuses)).
		Where("last_pass_issued >= ?", since).
		Order("last_pass_issued DESC").
		Scan(ctx)
	r.record(ctx, "select", detailsTable, start, err)
	return details, err
}
