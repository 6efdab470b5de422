package metrics

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type Metrics struct {
	intakes            metric.Int64Counter
	approvals          metric.Int64Counter
	approvalFailures   metric.Int64Counter
	snapshotsDelivered metric.Int64Counter
	notFoundFired      metric.Int64Counter
	watchersActive     metric.Int64UpDownCounter
	exports            metric.Int64Counter
}

func New(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.intakes, err = meter.Int64Counter(
		"concession_service.intakes",
		metric.WithDescription("Total number of concession forms accepted"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	m.approvals, err = meter.Int64Counter(
		"concession_service.approvals.completed",
		metric.WithDescription("Total number of requests marked serviced"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	m.approvalFailures, err = meter.Int64Counter(
		"concession_service.approvals.failed",
		metric.WithDescription("Total number of rejected approvals by reason"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	m.snapshotsDelivered, err = meter.Int64Counter(
		"concession_service.passes.snapshots",
		metric.WithDescription("Total number of live pass snapshots delivered"),
		metric.WithUnit("{snapshot}"),
	)
	if err != nil {
		return nil, err
	}

	m.notFoundFired, err = meter.Int64Counter(
		"concession_service.passes.not_found",
		metric.WithDescription("Total number of transitions into an empty pass view"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, err
	}

	m.watchersActive, err = meter.Int64UpDownCounter(
		"concession_service.passes.watchers",
		metric.WithDescription("Current number of live pass views"),
		metric.WithUnit("{watcher}"),
	)
	if err != nil {
		return nil, err
	}

	m.exports, err = meter.Int64Counter(
		"concession_service.exports",
		metric.WithDescription("Total number of CSV batches downloaded"),
		metric.WithUnit("{batch}"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

func (m *Metrics) RecordIntake(ctx context.Context, status string) {
	if m != nil && m.intakes != nil {
		m.intakes.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	}
}

func (m *Metrics) RecordApproval(ctx context.Context) {
	if m != nil && m.approvals != nil {
		m.approvals.Add(ctx, 1)
	}
}

func (m *Metrics) RecordApprovalFailure(ctx context.Context, reason string) {
	if m != nil && m.approvalFailures != nil {
		m.approvalFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
	}
}

func (m *Metrics) RecordSnapshot(ctx context.Context) {
	if m != nil && m.snapshotsDelivered != nil {
		m.snapshotsDelivered.Add(ctx, 1)
	}
}

func (m *Metrics) RecordNotFound(ctx context.Context) {
	if m != nil && m.notFoundFired != nil {
		m.notFoundFired.Add(ctx, 1)
	}
}

func (m *Metrics) RecordWatcherChange(ctx context.Context, delta int64) {
	if m != nil && m.watchersActive != nil {
		m.watchersActive.Add(ctx, delta)
	}
}

func (m *Metrics) RecordExport(ctx context.Context) {
	if m != nil && m.exports != nil {
		m.exports.Add(ctx, 1)
	}
}

// NewMock creates a no-op Metrics instance for testing.
func NewMock() *Metrics {
	return &Metrics{}
}
