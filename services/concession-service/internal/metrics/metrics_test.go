package metrics_test

import (
	"context"
	"testing"

	"railway/services/concession-service/internal/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestMock_IgnoresRecords(t *testing.T) {
	m := metrics.NewMock()
	ctx := context.Background()

	assert.NotPanics(t, func() {
		m.RecordIntake(ctx, "pending")
		m.RecordApproval(ctx)
		m.RecordApprovalFailure(ctx, "not_found")
		m.RecordSnapshot(ctx)
		m.RecordNotFound(ctx)
		m.RecordWatcherChange(ctx, 1)
		m.RecordExport(ctx)
	})

	var nilMetrics *metrics.Metrics
	assert.NotPanics(t, func() { nilMetrics.RecordApproval(ctx) })
}

func TestNew_RecordsCounters(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = provider.Shutdown(context.Background()) }()

	m, err := metrics.New(provider.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordIntake(ctx, "serviced")
	m.RecordIntake(ctx, "pending")
	m.RecordNotFound(ctx)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	totals := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			sum, ok := md.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				totals[md.Name] += dp.Value
			}
		}
	}

	assert.Equal(t, int64(2), totals["concession_service.intakes"])
	assert.Equal(t, int64(1), totals["concession_service.passes.not_found"])
}
