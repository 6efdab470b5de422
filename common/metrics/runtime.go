package metrics

import (
	"context"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// RuntimeMetrics observes the Go runtime on every collection.
type RuntimeMetrics struct {
	goroutines metric.Int64ObservableGauge
	heapAlloc  metric.Int64ObservableGauge
	gcCycles   metric.Int64ObservableCounter
	uptime     metric.Float64ObservableCounter
	started    time.Time
}

func NewRuntimeMetrics(meter metric.Meter) (*RuntimeMetrics, error) {
	rm := &RuntimeMetrics{started: time.Now()}

	var err error

	rm.goroutines, err = meter.Int64ObservableGauge(
		"runtime.go.goroutines",
		metric.WithDescription("Number of live goroutines"),
		metric.WithUnit("{goroutine}"),
	)
	if err != nil {
		return nil, err
	}

	rm.heapAlloc, err = meter.Int64ObservableGauge(
		"runtime.go.mem.heap_alloc",
		metric.WithDescription("Bytes of allocated heap objects"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	rm.gcCycles, err = meter.Int64ObservableCounter(
		"runtime.go.gc.count",
		metric.WithDescription("Completed GC cycles"),
		metric.WithUnit("{gc}"),
	)
	if err != nil {
		return nil, err
	}

	rm.uptime, err = meter.Float64ObservableCounter(
		"service.uptime",
		metric.WithDescription("Seconds since the process started"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	_, err = meter.RegisterCallback(rm.observe, rm.goroutines, rm.heapAlloc, rm.gcCycles, rm.uptime)
	if err != nil {
		return nil, err
	}
	return rm, nil
}

func (rm *RuntimeMetrics) observe(_ context.Context, observer metric.Observer) error {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	observer.ObserveInt64(rm.goroutines, int64(runtime.NumGoroutine()))
	observer.ObserveInt64(rm.heapAlloc, int64(m.HeapAlloc))
	observer.ObserveInt64(rm.gcCycles, int64(m.NumGC))
	observer.ObserveFloat64(rm.uptime, time.Since(rm.started).Seconds())
	return nil
}
