// Package health reports liveness and dependency readiness.
package health

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"railway/common/metrics"
)

// Check probes one dependency.
type Check func(ctx context.Context) error

type Checker struct {
	mu      sync.Mutex
	checks  map[string]Check
	metrics *metrics.HealthMetrics
	logger  *slog.Logger
	timeout time.Duration
}

func NewChecker(m *metrics.HealthMetrics, logger *slog.Logger) *Checker {
	return &Checker{
		checks:  make(map[string]Check),
		metrics: m,
		logger:  logger,
		timeout: 2 * time.Second,
	}
}

func (c *Checker) Register(name string, check Check) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// Names lists the registered dependencies in sorted order.
func (c *Checker) Names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CheckAll runs every check and returns the failure message per dependency.
func (c *Checker) CheckAll(ctx context.Context) map[string]string {
	c.mu.Lock()
	checks := make(map[string]Check, len(c.checks))
	for name, check := range c.checks {
		checks[name] = check
	}
	c.mu.Unlock()

	failures := make(map[string]string)
	for name, check := range checks {
		checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
		start := time.Now()
		err := check(checkCtx)
		cancel()

		c.metrics.RecordDependencyCheck(ctx, name, time.Since(start), err)
		if err != nil {
			failures[name] = err.Error()
		}
	}
	return failures
}

// Start re-checks dependencies every interval until ctx is done. onChange is
// called with the overall readiness whenever it flips, and once at start.
func (c *Checker) Start(ctx context.Context, interval time.Duration, onChange func(ready bool)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	first := true
	last := false
	for {
		failures := c.CheckAll(ctx)
		ready := len(failures) == 0
		if first || ready != last {
			if !ready {
				c.logger.WarnContext(ctx, "dependencies unavailable", "failures", failures)
			} else if !first {
				c.logger.InfoContext(ctx, "dependencies recovered")
			}
			if onChange != nil {
				onChange(ready)
			}
		}
		first, last = false, ready

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
