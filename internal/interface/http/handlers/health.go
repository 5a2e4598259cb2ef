package handlers

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"
)

// checkTimeout bounds each individual probe so one hung dependency
// cannot stall the whole health endpoint.
const checkTimeout = 5 * time.Second

// HealthChecker reports the aggregated service health. The server
// treats a nil checker as "always healthy".
type HealthChecker interface {
	Check(ctx context.Context) HealthStatus
}

// HealthCheckFunc probes a single dependency. A nil return means the
// dependency is reachable.
type HealthCheckFunc func(ctx context.Context) error

// HealthStatus is the JSON body of the health and readiness endpoints.
type HealthStatus struct {
	Healthy   bool                   `json:"healthy"`
	Ready     bool                   `json:"ready"`
	Message   string                 `json:"message,omitempty"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
	Uptime    string                 `json:"uptime,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version,omitempty"`
}

// CheckResult is the outcome of one dependency probe.
type CheckResult struct {
	Healthy     bool      `json:"healthy"`
	Message     string    `json:"message,omitempty"`
	Duration    string    `json:"duration,omitempty"`
	LastChecked time.Time `json:"last_checked,omitempty"`
}

// CompositeHealthChecker probes every registered dependency in
// parallel and aggregates the results. Registration happens during
// startup wiring; Check is safe for concurrent use afterwards.
type CompositeHealthChecker struct {
	mu        sync.RWMutex
	checks    map[string]HealthCheckFunc
	startTime time.Time
	version   string
}

// NewCompositeHealthChecker returns a checker with no probes
// registered. With zero probes Check reports healthy.
func NewCompositeHealthChecker(version string) *CompositeHealthChecker {
	return &CompositeHealthChecker{
		checks:    make(map[string]HealthCheckFunc),
		startTime: time.Now(),
		version:   version,
	}
}

// AddCheck registers a named probe. Re-registering a name replaces the
// previous probe.
func (c *CompositeHealthChecker) AddCheck(name string, check HealthCheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// Check runs every probe with its own timeout and aggregates the
// results. Any failing probe marks the service unhealthy and not ready.
func (c *CompositeHealthChecker) Check(ctx context.Context) HealthStatus {
	c.mu.RLock()
	checks := make(map[string]HealthCheckFunc, len(c.checks))
	for name, fn := range c.checks {
		checks[name] = fn
	}
	c.mu.RUnlock()

	status := HealthStatus{
		Healthy:   true,
		Ready:     true,
		Checks:    make(map[string]CheckResult, len(checks)),
		Uptime:    time.Since(c.startTime).Round(time.Second).String(),
		Timestamp: time.Now().UTC(),
		Version:   c.version,
	}

	if len(checks) == 0 {
		status.Message = "no health checks registered"
		return status
	}

	var (
		wg      sync.WaitGroup
		resmu   sync.Mutex
		failing []string
	)

	for name, fn := range checks {
		wg.Add(1)
		go func(name string, fn HealthCheckFunc) {
			defer wg.Done()

			probeCtx, cancel := context.WithTimeout(ctx, checkTimeout)
			defer cancel()

			start := time.Now()
			err := fn(probeCtx)

			result := CheckResult{
				Healthy:     err == nil,
				Message:     "OK",
				Duration:    time.Since(start).Round(time.Millisecond).String(),
				LastChecked: time.Now().UTC(),
			}
			if err != nil {
				result.Message = err.Error()
			}

			resmu.Lock()
			status.Checks[name] = result
			if err != nil {
				failing = append(failing, name)
			}
			resmu.Unlock()
		}(name, fn)
	}
	wg.Wait()

	if len(failing) == 0 {
		status.Message = "all checks passed"
		return status
	}

	sort.Strings(failing)
	status.Healthy = false
	status.Ready = false
	status.Message = "checks failed: " + strings.Join(failing, ", ")
	return status
}

// Pinger is satisfied by the Postgres connection and the Redis cache.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewPingCheck probes a dependency that exposes Ping.
func NewPingCheck(p Pinger) HealthCheckFunc {
	return func(ctx context.Context) error {
		return p.Ping(ctx)
	}
}

// GitHubChecker reports whether the GitHub API client is operational.
type GitHubChecker interface {
	IsHealthy(ctx context.Context) bool
}

// NewGitHubCheck probes the GitHub client circuit state.
func NewGitHubCheck(api GitHubChecker) HealthCheckFunc {
	return func(ctx context.Context) error {
		if !api.IsHealthy(ctx) {
			return errors.New("github api unavailable")
		}
		return nil
	}
}
