// Package handlers contains the health checks behind /healthz.
package handlers

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
)

// Check verifies one component of the bot. A nil error means healthy.
type Check func(ctx context.Context) error

// Report is the /healthz response body.
type Report struct {
	Healthy    bool                       `json:"healthy"`
	Summary    string                     `json:"summary"`
	Components map[string]ComponentStatus `json:"components"`
	Uptime     string                     `json:"uptime"`
	Version    string                     `json:"version,omitempty"`
	CheckedAt  time.Time                  `json:"checked_at"`
}

// ComponentStatus is the outcome of a single check.
type ComponentStatus struct {
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
	Took    string `json:"took"`
}

// ══════════════════════════════════════════════════════════════════════════════
// CHECKER
// ══════════════════════════════════════════════════════════════════════════════

// Checker runs the registered component checks concurrently.
type Checker struct {
	mu      sync.RWMutex
	checks  map[string]Check
	started time.Time
	version string
	timeout time.Duration
}

// NewChecker creates a Checker with a 5s per-check timeout.
func NewChecker(version string) *Checker {
	return &Checker{
		checks:  make(map[string]Check),
		started: time.Now(),
		version: version,
		timeout: 5 * time.Second,
	}
}

// SetTimeout bounds each individual check.
func (c *Checker) SetTimeout(timeout time.Duration) {
	c.timeout = timeout
}

// Add registers check under name, replacing any previous one.
func (c *Checker) Add(name string, check Check) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// Run executes every check and aggregates the results.
func (c *Checker) Run(ctx context.Context) Report {
	c.mu.RLock()
	checks := make(map[string]Check, len(c.checks))
	for name, check := range c.checks {
		checks[name] = check
	}
	c.mu.RUnlock()

	report := Report{
		Healthy:    true,
		Components: make(map[string]ComponentStatus, len(checks)),
		Uptime:     time.Since(c.started).Round(time.Second).String(),
		Version:    c.version,
		CheckedAt:  time.Now().UTC(),
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for name, check := range checks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			status := c.run(ctx, check)
			mu.Lock()
			report.Components[name] = status
			mu.Unlock()
		}()
	}
	wg.Wait()

	var failing []string
	for name, status := range report.Components {
		if !status.Healthy {
			failing = append(failing, name)
		}
	}
	if len(failing) == 0 {
		report.Summary = "ok"
		return report
	}
	slices.Sort(failing)
	report.Healthy = false
	report.Summary = "failing: " + strings.Join(failing, ", ")
	return report
}

func (c *Checker) run(ctx context.Context, check Check) ComponentStatus {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	err := check(ctx)
	status := ComponentStatus{
		Healthy: err == nil,
		Took:    time.Since(start).Round(time.Millisecond).String(),
	}
	if err != nil {
		status.Error = err.Error()
	}
	return status
}

// ══════════════════════════════════════════════════════════════════════════════
// COMPONENT CHECKS
// ══════════════════════════════════════════════════════════════════════════════

// Pinger is satisfied by the course store, Postgres and Redis.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingCheck fails when p cannot be reached.
func PingCheck(p Pinger) Check {
	return p.Ping
}

// Runner is satisfied by the bot, the scheduler and the HTTP server.
type Runner interface {
	IsRunning() bool
}

// RunningCheck fails once the component has stopped.
func RunningCheck(name string, r Runner) Check {
	return func(context.Context) error {
		if !r.IsRunning() {
			return fmt.Errorf("%s is not running", name)
		}
		return nil
	}
}
