// Package jobs contains the scheduled jobs of the course watcher.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/uwcourse/course-watch/internal/domain/course"
	"github.com/uwcourse/course-watch/internal/domain/diff"
)

// ══════════════════════════════════════════════════════════════════════════════
// POLL COURSES JOB
// ══════════════════════════════════════════════════════════════════════════════

var (
	pollCycles = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "coursewatch",
		Subsystem: "poll",
		Name:      "cycles_total",
		Help:      "Total completed poll cycles",
	})

	// pollChecks counts per-course checks. Labels: result (unchanged, changed, removed, no_schedules)
	pollChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coursewatch",
		Subsystem: "poll",
		Name:      "checks_total",
		Help:      "Per-course checks by result",
	}, []string{"result"})

	pollNotifyFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "coursewatch",
		Subsystem: "poll",
		Name:      "notify_failures_total",
		Help:      "Change notifications that could not be delivered",
	})
)

// TermLookup resolves a short term name such as "W23".
type TermLookup interface {
	TermWithName(ctx context.Context, name string) (course.Term, error)
}

// SectionFetcher fetches the current sections of a course.
type SectionFetcher interface {
	Sections(ctx context.Context, termCode, courseCode string) (course.Sections, error)
}

// PollCoursesConfig contains configuration for the poll job.
type PollCoursesConfig struct {
	// CourseDelay is the pause after each checked course, the last one
	// included. A course untracked mid-cycle gets no pause.
	CourseDelay time.Duration

	Logger *slog.Logger
}

// DefaultPollCoursesConfig returns sensible defaults.
func DefaultPollCoursesConfig() PollCoursesConfig {
	return PollCoursesConfig{
		CourseDelay: 10 * time.Second,
		Logger:      slog.Default(),
	}
}

// PollStats contains statistics from one poll cycle.
type PollStats struct {
	CycleID        string
	StartedAt      time.Time
	CompletedAt    time.Time
	Duration       time.Duration
	Courses        int
	Checked        int
	Changed        int
	Removed        int
	NoSchedules    int
	NotifyFailures int
}

// PollCoursesJob re-fetches every tracked course and reports changes.
type PollCoursesJob struct {
	store    course.Store
	terms    TermLookup
	sections SectionFetcher
	notifier course.Notifier
	logger   *slog.Logger
	config   PollCoursesConfig
	pause    func(ctx context.Context, d time.Duration) error

	lastStats atomic.Value // *PollStats
}

// NewPollCoursesJob creates a new poll job.
func NewPollCoursesJob(
	store course.Store,
	terms TermLookup,
	sections SectionFetcher,
	notifier course.Notifier,
	config PollCoursesConfig,
) *PollCoursesJob {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.CourseDelay < 0 {
		config.CourseDelay = 0
	}

	return &PollCoursesJob{
		store:    store,
		terms:    terms,
		sections: sections,
		notifier: notifier,
		logger:   config.Logger,
		config:   config,
		pause:    sleep,
	}
}

// Name returns the job name.
func (j *PollCoursesJob) Name() string {
	return "poll_courses"
}

// Description returns a human-readable description.
func (j *PollCoursesJob) Description() string {
	return "Re-fetches tracked course sections and notifies the owner about changes"
}

// LastStats returns the statistics of the last finished cycle, or nil.
func (j *PollCoursesJob) LastStats() *PollStats {
	if v := j.lastStats.Load(); v != nil {
		return v.(*PollStats)
	}
	return nil
}

// Run executes one poll cycle over a snapshot of the tracked keys.
// Courses added during the cycle are picked up by the next one.
func (j *PollCoursesJob) Run(ctx context.Context) error {
	stats := &PollStats{
		CycleID:   uuid.NewString(),
		StartedAt: time.Now(),
	}
	logger := j.logger.With("cycle_id", stats.CycleID)

	keys, err := j.store.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("snapshot tracked courses: %w", err)
	}
	stats.Courses = len(keys)
	logger.Debug("poll cycle started", "courses", stats.Courses)

	for _, key := range keys {
		tracked, err := j.check(ctx, logger, key, stats)
		if err != nil {
			return err
		}
		// A key removed mid-cycle moves straight on to the next one.
		if !tracked {
			continue
		}
		if err := j.pause(ctx, j.config.CourseDelay); err != nil {
			return err
		}
	}

	stats.CompletedAt = time.Now()
	stats.Duration = stats.CompletedAt.Sub(stats.StartedAt)
	j.lastStats.Store(stats)
	pollCycles.Inc()

	logger.Info("poll cycle completed",
		"courses", stats.Courses,
		"changed", stats.Changed,
		"skipped", stats.Removed+stats.NoSchedules,
		"duration", stats.Duration.String(),
	)
	return nil
}

// check refreshes a single course. It reports false when the course was
// untracked while its sections were being fetched.
func (j *PollCoursesJob) check(ctx context.Context, logger *slog.Logger, key course.Key, stats *PollStats) (bool, error) {
	logger = logger.With("course_key", key)

	if _, err := course.ParseKey(key.String()); err != nil {
		return false, fmt.Errorf("poll %q: %w", key, err)
	}

	term, err := j.terms.TermWithName(ctx, key.TermName())
	if err != nil {
		return false, fmt.Errorf("poll %s: %w", key, err)
	}

	fresh, err := j.sections.Sections(ctx, term.Code, key.Course())
	if course.IsNoSchedules(err) {
		logger.Warn("course no longer has schedules, skipping")
		stats.NoSchedules++
		pollChecks.WithLabelValues("no_schedules").Inc()
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("poll %s: %w", key, err)
	}
	stats.Checked++

	result, err := j.store.Replace(ctx, key, fresh, func(ctx context.Context, before, after course.Sections) error {
		return j.notify(ctx, key, before, after)
	})
	if err != nil {
		if result != course.ReplaceChanged {
			return false, fmt.Errorf("poll %s: %w", key, err)
		}
		stats.NotifyFailures++
		pollNotifyFailures.Inc()
		logger.Error("failed to deliver change notification", "error", err)
	}

	switch result {
	case course.ReplaceChanged:
		stats.Changed++
		pollChecks.WithLabelValues("changed").Inc()
	case course.ReplaceUnchanged:
		pollChecks.WithLabelValues("unchanged").Inc()
	case course.ReplaceSkipped:
		stats.Removed++
		pollChecks.WithLabelValues("removed").Inc()
		logger.Debug("course removed during fetch, skipping")
		return false, nil
	}
	return true, nil
}

// notify sends the change notification for one course.
func (j *PollCoursesJob) notify(ctx context.Context, key course.Key, before, after course.Sections) error {
	text := diff.Notification(diff.Compare(course.Describe(key, before), course.Describe(key, after)))
	return j.notifier.Notify(ctx, text)
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
