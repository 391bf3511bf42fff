// Package term resolves human-readable term names to term records and
// picks the default term for new tracking requests.
package term

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/uwcourse/course-watch/internal/domain/course"
	"github.com/uwcourse/course-watch/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config contains resolver configuration.
type Config struct {
	// TermsTTL is how long the full term list is reused.
	TermsTTL time.Duration

	// CurrentTTL is how long the current term is reused.
	CurrentTTL time.Duration

	// RolloverAfter is how far into the current term the default switches
	// to the next term.
	RolloverAfter time.Duration

	Clock   timeutil.Clock
	Backing Backing
	Logger  *slog.Logger
}

// DefaultConfig returns the standard TTLs and a 60 day rollover.
func DefaultConfig() Config {
	return Config{
		TermsTTL:      24 * time.Hour,
		CurrentTTL:    5 * time.Minute,
		RolloverAfter: 60 * 24 * time.Hour,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// RESOLVER
// ══════════════════════════════════════════════════════════════════════════════

// Resolver answers term questions from cached schedule source data.
type Resolver struct {
	terms   *Cache[[]course.Term]
	current *Cache[course.Term]

	rolloverAfter time.Duration
	clock         timeutil.Clock
}

// NewResolver creates a resolver over source.
func NewResolver(source course.ScheduleSource, config Config) *Resolver {
	defaults := DefaultConfig()
	if config.TermsTTL <= 0 {
		config.TermsTTL = defaults.TermsTTL
	}
	if config.CurrentTTL <= 0 {
		config.CurrentTTL = defaults.CurrentTTL
	}
	if config.RolloverAfter <= 0 {
		config.RolloverAfter = defaults.RolloverAfter
	}
	if config.Clock == nil {
		config.Clock = timeutil.SystemClock{}
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	logger := config.Logger.With("component", "term_resolver")

	r := &Resolver{
		rolloverAfter: config.RolloverAfter,
		clock:         config.Clock,
	}
	r.terms = NewCache(CacheConfig{
		Name:    "all",
		TTL:     config.TermsTTL,
		Clock:   config.Clock,
		Backing: config.Backing,
		Logger:  logger,
	}, func(ctx context.Context) ([]course.Term, error) {
		terms, err := source.ListTerms(ctx)
		if err != nil {
			return nil, fmt.Errorf("list terms: %w", err)
		}
		sorted := append([]course.Term(nil), terms...)
		course.SortTerms(sorted)
		logger.Debug("terms fetched", "count", len(sorted))
		return sorted, nil
	})
	r.current = NewCache(CacheConfig{
		Name:    "current",
		TTL:     config.CurrentTTL,
		Clock:   config.Clock,
		Backing: config.Backing,
		Logger:  logger,
	}, func(ctx context.Context) (course.Term, error) {
		t, err := source.CurrentTerm(ctx)
		if err != nil {
			return course.Term{}, fmt.Errorf("current term: %w", err)
		}
		return t, nil
	})
	return r
}

// Terms returns all known terms ascending by start date.
func (r *Resolver) Terms(ctx context.Context) ([]course.Term, error) {
	terms, err := r.terms.Get(ctx)
	if err != nil {
		return nil, err
	}
	return append([]course.Term(nil), terms...), nil
}

// CurrentTerm returns the term upstream reports as current.
func (r *Resolver) CurrentTerm(ctx context.Context) (course.Term, error) {
	return r.current.Get(ctx)
}

// NextTerm returns the term following the current one.
// Fails with course.ErrNoNextTerm when the current term is the last known one.
func (r *Resolver) NextTerm(ctx context.Context) (course.Term, error) {
	current, err := r.CurrentTerm(ctx)
	if err != nil {
		return course.Term{}, err
	}
	terms, err := r.terms.Get(ctx)
	if err != nil {
		return course.Term{}, err
	}
	for i, t := range terms {
		if t.Code != current.Code {
			continue
		}
		if i+1 < len(terms) {
			return terms[i+1], nil
		}
		return course.Term{}, course.ErrNoNextTerm
	}
	return course.Term{}, fmt.Errorf("current term %s not in term list: %w", current.Name, course.ErrTermNotFound)
}

// TermWithName returns the term whose name matches, ignoring case.
func (r *Resolver) TermWithName(ctx context.Context, name string) (course.Term, error) {
	terms, err := r.terms.Get(ctx)
	if err != nil {
		return course.Term{}, err
	}
	for _, t := range terms {
		if t.MatchesName(name) {
			return t, nil
		}
	}
	return course.Term{}, fmt.Errorf("term %q: %w", name, course.ErrTermNotFound)
}

// DefaultTerm returns the next term once the current term has been running
// for more than the rollover window, otherwise the current term.
func (r *Resolver) DefaultTerm(ctx context.Context) (course.Term, error) {
	current, err := r.CurrentTerm(ctx)
	if err != nil {
		return course.Term{}, err
	}
	if r.clock.Now().After(current.StartDate.Add(r.rolloverAfter)) {
		return r.NextTerm(ctx)
	}
	return current, nil
}

// Refresh drops every cached value so the next lookup refetches.
func (r *Resolver) Refresh(ctx context.Context) {
	r.terms.Invalidate(ctx)
	r.current.Invalidate(ctx)
}
