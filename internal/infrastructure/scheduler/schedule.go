package scheduler

import (
	"fmt"
	"time"
)

// FixedDelaySchedule runs a job again a fixed delay after its previous run
// completed, so a slow run never overlaps the next one.
type FixedDelaySchedule struct {
	Delay time.Duration

	// Immediate makes the first run start as soon as the scheduler starts.
	Immediate bool
}

// NewFixedDelaySchedule creates a schedule whose first run is immediate.
func NewFixedDelaySchedule(delay time.Duration) *FixedDelaySchedule {
	return &FixedDelaySchedule{
		Delay:     delay,
		Immediate: true,
	}
}

// First returns the time of the first run for a scheduler started at t.
func (s *FixedDelaySchedule) First(t time.Time) time.Time {
	if s.Immediate {
		return t
	}
	return t.Add(s.Delay)
}

// Next returns the next run time given the completion time of the previous run.
func (s *FixedDelaySchedule) Next(completed time.Time) time.Time {
	return completed.Add(s.Delay)
}

// String returns the string representation of the schedule.
func (s *FixedDelaySchedule) String() string {
	return fmt.Sprintf("@every %s after completion", s.Delay.String())
}
