// Package timeutil provides clock and timezone helpers for the Waterloo campus
// timezone (America/Toronto, observes DST).
// Handles API timestamp parsing, day arithmetic, and an injectable clock.
// No external dependencies - uses only standard library.
package timeutil

import (
	"fmt"
	"sync"
	"time"
	_ "time/tzdata" // campus zone must resolve on minimal images
)

// WaterlooTZ is the campus timezone.
var WaterlooTZ = mustLoad("America/Toronto")

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(fmt.Sprintf("timeutil: load %s: %v", name, err))
	}
	return loc
}

// ══════════════════════════════════════════════════════════════════════════════
// CLOCK
// ══════════════════════════════════════════════════════════════════════════════

// Clock abstracts wall-clock time so that TTLs and date rules can be tested.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real time.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock is a manually advanced clock.
type FixedClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixedClock creates a clock stopped at t.
func NewFixedClock(t time.Time) *FixedClock {
	return &FixedClock{now: t}
}

// Now returns the current fixed instant.
func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to t.
func (c *FixedClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// Advance moves the clock forward by d.
func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// ══════════════════════════════════════════════════════════════════════════════
// CONVERSION
// ══════════════════════════════════════════════════════════════════════════════

// Now returns the current time in the campus timezone.
func Now() time.Time {
	return time.Now().In(WaterlooTZ)
}

// ToWaterloo converts a time to the campus timezone.
func ToWaterloo(t time.Time) time.Time {
	return t.In(WaterlooTZ)
}

// Date creates midnight of the given date in the campus timezone.
func Date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, WaterlooTZ)
}

// StartOfDay returns 00:00:00 of t's day in the campus timezone.
func StartOfDay(t time.Time) time.Time {
	w := ToWaterloo(t)
	return time.Date(w.Year(), w.Month(), w.Day(), 0, 0, 0, 0, WaterlooTZ)
}

// EndOfDay returns 23:59:59 of t's day in the campus timezone.
func EndOfDay(t time.Time) time.Time {
	w := ToWaterloo(t)
	return time.Date(w.Year(), w.Month(), w.Day(), 23, 59, 59, 0, WaterlooTZ)
}

// NextWeekday returns the first day on or after t that falls on wd,
// keeping t's time of day.
func NextWeekday(t time.Time, wd time.Weekday) time.Time {
	delta := (int(wd) - int(t.Weekday()) + 7) % 7
	return t.AddDate(0, 0, delta)
}

// ══════════════════════════════════════════════════════════════════════════════
// PARSING & FORMATTING
// ══════════════════════════════════════════════════════════════════════════════

// apiLayouts are the timestamp shapes the schedule API has been seen to use.
var apiLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// ParseAPITime parses an API timestamp. Values without an offset are
// interpreted in the campus timezone.
func ParseAPITime(value string) (time.Time, error) {
	for _, layout := range apiLayouts {
		if t, err := time.ParseInLocation(layout, value, WaterlooTZ); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("timeutil: unrecognized timestamp %q", value)
}

// FormatDateStr returns "2006-01-02" in the campus timezone.
func FormatDateStr(t time.Time) string {
	return ToWaterloo(t).Format("2006-01-02")
}
