package course

import (
	"fmt"
	"sort"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// TimeOfDay is a wall-clock time with second precision.
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

// NewTimeOfDay validates and builds a TimeOfDay.
func NewTimeOfDay(hour, minute, second int) (TimeOfDay, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 || second < 0 || second > 59 {
		return TimeOfDay{}, fmt.Errorf("time of day %02d:%02d:%02d out of range", hour, minute, second)
	}
	return TimeOfDay{Hour: hour, Minute: minute, Second: second}, nil
}

// TimeOfDayFrom takes the wall-clock part of t.
func TimeOfDayFrom(t time.Time) TimeOfDay {
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}
}

// ParseTimeOfDay parses "HH:MM:SS".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04:05", s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("parse time of day %q: %w", s, err)
	}
	return TimeOfDayFrom(t), nil
}

// String returns "HH:MM:SS".
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// Short returns "HH:MM".
func (t TimeOfDay) Short() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// On returns the instant at this time of day on the date of d in loc.
func (t TimeOfDay) On(d time.Time, loc *time.Location) time.Time {
	y, m, day := d.In(loc).Date()
	return time.Date(y, m, day, t.Hour, t.Minute, t.Second, 0, loc)
}

// ══════════════════════════════════════════════════════════════════════════════
// SECTION
// ══════════════════════════════════════════════════════════════════════════════

// Section is one scheduled offering of a course within a term.
// StartTime and EndTime are both set or both nil.
type Section struct {
	// SectionName is the component plus zero-padded number, e.g. "LEC 001".
	SectionName string

	Enrolled int
	Capacity int

	// MeetingWeekdays is the day pattern code (e.g. "MWF"), nil when unscheduled.
	MeetingWeekdays *string

	StartTime *TimeOfDay
	EndTime   *TimeOfDay
}

// SectionName builds the canonical name from a component and a section number.
func SectionName(component string, number int) string {
	return fmt.Sprintf("%s %03d", component, number)
}

// HasMeeting reports whether the section has a non-empty weekday pattern.
func (s Section) HasMeeting() bool {
	return s.MeetingWeekdays != nil && *s.MeetingWeekdays != ""
}

// HasTimes reports whether both meeting times are known.
func (s Section) HasTimes() bool {
	return s.StartTime != nil && s.EndTime != nil
}

// Validate checks the section invariants.
func (s Section) Validate() error {
	if s.SectionName == "" {
		return fmt.Errorf("section name is empty")
	}
	if s.Enrolled < 0 || s.Capacity < 0 {
		return fmt.Errorf("section %s: negative enrollment %d/%d", s.SectionName, s.Enrolled, s.Capacity)
	}
	if (s.StartTime == nil) != (s.EndTime == nil) {
		return fmt.Errorf("section %s: start and end time must both be set or both be empty", s.SectionName)
	}
	return nil
}

// Equal compares every field, dereferencing optional values.
func (s Section) Equal(o Section) bool {
	return s.SectionName == o.SectionName &&
		s.Enrolled == o.Enrolled &&
		s.Capacity == o.Capacity &&
		equalPtr(s.MeetingWeekdays, o.MeetingWeekdays) &&
		equalPtr(s.StartTime, o.StartTime) &&
		equalPtr(s.EndTime, o.EndTime)
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Sections is the ordered section list of one course.
type Sections []Section

// Sort orders sections by name.
func (ss Sections) Sort() {
	sort.SliceStable(ss, func(i, j int) bool {
		return ss[i].SectionName < ss[j].SectionName
	})
}

// Equal is ordered structural equality.
func (ss Sections) Equal(other Sections) bool {
	if len(ss) != len(other) {
		return false
	}
	for i := range ss {
		if !ss[i].Equal(other[i]) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy.
func (ss Sections) Clone() Sections {
	if ss == nil {
		return nil
	}
	out := make(Sections, len(ss))
	for i, s := range ss {
		c := s
		if s.MeetingWeekdays != nil {
			w := *s.MeetingWeekdays
			c.MeetingWeekdays = &w
		}
		if s.StartTime != nil {
			t := *s.StartTime
			c.StartTime = &t
		}
		if s.EndTime != nil {
			t := *s.EndTime
			c.EndTime = &t
		}
		out[i] = c
	}
	return out
}
