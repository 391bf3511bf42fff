// Package export renders tracked courses into external formats.
package export

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/uwcourse/course-watch/internal/domain/course"
	"github.com/uwcourse/course-watch/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// ICALENDAR EXPORT
// Each scheduled section becomes one weekly recurring event bounded by its
// term's dates.
// ══════════════════════════════════════════════════════════════════════════════

// EntryLister lists tracked courses.
type EntryLister interface {
	List(ctx context.Context) ([]course.Entry, error)
}

// TermLookup resolves a term by its short name.
type TermLookup interface {
	TermWithName(ctx context.Context, name string) (course.Term, error)
}

// ICSConfig contains configuration for the exporter.
type ICSConfig struct {
	// ProductID is written as PRODID.
	ProductID string

	// Location is the zone the section times are expressed in.
	Location *time.Location

	// Now stamps DTSTAMP. Defaults to time.Now.
	Now func() time.Time

	Logger *slog.Logger
}

// DefaultICSConfig returns sensible defaults.
func DefaultICSConfig() ICSConfig {
	return ICSConfig{
		ProductID: "-//course-watch//EN",
		Location:  timeutil.WaterlooTZ,
		Now:       time.Now,
		Logger:    slog.Default(),
	}
}

// ICSExporter writes tracked sections as an iCalendar feed.
type ICSExporter struct {
	entries EntryLister
	terms   TermLookup
	config  ICSConfig
	logger  *slog.Logger
}

// NewICSExporter creates a new ICSExporter.
func NewICSExporter(entries EntryLister, terms TermLookup, config ICSConfig) *ICSExporter {
	def := DefaultICSConfig()
	if config.ProductID == "" {
		config.ProductID = def.ProductID
	}
	if config.Location == nil {
		config.Location = def.Location
	}
	if config.Now == nil {
		config.Now = def.Now
	}
	if config.Logger == nil {
		config.Logger = def.Logger
	}
	return &ICSExporter{
		entries: entries,
		terms:   terms,
		config:  config,
		logger:  config.Logger,
	}
}

// Export writes the calendar to w. Entries whose term can no longer be
// resolved and sections without a full schedule are skipped.
func (e *ICSExporter) Export(ctx context.Context, w io.Writer) error {
	entries, err := e.entries.List(ctx)
	if err != nil {
		return fmt.Errorf("export: list courses: %w", err)
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(e.config.ProductID)
	cal.SetXWRCalName("Tracked courses")
	cal.SetXWRTimezone(e.config.Location.String())

	stamp := e.config.Now().UTC()
	for _, entry := range entries {
		term, err := e.terms.TermWithName(ctx, entry.Key.TermName())
		if err != nil {
			if course.IsNotFound(err) {
				e.logger.WarnContext(ctx, "skipping course with unknown term", "key", entry.Key)
				continue
			}
			return fmt.Errorf("export: resolve term %s: %w", entry.Key.TermName(), err)
		}

		for _, s := range entry.Sections {
			if !s.HasTimes() {
				continue
			}
			if err := e.addSection(cal, entry.Key, term, s, stamp); err != nil {
				e.logger.WarnContext(ctx, "skipping section",
					"key", entry.Key,
					"section", s.SectionName,
					"error", err,
				)
			}
		}
	}

	if _, err := io.WriteString(w, cal.Serialize()); err != nil {
		return fmt.Errorf("export: write: %w", err)
	}
	return nil
}

func (e *ICSExporter) addSection(cal *ics.Calendar, key course.Key, term course.Term, s course.Section, stamp time.Time) error {
	days, err := ParseWeekdays(*s.MeetingWeekdays)
	if err != nil {
		return err
	}
	if len(days) == 0 {
		return fmt.Errorf("empty weekday pattern")
	}

	loc := e.config.Location
	first, ok := firstMeeting(term.StartDate.In(loc), term.EndDate.In(loc), days)
	if !ok {
		return fmt.Errorf("no meeting between %s and %s", timeutil.FormatDateStr(term.StartDate), timeutil.FormatDateStr(term.EndDate))
	}
	start := s.StartTime.On(first, loc)
	end := s.EndTime.On(first, loc)
	until := timeutil.EndOfDay(term.EndDate.In(loc)).UTC()

	tzid := &ics.KeyValues{Key: string(ics.ParameterTzid), Value: []string{loc.String()}}

	event := cal.AddEvent(fmt.Sprintf("%s/%s@course-watch", strings.ReplaceAll(key.String(), " ", "-"), strings.ReplaceAll(s.SectionName, " ", "-")))
	event.SetDtStampTime(stamp)
	event.SetProperty(ics.ComponentPropertyDtStart, start.Format(localLayout), tzid)
	event.SetProperty(ics.ComponentPropertyDtEnd, end.Format(localLayout), tzid)
	event.SetProperty(ics.ComponentPropertyRrule, fmt.Sprintf("FREQ=WEEKLY;BYDAY=%s;UNTIL=%s",
		byDay(days), until.Format(utcLayout)))
	event.SetSummary(fmt.Sprintf("%s %s", key.Course(), s.SectionName))
	event.SetDescription(fmt.Sprintf("%d/%d", s.Enrolled, s.Capacity))
	return nil
}

const (
	localLayout = "20060102T150405"
	utcLayout   = "20060102T150405Z"
)

// ─────────────────────────────────────────────────────────────────────────────
// Weekday patterns
// ─────────────────────────────────────────────────────────────────────────────

// ParseWeekdays parses a meeting pattern such as "MWF" or "TTh" into
// ascending weekdays. Thursday may be written "Th" or "R".
func ParseWeekdays(pattern string) ([]time.Weekday, error) {
	seen := make(map[time.Weekday]bool)
	for i := 0; i < len(pattern); i++ {
		var d time.Weekday
		switch pattern[i] {
		case 'M':
			d = time.Monday
		case 'T':
			if i+1 < len(pattern) && pattern[i+1] == 'h' {
				d = time.Thursday
				i++
			} else {
				d = time.Tuesday
			}
		case 'W':
			d = time.Wednesday
		case 'R':
			d = time.Thursday
		case 'F':
			d = time.Friday
		case 'S':
			d = time.Saturday
		case 'U':
			d = time.Sunday
		case ' ':
			continue
		default:
			return nil, fmt.Errorf("unknown weekday %q in %q", pattern[i], pattern)
		}
		seen[d] = true
	}

	days := make([]time.Weekday, 0, len(seen))
	for d := range seen {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
	return days, nil
}

var icsDays = map[time.Weekday]string{
	time.Sunday:    "SU",
	time.Monday:    "MO",
	time.Tuesday:   "TU",
	time.Wednesday: "WE",
	time.Thursday:  "TH",
	time.Friday:    "FR",
	time.Saturday:  "SA",
}

func byDay(days []time.Weekday) string {
	codes := make([]string, len(days))
	for i, d := range days {
		codes[i] = icsDays[d]
	}
	return strings.Join(codes, ",")
}

// firstMeeting returns the earliest day on or after start that falls on one
// of days and is not after end.
func firstMeeting(start, end time.Time, days []time.Weekday) (time.Time, bool) {
	var best time.Time
	for _, d := range days {
		c := timeutil.NextWeekday(start, d)
		if best.IsZero() || c.Before(best) {
			best = c
		}
	}
	if best.IsZero() || timeutil.StartOfDay(best).After(end) {
		return time.Time{}, false
	}
	return best, true
}
