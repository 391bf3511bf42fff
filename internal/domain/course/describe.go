package course

import (
	"fmt"
	"html"
	"strings"
)

// Entry is a tracked course with its last observed sections.
type Entry struct {
	Key      Key
	Sections Sections
}

// DescribeSection renders one section as a single line:
// "LEC 001 75/90 MWF 10:30-11:20".
func DescribeSection(s Section) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %d/%d", s.SectionName, s.Enrolled, s.Capacity)
	if s.HasMeeting() {
		b.WriteString(" ")
		b.WriteString(*s.MeetingWeekdays)
		if s.HasTimes() {
			fmt.Fprintf(&b, " %s-%s", s.StartTime.Short(), s.EndTime.Short())
		}
	}
	return html.EscapeString(b.String())
}

// Describe returns the description lines of a course: a bold header with the
// key followed by one line per section.
func Describe(key Key, sections Sections) []string {
	lines := make([]string, 0, len(sections)+1)
	lines = append(lines, "<b>"+html.EscapeString(key.String())+"</b>")
	for _, s := range sections {
		lines = append(lines, DescribeSection(s))
	}
	return lines
}

// DescribeEntries renders several entries separated by blank lines.
func DescribeEntries(entries []Entry) string {
	blocks := make([]string, 0, len(entries))
	for _, e := range entries {
		blocks = append(blocks, strings.Join(Describe(e.Key, e.Sections), "\n"))
	}
	return strings.Join(blocks, "\n\n")
}
