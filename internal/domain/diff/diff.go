// Package diff compares two description listings of the same course and
// produces the change report sent to the owner.
package diff

import "strings"

// NotificationHeader opens every change report.
const NotificationHeader = "Course info changed:"

// Line is one output line of a comparison.
type Line struct {
	Text    string
	Changed bool
}

// Compare aligns before and after by position.
//
// When both listings have the same length, each line of after is marked changed
// if it differs from the line at the same position in before. When the lengths
// differ a section was added or removed, positions no longer correspond, and
// after is returned without any marks.
func Compare(before, after []string) []Line {
	out := make([]Line, len(after))
	sameLen := len(before) == len(after)
	for i, text := range after {
		out[i] = Line{Text: text, Changed: sameLen && before[i] != text}
	}
	return out
}

// Render wraps changed lines in bold tags.
func Render(lines []Line) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		if l.Changed {
			out[i] = "<b>" + l.Text + "</b>"
		} else {
			out[i] = l.Text
		}
	}
	return out
}

// Notification builds the full report text.
func Notification(lines []Line) string {
	return NotificationHeader + "\n\n" + strings.Join(Render(lines), "\n")
}

// HasChanges reports whether any line is marked.
func HasChanges(lines []Line) bool {
	for _, l := range lines {
		if l.Changed {
			return true
		}
	}
	return false
}
