// Package presenter formats application results for Telegram display.
// Every string returned here is HTML for parse_mode=HTML.
package presenter

import (
	"fmt"
	"html"
	"strings"

	"github.com/uwcourse/course-watch/internal/domain/course"
)

// View is a formatted reply.
type View struct {
	// Text is the message text (HTML formatted).
	Text string

	// ParseMode is always "HTML".
	ParseMode string
}

func htmlView(text string) *View {
	return &View{Text: text, ParseMode: "HTML"}
}

// ─────────────────────────────────────────────────────────────────────────────
// GREETING AND HELP
// ─────────────────────────────────────────────────────────────────────────────

// Greeting is the /start reply.
func Greeting() *View {
	return htmlView("Hi there!")
}

// Help lists the supported commands.
func Help() *View {
	lines := []string{
		"<code>/add (term) (course code)</code> - Add a course to the list, e.g., <code>/add W23 MATH 237</code>",
		"<code>/remove (term) [course code]</code> - Remove a course from the list",
		"<code>/list</code> - List all courses in the list",
		"<code>/clear</code> - Clear the list",
	}
	return htmlView(strings.Join(lines, "\n"))
}

// ─────────────────────────────────────────────────────────────────────────────
// COURSE LIST
// ─────────────────────────────────────────────────────────────────────────────

// Usage shows an example invocation of command.
func Usage(command string) *View {
	return htmlView(fmt.Sprintf("Usage example: /%s W23 MATH 237", command))
}

// AlreadyTracked reports that key is in the list.
func AlreadyTracked(key course.Key) *View {
	return htmlView(fmt.Sprintf("%s is already in list!", escapeKey(key)))
}

// NoSchedules reports that key has no offerings.
func NoSchedules(key course.Key) *View {
	return htmlView(fmt.Sprintf("%s has no schedules.", escapeKey(key)))
}

// Added confirms that key is now tracked.
func Added(key course.Key) *View {
	return htmlView(fmt.Sprintf("%s added to list!", escapeKey(key)))
}

// Removed confirms that key is no longer tracked.
func Removed(key course.Key) *View {
	return htmlView(fmt.Sprintf("Removed %s from list.", escapeKey(key)))
}

// NotTracked reports that key was not in the list.
func NotTracked(key course.Key) *View {
	return htmlView(fmt.Sprintf("%s is not in list!", escapeKey(key)))
}

// CourseList describes every entry, or says the list is empty.
func CourseList(entries []course.Entry) *View {
	if len(entries) == 0 {
		return htmlView("Course list is empty!")
	}
	return htmlView(course.DescribeEntries(entries))
}

// Cleared confirms /clear.
func Cleared() *View {
	return htmlView("List cleared!")
}

func escapeKey(key course.Key) string {
	return html.EscapeString(key.String())
}
