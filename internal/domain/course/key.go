package course

import (
	"regexp"
	"strings"
)

// ══════════════════════════════════════════════════════════════════════════════
// KEY
// ══════════════════════════════════════════════════════════════════════════════

// Key identifies a tracked course: "<TermName> <CourseCode>".
type Key string

// NewKey joins a term name and a course code.
func NewKey(termName, courseCode string) Key {
	return Key(termName + " " + courseCode)
}

// ParseKey splits a stored key on its first space.
func ParseKey(s string) (Key, error) {
	term, code, ok := strings.Cut(s, " ")
	if !ok || term == "" || strings.TrimSpace(code) == "" {
		return "", ErrInvalidKey
	}
	return Key(s), nil
}

// TermName returns the part before the first space.
func (k Key) TermName() string {
	term, _, _ := strings.Cut(string(k), " ")
	return term
}

// Course returns the part after the first space.
func (k Key) Course() string {
	_, code, _ := strings.Cut(string(k), " ")
	return code
}

// String implements fmt.Stringer.
func (k Key) String() string {
	return string(k)
}

// ══════════════════════════════════════════════════════════════════════════════
// COURSE QUERY
// ══════════════════════════════════════════════════════════════════════════════

// courseQueryRegex matches "[term] subject catalog", e.g. "W23 MATH 237" or "cs135".
var courseQueryRegex = regexp.MustCompile(`^(?:([FWSfws]\d\d)\s+)?([A-Za-z]+)\s*(\d+[A-Za-z]?)$`)

// CourseQuery is a parsed user request naming a course and optionally a term.
type CourseQuery struct {
	// TermName is empty when the user did not name a term.
	TermName string

	Subject       string
	CatalogNumber string
}

// ParseCourseQuery parses free text such as "W23 MATH 237" or "math237".
// Subject and catalog number are upper-cased; the term name is upper-cased too.
func ParseCourseQuery(s string) (CourseQuery, error) {
	m := courseQueryRegex.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return CourseQuery{}, ErrInvalidCourseQuery
	}
	return CourseQuery{
		TermName:      strings.ToUpper(m[1]),
		Subject:       strings.ToUpper(m[2]),
		CatalogNumber: strings.ToUpper(m[3]),
	}, nil
}

// HasTerm reports whether the query named a term explicitly.
func (q CourseQuery) HasTerm() bool {
	return q.TermName != ""
}

// CourseCode returns "SUBJECT CATALOG".
func (q CourseQuery) CourseCode() string {
	return q.Subject + " " + q.CatalogNumber
}

// SplitCourseCode splits "MATH 237" into subject and catalog number.
func SplitCourseCode(code string) (subject, catalog string, err error) {
	subject, catalog, ok := strings.Cut(code, " ")
	if !ok || subject == "" || catalog == "" {
		return "", "", ErrInvalidCourseQuery
	}
	return subject, catalog, nil
}
