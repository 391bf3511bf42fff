package course

import (
	"sort"
	"strings"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// TERM
// ══════════════════════════════════════════════════════════════════════════════

// Term is an academic session as reported by the schedule source.
// Terms are immutable once fetched.
type Term struct {
	// Code is the opaque upstream identifier (e.g. "1231").
	Code string

	// Name is the short label (e.g. "W23").
	Name string

	StartDate time.Time
	EndDate   time.Time
}

// ShortTermName derives the short label from a long term name:
// the first character followed by the last two ("Winter 2023" -> "W23").
func ShortTermName(long string) string {
	long = strings.TrimSpace(long)
	if len(long) < 3 {
		return long
	}
	return long[:1] + long[len(long)-2:]
}

// MatchesName reports whether the term name equals name, ignoring case.
func (t Term) MatchesName(name string) bool {
	return strings.EqualFold(t.Name, name)
}

// SortTerms sorts terms ascending by start date in place.
func SortTerms(terms []Term) {
	sort.SliceStable(terms, func(i, j int) bool {
		return terms[i].StartDate.Before(terms[j].StartDate)
	})
}
