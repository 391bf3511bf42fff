// Package command contains write operations on the tracked course list.
// Each command resolves its target course, then performs exactly one store-owned
// operation so that check-then-act decisions happen under the store lock.
package command

import (
	"context"
	"fmt"

	"github.com/uwcourse/course-watch/internal/domain/course"
)

// ══════════════════════════════════════════════════════════════════════════════
// DEPENDENCIES (Interfaces)
// ══════════════════════════════════════════════════════════════════════════════

// TermResolver provides term lookups.
type TermResolver interface {
	TermWithName(ctx context.Context, name string) (course.Term, error)
	DefaultTerm(ctx context.Context) (course.Term, error)
}

// SectionSource fetches the current sections of a course.
type SectionSource interface {
	Sections(ctx context.Context, termCode, courseCode string) (course.Sections, error)
}

// ══════════════════════════════════════════════════════════════════════════════
// TARGET RESOLUTION
// ══════════════════════════════════════════════════════════════════════════════

// target is a resolved course request.
type target struct {
	term course.Term
	code string
	key  course.Key
}

// resolveTarget parses free text and picks the term: the named one, or the
// default term when none is named.
func resolveTarget(ctx context.Context, terms TermResolver, query string) (target, error) {
	q, err := course.ParseCourseQuery(query)
	if err != nil {
		return target{}, err
	}

	var term course.Term
	if q.HasTerm() {
		term, err = terms.TermWithName(ctx, q.TermName)
	} else {
		term, err = terms.DefaultTerm(ctx)
	}
	if err != nil {
		return target{}, fmt.Errorf("resolve term: %w", err)
	}

	code := q.CourseCode()
	return target{term: term, code: code, key: course.NewKey(term.Name, code)}, nil
}
