package command

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/uwcourse/course-watch/internal/domain/course"
	"github.com/uwcourse/course-watch/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ADD COURSE COMMAND
// Starts tracking a course after fetching its current sections.
// ══════════════════════════════════════════════════════════════════════════════

// AddCourseCommand contains the raw user request, e.g. "W23 MATH 237".
type AddCourseCommand struct {
	Query string
}

// AddOutcome is the user-visible result of an add request.
type AddOutcome int

const (
	// AddInvalidQuery - the request could not be parsed.
	AddInvalidQuery AddOutcome = iota
	// AddTermNotFound - the named term (or the default term) does not exist.
	AddTermNotFound
	// AddAlreadyTracked - the key is already in the list.
	AddAlreadyTracked
	// AddNoSchedules - upstream has no offerings for the course in that term.
	AddNoSchedules
	// AddAdded - the course is now tracked.
	AddAdded
)

// AddCourseResult contains the result of an add request.
type AddCourseResult struct {
	Outcome AddOutcome

	// Key is set for every outcome after the term was resolved.
	Key course.Key

	// Sections is set when the course was added.
	Sections course.Sections
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// AddCourseHandler handles the AddCourseCommand.
type AddCourseHandler struct {
	store   course.Store
	terms   TermResolver
	sources SectionSource
	logger  *slog.Logger
}

// NewAddCourseHandler creates a new AddCourseHandler.
func NewAddCourseHandler(store course.Store, terms TermResolver, sources SectionSource, logger *slog.Logger) *AddCourseHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AddCourseHandler{
		store:   store,
		terms:   terms,
		sources: sources,
		logger:  logger,
	}
}

// Handle executes the add course command.
func (h *AddCourseHandler) Handle(ctx context.Context, cmd AddCourseCommand) (*AddCourseResult, error) {
	t, err := resolveTarget(ctx, h.terms, cmd.Query)
	switch {
	case shared.IsValidation(err):
		return &AddCourseResult{Outcome: AddInvalidQuery}, nil
	case course.IsNotFound(err):
		return &AddCourseResult{Outcome: AddTermNotFound}, nil
	case err != nil:
		return nil, fmt.Errorf("add_course: %w", err)
	}

	// Cheap pre-check so a duplicate request does not hit the API.
	tracked, err := h.store.Contains(ctx, t.key)
	if err != nil {
		return nil, fmt.Errorf("add_course: %w", err)
	}
	if tracked {
		return &AddCourseResult{Outcome: AddAlreadyTracked, Key: t.key}, nil
	}

	sections, err := h.sources.Sections(ctx, t.term.Code, t.code)
	if course.IsNoSchedules(err) {
		return &AddCourseResult{Outcome: AddNoSchedules, Key: t.key}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("add_course: fetch %s: %w", t.key, err)
	}

	added, err := h.store.AddIfAbsent(ctx, t.key, sections)
	if err != nil {
		return nil, fmt.Errorf("add_course: %w", err)
	}
	if !added {
		return &AddCourseResult{Outcome: AddAlreadyTracked, Key: t.key}, nil
	}

	h.logger.Info("course tracked", "course_key", t.key, "term_code", t.term.Code, "sections", len(sections))
	return &AddCourseResult{Outcome: AddAdded, Key: t.key, Sections: sections}, nil
}
