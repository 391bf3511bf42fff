package command

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/uwcourse/course-watch/internal/domain/course"
	"github.com/uwcourse/course-watch/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REMOVE COURSE COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// RemoveCourseCommand contains the raw user request, e.g. "W23 MATH 237".
type RemoveCourseCommand struct {
	Query string
}

// RemoveOutcome is the user-visible result of a remove request.
type RemoveOutcome int

const (
	RemoveInvalidQuery RemoveOutcome = iota
	RemoveTermNotFound
	RemoveNotTracked
	RemoveRemoved
)

// RemoveCourseResult contains the result of a remove request.
type RemoveCourseResult struct {
	Outcome RemoveOutcome
	Key     course.Key
}

// RemoveCourseHandler handles the RemoveCourseCommand.
type RemoveCourseHandler struct {
	store  course.Store
	terms  TermResolver
	logger *slog.Logger
}

// NewRemoveCourseHandler creates a new RemoveCourseHandler.
func NewRemoveCourseHandler(store course.Store, terms TermResolver, logger *slog.Logger) *RemoveCourseHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RemoveCourseHandler{store: store, terms: terms, logger: logger}
}

// Handle executes the remove course command.
func (h *RemoveCourseHandler) Handle(ctx context.Context, cmd RemoveCourseCommand) (*RemoveCourseResult, error) {
	t, err := resolveTarget(ctx, h.terms, cmd.Query)
	switch {
	case shared.IsValidation(err):
		return &RemoveCourseResult{Outcome: RemoveInvalidQuery}, nil
	case course.IsNotFound(err):
		return &RemoveCourseResult{Outcome: RemoveTermNotFound}, nil
	case err != nil:
		return nil, fmt.Errorf("remove_course: %w", err)
	}

	removed, err := h.store.RemoveIfPresent(ctx, t.key)
	if err != nil {
		return nil, fmt.Errorf("remove_course: %w", err)
	}
	if !removed {
		return &RemoveCourseResult{Outcome: RemoveNotTracked, Key: t.key}, nil
	}

	h.logger.Info("course untracked", "course_key", t.key)
	return &RemoveCourseResult{Outcome: RemoveRemoved, Key: t.key}, nil
}
