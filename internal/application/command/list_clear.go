package command

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/uwcourse/course-watch/internal/domain/course"
)

// ══════════════════════════════════════════════════════════════════════════════
// LIST COURSES
// ══════════════════════════════════════════════════════════════════════════════

// ListCoursesHandler returns the tracked courses with their last known sections.
type ListCoursesHandler struct {
	store course.Store
}

// NewListCoursesHandler creates a new ListCoursesHandler.
func NewListCoursesHandler(store course.Store) *ListCoursesHandler {
	return &ListCoursesHandler{store: store}
}

// Handle returns every tracked entry in insertion order.
func (h *ListCoursesHandler) Handle(ctx context.Context) ([]course.Entry, error) {
	entries, err := h.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list_courses: %w", err)
	}
	return entries, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// CLEAR COURSES
// ══════════════════════════════════════════════════════════════════════════════

// ClearCoursesHandler stops tracking every course.
type ClearCoursesHandler struct {
	store  course.Store
	logger *slog.Logger
}

// NewClearCoursesHandler creates a new ClearCoursesHandler.
func NewClearCoursesHandler(store course.Store, logger *slog.Logger) *ClearCoursesHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ClearCoursesHandler{store: store, logger: logger}
}

// Handle clears the list.
func (h *ClearCoursesHandler) Handle(ctx context.Context) error {
	if err := h.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear_courses: %w", err)
	}
	h.logger.Info("course list cleared")
	return nil
}
