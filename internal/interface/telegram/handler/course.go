package handler

import (
	"context"
	"fmt"

	"github.com/uwcourse/course-watch/internal/application/command"
	"github.com/uwcourse/course-watch/internal/interface/telegram/presenter"
)

// ══════════════════════════════════════════════════════════════════════════════
// COURSE LIST HANDLERS
// /add, /remove, /list and /clear.
// ══════════════════════════════════════════════════════════════════════════════

// AddHandler handles /add [term] course.
type AddHandler struct {
	cmd *command.AddCourseHandler
}

// NewAddHandler creates a new AddHandler.
func NewAddHandler(cmd *command.AddCourseHandler) *AddHandler {
	return &AddHandler{cmd: cmd}
}

// Handle adds the requested course to the list.
func (h *AddHandler) Handle(ctx context.Context, req Request) (*presenter.View, error) {
	if req.Args == "" {
		return presenter.Usage("add"), nil
	}

	res, err := h.cmd.Handle(ctx, command.AddCourseCommand{Query: req.Args})
	if err != nil {
		return nil, fmt.Errorf("add: %w", err)
	}

	switch res.Outcome {
	case command.AddAlreadyTracked:
		return presenter.AlreadyTracked(res.Key), nil
	case command.AddNoSchedules:
		return presenter.NoSchedules(res.Key), nil
	case command.AddAdded:
		return presenter.Added(res.Key), nil
	default:
		return presenter.Usage("add"), nil
	}
}

// RemoveHandler handles /remove [term] course.
type RemoveHandler struct {
	cmd *command.RemoveCourseHandler
}

// NewRemoveHandler creates a new RemoveHandler.
func NewRemoveHandler(cmd *command.RemoveCourseHandler) *RemoveHandler {
	return &RemoveHandler{cmd: cmd}
}

// Handle removes the requested course from the list.
func (h *RemoveHandler) Handle(ctx context.Context, req Request) (*presenter.View, error) {
	if req.Args == "" {
		return presenter.Usage("remove"), nil
	}

	res, err := h.cmd.Handle(ctx, command.RemoveCourseCommand{Query: req.Args})
	if err != nil {
		return nil, fmt.Errorf("remove: %w", err)
	}

	switch res.Outcome {
	case command.RemoveRemoved:
		return presenter.Removed(res.Key), nil
	case command.RemoveNotTracked:
		return presenter.NotTracked(res.Key), nil
	default:
		return presenter.Usage("remove"), nil
	}
}

// ListHandler handles /list.
type ListHandler struct {
	query *command.ListCoursesHandler
}

// NewListHandler creates a new ListHandler.
func NewListHandler(query *command.ListCoursesHandler) *ListHandler {
	return &ListHandler{query: query}
}

// Handle describes every tracked course.
func (h *ListHandler) Handle(ctx context.Context, _ Request) (*presenter.View, error) {
	entries, err := h.query.Handle(ctx)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	return presenter.CourseList(entries), nil
}

// ClearHandler handles /clear.
type ClearHandler struct {
	cmd *command.ClearCoursesHandler
}

// NewClearHandler creates a new ClearHandler.
func NewClearHandler(cmd *command.ClearCoursesHandler) *ClearHandler {
	return &ClearHandler{cmd: cmd}
}

// Handle empties the list.
func (h *ClearHandler) Handle(ctx context.Context, _ Request) (*presenter.View, error) {
	if err := h.cmd.Handle(ctx); err != nil {
		return nil, fmt.Errorf("clear: %w", err)
	}
	return presenter.Cleared(), nil
}
