package handler

import (
	"context"

	"github.com/uwcourse/course-watch/internal/interface/telegram/presenter"
)

// StartHandler handles /start.
type StartHandler struct{}

// NewStartHandler creates a new StartHandler.
func NewStartHandler() *StartHandler {
	return &StartHandler{}
}

// Handle greets the user.
func (h *StartHandler) Handle(_ context.Context, _ Request) (*presenter.View, error) {
	return presenter.Greeting(), nil
}

// HelpHandler handles /help.
type HelpHandler struct{}

// NewHelpHandler creates a new HelpHandler.
func NewHelpHandler() *HelpHandler {
	return &HelpHandler{}
}

// Handle lists the supported commands.
func (h *HelpHandler) Handle(_ context.Context, _ Request) (*presenter.View, error) {
	return presenter.Help(), nil
}
