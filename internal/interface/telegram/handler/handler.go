// Package handler contains Telegram command handlers. Each handler turns a
// command's arguments into an application call and a formatted reply.
package handler

import (
	"context"

	"github.com/uwcourse/course-watch/internal/interface/telegram/presenter"
)

// Request contains the parsed command data.
type Request struct {
	// TelegramID is the sender's Telegram ID.
	TelegramID int64

	// ChatID is the chat to reply to.
	ChatID int64

	// Args is the text after the command, trimmed.
	Args string
}

// Handler processes one command. A nil view means no reply.
type Handler interface {
	Handle(ctx context.Context, req Request) (*presenter.View, error)
}

// Func adapts a function to Handler.
type Func func(ctx context.Context, req Request) (*presenter.View, error)

// Handle calls f.
func (f Func) Handle(ctx context.Context, req Request) (*presenter.View, error) {
	return f(ctx, req)
}
