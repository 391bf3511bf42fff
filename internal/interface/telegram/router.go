package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/uwcourse/course-watch/internal/interface/telegram/handler"
)

// ══════════════════════════════════════════════════════════════════════════════
// ROUTER
// Routes commands to handlers and sends their replies.
// ══════════════════════════════════════════════════════════════════════════════

// Replier sends an HTML reply to a chat.
type Replier interface {
	SendHTML(ctx context.Context, chatID int64, html string) error
}

// RouterConfig contains configuration for the router.
type RouterConfig struct {
	Logger *slog.Logger
}

// CommandContext contains context for command handling.
type CommandContext struct {
	// TelegramID is the sender's Telegram ID.
	TelegramID int64

	// ChatID is the chat the command was sent in.
	ChatID int64

	// Args is the command arguments (text after the command).
	Args string
}

// Router routes commands to registered handlers.
type Router struct {
	logger  *slog.Logger
	replier Replier

	mu       sync.RWMutex
	handlers map[string]handler.Handler
}

// NewRouter creates a new router that replies through replier.
func NewRouter(replier Replier, config RouterConfig) *Router {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Router{
		logger:   config.Logger,
		replier:  replier,
		handlers: make(map[string]handler.Handler),
	}
}

// RegisterCommand registers a handler for a command given without the
// leading "/".
func (r *Router) RegisterCommand(command string, h handler.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[command] = h
}

// Commands returns the registered command names.
func (r *Router) Commands() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	return names
}

// Has reports whether command has a handler.
func (r *Router) Has(command string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.handlers[command]
	return ok
}

// HandleCommand runs the handler for command and sends its reply.
// Unknown commands are ignored.
func (r *Router) HandleCommand(ctx context.Context, command string, cmdCtx CommandContext) error {
	r.mu.RLock()
	h, ok := r.handlers[command]
	r.mu.RUnlock()

	if !ok {
		r.logger.DebugContext(ctx, "no handler for command", "command", command)
		return nil
	}

	view, err := h.Handle(ctx, handler.Request{
		TelegramID: cmdCtx.TelegramID,
		ChatID:     cmdCtx.ChatID,
		Args:       cmdCtx.Args,
	})
	if err != nil {
		return err
	}
	if view == nil || view.Text == "" {
		return nil
	}

	if err := r.replier.SendHTML(ctx, cmdCtx.ChatID, view.Text); err != nil {
		return fmt.Errorf("reply to /%s: %w", command, err)
	}
	return nil
}
