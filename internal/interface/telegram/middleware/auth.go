// Package middleware contains the Telegram bot middlewares applied to every
// incoming update before it reaches a command handler.
package middleware

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONTEXT KEYS
// ══════════════════════════════════════════════════════════════════════════════

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// TelegramIDContextKey is the context key for the Telegram user ID.
	TelegramIDContextKey contextKey = "telegram_id"

	// RequestIDContextKey is the context key for request tracing.
	RequestIDContextKey contextKey = "request_id"
)

// ContextWithTelegramID adds the sender's Telegram ID to ctx.
func ContextWithTelegramID(ctx context.Context, telegramID int64) context.Context {
	return context.WithValue(ctx, TelegramIDContextKey, telegramID)
}

// TelegramIDFromContext returns the sender's Telegram ID, or 0.
func TelegramIDFromContext(ctx context.Context) int64 {
	if id, ok := ctx.Value(TelegramIDContextKey).(int64); ok {
		return id
	}
	return 0
}

// ContextWithRequestID adds a request ID to ctx.
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDContextKey, requestID)
}

// RequestIDFromContext returns the request ID, or "".
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDContextKey).(string); ok {
		return id
	}
	return ""
}

// ══════════════════════════════════════════════════════════════════════════════
// OWNER AUTH MIDDLEWARE
// The bot serves exactly one user. Everyone else is ignored without a reply.
// ══════════════════════════════════════════════════════════════════════════════

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	// OwnerID is the only Telegram user allowed to use the bot.
	OwnerID int64

	Logger *slog.Logger
}

// AuthMiddleware restricts the bot to its owner.
type AuthMiddleware struct {
	ownerID  int64
	logger   *slog.Logger
	rejected atomic.Int64
}

// NewAuthMiddleware creates a new auth middleware with the given configuration.
func NewAuthMiddleware(config AuthConfig) *AuthMiddleware {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &AuthMiddleware{
		ownerID: config.OwnerID,
		logger:  config.Logger,
	}
}

// Authorize reports whether telegramID may use the bot.
// Rejections are only logged at debug level.
func (m *AuthMiddleware) Authorize(ctx context.Context, telegramID int64) bool {
	if telegramID != 0 && telegramID == m.ownerID {
		return true
	}
	m.rejected.Add(1)
	m.logger.DebugContext(ctx, "ignoring update from non-owner",
		"telegram_id", telegramID,
		"request_id", RequestIDFromContext(ctx),
	)
	return false
}

// Rejected returns the number of ignored updates.
func (m *AuthMiddleware) Rejected() int64 {
	return m.rejected.Load()
}
