package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECOVERY MIDDLEWARE
// Catches panics in handlers so that one bad update cannot take the bot down.
// ══════════════════════════════════════════════════════════════════════════════

// RecoveryConfig holds configuration for the recovery middleware.
type RecoveryConfig struct {
	// EnableStackTrace enables capturing stack traces.
	EnableStackTrace bool

	// OnPanic is called when a panic is recovered.
	OnPanic func(ctx context.Context, panicInfo *PanicInfo)

	// UserErrorMessage is sent to the user when a panic occurs. Empty means
	// no reply.
	UserErrorMessage string

	Logger *slog.Logger
}

// DefaultRecoveryConfig returns sensible defaults for recovery middleware.
func DefaultRecoveryConfig() RecoveryConfig {
	return RecoveryConfig{
		EnableStackTrace: true,
		UserErrorMessage: "Something went wrong, please try again later.",
		Logger:           slog.Default(),
	}
}

// PanicInfo contains information about a recovered panic.
type PanicInfo struct {
	Error      error
	PanicValue interface{}
	StackTrace string
	RequestID  string
	TelegramID int64
	Command    string
	Timestamp  time.Time
}

// RecoveryMiddleware recovers from panics and provides error handling.
type RecoveryMiddleware struct {
	config RecoveryConfig
	logger *slog.Logger
}

// NewRecoveryMiddleware creates a new recovery middleware.
func NewRecoveryMiddleware(config RecoveryConfig) *RecoveryMiddleware {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &RecoveryMiddleware{config: config, logger: config.Logger}
}

// RecoveryResult represents the result of running a handler.
type RecoveryResult struct {
	// Recovered indicates if a panic was recovered.
	Recovered bool

	// PanicInfo contains panic details (if recovered).
	PanicInfo *PanicInfo

	// UserMessage is the message to show to the user.
	UserMessage string

	// Err is the error returned by the handler, or the panic as an error.
	Err error
}

// RecoverWithHandler executes a handler and recovers from any panics.
func (m *RecoveryMiddleware) RecoverWithHandler(
	ctx context.Context,
	telegramID int64,
	command string,
	handler func() error,
) (result *RecoveryResult) {
	defer func() {
		if r := recover(); r != nil {
			result = m.handlePanic(ctx, r, telegramID, command)
		}
	}()

	return &RecoveryResult{Err: handler()}
}

// handlePanic processes a recovered panic.
func (m *RecoveryMiddleware) handlePanic(
	ctx context.Context,
	panicValue interface{},
	telegramID int64,
	command string,
) *RecoveryResult {
	info := &PanicInfo{
		Error:      toError(panicValue),
		PanicValue: panicValue,
		Timestamp:  time.Now(),
		TelegramID: telegramID,
		Command:    command,
		RequestID:  RequestIDFromContext(ctx),
	}
	if m.config.EnableStackTrace {
		info.StackTrace = string(debug.Stack())
	}

	m.logger.ErrorContext(ctx, "panic recovered in handler",
		"command", command,
		"request_id", info.RequestID,
		"panic", fmt.Sprint(panicValue),
		"stack", info.StackTrace,
	)

	if m.config.OnPanic != nil {
		m.config.OnPanic(ctx, info)
	}

	return &RecoveryResult{
		Recovered:   true,
		PanicInfo:   info,
		UserMessage: m.config.UserErrorMessage,
		Err:         info.Error,
	}
}

// toError converts a panic value to an error.
func toError(panicValue interface{}) error {
	switch v := panicValue.(type) {
	case error:
		return fmt.Errorf("panic: %w", v)
	default:
		return fmt.Errorf("panic: %v", v)
	}
}
