// Package telegram implements the Telegram bot interface: it receives
// updates by long polling, filters them to the owner and routes commands to
// handlers.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/uwcourse/course-watch/internal/application/command"
	"github.com/uwcourse/course-watch/internal/infrastructure/external/telegram"
	"github.com/uwcourse/course-watch/internal/interface/telegram/handler"
	"github.com/uwcourse/course-watch/internal/interface/telegram/middleware"
)

// ══════════════════════════════════════════════════════════════════════════════
// BOT CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// BotConfig contains configuration for the Telegram bot.
type BotConfig struct {
	// OwnerID is the only user the bot answers.
	OwnerID int64

	// MaxConcurrentUpdates limits concurrent update processing.
	MaxConcurrentUpdates int

	// GracefulShutdownTimeout bounds how long Stop waits for handlers.
	GracefulShutdownTimeout time.Duration

	Logger *slog.Logger
}

// DefaultBotConfig returns sensible defaults.
func DefaultBotConfig(ownerID int64) BotConfig {
	return BotConfig{
		OwnerID:                 ownerID,
		MaxConcurrentUpdates:    16,
		GracefulShutdownTimeout: 30 * time.Second,
		Logger:                  slog.Default(),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// BOT DEPENDENCIES
// ══════════════════════════════════════════════════════════════════════════════

// API is the part of the Bot API client the bot uses.
type API interface {
	GetMe(ctx context.Context) (*telegram.User, error)
	SendHTML(ctx context.Context, chatID int64, html string) (*telegram.Message, error)
	StartPolling(ctx context.Context, handler telegram.UpdateHandler) error
}

// BotDependencies contains all dependencies for the bot handlers.
type BotDependencies struct {
	AddCourse    *command.AddCourseHandler
	RemoveCourse *command.RemoveCourseHandler
	ListCourses  *command.ListCoursesHandler
	ClearCourses *command.ClearCoursesHandler
}

// ══════════════════════════════════════════════════════════════════════════════
// BOT
// ══════════════════════════════════════════════════════════════════════════════

// Bot is the main Telegram bot controller.
type Bot struct {
	config BotConfig
	api    API
	router *Router
	logger *slog.Logger

	auth     *middleware.AuthMiddleware
	recovery *middleware.RecoveryMiddleware
	metrics  *middleware.MetricsMiddleware

	running   atomic.Bool
	updateSem chan struct{}
	wg        sync.WaitGroup

	stats BotStats
}

// BotStats holds runtime statistics.
type BotStats struct {
	UpdatesReceived atomic.Int64
	UpdatesHandled  atomic.Int64
	ErrorsCount     atomic.Int64
}

// NewBot creates a new Telegram bot with all dependencies.
func NewBot(api API, config BotConfig, deps BotDependencies) (*Bot, error) {
	if api == nil {
		return nil, errors.New("telegram client is required")
	}
	if config.OwnerID == 0 {
		return nil, errors.New("owner id is required")
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.MaxConcurrentUpdates <= 0 {
		config.MaxConcurrentUpdates = 1
	}

	router := NewRouter(replier{api: api}, RouterConfig{Logger: config.Logger})
	router.RegisterCommand("start", handler.NewStartHandler())
	router.RegisterCommand("help", handler.NewHelpHandler())
	router.RegisterCommand("add", handler.NewAddHandler(deps.AddCourse))
	router.RegisterCommand("remove", handler.NewRemoveHandler(deps.RemoveCourse))
	router.RegisterCommand("list", handler.NewListHandler(deps.ListCourses))
	router.RegisterCommand("clear", handler.NewClearHandler(deps.ClearCourses))

	recoveryConfig := middleware.DefaultRecoveryConfig()
	recoveryConfig.Logger = config.Logger

	return &Bot{
		config: config,
		api:    api,
		router: router,
		logger: config.Logger,
		auth: middleware.NewAuthMiddleware(middleware.AuthConfig{
			OwnerID: config.OwnerID,
			Logger:  config.Logger,
		}),
		recovery:  middleware.NewRecoveryMiddleware(recoveryConfig),
		metrics:   middleware.NewMetricsMiddleware(middleware.MetricsConfig{KnownCommands: router.Commands()}),
		updateSem: make(chan struct{}, config.MaxConcurrentUpdates),
	}, nil
}

// replier adapts API to Replier.
type replier struct {
	api API
}

func (r replier) SendHTML(ctx context.Context, chatID int64, html string) error {
	_, err := r.api.SendHTML(ctx, chatID, html)
	return err
}

// ══════════════════════════════════════════════════════════════════════════════
// LIFECYCLE MANAGEMENT
// ══════════════════════════════════════════════════════════════════════════════

// Start verifies the token and long-polls until ctx is cancelled. It returns
// nil on cancellation.
func (b *Bot) Start(ctx context.Context) error {
	if !b.running.CompareAndSwap(false, true) {
		return errors.New("bot is already running")
	}
	defer b.running.Store(false)

	me, err := b.api.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("failed to verify bot token: %w", err)
	}
	b.logger.Info("bot verified", "id", me.ID, "username", me.Username)

	err = b.api.StartPolling(ctx, b.dispatch)
	b.wait()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// IsRunning returns whether the bot is currently polling.
func (b *Bot) IsRunning() bool {
	return b.running.Load()
}

// Stats returns a snapshot of the bot counters.
func (b *Bot) Stats() map[string]int64 {
	return map[string]int64{
		"updates_received": b.stats.UpdatesReceived.Load(),
		"updates_handled":  b.stats.UpdatesHandled.Load(),
		"errors_count":     b.stats.ErrorsCount.Load(),
		"rejected":         b.auth.Rejected(),
	}
}

func (b *Bot) wait() {
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(b.config.GracefulShutdownTimeout):
		b.logger.Warn("graceful shutdown timeout exceeded")
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE HANDLING
// ══════════════════════════════════════════════════════════════════════════════

// dispatch hands the update to a goroutine, bounded by updateSem.
func (b *Bot) dispatch(ctx context.Context, update *telegram.Update) {
	select {
	case b.updateSem <- struct{}{}:
	case <-ctx.Done():
		return
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer func() { <-b.updateSem }()
		b.handleUpdate(ctx, update)
	}()
}

// handleUpdate processes a single Telegram update.
func (b *Bot) handleUpdate(ctx context.Context, update *telegram.Update) {
	b.stats.UpdatesReceived.Add(1)

	msg := update.Message
	if msg == nil || msg.From == nil || msg.Chat == nil {
		return
	}

	ctx = middleware.ContextWithRequestID(ctx, uuid.NewString())
	ctx = middleware.ContextWithTelegramID(ctx, msg.From.ID)

	if !b.auth.Authorize(ctx, msg.From.ID) {
		return
	}

	cmd := telegram.ExtractCommand(msg)
	if cmd == "" || !b.router.Has(cmd) {
		return
	}

	logger := b.logger.With(
		"request_id", middleware.RequestIDFromContext(ctx),
		"command", cmd,
	)
	rc := b.metrics.Start(cmd)

	result := b.recovery.RecoverWithHandler(ctx, msg.From.ID, cmd, func() error {
		return b.router.HandleCommand(ctx, cmd, CommandContext{
			TelegramID: msg.From.ID,
			ChatID:     msg.Chat.ID,
			Args:       telegram.ExtractCommandArgs(msg),
		})
	})

	switch {
	case result.Recovered:
		rc.End("panic")
		b.stats.ErrorsCount.Add(1)
		if result.UserMessage != "" {
			if _, err := b.api.SendHTML(ctx, msg.Chat.ID, result.UserMessage); err != nil {
				logger.Warn("failed to send error reply", "error", err)
			}
		}
	case result.Err != nil:
		rc.End("error")
		b.stats.ErrorsCount.Add(1)
		logger.Error("failed to handle command", "error", result.Err)
	default:
		rc.End("success")
		b.stats.UpdatesHandled.Add(1)
		logger.Debug("command handled")
	}
}
