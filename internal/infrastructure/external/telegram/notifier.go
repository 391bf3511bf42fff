package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/uwcourse/course-watch/internal/domain/shared"
	"github.com/uwcourse/course-watch/pkg/circuitbreaker"
	"github.com/uwcourse/course-watch/pkg/retry"
)

// HTMLSender sends an HTML message to a chat.
type HTMLSender interface {
	SendHTML(ctx context.Context, chatID int64, html string) (*Message, error)
}

// NotifierConfig contains configuration for the owner notifier.
type NotifierConfig struct {
	// ChatID receives every notification.
	ChatID int64

	// MaxAttempts bounds delivery attempts per notification.
	MaxAttempts int

	// InitialDelay is the first backoff delay; it doubles up to MaxDelay.
	InitialDelay time.Duration
	MaxDelay     time.Duration

	// BreakerThreshold is the number of consecutive undelivered
	// notifications after which delivery is suspended for BreakerCoolDown.
	BreakerThreshold int
	BreakerCoolDown  time.Duration

	Logger *slog.Logger
}

// DefaultNotifierConfig returns sensible defaults.
func DefaultNotifierConfig(chatID int64) NotifierConfig {
	return NotifierConfig{
		ChatID:           chatID,
		MaxAttempts:      5,
		InitialDelay:     500 * time.Millisecond,
		MaxDelay:         30 * time.Second,
		BreakerThreshold: 3,
		BreakerCoolDown:  5 * time.Minute,
		Logger:           slog.Default(),
	}
}

// Notifier delivers change reports to the owner's private chat, retrying
// transient Bot API failures.
type Notifier struct {
	sender  HTMLSender
	chatID  int64
	retry   retry.Policy
	breaker *circuitbreaker.CircuitBreaker
	logger  *slog.Logger
}

// NewNotifier creates a new Notifier.
func NewNotifier(sender HTMLSender, config NotifierConfig) *Notifier {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	logger := config.Logger

	return &Notifier{
		sender: sender,
		chatID: config.ChatID,
		retry: retry.Policy{
			MaxAttempts:  config.MaxAttempts,
			InitialDelay: config.InitialDelay,
			MaxDelay:     config.MaxDelay,
			Jitter:       0.1,
			ShouldRetry:  IsRetryable,
			Hint:         RetryAfter,
			OnRetry: func(attempt int, err error, delay time.Duration) {
				logger.Warn("notification delivery failed, retrying",
					"attempt", attempt,
					"delay", delay.String(),
					"error", err,
				)
			},
		},
		breaker: circuitbreaker.New("telegram-notifier",
			circuitbreaker.WithFailureThreshold(config.BreakerThreshold),
			circuitbreaker.WithCoolDown(config.BreakerCoolDown),
			circuitbreaker.WithOnStateChange(func(name string, from, to circuitbreaker.State) {
				logger.Warn("notifier circuit changed state", "breaker", name, "from", from.String(), "to", to.String())
			}),
		),
		logger: logger,
	}
}

// Notify sends text as HTML to the owner. While the Bot API keeps failing,
// notifications are rejected without being sent.
func (n *Notifier) Notify(ctx context.Context, text string) error {
	err := n.breaker.Execute(ctx, func(ctx context.Context) error {
		return n.retry.Do(ctx, func(ctx context.Context) error {
			_, err := n.sender.SendHTML(ctx, n.chatID, text)
			return err
		})
	})
	if err != nil {
		return shared.WrapError("telegram", "Notify", shared.ErrExternalService,
			fmt.Sprintf("deliver to chat %d", n.chatID), err)
	}
	return nil
}
