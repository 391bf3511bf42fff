package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uwcourse/course-watch/internal/domain/shared"
	"github.com/uwcourse/course-watch/pkg/circuitbreaker"
)

type recordedCall struct {
	Method string
	Body   map[string]any
}

func newBotAPI(t *testing.T, respond func(method string, call int) (int, string)) (*Client, *[]recordedCall) {
	t.Helper()
	var (
		mu    sync.Mutex
		calls []recordedCall
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		method := r.URL.Path[len("/bottest-token/"):]

		mu.Lock()
		calls = append(calls, recordedCall{Method: method, Body: body})
		n := len(calls)
		mu.Unlock()

		status, payload := respond(method, n)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(payload))
	}))
	t.Cleanup(srv.Close)

	cfg := DefaultClientConfig("test-token")
	cfg.BaseURL = srv.URL
	cfg.Timeout = 5 * time.Second
	return NewClient(cfg), &calls
}

func TestClient_SendHTML(t *testing.T) {
	c, calls := newBotAPI(t, func(string, int) (int, string) {
		return 200, `{"ok":true,"result":{"message_id":7,"chat":{"id":42,"type":"private"},"date":0,"text":"hi"}}`
	})

	msg, err := c.SendHTML(context.Background(), 42, "<b>hi</b>")

	require.NoError(t, err)
	assert.Equal(t, int64(7), msg.MessageID)
	require.Len(t, *calls, 1)
	call := (*calls)[0]
	assert.Equal(t, "sendMessage", call.Method)
	assert.Equal(t, "HTML", call.Body["parse_mode"])
	assert.Equal(t, true, call.Body["disable_web_page_preview"])
	assert.Equal(t, float64(42), call.Body["chat_id"])
}

func TestClient_APIErrors(t *testing.T) {
	c, _ := newBotAPI(t, func(string, int) (int, string) {
		return 429, `{"ok":false,"error_code":429,"description":"Too Many Requests","parameters":{"retry_after":3}}`
	})

	_, err := c.SendHTML(context.Background(), 1, "x")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 429, apiErr.Code)
	assert.True(t, errors.Is(err, shared.ErrRateLimited))
	assert.True(t, IsRetryable(err))
	assert.Equal(t, 3*time.Second, RetryAfter(err))
	assert.NotContains(t, err.Error(), "test-token")
}

func TestClient_NonRetryable(t *testing.T) {
	c, _ := newBotAPI(t, func(string, int) (int, string) {
		return 400, `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`
	})

	_, err := c.SendHTML(context.Background(), 1, "x")

	require.Error(t, err)
	assert.False(t, IsRetryable(err))
	assert.True(t, shared.IsExternalService(err))
}

func TestIsRetryable_ClassifiesBotAPIErrors(t *testing.T) {
	assert.True(t, IsRetryable(&APIError{Code: 429}))
	assert.True(t, IsRetryable(&APIError{Code: 502}))
	assert.False(t, IsRetryable(&APIError{Code: 400}))
	assert.False(t, IsRetryable(&APIError{Code: 403}))
	assert.True(t, IsRetryable(&NetworkError{Method: "sendMessage", Err: errors.New("connection reset")}))
	assert.False(t, IsRetryable(fmt.Errorf("send: %w", context.Canceled)))
	assert.False(t, IsRetryable(errors.New("boom")))
	assert.False(t, IsRetryable(nil))
}

func TestNotifier_RetriesTransientFailures(t *testing.T) {
	c, calls := newBotAPI(t, func(_ string, n int) (int, string) {
		if n < 3 {
			return 502, `{"ok":false,"error_code":502,"description":"Bad Gateway"}`
		}
		return 200, `{"ok":true,"result":{"message_id":1,"chat":{"id":5,"type":"private"},"date":0}}`
	})
	cfg := DefaultNotifierConfig(5)
	cfg.InitialDelay = time.Millisecond
	n := NewNotifier(c, cfg)

	require.NoError(t, n.Notify(context.Background(), "Course info changed:"))
	assert.Len(t, *calls, 3)
	assert.Equal(t, float64(5), (*calls)[2].Body["chat_id"])
}

func TestNotifier_GivesUpOnPermanentFailure(t *testing.T) {
	c, calls := newBotAPI(t, func(string, int) (int, string) {
		return 403, `{"ok":false,"error_code":403,"description":"Forbidden: bot was blocked by the user"}`
	})
	n := NewNotifier(c, DefaultNotifierConfig(5))

	err := n.Notify(context.Background(), "x")

	assert.ErrorIs(t, err, shared.ErrExternalService)
	assert.Len(t, *calls, 1)
}

func TestStartPolling_AdvancesOffset(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c, calls := newBotAPI(t, func(_ string, n int) (int, string) {
		if n == 1 {
			return 200, `{"ok":true,"result":[
				{"update_id":10,"message":{"message_id":1,"chat":{"id":1,"type":"private"},"date":0,"text":"/list"}},
				{"update_id":11,"message":{"message_id":2,"chat":{"id":1,"type":"private"},"date":0,"text":"/clear"}}]}`
		}
		cancel()
		return 200, `{"ok":true,"result":[]}`
	})

	var seen []int64
	err := c.StartPolling(ctx, func(_ context.Context, u *Update) {
		seen = append(seen, u.UpdateID)
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []int64{10, 11}, seen)
	require.GreaterOrEqual(t, len(*calls), 2)
	assert.Equal(t, float64(12), (*calls)[1].Body["offset"])
}

func TestExtractCommand(t *testing.T) {
	msg := &Message{
		Text:     "/Add@course_bot  W23 MATH 237 ",
		Entities: []MessageEntity{{Type: "bot_command", Offset: 0, Length: 15}},
	}
	assert.Equal(t, "add", ExtractCommand(msg))
	assert.Equal(t, "W23 MATH 237", ExtractCommandArgs(msg))

	plain := &Message{Text: "hello"}
	assert.Equal(t, "", ExtractCommand(plain))
	assert.Equal(t, "", ExtractCommandArgs(plain))

	bare := &Message{Text: "/list", Entities: []MessageEntity{{Type: "bot_command", Length: 5}}}
	assert.Equal(t, "list", ExtractCommand(bare))
	assert.Equal(t, "", ExtractCommandArgs(bare))
}

func TestNotifier_SuspendsAfterRepeatedFailures(t *testing.T) {
	c, calls := newBotAPI(t, func(string, int) (int, string) {
		return 403, `{"ok":false,"error_code":403,"description":"Forbidden: bot was blocked by the user"}`
	})
	cfg := DefaultNotifierConfig(5)
	cfg.BreakerThreshold = 2
	n := NewNotifier(c, cfg)
	ctx := context.Background()

	require.Error(t, n.Notify(ctx, "a"))
	require.Error(t, n.Notify(ctx, "b"))
	err := n.Notify(ctx, "c")

	assert.ErrorIs(t, err, circuitbreaker.ErrCircuitOpen)
	assert.ErrorIs(t, err, shared.ErrExternalService)
	assert.Len(t, *calls, 2)
}
