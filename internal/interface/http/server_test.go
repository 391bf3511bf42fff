package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uwcourse/course-watch/internal/interface/http/handlers"
)

type fakeCalendar struct {
	body string
	err  error
}

func (f fakeCalendar) Export(_ context.Context, w io.Writer) error {
	if f.err != nil {
		return f.err
	}
	_, err := io.WriteString(w, f.body)
	return err
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func do(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthz(t *testing.T) {
	health := handlers.NewChecker("test")
	health.Add("store", handlers.PingCheck(pingFunc(func(context.Context) error { return nil })))
	s := NewServer(DefaultConfig(), Dependencies{Health: health})

	rec := do(t, s, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var report handlers.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.True(t, report.Healthy)
	assert.True(t, report.Components["store"].Healthy)

	health.Add("redis", handlers.PingCheck(pingFunc(func(context.Context) error { return errors.New("refused") })))
	rec = do(t, s, "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "failing: redis")
}

func TestCalendar(t *testing.T) {
	s := NewServer(DefaultConfig(), Dependencies{Calendar: fakeCalendar{body: "BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"}})

	rec := do(t, s, "/calendar.ics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/calendar; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "BEGIN:VCALENDAR")
}

func TestCalendar_ExportError(t *testing.T) {
	s := NewServer(DefaultConfig(), Dependencies{Calendar: fakeCalendar{err: errors.New("store unreadable")}})

	rec := do(t, s, "/calendar.ics")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestMetrics(t *testing.T) {
	s := NewServer(DefaultConfig(), Dependencies{})

	rec := do(t, s, "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestRunningCheck(t *testing.T) {
	s := NewServer(DefaultConfig(), Dependencies{})
	check := handlers.RunningCheck("http", s)

	assert.Error(t, check(context.Background()))
}
