// Package uwaterloo implements the University of Waterloo OpenAPI v3 client.
// It is the schedule source for terms and class sections.
package uwaterloo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/uwcourse/course-watch/internal/domain/course"
	"github.com/uwcourse/course-watch/internal/domain/shared"
)

// DefaultBaseURL is the public OpenAPI v3 endpoint.
const DefaultBaseURL = "https://openapi.data.uwaterloo.ca/v3"

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ClientConfig contains configuration for the OpenAPI client.
type ClientConfig struct {
	// BaseURL is the API base URL, without a trailing slash.
	BaseURL string

	// APIKey is sent in the X-API-KEY header.
	APIKey string

	// Timeout is the HTTP request timeout.
	Timeout time.Duration

	// RequestsPerSecond spaces consecutive requests. Zero disables limiting.
	RequestsPerSecond float64

	// Burst is the number of requests allowed back to back.
	Burst int

	// Logger for structured logging
	Logger *slog.Logger
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(apiKey string) ClientConfig {
	return ClientConfig{
		BaseURL:           DefaultBaseURL,
		APIKey:            apiKey,
		Timeout:           30 * time.Second,
		RequestsPerSecond: 2,
		Burst:             1,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client is the OpenAPI client. It implements course.ScheduleSource.
// Failures are returned as-is; the caller decides whether to try again later.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

var _ course.ScheduleSource = (*Client)(nil)

// NewClient creates a new OpenAPI client.
func NewClient(config ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	limit := rate.Inf
	if config.RequestsPerSecond > 0 {
		limit = rate.Limit(config.RequestsPerSecond)
	}
	burst := config.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		limiter:    rate.NewLimiter(limit, burst),
		logger:     config.Logger.With("component", "uwaterloo_client"),
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Terms
// ─────────────────────────────────────────────────────────────────────────────

// ListTerms returns every term known to the API.
func (c *Client) ListTerms(ctx context.Context) ([]course.Term, error) {
	var dtos []TermDTO
	if err := c.get(ctx, "/terms", &dtos); err != nil {
		return nil, fmt.Errorf("uwaterloo: list terms: %w", err)
	}
	return TermsFromDTOs(dtos)
}

// CurrentTerm returns the term the API reports as current.
func (c *Client) CurrentTerm(ctx context.Context) (course.Term, error) {
	var dto TermDTO
	if err := c.get(ctx, "/terms/current", &dto); err != nil {
		return course.Term{}, fmt.Errorf("uwaterloo: current term: %w", err)
	}
	return TermFromDTO(&dto)
}

// ─────────────────────────────────────────────────────────────────────────────
// Class schedules
// ─────────────────────────────────────────────────────────────────────────────

// Sections returns the sections of courseCode ("MATH 237") in the given term,
// sorted by name. A 404 means the course is not offered and maps to
// course.ErrNoSchedules.
func (c *Client) Sections(ctx context.Context, termCode, courseCode string) (course.Sections, error) {
	subject, catalog, err := course.SplitCourseCode(courseCode)
	if err != nil {
		return nil, err
	}

	path := fmt.Sprintf("/classschedules/%s/%s/%s",
		url.PathEscape(termCode), url.PathEscape(subject), url.PathEscape(catalog))

	var dtos []ClassScheduleDTO
	if err := c.get(ctx, path, &dtos); err != nil {
		if shared.IsNoSchedules(err) {
			return nil, course.ErrNoSchedules
		}
		return nil, fmt.Errorf("uwaterloo: class schedules %s %s: %w", termCode, courseCode, err)
	}
	return SectionsFromDTOs(dtos)
}

// ══════════════════════════════════════════════════════════════════════════════
// HTTP REQUEST HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// get performs a rate-limited GET and decodes the JSON body into result.
func (c *Client) get(ctx context.Context, path string, result any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-KEY", c.config.APIKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	c.logger.Debug("uwaterloo api request",
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if err := classifyStatus(resp.StatusCode, body); err != nil {
		return err
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

// classifyStatus maps non-2xx statuses onto the domain error taxonomy.
func classifyStatus(status int, body []byte) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusNotFound:
		return shared.WrapError("uwaterloo", "Request", shared.ErrNoSchedules, "not found", &APIError{StatusCode: status})
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return shared.ErrScheduleAPIUnauthorized
	case status == http.StatusTooManyRequests:
		return shared.ErrScheduleAPIRateLimited
	case status >= 500:
		return shared.WrapError("uwaterloo", "Request", shared.ErrServiceUnavailable, "server error", &APIError{StatusCode: status, Body: truncate(body, 200)})
	default:
		return &APIError{StatusCode: status, Body: truncate(body, 200)}
	}
}

func truncate(b []byte, n int) string {
	s := strings.TrimSpace(string(b))
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
