package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ══════════════════════════════════════════════════════════════════════════════
// METRICS MIDDLEWARE
// ══════════════════════════════════════════════════════════════════════════════

var (
	// commandsTotal counts handled commands. Labels: command, status (success, error, panic)
	commandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coursewatch",
		Subsystem: "bot",
		Name:      "commands_total",
		Help:      "Total bot commands handled",
	}, []string{"command", "status"})

	// commandDuration measures command latency. Labels: command
	commandDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "coursewatch",
		Subsystem: "bot",
		Name:      "command_duration_seconds",
		Help:      "Bot command latency in seconds",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"command"})

	activeCommands = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "coursewatch",
		Subsystem: "bot",
		Name:      "active_commands",
		Help:      "Commands currently being handled",
	})
)

// MetricsConfig holds configuration for the metrics middleware.
type MetricsConfig struct {
	// KnownCommands bounds label cardinality; other commands are recorded
	// as "other".
	KnownCommands []string
}

// MetricsMiddleware records Prometheus metrics for bot commands.
type MetricsMiddleware struct {
	known map[string]bool
}

// NewMetricsMiddleware creates a new metrics middleware.
func NewMetricsMiddleware(config MetricsConfig) *MetricsMiddleware {
	known := make(map[string]bool, len(config.KnownCommands))
	for _, c := range config.KnownCommands {
		known[c] = true
	}
	return &MetricsMiddleware{known: known}
}

// RequestContext tracks one command execution.
type RequestContext struct {
	Command   string
	StartTime time.Time
}

// Start begins tracking a new request.
func (m *MetricsMiddleware) Start(command string) *RequestContext {
	if !m.known[command] {
		command = "other"
	}
	activeCommands.Inc()
	return &RequestContext{Command: command, StartTime: time.Now()}
}

// End completes tracking for a request.
func (rc *RequestContext) End(status string) {
	activeCommands.Dec()
	commandDuration.WithLabelValues(rc.Command).Observe(time.Since(rc.StartTime).Seconds())
	commandsTotal.WithLabelValues(rc.Command, status).Inc()
}
