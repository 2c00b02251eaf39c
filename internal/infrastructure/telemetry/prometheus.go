package telemetry

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/helpdesk/backend/internal/domain/shared"
	"github.com/helpdesk/backend/internal/domain/ticket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsNamespace prefixes every exported metric
const MetricsNamespace = "helpdesk"

// HTTPDurationBuckets are bucket boundaries for HTTP request duration (seconds).
var HTTPDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// Metrics owns a private Prometheus registry and the collectors recorded
// by the HTTP layer, the application services and the event bus.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	ticketsCreated    prometheus.Counter
	ticketAssignments prometheus.Counter
	ticketTransitions *prometheus.CounterVec
	notifications     *prometheus.CounterVec
	logins            *prometheus.CounterVec
	passwordResets    *prometheus.CounterVec
	taskRuns          *prometheus.CounterVec
	taskDuration      *prometheus.HistogramVec
}

// NewMetrics registers the process, Go runtime and helpdesk collectors
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status code",
		}, []string{"method", "route", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: MetricsNamespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   HTTPDurationBuckets,
		}, []string{"method", "route"}),
		ticketsCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "tickets_created_total",
			Help:      "Tickets opened",
		}),
		ticketAssignments: f.NewCounter(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "ticket_assignments_total",
			Help:      "Ticket assignments and reassignments",
		}),
		ticketTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "ticket_status_transitions_total",
			Help:      "Ticket status changes",
		}, []string{"from", "to"}),
		notifications: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "notifications_total",
			Help:      "Outbound notifications by channel and result",
		}, []string{"channel", "result"}),
		logins: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: "auth",
			Name:      "logins_total",
			Help:      "Login attempts by result",
		}, []string{"result"}),
		passwordResets: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: "auth",
			Name:      "password_reset_requests_total",
			Help:      "Password reset codes issued by channel",
		}, []string{"channel"}),
		taskRuns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: "scheduler",
			Name:      "task_runs_total",
			Help:      "Housekeeping task runs by task and result",
		}, []string{"task", "result"}),
		taskDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: MetricsNamespace,
			Subsystem: "scheduler",
			Name:      "task_duration_seconds",
			Help:      "Housekeeping task run time",
			Buckets:   prometheus.DefBuckets,
		}, []string{"task"}),
	}
}

// Registry exposes the underlying registry, mainly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RegisterDB adds connection pool statistics for db
func (m *Metrics) RegisterDB(db *sql.DB, name string) error {
	return m.registry.Register(collectors.NewDBStatsCollector(db, name))
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// GinMiddleware records request count and latency per matched route.
// Unmatched routes are folded into one label to bound cardinality.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		m.httpRequests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// RecordNotification counts one delivery attempt
func (m *Metrics) RecordNotification(channel string, err error) {
	result := "sent"
	if err != nil {
		result = "failed"
	}
	m.notifications.WithLabelValues(channel, result).Inc()
}

// RecordTaskRun counts one scheduled task run
func (m *Metrics) RecordTaskRun(task string, duration time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "failed"
	}
	m.taskRuns.WithLabelValues(task, result).Inc()
	m.taskDuration.WithLabelValues(task).Observe(duration.Seconds())
}

// RecordLogin counts one login attempt
func (m *Metrics) RecordLogin(success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	m.logins.WithLabelValues(result).Inc()
}

// RecordPasswordReset counts one issued reset code
func (m *Metrics) RecordPasswordReset(channel string) {
	m.passwordResets.WithLabelValues(channel).Inc()
}

// EventTypes implements shared.EventHandler
func (m *Metrics) EventTypes() []string {
	return []string{
		ticket.EventTypeTicketCreated,
		ticket.EventTypeTicketAssigned,
		ticket.EventTypeTicketStatusChanged,
	}
}

// Handle implements shared.EventHandler by counting ticket lifecycle events
func (m *Metrics) Handle(_ context.Context, ev shared.DomainEvent) error {
	switch e := ev.(type) {
	case *ticket.TicketCreatedEvent:
		m.ticketsCreated.Inc()
	case *ticket.TicketAssignedEvent:
		m.ticketAssignments.Inc()
	case *ticket.TicketStatusChangedEvent:
		m.ticketTransitions.WithLabelValues(string(e.From), string(e.To)).Inc()
	}
	return nil
}
