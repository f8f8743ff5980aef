package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	activeConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_connections",
			Help: "Number of active HTTP connections",
		},
	)
)

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		activeConnections.Inc()
		defer activeConnections.Dec()

		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.statusCode)
		path := routePattern(r)

		httpRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// routePattern usa o padrão do chi (/leads/{id}) para não explodir a cardinalidade com IDs.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}

// LeadMetrics implementa usecase.LeadMetrics com contadores do Prometheus.
type LeadMetrics struct {
	assigned             prometheus.Counter
	queued               prometheus.Counter
	queueSize            prometheus.Gauge
	notificationFailures *prometheus.CounterVec
}

func NewLeadMetrics(reg prometheus.Registerer) *LeadMetrics {
	factory := promauto.With(reg)
	return &LeadMetrics{
		assigned: factory.NewCounter(prometheus.CounterOpts{
			Name: "leads_assigned_total",
			Help: "Total number of leads assigned to a seller",
		}),
		queued: factory.NewCounter(prometheus.CounterOpts{
			Name: "leads_queued_total",
			Help: "Total number of leads placed in the waiting queue",
		}),
		queueSize: factory.NewGauge(prometheus.GaugeOpts{
			Name: "lead_queue_size",
			Help: "Leads waiting in the queue at the last monitor run",
		}),
		notificationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lead_notification_failures_total",
			Help: "Notifications that could not be dispatched",
		}, []string{"type"}),
	}
}

func (m *LeadMetrics) LeadAssigned() {
	m.assigned.Inc()
}

func (m *LeadMetrics) LeadQueued() {
	m.queued.Inc()
}

func (m *LeadMetrics) QueueSize(n int) {
	m.queueSize.Set(float64(n))
}

func (m *LeadMetrics) NotificationFailed(t entity.NotificationType) {
	m.notificationFailures.WithLabelValues(string(t)).Inc()
}
