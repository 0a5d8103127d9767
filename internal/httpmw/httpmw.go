// Package httpmw provides the HTTP-layer middleware used by the Decision
// Engine and Parameter Store servers: CORS headers (both servers) and
// per-route request metrics/tracing (the Decision Engine's /decide route).
package httpmw

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// CORSConfig configures allowed origins/methods/headers for CORS responses.
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// CORS returns middleware that sets CORS headers and short-circuits
// preflight OPTIONS requests.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	methods := cfg.AllowedMethods
	if len(methods) == 0 {
		methods = []string{"GET", "POST", "OPTIONS"}
	}
	headers := cfg.AllowedHeaders
	if len(headers) == 0 {
		headers = []string{"Content-Type", "Authorization", "Idempotency-Key"}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origins[0])
			w.Header().Set("Access-Control-Allow-Methods", join(methods))
			w.Header().Set("Access-Control-Allow-Headers", join(headers))
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func join(values []string) string {
	if len(values) == 0 {
		return ""
	}
	out := values[0]
	for i := 1; i < len(values); i++ {
		out += ", " + values[i]
	}
	return out
}

// RequestMetrics records per-route request counts, latency, and a trace
// span, using the default Prometheus registerer so they surface on the
// same /metrics endpoint as the domain-specific decisioncore metrics.
type RequestMetrics struct {
	tracer    trace.Tracer
	requests  *prometheus.CounterVec
	durations *prometheus.HistogramVec
}

var (
	requestMetricsOnce sync.Once
	requests           *prometheus.CounterVec
	durations          *prometheus.HistogramVec
)

// NewRequestMetrics returns middleware builders keyed by route for the
// named service. The underlying counters are registered once per process,
// regardless of how many servers call this.
func NewRequestMetrics(serviceName string) *RequestMetrics {
	requestMetricsOnce.Do(func() {
		requests = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "decisioncore",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed, segmented by service, route, method, and status.",
		}, []string{"service", "route", "method", "status"})
		durations = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "decisioncore",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency, segmented by service and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"service", "route"})
		prometheus.MustRegister(requests, durations)
	})
	return &RequestMetrics{
		tracer:    otel.Tracer(serviceName),
		requests:  requests,
		durations: durations,
	}
}

// Middleware wraps next with a trace span and request/latency metrics for route.
func (m *RequestMetrics) Middleware(service, route string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx, span := m.tracer.Start(r.Context(), route, trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.route", route),
			))
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(recorder, r.WithContext(ctx))
			span.SetAttributes(attribute.Int("http.status_code", recorder.status))
			span.End()

			m.requests.WithLabelValues(service, route, r.Method, http.StatusText(recorder.status)).Inc()
			m.durations.WithLabelValues(service, route).Observe(time.Since(start).Seconds())
		})
	}
}

// Handler exposes the default Prometheus registry (shared with
// internal/metrics) as a /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}
