// Package metrics provides Prometheus metrics for the terminal server.
package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/enesbrtc/enes.codes/internal/dispatch"
)

const namespace = "enesterm"

type Metrics struct {
	gatherer prometheus.Gatherer

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Terminal metrics
	dispatchTotal   *prometheus.CounterVec
	sshLoginsTotal  prometheus.Counter
	terminalsActive prometheus.Gauge
	visitsTotal     *prometheus.CounterVec

	// Hub metrics
	hubMessagesTotal *prometheus.CounterVec
	outputFlushes    prometheus.Counter
}

// New registers the collectors on reg. A nil reg uses a fresh registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)
	return &Metrics{
		gatherer: reg,
		httpRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		dispatchTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dispatch_total",
				Help:      "Submitted terminal lines by dispatch outcome and command status",
			},
			[]string{"outcome", "status"},
		),
		sshLoginsTotal: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ssh_logins_total",
				Help:      "Completed simulated SSH logins",
			},
		),
		terminalsActive: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "terminals_active",
				Help:      "Number of open terminals",
			},
		),
		visitsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "visits_total",
				Help:      "Terminal connections by visitor kind",
			},
			[]string{"visitor"},
		),
		hubMessagesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "hub_messages_total",
				Help:      "Inbound websocket messages by type",
			},
			[]string{"type"},
		),
		outputFlushes: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "hub_output_flushes_total",
				Help:      "Batched output frames sent to clients",
			},
		),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ObserveDispatch records one submitted line.
func (m *Metrics) ObserveDispatch(res dispatch.Result) {
	status := string(res.Kernel.Status)
	if status == "" {
		status = "ok"
		if res.Err != nil {
			status = "rejected"
		}
	}
	m.dispatchTotal.WithLabelValues(string(res.Outcome), status).Inc()
	if res.Outcome == dispatch.AuthPassword && res.Err == nil {
		m.sshLoginsTotal.Inc()
	}
}

func (m *Metrics) TerminalOpened() {
	m.terminalsActive.Inc()
}

func (m *Metrics) TerminalClosed() {
	m.terminalsActive.Dec()
}

// RecordVisit counts a connection from a new or returning visitor.
func (m *Metrics) RecordVisit(returning bool) {
	kind := "new"
	if returning {
		kind = "returning"
	}
	m.visitsTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) RecordHubMessage(msgType string) {
	m.hubMessagesTotal.WithLabelValues(msgType).Inc()
}

func (m *Metrics) RecordOutputFlush() {
	m.outputFlushes.Inc()
}

// RecordHTTPRequest records an HTTP request metric.
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Hijack lets the websocket upgrade through the wrapper.
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	rw.statusCode = http.StatusSwitchingProtocols
	return hj.Hijack()
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Middleware records request metrics. label maps a request path to a
// bounded label value.
func (m *Metrics) Middleware(label func(path string) string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		m.RecordHTTPRequest(r.Method, label(r.URL.Path), rw.statusCode, time.Since(start))
	})
}
