package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	questionsAcceptedTotal prometheus.Counter
	questionsRejectedTotal *prometheus.CounterVec
	noContextTotal         prometheus.Counter
	retrievedPassages      *prometheus.HistogramVec
	generationDuration     *prometheus.HistogramVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "questora",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "questora",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "questora",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	questionsAcceptedTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "questora",
			Subsystem: "generation",
			Name:      "questions_accepted_total",
			Help:      "Total questions that passed validation and deduplication.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	questionsRejectedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "questora",
			Subsystem: "generation",
			Name:      "questions_rejected_total",
			Help:      "Total rejected question drafts by reason.",
		},
		[]string{"service", "reason"},
	)
	noContextTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "questora",
			Subsystem: "generation",
			Name:      "no_context_total",
			Help:      "Total requests refused for lack of retrieved legislation.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	retrievedPassages := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "questora",
			Subsystem: "retrieval",
			Name:      "passages_per_request",
			Help:      "Distribution of passages retrieved per request.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 10},
		},
		[]string{"service", "endpoint"},
	)
	generationDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "questora",
			Subsystem: "generation",
			Name:      "duration_seconds",
			Help:      "End-to-end generation duration in seconds.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 80, 160},
		},
		[]string{"service", "endpoint"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		questionsAcceptedTotal,
		questionsRejectedTotal,
		noContextTotal,
		retrievedPassages,
		generationDuration,
	)

	return &HTTPServerMetrics{
		registry:               registry,
		requestTotal:           requestTotal,
		requestDuration:        requestDuration,
		requestInFlight:        requestInFlight,
		questionsAcceptedTotal: questionsAcceptedTotal,
		questionsRejectedTotal: questionsRejectedTotal,
		noContextTotal:         noContextTotal,
		retrievedPassages:      retrievedPassages,
		generationDuration:     generationDuration,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/documents/"):
		return "/v1/documents/{document_id}"
	default:
		return path
	}
}

// GenerationRecorder narrows HTTPServerMetrics to the per-question hooks the
// generation pipeline reports to. The topic is deliberately not a label, its
// cardinality is unbounded.
type GenerationRecorder struct {
	metrics *HTTPServerMetrics
	service string
}

func (m *HTTPServerMetrics) GenerationRecorder(service string) *GenerationRecorder {
	return &GenerationRecorder{metrics: m, service: service}
}

func (r *GenerationRecorder) QuestionAccepted(string) {
	r.metrics.questionsAcceptedTotal.Inc()
}

func (r *GenerationRecorder) QuestionRejected(_ string, reason string) {
	if reason == "" {
		reason = "unknown"
	}
	r.metrics.questionsRejectedTotal.WithLabelValues(r.service, reason).Inc()
}

func (r *GenerationRecorder) NoContext(string) {
	r.metrics.noContextTotal.Inc()
}

func (m *HTTPServerMetrics) RecordRetrievalObservation(service, endpoint string, passageCount int) {
	m.retrievedPassages.WithLabelValues(service, endpoint).Observe(float64(passageCount))
}

func (m *HTTPServerMetrics) RecordGenerationDuration(service, endpoint string, duration time.Duration) {
	m.generationDuration.WithLabelValues(service, endpoint).Observe(duration.Seconds())
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
