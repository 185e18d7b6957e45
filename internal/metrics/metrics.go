package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of the dashboard.
type Metrics struct {
	Registry         *prometheus.Registry
	APIRequests      *prometheus.CounterVec
	APIDuration      *prometheus.HistogramVec
	HTTPRequests     *prometheus.CounterVec
	RequestsInFlight prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		APIRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "blogmod",
				Name:      "api_requests_total",
				Help:      "Requests sent to the content API",
			},
			[]string{"operation", "status"},
		),
		APIDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "blogmod",
				Name:      "api_request_duration_seconds",
				Help:      "Content API request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "blogmod",
				Name:      "http_requests_total",
				Help:      "Dashboard requests served",
			},
			[]string{"method", "status"},
		),
		RequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "blogmod",
				Name:      "http_requests_in_flight",
				Help:      "Dashboard requests currently being served",
			},
		),
	}
	reg.MustRegister(m.APIRequests, m.APIDuration, m.HTTPRequests, m.RequestsInFlight)
	return m
}

// ObserveAPI records one content API call. status is the HTTP status code,
// or 0 when no response was received.
func (m *Metrics) ObserveAPI(operation string, status int, start time.Time) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.APIRequests.WithLabelValues(operation, label).Inc()
	m.APIDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// Middleware counts dashboard requests by method and status.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.RequestsInFlight.Inc()
		defer m.RequestsInFlight.Dec()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.HTTPRequests.WithLabelValues(r.Method, strconv.Itoa(status)).Inc()
	})
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
