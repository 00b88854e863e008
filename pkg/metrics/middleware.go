package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	RequestsCollectorName = "http_requests_total"
	LatencyCollectorName  = "http_request_duration_milliseconds"
)

var latencyBuckets = []float64{25, 100, 300, 800, 2000, 5000}

// Middleware exposes request counts and latency partitioned by status
// code, method and route pattern. Route patterns keep job ids out of the
// label values.
type Middleware struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

func NewMiddleware(name string) *Middleware {
	return &Middleware{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Subsystem:   jobVisit,
				Name:        RequestsCollectorName,
				Help:        "Number of HTTP requests partitioned by status code, method and route.",
				ConstLabels: prometheus.Labels{"server": name},
			}, []string{"code", "method", "path"}),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Subsystem:   jobVisit,
				Name:        LatencyCollectorName,
				Help:        "Time spent on the request partitioned by status code, method and route.",
				ConstLabels: prometheus.Labels{"server": name},
				Buckets:     latencyBuckets,
			}, []string{"code", "method", "path"}),
	}
}

func (m *Middleware) Handler(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		rctx := chi.RouteContext(r.Context())
		if rctx == nil {
			return
		}
		code := strconv.Itoa(ww.Status())
		rp := rctx.RoutePattern()
		m.requests.WithLabelValues(code, r.Method, rp).Inc()
		m.latency.WithLabelValues(code, r.Method, rp).Observe(float64(time.Since(start).Milliseconds()))
	}
	return http.HandlerFunc(fn)
}

// Register adds the collectors to reg. Registering twice is not an
// error so several servers in one test binary can share a registry.
func (m *Middleware) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.requests, m.latency} {
		if err := reg.Register(c); err != nil {
			if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
				switch existing := are.ExistingCollector.(type) {
				case *prometheus.CounterVec:
					m.requests = existing
				case *prometheus.HistogramVec:
					m.latency = existing
				}
				continue
			}
			return err
		}
	}
	return nil
}
