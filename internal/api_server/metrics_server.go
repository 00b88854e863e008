package apiserver

import (
	"context"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricServer exposes the prometheus registry on its own listener so the
// scrape endpoint is never reachable through the public API address.
type MetricServer struct {
	listener net.Listener
	router   chi.Router
}

func NewMetricServer(listener net.Listener, gatherer prometheus.Gatherer) *MetricServer {
	router := chi.NewRouter()
	router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return &MetricServer{listener: listener, router: router}
}

func (m *MetricServer) Handler() http.Handler {
	return m.router
}

func (m *MetricServer) Run(ctx context.Context) error {
	return serve(ctx, &http.Server{Handler: m.router}, m.listener, "metrics_server")
}
