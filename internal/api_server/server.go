package apiserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/fieldservice/jobvisit/internal/auth"
	"github.com/fieldservice/jobvisit/internal/config"
	"github.com/fieldservice/jobvisit/internal/guardrail"
	handlers "github.com/fieldservice/jobvisit/internal/handlers/v1alpha1"
	"github.com/fieldservice/jobvisit/internal/lifecycle"
	"github.com/fieldservice/jobvisit/internal/service"
	"github.com/fieldservice/jobvisit/internal/store"
	"github.com/fieldservice/jobvisit/pkg/clock"
	"github.com/fieldservice/jobvisit/pkg/metrics"
	"github.com/fieldservice/jobvisit/pkg/middleware"
)

const (
	gracefulShutdownTimeout = 5 * time.Second
)

type Server struct {
	cfg      *config.Config
	store    store.Store
	listener net.Listener
	engine   *guardrail.Engine
	clock    clock.Clock
}

// New returns a new instance of the job visit api server. The engine carries
// the field policy and audit sink the services share.
func New(
	cfg *config.Config,
	store store.Store,
	listener net.Listener,
	engine *guardrail.Engine,
) *Server {
	return &Server{
		cfg:      cfg,
		store:    store,
		listener: listener,
		engine:   engine,
		clock:    clock.Real(),
	}
}

// Handler builds the router with the full middleware chain.
func (s *Server) Handler() (http.Handler, error) {
	router := chi.NewRouter()

	metricMiddleware := metrics.NewMiddleware("api_server")
	if err := metricMiddleware.Register(prometheus.DefaultRegisterer); err != nil {
		return nil, err
	}

	router.Use(
		metricMiddleware.Handler,
		cors.Handler(cors.Options{
			AllowedOrigins:   s.cfg.Service.AllowedOrigins,
			AllowedMethods:   []string{"GET", "PUT", "POST", "PATCH", "DELETE", "HEAD", "OPTIONS"},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: true,
			MaxAge:           300,
		}),
		auth.NewIdentifier().Identifier,
		middleware.RequestID,
		middleware.Logger(),
		chiMiddleware.Recoverer,
	)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		render.Status(r, http.StatusOK)
		render.JSON(w, r, map[string]string{"status": "ok"})
	})

	location := s.cfg.Location()
	deriver := lifecycle.NewStatusDeriver(s.clock, location)
	visitService := service.NewVisitService(s.store, s.engine, deriver,
		service.WithVisitClock(s.clock),
		service.WithMinVisitDuration(s.cfg.Visit.MinVisitDuration),
	)

	h := handlers.NewServiceHandler(
		service.NewJobService(s.store, s.engine, deriver),
		visitService,
		service.NewScopeService(s.store),
		service.NewProjectService(s.store),
		service.NewReportService(visitService, s.clock, location),
	)
	h.Routes(router)

	return router, nil
}

func (s *Server) Run(ctx context.Context) error {
	zap.S().Named("api_server").Info("Initializing API server")

	router, err := s.Handler()
	if err != nil {
		return err
	}
	return serve(ctx, &http.Server{Addr: s.cfg.Service.Address, Handler: router}, s.listener, "api_server")
}

// serve runs srv on l until ctx is done, then drains it.
func serve(ctx context.Context, srv *http.Server, l net.Listener, name string) error {
	logger := zap.S().Named(name)

	go func() {
		<-ctx.Done()
		logger.Infof("Shutdown signal received: %s", ctx.Err())
		ctxTimeout, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
		defer cancel()

		srv.SetKeepAlivesEnabled(false)
		_ = srv.Shutdown(ctxTimeout)
		logger.Info("server terminated")
	}()

	logger.Infof("Listening on %s...", l.Addr().String())
	err := srv.Serve(l)
	if errors.Is(err, net.ErrClosed) || errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
