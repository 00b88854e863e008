package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	apiserver "github.com/fieldservice/jobvisit/internal/api_server"
	"github.com/fieldservice/jobvisit/internal/config"
	"github.com/fieldservice/jobvisit/internal/events"
	"github.com/fieldservice/jobvisit/internal/guardrail"
	"github.com/fieldservice/jobvisit/internal/store"
	"github.com/fieldservice/jobvisit/pkg/log"
	"github.com/fieldservice/jobvisit/pkg/migrations"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the job visit api",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		logger := log.InitLog(log.ParseLevel(cfg.Service.LogLevel))
		defer func() { _ = logger.Sync() }()

		undo := zap.ReplaceGlobals(logger)
		defer undo()

		zap.S().Info("Starting API service")
		defer zap.S().Info("API service stopped")

		zap.S().Info("Initializing data store")
		db, err := store.InitDB(cfg)
		if err != nil {
			zap.S().Fatalw("initializing data store", "error", err)
		}

		store := store.NewStore(db)
		defer store.Close()

		if cfg.Service.MigrationFolder != "" {
			if err := migrations.MigrateStore(db, cfg); err != nil {
				zap.S().Fatalw("running migrations", "error", err)
			}
		} else if err := store.InitialMigration(context.Background()); err != nil {
			zap.S().Fatalw("running initial migration", "error", err)
		}

		producer, err := newAuditProducer(cfg)
		if err != nil {
			zap.S().Fatalw("creating audit producer", "error", err)
		}
		defer func() { _ = producer.Close() }()

		engine, err := newEngine(cfg, producer)
		if err != nil {
			zap.S().Fatalw("loading guardrail policy", "error", err)
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
		go func() {
			defer cancel()
			listener, err := newListener(cfg.Service.Address)
			if err != nil {
				zap.S().Fatalw("creating listener", "error", err)
			}

			server := apiserver.New(cfg, store, listener, engine)
			if err := server.Run(ctx); err != nil {
				zap.S().Fatalw("Error running server", "error", err)
			}
		}()

		go func() {
			defer cancel()
			listener, err := newListener(cfg.Service.MetricsAddress)
			if err != nil {
				zap.S().Fatalw("creating listener", "error", err)
			}

			metricsServer := apiserver.NewMetricServer(listener, prometheus.DefaultGatherer)
			if err := metricsServer.Run(ctx); err != nil {
				zap.S().Fatalw("Error running metrics server", "error", err)
			}
		}()

		<-ctx.Done()
		return nil
	},
}

func newAuditProducer(cfg *config.Config) (*events.EventProducer, error) {
	var writer events.Writer
	switch cfg.Audit.Sink {
	case "stdout", "":
		writer = &events.StdoutWriter{}
	case "redis":
		writer = events.NewRedisStreamWriter(redis.NewClient(&redis.Options{
			Addr:     cfg.Audit.RedisAddr,
			Password: cfg.Audit.RedisPassword,
			DB:       cfg.Audit.RedisDB,
		}))
	default:
		return nil, fmt.Errorf("unknown audit sink %q", cfg.Audit.Sink)
	}
	return events.NewEventProducer(writer, events.WithOutputTopic(cfg.Audit.Stream)), nil
}

func newEngine(cfg *config.Config, sink guardrail.AuditSink) (*guardrail.Engine, error) {
	policy := guardrail.DefaultPolicy()
	if cfg.Guardrail.PolicyFile != "" {
		p, err := guardrail.LoadPolicy(cfg.Guardrail.PolicyFile)
		if err != nil {
			return nil, err
		}
		policy = p
	}
	return guardrail.NewEngine(guardrail.NewClassifier(policy), guardrail.WithAuditSink(sink)), nil
}

func newListener(address string) (net.Listener, error) {
	if address == "" {
		address = "localhost:0"
	}
	return net.Listen("tcp", address)
}
