package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fieldservice/jobvisit/internal/store"
	"github.com/fieldservice/jobvisit/pkg/log"
	"github.com/fieldservice/jobvisit/pkg/migrations"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate the db",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		logger := log.InitLog(log.ParseLevel(cfg.Service.LogLevel))
		defer func() { _ = logger.Sync() }()

		undo := zap.ReplaceGlobals(logger)
		defer undo()

		zap.S().Info("Initializing data store")
		db, err := store.InitDB(cfg)
		if err != nil {
			zap.S().Fatalw("initializing data store", "error", err)
		}

		store := store.NewStore(db)
		defer store.Close()

		if err := migrations.MigrateStore(db, cfg); err != nil {
			zap.S().Fatalw("running migrations", "error", err)
		}

		zap.S().Info("Db migrated")
		return nil
	},
}
