package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/fieldservice/jobvisit/internal/config"
)

// InitDB opens the database described by cfg. "pgsql" goes through the
// instrumented pgx driver, anything else is treated as a sqlite DSN.
func InitDB(cfg *config.Config) (*gorm.DB, error) {
	log := zap.S().Named("gorm")
	pg := cfg.Database.Type == "pgsql"

	db, err := gorm.Open(dialector(cfg), &gorm.Config{
		Logger: logger.New(logrus.New(), logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true,
		}),
		TranslateError: true,
	})
	if err != nil {
		log.Errorf("failed to connect database: %v", err)
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Errorf("failed to configure connections: %v", err)
		return nil, err
	}

	if !pg {
		// in-memory sqlite lives only as long as its one connection
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetMaxOpenConns(1)
		log.Infof("using sqlite database %q", cfg.Database.Name)
		return db, nil
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	var version string
	if err := db.Raw("SELECT version()").Scan(&version).Error; err != nil {
		log.Errorw("failed to query server version", "error", err)
		return nil, err
	}
	log.Infof("connected to %s", version)

	return db, nil
}

func dialector(cfg *config.Config) gorm.Dialector {
	if cfg.Database.Type != "pgsql" {
		return sqlite.Open(cfg.Database.Name)
	}
	return postgres.New(postgres.Config{DriverName: metricsDriver(), DSN: postgresDSN(cfg)})
}

func postgresDSN(cfg *config.Config) string {
	parts := []string{
		fmt.Sprintf("host=%s", cfg.Database.Hostname),
		fmt.Sprintf("port=%s", cfg.Database.Port),
		fmt.Sprintf("user=%s", cfg.Database.User),
		fmt.Sprintf("password=%s", cfg.Database.Password),
	}
	if cfg.Database.Name != "" {
		parts = append(parts, fmt.Sprintf("dbname=%s", cfg.Database.Name))
	}
	return strings.Join(parts, " ")
}
