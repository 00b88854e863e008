package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

var singleConfig *Config = nil

type Config struct {
	Database  *dbConfig
	Service   *svcConfig
	Guardrail *guardrailConfig
	Visit     *visitConfig
	Audit     *auditConfig
}

type dbConfig struct {
	Type     string `envconfig:"DB_TYPE" default:"pgsql"`
	Hostname string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	Name     string `envconfig:"DB_NAME" default:"jobvisit"`
	User     string `envconfig:"DB_USER" default:"admin"`
	Password string `envconfig:"DB_PASS" default:"adminpass"`
}

type svcConfig struct {
	Address         string   `envconfig:"JOBVISIT_ADDRESS" default:":3443"`
	MetricsAddress  string   `envconfig:"JOBVISIT_METRICS_ADDRESS" default:":8080"`
	LogLevel        string   `envconfig:"JOBVISIT_LOG_LEVEL" default:"info"`
	MigrationFolder string   `envconfig:"JOBVISIT_MIGRATIONS_FOLDER" default:""`
	AllowedOrigins  []string `envconfig:"JOBVISIT_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

type guardrailConfig struct {
	// PolicyFile optionally overrides the built-in field classification.
	PolicyFile string `envconfig:"JOBVISIT_GUARDRAIL_POLICY_FILE" default:""`
}

type visitConfig struct {
	MinVisitDuration time.Duration `envconfig:"JOBVISIT_MIN_VISIT_DURATION" default:"1m"`
	// TimeZone decides what "today" means when deriving a job status.
	TimeZone string `envconfig:"JOBVISIT_TIMEZONE" default:"UTC"`
}

type auditConfig struct {
	// Sink is either "stdout" or "redis".
	Sink          string `envconfig:"JOBVISIT_AUDIT_SINK" default:"stdout"`
	RedisAddr     string `envconfig:"JOBVISIT_AUDIT_REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"JOBVISIT_AUDIT_REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"JOBVISIT_AUDIT_REDIS_DB" default:"0"`
	Stream        string `envconfig:"JOBVISIT_AUDIT_STREAM" default:"jobvisit.audit.guardrail"`
}

func New() (*Config, error) {
	if singleConfig == nil {
		singleConfig = new(Config)
		if err := envconfig.Process("", singleConfig); err != nil {
			return nil, err
		}
	}
	return singleConfig, nil
}

// NewDefault returns the default configuration backed by an in-memory
// sqlite database. Used by tests and local runs.
func NewDefault() *Config {
	return &Config{
		Database: &dbConfig{
			Type: "sqlite",
			Name: "file::memory:?cache=shared",
		},
		Service: &svcConfig{
			Address:        ":3443",
			MetricsAddress: ":8080",
			LogLevel:       "debug",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Guardrail: &guardrailConfig{},
		Visit: &visitConfig{
			MinVisitDuration: time.Minute,
			TimeZone:         "UTC",
		},
		Audit: &auditConfig{
			Sink:   "stdout",
			Stream: "jobvisit.audit.guardrail",
		},
	}
}

// Location resolves the configured time zone, falling back to UTC.
func (c *Config) Location() *time.Location {
	if c.Visit == nil || c.Visit.TimeZone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Visit.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}
