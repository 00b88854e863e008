package client

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	"k8s.io/client-go/util/homedir"
	"sigs.k8s.io/yaml"
)

const (
	// TestRootDirEnvKey relocates every config path under a scratch root in tests.
	TestRootDirEnvKey = "JOBVISIT_TEST_ROOT_DIR"

	defaultTimeout = 10 * time.Second
)

// Config holds the information needed to reach a job visit API server
// on behalf of one actor.
type Config struct {
	Service Service `json:"service"`
	Actor   Actor   `json:"actor"`

	testRootDir string
}

type Service struct {
	// Server is the URL of the API server, without the /api/v1 prefix.
	Server  string        `json:"server"`
	Timeout time.Duration `json:"timeout,omitempty"`
}

type Actor struct {
	ID   string `json:"id"`
	Role string `json:"role,omitempty"`
}

func NewDefault() *Config {
	c := &Config{Service: Service{Timeout: defaultTimeout}}
	if root := os.Getenv(TestRootDirEnvKey); root != "" {
		c.testRootDir = filepath.Clean(root)
	}
	return c
}

// DefaultClientConfigPath is ~/.jobvisit/client.yaml.
func DefaultClientConfigPath() string {
	return filepath.Join(homedir.HomeDir(), ".jobvisit", "client.yaml")
}

func (c *Config) path(filename string) string {
	if c.testRootDir == "" {
		return filename
	}
	return filepath.Join(c.testRootDir, filename)
}

func ParseConfigFile(filename string) (*Config, error) {
	cfg := NewDefault()
	contents, err := os.ReadFile(cfg.path(filename))
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(contents, cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, cfg.Validate()
}

// WriteConfig stores a config for the given server and actor at filename,
// creating the parent directory if needed.
func WriteConfig(filename string, server string, actor Actor) error {
	cfg := NewDefault()
	cfg.Service.Server = server
	cfg.Actor = actor
	return cfg.Persist(filename)
}

func (c *Config) Persist(filename string) error {
	contents, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	target := c.path(filename)
	if err := os.MkdirAll(filepath.Dir(target), 0700); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	if err := os.WriteFile(target, contents, 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error
	errs = append(errs, c.Service.validate()...)
	if strings.TrimSpace(c.Actor.ID) == "" {
		errs = append(errs, errors.New("no actor id found"))
	}
	if agg := utilerrors.NewAggregate(errs); agg != nil {
		return fmt.Errorf("invalid configuration: %w", agg)
	}
	return nil
}

func (s Service) validate() []error {
	var errs []error
	switch u, err := url.Parse(s.Server); {
	case s.Server == "":
		errs = append(errs, errors.New("no server found"))
	case err != nil:
		errs = append(errs, fmt.Errorf("invalid server format %q: %w", s.Server, err))
	case u.Hostname() == "":
		errs = append(errs, fmt.Errorf("invalid server format %q: no hostname", s.Server))
	}
	if s.Timeout < 0 {
		errs = append(errs, fmt.Errorf("negative timeout %s", s.Timeout))
	}
	return errs
}
