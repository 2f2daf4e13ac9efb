// Package config assembles runtime configuration from defaults, an optional YAML
// file and environment overrides. CLI flags are applied on top by the caller.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/palantir/compute-module-people-directory/internal/directory"
)

// EnvConfigFile names the optional YAML config file.
const EnvConfigFile = "PEOPLEDIR_CONFIG"

type Config struct {
	Graph     GraphConfig     `yaml:"graph"`
	Directory DirectoryConfig `yaml:"directory"`
	Server    ServerConfig    `yaml:"server"`
	Module    ModuleConfig    `yaml:"module"`
	Log       LogConfig       `yaml:"log"`
}

type GraphConfig struct {
	// URL is the Graph host; v1.0 and beta are derived from it.
	URL string `yaml:"url"`
	// ServiceDiscovery is a YAML file with graph_v1 and graph_beta entries. It
	// takes precedence over URL.
	ServiceDiscovery string `yaml:"service_discovery"`
	// Token is a bearer token or a path to a file holding one.
	Token  string `yaml:"token"`
	CAPath string `yaml:"ca_path"`
}

type DirectoryConfig struct {
	PageSize        int           `yaml:"page_size"`
	Filter          string        `yaml:"filter"`
	OrderBy         string        `yaml:"order_by"`
	PresenceTimeout time.Duration `yaml:"presence_timeout"`
	MaxConcurrency  int           `yaml:"max_concurrency"`
	RateLimitRPS    float64       `yaml:"rate_limit_rps"`
}

type ServerConfig struct {
	Addr        string   `yaml:"addr"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type ModuleConfig struct {
	GetJobURI     string        `yaml:"get_job_uri"`
	PostResultURI string        `yaml:"post_result_uri"`
	AuthToken     string        `yaml:"auth_token"`
	PollInterval  time.Duration `yaml:"poll_interval"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Default() Config {
	return Config{
		Graph: GraphConfig{URL: "https://graph.microsoft.com"},
		Directory: DirectoryConfig{
			PageSize:        directory.DefaultPageSize,
			Filter:          directory.DefaultFilter,
			OrderBy:         directory.DefaultOrderBy,
			PresenceTimeout: directory.DefaultLookupTimeout,
		},
		Server: ServerConfig{Addr: ":8080", CORSOrigins: []string{"*"}},
		Module: ModuleConfig{PollInterval: 500 * time.Millisecond},
		Log:    LogConfig{Level: "info", Format: "json"},
	}
}

// Load returns defaults overlaid with the PEOPLEDIR_CONFIG file, if set, and then
// environment overrides. The result is not validated.
func Load() (Config, error) {
	cfg := Default()
	if path := strings.TrimSpace(os.Getenv(EnvConfigFile)); path != "" {
		if err := LoadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := ApplyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile decodes a YAML file onto cfg. Keys absent from the file keep their
// current values.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

// ApplyEnv overrides cfg with any of the recognized environment variables.
func ApplyEnv(cfg *Config) error {
	setString(&cfg.Graph.URL, "GRAPH_URL")
	setString(&cfg.Graph.ServiceDiscovery, "GRAPH_SERVICE_DISCOVERY")
	setString(&cfg.Graph.Token, "GRAPH_TOKEN")
	setString(&cfg.Graph.CAPath, "DEFAULT_CA_PATH")
	setString(&cfg.Directory.Filter, "DIRECTORY_FILTER")
	setString(&cfg.Server.Addr, "LISTEN_ADDR")
	setString(&cfg.Module.GetJobURI, "GET_JOB_URI")
	setString(&cfg.Module.PostResultURI, "POST_RESULT_URI")
	setString(&cfg.Module.AuthToken, "MODULE_AUTH_TOKEN")
	setString(&cfg.Log.Level, "PEOPLEDIR_LOG_LEVEL")
	setString(&cfg.Log.Format, "PEOPLEDIR_LOG_FORMAT")
	if v := strings.TrimSpace(os.Getenv("CORS_ORIGINS")); v != "" {
		cfg.Server.CORSOrigins = splitCSV(v)
	}

	var err error
	if cfg.Directory.PageSize, err = envInt("PAGE_SIZE", cfg.Directory.PageSize); err != nil {
		return err
	}
	if cfg.Directory.PresenceTimeout, err = envDuration("PRESENCE_TIMEOUT", cfg.Directory.PresenceTimeout); err != nil {
		return err
	}
	if cfg.Directory.MaxConcurrency, err = envInt("MAX_CONCURRENCY", cfg.Directory.MaxConcurrency); err != nil {
		return err
	}
	if cfg.Directory.RateLimitRPS, err = envFloat("RATE_LIMIT_RPS", cfg.Directory.RateLimitRPS); err != nil {
		return err
	}
	if cfg.Module.PollInterval, err = envDuration("POLL_INTERVAL", cfg.Module.PollInterval); err != nil {
		return err
	}
	return nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Graph.URL) == "" && strings.TrimSpace(c.Graph.ServiceDiscovery) == "" {
		return fmt.Errorf("graph config missing url or service_discovery")
	}
	if c.Directory.PageSize < 1 || c.Directory.PageSize > directory.MaxPageSize {
		return fmt.Errorf("directory page_size must be between 1 and %d (got %d)", directory.MaxPageSize, c.Directory.PageSize)
	}
	if c.Directory.PresenceTimeout < 0 {
		return fmt.Errorf("directory presence_timeout must not be negative (got %s)", c.Directory.PresenceTimeout)
	}
	if c.Directory.MaxConcurrency < 0 {
		return fmt.Errorf("directory max_concurrency must not be negative (got %d)", c.Directory.MaxConcurrency)
	}
	if c.Directory.RateLimitRPS < 0 {
		return fmt.Errorf("directory rate_limit_rps must not be negative (got %g)", c.Directory.RateLimitRPS)
	}
	return nil
}

// ValidateModule checks the settings required by the compute-module loop.
func (c Config) ValidateModule() error {
	if strings.TrimSpace(c.Module.GetJobURI) == "" || strings.TrimSpace(c.Module.PostResultURI) == "" {
		return fmt.Errorf("GET_JOB_URI and POST_RESULT_URI are required in module mode")
	}
	if strings.TrimSpace(c.Module.AuthToken) == "" {
		return fmt.Errorf("MODULE_AUTH_TOKEN is required when GET_JOB_URI/POST_RESULT_URI are set")
	}
	return nil
}

// Query returns the directory query described by c.
func (c Config) Query() directory.ProfileQuery {
	q := directory.DefaultQuery()
	q.Top = c.Directory.PageSize
	if f := strings.TrimSpace(c.Directory.Filter); f != "" {
		q.Filter = f
	}
	if o := strings.TrimSpace(c.Directory.OrderBy); o != "" {
		q.OrderBy = o
	}
	return q
}

// AggregatorOptions returns the fan-out settings described by c.
func (c Config) AggregatorOptions() directory.AggregatorOptions {
	return directory.AggregatorOptions{
		LookupTimeout:  c.Directory.PresenceTimeout,
		MaxConcurrency: c.Directory.MaxConcurrency,
		RateLimitRPS:   c.Directory.RateLimitRPS,
	}
}
