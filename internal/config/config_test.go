package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/palantir/compute-module-people-directory/internal/directory"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "peopledir.yaml")
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	q := cfg.Query()
	if q.Top != 50 || q.Filter != directory.DefaultFilter || q.OrderBy != "displayName" || !q.Count {
		t.Fatalf("unexpected default query: %#v", q)
	}
	if cfg.AggregatorOptions().LookupTimeout != 10*time.Second {
		t.Fatalf("unexpected default timeout: %s", cfg.AggregatorOptions().LookupTimeout)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeFile(t, `
graph:
  url: https://graph.example.com
directory:
  page_size: 25
  presence_timeout: 3s
  max_concurrency: 4
server:
  addr: ":9090"
`)
	t.Setenv(EnvConfigFile, path)
	t.Setenv("PAGE_SIZE", "30")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Graph.URL != "https://graph.example.com" {
		t.Fatalf("file value lost: %q", cfg.Graph.URL)
	}
	if cfg.Directory.PageSize != 30 {
		t.Fatalf("env should override file, got page size %d", cfg.Directory.PageSize)
	}
	if cfg.Directory.PresenceTimeout != 3*time.Second || cfg.Directory.MaxConcurrency != 4 || cfg.Directory.RateLimitRPS != 2.5 {
		t.Fatalf("unexpected directory config: %#v", cfg.Directory)
	}
	if cfg.Server.Addr != ":9090" || len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected server config: %#v", cfg.Server)
	}
	if cfg.Directory.Filter != directory.DefaultFilter {
		t.Fatalf("default filter should survive partial file: %q", cfg.Directory.Filter)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	cfg := Default()
	if err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"), &cfg); err == nil || !strings.Contains(err.Error(), "config load failed") {
		t.Fatalf("expected load error, got %v", err)
	}
	if err := LoadFile(writeFile(t, "graph:\n  nope: 1\n"), &cfg); err == nil || !strings.Contains(err.Error(), "config parse failed") {
		t.Fatalf("expected unknown field error, got %v", err)
	}
	if err := LoadFile(writeFile(t, ""), &cfg); err != nil {
		t.Fatalf("empty file should be accepted: %v", err)
	}
}

func TestApplyEnv_InvalidValues(t *testing.T) {
	tests := []struct {
		env string
		val string
	}{
		{"PAGE_SIZE", "fifty"},
		{"PRESENCE_TIMEOUT", "10"},
		{"MAX_CONCURRENCY", "1.5"},
		{"RATE_LIMIT_RPS", "fast"},
	}
	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Setenv(tt.env, tt.val)
			cfg := Default()
			err := ApplyEnv(&cfg)
			if err == nil || !strings.Contains(err.Error(), tt.env) {
				t.Fatalf("expected error naming %s, got %v", tt.env, err)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{name: "page_size_zero", mutate: func(c *Config) { c.Directory.PageSize = 0 }, want: "page_size"},
		{name: "page_size_too_large", mutate: func(c *Config) { c.Directory.PageSize = 1000 }, want: "page_size"},
		{name: "negative_timeout", mutate: func(c *Config) { c.Directory.PresenceTimeout = -time.Second }, want: "presence_timeout"},
		{name: "negative_concurrency", mutate: func(c *Config) { c.Directory.MaxConcurrency = -1 }, want: "max_concurrency"},
		{name: "negative_rps", mutate: func(c *Config) { c.Directory.RateLimitRPS = -1 }, want: "rate_limit_rps"},
		{name: "no_graph", mutate: func(c *Config) { c.Graph.URL = "" }, want: "graph"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}

	cfg := Default()
	cfg.Directory.PageSize = 999
	if err := cfg.Validate(); err != nil {
		t.Fatalf("999 should be accepted: %v", err)
	}
}

func TestValidateModule(t *testing.T) {
	cfg := Default()
	if err := cfg.ValidateModule(); err == nil {
		t.Fatalf("expected error without module endpoints")
	}
	cfg.Module.GetJobURI = "http://127.0.0.1:1/job"
	cfg.Module.PostResultURI = "http://127.0.0.1:1/result"
	if err := cfg.ValidateModule(); err == nil || !strings.Contains(err.Error(), "MODULE_AUTH_TOKEN") {
		t.Fatalf("expected token error, got %v", err)
	}
	cfg.Module.AuthToken = "tok"
	if err := cfg.ValidateModule(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
