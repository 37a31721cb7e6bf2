package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	oldWd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(oldWd) })
}

func TestLoad(t *testing.T) {
	// Test loading with no config file (should use defaults)
	chdir(t, t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error loading defaults, got %v", err)
	}

	if cfg.API.BaseURL != "https://api.nanowrimo.org/" {
		t.Errorf("expected default base url, got %s", cfg.API.BaseURL)
	}

	if cfg.API.Timeout != 30*time.Second {
		t.Errorf("expected default timeout 30s, got %s", cfg.API.Timeout)
	}

	if cfg.Session.Backend != BackendMemory {
		t.Errorf("expected memory backend, got %s", cfg.Session.Backend)
	}

	if cfg.Session.TTL != 24*time.Hour {
		t.Errorf("expected 24h session ttl, got %s", cfg.Session.TTL)
	}

	if cfg.Log.Level != "warn" {
		t.Errorf("expected log level warn, got %s", cfg.Log.Level)
	}

	if cfg.HasCredentials() {
		t.Error("expected no credentials by default")
	}
}

func TestLoadWithConfigFile(t *testing.T) {
	chdir(t, t.TempDir())

	configContent := `
api:
  base_url: http://localhost:8080/
  timeout: 5s
auth:
  identifier: writer
  secret: hunter2
session:
  backend: redis
  ttl: 1h
  redis:
    addr: redis:6379
    db: 2
log:
  level: debug
  development: true
decode:
  lenient: true
`
	os.WriteFile("nano.yaml", []byte(configContent), 0644)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error loading config, got %v", err)
	}

	if cfg.API.BaseURL != "http://localhost:8080/" {
		t.Errorf("expected base url from file, got %s", cfg.API.BaseURL)
	}

	if cfg.API.Timeout != 5*time.Second {
		t.Errorf("expected timeout 5s, got %s", cfg.API.Timeout)
	}

	if !cfg.HasCredentials() || cfg.Auth.Identifier != "writer" {
		t.Errorf("expected credentials for writer, got %+v", cfg.Auth)
	}

	if cfg.Session.Backend != BackendRedis || cfg.Session.Redis.Addr != "redis:6379" || cfg.Session.Redis.DB != 2 {
		t.Errorf("unexpected session config %+v", cfg.Session)
	}

	if cfg.Session.TTL != time.Hour {
		t.Errorf("expected session ttl 1h, got %s", cfg.Session.TTL)
	}

	if !cfg.Log.Development || !cfg.Decode.Lenient {
		t.Errorf("expected development logging and lenient decoding, got %+v %+v", cfg.Log, cfg.Decode)
	}
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("NANO_AUTH_IDENTIFIER", "env-writer")
	t.Setenv("NANO_AUTH_SECRET", "env-secret")
	t.Setenv("NANO_API_TIMEOUT", "10s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.Auth.Identifier != "env-writer" || cfg.Auth.Secret != "env-secret" {
		t.Errorf("expected credentials from environment, got %+v", cfg.Auth)
	}

	if cfg.API.Timeout != 10*time.Second {
		t.Errorf("expected timeout from environment, got %s", cfg.API.Timeout)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	os.WriteFile(path, []byte("log:\n  level: error\n"), 0644)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Log.Level != "error" {
		t.Errorf("expected log level error, got %s", cfg.Log.Level)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for a missing explicit config file")
	}
}

func TestValidateConfig(t *testing.T) {
	valid := func() *Config {
		return &Config{
			API:     APIConfig{BaseURL: "https://api.nanowrimo.org/", Timeout: time.Second},
			Session: SessionConfig{Backend: BackendMemory},
			Log:     LogConfig{Level: "info"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad scheme", func(c *Config) { c.API.BaseURL = "ftp://example.org" }, "api.base_url"},
		{"no host", func(c *Config) { c.API.BaseURL = "https://" }, "api.base_url"},
		{"zero timeout", func(c *Config) { c.API.Timeout = 0 }, "api.timeout"},
		{"identifier only", func(c *Config) { c.Auth.Identifier = "writer" }, "auth.identifier"},
		{"secret only", func(c *Config) { c.Auth.Secret = "pw" }, "auth.identifier"},
		{"unknown backend", func(c *Config) { c.Session.Backend = "disk" }, "session.backend"},
		{"redis without addr", func(c *Config) { c.Session.Backend = BackendRedis }, "session.redis.addr"},
		{"bad log level", func(c *Config) { c.Log.Level = "chatty" }, "log.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := validateConfig(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error mentioning %s, got %v", tt.wantErr, err)
			}
		})
	}
}
