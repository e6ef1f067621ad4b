package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/odvcencio/detour/pkg/config"
)

func TestDefaultConfig(t *testing.T) {
	cfg := config.DefaultConfig()

	if cfg.Logging.Dir == "" || cfg.Logging.MinLevel == "" {
		t.Fatalf("default logging should be populated: %+v", cfg.Logging)
	}
	if cfg.Diagnostics.Bind != config.DefaultDiagnosticsBind {
		t.Fatalf("unexpected diagnostics bind: %s", cfg.Diagnostics.Bind)
	}
	if cfg.Bridge.HandshakeTimeout <= 0 || cfg.Bridge.WriteTimeout <= 0 {
		t.Fatalf("default bridge timeouts should be positive: %+v", cfg.Bridge)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
bridge:
  endpoint: ws://localhost:9000/bridge
logging:
  min_level: debug
diagnostics:
  enabled: true
  event_rate_limit: 10
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("config.Load returned error: %v", err)
	}

	if cfg.Bridge.Endpoint != "ws://localhost:9000/bridge" {
		t.Fatalf("expected file endpoint, got %s", cfg.Bridge.Endpoint)
	}
	if cfg.Logging.MinLevel != "debug" {
		t.Fatalf("expected debug level, got %s", cfg.Logging.MinLevel)
	}
	if !cfg.Diagnostics.Enabled {
		t.Fatal("expected diagnostics enabled")
	}
	if cfg.Diagnostics.EventRateLimit != 10 {
		t.Fatalf("expected rate limit 10, got %v", cfg.Diagnostics.EventRateLimit)
	}
	// Untouched sections keep their defaults.
	if cfg.Diagnostics.Bind != config.DefaultDiagnosticsBind {
		t.Fatalf("expected default bind, got %s", cfg.Diagnostics.Bind)
	}
	if cfg.Events.SubjectPrefix != config.DefaultNATSSubject {
		t.Fatalf("expected default subject prefix, got %s", cfg.Events.SubjectPrefix)
	}
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("config.Load returned error: %v", err)
	}
	if cfg.Logging.Dir != config.DefaultLogDir {
		t.Fatalf("expected default log dir, got %s", cfg.Logging.Dir)
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	t.Setenv("DETOUR_BRIDGE_ENDPOINT", "ws://env:1234/bridge")
	t.Setenv("DETOUR_LOG_LEVEL", "warn")
	t.Setenv("DETOUR_NATS_URL", "nats://env:4222")

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config.Load returned error: %v", err)
	}
	if cfg.Bridge.Endpoint != "ws://env:1234/bridge" {
		t.Fatalf("expected env endpoint, got %s", cfg.Bridge.Endpoint)
	}
	if cfg.Logging.MinLevel != "warn" {
		t.Fatalf("expected warn level, got %s", cfg.Logging.MinLevel)
	}
	if !cfg.Events.Enabled || cfg.Events.NATSURL != "nats://env:4222" {
		t.Fatalf("expected events enabled via env, got %+v", cfg.Events)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"bad log level", func(c *config.Config) { c.Logging.MinLevel = "verbose" }},
		{"bad diagnostics bind", func(c *config.Config) {
			c.Diagnostics.Enabled = true
			c.Diagnostics.Bind = "not-a-hostport"
		}},
		{"events without url", func(c *config.Config) { c.Events.Enabled = true }},
		{"zero handshake timeout", func(c *config.Config) { c.Bridge.HandshakeTimeout = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
