// Package config loads runtime configuration for the navigation controller.
// Defaults come first, then an optional YAML file, then environment
// variables. Absent YAML keys never clobber defaults.
package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"
)

// Default configuration values exported for documentation and validation
const (
	DefaultDiagnosticsBind  = "127.0.0.1:4499"
	DefaultLogDir           = ".detour/logs"
	DefaultLogLevel         = "info"
	DefaultNATSSubject      = "detour"
	DefaultHandshakeTimeout = 10 * time.Second
	DefaultWriteTimeout     = 5 * time.Second
	DefaultEventRateLimit   = 50.0
)

// Config represents the complete controller configuration.
type Config struct {
	Bridge      BridgeConfig      `yaml:"bridge"`
	Logging     LoggingConfig     `yaml:"logging"`
	Diagnostics DiagnosticsConfig `yaml:"diagnostics"`
	Events      EventsConfig      `yaml:"events"`
	Tracing     TracingConfig     `yaml:"tracing"`
}

// BridgeConfig configures the websocket connection to the rendering surface.
type BridgeConfig struct {
	Endpoint         string        `yaml:"endpoint"`
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
}

// LoggingConfig controls the JSONL run logs.
type LoggingConfig struct {
	Dir      string `yaml:"dir"`
	MinLevel string `yaml:"min_level"`
}

// DiagnosticsConfig controls the local diagnostics HTTP server.
type DiagnosticsConfig struct {
	Enabled        bool    `yaml:"enabled"`
	Bind           string  `yaml:"bind"`
	EventRateLimit float64 `yaml:"event_rate_limit"` // events per second per client
}

// EventsConfig controls external event publication over NATS.
type EventsConfig struct {
	Enabled       bool          `yaml:"enabled"`
	NATSURL       string        `yaml:"nats_url"`
	SubjectPrefix string        `yaml:"subject_prefix"`
	Timeout       time.Duration `yaml:"timeout"`
}

// TracingConfig controls OpenTelemetry trace export.
type TracingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Bridge: BridgeConfig{
			HandshakeTimeout: DefaultHandshakeTimeout,
			WriteTimeout:     DefaultWriteTimeout,
		},
		Logging: LoggingConfig{
			Dir:      DefaultLogDir,
			MinLevel: DefaultLogLevel,
		},
		Diagnostics: DiagnosticsConfig{
			Bind:           DefaultDiagnosticsBind,
			EventRateLimit: DefaultEventRateLimit,
		},
		Events: EventsConfig{
			SubjectPrefix: DefaultNATSSubject,
			Timeout:       5 * time.Second,
		},
		Tracing: TracingConfig{
			ServiceName: "detour",
		},
	}
}

// Load builds the configuration from defaults, the given file if it exists,
// and environment variables, in that order.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if err := loadAndMerge(cfg, path); err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("loading %s: %w", filepath.Clean(path), err)
			}
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if c.Diagnostics.Enabled {
		if _, _, err := net.SplitHostPort(c.Diagnostics.Bind); err != nil {
			return fmt.Errorf("diagnostics.bind %q: %w", c.Diagnostics.Bind, err)
		}
		if c.Diagnostics.EventRateLimit <= 0 {
			return fmt.Errorf("diagnostics.event_rate_limit must be positive, got %v", c.Diagnostics.EventRateLimit)
		}
	}
	if c.Events.Enabled && c.Events.NATSURL == "" {
		return fmt.Errorf("events.nats_url is required when events are enabled")
	}
	switch c.Logging.MinLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.min_level %q: must be debug, info, warn, or error", c.Logging.MinLevel)
	}
	if c.Bridge.HandshakeTimeout <= 0 {
		return fmt.Errorf("bridge.handshake_timeout must be positive")
	}
	if c.Bridge.WriteTimeout <= 0 {
		return fmt.Errorf("bridge.write_timeout must be positive")
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DETOUR_BRIDGE_ENDPOINT"); v != "" {
		cfg.Bridge.Endpoint = v
	}
	if v := os.Getenv("DETOUR_LOG_DIR"); v != "" {
		cfg.Logging.Dir = v
	}
	if v := os.Getenv("DETOUR_LOG_LEVEL"); v != "" {
		cfg.Logging.MinLevel = v
	}
	if v := os.Getenv("DETOUR_DIAGNOSTICS_BIND"); v != "" {
		cfg.Diagnostics.Bind = v
		cfg.Diagnostics.Enabled = true
	}
	if v := os.Getenv("DETOUR_NATS_URL"); v != "" {
		cfg.Events.NATSURL = v
		cfg.Events.Enabled = true
	}
}
