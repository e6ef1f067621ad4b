package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// loadAndMerge loads a YAML file and merges it into the config.
func loadAndMerge(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var override Config
	if err := yaml.Unmarshal(data, &override); err != nil {
		return fmt.Errorf("parsing YAML: %w", err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parsing YAML: %w", err)
	}

	mergeConfigs(cfg, &override, raw)
	return nil
}

// mergeConfigs merges override into base. Fields whose zero value is
// meaningful (booleans, rates) only override when the raw YAML set them.
func mergeConfigs(base, override *Config, raw map[string]any) {
	if override == nil {
		return
	}

	if override.Bridge.Endpoint != "" {
		base.Bridge.Endpoint = override.Bridge.Endpoint
	}
	if override.Bridge.HandshakeTimeout != 0 {
		base.Bridge.HandshakeTimeout = override.Bridge.HandshakeTimeout
	}
	if override.Bridge.WriteTimeout != 0 {
		base.Bridge.WriteTimeout = override.Bridge.WriteTimeout
	}

	if override.Logging.Dir != "" {
		base.Logging.Dir = override.Logging.Dir
	}
	if override.Logging.MinLevel != "" {
		base.Logging.MinLevel = override.Logging.MinLevel
	}

	if fieldSet(raw, "diagnostics", "enabled") {
		base.Diagnostics.Enabled = override.Diagnostics.Enabled
	}
	if override.Diagnostics.Bind != "" {
		base.Diagnostics.Bind = override.Diagnostics.Bind
	}
	if fieldSet(raw, "diagnostics", "event_rate_limit") {
		base.Diagnostics.EventRateLimit = override.Diagnostics.EventRateLimit
	}

	if fieldSet(raw, "events", "enabled") {
		base.Events.Enabled = override.Events.Enabled
	}
	if override.Events.NATSURL != "" {
		base.Events.NATSURL = override.Events.NATSURL
	}
	if override.Events.SubjectPrefix != "" {
		base.Events.SubjectPrefix = override.Events.SubjectPrefix
	}
	if override.Events.Timeout != 0 {
		base.Events.Timeout = override.Events.Timeout
	}

	if fieldSet(raw, "tracing", "enabled") {
		base.Tracing.Enabled = override.Tracing.Enabled
	}
	if override.Tracing.ServiceName != "" {
		base.Tracing.ServiceName = override.Tracing.ServiceName
	}
}

func fieldSet(raw map[string]any, path ...string) bool {
	if len(path) == 0 || raw == nil {
		return false
	}
	current := any(raw)
	for _, key := range path {
		m, ok := current.(map[string]any)
		if !ok {
			return false
		}
		val, ok := m[key]
		if !ok {
			return false
		}
		current = val
	}
	return true
}
