// Package config loads chanlog's process-level configuration: the knobs
// that govern a Manager's default behavior rather than any one channel's
// installed sinks. Shape and loading follow the engine config pattern —
// a single YAML document, ${VAR} / ${VAR:-default} env substitution before
// parse, JSON accepted as a fallback.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is chanlog's top-level process configuration.
type Config struct {
	Composite     CompositeConfig     `json:"composite" yaml:"composite"`
	Observability ObservabilityConfig `json:"observability" yaml:"observability"`
	Metrics       MetricsConfig       `json:"metrics" yaml:"metrics"`
}

// CompositeConfig controls the composite sink coordinator (internal/composite).
type CompositeConfig struct {
	// InitialWait bounds how long a composite sink waits for each child's
	// first writer before giving up on it. Zero uses composite.DefaultInitialWait.
	InitialWait time.Duration `json:"initial_wait" yaml:"initial_wait"`
}

// ObservabilityConfig controls OpenTelemetry tracing export.
type ObservabilityConfig struct {
	OTLP OTLPConfig `json:"otlp" yaml:"otlp"`
}

// OTLPConfig names the tracing collector to export spans to.
type OTLPConfig struct {
	Endpoint    string `json:"endpoint" yaml:"endpoint"`
	Insecure    bool   `json:"insecure" yaml:"insecure"`
	ServiceName string `json:"service_name" yaml:"service_name"`
}

// MetricsConfig holds settings for a Prometheus metrics HTTP endpoint. No
// code in this module reads them or serves such an endpoint.
type MetricsConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Addr    string `json:"addr" yaml:"addr"`
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		Composite: CompositeConfig{InitialWait: 100 * time.Millisecond},
		Metrics:   MetricsConfig{Enabled: true, Addr: ":9090"},
	}
}

// Load reads path, substitutes ${VAR}/${VAR:-default} references against
// the process environment, then parses as YAML, falling back to JSON.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	content := SubstituteEnvVars(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(content), cfg); err != nil {
		if err := json.Unmarshal([]byte(content), cfg); err != nil {
			return nil, fmt.Errorf("decode config file (tried YAML and JSON): %w", err)
		}
	}
	return cfg, nil
}

// Save writes cfg to path as YAML.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

var envRegex = regexp.MustCompile(`\$\{(\w+)(?::-([^}]*))?\}`)

// SubstituteEnvVars replaces ${VAR} and ${VAR:-default} references in input
// with the environment's value, or default if VAR is unset. A reference to
// an unset variable with no default is left untouched.
func SubstituteEnvVars(input string) string {
	return envRegex.ReplaceAllStringFunc(input, func(m string) string {
		matches := envRegex.FindStringSubmatch(m)
		if len(matches) < 2 {
			return m
		}
		if val, ok := os.LookupEnv(matches[1]); ok {
			return val
		}
		if len(matches) > 2 && strings.Contains(m, ":-") {
			return matches[2]
		}
		return m
	})
}
