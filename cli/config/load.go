package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Environment variables read by FromEnv.
const (
	EnvNamespace = "NAMESPACE"
	EnvConfig    = "CMDRELAY_CONFIG"
	EnvLogLevel  = "CMDRELAY_LOG_LEVEL"
)

// Load reads a YAML config file, expands environment variables, and
// unmarshals into a Config struct. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("cannot read config file %q: %w", path, err)
	}

	expanded := ExpandEnv(string(data))

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}

	return &cfg, nil
}

// FromEnv builds the Lambda configuration: the file named by
// CMDRELAY_CONFIG (if set) overlaid with NAMESPACE and CMDRELAY_LOG_LEVEL.
func FromEnv() (*Config, error) {
	cfg := &Config{}
	if path := os.Getenv(EnvConfig); path != "" {
		loaded, err := Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if ns := os.Getenv(EnvNamespace); ns != "" {
		cfg.Namespace = ns
	}
	if level := os.Getenv(EnvLogLevel); level != "" {
		cfg.LogLevel = level
	}
	return cfg, nil
}
