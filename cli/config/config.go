package config

import (
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pithecene-io/cmdrelay/awsx"
	"github.com/pithecene-io/cmdrelay/log"
)

// Adapter types accepted in adapter.type.
const (
	AdapterNone    = ""
	AdapterWebhook = "webhook"
	AdapterRedis   = "redis"
)

// Config represents a cmdrelay.yaml configuration file.
// All values are optional and act as defaults for relay flags.
// CLI flags always override config values.
type Config struct {
	Namespace string        `yaml:"namespace"`
	LogLevel  string        `yaml:"log_level"`
	AWS       AWSConfig     `yaml:"aws"`
	Output    OutputConfig  `yaml:"output"`
	Adapter   AdapterConfig `yaml:"adapter"`
}

// AWSConfig holds AWS client defaults from the config file.
type AWSConfig struct {
	Region       string `yaml:"region"`
	SSMEndpoint  string `yaml:"ssm_endpoint"`
	LogsEndpoint string `yaml:"logs_endpoint"`
	S3Endpoint   string `yaml:"s3_endpoint"`
	S3PathStyle  bool   `yaml:"s3_path_style"`
}

// OutputConfig controls how command output is read.
type OutputConfig struct {
	FetchFull bool  `yaml:"fetch_full"`
	MaxBytes  int64 `yaml:"max_bytes"`
}

// AdapterConfig holds completion-notification settings.
type AdapterConfig struct {
	Type    string            `yaml:"type"`
	URL     string            `yaml:"url"`
	Channel string            `yaml:"channel,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Timeout Duration          `yaml:"timeout,omitempty"`
	Retries *int              `yaml:"retries,omitempty"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "5m30s".
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// Validate checks the settings a relay cannot run without.
func (c *Config) Validate() error {
	if c.Namespace == "" {
		return errors.New("namespace is required")
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	if c.Output.MaxBytes < 0 {
		return fmt.Errorf("output.max_bytes must be >= 0, got %d", c.Output.MaxBytes)
	}
	switch c.Adapter.Type {
	case AdapterNone:
	case AdapterWebhook, AdapterRedis:
		if c.Adapter.URL == "" {
			return fmt.Errorf("adapter %s requires a url", c.Adapter.Type)
		}
	default:
		return fmt.Errorf("unknown adapter type %q (must be webhook or redis)", c.Adapter.Type)
	}
	return nil
}

// AWSSettings converts the aws block to client settings.
func (c *Config) AWSSettings() awsx.Config {
	return awsx.Config{
		Region:       c.AWS.Region,
		SSMEndpoint:  c.AWS.SSMEndpoint,
		LogsEndpoint: c.AWS.LogsEndpoint,
		S3Endpoint:   c.AWS.S3Endpoint,
		S3PathStyle:  c.AWS.S3PathStyle,
	}
}
