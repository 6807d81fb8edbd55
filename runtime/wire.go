package runtime

import (
	"context"
	"fmt"

	"github.com/pithecene-io/cmdrelay/adapter"
	"github.com/pithecene-io/cmdrelay/adapter/redis"
	"github.com/pithecene-io/cmdrelay/adapter/webhook"
	"github.com/pithecene-io/cmdrelay/awsx"
	"github.com/pithecene-io/cmdrelay/cli/config"
	"github.com/pithecene-io/cmdrelay/cwlogs"
	"github.com/pithecene-io/cmdrelay/log"
	"github.com/pithecene-io/cmdrelay/metrics"
	"github.com/pithecene-io/cmdrelay/relay"
	"github.com/pithecene-io/cmdrelay/ssm"
)

// Metric dimensions for the AWS-backed source and sink.
const (
	SourceSSM          = "ssm"
	SinkCloudWatchLogs = "cloudwatchlogs"
)

// defaultAdapterRetries applies when adapter.retries is unset.
const defaultAdapterRetries = webhook.DefaultRetries

// Build validates cfg, loads AWS credentials and returns a RunConfig backed
// by SSM, CloudWatch Logs and (for full output) S3.
func Build(ctx context.Context, cfg *config.Config, logger *log.Logger) (*RunConfig, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	settings := cfg.AWSSettings()
	awsConfig, err := awsx.Load(ctx, settings)
	if err != nil {
		return nil, err
	}
	clients := awsx.NewClients(awsConfig, settings)

	src, err := ssm.New(clients.SSM, clients.S3, ssm.Config{
		FetchFullOutput: cfg.Output.FetchFull,
		MaxOutputBytes:  cfg.Output.MaxBytes,
	}, logger)
	if err != nil {
		return nil, err
	}
	sink, err := cwlogs.New(clients.Logs)
	if err != nil {
		return nil, err
	}

	return NewRunConfig(cfg, src, sink, SourceSSM, SinkCloudWatchLogs, logger)
}

// NewRunConfig assembles a RunConfig around an arbitrary source and sink.
// sourceName and sinkName label the metrics.
func NewRunConfig(cfg *config.Config, src relay.ExecutionResultSource, sink relay.LogSink, sourceName, sinkName string, logger *log.Logger) (*RunConfig, error) {
	if logger == nil {
		logger = log.Nop()
	}
	collector := metrics.NewCollector(cfg.Namespace, sourceName, sinkName)

	r, err := relay.New(relay.Config{Namespace: cfg.Namespace}, src, sink,
		relay.WithLogger(logger),
		relay.WithMetrics(collector),
	)
	if err != nil {
		return nil, err
	}

	a, err := NewAdapter(cfg.Adapter)
	if err != nil {
		return nil, err
	}

	return &RunConfig{
		Relay:     r,
		Adapter:   a,
		Collector: collector,
		Logger:    logger,
	}, nil
}

// NewAdapter builds the notification adapter named by cfg.Type.
// Returns nil, nil when no adapter is configured.
func NewAdapter(cfg config.AdapterConfig) (adapter.Adapter, error) {
	retries := defaultAdapterRetries
	if cfg.Retries != nil {
		retries = *cfg.Retries
	}

	switch cfg.Type {
	case config.AdapterNone:
		return nil, nil
	case config.AdapterWebhook:
		a, err := webhook.New(webhook.Config{
			URL:     cfg.URL,
			Headers: cfg.Headers,
			Timeout: cfg.Timeout.Duration,
			Retries: retries,
		})
		if err != nil {
			return nil, err
		}
		return a, nil
	case config.AdapterRedis:
		a, err := redis.New(redis.Config{
			URL:     cfg.URL,
			Channel: cfg.Channel,
			Timeout: cfg.Timeout.Duration,
			Retries: retries,
		})
		if err != nil {
			return nil, err
		}
		return a, nil
	default:
		return nil, fmt.Errorf("unknown adapter type %q (must be webhook or redis)", cfg.Type)
	}
}
