// Package awsx loads AWS configuration and builds the service clients the
// relay talks to. Credentials come from the SDK default chain (env vars,
// shared config, IAM role).
package awsx

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// Config holds AWS client settings.
type Config struct {
	// Region is the AWS region (optional, uses default chain if empty).
	Region string
	// SSMEndpoint overrides the Systems Manager endpoint (e.g. LocalStack).
	SSMEndpoint string
	// LogsEndpoint overrides the CloudWatch Logs endpoint.
	LogsEndpoint string
	// S3Endpoint overrides the S3 endpoint used for full output fetches.
	S3Endpoint string
	// S3PathStyle forces path-style addressing (bucket in path, not subdomain).
	S3PathStyle bool
}

// Clients bundles the service clients built from one aws.Config.
type Clients struct {
	SSM  *ssm.Client
	Logs *cloudwatchlogs.Client
	S3   *s3.Client
}

// Load resolves the AWS config with an optional region override.
func Load(ctx context.Context, cfg Config) (aws.Config, error) {
	var opts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return awsConfig, nil
}

// NewClients builds SSM, CloudWatch Logs and S3 clients with the endpoint
// overrides from cfg applied.
func NewClients(awsConfig aws.Config, cfg Config) *Clients {
	var ssmOpts []func(*ssm.Options)
	if cfg.SSMEndpoint != "" {
		endpoint := cfg.SSMEndpoint
		ssmOpts = append(ssmOpts, func(o *ssm.Options) {
			o.BaseEndpoint = &endpoint
		})
	}

	var logsOpts []func(*cloudwatchlogs.Options)
	if cfg.LogsEndpoint != "" {
		endpoint := cfg.LogsEndpoint
		logsOpts = append(logsOpts, func(o *cloudwatchlogs.Options) {
			o.BaseEndpoint = &endpoint
		})
	}

	var s3Opts []func(*s3.Options)
	if cfg.S3Endpoint != "" {
		endpoint := cfg.S3Endpoint
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = &endpoint
		})
	}
	if cfg.S3PathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	return &Clients{
		SSM:  ssm.NewFromConfig(awsConfig, ssmOpts...),
		Logs: cloudwatchlogs.NewFromConfig(awsConfig, logsOpts...),
		S3:   s3.NewFromConfig(awsConfig, s3Opts...),
	}
}
