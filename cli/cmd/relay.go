package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/cmdrelay/cli/config"
	"github.com/pithecene-io/cmdrelay/cli/render"
	"github.com/pithecene-io/cmdrelay/iox"
	"github.com/pithecene-io/cmdrelay/log"
	"github.com/pithecene-io/cmdrelay/relay"
	"github.com/pithecene-io/cmdrelay/runtime"
	"github.com/pithecene-io/cmdrelay/types"
)

// Exit codes for the relay command.
const (
	exitSuccess         = 0
	exitLookupFailure   = 1
	exitTimestampFormat = 2
	exitWriteFailure    = 3
	exitInvalidInput    = 4
)

// buildRunConfig wires the AWS-backed relay. Replaced in tests.
var buildRunConfig = runtime.Build

// RelayCommand returns the relay command.
// It relays one command invocation's output into the namespace log group.
func RelayCommand() *cli.Command {
	return &cli.Command{
		Name:  "relay",
		Usage: "Copy one command invocation's output into a log stream",
		Flags: []cli.Flag{
			ConfigFlag,
			FormatFlag,
			// Event flags
			&cli.StringFlag{
				Name:    "namespace",
				Aliases: []string{"n"},
				Usage:   "Destination log group",
				EnvVars: []string{config.EnvNamespace},
			},
			&cli.StringFlag{
				Name:  "command-id",
				Usage: "Command id of the invocation",
			},
			&cli.StringFlag{
				Name:  "instance-id",
				Usage: "Instance id of the invocation (also the stream name)",
			},
			&cli.StringFlag{
				Name:  "event",
				Usage: "Path to a JSON trigger event, or - for stdin (flags override its fields)",
			},
			// AWS flags
			&cli.StringFlag{
				Name:  "region",
				Usage: "AWS region (optional, uses default chain)",
			},
			&cli.StringFlag{
				Name:  "ssm-endpoint",
				Usage: "Override the Systems Manager endpoint",
			},
			&cli.StringFlag{
				Name:  "logs-endpoint",
				Usage: "Override the CloudWatch Logs endpoint",
			},
			&cli.StringFlag{
				Name:  "s3-endpoint",
				Usage: "Override the S3 endpoint used for full output",
			},
			&cli.BoolFlag{
				Name:  "s3-path-style",
				Usage: "Use path-style S3 addressing",
			},
			// Output flags
			&cli.BoolFlag{
				Name:  "fetch-full-output",
				Usage: "Read untruncated output from S3 when the invocation wrote it there",
			},
			&cli.Int64Flag{
				Name:  "max-output-bytes",
				Usage: "Upper bound on full output read from S3 (default and maximum 262118 bytes)",
			},
			// Adapter flags
			&cli.StringFlag{
				Name:  "adapter",
				Usage: "Completion notification adapter: webhook or redis",
			},
			&cli.StringFlag{
				Name:  "adapter-url",
				Usage: "Webhook URL or Redis connection URL",
			},
			&cli.StringFlag{
				Name:  "adapter-channel",
				Usage: "Redis channel ({namespace} is substituted)",
			},
			&cli.StringSliceFlag{
				Name:  "adapter-header",
				Usage: "Webhook header as Key=Value (repeatable)",
			},
			&cli.DurationFlag{
				Name:  "adapter-timeout",
				Usage: "Per-attempt notification timeout",
			},
			&cli.IntFlag{
				Name:  "adapter-retries",
				Usage: "Notification retry attempts",
			},
			// Misc
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level: debug, info, warn, error",
			},
			&cli.BoolFlag{
				Name:  "quiet",
				Usage: "Suppress result output",
			},
		},
		Action: relayAction,
	}
}

func relayAction(c *cli.Context) error {
	cfg, err := loadConfig(c.String("config"))
	if err != nil {
		return cli.Exit(err.Error(), exitInvalidInput)
	}
	if err := applyFlags(c, cfg); err != nil {
		return cli.Exit(err.Error(), exitInvalidInput)
	}
	if err := cfg.Validate(); err != nil {
		return cli.Exit(fmt.Sprintf("invalid configuration: %v", err), exitInvalidInput)
	}

	ev, err := loadEvent(c)
	if err != nil {
		return cli.Exit(err.Error(), exitInvalidInput)
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return cli.Exit(err.Error(), exitInvalidInput)
	}

	level, _ := log.ParseLevel(cfg.LogLevel)
	logger := log.NewLoggerWithWriter(level, c.App.ErrWriter)
	defer iox.DiscardErr(logger.Sync)

	logger.Sugar().Debugf("relaying %s on %s into log group %s (adapter=%q, fetch_full_output=%t)",
		ev.CommandID, ev.InstanceID, cfg.Namespace, cfg.Adapter.Type, cfg.Output.FetchFull)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	rc, err := buildRunConfig(ctx, cfg, logger)
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to set up relay: %v", err), exitInvalidInput)
	}
	defer iox.DiscardClose(rc)

	orchestrator, err := runtime.NewRunOrchestrator(rc)
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to set up relay: %v", err), exitInvalidInput)
	}

	result, err := orchestrator.Execute(ctx, ev)
	if err != nil {
		return cli.Exit(fmt.Sprintf("relay failed: %v", err), exitCodeFor(err))
	}

	if !c.Bool("quiet") {
		if err := r.Render(result); err != nil {
			return err
		}
	}
	return nil
}

// exitCodeFor maps a relay error to the command's exit code.
func exitCodeFor(err error) int {
	var lookupErr *relay.LookupError
	var tsErr *relay.TimestampFormatError
	var writeErr *relay.WriteError

	switch {
	case err == nil:
		return exitSuccess
	case errors.As(err, &lookupErr):
		return exitLookupFailure
	case errors.As(err, &tsErr):
		return exitTimestampFormat
	case errors.As(err, &writeErr):
		return exitWriteFailure
	case relay.Kind(err) == relay.ErrInvalidEvent:
		return exitInvalidInput
	default:
		return exitLookupFailure
	}
}

// loadConfig reads path, or returns an empty config when path is empty.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return &config.Config{}, nil
	}
	return config.Load(path)
}

// applyFlags overlays explicitly set flags onto cfg.
func applyFlags(c *cli.Context, cfg *config.Config) error {
	cfg.Namespace = resolveString(c, "namespace", cfg.Namespace)
	cfg.LogLevel = resolveString(c, "log-level", cfg.LogLevel)

	cfg.AWS.Region = resolveString(c, "region", cfg.AWS.Region)
	cfg.AWS.SSMEndpoint = resolveString(c, "ssm-endpoint", cfg.AWS.SSMEndpoint)
	cfg.AWS.LogsEndpoint = resolveString(c, "logs-endpoint", cfg.AWS.LogsEndpoint)
	cfg.AWS.S3Endpoint = resolveString(c, "s3-endpoint", cfg.AWS.S3Endpoint)
	cfg.AWS.S3PathStyle = resolveBool(c, "s3-path-style", cfg.AWS.S3PathStyle)

	cfg.Output.FetchFull = resolveBool(c, "fetch-full-output", cfg.Output.FetchFull)
	cfg.Output.MaxBytes = resolveInt64(c, "max-output-bytes", cfg.Output.MaxBytes)

	cfg.Adapter.Type = resolveString(c, "adapter", cfg.Adapter.Type)
	cfg.Adapter.URL = resolveString(c, "adapter-url", cfg.Adapter.URL)
	cfg.Adapter.Channel = resolveString(c, "adapter-channel", cfg.Adapter.Channel)
	cfg.Adapter.Timeout.Duration = resolveDuration(c, "adapter-timeout", cfg.Adapter.Timeout.Duration)
	if c.IsSet("adapter-retries") {
		n := c.Int("adapter-retries")
		cfg.Adapter.Retries = &n
	}

	headers, err := parseHeaders(c.StringSlice("adapter-header"))
	if err != nil {
		return err
	}
	if len(headers) > 0 {
		if cfg.Adapter.Headers == nil {
			cfg.Adapter.Headers = make(map[string]string, len(headers))
		}
		for k, v := range headers {
			cfg.Adapter.Headers[k] = v
		}
	}
	return nil
}

// parseHeaders parses Key=Value pairs.
func parseHeaders(pairs []string) (map[string]string, error) {
	headers := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --adapter-header %q (expected Key=Value)", p)
		}
		headers[k] = v
	}
	return headers, nil
}

// loadEvent builds the trigger event from --event and the id flags.
// Explicit --command-id / --instance-id win over the event file.
func loadEvent(c *cli.Context) (types.InvocationEvent, error) {
	var ev types.InvocationEvent

	if path := c.String("event"); path != "" {
		data, err := readEventSource(c, path)
		if err != nil {
			return ev, fmt.Errorf("cannot read --event %q: %w", path, err)
		}
		ev, err = types.ParseInvocationEvent(data)
		if err != nil {
			return ev, fmt.Errorf("invalid --event %q: %w", path, err)
		}
	}

	ev.CommandID = resolveString(c, "command-id", ev.CommandID)
	ev.InstanceID = resolveString(c, "instance-id", ev.InstanceID)

	if ev.CommandID == "" || ev.InstanceID == "" {
		return ev, errors.New("--command-id and --instance-id are required (or pass --event)")
	}
	return ev, nil
}

func readEventSource(c *cli.Context, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(c.App.Reader)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer iox.DiscardClose(f)
	return io.ReadAll(f)
}
