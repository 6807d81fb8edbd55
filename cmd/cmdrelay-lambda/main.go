// Package main provides the cmdrelay Lambda entrypoint.
//
// The function is triggered with {"command_id": "...", "instance_id": "..."}
// or an EventBridge command-invocation notification. The destination log
// group comes from NAMESPACE; CMDRELAY_CONFIG optionally names a YAML file
// with the remaining settings. Relay errors fail the invocation.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-lambda-go/lambdacontext"

	"github.com/pithecene-io/cmdrelay/cli/config"
	"github.com/pithecene-io/cmdrelay/iox"
	"github.com/pithecene-io/cmdrelay/log"
	"github.com/pithecene-io/cmdrelay/relay"
	"github.com/pithecene-io/cmdrelay/runtime"
	"github.com/pithecene-io/cmdrelay/types"
)

// handler is built once per cold start and shared by every invocation.
type handler struct {
	orchestrator *runtime.RunOrchestrator
	log          *log.SugaredLogger
}

func newHandler(rc *runtime.RunConfig) (*handler, error) {
	orchestrator, err := runtime.NewRunOrchestrator(rc)
	if err != nil {
		return nil, err
	}
	logger := rc.Logger
	if logger == nil {
		logger = log.Nop()
	}
	return &handler{orchestrator: orchestrator, log: logger.Sugar()}, nil
}

// Handle relays one trigger event. The Lambda request id becomes the relay id.
func (h *handler) Handle(ctx context.Context, payload json.RawMessage) (*types.RelayOutcome, error) {
	ev, err := types.ParseInvocationEvent(payload)
	if err != nil {
		err = fmt.Errorf("%w: %v", relay.ErrInvalidEvent, err)
		h.log.With("kind", kindOf(err)).Errorf("rejected trigger event: %v", err)
		return nil, err
	}

	if lc, ok := lambdacontext.FromContext(ctx); ok && lc.AwsRequestID != "" {
		ctx = relay.ContextWithRelayID(ctx, lc.AwsRequestID)
	}

	result, err := h.orchestrator.Execute(ctx, ev)
	if err != nil {
		h.log.With("kind", kindOf(err)).Errorf("relay of %s on %s failed: %v", ev.CommandID, ev.InstanceID, err)
		return nil, err
	}
	return result.Outcome, nil
}

// kindOf names the error class for log filtering.
func kindOf(err error) string {
	if k := relay.Kind(err); k != nil {
		return k.Error()
	}
	return "unclassified"
}

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid %s %q\n", config.EnvLogLevel, cfg.LogLevel)
		os.Exit(1)
	}
	logger := log.NewLogger(level)

	rc, err := runtime.Build(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to set up relay", map[string]any{"error": err.Error()})
		iox.DiscardErr(logger.Sync)
		os.Exit(1)
	}

	h, err := newHandler(rc)
	if err != nil {
		logger.Error("failed to set up relay", map[string]any{"error": err.Error()})
		iox.DiscardErr(logger.Sync)
		os.Exit(1)
	}

	lambda.Start(h.Handle)
}
