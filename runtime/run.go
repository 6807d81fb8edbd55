// Package runtime wires a relay to its AWS clients and notification adapter
// and runs single invocations through it. The CLI and the Lambda entrypoint
// share this path.
package runtime

import (
	"context"
	"errors"
	"time"

	"github.com/pithecene-io/cmdrelay/adapter"
	"github.com/pithecene-io/cmdrelay/log"
	"github.com/pithecene-io/cmdrelay/metrics"
	"github.com/pithecene-io/cmdrelay/relay"
	"github.com/pithecene-io/cmdrelay/types"
)

// RunConfig holds the components a run needs.
type RunConfig struct {
	// Relay performs fetch, convert, ensure-stream and append.
	Relay *relay.Relay
	// Adapter is the optional completion notifier. Nil disables notification.
	Adapter adapter.Adapter
	// Collector is shared with the relay. If nil, no metrics are recorded
	// (all Collector methods are nil-safe).
	Collector *metrics.Collector
	// Logger receives orchestration logs. Nil means discard.
	Logger *log.Logger
}

// Close releases the adapter, if any.
func (c *RunConfig) Close() error {
	if c == nil || c.Adapter == nil {
		return nil
	}
	return c.Adapter.Close()
}

// RunResult is the result of one relayed invocation.
type RunResult struct {
	Outcome  *types.RelayOutcome `json:"outcome"`
	Duration time.Duration       `json:"duration_ns"`
	Metrics  metrics.Snapshot    `json:"metrics"`
}

// RunOrchestrator runs invocations through a configured relay.
// It is safe for concurrent use when the underlying clients are.
type RunOrchestrator struct {
	config *RunConfig
	logger *log.Logger
}

// NewRunOrchestrator creates a new run orchestrator.
func NewRunOrchestrator(config *RunConfig) (*RunOrchestrator, error) {
	if config == nil || config.Relay == nil {
		return nil, errors.New("run config requires a relay")
	}
	logger := config.Logger
	if logger == nil {
		logger = log.Nop()
	}
	return &RunOrchestrator{config: config, logger: logger}, nil
}

// Execute relays ev and, on success, publishes the completion event.
//
// The returned error is the relay's error unchanged so callers can map it
// with errors.As. Notification failures never fail the run.
func (r *RunOrchestrator) Execute(ctx context.Context, ev types.InvocationEvent) (*RunResult, error) {
	start := time.Now()

	out, err := r.config.Relay.Handle(ctx, ev)
	if err != nil {
		return nil, err
	}
	took := time.Since(start)

	adapter.Notify(ctx, r.config.Adapter, adapter.NewRelayCompletedEvent(out, time.Now(), took), r.logger, r.config.Collector)

	return &RunResult{
		Outcome:  out,
		Duration: took,
		Metrics:  r.config.Collector.Snapshot(),
	}, nil
}
