// Package adapter defines the completion-notification boundary.
//
// Adapters publish relay completion notifications to downstream systems.
// Publishing is best-effort: a failed notification never fails the relay.
package adapter

import (
	"context"
	"time"

	"github.com/pithecene-io/cmdrelay/log"
	"github.com/pithecene-io/cmdrelay/metrics"
	"github.com/pithecene-io/cmdrelay/types"
)

// EventTypeRelayCompleted is the only event type published.
const EventTypeRelayCompleted = "relay_completed"

// RelayCompletedEvent is the payload published after a successful relay.
type RelayCompletedEvent struct {
	Version       string `json:"version"`
	EventType     string `json:"event_type"` // always "relay_completed"
	RelayID       string `json:"relay_id"`
	CommandID     string `json:"command_id"`
	InstanceID    string `json:"instance_id"`
	Namespace     string `json:"namespace"`
	Stream        string `json:"stream"`
	LogTimestamp  int64  `json:"log_timestamp"` // epoch ms of the appended entry
	MessageBytes  int    `json:"message_bytes"`
	StreamCreated bool   `json:"stream_created"`
	Timestamp     string `json:"timestamp"` // ISO 8601, publish time
	DurationMs    int64  `json:"duration_ms"`
}

// NewRelayCompletedEvent builds the notification payload for an outcome.
func NewRelayCompletedEvent(out *types.RelayOutcome, now time.Time, took time.Duration) *RelayCompletedEvent {
	return &RelayCompletedEvent{
		Version:       types.Version,
		EventType:     EventTypeRelayCompleted,
		RelayID:       out.RelayID,
		CommandID:     out.CommandID,
		InstanceID:    out.Stream,
		Namespace:     out.Namespace,
		Stream:        out.Stream,
		LogTimestamp:  out.Timestamp,
		MessageBytes:  out.MessageBytes,
		StreamCreated: out.StreamCreated,
		Timestamp:     now.UTC().Format(time.RFC3339Nano),
		DurationMs:    took.Milliseconds(),
	}
}

// Adapter publishes relay completion events to a downstream system.
type Adapter interface {
	// Publish sends a relay completion event to the downstream system.
	// Must respect context cancellation and deadlines.
	Publish(ctx context.Context, event *RelayCompletedEvent) error

	// Close releases adapter resources.
	Close() error
}

// Notify publishes event through a and records the outcome.
// It never returns an error; failures are logged and counted.
// A nil adapter is a no-op.
func Notify(ctx context.Context, a Adapter, event *RelayCompletedEvent, logger *log.Logger, m *metrics.Collector) {
	if a == nil {
		return
	}
	if logger == nil {
		logger = log.Nop()
	}
	if err := a.Publish(ctx, event); err != nil {
		m.IncNotifyFailure()
		logger.Warn("completion notification failed", map[string]any{
			"relay_id": event.RelayID,
			"error":    err.Error(),
		})
		return
	}
	m.IncNotifySuccess()
	logger.Debug("completion notification published", map[string]any{"relay_id": event.RelayID})
}
