package relay

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/pithecene-io/cmdrelay/log"
	"github.com/pithecene-io/cmdrelay/metrics"
	"github.com/pithecene-io/cmdrelay/types"
)

// ExecutionResultSource fetches the recorded outcome of a command invocation.
// Implementations return an error when the pair is unknown, not yet
// complete, or the service is unreachable.
type ExecutionResultSource interface {
	GetInvocation(ctx context.Context, commandID, instanceID string) (*types.InvocationResult, error)
}

// LogSink is the log-storage capability the relay writes through.
type LogSink interface {
	// ListStreams returns the names of streams in group starting with namePrefix.
	ListStreams(ctx context.Context, group, namePrefix string) ([]string, error)
	// CreateStream creates a stream. An "already exists" outcome is not an error.
	CreateStream(ctx context.Context, group, name string) error
	// AppendEvent appends one event to the stream.
	AppendEvent(ctx context.Context, group, name string, entry types.LogEntry) error
}

// Config configures a Relay.
type Config struct {
	// Namespace is the destination log group (required).
	Namespace string
}

// Relay copies one command invocation's output into a log stream.
// A Relay holds no per-invocation state and is safe for concurrent use.
type Relay struct {
	namespace string
	source    ExecutionResultSource
	sink      LogSink
	logger    *log.Logger
	metrics   *metrics.Collector
}

// Option configures optional Relay collaborators.
type Option func(*Relay)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *log.Logger) Option {
	return func(r *Relay) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithMetrics sets the metrics collector. A nil collector disables counting.
func WithMetrics(c *metrics.Collector) Option {
	return func(r *Relay) { r.metrics = c }
}

// New creates a Relay writing under cfg.Namespace.
func New(cfg Config, source ExecutionResultSource, sink LogSink, opts ...Option) (*Relay, error) {
	if cfg.Namespace == "" {
		return nil, fmt.Errorf("%w: namespace is required", ErrInvalidEvent)
	}
	if source == nil {
		return nil, errors.New("relay requires an execution result source")
	}
	if sink == nil {
		return nil, errors.New("relay requires a log sink")
	}

	r := &Relay{
		namespace: cfg.Namespace,
		source:    source,
		sink:      sink,
		logger:    log.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Namespace returns the destination log group.
func (r *Relay) Namespace() string {
	return r.namespace
}

type relayIDKey struct{}

// ContextWithRelayID attaches a caller-chosen relay id (e.g. a Lambda
// request id) to ctx. Handle generates one when absent.
func ContextWithRelayID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, relayIDKey{}, id)
}

func relayIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(relayIDKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}

// Handle relays one invocation: fetch, convert, ensure stream, append.
//
// Errors are *LookupError, *TimestampFormatError or *WriteError, or wrap
// ErrInvalidEvent when an identifier is missing. Nothing is retried and a
// repeated event appends a duplicate entry.
func (r *Relay) Handle(ctx context.Context, ev types.InvocationEvent) (*types.RelayOutcome, error) {
	relayID := relayIDFrom(ctx)
	logger := r.logger.WithInvocation(relayID, r.namespace, ev)
	r.metrics.IncRelayStarted()

	if err := validateEvent(ev); err != nil {
		r.metrics.IncInvalidEvent()
		logger.Error("invalid event", map[string]any{"error": err.Error()})
		return nil, err
	}

	result, err := r.source.GetInvocation(ctx, ev.CommandID, ev.InstanceID)
	if err == nil && result == nil {
		err = fmt.Errorf("%w: empty invocation result", ErrService)
	}
	if err != nil {
		r.metrics.IncLookupFailure()
		logger.Error("invocation lookup failed", map[string]any{"error": err.Error()})
		return nil, &LookupError{CommandID: ev.CommandID, InstanceID: ev.InstanceID, Err: err}
	}
	logger.Debug("invocation fetched", map[string]any{
		"status":          result.Status,
		"completion_time": result.CompletionTime,
		"output_bytes":    len(result.Output),
	})

	ts, err := CompletionMillis(result.CompletionTime)
	if err != nil {
		r.metrics.IncTimestampFailure()
		logger.Error("completion time rejected", map[string]any{"error": err.Error()})
		return nil, err
	}
	entry := types.LogEntry{Timestamp: ts, Message: result.Output}

	created, err := r.ensureStream(ctx, ev.InstanceID, logger)
	if err != nil {
		r.metrics.IncWriteFailure()
		logger.Error("ensure stream failed", map[string]any{"error": err.Error()})
		return nil, err
	}

	if err := r.sink.AppendEvent(ctx, r.namespace, ev.InstanceID, entry); err != nil {
		r.metrics.IncWriteFailure()
		logger.Error("append failed, output dropped", map[string]any{"error": err.Error()})
		return nil, &WriteError{Op: OpAppendEvent, Group: r.namespace, Stream: ev.InstanceID, Err: err}
	}
	r.metrics.AddEventAppended(len(entry.Message))
	r.metrics.IncRelayCompleted()
	logger.Info("output relayed", map[string]any{
		"timestamp":      entry.Timestamp,
		"message_bytes":  len(entry.Message),
		"stream_created": created,
	})

	return &types.RelayOutcome{
		RelayID:       relayID,
		CommandID:     ev.CommandID,
		Namespace:     r.namespace,
		Stream:        ev.InstanceID,
		Timestamp:     entry.Timestamp,
		MessageBytes:  len(entry.Message),
		StreamCreated: created,
	}, nil
}

// ensureStream creates the stream unless a stream name starting with
// stream is already listed. The match is a prefix match: an existing
// "i-abc-old" suppresses creation of "i-abc".
func (r *Relay) ensureStream(ctx context.Context, stream string, logger *log.Logger) (bool, error) {
	names, err := r.sink.ListStreams(ctx, r.namespace, stream)
	if err != nil {
		return false, &WriteError{Op: OpListStreams, Group: r.namespace, Stream: stream, Err: err}
	}
	if len(names) > 0 {
		r.metrics.IncStreamExisting()
		logger.Debug("stream present", map[string]any{"matched": names[0]})
		return false, nil
	}

	if err := r.sink.CreateStream(ctx, r.namespace, stream); err != nil {
		return false, &WriteError{Op: OpCreateStream, Group: r.namespace, Stream: stream, Err: err}
	}
	r.metrics.IncStreamCreated()
	logger.Info("stream created", nil)
	return true, nil
}

func validateEvent(ev types.InvocationEvent) error {
	switch {
	case ev.CommandID == "":
		return fmt.Errorf("%w: command_id is required", ErrInvalidEvent)
	case ev.InstanceID == "":
		return fmt.Errorf("%w: instance_id is required", ErrInvalidEvent)
	}
	return nil
}
