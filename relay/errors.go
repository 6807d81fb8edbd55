// Package relay defines the relay error taxonomy.
//
// Three failure kinds propagate out of Relay.Handle: LookupError,
// TimestampFormatError and WriteError. Each wraps its cause, so callers can
// test the classification sentinels below with errors.Is and the failure
// kind with errors.As.
package relay

import (
	"errors"
	"fmt"
)

// Sentinel errors for failure classification.
// Use errors.Is(err, ErrXxx) for typed assertions.
var (
	// ErrInvalidEvent indicates a missing command id, instance id or namespace.
	ErrInvalidEvent = errors.New("invalid event")

	// ErrNotFound indicates the invocation, group or stream does not exist.
	ErrNotFound = errors.New("not found")

	// ErrIncomplete indicates the invocation has not finished yet.
	ErrIncomplete = errors.New("invocation not complete")

	// ErrRejected indicates the log service refused the event
	// (sequence token, too old, too new, expired).
	ErrRejected = errors.New("rejected")

	// ErrThrottled indicates rate limiting.
	ErrThrottled = errors.New("rate limited")

	// ErrAuth indicates authentication failure (no credentials, expired token).
	ErrAuth = errors.New("authentication failed")

	// ErrAccessDenied indicates authorization failure (valid creds but no permission).
	ErrAccessDenied = errors.New("access denied")

	// ErrTimeout indicates an operation timed out.
	ErrTimeout = errors.New("operation timed out")

	// ErrNetwork indicates a network-level failure (connection refused, DNS).
	ErrNetwork = errors.New("network error")

	// ErrService is the fallback for unclassified service failures.
	ErrService = errors.New("service error")
)

// LookupError reports a failed fetch from the execution-result service.
// No log-storage call is made after a LookupError.
type LookupError struct {
	CommandID  string
	InstanceID string
	Err        error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("lookup invocation %s on %s: %v", e.CommandID, e.InstanceID, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As chain traversal.
func (e *LookupError) Unwrap() error {
	return e.Err
}

// TimestampFormatError reports a completion time that does not match
// CompletionTimePattern. No log-storage call is made after it.
type TimestampFormatError struct {
	Value string
	Err   error
}

func (e *TimestampFormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("completion time %q: %v", e.Value, e.Err)
	}
	return fmt.Sprintf("completion time %q does not match %s", e.Value, CompletionTimePattern)
}

// Unwrap returns the underlying error for errors.Is/As chain traversal.
func (e *TimestampFormatError) Unwrap() error {
	return e.Err
}

// Write operations reported in WriteError.Op.
const (
	OpListStreams  = "list_streams"
	OpCreateStream = "create_stream"
	OpAppendEvent  = "append_event"
)

// WriteError reports a failed call against the log-storage service.
// The fetched output is not buffered; it is dropped with the error.
type WriteError struct {
	// Op is one of OpListStreams, OpCreateStream, OpAppendEvent.
	Op     string
	Group  string
	Stream string
	Err    error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s %s/%s: %v", e.Op, e.Group, e.Stream, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As chain traversal.
func (e *WriteError) Unwrap() error {
	return e.Err
}

// ServiceError wraps an external service error with a classification.
// It preserves the original error in the chain for inspection via errors.As.
type ServiceError struct {
	// Kind is the sentinel error for classification (e.g., ErrThrottled).
	Kind error
	// Service names the remote service ("ssm", "logs", "s3").
	Service string
	// Op is the API operation that failed.
	Op string
	// Err is the underlying error.
	Err error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s %s: %v: %v", e.Service, e.Op, e.Kind, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As chain traversal.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Is reports whether the error matches the target sentinel.
func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Kind, target)
}

// Kind returns the classification sentinel carried by err, or nil when err
// carries none.
func Kind(err error) error {
	for _, k := range []error{
		ErrInvalidEvent, ErrNotFound, ErrIncomplete, ErrRejected, ErrThrottled,
		ErrAuth, ErrAccessDenied, ErrTimeout, ErrNetwork, ErrService,
	} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
