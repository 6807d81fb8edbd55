// Package types defines core domain types for the command relay.
//
//nolint:revive // types is a common Go package naming convention
package types

import (
	"encoding/json"
	"errors"
)

// InvocationEvent identifies one completed command invocation.
// InstanceID doubles as the destination log stream name.
type InvocationEvent struct {
	// CommandID is the Run Command identifier.
	CommandID string `json:"command_id"`
	// InstanceID is the target instance identifier.
	InstanceID string `json:"instance_id"`
}

// ErrEmptyPayload is returned when an event payload has no content.
var ErrEmptyPayload = errors.New("empty event payload")

// eventBridgeDetail is the detail block of an EventBridge
// "EC2 Command Invocation Status-change Notification".
type eventBridgeDetail struct {
	CommandID  string `json:"command-id"`
	InstanceID string `json:"instance-id"`
}

// ParseInvocationEvent decodes a trigger payload.
// Both the flat {"command_id","instance_id"} shape and the EventBridge
// notification shape (ids under "detail") are accepted. Flat fields win
// when both are present.
func ParseInvocationEvent(data []byte) (InvocationEvent, error) {
	if len(data) == 0 {
		return InvocationEvent{}, ErrEmptyPayload
	}

	var raw struct {
		InvocationEvent
		Detail *eventBridgeDetail `json:"detail,omitempty"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return InvocationEvent{}, err
	}

	ev := raw.InvocationEvent
	if raw.Detail != nil {
		if ev.CommandID == "" {
			ev.CommandID = raw.Detail.CommandID
		}
		if ev.InstanceID == "" {
			ev.InstanceID = raw.Detail.InstanceID
		}
	}
	return ev, nil
}

// InvocationResult is the recorded outcome of a command invocation as
// returned by the execution-result service. It lives for one relay call.
type InvocationResult struct {
	// Output is the standard output content.
	Output string `json:"output"`
	// CompletionTime is the ISO 8601 UTC completion time,
	// e.g. 2023-04-01T10:15:30.500000Z.
	CompletionTime string `json:"completion_time"`
	// Status is the service-reported invocation status (informational).
	Status string `json:"status,omitempty"`
	// OutputURL is the location of the full output, when the service
	// stored it externally.
	OutputURL string `json:"output_url,omitempty"`
}

// LogEntry is the single record appended to the destination stream.
type LogEntry struct {
	// Timestamp is the completion time in epoch milliseconds.
	Timestamp int64 `json:"timestamp"`
	// Message is the invocation output.
	Message string `json:"message"`
}
