package types

// RelayOutcome describes a successful relay.
type RelayOutcome struct {
	// RelayID identifies this relay invocation in logs and notifications.
	RelayID string `json:"relay_id"`
	// CommandID is the relayed command.
	CommandID string `json:"command_id"`
	// Namespace is the log group written to.
	Namespace string `json:"namespace"`
	// Stream is the log stream written to (the instance id).
	Stream string `json:"stream"`
	// Timestamp is the appended entry timestamp in epoch milliseconds.
	Timestamp int64 `json:"timestamp"`
	// MessageBytes is the size of the appended message.
	MessageBytes int `json:"message_bytes"`
	// StreamCreated reports whether a create-stream call was issued.
	StreamCreated bool `json:"stream_created"`
}
