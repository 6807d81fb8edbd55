// Package metrics provides relay outcome counters.
//
// The Collector accumulates counters for every relay handled by the process.
// A Lambda container reuses one Collector across warm invocations, so the
// counters are cumulative for the container lifetime. It is a leaf package
// with no internal dependencies.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of all relay counters.
// Returned by Collector.Snapshot(). Safe to read concurrently after creation.
type Snapshot struct {
	// Relay lifecycle
	RelaysStarted   int64 `json:"relays_started"`
	RelaysCompleted int64 `json:"relays_completed"`
	RelaysFailed    int64 `json:"relays_failed"`

	// Failures by kind
	InvalidEvents     int64 `json:"invalid_events"`
	LookupFailures    int64 `json:"lookup_failures"`
	TimestampFailures int64 `json:"timestamp_failures"`
	WriteFailures     int64 `json:"write_failures"`

	// Log storage
	StreamsCreated  int64 `json:"streams_created"`
	StreamsExisting int64 `json:"streams_existing"`
	EventsAppended  int64 `json:"events_appended"`
	BytesAppended   int64 `json:"bytes_appended"`

	// Notifications
	NotifySuccess int64 `json:"notify_success"`
	NotifyFailure int64 `json:"notify_failure"`

	// Dimensions (informational, set at construction)
	Namespace string `json:"namespace"`
	Source    string `json:"source"`
	Sink      string `json:"sink"`
}

// Collector accumulates relay counters.
// Thread-safe via sync.Mutex. All increment methods are nil-receiver safe.
type Collector struct {
	mu sync.Mutex

	relaysStarted   int64
	relaysCompleted int64
	relaysFailed    int64

	invalidEvents     int64
	lookupFailures    int64
	timestampFailures int64
	writeFailures     int64

	streamsCreated  int64
	streamsExisting int64
	eventsAppended  int64
	bytesAppended   int64

	notifySuccess int64
	notifyFailure int64

	namespace string
	source    string
	sink      string
}

// NewCollector creates a Collector with dimension labels.
func NewCollector(namespace, source, sink string) *Collector {
	return &Collector{
		namespace: namespace,
		source:    source,
		sink:      sink,
	}
}

func (c *Collector) inc(counter *int64, n int64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	*counter += n
	c.mu.Unlock()
}

// --- Relay lifecycle ---

// IncRelayStarted records a relay start.
func (c *Collector) IncRelayStarted() {
	if c == nil {
		return
	}
	c.inc(&c.relaysStarted, 1)
}

// IncRelayCompleted records a successful relay.
func (c *Collector) IncRelayCompleted() {
	if c == nil {
		return
	}
	c.inc(&c.relaysCompleted, 1)
}

// IncInvalidEvent records a relay rejected before any service call.
func (c *Collector) IncInvalidEvent() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.relaysFailed++
	c.invalidEvents++
	c.mu.Unlock()
}

// IncLookupFailure records a relay failed by the execution-result service.
func (c *Collector) IncLookupFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.relaysFailed++
	c.lookupFailures++
	c.mu.Unlock()
}

// IncTimestampFailure records a relay failed on a malformed completion time.
func (c *Collector) IncTimestampFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.relaysFailed++
	c.timestampFailures++
	c.mu.Unlock()
}

// IncWriteFailure records a relay failed by the log-storage service.
func (c *Collector) IncWriteFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.relaysFailed++
	c.writeFailures++
	c.mu.Unlock()
}

// --- Log storage ---

// IncStreamCreated records a create-stream call.
func (c *Collector) IncStreamCreated() {
	if c == nil {
		return
	}
	c.inc(&c.streamsCreated, 1)
}

// IncStreamExisting records a skipped create because a stream matched.
func (c *Collector) IncStreamExisting() {
	if c == nil {
		return
	}
	c.inc(&c.streamsExisting, 1)
}

// AddEventAppended records one appended event of the given message size.
func (c *Collector) AddEventAppended(bytes int) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.eventsAppended++
	c.bytesAppended += int64(bytes)
	c.mu.Unlock()
}

// --- Notifications ---

// IncNotifySuccess records a published completion notification.
func (c *Collector) IncNotifySuccess() {
	if c == nil {
		return
	}
	c.inc(&c.notifySuccess, 1)
}

// IncNotifyFailure records a failed completion notification.
func (c *Collector) IncNotifyFailure() {
	if c == nil {
		return
	}
	c.inc(&c.notifyFailure, 1)
}

// --- Snapshot ---

// Snapshot returns an immutable point-in-time view of all metrics.
// The returned Snapshot is safe to read concurrently; the Collector can
// continue to be mutated independently.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		RelaysStarted:   c.relaysStarted,
		RelaysCompleted: c.relaysCompleted,
		RelaysFailed:    c.relaysFailed,

		InvalidEvents:     c.invalidEvents,
		LookupFailures:    c.lookupFailures,
		TimestampFailures: c.timestampFailures,
		WriteFailures:     c.writeFailures,

		StreamsCreated:  c.streamsCreated,
		StreamsExisting: c.streamsExisting,
		EventsAppended:  c.eventsAppended,
		BytesAppended:   c.bytesAppended,

		NotifySuccess: c.notifySuccess,
		NotifyFailure: c.notifyFailure,

		Namespace: c.namespace,
		Source:    c.source,
		Sink:      c.sink,
	}
}
