package metrics

import (
	"sync"
	"testing"
)

func TestCollector_IncrementMethods(t *testing.T) {
	c := NewCollector("ssm-output", "ssm", "cloudwatchlogs")

	c.IncRelayStarted()
	c.IncRelayStarted()
	c.IncRelayStarted()
	c.IncRelayStarted()
	c.IncRelayStarted()
	c.IncRelayCompleted()
	c.IncInvalidEvent()
	c.IncLookupFailure()
	c.IncTimestampFailure()
	c.IncWriteFailure()
	c.IncStreamCreated()
	c.IncStreamExisting()
	c.IncStreamExisting()
	c.AddEventAppended(4)
	c.AddEventAppended(6)
	c.IncNotifySuccess()
	c.IncNotifyFailure()

	s := c.Snapshot()

	checks := []struct {
		name string
		got  int64
		want int64
	}{
		{"RelaysStarted", s.RelaysStarted, 5},
		{"RelaysCompleted", s.RelaysCompleted, 1},
		{"RelaysFailed", s.RelaysFailed, 4},
		{"InvalidEvents", s.InvalidEvents, 1},
		{"LookupFailures", s.LookupFailures, 1},
		{"TimestampFailures", s.TimestampFailures, 1},
		{"WriteFailures", s.WriteFailures, 1},
		{"StreamsCreated", s.StreamsCreated, 1},
		{"StreamsExisting", s.StreamsExisting, 2},
		{"EventsAppended", s.EventsAppended, 2},
		{"BytesAppended", s.BytesAppended, 10},
		{"NotifySuccess", s.NotifySuccess, 1},
		{"NotifyFailure", s.NotifyFailure, 1},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %d, want %d", c.name, c.got, c.want)
		}
	}
}

func TestCollector_Dimensions(t *testing.T) {
	c := NewCollector("ops/run-command", "ssm", "cloudwatchlogs")
	s := c.Snapshot()

	if s.Namespace != "ops/run-command" {
		t.Errorf("Namespace = %q, want %q", s.Namespace, "ops/run-command")
	}
	if s.Source != "ssm" {
		t.Errorf("Source = %q, want %q", s.Source, "ssm")
	}
	if s.Sink != "cloudwatchlogs" {
		t.Errorf("Sink = %q, want %q", s.Sink, "cloudwatchlogs")
	}
}

func TestCollector_SnapshotImmutability(t *testing.T) {
	c := NewCollector("ns", "ssm", "cloudwatchlogs")
	c.IncRelayStarted()
	c.AddEventAppended(3)

	s1 := c.Snapshot()

	// Mutate collector after snapshot
	c.IncRelayCompleted()
	c.AddEventAppended(3)
	c.AddEventAppended(3)

	// s1 should be unchanged
	if s1.RelaysCompleted != 0 {
		t.Errorf("s1.RelaysCompleted = %d, want 0 (snapshot should be frozen)", s1.RelaysCompleted)
	}
	if s1.EventsAppended != 1 {
		t.Errorf("s1.EventsAppended = %d, want 1 (snapshot should be frozen)", s1.EventsAppended)
	}

	// New snapshot should reflect mutations
	s2 := c.Snapshot()
	if s2.RelaysCompleted != 1 {
		t.Errorf("s2.RelaysCompleted = %d, want 1", s2.RelaysCompleted)
	}
	if s2.EventsAppended != 3 {
		t.Errorf("s2.EventsAppended = %d, want 3", s2.EventsAppended)
	}
	if s2.BytesAppended != 9 {
		t.Errorf("s2.BytesAppended = %d, want 9", s2.BytesAppended)
	}
}

func TestCollector_NilReceiverSafety(t *testing.T) {
	var c *Collector

	// None of these should panic
	c.IncRelayStarted()
	c.IncRelayCompleted()
	c.IncInvalidEvent()
	c.IncLookupFailure()
	c.IncTimestampFailure()
	c.IncWriteFailure()
	c.IncStreamCreated()
	c.IncStreamExisting()
	c.AddEventAppended(10)
	c.IncNotifySuccess()
	c.IncNotifyFailure()

	s := c.Snapshot()
	if s.RelaysStarted != 0 {
		t.Errorf("nil collector snapshot RelaysStarted = %d, want 0", s.RelaysStarted)
	}
}

func TestCollector_ConcurrentAccess(t *testing.T) {
	c := NewCollector("ns", "ssm", "cloudwatchlogs")
	const goroutines = 10
	const iterations = 1000

	var wg sync.WaitGroup
	wg.Add(goroutines)

	for range goroutines {
		go func() {
			defer wg.Done()
			for range iterations {
				c.IncRelayStarted()
				c.AddEventAppended(1)
				c.IncWriteFailure()
			}
		}()
	}

	wg.Wait()

	s := c.Snapshot()
	want := int64(goroutines * iterations)

	if s.RelaysStarted != want {
		t.Errorf("RelaysStarted = %d, want %d", s.RelaysStarted, want)
	}
	if s.BytesAppended != want {
		t.Errorf("BytesAppended = %d, want %d", s.BytesAppended, want)
	}
	if s.RelaysFailed != want || s.WriteFailures != want {
		t.Errorf("RelaysFailed/WriteFailures = %d/%d, want %d", s.RelaysFailed, s.WriteFailures, want)
	}
}

func TestCollector_ZeroValueSnapshot(t *testing.T) {
	c := NewCollector("ns", "ssm", "cloudwatchlogs")
	s := c.Snapshot()

	if s.RelaysStarted != 0 || s.RelaysCompleted != 0 || s.RelaysFailed != 0 {
		t.Error("fresh collector should have zero lifecycle counters")
	}
	if s.StreamsCreated != 0 || s.StreamsExisting != 0 || s.EventsAppended != 0 || s.BytesAppended != 0 {
		t.Error("fresh collector should have zero log storage counters")
	}
	if s.NotifySuccess != 0 || s.NotifyFailure != 0 {
		t.Error("fresh collector should have zero notification counters")
	}
}
