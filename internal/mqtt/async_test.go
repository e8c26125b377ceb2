package mqtt

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sweeney/thermostat/internal/logic"
)

func TestAsyncForwardsInOrder(t *testing.T) {
	f := NewFakePublisher()
	a := NewAsync(f, 16)

	a.PublishSystem(SystemEvent{Event: "STARTUP"})
	for i := uint32(1); i <= 3; i++ {
		a.Publish(Record{State: logic.Snapshot{Seconds: i}})
	}
	a.Flush()

	if len(f.SystemEvents) != 1 || f.SystemEvents[0].Event != "STARTUP" {
		t.Errorf("system events: got %+v", f.SystemEvents)
	}
	if len(f.Records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(f.Records))
	}
	for i, r := range f.Records {
		if r.State.Seconds != uint32(i+1) {
			t.Errorf("record %d out of order: seconds=%d", i, r.State.Seconds)
		}
	}
	if f.Closed {
		t.Error("Flush must not close the wrapped publisher")
	}
}

// blockingPublisher holds every Publish until release is closed.
type blockingPublisher struct {
	*FakePublisher
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func (b *blockingPublisher) Publish(r Record) error {
	b.once.Do(func() { close(b.started) })
	<-b.release
	return b.FakePublisher.Publish(r)
}

func TestAsyncDropsWhenFull(t *testing.T) {
	b := &blockingPublisher{
		FakePublisher: NewFakePublisher(),
		started:       make(chan struct{}),
		release:       make(chan struct{}),
	}
	a := NewAsync(b, 2)

	a.Publish(Record{}) // taken by the forwarder, blocks
	select {
	case <-b.started:
	case <-time.After(time.Second):
		t.Fatal("forwarder did not pick up the first record")
	}

	a.Publish(Record{})
	a.Publish(Record{})
	a.Publish(Record{}) // queue holds 2: this one is dropped

	if a.Dropped() != 1 {
		t.Errorf("Dropped: got %d, want 1", a.Dropped())
	}

	close(b.release)
	a.Flush()
	if len(b.Records) != 3 {
		t.Errorf("forwarded: got %d, want 3", len(b.Records))
	}
}

func TestAsyncPublishErrorsDoNotStop(t *testing.T) {
	f := NewFakePublisher()
	f.PublishError = errors.New("broker down")
	a := NewAsync(f, 4)

	a.Publish(Record{})
	a.PublishSystem(SystemEvent{Event: "HEARTBEAT"})
	a.Flush()

	if len(f.SystemEvents) != 1 {
		t.Errorf("system event after failed publish: got %d", len(f.SystemEvents))
	}
}

func TestAsyncClose(t *testing.T) {
	f := NewFakePublisher()
	f.Connected = true
	a := NewAsync(f, 4)

	if !a.IsConnected() {
		t.Error("IsConnected should delegate")
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !f.Closed {
		t.Error("Close should close the wrapped publisher")
	}

	// Enqueue after close is ignored, second close is safe.
	a.Publish(Record{})
	a.Flush()
	if len(f.Records) != 0 {
		t.Error("publish after Close should be ignored")
	}
}
