package mqtt

import (
	"errors"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/sweeney/thermostat/internal/logic"
)

type stubToken struct {
	err error
}

func (t *stubToken) Wait() bool                     { return true }
func (t *stubToken) WaitTimeout(time.Duration) bool { return true }
func (t *stubToken) Error() error                   { return t.err }
func (t *stubToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type sent struct {
	topic    string
	qos      byte
	retained bool
	payload  string
}

// stubClient implements the parts of paho.Client the publisher uses.
type stubClient struct {
	paho.Client

	mu           sync.Mutex
	open         bool
	publishError error
	sent         []sent
	disconnected bool
}

func (c *stubClient) IsConnectionOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

func (c *stubClient) setOpen(open bool) {
	c.mu.Lock()
	c.open = open
	c.mu.Unlock()
}

func (c *stubClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.publishError != nil {
		return &stubToken{err: c.publishError}
	}
	c.sent = append(c.sent, sent{topic: topic, qos: qos, retained: retained, payload: string(payload.([]byte))})
	return &stubToken{}
}

func (c *stubClient) Disconnect(uint) {
	c.mu.Lock()
	c.disconnected = true
	c.mu.Unlock()
}

func fixedNow() time.Time { return time.Date(2026, 2, 10, 14, 30, 0, 0, time.UTC) }

func record(seconds uint32) Record {
	return Record{
		Timestamp: fixedNow(),
		State:     logic.Snapshot{Temperature: 25, Setpoint: 30, Heat: true, Seconds: seconds},
	}
}

func TestRealPublisherConnected(t *testing.T) {
	c := &stubClient{open: true}
	p := newPublisher(c, 16, fixedNow)

	if err := p.Publish(record(1)); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := p.PublishSystem(SystemEvent{Timestamp: fixedNow(), Event: "STARTUP", Retained: true}); err != nil {
		t.Fatalf("PublishSystem: %v", err)
	}

	if len(c.sent) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(c.sent))
	}
	if c.sent[0].topic != Topic || c.sent[0].qos != 0 || c.sent[0].retained {
		t.Errorf("status message: got %+v", c.sent[0])
	}
	if c.sent[1].topic != TopicSystem || c.sent[1].qos != 1 || !c.sent[1].retained {
		t.Errorf("system message: got %+v", c.sent[1])
	}
	if !p.IsConnected() {
		t.Error("expected IsConnected=true")
	}
}

func TestRealPublisherBuffersWhileDisconnected(t *testing.T) {
	c := &stubClient{}
	p := newPublisher(c, 16, fixedNow)

	for i := uint32(1); i <= 3; i++ {
		if err := p.Publish(record(i)); err != nil {
			t.Fatalf("Publish while offline should not fail: %v", err)
		}
	}
	if p.Buffered() != 3 {
		t.Fatalf("Buffered: got %d, want 3", p.Buffered())
	}
	if len(c.sent) != 0 {
		t.Fatal("nothing should be sent while offline")
	}

	if err := p.PublishSystem(SystemEvent{Event: "HEARTBEAT"}); !errors.Is(err, errNotConnected) {
		t.Errorf("PublishSystem offline: got %v", err)
	}

	// First connect: replay, no RECONNECTED event.
	c.setOpen(true)
	p.onConnect()

	if p.Buffered() != 0 {
		t.Errorf("Buffered after replay: got %d", p.Buffered())
	}
	if len(c.sent) != 3 {
		t.Fatalf("expected 3 replayed records, got %d", len(c.sent))
	}
	for i, m := range c.sent {
		want, _ := FormatPayload(record(uint32(i + 1)))
		if m.payload != string(want) {
			t.Errorf("replay %d out of order: got %s", i, m.payload)
		}
	}
}

func TestRealPublisherReconnectedEvent(t *testing.T) {
	c := &stubClient{open: true}
	p := newPublisher(c, 16, fixedNow)
	p.onConnect()

	c.setOpen(false)
	p.Publish(record(9))
	c.setOpen(true)
	p.onConnect()

	if len(c.sent) != 2 {
		t.Fatalf("expected RECONNECTED + 1 replay, got %d", len(c.sent))
	}
	want := `{"system":{"timestamp":"2026-02-10T14:30:00Z","event":"RECONNECTED"}}`
	if c.sent[0].topic != TopicSystem || c.sent[0].payload != want {
		t.Errorf("first message: got %+v", c.sent[0])
	}
	if c.sent[1].topic != Topic {
		t.Errorf("second message should be the replayed record, got %+v", c.sent[1])
	}
}

func TestRealPublisherPublishErrorBuffers(t *testing.T) {
	c := &stubClient{open: true, publishError: errors.New("write: broken pipe")}
	p := newPublisher(c, 16, fixedNow)

	if err := p.Publish(record(1)); err == nil {
		t.Fatal("expected publish error")
	}
	if p.Buffered() != 1 {
		t.Errorf("failed record should be buffered, got %d", p.Buffered())
	}

	// Replay fails too: record stays buffered.
	p.onConnect()
	if p.Buffered() != 1 {
		t.Errorf("failed replay should re-buffer, got %d", p.Buffered())
	}
}

func TestRealPublisherClose(t *testing.T) {
	c := &stubClient{}
	p := newPublisher(c, 16, fixedNow)
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !c.disconnected {
		t.Error("expected Disconnect")
	}
}

func TestRealPublisherStartupBeforeFirstConnect(t *testing.T) {
	c := &stubClient{}
	p := newPublisher(c, 16, fixedNow)

	// The daemon queues STARTUP through Async right after creating the client.
	a := NewAsync(p, 4)
	a.PublishSystem(SystemEvent{Timestamp: fixedNow(), Event: "STARTUP", Retained: true})
	a.Publish(record(0))
	a.Flush()

	if len(c.sent) != 0 {
		t.Fatalf("nothing should be sent before connect, got %+v", c.sent)
	}

	c.setOpen(true)
	p.onConnect()

	if len(c.sent) != 2 {
		t.Fatalf("expected STARTUP + 1 replayed record, got %+v", c.sent)
	}
	want := `{"system":{"timestamp":"2026-02-10T14:30:00Z","event":"STARTUP"}}`
	if c.sent[0].topic != TopicSystem || !c.sent[0].retained || c.sent[0].qos != 1 || c.sent[0].payload != want {
		t.Errorf("first message: got %+v", c.sent[0])
	}
	if c.sent[1].topic != Topic {
		t.Errorf("second message should be the record, got %+v", c.sent[1])
	}

	// Sent once only.
	c.setOpen(false)
	c.setOpen(true)
	p.onConnect()
	for _, m := range c.sent[2:] {
		if m.payload == want {
			t.Error("STARTUP sent again on reconnect")
		}
	}
}

func TestRealPublisherLatestRetainedWins(t *testing.T) {
	c := &stubClient{}
	p := newPublisher(c, 16, fixedNow)

	p.PublishSystem(SystemEvent{Timestamp: fixedNow(), Event: "STARTUP", Retained: true})
	p.PublishSystem(SystemEvent{Timestamp: fixedNow(), Event: "SHUTDOWN", Reason: "SIGTERM", Retained: true})

	c.setOpen(true)
	p.onConnect()

	if len(c.sent) != 1 {
		t.Fatalf("expected 1 held event, got %+v", c.sent)
	}
	want := `{"system":{"timestamp":"2026-02-10T14:30:00Z","event":"SHUTDOWN","reason":"SIGTERM"}}`
	if c.sent[0].payload != want {
		t.Errorf("held event: got %s", c.sent[0].payload)
	}
}

func TestRealPublisherRetainedSendFailureIsHeld(t *testing.T) {
	c := &stubClient{open: true, publishError: errors.New("write: broken pipe")}
	p := newPublisher(c, 16, fixedNow)

	if err := p.PublishSystem(SystemEvent{Event: "STARTUP", Retained: true}); err == nil {
		t.Fatal("expected send error")
	}

	c.mu.Lock()
	c.publishError = nil
	c.mu.Unlock()
	p.onConnect()

	if len(c.sent) != 1 || c.sent[0].topic != TopicSystem {
		t.Errorf("held STARTUP should be sent on connect, got %+v", c.sent)
	}
}

func TestRealPublisherReplayOverflow(t *testing.T) {
	c := &stubClient{}
	p := newPublisher(c, 2, fixedNow)
	for i := uint32(1); i <= 5; i++ {
		p.Publish(record(i))
	}
	if p.Buffered() != 2 {
		t.Fatalf("Buffered: got %d, want 2", p.Buffered())
	}

	c.setOpen(true)
	p.onConnect()
	if len(c.sent) != 2 {
		t.Fatalf("expected 2 replayed records, got %d", len(c.sent))
	}
	want, _ := FormatPayload(record(4))
	if c.sent[0].payload != string(want) {
		t.Errorf("oldest kept record: got %s", c.sent[0].payload)
	}
}
