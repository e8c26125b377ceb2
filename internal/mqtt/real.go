package mqtt

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

const (
	clientID       = "thermostat"
	publishTimeout = 5 * time.Second
)

var errNotConnected = errors.New("mqtt: not connected")

// RealPublisher publishes to an actual MQTT broker. Status records published
// while the connection is down are held and replayed, oldest first, when the
// client connects. The latest retained system event (STARTUP, SHUTDOWN) is
// also held and sent first on connect; other system events need a live
// connection.
type RealPublisher struct {
	client paho.Client

	mu            sync.Mutex
	buffer        *recordBuffer
	pendingSystem *SystemEvent
	connected     bool // at least one successful connect
	now           func() time.Time
}

// NewRealPublisher creates a publisher for the given broker holding up to
// capacity records while offline. The connection is established in the
// background and retried until Close.
func NewRealPublisher(broker string, capacity int) *RealPublisher {
	p := &RealPublisher{
		buffer: newRecordBuffer(capacity),
		now:    time.Now,
	}

	will, _ := FormatSystemPayload(WillEvent(time.Now()))
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetBinaryWill(TopicSystem, will, 1, true).
		SetOnConnectHandler(func(paho.Client) { p.onConnect() }).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Printf("mqtt: connection lost: %v", err)
		})

	p.client = paho.NewClient(opts)
	p.client.Connect()
	return p
}

// newPublisher wraps an existing client. Tests use it with a stub client.
func newPublisher(client paho.Client, capacity int, now func() time.Time) *RealPublisher {
	return &RealPublisher{
		client: client,
		buffer: newRecordBuffer(capacity),
		now:    now,
	}
}

// Publish sends a status record, or holds it while disconnected.
func (p *RealPublisher) Publish(record Record) error {
	if !p.client.IsConnectionOpen() {
		p.hold(record)
		return nil
	}
	if err := p.sendRecord(record); err != nil {
		p.hold(record)
		return err
	}
	return nil
}

// PublishSystem sends a system lifecycle event. A retained event that cannot
// be sent now is kept, replacing any earlier one, until the next connect.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	if !p.client.IsConnectionOpen() {
		if event.Retained {
			p.holdSystem(event)
			return nil
		}
		return fmt.Errorf("publish system: %w", errNotConnected)
	}
	if err := p.sendSystem(event); err != nil {
		if event.Retained {
			p.holdSystem(event)
		}
		return err
	}
	return nil
}

// IsConnected reports whether the client currently has an open connection.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Buffered returns the number of status records waiting for a connection.
func (p *RealPublisher) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buffer.len()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}

func (p *RealPublisher) hold(record Record) {
	p.mu.Lock()
	p.buffer.push(record)
	p.mu.Unlock()
}

func (p *RealPublisher) holdSystem(event SystemEvent) {
	p.mu.Lock()
	p.pendingSystem = &event
	p.mu.Unlock()
}

func (p *RealPublisher) sendRecord(record Record) error {
	payload, err := FormatPayload(record)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	if err := p.send(Topic, 0, false, payload); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// sendSystem uses QoS 1 (at-least-once) for lifecycle events.
func (p *RealPublisher) sendSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	if err := p.send(TopicSystem, 1, event.Retained, payload); err != nil {
		return fmt.Errorf("publish system: %w", err)
	}
	return nil
}

func (p *RealPublisher) send(topic string, qos byte, retained bool, payload []byte) error {
	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("timeout after %v", publishTimeout)
	}
	return token.Error()
}

// onConnect sends the held retained event, announces a reconnection and
// replays held records.
func (p *RealPublisher) onConnect() {
	p.mu.Lock()
	pending, dropped := p.buffer.drain()
	held := p.pendingSystem
	p.pendingSystem = nil
	reconnect := p.connected
	p.connected = true
	p.mu.Unlock()

	if held != nil {
		if err := p.sendSystem(*held); err != nil {
			log.Printf("mqtt: held %s event: %v", held.Event, err)
			p.mu.Lock()
			if p.pendingSystem == nil {
				p.pendingSystem = held
			}
			p.mu.Unlock()
		}
	}

	if reconnect {
		log.Printf("mqtt: reconnected, replaying %d records (%d dropped)", len(pending), dropped)
		ev := SystemEvent{Timestamp: p.now(), Event: "RECONNECTED"}
		if err := p.sendSystem(ev); err != nil {
			log.Printf("mqtt: reconnected event: %v", err)
		}
	} else {
		log.Printf("mqtt: connected, replaying %d records (%d dropped)", len(pending), dropped)
	}

	for i, rec := range pending {
		if err := p.sendRecord(rec); err != nil {
			log.Printf("mqtt: replay failed after %d of %d: %v", i, len(pending), err)
			p.mu.Lock()
			for _, rest := range pending[i:] {
				p.buffer.push(rest)
			}
			p.mu.Unlock()
			return
		}
	}
}
