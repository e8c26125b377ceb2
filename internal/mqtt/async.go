package mqtt

import (
	"log"
	"sync"
)

type queued struct {
	record *Record
	system *SystemEvent
}

// Async decouples the control loop from broker latency. Publish and
// PublishSystem enqueue and return immediately; a single goroutine forwards
// to the wrapped Publisher in order. When the queue is full the message is
// dropped and logged.
type Async struct {
	inner Publisher
	queue chan queued
	done  chan struct{}

	mu      sync.Mutex
	closed  bool
	dropped int
}

// NewAsync starts the forwarding goroutine. depth bounds the queue.
func NewAsync(inner Publisher, depth int) *Async {
	a := &Async{
		inner: inner,
		queue: make(chan queued, depth),
		done:  make(chan struct{}),
	}
	go a.forward()
	return a
}

// Publish enqueues a status record.
func (a *Async) Publish(record Record) error {
	a.enqueue(queued{record: &record})
	return nil
}

// PublishSystem enqueues a system event.
func (a *Async) PublishSystem(event SystemEvent) error {
	a.enqueue(queued{system: &event})
	return nil
}

// Dropped returns how many messages were discarded because the queue was full.
func (a *Async) Dropped() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dropped
}

// Flush stops accepting messages and waits until everything queued has been
// forwarded. The wrapped Publisher stays open.
func (a *Async) Flush() {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()
	<-a.done
}

// Close flushes the queue and closes the wrapped Publisher.
func (a *Async) Close() error {
	a.Flush()
	return a.inner.Close()
}

// IsConnected delegates to the wrapped Publisher when it reports status.
func (a *Async) IsConnected() bool {
	if cs, ok := a.inner.(ConnectionStatus); ok {
		return cs.IsConnected()
	}
	return false
}

func (a *Async) enqueue(q queued) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	select {
	case a.queue <- q:
	default:
		a.dropped++
		if a.dropped == 1 || a.dropped%100 == 0 {
			log.Printf("mqtt: publish queue full, dropped %d messages", a.dropped)
		}
	}
}

func (a *Async) forward() {
	defer close(a.done)
	for q := range a.queue {
		if q.record != nil {
			if err := a.inner.Publish(*q.record); err != nil {
				log.Printf("publish error: %v", err)
			}
			continue
		}
		if err := a.inner.PublishSystem(*q.system); err != nil {
			log.Printf("failed to publish %s event: %v", q.system.Event, err)
		}
	}
}
