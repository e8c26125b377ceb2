package mqtt

import (
	"log"
	"time"
)

// ReplayWindow is how much report history is held while the broker is away.
const ReplayWindow = 10 * time.Minute

// BufferCapacity returns how many status records cover ReplayWindow at the
// given report cadence. A non-positive cadence counts as one second.
func BufferCapacity(report time.Duration) int {
	if report <= 0 {
		report = time.Second
	}
	n := int(ReplayWindow / report)
	if ReplayWindow%report != 0 {
		n++
	}
	return n
}

// recordBuffer holds status records, unformatted, while the broker is
// unreachable. When full the oldest record is overwritten.
// Not safe for concurrent use; RealPublisher guards it.
type recordBuffer struct {
	recs    []Record
	head    int // next write slot
	count   int
	dropped int // overwritten since the last drain
}

func newRecordBuffer(capacity int) *recordBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &recordBuffer{recs: make([]Record, capacity)}
}

func (b *recordBuffer) push(rec Record) {
	size := len(b.recs)
	if b.count == size {
		if b.dropped == 0 {
			log.Printf("mqtt: replay buffer full (%d records), dropping oldest", size)
		}
		b.dropped++
	} else {
		b.count++
	}
	b.recs[b.head] = rec
	b.head = (b.head + 1) % size
}

// drain returns the held records oldest first and how many were lost to
// overflow, then empties the buffer.
func (b *recordBuffer) drain() ([]Record, int) {
	dropped := b.dropped
	b.dropped = 0
	if b.count == 0 {
		return nil, dropped
	}

	size := len(b.recs)
	out := make([]Record, b.count)
	start := (b.head - b.count + size) % size
	for i := range out {
		out[i] = b.recs[(start+i)%size]
	}
	b.head, b.count = 0, 0
	return out, dropped
}

func (b *recordBuffer) len() int {
	return b.count
}
