package event

import "sync"

// DefaultBusQueueHint sizes the initial backing slice of a Bus's internal
// queue; it is not a cap — the queue grows without bound as needed.
const DefaultBusQueueHint = 256

// Bus is an effectively unbounded, non-blocking event channel (spec §5).
// Send never blocks the producing solver, and — unlike a fixed-capacity
// buffered channel — no event is ever silently dropped while a consumer is
// merely slow rather than absent: a growable queue, not the channel itself,
// absorbs any backlog. This is what makes "Finished must be the last event"
// (spec §6) an actual guarantee rather than a race against a full buffer.
//
// Internally, Send appends to a mutex-guarded slice and a dedicated pump
// goroutine drains it (in FIFO order) into a small handoff channel that
// Events() exposes; the handoff channel blocks the pump, never the producer.
type Bus struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []Event
	out    chan Event
	closed bool
}

// NewBus constructs a Bus and starts its pump goroutine. queueHint sizes the
// initial backing array of the internal queue (<=0 uses DefaultBusQueueHint);
// it is a capacity hint for the initial allocation only, not a limit.
func NewBus(queueHint int) *Bus {
	if queueHint <= 0 {
		queueHint = DefaultBusQueueHint
	}
	b := &Bus{queue: make([]Event, 0, queueHint), out: make(chan Event)}
	b.cond = sync.NewCond(&b.mu)
	go b.pump()
	return b
}

// Send enqueues ev without blocking. A Send after Close is a silent no-op —
// downstream teardown (the consumer dropping Events()) is a legitimate
// reason for a late send to be ignored (spec §7).
func (b *Bus) Send(ev Event) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.queue = append(b.queue, ev)
	b.mu.Unlock()
	b.cond.Signal()
}

// Events exposes the receive side for consumers, in the order Send was
// called.
func (b *Bus) Events() <-chan Event { return b.out }

// Close signals that no further Send calls will occur. ga and bh never close
// the Bus themselves; the owner closes it once Run has returned (after
// Finished has been sent). The pump goroutine flushes any remaining queued
// events before closing the channel Events() returns, so a lagging consumer
// still receives every event up to and including Finished.
func (b *Bus) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.cond.Signal()
}

// pump drains the queue in FIFO order into out, blocking on the handoff
// send (never on the producer) until Close has been called and the queue is
// empty, at which point it closes out.
func (b *Bus) pump() {
	for {
		b.mu.Lock()
		for len(b.queue) == 0 && !b.closed {
			b.cond.Wait()
		}
		if len(b.queue) == 0 {
			b.mu.Unlock()
			close(b.out)
			return
		}
		ev := b.queue[0]
		b.queue = b.queue[1:]
		b.mu.Unlock()
		b.out <- ev
	}
}
