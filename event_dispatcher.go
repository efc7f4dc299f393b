package rentalAuth

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// eventOther collects drops of event names the dispatcher does not know.
const eventOther = "other"

// eventDispatcher builds lifecycle events and hands them to the EventSink on a
// single goroutine, so request paths never wait on the bus. With DropIfFull
// set, only informational events are shed when the queue is full; revocation
// events always wait for room, since downstream caches act on them.
type eventDispatcher struct {
	sink    EventSink
	now     func() time.Time
	shed    bool
	queue   chan Event
	stop    chan struct{}
	worker  sync.WaitGroup
	closing atomic.Bool
	once    sync.Once
	drops   map[string]*atomic.Uint64 // read-only after construction
}

func newEventDispatcher(cfg EventsConfig, sink EventSink, now func() time.Time) *eventDispatcher {
	if !cfg.Enabled {
		return nil
	}
	if sink == nil {
		sink = NoOpSink{}
	}
	if now == nil {
		now = time.Now
	}
	d := &eventDispatcher{
		sink:  sink,
		now:   now,
		shed:  cfg.DropIfFull,
		queue: make(chan Event, max(cfg.BufferSize, 1)),
		stop:  make(chan struct{}),
		drops: make(map[string]*atomic.Uint64),
	}
	for _, name := range []string{EventLoginSuccess, EventLoginLocked, EventTokenReissued, EventTokenLogout, EventTokensExpired, eventOther} {
		d.drops[name] = new(atomic.Uint64)
	}
	d.worker.Add(1)
	go d.loop()
	return d
}

// sheddable reports whether name may be dropped under back-pressure.
func sheddable(name string) bool {
	return name != EventTokensExpired
}

// publish queues one event for uid. It is a no-op on a nil or closed
// dispatcher.
func (d *eventDispatcher) publish(ctx context.Context, name string, uid int64, metadata map[string]string) {
	if d == nil || d.closing.Load() {
		return
	}
	ev := newEvent(name, uid, d.now(), metadata)

	if d.shed && sheddable(name) {
		select {
		case d.queue <- ev:
		default:
			d.countDrop(name)
		}
		return
	}

	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case d.queue <- ev:
	case <-ctx.Done():
		d.countDrop(name)
	case <-d.stop:
	}
}

func (d *eventDispatcher) countDrop(name string) {
	c, ok := d.drops[name]
	if !ok {
		c = d.drops[eventOther]
	}
	c.Add(1)
}

func (d *eventDispatcher) loop() {
	defer d.worker.Done()
	for {
		select {
		case ev := <-d.queue:
			d.sink.Emit(context.Background(), ev)
		case <-d.stop:
			d.flush()
			return
		}
	}
}

// flush delivers whatever was queued before close.
func (d *eventDispatcher) flush() {
	for len(d.queue) > 0 {
		d.sink.Emit(context.Background(), <-d.queue)
	}
}

// close stops intake and waits for queued events to reach the sink.
func (d *eventDispatcher) close() {
	if d == nil {
		return
	}
	d.once.Do(func() {
		d.closing.Store(true)
		close(d.stop)
		d.worker.Wait()
	})
}

// droppedByName returns the non-zero drop counters keyed by event name.
func (d *eventDispatcher) droppedByName() map[string]uint64 {
	out := make(map[string]uint64)
	if d == nil {
		return out
	}
	for name, c := range d.drops {
		if n := c.Load(); n > 0 {
			out[name] = n
		}
	}
	return out
}

func (d *eventDispatcher) droppedTotal() uint64 {
	var total uint64
	for _, n := range d.droppedByName() {
		total += n
	}
	return total
}
