package goSession

import (
	"context"
	"sync"
	"sync/atomic"
)

// auditDispatcher hands events to the sink from a single goroutine so sink
// latency never reaches the request path. A nil dispatcher is valid and
// discards everything.
type auditDispatcher struct {
	sink       AuditSink
	queue      chan AuditEvent
	dropIfFull bool

	stop     chan struct{}
	finished chan struct{}
	stopOnce sync.Once
	stopped  atomic.Bool

	dropped   atomic.Uint64
	delivered atomic.Uint64
}

func newAuditDispatcher(cfg AuditConfig, sink AuditSink) *auditDispatcher {
	if !cfg.Enabled {
		return nil
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &auditDispatcher{
		sink:       sink,
		queue:      make(chan AuditEvent, max(cfg.BufferSize, 1)),
		dropIfFull: cfg.DropIfFull,
		stop:       make(chan struct{}),
		finished:   make(chan struct{}),
	}
	go d.loop()
	return d
}

func (d *auditDispatcher) loop() {
	defer close(d.finished)

	for {
		select {
		case event := <-d.queue:
			d.deliver(event)
		case <-d.stop:
			d.drain()
			return
		}
	}
}

func (d *auditDispatcher) drain() {
	for {
		select {
		case event := <-d.queue:
			d.deliver(event)
		default:
			return
		}
	}
}

func (d *auditDispatcher) deliver(event AuditEvent) {
	d.sink.Emit(context.Background(), event)
	d.delivered.Add(1)
}

// Emit queues event. With dropIfFull a full queue discards the event and
// counts it; otherwise Emit waits for room, for ctx to end or for Close.
func (d *auditDispatcher) Emit(ctx context.Context, event AuditEvent) {
	if d == nil || d.stopped.Load() {
		return
	}

	if d.dropIfFull {
		select {
		case d.queue <- event:
		case <-d.stop:
		default:
			d.dropped.Add(1)
		}
		return
	}

	var done <-chan struct{}
	if ctx != nil {
		done = ctx.Done()
	}
	select {
	case d.queue <- event:
	case <-done:
		d.dropped.Add(1)
	case <-d.stop:
	}
}

// Close stops intake and returns once queued events reached the sink.
func (d *auditDispatcher) Close() {
	if d == nil {
		return
	}
	d.stopOnce.Do(func() {
		d.stopped.Store(true)
		close(d.stop)
	})
	<-d.finished
}

func (d *auditDispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}

func (d *auditDispatcher) Delivered() uint64 {
	if d == nil {
		return 0
	}
	return d.delivered.Load()
}
