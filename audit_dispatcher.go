package roleverify

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const (
	// Sinks that do I/O (Kafka) get a bounded context per event.
	sinkEmitTimeout = 5 * time.Second
	// A full queue logs its first drop and then every dropLogEvery-th one.
	dropLogEvery = 100
)

// auditDispatcher moves audit events off the verification path onto a single
// worker that feeds the sink in order.
type auditDispatcher struct {
	sink       AuditSink
	logger     *zap.Logger
	dropIfFull bool

	queue   chan AuditEvent
	stop    chan struct{}
	worker  sync.WaitGroup
	once    sync.Once
	stopped atomic.Bool
	dropped atomic.Uint64
}

func newAuditDispatcher(cfg AuditConfig, sink AuditSink, logger *zap.Logger) *auditDispatcher {
	if !cfg.Enabled {
		return nil
	}
	if sink == nil {
		sink = NoOpSink{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	d := &auditDispatcher{
		sink:       sink,
		logger:     logger,
		dropIfFull: cfg.DropIfFull,
		queue:      make(chan AuditEvent, max(cfg.BufferSize, 1)),
		stop:       make(chan struct{}),
	}
	d.worker.Add(1)
	go d.run()
	return d
}

func (d *auditDispatcher) run() {
	defer d.worker.Done()
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

// deliver hands event to the sink under the guild and channel it was
// recorded in, so sinks can route by community without decoding the event.
func (d *auditDispatcher) deliver(event AuditEvent) {
	ctx := context.Background()
	if event.GuildID != "" {
		ctx = WithGuildID(ctx, event.GuildID)
	}
	if event.ChannelID != "" {
		ctx = WithChannelID(ctx, event.ChannelID)
	}
	ctx, cancel := context.WithTimeout(ctx, sinkEmitTimeout)
	defer cancel()
	d.sink.Emit(ctx, event)
}

// Emit queues event for the sink. With DropIfFull it never blocks and counts
// the drop instead; otherwise it waits for space, ctx, or Close.
func (d *auditDispatcher) Emit(ctx context.Context, event AuditEvent) {
	if d == nil || d.stopped.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if !d.dropIfFull {
		select {
		case d.queue <- event:
		case <-ctx.Done():
		case <-d.stop:
		}
		return
	}

	select {
	case d.queue <- event:
	case <-d.stop:
	default:
		d.recordDrop(event)
	}
}

func (d *auditDispatcher) recordDrop(event AuditEvent) {
	n := d.dropped.Add(1)
	if n%dropLogEvery != 1 {
		return
	}
	d.logger.Warn("audit queue full, dropping event",
		zap.String("event_type", event.EventType),
		zap.String("user_id", event.UserID),
		zap.String("guild_id", event.GuildID),
		zap.Uint64("dropped_total", n),
	)
}

// Close stops accepting events, drains the queue into the sink and waits for
// the worker. It is idempotent.
func (d *auditDispatcher) Close() {
	if d == nil {
		return
	}
	d.once.Do(func() {
		d.stopped.Store(true)
		close(d.stop)
		d.worker.Wait()
	})
}

func (d *auditDispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
