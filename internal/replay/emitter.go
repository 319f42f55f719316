// Package replay injects received events into the local virtual device.
package replay

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"netboard/internal/input"
	"netboard/internal/queue"
)

// Stats counts emission outcomes.
type Stats struct {
	Emitted uint64
	Failed  uint64
}

// Emitter serializes emission into the single shared virtual device.
// Dispatch never waits on the device; a dedicated consumer drains the
// pending events in arrival order, one exclusive emission at a time.
type Emitter struct {
	mu  sync.Mutex
	dev input.VirtualDevice

	pending *queue.Queue
	log     *slog.Logger

	emitted atomic.Uint64
	failed  atomic.Uint64
}

// NewEmitter wraps dev.
func NewEmitter(dev input.VirtualDevice, log *slog.Logger) *Emitter {
	return &Emitter{
		dev:     dev,
		pending: queue.New(),
		log:     log,
	}
}

// Dispatch queues ev for emission.
func (e *Emitter) Dispatch(ev input.Event) {
	if err := e.pending.Push(ev); err != nil {
		e.log.Debug("emitter closed, dropping event", slog.String("event", ev.String()))
	}
}

// Run emits queued events until Close or ctx ends.
func (e *Emitter) Run(ctx context.Context) error {
	for {
		ev, err := e.pending.Pop(ctx)
		if err != nil {
			if errors.Is(err, queue.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			return err
		}
		e.emit(ev)
	}
}

func (e *Emitter) emit(ev input.Event) {
	e.mu.Lock()
	err := e.dev.Emit(ev)
	e.mu.Unlock()

	if err != nil {
		e.failed.Add(1)
		e.log.Warn("failed to emit event", slog.String("event", ev.String()), slog.Any("error", err))
		return
	}
	e.emitted.Add(1)
}

// Pending returns the number of events waiting for emission.
func (e *Emitter) Pending() int {
	return e.pending.Len()
}

// Stats returns the emission counters.
func (e *Emitter) Stats() Stats {
	return Stats{Emitted: e.emitted.Load(), Failed: e.failed.Load()}
}

// Close stops intake; events still pending are abandoned.
func (e *Emitter) Close() {
	e.pending.Close()
}
