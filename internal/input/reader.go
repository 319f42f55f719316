package input

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"
)

// DefaultRetryDelay is the pause after a read that found no data.
const DefaultRetryDelay = time.Millisecond

// Sink receives translated events. A Push error means nobody is consuming
// any more.
type Sink interface {
	Push(ev Event) error
}

// Observer inspects every event before it is forwarded.
type Observer interface {
	Observe(ev Event)
}

// Reader is the capture loop of a single device.
type Reader struct {
	dev        Device
	sink       Sink
	observer   Observer
	retryDelay time.Duration
	log        *slog.Logger
}

// NewReader creates a reader forwarding events from dev into sink. observer
// may be nil.
func NewReader(dev Device, sink Sink, observer Observer, retryDelay time.Duration, log *slog.Logger) *Reader {
	if retryDelay <= 0 {
		retryDelay = DefaultRetryDelay
	}
	return &Reader{
		dev:        dev,
		sink:       sink,
		observer:   observer,
		retryDelay: retryDelay,
		log:        log.With(slog.String("device", dev.Path())),
	}
}

// Run blocks reading the device until the sink is closed (nil is returned)
// or the device fails (the read error is returned). It occupies its own OS
// thread for the whole loop.
func (r *Reader) Run() error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	r.log.Debug("reader started", slog.String("name", r.dev.Name()))

	for {
		ev, err := r.dev.ReadOne()
		if err != nil {
			if errors.Is(err, ErrNoData) {
				time.Sleep(r.retryDelay)
				continue
			}
			return fmt.Errorf("read %s: %w", r.dev.Path(), err)
		}

		if r.observer != nil {
			r.observer.Observe(ev)
		}

		if err := r.sink.Push(ev); err != nil {
			r.log.Debug("sink closed, reader stopping")
			return nil
		}
	}
}
