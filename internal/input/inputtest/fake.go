// Package inputtest provides in-memory devices for exercising the capture
// and replay pipeline without kernel access.
package inputtest

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"netboard/internal/input"
)

// Device replays a scripted event sequence. Once the script is exhausted it
// either returns FailWith or blocks until Close.
type Device struct {
	path   string
	name   string
	script []input.Event

	// NoDataEvery makes every n-th read report input.ErrNoData.
	NoDataEvery int
	// FailWith is returned after the script instead of blocking.
	FailWith error
	// ReleaseErr is returned by Release.
	ReleaseErr error

	mu       sync.Mutex
	pos      int
	reads    int
	released int
	closed   bool
	done     chan struct{}
}

// NewDevice creates a device that yields events in order.
func NewDevice(path string, events ...input.Event) *Device {
	return &Device{
		path:   path,
		name:   "fake " + path,
		script: events,
		done:   make(chan struct{}),
	}
}

func (d *Device) Path() string { return d.path }
func (d *Device) Name() string { return d.name }

func (d *Device) ReadOne() (input.Event, error) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return input.Event{}, os.ErrClosed
	}
	d.reads++
	if d.NoDataEvery > 0 && d.reads%d.NoDataEvery == 0 {
		d.mu.Unlock()
		return input.Event{}, input.ErrNoData
	}
	if d.pos < len(d.script) {
		ev := d.script[d.pos]
		d.pos++
		d.mu.Unlock()
		return ev, nil
	}
	failWith := d.FailWith
	d.mu.Unlock()

	if failWith != nil {
		return input.Event{}, failWith
	}
	<-d.done
	return input.Event{}, os.ErrClosed
}

func (d *Device) Release() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.released++
	return d.ReleaseErr
}

func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return os.ErrClosed
	}
	d.closed = true
	close(d.done)
	return nil
}

// Released reports how many times Release was called.
func (d *Device) Released() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.released
}

// Closed reports whether Close was called.
func (d *Device) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// Source serves a fixed set of devices; paths mapped to an error fail to open.
type Source struct {
	Order   []string
	Devices map[string]*Device
	Errors  map[string]error
	ListErr error
}

// NewSource builds a source over devs, in the given order.
func NewSource(devs ...*Device) *Source {
	s := &Source{
		Devices: make(map[string]*Device),
		Errors:  make(map[string]error),
	}
	for _, d := range devs {
		s.Order = append(s.Order, d.Path())
		s.Devices[d.Path()] = d
	}
	return s
}

// Fail makes path fail to open with err.
func (s *Source) Fail(path string, err error) {
	s.Order = append(s.Order, path)
	s.Errors[path] = err
}

func (s *Source) Paths() ([]string, error) {
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	return append([]string(nil), s.Order...), nil
}

func (s *Source) Open(path string) (input.Device, error) {
	if err, ok := s.Errors[path]; ok {
		return nil, err
	}
	dev, ok := s.Devices[path]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", path, os.ErrNotExist)
	}
	return dev, nil
}

// VirtualDevice records every emitted event.
type VirtualDevice struct {
	// Reject makes Emit fail for matching events.
	Reject func(ev input.Event) bool

	mu     sync.Mutex
	events []input.Event
	failed int
	closed bool
}

// ErrRejected is returned by Emit for rejected events.
var ErrRejected = errors.New("inputtest: event rejected")

func (v *VirtualDevice) Emit(ev input.Event) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return os.ErrClosed
	}
	if v.Reject != nil && v.Reject(ev) {
		v.failed++
		return ErrRejected
	}
	v.events = append(v.events, ev)
	return nil
}

func (v *VirtualDevice) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed = true
	return nil
}

// Events returns a snapshot of the emitted events.
func (v *VirtualDevice) Events() []input.Event {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]input.Event(nil), v.events...)
}

// Failed reports how many emissions were rejected.
func (v *VirtualDevice) Failed() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.failed
}

// Closed reports whether Close was called.
func (v *VirtualDevice) Closed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.closed
}

// Press and Release build EV_KEY transitions.
func Press(code uint16) input.Event {
	return input.Event{Kind: input.EvKey, Code: code, Value: input.KeyPressed}
}

func Release(code uint16) input.Event {
	return input.Event{Kind: input.EvKey, Code: code, Value: input.KeyReleased}
}
