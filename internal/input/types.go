// Package input provides raw input capture and injection functionality.
package input

import (
	"errors"
	"fmt"
)

// Linux input event types carried on the wire.
// Values sourced from include/uapi/linux/input-event-codes.h.
const (
	EvSyn uint16 = 0x00
	EvKey uint16 = 0x01
	EvRel uint16 = 0x02
	EvAbs uint16 = 0x03
	EvMsc uint16 = 0x04
)

// EV_KEY values
const (
	KeyReleased int32 = 0
	KeyPressed  int32 = 1
	KeyRepeated int32 = 2
)

var (
	// ErrNoData is returned by a Device read when no event is ready yet.
	ErrNoData = errors.New("input: no data available")

	// ErrUnsupported is returned on platforms without a raw input binding.
	ErrUnsupported = errors.New("input: raw device access not supported on this platform")
)

// Event is one raw input occurrence: a key transition, a relative axis
// delta, a sync marker. It is transported as exactly one datagram.
type Event struct {
	Kind  uint16
	Code  uint16
	Value int32
}

// IsKey reports whether the event is an EV_KEY transition.
func (e Event) IsKey() bool {
	return e.Kind == EvKey
}

func (e Event) String() string {
	if e.IsKey() {
		if name, ok := KeyName(e.Code); ok {
			return fmt.Sprintf("key(%s=%d, value=%d)", name, e.Code, e.Value)
		}
	}
	return fmt.Sprintf("event(kind=%d, code=%d, value=%d)", e.Kind, e.Code, e.Value)
}

// Device is an exclusively owned physical input device.
type Device interface {
	// Path is the device node, e.g. /dev/input/event3.
	Path() string
	Name() string
	// ReadOne blocks until the next event is available.
	ReadOne() (Event, error)
	// Release gives the grab back to the local session.
	Release() error
	Close() error
}

// DeviceSource enumerates and opens capturable devices.
type DeviceSource interface {
	Paths() ([]string, error)
	// Open opens the node and acquires the exclusive grab.
	Open(path string) (Device, error)
}

// VirtualDevice is the synthetic injection target on the replay side.
type VirtualDevice interface {
	Emit(ev Event) error
	Close() error
}
