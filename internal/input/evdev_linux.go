//go:build linux

package input

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	evdev "github.com/holoplot/go-evdev"
	"golang.org/x/sys/unix"
)

const busUSB = 0x03

// EvdevSource enumerates and grabs /dev/input/event* nodes.
type EvdevSource struct{}

// NewSource returns the platform device source.
func NewSource() DeviceSource {
	return EvdevSource{}
}

// Paths lists every event device node.
func (EvdevSource) Paths() ([]string, error) {
	found, err := evdev.ListDevicePaths()
	if err != nil {
		return nil, fmt.Errorf("list input devices: %w", err)
	}
	paths := make([]string, 0, len(found))
	for _, p := range found {
		paths = append(paths, p.Path)
	}
	sort.Strings(paths)
	return paths, nil
}

// Open opens the node and takes the exclusive grab. A device that cannot be
// grabbed is closed again: forwarding it would duplicate its input locally.
func (EvdevSource) Open(path string) (Device, error) {
	dev, err := evdev.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := dev.Grab(); err != nil {
		_ = dev.Close()
		return nil, fmt.Errorf("grab %s: %w", path, err)
	}
	name, err := dev.Name()
	if err != nil {
		name = "unknown"
	}
	return &evdevDevice{dev: dev, path: path, name: name}, nil
}

type evdevDevice struct {
	dev  *evdev.InputDevice
	path string
	name string
}

func (d *evdevDevice) Path() string { return d.path }
func (d *evdevDevice) Name() string { return d.name }

func (d *evdevDevice) ReadOne() (Event, error) {
	ev, err := d.dev.ReadOne()
	if err != nil {
		if isTransient(err) {
			return Event{}, ErrNoData
		}
		return Event{}, err
	}
	return Event{Kind: uint16(ev.Type), Code: uint16(ev.Code), Value: ev.Value}, nil
}

func (d *evdevDevice) Release() error {
	return d.dev.Ungrab()
}

func (d *evdevDevice) Close() error {
	return d.dev.Close()
}

func isTransient(err error) bool {
	return errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EINTR)
}

// uinputDevice is the synthetic replay target.
type uinputDevice struct {
	dev *evdev.InputDevice
}

// NewVirtualDevice creates a uinput device advertising every key and button
// code plus the relative pointer and wheel axes.
func NewVirtualDevice(name string) (VirtualDevice, error) {
	keys := make([]evdev.EvCode, 0, int(KeyMax)+1)
	for code := uint16(0); code <= KeyMax; code++ {
		keys = append(keys, evdev.EvCode(code))
	}
	rel := []evdev.EvCode{
		evdev.EvCode(RelX),
		evdev.EvCode(RelY),
		evdev.EvCode(RelHWheel),
		evdev.EvCode(RelWheel),
		evdev.EvCode(RelWheelHiRes),
		evdev.EvCode(RelHWheelHiRes),
	}

	dev, err := evdev.CreateDevice(name, evdev.InputID{
		BusType: busUSB,
		Vendor:  0x1,
		Product: 0x1,
		Version: 1,
	}, map[evdev.EvType][]evdev.EvCode{
		evdev.EvType(EvKey): keys,
		evdev.EvType(EvRel): rel,
	})
	if err != nil {
		return nil, fmt.Errorf("create virtual device %q: %w", name, err)
	}
	return &uinputDevice{dev: dev}, nil
}

func (u *uinputDevice) Emit(ev Event) error {
	return u.dev.WriteOne(&evdev.InputEvent{
		Type:  evdev.EvType(ev.Kind),
		Code:  evdev.EvCode(ev.Code),
		Value: ev.Value,
	})
}

func (u *uinputDevice) Close() error {
	return u.dev.Close()
}

// CheckPrivileges warns when raw device access is likely to be refused.
func CheckPrivileges(log *slog.Logger) {
	if unix.Geteuid() != 0 {
		log.Warn("not running as root: opening /dev/input and /dev/uinput may be denied",
			slog.Int("euid", unix.Geteuid()))
	}
}
