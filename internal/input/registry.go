package input

import (
	"errors"
	"fmt"
	"sync"
)

// Registry tracks every open capture handle so that any termination path
// can give the devices back to the local session.
type Registry struct {
	mu      sync.Mutex
	devices []Device
	done    bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add records an open device. Devices added after ReleaseAll are released
// immediately.
func (r *Registry) Add(dev Device) error {
	r.mu.Lock()
	if !r.done {
		r.devices = append(r.devices, dev)
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()
	return releaseOne(dev)
}

// Len returns the number of registered devices.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.devices)
}

// Devices returns a snapshot of the registered devices.
func (r *Registry) Devices() []Device {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Device, len(r.devices))
	copy(out, r.devices)
	return out
}

// ReleaseAll ungrabs and closes every registered device. Only the first call
// does any work. Failures do not stop the remaining releases; they are joined
// into the returned error.
func (r *Registry) ReleaseAll() error {
	r.mu.Lock()
	if r.done {
		r.mu.Unlock()
		return nil
	}
	r.done = true
	devices := r.devices
	r.devices = nil
	r.mu.Unlock()

	var errs []error
	for _, dev := range devices {
		if err := releaseOne(dev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func releaseOne(dev Device) error {
	var errs []error
	if err := dev.Release(); err != nil {
		errs = append(errs, fmt.Errorf("release %s: %w", dev.Path(), err))
	}
	if err := dev.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close %s: %w", dev.Path(), err))
	}
	return errors.Join(errs...)
}
