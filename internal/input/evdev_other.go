//go:build !linux

package input

import "log/slog"

// Stub implementation for platforms without evdev/uinput

type unsupportedSource struct{}

// NewSource returns a source that cannot open anything on this platform.
func NewSource() DeviceSource {
	return unsupportedSource{}
}

func (unsupportedSource) Paths() ([]string, error) {
	return nil, ErrUnsupported
}

func (unsupportedSource) Open(path string) (Device, error) {
	return nil, ErrUnsupported
}

// NewVirtualDevice is not available on this platform.
func NewVirtualDevice(name string) (VirtualDevice, error) {
	return nil, ErrUnsupported
}

// CheckPrivileges is a no-op on this platform.
func CheckPrivileges(log *slog.Logger) {}
