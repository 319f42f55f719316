// Package session runs the capture client and the replay server pipelines.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"netboard/internal/config"
	"netboard/internal/hotkey"
	"netboard/internal/input"
	"netboard/internal/network"
	"netboard/internal/queue"
)

var (
	// ErrNoDevices means no input device could be opened and grabbed.
	ErrNoDevices = errors.New("session: no input devices could be captured")

	// ErrAllDevicesLost means every capture reader stopped on its own.
	ErrAllDevicesLost = errors.New("session: all capture devices stopped")
)

// Client captures every local input device and forwards its events.
type Client struct {
	cfg    config.Client
	source input.DeviceSource
	log    *slog.Logger
}

// NewClient creates a capture client.
func NewClient(cfg config.Client, source input.DeviceSource, log *slog.Logger) *Client {
	return &Client{
		cfg:    cfg,
		source: source,
		log:    log.With(slog.String("component", "client")),
	}
}

// Run grabs the devices and forwards their events until the exit hotkey is
// pressed or ctx ends, both of which return nil. Devices are released on
// every return path.
func (c *Client) Run(ctx context.Context) error {
	combo, err := hotkey.ParseCombo(c.cfg.Hotkey)
	if err != nil {
		return fmt.Errorf("exit hotkey: %w", err)
	}

	sender, err := network.NewUDPSender(c.cfg.ServerAddr, c.log.With(slog.String("component", "sender")))
	if err != nil {
		return fmt.Errorf("sender: %w", err)
	}
	defer sender.Close()

	registry := input.NewRegistry()
	defer c.release(registry)

	if err := c.capture(registry); err != nil {
		return err
	}

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	events := queue.New()
	defer events.Close()

	// The cause is set before devices are closed so the other readers see a
	// cancelled context when their reads fail.
	monitor := hotkey.NewMonitor(combo, func() {
		events.Close()
		cancel(hotkey.ErrExitRequested)
		c.release(registry)
	}, c.log)

	c.log.Info("capturing input",
		slog.Int("devices", registry.Len()),
		slog.String("server", c.cfg.ServerAddr),
		slog.String("exit_hotkey", combo.String()))

	var readers sync.WaitGroup
	for _, dev := range registry.Devices() {
		readers.Add(1)
		go func(dev input.Device) {
			defer readers.Done()
			r := input.NewReader(dev, events, monitor, c.cfg.RetryDelay, c.log)
			if err := r.Run(); err != nil && ctx.Err() == nil {
				c.log.Error("capture stopped", slog.String("device", dev.Path()), slog.Any("error", err))
			}
		}(dev)
	}
	go func() {
		readers.Wait()
		cancel(ErrAllDevicesLost)
	}()

	senderDone := make(chan error, 1)
	go func() {
		senderDone <- sender.Run(ctx, events)
	}()

	<-ctx.Done()
	events.Close()
	c.release(registry)
	if err := <-senderDone; err != nil {
		c.log.Warn("sender stopped", slog.Any("error", err))
	}

	stats := sender.Stats()
	c.log.Info("client stopped",
		slog.Uint64("sent", stats.Sent),
		slog.Uint64("dropped", stats.Dropped))

	cause := context.Cause(ctx)
	switch {
	case errors.Is(cause, hotkey.ErrExitRequested):
		return nil
	case errors.Is(cause, ErrAllDevicesLost):
		return cause
	default:
		return nil
	}
}

// capture opens and grabs every device the source lists. Devices that fail
// are skipped; having none at all is fatal.
func (c *Client) capture(registry *input.Registry) error {
	paths, err := c.source.Paths()
	if err != nil {
		return fmt.Errorf("list devices: %w", err)
	}

	for _, path := range paths {
		dev, err := c.source.Open(path)
		if err != nil {
			c.log.Warn("could not capture device", slog.String("path", path), slog.Any("error", err))
			continue
		}
		if err := registry.Add(dev); err != nil {
			c.log.Warn("device released during startup", slog.String("path", path), slog.Any("error", err))
			continue
		}
		c.log.Info("grabbed device", slog.String("name", dev.Name()), slog.String("path", path))
	}

	if registry.Len() == 0 {
		return ErrNoDevices
	}
	return nil
}

func (c *Client) release(registry *input.Registry) {
	if err := registry.ReleaseAll(); err != nil {
		c.log.Warn("failed to release some devices", slog.Any("error", err))
	}
}
