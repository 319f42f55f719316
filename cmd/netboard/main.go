// netboard forwards raw keyboard and mouse input from one host to another.
package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	scfg "github.com/ihippik/config"
	"github.com/urfave/cli/v2"

	"netboard/internal/config"
	"netboard/internal/input"
	"netboard/internal/session"
)

// Platform bindings, replaced in tests.
var (
	newDeviceSource  = input.NewSource
	newVirtualDevice = input.NewVirtualDevice
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "netboard",
		Usage:   "turn this machine's keyboard and mouse into input for another host",
		Version: scfg.GetVersion(),
		Commands: []*cli.Command{
			{
				Name:  "client",
				Usage: "grab local input devices and send their events to a server",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "server",
						Aliases: []string{"s"},
						Usage:   "server address to send to (e.g. 192.168.1.100:9999)",
					},
					&cli.StringFlag{
						Name:  "hotkey",
						Value: "Ctrl+Shift+Alt+E",
						Usage: "key combination that releases the devices and exits",
					},
				},
				Action: runClient,
			},
			{
				Name:  "server",
				Usage: "receive events and replay them on a virtual input device",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "bind",
						Aliases: []string{"b"},
						Value:   "0.0.0.0:9999",
						Usage:   "address to listen on",
					},
					&cli.StringFlag{
						Name:  "device-name",
						Value: "NetBoard Virtual Device",
						Usage: "name of the synthetic input device",
					},
				},
				Action: runServer,
			},
		},
	}
}

func runClient(c *cli.Context) error {
	ctx, cancel := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.InitConfig(ctx)
	if err != nil {
		return fmt.Errorf("get config: %w", err)
	}
	if c.IsSet("server") {
		cfg.Client.ServerAddr = c.String("server")
	}
	if c.IsSet("hotkey") {
		cfg.Client.Hotkey = c.String("hotkey")
	}
	if err := cfg.Client.Validate(); err != nil {
		return err
	}

	logger := scfg.InitSlog(cfg.Logger, c.App.Version, cfg.Monitoring.SentryDSN != "")
	input.CheckPrivileges(logger)

	return session.NewClient(cfg.Client, newDeviceSource(), logger).Run(ctx)
}

func runServer(c *cli.Context) error {
	ctx, cancel := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.InitConfig(ctx)
	if err != nil {
		return fmt.Errorf("get config: %w", err)
	}
	if c.IsSet("bind") {
		cfg.Server.BindAddr = c.String("bind")
	}
	if c.IsSet("device-name") {
		cfg.Server.DeviceName = c.String("device-name")
	}
	if err := cfg.Server.Validate(); err != nil {
		return err
	}

	logger := scfg.InitSlog(cfg.Logger, c.App.Version, cfg.Monitoring.SentryDSN != "")
	input.CheckPrivileges(logger)

	return session.NewServer(cfg.Server, newVirtualDevice, logger).Run(ctx)
}
