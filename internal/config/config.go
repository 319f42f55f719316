// Package config provides configuration for the capture client and the
// replay server.
package config

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	scfg "github.com/ihippik/config"
	"github.com/sethvargo/go-envconfig"

	"netboard/internal/hotkey"
	"netboard/internal/protocol"
)

// Config represents the application configuration
type Config struct {
	Logger     *scfg.Logger `env:",prefix=LOG_"`
	Monitoring scfg.Monitoring

	Client Client `env:",prefix=NETBOARD_CLIENT_"`
	Server Server `env:",prefix=NETBOARD_SERVER_"`
}

// Client contains capture-side settings
type Client struct {
	// ServerAddr is the replay host, e.g. "192.168.1.100:9999"
	ServerAddr string `env:"SERVER"`

	// Hotkey is the emergency exit combination
	Hotkey string `env:"HOTKEY,default=Ctrl+Shift+Alt+E"`

	// RetryDelay is the pause after a device read that found no data
	RetryDelay time.Duration `env:"RETRY_DELAY,default=1ms"`
}

// Server contains replay-side settings
type Server struct {
	// BindAddr is the UDP address to listen on
	BindAddr string `env:"BIND,default=0.0.0.0:9999"`

	// DeviceName is the name of the synthetic input device
	DeviceName string `env:"DEVICE_NAME,default=NetBoard Virtual Device"`

	// ReadBuffer is the datagram buffer size in bytes
	ReadBuffer int `env:"READ_BUFFER,default=65536"`
}

// defaults fills settings that ihippik/config marks as required but that a
// command-line tool should not demand.
var defaults = map[string]string{
	"LOG_LEVEL": string(scfg.LoggerLevelInfo),
}

// InitConfig loads the configuration from the environment.
func InitConfig(ctx context.Context) (*Config, error) {
	return initConfig(ctx, envconfig.OsLookuper())
}

func initConfig(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config

	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: envconfig.MultiLookuper(lookuper, envconfig.MapLookuper(defaults)),
	}); err != nil {
		return nil, fmt.Errorf("process: %w", err)
	}

	return &cfg, nil
}

// Validate checks the client settings.
func (c Client) Validate() error {
	if c.ServerAddr == "" {
		return errors.New("client: server address is required")
	}
	if err := checkHostPort(c.ServerAddr); err != nil {
		return fmt.Errorf("client: server address: %w", err)
	}
	if _, err := hotkey.ParseCombo(c.Hotkey); err != nil {
		return fmt.Errorf("client: hotkey: %w", err)
	}
	if c.RetryDelay <= 0 {
		return fmt.Errorf("client: retry delay must be positive, got %s", c.RetryDelay)
	}
	return nil
}

// Validate checks the server settings.
func (s Server) Validate() error {
	if err := checkHostPort(s.BindAddr); err != nil {
		return fmt.Errorf("server: bind address: %w", err)
	}
	if s.DeviceName == "" {
		return errors.New("server: device name is required")
	}
	if s.ReadBuffer < protocol.EventSize {
		return fmt.Errorf("server: read buffer must be at least %d bytes, got %d", protocol.EventSize, s.ReadBuffer)
	}
	return nil
}

func checkHostPort(addr string) error {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}
	if port == "" {
		return fmt.Errorf("missing port in %q", addr)
	}
	return nil
}
