package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"

	"netboard/internal/config"
	"netboard/internal/input"
	"netboard/internal/network"
	"netboard/internal/replay"
)

// VirtualDeviceFactory creates the replay target.
type VirtualDeviceFactory func(name string) (input.VirtualDevice, error)

// Server receives forwarded events and replays them on a virtual device.
type Server struct {
	cfg       config.Server
	newDevice VirtualDeviceFactory
	log       *slog.Logger

	dev      input.VirtualDevice
	emitter  *replay.Emitter
	receiver *network.UDPReceiver
}

// NewServer creates a replay server.
func NewServer(cfg config.Server, newDevice VirtualDeviceFactory, log *slog.Logger) *Server {
	return &Server{
		cfg:       cfg,
		newDevice: newDevice,
		log:       log.With(slog.String("component", "server")),
	}
}

// Start creates the virtual device and binds the socket.
func (s *Server) Start() error {
	dev, err := s.newDevice(s.cfg.DeviceName)
	if err != nil {
		return fmt.Errorf("virtual device: %w", err)
	}

	emitter := replay.NewEmitter(dev, s.log.With(slog.String("component", "emitter")))
	receiver := network.NewUDPReceiver(s.cfg.BindAddr, s.cfg.ReadBuffer, emitter.Dispatch,
		s.log.With(slog.String("component", "receiver")))
	if err := receiver.Start(); err != nil {
		_ = dev.Close()
		return fmt.Errorf("receiver: %w", err)
	}

	s.dev = dev
	s.emitter = emitter
	s.receiver = receiver
	s.log.Info("virtual input device created", slog.String("name", s.cfg.DeviceName))
	s.logTargets()
	return nil
}

// logTargets tells the operator what to pass to the client's --server flag.
func (s *Server) logTargets() {
	bound, ok := s.receiver.Addr().(*net.UDPAddr)
	if !ok {
		return
	}
	targets, err := network.InterfaceTargets(bound)
	if err != nil {
		s.log.Warn("failed to list local addresses", slog.Any("error", err))
		return
	}
	if len(targets) > 0 {
		s.log.Info("waiting for input from client", slog.Any("targets", targets))
	}
}

// Addr returns the bound address once started.
func (s *Server) Addr() net.Addr {
	if s.receiver == nil {
		return nil
	}
	return s.receiver.Addr()
}

// Serve replays received events until ctx ends, then closes the device.
func (s *Server) Serve(ctx context.Context) error {
	if s.receiver == nil {
		return errors.New("server: not started")
	}

	emitDone := make(chan error, 1)
	go func() {
		emitDone <- s.emitter.Run(ctx)
	}()

	serveErr := s.receiver.Serve(ctx)
	s.emitter.Close()
	emitErr := <-emitDone

	if err := s.dev.Close(); err != nil {
		s.log.Warn("failed to close virtual device", slog.Any("error", err))
	}

	recv, emit := s.Stats()
	s.log.Info("server stopped",
		slog.Uint64("received", recv.Received),
		slog.Uint64("malformed", recv.Malformed),
		slog.Uint64("emitted", emit.Emitted),
		slog.Uint64("failed", emit.Failed))

	return errors.Join(serveErr, emitErr)
}

// Run is Start followed by Serve.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}
	return s.Serve(ctx)
}

// Stats returns the receiver and emitter counters.
func (s *Server) Stats() (network.ReceiverStats, replay.Stats) {
	if s.receiver == nil {
		return network.ReceiverStats{}, replay.Stats{}
	}
	return s.receiver.Stats(), s.emitter.Stats()
}
