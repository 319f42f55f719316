package network

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync/atomic"

	"netboard/internal/input"
	"netboard/internal/protocol"
)

// ReceiverStats counts datagrams seen by the receiver.
type ReceiverStats struct {
	Received  uint64
	Malformed uint64
}

// UDPReceiver is the replay-side listener. Each datagram is decoded on its
// own; a bad one is logged and skipped.
type UDPReceiver struct {
	bind    string
	bufSize int
	handler func(input.Event)
	conn    *net.UDPConn
	log     *slog.Logger

	received  atomic.Uint64
	malformed atomic.Uint64
}

// NewUDPReceiver creates a receiver for bind. Decoded events go to handler,
// which must not block.
func NewUDPReceiver(bind string, bufSize int, handler func(input.Event), log *slog.Logger) *UDPReceiver {
	if bufSize < protocol.EventSize {
		bufSize = protocol.MaxDatagramSize
	}
	return &UDPReceiver{
		bind:    bind,
		bufSize: bufSize,
		handler: handler,
		log:     log,
	}
}

// Start binds the socket.
func (r *UDPReceiver) Start() error {
	addr, err := net.ResolveUDPAddr("udp", r.bind)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", r.bind, err)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", r.bind, err)
	}
	r.conn = conn

	// Large read buffer for burst receives
	_ = conn.SetReadBuffer(1 << 20)

	r.log.Info("udp receiver listening", slog.String("addr", conn.LocalAddr().String()))
	return nil
}

// Addr returns the bound address, or nil before Start.
func (r *UDPReceiver) Addr() net.Addr {
	if r.conn == nil {
		return nil
	}
	return r.conn.LocalAddr()
}

// Serve reads datagrams until ctx ends, then closes the socket.
func (r *UDPReceiver) Serve(ctx context.Context) error {
	if r.conn == nil {
		return errors.New("udp receiver: not started")
	}

	stop := context.AfterFunc(ctx, func() {
		_ = r.conn.Close()
	})
	defer stop()

	buf := make([]byte, r.bufSize)
	for {
		n, from, err := r.conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			r.log.Warn("failed to receive datagram", slog.Any("error", err))
			continue
		}
		r.received.Add(1)

		ev, err := protocol.DecodeEvent(buf[:n])
		if err != nil {
			r.malformed.Add(1)
			r.log.Warn("dropping malformed datagram",
				slog.String("from", from.String()),
				slog.Int("bytes", n),
				slog.Any("error", err))
			continue
		}

		r.log.Debug("received event", slog.String("event", ev.String()))
		r.handler(ev)
	}
}

// Stats returns the datagram counters.
func (r *UDPReceiver) Stats() ReceiverStats {
	return ReceiverStats{Received: r.received.Load(), Malformed: r.malformed.Load()}
}

// Close shuts the socket.
func (r *UDPReceiver) Close() error {
	if r.conn == nil {
		return nil
	}
	return r.conn.Close()
}
