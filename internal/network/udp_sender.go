// Package network carries input events between the capture and replay hosts
// as independent UDP datagrams.
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
	"netboard/internal/queue"
)

// Source yields the events to forward.
type Source interface {
	Pop(ctx context.Context) (input.Event, error)
}

// SenderStats counts datagrams handed to the socket.
type SenderStats struct {
	Sent    uint64
	Dropped uint64
}

// UDPSender is the capture-side socket. Every event becomes one datagram;
// nothing is retried or acknowledged.
type UDPSender struct {
	conn *net.UDPConn
	log  *slog.Logger

	sent    atomic.Uint64
	dropped atomic.Uint64
}

// NewUDPSender binds an ephemeral local port and associates it with addr.
func NewUDPSender(addr string, log *slog.Logger) (*UDPSender, error) {
	raddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", addr, err)
	}
	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	// 1 MB write buffer for bursts of pointer motion
	_ = conn.SetWriteBuffer(1 << 20)

	log.Info("udp sender ready",
		slog.String("local", conn.LocalAddr().String()),
		slog.String("remote", raddr.String()))

	return &UDPSender{conn: conn, log: log}, nil
}

// LocalAddr returns the ephemeral address datagrams are sent from.
func (s *UDPSender) LocalAddr() net.Addr {
	return s.conn.LocalAddr()
}

// Run forwards events from src until src is closed or ctx ends. Send
// failures drop the event and never stop the loop.
func (s *UDPSender) Run(ctx context.Context, src Source) error {
	buf := make([]byte, 0, protocol.EventSize)
	for {
		ev, err := src.Pop(ctx)
		if err != nil {
			if errors.Is(err, queue.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("next event: %w", err)
		}

		buf = protocol.AppendEvent(buf[:0], ev)
		if _, err := s.conn.Write(buf); err != nil {
			s.dropped.Add(1)
			s.log.Warn("failed to send event", slog.String("event", ev.String()), slog.Any("error", err))
			continue
		}
		s.sent.Add(1)
	}
}

// Stats returns the datagram counters.
func (s *UDPSender) Stats() SenderStats {
	return SenderStats{Sent: s.sent.Load(), Dropped: s.dropped.Load()}
}

// Close shuts the socket.
func (s *UDPSender) Close() error {
	return s.conn.Close()
}
