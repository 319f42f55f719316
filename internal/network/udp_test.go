package network

import (
	"context"
	"io"
	"log/slog"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"netboard/internal/input"
	"netboard/internal/protocol"
	"netboard/internal/queue"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type collector struct {
	mu     sync.Mutex
	events []input.Event
}

func (c *collector) handle(ev input.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

func (c *collector) snapshot() []input.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]input.Event(nil), c.events...)
}

func startReceiver(t *testing.T, c *collector) (*UDPReceiver, context.CancelFunc, <-chan error) {
	t.Helper()
	r := NewUDPReceiver("127.0.0.1:0", protocol.MaxDatagramSize, c.handle, discardLogger())
	require.NoError(t, r.Start())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Serve(ctx) }()
	t.Cleanup(cancel)
	return r, cancel, done
}

func TestSenderToReceiverRoundTrip(t *testing.T) {
	c := &collector{}
	r, cancel, serveDone := startReceiver(t, c)

	s, err := NewUDPSender(r.Addr().String(), discardLogger())
	require.NoError(t, err)
	defer s.Close()

	q := queue.New()
	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	sendDone := make(chan error, 1)
	go func() { sendDone <- s.Run(ctx, q) }()

	want := []input.Event{
		{Kind: input.EvKey, Code: 30, Value: 1},
		{Kind: input.EvSyn, Code: input.SynReport},
		{Kind: input.EvKey, Code: 30, Value: 0},
	}
	for _, ev := range want {
		require.NoError(t, q.Push(ev))
	}

	require.Eventually(t, func() bool { return len(c.snapshot()) == len(want) }, 2*time.Second, 5*time.Millisecond)
	require.Equal(t, want, c.snapshot())
	require.EqualValues(t, len(want), s.Stats().Sent)

	q.Close()
	require.NoError(t, <-sendDone)

	cancel()
	require.NoError(t, <-serveDone)
}

func TestReceiverSurvivesGarbageBetweenValidDatagrams(t *testing.T) {
	c := &collector{}
	r, cancel, serveDone := startReceiver(t, c)

	conn, err := net.Dial("udp", r.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	first := input.Event{Kind: input.EvKey, Code: 30, Value: 1}
	second := input.Event{Kind: input.EvKey, Code: 30, Value: 0}

	_, err = conn.Write(protocol.EncodeEvent(first))
	require.NoError(t, err)
	_, err = conn.Write([]byte{0xde, 0xad, 0xbe})
	require.NoError(t, err)
	_, err = conn.Write(protocol.EncodeEvent(second))
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(c.snapshot()) == 2 }, 2*time.Second, 5*time.Millisecond)
	require.Equal(t, []input.Event{first, second}, c.snapshot())

	stats := r.Stats()
	require.EqualValues(t, 3, stats.Received)
	require.EqualValues(t, 1, stats.Malformed)

	cancel()
	require.NoError(t, <-serveDone)
}

func TestReceiverStartFailsOnBusyAddress(t *testing.T) {
	c := &collector{}
	r, _, _ := startReceiver(t, c)

	other := NewUDPReceiver(r.Addr().String(), 0, c.handle, discardLogger())
	require.Error(t, other.Start())
}

func TestServeRequiresStart(t *testing.T) {
	r := NewUDPReceiver("127.0.0.1:0", 0, func(input.Event) {}, discardLogger())
	require.Error(t, r.Serve(context.Background()))
	require.Nil(t, r.Addr())
}

func TestSenderKeepsGoingWhenNobodyListens(t *testing.T) {
	// Reserve a port and release it so the destination refuses datagrams.
	probe, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	addr := probe.LocalAddr().String()
	require.NoError(t, probe.Close())

	s, err := NewUDPSender(addr, discardLogger())
	require.NoError(t, err)
	defer s.Close()

	q := queue.New()
	for i := 0; i < 20; i++ {
		require.NoError(t, q.Push(input.Event{Kind: input.EvRel, Code: input.RelX, Value: int32(i)}))
	}

	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background(), q) }()

	require.Eventually(t, func() bool {
		st := s.Stats()
		return st.Sent+st.Dropped == 20
	}, 2*time.Second, 5*time.Millisecond)

	q.Close()
	require.NoError(t, <-done)
}

func TestSenderRejectsBadAddress(t *testing.T) {
	_, err := NewUDPSender("not an address", discardLogger())
	require.Error(t, err)
}
