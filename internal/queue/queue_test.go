package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"netboard/internal/input"
)

func ev(code uint16, value int32) input.Event {
	return input.Event{Kind: input.EvKey, Code: code, Value: value}
}

func TestPushPopFIFO(t *testing.T) {
	q := New()
	for i := 0; i < 100; i++ {
		require.NoError(t, q.Push(ev(uint16(i), 1)))
	}
	require.Equal(t, 100, q.Len())

	for i := 0; i < 100; i++ {
		got, err := q.Pop(context.Background())
		require.NoError(t, err)
		require.Equal(t, uint16(i), got.Code)
	}
	require.Zero(t, q.Len())
}

func TestPopWaitsForPush(t *testing.T) {
	q := New()
	got := make(chan input.Event, 1)
	go func() {
		e, err := q.Pop(context.Background())
		if err == nil {
			got <- e
		}
	}()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, q.Push(ev(30, 1)))

	select {
	case e := <-got:
		require.Equal(t, ev(30, 1), e)
	case <-time.After(time.Second):
		t.Fatal("pop did not wake up")
	}
}

func TestPopHonoursContext(t *testing.T) {
	q := New()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := q.Pop(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCloseRejectsPushAndWakesConsumer(t *testing.T) {
	q := New()
	require.NoError(t, q.Push(ev(30, 1)))

	done := make(chan error, 1)
	go func() {
		// Drain the queued event, then block until Close.
		if _, err := q.Pop(context.Background()); err != nil {
			done <- err
			return
		}
		_, err := q.Pop(context.Background())
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	q.Close()
	q.Close()

	select {
	case err := <-done:
		require.ErrorIs(t, err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("consumer not woken by close")
	}
	require.ErrorIs(t, q.Push(ev(30, 0)), ErrClosed)
}

func TestPerProducerOrderIsPreserved(t *testing.T) {
	const producers = 4
	const perProducer = 500

	q := New()
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				_ = q.Push(input.Event{Kind: input.EvKey, Code: uint16(p), Value: int32(i)})
			}
		}(p)
	}

	next := make([]int32, producers)
	for n := 0; n < producers*perProducer; n++ {
		got, err := q.Pop(context.Background())
		require.NoError(t, err)
		require.Equal(t, next[got.Code], got.Value, "producer %d out of order", got.Code)
		next[got.Code]++
	}
	wg.Wait()
}
