package input_test

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"netboard/internal/input"
	"netboard/internal/input/inputtest"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestKeyTableIsBijective(t *testing.T) {
	seen := make(map[uint16]string)
	for code := uint16(0); code <= input.KeyMax; code++ {
		name, ok := input.KeyName(code)
		if !ok {
			continue
		}
		prev, dup := seen[code]
		require.False(t, dup, "code %d named both %s and %s", code, prev, name)
		seen[code] = name

		back, ok := input.KeyCode(name)
		require.True(t, ok, name)
		require.Equal(t, code, back, name)
	}
	require.Greater(t, len(seen), 100)
}

func TestKeyCodeNormalizesNames(t *testing.T) {
	for _, name := range []string{"E", "e", "KEY_E", "key_e", " e "} {
		code, ok := input.KeyCode(name)
		require.True(t, ok, name)
		require.Equal(t, input.KeyE, code, name)
	}

	code, ok := input.KeyCode("btn_left")
	require.True(t, ok)
	require.Equal(t, uint16(0x110), code)

	_, ok = input.KeyCode("")
	require.False(t, ok)
	_, ok = input.KeyCode("NOT_A_KEY")
	require.False(t, ok)
}

func TestModifierCodesMatchTable(t *testing.T) {
	cases := map[string]uint16{
		"LEFTCTRL":   input.KeyLeftCtrl,
		"RIGHTCTRL":  input.KeyRightCtrl,
		"LEFTSHIFT":  input.KeyLeftShift,
		"RIGHTSHIFT": input.KeyRightShift,
		"LEFTALT":    input.KeyLeftAlt,
		"RIGHTALT":   input.KeyRightAlt,
		"LEFTMETA":   input.KeyLeftMeta,
		"RIGHTMETA":  input.KeyRightMeta,
		"A":          30,
		"B":          48,
	}
	for name, want := range cases {
		got, ok := input.KeyCode(name)
		require.True(t, ok, name)
		require.Equal(t, want, got, name)
	}
}

func TestEventString(t *testing.T) {
	require.Equal(t, "key(KEY_A=30, value=1)", inputtest.Press(30).String())
	require.Equal(t, "event(kind=2, code=0, value=-5)",
		input.Event{Kind: input.EvRel, Code: input.RelX, Value: -5}.String())
}

func TestRegistryReleaseAllIsIdempotent(t *testing.T) {
	a := inputtest.NewDevice("/dev/input/event0")
	b := inputtest.NewDevice("/dev/input/event1")
	b.ReleaseErr = errors.New("ungrab failed")

	reg := input.NewRegistry()
	require.NoError(t, reg.Add(a))
	require.NoError(t, reg.Add(b))
	require.Equal(t, 2, reg.Len())

	err := reg.ReleaseAll()
	require.Error(t, err)
	require.Contains(t, err.Error(), "/dev/input/event1")
	require.True(t, a.Closed())
	require.True(t, b.Closed(), "a failed ungrab must not skip close")

	require.NoError(t, reg.ReleaseAll())
	require.Equal(t, 1, a.Released())
	require.Equal(t, 1, b.Released())
	require.Zero(t, reg.Len())
}

func TestRegistryReleasesLateAdds(t *testing.T) {
	reg := input.NewRegistry()
	require.NoError(t, reg.ReleaseAll())

	late := inputtest.NewDevice("/dev/input/event9")
	require.NoError(t, reg.Add(late))
	require.True(t, late.Closed())
	require.Equal(t, 1, late.Released())
}

type sliceSink struct {
	mu     sync.Mutex
	events []input.Event
	limit  int
}

func (s *sliceSink) Push(ev input.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.limit > 0 && len(s.events) >= s.limit {
		return errors.New("closed")
	}
	s.events = append(s.events, ev)
	return nil
}

type recordingObserver struct {
	seen []input.Event
}

func (o *recordingObserver) Observe(ev input.Event) {
	o.seen = append(o.seen, ev)
}

func TestReaderForwardsInOrderAndRetriesOnNoData(t *testing.T) {
	script := []input.Event{
		inputtest.Press(30),
		{Kind: input.EvSyn, Code: input.SynReport},
		inputtest.Release(30),
	}
	dev := inputtest.NewDevice("/dev/input/event0", script...)
	dev.NoDataEvery = 2
	readErr := errors.New("device unplugged")
	dev.FailWith = readErr

	sink := &sliceSink{}
	obs := &recordingObserver{}
	err := input.NewReader(dev, sink, obs, time.Microsecond, discardLogger()).Run()

	require.ErrorIs(t, err, readErr)
	require.True(t, strings.Contains(err.Error(), "/dev/input/event0"))
	require.Equal(t, script, sink.events)
	require.Equal(t, script, obs.seen)
}

func TestReaderStopsSilentlyWhenSinkCloses(t *testing.T) {
	dev := inputtest.NewDevice("/dev/input/event0",
		inputtest.Press(30), inputtest.Release(30), inputtest.Press(48))
	sink := &sliceSink{limit: 1}

	err := input.NewReader(dev, sink, nil, 0, discardLogger()).Run()
	require.NoError(t, err)
	require.Equal(t, []input.Event{inputtest.Press(30)}, sink.events)
}

func TestReaderEndsWhenDeviceIsClosed(t *testing.T) {
	dev := inputtest.NewDevice("/dev/input/event0", inputtest.Press(30))
	sink := &sliceSink{}

	done := make(chan error, 1)
	go func() {
		done <- input.NewReader(dev, sink, nil, 0, discardLogger()).Run()
	}()

	require.Eventually(t, func() bool {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		return len(sink.events) == 1
	}, time.Second, time.Millisecond)

	require.NoError(t, dev.Close())
	select {
	case err := <-done:
		require.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("reader did not stop after close")
	}
}
