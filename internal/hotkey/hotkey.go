// Package hotkey tracks held keys across every capture device and fires the
// emergency exit combination.
package hotkey

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"netboard/internal/input"
)

// DefaultCombo is the exit combination used when none is configured.
const DefaultCombo = "Ctrl+Shift+Alt+E"

var (
	// ErrExitRequested is the cancellation cause recorded when the exit
	// combination fires.
	ErrExitRequested = errors.New("hotkey: exit combination pressed")

	// ErrUnknownKey is returned for combination tokens with no key code.
	ErrUnknownKey = errors.New("hotkey: unknown key")
)

// modifierGroups expand side-less modifier names to both physical keys.
var modifierGroups = map[string][]uint16{
	"CTRL":    {input.KeyLeftCtrl, input.KeyRightCtrl},
	"CONTROL": {input.KeyLeftCtrl, input.KeyRightCtrl},
	"SHIFT":   {input.KeyLeftShift, input.KeyRightShift},
	"ALT":     {input.KeyLeftAlt, input.KeyRightAlt},
	"META":    {input.KeyLeftMeta, input.KeyRightMeta},
	"SUPER":   {input.KeyLeftMeta, input.KeyRightMeta},
}

// Combo is a key combination. Each group is satisfied by any one of its
// codes; the combination needs every group at once.
type Combo struct {
	groups [][]uint16
	text   string
}

// ParseCombo parses a combination such as "Ctrl+Shift+Alt+E".
func ParseCombo(s string) (Combo, error) {
	parts := strings.Split(strings.ToUpper(s), "+")
	combo := Combo{text: s}
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			return Combo{}, fmt.Errorf("parse %q: empty key", s)
		}
		if group, ok := modifierGroups[p]; ok {
			combo.groups = append(combo.groups, group)
			continue
		}
		code, ok := input.KeyCode(p)
		if !ok {
			return Combo{}, fmt.Errorf("parse %q: %w %q", s, ErrUnknownKey, p)
		}
		combo.groups = append(combo.groups, []uint16{code})
	}
	return combo, nil
}

// MustParseCombo is ParseCombo for constant combinations.
func MustParseCombo(s string) Combo {
	c, err := ParseCombo(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Combo) String() string {
	return c.text
}

func (c Combo) satisfiedBy(pressed map[uint16]struct{}) bool {
	if len(c.groups) == 0 {
		return false
	}
	for _, group := range c.groups {
		held := false
		for _, code := range group {
			if _, ok := pressed[code]; ok {
				held = true
				break
			}
		}
		if !held {
			return false
		}
	}
	return true
}

// State of the monitor.
type State int

const (
	Idle State = iota
	// Armed is terminal: the exit has fired.
	Armed
)

func (s State) String() string {
	if s == Armed {
		return "armed"
	}
	return "idle"
}

// Monitor is the key state shared by all capture readers.
type Monitor struct {
	mu      sync.Mutex
	pressed map[uint16]struct{}
	combo   Combo
	fired   bool
	onExit  func()
	log     *slog.Logger
}

// NewMonitor creates a monitor that calls onExit once, the first time combo
// is completely held.
func NewMonitor(combo Combo, onExit func(), log *slog.Logger) *Monitor {
	return &Monitor{
		pressed: make(map[uint16]struct{}),
		combo:   combo,
		onExit:  onExit,
		log:     log,
	}
}

// Observe updates the key state from one captured event. Only key presses
// and releases count; auto-repeat events are ignored.
func (m *Monitor) Observe(ev input.Event) {
	if !ev.IsKey() {
		return
	}
	switch ev.Value {
	case input.KeyPressed:
		m.Press(ev.Code)
	case input.KeyReleased:
		m.Release(ev.Code)
	}
}

// Press records a held key and fires the exit if the combination is now
// complete. The check and the exit run under the same lock as the insert,
// so concurrent readers cannot interleave with it.
func (m *Monitor) Press(code uint16) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pressed[code] = struct{}{}
	if m.fired || !m.combo.satisfiedBy(m.pressed) {
		return false
	}

	m.fired = true
	m.log.Warn("exit hotkey detected, releasing devices", slog.String("combo", m.combo.String()))
	if m.onExit != nil {
		m.onExit()
	}
	return true
}

// Release forgets a key. It never fires the exit.
func (m *Monitor) Release(code uint16) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pressed, code)
}

// Held reports whether code is currently pressed.
func (m *Monitor) Held(code uint16) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.pressed[code]
	return ok
}

// Pressed returns the number of held keys.
func (m *Monitor) Pressed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pressed)
}

// State reports whether the exit has fired.
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fired {
		return Armed
	}
	return Idle
}
