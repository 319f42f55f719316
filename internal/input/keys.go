package input

import "strings"

// Codes referenced directly by the pipeline.
const (
	KeyLeftCtrl   uint16 = 29
	KeyLeftShift  uint16 = 42
	KeyRightShift uint16 = 54
	KeyLeftAlt    uint16 = 56
	KeyRightCtrl  uint16 = 97
	KeyRightAlt   uint16 = 100
	KeyLeftMeta   uint16 = 125
	KeyRightMeta  uint16 = 126
	KeyE          uint16 = 18

	// KeyMax is the highest key code defined by the kernel.
	KeyMax uint16 = 0x2ff

	SynReport uint16 = 0
)

// Relative axes advertised by the virtual device.
const (
	RelX           uint16 = 0x00
	RelY           uint16 = 0x01
	RelHWheel      uint16 = 0x06
	RelWheel       uint16 = 0x08
	RelWheelHiRes  uint16 = 0x0b
	RelHWheelHiRes uint16 = 0x0c
)

type namedKey struct {
	name string
	code uint16
}

// keyTable is the one mapping between stable key names and wire codes.
// Codes follow include/uapi/linux/input-event-codes.h.
var keyTable = []namedKey{
	{"KEY_ESC", 1},
	{"KEY_1", 2}, {"KEY_2", 3}, {"KEY_3", 4}, {"KEY_4", 5}, {"KEY_5", 6},
	{"KEY_6", 7}, {"KEY_7", 8}, {"KEY_8", 9}, {"KEY_9", 10}, {"KEY_0", 11},
	{"KEY_MINUS", 12}, {"KEY_EQUAL", 13}, {"KEY_BACKSPACE", 14}, {"KEY_TAB", 15},
	{"KEY_Q", 16}, {"KEY_W", 17}, {"KEY_E", KeyE}, {"KEY_R", 19}, {"KEY_T", 20},
	{"KEY_Y", 21}, {"KEY_U", 22}, {"KEY_I", 23}, {"KEY_O", 24}, {"KEY_P", 25},
	{"KEY_LEFTBRACE", 26}, {"KEY_RIGHTBRACE", 27}, {"KEY_ENTER", 28},
	{"KEY_LEFTCTRL", KeyLeftCtrl},
	{"KEY_A", 30}, {"KEY_S", 31}, {"KEY_D", 32}, {"KEY_F", 33}, {"KEY_G", 34},
	{"KEY_H", 35}, {"KEY_J", 36}, {"KEY_K", 37}, {"KEY_L", 38},
	{"KEY_SEMICOLON", 39}, {"KEY_APOSTROPHE", 40}, {"KEY_GRAVE", 41},
	{"KEY_LEFTSHIFT", KeyLeftShift}, {"KEY_BACKSLASH", 43},
	{"KEY_Z", 44}, {"KEY_X", 45}, {"KEY_C", 46}, {"KEY_V", 47}, {"KEY_B", 48},
	{"KEY_N", 49}, {"KEY_M", 50},
	{"KEY_COMMA", 51}, {"KEY_DOT", 52}, {"KEY_SLASH", 53},
	{"KEY_RIGHTSHIFT", KeyRightShift}, {"KEY_KPASTERISK", 55},
	{"KEY_LEFTALT", KeyLeftAlt}, {"KEY_SPACE", 57}, {"KEY_CAPSLOCK", 58},
	{"KEY_F1", 59}, {"KEY_F2", 60}, {"KEY_F3", 61}, {"KEY_F4", 62}, {"KEY_F5", 63},
	{"KEY_F6", 64}, {"KEY_F7", 65}, {"KEY_F8", 66}, {"KEY_F9", 67}, {"KEY_F10", 68},
	{"KEY_NUMLOCK", 69}, {"KEY_SCROLLLOCK", 70},
	{"KEY_KP7", 71}, {"KEY_KP8", 72}, {"KEY_KP9", 73}, {"KEY_KPMINUS", 74},
	{"KEY_KP4", 75}, {"KEY_KP5", 76}, {"KEY_KP6", 77}, {"KEY_KPPLUS", 78},
	{"KEY_KP1", 79}, {"KEY_KP2", 80}, {"KEY_KP3", 81}, {"KEY_KP0", 82},
	{"KEY_KPDOT", 83}, {"KEY_102ND", 86}, {"KEY_F11", 87}, {"KEY_F12", 88},
	{"KEY_KPENTER", 96}, {"KEY_RIGHTCTRL", KeyRightCtrl}, {"KEY_KPSLASH", 98},
	{"KEY_SYSRQ", 99}, {"KEY_RIGHTALT", KeyRightAlt},
	{"KEY_HOME", 102}, {"KEY_UP", 103}, {"KEY_PAGEUP", 104}, {"KEY_LEFT", 105},
	{"KEY_RIGHT", 106}, {"KEY_END", 107}, {"KEY_DOWN", 108}, {"KEY_PAGEDOWN", 109},
	{"KEY_INSERT", 110}, {"KEY_DELETE", 111},
	{"KEY_MUTE", 113}, {"KEY_VOLUMEDOWN", 114}, {"KEY_VOLUMEUP", 115},
	{"KEY_POWER", 116}, {"KEY_KPEQUAL", 117}, {"KEY_PAUSE", 119},
	{"KEY_LEFTMETA", KeyLeftMeta}, {"KEY_RIGHTMETA", KeyRightMeta}, {"KEY_COMPOSE", 127},
	{"KEY_F13", 183}, {"KEY_F14", 184}, {"KEY_F15", 185}, {"KEY_F16", 186},
	{"KEY_F17", 187}, {"KEY_F18", 188}, {"KEY_F19", 189}, {"KEY_F20", 190},
	{"KEY_F21", 191}, {"KEY_F22", 192}, {"KEY_F23", 193}, {"KEY_F24", 194},
	{"BTN_LEFT", 0x110}, {"BTN_RIGHT", 0x111}, {"BTN_MIDDLE", 0x112},
	{"BTN_SIDE", 0x113}, {"BTN_EXTRA", 0x114},
}

var (
	codeByName = make(map[string]uint16, len(keyTable))
	nameByCode = make(map[uint16]string, len(keyTable))
)

func init() {
	for _, k := range keyTable {
		codeByName[k.name] = k.code
		nameByCode[k.code] = k.name
	}
}

// KeyCode resolves a key name to its wire code. Names are case-insensitive
// and the KEY_ prefix is optional ("e", "KEY_E" and "key_e" are the same).
func KeyCode(name string) (uint16, bool) {
	name = strings.ToUpper(strings.TrimSpace(name))
	if name == "" {
		return 0, false
	}
	if !strings.HasPrefix(name, "KEY_") && !strings.HasPrefix(name, "BTN_") {
		name = "KEY_" + name
	}
	code, ok := codeByName[name]
	return code, ok
}

// KeyName returns the canonical name of a wire code.
func KeyName(code uint16) (string, bool) {
	name, ok := nameByCode[code]
	return name, ok
}
