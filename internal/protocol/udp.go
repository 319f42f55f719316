// Package protocol defines the datagram layout of forwarded input events.
package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"

	"netboard/internal/input"
)

// EventSize is the fixed size of one wire message.
//
// Wire format (big-endian, no header, one event per datagram):
//
//	kind(uint16) + code(uint16) + value(int32) = 8 bytes
const EventSize = 8

// MaxDatagramSize bounds the receive buffer. Anything past EventSize is
// transport padding and ignored.
const MaxDatagramSize = 64 * 1024

// ErrShortMessage is returned for payloads smaller than EventSize.
var ErrShortMessage = errors.New("protocol: message too short")

// EncodeEvent serializes an event to wire format.
func EncodeEvent(ev input.Event) []byte {
	return AppendEvent(make([]byte, 0, EventSize), ev)
}

// AppendEvent appends the wire form of ev to dst.
func AppendEvent(dst []byte, ev input.Event) []byte {
	dst = binary.BigEndian.AppendUint16(dst, ev.Kind)
	dst = binary.BigEndian.AppendUint16(dst, ev.Code)
	dst = binary.BigEndian.AppendUint32(dst, uint32(ev.Value))
	return dst
}

// DecodeEvent deserializes wire bytes into an event.
func DecodeEvent(data []byte) (input.Event, error) {
	if len(data) < EventSize {
		return input.Event{}, fmt.Errorf("%w: %d of %d bytes", ErrShortMessage, len(data), EventSize)
	}
	return input.Event{
		Kind:  binary.BigEndian.Uint16(data[0:2]),
		Code:  binary.BigEndian.Uint16(data[2:4]),
		Value: int32(binary.BigEndian.Uint32(data[4:8])),
	}, nil
}
