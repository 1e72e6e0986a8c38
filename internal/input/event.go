// Package input reads a hardware keypad through the Linux evdev
// interface and turns key presses into the runes the key bindings use.
package input

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Event mirrors struct input_event on 64-bit Linux:
// struct input_event { struct timeval time; __u16 type; __u16 code; __s32 value; };
type Event struct {
	Sec   int64
	Usec  int64
	Type  uint16
	Code  uint16
	Value int32
}

// EventSize is the wire size of one Event.
var EventSize = binary.Size(Event{})

const (
	evKey      = 0x01
	valuePress = 1 // 0 is release, 2 is auto-repeat
)

// Key codes from linux/input-event-codes.h.
var keyRunes = map[uint16]rune{
	1: 0x1b, // KEY_ESC
	2: '1', 3: '2', 4: '3', 5: '4', 6: '5', 7: '6', 8: '7', 9: '8', 10: '9', 11: '0',
	12: '-', // KEY_MINUS
	13: '=', // KEY_EQUAL
	14: '\b', // KEY_BACKSPACE
	15: '\t', // KEY_TAB
	16: 'q', 17: 'w', 18: 'e', 19: 'r', 20: 't', 21: 'y', 22: 'u', 23: 'i', 24: 'o', 25: 'p',
	28: '\n', // KEY_ENTER
	30: 'a', 31: 's', 32: 'd', 33: 'f', 34: 'g', 35: 'h', 36: 'j', 37: 'k', 38: 'l',
	44: 'z', 45: 'x', 46: 'c', 47: 'v', 48: 'b', 49: 'n', 50: 'm',
	55: '*', // KEY_KPASTERISK
	57: ' ', // KEY_SPACE
	71: '7', 72: '8', 73: '9', 74: '-', // KEY_KP7..KEY_KPMINUS
	75: '4', 76: '5', 77: '6', 78: '+', // KEY_KP4..KEY_KPPLUS
	79: '1', 80: '2', 81: '3', 82: '0', 83: '.', // KEY_KP1..KEY_KPDOT
	96:  '\n', // KEY_KPENTER
	98:  '/',  // KEY_KPSLASH
	114: '-',  // KEY_VOLUMEDOWN
	115: '+',  // KEY_VOLUMEUP
	117: '=',  // KEY_KPEQUAL
}

// Decode parses one raw event.
func Decode(buf []byte) (Event, error) {
	var ev Event
	if len(buf) < EventSize {
		return ev, fmt.Errorf("short input event: %d bytes", len(buf))
	}
	err := binary.Read(bytes.NewReader(buf[:EventSize]), binary.LittleEndian, &ev)
	return ev, err
}

// KeyRune reports the rune for a key press. Releases, auto-repeat and
// non-key events are ignored.
func KeyRune(ev Event) (rune, bool) {
	if ev.Type != evKey || ev.Value != valuePress {
		return 0, false
	}
	r, ok := keyRunes[ev.Code]
	return r, ok
}

// Pump reads events from r until it fails or ctx is done, sending each
// key press on out. io.EOF ends the pump without error.
func Pump(ctx context.Context, r io.Reader, out chan<- rune) error {
	buf := make([]byte, EventSize)
	for {
		if _, err := io.ReadFull(r, buf); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read input event: %w", err)
		}
		if err := deliver(ctx, buf, out); err != nil {
			return nil
		}
	}
}

// deliver decodes buf and forwards a key press. It returns ctx.Err() when
// the receiver is gone.
func deliver(ctx context.Context, buf []byte, out chan<- rune) error {
	ev, err := Decode(buf)
	if err != nil {
		// Skip malformed events.
		return nil
	}
	r, ok := KeyRune(ev)
	if !ok {
		return nil
	}
	select {
	case out <- r:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
