package input

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/FabianRolfMatthiasNoll/FixedConsole/internal/z85"
)

// Wire layout: u32 LE count, then per event frame u32 LE, player, button,
// type, one pad byte.
const (
	wireHeader = 4
	wireEvent  = 8
)

var (
	ErrWireLength = errors.New("event log length does not match its count")
	ErrEventType  = errors.New("unknown event type")
)

// WireSize is the encoded size of n events.
func WireSize(n int) int { return wireHeader + wireEvent*n }

func Marshal(events []Event) []byte {
	out := make([]byte, WireSize(len(events)))
	binary.LittleEndian.PutUint32(out, uint32(len(events)))
	for i, ev := range events {
		b := out[wireHeader+i*wireEvent:]
		binary.LittleEndian.PutUint32(b, ev.Frame)
		b[4] = ev.Player
		b[5] = ev.Button
		b[6] = byte(ev.Type)
	}
	return out
}

func Unmarshal(data []byte) ([]Event, error) {
	if len(data) < wireHeader {
		return nil, fmt.Errorf("%w: %d bytes", ErrWireLength, len(data))
	}
	count := uint64(binary.LittleEndian.Uint32(data))
	if uint64(len(data)) != wireHeader+wireEvent*count {
		return nil, fmt.Errorf("%w: %d bytes for %d events", ErrWireLength, len(data), count)
	}
	events := make([]Event, count)
	for i := range events {
		b := data[wireHeader+i*wireEvent:]
		events[i] = Event{
			Frame:  binary.LittleEndian.Uint32(b),
			Player: b[4],
			Button: b[5],
			Type:   EventType(b[6]),
		}
		if !events[i].Type.Valid() {
			return nil, fmt.Errorf("%w %d in event %d", ErrEventType, b[6], i)
		}
	}
	return events, nil
}

// MarshalZ85 is the text form carried inside JSON. The wire size is always a
// multiple of four so encoding cannot fail.
func MarshalZ85(events []Event) string {
	s, _ := z85.EncodeToString(Marshal(events))
	return s
}

func UnmarshalZ85(s string) ([]Event, error) {
	raw, err := z85.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("event log: %w", err)
	}
	return Unmarshal(raw)
}
