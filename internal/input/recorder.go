// Package input records gamepad transitions and plays them back in place of
// live input, frame-synchronized to the scheduler's tick counter.
package input

import (
	"fmt"

	"github.com/FabianRolfMatthiasNoll/FixedConsole/internal/bus"
)

// DefaultCapacity bounds the event log unless the host asks for another size.
const DefaultCapacity = 4096

type EventType uint8

const (
	Press   EventType = 0
	Release EventType = 1
)

func (t EventType) Valid() bool { return t == Press || t == Release }

func (t EventType) String() string {
	switch t {
	case Press:
		return "press"
	case Release:
		return "release"
	}
	return fmt.Sprintf("EventType(%d)", uint8(t))
}

func (t EventType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrEventType, uint8(t))
	}
	return []byte(t.String()), nil
}

func (t *EventType) UnmarshalText(b []byte) error {
	switch string(b) {
	case "press":
		*t = Press
	case "release":
		*t = Release
	default:
		return fmt.Errorf("%w: %q", ErrEventType, b)
	}
	return nil
}

// Event is one button transition. Button is a single-bit mask.
type Event struct {
	Frame  uint32    `json:"frame"`
	Player uint8     `json:"player"`
	Button uint8     `json:"button"`
	Type   EventType `json:"type"`
}

// Mode is the recorder's state. Exactly one is active at a time.
type Mode int

const (
	Idle Mode = iota
	Recording
	Playing
)

func (m Mode) String() string {
	switch m {
	case Recording:
		return "recording"
	case Playing:
		return "playing"
	default:
		return "idle"
	}
}

// Recorder owns an event log and the counters of whichever mode is active.
// prev is only meaningful while Recording; frame counts recorded frames while
// Recording and playback ticks while Playing.
type Recorder struct {
	mode      Mode
	capacity  int
	events    []Event
	truncated bool
	prev      [bus.Players]byte
	frame     uint32
}

// New returns an idle recorder. capacity <= 0 selects DefaultCapacity.
func New(capacity int) *Recorder {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Recorder{capacity: capacity}
}

func (r *Recorder) Mode() Mode      { return r.mode }
func (r *Recorder) Capacity() int   { return r.capacity }
func (r *Recorder) Len() int        { return len(r.events) }
func (r *Recorder) Frame() uint32   { return r.frame }
func (r *Recorder) Playing() bool   { return r.mode == Playing }
func (r *Recorder) Recording() bool { return r.mode == Recording }

// Truncated reports whether the current recording dropped events because the
// log was full. It stays set until the next Start.
func (r *Recorder) Truncated() bool { return r.truncated }

// Start begins a fresh recording, discarding any log or playback.
func (r *Recorder) Start() {
	r.reset()
	r.mode = Recording
}

// Stop returns to Idle and hands back the log that was recorded or played.
func (r *Recorder) Stop() []Event {
	out := r.events
	r.reset()
	return out
}

func (r *Recorder) reset() {
	r.mode = Idle
	r.events = nil
	r.truncated = false
	r.prev = [bus.Players]byte{}
	r.frame = 0
}

// RecordFrame diffs pads against the previous frame and appends one event per
// changed bit, scanning players then bits in ascending order. It returns how
// many events were dropped because the log is full. Outside Recording it does
// nothing.
func (r *Recorder) RecordFrame(pads [bus.Players]byte) (dropped int) {
	if r.mode != Recording {
		return 0
	}
	for p := 0; p < bus.Players; p++ {
		changed := pads[p] ^ r.prev[p]
		for bit := 0; bit < 8; bit++ {
			mask := byte(1) << bit
			if changed&mask == 0 {
				continue
			}
			ev := Event{Frame: r.frame, Player: uint8(p), Button: mask, Type: Release}
			if pads[p]&mask != 0 {
				ev.Type = Press
			}
			if len(r.events) >= r.capacity {
				dropped++
				continue
			}
			r.events = append(r.events, ev)
		}
	}
	if dropped > 0 {
		r.truncated = true
	}
	r.prev = pads
	r.frame++
	return dropped
}

// Load switches to Playing over a copy of events.
func (r *Recorder) Load(events []Event) {
	r.reset()
	r.events = append([]Event(nil), events...)
	r.mode = Playing
}

// PlaybackState rebuilds the pads from every event at or before the current
// playback frame, then advances the frame. Past the last event it keeps
// returning the final state. ok is false outside Playing.
func (r *Recorder) PlaybackState() (pads [bus.Players]byte, ok bool) {
	if r.mode != Playing {
		return pads, false
	}
	pads = StateAt(r.events, r.frame)
	r.frame++
	return pads, true
}

// StateAt is the gamepad state after applying every event with Frame <= frame
// in log order. Events for unknown players or of unknown type are skipped.
func StateAt(events []Event, frame uint32) [bus.Players]byte {
	var pads [bus.Players]byte
	for _, ev := range events {
		if ev.Frame > frame || int(ev.Player) >= bus.Players {
			continue
		}
		switch ev.Type {
		case Press:
			pads[ev.Player] |= ev.Button
		case Release:
			pads[ev.Player] &^= ev.Button
		}
	}
	return pads
}

// Events returns a copy of the log.
func (r *Recorder) Events() []Event {
	return append([]Event(nil), r.events...)
}
