package emu

import (
	"encoding/json"
	"fmt"

	"github.com/FabianRolfMatthiasNoll/FixedConsole/internal/bus"
	"github.com/FabianRolfMatthiasNoll/FixedConsole/internal/cart"
	"github.com/FabianRolfMatthiasNoll/FixedConsole/internal/input"
	"github.com/FabianRolfMatthiasNoll/FixedConsole/internal/z85"
)

// ExitPayload is what a finished session hands to the outside world: the
// final persistent data and the whole gamepad log in wire format.
type ExitPayload struct {
	Persistent [bus.PersistentSize]byte
	Events     []byte
}

// ExitPayload snapshots the current persistent data and event log.
func (m *Machine) ExitPayload() ExitPayload {
	return ExitPayload{
		Persistent: m.Persistent().Snapshot(),
		Events:     input.Marshal(m.rec.Events()),
	}
}

// Fields decodes the persistent snapshot.
func (p ExitPayload) Fields() cart.Fields {
	f, _ := cart.DecodeFields(p.Persistent[:])
	return f
}

type exitJSON struct {
	Persistent string `json:"persistent"`
	Events     string `json:"events"`
}

// MarshalJSON carries both binary blobs as Z85 text.
func (p ExitPayload) MarshalJSON() ([]byte, error) {
	pers, ok := z85.EncodeToString(p.Persistent[:])
	if !ok {
		return nil, fmt.Errorf("exit payload: persistent data does not encode")
	}
	events, err := z85.EncodeErr(p.Events)
	if err != nil {
		return nil, fmt.Errorf("exit payload events: %w", err)
	}
	return json.Marshal(exitJSON{Persistent: pers, Events: string(events)})
}

func (p *ExitPayload) UnmarshalJSON(data []byte) error {
	var j exitJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	pers, err := z85.DecodeString(j.Persistent)
	if err != nil {
		return fmt.Errorf("exit payload persistent: %w", err)
	}
	if len(pers) != bus.PersistentSize {
		return fmt.Errorf("exit payload persistent: got %d bytes, want %d", len(pers), bus.PersistentSize)
	}
	events, err := z85.DecodeString(j.Events)
	if err != nil {
		return fmt.Errorf("exit payload events: %w", err)
	}
	if _, err := input.Unmarshal(events); err != nil {
		return fmt.Errorf("exit payload events: %w", err)
	}
	copy(p.Persistent[:], pers)
	p.Events = events
	return nil
}
