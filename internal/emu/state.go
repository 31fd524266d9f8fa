package emu

import (
	"errors"
	"fmt"
	"os"

	"github.com/FabianRolfMatthiasNoll/FixedConsole/internal/bus"
	"github.com/FabianRolfMatthiasNoll/FixedConsole/internal/cart"
)

// StateSize is the length of a serialized machine: memory, disk, first-frame
// flag.
const StateSize = bus.Size + cart.DiskStateSize + 1

var ErrStateSize = errors.New("state blob has the wrong size")

// Serialize snapshots memory, disk and the first-frame flag.
func (m *Machine) Serialize() []byte {
	out := make([]byte, StateSize)
	copy(out, m.bus.Bytes())
	m.disk.MarshalTo(out[bus.Size:])
	if m.firstFrame {
		out[StateSize-1] = 1
	}
	return out
}

// Unserialize restores a snapshot made by Serialize. The guest is rebuilt
// from the installed factory so nothing outside memory carries over, and a
// halted machine runs again. The audio synth is silenced since it is not
// part of the snapshot. An attached disk is flushed on the next tick.
func (m *Machine) Unserialize(state []byte) error {
	if len(state) != StateSize {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrStateSize, len(state), StateSize)
	}
	if err := m.restore(m.newCart, state); err != nil {
		return err
	}
	// the restored disk replaces whatever the store holds
	m.diskDirty = m.diskAttached
	return nil
}

// Reload swaps in a new cart while keeping memory, disk and the first-frame
// flag, so a rebuilt guest resumes where the old one left off. If the new
// cart fails to build the old cart and memory stay as they were.
func (m *Machine) Reload(newCart CartFactory) error {
	return m.restore(newCart, m.Serialize())
}

// restore loads state and builds a guest from f over it. Anything the guest
// writes while being built is discarded. On failure the machine is rolled
// back to where it was before the call.
func (m *Machine) restore(f CartFactory, state []byte) error {
	prev := m.Serialize()
	halted, cause := m.halted, m.err

	m.load(state)
	var c Cart
	if f != nil {
		var err error
		if c, err = f(m); err != nil {
			m.load(prev)
			m.halted, m.err = halted, cause
			return fmt.Errorf("cart: %w", err)
		}
		m.load(state)
	}

	closeCart(m.cart)
	m.newCart = f
	m.cart = c
	m.halted = false
	m.err = nil
	m.apu.Reset()
	return nil
}

func (m *Machine) load(state []byte) {
	copy(m.bus.Bytes(), state[:bus.Size])
	m.disk.UnmarshalFrom(state[bus.Size:])
	m.firstFrame = state[StateSize-1] != 0
}

func (m *Machine) SaveStateToFile(path string) error {
	return os.WriteFile(path, m.Serialize(), 0644)
}

func (m *Machine) LoadStateFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return m.Unserialize(data)
}
