// Package emu is the console runtime: one Machine owns the address space, the
// disk, the gamepad recorder and the synth, and exposes the host functions a
// cart calls. The Scheduler drives a Machine at a fixed logical rate.
package emu

import (
	"errors"
	"fmt"
	"io"

	"github.com/FabianRolfMatthiasNoll/FixedConsole/internal/apu"
	"github.com/FabianRolfMatthiasNoll/FixedConsole/internal/bus"
	"github.com/FabianRolfMatthiasNoll/FixedConsole/internal/cart"
	"github.com/FabianRolfMatthiasNoll/FixedConsole/internal/input"
	"github.com/FabianRolfMatthiasNoll/FixedConsole/internal/logger"
	"github.com/FabianRolfMatthiasNoll/FixedConsole/internal/ppu"
)

// Status is what a cart's update entry point asks for.
type Status int

const (
	Continue Status = iota
	Halt
)

func (s Status) String() string {
	if s == Halt {
		return "halt"
	}
	return "continue"
}

// Cart is the guest program as the runtime sees it. Implementations call
// back into the Machine for every host function.
type Cart interface {
	Start() error
	Update() (Status, error)
}

// CartFactory builds a fresh guest bound to m. The Machine calls it on boot
// and on every reset so guests never carry state across a restart outside
// of memory.
type CartFactory func(m *Machine) (Cart, error)

var (
	ErrNoCart = errors.New("no cart loaded")
	ErrHalted = errors.New("machine halted")
)

// Session holds the host-chosen fields written into persistent data before
// the first tick.
type Session struct {
	Mode      uint32
	MaxFrames uint32
	Seed      uint32
}

type Machine struct {
	cfg Config

	bus  bus.Bus
	ppu  *ppu.PPU
	disk cart.Disk
	rec  *input.Recorder
	apu  *apu.Synth

	newCart CartFactory
	cart    Cart

	session      Session
	firstFrame   bool
	diskAttached bool
	diskDirty    bool
	halted       bool
	err          error

	traceOut io.Writer
	palette  string
}

func New(cfg Config) *Machine {
	cfg.Defaults()
	m := &Machine{
		cfg:     cfg,
		rec:     input.New(cfg.EventCapacity),
		apu:     apu.New(cfg.SampleRate, cfg.TickRate),
		palette: cfg.Palette,
	}
	m.ppu = ppu.New(&m.bus)
	m.Reset()
	return m
}

func (m *Machine) Config() Config             { return m.cfg }
func (m *Machine) Bus() *bus.Bus              { return &m.bus }
func (m *Machine) PPU() *ppu.PPU              { return m.ppu }
func (m *Machine) Recorder() *input.Recorder  { return m.rec }
func (m *Machine) APU() *apu.Synth            { return m.apu }
func (m *Machine) Disk() *cart.Disk           { return &m.disk }
func (m *Machine) Cart() Cart                 { return m.cart }
func (m *Machine) Session() Session           { return m.session }
func (m *Machine) FirstFrame() bool           { return m.firstFrame }
func (m *Machine) Halted() bool               { return m.halted }
func (m *Machine) SetTraceWriter(w io.Writer) { m.traceOut = w }

// Err reports why the machine halted, or nil if it halted cleanly or is
// still running.
func (m *Machine) Err() error { return m.err }

func (m *Machine) Persistent() cart.PersistentData {
	return cart.NewPersistentData(&m.bus)
}

// Boot installs a cart and resets the machine so the next tick calls its
// start entry point.
func (m *Machine) Boot(newCart CartFactory) error {
	m.newCart = newCart
	return m.Restart()
}

// Restart resets the machine and builds a fresh guest from the installed
// factory. Disk contents and the recorder survive.
func (m *Machine) Restart() error {
	closeCart(m.cart)
	m.Reset()
	if m.newCart == nil {
		m.cart = nil
		return ErrNoCart
	}
	c, err := m.newCart(m)
	if err != nil {
		m.cart = nil
		return m.fail(fmt.Errorf("cart: %w", err))
	}
	m.cart = c
	return nil
}

// closeCart releases guests that hold resources.
func closeCart(c Cart) {
	if c, ok := c.(interface{ Close() }); ok {
		c.Close()
	}
}

// Reset puts memory back to its power-on state, silences audio and arms the
// start entry point. The session fields are rewritten so replays see the
// same seed.
func (m *Machine) Reset() {
	m.bus.Reset()
	pal := DefaultPalette
	if p, ok := PaletteByName(m.palette); ok {
		pal = p
	}
	m.bus.SetPalette(pal)
	m.bus.SetDrawColors(0x1203)
	m.bus.SetMouse(0x7fff, 0x7fff, 0)
	m.writeSession()

	m.apu.Reset()
	m.firstFrame = true
	m.halted = false
	m.err = nil
}

// SetSession records the host-chosen session fields and writes them into
// persistent data.
func (m *Machine) SetSession(mode, maxFrames, seed uint32) {
	m.session = Session{Mode: mode, MaxFrames: maxFrames, Seed: seed}
	m.writeSession()
}

func (m *Machine) writeSession() {
	p := m.Persistent()
	p.Set(cart.GameMode, m.session.Mode)
	p.Set(cart.MaxFrames, m.session.MaxFrames)
	p.Set(cart.GameSeed, m.session.Seed)
}

// Palette returns the preset applied on reset.
func (m *Machine) Palette() string { return m.palette }

// SetPalette applies a preset immediately and on every later reset.
func (m *Machine) SetPalette(name string) bool {
	p, ok := PaletteByName(name)
	if !ok {
		return false
	}
	m.palette = name
	m.bus.SetPalette(p)
	return true
}

// AttachDisk connects the disk to a persistence collaborator and loads its
// stored contents. Without an attached disk diskr and diskw do nothing.
func (m *Machine) AttachDisk(data []byte) {
	m.diskAttached = true
	m.disk.Write(data)
	m.diskDirty = false
}

func (m *Machine) DetachDisk() { m.diskAttached = false }

func (m *Machine) DiskAttached() bool { return m.diskAttached }

// TakeDiskDirty reports whether the guest wrote the disk since the last call.
func (m *Machine) TakeDiskDirty() bool {
	d := m.diskDirty
	m.diskDirty = false
	return d
}

// SetInput writes live input into memory.
func (m *Machine) SetInput(in Input) {
	m.bus.SetGamepads(in.Gamepads)
	m.bus.SetMouse(in.MouseX, in.MouseY, in.MouseButtons)
}

// fail halts the machine on a guest contract violation. The first cause wins.
func (m *Machine) fail(err error) error {
	if m.err == nil {
		m.err = err
		logger.Logf("emu", "halted: %v", err)
	}
	m.halted = true
	return err
}

// Tick runs one logical update with whatever input is already in memory. The
// first tick after a reset calls the cart's start entry point instead of
// clearing the framebuffer.
func (m *Machine) Tick() (Status, error) {
	if m.halted {
		if m.err != nil {
			return Halt, m.err
		}
		return Halt, ErrHalted
	}
	if m.cart == nil {
		return Halt, m.fail(ErrNoCart)
	}

	if m.firstFrame {
		m.firstFrame = false
		if err := m.cart.Start(); err != nil {
			return Halt, m.fail(fmt.Errorf("start: %w", err))
		}
	} else if !m.bus.PreserveFramebuffer() {
		m.ppu.Clear()
	}

	st, err := m.cart.Update()
	if err != nil {
		return Halt, m.fail(fmt.Errorf("update: %w", err))
	}
	if m.halted {
		// a host function failed but the guest swallowed the error
		return Halt, m.err
	}
	if st == Halt {
		m.halted = true
		return Halt, nil
	}
	m.apu.Tick()
	return Continue, nil
}

// Composite writes the framebuffer as RGBA through the current palette.
func (m *Machine) Composite(dst []byte) {
	m.ppu.Composite(dst)
}
