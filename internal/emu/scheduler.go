package emu

import (
	"fmt"
	"time"

	"github.com/FabianRolfMatthiasNoll/FixedConsole/internal/bus"
	"github.com/FabianRolfMatthiasNoll/FixedConsole/internal/input"
	"github.com/FabianRolfMatthiasNoll/FixedConsole/internal/logger"
	"github.com/FabianRolfMatthiasNoll/FixedConsole/internal/ppu"
)

// Input is one poll of the live controls.
type Input struct {
	Gamepads     [bus.Players]byte
	MouseX       int16
	MouseY       int16
	MouseButtons byte
}

// InputSource supplies live input once per host frame.
type InputSource interface {
	ReadInput() Input
}

// Presenter receives the composited frame after every host frame that ran
// at least one tick. rgba is reused between calls.
type Presenter interface {
	Present(rgba []byte, palette [4]uint32)
}

// ExitSink receives the final payload when the cart halts. It is called at
// most once per session.
type ExitSink interface {
	Exit(ExitPayload)
}

// DiskStore persists a cart's disk between sessions.
type DiskStore interface {
	LoadDisk(cartID string) ([]byte, error)
	SaveDisk(cartID string, data []byte) error
}

// Collaborators wires a Scheduler to its host. Any field may be nil.
type Collaborators struct {
	Input     InputSource
	Presenter Presenter
	Exit      ExitSink
	Disk      DiskStore
	CartID    string
}

// Scheduler drives a Machine at a fixed logical rate from host callbacks
// that arrive at whatever rate the host runs. It is not safe for concurrent
// use; one Frame call must return before the next begins.
type Scheduler struct {
	m     *Machine
	c     Collaborators
	tick  time.Duration
	stall time.Duration

	started bool
	last    time.Time
	next    time.Time
	paused  bool
	exited  bool

	ticks        uint64
	truncLogged  bool
	rgba         []byte
	lastTickRuns int
}

func NewScheduler(m *Machine, c Collaborators) *Scheduler {
	s := &Scheduler{
		m:     m,
		c:     c,
		tick:  m.cfg.TickDuration(),
		stall: m.cfg.StallThreshold,
		rgba:  make([]byte, ppu.RGBASize),
	}
	if c.Disk != nil {
		data, err := c.Disk.LoadDisk(c.CartID)
		if err != nil {
			logger.Logf("disk", "load %s: %v", c.CartID, err)
		}
		m.AttachDisk(data)
	}
	return s
}

func (s *Scheduler) Machine() *Machine { return s.m }

// Ticks counts logical updates since the scheduler was created or reset.
func (s *Scheduler) Ticks() uint64 { return s.ticks }

// LastFrameTicks is the number of ticks the most recent Frame ran.
func (s *Scheduler) LastFrameTicks() int { return s.lastTickRuns }

// SetPaused suspends simulation. While paused Frame polls input and returns
// without ticking or presenting.
func (s *Scheduler) SetPaused(p bool) { s.paused = p }
func (s *Scheduler) Paused() bool     { return s.paused }

// Exited reports whether the exit payload has been delivered.
func (s *Scheduler) Exited() bool { return s.exited }

// Frame is the host callback. It runs every tick that came due by now,
// except that a gap longer than the stall threshold restarts the schedule at
// now, so a stalled host catches up by at most one tick instead of a burst.
func (s *Scheduler) Frame(now time.Time) (int, error) {
	s.lastTickRuns = 0
	if s.m.Halted() {
		if err := s.m.Err(); err != nil {
			return 0, err
		}
		return 0, ErrHalted
	}

	var in Input
	if s.c.Input != nil {
		in = s.c.Input.ReadInput()
	}
	s.m.SetInput(in)

	if !s.started || now.Sub(s.last) > s.stall {
		s.next = now
		s.started = true
	}
	s.last = now

	if s.paused {
		s.next = now
		return 0, nil
	}

	ran := 0
	for !now.Before(s.next) {
		s.next = s.next.Add(s.tick)
		st, err := s.step(in.Gamepads)
		ran++
		if err != nil {
			s.lastTickRuns = ran
			return ran, err
		}
		if st == Halt {
			s.lastTickRuns = ran
			s.deliverExit()
			return ran, nil
		}
	}
	s.lastTickRuns = ran

	if ran > 0 && s.c.Presenter != nil {
		s.m.Composite(s.rgba)
		s.c.Presenter.Present(s.rgba, s.m.bus.Palette())
	}
	return ran, nil
}

// Step runs exactly one tick regardless of the clock. Hosts use it for frame
// stepping while paused and for headless runs.
func (s *Scheduler) Step() (Status, error) {
	if s.m.Halted() {
		if err := s.m.Err(); err != nil {
			return Halt, err
		}
		return Halt, ErrHalted
	}
	var in Input
	if s.c.Input != nil {
		in = s.c.Input.ReadInput()
	}
	s.m.SetInput(in)
	st, err := s.step(in.Gamepads)
	if err == nil && st == Halt {
		s.deliverExit()
	}
	if err == nil && st == Continue && s.c.Presenter != nil {
		s.m.Composite(s.rgba)
		s.c.Presenter.Present(s.rgba, s.m.bus.Palette())
	}
	return st, err
}

// step feeds one tick of gamepad input, from playback when a log is loaded
// and from the live pads otherwise, and records live input.
func (s *Scheduler) step(live [bus.Players]byte) (Status, error) {
	rec := s.m.rec
	pads := live
	if p, ok := rec.PlaybackState(); ok {
		pads = p
	} else if dropped := rec.RecordFrame(pads); dropped > 0 && !s.truncLogged {
		s.truncLogged = true
		logger.Logf("recorder", "event log full at %d events, further input is not recorded", rec.Capacity())
	}
	s.m.bus.SetGamepads(pads)

	st, err := s.m.Tick()
	s.ticks++
	s.flushDisk()
	return st, err
}

func (s *Scheduler) flushDisk() {
	if !s.m.TakeDiskDirty() || s.c.Disk == nil {
		return
	}
	if err := s.c.Disk.SaveDisk(s.c.CartID, s.m.disk.Bytes()); err != nil {
		logger.Logf("disk", "save %s: %v", s.c.CartID, err)
	}
}

func (s *Scheduler) deliverExit() {
	if s.exited {
		return
	}
	s.exited = true
	p := s.m.ExitPayload()
	f := p.Fields()
	logger.Logf("emu", "exit after %d ticks: frames=%d score=%d health=%d events=%d",
		s.ticks, f.Frames, f.Score, f.Health, s.m.rec.Len())
	if s.c.Exit != nil {
		s.c.Exit.Exit(p)
	}
}

// Restart reboots the cart. With record set a fresh recording starts;
// otherwise the recorder goes idle.
func (s *Scheduler) Restart(record bool) error {
	s.reset()
	if record {
		s.m.rec.Start()
	} else {
		s.m.rec.Stop()
	}
	return s.m.Restart()
}

// Replay reboots the cart and feeds it events instead of live input.
func (s *Scheduler) Replay(events []input.Event) error {
	s.reset()
	s.m.rec.Load(events)
	if err := s.m.Restart(); err != nil {
		return fmt.Errorf("replay: %w", err)
	}
	logger.Logf("recorder", "replaying %d events", len(events))
	return nil
}

func (s *Scheduler) reset() {
	s.started = false
	s.exited = false
	s.ticks = 0
	s.truncLogged = false
}
