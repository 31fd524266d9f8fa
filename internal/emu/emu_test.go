package emu

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/FabianRolfMatthiasNoll/FixedConsole/internal/bus"
	"github.com/FabianRolfMatthiasNoll/FixedConsole/internal/cart"
	"github.com/FabianRolfMatthiasNoll/FixedConsole/internal/input"
)

// funcCart adapts two closures to the Cart interface.
type funcCart struct {
	start  func() error
	update func() (Status, error)
}

func (c *funcCart) Start() error {
	if c.start == nil {
		return nil
	}
	return c.start()
}

func (c *funcCart) Update() (Status, error) {
	if c.update == nil {
		return Continue, nil
	}
	return c.update()
}

func factory(build func(m *Machine) *funcCart) CartFactory {
	return func(m *Machine) (Cart, error) { return build(m), nil }
}

func idleCart() CartFactory {
	return factory(func(*Machine) *funcCart { return &funcCart{} })
}

func bootMachine(t *testing.T, f CartFactory) *Machine {
	t.Helper()
	m := New(Config{})
	if err := m.Boot(f); err != nil {
		t.Fatalf("boot: %v", err)
	}
	return m
}

type scriptedInput struct {
	pads [][bus.Players]byte
	i    int
}

func (s *scriptedInput) ReadInput() Input {
	var in Input
	if s.i < len(s.pads) {
		in.Gamepads = s.pads[s.i]
	}
	s.i++
	return in
}

type exitCounter struct {
	n    int
	last ExitPayload
}

func (e *exitCounter) Exit(p ExitPayload) {
	e.n++
	e.last = p
}

type memDisks map[string][]byte

func (d memDisks) LoadDisk(id string) ([]byte, error) { return d[id], nil }

func (d memDisks) SaveDisk(id string, data []byte) error {
	d[id] = append([]byte(nil), data...)
	return nil
}

type countingPresenter struct{ n int }

func (p *countingPresenter) Present([]byte, [4]uint32) { p.n++ }

func TestResetState(t *testing.T) {
	m := New(Config{})
	m.SetSession(1, 600, 1234)
	b := m.Bus()
	if got := b.DrawColors(); got != 0x1203 {
		t.Fatalf("draw colors = %#04x, want 0x1203", got)
	}
	if got := b.Palette(); got != DefaultPalette {
		t.Fatalf("palette = %06x, want %06x", got, DefaultPalette)
	}
	if x, y, _ := b.Mouse(); x != 0x7fff || y != 0x7fff {
		t.Fatalf("mouse = (%d,%d), want offscreen", x, y)
	}
	p := m.Persistent()
	if p.Get(cart.GameMode) != 1 || p.Get(cart.MaxFrames) != 600 || p.Get(cart.GameSeed) != 1234 {
		t.Fatalf("session fields not written: %+v", p.Fields())
	}

	b.Write(bus.AddrUser, 0xaa)
	p.Set(cart.Score, 99)
	m.Reset()
	if b.Read(bus.AddrUser) != 0 || p.Get(cart.Score) != 0 {
		t.Fatalf("reset left guest data behind")
	}
	if p.Get(cart.GameSeed) != 1234 {
		t.Fatalf("reset lost the session seed")
	}
	if !m.FirstFrame() {
		t.Fatalf("reset did not arm the start entry point")
	}
}

func TestTickWithoutCart(t *testing.T) {
	m := New(Config{})
	if _, err := m.Tick(); !errors.Is(err, ErrNoCart) {
		t.Fatalf("tick without cart: err = %v, want ErrNoCart", err)
	}
}

func TestFirstTickCallsStartAndSkipsClear(t *testing.T) {
	starts, updates := 0, 0
	m := bootMachine(t, factory(func(m *Machine) *funcCart {
		return &funcCart{
			start: func() error {
				starts++
				m.Bus().Framebuffer()[0] = 0xff
				return nil
			},
			update: func() (Status, error) {
				updates++
				return Continue, nil
			},
		}
	}))

	if _, err := m.Tick(); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if starts != 1 || updates != 1 {
		t.Fatalf("starts=%d updates=%d, want 1 and 1", starts, updates)
	}
	if m.Bus().Framebuffer()[0] != 0xff {
		t.Fatalf("first tick cleared what start drew")
	}

	if _, err := m.Tick(); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if starts != 1 {
		t.Fatalf("start ran again")
	}
	if m.Bus().Framebuffer()[0] != 0 {
		t.Fatalf("second tick did not clear the framebuffer")
	}
}

func TestPreserveFramebufferFlag(t *testing.T) {
	m := bootMachine(t, idleCart())
	if _, err := m.Tick(); err != nil {
		t.Fatalf("tick: %v", err)
	}
	b := m.Bus()
	b.Write(bus.AddrSystemFlags, bus.FlagPreserveFramebuffer)
	b.Framebuffer()[10] = 0x55
	if _, err := m.Tick(); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if b.Framebuffer()[10] != 0x55 {
		t.Fatalf("preserve flag ignored")
	}
}

func TestDiskClampAndRoundTrip(t *testing.T) {
	m := bootMachine(t, idleCart())
	m.AttachDisk(nil)
	b := m.Bus()
	src := b.User()[:2000]
	for i := range src {
		src[i] = byte(i)
	}

	n, err := m.DiskW(bus.AddrUser, 2000)
	if err != nil {
		t.Fatalf("diskw: %v", err)
	}
	if n != cart.DiskCapacity {
		t.Fatalf("diskw stored %d, want %d", n, cart.DiskCapacity)
	}
	if !m.TakeDiskDirty() {
		t.Fatalf("diskw did not mark the disk dirty")
	}

	dst := uint32(bus.AddrUser + 4096)
	n, err = m.DiskR(dst, 2000)
	if err != nil {
		t.Fatalf("diskr: %v", err)
	}
	if n != cart.DiskCapacity {
		t.Fatalf("diskr read %d, want %d", n, cart.DiskCapacity)
	}
	if !bytes.Equal(b.User()[4096:4096+1024], src[:1024]) {
		t.Fatalf("diskr returned different bytes")
	}

	if n, _ := m.DiskW(bus.AddrUser, 0); n != 0 || m.Disk().Size != 0 {
		t.Fatalf("empty write left size %d", m.Disk().Size)
	}
}

func TestDiskDetached(t *testing.T) {
	m := bootMachine(t, idleCart())
	n, err := m.DiskW(bus.AddrUser, 16)
	if err != nil || n != 0 {
		t.Fatalf("detached diskw = %d, %v; want 0, nil", n, err)
	}
	n, err = m.DiskR(bus.AddrUser, 16)
	if err != nil || n != 0 {
		t.Fatalf("detached diskr = %d, %v; want 0, nil", n, err)
	}
	if _, err := m.DiskR(0xfff0, 32); !errors.Is(err, bus.ErrBoundsViolation) {
		t.Fatalf("detached diskr past end: err = %v, want bounds violation", err)
	}
	if !m.Halted() {
		t.Fatalf("bounds violation did not halt the machine")
	}
}

func TestBlitPastEndHalts(t *testing.T) {
	m := bootMachine(t, factory(func(m *Machine) *funcCart {
		return &funcCart{update: func() (Status, error) {
			// 100x100 at 2bpp needs 2500 bytes, far more than remain.
			return Continue, m.Blit(0xfff0, 0, 0, 100, 100, 1)
		}}
	}))
	st, err := m.Tick()
	if st != Halt || !errors.Is(err, bus.ErrBoundsViolation) {
		t.Fatalf("tick = %v, %v; want halt with bounds violation", st, err)
	}
	var be *bus.BoundsError
	if !errors.As(m.Err(), &be) || be.Op != "blit" {
		t.Fatalf("machine error = %v, want blit bounds error", m.Err())
	}
	if _, err := m.Tick(); !errors.Is(err, bus.ErrBoundsViolation) {
		t.Fatalf("halted machine ticked again: %v", err)
	}
}

func TestSwallowedHostErrorStillHalts(t *testing.T) {
	m := bootMachine(t, factory(func(m *Machine) *funcCart {
		return &funcCart{update: func() (Status, error) {
			_ = m.Poke(0x10000, 1)
			return Continue, nil
		}}
	}))
	if st, err := m.Tick(); st != Halt || !errors.Is(err, bus.ErrBoundsViolation) {
		t.Fatalf("tick = %v, %v; want halt", st, err)
	}
}

func TestMemoryHelpers(t *testing.T) {
	m := bootMachine(t, idleCart())
	if err := m.Poke32(bus.AddrUser, 0xdeadbeef); err != nil {
		t.Fatalf("poke32: %v", err)
	}
	if v, _ := m.Peek16(bus.AddrUser); v != 0xbeef {
		t.Fatalf("peek16 = %#x", v)
	}
	if err := m.Memcpy(bus.AddrUser+2, bus.AddrUser, 4); err != nil {
		t.Fatalf("memcpy: %v", err)
	}
	if v, _ := m.Peek32(bus.AddrUser + 2); v != 0xdeadbeef {
		t.Fatalf("overlapping memcpy = %#x", v)
	}
	if err := m.Memset(bus.AddrUser, 7, 3); err != nil {
		t.Fatalf("memset: %v", err)
	}
	if v, _ := m.Peek(bus.AddrUser + 2); v != 7 {
		t.Fatalf("memset byte = %d", v)
	}
	if _, err := m.Peek32(0xfffe); !errors.Is(err, bus.ErrBoundsViolation) {
		t.Fatalf("peek32 at top: err = %v", err)
	}
}

func TestTracef(t *testing.T) {
	m := bootMachine(t, idleCart())
	var out bytes.Buffer
	m.SetTraceWriter(&out)
	b := m.Bus()

	const (
		fmtAddr = bus.AddrUser
		strAddr = bus.AddrUser + 256
		argAddr = bus.AddrUser + 512
	)
	copy(b.User(), "a=%d b=%x c=%c s=%s f=%f %q %%\x00")
	copy(b.User()[256:], "hi\x00")
	args := b.Bytes()[argAddr:]
	binary.LittleEndian.PutUint32(args[0:], uint32(0xfffffffb))
	binary.LittleEndian.PutUint32(args[4:], 0xbeef)
	binary.LittleEndian.PutUint32(args[8:], 'Z')
	binary.LittleEndian.PutUint32(args[12:], strAddr)
	binary.LittleEndian.PutUint64(args[16:], math.Float64bits(1.5))

	if err := m.Tracef(fmtAddr, argAddr); err != nil {
		t.Fatalf("tracef: %v", err)
	}
	if got, want := out.String(), "a=-5 b=beef c=Z s=hi f=1.5 %q %\n"; got != want {
		t.Fatalf("tracef = %q, want %q", got, want)
	}

	out.Reset()
	copy(b.User(), "end%\x00")
	if err := m.Tracef(fmtAddr, argAddr); err != nil {
		t.Fatalf("tracef: %v", err)
	}
	if out.String() != "end\n" {
		t.Fatalf("trailing %% = %q", out.String())
	}
}

func TestTraceUtf16(t *testing.T) {
	m := bootMachine(t, idleCart())
	var out bytes.Buffer
	m.SetTraceWriter(&out)
	u := m.Bus().User()
	for i, r := range []uint16{'o', 'k', 0x00e9} {
		binary.LittleEndian.PutUint16(u[2*i:], r)
	}
	if err := m.TraceUtf16(bus.AddrUser, 6); err != nil {
		t.Fatalf("traceUtf16: %v", err)
	}
	if out.String() != "oké\n" {
		t.Fatalf("traceUtf16 = %q", out.String())
	}
}

func TestStateRoundTrip(t *testing.T) {
	m := bootMachine(t, idleCart())
	m.AttachDisk([]byte("saved"))
	if _, err := m.Tick(); err != nil {
		t.Fatalf("tick: %v", err)
	}
	m.Bus().User()[100] = 42
	state := m.Serialize()
	if len(state) != StateSize || StateSize != 66563 {
		t.Fatalf("state size = %d, want 66563", len(state))
	}

	m.Bus().User()[100] = 0
	m.Disk().Write(nil)
	m.Reset()
	if err := m.Unserialize(state); err != nil {
		t.Fatalf("unserialize: %v", err)
	}
	if m.Bus().User()[100] != 42 {
		t.Fatalf("memory not restored")
	}
	if string(m.Disk().Bytes()) != "saved" {
		t.Fatalf("disk = %q, want saved", m.Disk().Bytes())
	}
	if m.FirstFrame() {
		t.Fatalf("first-frame flag not restored")
	}
	if !bytes.Equal(m.Serialize(), state) {
		t.Fatalf("second serialize differs")
	}

	if err := m.Unserialize(state[:100]); !errors.Is(err, ErrStateSize) {
		t.Fatalf("short state: err = %v, want ErrStateSize", err)
	}
}

func TestStateFile(t *testing.T) {
	m := bootMachine(t, idleCart())
	m.Bus().User()[0] = 9
	path := t.TempDir() + "/slot0.state"
	if err := m.SaveStateToFile(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	m.Reset()
	if err := m.LoadStateFromFile(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	if m.Bus().User()[0] != 9 {
		t.Fatalf("state file did not restore memory")
	}
}

func TestReloadKeepsMemory(t *testing.T) {
	m := bootMachine(t, factory(func(m *Machine) *funcCart {
		return &funcCart{update: func() (Status, error) {
			m.Bus().User()[0]++
			return Continue, nil
		}}
	}))
	for i := 0; i < 3; i++ {
		if _, err := m.Tick(); err != nil {
			t.Fatalf("tick: %v", err)
		}
	}
	started := false
	err := m.Reload(factory(func(*Machine) *funcCart {
		return &funcCart{start: func() error { started = true; return nil }}
	}))
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if m.Bus().User()[0] != 3 {
		t.Fatalf("reload lost memory: counter = %d", m.Bus().User()[0])
	}
	if _, err := m.Tick(); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if started {
		t.Fatalf("reloaded cart ran start after the first frame had passed")
	}
}

func TestFailedReloadKeepsOldCart(t *testing.T) {
	builds := 0
	m := bootMachine(t, factory(func(m *Machine) *funcCart {
		builds++
		return &funcCart{update: func() (Status, error) {
			m.Bus().User()[1]++
			return Continue, nil
		}}
	}))
	if _, err := m.Tick(); err != nil {
		t.Fatalf("tick: %v", err)
	}
	m.Bus().User()[0] = 0xAB
	old := m.Cart()

	err := m.Reload(func(m *Machine) (Cart, error) {
		m.Bus().User()[0] = 0
		return nil, errors.New("script top-level error")
	})
	if err == nil {
		t.Fatalf("reload with a broken cart succeeded")
	}
	if m.Bus().User()[0] != 0xAB {
		t.Fatalf("failed reload changed memory: user[0] = %#x", m.Bus().User()[0])
	}
	if m.Cart() != old || m.Halted() || m.FirstFrame() {
		t.Fatalf("failed reload disturbed the machine: halted=%v firstFrame=%v", m.Halted(), m.FirstFrame())
	}
	if _, err := m.Tick(); err != nil {
		t.Fatalf("tick after failed reload: %v", err)
	}
	if m.Bus().User()[1] != 2 {
		t.Fatalf("old cart did not keep running: counter = %d", m.Bus().User()[1])
	}

	if err := m.Restart(); err != nil {
		t.Fatalf("restart after failed reload: %v", err)
	}
	if builds != 2 {
		t.Fatalf("restart used the wrong factory: builds = %d", builds)
	}
}

func TestUnserializeRebuildsGuest(t *testing.T) {
	builds := 0
	m := bootMachine(t, factory(func(m *Machine) *funcCart {
		builds++
		m.Bus().User()[5] = byte(builds)
		return &funcCart{}
	}))
	before := m.Cart()
	if err := m.Unserialize(m.Serialize()); err != nil {
		t.Fatalf("unserialize: %v", err)
	}
	if builds != 2 || m.Cart() == before {
		t.Fatalf("guest was not rebuilt: builds = %d", builds)
	}
	if m.Bus().User()[5] != 1 {
		t.Fatalf("writes made while rebuilding survived: user[5] = %d", m.Bus().User()[5])
	}
}

func TestUnserializeAfterFaultRunsAgain(t *testing.T) {
	fault := false
	m := bootMachine(t, factory(func(*Machine) *funcCart {
		return &funcCart{update: func() (Status, error) {
			if fault {
				return Halt, errors.New("boom")
			}
			return Continue, nil
		}}
	}))
	if _, err := m.Tick(); err != nil {
		t.Fatalf("tick: %v", err)
	}
	state := m.Serialize()

	fault = true
	if _, err := m.Tick(); err == nil || !m.Halted() {
		t.Fatalf("faulting update did not halt")
	}
	fault = false
	if err := m.Unserialize(state); err != nil {
		t.Fatalf("unserialize: %v", err)
	}
	if m.Halted() || m.Err() != nil {
		t.Fatalf("loaded state is still halted: %v", m.Err())
	}
	if st, err := m.Tick(); err != nil || st != Continue {
		t.Fatalf("tick after load = %v, %v", st, err)
	}
}

func TestStateDiskWinsOverStore(t *testing.T) {
	src := bootMachine(t, idleCart())
	src.Disk().Write([]byte("from-state"))
	state := src.Serialize()

	store := memDisks{"cart1": []byte("stale")}
	m := bootMachine(t, idleCart())
	s := NewScheduler(m, Collaborators{Disk: store, CartID: "cart1"})
	if err := m.Unserialize(state); err != nil {
		t.Fatalf("unserialize: %v", err)
	}
	if string(m.Disk().Bytes()) != "from-state" {
		t.Fatalf("disk = %q, want from-state", m.Disk().Bytes())
	}
	if _, err := s.Step(); err != nil {
		t.Fatalf("step: %v", err)
	}
	if string(store["cart1"]) != "from-state" {
		t.Fatalf("store = %q, want from-state", store["cart1"])
	}
}

func TestSchedulerFixedRate(t *testing.T) {
	m := bootMachine(t, idleCart())
	pres := &countingPresenter{}
	s := NewScheduler(m, Collaborators{Presenter: pres})
	t0 := time.Unix(1000, 0)

	steps := []struct {
		at   time.Duration
		want int
	}{
		{0, 1},
		{50 * time.Millisecond, 0},
		{150 * time.Millisecond, 1},
		{350 * time.Millisecond, 2},
	}
	for _, st := range steps {
		n, err := s.Frame(t0.Add(st.at))
		if err != nil {
			t.Fatalf("frame at %v: %v", st.at, err)
		}
		if n != st.want {
			t.Fatalf("frame at %v ran %d ticks, want %d", st.at, n, st.want)
		}
	}
	if s.Ticks() != 4 {
		t.Fatalf("ticks = %d, want 4", s.Ticks())
	}
	if pres.n != 3 {
		t.Fatalf("presented %d times, want 3", pres.n)
	}
}

func TestSchedulerStallRecovery(t *testing.T) {
	m := bootMachine(t, idleCart())
	s := NewScheduler(m, Collaborators{})
	t0 := time.Unix(1000, 0)
	if _, err := s.Frame(t0); err != nil {
		t.Fatalf("frame: %v", err)
	}
	n, err := s.Frame(t0.Add(5 * time.Second))
	if err != nil {
		t.Fatalf("frame: %v", err)
	}
	if n > 1 {
		t.Fatalf("stalled host ran %d ticks in one frame", n)
	}
	if s.Ticks() > 2 {
		t.Fatalf("ticks after stall = %d, want at most 2", s.Ticks())
	}
}

func TestSchedulerPause(t *testing.T) {
	m := bootMachine(t, idleCart())
	s := NewScheduler(m, Collaborators{})
	t0 := time.Unix(1000, 0)
	s.SetPaused(true)
	for i := 0; i < 5; i++ {
		if n, _ := s.Frame(t0.Add(time.Duration(i) * 100 * time.Millisecond)); n != 0 {
			t.Fatalf("paused frame ran %d ticks", n)
		}
	}
	s.SetPaused(false)
	if n, _ := s.Frame(t0.Add(450 * time.Millisecond)); n != 1 {
		t.Fatalf("unpause burst: ran %d ticks, want 1", n)
	}
}

func TestExitDeliveredOnce(t *testing.T) {
	m := bootMachine(t, factory(func(m *Machine) *funcCart {
		p := m.Persistent()
		return &funcCart{update: func() (Status, error) {
			p.Set(cart.Frames, p.Get(cart.Frames)+1)
			if p.Get(cart.Frames) == 3 {
				p.Set(cart.Score, 77)
				return Halt, nil
			}
			return Continue, nil
		}}
	}))
	sink := &exitCounter{}
	s := NewScheduler(m, Collaborators{Exit: sink})
	t0 := time.Unix(1000, 0)
	for i := 0; i < 10; i++ {
		s.Frame(t0.Add(time.Duration(i) * 100 * time.Millisecond))
	}
	if sink.n != 1 {
		t.Fatalf("exit delivered %d times, want 1", sink.n)
	}
	f := sink.last.Fields()
	if f.Frames != 3 || f.Score != 77 {
		t.Fatalf("exit fields = %+v", f)
	}
	if _, err := s.Frame(t0.Add(time.Hour)); !errors.Is(err, ErrHalted) {
		t.Fatalf("frame after halt: err = %v, want ErrHalted", err)
	}
}

func TestSchedulerDiskPersistence(t *testing.T) {
	store := memDisks{"cart1": []byte("old")}
	var seen string
	m := bootMachine(t, factory(func(m *Machine) *funcCart {
		return &funcCart{
			start: func() error {
				n, err := m.DiskR(bus.AddrUser, 64)
				seen = string(m.Bus().User()[:n])
				return err
			},
			update: func() (Status, error) {
				copy(m.Bus().User(), "new!")
				_, err := m.DiskW(bus.AddrUser, 4)
				return Continue, err
			},
		}
	}))
	s := NewScheduler(m, Collaborators{Disk: store, CartID: "cart1"})
	if _, err := s.Step(); err != nil {
		t.Fatalf("step: %v", err)
	}
	if seen != "old" {
		t.Fatalf("start read %q from disk, want old", seen)
	}
	if string(store["cart1"]) != "new!" {
		t.Fatalf("store = %q, want new!", store["cart1"])
	}
}

// seededCart folds seed and gamepad 1 into the score every tick.
func seededCart(m *Machine) *funcCart {
	p := m.Persistent()
	return &funcCart{update: func() (Status, error) {
		pads := m.Bus().Gamepads()
		score := p.Get(cart.Score)*31 + uint32(pads[0]) + p.Get(cart.GameSeed)
		p.Set(cart.Score, score)
		p.Set(cart.Frames, p.Get(cart.Frames)+1)
		return Continue, nil
	}}
}

func TestReplayIsDeterministic(t *testing.T) {
	script := &scriptedInput{}
	for i := 0; i < 40; i++ {
		var pads [bus.Players]byte
		if i%7 < 3 {
			pads[0] |= bus.ButtonX
		}
		if i > 10 && i < 20 {
			pads[0] |= bus.ButtonRight
		}
		script.pads = append(script.pads, pads)
	}

	m := New(Config{})
	m.SetSession(1, 600, 0x5eed)
	if err := m.Boot(factory(seededCart)); err != nil {
		t.Fatalf("boot: %v", err)
	}
	s := NewScheduler(m, Collaborators{Input: script})
	if err := s.Restart(true); err != nil {
		t.Fatalf("restart: %v", err)
	}
	for range script.pads {
		if _, err := s.Step(); err != nil {
			t.Fatalf("step: %v", err)
		}
	}
	want := m.Persistent().Snapshot()
	events := m.Recorder().Events()
	if len(events) == 0 {
		t.Fatalf("nothing recorded")
	}

	wire := input.Marshal(events)
	decoded, err := input.Unmarshal(wire)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	s2 := NewScheduler(m, Collaborators{Input: &scriptedInput{}})
	if err := s2.Replay(decoded); err != nil {
		t.Fatalf("replay: %v", err)
	}
	for range script.pads {
		if _, err := s2.Step(); err != nil {
			t.Fatalf("step: %v", err)
		}
	}
	if got := m.Persistent().Snapshot(); got != want {
		t.Fatalf("replay diverged:\n got %x\nwant %x", got, want)
	}
}

func TestExitPayloadJSON(t *testing.T) {
	m := bootMachine(t, idleCart())
	m.Persistent().Set(cart.Score, 1234)
	m.Recorder().Start()
	m.Recorder().RecordFrame([bus.Players]byte{bus.ButtonUp})
	p := m.ExitPayload()

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back ExitPayload
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Persistent != p.Persistent || !bytes.Equal(back.Events, p.Events) {
		t.Fatalf("round trip changed the payload")
	}
	if back.Fields().Score != 1234 {
		t.Fatalf("score = %d", back.Fields().Score)
	}

	bad := []byte(`{"persistent":"0000000000","events":""}`)
	if err := json.Unmarshal(bad, &back); err == nil {
		t.Fatalf("short persistent data accepted")
	}
}

func TestPalettePresets(t *testing.T) {
	m := New(Config{Palette: "gray"})
	if got := m.Bus().PaletteColor(0); got != 0xffffff {
		t.Fatalf("palette 0 = %06x, want ffffff", got)
	}
	if m.SetPalette("nope") {
		t.Fatalf("unknown preset accepted")
	}
	if NextPalette("default", 1) == "default" || NextPalette("default", -1) == "default" {
		t.Fatalf("NextPalette did not move")
	}
	h := &cart.Header{Extra: map[string]string{"palette": "sepia"}}
	if name, ok := PaletteFromHeader(h); !ok || name != "sepia" {
		t.Fatalf("PaletteFromHeader = %q, %v", name, ok)
	}
}
