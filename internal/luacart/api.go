package luacart

import (
	"math/rand/v2"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/FabianRolfMatthiasNoll/FixedConsole/internal/bus"
	"github.com/FabianRolfMatthiasNoll/FixedConsole/internal/cart"
	"github.com/FabianRolfMatthiasNoll/FixedConsole/internal/ppu"
)

// constants visible to scripts
var constants = map[string]int64{
	"PALETTE":       bus.AddrPalette,
	"DRAW_COLORS":   bus.AddrDrawColors,
	"GAMEPAD1":      bus.AddrGamepads,
	"GAMEPAD2":      bus.AddrGamepads + 1,
	"GAMEPAD3":      bus.AddrGamepads + 2,
	"GAMEPAD4":      bus.AddrGamepads + 3,
	"MOUSE_X":       bus.AddrMouseX,
	"MOUSE_Y":       bus.AddrMouseY,
	"MOUSE_BUTTONS": bus.AddrMouseButtons,
	"SYSTEM_FLAGS":  bus.AddrSystemFlags,
	"PERSISTENT":    bus.AddrPersistent,
	"FRAMEBUFFER":   bus.AddrFramebuffer,
	"USER":          bus.AddrUser,

	"BUTTON_1":     int64(bus.ButtonX),
	"BUTTON_2":     int64(bus.ButtonZ),
	"BUTTON_LEFT":  int64(bus.ButtonLeft),
	"BUTTON_RIGHT": int64(bus.ButtonRight),
	"BUTTON_UP":    int64(bus.ButtonUp),
	"BUTTON_DOWN":  int64(bus.ButtonDown),

	"MOUSE_LEFT":   int64(bus.MouseLeft),
	"MOUSE_RIGHT":  int64(bus.MouseRight),
	"MOUSE_MIDDLE": int64(bus.MouseMiddle),

	"SYSTEM_PRESERVE_FRAMEBUFFER": int64(bus.FlagPreserveFramebuffer),
	"SYSTEM_HIDE_GAMEPAD_OVERLAY": int64(bus.FlagHideGamepadOverlay),

	"BLIT_1BPP":   0,
	"BLIT_2BPP":   int64(ppu.FlagBPP2),
	"BLIT_FLIP_X": int64(ppu.FlagFlipX),
	"BLIT_FLIP_Y": int64(ppu.FlagFlipY),
	"BLIT_ROTATE": int64(ppu.FlagRotate),

	"TONE_PULSE1":    0,
	"TONE_PULSE2":    1,
	"TONE_TRIANGLE":  2,
	"TONE_NOISE":     3,
	"TONE_MODE1":     0,
	"TONE_MODE2":     4,
	"TONE_MODE3":     8,
	"TONE_MODE4":     12,
	"TONE_PAN_LEFT":  16,
	"TONE_PAN_RIGHT": 32,
	"TONE_NOTE_MODE": 64,

	"GAME_MODE":  bus.AddrPersistent + int64(cart.GameMode)*4,
	"MAX_FRAMES": bus.AddrPersistent + int64(cart.MaxFrames)*4,
	"GAME_SEED":  bus.AddrPersistent + int64(cart.GameSeed)*4,
	"FRAMES":     bus.AddrPersistent + int64(cart.Frames)*4,
	"SCORE":      bus.AddrPersistent + int64(cart.Score)*4,
	"HEALTH":     bus.AddrPersistent + int64(cart.Health)*4,
}

func (c *Cart) register() {
	L := c.L
	for name, v := range constants {
		L.SetGlobal(name, lua.LNumber(v))
	}
	for name, fn := range map[string]lua.LGFunction{
		"blit":     c.blit,
		"blitSub":  c.blitSub,
		"line":     c.line,
		"hline":    c.hline,
		"vline":    c.vline,
		"oval":     c.oval,
		"rect":     c.rect,
		"text":     c.text,
		"textUtf8": c.textUtf8,
		"tone":     c.tone,
		"diskr":    c.diskr,
		"diskw":    c.diskw,
		"trace":    c.trace,
		"tracef":   c.tracef,
		"print":    c.print,
		"peek":     c.peek,
		"poke":     c.poke,
		"peek16":   c.peek16,
		"poke16":   c.poke16,
		"peek32":   c.peek32,
		"poke32":   c.poke32,
		"memcpy":   c.memcpy,
		"memset":   c.memset,
		"gamepad":  c.gamepad,
		"mouse":    c.mouse,
		"btn":      c.btn,
	} {
		L.SetGlobal(name, L.NewFunction(fn))
	}

	// math.random draws from a generator seeded by the session so replays
	// see the same sequence. Its state lives in memory between calls.
	seed := uint64(c.m.Persistent().Get(cart.GameSeed))
	c.pcg = rand.NewPCG(seed, seed^rngMix)
	c.rng = rand.New(c.pcg)
	if math, ok := L.GetGlobal(lua.MathLibName).(*lua.LTable); ok {
		L.SetField(math, "random", L.NewFunction(func(L *lua.LState) int {
			return luaRandom(L, c.rng)
		}))
		L.SetField(math, "randomseed", L.NewFunction(func(L *lua.LState) int {
			s := uint64(L.CheckInt64(1))
			c.pcg.Seed(s, s^rngMix)
			return 0
		}))
	}
}

const (
	rngMix  = 0x9e3779b97f4a7c15
	rngSize = 16
	// the generator state occupies the tail of the reserved area
	rngAddr = bus.AddrReserved + bus.ReservedSize - rngSize
)

// loadRNG picks up the generator state from memory, which a state load may
// have replaced.
func (c *Cart) loadRNG() {
	b := make([]byte, 0, 4+rngSize)
	b = append(b, "pcg:"...)
	b = append(b, c.m.Bus().Bytes()[rngAddr:rngAddr+rngSize]...)
	if err := c.pcg.UnmarshalBinary(b); err != nil {
		panic(err)
	}
}

func (c *Cart) storeRNG() {
	b, err := c.pcg.MarshalBinary()
	if err != nil {
		panic(err)
	}
	copy(c.m.Bus().Bytes()[rngAddr:rngAddr+rngSize], b[4:])
}

func luaRandom(L *lua.LState, rng *rand.Rand) int {
	switch L.GetTop() {
	case 0:
		L.Push(lua.LNumber(rng.Float64()))
	case 1:
		n := L.CheckInt64(1)
		if n < 1 {
			L.ArgError(1, "interval is empty")
		}
		L.Push(lua.LNumber(rng.Int64N(n) + 1))
	default:
		lo, hi := L.CheckInt64(1), L.CheckInt64(2)
		if hi < lo {
			L.ArgError(2, "interval is empty")
		}
		L.Push(lua.LNumber(rng.Int64N(hi-lo+1) + lo))
	}
	return 1
}

func i32(L *lua.LState, n int) int32  { return int32(L.CheckInt64(n)) }
func u32(L *lua.LState, n int) uint32 { return uint32(L.CheckInt64(n)) }

// check raises a script error for a failed host call. The machine has
// already halted.
func check(L *lua.LState, err error) {
	if err != nil {
		L.RaiseError("%v", err)
	}
}

func (c *Cart) blit(L *lua.LState) int {
	check(L, c.m.Blit(u32(L, 1), i32(L, 2), i32(L, 3), u32(L, 4), u32(L, 5), uint32(L.OptInt64(6, 0))))
	return 0
}

func (c *Cart) blitSub(L *lua.LState) int {
	check(L, c.m.BlitSub(u32(L, 1), i32(L, 2), i32(L, 3), u32(L, 4), u32(L, 5),
		u32(L, 6), u32(L, 7), u32(L, 8), uint32(L.OptInt64(9, 0))))
	return 0
}

func (c *Cart) line(L *lua.LState) int {
	c.m.Line(i32(L, 1), i32(L, 2), i32(L, 3), i32(L, 4))
	return 0
}

func (c *Cart) hline(L *lua.LState) int {
	c.m.HLine(i32(L, 1), i32(L, 2), u32(L, 3))
	return 0
}

func (c *Cart) vline(L *lua.LState) int {
	c.m.VLine(i32(L, 1), i32(L, 2), u32(L, 3))
	return 0
}

func (c *Cart) oval(L *lua.LState) int {
	c.m.Oval(i32(L, 1), i32(L, 2), u32(L, 3), u32(L, 4))
	return 0
}

func (c *Cart) rect(L *lua.LState) int {
	c.m.Rect(i32(L, 1), i32(L, 2), u32(L, 3), u32(L, 4))
	return 0
}

// text accepts a Lua string or a pointer to a NUL-terminated guest string.
func (c *Cart) text(L *lua.LState) int {
	if s, ok := L.Get(1).(lua.LString); ok {
		c.m.DrawString(string(s), i32(L, 2), i32(L, 3))
		return 0
	}
	check(L, c.m.Text(u32(L, 1), i32(L, 2), i32(L, 3)))
	return 0
}

func (c *Cart) textUtf8(L *lua.LState) int {
	check(L, c.m.TextUtf8(u32(L, 1), u32(L, 2), i32(L, 3), i32(L, 4)))
	return 0
}

func (c *Cart) tone(L *lua.LState) int {
	c.m.Tone(u32(L, 1), u32(L, 2), u32(L, 3), uint32(L.OptInt64(4, 0)))
	return 0
}

func (c *Cart) diskr(L *lua.LState) int {
	n, err := c.m.DiskR(u32(L, 1), u32(L, 2))
	check(L, err)
	L.Push(lua.LNumber(n))
	return 1
}

func (c *Cart) diskw(L *lua.LState) int {
	n, err := c.m.DiskW(u32(L, 1), u32(L, 2))
	check(L, err)
	L.Push(lua.LNumber(n))
	return 1
}

func (c *Cart) trace(L *lua.LState) int {
	if s, ok := L.Get(1).(lua.LString); ok {
		c.m.TraceString(string(s))
		return 0
	}
	check(L, c.m.Trace(u32(L, 1)))
	return 0
}

func (c *Cart) tracef(L *lua.LState) int {
	check(L, c.m.Tracef(u32(L, 1), u32(L, 2)))
	return 0
}

func (c *Cart) print(L *lua.LState) int {
	parts := make([]string, L.GetTop())
	for i := range parts {
		parts[i] = L.ToStringMeta(L.Get(i + 1)).String()
	}
	c.m.TraceString(strings.Join(parts, "\t"))
	return 0
}

func (c *Cart) peek(L *lua.LState) int {
	v, err := c.m.Peek(u32(L, 1))
	check(L, err)
	L.Push(lua.LNumber(v))
	return 1
}

func (c *Cart) poke(L *lua.LState) int {
	check(L, c.m.Poke(u32(L, 1), byte(L.CheckInt64(2))))
	return 0
}

func (c *Cart) peek16(L *lua.LState) int {
	v, err := c.m.Peek16(u32(L, 1))
	check(L, err)
	L.Push(lua.LNumber(v))
	return 1
}

func (c *Cart) poke16(L *lua.LState) int {
	check(L, c.m.Poke16(u32(L, 1), uint16(L.CheckInt64(2))))
	return 0
}

func (c *Cart) peek32(L *lua.LState) int {
	v, err := c.m.Peek32(u32(L, 1))
	check(L, err)
	L.Push(lua.LNumber(v))
	return 1
}

func (c *Cart) poke32(L *lua.LState) int {
	check(L, c.m.Poke32(u32(L, 1), uint32(L.CheckInt64(2))))
	return 0
}

func (c *Cart) memcpy(L *lua.LState) int {
	check(L, c.m.Memcpy(u32(L, 1), u32(L, 2), u32(L, 3)))
	return 0
}

func (c *Cart) memset(L *lua.LState) int {
	check(L, c.m.Memset(u32(L, 1), byte(L.CheckInt64(2)), u32(L, 3)))
	return 0
}

// gamepad returns the button byte of player n, counting from 1.
func (c *Cart) gamepad(L *lua.LState) int {
	n := L.OptInt(1, 1)
	if n < 1 || n > bus.Players {
		L.ArgError(1, "player out of range")
	}
	L.Push(lua.LNumber(c.m.Bus().Gamepads()[n-1]))
	return 1
}

func (c *Cart) mouse(L *lua.LState) int {
	x, y, b := c.m.Bus().Mouse()
	L.Push(lua.LNumber(x))
	L.Push(lua.LNumber(y))
	L.Push(lua.LNumber(b))
	return 3
}

// btn reports whether any of the buttons in mask are held by player n
// (default 1). Lua 5.1 has no bitwise operators.
func (c *Cart) btn(L *lua.LState) int {
	mask := byte(L.CheckInt64(1))
	n := L.OptInt(2, 1)
	if n < 1 || n > bus.Players {
		L.ArgError(2, "player out of range")
	}
	L.Push(lua.LBool(c.m.Bus().Gamepads()[n-1]&mask != 0))
	return 1
}
