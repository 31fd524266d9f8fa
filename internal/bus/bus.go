// Package bus models the console's 64KB address space. Offsets below are the
// ABI guest programs are compiled against and never move.
package bus

import "encoding/binary"

// Size is the fixed size of the address space.
const Size = 0x10000

// Memory map.
const (
	AddrPalette      = 0x0004 // 4 x u32 0xRRGGBB
	AddrDrawColors   = 0x0014 // u16, four nibbles
	AddrGamepads     = 0x0016 // 4 x u8, one per player
	AddrMouseX       = 0x001A // i16
	AddrMouseY       = 0x001C // i16
	AddrMouseButtons = 0x001E // u8
	AddrSystemFlags  = 0x001F // u8
	AddrReserved     = 0x0020
	AddrPersistent   = 0x00A0
	AddrFramebuffer  = 0x00B8
	AddrUser         = 0x19B8
)

// Region sizes.
const (
	PaletteSize     = 16
	ReservedSize    = 128
	PersistentSize  = 24
	FramebufferSize = 6400
	UserSize        = Size - AddrUser
	Players         = 4
)

// Gamepad button bits.
const (
	ButtonX     byte = 0x01
	ButtonZ     byte = 0x02
	ButtonLeft  byte = 0x10
	ButtonRight byte = 0x20
	ButtonUp    byte = 0x40
	ButtonDown  byte = 0x80

	// The console's A/B naming of the two action buttons.
	ButtonA = ButtonX
	ButtonB = ButtonZ
)

// Mouse button bits.
const (
	MouseLeft   byte = 0x01
	MouseRight  byte = 0x02
	MouseMiddle byte = 0x04
)

// System flag bits.
const (
	FlagPreserveFramebuffer byte = 0x01
	FlagHideGamepadOverlay  byte = 0x02
)

// Bus owns the address space. All sub-region accessors return windows into
// the same backing array.
type Bus struct {
	mem [Size]byte
}

func New() *Bus {
	return &Bus{}
}

// Reset zeroes the whole address space.
func (b *Bus) Reset() {
	b.mem = [Size]byte{}
}

// Bytes returns the whole address space. The slice aliases the bus.
func (b *Bus) Bytes() []byte { return b.mem[:] }

func (b *Bus) Read(addr uint16) byte { return b.mem[addr] }

func (b *Bus) Write(addr uint16, value byte) { b.mem[addr] = value }

// Read16 and friends are little-endian and wrap at the top of memory.
func (b *Bus) Read16(addr uint16) uint16 {
	return uint16(b.mem[addr]) | uint16(b.mem[addr+1])<<8
}

func (b *Bus) Write16(addr uint16, v uint16) {
	b.mem[addr] = byte(v)
	b.mem[addr+1] = byte(v >> 8)
}

func (b *Bus) Read32(addr uint16) uint32 {
	return uint32(b.Read16(addr)) | uint32(b.Read16(addr+2))<<16
}

func (b *Bus) Write32(addr uint16, v uint32) {
	b.Write16(addr, uint16(v))
	b.Write16(addr+2, uint16(v>>16))
}

// PaletteColor returns palette entry i (0..3) as 0xRRGGBB.
func (b *Bus) PaletteColor(i int) uint32 {
	return binary.LittleEndian.Uint32(b.mem[AddrPalette+4*(i&3):]) & 0xffffff
}

func (b *Bus) SetPaletteColor(i int, rgb uint32) {
	binary.LittleEndian.PutUint32(b.mem[AddrPalette+4*(i&3):], rgb)
}

// Palette returns all four palette colors.
func (b *Bus) Palette() [4]uint32 {
	var p [4]uint32
	for i := range p {
		p[i] = b.PaletteColor(i)
	}
	return p
}

func (b *Bus) SetPalette(p [4]uint32) {
	for i, c := range p {
		b.SetPaletteColor(i, c)
	}
}

func (b *Bus) DrawColors() uint16     { return b.Read16(AddrDrawColors) }
func (b *Bus) SetDrawColors(v uint16) { b.Write16(AddrDrawColors, v) }

// Gamepads returns the four gamepad bytes.
func (b *Bus) Gamepads() [Players]byte {
	var g [Players]byte
	copy(g[:], b.mem[AddrGamepads:AddrGamepads+Players])
	return g
}

func (b *Bus) SetGamepads(g [Players]byte) {
	copy(b.mem[AddrGamepads:AddrGamepads+Players], g[:])
}

// Mouse returns the mouse position and button mask.
func (b *Bus) Mouse() (x, y int16, buttons byte) {
	return int16(b.Read16(AddrMouseX)), int16(b.Read16(AddrMouseY)), b.mem[AddrMouseButtons]
}

func (b *Bus) SetMouse(x, y int16, buttons byte) {
	b.Write16(AddrMouseX, uint16(x))
	b.Write16(AddrMouseY, uint16(y))
	b.mem[AddrMouseButtons] = buttons
}

func (b *Bus) SystemFlags() byte { return b.mem[AddrSystemFlags] }

// PreserveFramebuffer reports whether the guest asked to keep the
// framebuffer between ticks.
func (b *Bus) PreserveFramebuffer() bool {
	return b.mem[AddrSystemFlags]&FlagPreserveFramebuffer != 0
}

// Framebuffer returns the packed 2bpp framebuffer window.
func (b *Bus) Framebuffer() []byte {
	return b.mem[AddrFramebuffer : AddrFramebuffer+FramebufferSize : AddrFramebuffer+FramebufferSize]
}

// Persistent returns the persistent data window.
func (b *Bus) Persistent() []byte {
	return b.mem[AddrPersistent : AddrPersistent+PersistentSize : AddrPersistent+PersistentSize]
}

// User returns the guest-owned user memory window.
func (b *Bus) User() []byte { return b.mem[AddrUser:] }
