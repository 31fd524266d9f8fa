package emu

import (
	"github.com/FabianRolfMatthiasNoll/FixedConsole/internal/apu"
	"github.com/FabianRolfMatthiasNoll/FixedConsole/internal/bus"
	"github.com/FabianRolfMatthiasNoll/FixedConsole/internal/ppu"
)

// Host functions. Every pointer argument is a guest address; a pointer or
// length that leaves the address space halts the machine and returns the
// *bus.BoundsError that caused it.

func (m *Machine) Blit(spritePtr uint32, x, y int32, w, h, flags uint32) error {
	return m.BlitSub(spritePtr, x, y, w, h, 0, 0, w, flags)
}

func (m *Machine) BlitSub(spritePtr uint32, x, y int32, w, h, srcX, srcY, stride, flags uint32) error {
	f := ppu.DecodeFlags(flags)
	size, err := bus.SubSpriteSize("blit", spritePtr, srcX, srcY, w, h, stride, f.BPP())
	if err != nil {
		return m.fail(err)
	}
	sprite, err := m.bus.Slice("blit", spritePtr, size)
	if err != nil {
		return m.fail(err)
	}
	if err := m.ppu.BlitSub(sprite, int(x), int(y), w, h, srcX, srcY, stride, f); err != nil {
		return m.fail(err)
	}
	return nil
}

func (m *Machine) Line(x1, y1, x2, y2 int32) {
	m.ppu.Line(int(x1), int(y1), int(x2), int(y2))
}

func (m *Machine) HLine(x, y int32, length uint32) {
	m.ppu.HLine(int(x), int(y), length)
}

func (m *Machine) VLine(x, y int32, length uint32) {
	m.ppu.VLine(int(x), int(y), length)
}

func (m *Machine) Oval(x, y int32, w, h uint32) {
	m.ppu.Oval(int(x), int(y), w, h)
}

func (m *Machine) Rect(x, y int32, w, h uint32) {
	m.ppu.Rect(int(x), int(y), w, h)
}

// Text draws the NUL-terminated string at strPtr.
func (m *Machine) Text(strPtr uint32, x, y int32) error {
	s, err := m.bus.CString("text", strPtr)
	if err != nil {
		return m.fail(err)
	}
	m.ppu.Text(s, int(x), int(y))
	return nil
}

func (m *Machine) TextUtf8(strPtr, byteLength uint32, x, y int32) error {
	s, err := m.bus.Slice("textUtf8", strPtr, byteLength)
	if err != nil {
		return m.fail(err)
	}
	m.ppu.TextUTF8(s, int(x), int(y))
	return nil
}

func (m *Machine) TextUtf16(strPtr, byteLength uint32, x, y int32) error {
	s, err := m.bus.Slice("textUtf16", strPtr, byteLength)
	if err != nil {
		return m.fail(err)
	}
	m.ppu.TextUTF16(s, int(x), int(y))
	return nil
}

// DrawString draws a host-side string with the current draw colors.
func (m *Machine) DrawString(s string, x, y int32) {
	m.ppu.DrawString(s, int(x), int(y))
}

func (m *Machine) Tone(frequency, duration, volume, flags uint32) {
	m.apu.Play(apu.DecodeTone(frequency, duration, volume, flags))
}

// DiskR copies up to size stored bytes to dest and returns the count.
func (m *Machine) DiskR(dest, size uint32) (uint32, error) {
	dst, err := m.bus.Slice("diskr", dest, size)
	if err != nil {
		return 0, m.fail(err)
	}
	if !m.diskAttached {
		return 0, nil
	}
	return uint32(m.disk.Read(dst)), nil
}

// DiskW replaces the disk with up to 1024 bytes from src and returns the
// count stored.
func (m *Machine) DiskW(src, size uint32) (uint32, error) {
	data, err := m.bus.Slice("diskw", src, size)
	if err != nil {
		return 0, m.fail(err)
	}
	if !m.diskAttached {
		return 0, nil
	}
	n := m.disk.Write(data)
	m.diskDirty = true
	return uint32(n), nil
}

// Peek and Poke give script guests byte-level access with the same bounds
// rules as every other host function.

func (m *Machine) Peek(addr uint32) (byte, error) {
	b, err := m.bus.Slice("peek", addr, 1)
	if err != nil {
		return 0, m.fail(err)
	}
	return b[0], nil
}

func (m *Machine) Poke(addr uint32, v byte) error {
	b, err := m.bus.Slice("poke", addr, 1)
	if err != nil {
		return m.fail(err)
	}
	b[0] = v
	return nil
}

func (m *Machine) Peek16(addr uint32) (uint16, error) {
	if _, err := m.bus.Slice("peek16", addr, 2); err != nil {
		return 0, m.fail(err)
	}
	return m.bus.Read16(uint16(addr)), nil
}

func (m *Machine) Poke16(addr uint32, v uint16) error {
	if _, err := m.bus.Slice("poke16", addr, 2); err != nil {
		return m.fail(err)
	}
	m.bus.Write16(uint16(addr), v)
	return nil
}

func (m *Machine) Peek32(addr uint32) (uint32, error) {
	if _, err := m.bus.Slice("peek32", addr, 4); err != nil {
		return 0, m.fail(err)
	}
	return m.bus.Read32(uint16(addr)), nil
}

func (m *Machine) Poke32(addr uint32, v uint32) error {
	if _, err := m.bus.Slice("poke32", addr, 4); err != nil {
		return m.fail(err)
	}
	m.bus.Write32(uint16(addr), v)
	return nil
}

// Memcpy copies size bytes between guest addresses. Overlapping ranges copy
// as if through a temporary buffer.
func (m *Machine) Memcpy(dst, src, size uint32) error {
	from, err := m.bus.Slice("memcpy", src, size)
	if err != nil {
		return m.fail(err)
	}
	to, err := m.bus.Slice("memcpy", dst, size)
	if err != nil {
		return m.fail(err)
	}
	copy(to, from)
	return nil
}

// Memset fills size bytes at dst with v.
func (m *Machine) Memset(dst uint32, v byte, size uint32) error {
	to, err := m.bus.Slice("memset", dst, size)
	if err != nil {
		return m.fail(err)
	}
	for i := range to {
		to[i] = v
	}
	return nil
}
