package bus

import (
	"errors"
	"testing"
)

func TestLayoutIsContiguous(t *testing.T) {
	if AddrPalette+PaletteSize != AddrDrawColors {
		t.Fatalf("palette does not end at draw colors")
	}
	if AddrSystemFlags+1 != AddrReserved {
		t.Fatalf("system flags do not end at reserved area")
	}
	if AddrReserved+ReservedSize != AddrPersistent {
		t.Fatalf("reserved area does not end at persistent data")
	}
	if AddrPersistent+PersistentSize != AddrFramebuffer {
		t.Fatalf("persistent data does not end at framebuffer")
	}
	if AddrFramebuffer+FramebufferSize != AddrUser {
		t.Fatalf("framebuffer does not end at user memory")
	}
	b := New()
	if len(b.Bytes()) != Size || Size != 65536 {
		t.Fatalf("memory size got %d want 65536", len(b.Bytes()))
	}
}

func TestTypedAccessorsAreLittleEndian(t *testing.T) {
	b := New()
	b.SetPaletteColor(1, 0x123456)
	mem := b.Bytes()
	if mem[8] != 0x56 || mem[9] != 0x34 || mem[10] != 0x12 {
		t.Fatalf("palette bytes got % x", mem[8:12])
	}
	b.SetDrawColors(0x4321)
	if mem[0x14] != 0x21 || mem[0x15] != 0x43 {
		t.Fatalf("draw colors bytes got % x", mem[0x14:0x16])
	}
	b.SetMouse(-2, 300, MouseLeft|MouseMiddle)
	x, y, btn := b.Mouse()
	if x != -2 || y != 300 || btn != 5 {
		t.Fatalf("mouse got %d,%d,%d", x, y, btn)
	}
	if mem[0x1A] != 0xFE || mem[0x1B] != 0xFF {
		t.Fatalf("mouse x bytes got % x", mem[0x1A:0x1C])
	}
	b.SetGamepads([Players]byte{1, 2, 3, 4})
	if mem[0x16] != 1 || mem[0x19] != 4 {
		t.Fatalf("gamepad bytes got % x", mem[0x16:0x1A])
	}
	b.Write32(0xFFFE, 0xAABBCCDD)
	if b.Read(0x0000) != 0xBB || b.Read(0xFFFE) != 0xDD {
		t.Fatalf("32-bit access did not wrap")
	}
}

func TestWindowsAlias(t *testing.T) {
	b := New()
	b.Framebuffer()[0] = 0xAA
	if b.Read(AddrFramebuffer) != 0xAA {
		t.Fatalf("framebuffer window does not alias memory")
	}
	b.Persistent()[23] = 0x11
	if b.Read(AddrFramebuffer-1) != 0x11 {
		t.Fatalf("persistent window does not alias memory")
	}
	if len(b.User()) != UserSize {
		t.Fatalf("user window len %d want %d", len(b.User()), UserSize)
	}
}

func TestSliceBounds(t *testing.T) {
	b := New()
	cases := []struct {
		ptr, n uint32
		ok     bool
	}{
		{0, 0, true},
		{0, Size, true},
		{Size - 1, 1, true},
		{Size, 0, true},
		{Size - 1, 2, false},
		{Size, 1, false},
		{0xFFFFFFFF, 2, false},
		{0x10, 0xFFFFFFF8, false},
	}
	for _, c := range cases {
		s, err := b.Slice("test", c.ptr, c.n)
		if c.ok && err != nil {
			t.Errorf("ptr=%x n=%x: unexpected error %v", c.ptr, c.n, err)
		}
		if c.ok && uint32(len(s)) != c.n {
			t.Errorf("ptr=%x n=%x: len %d", c.ptr, c.n, len(s))
		}
		if !c.ok {
			var be *BoundsError
			if !errors.As(err, &be) || !errors.Is(err, ErrBoundsViolation) {
				t.Errorf("ptr=%x n=%x: expected bounds violation, got %v", c.ptr, c.n, err)
			}
		}
	}
}

func TestCString(t *testing.T) {
	b := New()
	copy(b.Bytes()[0x2000:], "hello\x00")
	s, err := b.CString("text", 0x2000)
	if err != nil || string(s) != "hello" {
		t.Fatalf("got %q, %v", s, err)
	}

	// Unterminated string running to the end of memory.
	mem := b.Bytes()
	for i := Size - 4; i < Size; i++ {
		mem[i] = 'x'
	}
	if _, err := b.CString("text", Size-4); !errors.Is(err, ErrBoundsViolation) {
		t.Fatalf("expected unterminated string to fail, got %v", err)
	}
	if _, err := b.CString("text", Size); !errors.Is(err, ErrBoundsViolation) {
		t.Fatalf("expected out of range pointer to fail, got %v", err)
	}
}

func TestSpriteSizes(t *testing.T) {
	n, err := SpriteSize("blit", 0, 100, 100, 2)
	if err != nil || n != 2500 {
		t.Fatalf("100x100 2bpp got %d, %v", n, err)
	}
	n, err = SpriteSize("blit", 0, 3, 3, 1)
	if err != nil || n != 2 {
		t.Fatalf("3x3 1bpp got %d, %v", n, err)
	}
	if _, err := SpriteSize("blit", 0, 0xFFFFFFFF, 0xFFFFFFFF, 2); !errors.Is(err, ErrBoundsViolation) {
		t.Fatalf("expected overflow to be a bounds violation, got %v", err)
	}
	if _, err := SpriteSize("blit", 0, 0x10000, 0x10000, 2); !errors.Is(err, ErrBoundsViolation) {
		t.Fatalf("expected 2^32 pixel product to be a bounds violation, got %v", err)
	}

	// 8x8 glyph in row 2 of a 16 pixel wide 1bpp sheet: ((2+8-1)*16 + 8) bits.
	n, err = SubSpriteSize("blitSub", 0, 8, 2, 8, 8, 16, 1)
	if err != nil || n != (9*16+8+7)/8 {
		t.Fatalf("sub sprite got %d, %v", n, err)
	}
	if n, err := SubSpriteSize("blitSub", 0, 5, 5, 0, 8, 16, 2); n != 0 || err != nil {
		t.Fatalf("empty sub sprite got %d, %v", n, err)
	}
	if _, err := SubSpriteSize("blitSub", 0, 0, 0xFFFFFFFF, 1, 2, 0xFFFFFFFF, 2); !errors.Is(err, ErrBoundsViolation) {
		t.Fatalf("expected stride overflow to fail, got %v", err)
	}
}
