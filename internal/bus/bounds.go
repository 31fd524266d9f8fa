package bus

import (
	"errors"
	"fmt"
	"math/bits"
)

// ErrBoundsViolation is matched by every BoundsError. A guest that trips it
// has broken its contract and must be halted.
var ErrBoundsViolation = errors.New("memory access out of bounds")

// BoundsError describes a rejected guest access.
type BoundsError struct {
	Op  string
	Ptr uint32
	Len uint64
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("%s: %v (ptr=0x%08x len=%d)", e.Op, ErrBoundsViolation, e.Ptr, e.Len)
}

func (e *BoundsError) Unwrap() error { return ErrBoundsViolation }

// Check verifies that [ptr, ptr+length) lies inside the address space.
func Check(op string, ptr uint32, length uint64) error {
	end := uint64(ptr) + length
	if uint64(ptr) > Size || end > Size || end < uint64(ptr) {
		return &BoundsError{Op: op, Ptr: ptr, Len: length}
	}
	return nil
}

// Slice returns the checked window [ptr, ptr+length). The slice aliases
// memory and has its capacity clipped to its length.
func (b *Bus) Slice(op string, ptr, length uint32) ([]byte, error) {
	if err := Check(op, ptr, uint64(length)); err != nil {
		return nil, err
	}
	end := ptr + length
	return b.mem[ptr:end:end], nil
}

// CString returns the bytes of the NUL-terminated string at ptr, without the
// terminator. The scan never leaves the address space.
func (b *Bus) CString(op string, ptr uint32) ([]byte, error) {
	if ptr >= Size {
		return nil, &BoundsError{Op: op, Ptr: ptr}
	}
	for i := ptr; i < Size; i++ {
		if b.mem[i] == 0 {
			return b.mem[ptr:i:i], nil
		}
	}
	return nil, &BoundsError{Op: op, Ptr: ptr, Len: uint64(Size - ptr)}
}

// mulCheck multiplies a and b, failing when the product leaves 32 bits.
func mulCheck(a, b uint64) (uint64, bool) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 || lo > 0xffffffff {
		return 0, false
	}
	return lo, true
}

// SpriteSize returns the number of bytes a w x h sprite at bpp bits per
// pixel occupies, rounded up to whole bytes.
func SpriteSize(op string, ptr, w, h, bpp uint32) (uint32, error) {
	px, ok := mulCheck(uint64(w), uint64(h))
	if !ok {
		return 0, &BoundsError{Op: op, Ptr: ptr, Len: 1 << 32}
	}
	nbits, ok := mulCheck(px, uint64(bpp))
	if !ok {
		return 0, &BoundsError{Op: op, Ptr: ptr, Len: 1 << 32}
	}
	return uint32((nbits + 7) / 8), nil
}

// SubSpriteSize returns the number of bytes a sprite sheet must provide so
// that the w x h window at (srcX, srcY) with the given row stride (in
// pixels) can be sampled.
func SubSpriteSize(op string, ptr, srcX, srcY, w, h, stride, bpp uint32) (uint32, error) {
	if w == 0 || h == 0 {
		return 0, nil
	}
	bad := &BoundsError{Op: op, Ptr: ptr, Len: 1 << 32}
	rows, ok := mulCheck(uint64(srcY)+uint64(h)-1, uint64(stride))
	if !ok {
		return 0, bad
	}
	px := rows + uint64(srcX) + uint64(w)
	if px > 0xffffffff {
		return 0, bad
	}
	nbits, ok := mulCheck(px, uint64(bpp))
	if !ok {
		return 0, bad
	}
	return uint32((nbits + 7) / 8), nil
}
