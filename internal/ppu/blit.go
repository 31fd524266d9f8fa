package ppu

import (
	"fmt"

	"github.com/FabianRolfMatthiasNoll/FixedConsole/internal/bus"
)

// Raw blit flag bits as passed by guests.
const (
	FlagBPP2   uint32 = 1
	FlagFlipX  uint32 = 2
	FlagFlipY  uint32 = 4
	FlagRotate uint32 = 8
)

// BlitFlags is the decoded form of the blit flags nibble.
type BlitFlags struct {
	BPP2   bool
	FlipX  bool
	FlipY  bool
	Rotate bool
}

// DecodeFlags decodes the low nibble of a guest flags word.
func DecodeFlags(f uint32) BlitFlags {
	return BlitFlags{
		BPP2:   f&FlagBPP2 != 0,
		FlipX:  f&FlagFlipX != 0,
		FlipY:  f&FlagFlipY != 0,
		Rotate: f&FlagRotate != 0,
	}
}

// BPP returns the source bits per pixel.
func (f BlitFlags) BPP() uint32 {
	if f.BPP2 {
		return 2
	}
	return 1
}

// Blit draws a whole w x h sprite at (x, y).
func (p *PPU) Blit(sprite []byte, x, y int, w, h uint32, flags BlitFlags) error {
	return p.BlitSub(sprite, x, y, w, h, 0, 0, w, flags)
}

// BlitSub draws the w x h window at (srcX, srcY) of a sprite sheet whose rows
// are stride pixels wide. Source pixels pick a draw color nibble by index;
// transparent nibbles leave the framebuffer untouched.
func (p *PPU) BlitSub(sprite []byte, x, y int, w, h, srcX, srcY, stride uint32, flags BlitFlags) error {
	if w == 0 || h == 0 {
		return nil
	}
	need, err := bus.SubSpriteSize("blit", 0, srcX, srcY, w, h, stride, flags.BPP())
	if err != nil {
		return err
	}
	if uint64(need) > uint64(len(sprite)) {
		return fmt.Errorf("blit %dx%d from (%d,%d) stride %d: %w (have %d bytes)", w, h, srcX, srcY, stride, ErrSpriteTooShort, len(sprite))
	}

	colors := p.bus.DrawColors()
	width, height := int(w), int(h)
	flipX := flags.FlipX

	var clipXMin, clipYMin, clipXMax, clipYMax int
	if flags.Rotate {
		flipX = !flipX
		clipXMin = max(0, y) - y
		clipYMin = max(0, x) - x
		clipXMax = min(width, Height-y)
		clipYMax = min(height, Width-x)
	} else {
		clipXMin = max(0, x) - x
		clipYMin = max(0, y) - y
		clipXMax = min(width, Width-x)
		clipYMax = min(height, Height-y)
	}

	for yy := clipYMin; yy < clipYMax; yy++ {
		for xx := clipXMin; xx < clipXMax; xx++ {
			tx, ty := x+xx, y+yy
			if flags.Rotate {
				tx, ty = x+yy, y+xx
			}
			sx := int(srcX) + xx
			if flipX {
				sx = int(srcX) + width - xx - 1
			}
			sy := int(srcY) + yy
			if flags.FlipY {
				sy = int(srcY) + height - yy - 1
			}

			bit := sy*int(stride) + sx
			var ci uint
			if flags.BPP2 {
				ci = uint(sprite[bit>>2]>>(6-uint(bit&3)<<1)) & 3
			} else {
				ci = uint(sprite[bit>>3]>>(7-uint(bit&7))) & 1
			}
			dc := (colors >> (ci * 4)) & 0xf
			if dc != 0 {
				p.point(byte(dc-1)&3, tx, ty)
			}
		}
	}
	return nil
}
