package ppu

import (
	"encoding/binary"
	"unicode/utf16"
	"unicode/utf8"
)

// Text draws NUL-free bytes, one glyph per byte.
func (p *PPU) Text(s []byte, x, y int) {
	runes := make([]rune, len(s))
	for i, c := range s {
		runes[i] = rune(c)
	}
	p.drawRunes(runes, x, y)
}

// TextUTF8 decodes s as UTF-8. Invalid sequences draw as blank cells.
func (p *PPU) TextUTF8(s []byte, x, y int) {
	runes := make([]rune, 0, utf8.RuneCount(s))
	for len(s) > 0 {
		r, n := utf8.DecodeRune(s)
		runes = append(runes, r)
		s = s[n:]
	}
	p.drawRunes(runes, x, y)
}

// TextUTF16 decodes s as little-endian UTF-16 code units. A trailing odd
// byte is ignored.
func (p *PPU) TextUTF16(s []byte, x, y int) {
	units := make([]uint16, len(s)/2)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16(s[2*i:])
	}
	p.drawRunes(utf16.Decode(units), x, y)
}

// DrawString draws a host-side string.
func (p *PPU) DrawString(s string, x, y int) {
	p.drawRunes([]rune(s), x, y)
}

func (p *PPU) drawRunes(runes []rune, x, y int) {
	cx := x
	for _, r := range runes {
		switch {
		case r == '\n':
			y += glyphSize
			cx = x
		case r >= firstGlyph && r <= lastGlyph:
			srcY := uint32(r-firstGlyph) * glyphSize
			// The sheet always covers every glyph row, so this cannot fail.
			_ = p.BlitSub(fontSheet, cx, y, glyphSize, glyphSize, 0, srcY, glyphStride, BlitFlags{})
			cx += glyphSize
		default:
			cx += glyphSize
		}
	}
}
