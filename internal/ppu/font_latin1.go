package ppu

// Latin-1 glyphs for code points 160..255. Accented letters are built from
// their base glyph with a two-row mark on top; capitals drop their middle row
// to make room.

type accent [2]byte

var (
	grave      = accent{0x04, 0x08}
	acute      = accent{0x10, 0x08}
	circumflex = accent{0x0C, 0x12}
	tilde      = accent{0x2C, 0x1A}
	diaeresis  = accent{0x33, 0x00}
	ring       = accent{0x1E, 0x12}
)

var accentedLetters = map[rune]struct {
	base rune
	mark accent
}{
	0xC0: {'A', grave}, 0xC1: {'A', acute}, 0xC2: {'A', circumflex},
	0xC3: {'A', tilde}, 0xC4: {'A', diaeresis}, 0xC5: {'A', ring},
	0xC8: {'E', grave}, 0xC9: {'E', acute}, 0xCA: {'E', circumflex}, 0xCB: {'E', diaeresis},
	0xCC: {'I', grave}, 0xCD: {'I', acute}, 0xCE: {'I', circumflex}, 0xCF: {'I', diaeresis},
	0xD1: {'N', tilde},
	0xD2: {'O', grave}, 0xD3: {'O', acute}, 0xD4: {'O', circumflex},
	0xD5: {'O', tilde}, 0xD6: {'O', diaeresis},
	0xD9: {'U', grave}, 0xDA: {'U', acute}, 0xDB: {'U', circumflex}, 0xDC: {'U', diaeresis},
	0xDD: {'Y', acute},

	0xE0: {'a', grave}, 0xE1: {'a', acute}, 0xE2: {'a', circumflex},
	0xE3: {'a', tilde}, 0xE4: {'a', diaeresis}, 0xE5: {'a', ring},
	0xE8: {'e', grave}, 0xE9: {'e', acute}, 0xEA: {'e', circumflex}, 0xEB: {'e', diaeresis},
	0xEC: {'i', grave}, 0xED: {'i', acute}, 0xEE: {'i', circumflex}, 0xEF: {'i', diaeresis},
	0xF1: {'n', tilde},
	0xF2: {'o', grave}, 0xF3: {'o', acute}, 0xF4: {'o', circumflex},
	0xF5: {'o', tilde}, 0xF6: {'o', diaeresis},
	0xF9: {'u', grave}, 0xFA: {'u', acute}, 0xFB: {'u', circumflex}, 0xFC: {'u', diaeresis},
	0xFD: {'y', acute}, 0xFF: {'y', diaeresis},
}

// symbols and letters with no base glyph to build from
var latin1Drawn = map[rune][8]byte{
	0xA1: {0x0C, 0x00, 0x0C, 0x0C, 0x1E, 0x1E, 0x0C, 0x00}, // ¡
	0xA2: {0x18, 0x18, 0x7E, 0x03, 0x03, 0x7E, 0x18, 0x18}, // ¢
	0xA3: {0x1C, 0x36, 0x26, 0x0F, 0x06, 0x67, 0x3F, 0x00}, // £
	0xA4: {0x00, 0x63, 0x3E, 0x36, 0x36, 0x3E, 0x63, 0x00}, // ¤
	0xA5: {0x33, 0x33, 0x1E, 0x3F, 0x0C, 0x3F, 0x0C, 0x00}, // ¥
	0xA6: {0x0C, 0x0C, 0x0C, 0x00, 0x0C, 0x0C, 0x0C, 0x00}, // ¦
	0xA7: {0x3E, 0x03, 0x1E, 0x33, 0x1E, 0x30, 0x1F, 0x00}, // §
	0xA8: {0x33, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}, // ¨
	0xA9: {0x3E, 0x41, 0x5D, 0x45, 0x5D, 0x41, 0x3E, 0x00}, // ©
	0xAA: {0x1E, 0x30, 0x3E, 0x33, 0x7E, 0x00, 0x7F, 0x00}, // ª
	0xAB: {0x00, 0x4C, 0x26, 0x13, 0x26, 0x4C, 0x00, 0x00}, // «
	0xAC: {0x00, 0x00, 0x00, 0x3F, 0x30, 0x30, 0x00, 0x00}, // ¬
	0xAD: {0x00, 0x00, 0x00, 0x1E, 0x00, 0x00, 0x00, 0x00}, // soft hyphen
	0xAE: {0x3E, 0x41, 0x4F, 0x55, 0x4F, 0x55, 0x3E, 0x00}, // ®
	0xAF: {0x3F, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}, // ¯
	0xB0: {0x1C, 0x36, 0x36, 0x1C, 0x00, 0x00, 0x00, 0x00}, // °
	0xB1: {0x0C, 0x0C, 0x3F, 0x0C, 0x0C, 0x00, 0x3F, 0x00}, // ±
	0xB2: {0x0E, 0x18, 0x0C, 0x06, 0x1E, 0x00, 0x00, 0x00}, // ²
	0xB3: {0x0E, 0x18, 0x0C, 0x18, 0x0E, 0x00, 0x00, 0x00}, // ³
	0xB4: {0x18, 0x0C, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}, // ´
	0xB5: {0x00, 0x00, 0x33, 0x33, 0x33, 0x1F, 0x03, 0x03}, // µ
	0xB6: {0x7E, 0x5B, 0x5B, 0x5E, 0x58, 0x58, 0x58, 0x00}, // ¶
	0xB7: {0x00, 0x00, 0x00, 0x0C, 0x0C, 0x00, 0x00, 0x00}, // ·
	0xB8: {0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x0C, 0x06}, // ¸
	0xB9: {0x0C, 0x0E, 0x0C, 0x0C, 0x1E, 0x00, 0x00, 0x00}, // ¹
	0xBA: {0x1E, 0x33, 0x33, 0x33, 0x1E, 0x00, 0x3F, 0x00}, // º
	0xBB: {0x00, 0x13, 0x26, 0x4C, 0x26, 0x13, 0x00, 0x00}, // »
	0xBC: {0x43, 0x23, 0x13, 0x4B, 0x64, 0x52, 0x79, 0x40}, // ¼
	0xBD: {0x43, 0x23, 0x13, 0x3B, 0x44, 0x22, 0x11, 0x78}, // ½
	0xBE: {0x47, 0x24, 0x16, 0x4C, 0x67, 0x52, 0x79, 0x40}, // ¾
	0xBF: {0x0C, 0x00, 0x0C, 0x06, 0x03, 0x33, 0x1E, 0x00}, // ¿
	0xC6: {0x7C, 0x16, 0x13, 0x7F, 0x13, 0x13, 0x73, 0x00}, // Æ
	0xC7: {0x1E, 0x33, 0x03, 0x03, 0x33, 0x1E, 0x0C, 0x06}, // Ç
	0xD0: {0x1F, 0x36, 0x66, 0x6F, 0x66, 0x36, 0x1F, 0x00}, // Ð
	0xD7: {0x00, 0x63, 0x36, 0x1C, 0x36, 0x63, 0x00, 0x00}, // ×
	0xD8: {0x5C, 0x36, 0x73, 0x6B, 0x67, 0x36, 0x1D, 0x00}, // Ø
	0xDE: {0x03, 0x1F, 0x33, 0x33, 0x1F, 0x03, 0x03, 0x00}, // Þ
	0xDF: {0x1E, 0x33, 0x33, 0x1B, 0x33, 0x33, 0x1B, 0x03}, // ß
	0xE6: {0x00, 0x00, 0x37, 0x6C, 0x7E, 0x1B, 0x76, 0x00}, // æ
	0xE7: {0x00, 0x00, 0x1E, 0x03, 0x03, 0x1E, 0x0C, 0x06}, // ç
	0xF0: {0x36, 0x1C, 0x36, 0x3E, 0x33, 0x33, 0x1E, 0x00}, // ð
	0xF7: {0x00, 0x0C, 0x00, 0x3F, 0x00, 0x0C, 0x00, 0x00}, // ÷
	0xF8: {0x00, 0x00, 0x5E, 0x33, 0x3B, 0x37, 0x1E, 0x01}, // ø
	0xFE: {0x00, 0x03, 0x03, 0x1F, 0x33, 0x1F, 0x03, 0x03}, // þ
}

func latin1Glyphs() map[rune][8]byte {
	out := make(map[rune][8]byte, len(accentedLetters)+len(latin1Drawn))
	for r, g := range latin1Drawn {
		out[r] = g
	}
	for r, l := range accentedLetters {
		out[r] = withAccent(glyphs[l.base], l.mark, l.base >= 'a')
	}
	return out
}

func withAccent(base [8]byte, mark accent, lower bool) [8]byte {
	out := [8]byte{mark[0], mark[1]}
	if lower {
		copy(out[2:], base[2:])
		return out
	}
	out[2], out[3], out[4] = base[0], base[1], base[2]
	out[5], out[6], out[7] = base[4], base[5], base[6]
	return out
}
