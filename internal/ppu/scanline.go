package ppu

// RGBASize is the byte length of a composited RGBA frame.
const RGBASize = Width * Height * 4

// RGBSize is the byte length of a composited RGB frame.
const RGBSize = Width * Height * 3

// Composite converts the framebuffer into RGBA pixels (alpha 0xff) using the
// current palette. dst must hold at least RGBASize bytes. Memory is not
// modified.
func (p *PPU) Composite(dst []byte) {
	pal := p.bus.Palette()
	var lut [4][4]byte
	for i, c := range pal {
		lut[i] = [4]byte{byte(c >> 16), byte(c >> 8), byte(c), 0xff}
	}
	o := 0
	for _, packed := range p.fb {
		for k := uint(0); k < 4; k++ {
			copy(dst[o:o+4], lut[(packed>>(k*2))&3][:])
			o += 4
		}
	}
}

// CompositeRGB is Composite without the alpha channel. dst must hold at
// least RGBSize bytes.
func (p *PPU) CompositeRGB(dst []byte) {
	pal := p.bus.Palette()
	o := 0
	for _, packed := range p.fb {
		for k := uint(0); k < 4; k++ {
			c := pal[(packed>>(k*2))&3]
			dst[o] = byte(c >> 16)
			dst[o+1] = byte(c >> 8)
			dst[o+2] = byte(c)
			o += 3
		}
	}
}

// Scanline returns the palette indices of row y.
func (p *PPU) Scanline(y int) [Width]byte {
	var out [Width]byte
	if y < 0 || y >= Height {
		return out
	}
	row := p.fb[y*Width/4 : (y+1)*Width/4]
	for i, packed := range row {
		for k := 0; k < 4; k++ {
			out[i*4+k] = (packed >> (k * 2)) & 3
		}
	}
	return out
}
