// Package ppu draws the console's primitive set into the packed 2bpp
// framebuffer and converts it into presentable pixels.
//
// Every destination write is clipped to the 160x160 canvas. Sprite sources
// are plain byte slices; the caller resolves guest pointers through the bus
// bounds checks before they reach this package.
package ppu

import (
	"errors"

	"github.com/FabianRolfMatthiasNoll/FixedConsole/internal/bus"
)

// Canvas dimensions in pixels.
const (
	Width  = 160
	Height = 160
)

// ErrSpriteTooShort is returned when a sprite slice cannot cover the
// requested rectangle.
var ErrSpriteTooShort = errors.New("sprite data too short")

// PPU draws into the framebuffer window of a bus, reading the palette and
// draw colors from the same memory.
type PPU struct {
	bus *bus.Bus
	fb  []byte
}

func New(b *bus.Bus) *PPU {
	return &PPU{bus: b, fb: b.Framebuffer()}
}

// Clear sets every pixel to palette index 0.
func (p *PPU) Clear() {
	clear(p.fb)
}

// Pixel returns the palette index at (x, y). Out of range reads return 0.
func (p *PPU) Pixel(x, y int) byte {
	if x < 0 || x >= Width || y < 0 || y >= Height {
		return 0
	}
	idx := (Width*y + x) >> 2
	shift := uint(x&3) << 1
	return (p.fb[idx] >> shift) & 3
}

// drawColor resolves draw color nibble n. ok is false for transparent.
func (p *PPU) drawColor(n uint) (byte, bool) {
	dc := (p.bus.DrawColors() >> (n * 4)) & 0xf
	if dc == 0 {
		return 0, false
	}
	return byte(dc-1) & 3, true
}

// point writes color at (x, y), which must already be on the canvas.
func (p *PPU) point(color byte, x, y int) {
	idx := (Width*y + x) >> 2
	shift := uint(x&3) << 1
	mask := byte(3) << shift
	p.fb[idx] = color<<shift | p.fb[idx]&^mask
}

// plot is point with clipping.
func (p *PPU) plot(color byte, x, y int) {
	if x >= 0 && x < Width && y >= 0 && y < Height {
		p.point(color, x, y)
	}
}

// span fills [startX, endX) on row y. Arguments must be clipped already.
func (p *PPU) span(color byte, startX, y, endX int) {
	for x := startX; x < endX; x++ {
		p.point(color, x, y)
	}
}

// HLine draws a horizontal line of length n with draw color 0.
func (p *PPU) HLine(x, y int, n uint32) {
	c, ok := p.drawColor(0)
	if !ok || y < 0 || y >= Height {
		return
	}
	startX := max(0, x)
	endX := min(Width, x+int(n))
	if startX < endX {
		p.span(c, startX, y, endX)
	}
}

// VLine draws a vertical line of length n with draw color 0.
func (p *PPU) VLine(x, y int, n uint32) {
	c, ok := p.drawColor(0)
	if !ok || x < 0 || x >= Width {
		return
	}
	startY := max(0, y)
	endY := min(Height, y+int(n))
	for yy := startY; yy < endY; yy++ {
		p.point(c, x, yy)
	}
}

// Rect draws a rectangle filled with draw color 0 and outlined with draw
// color 1.
func (p *PPU) Rect(x, y int, w, h uint32) {
	startX, startY := max(0, x), max(0, y)
	endXu, endYu := x+int(w), y+int(h)
	endX, endY := min(endXu, Width), min(endYu, Height)

	if fill, ok := p.drawColor(0); ok {
		for yy := startY; yy < endY; yy++ {
			p.span(fill, startX, yy, endX)
		}
	}
	stroke, ok := p.drawColor(1)
	if !ok || w == 0 || h == 0 {
		return
	}
	if x >= 0 && x < Width {
		for yy := startY; yy < endY; yy++ {
			p.point(stroke, x, yy)
		}
	}
	if endXu > 0 && endXu <= Width {
		for yy := startY; yy < endY; yy++ {
			p.point(stroke, endXu-1, yy)
		}
	}
	if y >= 0 && y < Height && startX < endX {
		p.span(stroke, startX, y, endX)
	}
	if endYu > 0 && endYu <= Height && startX < endX {
		p.span(stroke, startX, endYu-1, endX)
	}
}

// maxOvalSide bounds oval dimensions so the 64-bit error terms of the
// midpoint algorithm cannot overflow.
const maxOvalSide = 0xffff

// Oval draws an ellipse inscribed in the given rectangle, filled with draw
// color 0 and outlined with draw color 1.
func (p *PPU) Oval(x, y int, w, h uint32) {
	if w == 0 || h == 0 || w > maxOvalSide || h > maxOvalSide {
		return
	}
	if x >= Width || y >= Height || x+int(w) <= 0 || y+int(h) <= 0 {
		return
	}
	fill, doFill := p.drawColor(0)
	stroke, doStroke := p.drawColor(1)
	if !doFill && !doStroke {
		return
	}

	width, height := int64(w), int64(h)
	a := width - 1
	b := height - 1
	b1 := b % 2

	north := int64(y) + height/2
	west := int64(x)
	east := int64(x) + width - 1
	south := north - b1

	dx := 4 * (1 - a) * b * b
	dy := 4 * (b1 + 1) * a * a
	e := dx + dy + b1*a*a
	a = 8 * a * a
	b1 = 8 * b * b

	hspan := func(row, from, to int64) {
		if row < 0 || row >= Height {
			return
		}
		s, t := max(from, 0), min(to, Width)
		if s < t {
			p.span(fill, int(s), int(row), int(t))
		}
	}

	for {
		if doStroke {
			p.plot(stroke, int(east), int(north))
			p.plot(stroke, int(west), int(north))
			p.plot(stroke, int(west), int(south))
			p.plot(stroke, int(east), int(south))
		}
		start := west + 1
		if doFill && east-start > 0 {
			hspan(north, start, east)
			hspan(south, start, east)
		}
		e2 := 2 * e
		if e2 <= dy {
			north++
			south--
			dy += a
			e += dy
		}
		if e2 >= dx || 2*e > dy {
			west++
			east--
			dx += b1
			e += dx
		}
		if west > east {
			break
		}
	}

	// Very flat ovals finish before the top and bottom rows are reached.
	for north-south < height {
		if doStroke {
			p.plot(stroke, int(west-1), int(north))
			p.plot(stroke, int(east+1), int(north))
			p.plot(stroke, int(west-1), int(south))
			p.plot(stroke, int(east+1), int(south))
		}
		north++
		south--
	}
}

// Line draws a line between two points with draw color 0.
func (p *PPU) Line(x1, y1, x2, y2 int) {
	c, ok := p.drawColor(0)
	if !ok {
		return
	}
	if !clipLine(&x1, &y1, &x2, &y2) {
		return
	}
	if y1 > y2 {
		x1, x2 = x2, x1
		y1, y2 = y2, y1
	}
	dx := x2 - x1
	sx := 1
	if dx < 0 {
		dx, sx = -dx, -1
	}
	dy := y2 - y1
	e := -dy / 2
	if dx > dy {
		e = dx / 2
	}
	for {
		p.plot(c, x1, y1)
		if x1 == x2 && y1 == y2 {
			return
		}
		e2 := e
		if e2 > -dx {
			e -= dy
			x1 += sx
		}
		if e2 < dy {
			e += dx
			y1++
		}
	}
}
