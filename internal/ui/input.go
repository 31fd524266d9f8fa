package ui

import (
	"image"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/FabianRolfMatthiasNoll/FixedConsole/internal/bus"
	"github.com/FabianRolfMatthiasNoll/FixedConsole/internal/emu"
	"github.com/FabianRolfMatthiasNoll/FixedConsole/internal/ppu"
)

// keyBinding maps one keyboard key to a player's button bit.
type keyBinding struct {
	key    ebiten.Key
	player int
	button byte
}

// Player one gets several keys per action button so common layouts
// (QWERTY, QWERTZ, AZERTY, Dvorak) all have a pair next to each other.
var keyBindings = []keyBinding{
	{ebiten.KeyX, 0, bus.ButtonX},
	{ebiten.KeyV, 0, bus.ButtonX},
	{ebiten.KeyK, 0, bus.ButtonX},
	{ebiten.KeySpace, 0, bus.ButtonX},
	{ebiten.KeyZ, 0, bus.ButtonZ},
	{ebiten.KeyC, 0, bus.ButtonZ},
	{ebiten.KeyY, 0, bus.ButtonZ},
	{ebiten.KeyW, 0, bus.ButtonZ},
	{ebiten.KeyJ, 0, bus.ButtonZ},
	{ebiten.KeyArrowLeft, 0, bus.ButtonLeft},
	{ebiten.KeyArrowRight, 0, bus.ButtonRight},
	{ebiten.KeyArrowUp, 0, bus.ButtonUp},
	{ebiten.KeyArrowDown, 0, bus.ButtonDown},

	{ebiten.KeyShiftLeft, 1, bus.ButtonX},
	{ebiten.KeyTab, 1, bus.ButtonX},
	{ebiten.KeyA, 1, bus.ButtonZ},
	{ebiten.KeyQ, 1, bus.ButtonZ},
	{ebiten.KeyS, 1, bus.ButtonLeft},
	{ebiten.KeyF, 1, bus.ButtonRight},
	{ebiten.KeyE, 1, bus.ButtonUp},
	{ebiten.KeyD, 1, bus.ButtonDown},
}

type padBinding struct {
	button ebiten.StandardGamepadButton
	bit    byte
}

var padBindings = []padBinding{
	{ebiten.StandardGamepadButtonRightBottom, bus.ButtonX},
	{ebiten.StandardGamepadButtonRightRight, bus.ButtonZ},
	{ebiten.StandardGamepadButtonLeftLeft, bus.ButtonLeft},
	{ebiten.StandardGamepadButtonLeftRight, bus.ButtonRight},
	{ebiten.StandardGamepadButtonLeftTop, bus.ButtonUp},
	{ebiten.StandardGamepadButtonLeftBottom, bus.ButtonDown},
}

// padsFromKeys folds the keyboard into gamepad bytes.
func padsFromKeys(down func(ebiten.Key) bool) [bus.Players]byte {
	var pads [bus.Players]byte
	for _, b := range keyBindings {
		if down(b.key) {
			pads[b.player] |= b.button
		}
	}
	return pads
}

// gameRect is where the 160x160 picture lands on a screen of the given size:
// the largest integer multiple that fits, centered. Screens smaller than the
// console get a 1x picture anchored at the origin.
func gameRect(screenW, screenH int) image.Rectangle {
	s := min(screenW/ppu.Width, screenH/ppu.Height)
	if s < 1 {
		return image.Rect(0, 0, ppu.Width, ppu.Height)
	}
	w, h := ppu.Width*s, ppu.Height*s
	x, y := (screenW-w)/2, (screenH-h)/2
	return image.Rect(x, y, x+w, y+h)
}

// toLogical converts a screen position to console coordinates. Positions
// outside the picture map outside 0..159 so guests can tell.
func toLogical(cx, cy int, r image.Rectangle) (int16, int16) {
	s := r.Dx() / ppu.Width
	if s < 1 {
		s = 1
	}
	fx, fy := cx-r.Min.X, cy-r.Min.Y
	x, y := floorDiv(fx, s), floorDiv(fy, s)
	return int16(max(-0x8000, min(0x7fff, x))), int16(max(-0x8000, min(0x7fff, y)))
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && a < 0 {
		q--
	}
	return q
}

// ReadInput implements emu.InputSource.
func (a *App) ReadInput() emu.Input {
	var in emu.Input
	if a.showMenu || a.modal.Load() {
		in.MouseX, in.MouseY = 0x7fff, 0x7fff
		return in
	}
	in.Gamepads = padsFromKeys(ebiten.IsKeyPressed)

	a.padIDs = ebiten.AppendGamepadIDs(a.padIDs[:0])
	for i, id := range a.padIDs {
		if i >= bus.Players {
			break
		}
		if !ebiten.IsStandardGamepadLayoutAvailable(id) {
			continue
		}
		for _, b := range padBindings {
			if ebiten.IsStandardGamepadButtonPressed(id, b.button) {
				in.Gamepads[i] |= b.bit
			}
		}
	}

	cx, cy := ebiten.CursorPosition()
	in.MouseX, in.MouseY = toLogical(cx, cy, gameRect(a.curW, a.curH))
	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		in.MouseButtons |= bus.MouseLeft
	}
	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight) {
		in.MouseButtons |= bus.MouseRight
	}
	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonMiddle) {
		in.MouseButtons |= bus.MouseMiddle
	}
	return in
}
