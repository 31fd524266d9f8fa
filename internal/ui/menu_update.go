package ui

import (
	"errors"
	"fmt"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/FabianRolfMatthiasNoll/FixedConsole/internal/emu"
	"github.com/FabianRolfMatthiasNoll/FixedConsole/internal/storage"
)

func (a *App) updateMainMenu() {
	last := len(mainMenuItems) - 1
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowUp) && a.menuIdx > 0 {
		a.menuIdx--
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowDown) && a.menuIdx < last {
		a.menuIdx++
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		switch a.menuIdx {
		case 0:
			if err := a.saveSlot(a.currentSlot); err == nil {
				a.toast(fmt.Sprintf("Saved slot %d", a.currentSlot))
			} else {
				a.toast("Save failed: " + err.Error())
			}
		case 1:
			err := a.loadSlot(a.currentSlot)
			switch {
			case err == nil:
				a.toast(fmt.Sprintf("Loaded slot %d", a.currentSlot))
				a.showMenu = false
			case errors.Is(err, os.ErrNotExist):
				a.toast("Slot is empty")
			default:
				a.toast("Load failed: " + err.Error())
			}
		case 2:
			a.menuMode = "slot"
			a.menuIdx = a.currentSlot
		case 3:
			a.showMenu = false
			a.pickRecording()
		case 4:
			a.exportRecording(storage.ExtWire)
		case 5:
			a.menuMode = "settings"
			a.menuIdx = 0
			a.settingsOff = 0
		case 6:
			a.menuMode = "keys"
			a.keysOff = 0
		case 7:
			a.showMenu = false
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyBackspace) {
		a.showMenu = false
	}
}

func (a *App) updateSlotMenu() {
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowUp) && a.menuIdx > 0 {
		a.menuIdx--
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowDown) && a.menuIdx < storage.Slots-1 {
		a.menuIdx++
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		a.currentSlot = a.menuIdx
		a.saveSettings()
		a.toast(fmt.Sprintf("Slot set to %d", a.currentSlot))
		a.menuMode = "main"
		a.menuIdx = 0
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyBackspace) {
		a.menuMode = "main"
		a.menuIdx = 0
	}
}

func (a *App) updateKeysMenu() {
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowUp) && a.keysOff > 0 {
		a.keysOff--
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowDown) {
		a.keysOff++
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) || inpututil.IsKeyJustPressed(ebiten.KeyBackspace) {
		a.menuMode = "main"
		a.menuIdx = 0
	}
}

func (a *App) updateSettingsMenu() {
	// Items order:
	// 0 Scale
	// 1 Palette
	// 2 Audio
	// 3 Volume
	// 4 Mute
	// 5 Record from boot
	// 6 Show FPS
	items := len(a.settingsItems())
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowUp) && a.menuIdx > 0 {
		a.menuIdx--
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowDown) && a.menuIdx < items-1 {
		a.menuIdx++
	}
	// maintain scroll window
	baseY := 10 + rowHeight*len(wrapText(settingsTitle, a.maxCharsForText(10)))
	maxRows := max((a.curH-baseY)/rowHeight, 1)
	if a.menuIdx < a.settingsOff {
		a.settingsOff = a.menuIdx
	}
	if a.menuIdx >= a.settingsOff+maxRows {
		a.settingsOff = a.menuIdx - maxRows + 1
	}

	left := inpututil.IsKeyJustPressed(ebiten.KeyArrowLeft)
	right := inpututil.IsKeyJustPressed(ebiten.KeyArrowRight) || inpututil.IsKeyJustPressed(ebiten.KeyEnter)
	if !left && !right {
		if inpututil.IsKeyJustPressed(ebiten.KeyBackspace) {
			a.menuMode = "main"
			a.menuIdx = 0
		}
		return
	}
	dir := 1
	if left {
		dir = -1
	}
	switch a.menuIdx {
	case 0: // Scale
		a.cfg.Scale = max(1, min(10, a.cfg.Scale+dir))
		a.applyWindowSize()
	case 1: // Palette
		m := a.sched.Machine()
		a.cfg.Palette = emu.NextPalette(m.Palette(), dir)
		m.SetPalette(a.cfg.Palette)
	case 2: // Audio Output
		a.cfg.AudioStereo = !a.cfg.AudioStereo
		a.stopAudio()
		if err := a.startAudio(); err != nil {
			a.toast(err.Error())
		}
	case 3: // Volume
		v := float64(int(a.cfg.Volume*10+0.5)+dir) / 10
		a.cfg.Volume = max(0.1, min(1, v))
		if a.player != nil {
			a.player.SetVolume(a.cfg.Volume)
		}
	case 4: // Mute
		a.setMuted(!a.cfg.Muted)
	case 5: // Record from boot; applies at the next restart
		a.cfg.Record = !a.cfg.Record
	case 6:
		a.cfg.ShowFPS = !a.cfg.ShowFPS
	}
	a.saveSettings()
}
