package ui

import (
	"fmt"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/FabianRolfMatthiasNoll/FixedConsole/internal/storage"
)

var mainMenuItems = []string{
	"Save state",
	"Load state",
	"Select Slot",
	"Replay recording...",
	"Export recording",
	"Settings",
	"Keybindings",
	"Close",
}

func (a *App) drawMainMenu(screen *ebiten.Image) {
	lines := []string{"Menu:"}
	for i, s := range mainMenuItems {
		if i < 2 {
			s = fmt.Sprintf("%s (slot %d)", s, a.currentSlot)
		}
		lines = append(lines, "  "+s)
	}
	for i, s := range lines {
		prefix := "  "
		if i == a.menuIdx+1 {
			prefix = "> "
		}
		drawText(screen, truncateText(prefix+s, a.maxCharsForText(10)), 10, 10+i*rowHeight)
	}
	hint := "Enter: select  Esc: back  F8: keys"
	drawText(screen, truncateText(hint, a.maxCharsForText(10)), 10, 10+(len(lines)+1)*rowHeight)
}

func (a *App) drawSlotMenu(screen *ebiten.Image) {
	drawText(screen, "Select Slot:", 10, 10)
	for i := 0; i < storage.Slots; i++ {
		state := "[empty]"
		if path, err := a.store.StatePath(a.cartID, i); err == nil {
			if _, err := os.Stat(path); err == nil {
				state = ""
			}
		}
		prefix := "  "
		if i == a.menuIdx {
			prefix = "> "
		}
		mark := ""
		if i == a.currentSlot {
			mark = " *"
		}
		drawText(screen, fmt.Sprintf("%s%d %s%s", prefix, i, state, mark), 10, 10+(i+1)*rowHeight)
	}
}

func (a *App) settingsItems() []string {
	audio := map[bool]string{true: "Stereo", false: "Mono"}[a.cfg.AudioStereo]
	onOff := map[bool]string{true: "On", false: "Off"}
	return []string{
		fmt.Sprintf("Scale: %dx", a.cfg.Scale),
		fmt.Sprintf("Palette: %s", a.sched.Machine().Palette()),
		fmt.Sprintf("Audio: %s", audio),
		fmt.Sprintf("Volume: %d%%", int(a.cfg.Volume*100+0.5)),
		fmt.Sprintf("Mute: %s", onOff[a.cfg.Muted]),
		fmt.Sprintf("Record from boot: %s", onOff[a.cfg.Record]),
		fmt.Sprintf("Show FPS in log: %s", onOff[a.cfg.ShowFPS]),
	}
}

const settingsTitle = "Settings (Up/Down select; Left/Right change; Esc: back)"

func (a *App) drawSettingsMenu(screen *ebiten.Image) {
	cursorY := 10
	for _, w := range wrapText(settingsTitle, a.maxCharsForText(10)) {
		drawText(screen, w, 10, cursorY)
		cursorY += rowHeight
	}
	items := a.settingsItems()
	baseY := cursorY
	maxRows := max((a.curH-baseY)/rowHeight, 1)
	end := min(a.settingsOff+maxRows, len(items))
	for i := a.settingsOff; i < end; i++ {
		prefix := "  "
		if i == a.menuIdx {
			prefix = "> "
		}
		line := truncateText(prefix+items[i], a.maxCharsForText(10))
		drawText(screen, line, 10, baseY+(i-a.settingsOff)*rowHeight)
	}
	if a.settingsOff > 0 {
		drawText(screen, "^", 2, baseY)
	}
	if end < len(items) {
		drawText(screen, "v", 2, baseY+(maxRows-1)*rowHeight)
	}
}

var keyRows = []string{
	"Player 1",
	"  X: X, V, K, Space",
	"  Z: Z, C, Y, W, J",
	"  D-Pad: Arrows",
	"Player 2",
	"  X: Left Shift, Tab",
	"  Z: A, Q",
	"  D-Pad: E S D F",
	"Gamepads 1-4 map to players 1-4",
	"Mouse: pointer and buttons",
	"",
	"P: Pause    N: Step (when paused)",
	"F1: Restart",
	"F2: Next palette (Shift: previous)",
	"F3: Hot reload cart",
	"F4: Toggle recording (restarts)",
	"F5: Export recording (Shift: JSON)",
	"F6: Recorder status",
	"F7: Replay last export / stop replay",
	"F8: This help",
	"F9: Pick a recording to replay",
	"F10: Mute",
	"F11: Fullscreen",
	"F12: Screenshot",
	"Ctrl+V: Replay Z85 from clipboard",
	"Esc: Open/Close Menu",
}

func (a *App) drawKeysMenu(screen *ebiten.Image) {
	title := "Keybindings (Up/Down to scroll, Esc to return)"
	cursorY := 10
	for _, w := range wrapText(title, a.maxCharsForText(10)) {
		drawText(screen, w, 10, cursorY)
		cursorY += rowHeight
	}
	baseY := cursorY + 4
	maxRows := max((a.curH-baseY)/rowHeight, 1)
	a.keysOff = max(0, min(a.keysOff, len(keyRows)-1))
	end := min(a.keysOff+maxRows, len(keyRows))
	maxChars := a.maxCharsForText(10)
	for i := a.keysOff; i < end; i++ {
		drawText(screen, truncateText(keyRows[i], maxChars), 10, baseY+(i-a.keysOff)*rowHeight)
	}
	if a.keysOff > 0 {
		drawText(screen, "^", 2, baseY)
	}
	if end < len(keyRows) {
		drawText(screen, "v", 2, baseY+(maxRows-1)*rowHeight)
	}
}
